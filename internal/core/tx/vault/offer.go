package vault

import (
	"strconv"
	"time"

	"github.com/LeJamon/goFracVault/internal/core/amount"
	"github.com/LeJamon/goFracVault/internal/core/events"
	"github.com/LeJamon/goFracVault/internal/core/keylet"
	"github.com/LeJamon/goFracVault/internal/core/royalty"
	"github.com/LeJamon/goFracVault/internal/core/shares"
	"github.com/LeJamon/goFracVault/internal/core/state"
	"github.com/LeJamon/goFracVault/internal/core/tx"
	"github.com/LeJamon/goFracVault/internal/core/types"
	"github.com/holiman/uint256"
)

// MakeOffer opens a buyout offer for every share of a vault. Payment is
// escrowed in the registry account until the offer ends.
type MakeOffer struct {
	Buyer    types.Address
	VaultID  uint64
	Duration time.Duration
	Payment  *uint256.Int
}

func (m *MakeOffer) TxType() tx.Type       { return tx.TypeOfferMake }
func (m *MakeOffer) Source() types.Address { return m.Buyer }
func (m *MakeOffer) Guards() []string      { return []string{guard(m.VaultID)} }

func (m *MakeOffer) Preflight(cfg tx.Config) tx.Result {
	if m.Payment == nil || m.Payment.IsZero() {
		return tx.TemBAD_AMOUNT
	}
	if m.Duration < cfg.MinOfferDuration || m.Duration > cfg.MaxOfferDuration {
		return tx.TemBAD_EXPIRATION
	}
	return tx.TesSUCCESS
}

func (m *MakeOffer) Apply(ctx *tx.ApplyContext) tx.Result {
	v, err := Load(ctx.View, m.VaultID)
	if err != nil {
		return vaultFailure(ctx, err)
	}
	if v.State == OfferActive {
		return ctx.Failf(tx.TecOFFER_ACTIVE, "vault %d already has an offer", v.ID)
	}

	if err := ctx.Pay(m.Buyer, RegistryAccount, m.Payment); err != nil {
		return ctx.Fail(err)
	}

	v.OfferBuyer = m.Buyer
	v.OfferPrice = *m.Payment
	v.OfferDeadline = ctx.Now.Add(m.Duration).Unix()
	v.State = OfferActive
	if err := store(ctx.View, v); err != nil {
		return ctx.Fail(err)
	}

	ctx.Emit(events.OfferMade, v.ID, map[string]string{
		"price":    m.Payment.Dec(),
		"buyer":    m.Buyer.String(),
		"deadline": strconv.FormatInt(v.OfferDeadline, 10),
	})
	return tx.TesSUCCESS
}

// AcceptOffer delegates shares to the active offer. The caller's allowance
// to the registry must equal Shares exactly.
type AcceptOffer struct {
	Holder  types.Address
	VaultID uint64
	Shares  *uint256.Int
}

func (a *AcceptOffer) TxType() tx.Type       { return tx.TypeOfferAccept }
func (a *AcceptOffer) Source() types.Address { return a.Holder }
func (a *AcceptOffer) Guards() []string      { return []string{guard(a.VaultID)} }

func (a *AcceptOffer) Preflight(tx.Config) tx.Result {
	if a.Shares == nil || a.Shares.IsZero() {
		return tx.TemBAD_AMOUNT
	}
	return tx.TesSUCCESS
}

func (a *AcceptOffer) Apply(ctx *tx.ApplyContext) tx.Result {
	v, err := Load(ctx.View, a.VaultID)
	if err != nil {
		return vaultFailure(ctx, err)
	}
	if v.State != OfferActive {
		return ctx.Failf(tx.TecNO_OFFER, "vault %d has no active offer", v.ID)
	}
	if ctx.Now.Unix() >= v.OfferDeadline {
		return ctx.Failf(tx.TecEXPIRED, "offer on vault %d expired at %d", v.ID, v.OfferDeadline)
	}

	ledger, err := ctx.Shares(v.ShareLedger)
	if err != nil {
		return ctx.Fail(err)
	}
	allowed, err := ledger.Allowance(a.Holder, RegistryAccount)
	if err != nil {
		return ctx.Fail(err)
	}
	if !allowed.Eq(a.Shares) {
		return ctx.Failf(tx.TecNO_AUTH, "allowance %s does not match %s", allowed.Dec(), a.Shares.Dec())
	}
	if err := ledger.TransferFrom(RegistryAccount, a.Holder, RegistryAccount, a.Shares); err != nil {
		return ctx.Fail(err)
	}

	k := keylet.Acceptance(v.ID, a.Holder)
	acc, _, err := state.Lookup[Acceptance](ctx.View, k)
	if err != nil {
		return ctx.Fail(err)
	}
	if acc == nil {
		acc = &Acceptance{}
	}
	held, err := amount.Add(&acc.Shares, a.Shares)
	if err != nil {
		return ctx.Fail(err)
	}
	acc.Shares = *held
	if err := state.Put(ctx.View, k, acc); err != nil {
		return ctx.Fail(err)
	}

	total, err := amount.Add(&v.TotalAccepted, a.Shares)
	if err != nil {
		return ctx.Fail(err)
	}
	v.TotalAccepted = *total
	v.Participants = append(v.Participants, a.Holder)
	if err := store(ctx.View, v); err != nil {
		return ctx.Fail(err)
	}

	ctx.Emit(events.OfferAccepted, v.ID, map[string]string{
		"holder":        a.Holder.String(),
		"shares":        a.Shares.Dec(),
		"totalAccepted": v.TotalAccepted.Dec(),
	})
	return tx.TesSUCCESS
}

// EndOffer settles the active offer once its deadline has passed. A fully
// subscribed offer buys out every share; otherwise the buyer is refunded and
// every participant gets their shares back.
type EndOffer struct {
	Caller  types.Address
	VaultID uint64
}

func (e *EndOffer) TxType() tx.Type       { return tx.TypeOfferEnd }
func (e *EndOffer) Source() types.Address { return e.Caller }
func (e *EndOffer) Guards() []string      { return []string{guard(e.VaultID)} }

func (e *EndOffer) Preflight(tx.Config) tx.Result {
	return tx.TesSUCCESS
}

func (e *EndOffer) Apply(ctx *tx.ApplyContext) tx.Result {
	v, err := Load(ctx.View, e.VaultID)
	if err != nil {
		return vaultFailure(ctx, err)
	}
	if v.State != OfferActive {
		return ctx.Failf(tx.TecNO_OFFER, "vault %d has no active offer", v.ID)
	}
	if ctx.Now.Unix() <= v.OfferDeadline {
		return ctx.Failf(tx.TecTOO_SOON, "offer on vault %d runs until %d", v.ID, v.OfferDeadline)
	}

	ledger, err := ctx.Shares(v.ShareLedger)
	if err != nil {
		return ctx.Fail(err)
	}

	buyer := v.OfferBuyer
	price := v.OfferPrice.Clone()
	fulfilled := !v.TotalAccepted.Lt(amount.FullShares())

	if fulfilled {
		err = settle(ctx, v, ledger)
	} else {
		err = refund(ctx, v, ledger)
	}
	if err != nil {
		return ctx.Fail(err)
	}

	v.State = Inactive
	v.OfferBuyer = types.ZeroAddress
	v.OfferPrice.Clear()
	v.OfferDeadline = 0
	v.TotalAccepted.Clear()
	v.Participants = nil
	if err := store(ctx.View, v); err != nil {
		return ctx.Fail(err)
	}

	ctx.Emit(events.OfferEnded, v.ID, map[string]string{
		"buyer":     buyer.String(),
		"price":     price.Dec(),
		"fulfilled": strconv.FormatBool(fulfilled),
	})
	return tx.TesSUCCESS
}

// refund returns the offer price to the buyer and each participant's
// escrowed shares. A participant listed twice is returned once.
func refund(ctx *tx.ApplyContext, v *Entry, ledger *shares.Ledger) error {
	if err := ctx.Pay(RegistryAccount, v.OfferBuyer, &v.OfferPrice); err != nil {
		return err
	}
	return forEachAcceptance(ctx, v, func(holder types.Address, accepted *uint256.Int) error {
		return ledger.Transfer(RegistryAccount, holder, accepted)
	})
}

// settle hands every share to the buyer, skims the royalty for the royalty
// receivers and pays participants pro rata.
func settle(ctx *tx.ApplyContext, v *Entry, ledger *shares.Ledger) error {
	if err := ledger.Transfer(RegistryAccount, v.OfferBuyer, amount.FullShares()); err != nil {
		return err
	}

	royaltyTotal, net, err := royalty.Skim(&v.OfferPrice)
	if err != nil {
		return err
	}
	if _, err := royalty.Distribute(ctx.Context(), ctx.Bank(), RegistryAccount, royaltyTotal, v.RoyaltyReceivers); err != nil {
		return err
	}

	pricePerShare, err := amount.MulDiv(net, amount.Scale(), amount.FullShares())
	if err != nil {
		return err
	}
	err = forEachAcceptance(ctx, v, func(holder types.Address, accepted *uint256.Int) error {
		payout, err := amount.MulDiv(accepted, pricePerShare, amount.Scale())
		if err != nil {
			return err
		}
		return ctx.Pay(RegistryAccount, holder, payout)
	})
	if err != nil {
		return err
	}

	v.RoyaltyReceivers = append(v.RoyaltyReceivers, v.OfferBuyer)
	v.CurrentOwner = v.OfferBuyer
	return nil
}

// forEachAcceptance visits participants in order, erasing each acceptance
// before fn runs so a repeated participant is skipped.
func forEachAcceptance(ctx *tx.ApplyContext, v *Entry, fn func(types.Address, *uint256.Int) error) error {
	for _, holder := range v.Participants {
		k := keylet.Acceptance(v.ID, holder)
		acc, found, err := state.Lookup[Acceptance](ctx.View, k)
		if err != nil {
			return err
		}
		if !found {
			continue
		}
		if err := ctx.View.Erase(k); err != nil {
			return err
		}
		if err := fn(holder, &acc.Shares); err != nil {
			return err
		}
	}
	return nil
}
