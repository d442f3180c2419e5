package market

import (
	"github.com/LeJamon/goFracVault/internal/core/amount"
	"github.com/LeJamon/goFracVault/internal/core/events"
	"github.com/LeJamon/goFracVault/internal/core/keylet"
	"github.com/LeJamon/goFracVault/internal/core/royalty"
	"github.com/LeJamon/goFracVault/internal/core/state"
	"github.com/LeJamon/goFracVault/internal/core/tx"
	"github.com/LeJamon/goFracVault/internal/core/types"
	"github.com/holiman/uint256"
)

// BuyTokens fills part or all of seller's order. The payment buys
// floor(payment * SCALE / price) shares; a zero payment buys nothing and
// still records a purchase.
type BuyTokens struct {
	Buyer   types.Address
	Ledger  [32]byte
	Seller  types.Address
	Payment *uint256.Int

	// Receivers resolves the vault's royalty receivers
	Receivers royalty.ReceiverSource
}

func (b *BuyTokens) TxType() tx.Type       { return tx.TypeMarketBuy }
func (b *BuyTokens) Source() types.Address { return b.Buyer }
func (b *BuyTokens) Guards() []string      { return []string{orderGuard(b.Ledger, b.Seller)} }

func (b *BuyTokens) Preflight(tx.Config) tx.Result {
	if b.Buyer.IsZero() || b.Seller.IsZero() {
		return tx.TemMALFORMED
	}
	return tx.TesSUCCESS
}

func (b *BuyTokens) Apply(ctx *tx.ApplyContext) tx.Result {
	if b.Receivers == nil {
		return ctx.Failf(tx.TefINTERNAL, "no royalty receiver source")
	}
	payment := amount.Zero()
	if b.Payment != nil {
		payment = b.Payment.Clone()
	}

	m, err := Load(ctx.View, b.Ledger)
	if err != nil {
		return marketFailure(ctx, err)
	}
	order, found, err := LoadOrder(ctx.View, b.Ledger, b.Seller)
	if err != nil {
		return ctx.Fail(err)
	}
	if !found {
		return ctx.Failf(tx.TecNO_TARGET, "%s has no sell order", b.Seller)
	}
	if order.Price.IsZero() {
		return ctx.Failf(tx.TecBAD_PRICE, "order of %s has a zero price", b.Seller)
	}

	shareAmount, err := amount.MulDiv(payment, amount.Scale(), &order.Price)
	if err != nil {
		return ctx.Fail(err)
	}
	if shareAmount.Gt(&order.Amount) {
		return ctx.Failf(tx.TecINSUFFICIENT_FUNDS, "payment buys %s shares, order holds %s", shareAmount.Dec(), order.Amount.Dec())
	}

	if err := ctx.Pay(b.Buyer, m.Account, payment); err != nil {
		return ctx.Fail(err)
	}

	receivers, err := b.Receivers.RoyaltyReceivers(ctx.View, m.VaultID)
	if err != nil {
		return ctx.Fail(err)
	}
	royaltyTotal, net, err := royalty.Skim(payment)
	if err != nil {
		return ctx.Fail(err)
	}
	if _, err := royalty.Distribute(ctx.Context(), ctx.Bank(), m.Account, royaltyTotal, receivers); err != nil {
		return ctx.Fail(err)
	}

	ledger, err := ctx.Shares(b.Ledger)
	if err != nil {
		return ctx.Fail(err)
	}
	if err := ledger.Transfer(m.Account, b.Buyer, shareAmount); err != nil {
		return ctx.Fail(err)
	}

	remaining := new(uint256.Int).Sub(&order.Amount, shareAmount)
	orderKey := keylet.SellOrder(b.Ledger, b.Seller)
	if remaining.IsZero() {
		if err := ctx.View.Erase(orderKey); err != nil {
			return ctx.Fail(err)
		}
		m.ActiveOrders--
		if err := state.Put(ctx.View, keylet.Market(b.Ledger), m); err != nil {
			return ctx.Fail(err)
		}
	} else {
		order.Amount = *remaining
		if err := state.Put(ctx.View, orderKey, order); err != nil {
			return ctx.Fail(err)
		}
	}

	if err := ctx.Pay(m.Account, b.Seller, net); err != nil {
		return ctx.Fail(err)
	}

	ctx.Emit(events.TokensPurchased, m.VaultID, map[string]string{
		"buyer":     b.Buyer.String(),
		"seller":    b.Seller.String(),
		"amount":    shareAmount.Dec(),
		"totalCost": payment.Dec(),
	})
	return tx.TesSUCCESS
}
