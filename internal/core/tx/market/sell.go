package market

import (
	"errors"

	"github.com/LeJamon/goFracVault/internal/core/amount"
	"github.com/LeJamon/goFracVault/internal/core/events"
	"github.com/LeJamon/goFracVault/internal/core/keylet"
	"github.com/LeJamon/goFracVault/internal/core/state"
	"github.com/LeJamon/goFracVault/internal/core/tx"
	"github.com/LeJamon/goFracVault/internal/core/types"
	"github.com/holiman/uint256"
)

// SellTokens lists shares for sale, or tops up the caller's existing order.
// A top-up replaces the price of the whole escrowed balance.
type SellTokens struct {
	Seller types.Address
	Ledger [32]byte
	Amount *uint256.Int
	Price  *uint256.Int
}

func (s *SellTokens) TxType() tx.Type       { return tx.TypeMarketSell }
func (s *SellTokens) Source() types.Address { return s.Seller }
func (s *SellTokens) Guards() []string      { return []string{orderGuard(s.Ledger, s.Seller)} }

func (s *SellTokens) Preflight(tx.Config) tx.Result {
	if s.Amount == nil || s.Amount.IsZero() {
		return tx.TemBAD_AMOUNT
	}
	if s.Price == nil || s.Seller.IsZero() {
		return tx.TemMALFORMED
	}
	return tx.TesSUCCESS
}

func (s *SellTokens) Apply(ctx *tx.ApplyContext) tx.Result {
	m, err := Load(ctx.View, s.Ledger)
	if err != nil {
		return marketFailure(ctx, err)
	}
	ledger, err := ctx.Shares(s.Ledger)
	if err != nil {
		return ctx.Fail(err)
	}

	bal, err := ledger.BalanceOf(s.Seller)
	if err != nil {
		return ctx.Fail(err)
	}
	if bal.Lt(s.Amount) {
		return ctx.Failf(tx.TecINSUFFICIENT_FUNDS, "balance %s below listing %s", bal.Dec(), s.Amount.Dec())
	}
	if err := ledger.Transfer(s.Seller, m.Account, s.Amount); err != nil {
		return ctx.Fail(err)
	}

	order, found, err := LoadOrder(ctx.View, s.Ledger, s.Seller)
	if err != nil {
		return ctx.Fail(err)
	}
	if found {
		next, err := amount.Add(&order.Amount, s.Amount)
		if err != nil {
			return ctx.Fail(err)
		}
		order.Amount = *next
		order.Price = *s.Price
	} else {
		order = &Order{Seller: s.Seller, Amount: *s.Amount, Price: *s.Price}
		m.Holders = append(m.Holders, s.Seller)
		m.ActiveOrders++
		if err := state.Put(ctx.View, keylet.Market(s.Ledger), m); err != nil {
			return ctx.Fail(err)
		}
	}
	if err := state.Put(ctx.View, keylet.SellOrder(s.Ledger, s.Seller), order); err != nil {
		return ctx.Fail(err)
	}

	ctx.Emit(events.TokensListed, m.VaultID, map[string]string{
		"seller": s.Seller.String(),
		"amount": s.Amount.Dec(),
		"price":  s.Price.Dec(),
	})
	return tx.TesSUCCESS
}

// CancelSellOffer returns the caller's escrowed shares and deletes the order.
type CancelSellOffer struct {
	Seller types.Address
	Ledger [32]byte
}

func (c *CancelSellOffer) TxType() tx.Type       { return tx.TypeMarketCancel }
func (c *CancelSellOffer) Source() types.Address { return c.Seller }
func (c *CancelSellOffer) Guards() []string      { return []string{orderGuard(c.Ledger, c.Seller)} }

func (c *CancelSellOffer) Preflight(tx.Config) tx.Result {
	if c.Seller.IsZero() {
		return tx.TemMALFORMED
	}
	return tx.TesSUCCESS
}

func (c *CancelSellOffer) Apply(ctx *tx.ApplyContext) tx.Result {
	m, err := Load(ctx.View, c.Ledger)
	if err != nil {
		return marketFailure(ctx, err)
	}
	order, found, err := LoadOrder(ctx.View, c.Ledger, c.Seller)
	if err != nil {
		return ctx.Fail(err)
	}
	if !found {
		return ctx.Failf(tx.TecNO_TARGET, "%s has no sell order", c.Seller)
	}

	ledger, err := ctx.Shares(c.Ledger)
	if err != nil {
		return ctx.Fail(err)
	}
	if err := ledger.Transfer(m.Account, c.Seller, &order.Amount); err != nil {
		return ctx.Fail(err)
	}

	m.ActiveOrders--
	if err := state.Put(ctx.View, keylet.Market(c.Ledger), m); err != nil {
		return ctx.Fail(err)
	}
	if err := ctx.View.Erase(keylet.SellOrder(c.Ledger, c.Seller)); err != nil {
		return ctx.Fail(err)
	}

	ctx.Emit(events.SellOfferCanceled, m.VaultID, map[string]string{
		"seller": c.Seller.String(),
		"amount": order.Amount.Dec(),
	})
	return tx.TesSUCCESS
}

func marketFailure(ctx *tx.ApplyContext, err error) tx.Result {
	if errors.Is(err, ErrUnknownMarket) {
		return ctx.Failf(tx.TecNO_ENTRY, "%v", err)
	}
	return ctx.Fail(err)
}
