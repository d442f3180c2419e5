package market

import (
	"context"
	"errors"
	"fmt"

	"github.com/LeJamon/goFracVault/internal/core/keylet"
	"github.com/LeJamon/goFracVault/internal/core/royalty"
	"github.com/LeJamon/goFracVault/internal/core/state"
	"github.com/LeJamon/goFracVault/internal/core/tx"
	"github.com/LeJamon/goFracVault/internal/core/types"
	"github.com/holiman/uint256"
)

// ErrOrderIndex is returned for a holder position past the end of the list.
var ErrOrderIndex = errors.New("order index out of range")

// Marketplace submits market operations and answers market queries.
type Marketplace struct {
	engine    *tx.Engine
	receivers royalty.ReceiverSource
}

// New returns a marketplace that reads royalty receivers from receivers.
func New(engine *tx.Engine, receivers royalty.ReceiverSource) *Marketplace {
	return &Marketplace{engine: engine, receivers: receivers}
}

// LedgerOf returns the share ledger identity of a vault.
func LedgerOf(vaultID uint64) [32]byte {
	return keylet.ShareLedger(vaultID).Key
}

func (m *Marketplace) SellTokens(ctx context.Context, seller types.Address, ledger [32]byte, amt, price *uint256.Int) (*tx.ApplyResult, error) {
	return m.engine.Submit(ctx, &SellTokens{Seller: seller, Ledger: ledger, Amount: amt, Price: price})
}

func (m *Marketplace) CancelSellOffer(ctx context.Context, seller types.Address, ledger [32]byte) (*tx.ApplyResult, error) {
	return m.engine.Submit(ctx, &CancelSellOffer{Seller: seller, Ledger: ledger})
}

func (m *Marketplace) BuyTokens(ctx context.Context, buyer types.Address, ledger [32]byte, seller types.Address, payment *uint256.Int) (*tx.ApplyResult, error) {
	return m.engine.Submit(ctx, &BuyTokens{
		Buyer:     buyer,
		Ledger:    ledger,
		Seller:    seller,
		Payment:   payment,
		Receivers: m.receivers,
	})
}

// Info returns the market paired with ledger.
func (m *Marketplace) Info(ctx context.Context, ledger [32]byte) (*Entry, error) {
	var out *Entry
	err := m.engine.View(ctx, func(v state.View) error {
		var err error
		out, err = Load(v, ledger)
		return err
	})
	return out, err
}

// TotalSellers returns how many listings ever created a new order.
func (m *Marketplace) TotalSellers(ctx context.Context, ledger [32]byte) (int, error) {
	info, err := m.Info(ctx, ledger)
	if err != nil {
		return 0, err
	}
	return len(info.Holders), nil
}

// ActiveOrders returns the number of open orders.
func (m *Marketplace) ActiveOrders(ctx context.Context, ledger [32]byte) (uint64, error) {
	info, err := m.Info(ctx, ledger)
	if err != nil {
		return 0, err
	}
	return info.ActiveOrders, nil
}

// OrderOf returns seller's order, or a zero order if there is none.
func (m *Marketplace) OrderOf(ctx context.Context, ledger [32]byte, seller types.Address) (*Order, error) {
	var out *Order
	err := m.engine.View(ctx, func(v state.View) error {
		order, found, err := LoadOrder(v, ledger, seller)
		if err != nil {
			return err
		}
		if !found {
			order = &Order{}
		}
		out = order
		return nil
	})
	return out, err
}

// OrderAt returns the order of the holder at position i of the holder list.
// The list is never compacted, so a position whose order is gone yields a
// zero order.
func (m *Marketplace) OrderAt(ctx context.Context, ledger [32]byte, i int) (*Order, error) {
	info, err := m.Info(ctx, ledger)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(info.Holders) {
		return nil, fmt.Errorf("%w: %d of %d", ErrOrderIndex, i, len(info.Holders))
	}
	return m.OrderOf(ctx, ledger, info.Holders[i])
}
