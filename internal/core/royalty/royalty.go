// Package royalty holds the skim and split arithmetic shared by tender-offer
// settlement and marketplace trades.
package royalty

import (
	"context"

	"github.com/LeJamon/goFracVault/internal/core/amount"
	"github.com/LeJamon/goFracVault/internal/core/state"
	"github.com/LeJamon/goFracVault/internal/core/types"
	"github.com/holiman/uint256"
)

// ReceiverSource returns the royalty receivers of a vault as recorded in view.
type ReceiverSource interface {
	RoyaltyReceivers(view state.View, vaultID uint64) ([]types.Address, error)
}

// Payer moves native currency.
type Payer interface {
	Pay(ctx context.Context, from, to types.Address, amt *uint256.Int) error
}

// Skim splits total into the royalty cut, floor(total * ROYALTY_BPS / 10000),
// and the remainder.
func Skim(total *uint256.Int) (royalty, net *uint256.Int, err error) {
	royalty, err = amount.BPS(total, amount.RoyaltyBPS)
	if err != nil {
		return nil, nil, err
	}
	net, err = amount.Sub(total, royalty)
	if err != nil {
		return nil, nil, err
	}
	return royalty, net, nil
}

// Distribute pays floor(total / len(receivers)) from from to each receiver
// in order and returns the per-receiver share. Zero shares are not paid and
// the undivided remainder stays with from.
func Distribute(ctx context.Context, payer Payer, from types.Address, total *uint256.Int, receivers []types.Address) (*uint256.Int, error) {
	if len(receivers) == 0 || total.IsZero() {
		return amount.Zero(), nil
	}
	share, err := amount.Div(total, uint256.NewInt(uint64(len(receivers))))
	if err != nil {
		return nil, err
	}
	if share.IsZero() {
		return share, nil
	}
	for _, r := range receivers {
		if err := payer.Pay(ctx, from, r, share); err != nil {
			return nil, err
		}
	}
	return share, nil
}
