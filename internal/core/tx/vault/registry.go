package vault

import (
	"context"
	"errors"
	"time"

	"github.com/LeJamon/goFracVault/internal/core/amount"
	"github.com/LeJamon/goFracVault/internal/core/keylet"
	"github.com/LeJamon/goFracVault/internal/core/royalty"
	"github.com/LeJamon/goFracVault/internal/core/state"
	"github.com/LeJamon/goFracVault/internal/core/tx"
	"github.com/LeJamon/goFracVault/internal/core/types"
	"github.com/holiman/uint256"
)

// ErrNotVaulted is returned by VaultByAsset for an asset with no vault.
var ErrNotVaulted = errors.New("asset is not vaulted")

// Registry submits vault operations and answers vault queries. It also
// serves royalty receivers to the marketplace.
type Registry struct {
	engine *tx.Engine
}

var _ royalty.ReceiverSource = (*Registry)(nil)

func NewRegistry(engine *tx.Engine) *Registry {
	return &Registry{engine: engine}
}

// CreateVault returns the new vault id.
func (r *Registry) CreateVault(ctx context.Context, caller types.Address, name, symbol string, collection types.Address, assetID *uint256.Int) (uint64, *tx.ApplyResult, error) {
	res, err := r.engine.Submit(ctx, &CreateVault{
		Caller:     caller,
		Name:       name,
		Symbol:     symbol,
		Collection: collection,
		AssetID:    assetID,
	})
	if err != nil {
		return 0, res, err
	}
	id, _ := res.Output.(uint64)
	return id, res, nil
}

func (r *Registry) MakeOffer(ctx context.Context, buyer types.Address, vaultID uint64, duration time.Duration, payment *uint256.Int) (*tx.ApplyResult, error) {
	return r.engine.Submit(ctx, &MakeOffer{Buyer: buyer, VaultID: vaultID, Duration: duration, Payment: payment})
}

func (r *Registry) AcceptOffer(ctx context.Context, holder types.Address, vaultID uint64, shareAmount *uint256.Int) (*tx.ApplyResult, error) {
	return r.engine.Submit(ctx, &AcceptOffer{Holder: holder, VaultID: vaultID, Shares: shareAmount})
}

func (r *Registry) EndOffer(ctx context.Context, caller types.Address, vaultID uint64) (*tx.ApplyResult, error) {
	return r.engine.Submit(ctx, &EndOffer{Caller: caller, VaultID: vaultID})
}

// GetVaultInfo returns a snapshot of vault id.
func (r *Registry) GetVaultInfo(ctx context.Context, id uint64) (*Entry, error) {
	var out *Entry
	err := r.engine.View(ctx, func(v state.View) error {
		var err error
		out, err = Load(v, id)
		return err
	})
	return out, err
}

// RoyaltyReceivers implements royalty.ReceiverSource.
func (r *Registry) RoyaltyReceivers(view state.View, vaultID uint64) ([]types.Address, error) {
	v, err := Load(view, vaultID)
	if err != nil {
		return nil, err
	}
	return v.RoyaltyReceivers, nil
}

// VaultCount returns the number of vaults ever created.
func (r *Registry) VaultCount(ctx context.Context) (uint64, error) {
	var n uint64
	err := r.engine.View(ctx, func(v state.View) error {
		index, found, err := state.Lookup[IndexEntry](v, keylet.VaultIndex())
		if found {
			n = index.Count
		}
		return err
	})
	return n, err
}

// VaultByAsset returns the id of the vault holding an asset.
func (r *Registry) VaultByAsset(ctx context.Context, collection types.Address, assetID *uint256.Int) (uint64, error) {
	var id uint64
	err := r.engine.View(ctx, func(v state.View) error {
		entry, found, err := state.Lookup[ByAssetEntry](v, keylet.VaultByAsset(collection, assetID))
		if err != nil {
			return err
		}
		if !found {
			return ErrNotVaulted
		}
		id = entry.VaultID
		return nil
	})
	return id, err
}

// AcceptedShares returns what holder has delegated to the active offer.
func (r *Registry) AcceptedShares(ctx context.Context, vaultID uint64, holder types.Address) (*uint256.Int, error) {
	out := amount.Zero()
	err := r.engine.View(ctx, func(v state.View) error {
		if _, err := Load(v, vaultID); err != nil {
			return err
		}
		acc, found, err := state.Lookup[Acceptance](v, keylet.Acceptance(vaultID, holder))
		if found {
			out = acc.Shares.Clone()
		}
		return err
	})
	return out, err
}

func vaultFailure(ctx *tx.ApplyContext, err error) tx.Result {
	if errors.Is(err, ErrUnknownVault) {
		return ctx.Failf(tx.TecNO_ENTRY, "%v", err)
	}
	return ctx.Fail(err)
}
