package vault

import (
	"fmt"

	"github.com/LeJamon/goFracVault/internal/core/amount"
	"github.com/LeJamon/goFracVault/internal/core/events"
	"github.com/LeJamon/goFracVault/internal/core/keylet"
	"github.com/LeJamon/goFracVault/internal/core/shares"
	"github.com/LeJamon/goFracVault/internal/core/state"
	"github.com/LeJamon/goFracVault/internal/core/tx"
	"github.com/LeJamon/goFracVault/internal/core/tx/market"
	"github.com/LeJamon/goFracVault/internal/core/types"
	"github.com/holiman/uint256"
)

// CreateVault fractionalizes an asset. The asset owner must have approved
// the registry as operator for the collection.
type CreateVault struct {
	Caller     types.Address
	Name       string
	Symbol     string
	Collection types.Address
	AssetID    *uint256.Int
}

func (c *CreateVault) TxType() tx.Type       { return tx.TypeVaultCreate }
func (c *CreateVault) Source() types.Address { return c.Caller }

func (c *CreateVault) Guards() []string {
	if c.AssetID == nil {
		return nil
	}
	return []string{fmt.Sprintf("asset/%s/%s", c.Collection, c.AssetID.Dec())}
}

func (c *CreateVault) Preflight(tx.Config) tx.Result {
	if c.AssetID == nil || c.Collection.IsZero() {
		return tx.TemMALFORMED
	}
	return tx.TesSUCCESS
}

func (c *CreateVault) Apply(ctx *tx.ApplyContext) tx.Result {
	if c.Caller != ctx.Config.Admin {
		return ctx.Failf(tx.TecNO_PERMISSION, "%s is not the admin", c.Caller)
	}

	exists, err := ctx.View.Exists(keylet.VaultByAsset(c.Collection, c.AssetID))
	if err != nil {
		return ctx.Fail(err)
	}
	custody := ctx.Custody()
	owner, err := custody.OwnerOf(c.Collection, c.AssetID)
	if err != nil {
		return ctx.Fail(err)
	}
	if exists || owner == RegistryAccount {
		return ctx.Failf(tx.TecDUPLICATE, "asset %s/%s is already vaulted", c.Collection, c.AssetID.Dec())
	}

	if err := custody.Transfer(RegistryAccount, owner, RegistryAccount, c.Collection, c.AssetID); err != nil {
		return ctx.Fail(err)
	}

	index, _, err := state.Lookup[IndexEntry](ctx.View, keylet.VaultIndex())
	if err != nil {
		return ctx.Fail(err)
	}
	if index == nil {
		index = &IndexEntry{}
	}
	id := index.Count
	index.Count++
	if err := state.Put(ctx.View, keylet.VaultIndex(), index); err != nil {
		return ctx.Fail(err)
	}

	ledger, err := shares.Create(ctx.View, id, c.Name, c.Symbol, amount.FullShares(), owner)
	if err != nil {
		return ctx.Fail(err)
	}
	m, err := market.Create(ctx.View, ledger.ID(), id)
	if err != nil {
		return ctx.Fail(err)
	}

	v := &Entry{
		ID:               id,
		Name:             c.Name,
		Symbol:           c.Symbol,
		Collection:       c.Collection,
		AssetID:          *c.AssetID,
		CurrentOwner:     owner,
		ShareLedger:      ledger.ID(),
		Market:           m.Account,
		State:            Inactive,
		RoyaltyReceivers: []types.Address{owner},
	}
	if err := state.Insert(ctx.View, keylet.Vault(id), v); err != nil {
		return ctx.Fail(err)
	}
	if err := state.Insert(ctx.View, keylet.VaultByAsset(c.Collection, c.AssetID), &ByAssetEntry{VaultID: id}); err != nil {
		return ctx.Fail(err)
	}

	ctx.Emit(events.VaultCreated, id, map[string]string{
		"collection": c.Collection.String(),
		"assetId":    c.AssetID.Dec(),
		"owner":      owner.String(),
	})
	ctx.SetOutput(id)
	return tx.TesSUCCESS
}
