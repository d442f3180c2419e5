// Package custody is the owner-of registry for unique collectible assets.
// An asset is identified by its collection address and a 256-bit id.
package custody

import (
	"errors"
	"fmt"

	"github.com/LeJamon/goFracVault/internal/core/keylet"
	"github.com/LeJamon/goFracVault/internal/core/state"
	"github.com/LeJamon/goFracVault/internal/core/types"
	"github.com/holiman/uint256"
)

var (
	ErrUnknownAsset = errors.New("unknown asset")
	ErrAssetExists  = errors.New("asset already minted")
	ErrNotOwner     = errors.New("sender does not own asset")
	ErrNotApproved  = errors.New("operator not approved")
	ErrZeroAddress  = errors.New("zero address")
)

// AssetEntry is the stored owner record of one asset.
type AssetEntry struct {
	Collection types.Address
	AssetID    uint256.Int
	Owner      types.Address
}

// ApprovalEntry marks an operator as approved for every asset an owner
// holds in a collection.
type ApprovalEntry struct {
	Approved bool
}

// Custody reads and moves assets within a state view.
type Custody struct {
	view state.View
}

func New(view state.View) *Custody {
	return &Custody{view: view}
}

// Mint records a new asset owned by to.
func (c *Custody) Mint(collection types.Address, id *uint256.Int, to types.Address) error {
	if to.IsZero() {
		return ErrZeroAddress
	}
	entry := &AssetEntry{Collection: collection, AssetID: *id, Owner: to}
	err := state.Insert(c.view, keylet.Asset(collection, id), entry)
	if errors.Is(err, state.ErrExists) {
		return fmt.Errorf("%w: %s/%s", ErrAssetExists, collection, id.Dec())
	}
	return err
}

// OwnerOf returns the owner of an asset.
func (c *Custody) OwnerOf(collection types.Address, id *uint256.Int) (types.Address, error) {
	entry, err := state.Get[AssetEntry](c.view, keylet.Asset(collection, id))
	if errors.Is(err, state.ErrNotFound) {
		return types.ZeroAddress, fmt.Errorf("%w: %s/%s", ErrUnknownAsset, collection, id.Dec())
	}
	if err != nil {
		return types.ZeroAddress, err
	}
	return entry.Owner, nil
}

// SetApproval grants or revokes operator over owner's assets in collection.
func (c *Custody) SetApproval(owner, operator, collection types.Address, approved bool) error {
	if operator.IsZero() {
		return ErrZeroAddress
	}
	k := keylet.AssetApproval(collection, owner, operator)
	if !approved {
		return state.Remove(c.view, k)
	}
	return state.Put(c.view, k, &ApprovalEntry{Approved: true})
}

// IsApproved reports whether operator may move owner's assets in collection.
func (c *Custody) IsApproved(owner, operator, collection types.Address) (bool, error) {
	entry, found, err := state.Lookup[ApprovalEntry](c.view, keylet.AssetApproval(collection, owner, operator))
	if err != nil || !found {
		return false, err
	}
	return entry.Approved, nil
}

// Transfer moves an asset from its owner to to. The operator must be the
// owner or hold the owner's approval for the collection.
func (c *Custody) Transfer(operator, from, to, collection types.Address, id *uint256.Int) error {
	if to.IsZero() {
		return ErrZeroAddress
	}
	k := keylet.Asset(collection, id)
	entry, err := state.Get[AssetEntry](c.view, k)
	if errors.Is(err, state.ErrNotFound) {
		return fmt.Errorf("%w: %s/%s", ErrUnknownAsset, collection, id.Dec())
	}
	if err != nil {
		return err
	}
	if entry.Owner != from {
		return fmt.Errorf("%w: %s/%s is held by %s", ErrNotOwner, collection, id.Dec(), entry.Owner)
	}
	if operator != from {
		ok, err := c.IsApproved(from, operator, collection)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s for %s", ErrNotApproved, operator, from)
		}
	}

	entry.Owner = to
	return state.Put(c.view, k, entry)
}
