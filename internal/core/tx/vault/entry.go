// Package vault is the tender-offer settlement engine. A vault locks one
// collectible, mints its fixed share supply to the owner, and runs at most
// one time-boxed buyout offer at a time.
package vault

import (
	"errors"
	"fmt"

	"github.com/LeJamon/goFracVault/internal/core/keylet"
	"github.com/LeJamon/goFracVault/internal/core/state"
	"github.com/LeJamon/goFracVault/internal/core/types"
	"github.com/holiman/uint256"
)

// ErrUnknownVault is returned for a vault id that was never created.
var ErrUnknownVault = errors.New("unknown vault")

// RegistryAccount escrows offer payments, accepted shares and custodied
// assets.
var RegistryAccount = types.ModuleAddress("vault-registry")

// State is the offer state of a vault.
type State uint8

const (
	Inactive State = iota
	OfferActive
)

func (s State) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case OfferActive:
		return "offer_active"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Entry is the stored vault.
type Entry struct {
	ID           uint64
	Name         string
	Symbol       string
	Collection   types.Address
	AssetID      uint256.Int
	CurrentOwner types.Address
	ShareLedger  [32]byte
	Market       types.Address
	State        State

	OfferPrice    uint256.Int
	OfferDeadline int64 // unix seconds
	OfferBuyer    types.Address
	TotalAccepted uint256.Int

	// Participants may repeat an address; Acceptance entries are
	// authoritative for amounts
	Participants []types.Address

	RoyaltyReceivers []types.Address
}

// IndexEntry counts the vaults ever created.
type IndexEntry struct {
	Count uint64
}

// ByAssetEntry maps a custodied asset to its vault.
type ByAssetEntry struct {
	VaultID uint64
}

// Acceptance is what one holder delegated to the active offer.
type Acceptance struct {
	Shares uint256.Int
}

// Load reads vault id.
func Load(view state.View, id uint64) (*Entry, error) {
	v, err := state.Get[Entry](view, keylet.Vault(id))
	if errors.Is(err, state.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVault, id)
	}
	return v, err
}

func store(view state.View, v *Entry) error {
	return state.Put(view, keylet.Vault(v.ID), v)
}

func guard(id uint64) string {
	return fmt.Sprintf("vault/%d", id)
}
