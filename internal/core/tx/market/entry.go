// Package market is the escrow marketplace paired with every vault's share
// ledger. Each address holds at most one standing sell order per ledger;
// buyers fill orders partially and every trade pays a royalty skim to the
// vault's royalty receivers.
package market

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/LeJamon/goFracVault/internal/core/keylet"
	"github.com/LeJamon/goFracVault/internal/core/state"
	"github.com/LeJamon/goFracVault/internal/core/types"
	"github.com/holiman/uint256"
)

// ErrUnknownMarket is returned when no market is paired with a ledger.
var ErrUnknownMarket = errors.New("unknown market")

// Entry is the stored market of one share ledger.
type Entry struct {
	Ledger       [32]byte
	VaultID      uint64
	Account      types.Address
	Holders      []types.Address
	ActiveOrders uint64
}

// Order is a standing sell order. Amount is the escrowed share balance and
// Price is native smallest units per whole share.
type Order struct {
	Seller types.Address
	Amount uint256.Int
	Price  uint256.Int
}

// AccountFor returns the escrow account of the market paired with ledger.
func AccountFor(ledger [32]byte) types.Address {
	return types.ModuleAddress("market:" + hex.EncodeToString(ledger[:]))
}

// Create records the market paired with ledger.
func Create(view state.View, ledger [32]byte, vaultID uint64) (*Entry, error) {
	entry := &Entry{
		Ledger:  ledger,
		VaultID: vaultID,
		Account: AccountFor(ledger),
	}
	if err := state.Insert(view, keylet.Market(ledger), entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Load reads the market paired with ledger.
func Load(view state.View, ledger [32]byte) (*Entry, error) {
	entry, err := state.Get[Entry](view, keylet.Market(ledger))
	if errors.Is(err, state.ErrNotFound) {
		return nil, fmt.Errorf("%w: %x", ErrUnknownMarket, ledger[:8])
	}
	return entry, err
}

// LoadOrder reads seller's order, reporting absence as found=false.
func LoadOrder(view state.View, ledger [32]byte, seller types.Address) (*Order, bool, error) {
	return state.Lookup[Order](view, keylet.SellOrder(ledger, seller))
}

func orderGuard(ledger [32]byte, seller types.Address) string {
	return fmt.Sprintf("order/%x/%s", ledger[:], seller)
}
