// Package shares implements the fixed-supply fungible ledger that records
// ownership of one vault's shares.
package shares

import (
	"errors"
	"fmt"

	"github.com/LeJamon/goFracVault/internal/core/amount"
	"github.com/LeJamon/goFracVault/internal/core/keylet"
	"github.com/LeJamon/goFracVault/internal/core/state"
	"github.com/LeJamon/goFracVault/internal/core/types"
	"github.com/holiman/uint256"
)

var (
	ErrUnknownLedger         = errors.New("unknown share ledger")
	ErrLedgerExists          = errors.New("share ledger already exists")
	ErrInsufficientBalance   = errors.New("insufficient share balance")
	ErrInsufficientAllowance = errors.New("insufficient share allowance")
	ErrZeroAddress           = errors.New("zero address")
)

// LedgerEntry is the stored ledger metadata.
type LedgerEntry struct {
	VaultID     uint64
	Name        string
	Symbol      string
	TotalSupply uint256.Int
}

// BalanceEntry is one holder's balance. Zero balances are not stored.
type BalanceEntry struct {
	Amount uint256.Int
}

// AllowanceEntry is what a spender may still move on an owner's behalf.
type AllowanceEntry struct {
	Amount uint256.Int
}

// Ledger is a share ledger bound to a state view.
type Ledger struct {
	view state.View
	id   [32]byte
	meta *LedgerEntry
}

// Create records a new ledger with a fixed supply minted to holder.
func Create(view state.View, vaultID uint64, name, symbol string, supply *uint256.Int, holder types.Address) (*Ledger, error) {
	if holder.IsZero() {
		return nil, ErrZeroAddress
	}
	k := keylet.ShareLedger(vaultID)
	meta := &LedgerEntry{VaultID: vaultID, Name: name, Symbol: symbol, TotalSupply: *supply}
	if err := state.Insert(view, k, meta); err != nil {
		if errors.Is(err, state.ErrExists) {
			return nil, fmt.Errorf("%w: vault %d", ErrLedgerExists, vaultID)
		}
		return nil, err
	}

	l := &Ledger{view: view, id: k.Key, meta: meta}
	if err := l.setBalance(holder, supply); err != nil {
		return nil, err
	}
	return l, nil
}

// Open loads the ledger with the given identity.
func Open(view state.View, id [32]byte) (*Ledger, error) {
	meta, err := state.Get[LedgerEntry](view, keylet.Keylet{Type: keylet.TypeShareLedger, Key: id})
	if errors.Is(err, state.ErrNotFound) {
		return nil, fmt.Errorf("%w: %x", ErrUnknownLedger, id[:8])
	}
	if err != nil {
		return nil, err
	}
	return &Ledger{view: view, id: id, meta: meta}, nil
}

func (l *Ledger) ID() [32]byte              { return l.id }
func (l *Ledger) VaultID() uint64           { return l.meta.VaultID }
func (l *Ledger) Name() string              { return l.meta.Name }
func (l *Ledger) Symbol() string            { return l.meta.Symbol }
func (l *Ledger) TotalSupply() *uint256.Int { return l.meta.TotalSupply.Clone() }

// BalanceOf returns the share balance of holder.
func (l *Ledger) BalanceOf(holder types.Address) (*uint256.Int, error) {
	entry, found, err := state.Lookup[BalanceEntry](l.view, keylet.ShareBalance(l.id, holder))
	if err != nil {
		return nil, err
	}
	if !found {
		return amount.Zero(), nil
	}
	return entry.Amount.Clone(), nil
}

func (l *Ledger) setBalance(holder types.Address, bal *uint256.Int) error {
	k := keylet.ShareBalance(l.id, holder)
	if bal.IsZero() {
		return state.Remove(l.view, k)
	}
	return state.Put(l.view, k, &BalanceEntry{Amount: *bal})
}

// Allowance returns how much spender may move from owner.
func (l *Ledger) Allowance(owner, spender types.Address) (*uint256.Int, error) {
	entry, found, err := state.Lookup[AllowanceEntry](l.view, keylet.ShareAllowance(l.id, owner, spender))
	if err != nil {
		return nil, err
	}
	if !found {
		return amount.Zero(), nil
	}
	return entry.Amount.Clone(), nil
}

// Approve sets the allowance of spender over owner's shares.
func (l *Ledger) Approve(owner, spender types.Address, amt *uint256.Int) error {
	if spender.IsZero() {
		return ErrZeroAddress
	}
	k := keylet.ShareAllowance(l.id, owner, spender)
	if amt.IsZero() {
		return state.Remove(l.view, k)
	}
	return state.Put(l.view, k, &AllowanceEntry{Amount: *amt})
}

// Transfer moves amt from one holder to another.
func (l *Ledger) Transfer(from, to types.Address, amt *uint256.Int) error {
	if to.IsZero() {
		return ErrZeroAddress
	}
	if amt.IsZero() || from == to {
		bal, err := l.BalanceOf(from)
		if err != nil {
			return err
		}
		if bal.Lt(amt) {
			return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from, bal.Dec(), amt.Dec())
		}
		return nil
	}

	fromBal, err := l.BalanceOf(from)
	if err != nil {
		return err
	}
	if fromBal.Lt(amt) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from, fromBal.Dec(), amt.Dec())
	}
	toBal, err := l.BalanceOf(to)
	if err != nil {
		return err
	}
	next, err := amount.Add(toBal, amt)
	if err != nil {
		return err
	}
	if err := l.setBalance(from, new(uint256.Int).Sub(fromBal, amt)); err != nil {
		return err
	}
	return l.setBalance(to, next)
}

// TransferFrom moves amt from owner to to, spending spender's allowance.
func (l *Ledger) TransferFrom(spender, owner, to types.Address, amt *uint256.Int) error {
	allowed, err := l.Allowance(owner, spender)
	if err != nil {
		return err
	}
	if allowed.Lt(amt) {
		return fmt.Errorf("%w: %s may move %s of %s, needs %s", ErrInsufficientAllowance, spender, allowed.Dec(), owner, amt.Dec())
	}
	if err := l.Approve(owner, spender, new(uint256.Int).Sub(allowed, amt)); err != nil {
		return err
	}
	return l.Transfer(owner, to, amt)
}
