// Package bank keeps native-currency balances and moves payments between
// accounts. A receiving account may register a hook that runs on every
// incoming payment; a hook error rejects the payment.
package bank

import (
	"context"
	"errors"
	"fmt"

	"github.com/LeJamon/goFracVault/internal/core/amount"
	"github.com/LeJamon/goFracVault/internal/core/keylet"
	"github.com/LeJamon/goFracVault/internal/core/state"
	"github.com/LeJamon/goFracVault/internal/core/types"
	"github.com/holiman/uint256"
)

var (
	// ErrInsufficientBalance is returned when the payer cannot cover a payment.
	ErrInsufficientBalance = errors.New("insufficient native balance")

	// ErrHookRejected wraps the error a receive hook returned.
	ErrHookRejected = errors.New("payment rejected by receiver")
)

// AccountEntry is the stored native account.
type AccountEntry struct {
	Balance uint256.Int
}

// Payment describes one transfer delivered to a receive hook.
type Payment struct {
	From   types.Address
	To     types.Address
	Amount *uint256.Int
}

// Hook runs when an account receives a payment. ctx carries the operation
// being applied, so a hook may submit further operations through it.
type Hook func(ctx context.Context, p Payment) error

// HookLookup resolves the receive hook of an account, if any.
type HookLookup interface {
	Hook(addr types.Address) (Hook, bool)
}

// Bank moves native currency within a state view.
type Bank struct {
	view  state.View
	hooks HookLookup
}

// New returns a bank over view. hooks may be nil.
func New(view state.View, hooks HookLookup) *Bank {
	return &Bank{view: view, hooks: hooks}
}

// Balance returns the balance of addr. Unknown accounts hold zero.
func (b *Bank) Balance(addr types.Address) (*uint256.Int, error) {
	entry, found, err := state.Lookup[AccountEntry](b.view, keylet.Account(addr))
	if err != nil {
		return nil, err
	}
	if !found {
		return amount.Zero(), nil
	}
	return entry.Balance.Clone(), nil
}

func (b *Bank) setBalance(addr types.Address, bal *uint256.Int) error {
	k := keylet.Account(addr)
	if bal.IsZero() {
		return state.Remove(b.view, k)
	}
	return state.Put(b.view, k, &AccountEntry{Balance: *bal})
}

func (b *Bank) credit(addr types.Address, amt *uint256.Int) error {
	bal, err := b.Balance(addr)
	if err != nil {
		return err
	}
	next, err := amount.Add(bal, amt)
	if err != nil {
		return err
	}
	return b.setBalance(addr, next)
}

// Fund credits addr out of thin air. Only standalone operation exposes it.
func (b *Bank) Fund(addr types.Address, amt *uint256.Int) error {
	if amt == nil || amt.IsZero() {
		return nil
	}
	return b.credit(addr, amt)
}

// Pay moves amt from one account to another and then runs the receiver's
// hook. A zero payment does nothing.
func (b *Bank) Pay(ctx context.Context, from, to types.Address, amt *uint256.Int) error {
	if amt == nil || amt.IsZero() {
		return nil
	}

	bal, err := b.Balance(from)
	if err != nil {
		return err
	}
	if bal.Lt(amt) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from, bal.Dec(), amt.Dec())
	}
	if from != to {
		if err := b.setBalance(from, new(uint256.Int).Sub(bal, amt)); err != nil {
			return err
		}
		if err := b.credit(to, amt); err != nil {
			return err
		}
	}

	if b.hooks == nil {
		return nil
	}
	hook, ok := b.hooks.Hook(to)
	if !ok {
		return nil
	}
	if err := hook(ctx, Payment{From: from, To: to, Amount: amt.Clone()}); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrHookRejected, to, err)
	}
	return nil
}
