package bank

import (
	"context"
	"errors"
	"testing"

	"github.com/LeJamon/goFracVault/internal/core/amount"
	"github.com/LeJamon/goFracVault/internal/core/state"
	"github.com/LeJamon/goFracVault/internal/core/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hookMap map[types.Address]Hook

func (m hookMap) Hook(addr types.Address) (Hook, bool) {
	h, ok := m[addr]
	return h, ok
}

var (
	alice = types.ModuleAddress("alice")
	bob   = types.ModuleAddress("bob")
)

func TestPay(t *testing.T) {
	ctx := context.Background()
	b := New(state.NewMemoryView(), nil)
	require.NoError(t, b.Fund(alice, amount.Units(10)))

	require.NoError(t, b.Pay(ctx, alice, bob, amount.Units(4)))

	bal, err := b.Balance(alice)
	require.NoError(t, err)
	assert.Equal(t, amount.Units(6), bal)
	bal, err = b.Balance(bob)
	require.NoError(t, err)
	assert.Equal(t, amount.Units(4), bal)

	err = b.Pay(ctx, bob, alice, amount.Units(5))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// zero payment is a no-op even from an empty account
	assert.NoError(t, b.Pay(ctx, types.ModuleAddress("nobody"), alice, uint256.NewInt(0)))
}

func TestPayDrainsAccountEntry(t *testing.T) {
	view := state.NewMemoryView()
	b := New(view, nil)
	require.NoError(t, b.Fund(alice, amount.Units(1)))
	require.NoError(t, b.Pay(context.Background(), alice, bob, amount.Units(1)))
	assert.Equal(t, 1, view.Len(), "emptied account entry is removed")
}

func TestReceiveHook(t *testing.T) {
	ctx := context.Background()
	var got []Payment
	refuse := errors.New("no thanks")

	hooks := hookMap{
		bob: func(_ context.Context, p Payment) error {
			got = append(got, p)
			return nil
		},
		alice: func(context.Context, Payment) error { return refuse },
	}
	b := New(state.NewMemoryView(), hooks)
	require.NoError(t, b.Fund(alice, amount.Units(3)))
	require.NoError(t, b.Fund(bob, amount.Units(3)))

	require.NoError(t, b.Pay(ctx, alice, bob, amount.Units(2)))
	require.Len(t, got, 1)
	assert.Equal(t, alice, got[0].From)
	assert.Equal(t, amount.Units(2), got[0].Amount)

	err := b.Pay(ctx, bob, alice, amount.Units(1))
	assert.ErrorIs(t, err, ErrHookRejected)
	assert.ErrorIs(t, err, refuse)
}
