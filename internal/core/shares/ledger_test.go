package shares

import (
	"testing"

	"github.com/LeJamon/goFracVault/internal/core/amount"
	"github.com/LeJamon/goFracVault/internal/core/state"
	"github.com/LeJamon/goFracVault/internal/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner   = types.ModuleAddress("owner")
	holder  = types.ModuleAddress("holder")
	spender = types.ModuleAddress("spender")
)

func newLedger(t *testing.T) (*Ledger, state.View) {
	t.Helper()
	view := state.NewMemoryView()
	l, err := Create(view, 0, "Frac Punk", "fPUNK", amount.FullShares(), owner)
	require.NoError(t, err)
	return l, view
}

func TestCreateMintsFullSupply(t *testing.T) {
	l, view := newLedger(t)

	bal, err := l.BalanceOf(owner)
	require.NoError(t, err)
	assert.Equal(t, amount.FullShares(), bal)
	assert.Equal(t, amount.FullShares(), l.TotalSupply())

	reopened, err := Open(view, l.ID())
	require.NoError(t, err)
	assert.Equal(t, "fPUNK", reopened.Symbol())
	assert.Equal(t, "Frac Punk", reopened.Name())
	assert.Equal(t, uint64(0), reopened.VaultID())

	_, err = Create(view, 0, "again", "X", amount.FullShares(), owner)
	assert.ErrorIs(t, err, ErrLedgerExists)

	_, err = Open(view, [32]byte{1})
	assert.ErrorIs(t, err, ErrUnknownLedger)
}

func TestTransfer(t *testing.T) {
	l, _ := newLedger(t)

	require.NoError(t, l.Transfer(owner, holder, amount.Units(250)))
	bal, _ := l.BalanceOf(holder)
	assert.Equal(t, amount.Units(250), bal)
	bal, _ = l.BalanceOf(owner)
	assert.Equal(t, amount.Units(1000), bal)

	err := l.Transfer(holder, owner, amount.Units(251))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	assert.ErrorIs(t, l.Transfer(owner, types.ZeroAddress, amount.Units(1)), ErrZeroAddress)
}

func TestTransferFromSpendsAllowance(t *testing.T) {
	l, _ := newLedger(t)

	require.NoError(t, l.Approve(owner, spender, amount.Units(100)))
	allowed, _ := l.Allowance(owner, spender)
	assert.Equal(t, amount.Units(100), allowed)

	err := l.TransferFrom(spender, owner, spender, amount.Units(101))
	assert.ErrorIs(t, err, ErrInsufficientAllowance)

	require.NoError(t, l.TransferFrom(spender, owner, holder, amount.Units(60)))
	allowed, _ = l.Allowance(owner, spender)
	assert.Equal(t, amount.Units(40), allowed)
	bal, _ := l.BalanceOf(holder)
	assert.Equal(t, amount.Units(60), bal)
}

func TestSupplyIsConserved(t *testing.T) {
	l, _ := newLedger(t)
	require.NoError(t, l.Transfer(owner, holder, amount.Units(625)))
	require.NoError(t, l.Transfer(holder, spender, amount.Units(100)))

	total := amount.Zero()
	for _, a := range []types.Address{owner, holder, spender} {
		bal, err := l.BalanceOf(a)
		require.NoError(t, err)
		total, err = amount.Add(total, bal)
		require.NoError(t, err)
	}
	assert.Equal(t, amount.FullShares(), total)
}
