package testing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/LeJamon/goFracVault/internal/core/amount"
	"github.com/LeJamon/goFracVault/internal/core/events"
	"github.com/LeJamon/goFracVault/internal/core/state"
	"github.com/LeJamon/goFracVault/internal/core/tx"
	"github.com/LeJamon/goFracVault/internal/core/tx/market"
	"github.com/LeJamon/goFracVault/internal/core/tx/vault"
	"github.com/LeJamon/goFracVault/internal/core/tx/wallet"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

// TestEnv manages a test environment backed by an in-memory state view.
type TestEnv struct {
	t *testing.T

	base    *state.MemoryView
	clock   *ManualClock
	journal *events.Journal

	Admin    *Account
	Engine   *tx.Engine
	Registry *vault.Registry
	Market   *market.Marketplace
	Wallet   *wallet.Service

	// nextAsset numbers assets minted by MintAsset
	nextAsset uint64
}

// NewTestEnv creates a new test environment. The admin account is the only
// one allowed to create vaults.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	admin := NewAccount("admin")
	clock := NewManualClock()
	journal := events.NewJournal(0)
	bus := events.NewBus(0, nil)
	bus.Subscribe(journal)

	base := state.NewMemoryView()
	engine := tx.NewEngine(base, tx.Config{Admin: admin.Address, Standalone: true},
		tx.WithClock(clock), tx.WithBus(bus))
	registry := vault.NewRegistry(engine)

	return &TestEnv{
		t:        t,
		base:     base,
		clock:    clock,
		journal:  journal,
		Admin:    admin,
		Engine:   engine,
		Registry: registry,
		Market:   market.New(engine, registry),
		Wallet:   wallet.NewService(engine),
	}
}

// Submit applies an operation and returns its result. Failures are returned,
// not asserted.
func (e *TestEnv) Submit(op tx.Transaction) TxResult {
	e.t.Helper()
	return resultOf(e.Engine.Submit(context.Background(), op))
}

// Fund credits whole native units to each account.
func (e *TestEnv) Fund(units uint64, accounts ...*Account) {
	e.t.Helper()
	for _, acc := range accounts {
		r := e.Submit(&wallet.Fund{Caller: e.Admin.Address, To: acc.Address, Amount: amount.Units(units)})
		RequireTxSuccess(e.t, r)
	}
}

// Balance returns the native balance of an account.
func (e *TestEnv) Balance(acc *Account) *uint256.Int {
	e.t.Helper()
	bal, err := e.Wallet.Balance(context.Background(), acc.Address)
	require.NoError(e.t, err)
	return bal
}

// ShareBalance returns an account's share balance in a vault.
func (e *TestEnv) ShareBalance(vaultID uint64, acc *Account) *uint256.Int {
	e.t.Helper()
	bal, err := e.Wallet.ShareBalance(context.Background(), market.LedgerOf(vaultID), acc.Address)
	require.NoError(e.t, err)
	return bal
}

// MintAsset mints a fresh asset of collection to owner and returns its id.
func (e *TestEnv) MintAsset(collection, owner *Account) *uint256.Int {
	e.t.Helper()
	e.nextAsset++
	id := uint256.NewInt(e.nextAsset)
	r := e.Submit(&wallet.MintAsset{Collection: collection.Address, AssetID: id, To: owner.Address})
	RequireTxSuccess(e.t, r)
	return id
}

// Fractionalize mints an asset to owner, approves the registry and creates
// a vault for it. It returns the vault id.
func (e *TestEnv) Fractionalize(owner *Account, name string) uint64 {
	e.t.Helper()
	collection := NewAccount("collection")
	id := e.MintAsset(collection, owner)
	RequireTxSuccess(e.t, e.Submit(&wallet.ApproveOperator{
		Owner:      owner.Address,
		Collection: collection.Address,
		Operator:   vault.RegistryAccount,
		Approved:   true,
	}))

	r := e.Submit(&vault.CreateVault{
		Caller:     e.Admin.Address,
		Name:       name,
		Symbol:     fmt.Sprintf("F%s", name),
		Collection: collection.Address,
		AssetID:    id,
	})
	RequireTxSuccess(e.t, r)
	vaultID, ok := r.Output.(uint64)
	require.True(e.t, ok, "vault create returned %T", r.Output)
	return vaultID
}

// ApproveShares approves spender for amt of holder's shares in a vault.
func (e *TestEnv) ApproveShares(vaultID uint64, holder *Account, spender *Account, amt *uint256.Int) {
	e.t.Helper()
	RequireTxSuccess(e.t, e.Submit(&wallet.ApproveShares{
		Owner:   holder.Address,
		Ledger:  market.LedgerOf(vaultID),
		Spender: spender.Address,
		Amount:  amt,
	}))
}

// Vault returns a snapshot of a vault.
func (e *TestEnv) Vault(id uint64) *vault.Entry {
	e.t.Helper()
	v, err := e.Registry.GetVaultInfo(context.Background(), id)
	require.NoError(e.t, err)
	return v
}

// Events returns every published event.
func (e *TestEnv) Events() []events.Event {
	return e.journal.All()
}

// Journal returns the in-memory record journal.
func (e *TestEnv) Journal() *events.Journal {
	return e.journal
}

// Entries returns the number of entries in committed state.
func (e *TestEnv) Entries() int {
	return e.base.Len()
}

// Now returns the current engine time.
func (e *TestEnv) Now() time.Time {
	return e.clock.Now()
}

// AdvanceTime moves the engine clock forward.
func (e *TestEnv) AdvanceTime(d time.Duration) {
	e.clock.Advance(d)
}
