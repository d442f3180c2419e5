package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/LeJamon/goFracVault/internal/core/events"
	"github.com/LeJamon/goFracVault/internal/storage/relationaldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *relationaldb.EventStore {
	t.Helper()
	store, err := New(context.Background(), relationaldb.SQLiteConfig(filepath.Join(t.TempDir(), "index.db")))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sample() []events.Event {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []events.Event{
		{Seq: 1, Type: events.VaultCreated, VaultID: 0, Time: at, Fields: map[string]string{"owner": "0xaa"}},
		{Seq: 2, Type: events.OfferMade, VaultID: 0, Time: at.Add(time.Hour), Fields: map[string]string{"price": "1000"}},
		{Seq: 3, Type: events.VaultCreated, VaultID: 1, Time: at.Add(2 * time.Hour)},
	}
}

func TestEventStore_AppendAndQuery(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, sample()))
	// replaying is a no-op
	require.NoError(t, store.Append(ctx, sample()[:2]))

	all, err := store.Query(ctx, events.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "1000", all[1].Fields["price"])
	assert.True(t, all[1].Time.Equal(sample()[1].Time))

	vault := uint64(0)
	got, err := store.Query(ctx, events.Filter{VaultID: &vault})
	require.NoError(t, err)
	require.Len(t, got, 2)

	got, err = store.Query(ctx, events.Filter{Type: events.VaultCreated, AfterSeq: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(3), got[0].Seq)

	got, err = store.Query(ctx, events.Filter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)

	last, err := store.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), last)
}

func TestEventStore_Empty(t *testing.T) {
	store := openTestStore(t)
	last, err := store.LastSeq(context.Background())
	require.NoError(t, err)
	assert.Zero(t, last)

	require.NoError(t, store.Ping(context.Background()))
	require.NoError(t, store.Close())
	assert.ErrorIs(t, store.Ping(context.Background()), relationaldb.ErrDatabaseClosed)
}

func TestEventStore_AsBusSink(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	manager := relationaldb.NewManager(store, relationaldb.SQLiteConfig("unused"), nil)

	bus := events.NewBus(0, nil)
	bus.Subscribe(manager)
	bus.Publish(ctx, []events.Event{{Type: events.TokensListed, VaultID: 4}})

	got, err := manager.Query(ctx, events.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(1), got[0].Seq)
	assert.Equal(t, uint64(4), got[0].VaultID)
}
