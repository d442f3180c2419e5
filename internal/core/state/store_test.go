package state

import (
	"context"
	"testing"

	"github.com/LeJamon/goFracVault/internal/core/keylet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackends(t *testing.T) {
	for _, backend := range []string{BackendPebble, BackendBBolt} {
		t.Run(backend, func(t *testing.T) {
			view, closer, err := Open(StoreConfig{
				Backend:    backend,
				Path:       t.TempDir(),
				CacheSize:  8,
				Compressor: "lz4",
			})
			require.NoError(t, err)
			defer closer.Close()

			store, ok := view.(*Store)
			require.True(t, ok)

			tbl := NewTable(store)
			require.NoError(t, tbl.Insert(keylet.Vault(0), []byte("zero")))
			require.NoError(t, tbl.Insert(keylet.Vault(1), []byte("one")))
			require.NoError(t, tbl.Insert(keylet.VaultIndex(), []byte("idx")))
			require.NoError(t, tbl.Apply())

			got, err := store.Read(keylet.Vault(1))
			require.NoError(t, err)
			assert.Equal(t, []byte("one"), got)

			n, err := store.Count(context.Background(), keylet.TypeVault)
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			require.NoError(t, store.Erase(keylet.Vault(0)))
			_, err = store.Read(keylet.Vault(0))
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, store.Insert(keylet.Vault(1), nil), ErrExists)

			hits, _ := store.CacheStats()
			assert.NotZero(t, hits)
		})
	}
}

func TestOpenMemoryAndUnknown(t *testing.T) {
	view, closer, err := Open(StoreConfig{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryView{}, view)
	assert.NoError(t, closer.Close())

	_, _, err = Open(StoreConfig{Backend: "rocksdb"})
	assert.Error(t, err)
}
