package bbolt

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/LeJamon/goFracVault/internal/storage/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBBoltDB(t *testing.T) {
	manager := NewManager(t.TempDir())
	t.Cleanup(func() { _ = manager.Close() })
	ctx := context.Background()

	t.Run("Lifecycle", func(t *testing.T) {
		db, err := manager.OpenDB("lifecycle")
		require.NoError(t, err)

		require.NoError(t, db.Write(ctx, []byte("k"), []byte("v")))
		got, err := db.Read(ctx, []byte("k"))
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), got)

		require.NoError(t, manager.CloseDB("lifecycle"))
		_, err = os.Stat(filepath.Join(manager.path, "lifecycle.db"))
		assert.NoError(t, err)
	})

	t.Run("Missing key", func(t *testing.T) {
		db, err := manager.OpenDB("missing")
		require.NoError(t, err)
		_, err = db.Read(ctx, []byte("nope"))
		assert.ErrorIs(t, err, database.ErrKeyNotFound)
	})

	t.Run("Batch and iterate", func(t *testing.T) {
		db, err := manager.OpenDB("batch")
		require.NoError(t, err)

		ops := []database.BatchOperation{
			{Type: database.BatchPut, Key: []byte("a1"), Value: []byte("1")},
			{Type: database.BatchPut, Key: []byte("a2"), Value: []byte("2")},
			{Type: database.BatchPut, Key: []byte("b1"), Value: []byte("3")},
		}
		require.NoError(t, db.Batch(ctx, ops))
		require.NoError(t, db.Batch(ctx, []database.BatchOperation{
			{Type: database.BatchDelete, Key: []byte("a2")},
		}))

		it, err := db.Iterator(ctx, []byte("a"), database.PrefixEnd([]byte("a")))
		require.NoError(t, err)
		defer it.Close()

		var keys []string
		for it.Next() {
			keys = append(keys, string(it.Key()))
		}
		require.NoError(t, it.Error())
		assert.Equal(t, []string{"a1"}, keys)
	})
}
