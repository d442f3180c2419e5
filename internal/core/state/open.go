package state

import (
	"fmt"
	"io"
	"os"

	"github.com/LeJamon/goFracVault/internal/storage/compression"
	"github.com/LeJamon/goFracVault/internal/storage/database"
	"github.com/LeJamon/goFracVault/internal/storage/database/bbolt"
	"github.com/LeJamon/goFracVault/internal/storage/database/pebble"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendPebble = "pebble"
	BackendBBolt  = "bbolt"
)

// StoreConfig selects and tunes the base view.
type StoreConfig struct {
	Backend    string
	Path       string
	CacheSize  int
	Compressor string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open creates the base view described by cfg. The returned closer releases
// the underlying database.
func Open(cfg StoreConfig) (View, io.Closer, error) {
	var manager database.Manager
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryView(), nopCloser{}, nil
	case BackendPebble:
		manager = pebble.NewManager(cfg.Path)
	case BackendBBolt:
		manager = bbolt.NewManager(cfg.Path)
	default:
		return nil, nil, fmt.Errorf("%w: %s", database.ErrUnknownBackend, cfg.Backend)
	}

	if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create storage path: %w", err)
	}

	name := cfg.Compressor
	if name == "" {
		name = "none"
	}
	comp, err := compression.Get(name)
	if err != nil {
		return nil, nil, err
	}

	db, err := manager.OpenDB("state")
	if err != nil {
		return nil, nil, err
	}
	store, err := NewStore(db, comp, cfg.CacheSize)
	if err != nil {
		_ = manager.Close()
		return nil, nil, err
	}
	return store, manager, nil
}
