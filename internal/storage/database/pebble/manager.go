package pebble

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/LeJamon/goFracVault/internal/storage/database"
	"github.com/cockroachdb/pebble"
)

type Manager struct {
	dbs  map[string]*pebble.DB
	path string
	mu   sync.Mutex
}

var _ database.Manager = (*Manager)(nil)

func NewManager(path string) *Manager {
	return &Manager{
		dbs:  make(map[string]*pebble.DB),
		path: path,
	}
}

func (m *Manager) OpenDB(name string) (database.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if db, exists := m.dbs[name]; exists {
		return NewDB(db), nil
	}

	dbPath := filepath.Join(m.path, name+".db")
	db, err := pebble.Open(dbPath, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", name, err)
	}

	m.dbs[name] = db
	return NewDB(db), nil
}

func (m *Manager) CloseDB(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	db, exists := m.dbs[name]
	if !exists {
		return fmt.Errorf("database %s not found", name)
	}
	if err := db.Close(); err != nil {
		return err
	}
	delete(m.dbs, name)
	return nil
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var lastErr error
	for name, db := range m.dbs {
		if err := db.Close(); err != nil {
			lastErr = fmt.Errorf("failed to close database %s: %w", name, err)
		}
		delete(m.dbs, name)
	}
	return lastErr
}
