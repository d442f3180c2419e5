package bbolt

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/LeJamon/goFracVault/internal/storage/database"
	"go.etcd.io/bbolt"
)

type Manager struct {
	dbs  map[string]*bbolt.DB
	path string
	mu   sync.Mutex
}

var _ database.Manager = (*Manager)(nil)

func NewManager(path string) *Manager {
	return &Manager{
		dbs:  make(map[string]*bbolt.DB),
		path: path,
	}
}

func (m *Manager) OpenDB(name string) (database.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if db, exists := m.dbs[name]; exists {
		return NewDB(db, []byte(name)), nil
	}

	dbPath := filepath.Join(m.path, name+".db")
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", name, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(name))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket for %s: %w", name, err)
	}

	m.dbs[name] = db
	return NewDB(db, []byte(name)), nil
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
