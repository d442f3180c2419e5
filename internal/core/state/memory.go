package state

import (
	"fmt"
	"sync"

	"github.com/LeJamon/goFracVault/internal/core/keylet"
)

// MemoryView is an in-memory base view. It is used by the standalone
// "memory" storage backend and by tests.
type MemoryView struct {
	mu      sync.RWMutex
	entries map[[32]byte][]byte
}

// NewMemoryView creates an empty in-memory view.
func NewMemoryView() *MemoryView {
	return &MemoryView{entries: make(map[[32]byte][]byte)}
}

// Read returns a copy of the entry data.
func (m *MemoryView) Read(k keylet.Keylet) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.entries[k.Key]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBytes(data), nil
}

func (m *MemoryView) Exists(k keylet.Keylet) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[k.Key]
	return ok, nil
}

func (m *MemoryView) Insert(k keylet.Keylet, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[k.Key]; ok {
		return fmt.Errorf("%s: %w", k, ErrExists)
	}
	m.entries[k.Key] = cloneBytes(data)
	return nil
}

func (m *MemoryView) Update(k keylet.Keylet, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[k.Key]; !ok {
		return fmt.Errorf("%s: %w", k, ErrNotFound)
	}
	m.entries[k.Key] = cloneBytes(data)
	return nil
}

func (m *MemoryView) Erase(k keylet.Keylet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[k.Key]; !ok {
		return fmt.Errorf("%s: %w", k, ErrNotFound)
	}
	delete(m.entries, k.Key)
	return nil
}

// Commit applies a change set under a single lock.
func (m *MemoryView) Commit(changes []Change) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range changes {
		switch c.Action {
		case ActionInsert, ActionModify:
			m.entries[c.Key.Key] = cloneBytes(c.Data)
		case ActionErase:
			delete(m.entries, c.Key.Key)
		default:
			return fmt.Errorf("unknown change action %d", c.Action)
		}
	}
	return nil
}

// Len returns the number of entries.
func (m *MemoryView) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
