package state

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/LeJamon/goFracVault/internal/core/keylet"
	"github.com/LeJamon/goFracVault/internal/storage/compression"
	"github.com/LeJamon/goFracVault/internal/storage/database"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of decoded entries a Store keeps in memory.
const DefaultCacheSize = 4096

// Store is a persistent base view over a database backend. Entries are
// compressed on write and cached after the first read.
type Store struct {
	db         database.DB
	compressor compression.Compressor
	cache      *lru.Cache[[32]byte, []byte]

	mu     sync.Mutex
	hits   uint64
	misses uint64
}

// NewStore wraps db. A cacheSize <= 0 selects DefaultCacheSize.
func NewStore(db database.DB, compressor compression.Compressor, cacheSize int) (*Store, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[[32]byte, []byte](cacheSize)
	if err != nil {
		return nil, err
	}
	if compressor == nil {
		compressor = &compression.NoCompressor{}
	}
	return &Store{db: db, compressor: compressor, cache: cache}, nil
}

func storeKey(k keylet.Keylet) []byte {
	out := make([]byte, 2+len(k.Key))
	binary.BigEndian.PutUint16(out, uint16(k.Type))
	copy(out[2:], k.Key[:])
	return out
}

func (s *Store) Read(k keylet.Keylet) ([]byte, error) {
	if data, ok := s.cache.Get(k.Key); ok {
		s.mu.Lock()
		s.hits++
		s.mu.Unlock()
		return cloneBytes(data), nil
	}

	s.mu.Lock()
	s.misses++
	s.mu.Unlock()

	raw, err := s.db.Read(context.Background(), storeKey(k))
	if errors.Is(err, database.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", k, err)
	}
	data, err := s.compressor.Decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", k, err)
	}
	s.cache.Add(k.Key, data)
	return cloneBytes(data), nil
}

func (s *Store) Exists(k keylet.Keylet) (bool, error) {
	_, err := s.Read(k)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *Store) Insert(k keylet.Keylet, data []byte) error {
	exists, err := s.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%s: %w", k, ErrExists)
	}
	return s.Commit([]Change{{Action: ActionInsert, Key: k, Data: data}})
}

func (s *Store) Update(k keylet.Keylet, data []byte) error {
	exists, err := s.Exists(k)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%s: %w", k, ErrNotFound)
	}
	return s.Commit([]Change{{Action: ActionModify, Key: k, Data: data}})
}

func (s *Store) Erase(k keylet.Keylet) error {
	exists, err := s.Exists(k)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%s: %w", k, ErrNotFound)
	}
	return s.Commit([]Change{{Action: ActionErase, Key: k}})
}

// Commit writes a change set in a single database batch.
func (s *Store) Commit(changes []Change) error {
	ops := make([]database.BatchOperation, 0, len(changes))
	for _, c := range changes {
		switch c.Action {
		case ActionInsert, ActionModify:
			enc, err := s.compressor.Compress(c.Data)
			if err != nil {
				return fmt.Errorf("compress %s: %w", c.Key, err)
			}
			ops = append(ops, database.BatchOperation{Type: database.BatchPut, Key: storeKey(c.Key), Value: enc})
		case ActionErase:
			ops = append(ops, database.BatchOperation{Type: database.BatchDelete, Key: storeKey(c.Key)})
		default:
			return fmt.Errorf("unknown change action %d", c.Action)
		}
	}

	if err := s.db.Batch(context.Background(), ops); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	for _, c := range changes {
		if c.Action == ActionErase {
			s.cache.Remove(c.Key.Key)
		} else {
			s.cache.Add(c.Key.Key, cloneBytes(c.Data))
		}
	}
	return nil
}

// CacheStats returns the cache hit and miss counters.
func (s *Store) CacheStats() (hits, misses uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits, s.misses
}

// Count returns the number of stored entries of type t.
func (s *Store) Count(ctx context.Context, t keylet.Type) (int, error) {
	prefix := make([]byte, 2)
	binary.BigEndian.PutUint16(prefix, uint16(t))

	it, err := s.db.Iterator(ctx, prefix, database.PrefixEnd(prefix))
	if err != nil {
		return 0, err
	}
	defer it.Close()

	n := 0
	for it.Next() {
		n++
	}
	return n, it.Error()
}
