// Package database defines the key-value backend the persistent state store
// writes through. Backends live in the pebble and bbolt subpackages.
package database

import (
	"context"
)

// DB defines the basic operations any database implementation must support
type DB interface {
	Read(ctx context.Context, key []byte) ([]byte, error)
	Write(ctx context.Context, key []byte, value []byte) error
	Delete(ctx context.Context, key []byte) error

	// Batch applies every operation or none of them
	Batch(ctx context.Context, ops []BatchOperation) error

	// Iterator walks keys in [start, end). A nil bound is open.
	Iterator(ctx context.Context, start, end []byte) (Iterator, error)
}

// Iterator allows traversing over database entries
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Close() error
}

// Manager opens named databases under one directory.
type Manager interface {
	OpenDB(name string) (DB, error)
	CloseDB(name string) error
	Close() error
}

// BatchOperation represents a single operation in a batch
type BatchOperation struct {
	Type  BatchOpType
	Key   []byte
	Value []byte
}

type BatchOpType int

const (
	BatchPut BatchOpType = iota
	BatchDelete
)

// PrefixEnd returns the smallest key greater than every key with the given
// prefix, or nil if there is none.
func PrefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
