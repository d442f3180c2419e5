// Package state holds the key-value state every engine operation reads and
// writes: the base views (memory, persistent store) and the Table sandbox
// an operation applies into before it is committed.
package state

import (
	"errors"

	"github.com/LeJamon/goFracVault/internal/core/keylet"
)

var (
	// ErrNotFound is returned when reading or updating an absent entry.
	ErrNotFound = errors.New("entry not found")

	// ErrExists is returned when inserting an entry that already exists.
	ErrExists = errors.New("entry already exists")
)

// View provides read/write access to state entries.
type View interface {
	// Read returns the entry data or ErrNotFound.
	Read(k keylet.Keylet) ([]byte, error)

	// Exists reports whether the entry exists.
	Exists(k keylet.Keylet) (bool, error)

	// Insert adds a new entry, failing with ErrExists if present.
	Insert(k keylet.Keylet, data []byte) error

	// Update replaces an existing entry, failing with ErrNotFound if absent.
	Update(k keylet.Keylet, data []byte) error

	// Erase removes an existing entry, failing with ErrNotFound if absent.
	Erase(k keylet.Keylet) error
}

// Action is the kind of modification a Change carries.
type Action int

const (
	ActionInsert Action = iota + 1
	ActionModify
	ActionErase
)

func (a Action) String() string {
	switch a {
	case ActionInsert:
		return "insert"
	case ActionModify:
		return "modify"
	case ActionErase:
		return "erase"
	default:
		return "unknown"
	}
}

// Change is one entry modification produced by a Table.
type Change struct {
	Action Action
	Key    keylet.Keylet
	Data   []byte
}

// Committer is implemented by base views that can apply a whole change set
// atomically (a single batch) rather than entry by entry.
type Committer interface {
	Commit(changes []Change) error
}
