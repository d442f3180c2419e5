package state

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/LeJamon/goFracVault/internal/core/keylet"
)

type tracked struct {
	key     keylet.Keylet
	action  Action // 0 means read but not modified
	current []byte
}

// Table wraps a base View and records every modification made through it.
// Nothing reaches the base until Apply is called, so discarding a Table
// discards the whole operation. A Table may itself be the base of another
// Table for nested operations.
type Table struct {
	base  View
	items map[[32]byte]*tracked
}

// NewTable creates a sandbox over base.
func NewTable(base View) *Table {
	return &Table{
		base:  base,
		items: make(map[[32]byte]*tracked),
	}
}

// Read reads an entry, preferring pending modifications.
func (t *Table) Read(k keylet.Keylet) ([]byte, error) {
	if e, ok := t.items[k.Key]; ok {
		if e.action == ActionErase {
			return nil, ErrNotFound
		}
		return cloneBytes(e.current), nil
	}

	data, err := t.base.Read(k)
	if err != nil {
		return nil, err
	}
	t.items[k.Key] = &tracked{key: k, current: data}
	return cloneBytes(data), nil
}

func (t *Table) Exists(k keylet.Keylet) (bool, error) {
	if e, ok := t.items[k.Key]; ok {
		return e.action != ActionErase, nil
	}
	return t.base.Exists(k)
}

func (t *Table) Insert(k keylet.Keylet, data []byte) error {
	if e, ok := t.items[k.Key]; ok {
		if e.action != ActionErase {
			return fmt.Errorf("%s: %w", k, ErrExists)
		}
		// Re-inserting a deleted base entry becomes a modify
		e.action = ActionModify
		e.current = cloneBytes(data)
		return nil
	}

	exists, err := t.base.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%s: %w", k, ErrExists)
	}
	t.items[k.Key] = &tracked{key: k, action: ActionInsert, current: cloneBytes(data)}
	return nil
}

func (t *Table) Update(k keylet.Keylet, data []byte) error {
	if e, ok := t.items[k.Key]; ok {
		if e.action == ActionErase {
			return fmt.Errorf("%s: %w", k, ErrNotFound)
		}
		if e.action == 0 {
			e.action = ActionModify
		}
		e.current = cloneBytes(data)
		return nil
	}

	exists, err := t.base.Exists(k)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%s: %w", k, ErrNotFound)
	}
	t.items[k.Key] = &tracked{key: k, action: ActionModify, current: cloneBytes(data)}
	return nil
}

func (t *Table) Erase(k keylet.Keylet) error {
	if e, ok := t.items[k.Key]; ok {
		switch e.action {
		case ActionErase:
			return fmt.Errorf("%s: %w", k, ErrNotFound)
		case ActionInsert:
			// Insert then erase is no change at all
			delete(t.items, k.Key)
			return nil
		}
		e.action = ActionErase
		e.current = nil
		return nil
	}

	exists, err := t.base.Exists(k)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%s: %w", k, ErrNotFound)
	}
	t.items[k.Key] = &tracked{key: k, action: ActionErase}
	return nil
}

// Changes returns the pending modifications ordered by key.
func (t *Table) Changes() []Change {
	changes := make([]Change, 0, len(t.items))
	for _, e := range t.items {
		if e.action == 0 {
			continue
		}
		changes = append(changes, Change{Action: e.action, Key: e.key, Data: cloneBytes(e.current)})
	}
	sort.Slice(changes, func(i, j int) bool {
		return bytes.Compare(changes[i].Key.Key[:], changes[j].Key.Key[:]) < 0
	})
	return changes
}

// Apply writes the pending modifications to the base view. A base that
// implements Committer receives the whole set at once.
func (t *Table) Apply() error {
	changes := t.Changes()
	if c, ok := t.base.(Committer); ok {
		if err := c.Commit(changes); err != nil {
			return err
		}
		t.items = make(map[[32]byte]*tracked)
		return nil
	}

	for _, c := range changes {
		var err error
		switch c.Action {
		case ActionInsert:
			err = t.base.Insert(c.Key, c.Data)
		case ActionModify:
			err = t.base.Update(c.Key, c.Data)
		case ActionErase:
			err = t.base.Erase(c.Key)
		default:
			err = errors.New("unknown change action")
		}
		if err != nil {
			return fmt.Errorf("apply %s %s: %w", c.Action, c.Key, err)
		}
	}
	t.items = make(map[[32]byte]*tracked)
	return nil
}
