package state

import (
	"errors"
	"fmt"

	"github.com/LeJamon/goFracVault/internal/core/keylet"
	"github.com/ugorji/go/codec"
)

var msgpackHandle = func() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{}
	h.Canonical = true
	h.WriteExt = true
	return h
}()

// Marshal encodes an entry as msgpack.
func Marshal(v any) ([]byte, error) {
	var out []byte
	if err := codec.NewEncoderBytes(&out, msgpackHandle).Encode(v); err != nil {
		return nil, fmt.Errorf("encode entry: %w", err)
	}
	return out, nil
}

// Unmarshal decodes a msgpack entry into v.
func Unmarshal(data []byte, v any) error {
	if err := codec.NewDecoderBytes(data, msgpackHandle).Decode(v); err != nil {
		return fmt.Errorf("decode entry: %w", err)
	}
	return nil
}

// Get reads and decodes the entry at k. It returns ErrNotFound if absent.
func Get[T any](v View, k keylet.Keylet) (*T, error) {
	data, err := v.Read(k)
	if err != nil {
		return nil, err
	}
	out := new(T)
	if err := Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("%s: %w", k, err)
	}
	return out, nil
}

// Lookup is Get that reports absence as (nil, false, nil).
func Lookup[T any](v View, k keylet.Keylet) (*T, bool, error) {
	out, err := Get[T](v, k)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// Insert encodes and inserts a new entry.
func Insert(v View, k keylet.Keylet, entry any) error {
	data, err := Marshal(entry)
	if err != nil {
		return err
	}
	return v.Insert(k, data)
}

// Put encodes and writes an entry, inserting or updating as needed.
func Put(v View, k keylet.Keylet, entry any) error {
	data, err := Marshal(entry)
	if err != nil {
		return err
	}
	exists, err := v.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return v.Update(k, data)
	}
	return v.Insert(k, data)
}

// Remove erases the entry at k if it exists.
func Remove(v View, k keylet.Keylet) error {
	exists, err := v.Exists(k)
	if err != nil || !exists {
		return err
	}
	return v.Erase(k)
}
