package types

import (
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"strings"
)

// AddressLength is the size of an account identifier in bytes.
const AddressLength = 20

// ErrInvalidAddress is returned when an address string cannot be decoded.
var ErrInvalidAddress = errors.New("invalid address")

// Address identifies an account: a holder, buyer, seller, or one of the
// module accounts (vault registry, marketplaces) that custody funds.
type Address [AddressLength]byte

// ZeroAddress is the empty address, used for "no buyer".
var ZeroAddress Address

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// String returns the 0x-prefixed lowercase hex form.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress decodes a hex address with or without the 0x prefix.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != AddressLength*2 {
		return ZeroAddress, ErrInvalidAddress
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return ZeroAddress, ErrInvalidAddress
	}
	var a Address
	copy(a[:], b)
	return a, nil
}

// ModuleAddress derives the deterministic account of an engine module
// (e.g. "vault-registry") from its name using SHA512-Half truncation.
func ModuleAddress(name string) Address {
	h := sha512.Sum512([]byte("module:" + name))
	var a Address
	copy(a[:], h[:AddressLength])
	return a
}
