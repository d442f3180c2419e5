// Package amount holds the fixed-point arithmetic shared by share accounting,
// tender-offer settlement and marketplace trades.
//
// Shares and native currency both use 18 decimals: one whole share (or one
// whole native unit) is Scale smallest units. Every division floors.
package amount

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

const (
	// Decimals is the number of fractional digits of shares and native units.
	Decimals = 18

	// RoyaltyBPS is the royalty skim in basis points (10%).
	RoyaltyBPS = 1000

	// BPSDenominator is the basis-point denominator.
	BPSDenominator = 10000

	// WholeShares is the number of whole shares minted per vault.
	WholeShares = 1250
)

var (
	ErrOverflow      = errors.New("amount overflow")
	ErrUnderflow     = errors.New("amount underflow")
	ErrDivideByZero  = errors.New("division by zero")
	ErrInvalidAmount = errors.New("invalid amount")
)

var (
	scale      = uint256.NewInt(1_000_000_000_000_000_000)
	fullShares = new(uint256.Int).Mul(uint256.NewInt(WholeShares), scale)
)

// Scale returns 10^Decimals, the smallest-unit multiplier.
func Scale() *uint256.Int {
	return scale.Clone()
}

// FullShares returns the fixed total supply of every vault's share ledger.
func FullShares() *uint256.Int {
	return fullShares.Clone()
}

// Zero returns a new zero amount.
func Zero() *uint256.Int {
	return new(uint256.Int)
}

// Units returns whole * Scale.
func Units(whole uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(whole), scale)
}

// Add returns x + y.
func Add(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// Sub returns x - y.
func Sub(x, y *uint256.Int) (*uint256.Int, error) {
	z, underflow := new(uint256.Int).SubOverflow(x, y)
	if underflow {
		return nil, ErrUnderflow
	}
	return z, nil
}

// MulDiv returns floor(x * y / d) using a 512-bit intermediate product.
func MulDiv(x, y, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, ErrDivideByZero
	}
	z, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// Div returns floor(x / d).
func Div(x, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, ErrDivideByZero
	}
	return new(uint256.Int).Div(x, d), nil
}

// BPS returns floor(x * bps / BPSDenominator).
func BPS(x *uint256.Int, bps uint64) (*uint256.Int, error) {
	return MulDiv(x, uint256.NewInt(bps), uint256.NewInt(BPSDenominator))
}

// Parse decodes a base-10 integer in smallest units.
func Parse(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, ErrInvalidAmount
	}
	z, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, s, err)
	}
	return z, nil
}

// ParseUnits decodes a decimal string in whole units ("625.5") into
// smallest units. More than Decimals fractional digits is rejected.
func ParseUnits(s string) (*uint256.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, s, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, s)
	}
	shifted := d.Shift(Decimals)
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("%w: %q has more than %d decimals", ErrInvalidAmount, s, Decimals)
	}
	z, overflow := uint256.FromBig(shifted.BigInt())
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// Format renders smallest units as a decimal string in whole units.
func Format(x *uint256.Int) string {
	return decimal.NewFromBigInt(x.ToBig(), -Decimals).String()
}
