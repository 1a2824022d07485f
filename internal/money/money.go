package money

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount occurs when an amount is not a positive decimal.
	ErrInvalidAmount = errors.New("money: invalid amount")

	// ErrAmountTooSmall occurs when an amount rounds down to zero base units.
	ErrAmountTooSmall = fmt.Errorf("%w: below smallest unit", ErrInvalidAmount)

	// ErrOverflow occurs when the scaled amount does not fit in a uint64.
	ErrOverflow = fmt.Errorf("%w: arithmetic overflow", ErrInvalidAmount)

	// ErrOutOfRange occurs when an amount is too long or its exponent is
	// outside the range any asset can represent.
	ErrOutOfRange = fmt.Errorf("%w: out of range", ErrInvalidAmount)
)

// Bounds checked before any scaling. Scaling cost grows with the exponent,
// so it must be bounded before Shift or BigInt run.
const (
	MaxAmountLength = 64
	maxExponent     = 20  // 10^20 base units already overflow uint64
	minExponent     = -40 // far below the smallest unit of any asset
)

// Money is an amount in the asset's smallest unit (lamports, micro-USDC).
//
// Examples:
//   - 1.5 USDC = Money{Asset: USDC, Atomic: 1500000}
//   - 0.5 SOL  = Money{Asset: SOL, Atomic: 500000000}
type Money struct {
	Asset  Asset
	Atomic uint64
}

// ParseAmount parses a user-supplied decimal string. Only finite, strictly
// positive values are accepted.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	if len(raw) > MaxAmountLength {
		return decimal.Zero, fmt.Errorf("%w: longer than %d characters", ErrOutOfRange, MaxAmountLength)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, raw)
	}
	if err := checkExponent(d); err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s must be greater than zero", ErrInvalidAmount, d.String())
	}
	return d, nil
}

// checkExponent rejects amounts whose exponent would make scaling expensive.
// It never formats d, since String is as costly as scaling.
func checkExponent(d decimal.Decimal) error {
	exp := d.Exponent()
	if exp > maxExponent {
		return fmt.Errorf("%w: exponent %d too large", ErrOutOfRange, exp)
	}
	if exp < minExponent {
		return fmt.Errorf("%w: exponent %d too small", ErrOutOfRange, exp)
	}
	return nil
}

// ToAtomic scales amount to base units, rounding toward zero.
func ToAtomic(amount decimal.Decimal, asset Asset) (uint64, error) {
	if err := checkExponent(amount); err != nil {
		return 0, err
	}
	if !amount.IsPositive() {
		return 0, fmt.Errorf("%w: %s must be greater than zero", ErrInvalidAmount, amount.String())
	}
	scaled := amount.Shift(int32(asset.Decimals)).Floor()
	if scaled.IsZero() {
		return 0, fmt.Errorf("%w: %s %s", ErrAmountTooSmall, amount.String(), asset.Symbol)
	}
	bi := scaled.BigInt()
	if !bi.IsUint64() {
		return 0, fmt.Errorf("%w: %s %s", ErrOverflow, amount.String(), asset.Symbol)
	}
	return bi.Uint64(), nil
}

// FromMajor converts a major-unit decimal into Money.
func FromMajor(asset Asset, amount decimal.Decimal) (Money, error) {
	atomic, err := ToAtomic(amount, asset)
	if err != nil {
		return Money{}, err
	}
	return Money{Asset: asset, Atomic: atomic}, nil
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(m.Atomic), -int32(m.Asset.Decimals))
}

// ToMajor formats the amount in major units with trailing zeros trimmed.
func (m Money) ToMajor() string {
	return m.Decimal().String()
}

// String returns "10 USDC" style labels.
func (m Money) String() string {
	return m.ToMajor() + " " + m.Asset.Symbol
}
