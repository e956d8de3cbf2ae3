package common

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	SOLDecimals = 9 // SOL has 9 decimals (lamports)
)

// LamportsToSOL converts lamports to SOL string without float precision loss
func LamportsToSOL(lamports uint64) string {
	return FormatUnits(lamports, SOLDecimals)
}

// SOLToLamports converts SOL string to lamports without float precision loss
func SOLToLamports(sol string) (uint64, error) {
	return ParseUnits(sol, SOLDecimals)
}

// ToDecimal converts base units to a decimal amount
func ToDecimal(value uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(value), -int32(decimals))
}

// FormatUnits converts base units to a decimal string with exactly `decimals` fraction digits
// Example: FormatUnits(24981836, 9) = "0.024981836"
func FormatUnits(value uint64, decimals uint8) string {
	return ToDecimal(value, decimals).StringFixed(int32(decimals))
}

// ParseUnits converts a decimal string to base units. Extra fraction digits are truncated.
// Example: ParseUnits("0.024981836", 9) = 24981836
func ParseUnits(s string, decimals uint8) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty string")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid decimal format: %w", err)
	}
	if d.IsNegative() {
		return 0, errors.New("amount cannot be negative")
	}

	units := d.Shift(int32(decimals)).BigInt()
	if !units.IsUint64() {
		return 0, errors.New("amount out of range")
	}
	return units.Uint64(), nil
}

// ValidateBaseUnits checks that s is a positive integer amount
func ValidateBaseUnits(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	if !d.IsPositive() {
		return errors.New("amount must be positive")
	}
	if !d.Equal(d.Truncate(0)) {
		return errors.New("amount must be in base units")
	}
	return nil
}

// USDValue returns the USD value of an amount in base units, rounded to cents
func USDValue(value uint64, decimals uint8, price decimal.Decimal) decimal.Decimal {
	return ToDecimal(value, decimals).Mul(price).Round(2)
}
