package utils

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid_amount")

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// FormatCents renders an integer cent amount as a fixed two-decimal string.
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// ParseAmountToCents converts a decimal currency string ("1250.50") to cents.
// Amounts with more than two decimal places or non-positive values are rejected.
func ParseAmountToCents(s string) (int64, error) {
	cents, err := parseCents(s)
	if err != nil || cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParseNonNegativeAmountToCents is ParseAmountToCents but also accepts zero.
func ParseNonNegativeAmountToCents(s string) (int64, error) {
	cents, err := parseCents(s)
	if err != nil || cents < 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

func parseCents(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	cents := d.Mul(hundred)
	if !cents.IsInteger() || cents.GreaterThan(maxCents) || cents.LessThan(minCents) {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}
