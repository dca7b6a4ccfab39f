// Package core defines the domain model and the pure calculation routines
// of the finance engine: signed balance effects, running-balance projection,
// recurrence schedules, and budget/goal progress.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-entered decimal string into a positive amount
// rounded half-up to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Signs are
// rejected: amounts are always positive, direction is carried by the
// transaction type.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	// Half-up rounding on the third decimal place
	d = d.Round(2)
	if d.Sign() <= 0 {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// Cents converts an amount to integer cents for storage. Amounts are kept at
// two decimal places by ParseAmount, so the conversion is exact.
func Cents(d decimal.Decimal) int64 {
	return d.Mul(decimal.NewFromInt(100)).IntPart()
}

// FromCents converts stored integer cents back to a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
