// Package money holds the rounding rules used for every monetary amount in the engine.
package money

import "github.com/shopspring/decimal"

// Cents is the number of decimal places amounts are stored with
const Cents int32 = 2

var hundred = decimal.NewFromInt(100)

// RoundCents rounds to two decimal places, halves away from zero
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(Cents)
}

// IsWholeCents reports whether d has no more than two decimal places
func IsWholeCents(d decimal.Decimal) bool {
	return d.Equal(RoundCents(d))
}

// Percent returns pct percent of amount rounded to cents
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return RoundCents(amount.Mul(pct).Div(hundred))
}

// FloorZero returns d, or zero if d is negative
func FloorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Sum adds up amounts
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// MustParse parses a decimal literal and panics on malformed input. Intended for
// constants and tests.
func MustParse(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
