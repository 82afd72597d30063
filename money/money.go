package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places used when formatting amounts.
const Scale = 2

var ErrNegativeAmount = errors.New("amount must not be negative")

// Zero is the additive identity, spelled out for readability at call sites.
var Zero = decimal.Zero

// LineTotal returns unit price multiplied by quantity without float rounding.
func LineTotal(unit decimal.Decimal, qty int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(qty)))
}

// Sum adds the given amounts.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Parse reads a non-negative decimal amount such as "49.99".
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, ErrNegativeAmount)
	}
	return d, nil
}

// MustParse is Parse for constants; it panics on malformed input.
func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FromMinorUnits converts cents (or paise) to a decimal amount.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -Scale)
}

// ToMinorUnits converts an amount to integer minor units, rounding half away from zero.
func ToMinorUnits(d decimal.Decimal) int64 {
	return d.Round(Scale).Shift(Scale).IntPart()
}

// Format renders an amount with two decimals, e.g. "103.00".
func Format(d decimal.Decimal) string {
	return d.StringFixed(Scale)
}
