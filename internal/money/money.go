// Package money provides the monetary and percentage primitives used by the
// pricing engine. Amounts are backed by shopspring/decimal and rounded to the
// currency minor unit (two decimal places, half-up); binary floats are never
// used for stored amounts.
package money

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Money is a non-negative monetary amount in major units with two decimal
// places of precision.
type Money struct {
	amount decimal.Decimal
}

// Zero is the zero monetary amount.
var Zero = Money{amount: decimal.Zero}

// New creates a Money from a decimal amount, rounded half-up to the minor
// unit. Negative amounts are construction errors.
func New(d decimal.Decimal) (Money, error) {
	if d.IsNegative() {
		return Money{}, errors.Errorf("negative amount: %s", d)
	}
	return Money{amount: d.Round(2)}, nil
}

// Parse creates a Money from its decimal string representation.
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, errors.Wrapf(err, "parse amount %q", s)
	}
	return New(d)
}

// MustParse is like Parse but panics on error. Intended for constants and
// tests where a malformed amount is a programmer error.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Decimal returns the underlying decimal value.
func (m Money) Decimal() decimal.Decimal { return m.amount }

// String formats the amount with exactly two decimal places.
func (m Money) String() string { return m.amount.StringFixed(2) }

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.amount.IsZero() }

// Equal reports whether two amounts are numerically equal.
func (m Money) Equal(other Money) bool { return m.amount.Equal(other.amount) }

// LessThan reports whether m is strictly less than other.
func (m Money) LessThan(other Money) bool { return m.amount.LessThan(other.amount) }

// Discounted returns the amount reduced by the given percentage, rounded
// half-up to the minor unit.
func (m Money) Discounted(p Percent) Money {
	factor := decimal.NewFromInt(1).Sub(p.value.Div(hundred))
	return Money{amount: m.amount.Mul(factor).Round(2)}
}

// SubClamped subtracts other from m, clamping the result at zero.
func (m Money) SubClamped(other Money) Money {
	r := m.amount.Sub(other.amount)
	if r.IsNegative() {
		return Zero
	}
	return Money{amount: r.Round(2)}
}

// Percent is a percentage bounded to the inclusive range [0, 100].
type Percent struct {
	value decimal.Decimal
}

// NewPercent creates a Percent, rejecting values outside [0, 100].
func NewPercent(d decimal.Decimal) (Percent, error) {
	if d.IsNegative() || d.GreaterThan(hundred) {
		return Percent{}, errors.Errorf("percentage out of range: %s", d)
	}
	return Percent{value: d}, nil
}

// PercentFromInt creates a Percent from an integer number of percent.
func PercentFromInt(n int64) (Percent, error) {
	return NewPercent(decimal.NewFromInt(n))
}

// MustPercent is like NewPercent but panics on error.
func MustPercent(d decimal.Decimal) Percent {
	p, err := NewPercent(d)
	if err != nil {
		panic(err)
	}
	return p
}

// Decimal returns the underlying decimal value.
func (p Percent) Decimal() decimal.Decimal { return p.value }

// String formats the percentage without a trailing sign.
func (p Percent) String() string { return p.value.String() }

// IsZero reports whether the percentage is zero.
func (p Percent) IsZero() bool { return p.value.IsZero() }

// SavingsPercent returns the whole-number percentage saved between an
// original and a final amount, rounded half-up. It returns 0 when the
// original amount is zero.
func SavingsPercent(original, final Money) int {
	if original.IsZero() {
		return 0
	}
	ratio := final.amount.Div(original.amount)
	saved := decimal.NewFromInt(1).Sub(ratio).Mul(hundred)
	return int(saved.Round(0).IntPart())
}
