// Package ucum implements the Unified Code for Units of Measure: arbitrary
// precision decimal arithmetic, a unit expression parser, canonical forms
// and conversion, grounded on the unit tables found across the examples
// (in particular the canonical-unit grouping used by
// github.com/robertoaraneda/gofhir's pkg/ucum) but rebuilt on exact,
// precision-tracking decimals rather than float64 factors.
package ucum

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimal is an arbitrary-precision signed decimal value that, unlike a bare
// shopspring/decimal.Decimal, carries its own notion of precision (the
// number of significant digits the value was written or computed with) as
// part of its identity: Decimal("42.00") and Decimal("42.000") are numerically
// equal but not Decimal-equal, because they were specified to different
// precision (spec §4.8.1 / §8 scenario 6).
type Decimal struct {
	value     decimal.Decimal
	precision int
}

// Zero is the Decimal value 0, at precision 1.
var Zero = Decimal{value: decimal.Zero, precision: 1}

// NewFromString parses a decimal literal such as "42.00", "-3", "1.5e3".
// Precision is the number of digits in the literal (sign and decimal point
// excluded), so trailing zeros written by the caller count.
func NewFromString(s string) (Decimal, error) {
	trimmed := strings.TrimSpace(s)
	v, err := decimal.NewFromString(trimmed)
	if err != nil {
		return Decimal{}, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	return Decimal{value: v, precision: countDigits(trimmed)}, nil
}

// NewFromInt creates an exact Decimal from an integer value.
func NewFromInt(v int64) Decimal {
	s := fmt.Sprintf("%d", v)
	return Decimal{value: decimal.NewFromInt(v), precision: countDigits(s)}
}

// New creates a Decimal from an explicit value and precision, as used when
// the precision is known structurally rather than from a literal (e.g. the
// result of a conversion).
func New(v decimal.Decimal, precision int) Decimal {
	if precision < 1 {
		precision = 1
	}
	return Decimal{value: v, precision: precision}
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	if n == 0 {
		return 1
	}
	return n
}

// Precision returns the number of significant digits tracked for this value.
func (d Decimal) Precision() int { return d.precision }

// Raw returns the underlying exact decimal.Decimal magnitude, precision
// metadata stripped.
func (d Decimal) Raw() decimal.Decimal { return d.value }

// String renders the numeric value with trailing fractional zeros removed,
// so "42.00" prints as "42". It does not pad or truncate according to
// Precision.
func (d Decimal) String() string {
	return d.value.String()
}

// IsZero reports whether the value is exactly zero (sign-normalised: -0 and
// 0 are the same Decimal).
func (d Decimal) IsZero() bool {
	return d.value.IsZero()
}

// Add returns d+other. Per spec §4.8.1, the result's precision is the
// minimum of the two operand precisions: a sum can be no more precise than
// its least precise addend.
func (d Decimal) Add(other Decimal) Decimal {
	return Decimal{value: d.value.Add(other.value), precision: minInt(d.precision, other.precision)}
}

// Subtract returns d-other, with the same precision rule as Add.
func (d Decimal) Subtract(other Decimal) Decimal {
	return Decimal{value: d.value.Sub(other.value), precision: minInt(d.precision, other.precision)}
}

// Multiply returns d*other. Per spec §4.8.1 the result's precision is the
// sum of the operand precisions.
func (d Decimal) Multiply(other Decimal) Decimal {
	return Decimal{value: d.value.Mul(other.value), precision: d.precision + other.precision}
}

// Divide returns d/other rounded to the given number of decimal places
// ("configured for /" per spec §4.8.1); the result's precision is that
// configured place count, and at least 1. Division by zero is a structural
// error.
func (d Decimal) Divide(other Decimal, places int32) (Decimal, error) {
	if other.value.IsZero() {
		return Decimal{}, fmt.Errorf("division by zero")
	}
	q := d.value.DivRound(other.value, places)
	return Decimal{value: q, precision: max(int(places), 1)}, nil
}

// Equal is exact Decimal identity: equal numeric value AND equal precision.
// Decimal("42.00").Equal(Decimal("42.000")) is false even though both
// represent the number 42.
func (d Decimal) Equal(other Decimal) bool {
	return d.value.Equal(other.value) && d.precision == other.precision
}

// ComparesTo is ordinary numeric comparison, ignoring precision: -1, 0 or 1
// as d is less than, equal to, or greater than other.
func (d Decimal) ComparesTo(other Decimal) int {
	return d.value.Cmp(other.value)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
