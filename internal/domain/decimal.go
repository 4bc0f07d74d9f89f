package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Decimal is an exact, arbitrary-precision signed decimal value.
// It wraps shopspring/decimal so the core never routes money or price
// arithmetic through IEEE-754 binary floats.
type Decimal struct {
	d decimal.Decimal
}

// NewDecimalFromString parses an exact decimal from its canonical string
// form (e.g. "1.2300"). Used when materializing ticks from merged
// columnar string storage.
func NewDecimalFromString(s string) (Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Decimal{}, fmt.Errorf("domain: parse decimal %q: %w", s, err)
	}
	return Decimal{d: d}, nil
}

// NewDecimalFromInt builds an exact decimal from an integer.
func NewDecimalFromInt(i int64) Decimal {
	return Decimal{d: decimal.NewFromInt(i)}
}

// ZeroDecimal returns the exact zero value.
func ZeroDecimal() Decimal {
	return Decimal{d: decimal.Zero}
}

// IsZero reports whether the value is exactly zero.
func (x Decimal) IsZero() bool { return x.d.IsZero() }

// Sign returns -1, 0, or 1.
func (x Decimal) Sign() int { return x.d.Sign() }

// Add returns x + y.
func (x Decimal) Add(y Decimal) Decimal { return Decimal{d: x.d.Add(y.d)} }

// Sub returns x - y.
func (x Decimal) Sub(y Decimal) Decimal { return Decimal{d: x.d.Sub(y.d)} }

// Mul returns x * y.
func (x Decimal) Mul(y Decimal) Decimal { return Decimal{d: x.d.Mul(y.d)} }

// Div returns x / y. Division by zero panics, matching shopspring/decimal.
func (x Decimal) Div(y Decimal) Decimal { return Decimal{d: x.d.Div(y.d)} }

// Neg returns -x.
func (x Decimal) Neg() Decimal { return Decimal{d: x.d.Neg()} }

// Reciprocal returns 1/x, used by inverse-instrument P&L.
func (x Decimal) Reciprocal() Decimal {
	return Decimal{d: decimal.NewFromInt(1).Div(x.d)}
}

// Cmp returns -1, 0, or 1 comparing x to y.
func (x Decimal) Cmp(y Decimal) int { return x.d.Cmp(y.d) }

// GreaterThan reports whether x > y.
func (x Decimal) GreaterThan(y Decimal) bool { return x.d.GreaterThan(y.d) }

// LessThanOrEqual reports whether x <= y.
func (x Decimal) LessThanOrEqual(y Decimal) bool { return x.d.LessThanOrEqual(y.d) }

// Equal reports whether x == y.
func (x Decimal) Equal(y Decimal) bool { return x.d.Equal(y.d) }

// String renders the canonical decimal string.
func (x Decimal) String() string { return x.d.String() }

// MarshalJSON delegates to shopspring/decimal's exact string encoding.
func (x Decimal) MarshalJSON() ([]byte, error) { return x.d.MarshalJSON() }

// UnmarshalJSON delegates to shopspring/decimal's exact string decoding.
func (x *Decimal) UnmarshalJSON(data []byte) error { return x.d.UnmarshalJSON(data) }

// Price is an exact instrument price.
type Price struct{ Decimal }

// NewPrice wraps a Decimal as a Price.
func NewPrice(d Decimal) Price { return Price{d} }

// Quantity is an exact instrument size.
type Quantity struct{ Decimal }

// NewQuantity wraps a Decimal as a Quantity.
func NewQuantity(d Decimal) Quantity { return Quantity{d} }
