// Package money provides a fixed-point currency value stored as integer cents.
// Every monetary computation in the ledger, reconciliation and portfolio
// packages goes through this type; float64 is never used to hold currency.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount is returned for negative values or values finer than a cent.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrNegativeResult is returned when a subtraction would go below zero.
	ErrNegativeResult = errors.New("result would be negative")
)

// DefaultSymbol is the currency symbol used by String.
const DefaultSymbol = "$"

// MaxCents is the largest representable amount. Add, MulInt and Sum stop
// there instead of wrapping around to a negative value.
const MaxCents = math.MaxInt64

var maxCents = decimal.NewFromInt(MaxCents)

// Money is an amount in minor units (cents).
type Money struct {
	cents int64
}

// Zero is the zero amount.
var Zero = Money{}

// FromCents builds a Money from a non-negative number of cents.
func FromCents(cents int64) (Money, error) {
	if cents < 0 {
		return Zero, ErrInvalidAmount
	}
	return Money{cents: cents}, nil
}

// MustCents is FromCents for constants and tests. It panics on negative input.
func MustCents(cents int64) Money {
	m, err := FromCents(cents)
	if err != nil {
		panic(fmt.Sprintf("money: negative cents %d", cents))
	}
	return m
}

// FromDecimal converts a decimal amount such as 1250.5 into Money.
// Negative values and values with more than two decimal places are rejected.
func FromDecimal(d decimal.Decimal) (Money, error) {
	if d.IsNegative() {
		return Zero, ErrInvalidAmount
	}
	if !d.Equal(d.Round(2)) {
		return Zero, ErrInvalidAmount
	}
	shifted := d.Shift(2)
	if shifted.GreaterThan(maxCents) {
		return Zero, ErrInvalidAmount
	}
	return Money{cents: shifted.IntPart()}, nil
}

// Parse reads a user supplied amount like "1,250.00" or "$99.5".
func Parse(s string) (Money, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, DefaultSymbol)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, ErrInvalidAmount
	}
	return FromDecimal(d)
}

// Cents returns the amount in minor units.
func (m Money) Cents() int64 { return m.cents }

// Decimal returns the amount as a decimal with two places.
func (m Money) Decimal() decimal.Decimal { return decimal.New(m.cents, -2) }

func (m Money) IsZero() bool     { return m.cents == 0 }
func (m Money) IsPositive() bool { return m.cents > 0 }
func (m Money) IsNegative() bool { return m.cents < 0 }

// Add returns m + o, capped at MaxCents.
func (m Money) Add(o Money) Money {
	if o.cents > 0 && m.cents > MaxCents-o.cents {
		return Money{cents: MaxCents}
	}
	return Money{cents: m.cents + o.cents}
}

// Sub returns m - o, failing with ErrNegativeResult if o > m.
func (m Money) Sub(o Money) (Money, error) {
	if o.cents > m.cents {
		return Zero, ErrNegativeResult
	}
	return Money{cents: m.cents - o.cents}, nil
}

// SignedSub returns m - o and may go negative. Only balances use it; a
// negative result means the tenant is in credit.
func (m Money) SignedSub(o Money) Money {
	return Money{cents: m.cents - o.cents}
}

// Abs drops the sign of a SignedSub result.
func (m Money) Abs() Money {
	if m.cents < 0 {
		return Money{cents: -m.cents}
	}
	return m
}

// MulInt multiplies by a whole number, e.g. monthly rent by lease months.
// The product is capped at MaxCents.
func (m Money) MulInt(n int) Money {
	if n <= 0 {
		return Zero
	}
	if m.cents > 0 && int64(n) > MaxCents/m.cents {
		return Money{cents: MaxCents}
	}
	return Money{cents: m.cents * int64(n)}
}

// DivRound divides by n, rounding half away from zero to the nearest cent.
// Dividing by zero or a negative count yields Zero.
func (m Money) DivRound(n int) Money {
	if n <= 0 {
		return Zero
	}
	q := m.Decimal().Div(decimal.NewFromInt(int64(n))).Round(2)
	return Money{cents: q.Shift(2).IntPart()}
}

// Compare returns -1, 0 or 1.
func (m Money) Compare(o Money) int {
	switch {
	case m.cents < o.cents:
		return -1
	case m.cents > o.cents:
		return 1
	}
	return 0
}

func (m Money) Equal(o Money) bool { return m.cents == o.cents }

// Sum adds up a list of amounts.
func Sum(amounts ...Money) Money {
	total := Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// String formats with the default symbol, e.g. "$1,234.50".
func (m Money) String() string {
	return m.Format(DefaultSymbol)
}

// Format renders the amount with the given currency symbol prefix,
// two decimal places and thousands separators.
func (m Money) Format(symbol string) string {
	cents := m.cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := groupThousands(fmt.Sprintf("%d", cents/100))
	return fmt.Sprintf("%s%s%s.%02d", sign, symbol, whole, cents%100)
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// MarshalJSON writes the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().StringFixed(2)), nil
}

// UnmarshalJSON accepts a JSON number or string. Signed values are kept so
// that cached read models holding balances round-trip.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("money: %w", err)
	}
	if !d.Equal(d.Round(2)) {
		return ErrInvalidAmount
	}
	m.cents = d.Shift(2).IntPart()
	return nil
}
