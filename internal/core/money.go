// Package core provides the expense domain model and the monthly statistics engine.
//
// This file contains the fixed-point money type, its canonical decimal string
// form and the lenient parser used for user-entered amounts.
package core

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Money is an exact monetary amount held in minor units (cents).
type Money struct {
	Cents int64
}

var (
	ErrMalformedAmount = errors.New("malformed amount")
	ErrInvalidAmount   = errors.New("invalid amount")
)

var canonicalAmount = regexp.MustCompile(`^-?[0-9]+(\.[0-9]{1,2})?$`)

var (
	maxCents = decimal.NewFromInt(1<<63 - 1)
	minCents = decimal.NewFromInt(-1 << 63)
)

// Zero is the zero amount.
var Zero = Money{}

// Cents builds a Money from a count of minor units.
func Cents(c int64) Money {
	return Money{Cents: c}
}

// ParseMoney parses the canonical decimal form produced by Money.String.
//
// Accepted: an optional leading minus, integer digits and at most two
// fractional digits separated by a dot ("12", "12.5", "-0.01").
// Everything else fails with ErrMalformedAmount; no value is ever coerced.
func ParseMoney(s string) (Money, error) {
	if !canonicalAmount.MatchString(s) {
		return Money{}, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q: %v", ErrMalformedAmount, s, err)
	}
	cents := d.Shift(2)
	if !cents.IsInteger() || cents.GreaterThan(maxCents) || cents.LessThan(minCents) {
		return Money{}, fmt.Errorf("%w: %q out of range", ErrMalformedAmount, s)
	}
	return Money{Cents: cents.IntPart()}, nil
}

// MustParseMoney is ParseMoney for literals known to be valid. It panics otherwise.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// String returns the canonical form with exactly two fractional digits.
func (m Money) String() string {
	return decimal.New(m.Cents, -2).StringFixed(2)
}

// Add returns m + o, clamped to the int64 range instead of wrapping.
func (m Money) Add(o Money) Money {
	sum := m.Cents + o.Cents
	switch {
	case o.Cents > 0 && sum < m.Cents:
		return Money{Cents: math.MaxInt64}
	case o.Cents < 0 && sum > m.Cents:
		return Money{Cents: math.MinInt64}
	}
	return Money{Cents: sum}
}

// Cmp returns -1, 0 or +1 comparing m with o.
func (m Money) Cmp(o Money) int {
	switch {
	case m.Cents < o.Cents:
		return -1
	case m.Cents > o.Cents:
		return 1
	default:
		return 0
	}
}

func (m Money) Equal(o Money) bool       { return m.Cents == o.Cents }
func (m Money) GreaterThan(o Money) bool { return m.Cents > o.Cents }
func (m Money) IsZero() bool             { return m.Cents == 0 }
func (m Money) IsPositive() bool         { return m.Cents > 0 }

// Float64 returns the amount in major units for percentage and display math only.
// Note: this conversion is lossy; use Cents for anything that is summed or compared.
func (m Money) Float64() float64 {
	return float64(m.Cents) / 100.0
}

// Validate reports whether m is usable as an expense amount.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// MarshalText encodes m in canonical form, so JSON carries "12.50" rather than a float.
func (m Money) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes the canonical form.
func (m *Money) UnmarshalText(b []byte) error {
	v, err := ParseMoney(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Sum adds all amounts exactly, saturating like Add.
func Sum(amounts ...Money) Money {
	var total Money
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// ParseAmountInput converts a user-typed amount to Money with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. A comma followed by more than two
// digits reads like a thousands separator and is rejected. Malformed input wraps
// ErrMalformedAmount; zero or negative amounts return ErrInvalidAmount.
//
// Examples:
//
//	ParseAmountInput("12.34")  -> 12.34
//	ParseAmountInput("12,34")  -> 12.34
//	ParseAmountInput("12.345") -> 12.35 (rounds up)
//	ParseAmountInput("12.344") -> 12.34 (rounds down)
//	ParseAmountInput("12,345") -> ErrMalformedAmount
func ParseAmountInput(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, fmt.Errorf("%w: empty", ErrMalformedAmount)
	}
	// Normalize decimal comma to dot
	comma := strings.Contains(s, ",")
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only positive values allowed
		return Money{}, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Money{}, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if comma && len(fracPart) > 2 {
		return Money{}, fmt.Errorf("%w: %q has more than two digits after the comma", ErrMalformedAmount, s)
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			return Money{}, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1 - 100) / 100
	if iv > maxSafeInt64 {
		return Money{}, fmt.Errorf("%w: %q out of range", ErrMalformedAmount, s)
	}
	// Take first two fractional digits; then half-up rounding on third
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents}, nil
}
