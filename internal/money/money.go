package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits carried by every Amount.
const Scale = 2

var (
	// ErrPrecision is returned when a value has more than two fractional digits.
	ErrPrecision = errors.New("money: more than 2 fractional digits")
	// ErrOutOfRange is returned when a value does not fit into an Amount.
	ErrOutOfRange = errors.New("money: amount out of range")

	maxAmount = decimal.New(1, 15)
)

// Amount is a fixed-point currency value stored as minor units (1/100).
type Amount int64

// Zero is the zero amount.
const Zero Amount = 0

// FromCents builds an Amount from minor units.
func FromCents(cents int64) Amount {
	return Amount(cents)
}

// FromDecimal converts a decimal into an Amount, rejecting values that would lose precision.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	if !d.Equal(d.Round(Scale)) {
		return 0, fmt.Errorf("%w: %s", ErrPrecision, d.String())
	}
	if d.Abs().GreaterThanOrEqual(maxAmount) {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, d.String())
	}
	return Amount(d.Shift(Scale).IntPart()), nil
}

// Parse reads an amount such as "100", "100.5" or "100.50".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("money: invalid amount %q: %w", s, err)
	}
	return FromDecimal(d)
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Cents returns the amount in minor units.
func (a Amount) Cents() int64 {
	return int64(a)
}

// Decimal returns the amount as a decimal with two fractional digits.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Scale)
}

// Neg returns -a.
func (a Amount) Neg() Amount {
	return -a
}

// IsPositive reports whether a > 0.
func (a Amount) IsPositive() bool {
	return a > 0
}

func (a Amount) String() string {
	return a.Decimal().StringFixed(Scale)
}

// MarshalJSON encodes the amount as a string to keep clients away from floats.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts both "12.34" and 12.34.
func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		*a = 0
		return nil
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
