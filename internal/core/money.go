package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PriceScale is the number of decimal places stored for prices.
const PriceScale = 2

// PriceMaxDigits is the total number of significant digits a price may carry.
const PriceMaxDigits = 10

// maxExponent bounds the decimal exponent accepted from input. Rounding and
// comparison rescale to the exponent, so 1e20000000 would otherwise build a
// twenty-million-digit integer. Values inside the bound still reach the
// normal digit checks.
const maxExponent = 64

// Money is a fixed-point amount that always renders with PriceScale decimals.
type Money struct {
	decimal.Decimal
}

// NewMoney parses s as a decimal amount.
func NewMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("parse price %q: %w", s, err)
	}
	if err := checkExponent(d); err != nil {
		return Money{}, err
	}
	return Money{d}, nil
}

// MustMoney is NewMoney for literals known to be valid.
func MustMoney(s string) Money {
	m, err := NewMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// String renders the amount with exactly PriceScale decimals.
func (m Money) String() string {
	return m.StringFixed(PriceScale)
}

// MarshalJSON renders the amount as a quoted fixed-point string, e.g. "12.50".
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts both quoted strings and bare JSON numbers.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	if err := checkExponent(d); err != nil {
		return err
	}
	m.Decimal = d
	return nil
}

func checkExponent(d decimal.Decimal) error {
	if exp := d.Exponent(); exp > maxExponent || exp < -maxExponent {
		return fmt.Errorf("price exponent %d is out of range", exp)
	}
	return nil
}

// FitsColumn reports whether the amount fits a NUMERIC(10,2) column without rounding.
func (m Money) FitsColumn() bool {
	if !m.Equal(m.Round(PriceScale)) {
		return false
	}
	limit := decimal.New(1, PriceMaxDigits-PriceScale)
	return m.Abs().LessThan(limit)
}
