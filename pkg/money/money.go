package money

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

var currencyCodeRe = regexp.MustCompile(`^[A-Z]{3}$`)

// minorUnits lists currencies whose minor-unit exponent differs from 2.
// The franc zones quote and repay loans in whole units.
var minorUnits = map[string]int32{
	"XOF": 0,
	"XAF": 0,
	"GNF": 0,
	"KMF": 0,
	"RWF": 0,
	"BIF": 0,
	"DJF": 0,
	"MGA": 0,
	"JPY": 0,
}

// Currency is an ISO 4217 currency code together with its minor-unit exponent.
type Currency struct {
	code  string
	units int32
}

// NewCurrency creates a Currency after validating the code is exactly 3 uppercase letters.
func NewCurrency(code string) (Currency, error) {
	if !currencyCodeRe.MatchString(code) {
		return Currency{}, fmt.Errorf("invalid currency code %q: must be exactly 3 uppercase letters", code)
	}
	units, ok := minorUnits[code]
	if !ok {
		units = 2
	}
	return Currency{code: code, units: units}, nil
}

// MustCurrency creates a Currency and panics on error. Intended for package-level variable
// initialization only.
func MustCurrency(code string) Currency {
	c, err := NewCurrency(code)
	if err != nil {
		panic(err)
	}
	return c
}

// Code returns the ISO 4217 currency code.
func (c Currency) Code() string { return c.code }

// MinorUnits returns the number of decimal places amounts are rounded to.
func (c Currency) MinorUnits() int32 { return c.units }

// String returns the currency code.
func (c Currency) String() string { return c.code }

// IsZero reports whether the currency was never initialised.
func (c Currency) IsZero() bool { return c.code == "" }

// Round rounds d to the currency's minor units using banker's rounding.
func (c Currency) Round(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(c.units)
}

// Common currencies.
var (
	XOF = MustCurrency("XOF")
	XAF = MustCurrency("XAF")
	EUR = MustCurrency("EUR")
	USD = MustCurrency("USD")
)

// Money represents an immutable monetary amount with currency.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// New creates a Money value from a decimal amount and currency.
func New(amount decimal.Decimal, currency Currency) Money {
	return Money{amount: amount, currency: currency}
}

// NewFromString parses an amount string and currency code into a Money value.
func NewFromString(amount string, currency string) (Money, error) {
	cur, err := NewCurrency(currency)
	if err != nil {
		return Money{}, fmt.Errorf("invalid currency: %w", err)
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}

	return Money{amount: d, currency: cur}, nil
}

// Zero returns a Money value of zero in the given currency.
func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() Currency      { return m.currency }
func (m Money) IsZero() bool            { return m.amount.IsZero() }
func (m Money) IsPositive() bool        { return m.amount.IsPositive() }

// Add returns the sum of m and other. Returns an error if the currencies do not match.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("currency mismatch: cannot add %s to %s", other.currency, m.currency)
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Multiply returns m multiplied by the given factor, unrounded.
func (m Money) Multiply(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor), currency: m.currency}
}

// Rounded returns m rounded to its currency's minor units.
func (m Money) Rounded() Money {
	return Money{amount: m.currency.Round(m.amount), currency: m.currency}
}

// Equal returns true if both the amount and currency of m and other are equal.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// String formats the Money value as "<amount> <currency>" using the currency's
// minor units, for example "15000000 XOF" or "12.50 EUR".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(m.currency.units), m.currency.Code())
}
