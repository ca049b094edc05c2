package testutil

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// AssertErrorContains checks that err contains the expected substring.
func AssertErrorContains(t *testing.T, err error, expected string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), expected)
	}
}

// AssertDecimalEqual compares decimals by value so that 3750000 and
// 3750000.00 are considered equal.
func AssertDecimalEqual(t *testing.T, expected, actual decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Truef(t, expected.Equal(actual), "expected %s, got %s %v", expected, actual, msgAndArgs)
}

// Dec parses a decimal literal and panics on malformed input. Test-only.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// DecPtr returns a pointer to the parsed decimal, for optional snapshot fields.
func DecPtr(s string) *decimal.Decimal {
	d := Dec(s)
	return &d
}
