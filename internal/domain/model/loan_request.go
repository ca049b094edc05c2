package model

import (
	"github.com/shopspring/decimal"

	"github.com/bibbank/appraisal/internal/domain/valueobject"
	"github.com/bibbank/appraisal/pkg/money"
)

// MaxDurationMonths bounds the loan duration accepted by the engine.
const MaxDurationMonths = 120

// LoanRequest is what the client asks for. It is fixed once an application
// is created from it.
type LoanRequest struct {
	Amount         decimal.Decimal
	AnnualRate     decimal.Decimal
	Periodicity    valueobject.Periodicity
	Currency       money.Currency
	Purpose        string
	DurationMonths int
}

// Validate checks amount, duration and rate bounds.
func (r LoanRequest) Validate() error {
	if !r.Amount.IsPositive() {
		return valueobject.NewValidationError("amount", "must be positive")
	}
	if err := ValidateDuration("duration", r.DurationMonths); err != nil {
		return err
	}
	if err := ValidateRate("rate", r.AnnualRate); err != nil {
		return err
	}
	if r.Periodicity.IsZero() {
		return valueobject.NewValidationError("periodicity", "is required")
	}
	return nil
}

// CurrencyOrDefault returns the request currency, XOF when unset.
func (r LoanRequest) CurrencyOrDefault() money.Currency {
	if r.Currency.IsZero() {
		return money.XOF
	}
	return r.Currency
}

// ValidateDuration checks that months is within 1..MaxDurationMonths.
func ValidateDuration(field string, months int) error {
	if months <= 0 {
		return valueobject.NewValidationError(field, "must be positive")
	}
	if months > MaxDurationMonths {
		return valueobject.NewValidationError(field, "must not exceed 120 months")
	}
	return nil
}

// ValidateRate checks that rate is a fraction in [0,1].
func ValidateRate(field string, rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return valueobject.NewValidationError(field, "must be a fraction between 0 and 1")
	}
	return nil
}
