package service

import (
	"log/slog"
	"math"

	"github.com/shopspring/decimal"

	"github.com/bibbank/appraisal/internal/domain/model"
	"github.com/bibbank/appraisal/internal/domain/valueobject"
	"github.com/bibbank/appraisal/pkg/money"
)

// ---------------------------------------------------------------------------
// AmortizationCalculator – repayment installment and schedule
// ---------------------------------------------------------------------------

// AmortizationCalculator computes installments and repayment schedules.
// Amounts are rounded half-to-even to the minor units of its currency,
// XOF unless set with WithCurrency.
type AmortizationCalculator struct {
	logger   *slog.Logger
	currency money.Currency
}

// NewAmortizationCalculator returns a calculator that rounds to whole XOF.
func NewAmortizationCalculator(logger *slog.Logger) *AmortizationCalculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &AmortizationCalculator{logger: logger, currency: money.XOF}
}

// WithCurrency returns a copy of c that rounds to cur.
func (c *AmortizationCalculator) WithCurrency(cur money.Currency) *AmortizationCalculator {
	next := *c
	if !cur.IsZero() {
		next.currency = cur
	}
	return &next
}

// ResolvePeriodicity maps a free-text periodicity to a Periodicity. Unknown
// labels fall back to monthly and are logged.
func (c *AmortizationCalculator) ResolvePeriodicity(label string) valueobject.Periodicity {
	p, ok := valueobject.ParsePeriodicity(label)
	if !ok {
		c.logger.Warn("unrecognised periodicity, defaulting to monthly", "periodicity", label)
	}
	return p
}

// Periods returns the number of repayments over durationMonths. The month
// count is truncated to whole periods.
func (c *AmortizationCalculator) Periods(durationMonths int, p valueobject.Periodicity) int {
	return p.Periods(durationMonths)
}

// Installment returns the first-period installment.
func (c *AmortizationCalculator) Installment(
	principal, annualRate decimal.Decimal,
	durationMonths int,
	p valueobject.Periodicity,
) (decimal.Decimal, error) {
	n, rate, err := c.terms(principal, annualRate, durationMonths, p)
	if err != nil {
		return decimal.Zero, err
	}
	return c.currency.Round(rawInstallment(principal, annualRate, rate, n, p)), nil
}

// ScheduleFor computes the schedule of a loan request in its own currency.
func (c *AmortizationCalculator) ScheduleFor(req model.LoanRequest) ([]model.ScheduleEntry, error) {
	return c.WithCurrency(req.Currency).
		Schedule(req.Amount, req.AnnualRate, req.DurationMonths, req.Periodicity)
}

// Schedule computes the full repayment schedule.
//
//	periods     = durationMonths / (12 / periodsPerYear)
//	r           = annualRate / periodsPerYear
//	installment = P / n                            when annualRate = 0
//	            = P * r                            for a bullet loan
//	            = P * r * (1+r)^n / ((1+r)^n - 1)  otherwise
//
// The last row repays the outstanding balance, so principal portions add up
// to the principal and the final balance is zero.
func (c *AmortizationCalculator) Schedule(
	principal, annualRate decimal.Decimal,
	durationMonths int,
	p valueobject.Periodicity,
) ([]model.ScheduleEntry, error) {
	n, rate, err := c.terms(principal, annualRate, durationMonths, p)
	if err != nil {
		return nil, err
	}

	installment := c.currency.Round(rawInstallment(principal, annualRate, rate, n, p))
	linear := annualRate.IsZero()

	schedule := make([]model.ScheduleEntry, 0, n)
	balance := c.currency.Round(principal)

	for i := 1; i <= n; i++ {
		interest := decimal.Zero
		if !linear {
			interest = c.currency.Round(balance.Mul(rate))
		}

		var principalPart decimal.Decimal
		switch {
		case i == n:
			principalPart = balance
		case p.IsBullet() && !linear:
			principalPart = decimal.Zero
		default:
			principalPart = installment.Sub(interest)
		}
		if principalPart.GreaterThan(balance) {
			principalPart = balance
		}

		balance = balance.Sub(principalPart)
		if balance.IsNegative() {
			balance = decimal.Zero
		}

		schedule = append(schedule, model.ScheduleEntry{
			Index:            i,
			Installment:      principalPart.Add(interest),
			PrincipalPortion: principalPart,
			InterestPortion:  interest,
			RemainingBalance: balance,
		})
	}
	return schedule, nil
}

// terms validates the inputs and returns the number of periods and the
// periodic rate.
func (c *AmortizationCalculator) terms(
	principal, annualRate decimal.Decimal,
	durationMonths int,
	p valueobject.Periodicity,
) (int, decimal.Decimal, error) {
	if !principal.IsPositive() {
		return 0, decimal.Zero, valueobject.NewValidationError("principal", "must be positive")
	}
	if err := model.ValidateDuration("duration", durationMonths); err != nil {
		return 0, decimal.Zero, err
	}
	if err := model.ValidateRate("rate", annualRate); err != nil {
		return 0, decimal.Zero, err
	}
	n := p.Periods(durationMonths)
	if n <= 0 {
		return 0, decimal.Zero, valueobject.NewValidationError("periods",
			"duration is shorter than one repayment period")
	}
	rate := annualRate.Div(decimal.NewFromInt(int64(p.PeriodsPerYear())))
	return n, rate, nil
}

func rawInstallment(principal, annualRate, rate decimal.Decimal, n int, p valueobject.Periodicity) decimal.Decimal {
	switch {
	case annualRate.IsZero():
		return principal.Div(decimal.NewFromInt(int64(n)))
	case p.IsBullet():
		return principal.Mul(rate)
	default:
		// The power is taken in float64, then the result goes back to decimal
		// for every monetary operation.
		r := rate.InexactFloat64()
		factor := math.Pow(1+r, float64(n))
		return decimal.NewFromFloat(principal.InexactFloat64() * r * factor / (factor - 1))
	}
}
