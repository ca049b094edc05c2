package service_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/appraisal/internal/domain/model"
	"github.com/bibbank/appraisal/internal/domain/service"
	"github.com/bibbank/appraisal/internal/domain/valueobject"
	"github.com/bibbank/appraisal/pkg/money"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newCalculator() *service.AmortizationCalculator {
	return service.NewAmortizationCalculator(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
}

func TestSchedule_ZeroRateQuarterly(t *testing.T) {
	calc := newCalculator()

	schedule, err := calc.Schedule(dec("15000000"), decimal.Zero, 12, valueobject.PeriodicityQuarterly)
	require.NoError(t, err)

	require.Len(t, schedule, 4)
	for i, row := range schedule {
		assert.Equal(t, i+1, row.Index)
		assert.True(t, row.Installment.Equal(dec("3750000")), "row %d installment %s", row.Index, row.Installment)
		assert.True(t, row.InterestPortion.IsZero())
	}
	assert.True(t, schedule[3].RemainingBalance.IsZero())
	assert.True(t, model.TotalPrincipal(schedule).Equal(dec("15000000")))
}

func TestSchedule_ZeroRateRemainderOnLastPeriod(t *testing.T) {
	calc := newCalculator()

	schedule, err := calc.Schedule(dec("1000000"), decimal.Zero, 3, valueobject.PeriodicityMonthly)
	require.NoError(t, err)

	require.Len(t, schedule, 3)
	assert.True(t, schedule[0].Installment.Equal(dec("333333")))
	assert.True(t, schedule[1].Installment.Equal(dec("333333")))
	assert.True(t, schedule[2].Installment.Equal(dec("333334")))
	assert.True(t, schedule[2].RemainingBalance.IsZero())
}

func TestSchedule_AnnuityKnownValues(t *testing.T) {
	calc := newCalculator()

	schedule, err := calc.Schedule(dec("1000000"), dec("0.12"), 12, valueobject.PeriodicityMonthly)
	require.NoError(t, err)

	require.Len(t, schedule, 12)
	first := schedule[0]
	assert.True(t, first.Installment.Equal(dec("88849")), "installment %s", first.Installment)
	assert.True(t, first.InterestPortion.Equal(dec("10000")), "interest %s", first.InterestPortion)
	assert.True(t, first.PrincipalPortion.Equal(dec("78849")), "principal %s", first.PrincipalPortion)
	assert.True(t, first.RemainingBalance.Equal(dec("921151")), "balance %s", first.RemainingBalance)

	installment, err := calc.Installment(dec("1000000"), dec("0.12"), 12, valueobject.PeriodicityMonthly)
	require.NoError(t, err)
	assert.True(t, installment.Equal(first.Installment))
}

func TestSchedule_PrincipalAddsUpAndBalanceEndsAtZero(t *testing.T) {
	tests := []struct {
		name        string
		principal   string
		rate        string
		months      int
		periodicity valueobject.Periodicity
	}{
		{"monthly 24%", "1000000", "0.24", 12, valueobject.PeriodicityMonthly},
		{"quarterly 24%", "2500000", "0.24", 24, valueobject.PeriodicityQuarterly},
		{"semi-annual 12%", "750000", "0.12", 36, valueobject.PeriodicitySemiAnnual},
		{"annual 18%", "5000000", "0.18", 60, valueobject.PeriodicityAnnual},
		{"ten years monthly", "3000000", "0.3", 120, valueobject.PeriodicityMonthly},
		{"truncated months", "900000", "0.2", 13, valueobject.PeriodicityQuarterly},
	}
	calc := newCalculator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schedule, err := calc.Schedule(dec(tt.principal), dec(tt.rate), tt.months, tt.periodicity)
			require.NoError(t, err)
			require.Len(t, schedule, tt.periodicity.Periods(tt.months))

			assert.True(t, model.TotalPrincipal(schedule).Equal(dec(tt.principal)),
				"total principal %s", model.TotalPrincipal(schedule))
			assert.True(t, schedule[len(schedule)-1].RemainingBalance.IsZero())

			for _, row := range schedule {
				assert.False(t, row.RemainingBalance.IsNegative())
				assert.True(t, row.Installment.Equal(row.PrincipalPortion.Add(row.InterestPortion)))
				assert.True(t, row.Installment.Equal(row.Installment.Round(0)), "whole XOF expected")
			}
		})
	}
}

func TestSchedule_Bullet(t *testing.T) {
	calc := newCalculator()

	schedule, err := calc.Schedule(dec("1200000"), dec("0.12"), 36, valueobject.PeriodicityBullet)
	require.NoError(t, err)

	require.Len(t, schedule, 3)
	for _, row := range schedule[:2] {
		assert.True(t, row.Installment.Equal(dec("144000")), "installment %s", row.Installment)
		assert.True(t, row.PrincipalPortion.IsZero())
		assert.True(t, row.RemainingBalance.Equal(dec("1200000")))
	}
	last := schedule[2]
	assert.True(t, last.PrincipalPortion.Equal(dec("1200000")))
	assert.True(t, last.InterestPortion.Equal(dec("144000")))
	assert.True(t, last.Installment.Equal(dec("1344000")))
	assert.True(t, last.RemainingBalance.IsZero())
}

func TestSchedule_RoundsToCurrencyMinorUnits(t *testing.T) {
	calc := newCalculator().WithCurrency(money.EUR)

	schedule, err := calc.Schedule(dec("1000"), decimal.Zero, 3, valueobject.PeriodicityMonthly)
	require.NoError(t, err)

	assert.True(t, schedule[0].Installment.Equal(dec("333.33")))
	assert.True(t, schedule[2].Installment.Equal(dec("333.34")))
}

func TestScheduleFor_UsesRequestCurrency(t *testing.T) {
	calc := newCalculator()
	req := model.LoanRequest{
		Amount:         dec("1000"),
		DurationMonths: 3,
		Periodicity:    valueobject.PeriodicityMonthly,
		Currency:       money.EUR,
	}

	schedule, err := calc.ScheduleFor(req)
	require.NoError(t, err)
	assert.True(t, schedule[0].Installment.Equal(dec("333.33")))
}

func TestSchedule_ValidationErrors(t *testing.T) {
	tests := []struct {
		name        string
		principal   string
		rate        string
		months      int
		periodicity valueobject.Periodicity
		field       string
	}{
		{"zero principal", "0", "0.1", 12, valueobject.PeriodicityMonthly, "principal"},
		{"negative principal", "-5", "0.1", 12, valueobject.PeriodicityMonthly, "principal"},
		{"zero duration", "1000", "0.1", 0, valueobject.PeriodicityMonthly, "duration"},
		{"duration above bound", "1000", "0.1", 121, valueobject.PeriodicityMonthly, "duration"},
		{"rate above one", "1000", "1.5", 12, valueobject.PeriodicityMonthly, "rate"},
		{"negative rate", "1000", "-0.01", 12, valueobject.PeriodicityMonthly, "rate"},
		{"no whole period", "1000", "0.1", 6, valueobject.PeriodicityAnnual, "periods"},
	}
	calc := newCalculator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schedule, err := calc.Schedule(dec(tt.principal), dec(tt.rate), tt.months, tt.periodicity)
			require.Error(t, err)
			assert.Nil(t, schedule)
			assert.ErrorIs(t, err, valueobject.ErrValidation)

			var vErr *valueobject.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestResolvePeriodicity_LogsFallback(t *testing.T) {
	var buf bytes.Buffer
	calc := service.NewAmortizationCalculator(slog.New(slog.NewTextHandler(&buf, nil)))

	t.Run("known label is silent", func(t *testing.T) {
		p := calc.ResolvePeriodicity("Trimestriel")
		assert.True(t, p.Equal(valueobject.PeriodicityQuarterly))
		assert.Empty(t, buf.String())
	})

	t.Run("unknown label falls back to monthly with a warning", func(t *testing.T) {
		p := calc.ResolvePeriodicity("weekly")
		assert.True(t, p.Equal(valueobject.PeriodicityMonthly))
		assert.Contains(t, buf.String(), "level=WARN")
		assert.Contains(t, buf.String(), "periodicity=weekly")
	})
}
