package model

import "github.com/shopspring/decimal"

// ScheduleEntry is one period of a repayment schedule. Amounts are rounded
// to the loan currency's minor units.
type ScheduleEntry struct {
	Installment      decimal.Decimal `json:"installment"`
	PrincipalPortion decimal.Decimal `json:"principalPortion"`
	InterestPortion  decimal.Decimal `json:"interestPortion"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
	Index            int             `json:"index"`
}

// TotalPrincipal sums the principal portions of a schedule.
func TotalPrincipal(schedule []ScheduleEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range schedule {
		total = total.Add(e.PrincipalPortion)
	}
	return total
}

// TotalInterest sums the interest portions of a schedule.
func TotalInterest(schedule []ScheduleEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range schedule {
		total = total.Add(e.InterestPortion)
	}
	return total
}
