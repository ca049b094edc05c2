package model

import (
	"github.com/shopspring/decimal"

	"github.com/bibbank/appraisal/pkg/money"
)

// Ratio names, as reported in RatioSet.NotApplicable.
const (
	RatioProfitMargin      = "profitMargin"
	RatioCAF               = "caf"
	RatioDebtRatio         = "debtRatio"
	RatioRepaymentCapacity = "repaymentCapacity"
	RatioCapitalization    = "capitalizationRatio"
	RatioLiquidity         = "liquidityRatio"
	RatioGlobalDebt        = "globalDebtRatio"
	RatioStockRotation     = "stockRotation"
	RatioDaysOfInventory   = "daysOfInventory"
)

// RatioInput gathers what the ratio analysis reads. Any of the three
// statements may be nil.
type RatioInput struct {
	BalanceSheet    *BalanceSheet
	IncomeStatement *IncomeStatement
	FamilyExpenses  *FamilyExpenses
	RequestedAmount decimal.Decimal
	Installment     decimal.Decimal
	// Currency sets the rounding of CAF; whole units when unset.
	Currency money.Currency
}

// RatioSet is the outcome of a ratio analysis. A ratio that could not be
// computed is 0 and listed in NotApplicable.
type RatioSet struct {
	ProfitMargin        decimal.Decimal `json:"profitMargin"`
	CAF                 decimal.Decimal `json:"caf"`
	DebtRatio           decimal.Decimal `json:"debtRatio"`
	RepaymentCapacity   decimal.Decimal `json:"repaymentCapacity"`
	CapitalizationRatio decimal.Decimal `json:"capitalizationRatio"`
	LiquidityRatio      decimal.Decimal `json:"liquidityRatio"`
	GlobalDebtRatio     decimal.Decimal `json:"globalDebtRatio"`
	StockRotation       decimal.Decimal `json:"stockRotation"`
	DaysOfInventory     decimal.Decimal `json:"daysOfInventory"`
	Label               string          `json:"label"`
	Appraisal           string          `json:"appraisal"`
	NotApplicable       []string        `json:"notApplicable,omitempty"`
	Notes               []string        `json:"notes"`
	Points              int             `json:"points"`
}

// IsApplicable reports whether the named ratio was computed.
func (r RatioSet) IsApplicable(name string) bool {
	for _, n := range r.NotApplicable {
		if n == name {
			return false
		}
	}
	return true
}
