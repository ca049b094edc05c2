package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bibbank/appraisal/internal/domain/model"
)

// ---------------------------------------------------------------------------
// RatioPolicy – appraisal rubric thresholds
// ---------------------------------------------------------------------------

// RatioPolicy holds the rubric thresholds. Each rubric ratio earns 2 points
// at its Good threshold and 1 point at its Fair threshold. Repayment
// capacity is better when lower.
type RatioPolicy struct {
	ProfitMarginGood      decimal.Decimal
	ProfitMarginFair      decimal.Decimal
	RepaymentCapacityGood decimal.Decimal
	RepaymentCapacityFair decimal.Decimal
	CapitalizationGood    decimal.Decimal
	CapitalizationFair    decimal.Decimal
	LiquidityGood         decimal.Decimal
	LiquidityFair         decimal.Decimal
	ExcellentPoints       int
	GoodPoints            int
	ModeratePoints        int
}

// DefaultRatioPolicy returns the institution's standard rubric.
func DefaultRatioPolicy() RatioPolicy {
	return RatioPolicy{
		ProfitMarginGood:      decimal.RequireFromString("0.20"),
		ProfitMarginFair:      decimal.RequireFromString("0.15"),
		RepaymentCapacityGood: decimal.RequireFromString("0.40"),
		RepaymentCapacityFair: decimal.RequireFromString("0.60"),
		CapitalizationGood:    decimal.RequireFromString("0.50"),
		CapitalizationFair:    decimal.RequireFromString("0.35"),
		LiquidityGood:         decimal.RequireFromString("2.0"),
		LiquidityFair:         decimal.RequireFromString("1.5"),
		ExcellentPoints:       6,
		GoodPoints:            4,
		ModeratePoints:        2,
	}
}

// Validate checks that each Good threshold is at least as strict as its
// Fair threshold and that the label cut points descend.
func (p RatioPolicy) Validate() error {
	higherIsBetter := []struct {
		name       string
		good, fair decimal.Decimal
	}{
		{"profit_margin", p.ProfitMarginGood, p.ProfitMarginFair},
		{"capitalization", p.CapitalizationGood, p.CapitalizationFair},
		{"liquidity", p.LiquidityGood, p.LiquidityFair},
	}
	for _, t := range higherIsBetter {
		if t.good.LessThan(t.fair) {
			return fmt.Errorf("%s: good threshold %s is below fair threshold %s", t.name, t.good, t.fair)
		}
	}
	if p.RepaymentCapacityGood.GreaterThan(p.RepaymentCapacityFair) {
		return fmt.Errorf("repayment_capacity: good threshold %s is above fair threshold %s",
			p.RepaymentCapacityGood, p.RepaymentCapacityFair)
	}
	if p.ModeratePoints < 0 || p.GoodPoints < p.ModeratePoints || p.ExcellentPoints < p.GoodPoints {
		return errors.New("label points must satisfy excellent >= good >= moderate >= 0")
	}
	return nil
}

// Appraisal labels.
const (
	LabelExcellent    = "Excellent"
	LabelGood         = "Good"
	LabelModerateRisk = "Moderate risk"
	LabelHighRisk     = "High risk"
)

// ---------------------------------------------------------------------------
// RatioAnalyzer
// ---------------------------------------------------------------------------

// RatioAnalyzer computes financial ratios and the rubric appraisal.
type RatioAnalyzer struct {
	policy RatioPolicy
}

// NewRatioAnalyzer returns an analyzer applying policy.
func NewRatioAnalyzer(policy RatioPolicy) *RatioAnalyzer {
	return &RatioAnalyzer{policy: policy}
}

var (
	twelve     = decimal.NewFromInt(12)
	daysInYear = decimal.NewFromInt(365)
)

// Analyze never fails. A ratio whose input is missing or whose denominator
// is not positive is 0 and listed as not applicable.
func (a *RatioAnalyzer) Analyze(in model.RatioInput) model.RatioSet {
	var rs model.RatioSet
	na := func(names ...string) { rs.NotApplicable = append(rs.NotApplicable, names...) }

	is, bs := in.IncomeStatement, in.BalanceSheet

	if is != nil {
		if sales := is.MonthlySales(); sales.IsPositive() {
			rs.ProfitMargin = is.GrossMargin().Div(sales).RoundBank(4)
		} else {
			na(model.RatioProfitMargin)
		}
		rs.CAF = is.NetProfit().Add(is.Depreciation).RoundBank(in.Currency.MinorUnits())

		available := is.NetProfit()
		if in.FamilyExpenses != nil {
			available = available.Sub(in.FamilyExpenses.Total())
		}
		if available.IsPositive() {
			rs.RepaymentCapacity = in.Installment.Div(available).RoundBank(4)
		} else {
			na(model.RatioRepaymentCapacity)
		}
	} else {
		na(model.RatioProfitMargin, model.RatioCAF, model.RatioRepaymentCapacity)
	}

	if bs != nil {
		netWorth := bs.NetWorth()
		if netWorth.IsPositive() {
			rs.DebtRatio = in.RequestedAmount.Div(netWorth).RoundBank(4)
			rs.GlobalDebtRatio = bs.TotalLiabilities().Div(netWorth).RoundBank(4)
		} else {
			na(model.RatioDebtRatio, model.RatioGlobalDebt)
		}
		if total := bs.TotalAssets(); total.IsPositive() {
			rs.CapitalizationRatio = netWorth.Div(total).RoundBank(4)
		} else {
			na(model.RatioCapitalization)
		}
		if st := bs.ShortTermLiabilities(); st.IsPositive() {
			rs.LiquidityRatio = bs.TotalCurrentAssets().Div(st).RoundBank(4)
		} else {
			na(model.RatioLiquidity)
		}
	} else {
		na(model.RatioDebtRatio, model.RatioCapitalization, model.RatioLiquidity, model.RatioGlobalDebt)
	}

	if bs != nil && is != nil && bs.Stock.IsPositive() && is.MonthlySales().IsPositive() {
		annualSales := is.MonthlySales().Mul(twelve)
		rs.StockRotation = annualSales.Div(bs.Stock).RoundBank(2)
		rs.DaysOfInventory = bs.Stock.Div(annualSales).Mul(daysInYear).RoundBank(0)
	} else {
		na(model.RatioStockRotation, model.RatioDaysOfInventory)
	}

	a.appraise(&rs)
	return rs
}

type rubricLine struct {
	value         decimal.Decimal
	good, fair    decimal.Decimal
	notes         [3]string // good, fair, poor
	lowerIsBetter bool
}

func (a *RatioAnalyzer) appraise(rs *model.RatioSet) {
	p := a.policy
	lines := []rubricLine{
		{
			value: rs.ProfitMargin,
			good: p.ProfitMarginGood, fair: p.ProfitMarginFair,
			notes: [3]string{"Excellent profit margin", "Good profit margin", "Profit margin to improve"},
		},
		{
			value: rs.RepaymentCapacity,
			good: p.RepaymentCapacityGood, fair: p.RepaymentCapacityFair, lowerIsBetter: true,
			notes: [3]string{"Excellent repayment capacity", "Acceptable repayment capacity", "Strained repayment capacity"},
		},
		{
			value: rs.CapitalizationRatio,
			good: p.CapitalizationGood, fair: p.CapitalizationFair,
			notes: [3]string{"Very good capitalization", "Adequate capitalization", "Insufficient capitalization"},
		},
		{
			value: rs.LiquidityRatio,
			good: p.LiquidityGood, fair: p.LiquidityFair,
			notes: [3]string{"Excellent liquidity", "Satisfactory liquidity", "Liquidity to monitor"},
		},
	}

	// Ratios that are not applicable hold 0 and go through the thresholds
	// like any other value: a 0 repayment capacity still earns the top mark.
	points := 0
	notes := make([]string, 0, len(lines))
	for _, l := range lines {
		switch {
		case l.meets(l.good):
			points += 2
			notes = append(notes, l.notes[0])
		case l.meets(l.fair):
			points++
			notes = append(notes, l.notes[1])
		default:
			notes = append(notes, l.notes[2])
		}
	}

	rs.Points = points
	rs.Notes = notes
	rs.Label = a.label(points)
	rs.Appraisal = rs.Label + ". " + strings.Join(notes, "; ")
}

func (l rubricLine) meets(threshold decimal.Decimal) bool {
	if l.lowerIsBetter {
		return l.value.LessThanOrEqual(threshold)
	}
	return l.value.GreaterThanOrEqual(threshold)
}

func (a *RatioAnalyzer) label(points int) string {
	switch {
	case points >= a.policy.ExcellentPoints:
		return LabelExcellent
	case points >= a.policy.GoodPoints:
		return LabelGood
	case points >= a.policy.ModeratePoints:
		return LabelModerateRisk
	default:
		return LabelHighRisk
	}
}
