package service_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/appraisal/internal/domain/model"
	"github.com/bibbank/appraisal/internal/domain/service"
)

func sampleBalanceSheet() *model.BalanceSheet {
	return &model.BalanceSheet{
		Buildings:        dec("2000000"),
		Equipment:        dec("1000000"),
		Stock:            dec("3000000"),
		TradeReceivables: dec("500000"),
		Cash:             dec("1500000"),
		Suppliers:        dec("1000000"),
		TaxLiabilities:   dec("500000"),
		BankLoans:        dec("1500000"),
	}
}

func sampleIncomeStatement() *model.IncomeStatement {
	return &model.IncomeStatement{
		Activities: []model.ActivityLine{
			{Activity: "grocery", Sales: dec("2000000"), CostOfGoods: dec("1500000")},
			{Activity: "mobile money", Sales: dec("1000000"), CostOfGoods: dec("700000")},
		},
		Charges: model.OperatingCharges{
			Rent:      dec("100000"),
			Salaries:  dec("150000"),
			Transport: dec("50000"),
		},
		Depreciation:     dec("50000"),
		FinancialCharges: dec("20000"),
		OtherCharges:     dec("30000"),
		AnalysisMonths:   6,
	}
}

func sampleFamilyExpenses() *model.FamilyExpenses {
	return &model.FamilyExpenses{Food: dec("100000"), Housing: dec("50000")}
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "%s: want %s, got %s", msg, want, got)
}

func TestAnalyze_CompleteFile(t *testing.T) {
	analyzer := service.NewRatioAnalyzer(service.DefaultRatioPolicy())

	rs := analyzer.Analyze(model.RatioInput{
		BalanceSheet:    sampleBalanceSheet(),
		IncomeStatement: sampleIncomeStatement(),
		FamilyExpenses:  sampleFamilyExpenses(),
		RequestedAmount: dec("2000000"),
		Installment:     dec("80000"),
	})

	assertDec(t, "0.2667", rs.ProfitMargin, "profit margin")
	assertDec(t, "450000", rs.CAF, "caf")
	assertDec(t, "0.4", rs.DebtRatio, "debt ratio")
	assertDec(t, "0.32", rs.RepaymentCapacity, "repayment capacity")
	assertDec(t, "0.625", rs.CapitalizationRatio, "capitalization")
	assertDec(t, "3.3333", rs.LiquidityRatio, "liquidity")
	assertDec(t, "0.6", rs.GlobalDebtRatio, "global debt")
	assertDec(t, "12", rs.StockRotation, "stock rotation")
	assertDec(t, "30", rs.DaysOfInventory, "days of inventory")

	assert.Empty(t, rs.NotApplicable)
	assert.Equal(t, 8, rs.Points)
	assert.Equal(t, service.LabelExcellent, rs.Label)
	assert.Equal(t,
		"Excellent. Excellent profit margin; Excellent repayment capacity; Very good capitalization; Excellent liquidity",
		rs.Appraisal)
}

func TestAnalyze_MissingBalanceSheet(t *testing.T) {
	analyzer := service.NewRatioAnalyzer(service.DefaultRatioPolicy())

	rs := analyzer.Analyze(model.RatioInput{
		IncomeStatement: sampleIncomeStatement(),
		FamilyExpenses:  sampleFamilyExpenses(),
		RequestedAmount: dec("2000000"),
		Installment:     dec("80000"),
	})

	for _, name := range []string{
		model.RatioDebtRatio, model.RatioCapitalization, model.RatioLiquidity,
		model.RatioGlobalDebt, model.RatioStockRotation, model.RatioDaysOfInventory,
	} {
		assert.False(t, rs.IsApplicable(name), name)
	}
	assert.True(t, rs.DebtRatio.IsZero())
	assert.True(t, rs.CapitalizationRatio.IsZero())
	assert.True(t, rs.LiquidityRatio.IsZero())
	assert.True(t, rs.StockRotation.IsZero())
	assert.True(t, rs.IsApplicable(model.RatioProfitMargin))

	assert.Equal(t, 4, rs.Points)
	assert.Equal(t, service.LabelGood, rs.Label)
	assert.Equal(t,
		"Good. Excellent profit margin; Excellent repayment capacity; Insufficient capitalization; Liquidity to monitor",
		rs.Appraisal)
}

func TestAnalyze_NothingDeclared(t *testing.T) {
	analyzer := service.NewRatioAnalyzer(service.DefaultRatioPolicy())

	rs := analyzer.Analyze(model.RatioInput{RequestedAmount: dec("1000000"), Installment: dec("90000")})

	assert.Len(t, rs.NotApplicable, 9)
	// A zero repayment capacity sits under the 40% threshold.
	assert.Equal(t, 2, rs.Points)
	assert.Equal(t, service.LabelModerateRisk, rs.Label)
	assert.Equal(t,
		"Moderate risk. Profit margin to improve; Excellent repayment capacity; Insufficient capitalization; Liquidity to monitor",
		rs.Appraisal)
}

func TestAnalyze_NonPositiveDenominators(t *testing.T) {
	analyzer := service.NewRatioAnalyzer(service.DefaultRatioPolicy())

	t.Run("negative net worth", func(t *testing.T) {
		bs := sampleBalanceSheet()
		bs.BankLoans = dec("9000000")

		rs := analyzer.Analyze(model.RatioInput{BalanceSheet: bs, RequestedAmount: dec("1000000")})

		assert.False(t, rs.IsApplicable(model.RatioDebtRatio))
		assert.False(t, rs.IsApplicable(model.RatioGlobalDebt))
		assert.True(t, rs.IsApplicable(model.RatioCapitalization))
		assert.True(t, rs.CapitalizationRatio.IsNegative())
	})

	t.Run("family expenses exceed net profit", func(t *testing.T) {
		rs := analyzer.Analyze(model.RatioInput{
			IncomeStatement: sampleIncomeStatement(),
			FamilyExpenses:  &model.FamilyExpenses{Food: dec("500000")},
			Installment:     dec("80000"),
		})

		assert.False(t, rs.IsApplicable(model.RatioRepaymentCapacity))
		assert.True(t, rs.RepaymentCapacity.IsZero())
		require.Len(t, rs.Notes, 4)
		assert.Equal(t, "Excellent repayment capacity", rs.Notes[1])
		assert.Equal(t, 4, rs.Points)
	})

	t.Run("no sales", func(t *testing.T) {
		rs := analyzer.Analyze(model.RatioInput{
			BalanceSheet:    sampleBalanceSheet(),
			IncomeStatement: &model.IncomeStatement{},
		})

		assert.False(t, rs.IsApplicable(model.RatioProfitMargin))
		assert.False(t, rs.IsApplicable(model.RatioStockRotation))
		assert.True(t, rs.IsApplicable(model.RatioCAF))
	})
}

func TestAnalyze_RubricThresholds(t *testing.T) {
	tests := []struct {
		name string
		cogs string
		note string
	}{
		{"margin of 20% earns two points", "800000", "Excellent profit margin"},
		{"margin just under 20% earns one point", "801000", "Good profit margin"},
		{"margin of 15% earns one point", "850000", "Good profit margin"},
		{"margin under 15% earns nothing", "851000", "Profit margin to improve"},
	}
	analyzer := service.NewRatioAnalyzer(service.DefaultRatioPolicy())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := analyzer.Analyze(model.RatioInput{
				IncomeStatement: &model.IncomeStatement{
					Activities: []model.ActivityLine{{Sales: dec("1000000"), CostOfGoods: dec(tt.cogs)}},
				},
			})
			require.NotEmpty(t, rs.Notes)
			assert.Equal(t, tt.note, rs.Notes[0])
		})
	}

	t.Run("repayment capacity is better when lower", func(t *testing.T) {
		in := func(installment string) model.RatioInput {
			return model.RatioInput{
				IncomeStatement: &model.IncomeStatement{
					Activities: []model.ActivityLine{{Sales: dec("1000000"), CostOfGoods: dec("900000")}},
				},
				Installment: dec(installment),
			}
		}
		assert.Equal(t, "Excellent repayment capacity", analyzer.Analyze(in("40000")).Notes[1])
		assert.Equal(t, "Acceptable repayment capacity", analyzer.Analyze(in("60000")).Notes[1])
		assert.Equal(t, "Strained repayment capacity", analyzer.Analyze(in("61000")).Notes[1])
	})
}

func TestAnalyze_PolicyIsExplicit(t *testing.T) {
	policy := service.DefaultRatioPolicy()
	policy.ExcellentPoints = 4

	rs := service.NewRatioAnalyzer(policy).Analyze(model.RatioInput{
		IncomeStatement: sampleIncomeStatement(),
		FamilyExpenses:  sampleFamilyExpenses(),
		Installment:     dec("80000"),
	})

	assert.Equal(t, 4, rs.Points)
	assert.Equal(t, service.LabelExcellent, rs.Label)
}

func TestRatioPolicy_Validate(t *testing.T) {
	require.NoError(t, service.DefaultRatioPolicy().Validate())

	tests := []struct {
		name   string
		mutate func(*service.RatioPolicy)
		want   string
	}{
		{"margin good below fair", func(p *service.RatioPolicy) { p.ProfitMarginGood = dec("0.10") }, "profit_margin"},
		{"liquidity good below fair", func(p *service.RatioPolicy) { p.LiquidityFair = dec("2.5") }, "liquidity"},
		{"repayment good above fair", func(p *service.RatioPolicy) { p.RepaymentCapacityGood = dec("0.70") }, "repayment_capacity"},
		{"label points out of order", func(p *service.RatioPolicy) { p.GoodPoints = 7 }, "label points"},
		{"negative moderate points", func(p *service.RatioPolicy) { p.ModeratePoints = -1 }, "label points"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := service.DefaultRatioPolicy()
			tt.mutate(&p)
			assert.ErrorContains(t, p.Validate(), tt.want)
		})
	}
}
