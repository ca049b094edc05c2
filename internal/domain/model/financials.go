package model

import (
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// FinancialSnapshot
// ---------------------------------------------------------------------------

// FinancialSnapshot is the client's declared monthly situation. A nil field
// is unknown, which is not the same as zero.
type FinancialSnapshot struct {
	NetBusinessIncome *decimal.Decimal `json:"netBusinessIncome,omitempty"`
	OtherIncome       *decimal.Decimal `json:"otherIncome,omitempty"`
	FamilyExpenses    *decimal.Decimal `json:"familyExpenses,omitempty"`
	CollateralValue   *decimal.Decimal `json:"collateralValue,omitempty"`
	YearsInBusiness   *float64         `json:"yearsInBusiness,omitempty"`
	YearsAtAddress    *float64         `json:"yearsAtAddress,omitempty"`
}

// Merge returns a copy of s where every non-nil field of patch overwrites
// the corresponding field.
func (s FinancialSnapshot) Merge(patch FinancialSnapshot) FinancialSnapshot {
	out := s
	if patch.NetBusinessIncome != nil {
		out.NetBusinessIncome = patch.NetBusinessIncome
	}
	if patch.OtherIncome != nil {
		out.OtherIncome = patch.OtherIncome
	}
	if patch.FamilyExpenses != nil {
		out.FamilyExpenses = patch.FamilyExpenses
	}
	if patch.CollateralValue != nil {
		out.CollateralValue = patch.CollateralValue
	}
	if patch.YearsInBusiness != nil {
		out.YearsInBusiness = patch.YearsInBusiness
	}
	if patch.YearsAtAddress != nil {
		out.YearsAtAddress = patch.YearsAtAddress
	}
	return out
}

// ---------------------------------------------------------------------------
// BalanceSheet
// ---------------------------------------------------------------------------

// BalanceSheet holds the business's categorised assets and liabilities.
// Totals are derived on every call.
type BalanceSheet struct {
	// Fixed assets
	Land       decimal.Decimal `json:"land"`
	Buildings  decimal.Decimal `json:"buildings"`
	Equipment  decimal.Decimal `json:"equipment"`
	Vehicles   decimal.Decimal `json:"vehicles"`
	OtherFixed decimal.Decimal `json:"otherFixed"`
	// Current assets
	Stock            decimal.Decimal `json:"stock"`
	TradeReceivables decimal.Decimal `json:"tradeReceivables"`
	OtherReceivables decimal.Decimal `json:"otherReceivables"`
	Cash             decimal.Decimal `json:"cash"`
	// Short-term liabilities
	Suppliers      decimal.Decimal `json:"suppliers"`
	TaxLiabilities decimal.Decimal `json:"taxLiabilities"`
	OtherShortTerm decimal.Decimal `json:"otherShortTerm"`
	// Medium and long-term liabilities
	BankLoans     decimal.Decimal `json:"bankLoans"`
	OtherLongTerm decimal.Decimal `json:"otherLongTerm"`
}

func (b BalanceSheet) TotalFixedAssets() decimal.Decimal {
	return sum(b.Land, b.Buildings, b.Equipment, b.Vehicles, b.OtherFixed)
}

func (b BalanceSheet) TotalCurrentAssets() decimal.Decimal {
	return sum(b.Stock, b.TradeReceivables, b.OtherReceivables, b.Cash)
}

func (b BalanceSheet) TotalAssets() decimal.Decimal {
	return b.TotalFixedAssets().Add(b.TotalCurrentAssets())
}

func (b BalanceSheet) ShortTermLiabilities() decimal.Decimal {
	return sum(b.Suppliers, b.TaxLiabilities, b.OtherShortTerm)
}

func (b BalanceSheet) LongTermLiabilities() decimal.Decimal {
	return sum(b.BankLoans, b.OtherLongTerm)
}

func (b BalanceSheet) TotalLiabilities() decimal.Decimal {
	return b.ShortTermLiabilities().Add(b.LongTermLiabilities())
}

// NetWorth is total assets minus total liabilities (equity).
func (b BalanceSheet) NetWorth() decimal.Decimal {
	return b.TotalAssets().Sub(b.TotalLiabilities())
}

// ---------------------------------------------------------------------------
// IncomeStatement
// ---------------------------------------------------------------------------

// ActivityLine is one line of business with its average monthly sales and
// cost of goods sold over the analysis period.
type ActivityLine struct {
	Activity    string          `json:"activity"`
	Sales       decimal.Decimal `json:"sales"`
	CostOfGoods decimal.Decimal `json:"costOfGoods"`
}

// OperatingCharges are the average monthly operating charges.
type OperatingCharges struct {
	Rent        decimal.Decimal `json:"rent"`
	Utilities   decimal.Decimal `json:"utilities"`
	Salaries    decimal.Decimal `json:"salaries"`
	Transport   decimal.Decimal `json:"transport"`
	Telephone   decimal.Decimal `json:"telephone"`
	Maintenance decimal.Decimal `json:"maintenance"`
	Other       decimal.Decimal `json:"other"`
}

// Total sums every charge category.
func (c OperatingCharges) Total() decimal.Decimal {
	return sum(c.Rent, c.Utilities, c.Salaries, c.Transport, c.Telephone, c.Maintenance, c.Other)
}

// IncomeStatement is the monthly profit and loss of the business, averaged
// over the analysis period.
type IncomeStatement struct {
	Activities       []ActivityLine   `json:"activities"`
	Charges          OperatingCharges `json:"charges"`
	Depreciation     decimal.Decimal  `json:"depreciation"`
	FinancialCharges decimal.Decimal  `json:"financialCharges"`
	OtherCharges     decimal.Decimal  `json:"otherCharges"`
	AnalysisMonths   int              `json:"analysisMonths"`
}

func (s IncomeStatement) MonthlySales() decimal.Decimal {
	total := decimal.Zero
	for _, a := range s.Activities {
		total = total.Add(a.Sales)
	}
	return total
}

func (s IncomeStatement) CostOfGoodsSold() decimal.Decimal {
	total := decimal.Zero
	for _, a := range s.Activities {
		total = total.Add(a.CostOfGoods)
	}
	return total
}

func (s IncomeStatement) GrossMargin() decimal.Decimal {
	return s.MonthlySales().Sub(s.CostOfGoodsSold())
}

func (s IncomeStatement) OperatingCharges() decimal.Decimal { return s.Charges.Total() }

func (s IncomeStatement) OperatingResult() decimal.Decimal {
	return s.GrossMargin().Sub(s.OperatingCharges())
}

// NetProfit is the operating result after depreciation, financial and other
// charges.
func (s IncomeStatement) NetProfit() decimal.Decimal {
	return s.OperatingResult().Sub(sum(s.Depreciation, s.FinancialCharges, s.OtherCharges))
}

// CashFlow adds the non-cash depreciation back to net profit.
func (s IncomeStatement) CashFlow() decimal.Decimal {
	return s.NetProfit().Add(s.Depreciation)
}

// ---------------------------------------------------------------------------
// FamilyExpenses
// ---------------------------------------------------------------------------

// FamilyExpenses are the household's monthly expenses by category.
type FamilyExpenses struct {
	Food          decimal.Decimal `json:"food"`
	Housing       decimal.Decimal `json:"housing"`
	Utilities     decimal.Decimal `json:"utilities"`
	Education     decimal.Decimal `json:"education"`
	Health        decimal.Decimal `json:"health"`
	Transport     decimal.Decimal `json:"transport"`
	Clothing      decimal.Decimal `json:"clothing"`
	Communication decimal.Decimal `json:"communication"`
	Ceremonies    decimal.Decimal `json:"ceremonies"`
	Other         decimal.Decimal `json:"other"`
}

func (f FamilyExpenses) Total() decimal.Decimal {
	return sum(f.Food, f.Housing, f.Utilities, f.Education, f.Health,
		f.Transport, f.Clothing, f.Communication, f.Ceremonies, f.Other)
}

func sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
