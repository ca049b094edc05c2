package service

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/bibbank/appraisal/internal/domain/model"
	"github.com/bibbank/appraisal/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// ScoringPolicy – weights, brackets and cut points
// ---------------------------------------------------------------------------

// Bracket awards Score to any value at or above Min.
type Bracket struct {
	Min   decimal.Decimal
	Score decimal.Decimal
}

// ScoringPolicy configures the credit scorer. Brackets are checked in the
// order given, so list them from the highest Min down.
type ScoringPolicy struct {
	WeightDSCR         decimal.Decimal
	WeightCollateral   decimal.Decimal
	WeightStability    decimal.Decimal
	DSCRFloor          decimal.Decimal
	CollateralFloor    decimal.Decimal
	ApproveAt          decimal.Decimal
	ReviewAt           decimal.Decimal
	DSCRBrackets       []Bracket
	CollateralBrackets []Bracket
	StabilityYears     float64
}

// DefaultScoringPolicy returns the calibrated policy.
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		WeightDSCR:       decimal.RequireFromString("0.45"),
		WeightCollateral: decimal.RequireFromString("0.45"),
		WeightStability:  decimal.RequireFromString("0.10"),
		DSCRBrackets: []Bracket{
			{Min: decimal.RequireFromString("1.6"), Score: decimal.NewFromInt(100)},
			{Min: decimal.RequireFromString("1.2"), Score: decimal.NewFromInt(75)},
			{Min: decimal.RequireFromString("1.0"), Score: decimal.NewFromInt(55)},
			{Min: decimal.RequireFromString("0.8"), Score: decimal.NewFromInt(35)},
		},
		DSCRFloor: decimal.NewFromInt(10),
		CollateralBrackets: []Bracket{
			{Min: decimal.RequireFromString("1.5"), Score: decimal.NewFromInt(100)},
			{Min: decimal.RequireFromString("1.0"), Score: decimal.NewFromInt(80)},
			{Min: decimal.RequireFromString("0.8"), Score: decimal.NewFromInt(55)},
		},
		CollateralFloor: decimal.NewFromInt(20),
		StabilityYears:  10,
		ApproveAt:       decimal.NewFromInt(75),
		ReviewAt:        decimal.NewFromInt(50),
	}
}

// Validate rejects policies that cannot produce a meaningful score.
func (p ScoringPolicy) Validate() error {
	weights := []decimal.Decimal{p.WeightDSCR, p.WeightCollateral, p.WeightStability}
	sum := decimal.Zero
	for _, w := range weights {
		if w.IsNegative() {
			return errors.New("scoring weights must not be negative")
		}
		sum = sum.Add(w)
	}
	if !sum.IsPositive() {
		return errors.New("at least one scoring weight must be positive")
	}
	if p.ReviewAt.GreaterThan(p.ApproveAt) {
		return fmt.Errorf("review cut point %s exceeds approve cut point %s", p.ReviewAt, p.ApproveAt)
	}
	if p.StabilityYears <= 0 {
		return errors.New("stability horizon must be positive")
	}
	if err := validateBrackets("dscr", p.DSCRBrackets); err != nil {
		return err
	}
	return validateBrackets("collateral", p.CollateralBrackets)
}

// validateBrackets requires strictly descending Min values, which
// bracketScore relies on.
func validateBrackets(name string, brackets []Bracket) error {
	for i := 1; i < len(brackets); i++ {
		if !brackets[i].Min.LessThan(brackets[i-1].Min) {
			return fmt.Errorf("%s brackets must be listed by descending min: %s follows %s",
				name, brackets[i].Min, brackets[i-1].Min)
		}
	}
	return nil
}

// Recommend maps a total score to a recommendation.
func (p ScoringPolicy) Recommend(total decimal.Decimal) model.Recommendation {
	switch {
	case total.GreaterThanOrEqual(p.ApproveAt):
		return model.RecommendationApprove
	case total.GreaterThanOrEqual(p.ReviewAt):
		return model.RecommendationReview
	default:
		return model.RecommendationReject
	}
}

func bracketScore(value decimal.Decimal, brackets []Bracket, floor decimal.Decimal) decimal.Decimal {
	for _, b := range brackets {
		if value.GreaterThanOrEqual(b.Min) {
			return b.Score
		}
	}
	return floor
}

// ---------------------------------------------------------------------------
// CreditScorer
// ---------------------------------------------------------------------------

var hundred = decimal.NewFromInt(100)

// CreditScorer combines debt-service coverage, collateral coverage and
// stability into a 0..100 score.
type CreditScorer struct {
	policy ScoringPolicy
}

// NewCreditScorer returns a scorer applying policy.
func NewCreditScorer(policy ScoringPolicy) *CreditScorer {
	return &CreditScorer{policy: policy}
}

// Policy returns the policy in use.
func (s *CreditScorer) Policy() ScoringPolicy { return s.policy }

// Score computes the credit score of req given snap. Missing snapshot
// fields score zero on their component; only an invalid request fails.
func (s *CreditScorer) Score(req model.LoanRequest, snap model.FinancialSnapshot) (model.CreditScore, error) {
	if !req.Amount.IsPositive() {
		return model.CreditScore{}, valueobject.NewValidationError("amount", "must be positive")
	}
	if req.DurationMonths <= 0 {
		return model.CreditScore{}, valueobject.NewValidationError("duration", "must be positive")
	}

	periodicity := req.Periodicity
	if periodicity.IsZero() {
		periodicity = valueobject.PeriodicityMonthly
	}
	periodMonths := periodicity.PeriodMonths()
	periods := max(1, req.DurationMonths/periodMonths)

	// The scorer spreads principal evenly; interest is left to the
	// amortization schedule.
	installment := req.Amount.Div(decimal.NewFromInt(int64(periods)))

	dscr := s.dscr(snap, installment, periodMonths)
	collateral := s.collateral(snap, req.Amount)
	stability := s.stability(snap)

	p := s.policy
	total := dscr.Score.Mul(p.WeightDSCR).
		Add(collateral.Score.Mul(p.WeightCollateral)).
		Add(stability.Score.Mul(p.WeightStability))
	total = clampDecimal(total, decimal.Zero, hundred)

	// The recommendation is taken before rounding so a total just under a
	// cut point stays under it.
	return model.CreditScore{
		Total:          total.Round(4),
		Recommendation: p.Recommend(total),
		Details: model.ScoreDetails{
			Inputs: model.ScoreInputs{
				Amount:               req.Amount,
				DurationMonths:       req.DurationMonths,
				Periodicity:          periodicity.String(),
				PeriodMonths:         periodMonths,
				Periods:              periods,
				InstallmentPerPeriod: installment.Round(2),
			},
			DSCR:       dscr,
			Collateral: collateral,
			Stability:  stability,
			Weights: model.ScoreWeights{
				DSCR:       p.WeightDSCR,
				Collateral: p.WeightCollateral,
				Stability:  p.WeightStability,
			},
		},
	}, nil
}

func (s *CreditScorer) dscr(snap model.FinancialSnapshot, installment decimal.Decimal, periodMonths int) model.DSCRDetail {
	if snap.NetBusinessIncome == nil {
		return model.DSCRDetail{Score: decimal.Zero}
	}
	available := *snap.NetBusinessIncome
	if snap.OtherIncome != nil {
		available = available.Add(*snap.OtherIncome)
	}
	if snap.FamilyExpenses != nil {
		available = available.Sub(*snap.FamilyExpenses)
	}
	available = available.Mul(decimal.NewFromInt(int64(periodMonths)))

	value := available.Div(installment)
	return model.DSCRDetail{
		Value:      value.Round(4),
		Available:  available,
		Score:      bracketScore(value, s.policy.DSCRBrackets, s.policy.DSCRFloor),
		Applicable: true,
	}
}

func (s *CreditScorer) collateral(snap model.FinancialSnapshot, amount decimal.Decimal) model.CollateralDetail {
	if snap.CollateralValue == nil || !amount.IsPositive() {
		return model.CollateralDetail{Score: decimal.Zero}
	}
	ratio := snap.CollateralValue.Div(amount)
	return model.CollateralDetail{
		Value:      *snap.CollateralValue,
		Ratio:      ratio.Round(4),
		Score:      bracketScore(ratio, s.policy.CollateralBrackets, s.policy.CollateralFloor),
		Applicable: true,
	}
}

func (s *CreditScorer) stability(snap model.FinancialSnapshot) model.StabilityDetail {
	var yib, yaa float64
	if snap.YearsInBusiness != nil {
		yib = *snap.YearsInBusiness
	}
	if snap.YearsAtAddress != nil {
		yaa = *snap.YearsAtAddress
	}
	horizon := s.policy.StabilityYears
	avg := (clamp01(yib/horizon) + clamp01(yaa/horizon)) / 2
	return model.StabilityDetail{
		YearsInBusiness: yib,
		YearsAtAddress:  yaa,
		Score:           decimal.NewFromFloat(avg).Mul(hundred).Round(2),
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(1, math.Max(0, v))
}

func clampDecimal(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
