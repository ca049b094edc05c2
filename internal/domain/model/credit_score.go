package model

import "github.com/shopspring/decimal"

// Recommendation is the scorer's three-way advice.
type Recommendation string

const (
	RecommendationApprove Recommendation = "approve"
	RecommendationReview  Recommendation = "review"
	RecommendationReject  Recommendation = "reject"
)

// CreditScore is a 0..100 score with its full decomposition.
type CreditScore struct {
	Total          decimal.Decimal `json:"total"`
	Recommendation Recommendation  `json:"recommendation"`
	Details        ScoreDetails    `json:"details"`
}

// ScoreDetails keeps every intermediate value so a loan officer can audit
// the score.
type ScoreDetails struct {
	Inputs     ScoreInputs      `json:"inputs"`
	DSCR       DSCRDetail       `json:"dscr"`
	Collateral CollateralDetail `json:"collateral"`
	Stability  StabilityDetail  `json:"stability"`
	Weights    ScoreWeights     `json:"weights"`
}

type ScoreInputs struct {
	Amount               decimal.Decimal `json:"amount"`
	InstallmentPerPeriod decimal.Decimal `json:"installmentPerPeriod"`
	Periodicity          string          `json:"periodicity"`
	DurationMonths       int             `json:"durationMonths"`
	PeriodMonths         int             `json:"periodMonths"`
	Periods              int             `json:"periods"`
}

type DSCRDetail struct {
	Value      decimal.Decimal `json:"value"`
	Available  decimal.Decimal `json:"available"`
	Score      decimal.Decimal `json:"score"`
	Applicable bool            `json:"applicable"`
}

type CollateralDetail struct {
	Value      decimal.Decimal `json:"value"`
	Ratio      decimal.Decimal `json:"ratio"`
	Score      decimal.Decimal `json:"score"`
	Applicable bool            `json:"applicable"`
}

type StabilityDetail struct {
	YearsInBusiness float64         `json:"yearsInBusiness"`
	YearsAtAddress  float64         `json:"yearsAtAddress"`
	Score           decimal.Decimal `json:"score"`
}

// ScoreWeights are the weights of the three sub-scores.
type ScoreWeights struct {
	DSCR       decimal.Decimal `json:"dscr"`
	Collateral decimal.Decimal `json:"collateral"`
	Stability  decimal.Decimal `json:"stability"`
}
