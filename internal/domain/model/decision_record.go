package model

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/appraisal/internal/domain/valueobject"
)

// DecisionRecord is what one reviewer records at one stage. An application
// holds at most one record per stage.
type DecisionRecord struct {
	RecordedAt        time.Time
	RecommendedAmount decimal.Decimal
	Stage             valueobject.DecisionStage
	Decision          valueobject.Decision
	Author            string
	Rationale         string
	// Complete is set when the reviewer found the file complete; Agrees when
	// they agree with the agent's recommendation.
	Complete bool
	Agrees   bool

	Agent     *AgentAssessment
	Visit     *VisitReport
	Committee *CommitteeTerms
}

// AgentAssessment is the credit agent's analysis of the file.
type AgentAssessment struct {
	ProposedRate           decimal.Decimal
	ProposedPeriodicity    valueobject.Periodicity
	Strengths              string
	Weaknesses             string
	MitigatingFactors      string
	ProposedDurationMonths int
}

// VisitReport holds the values the agent confirmed on site.
type VisitReport struct {
	VisitedAt          time.Time       `json:"visitedAt"`
	ValidatedAssets    decimal.Decimal `json:"validatedAssets"`
	ValidatedStock     decimal.Decimal `json:"validatedStock"`
	ValidatedLiquidity decimal.Decimal `json:"validatedLiquidity"`
	Comment            string          `json:"comment,omitempty"`
}

// CommitteeCriteria is the committee's checklist.
type CommitteeCriteria struct {
	PolicyCompliant     bool `json:"policyCompliant"`
	ReasonableAmount    bool `json:"reasonableAmount"`
	WillingnessToRepay  bool `json:"willingnessToRepay"`
	CapacityToRepay     bool `json:"capacityToRepay"`
	TrustworthyFile     bool `json:"trustworthyFile"`
	AdequateValidations bool `json:"adequateValidations"`
}

// CommitteeTerms become binding when the committee grants the loan.
type CommitteeTerms struct {
	AuthorizedAmount    decimal.Decimal   `json:"authorizedAmount"`
	Rate                decimal.Decimal   `json:"rate"`
	FinancialDepositPct decimal.Decimal   `json:"financialDepositPct"`
	GuaranteeTerms      string            `json:"guaranteeTerms,omitempty"`
	SpecialConditions   string            `json:"specialConditions,omitempty"`
	Members             []string          `json:"members,omitempty"`
	DurationMonths      int               `json:"durationMonths"`
	InstallmentCount    int               `json:"installmentCount"`
	Criteria            CommitteeCriteria `json:"criteria"`
}

// Validate checks amounts, rates and durations, and that the committee
// fixes its terms when it grants the loan.
func (r DecisionRecord) Validate() error {
	if r.Stage.IsZero() {
		return valueobject.NewValidationError("stage", "is required")
	}
	if r.Decision.IsZero() {
		return valueobject.NewValidationError("decision", "is required")
	}
	if r.RecommendedAmount.IsNegative() {
		return valueobject.NewValidationError("recommended amount", "must not be negative")
	}
	if a := r.Agent; a != nil {
		if err := ValidateRate("proposed rate", a.ProposedRate); err != nil {
			return err
		}
		if a.ProposedDurationMonths != 0 {
			if err := ValidateDuration("proposed duration", a.ProposedDurationMonths); err != nil {
				return err
			}
		}
	}
	if v := r.Visit; v != nil {
		if v.ValidatedAssets.IsNegative() || v.ValidatedStock.IsNegative() || v.ValidatedLiquidity.IsNegative() {
			return valueobject.NewValidationError("visit", "validated values must not be negative")
		}
	}
	if r.Stage.Equal(valueobject.DecisionStageCommittee) && r.Decision.Equal(valueobject.DecisionAccord) {
		if r.Committee == nil {
			return valueobject.NewValidationError("committee terms", "are required for an accord")
		}
		if !r.Committee.AuthorizedAmount.IsPositive() {
			return valueobject.NewValidationError("authorized amount", "must be positive")
		}
		if err := ValidateDuration("authorized duration", r.Committee.DurationMonths); err != nil {
			return err
		}
	}
	if c := r.Committee; c != nil {
		if err := ValidateRate("authorized rate", c.Rate); err != nil {
			return err
		}
		if c.InstallmentCount < 0 {
			return valueobject.NewValidationError("installment count", "must not be negative")
		}
	}
	return nil
}

// SameAs reports whether r and other carry the same decision content,
// ignoring when they were recorded.
func (r DecisionRecord) SameAs(other DecisionRecord) bool {
	if !r.Stage.Equal(other.Stage) || !r.Decision.Equal(other.Decision) ||
		r.Author != other.Author || r.Rationale != other.Rationale ||
		r.Complete != other.Complete || r.Agrees != other.Agrees ||
		!r.RecommendedAmount.Equal(other.RecommendedAmount) {
		return false
	}
	return sameAgent(r.Agent, other.Agent) &&
		sameVisit(r.Visit, other.Visit) &&
		sameTerms(r.Committee, other.Committee)
}

func sameAgent(a, b *AgentAssessment) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ProposedRate.Equal(b.ProposedRate) &&
		a.ProposedPeriodicity.Equal(b.ProposedPeriodicity) &&
		a.ProposedDurationMonths == b.ProposedDurationMonths &&
		a.Strengths == b.Strengths &&
		a.Weaknesses == b.Weaknesses &&
		a.MitigatingFactors == b.MitigatingFactors
}

func sameVisit(a, b *VisitReport) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.VisitedAt.Equal(b.VisitedAt) &&
		a.ValidatedAssets.Equal(b.ValidatedAssets) &&
		a.ValidatedStock.Equal(b.ValidatedStock) &&
		a.ValidatedLiquidity.Equal(b.ValidatedLiquidity) &&
		a.Comment == b.Comment
}

func sameTerms(a, b *CommitteeTerms) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.AuthorizedAmount.Equal(b.AuthorizedAmount) &&
		a.Rate.Equal(b.Rate) &&
		a.FinancialDepositPct.Equal(b.FinancialDepositPct) &&
		a.DurationMonths == b.DurationMonths &&
		a.InstallmentCount == b.InstallmentCount &&
		a.GuaranteeTerms == b.GuaranteeTerms &&
		a.SpecialConditions == b.SpecialConditions &&
		a.Criteria == b.Criteria &&
		slices.Equal(a.Members, b.Members)
}
