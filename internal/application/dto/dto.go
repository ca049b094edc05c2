package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/appraisal/internal/domain/model"
)

// ---------------------------------------------------------------------------
// Shared request parts
// ---------------------------------------------------------------------------

// LoanTerms is the loan request as sent by clients. Periodicity is free
// text; unknown labels fall back to monthly.
type LoanTerms struct {
	Amount         decimal.Decimal `json:"amount"`
	AnnualRate     decimal.Decimal `json:"annualRate"`
	Periodicity    string          `json:"periodicity" validate:"required,max=40"`
	Currency       string          `json:"currency,omitempty" validate:"omitempty,iso4217"`
	Purpose        string          `json:"purpose,omitempty" validate:"max=500"`
	DurationMonths int             `json:"durationMonths" validate:"min=1,max=120"`
}

// GuaranteeDTO is a pledged asset in the application currency.
type GuaranteeDTO struct {
	Type          string          `json:"type" validate:"required,guarantee_type"`
	Description   string          `json:"description" validate:"max=500"`
	DeclaredValue decimal.Decimal `json:"declaredValue"`
	RetainedValue decimal.Decimal `json:"retainedValue"`
}

// ApplicationRef identifies one application of a tenant.
type ApplicationRef struct {
	TenantID      string `json:"tenantId" validate:"required"`
	ApplicationID string `json:"applicationId" validate:"required"`
}

// ---------------------------------------------------------------------------
// Evaluation requests
// ---------------------------------------------------------------------------

// ComputeScheduleRequest asks for the repayment schedule of a loan.
type ComputeScheduleRequest struct {
	LoanTerms
}

// ComputeRatiosRequest asks for the ratio analysis of declared financials.
// Installment is the periodic installment of the requested loan.
type ComputeRatiosRequest struct {
	BalanceSheet    *model.BalanceSheet    `json:"balanceSheet,omitempty"`
	IncomeStatement *model.IncomeStatement `json:"incomeStatement,omitempty"`
	FamilyExpenses  *model.FamilyExpenses  `json:"familyExpenses,omitempty"`
	RequestedAmount decimal.Decimal        `json:"requestedAmount"`
	Installment     decimal.Decimal        `json:"installment"`
	Currency        string                 `json:"currency,omitempty" validate:"omitempty,iso4217"`
}

// ComputeScoreRequest asks for the credit score of a loan request.
type ComputeScoreRequest struct {
	Loan     LoanTerms               `json:"loanRequest"`
	Snapshot model.FinancialSnapshot `json:"financialSnapshot"`
}

// ---------------------------------------------------------------------------
// Application requests
// ---------------------------------------------------------------------------

// CreateApplicationRequest opens an application. Submit also submits it.
type CreateApplicationRequest struct {
	TenantID        string                  `json:"tenantId" validate:"required"`
	ClientID        string                  `json:"clientId" validate:"required,max=64"`
	Loan            LoanTerms               `json:"loan"`
	Snapshot        model.FinancialSnapshot `json:"financialSnapshot"`
	BalanceSheet    *model.BalanceSheet     `json:"balanceSheet,omitempty"`
	IncomeStatement *model.IncomeStatement  `json:"incomeStatement,omitempty"`
	FamilyExpenses  *model.FamilyExpenses   `json:"familyExpenses,omitempty"`
	Guarantees      []GuaranteeDTO          `json:"guarantees,omitempty" validate:"dive"`
	Submit          bool                    `json:"submit"`
}

// UpdateFinancialsRequest patches the declared financials. Absent parts are
// left as they are; a non-nil Guarantees list replaces the guarantees.
type UpdateFinancialsRequest struct {
	ApplicationRef
	Snapshot        model.FinancialSnapshot `json:"financialSnapshot"`
	BalanceSheet    *model.BalanceSheet     `json:"balanceSheet,omitempty"`
	IncomeStatement *model.IncomeStatement  `json:"incomeStatement,omitempty"`
	FamilyExpenses  *model.FamilyExpenses   `json:"familyExpenses,omitempty"`
	Guarantees      []GuaranteeDTO          `json:"guarantees,omitempty" validate:"dive"`
}

// PlanVisitRequest schedules the field visit.
type PlanVisitRequest struct {
	ApplicationRef
	VisitDate time.Time `json:"visitDate" validate:"required"`
}

// CancelApplicationRequest withdraws an application.
type CancelApplicationRequest struct {
	ApplicationRef
	Reason string `json:"reason" validate:"required,max=500"`
}

// ListApplicationsRequest pages through a tenant's applications.
type ListApplicationsRequest struct {
	TenantID string `json:"tenantId" validate:"required"`
	Status   string `json:"status,omitempty" validate:"omitempty,application_status"`
	ClientID string `json:"clientId,omitempty"`
	Limit    int    `json:"limit,omitempty" validate:"omitempty,min=1,max=200"`
	Offset   int    `json:"offset,omitempty" validate:"min=0"`
}

// StatisticsRequest asks for the portfolio statistics of a tenant.
type StatisticsRequest struct {
	TenantID string `json:"tenantId" validate:"required"`
}

// ---------------------------------------------------------------------------
// Decisions
// ---------------------------------------------------------------------------

// RecordDecisionRequest records what one reviewer decided at one stage.
type RecordDecisionRequest struct {
	ApplicationRef
	Stage             string           `json:"stage" validate:"required,stage"`
	Decision          string           `json:"decision" validate:"omitempty,decision"`
	Author            string           `json:"author" validate:"max=120"`
	Rationale         string           `json:"rationale,omitempty" validate:"max=2000"`
	RecommendedAmount decimal.Decimal  `json:"recommendedAmount"`
	Complete          bool             `json:"complete"`
	Agrees            bool             `json:"agrees"`
	Agent             *AgentAssessment `json:"agent,omitempty"`
	Visit             *VisitReport     `json:"visit,omitempty"`
	Committee         *CommitteeTerms  `json:"committee,omitempty"`
}

// AgentAssessment is the credit agent's analysis.
type AgentAssessment struct {
	ProposedRate           decimal.Decimal `json:"proposedRate"`
	ProposedPeriodicity    string          `json:"proposedPeriodicity,omitempty" validate:"max=40"`
	Strengths              string          `json:"strengths,omitempty"`
	Weaknesses             string          `json:"weaknesses,omitempty"`
	MitigatingFactors      string          `json:"mitigatingFactors,omitempty"`
	ProposedDurationMonths int             `json:"proposedDurationMonths,omitempty" validate:"omitempty,min=1,max=120"`
}

// VisitReport holds the values confirmed on site.
type VisitReport struct {
	VisitedAt          time.Time       `json:"visitedAt"`
	ValidatedAssets    decimal.Decimal `json:"validatedAssets"`
	ValidatedStock     decimal.Decimal `json:"validatedStock"`
	ValidatedLiquidity decimal.Decimal `json:"validatedLiquidity"`
	Comment            string          `json:"comment,omitempty"`
}

// CommitteeCriteria is the committee checklist.
type CommitteeCriteria struct {
	PolicyCompliant     bool `json:"policyCompliant"`
	ReasonableAmount    bool `json:"reasonableAmount"`
	WillingnessToRepay  bool `json:"willingnessToRepay"`
	CapacityToRepay     bool `json:"capacityToRepay"`
	TrustworthyFile     bool `json:"trustworthyFile"`
	AdequateValidations bool `json:"adequateValidations"`
}

// CommitteeTerms are the committee's authorized terms.
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

// ---------------------------------------------------------------------------
// Responses
// ---------------------------------------------------------------------------

// ScheduleResponse is a repayment schedule with its totals.
type ScheduleResponse struct {
	Periodicity   string                `json:"periodicity"`
	Currency      string                `json:"currency"`
	Installment   decimal.Decimal       `json:"installment"`
	TotalInterest decimal.Decimal       `json:"totalInterest"`
	TotalPaid     decimal.Decimal       `json:"totalPaid"`
	Periods       int                   `json:"periods"`
	Schedule      []model.ScheduleEntry `json:"schedule"`
}

// DecisionResponse is a recorded decision.
type DecisionResponse struct {
	RecordedAt        time.Time        `json:"recordedAt"`
	Stage             string           `json:"stage"`
	Decision          string           `json:"decision"`
	Author            string           `json:"author"`
	Rationale         string           `json:"rationale,omitempty"`
	RecommendedAmount decimal.Decimal  `json:"recommendedAmount"`
	Complete          bool             `json:"complete"`
	Agrees            bool             `json:"agrees"`
	Agent             *AgentAssessment `json:"agent,omitempty"`
	Visit             *VisitReport     `json:"visit,omitempty"`
	Committee         *CommitteeTerms  `json:"committee,omitempty"`
}

// AuthorizedTerms are the terms granted by the committee.
type AuthorizedTerms struct {
	Amount         decimal.Decimal `json:"amount"`
	Rate           decimal.Decimal `json:"rate"`
	DurationMonths int             `json:"durationMonths"`
}

// ApplicationResponse is the external representation of an application.
type ApplicationResponse struct {
	ID                      string                  `json:"id"`
	TenantID                string                  `json:"tenantId"`
	Number                  string                  `json:"number"`
	ClientID                string                  `json:"clientId"`
	Status                  string                  `json:"status"`
	Loan                    LoanTerms               `json:"loan"`
	Snapshot                model.FinancialSnapshot `json:"financialSnapshot"`
	BalanceSheet            *model.BalanceSheet     `json:"balanceSheet,omitempty"`
	IncomeStatement         *model.IncomeStatement  `json:"incomeStatement,omitempty"`
	FamilyExpenses          *model.FamilyExpenses   `json:"familyExpenses,omitempty"`
	Guarantees              []GuaranteeDTO          `json:"guarantees"`
	TotalRetainedGuarantees decimal.Decimal         `json:"totalRetainedGuarantees"`
	AgentRecommendedAmount  *decimal.Decimal        `json:"agentRecommendedAmount,omitempty"`
	Authorized              *AuthorizedTerms        `json:"authorized,omitempty"`
	VisitDate               *time.Time              `json:"visitDate,omitempty"`
	CancelReason            string                  `json:"cancelReason,omitempty"`
	Decisions               []DecisionResponse      `json:"decisions"`
	Version                 int                     `json:"version"`
	CreatedAt               time.Time               `json:"createdAt"`
	UpdatedAt               time.Time               `json:"updatedAt"`
}

// RecordDecisionResponse reports the status an application moved to.
type RecordDecisionResponse struct {
	PreviousStatus string              `json:"previousStatus"`
	NewStatus      string              `json:"newStatus"`
	Application    ApplicationResponse `json:"application"`
}

// ListApplicationsResponse is one page of applications.
type ListApplicationsResponse struct {
	Applications []ApplicationResponse `json:"applications"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
}

// StatisticsResponse summarises a tenant's portfolio.
type StatisticsResponse struct {
	ByStatus        map[string]int  `json:"byStatus"`
	InProgress      int             `json:"inProgress"`
	Total           int             `json:"total"`
	RequestedAmount decimal.Decimal `json:"requestedAmount"`
	ApprovedAmount  decimal.Decimal `json:"approvedAmount"`
}
