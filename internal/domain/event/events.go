package event

import (
	"github.com/shopspring/decimal"

	"github.com/bibbank/appraisal/pkg/events"
)

// DomainEvent is an alias for the shared pkg/events.DomainEvent interface.
type DomainEvent = events.DomainEvent

const aggregateType = "LoanApplication"

// Event types published on the appraisal topic.
const (
	TypeApplicationCreated   = "appraisal.application.created"
	TypeApplicationSubmitted = "appraisal.application.submitted"
	TypeDecisionRecorded     = "appraisal.application.decision_recorded"
	TypeStatusChanged        = "appraisal.application.status_changed"
	TypeApplicationApproved  = "appraisal.application.approved"
	TypeApplicationRejected  = "appraisal.application.rejected"
	TypeApplicationPostponed = "appraisal.application.postponed"
	TypeApplicationCancelled = "appraisal.application.cancelled"
)

// ---------------------------------------------------------------------------
// Lifecycle events
// ---------------------------------------------------------------------------

// ApplicationCreated is raised when a draft application is opened.
type ApplicationCreated struct {
	events.BaseEvent
	Number          string          `json:"number"`
	ClientID        string          `json:"client_id"`
	RequestedAmount decimal.Decimal `json:"requested_amount"`
	Currency        string          `json:"currency"`
	Periodicity     string          `json:"periodicity"`
	DurationMonths  int             `json:"duration_months"`
}

func NewApplicationCreated(
	applicationID, tenantID, number, clientID string,
	amount decimal.Decimal, currency, periodicity string, durationMonths int,
) ApplicationCreated {
	return ApplicationCreated{
		BaseEvent:       events.NewBaseEvent(TypeApplicationCreated, applicationID, aggregateType, tenantID),
		Number:          number,
		ClientID:        clientID,
		RequestedAmount: amount,
		Currency:        currency,
		Periodicity:     periodicity,
		DurationMonths:  durationMonths,
	}
}

// ApplicationSubmitted is raised when the agent hands a draft over for appraisal.
type ApplicationSubmitted struct {
	events.BaseEvent
	Number   string `json:"number"`
	ClientID string `json:"client_id"`
}

func NewApplicationSubmitted(applicationID, tenantID, number, clientID string) ApplicationSubmitted {
	return ApplicationSubmitted{
		BaseEvent: events.NewBaseEvent(TypeApplicationSubmitted, applicationID, aggregateType, tenantID),
		Number:    number,
		ClientID:  clientID,
	}
}

// StatusChanged is raised on every status change.
type StatusChanged struct {
	events.BaseEvent
	From string `json:"from"`
	To   string `json:"to"`
}

func NewStatusChanged(applicationID, tenantID, from, to string) StatusChanged {
	return StatusChanged{
		BaseEvent: events.NewBaseEvent(TypeStatusChanged, applicationID, aggregateType, tenantID),
		From:      from,
		To:        to,
	}
}

// ApplicationCancelled is raised when an application is withdrawn.
type ApplicationCancelled struct {
	events.BaseEvent
	Reason string `json:"reason"`
}

func NewApplicationCancelled(applicationID, tenantID, reason string) ApplicationCancelled {
	return ApplicationCancelled{
		BaseEvent: events.NewBaseEvent(TypeApplicationCancelled, applicationID, aggregateType, tenantID),
		Reason:    reason,
	}
}

// ---------------------------------------------------------------------------
// Decision events
// ---------------------------------------------------------------------------

// DecisionRecorded is raised whenever a stage record is created or replaced.
type DecisionRecorded struct {
	events.BaseEvent
	Stage             string          `json:"stage"`
	Decision          string          `json:"decision"`
	Author            string          `json:"author"`
	RecommendedAmount decimal.Decimal `json:"recommended_amount"`
	StatusBefore      string          `json:"status_before"`
	StatusAfter       string          `json:"status_after"`
	Replaced          bool            `json:"replaced"`
}

func NewDecisionRecorded(
	applicationID, tenantID, stage, decision, author string,
	recommended decimal.Decimal, before, after string, replaced bool,
) DecisionRecorded {
	return DecisionRecorded{
		BaseEvent:         events.NewBaseEvent(TypeDecisionRecorded, applicationID, aggregateType, tenantID),
		Stage:             stage,
		Decision:          decision,
		Author:            author,
		RecommendedAmount: recommended,
		StatusBefore:      before,
		StatusAfter:       after,
		Replaced:          replaced,
	}
}

// ApplicationApproved is raised when the committee grants the loan.
type ApplicationApproved struct {
	events.BaseEvent
	ClientID         string          `json:"client_id"`
	AuthorizedAmount decimal.Decimal `json:"authorized_amount"`
	Rate             decimal.Decimal `json:"rate"`
	Currency         string          `json:"currency"`
	DurationMonths   int             `json:"duration_months"`
}

func NewApplicationApproved(
	applicationID, tenantID, clientID string,
	amount, rate decimal.Decimal, currency string, durationMonths int,
) ApplicationApproved {
	return ApplicationApproved{
		BaseEvent:        events.NewBaseEvent(TypeApplicationApproved, applicationID, aggregateType, tenantID),
		ClientID:         clientID,
		AuthorizedAmount: amount,
		Rate:             rate,
		Currency:         currency,
		DurationMonths:   durationMonths,
	}
}

// ApplicationRejected is raised when the committee refuses the loan.
type ApplicationRejected struct {
	events.BaseEvent
	ClientID string `json:"client_id"`
	Reason   string `json:"reason"`
}

func NewApplicationRejected(applicationID, tenantID, clientID, reason string) ApplicationRejected {
	return ApplicationRejected{
		BaseEvent: events.NewBaseEvent(TypeApplicationRejected, applicationID, aggregateType, tenantID),
		ClientID:  clientID,
		Reason:    reason,
	}
}

// ApplicationPostponed is raised when the committee defers its decision.
type ApplicationPostponed struct {
	events.BaseEvent
	Reason string `json:"reason"`
}

func NewApplicationPostponed(applicationID, tenantID, reason string) ApplicationPostponed {
	return ApplicationPostponed{
		BaseEvent: events.NewBaseEvent(TypeApplicationPostponed, applicationID, aggregateType, tenantID),
		Reason:    reason,
	}
}
