package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bibbank/appraisal/internal/domain/event"
	"github.com/bibbank/appraisal/internal/domain/valueobject"
	"github.com/bibbank/appraisal/pkg/money"
)

// ---------------------------------------------------------------------------
// Application aggregate root
// ---------------------------------------------------------------------------

// AuthorizedTerms are the amount, rate and duration the committee granted.
type AuthorizedTerms struct {
	Amount         decimal.Decimal
	Rate           decimal.Decimal
	DurationMonths int
}

// Application is a loan application under appraisal. It is immutable: every
// transition returns a new copy. Version is the persisted version the copy
// was loaded at and is checked when saving.
type Application struct {
	createdAt              time.Time
	updatedAt              time.Time
	visitDate              *time.Time
	balanceSheet           *BalanceSheet
	incomeStatement        *IncomeStatement
	familyExpenses         *FamilyExpenses
	agentRecommendedAmount *decimal.Decimal
	authorized             *AuthorizedTerms
	decisions              map[valueobject.DecisionStage]DecisionRecord
	status                 valueobject.ApplicationStatus
	id                     string
	tenantID               string
	number                 string
	clientID               string
	cancelReason           string
	request                LoanRequest
	snapshot               FinancialSnapshot
	guarantees             []Guarantee
	domainEvents           []event.DomainEvent
	version                int
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// NewApplication opens a Draft application for clientID.
func NewApplication(
	tenantID, clientID string,
	request LoanRequest,
	snapshot FinancialSnapshot,
	now time.Time,
) (Application, error) {
	if tenantID == "" {
		return Application{}, valueobject.NewValidationError("tenant", "is required")
	}
	if clientID == "" {
		return Application{}, valueobject.NewValidationError("client", "is required")
	}
	if err := request.Validate(); err != nil {
		return Application{}, err
	}
	request.Currency = request.CurrencyOrDefault()

	id := uuid.New().String()
	app := Application{
		id:        id,
		tenantID:  tenantID,
		number:    applicationNumber(id, now),
		clientID:  clientID,
		request:   request,
		snapshot:  snapshot,
		status:    valueobject.ApplicationStatusDraft,
		decisions: map[valueobject.DecisionStage]DecisionRecord{},
		version:   1,
		createdAt: now,
		updatedAt: now,
	}
	app.domainEvents = append(app.domainEvents, event.NewApplicationCreated(
		id, tenantID, app.number, clientID,
		request.Amount, request.Currency.Code(), request.Periodicity.String(), request.DurationMonths,
	))
	return app, nil
}

// applicationNumber renders DEM-YYYYMMDD-XXXX from the creation day and the
// first four hex digits of the ID.
func applicationNumber(id string, now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(suffix) > 4 {
		suffix = suffix[:4]
	}
	return fmt.Sprintf("DEM-%s-%s", now.UTC().Format("20060102"), suffix)
}

// ApplicationState is the full persisted state of an application.
type ApplicationState struct {
	CreatedAt              time.Time
	UpdatedAt              time.Time
	VisitDate              *time.Time
	BalanceSheet           *BalanceSheet
	IncomeStatement        *IncomeStatement
	FamilyExpenses         *FamilyExpenses
	AgentRecommendedAmount *decimal.Decimal
	Authorized             *AuthorizedTerms
	Status                 valueobject.ApplicationStatus
	ID                     string
	TenantID               string
	Number                 string
	ClientID               string
	CancelReason           string
	Request                LoanRequest
	Snapshot               FinancialSnapshot
	Decisions              []DecisionRecord
	Guarantees             []Guarantee
	Version                int
}

// ReconstructApplication rebuilds an aggregate from persistence without side-effects.
func ReconstructApplication(s ApplicationState) Application {
	decisions := make(map[valueobject.DecisionStage]DecisionRecord, len(s.Decisions))
	for _, d := range s.Decisions {
		decisions[d.Stage] = d
	}
	return Application{
		id:                     s.ID,
		tenantID:               s.TenantID,
		number:                 s.Number,
		clientID:               s.ClientID,
		request:                s.Request,
		snapshot:               s.Snapshot,
		balanceSheet:           s.BalanceSheet,
		incomeStatement:        s.IncomeStatement,
		familyExpenses:         s.FamilyExpenses,
		guarantees:             slices.Clone(s.Guarantees),
		status:                 s.Status,
		decisions:              decisions,
		agentRecommendedAmount: s.AgentRecommendedAmount,
		authorized:             s.Authorized,
		visitDate:              s.VisitDate,
		cancelReason:           s.CancelReason,
		version:                s.Version,
		createdAt:              s.CreatedAt,
		updatedAt:              s.UpdatedAt,
	}
}

// State exports the aggregate for persistence.
func (a Application) State() ApplicationState {
	return ApplicationState{
		ID:                     a.id,
		TenantID:               a.tenantID,
		Number:                 a.number,
		ClientID:               a.clientID,
		Request:                a.request,
		Snapshot:               a.snapshot,
		BalanceSheet:           a.balanceSheet,
		IncomeStatement:        a.incomeStatement,
		FamilyExpenses:         a.familyExpenses,
		Guarantees:             slices.Clone(a.guarantees),
		Status:                 a.status,
		Decisions:              a.Decisions(),
		AgentRecommendedAmount: a.agentRecommendedAmount,
		Authorized:             a.authorized,
		VisitDate:              a.visitDate,
		CancelReason:           a.cancelReason,
		Version:                a.version,
		CreatedAt:              a.createdAt,
		UpdatedAt:              a.updatedAt,
	}
}

// ---------------------------------------------------------------------------
// Lifecycle transitions (each returns a new copy)
// ---------------------------------------------------------------------------

// Submit transitions DRAFT -> SUBMITTED.
func (a Application) Submit(now time.Time) (Application, error) {
	if !a.status.Equal(valueobject.ApplicationStatusDraft) {
		return a, valueobject.NewInvalidTransitionError(a.status, "submit")
	}
	next := a.withStatus(valueobject.ApplicationStatusSubmitted, now)
	next.domainEvents = append(next.domainEvents,
		event.NewApplicationSubmitted(a.id, a.tenantID, a.number, a.clientID))
	return next, nil
}

// PlanVisit schedules the field visit: SUBMITTED/UNDER_ANALYSIS -> VISIT_PLANNED.
func (a Application) PlanVisit(date, now time.Time) (Application, error) {
	if !a.status.In(valueobject.ApplicationStatusSubmitted, valueobject.ApplicationStatusUnderAnalysis) {
		return a, valueobject.NewInvalidTransitionError(a.status, "plan visit")
	}
	if date.IsZero() {
		return a, valueobject.NewValidationError("visit date", "is required")
	}
	next := a.withStatus(valueobject.ApplicationStatusVisitPlanned, now)
	next.visitDate = &date
	return next, nil
}

// SendToCommittee transitions UNDER_ANALYSIS/VISIT_PLANNED/VISIT_DONE -> IN_COMMITTEE.
func (a Application) SendToCommittee(now time.Time) (Application, error) {
	if !a.status.In(
		valueobject.ApplicationStatusUnderAnalysis,
		valueobject.ApplicationStatusVisitPlanned,
		valueobject.ApplicationStatusVisitDone,
	) {
		return a, valueobject.NewInvalidTransitionError(a.status, "send to committee")
	}
	return a.withStatus(valueobject.ApplicationStatusInCommittee, now), nil
}

// Cancel withdraws the application from any non-terminal status.
func (a Application) Cancel(reason string, now time.Time) (Application, error) {
	if a.status.IsTerminal() {
		return a, valueobject.NewInvalidTransitionError(a.status, "cancel")
	}
	next := a.withStatus(valueobject.ApplicationStatusCancelled, now)
	next.cancelReason = reason
	next.domainEvents = append(next.domainEvents, event.NewApplicationCancelled(a.id, a.tenantID, reason))
	return next, nil
}

// FinancialsPatch carries an explicit update of the declared financials.
// Nil fields are left untouched; snapshot fields are merged one by one.
type FinancialsPatch struct {
	Snapshot        FinancialSnapshot
	BalanceSheet    *BalanceSheet
	IncomeStatement *IncomeStatement
	FamilyExpenses  *FamilyExpenses
	Guarantees      []Guarantee
}

// UpdateFinancials applies patch. Financials are frozen once the field visit
// is planned.
func (a Application) UpdateFinancials(patch FinancialsPatch, now time.Time) (Application, error) {
	if !a.status.In(
		valueobject.ApplicationStatusDraft,
		valueobject.ApplicationStatusSubmitted,
		valueobject.ApplicationStatusUnderAnalysis,
	) {
		return a, valueobject.NewInvalidTransitionError(a.status, "update financials")
	}
	next := a
	next.snapshot = a.snapshot.Merge(patch.Snapshot)
	if patch.BalanceSheet != nil {
		bs := *patch.BalanceSheet
		next.balanceSheet = &bs
	}
	if patch.IncomeStatement != nil {
		is := *patch.IncomeStatement
		is.Activities = slices.Clone(is.Activities)
		next.incomeStatement = &is
	}
	if patch.FamilyExpenses != nil {
		fe := *patch.FamilyExpenses
		next.familyExpenses = &fe
	}
	if patch.Guarantees != nil {
		for _, g := range patch.Guarantees {
			if g.RetainedValue.Currency() != a.request.CurrencyOrDefault() {
				return a, valueobject.NewValidationError("guarantee value",
					fmt.Sprintf("must be in %s", a.request.CurrencyOrDefault()))
			}
		}
		next.guarantees = slices.Clone(patch.Guarantees)
	}
	next.updatedAt = now
	next.domainEvents = copyEvents(a.domainEvents)
	return next, nil
}

// ---------------------------------------------------------------------------
// Decisions
// ---------------------------------------------------------------------------

// RecordDecision upserts record at its stage and applies the resulting
// status transition. A terminal application rejects every record except an
// identical replay of its committee decision, which returns the application
// unchanged.
func (a Application) RecordDecision(record DecisionRecord, now time.Time) (Application, error) {
	if err := record.Validate(); err != nil {
		return a, err
	}
	action := "record " + record.Stage.String() + " decision"

	prior, replaced := a.decisions[record.Stage]
	if a.status.IsTerminal() {
		if record.Stage.Equal(valueobject.DecisionStageCommittee) && replaced && prior.SameAs(record) {
			return a, nil
		}
		return a, valueobject.NewInvalidTransitionError(a.status, action)
	}

	target, err := a.transitionFor(record)
	if err != nil {
		return a, valueobject.NewInvalidTransitionError(a.status, action)
	}

	next := a
	next.decisions = copyDecisions(a.decisions)
	if record.RecordedAt.IsZero() {
		record.RecordedAt = now
	}
	next.decisions[record.Stage] = record
	next.updatedAt = now
	next.domainEvents = copyEvents(a.domainEvents)

	switch {
	case record.Stage.Equal(valueobject.DecisionStageAgentRecommendation):
		amount := record.RecommendedAmount
		next.agentRecommendedAmount = &amount
	case record.Stage.Equal(valueobject.DecisionStageFieldVisit) && record.Visit != nil && !record.Visit.VisitedAt.IsZero():
		visited := record.Visit.VisitedAt
		next.visitDate = &visited
	}

	next.domainEvents = append(next.domainEvents, event.NewDecisionRecorded(
		a.id, a.tenantID, record.Stage.String(), record.Decision.String(), record.Author,
		record.RecommendedAmount, a.status.String(), target.String(), replaced,
	))
	if !target.Equal(a.status) {
		next.status = target
		next.domainEvents = append(next.domainEvents,
			event.NewStatusChanged(a.id, a.tenantID, a.status.String(), target.String()))
	}

	if record.Stage.Equal(valueobject.DecisionStageCommittee) {
		next.applyCommitteeOutcome(record)
	}
	return next, nil
}

var errTransitionNotAllowed = errors.New("transition not allowed")

// transitionFor returns the status that recording r leads to.
func (a Application) transitionFor(r DecisionRecord) (valueobject.ApplicationStatus, error) {
	s := a.status
	if s.Equal(valueobject.ApplicationStatusDraft) {
		return s, errTransitionNotAllowed
	}
	if s.Equal(valueobject.ApplicationStatusPostponed) && !r.Stage.Equal(valueobject.DecisionStageCommittee) {
		return s, errTransitionNotAllowed
	}

	switch r.Stage {
	case valueobject.DecisionStageAgentRecommendation:
		if s.In(valueobject.ApplicationStatusSubmitted, valueobject.ApplicationStatusUnderAnalysis) {
			return valueobject.ApplicationStatusUnderAnalysis, nil
		}
		return s, nil
	case valueobject.DecisionStageFieldVisit:
		if s.In(
			valueobject.ApplicationStatusSubmitted,
			valueobject.ApplicationStatusUnderAnalysis,
			valueobject.ApplicationStatusVisitPlanned,
		) {
			return valueobject.ApplicationStatusVisitDone, nil
		}
		return s, nil
	case valueobject.DecisionStageRiskOfficer, valueobject.DecisionStageBranchManager:
		return s, nil
	case valueobject.DecisionStageCommittee:
		switch r.Decision {
		case valueobject.DecisionAccord:
			return valueobject.ApplicationStatusApproved, nil
		case valueobject.DecisionRefusal:
			return valueobject.ApplicationStatusRejected, nil
		case valueobject.DecisionPostponement:
			return valueobject.ApplicationStatusPostponed, nil
		default:
			return valueobject.ApplicationStatusInCommittee, nil
		}
	}
	return s, errTransitionNotAllowed
}

func (a *Application) applyCommitteeOutcome(r DecisionRecord) {
	switch r.Decision {
	case valueobject.DecisionAccord:
		a.authorized = &AuthorizedTerms{
			Amount:         r.Committee.AuthorizedAmount,
			Rate:           r.Committee.Rate,
			DurationMonths: r.Committee.DurationMonths,
		}
		a.domainEvents = append(a.domainEvents, event.NewApplicationApproved(
			a.id, a.tenantID, a.clientID,
			r.Committee.AuthorizedAmount, r.Committee.Rate,
			a.request.CurrencyOrDefault().Code(), r.Committee.DurationMonths,
		))
	case valueobject.DecisionRefusal:
		a.domainEvents = append(a.domainEvents,
			event.NewApplicationRejected(a.id, a.tenantID, a.clientID, r.Rationale))
	case valueobject.DecisionPostponement:
		a.domainEvents = append(a.domainEvents,
			event.NewApplicationPostponed(a.id, a.tenantID, r.Rationale))
	}
}

// ---------------------------------------------------------------------------
// Derived views
// ---------------------------------------------------------------------------

// TotalRetainedGuarantees sums the retained value of every guarantee.
func (a Application) TotalRetainedGuarantees() money.Money {
	total, err := TotalRetained(a.request.CurrencyOrDefault(), a.guarantees)
	if err != nil {
		// UpdateFinancials only admits guarantees in the loan currency.
		return money.Zero(a.request.CurrencyOrDefault())
	}
	return total
}

// ScoringSnapshot is the snapshot fed to the scorer. Retained guarantees
// stand in for the collateral when the client declared none.
func (a Application) ScoringSnapshot() FinancialSnapshot {
	s := a.snapshot
	if s.CollateralValue == nil && len(a.guarantees) > 0 {
		total := a.TotalRetainedGuarantees().Amount()
		s.CollateralValue = &total
	}
	return s
}

// RatioInput is the ratio analysis input for this application at the given
// installment.
func (a Application) RatioInput(installment decimal.Decimal) RatioInput {
	return RatioInput{
		BalanceSheet:    a.balanceSheet,
		IncomeStatement: a.incomeStatement,
		FamilyExpenses:  a.familyExpenses,
		RequestedAmount: a.request.Amount,
		Installment:     installment,
		Currency:        a.request.CurrencyOrDefault(),
	}
}

// Decision returns the record at stage, if any.
func (a Application) Decision(stage valueobject.DecisionStage) (DecisionRecord, bool) {
	d, ok := a.decisions[stage]
	return d, ok
}

// Decisions returns the records in review order.
func (a Application) Decisions() []DecisionRecord {
	out := make([]DecisionRecord, 0, len(a.decisions))
	for _, stage := range valueobject.AllDecisionStages() {
		if d, ok := a.decisions[stage]; ok {
			out = append(out, d)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (a Application) ID() string                                { return a.id }
func (a Application) TenantID() string                          { return a.tenantID }
func (a Application) Number() string                            { return a.number }
func (a Application) ClientID() string                          { return a.clientID }
func (a Application) Request() LoanRequest                      { return a.request }
func (a Application) Snapshot() FinancialSnapshot               { return a.snapshot }
func (a Application) BalanceSheet() *BalanceSheet               { return a.balanceSheet }
func (a Application) IncomeStatement() *IncomeStatement         { return a.incomeStatement }
func (a Application) FamilyExpenses() *FamilyExpenses           { return a.familyExpenses }
func (a Application) Guarantees() []Guarantee                   { return slices.Clone(a.guarantees) }
func (a Application) Status() valueobject.ApplicationStatus     { return a.status }
func (a Application) AgentRecommendedAmount() *decimal.Decimal  { return a.agentRecommendedAmount }
func (a Application) Authorized() *AuthorizedTerms              { return a.authorized }
func (a Application) VisitDate() *time.Time                     { return a.visitDate }
func (a Application) CancelReason() string                      { return a.cancelReason }
func (a Application) Version() int                              { return a.version }
func (a Application) CreatedAt() time.Time                      { return a.createdAt }
func (a Application) UpdatedAt() time.Time                      { return a.updatedAt }
func (a Application) DomainEvents() []event.DomainEvent         { return a.domainEvents }

// WithVersion returns a copy carrying the version a repository stored.
func (a Application) WithVersion(v int) Application {
	next := a
	next.version = v
	return next
}

// ClearEvents returns a copy with an empty event list (call after publishing).
func (a Application) ClearEvents() Application {
	next := a
	next.domainEvents = nil
	return next
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func (a Application) withStatus(to valueobject.ApplicationStatus, now time.Time) Application {
	next := a
	next.status = to
	next.updatedAt = now
	next.domainEvents = copyEvents(a.domainEvents)
	next.domainEvents = append(next.domainEvents,
		event.NewStatusChanged(a.id, a.tenantID, a.status.String(), to.String()))
	return next
}

func copyEvents(src []event.DomainEvent) []event.DomainEvent {
	if src == nil {
		return nil
	}
	dst := make([]event.DomainEvent, len(src))
	copy(dst, src)
	return dst
}

func copyDecisions(src map[valueobject.DecisionStage]DecisionRecord) map[valueobject.DecisionStage]DecisionRecord {
	dst := make(map[valueobject.DecisionStage]DecisionRecord, len(src)+1)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
