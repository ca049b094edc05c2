package usecase

import (
	"log/slog"
	"time"

	"github.com/bibbank/appraisal/internal/domain/port"
	"github.com/bibbank/appraisal/internal/domain/service"
)

// Dependencies are the adapters and policies the use cases run on. Cache
// may be nil. Outbox defaults to Repo when Repo also implements
// port.OutboxStore.
type Dependencies struct {
	Repo        port.ApplicationRepository
	Outbox      port.OutboxStore
	Publisher   port.EventPublisher
	Cache       port.EvaluationCache
	CacheTTL    time.Duration
	Calculator  *service.AmortizationCalculator
	RatioPolicy service.RatioPolicy
	Scorer      *service.CreditScorer
	Logger      *slog.Logger
}

// Set bundles every use case the transports expose.
type Set struct {
	Create           *CreateApplicationUseCase
	Submit           *SubmitApplicationUseCase
	UpdateFinancials *UpdateFinancialsUseCase
	RecordDecision   *RecordDecisionUseCase
	PlanVisit        *PlanVisitUseCase
	SendToCommittee  *SendToCommitteeUseCase
	Cancel           *CancelApplicationUseCase
	Get              *GetApplicationUseCase
	List             *ListApplicationsUseCase
	Statistics       *GetStatisticsUseCase
	Schedule         *ComputeScheduleUseCase
	Ratios           *ComputeRatiosUseCase
	Score            *ComputeScoreUseCase
	Relay            *OutboxRelay
}

// NewSet wires all use cases from d.
func NewSet(d Dependencies) *Set {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Calculator == nil {
		d.Calculator = service.NewAmortizationCalculator(d.Logger)
	}
	if d.Scorer == nil {
		d.Scorer = service.NewCreditScorer(service.DefaultScoringPolicy())
	}
	if d.RatioPolicy == (service.RatioPolicy{}) {
		d.RatioPolicy = service.DefaultRatioPolicy()
	}
	if d.Outbox == nil {
		if store, ok := d.Repo.(port.OutboxStore); ok {
			d.Outbox = store
		}
	}
	var relay *OutboxRelay
	if d.Outbox != nil && d.Publisher != nil {
		relay = NewOutboxRelay(d.Outbox, d.Publisher, d.Logger)
	}

	return &Set{
		Create:           NewCreateApplicationUseCase(d.Repo, relay, d.Calculator, d.Logger),
		Submit:           NewSubmitApplicationUseCase(d.Repo, relay, d.Logger),
		UpdateFinancials: NewUpdateFinancialsUseCase(d.Repo, relay, d.Logger),
		RecordDecision:   NewRecordDecisionUseCase(d.Repo, relay, d.Calculator, d.Logger),
		PlanVisit:        NewPlanVisitUseCase(d.Repo, relay, d.Logger),
		SendToCommittee:  NewSendToCommitteeUseCase(d.Repo, relay, d.Logger),
		Cancel:           NewCancelApplicationUseCase(d.Repo, relay, d.Logger),
		Get:              NewGetApplicationUseCase(d.Repo),
		List:             NewListApplicationsUseCase(d.Repo),
		Statistics:       NewGetStatisticsUseCase(d.Repo),
		Schedule:         NewComputeScheduleUseCase(d.Repo, d.Calculator, d.Cache, d.CacheTTL, d.Logger),
		Ratios:           NewComputeRatiosUseCase(d.Repo, d.Calculator, d.RatioPolicy, d.Cache, d.CacheTTL, d.Logger),
		Score:            NewComputeScoreUseCase(d.Repo, d.Calculator, d.Scorer, d.Cache, d.CacheTTL, d.Logger),
		Relay:            relay,
	}
}
