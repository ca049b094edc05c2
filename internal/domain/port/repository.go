package port

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/appraisal/internal/domain/event"
	"github.com/bibbank/appraisal/internal/domain/model"
	"github.com/bibbank/appraisal/pkg/events"
)

// ---------------------------------------------------------------------------
// Repository ports (driven/secondary adapters)
// ---------------------------------------------------------------------------

// ApplicationFilter narrows List. Zero fields match everything.
type ApplicationFilter struct {
	Status   string
	ClientID string
	Limit    int
	Offset   int
}

// Statistics summarises a tenant's portfolio of applications.
type Statistics struct {
	ByStatus        map[string]int
	InProgress      int
	Total           int
	RequestedAmount decimal.Decimal
	ApprovedAmount  decimal.Decimal
}

// ApplicationRepository persists and retrieves loan applications.
//
// Save inserts or updates the application and stores its pending domain
// events in the outbox, atomically. An update succeeds only if the stored
// version equals app.Version(); otherwise it returns
// valueobject.ErrConcurrentModification and nothing is written. FindByID returns
// valueobject.ErrApplicationNotFound for an unknown ID.
type ApplicationRepository interface {
	Save(ctx context.Context, app model.Application) error
	FindByID(ctx context.Context, tenantID, id string) (model.Application, error)
	List(ctx context.Context, tenantID string, filter ApplicationFilter) ([]model.Application, error)
	Statistics(ctx context.Context, tenantID string) (Statistics, error)
}

// OutboxStore hands the events written by Save to the relay. Entries come
// back oldest first until marked published.
type OutboxStore interface {
	FetchUnpublished(ctx context.Context, batchSize int) ([]events.OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []string) error
}

// ---------------------------------------------------------------------------
// Event publisher port
// ---------------------------------------------------------------------------

// EventPublisher publishes domain events to external consumers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...event.DomainEvent) error
}

// ---------------------------------------------------------------------------
// Evaluation cache port
// ---------------------------------------------------------------------------

// EvaluationCache memoises deterministic computations by input key. A miss
// is reported as found=false with a nil error.
type EvaluationCache interface {
	Get(ctx context.Context, key string, dst any) (found bool, err error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}
