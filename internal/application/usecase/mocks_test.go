package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/bibbank/appraisal/internal/domain/event"
	"github.com/bibbank/appraisal/internal/domain/model"
	"github.com/bibbank/appraisal/internal/domain/port"
	"github.com/bibbank/appraisal/internal/domain/service"
	"github.com/bibbank/appraisal/internal/domain/valueobject"
	"github.com/bibbank/appraisal/pkg/events"
)

// --- Mock implementations ---

// mockApplicationRepository keeps saved applications in memory unless a func
// field overrides the call.
type mockApplicationRepository struct {
	mu             sync.Mutex
	saveFunc       func(ctx context.Context, app model.Application) error
	findByIDFunc   func(ctx context.Context, tenantID, id string) (model.Application, error)
	listFunc       func(ctx context.Context, tenantID string, f port.ApplicationFilter) ([]model.Application, error)
	statisticsFunc func(ctx context.Context, tenantID string) (port.Statistics, error)
	store          map[string]model.Application
	savedApps      []model.Application
	outbox         []events.OutboxEntry
	findCalls      int
}

func newMockRepo() *mockApplicationRepository {
	return &mockApplicationRepository{store: map[string]model.Application{}}
}

func (m *mockApplicationRepository) Save(ctx context.Context, app model.Application) error {
	if m.saveFunc != nil {
		if err := m.saveFunc(ctx, app); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.savedApps = append(m.savedApps, app)
	for _, evt := range app.DomainEvents() {
		entry, err := events.NewOutboxEntry(evt)
		if err != nil {
			return err
		}
		m.outbox = append(m.outbox, entry)
	}
	if _, exists := m.store[app.ID()]; exists {
		app = app.WithVersion(app.Version() + 1)
	}
	m.store[app.ID()] = app.ClearEvents()
	return nil
}

func (m *mockApplicationRepository) FindByID(ctx context.Context, tenantID, id string) (model.Application, error) {
	m.mu.Lock()
	m.findCalls++
	m.mu.Unlock()
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, tenantID, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.store[id]
	if !ok || app.TenantID() != tenantID {
		return model.Application{}, valueobject.ErrApplicationNotFound
	}
	return app, nil
}

func (m *mockApplicationRepository) List(ctx context.Context, tenantID string, f port.ApplicationFilter) ([]model.Application, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, tenantID, f)
	}
	return nil, nil
}

func (m *mockApplicationRepository) Statistics(ctx context.Context, tenantID string) (port.Statistics, error) {
	if m.statisticsFunc != nil {
		return m.statisticsFunc(ctx, tenantID)
	}
	return port.Statistics{}, nil
}

func (m *mockApplicationRepository) FetchUnpublished(_ context.Context, batchSize int) ([]events.OutboxEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []events.OutboxEntry
	for _, e := range m.outbox {
		if e.PublishedAt == nil && len(out) < batchSize {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockApplicationRepository) MarkPublished(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	for _, id := range ids {
		for i := range m.outbox {
			if m.outbox[i].ID == id {
				m.outbox[i].PublishedAt = &now
			}
		}
	}
	return nil
}

func (m *mockApplicationRepository) pending() int {
	n, _ := m.FetchUnpublished(context.Background(), len(m.outbox)+1)
	return len(n)
}

type mockEventPublisher struct {
	publishFunc     func(ctx context.Context, events ...event.DomainEvent) error
	publishedEvents []event.DomainEvent
}

func (m *mockEventPublisher) Publish(ctx context.Context, evts ...event.DomainEvent) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, evts...)
	}
	m.publishedEvents = append(m.publishedEvents, evts...)
	return nil
}

func (m *mockEventPublisher) types() []string {
	out := make([]string, 0, len(m.publishedEvents))
	for _, e := range m.publishedEvents {
		out = append(out, e.EventType())
	}
	return out
}

// mockEvaluationCache stores JSON like the redis cache does.
type mockEvaluationCache struct {
	getFunc  func(ctx context.Context, key string, dst any) (bool, error)
	entries  map[string][]byte
	getCalls int
	setCalls int
}

func newMockCache() *mockEvaluationCache {
	return &mockEvaluationCache{entries: map[string][]byte{}}
}

func (m *mockEvaluationCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	m.getCalls++
	if m.getFunc != nil {
		return m.getFunc(ctx, key, dst)
	}
	raw, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (m *mockEvaluationCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.setCalls++
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

var errBrokerDown = errors.New("broker down")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCalculator() *service.AmortizationCalculator {
	return service.NewAmortizationCalculator(discardLogger())
}
