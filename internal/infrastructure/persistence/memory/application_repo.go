// Package memory keeps applications in process. It backs local runs and
// demos with DB_DRIVER=memory and follows the same version rules as the
// PostgreSQL store.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/bibbank/appraisal/internal/domain/model"
	"github.com/bibbank/appraisal/internal/domain/port"
	"github.com/bibbank/appraisal/internal/domain/valueobject"
	"github.com/bibbank/appraisal/pkg/events"
)

// ApplicationRepo implements port.ApplicationRepository and
// port.OutboxStore over maps guarded by one lock.
type ApplicationRepo struct {
	mu     sync.RWMutex
	apps   map[string]model.Application
	outbox []events.OutboxEntry
}

// NewApplicationRepo creates an empty in-memory repository.
func NewApplicationRepo() *ApplicationRepo {
	return &ApplicationRepo{apps: map[string]model.Application{}}
}

var (
	_ port.ApplicationRepository = (*ApplicationRepo)(nil)
	_ port.OutboxStore           = (*ApplicationRepo)(nil)
)

// Save stores app when it is new or when its version matches the stored one;
// the stored copy then carries the next version. The pending events join
// the outbox under the same lock.
func (r *ApplicationRepo) Save(_ context.Context, app model.Application) error {
	entries := make([]events.OutboxEntry, 0, len(app.DomainEvents()))
	for _, evt := range app.DomainEvents() {
		entry, err := events.NewOutboxEntry(evt)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.apps[app.ID()]
	if exists {
		if stored.TenantID() != app.TenantID() || stored.Version() != app.Version() {
			return valueobject.ErrConcurrentModification
		}
		app = app.WithVersion(app.Version() + 1)
	}
	r.apps[app.ID()] = app.ClearEvents()
	r.outbox = append(r.outbox, entries...)
	return nil
}

// FetchUnpublished returns up to batchSize unpublished entries, oldest first.
func (r *ApplicationRepo) FetchUnpublished(_ context.Context, batchSize int) ([]events.OutboxEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []events.OutboxEntry
	for _, e := range r.outbox {
		if len(out) == batchSize {
			break
		}
		if e.PublishedAt == nil {
			out = append(out, e)
		}
	}
	return out, nil
}

// MarkPublished stamps the entries with ids and drops published entries
// from the head of the outbox.
func (r *ApplicationRepo) MarkPublished(_ context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for i := range r.outbox {
		if slices.Contains(ids, r.outbox[i].ID) {
			r.outbox[i].PublishedAt = &now
		}
	}
	head := 0
	for head < len(r.outbox) && r.outbox[head].PublishedAt != nil {
		head++
	}
	r.outbox = slices.Clone(r.outbox[head:])
	return nil
}

// FindByID returns the tenant's application or
// valueobject.ErrApplicationNotFound.
func (r *ApplicationRepo) FindByID(_ context.Context, tenantID, id string) (model.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	app, ok := r.apps[id]
	if !ok || app.TenantID() != tenantID {
		return model.Application{}, valueobject.ErrApplicationNotFound
	}
	return app, nil
}

// List returns the tenant's applications newest first.
func (r *ApplicationRepo) List(_ context.Context, tenantID string, f port.ApplicationFilter) ([]model.Application, error) {
	r.mu.RLock()
	matched := make([]model.Application, 0, len(r.apps))
	for _, app := range r.apps {
		if app.TenantID() != tenantID {
			continue
		}
		if f.Status != "" && app.Status().String() != f.Status {
			continue
		}
		if f.ClientID != "" && app.ClientID() != f.ClientID {
			continue
		}
		matched = append(matched, app)
	}
	r.mu.RUnlock()

	slices.SortFunc(matched, func(a, b model.Application) int {
		if c := b.CreatedAt().Compare(a.CreatedAt()); c != 0 {
			return c
		}
		if a.ID() < b.ID() {
			return -1
		}
		return 1
	})

	if f.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[f.Offset:]
	if f.Limit > 0 && f.Limit < len(matched) {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

// Statistics aggregates the tenant's applications by status and amount.
func (r *ApplicationRepo) Statistics(_ context.Context, tenantID string) (port.Statistics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := port.Statistics{ByStatus: map[string]int{}}
	for _, app := range r.apps {
		if app.TenantID() != tenantID {
			continue
		}
		st := app.Status()
		stats.ByStatus[st.String()]++
		stats.Total++
		if st.IsInProgress() {
			stats.InProgress++
		}
		stats.RequestedAmount = stats.RequestedAmount.Add(app.Request().Amount)
		if st.Equal(valueobject.ApplicationStatusApproved) && app.Authorized() != nil {
			stats.ApprovedAmount = stats.ApprovedAmount.Add(app.Authorized().Amount)
		}
	}
	return stats, nil
}
