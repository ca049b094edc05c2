package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bibbank/appraisal/internal/domain/event"
	"github.com/bibbank/appraisal/internal/domain/port"
)

const defaultRelayBatchSize = 100

// OutboxRelay publishes the events that repositories stored in the outbox
// and marks them published. Delivery is at least once: an event whose
// publication succeeded but whose mark failed is sent again on the next
// pass.
type OutboxRelay struct {
	store     port.OutboxStore
	publisher port.EventPublisher
	batchSize int
	logger    *slog.Logger
}

// NewOutboxRelay creates a relay from store to publisher.
func NewOutboxRelay(store port.OutboxStore, publisher port.EventPublisher, logger *slog.Logger) *OutboxRelay {
	return &OutboxRelay{store: store, publisher: publisher, batchSize: defaultRelayBatchSize, logger: logger}
}

// Execute drains the outbox batch by batch and returns the number of events
// published. It stops at the first failure; unpublished entries stay in
// the outbox for the next run.
func (r *OutboxRelay) Execute(ctx context.Context) (int, error) {
	published := 0
	for {
		entries, err := r.store.FetchUnpublished(ctx, r.batchSize)
		if err != nil {
			return published, fmt.Errorf("fetch outbox: %w", err)
		}
		if len(entries) == 0 {
			return published, nil
		}

		evts := make([]event.DomainEvent, 0, len(entries))
		ids := make([]string, 0, len(entries))
		for _, e := range entries {
			evts = append(evts, e.Event())
			ids = append(ids, e.ID)
		}
		if err := r.publisher.Publish(ctx, evts...); err != nil {
			return published, fmt.Errorf("publish outbox events: %w", err)
		}
		if err := r.store.MarkPublished(ctx, ids); err != nil {
			return published, fmt.Errorf("mark outbox published: %w", err)
		}
		published += len(entries)

		if len(entries) < r.batchSize {
			return published, nil
		}
	}
}

// Run executes the relay every interval until ctx is done.
func (r *OutboxRelay) Run(ctx context.Context, interval time.Duration) {
	if r == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Execute(ctx); err != nil && ctx.Err() == nil {
				r.logger.Warn("outbox relay failed, will retry", "error", err)
			}
		}
	}
}

// flush runs the relay right after a commit. The events are already
// stored, so a failure is logged and left to the periodic run.
func (r *OutboxRelay) flush(ctx context.Context) {
	if r == nil {
		return
	}
	if _, err := r.Execute(ctx); err != nil {
		r.logger.WarnContext(ctx, "publishing committed events deferred", "error", err)
	}
}
