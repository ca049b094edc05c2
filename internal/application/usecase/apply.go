package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bibbank/appraisal/internal/application/dto"
	"github.com/bibbank/appraisal/internal/domain/model"
	"github.com/bibbank/appraisal/internal/domain/port"
	"github.com/bibbank/appraisal/internal/domain/valueobject"
)

// maxSaveAttempts bounds the reload-and-retry loop on optimistic lock
// conflicts.
const maxSaveAttempts = 3

// transition is one step of the workflow applied to a freshly loaded
// application.
type transition func(app model.Application) (model.Application, error)

// applier loads an application, applies a transition and saves the result
// under the repository's version check, which stores the new events in the
// outbox with it. On a concurrent modification it
// reloads and applies the transition again, so the status read, the upsert
// and the status write always act on the latest stored state.
type applier struct {
	repo   port.ApplicationRepository
	relay  *OutboxRelay
	logger *slog.Logger
}

func (a applier) apply(ctx context.Context, ref dto.ApplicationRef, fn transition) (before, after model.Application, err error) {
	for attempt := 1; ; attempt++ {
		before, err = a.repo.FindByID(ctx, ref.TenantID, ref.ApplicationID)
		if err != nil {
			return model.Application{}, model.Application{}, fmt.Errorf("find application: %w", err)
		}

		after, err = fn(before)
		if err != nil {
			return before, before, err
		}
		if unchanged(before, after) {
			return before, after, nil
		}

		err = a.repo.Save(ctx, after)
		if errors.Is(err, valueobject.ErrConcurrentModification) && attempt < maxSaveAttempts {
			a.logger.Warn("concurrent modification, retrying",
				"application_id", ref.ApplicationID, "attempt", attempt)
			continue
		}
		if err != nil {
			return before, before, fmt.Errorf("save application: %w", err)
		}

		a.relay.flush(ctx)
		return before, after.WithVersion(before.Version() + 1).ClearEvents(), nil
	}
}

// unchanged reports whether fn returned the application as it was, as for
// an idempotent replay.
func unchanged(before, after model.Application) bool {
	return len(after.DomainEvents()) == 0 && after.UpdatedAt().Equal(before.UpdatedAt())
}
