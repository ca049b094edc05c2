package memory_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/appraisal/internal/application/dto"
	"github.com/bibbank/appraisal/internal/application/usecase"
	"github.com/bibbank/appraisal/internal/domain/event"
	"github.com/bibbank/appraisal/internal/domain/model"
	"github.com/bibbank/appraisal/internal/domain/port"
	"github.com/bibbank/appraisal/internal/domain/service"
	"github.com/bibbank/appraisal/internal/domain/valueobject"
	"github.com/bibbank/appraisal/internal/infrastructure/persistence/memory"
)

const tenant = "tenant-001"

func draft(t *testing.T, clientID string, created time.Time) model.Application {
	t.Helper()
	app, err := model.NewApplication(tenant, clientID, model.LoanRequest{
		Amount:         decimal.NewFromInt(1_000_000),
		Periodicity:    valueobject.PeriodicityMonthly,
		DurationMonths: 10,
	}, model.FinancialSnapshot{}, created)
	require.NoError(t, err)
	return app
}

func TestApplicationRepo_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("bumps the version on every update", func(t *testing.T) {
		repo := memory.NewApplicationRepo()
		app := draft(t, "c1", time.Now())
		require.NoError(t, repo.Save(ctx, app))

		stored, err := repo.FindByID(ctx, tenant, app.ID())
		require.NoError(t, err)
		assert.Equal(t, 1, stored.Version())
		assert.Empty(t, stored.DomainEvents())

		submitted, err := stored.Submit(time.Now())
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, submitted))

		stored, err = repo.FindByID(ctx, tenant, app.ID())
		require.NoError(t, err)
		assert.Equal(t, 2, stored.Version())
		assert.Equal(t, valueobject.ApplicationStatusSubmitted, stored.Status())
	})

	t.Run("only one of concurrent writers of the same version wins", func(t *testing.T) {
		repo := memory.NewApplicationRepo()
		app := draft(t, "c1", time.Now())
		require.NoError(t, repo.Save(ctx, app))
		loaded, err := repo.FindByID(ctx, tenant, app.ID())
		require.NoError(t, err)

		const writers = 10
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			wins      int
			conflicts int
		)
		for range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				next, err := loaded.Submit(time.Now())
				if err != nil {
					return
				}
				err = repo.Save(ctx, next)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					wins++
				case errors.Is(err, valueobject.ErrConcurrentModification):
					conflicts++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, wins)
		assert.Equal(t, writers-1, conflicts)
	})

	t.Run("tenants are isolated", func(t *testing.T) {
		repo := memory.NewApplicationRepo()
		app := draft(t, "c1", time.Now())
		require.NoError(t, repo.Save(ctx, app))

		_, err := repo.FindByID(ctx, "other", app.ID())
		assert.ErrorIs(t, err, valueobject.ErrApplicationNotFound)
	})
}

func TestApplicationRepo_ListAndStatistics(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewApplicationRepo()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	oldest := draft(t, "c1", base)
	middle, err := draft(t, "c2", base.Add(time.Hour)).Submit(base.Add(time.Hour))
	require.NoError(t, err)
	newest, err := draft(t, "c1", base.Add(2*time.Hour)).Cancel("duplicate", base.Add(2*time.Hour))
	require.NoError(t, err)
	for _, app := range []model.Application{oldest, middle, newest} {
		require.NoError(t, repo.Save(ctx, app))
	}

	t.Run("newest first with paging", func(t *testing.T) {
		page, err := repo.List(ctx, tenant, port.ApplicationFilter{Limit: 2})
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, newest.ID(), page[0].ID())
		assert.Equal(t, middle.ID(), page[1].ID())

		rest, err := repo.List(ctx, tenant, port.ApplicationFilter{Limit: 2, Offset: 2})
		require.NoError(t, err)
		require.Len(t, rest, 1)
		assert.Equal(t, oldest.ID(), rest[0].ID())

		none, err := repo.List(ctx, tenant, port.ApplicationFilter{Offset: 5})
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("filters by client and status", func(t *testing.T) {
		forC1, err := repo.List(ctx, tenant, port.ApplicationFilter{ClientID: "c1"})
		require.NoError(t, err)
		assert.Len(t, forC1, 2)

		cancelled, err := repo.List(ctx, tenant, port.ApplicationFilter{Status: "CANCELLED"})
		require.NoError(t, err)
		require.Len(t, cancelled, 1)
		assert.Equal(t, newest.ID(), cancelled[0].ID())
	})

	t.Run("statistics", func(t *testing.T) {
		stats, err := repo.Statistics(ctx, tenant)
		require.NoError(t, err)

		assert.Equal(t, 3, stats.Total)
		assert.Equal(t, 1, stats.InProgress)
		assert.Equal(t, 1, stats.ByStatus["CANCELLED"])
		assert.True(t, stats.RequestedAmount.Equal(decimal.NewFromInt(3_000_000)))
		assert.True(t, stats.ApprovedAmount.IsZero())
	})
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, ...event.DomainEvent) error { return nil }

func TestApplicationRepo_Outbox(t *testing.T) {
	ctx := context.Background()

	t.Run("save stores the pending events", func(t *testing.T) {
		repo := memory.NewApplicationRepo()
		app := draft(t, "c1", time.Now())
		require.NotEmpty(t, app.DomainEvents())

		require.NoError(t, repo.Save(ctx, app))

		entries, err := repo.FetchUnpublished(ctx, 10)
		require.NoError(t, err)
		require.Len(t, entries, len(app.DomainEvents()))
		assert.Equal(t, event.TypeApplicationCreated, entries[0].EventType)
		assert.Equal(t, app.ID(), entries[0].AggregateID)
		assert.Equal(t, tenant, entries[0].TenantID)
	})

	t.Run("a rejected save stores nothing", func(t *testing.T) {
		repo := memory.NewApplicationRepo()
		app := draft(t, "c1", time.Now())
		require.NoError(t, repo.Save(ctx, app))
		entries, err := repo.FetchUnpublished(ctx, 10)
		require.NoError(t, err)
		require.NoError(t, repo.MarkPublished(ctx, []string{entries[0].ID}))

		submitted, err := app.ClearEvents().Submit(time.Now())
		require.NoError(t, err)
		stale := submitted.WithVersion(0)
		require.NoError(t, repo.Save(ctx, submitted))
		assert.ErrorIs(t, repo.Save(ctx, stale), valueobject.ErrConcurrentModification)

		entries, err = repo.FetchUnpublished(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, entries, len(submitted.DomainEvents()))
	})

	t.Run("published entries are not fetched again", func(t *testing.T) {
		repo := memory.NewApplicationRepo()
		require.NoError(t, repo.Save(ctx, draft(t, "c1", time.Now())))
		require.NoError(t, repo.Save(ctx, draft(t, "c2", time.Now())))

		first, err := repo.FetchUnpublished(ctx, 1)
		require.NoError(t, err)
		require.Len(t, first, 1)
		require.NoError(t, repo.MarkPublished(ctx, []string{first[0].ID}))

		rest, err := repo.FetchUnpublished(ctx, 10)
		require.NoError(t, err)
		require.Len(t, rest, 1)
		assert.NotEqual(t, first[0].ID, rest[0].ID)
	})
}

// A committee approval saved while the broker is down reaches the broker
// once it is back, although the retried request is an idempotent replay.
func TestApplicationRepo_ApprovalSurvivesBrokerOutage(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := memory.NewApplicationRepo()
	broker := &switchablePublisher{}
	uc := usecase.NewSet(usecase.Dependencies{Repo: repo, Publisher: broker, Logger: logger})

	app := draft(t, "c1", time.Now())
	app, err := app.Submit(time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, app))
	ref := dto.ApplicationRef{TenantID: tenant, ApplicationID: app.ID()}
	_, err = uc.RecordDecision.Execute(ctx, dto.RecordDecisionRequest{ApplicationRef: ref, Stage: "agent-recommendation", Decision: "accord"})
	require.NoError(t, err)
	_, err = uc.SendToCommittee.Execute(ctx, ref)
	require.NoError(t, err)

	broker.down = true
	broker.types = nil
	accord := dto.RecordDecisionRequest{
		ApplicationRef:    ref,
		Stage:             "committee",
		Decision:          "accord",
		Author:            "committee",
		RecommendedAmount: decimal.NewFromInt(1_000_000),
		Complete:          true,
		Committee: &dto.CommitteeTerms{
			AuthorizedAmount: decimal.NewFromInt(1_000_000),
			Rate:             decimal.RequireFromString("0.22"),
			DurationMonths:   10,
			InstallmentCount: 10,
		},
	}
	resp, err := uc.RecordDecision.Execute(ctx, accord)
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", resp.NewStatus)
	assert.Empty(t, broker.types)

	broker.down = false
	_, err = uc.RecordDecision.Execute(ctx, accord)
	require.NoError(t, err)
	_, err = uc.Relay.Execute(ctx)
	require.NoError(t, err)

	assert.Contains(t, broker.types, event.TypeApplicationApproved)
	pending, err := repo.FetchUnpublished(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

type switchablePublisher struct {
	down  bool
	types []string
}

func (p *switchablePublisher) Publish(_ context.Context, evts ...event.DomainEvent) error {
	if p.down {
		return errors.New("broker down")
	}
	for _, e := range evts {
		p.types = append(p.types, e.EventType())
	}
	return nil
}

// Reviewers recording different stages at the same moment all land: the
// losers of each save race reload and reapply their record.
func TestApplicationRepo_ConcurrentReviewers(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewApplicationRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	calc := service.NewAmortizationCalculator(logger)

	app := draft(t, "c1", time.Now())
	app, err := app.Submit(time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, app))

	record := usecase.NewRecordDecisionUseCase(repo, usecase.NewOutboxRelay(repo, nopPublisher{}, logger), calc, logger)
	ref := dto.ApplicationRef{TenantID: tenant, ApplicationID: app.ID()}
	_, err = record.Execute(ctx, dto.RecordDecisionRequest{ApplicationRef: ref, Stage: "agent-recommendation", Decision: "accord"})
	require.NoError(t, err)

	stages := []string{"risk-officer", "branch-manager", "field-visit"}
	errs := make([]error, len(stages))
	var wg sync.WaitGroup
	for i, stage := range stages {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = record.Execute(ctx, dto.RecordDecisionRequest{
				ApplicationRef: ref,
				Stage:          stage,
				Decision:       "accord",
				Author:         stage,
			})
		}()
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, stages[i])
	}
	stored, err := repo.FindByID(ctx, tenant, app.ID())
	require.NoError(t, err)
	assert.Len(t, stored.Decisions(), 4)
	assert.Equal(t, valueobject.ApplicationStatusVisitDone, stored.Status())
	assert.Equal(t, 5, stored.Version())
}
