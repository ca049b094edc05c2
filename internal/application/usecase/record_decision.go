package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/bibbank/appraisal/internal/application/dto"
	"github.com/bibbank/appraisal/internal/domain/model"
	"github.com/bibbank/appraisal/internal/domain/port"
	"github.com/bibbank/appraisal/internal/domain/service"
)

// RecordDecisionUseCase records a reviewer's decision at one stage and
// applies the status transition it leads to.
type RecordDecisionUseCase struct {
	applier  applier
	calc     *service.AmortizationCalculator
	logger   *slog.Logger
	recorded metric.Int64Counter
}

// NewRecordDecisionUseCase wires dependencies.
func NewRecordDecisionUseCase(
	appRepo port.ApplicationRepository,
	relay *OutboxRelay,
	calc *service.AmortizationCalculator,
	logger *slog.Logger,
) *RecordDecisionUseCase {
	return &RecordDecisionUseCase{
		applier:  applier{repo: appRepo, relay: relay, logger: logger},
		calc:     calc,
		logger:   logger,
		recorded: counter("appraisal.decisions.recorded", "Decisions recorded, by stage and decision"),
	}
}

// Execute upserts the decision record. Replaying the decision that closed an
// application returns it unchanged; any other decision on a closed
// application fails with valueobject.ErrInvalidStatusTransition.
func (uc *RecordDecisionUseCase) Execute(
	ctx context.Context,
	req dto.RecordDecisionRequest,
) (resp dto.RecordDecisionResponse, err error) {
	ctx, span := startSpan(ctx, "RecordDecision",
		attribute.String("application_id", req.ApplicationID),
		attribute.String("stage", req.Stage))
	defer func() { endSpan(span, err) }()

	if err := dto.Validate(req); err != nil {
		return dto.RecordDecisionResponse{}, err
	}
	record, err := toDecisionRecord(uc.calc, req)
	if err != nil {
		return dto.RecordDecisionResponse{}, err
	}

	before, after, err := uc.applier.apply(ctx, req.ApplicationRef, func(app model.Application) (model.Application, error) {
		return app.RecordDecision(record, time.Now().UTC())
	})
	if err != nil {
		return dto.RecordDecisionResponse{}, fmt.Errorf("record %s decision: %w", record.Stage, err)
	}

	add(ctx, uc.recorded,
		attribute.String("stage", record.Stage.String()),
		attribute.String("decision", record.Decision.String()))
	uc.logger.Info("decision recorded",
		"application_id", after.ID(),
		"stage", record.Stage.String(),
		"decision", record.Decision.String(),
		"status_before", before.Status().String(),
		"status_after", after.Status().String(),
	)

	return dto.RecordDecisionResponse{
		PreviousStatus: before.Status().String(),
		NewStatus:      after.Status().String(),
		Application:    toApplicationResponse(after),
	}, nil
}
