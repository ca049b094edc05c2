package usecase

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/bibbank/appraisal/internal/application/dto"
	"github.com/bibbank/appraisal/internal/domain/model"
	"github.com/bibbank/appraisal/internal/domain/port"
)

// ---------------------------------------------------------------------------
// Submit
// ---------------------------------------------------------------------------

// SubmitApplicationUseCase hands a draft over for analysis.
type SubmitApplicationUseCase struct {
	applier applier
}

// NewSubmitApplicationUseCase wires dependencies.
func NewSubmitApplicationUseCase(
	appRepo port.ApplicationRepository,
	relay *OutboxRelay,
	logger *slog.Logger,
) *SubmitApplicationUseCase {
	return &SubmitApplicationUseCase{applier: applier{repo: appRepo, relay: relay, logger: logger}}
}

// Execute submits the application.
func (uc *SubmitApplicationUseCase) Execute(ctx context.Context, req dto.ApplicationRef) (resp dto.ApplicationResponse, err error) {
	ctx, span := startSpan(ctx, "SubmitApplication", attribute.String("application_id", req.ApplicationID))
	defer func() { endSpan(span, err) }()

	if err := dto.Validate(req); err != nil {
		return dto.ApplicationResponse{}, err
	}
	_, app, err := uc.applier.apply(ctx, req, func(app model.Application) (model.Application, error) {
		return app.Submit(time.Now().UTC())
	})
	if err != nil {
		return dto.ApplicationResponse{}, err
	}
	return toApplicationResponse(app), nil
}

// ---------------------------------------------------------------------------
// Plan visit
// ---------------------------------------------------------------------------

// PlanVisitUseCase schedules the field visit.
type PlanVisitUseCase struct {
	applier applier
}

// NewPlanVisitUseCase wires dependencies.
func NewPlanVisitUseCase(
	appRepo port.ApplicationRepository,
	relay *OutboxRelay,
	logger *slog.Logger,
) *PlanVisitUseCase {
	return &PlanVisitUseCase{applier: applier{repo: appRepo, relay: relay, logger: logger}}
}

// Execute records the planned visit date.
func (uc *PlanVisitUseCase) Execute(ctx context.Context, req dto.PlanVisitRequest) (resp dto.ApplicationResponse, err error) {
	ctx, span := startSpan(ctx, "PlanVisit", attribute.String("application_id", req.ApplicationID))
	defer func() { endSpan(span, err) }()

	if err := dto.Validate(req); err != nil {
		return dto.ApplicationResponse{}, err
	}
	_, app, err := uc.applier.apply(ctx, req.ApplicationRef, func(app model.Application) (model.Application, error) {
		return app.PlanVisit(req.VisitDate.UTC(), time.Now().UTC())
	})
	if err != nil {
		return dto.ApplicationResponse{}, err
	}
	return toApplicationResponse(app), nil
}

// ---------------------------------------------------------------------------
// Send to committee
// ---------------------------------------------------------------------------

// SendToCommitteeUseCase puts an analysed application on the committee's
// agenda.
type SendToCommitteeUseCase struct {
	applier applier
}

// NewSendToCommitteeUseCase wires dependencies.
func NewSendToCommitteeUseCase(
	appRepo port.ApplicationRepository,
	relay *OutboxRelay,
	logger *slog.Logger,
) *SendToCommitteeUseCase {
	return &SendToCommitteeUseCase{applier: applier{repo: appRepo, relay: relay, logger: logger}}
}

// Execute moves the application to IN_COMMITTEE.
func (uc *SendToCommitteeUseCase) Execute(ctx context.Context, req dto.ApplicationRef) (resp dto.ApplicationResponse, err error) {
	ctx, span := startSpan(ctx, "SendToCommittee", attribute.String("application_id", req.ApplicationID))
	defer func() { endSpan(span, err) }()

	if err := dto.Validate(req); err != nil {
		return dto.ApplicationResponse{}, err
	}
	_, app, err := uc.applier.apply(ctx, req, func(app model.Application) (model.Application, error) {
		return app.SendToCommittee(time.Now().UTC())
	})
	if err != nil {
		return dto.ApplicationResponse{}, err
	}
	return toApplicationResponse(app), nil
}

// ---------------------------------------------------------------------------
// Cancel
// ---------------------------------------------------------------------------

// CancelApplicationUseCase withdraws a non-terminal application.
type CancelApplicationUseCase struct {
	applier applier
}

// NewCancelApplicationUseCase wires dependencies.
func NewCancelApplicationUseCase(
	appRepo port.ApplicationRepository,
	relay *OutboxRelay,
	logger *slog.Logger,
) *CancelApplicationUseCase {
	return &CancelApplicationUseCase{applier: applier{repo: appRepo, relay: relay, logger: logger}}
}

// Execute cancels the application.
func (uc *CancelApplicationUseCase) Execute(ctx context.Context, req dto.CancelApplicationRequest) (resp dto.ApplicationResponse, err error) {
	ctx, span := startSpan(ctx, "CancelApplication", attribute.String("application_id", req.ApplicationID))
	defer func() { endSpan(span, err) }()

	if err := dto.Validate(req); err != nil {
		return dto.ApplicationResponse{}, err
	}
	_, app, err := uc.applier.apply(ctx, req.ApplicationRef, func(app model.Application) (model.Application, error) {
		return app.Cancel(req.Reason, time.Now().UTC())
	})
	if err != nil {
		return dto.ApplicationResponse{}, err
	}
	return toApplicationResponse(app), nil
}
