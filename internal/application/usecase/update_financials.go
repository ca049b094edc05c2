package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/bibbank/appraisal/internal/application/dto"
	"github.com/bibbank/appraisal/internal/domain/model"
	"github.com/bibbank/appraisal/internal/domain/port"
)

// UpdateFinancialsUseCase patches the declared financials of an application
// that has not reached the field visit yet.
type UpdateFinancialsUseCase struct {
	applier applier
}

// NewUpdateFinancialsUseCase wires dependencies.
func NewUpdateFinancialsUseCase(
	appRepo port.ApplicationRepository,
	relay *OutboxRelay,
	logger *slog.Logger,
) *UpdateFinancialsUseCase {
	return &UpdateFinancialsUseCase{applier: applier{repo: appRepo, relay: relay, logger: logger}}
}

// Execute merges the patch into the stored financials.
func (uc *UpdateFinancialsUseCase) Execute(
	ctx context.Context,
	req dto.UpdateFinancialsRequest,
) (resp dto.ApplicationResponse, err error) {
	ctx, span := startSpan(ctx, "UpdateFinancials", attribute.String("application_id", req.ApplicationID))
	defer func() { endSpan(span, err) }()

	if err := dto.Validate(req); err != nil {
		return dto.ApplicationResponse{}, err
	}
	_, app, err := uc.applier.apply(ctx, req.ApplicationRef, func(app model.Application) (model.Application, error) {
		guarantees, err := toGuarantees(app.Request().CurrencyOrDefault(), req.Guarantees)
		if err != nil {
			return app, err
		}
		return app.UpdateFinancials(model.FinancialsPatch{
			Snapshot:        req.Snapshot,
			BalanceSheet:    req.BalanceSheet,
			IncomeStatement: req.IncomeStatement,
			FamilyExpenses:  req.FamilyExpenses,
			Guarantees:      guarantees,
		}, time.Now().UTC())
	})
	if err != nil {
		return dto.ApplicationResponse{}, fmt.Errorf("update financials: %w", err)
	}
	return toApplicationResponse(app), nil
}
