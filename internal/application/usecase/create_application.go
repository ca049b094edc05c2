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
	"github.com/bibbank/appraisal/internal/domain/service"
)

// CreateApplicationUseCase opens a loan application with the client's
// declared financials, and optionally submits it.
type CreateApplicationUseCase struct {
	appRepo port.ApplicationRepository
	relay   *OutboxRelay
	calc    *service.AmortizationCalculator
	logger  *slog.Logger
}

// NewCreateApplicationUseCase wires dependencies.
func NewCreateApplicationUseCase(
	appRepo port.ApplicationRepository,
	relay *OutboxRelay,
	calc *service.AmortizationCalculator,
	logger *slog.Logger,
) *CreateApplicationUseCase {
	return &CreateApplicationUseCase{appRepo: appRepo, relay: relay, calc: calc, logger: logger}
}

// Execute validates, creates and persists the application.
func (uc *CreateApplicationUseCase) Execute(
	ctx context.Context,
	req dto.CreateApplicationRequest,
) (resp dto.ApplicationResponse, err error) {
	ctx, span := startSpan(ctx, "CreateApplication", attribute.String("tenant_id", req.TenantID))
	defer func() { endSpan(span, err) }()

	if err := dto.Validate(req); err != nil {
		return dto.ApplicationResponse{}, err
	}
	now := time.Now().UTC()

	// 1. Build the loan request and the application aggregate.
	loan, err := toLoanRequest(uc.calc, req.Loan)
	if err != nil {
		return dto.ApplicationResponse{}, fmt.Errorf("loan request: %w", err)
	}
	app, err := model.NewApplication(req.TenantID, req.ClientID, loan, req.Snapshot, now)
	if err != nil {
		return dto.ApplicationResponse{}, fmt.Errorf("create application: %w", err)
	}

	// 2. Attach the detailed financials.
	guarantees, err := toGuarantees(loan.CurrencyOrDefault(), req.Guarantees)
	if err != nil {
		return dto.ApplicationResponse{}, err
	}
	app, err = app.UpdateFinancials(model.FinancialsPatch{
		BalanceSheet:    req.BalanceSheet,
		IncomeStatement: req.IncomeStatement,
		FamilyExpenses:  req.FamilyExpenses,
		Guarantees:      guarantees,
	}, now)
	if err != nil {
		return dto.ApplicationResponse{}, fmt.Errorf("attach financials: %w", err)
	}

	// 3. Submit right away when asked to.
	if req.Submit {
		if app, err = app.Submit(now); err != nil {
			return dto.ApplicationResponse{}, fmt.Errorf("submit application: %w", err)
		}
	}

	// 4. Persist with the events, then relay them.
	if err := uc.appRepo.Save(ctx, app); err != nil {
		return dto.ApplicationResponse{}, fmt.Errorf("save application: %w", err)
	}
	uc.relay.flush(ctx)

	uc.logger.Info("application created",
		"application_id", app.ID(), "number", app.Number(), "status", app.Status().String())
	return toApplicationResponse(app), nil
}
