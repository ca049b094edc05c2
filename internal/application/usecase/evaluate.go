package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/bibbank/appraisal/internal/application/dto"
	"github.com/bibbank/appraisal/internal/domain/model"
	"github.com/bibbank/appraisal/internal/domain/port"
	"github.com/bibbank/appraisal/internal/domain/service"
)

// DefaultEvaluationTTL is how long computed schedules, ratios and scores
// stay cached.
const DefaultEvaluationTTL = 24 * time.Hour

// ---------------------------------------------------------------------------
// Memoisation
// ---------------------------------------------------------------------------

// memo caches deterministic evaluations by a hash of their inputs. The
// cache is optional and its failures never fail an evaluation.
type memo struct {
	cache  port.EvaluationCache
	ttl    time.Duration
	logger *slog.Logger
	hits   metric.Int64Counter
}

func newMemo(cache port.EvaluationCache, ttl time.Duration, logger *slog.Logger) memo {
	if ttl <= 0 {
		ttl = DefaultEvaluationTTL
	}
	return memo{
		cache:  cache,
		ttl:    ttl,
		logger: logger,
		hits:   counter("appraisal.cache.hits", "Evaluations served from the cache"),
	}
}

// evaluationKey hashes kind and the JSON form of inputs.
func evaluationKey(kind string, inputs ...any) (string, error) {
	h := sha256.New()
	h.Write([]byte(kind))
	enc := json.NewEncoder(h)
	for _, in := range inputs {
		if err := enc.Encode(in); err != nil {
			return "", fmt.Errorf("encode %s key: %w", kind, err)
		}
	}
	return "appraisal:" + kind + ":" + hex.EncodeToString(h.Sum(nil)), nil
}

func cached[T any](ctx context.Context, m memo, kind string, compute func() (T, error), inputs ...any) (T, error) {
	if m.cache == nil {
		return compute()
	}
	key, err := evaluationKey(kind, inputs...)
	if err != nil {
		return compute()
	}

	var hit T
	found, err := m.cache.Get(ctx, key, &hit)
	switch {
	case err != nil:
		m.logger.Warn("evaluation cache read failed", "kind", kind, "error", err)
	case found:
		add(ctx, m.hits, attribute.String("kind", kind))
		return hit, nil
	}

	out, err := compute()
	if err != nil {
		return out, err
	}
	if err := m.cache.Set(ctx, key, out, m.ttl); err != nil {
		m.logger.Warn("evaluation cache write failed", "kind", kind, "error", err)
	}
	return out, nil
}

// loanKey is the cache identity of a loan request.
type loanKey struct {
	Amount         string `json:"amount"`
	AnnualRate     string `json:"annualRate"`
	Periodicity    string `json:"periodicity"`
	Currency       string `json:"currency"`
	DurationMonths int    `json:"durationMonths"`
}

func keyOf(req model.LoanRequest) loanKey {
	return loanKey{
		Amount:         req.Amount.String(),
		AnnualRate:     req.AnnualRate.String(),
		Periodicity:    req.Periodicity.String(),
		Currency:       req.CurrencyOrDefault().Code(),
		DurationMonths: req.DurationMonths,
	}
}

// ---------------------------------------------------------------------------
// Schedule
// ---------------------------------------------------------------------------

// ComputeScheduleUseCase computes repayment schedules.
type ComputeScheduleUseCase struct {
	appRepo port.ApplicationRepository
	calc    *service.AmortizationCalculator
	memo    memo
}

// NewComputeScheduleUseCase wires dependencies. cache may be nil.
func NewComputeScheduleUseCase(
	appRepo port.ApplicationRepository,
	calc *service.AmortizationCalculator,
	cache port.EvaluationCache,
	ttl time.Duration,
	logger *slog.Logger,
) *ComputeScheduleUseCase {
	return &ComputeScheduleUseCase{appRepo: appRepo, calc: calc, memo: newMemo(cache, ttl, logger)}
}

// Execute computes the schedule of an ad hoc loan request.
func (uc *ComputeScheduleUseCase) Execute(
	ctx context.Context,
	req dto.ComputeScheduleRequest,
) (resp dto.ScheduleResponse, err error) {
	ctx, span := startSpan(ctx, "ComputeSchedule")
	defer func() { endSpan(span, err) }()

	if err := dto.Validate(req); err != nil {
		return dto.ScheduleResponse{}, err
	}
	loan, err := toLoanRequest(uc.calc, req.LoanTerms)
	if err != nil {
		return dto.ScheduleResponse{}, err
	}
	return uc.schedule(ctx, loan)
}

// ExecuteForApplication computes the schedule of a stored application's
// request.
func (uc *ComputeScheduleUseCase) ExecuteForApplication(
	ctx context.Context,
	ref dto.ApplicationRef,
) (resp dto.ScheduleResponse, err error) {
	ctx, span := startSpan(ctx, "ComputeSchedule", attribute.String("application_id", ref.ApplicationID))
	defer func() { endSpan(span, err) }()

	if err := dto.Validate(ref); err != nil {
		return dto.ScheduleResponse{}, err
	}
	app, err := uc.appRepo.FindByID(ctx, ref.TenantID, ref.ApplicationID)
	if err != nil {
		return dto.ScheduleResponse{}, fmt.Errorf("find application: %w", err)
	}
	return uc.schedule(ctx, app.Request())
}

func (uc *ComputeScheduleUseCase) schedule(ctx context.Context, loan model.LoanRequest) (dto.ScheduleResponse, error) {
	return cached(ctx, uc.memo, "schedule", func() (dto.ScheduleResponse, error) {
		entries, err := uc.calc.ScheduleFor(loan)
		if err != nil {
			return dto.ScheduleResponse{}, fmt.Errorf("compute schedule: %w", err)
		}
		return toScheduleResponse(loan, entries), nil
	}, keyOf(loan))
}

// ---------------------------------------------------------------------------
// Ratios
// ---------------------------------------------------------------------------

// ComputeRatiosUseCase runs the ratio analysis.
type ComputeRatiosUseCase struct {
	appRepo  port.ApplicationRepository
	calc     *service.AmortizationCalculator
	analyzer *service.RatioAnalyzer
	policy   service.RatioPolicy
	memo     memo
}

// NewComputeRatiosUseCase wires dependencies. cache may be nil.
func NewComputeRatiosUseCase(
	appRepo port.ApplicationRepository,
	calc *service.AmortizationCalculator,
	policy service.RatioPolicy,
	cache port.EvaluationCache,
	ttl time.Duration,
	logger *slog.Logger,
) *ComputeRatiosUseCase {
	return &ComputeRatiosUseCase{
		appRepo:  appRepo,
		calc:     calc,
		analyzer: service.NewRatioAnalyzer(policy),
		policy:   policy,
		memo:     newMemo(cache, ttl, logger),
	}
}

// Execute analyses ad hoc financials at the given installment.
func (uc *ComputeRatiosUseCase) Execute(
	ctx context.Context,
	req dto.ComputeRatiosRequest,
) (resp model.RatioSet, err error) {
	ctx, span := startSpan(ctx, "ComputeRatios")
	defer func() { endSpan(span, err) }()

	if err := dto.Validate(req); err != nil {
		return model.RatioSet{}, err
	}
	cur, err := parseCurrency(req.Currency)
	if err != nil {
		return model.RatioSet{}, err
	}
	return uc.analyze(ctx, model.RatioInput{
		BalanceSheet:    req.BalanceSheet,
		IncomeStatement: req.IncomeStatement,
		FamilyExpenses:  req.FamilyExpenses,
		RequestedAmount: req.RequestedAmount,
		Installment:     req.Installment,
		Currency:        cur,
	})
}

// ExecuteForApplication analyses a stored application's financials at the
// installment of its loan request.
func (uc *ComputeRatiosUseCase) ExecuteForApplication(
	ctx context.Context,
	ref dto.ApplicationRef,
) (resp model.RatioSet, err error) {
	ctx, span := startSpan(ctx, "ComputeRatios", attribute.String("application_id", ref.ApplicationID))
	defer func() { endSpan(span, err) }()

	if err := dto.Validate(ref); err != nil {
		return model.RatioSet{}, err
	}
	app, err := uc.appRepo.FindByID(ctx, ref.TenantID, ref.ApplicationID)
	if err != nil {
		return model.RatioSet{}, fmt.Errorf("find application: %w", err)
	}
	loan := app.Request()
	installment, err := uc.calc.WithCurrency(loan.Currency).
		Installment(loan.Amount, loan.AnnualRate, loan.DurationMonths, loan.Periodicity)
	if err != nil {
		return model.RatioSet{}, fmt.Errorf("compute installment: %w", err)
	}
	return uc.analyze(ctx, app.RatioInput(installment))
}

func (uc *ComputeRatiosUseCase) analyze(ctx context.Context, in model.RatioInput) (model.RatioSet, error) {
	return cached(ctx, uc.memo, "ratios", func() (model.RatioSet, error) {
		return uc.analyzer.Analyze(in), nil
	}, ratioKey{
		BalanceSheet:    in.BalanceSheet,
		IncomeStatement: in.IncomeStatement,
		FamilyExpenses:  in.FamilyExpenses,
		RequestedAmount: in.RequestedAmount,
		Installment:     in.Installment,
		Currency:        in.Currency.Code(),
	}, uc.policy)
}

type ratioKey struct {
	BalanceSheet    *model.BalanceSheet    `json:"balanceSheet"`
	IncomeStatement *model.IncomeStatement `json:"incomeStatement"`
	FamilyExpenses  *model.FamilyExpenses  `json:"familyExpenses"`
	RequestedAmount decimal.Decimal        `json:"requestedAmount"`
	Installment     decimal.Decimal        `json:"installment"`
	Currency        string                 `json:"currency"`
}

// ---------------------------------------------------------------------------
// Score
// ---------------------------------------------------------------------------

// ComputeScoreUseCase computes credit scores.
type ComputeScoreUseCase struct {
	appRepo  port.ApplicationRepository
	calc     *service.AmortizationCalculator
	scorer   *service.CreditScorer
	memo     memo
	logger   *slog.Logger
	computed metric.Int64Counter
}

// NewComputeScoreUseCase wires dependencies. cache may be nil.
func NewComputeScoreUseCase(
	appRepo port.ApplicationRepository,
	calc *service.AmortizationCalculator,
	scorer *service.CreditScorer,
	cache port.EvaluationCache,
	ttl time.Duration,
	logger *slog.Logger,
) *ComputeScoreUseCase {
	return &ComputeScoreUseCase{
		appRepo:  appRepo,
		calc:     calc,
		scorer:   scorer,
		memo:     newMemo(cache, ttl, logger),
		logger:   logger,
		computed: counter("appraisal.scores.computed", "Credit scores computed, by recommendation"),
	}
}

// Execute scores an ad hoc loan request against a financial snapshot.
func (uc *ComputeScoreUseCase) Execute(
	ctx context.Context,
	req dto.ComputeScoreRequest,
) (resp model.CreditScore, err error) {
	ctx, span := startSpan(ctx, "ComputeScore")
	defer func() { endSpan(span, err) }()

	if err := dto.Validate(req); err != nil {
		return model.CreditScore{}, err
	}
	loan, err := toLoanRequest(uc.calc, req.Loan)
	if err != nil {
		return model.CreditScore{}, err
	}
	return uc.score(ctx, loan, req.Snapshot)
}

// ExecuteForApplication scores a stored application. Retained guarantees
// stand in for collateral when none was declared.
func (uc *ComputeScoreUseCase) ExecuteForApplication(
	ctx context.Context,
	ref dto.ApplicationRef,
) (resp model.CreditScore, err error) {
	ctx, span := startSpan(ctx, "ComputeScore", attribute.String("application_id", ref.ApplicationID))
	defer func() { endSpan(span, err) }()

	if err := dto.Validate(ref); err != nil {
		return model.CreditScore{}, err
	}
	app, err := uc.appRepo.FindByID(ctx, ref.TenantID, ref.ApplicationID)
	if err != nil {
		return model.CreditScore{}, fmt.Errorf("find application: %w", err)
	}
	return uc.score(ctx, app.Request(), app.ScoringSnapshot())
}

func (uc *ComputeScoreUseCase) score(
	ctx context.Context,
	loan model.LoanRequest,
	snap model.FinancialSnapshot,
) (model.CreditScore, error) {
	score, err := cached(ctx, uc.memo, "score", func() (model.CreditScore, error) {
		s, err := uc.scorer.Score(loan, snap)
		if err != nil {
			return model.CreditScore{}, fmt.Errorf("compute score: %w", err)
		}
		return s, nil
	}, keyOf(loan), snap, uc.scorer.Policy())
	if err != nil {
		return model.CreditScore{}, err
	}

	add(ctx, uc.computed, attribute.String("recommendation", string(score.Recommendation)))
	uc.logger.Debug("score computed",
		"total", score.Total.String(), "recommendation", string(score.Recommendation))
	return score, nil
}
