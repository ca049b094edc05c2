package usecase

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bibbank/appraisal/internal/application/dto"
	"github.com/bibbank/appraisal/internal/domain/model"
	"github.com/bibbank/appraisal/internal/domain/service"
	"github.com/bibbank/appraisal/internal/domain/valueobject"
	"github.com/bibbank/appraisal/pkg/money"
)

// ---------------------------------------------------------------------------
// Request -> domain
// ---------------------------------------------------------------------------

func parseCurrency(code string) (money.Currency, error) {
	if code == "" {
		return money.XOF, nil
	}
	cur, err := money.NewCurrency(code)
	if err != nil {
		return money.Currency{}, valueobject.NewValidationError("currency", err.Error())
	}
	return cur, nil
}

// toLoanRequest maps loan terms to a validated LoanRequest. Unknown
// periodicity labels resolve to monthly through calc, which logs them.
func toLoanRequest(calc *service.AmortizationCalculator, t dto.LoanTerms) (model.LoanRequest, error) {
	cur, err := parseCurrency(t.Currency)
	if err != nil {
		return model.LoanRequest{}, err
	}
	req := model.LoanRequest{
		Amount:         t.Amount,
		AnnualRate:     t.AnnualRate,
		Periodicity:    calc.ResolvePeriodicity(t.Periodicity),
		Currency:       cur,
		Purpose:        t.Purpose,
		DurationMonths: t.DurationMonths,
	}
	if err := req.Validate(); err != nil {
		return model.LoanRequest{}, err
	}
	return req, nil
}

// toGuarantees maps guarantees into cur. A nil list stays nil so that a
// patch without guarantees leaves them untouched.
func toGuarantees(cur money.Currency, in []dto.GuaranteeDTO) ([]model.Guarantee, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]model.Guarantee, 0, len(in))
	for i, g := range in {
		typ, err := valueobject.NewGuaranteeType(g.Type)
		if err != nil {
			return nil, err
		}
		guarantee, err := model.NewGuarantee(typ, g.Description,
			money.New(g.DeclaredValue, cur), money.New(g.RetainedValue, cur))
		if err != nil {
			return nil, fmt.Errorf("guarantee %d: %w", i, err)
		}
		out = append(out, guarantee)
	}
	return out, nil
}

func toDecisionRecord(calc *service.AmortizationCalculator, req dto.RecordDecisionRequest) (model.DecisionRecord, error) {
	stage, err := valueobject.NewDecisionStage(req.Stage)
	if err != nil {
		return model.DecisionRecord{}, err
	}
	decision, err := valueobject.NewDecision(req.Decision)
	if err != nil {
		return model.DecisionRecord{}, err
	}
	record := model.DecisionRecord{
		Stage:             stage,
		Decision:          decision,
		Author:            req.Author,
		Rationale:         req.Rationale,
		RecommendedAmount: req.RecommendedAmount,
		Complete:          req.Complete,
		Agrees:            req.Agrees,
	}
	if a := req.Agent; a != nil {
		record.Agent = &model.AgentAssessment{
			ProposedRate:           a.ProposedRate,
			Strengths:              a.Strengths,
			Weaknesses:             a.Weaknesses,
			MitigatingFactors:      a.MitigatingFactors,
			ProposedDurationMonths: a.ProposedDurationMonths,
		}
		if a.ProposedPeriodicity != "" {
			record.Agent.ProposedPeriodicity = calc.ResolvePeriodicity(a.ProposedPeriodicity)
		}
	}
	if v := req.Visit; v != nil {
		record.Visit = &model.VisitReport{
			VisitedAt:          v.VisitedAt,
			ValidatedAssets:    v.ValidatedAssets,
			ValidatedStock:     v.ValidatedStock,
			ValidatedLiquidity: v.ValidatedLiquidity,
			Comment:            v.Comment,
		}
	}
	if c := req.Committee; c != nil {
		record.Committee = &model.CommitteeTerms{
			AuthorizedAmount:    c.AuthorizedAmount,
			Rate:                c.Rate,
			FinancialDepositPct: c.FinancialDepositPct,
			GuaranteeTerms:      c.GuaranteeTerms,
			SpecialConditions:   c.SpecialConditions,
			Members:             append([]string(nil), c.Members...),
			DurationMonths:      c.DurationMonths,
			InstallmentCount:    c.InstallmentCount,
			Criteria:            model.CommitteeCriteria(c.Criteria),
		}
	}
	return record, nil
}

// ---------------------------------------------------------------------------
// Domain -> response
// ---------------------------------------------------------------------------

func toApplicationResponse(app model.Application) dto.ApplicationResponse {
	req := app.Request()
	resp := dto.ApplicationResponse{
		ID:       app.ID(),
		TenantID: app.TenantID(),
		Number:   app.Number(),
		ClientID: app.ClientID(),
		Status:   app.Status().String(),
		Loan: dto.LoanTerms{
			Amount:         req.Amount,
			AnnualRate:     req.AnnualRate,
			Periodicity:    req.Periodicity.String(),
			Currency:       req.CurrencyOrDefault().Code(),
			Purpose:        req.Purpose,
			DurationMonths: req.DurationMonths,
		},
		Snapshot:                app.Snapshot(),
		BalanceSheet:            app.BalanceSheet(),
		IncomeStatement:         app.IncomeStatement(),
		FamilyExpenses:          app.FamilyExpenses(),
		Guarantees:              make([]dto.GuaranteeDTO, 0, len(app.Guarantees())),
		TotalRetainedGuarantees: app.TotalRetainedGuarantees().Amount(),
		AgentRecommendedAmount:  app.AgentRecommendedAmount(),
		VisitDate:               app.VisitDate(),
		CancelReason:            app.CancelReason(),
		Decisions:               make([]dto.DecisionResponse, 0, len(app.Decisions())),
		Version:                 app.Version(),
		CreatedAt:               app.CreatedAt(),
		UpdatedAt:               app.UpdatedAt(),
	}
	for _, g := range app.Guarantees() {
		resp.Guarantees = append(resp.Guarantees, dto.GuaranteeDTO{
			Type:          g.Type.String(),
			Description:   g.Description,
			DeclaredValue: g.DeclaredValue.Amount(),
			RetainedValue: g.RetainedValue.Amount(),
		})
	}
	if a := app.Authorized(); a != nil {
		resp.Authorized = &dto.AuthorizedTerms{Amount: a.Amount, Rate: a.Rate, DurationMonths: a.DurationMonths}
	}
	for _, d := range app.Decisions() {
		resp.Decisions = append(resp.Decisions, toDecisionResponse(d))
	}
	return resp
}

func toDecisionResponse(d model.DecisionRecord) dto.DecisionResponse {
	out := dto.DecisionResponse{
		RecordedAt:        d.RecordedAt,
		Stage:             d.Stage.String(),
		Decision:          d.Decision.String(),
		Author:            d.Author,
		Rationale:         d.Rationale,
		RecommendedAmount: d.RecommendedAmount,
		Complete:          d.Complete,
		Agrees:            d.Agrees,
	}
	if a := d.Agent; a != nil {
		out.Agent = &dto.AgentAssessment{
			ProposedRate:           a.ProposedRate,
			ProposedPeriodicity:    a.ProposedPeriodicity.String(),
			Strengths:              a.Strengths,
			Weaknesses:             a.Weaknesses,
			MitigatingFactors:      a.MitigatingFactors,
			ProposedDurationMonths: a.ProposedDurationMonths,
		}
	}
	if v := d.Visit; v != nil {
		out.Visit = &dto.VisitReport{
			VisitedAt:          v.VisitedAt,
			ValidatedAssets:    v.ValidatedAssets,
			ValidatedStock:     v.ValidatedStock,
			ValidatedLiquidity: v.ValidatedLiquidity,
			Comment:            v.Comment,
		}
	}
	if c := d.Committee; c != nil {
		out.Committee = &dto.CommitteeTerms{
			AuthorizedAmount:    c.AuthorizedAmount,
			Rate:                c.Rate,
			FinancialDepositPct: c.FinancialDepositPct,
			GuaranteeTerms:      c.GuaranteeTerms,
			SpecialConditions:   c.SpecialConditions,
			Members:             append([]string(nil), c.Members...),
			DurationMonths:      c.DurationMonths,
			InstallmentCount:    c.InstallmentCount,
			Criteria:            dto.CommitteeCriteria(c.Criteria),
		}
	}
	return out
}

func toScheduleResponse(req model.LoanRequest, schedule []model.ScheduleEntry) dto.ScheduleResponse {
	resp := dto.ScheduleResponse{
		Periodicity:   req.Periodicity.String(),
		Currency:      req.CurrencyOrDefault().Code(),
		TotalInterest: model.TotalInterest(schedule),
		Periods:       len(schedule),
		Schedule:      schedule,
	}
	if len(schedule) > 0 {
		resp.Installment = schedule[0].Installment
	}
	resp.TotalPaid = decimal.Sum(model.TotalPrincipal(schedule), resp.TotalInterest)
	return resp
}
