package postgres

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/appraisal/internal/domain/model"
	"github.com/bibbank/appraisal/internal/domain/valueobject"
	"github.com/bibbank/appraisal/pkg/money"
)

// ---------------------------------------------------------------------------
// JSONB documents
// ---------------------------------------------------------------------------

// financialsDoc is stored in loan_applications.financials.
type financialsDoc struct {
	Snapshot        model.FinancialSnapshot `json:"snapshot"`
	BalanceSheet    *model.BalanceSheet     `json:"balanceSheet,omitempty"`
	IncomeStatement *model.IncomeStatement  `json:"incomeStatement,omitempty"`
	FamilyExpenses  *model.FamilyExpenses   `json:"familyExpenses,omitempty"`
}

type guaranteeDoc struct {
	Type          string          `json:"type"`
	Description   string          `json:"description,omitempty"`
	Currency      string          `json:"currency"`
	DeclaredValue decimal.Decimal `json:"declaredValue"`
	RetainedValue decimal.Decimal `json:"retainedValue"`
}

type agentDoc struct {
	ProposedRate           decimal.Decimal `json:"proposedRate"`
	ProposedPeriodicity    string          `json:"proposedPeriodicity,omitempty"`
	Strengths              string          `json:"strengths,omitempty"`
	Weaknesses             string          `json:"weaknesses,omitempty"`
	MitigatingFactors      string          `json:"mitigatingFactors,omitempty"`
	ProposedDurationMonths int             `json:"proposedDurationMonths,omitempty"`
}

// decisionDoc is one entry of loan_applications.decisions, keyed by stage,
// and the record column of application_decision_log.
type decisionDoc struct {
	RecordedAt        time.Time             `json:"recordedAt"`
	Stage             string                `json:"stage"`
	Decision          string                `json:"decision"`
	Author            string                `json:"author,omitempty"`
	Rationale         string                `json:"rationale,omitempty"`
	RecommendedAmount decimal.Decimal       `json:"recommendedAmount"`
	Complete          bool                  `json:"complete"`
	Agrees            bool                  `json:"agrees"`
	Agent             *agentDoc             `json:"agent,omitempty"`
	Visit             *model.VisitReport    `json:"visit,omitempty"`
	Committee         *model.CommitteeTerms `json:"committee,omitempty"`
}

// ---------------------------------------------------------------------------
// model -> document
// ---------------------------------------------------------------------------

func financialsOf(s model.ApplicationState) financialsDoc {
	return financialsDoc{
		Snapshot:        s.Snapshot,
		BalanceSheet:    s.BalanceSheet,
		IncomeStatement: s.IncomeStatement,
		FamilyExpenses:  s.FamilyExpenses,
	}
}

func guaranteeDocs(gs []model.Guarantee) []guaranteeDoc {
	out := make([]guaranteeDoc, 0, len(gs))
	for _, g := range gs {
		out = append(out, guaranteeDoc{
			Type:          g.Type.String(),
			Description:   g.Description,
			Currency:      g.DeclaredValue.Currency().Code(),
			DeclaredValue: g.DeclaredValue.Amount(),
			RetainedValue: g.RetainedValue.Amount(),
		})
	}
	return out
}

func decisionDocOf(r model.DecisionRecord) decisionDoc {
	doc := decisionDoc{
		RecordedAt:        r.RecordedAt,
		Stage:             r.Stage.String(),
		Decision:          r.Decision.String(),
		Author:            r.Author,
		Rationale:         r.Rationale,
		RecommendedAmount: r.RecommendedAmount,
		Complete:          r.Complete,
		Agrees:            r.Agrees,
		Visit:             r.Visit,
		Committee:         r.Committee,
	}
	if a := r.Agent; a != nil {
		doc.Agent = &agentDoc{
			ProposedRate:           a.ProposedRate,
			ProposedPeriodicity:    a.ProposedPeriodicity.String(),
			Strengths:              a.Strengths,
			Weaknesses:             a.Weaknesses,
			MitigatingFactors:      a.MitigatingFactors,
			ProposedDurationMonths: a.ProposedDurationMonths,
		}
	}
	return doc
}

func decisionDocs(rs []model.DecisionRecord) map[string]decisionDoc {
	out := make(map[string]decisionDoc, len(rs))
	for _, r := range rs {
		out[r.Stage.String()] = decisionDocOf(r)
	}
	return out
}

// ---------------------------------------------------------------------------
// document -> model
// ---------------------------------------------------------------------------

func (d guaranteeDoc) toModel() (model.Guarantee, error) {
	typ, err := valueobject.NewGuaranteeType(d.Type)
	if err != nil {
		return model.Guarantee{}, err
	}
	cur, err := money.NewCurrency(d.Currency)
	if err != nil {
		return model.Guarantee{}, err
	}
	return model.Guarantee{
		Type:          typ,
		Description:   d.Description,
		DeclaredValue: money.New(d.DeclaredValue, cur),
		RetainedValue: money.New(d.RetainedValue, cur),
	}, nil
}

func (d decisionDoc) toModel() (model.DecisionRecord, error) {
	stage, err := valueobject.NewDecisionStage(d.Stage)
	if err != nil {
		return model.DecisionRecord{}, err
	}
	decision, err := valueobject.NewDecision(d.Decision)
	if err != nil {
		return model.DecisionRecord{}, err
	}
	r := model.DecisionRecord{
		RecordedAt:        d.RecordedAt,
		Stage:             stage,
		Decision:          decision,
		Author:            d.Author,
		Rationale:         d.Rationale,
		RecommendedAmount: d.RecommendedAmount,
		Complete:          d.Complete,
		Agrees:            d.Agrees,
		Visit:             d.Visit,
		Committee:         d.Committee,
	}
	if a := d.Agent; a != nil {
		var periodicity valueobject.Periodicity
		if a.ProposedPeriodicity != "" {
			if periodicity, err = valueobject.NewPeriodicity(a.ProposedPeriodicity); err != nil {
				return model.DecisionRecord{}, err
			}
		}
		r.Agent = &model.AgentAssessment{
			ProposedRate:           a.ProposedRate,
			ProposedPeriodicity:    periodicity,
			Strengths:              a.Strengths,
			Weaknesses:             a.Weaknesses,
			MitigatingFactors:      a.MitigatingFactors,
			ProposedDurationMonths: a.ProposedDurationMonths,
		}
	}
	return r, nil
}

func guaranteesFromDocs(docs []guaranteeDoc) ([]model.Guarantee, error) {
	out := make([]model.Guarantee, 0, len(docs))
	for i, d := range docs {
		g, err := d.toModel()
		if err != nil {
			return nil, fmt.Errorf("guarantee %d: %w", i, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// decisionsFromDocs returns the records in review order.
func decisionsFromDocs(docs map[string]decisionDoc) ([]model.DecisionRecord, error) {
	out := make([]model.DecisionRecord, 0, len(docs))
	for _, stage := range valueobject.AllDecisionStages() {
		d, ok := docs[stage.String()]
		if !ok {
			continue
		}
		r, err := d.toModel()
		if err != nil {
			return nil, fmt.Errorf("decision %s: %w", stage, err)
		}
		out = append(out, r)
	}
	if len(out) != len(docs) {
		return nil, fmt.Errorf("decisions: %d entries under unknown stages", len(docs)-len(out))
	}
	return out, nil
}
