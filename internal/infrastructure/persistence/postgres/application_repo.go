package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bibbank/appraisal/internal/domain/model"
	"github.com/bibbank/appraisal/internal/domain/port"
	"github.com/bibbank/appraisal/internal/domain/valueobject"
	"github.com/bibbank/appraisal/pkg/events"
	"github.com/bibbank/appraisal/pkg/money"
	pkgpostgres "github.com/bibbank/appraisal/pkg/postgres"
)

// ApplicationRepo implements port.ApplicationRepository.
type ApplicationRepo struct {
	pool *pgxpool.Pool
}

// NewApplicationRepo creates a new repository backed by PostgreSQL.
func NewApplicationRepo(pool *pgxpool.Pool) *ApplicationRepo {
	return &ApplicationRepo{pool: pool}
}

var (
	_ port.ApplicationRepository = (*ApplicationRepo)(nil)
	_ port.OutboxStore           = (*ApplicationRepo)(nil)
)

const applicationColumns = `
	id, tenant_id, number, client_id, status,
	requested_amount, annual_rate, periodicity, duration_months, currency, purpose,
	agent_recommended_amount, authorized_amount, authorized_rate, authorized_duration_months,
	visit_date, cancel_reason, financials, guarantees, decisions,
	version, created_at, updated_at`

// Save upserts the application with optimistic locking, appends its new
// decision records to the decision log and writes its domain events to the
// outbox, in one transaction.
func (r *ApplicationRepo) Save(ctx context.Context, app model.Application) error {
	s := app.State()

	financials, err := json.Marshal(financialsOf(s))
	if err != nil {
		return fmt.Errorf("encode financials: %w", err)
	}
	guarantees, err := json.Marshal(guaranteeDocs(s.Guarantees))
	if err != nil {
		return fmt.Errorf("encode guarantees: %w", err)
	}
	decisions, err := json.Marshal(decisionDocs(s.Decisions))
	if err != nil {
		return fmt.Errorf("encode decisions: %w", err)
	}

	var (
		authAmount, authRate decimal.NullDecimal
		authDuration         *int
		agentAmount          decimal.NullDecimal
	)
	if a := s.Authorized; a != nil {
		authAmount = decimal.NewNullDecimal(a.Amount)
		authRate = decimal.NewNullDecimal(a.Rate)
		authDuration = &a.DurationMonths
	}
	if s.AgentRecommendedAmount != nil {
		agentAmount = decimal.NewNullDecimal(*s.AgentRecommendedAmount)
	}

	query := `
		INSERT INTO loan_applications (` + applicationColumns + `
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
		ON CONFLICT (id) DO UPDATE SET
			status                     = EXCLUDED.status,
			agent_recommended_amount   = EXCLUDED.agent_recommended_amount,
			authorized_amount          = EXCLUDED.authorized_amount,
			authorized_rate            = EXCLUDED.authorized_rate,
			authorized_duration_months = EXCLUDED.authorized_duration_months,
			visit_date                 = EXCLUDED.visit_date,
			cancel_reason              = EXCLUDED.cancel_reason,
			financials                 = EXCLUDED.financials,
			guarantees                 = EXCLUDED.guarantees,
			decisions                  = EXCLUDED.decisions,
			version                    = loan_applications.version + 1,
			updated_at                 = EXCLUDED.updated_at
		WHERE loan_applications.version = $21
		  AND loan_applications.tenant_id = EXCLUDED.tenant_id
	`
	req := s.Request
	return pkgpostgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query,
			s.ID, s.TenantID, s.Number, s.ClientID, s.Status.String(),
			req.Amount, req.AnnualRate, req.Periodicity.String(), req.DurationMonths,
			req.CurrencyOrDefault().Code(), req.Purpose,
			agentAmount, authAmount, authRate, authDuration,
			s.VisitDate, s.CancelReason, financials, guarantees, decisions,
			s.Version, s.CreatedAt, s.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("save application: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return valueobject.ErrConcurrentModification
		}
		if err := r.appendDecisionLog(ctx, tx, s); err != nil {
			return err
		}
		return r.writeOutbox(ctx, tx, app)
	})
}

// writeOutbox writes the application's domain events to the transactional
// outbox table within the given transaction.
func (r *ApplicationRepo) writeOutbox(ctx context.Context, tx pgx.Tx, app model.Application) error {
	for _, evt := range app.DomainEvents() {
		entry, err := events.NewOutboxEntry(evt)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO outbox (id, aggregate_id, aggregate_type, event_type, tenant_id, payload, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			entry.ID, entry.AggregateID, entry.AggregateType, entry.EventType,
			entry.TenantID, entry.Payload, entry.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert outbox event: %w", err)
		}
	}
	return nil
}

// FetchUnpublished returns up to batchSize unpublished outbox entries,
// oldest first.
func (r *ApplicationRepo) FetchUnpublished(ctx context.Context, batchSize int) ([]events.OutboxEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, aggregate_id, aggregate_type, event_type, tenant_id, payload, created_at, published_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at, seq
		LIMIT $1`, batchSize)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var entries []events.OutboxEntry
	for rows.Next() {
		var e events.OutboxEntry
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.AggregateType, &e.EventType,
			&e.TenantID, &e.Payload, &e.CreatedAt, &e.PublishedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return entries, nil
}

// MarkPublished stamps the given outbox entries as published.
func (r *ApplicationRepo) MarkPublished(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := r.pool.Exec(ctx,
		`UPDATE outbox SET published_at = NOW() WHERE id = ANY($1::uuid[]) AND published_at IS NULL`, ids); err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

// appendDecisionLog inserts every record not logged yet. A record is
// identified by its stage and recording time, so a replaced record keeps
// its log row.
func (r *ApplicationRepo) appendDecisionLog(ctx context.Context, tx pgx.Tx, s model.ApplicationState) error {
	if len(s.Decisions) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, d := range s.Decisions {
		record, err := json.Marshal(decisionDocOf(d))
		if err != nil {
			return fmt.Errorf("encode decision %s: %w", d.Stage, err)
		}
		batch.Queue(`
			INSERT INTO application_decision_log (
				application_id, tenant_id, stage, decision, author,
				recommended_amount, record, recorded_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (application_id, stage, recorded_at) DO NOTHING`,
			s.ID, s.TenantID, d.Stage.String(), d.Decision.String(), d.Author,
			d.RecommendedAmount, record, d.RecordedAt,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("append decision log: %w", err)
	}
	return nil
}

// FindByID retrieves a single application.
func (r *ApplicationRepo) FindByID(ctx context.Context, tenantID, id string) (model.Application, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Application{}, valueobject.ErrApplicationNotFound
	}
	query := `SELECT ` + applicationColumns + `
		FROM loan_applications
		WHERE tenant_id = $1 AND id = $2`
	app, err := scanApplication(r.pool.QueryRow(ctx, query, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Application{}, valueobject.ErrApplicationNotFound
	}
	return app, err
}

// List returns a page of the tenant's applications, newest first.
func (r *ApplicationRepo) List(ctx context.Context, tenantID string, f port.ApplicationFilter) ([]model.Application, error) {
	var (
		where = []string{"tenant_id = $1"}
		args  = []any{tenantID}
	)
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}
	if f.ClientID != "" {
		args = append(args, f.ClientID)
		where = append(where, "client_id = $"+strconv.Itoa(len(args)))
	}
	query := `SELECT ` + applicationColumns + `
		FROM loan_applications
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_at DESC, id`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += " OFFSET $" + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}
	defer rows.Close()

	var result []model.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, app)
	}
	return result, rows.Err()
}

// Statistics aggregates the tenant's applications by status.
func (r *ApplicationRepo) Statistics(ctx context.Context, tenantID string) (port.Statistics, error) {
	query := `
		SELECT status,
		       COUNT(*),
		       COALESCE(SUM(requested_amount), 0),
		       COALESCE(SUM(authorized_amount) FILTER (WHERE status = 'APPROVED'), 0)
		FROM loan_applications
		WHERE tenant_id = $1
		GROUP BY status`
	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return port.Statistics{}, fmt.Errorf("query statistics: %w", err)
	}
	defer rows.Close()

	stats := port.Statistics{ByStatus: map[string]int{}}
	for rows.Next() {
		var (
			statusStr           string
			count               int
			requested, approved decimal.Decimal
		)
		if err := rows.Scan(&statusStr, &count, &requested, &approved); err != nil {
			return port.Statistics{}, fmt.Errorf("scan statistics: %w", err)
		}
		stats.ByStatus[statusStr] = count
		stats.Total += count
		stats.RequestedAmount = stats.RequestedAmount.Add(requested)
		stats.ApprovedAmount = stats.ApprovedAmount.Add(approved)
		if st, err := valueobject.NewApplicationStatus(statusStr); err == nil && st.IsInProgress() {
			stats.InProgress += count
		}
	}
	return stats, rows.Err()
}

// ---------------------------------------------------------------------------
// scan helpers
// ---------------------------------------------------------------------------

type scannable interface {
	Scan(dest ...any) error
}

func scanApplication(row scannable) (model.Application, error) {
	var (
		s                            model.ApplicationState
		statusStr, periodicityStr    string
		currencyStr                  string
		agentAmount                  decimal.NullDecimal
		authAmount, authRate         decimal.NullDecimal
		authDuration                 *int
		visitDate                    *time.Time
		financialsRaw, guaranteesRaw []byte
		decisionsRaw                 []byte
	)
	err := row.Scan(
		&s.ID, &s.TenantID, &s.Number, &s.ClientID, &statusStr,
		&s.Request.Amount, &s.Request.AnnualRate, &periodicityStr, &s.Request.DurationMonths,
		&currencyStr, &s.Request.Purpose,
		&agentAmount, &authAmount, &authRate, &authDuration,
		&visitDate, &s.CancelReason, &financialsRaw, &guaranteesRaw, &decisionsRaw,
		&s.Version, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Application{}, err
		}
		return model.Application{}, fmt.Errorf("scan application: %w", err)
	}

	if s.Status, err = valueobject.NewApplicationStatus(statusStr); err != nil {
		return model.Application{}, fmt.Errorf("parse status: %w", err)
	}
	if s.Request.Periodicity, err = valueobject.NewPeriodicity(periodicityStr); err != nil {
		return model.Application{}, fmt.Errorf("parse periodicity: %w", err)
	}
	if s.Request.Currency, err = money.NewCurrency(strings.TrimSpace(currencyStr)); err != nil {
		return model.Application{}, fmt.Errorf("parse currency: %w", err)
	}
	if agentAmount.Valid {
		s.AgentRecommendedAmount = &agentAmount.Decimal
	}
	if authAmount.Valid {
		s.Authorized = &model.AuthorizedTerms{Amount: authAmount.Decimal, Rate: authRate.Decimal}
		if authDuration != nil {
			s.Authorized.DurationMonths = *authDuration
		}
	}
	s.VisitDate = visitDate

	var fin financialsDoc
	if err := json.Unmarshal(financialsRaw, &fin); err != nil {
		return model.Application{}, fmt.Errorf("decode financials: %w", err)
	}
	s.Snapshot = fin.Snapshot
	s.BalanceSheet = fin.BalanceSheet
	s.IncomeStatement = fin.IncomeStatement
	s.FamilyExpenses = fin.FamilyExpenses

	var gdocs []guaranteeDoc
	if err := json.Unmarshal(guaranteesRaw, &gdocs); err != nil {
		return model.Application{}, fmt.Errorf("decode guarantees: %w", err)
	}
	if s.Guarantees, err = guaranteesFromDocs(gdocs); err != nil {
		return model.Application{}, err
	}

	var ddocs map[string]decisionDoc
	if err := json.Unmarshal(decisionsRaw, &ddocs); err != nil {
		return model.Application{}, fmt.Errorf("decode decisions: %w", err)
	}
	if s.Decisions, err = decisionsFromDocs(ddocs); err != nil {
		return model.Application{}, err
	}

	return model.ReconstructApplication(s), nil
}
