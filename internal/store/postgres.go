// Package store reads engine inputs from Postgres.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cleared-dev/forecast/internal/importer"
	"github.com/cleared-dev/forecast/internal/model"
	"github.com/cleared-dev/forecast/internal/provider"
)

// Schema creates the tables the providers read. Amounts are numeric and are
// read back as text so decimals survive exactly.
const Schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id          BIGSERIAL PRIMARY KEY,
	posted_at   DATE NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	amount      NUMERIC(14,2) NOT NULL
);
CREATE INDEX IF NOT EXISTS transactions_posted_at ON transactions (posted_at);

CREATE TABLE IF NOT EXISTS counterparty_features (
	name            TEXT PRIMARY KEY,
	open_balance    NUMERIC(14,2) NOT NULL DEFAULT 0,
	days_overdue    INTEGER,
	punctuality_pct DOUBLE PRECISION,
	volatility_pct  DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS budget_plans (
	period          TEXT NOT NULL,
	category_name   TEXT NOT NULL,
	flow_direction  TEXT NOT NULL,
	planned_amount  NUMERIC(14,2) NOT NULL,
	realized_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
	growth_rates    NUMERIC[] NOT NULL DEFAULT '{}',
	PRIMARY KEY (period, category_name)
);
`

const (
	// Months without transactions between the first and last active month
	// come back as zero rows so LIMIT counts calendar months.
	seriesQuery = `
WITH monthly AS (
	SELECT date_trunc('month', posted_at) AS month,
	       COALESCE(SUM(amount) FILTER (WHERE amount > 0), 0) AS entries,
	       COALESCE(-SUM(amount) FILTER (WHERE amount < 0), 0) AS exits
	FROM transactions
	GROUP BY 1
), months AS (
	SELECT generate_series(min(month), max(month), interval '1 month') AS month
	FROM monthly
)
SELECT to_char(m.month, 'YYYY-MM'),
       COALESCE(x.entries, 0)::text,
       COALESCE(x.exits, 0)::text
FROM months m
LEFT JOIN monthly x ON x.month = m.month
ORDER BY m.month DESC
LIMIT $1`

	counterpartiesQuery = `
SELECT name, open_balance::text, days_overdue::text, punctuality_pct::text,
       COALESCE(volatility_pct, 0)::text
FROM counterparty_features
ORDER BY name`

	plansQuery = `
SELECT period, category_name, flow_direction, planned_amount::text,
       realized_amount::text, array_to_string(growth_rates, ';')
FROM budget_plans
WHERE period = $1
ORDER BY category_name`
)

// querier is the part of pgxpool.Pool the providers use.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Postgres implements the input providers over a connection pool.
type Postgres struct {
	pool *pgxpool.Pool
	q    querier
}

var (
	_ provider.HistoricalSeriesProvider    = (*Postgres)(nil)
	_ provider.CounterpartyHistoryProvider = (*Postgres)(nil)
	_ provider.BudgetPlanProvider          = (*Postgres)(nil)
)

// Open connects to databaseURL and checks the connection.
func Open(ctx context.Context, databaseURL string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Postgres{pool: pool, q: pool}, nil
}

// Close releases the pool.
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// Migrate creates missing tables.
func (p *Postgres) Migrate(ctx context.Context) error {
	if p.pool == nil {
		return fmt.Errorf("database pool not initialized")
	}
	if _, err := p.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Series returns monthly aggregates of the transactions table, oldest first.
func (p *Postgres) Series(ctx context.Context, lookback int) ([]model.PeriodAggregate, error) {
	var limit any
	if lookback > 0 {
		limit = lookback
	}
	rows, err := p.q.Query(ctx, seriesQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	recs, err := collectText(rows, 3)
	if err != nil {
		return nil, fmt.Errorf("reading transactions: %w", err)
	}

	out := make([]model.PeriodAggregate, len(recs))
	for i, rec := range recs {
		agg, err := provider.UnmarshalAggregate(rec)
		if err != nil {
			return nil, fmt.Errorf("period %s: %w", rec[0], err)
		}
		// Query is newest first so LIMIT keeps the most recent periods.
		out[len(recs)-1-i] = agg
	}
	return importer.Tail(importer.FillGaps(out), lookback), nil
}

// Counterparties returns every row of counterparty_features. Rows with
// values the codec rejects are returned as failures.
func (p *Postgres) Counterparties(ctx context.Context) ([]model.CounterpartyRecord, []model.ItemFailure, error) {
	rows, err := p.q.Query(ctx, counterpartiesQuery)
	if err != nil {
		return nil, nil, fmt.Errorf("querying counterparty_features: %w", err)
	}
	recs, err := collectText(rows, 5)
	if err != nil {
		return nil, nil, fmt.Errorf("reading counterparty_features: %w", err)
	}

	out := make([]model.CounterpartyRecord, 0, len(recs))
	var failures []model.ItemFailure
	for _, rec := range recs {
		cp, err := provider.UnmarshalCounterparty(rec)
		if err != nil {
			failures = append(failures, model.ItemFailure{Item: rec[0], Err: err})
			continue
		}
		out = append(out, cp)
	}
	return out, failures, nil
}

// Plans returns the budget_plans rows for period.
func (p *Postgres) Plans(ctx context.Context, period string) ([]model.CategoryPlan, []model.ItemFailure, error) {
	rows, err := p.q.Query(ctx, plansQuery, period)
	if err != nil {
		return nil, nil, fmt.Errorf("querying budget_plans: %w", err)
	}
	recs, err := collectText(rows, 6)
	if err != nil {
		return nil, nil, fmt.Errorf("reading budget_plans: %w", err)
	}

	out := make([]model.CategoryPlan, 0, len(recs))
	var failures []model.ItemFailure
	for _, rec := range recs {
		row, err := provider.UnmarshalBudgetRow(rec)
		if err != nil {
			failures = append(failures, model.ItemFailure{Item: rec[1], Err: err})
			continue
		}
		out = append(out, row.Plan)
	}
	return out, failures, nil
}

// collectText scans rows of nullable text columns. NULL becomes "".
func collectText(rows pgx.Rows, cols int) ([][]string, error) {
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		vals := make([]*string, cols)
		dest := make([]any, cols)
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		rec := make([]string, cols)
		for i, v := range vals {
			if v != nil {
				rec[i] = *v
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
