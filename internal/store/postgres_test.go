package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/forecast/internal/model"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func s(v string) *string { return &v }

type fakeRows struct {
	data   [][]*string
	i      int
	closed bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.i < len(r.data) {
		r.i++
		return true
	}
	return false
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.i-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: %d targets for %d columns", len(dest), len(row))
	}
	for j, d := range dest {
		p, ok := d.(**string)
		if !ok {
			return fmt.Errorf("scan: column %d: unsupported target %T", j, d)
		}
		*p = row[j]
	}
	return nil
}

type fakeQuerier struct {
	rows *fakeRows
	err  error
	sql  string
	args []any
}

func (q *fakeQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.sql = sql
	q.args = args
	if q.err != nil {
		return nil, q.err
	}
	return q.rows, nil
}

func TestSeries_OldestFirst(t *testing.T) {
	q := &fakeQuerier{rows: &fakeRows{data: [][]*string{
		{s("2025-03"), s("300.00"), s("120.00")},
		{s("2025-02"), s("200.00"), s("110.00")},
		{s("2025-01"), s("100.00"), s("100.00")},
	}}}
	p := &Postgres{q: q}

	series, err := p.Series(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, series, 3)
	assert.Equal(t, "2025-01", series[0].Label)
	assert.Equal(t, "2025-03", series[2].Label)
	assert.True(t, series[2].Exits.Equal(dec("120")))
	assert.Equal(t, []any{3}, q.args)
	assert.True(t, q.rows.closed)
}

func TestSeries_NoLookbackMeansNoLimit(t *testing.T) {
	q := &fakeQuerier{rows: &fakeRows{}}
	p := &Postgres{q: q}

	series, err := p.Series(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, series)
	require.Len(t, q.args, 1)
	assert.Nil(t, q.args[0])
	assert.Contains(t, q.sql, "LIMIT $1")
}

func TestSeries_QueryError(t *testing.T) {
	p := &Postgres{q: &fakeQuerier{err: errors.New("connection refused")}}
	_, err := p.Series(context.Background(), 6)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "querying transactions")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCounterparties_NullHistory(t *testing.T) {
	q := &fakeQuerier{rows: &fakeRows{data: [][]*string{
		{s("Acme"), s("1200.00"), s("0"), s("95"), s("5")},
		{s("Newco"), s("300.00"), nil, nil, s("0")},
	}}}
	p := &Postgres{q: q}

	recs, failures, err := p.Counterparties(context.Background())
	require.NoError(t, err)
	assert.Empty(t, failures)
	require.Len(t, recs, 2)
	require.NotNil(t, recs[0].PunctualityPct)
	assert.InDelta(t, 95.0, *recs[0].PunctualityPct, 1e-9)
	assert.Nil(t, recs[1].DaysOverdue)
	assert.Nil(t, recs[1].PunctualityPct)
}

func TestCounterparties_BadValueIsItemFailure(t *testing.T) {
	q := &fakeQuerier{rows: &fakeRows{data: [][]*string{
		{s("Acme"), s("lots"), s("0"), s("95"), s("5")},
		{s("Globex"), s("900.00"), s("10"), s("60"), s("20")},
	}}}
	recs, failures, err := (&Postgres{q: q}).Counterparties(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Globex", recs[0].Name)
	require.Len(t, failures, 1)
	assert.Equal(t, "Acme", failures[0].Item)
	assert.ErrorContains(t, failures[0].Err, "open_balance")
}

func TestPlans(t *testing.T) {
	q := &fakeQuerier{rows: &fakeRows{data: [][]*string{
		{s("2025-06"), s("Payroll"), s("outflow"), s("10000.00"), s("11500.00"), s("")},
		{s("2025-06"), s("Sales"), s("inflow"), s("20000.00"), s("21000.00"), s("0.10;0.05")},
	}}}
	p := &Postgres{q: q}

	plans, failures, err := p.Plans(context.Background(), "2025-06")
	require.NoError(t, err)
	assert.Empty(t, failures)
	require.Len(t, plans, 2)
	assert.Equal(t, model.FlowOutflow, plans[0].Direction)
	assert.Empty(t, plans[0].GrowthRates)
	require.Len(t, plans[1].GrowthRates, 2)
	assert.True(t, plans[1].GrowthRates[0].Equal(dec("0.1")))
	assert.Equal(t, []any{"2025-06"}, q.args)
}

func TestPlans_BadAmountIsItemFailure(t *testing.T) {
	q := &fakeQuerier{rows: &fakeRows{data: [][]*string{
		{s("2025-06"), s("Payroll"), s("outflow"), s("10000.00"), s("11500.00"), s("")},
		{s("2025-06"), s("Travel"), s("outflow"), s("n/a"), s("500.00"), s("")},
	}}}
	plans, failures, err := (&Postgres{q: q}).Plans(context.Background(), "2025-06")
	require.NoError(t, err)
	require.Len(t, plans, 1)
	require.Len(t, failures, 1)
	assert.Equal(t, "Travel", failures[0].Item)
	assert.ErrorContains(t, failures[0].Err, "planned_amount")
}

func TestSeries_FillsMissingMonths(t *testing.T) {
	q := &fakeQuerier{rows: &fakeRows{data: [][]*string{
		{s("2025-05"), s("5000.00"), s("0")},
		{s("2025-04"), s("4000.00"), s("0")},
		{s("2025-01"), s("1000.00"), s("0")},
	}}}
	p := &Postgres{q: q}

	series, err := p.Series(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, series, 5)
	labels := make([]string, len(series))
	for i, a := range series {
		labels[i] = a.Label
	}
	assert.Equal(t, []string{"2025-01", "2025-02", "2025-03", "2025-04", "2025-05"}, labels)
	assert.True(t, series[1].Entries.IsZero())
	assert.True(t, series[2].Exits.IsZero())

	q.rows = &fakeRows{data: [][]*string{
		{s("2025-05"), s("5000.00"), s("0")},
		{s("2025-02"), s("2000.00"), s("0")},
	}}
	series, err = p.Series(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, "2025-04", series[0].Label)
	assert.Equal(t, "2025-05", series[1].Label)
}

func TestSeriesQueryGeneratesMonths(t *testing.T) {
	assert.Contains(t, seriesQuery, "generate_series")
	assert.Contains(t, seriesQuery, "LEFT JOIN monthly")
}

func TestSchemaNamesTables(t *testing.T) {
	for _, table := range []string{"transactions", "counterparty_features", "budget_plans"} {
		assert.True(t, strings.Contains(Schema, "CREATE TABLE IF NOT EXISTS "+table), table)
	}
}

func TestMigrate_NoPool(t *testing.T) {
	err := (&Postgres{}).Migrate(context.Background())
	assert.ErrorContains(t, err, "not initialized")
}
