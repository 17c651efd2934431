package recorder

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/forecast/internal/model"
)

var (
	testTime = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	testAsOf = time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func testRun(kind Kind, at time.Time) Run {
	alerts := []model.Alert{
		{Severity: model.SeverityCritical, Subject: "Globex", Message: "Globex is high risk", SuggestedAction: "immediate contact / renegotiate", EstimatedImpact: dec("15000.00")},
		{Severity: model.SeverityAttention, Subject: "2025-01-20", Message: "low balance projected on 2025-01-20", EstimatedImpact: dec("250.5")},
	}
	return Run{
		RecordedAt:      at,
		Kind:            kind,
		Fingerprint:     "5b1b0d2e-7c1f-5d43-9a0e-3f3c9d0f2a11",
		AsOf:            testAsOf,
		AlertCount:      len(alerts),
		Alerts:          alerts,
		Recommendations: 1,
		Failures:        2,
		Summary:         "3 profiles: 1 low, 1 medium, 1 high",
		Payload:         []byte(`{"fingerprint":"x"}`),
	}
}

func TestSQLiteRecorder_RoundTrip(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "reports.db"))
	require.NoError(t, err)
	defer r.Close()
	ctx := context.Background()

	require.NoError(t, r.Record(ctx, testRun(KindRisk, testTime)))
	second := testRun(KindBudget, testTime.Add(time.Hour))
	second.Alerts = nil
	second.AlertCount = 0
	require.NoError(t, r.Record(ctx, second))

	runs, err := r.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, KindBudget, runs[0].Kind)
	assert.Empty(t, runs[0].Alerts)

	got := runs[1]
	assert.Equal(t, KindRisk, got.Kind)
	assert.Equal(t, testTime, got.RecordedAt)
	assert.Equal(t, testAsOf, got.AsOf)
	assert.Equal(t, 2, got.AlertCount)
	assert.Equal(t, 1, got.Recommendations)
	assert.Equal(t, 2, got.Failures)
	assert.Equal(t, `{"fingerprint":"x"}`, string(got.Payload))
	require.Len(t, got.Alerts, 2)
	assert.Equal(t, model.SeverityCritical, got.Alerts[0].Severity)
	assert.True(t, got.Alerts[0].EstimatedImpact.Equal(dec("15000")))
	assert.True(t, got.Alerts[1].EstimatedImpact.Equal(dec("250.5")))

	limited, err := r.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, KindBudget, limited[0].Kind)

	all, err := r.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSQLiteRecorder_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.db")
	r, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	require.NoError(t, r.Record(context.Background(), testRun(KindForecast, testTime)))
	require.NoError(t, r.Close())

	r, err = NewSQLiteRecorder(path)
	require.NoError(t, err)
	defer r.Close()
	runs, err := r.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestCSVRecorder_NewFile(t *testing.T) {
	c := &CSVRecorder{Path: filepath.Join(t.TempDir(), "logs", "runs.csv")}
	require.NoError(t, c.Record(context.Background(), testRun(KindRisk, testTime)))

	data, err := os.ReadFile(c.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), Header+"\n")

	runs, err := c.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, KindRisk, runs[0].Kind)
	assert.Equal(t, 2, runs[0].AlertCount)
	assert.Nil(t, runs[0].Alerts)
	assert.Equal(t, testTime, runs[0].RecordedAt)
	assert.Equal(t, "3 profiles: 1 low, 1 medium, 1 high", runs[0].Summary)
}

func TestCSVRecorder_ExistingFileNewestFirst(t *testing.T) {
	c := &CSVRecorder{Path: filepath.Join(t.TempDir(), "runs.csv")}
	ctx := context.Background()
	require.NoError(t, c.Record(ctx, testRun(KindForecast, testTime)))
	require.NoError(t, c.Record(ctx, testRun(KindRisk, testTime.Add(time.Minute))))
	require.NoError(t, c.Record(ctx, testRun(KindBudget, testTime.Add(2*time.Minute))))

	runs, err := c.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, KindBudget, runs[0].Kind)
	assert.Equal(t, KindRisk, runs[1].Kind)
}

func TestCSVRecorder_MissingFile(t *testing.T) {
	c := &CSVRecorder{Path: filepath.Join(t.TempDir(), "none.csv")}
	runs, err := c.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Nil(t, runs)
}

func TestUnmarshalRun_Errors(t *testing.T) {
	_, err := UnmarshalRun([]string{"a"})
	assert.ErrorContains(t, err, "expected 8 fields")

	row := MarshalRun(testRun(KindRisk, testTime))
	row[colAlerts] = "many"
	_, err = UnmarshalRun(row)
	assert.ErrorContains(t, err, "parsing alerts")
}

func TestNoopRecorder(t *testing.T) {
	n := NewNoopRecorder()
	assert.NoError(t, n.Record(context.Background(), testRun(KindRisk, testTime)))
	assert.NoError(t, n.Close())
}

func TestForecastRun(t *testing.T) {
	rep := &model.ForecastReport{
		Fingerprint: "fp",
		AsOf:        testAsOf,
		Scenarios:   make([]model.ScenarioSet, 4),
		Daily: []model.DailyProjection{
			{Date: testAsOf.AddDate(0, 0, 1), RunningBalance: dec("900")},
			{Date: testAsOf.AddDate(0, 0, 2), RunningBalance: dec("-50")},
		},
		Alerts: []model.Alert{{Severity: model.SeverityCritical}},
	}
	run, err := ForecastRun(rep, testTime)
	require.NoError(t, err)
	assert.Equal(t, KindForecast, run.Kind)
	assert.Equal(t, 1, run.AlertCount)
	assert.Equal(t, "4 scenarios, 2 days, low -50.00 on 2025-01-17", run.Summary)

	var back model.ForecastReport
	require.NoError(t, json.Unmarshal(run.Payload, &back))
	assert.Equal(t, "fp", back.Fingerprint)
}

func TestRiskAndBudgetRun(t *testing.T) {
	risk := &model.RiskReport{
		Fingerprint: "r",
		Profiles: []model.CounterpartyRiskProfile{
			{Tier: model.RiskLow}, {Tier: model.RiskHigh}, {Tier: model.RiskHigh},
		},
		Recommendations: []model.Recommendation{{}},
		Failures:        []model.ItemFailure{{Item: "x", Err: model.ErrIncompleteProfile}},
	}
	run, err := RiskRun(risk, testTime)
	require.NoError(t, err)
	assert.Equal(t, "3 profiles: 1 low, 0 medium, 2 high", run.Summary)
	assert.Equal(t, 1, run.Recommendations)
	assert.Equal(t, 1, run.Failures)
	assert.Contains(t, string(run.Payload), `"error":"incomplete profile"`)

	budget := &model.BudgetReport{
		Period:     "2025-06",
		Categories: []model.CategoryBudget{{Status: model.StatusExceeded}, {Status: model.StatusOK}},
	}
	run, err = BudgetRun(budget, testTime)
	require.NoError(t, err)
	assert.Equal(t, KindBudget, run.Kind)
	assert.Equal(t, "period 2025-06: 2 categories, 1 exceeded", run.Summary)
}
