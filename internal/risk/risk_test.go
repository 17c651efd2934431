package risk

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/forecast/internal/model"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func record(name string, punct float64, overdue int, vol float64) model.CounterpartyRecord {
	return model.CounterpartyRecord{
		Name:           name,
		OpenBalance:    dec("1000"),
		DaysOverdue:    &overdue,
		PunctualityPct: &punct,
		VolatilityPct:  vol,
	}
}

func TestScore_ConcreteLowTier(t *testing.T) {
	p, err := Score(record("Acme", 95, 0, 5))
	require.NoError(t, err)
	// 47.5 + 30 + 19 = 96.5, rounded half away from zero.
	assert.Equal(t, 97, p.PredictiveScore)
	assert.Equal(t, 3, p.DelinquencyPct)
	assert.Equal(t, model.RiskLow, p.Tier)
}

func TestScore_Table(t *testing.T) {
	tests := []struct {
		name    string
		punct   float64
		overdue int
		vol     float64
		score   int
		tier    model.RiskTier
	}{
		{"perfect", 100, 0, 0, 100, model.RiskLow},
		{"worst", 0, 40, 100, 0, model.RiskHigh},
		{"overdue floor", 50, 30, 50, 35, model.RiskHigh},
		{"medium", 60, 10, 20, 64, model.RiskMedium},
		{"just below 70", 80, 10, 50, 68, model.RiskMedium},
		{"exactly 70", 80, 5, 70, 70, model.RiskLow},
		{"exactly 40", 40, 20, 30, 40, model.RiskMedium},
		{"just below 40", 38, 20, 30, 39, model.RiskHigh},
		{"volatility clamped", 50, 0, 250, 55, model.RiskMedium},
		{"negative volatility clamped", 50, 0, -20, 75, model.RiskLow},
	}
	for _, tt := range tests {
		p, err := Score(record(tt.name, tt.punct, tt.overdue, tt.vol))
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.score, p.PredictiveScore, tt.name)
		assert.Equal(t, tt.tier, p.Tier, tt.name)
		assert.Equal(t, 100-p.PredictiveScore, p.DelinquencyPct, tt.name)
	}
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		score int
		want  model.RiskTier
	}{
		{100, model.RiskLow},
		{70, model.RiskLow},
		{69, model.RiskMedium},
		{40, model.RiskMedium},
		{39, model.RiskHigh},
		{0, model.RiskHigh},
		{LowRiskMinScore, model.RiskLow},
		{LowRiskMinScore - 1, model.RiskMedium},
		{MediumRiskMinScore - 1, DefaultTier},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TierFor(tt.score), "TierFor(%d)", tt.score)
	}
}

func TestScore_Bounded(t *testing.T) {
	for punct := 0.0; punct <= 100; punct += 12.5 {
		for overdue := 0; overdue <= 60; overdue += 7 {
			for vol := -10.0; vol <= 120; vol += 32.5 {
				p, err := Score(record("x", punct, overdue, vol))
				require.NoError(t, err)
				assert.GreaterOrEqual(t, p.PredictiveScore, 0)
				assert.LessOrEqual(t, p.PredictiveScore, 100)
				assert.Equal(t, 100-p.PredictiveScore, p.DelinquencyPct)
			}
		}
	}
}

func TestScore_IncompleteProfile(t *testing.T) {
	overdue := 3
	punct := 80.0
	badPunct := 120.0
	negOverdue := -1

	tests := []struct {
		name  string
		rec   model.CounterpartyRecord
		field string
	}{
		{"no punctuality", model.CounterpartyRecord{Name: "a", DaysOverdue: &overdue}, "payment_punctuality_pct"},
		{"no overdue", model.CounterpartyRecord{Name: "b", PunctualityPct: &punct}, "days_overdue"},
		{"punctuality out of range", model.CounterpartyRecord{Name: "c", PunctualityPct: &badPunct, DaysOverdue: &overdue}, "payment_punctuality_pct"},
		{"negative overdue", model.CounterpartyRecord{Name: "d", PunctualityPct: &punct, DaysOverdue: &negOverdue}, "days_overdue"},
	}
	for _, tt := range tests {
		_, err := Score(tt.rec)
		require.Error(t, err, tt.name)
		assert.True(t, errors.Is(err, model.ErrIncompleteProfile), tt.name)

		var ipe *model.IncompleteProfileError
		require.True(t, errors.As(err, &ipe), tt.name)
		assert.Equal(t, tt.field, ipe.Field, tt.name)
		assert.Equal(t, tt.rec.Name, ipe.Name, tt.name)
	}
}

func TestScoreBatch_IsolatesFailures(t *testing.T) {
	overdue := 0
	recs := []model.CounterpartyRecord{
		record("First", 95, 0, 5),
		{Name: "NoHistory", DaysOverdue: &overdue},
		record("Third", 20, 20, 80),
		record("Fourth", 60, 10, 20),
	}
	profiles, failures := ScoreBatch(recs)

	require.Len(t, profiles, 3)
	assert.Equal(t, "First", profiles[0].Name)
	assert.Equal(t, "Third", profiles[1].Name)
	assert.Equal(t, "Fourth", profiles[2].Name)

	require.Len(t, failures, 1)
	assert.Equal(t, "NoHistory", failures[0].Item)
	assert.True(t, errors.Is(failures[0].Err, model.ErrIncompleteProfile))
}

func TestScoreBatch_Idempotent(t *testing.T) {
	recs := []model.CounterpartyRecord{record("A", 88, 2, 12), record("B", 30, 25, 70)}
	a, fa := ScoreBatch(recs)
	b, fb := ScoreBatch(recs)
	assert.Equal(t, a, b)
	assert.Equal(t, fa, fb)
}

func TestVolatilityPct(t *testing.T) {
	assert.Equal(t, 0.0, VolatilityPct(nil))
	assert.Equal(t, 0.0, VolatilityPct([]decimal.Decimal{dec("100")}))
	assert.Equal(t, 0.0, VolatilityPct([]decimal.Decimal{dec("500"), dec("500"), dec("500")}))
	assert.Equal(t, 0.0, VolatilityPct([]decimal.Decimal{dec("-5"), dec("5")}))

	// mean 100, population std 50.
	assert.InDelta(t, 50.0, VolatilityPct([]decimal.Decimal{dec("50"), dec("150")}), 1e-9)

	// Wild swings cap at 100.
	assert.Equal(t, 100.0, VolatilityPct([]decimal.Decimal{dec("1"), dec("1000"), dec("1")}))
}
