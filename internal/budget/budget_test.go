package budget

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

func TestTrack_ConcreteExceeded(t *testing.T) {
	b, err := Track(model.CategoryPlan{
		Category:  "Payroll",
		Direction: model.FlowOutflow,
		Planned:   dec("10000"),
		Realized:  dec("11500"),
	})
	require.NoError(t, err)
	assert.True(t, b.VariancePct.Equal(dec("115")), "variance %s", b.VariancePct)
	assert.Equal(t, model.StatusExceeded, b.Status)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		dir  model.FlowDirection
		pct  string
		want model.BudgetStatus
	}{
		{model.FlowOutflow, "0", model.StatusOK},
		{model.FlowOutflow, "89.99", model.StatusOK},
		{model.FlowOutflow, "90", model.StatusAttention},
		{model.FlowOutflow, "100", model.StatusAttention},
		{model.FlowOutflow, "100.01", model.StatusExceeded},
		{model.FlowInflow, "99.99", model.StatusOK},
		{model.FlowInflow, "100", model.StatusSuperseded},
		{model.FlowInflow, "110", model.StatusSuperseded},
		{model.FlowInflow, "110.01", model.StatusExceededTarget},
		{model.FlowInflow, "250", model.StatusExceededTarget},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.dir, dec(tt.pct)), "%s %s", tt.dir, tt.pct)
	}

	// Thresholds are inclusive on the lower status.
	assert.Equal(t, model.StatusAttention, Classify(model.FlowOutflow, decimal.NewFromInt(OutflowAttentionPct)))
	assert.Equal(t, model.StatusAttention, Classify(model.FlowOutflow, decimal.NewFromInt(OutflowExceededPct)))
	assert.Equal(t, model.StatusSuperseded, Classify(model.FlowInflow, decimal.NewFromInt(InflowSupersededPct)))
	assert.Equal(t, model.StatusSuperseded, Classify(model.FlowInflow, decimal.NewFromInt(InflowTargetPct)))
}

func TestTrack_VarianceRounded(t *testing.T) {
	b, err := Track(model.CategoryPlan{
		Category:  "Rent",
		Direction: model.FlowOutflow,
		Planned:   dec("3"),
		Realized:  dec("1"),
	})
	require.NoError(t, err)
	assert.True(t, b.VariancePct.Equal(dec("33.33")), "variance %s", b.VariancePct)
	assert.Equal(t, model.StatusOK, b.Status)
}

func TestTrack_ProjectedNext(t *testing.T) {
	b, err := Track(model.CategoryPlan{
		Category:    "Sales",
		Direction:   model.FlowInflow,
		Planned:     dec("20000"),
		Realized:    dec("21000"),
		GrowthRates: []decimal.Decimal{dec("0.10"), dec("0.05"), dec("0.03")},
	})
	require.NoError(t, err)
	assert.True(t, b.GrowthRate.Equal(dec("0.06")), "growth %s", b.GrowthRate)
	assert.True(t, b.ProjectedNext.Equal(dec("22260")), "next %s", b.ProjectedNext)
	assert.Equal(t, model.StatusSuperseded, b.Status)
}

func TestTrack_NoGrowthRates(t *testing.T) {
	b, err := Track(model.CategoryPlan{
		Category:  "Utilities",
		Direction: model.FlowOutflow,
		Planned:   dec("800"),
		Realized:  dec("512.345"),
	})
	require.NoError(t, err)
	assert.True(t, b.GrowthRate.IsZero())
	assert.True(t, b.ProjectedNext.Equal(dec("512.35")), "next %s", b.ProjectedNext)
}

func TestTrack_ZeroPlan(t *testing.T) {
	_, err := Track(model.CategoryPlan{Category: "Misc", Direction: model.FlowOutflow, Realized: dec("10")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrDivisionByZero))

	var dz *model.DivisionByZeroError
	require.True(t, errors.As(err, &dz))
	assert.Equal(t, "Misc", dz.Category)
}

func TestTrack_UnknownDirection(t *testing.T) {
	_, err := Track(model.CategoryPlan{Category: "X", Direction: "sideways", Planned: dec("1")})
	assert.ErrorContains(t, err, "unknown flow direction")
}

func TestTrackBatch(t *testing.T) {
	plans := []model.CategoryPlan{
		{Category: "Payroll", Direction: model.FlowOutflow, Planned: dec("10000"), Realized: dec("11500")},
		{Category: "Empty", Direction: model.FlowOutflow, Planned: decimal.Zero, Realized: dec("5")},
		{Category: "Sales", Direction: model.FlowInflow, Planned: dec("20000"), Realized: dec("23000")},
	}
	out, failures := TrackBatch(plans)

	require.Len(t, out, 2)
	assert.Equal(t, "Payroll", out[0].Category)
	assert.Equal(t, "Sales", out[1].Category)
	assert.Equal(t, model.StatusExceededTarget, out[1].Status)

	require.Len(t, failures, 1)
	assert.Equal(t, "Empty", failures[0].Item)
	assert.True(t, errors.Is(failures[0].Err, model.ErrDivisionByZero))

	again, againFailures := TrackBatch(plans)
	assert.Equal(t, out, again)
	assert.Equal(t, failures, againFailures)
}
