// Package budget compares planned and realized amounts per category.
package budget

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/forecast/internal/model"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// Status thresholds, in percent of plan.
const (
	OutflowAttentionPct = 90
	OutflowExceededPct  = 100
	InflowSupersededPct = 100
	InflowTargetPct     = 110
)

var (
	outflowAttention = decimal.NewFromInt(OutflowAttentionPct)
	outflowExceeded  = decimal.NewFromInt(OutflowExceededPct)
	inflowSuperseded = decimal.NewFromInt(InflowSupersededPct)
	inflowTarget     = decimal.NewFromInt(InflowTargetPct)
)

// Track computes variance, status and next-period projection for one category.
// VariancePct is rounded to two places and classification uses that value.
func Track(plan model.CategoryPlan) (model.CategoryBudget, error) {
	if !plan.Direction.Valid() {
		return model.CategoryBudget{}, fmt.Errorf("category %q: unknown flow direction %q", plan.Category, plan.Direction)
	}
	if plan.Planned.IsZero() {
		return model.CategoryBudget{}, &model.DivisionByZeroError{Category: plan.Category}
	}

	variance := plan.Realized.Div(plan.Planned).Mul(hundred).Round(2)
	growth := MeanGrowth(plan.GrowthRates)

	return model.CategoryBudget{
		Category:      plan.Category,
		Direction:     plan.Direction,
		Planned:       plan.Planned,
		Realized:      plan.Realized,
		VariancePct:   variance,
		Status:        Classify(plan.Direction, variance),
		GrowthRate:    growth,
		ProjectedNext: plan.Realized.Mul(one.Add(growth)).Round(2),
	}, nil
}

// Classify maps a variance percentage to a status for the given direction.
func Classify(dir model.FlowDirection, variancePct decimal.Decimal) model.BudgetStatus {
	if dir == model.FlowInflow {
		switch {
		case variancePct.GreaterThan(inflowTarget):
			return model.StatusExceededTarget
		case variancePct.GreaterThanOrEqual(inflowSuperseded):
			return model.StatusSuperseded
		default:
			return model.StatusOK
		}
	}
	switch {
	case variancePct.GreaterThan(outflowExceeded):
		return model.StatusExceeded
	case variancePct.GreaterThanOrEqual(outflowAttention):
		return model.StatusAttention
	default:
		return model.StatusOK
	}
}

// MeanGrowth averages the supplied per-item growth rates; no rates means no growth.
func MeanGrowth(rates []decimal.Decimal) decimal.Decimal {
	if len(rates) == 0 {
		return decimal.Zero
	}
	return decimal.Avg(rates[0], rates[1:]...)
}

// TrackBatch tracks every plan independently, keeping input order.
func TrackBatch(plans []model.CategoryPlan) ([]model.CategoryBudget, []model.ItemFailure) {
	out := make([]model.CategoryBudget, 0, len(plans))
	var failures []model.ItemFailure
	for _, p := range plans {
		b, err := Track(p)
		if err != nil {
			failures = append(failures, model.ItemFailure{Item: p.Category, Err: err})
			continue
		}
		out = append(out, b)
	}
	return out, failures
}
