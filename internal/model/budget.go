package model

import "github.com/shopspring/decimal"

// FlowDirection tells whether a category brings money in or sends it out.
type FlowDirection string

const (
	FlowInflow  FlowDirection = "inflow"
	FlowOutflow FlowDirection = "outflow"
)

// Valid reports whether d is a known direction.
func (d FlowDirection) Valid() bool {
	return d == FlowInflow || d == FlowOutflow
}

// BudgetStatus classifies realized against planned.
type BudgetStatus string

const (
	StatusOK             BudgetStatus = "ok"
	StatusAttention      BudgetStatus = "attention"
	StatusExceeded       BudgetStatus = "exceeded"
	StatusExceededTarget BudgetStatus = "exceeded_target"
	StatusSuperseded     BudgetStatus = "superseded"
)

// CategoryPlan is the planned vs. realized input for one category.
type CategoryPlan struct {
	Category  string
	Direction FlowDirection
	Planned   decimal.Decimal
	Realized  decimal.Decimal
	// GrowthRates are per-item growth figures (0.05 = 5%) supplied by the caller.
	GrowthRates []decimal.Decimal
}

// CategoryBudget is the tracked output for one category.
type CategoryBudget struct {
	Category      string          `json:"category_name"`
	Direction     FlowDirection   `json:"flow_direction"`
	Planned       decimal.Decimal `json:"planned_amount"`
	Realized      decimal.Decimal `json:"realized_amount"`
	VariancePct   decimal.Decimal `json:"variance_pct"`
	Status        BudgetStatus    `json:"status"`
	GrowthRate    decimal.Decimal `json:"observed_growth_rate"`
	ProjectedNext decimal.Decimal `json:"planned_amount_next"`
}
