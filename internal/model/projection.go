package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScenarioName identifies a projection variant.
type ScenarioName string

const (
	ScenarioBase         ScenarioName = "base"
	ScenarioOptimistic   ScenarioName = "optimistic"
	ScenarioConservative ScenarioName = "conservative"
	ScenarioPessimistic  ScenarioName = "pessimistic"
)

// AllScenarios lists scenarios in report order.
func AllScenarios() []ScenarioName {
	return []ScenarioName{
		ScenarioBase,
		ScenarioOptimistic,
		ScenarioConservative,
		ScenarioPessimistic,
	}
}

// Valid reports whether s is a known scenario.
func (s ScenarioName) Valid() bool {
	switch s {
	case ScenarioBase, ScenarioOptimistic, ScenarioConservative, ScenarioPessimistic:
		return true
	}
	return false
}

// ScenarioProjection is one future period of one scenario.
type ScenarioProjection struct {
	Scenario      ScenarioName    `json:"scenario_name"`
	Label         string          `json:"period_label"`
	Entries       decimal.Decimal `json:"entries_projected"`
	Exits         decimal.Decimal `json:"exits_projected"`
	Balance       decimal.Decimal `json:"balance_projected"`
	ConfidencePct int             `json:"confidence_pct"`
}

// DayCategory buckets a calendar day for base flow lookup.
type DayCategory string

const (
	DayStartOfMonth DayCategory = "start-of-month"
	DayMidMonth     DayCategory = "mid-month"
	DayEndOfMonth   DayCategory = "end-of-month"
	DayWeekend      DayCategory = "weekend"
)

// AllDayCategories lists every recognized day category.
func AllDayCategories() []DayCategory {
	return []DayCategory{DayStartOfMonth, DayMidMonth, DayEndOfMonth, DayWeekend}
}

// DailyProjection is one day of a rolling balance projection.
type DailyProjection struct {
	Date           time.Time       `json:"date"`
	Category       DayCategory     `json:"category"`
	Entries        decimal.Decimal `json:"entries_projected"`
	Exits          decimal.Decimal `json:"exits_projected"`
	Delta          decimal.Decimal `json:"balance_delta"`
	RunningBalance decimal.Decimal `json:"running_balance"`
	ConfidencePct  int             `json:"confidence_pct"`
}
