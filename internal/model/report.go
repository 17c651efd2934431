package model

import "time"

// ScenarioSet is the full horizon of one scenario.
type ScenarioSet struct {
	Scenario ScenarioName         `json:"scenario_name"`
	Periods  []ScenarioProjection `json:"periods"`
}

// ForecastReport is the output of a forecast run.
type ForecastReport struct {
	Fingerprint string            `json:"fingerprint"`
	AsOf        time.Time         `json:"as_of"`
	History     []PeriodAggregate `json:"history"`
	Entries     TrendModel        `json:"entries_trend"`
	Exits       TrendModel        `json:"exits_trend"`
	EntriesR2   float64           `json:"entries_r2"`
	ExitsR2     float64           `json:"exits_r2"`
	Scenarios   []ScenarioSet     `json:"scenarios"`
	Daily       []DailyProjection `json:"daily"`
	Alerts      []Alert           `json:"alerts"`
}

// RiskReport is the output of a risk scoring run.
type RiskReport struct {
	Fingerprint     string                    `json:"fingerprint"`
	AsOf            time.Time                 `json:"as_of"`
	Profiles        []CounterpartyRiskProfile `json:"profiles"`
	Alerts          []Alert                   `json:"alerts"`
	Recommendations []Recommendation          `json:"recommendations"`
	Failures        []ItemFailure             `json:"failures"`
}

// BudgetReport is the output of a budget variance run.
type BudgetReport struct {
	Fingerprint     string           `json:"fingerprint"`
	AsOf            time.Time        `json:"as_of"`
	Period          string           `json:"period"`
	Categories      []CategoryBudget `json:"categories"`
	Alerts          []Alert          `json:"alerts"`
	Recommendations []Recommendation `json:"recommendations"`
	Failures        []ItemFailure    `json:"failures"`
}
