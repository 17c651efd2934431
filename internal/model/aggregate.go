package model

import "github.com/shopspring/decimal"

// PeriodAggregate is one historical bucket (usually a month) of summed flows.
type PeriodAggregate struct {
	Label   string          `json:"period_label" yaml:"period_label"`
	Entries decimal.Decimal `json:"entries_total" yaml:"entries_total"`
	Exits   decimal.Decimal `json:"exits_total" yaml:"exits_total"`
}

// Net returns entries minus exits for the period.
func (p PeriodAggregate) Net() decimal.Decimal {
	return p.Entries.Sub(p.Exits)
}

// TrendModel is an ordinary least squares fit over x = 1..Points.
type TrendModel struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	Points    int     `json:"points"`
}
