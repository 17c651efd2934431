// Package recorder persists report runs for dashboards and audit.
package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cleared-dev/forecast/internal/daily"
	"github.com/cleared-dev/forecast/internal/model"
)

// Kind names the report type of a run.
type Kind string

const (
	KindForecast Kind = "forecast"
	KindRisk     Kind = "risk"
	KindBudget   Kind = "budget"
)

// Run is one recorded report.
type Run struct {
	RecordedAt      time.Time     `json:"recorded_at"`
	Kind            Kind          `json:"kind"`
	Fingerprint     string        `json:"fingerprint"`
	AsOf            time.Time     `json:"as_of"`
	AlertCount      int           `json:"alert_count"`
	Alerts          []model.Alert `json:"alerts,omitempty"` // may be nil when only the count was stored
	Recommendations int           `json:"recommendations"`
	Failures        int           `json:"failures"`
	Summary         string        `json:"summary"`
	Payload         []byte        `json:"-"` // report JSON
}

// Recorder stores runs.
type Recorder interface {
	Record(ctx context.Context, run Run) error
	Close() error
}

// Lister reads back the most recent runs, newest first.
type Lister interface {
	Recent(ctx context.Context, limit int) ([]Run, error)
}

// ForecastRun builds a Run from a forecast report.
func ForecastRun(rep *model.ForecastReport, at time.Time) (Run, error) {
	payload, err := json.Marshal(rep)
	if err != nil {
		return Run{}, fmt.Errorf("marshaling forecast report: %w", err)
	}
	summary := fmt.Sprintf("%d scenarios, %d days", len(rep.Scenarios), len(rep.Daily))
	if low, ok := daily.LowestPoint(rep.Daily); ok {
		summary += fmt.Sprintf(", low %s on %s", low.RunningBalance.StringFixed(2), low.Date.Format(time.DateOnly))
	}
	return Run{
		RecordedAt:  at,
		Kind:        KindForecast,
		Fingerprint: rep.Fingerprint,
		AsOf:        rep.AsOf,
		AlertCount:  len(rep.Alerts),
		Alerts:      rep.Alerts,
		Summary:     summary,
		Payload:     payload,
	}, nil
}

// RiskRun builds a Run from a risk report.
func RiskRun(rep *model.RiskReport, at time.Time) (Run, error) {
	payload, err := json.Marshal(rep)
	if err != nil {
		return Run{}, fmt.Errorf("marshaling risk report: %w", err)
	}
	tiers := map[model.RiskTier]int{}
	for _, p := range rep.Profiles {
		tiers[p.Tier]++
	}
	return Run{
		RecordedAt:      at,
		Kind:            KindRisk,
		Fingerprint:     rep.Fingerprint,
		AsOf:            rep.AsOf,
		AlertCount:      len(rep.Alerts),
		Alerts:          rep.Alerts,
		Recommendations: len(rep.Recommendations),
		Failures:        len(rep.Failures),
		Summary: fmt.Sprintf("%d profiles: %d low, %d medium, %d high",
			len(rep.Profiles), tiers[model.RiskLow], tiers[model.RiskMedium], tiers[model.RiskHigh]),
		Payload: payload,
	}, nil
}

// BudgetRun builds a Run from a budget report.
func BudgetRun(rep *model.BudgetReport, at time.Time) (Run, error) {
	payload, err := json.Marshal(rep)
	if err != nil {
		return Run{}, fmt.Errorf("marshaling budget report: %w", err)
	}
	var exceeded int
	for _, c := range rep.Categories {
		if c.Status == model.StatusExceeded {
			exceeded++
		}
	}
	return Run{
		RecordedAt:      at,
		Kind:            KindBudget,
		Fingerprint:     rep.Fingerprint,
		AsOf:            rep.AsOf,
		AlertCount:      len(rep.Alerts),
		Alerts:          rep.Alerts,
		Recommendations: len(rep.Recommendations),
		Failures:        len(rep.Failures),
		Summary:         fmt.Sprintf("period %s: %d categories, %d exceeded", rep.Period, len(rep.Categories), exceeded),
		Payload:         payload,
	}, nil
}
