// Package engine wires providers and the pure forecasting components into
// the three report runs.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/forecast/internal/alert"
	"github.com/cleared-dev/forecast/internal/budget"
	"github.com/cleared-dev/forecast/internal/clock"
	"github.com/cleared-dev/forecast/internal/config"
	"github.com/cleared-dev/forecast/internal/daily"
	"github.com/cleared-dev/forecast/internal/model"
	"github.com/cleared-dev/forecast/internal/provider"
	"github.com/cleared-dev/forecast/internal/risk"
	"github.com/cleared-dev/forecast/internal/scenario"
	"github.com/cleared-dev/forecast/internal/trend"
)

// Policy is the read-only configuration of a Service.
type Policy struct {
	Lookback     int
	Horizon      int
	DailyHorizon int
	Scenarios    scenario.Policy
	Projector    *daily.Projector
	Alerts       *alert.Generator
}

// PolicyFrom builds a Policy from a validated config.
func PolicyFrom(cfg *config.Config) (Policy, error) {
	p, err := cfg.Projector()
	if err != nil {
		return Policy{}, err
	}
	return Policy{
		Lookback:     cfg.Forecast.Lookback,
		Horizon:      cfg.Forecast.Horizon,
		DailyHorizon: cfg.Forecast.DailyHorizon,
		Scenarios:    cfg.ScenarioPolicy(),
		Projector:    p,
		Alerts:       cfg.AlertGenerator(),
	}, nil
}

// DefaultPolicy is PolicyFrom(config.Default()).
func DefaultPolicy() Policy {
	p, err := PolicyFrom(config.Default())
	if err != nil {
		panic(fmt.Sprintf("default policy: %v", err))
	}
	return p
}

// Service runs reports. Its fields are not modified after construction, so
// methods may be called concurrently.
type Service struct {
	Sources provider.Set
	Policy  Policy
	Clock   clock.Clock
	Log     logrus.FieldLogger
}

// New returns a Service using the real clock.
func New(sources provider.Set, policy Policy, log logrus.FieldLogger) *Service {
	return &Service{Sources: sources, Policy: policy, Clock: clock.Real{}, Log: log}
}

// Forecast fits trends over the recent history, generates every scenario
// and projects the balance day by day from balance.
func (s *Service) Forecast(ctx context.Context, balance decimal.Decimal) (*model.ForecastReport, error) {
	asOf := s.Clock.Now()

	history, err := s.Sources.History.Series(ctx, s.Policy.Lookback)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	entries, err := trend.FitEntries(history)
	if err != nil {
		return nil, fmt.Errorf("fitting entries: %w", err)
	}
	exits, err := trend.FitExits(history)
	if err != nil {
		return nil, fmt.Errorf("fitting exits: %w", err)
	}

	sets, err := scenario.Generate(entries, exits, s.Policy.Horizon, history[len(history)-1].Label, s.Policy.Scenarios)
	if err != nil {
		return nil, fmt.Errorf("generating scenarios: %w", err)
	}

	days, err := s.Policy.Projector.Project(balance, asOf, s.Policy.DailyHorizon)
	if err != nil {
		return nil, fmt.Errorf("projecting daily balance: %w", err)
	}

	fp, err := Fingerprint("forecast", forecastInputs{
		AsOf:    asOf.Format(time.DateOnly),
		Balance: balance,
		History: history,
		Policy:  s.Policy.forecastInputs(),
	})
	if err != nil {
		return nil, err
	}

	rep := &model.ForecastReport{
		Fingerprint: fp,
		AsOf:        asOf,
		History:     history,
		Entries:     entries,
		Exits:       exits,
		EntriesR2:   trend.RSquared(trend.Series(history, func(p model.PeriodAggregate) decimal.Decimal { return p.Entries }), entries),
		ExitsR2:     trend.RSquared(trend.Series(history, func(p model.PeriodAggregate) decimal.Decimal { return p.Exits }), exits),
		Scenarios:   sets,
		Daily:       days,
		Alerts:      s.Policy.Alerts.Daily(days),
	}

	s.Log.WithFields(logrus.Fields{
		"report":      "forecast",
		"fingerprint": fp,
		"periods":     len(history),
		"alerts":      len(rep.Alerts),
	}).Info("forecast complete")
	return rep, nil
}

type forecastInputs struct {
	AsOf    string                  `json:"as_of"`
	Balance decimal.Decimal         `json:"balance"`
	History []model.PeriodAggregate `json:"history"`
	Policy  policyInputs            `json:"policy"`
}

// policyInputs is the part of a Policy that a report's output depends on.
// Unset fields are left out so each report kind only keys on its own policy.
type policyInputs struct {
	Lookback     int              `json:"lookback,omitempty"`
	Horizon      int              `json:"horizon,omitempty"`
	DailyHorizon int              `json:"daily_horizon,omitempty"`
	Scenarios    *scenario.Policy `json:"scenarios,omitempty"`
	Projector    *daily.Projector `json:"daily,omitempty"`
	Alerts       *alert.Generator `json:"alerts"`
}

func (p Policy) forecastInputs() policyInputs {
	return policyInputs{
		Lookback:     p.Lookback,
		Horizon:      p.Horizon,
		DailyHorizon: p.DailyHorizon,
		Scenarios:    &p.Scenarios,
		Projector:    p.Projector,
		Alerts:       p.Alerts,
	}
}

func (p Policy) alertInputs() policyInputs {
	return policyInputs{Alerts: p.Alerts}
}

// Risk scores every counterparty the provider returns. Counterparties that
// cannot be read or scored are listed in Failures and the rest still score.
func (s *Service) Risk(ctx context.Context) (*model.RiskReport, error) {
	asOf := s.Clock.Now()

	recs, unreadable, err := s.Sources.Counterparties.Counterparties(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading counterparties: %w", err)
	}

	profiles, failures := risk.ScoreBatch(recs)
	failures = append(unreadable, failures...)
	alerts, recommendations := s.Policy.Alerts.Risk(profiles)

	fp, err := Fingerprint("risk", struct {
		AsOf           string                     `json:"as_of"`
		Counterparties []model.CounterpartyRecord `json:"counterparties"`
		Unreadable     []model.ItemFailure        `json:"unreadable,omitempty"`
		Policy         policyInputs               `json:"policy"`
	}{asOf.Format(time.DateOnly), recs, unreadable, s.Policy.alertInputs()})
	if err != nil {
		return nil, err
	}

	s.logFailures("risk", fp, failures)
	s.Log.WithFields(logrus.Fields{
		"report":      "risk",
		"fingerprint": fp,
		"profiles":    len(profiles),
		"failures":    len(failures),
		"alerts":      len(alerts),
	}).Info("risk scoring complete")

	return &model.RiskReport{
		Fingerprint:     fp,
		AsOf:            asOf,
		Profiles:        profiles,
		Alerts:          alerts,
		Recommendations: recommendations,
		Failures:        failures,
	}, nil
}

// Budget tracks every category planned for period. Unreadable or untrackable
// categories go to Failures.
func (s *Service) Budget(ctx context.Context, period string) (*model.BudgetReport, error) {
	asOf := s.Clock.Now()

	plans, unreadable, err := s.Sources.Budget.Plans(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("loading budget for %s: %w", period, err)
	}

	categories, failures := budget.TrackBatch(plans)
	failures = append(unreadable, failures...)
	alerts, recommendations := s.Policy.Alerts.Budget(categories)

	fp, err := Fingerprint("budget", struct {
		AsOf       string               `json:"as_of"`
		Period     string               `json:"period"`
		Plans      []model.CategoryPlan `json:"plans"`
		Unreadable []model.ItemFailure  `json:"unreadable,omitempty"`
		Policy     policyInputs         `json:"policy"`
	}{asOf.Format(time.DateOnly), period, plans, unreadable, s.Policy.alertInputs()})
	if err != nil {
		return nil, err
	}

	s.logFailures("budget", fp, failures)
	s.Log.WithFields(logrus.Fields{
		"report":      "budget",
		"fingerprint": fp,
		"period":      period,
		"categories":  len(categories),
		"failures":    len(failures),
	}).Info("budget tracking complete")

	return &model.BudgetReport{
		Fingerprint:     fp,
		AsOf:            asOf,
		Period:          period,
		Categories:      categories,
		Alerts:          alerts,
		Recommendations: recommendations,
		Failures:        failures,
	}, nil
}

func (s *Service) logFailures(report, fp string, failures []model.ItemFailure) {
	for _, f := range failures {
		s.Log.WithFields(logrus.Fields{
			"report":      report,
			"fingerprint": fp,
			"item":        f.Item,
		}).WithError(f.Err).Warn("item skipped")
	}
}
