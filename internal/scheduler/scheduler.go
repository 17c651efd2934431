// Package scheduler refreshes reports on cron schedules and records them.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/forecast/internal/clock"
	"github.com/cleared-dev/forecast/internal/config"
	"github.com/cleared-dev/forecast/internal/model"
	"github.com/cleared-dev/forecast/internal/recorder"
)

// Reports produces the three reports. *engine.Service satisfies it.
type Reports interface {
	Forecast(ctx context.Context, balance decimal.Decimal) (*model.ForecastReport, error)
	Risk(ctx context.Context) (*model.RiskReport, error)
	Budget(ctx context.Context, period string) (*model.BudgetReport, error)
}

// Scheduler manages the cron jobs.
type Scheduler struct {
	Cron     *cron.Cron
	Reports  Reports
	Recorder recorder.Recorder
	Clock    clock.Clock
	Balance  decimal.Decimal // starting balance for scheduled forecasts
	Log      logrus.FieldLogger
	Ctx      context.Context
}

// New creates a Scheduler whose cron specs include a seconds field.
func New(ctx context.Context, reports Reports, rec recorder.Recorder, balance decimal.Decimal, log logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Reports:  reports,
		Recorder: rec,
		Clock:    clock.Real{},
		Balance:  balance,
		Log:      log,
		Ctx:      ctx,
	}
}

// Register adds a job for every non-empty spec and returns how many were
// added.
func (s *Scheduler) Register(cfg config.ScheduleConfig) (int, error) {
	jobs := []struct {
		name string
		spec string
		run  func() error
	}{
		{"forecast", cfg.ForecastCron, s.RunForecastNow},
		{"risk", cfg.RiskCron, s.RunRiskNow},
		{"budget", cfg.BudgetCron, s.RunBudgetNow},
	}

	n := 0
	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		if _, err := s.Cron.AddFunc(j.spec, func() { s.logRun(j.name, j.run) }); err != nil {
			return n, fmt.Errorf("register %s job %q: %w", j.name, j.spec, err)
		}
		s.Log.WithFields(logrus.Fields{"job": j.name, "spec": j.spec}).Debug("job registered")
		n++
	}
	return n, nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Log.Info("scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Log.Info("scheduler stopped")
}

// RunForecastNow runs and records a forecast immediately.
func (s *Scheduler) RunForecastNow() error {
	rep, err := s.Reports.Forecast(s.Ctx, s.Balance)
	if err != nil {
		return fmt.Errorf("forecast: %w", err)
	}
	run, err := recorder.ForecastRun(rep, s.Clock.Now())
	if err != nil {
		return err
	}
	return s.record(run)
}

// RunRiskNow runs and records a risk report immediately.
func (s *Scheduler) RunRiskNow() error {
	rep, err := s.Reports.Risk(s.Ctx)
	if err != nil {
		return fmt.Errorf("risk: %w", err)
	}
	run, err := recorder.RiskRun(rep, s.Clock.Now())
	if err != nil {
		return err
	}
	return s.record(run)
}

// RunBudgetNow tracks the month before the current one, which is the
// latest complete period when the job fires on the 1st.
func (s *Scheduler) RunBudgetNow() error {
	period := PreviousPeriod(s.Clock.Now())
	rep, err := s.Reports.Budget(s.Ctx, period)
	if err != nil {
		return fmt.Errorf("budget %s: %w", period, err)
	}
	run, err := recorder.BudgetRun(rep, s.Clock.Now())
	if err != nil {
		return err
	}
	return s.record(run)
}

// PreviousPeriod returns the YYYY-MM label of the month before t.
func PreviousPeriod(t time.Time) string {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return first.AddDate(0, -1, 0).Format(model.PeriodLayout)
}

func (s *Scheduler) record(run recorder.Run) error {
	if err := s.Recorder.Record(s.Ctx, run); err != nil {
		return fmt.Errorf("record %s run: %w", run.Kind, err)
	}
	s.Log.WithFields(logrus.Fields{
		"report":      string(run.Kind),
		"fingerprint": run.Fingerprint,
		"alerts":      run.AlertCount,
	}).Info(run.Summary)
	return nil
}

func (s *Scheduler) logRun(name string, run func() error) {
	if err := run(); err != nil {
		s.Log.WithField("job", name).WithError(err).Error("scheduled run failed")
	}
}
