// Package provider defines where the engine gets its inputs and implements
// the file-based sources.
package provider

import (
	"context"

	"github.com/cleared-dev/forecast/internal/model"
)

// HistoricalSeriesProvider returns up to lookback periods of history,
// oldest first. lookback <= 0 returns everything.
type HistoricalSeriesProvider interface {
	Series(ctx context.Context, lookback int) ([]model.PeriodAggregate, error)
}

// CounterpartyHistoryProvider returns the counterparties to score. Records
// that cannot be read come back as failures next to the readable ones; the
// error is reserved for a source that cannot be read at all.
type CounterpartyHistoryProvider interface {
	Counterparties(ctx context.Context) ([]model.CounterpartyRecord, []model.ItemFailure, error)
}

// BudgetPlanProvider returns planned vs. realized amounts for a period, with
// the same failure split as CounterpartyHistoryProvider.
type BudgetPlanProvider interface {
	Plans(ctx context.Context, period string) ([]model.CategoryPlan, []model.ItemFailure, error)
}

// Set bundles one provider of each kind.
type Set struct {
	History        HistoricalSeriesProvider
	Counterparties CounterpartyHistoryProvider
	Budget         BudgetPlanProvider
}
