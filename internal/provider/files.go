package provider

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cleared-dev/forecast/internal/importer"
	"github.com/cleared-dev/forecast/internal/model"
)

// Files reads inputs from CSV files in a workspace.
type Files struct {
	HistoryPath        string
	CounterpartiesPath string
	BudgetPath         string
}

var (
	_ HistoricalSeriesProvider    = (*Files)(nil)
	_ CounterpartyHistoryProvider = (*Files)(nil)
	_ BudgetPlanProvider          = (*Files)(nil)
)

// Series returns the last lookback periods of history.csv.
func (f *Files) Series(ctx context.Context, lookback int) ([]model.PeriodAggregate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fh, err := os.Open(f.HistoryPath)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	defer fh.Close()

	series, err := ReadHistory(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(f.HistoryPath), err)
	}
	return importer.Tail(series, lookback), nil
}

// Counterparties returns every row of counterparties.csv.
func (f *Files) Counterparties(ctx context.Context) ([]model.CounterpartyRecord, []model.ItemFailure, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	fh, err := os.Open(f.CounterpartiesPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening counterparties: %w", err)
	}
	defer fh.Close()

	recs, failures, err := ReadCounterparties(fh)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", filepath.Base(f.CounterpartiesPath), err)
	}
	return recs, failures, nil
}

// Plans returns the budget.csv rows for period.
func (f *Files) Plans(ctx context.Context, period string) ([]model.CategoryPlan, []model.ItemFailure, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	fh, err := os.Open(f.BudgetPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening budget: %w", err)
	}
	defer fh.Close()

	rows, bad, err := ReadBudget(fh)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", filepath.Base(f.BudgetPath), err)
	}
	var plans []model.CategoryPlan
	for _, r := range rows {
		if r.Period == period {
			plans = append(plans, r.Plan)
		}
	}
	var failures []model.ItemFailure
	for _, b := range bad {
		if b.Period == period {
			failures = append(failures, b.Failure)
		}
	}
	return plans, failures, nil
}

// AppendHistory merges series into the history file, creating it if needed.
func (f *Files) AppendHistory(series []model.PeriodAggregate) ([]model.PeriodAggregate, error) {
	var existing []model.PeriodAggregate
	if fh, err := os.Open(f.HistoryPath); err == nil {
		existing, err = ReadHistory(fh)
		fh.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(f.HistoryPath), err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("opening history: %w", err)
	}

	merged := importer.Merge(existing, series)
	if err := writeHistoryFile(f.HistoryPath, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// writeHistoryFile writes series next to path and renames it into place, so
// a failed write leaves the previous file untouched.
func writeHistoryFile(path string, series []model.PeriodAggregate) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating history: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := WriteHistory(tmp, series); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing history: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing history: %w", err)
	}
	return nil
}

// Statements builds history from bank statement exports in Dir and its
// processed/ subdirectory.
type Statements struct {
	Dir    string
	Parser importer.Parser
}

var _ HistoricalSeriesProvider = (*Statements)(nil)

// NewStatements looks up the parser for format.
func NewStatements(dir, format string) (*Statements, error) {
	p := importer.DefaultRegistry().Get(format)
	if p == nil {
		return nil, fmt.Errorf("unknown statement format %q", format)
	}
	return &Statements{Dir: dir, Parser: p}, nil
}

// Series parses every statement and aggregates it by month.
func (s *Statements) Series(ctx context.Context, lookback int) ([]model.PeriodAggregate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	files, err := importer.ScanAll(s.Dir)
	if err != nil {
		return nil, err
	}
	txns, err := importer.ParseFiles(s.Parser, files)
	if err != nil {
		return nil, err
	}
	return importer.Tail(importer.Aggregate(txns), lookback), nil
}
