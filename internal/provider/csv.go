package provider

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/forecast/internal/model"
)

// history.csv columns.
const (
	historyNumFields = 3
	histColLabel     = 0
	histColEntries   = 1
	histColExits     = 2
)

var historyHeader = []string{"period_label", "entries_total", "exits_total"}

// counterparties.csv columns.
const (
	cpNumFields   = 5
	cpColName     = 0
	cpColOpen     = 1
	cpColOverdue  = 2
	cpColPunctual = 3
	cpColVol      = 4
)

var counterpartyHeader = []string{"name", "open_balance", "days_overdue", "payment_punctuality_pct", "volatility_pct"}

// budget.csv columns.
const (
	budgetNumFields = 6
	budColPeriod    = 0
	budColCategory  = 1
	budColDirection = 2
	budColPlanned   = 3
	budColRealized  = 4
	budColGrowth    = 5
	growthRateSep   = ";"
)

var budgetHeader = []string{"period", "category_name", "flow_direction", "planned_amount", "realized_amount", "growth_rates"}

// BudgetRow is one line of budget.csv.
type BudgetRow struct {
	Period string
	Plan   model.CategoryPlan
}

func readRows(r io.Reader, numFields int, what string) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s CSV: %w", what, err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[1:], nil
}

func writeRows(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadHistory reads history.csv.
func ReadHistory(r io.Reader) ([]model.PeriodAggregate, error) {
	rows, err := readRows(r, historyNumFields, "history")
	if err != nil {
		return nil, err
	}
	var out []model.PeriodAggregate
	for i, rec := range rows {
		agg, err := UnmarshalAggregate(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, agg)
	}
	return out, nil
}

// WriteHistory writes history.csv.
func WriteHistory(w io.Writer, series []model.PeriodAggregate) error {
	rows := make([][]string, len(series))
	for i, a := range series {
		rows[i] = MarshalAggregate(a)
	}
	return writeRows(w, historyHeader, rows)
}

// MarshalAggregate converts a PeriodAggregate to a CSV row.
func MarshalAggregate(a model.PeriodAggregate) []string {
	row := make([]string, historyNumFields)
	row[histColLabel] = a.Label
	row[histColEntries] = a.Entries.StringFixed(2)
	row[histColExits] = a.Exits.StringFixed(2)
	return row
}

// UnmarshalAggregate converts a CSV row to a PeriodAggregate.
func UnmarshalAggregate(record []string) (model.PeriodAggregate, error) {
	if len(record) != historyNumFields {
		return model.PeriodAggregate{}, fmt.Errorf("expected %d fields, got %d", historyNumFields, len(record))
	}
	if record[histColLabel] == "" {
		return model.PeriodAggregate{}, fmt.Errorf("empty period_label")
	}
	entries, err := decimal.NewFromString(record[histColEntries])
	if err != nil {
		return model.PeriodAggregate{}, fmt.Errorf("parsing entries_total %q: %w", record[histColEntries], err)
	}
	exits, err := decimal.NewFromString(record[histColExits])
	if err != nil {
		return model.PeriodAggregate{}, fmt.Errorf("parsing exits_total %q: %w", record[histColExits], err)
	}
	return model.PeriodAggregate{Label: record[histColLabel], Entries: entries, Exits: exits}, nil
}

// ReadCounterparties reads counterparties.csv. Rows that fail to parse are
// returned as failures and the remaining rows are still read.
func ReadCounterparties(r io.Reader) ([]model.CounterpartyRecord, []model.ItemFailure, error) {
	rows, err := readRows(r, cpNumFields, "counterparties")
	if err != nil {
		return nil, nil, err
	}
	var out []model.CounterpartyRecord
	var failures []model.ItemFailure
	for i, rec := range rows {
		cp, err := UnmarshalCounterparty(rec)
		if err != nil {
			failures = append(failures, rowFailure(rec[cpColName], i+2, err))
			continue
		}
		out = append(out, cp)
	}
	return out, failures, nil
}

// rowFailure names a bad row by its key column, or by line number when the
// key is blank.
func rowFailure(key string, line int, err error) model.ItemFailure {
	if key == "" {
		key = fmt.Sprintf("row %d", line)
	}
	return model.ItemFailure{Item: key, Err: fmt.Errorf("row %d: %w", line, err)}
}

// WriteCounterparties writes counterparties.csv.
func WriteCounterparties(w io.Writer, recs []model.CounterpartyRecord) error {
	rows := make([][]string, len(recs))
	for i, c := range recs {
		rows[i] = MarshalCounterparty(c)
	}
	return writeRows(w, counterpartyHeader, rows)
}

// MarshalCounterparty converts a CounterpartyRecord to a CSV row. Missing
// history is written as an empty cell.
func MarshalCounterparty(c model.CounterpartyRecord) []string {
	row := make([]string, cpNumFields)
	row[cpColName] = c.Name
	row[cpColOpen] = c.OpenBalance.StringFixed(2)
	if c.DaysOverdue != nil {
		row[cpColOverdue] = strconv.Itoa(*c.DaysOverdue)
	}
	if c.PunctualityPct != nil {
		row[cpColPunctual] = strconv.FormatFloat(*c.PunctualityPct, 'f', -1, 64)
	}
	row[cpColVol] = strconv.FormatFloat(c.VolatilityPct, 'f', -1, 64)
	return row
}

// UnmarshalCounterparty converts a CSV row to a CounterpartyRecord.
func UnmarshalCounterparty(record []string) (model.CounterpartyRecord, error) {
	if len(record) != cpNumFields {
		return model.CounterpartyRecord{}, fmt.Errorf("expected %d fields, got %d", cpNumFields, len(record))
	}
	c := model.CounterpartyRecord{Name: record[cpColName]}
	if c.Name == "" {
		return model.CounterpartyRecord{}, fmt.Errorf("empty name")
	}

	open, err := decimal.NewFromString(record[cpColOpen])
	if err != nil {
		return model.CounterpartyRecord{}, fmt.Errorf("parsing open_balance %q: %w", record[cpColOpen], err)
	}
	c.OpenBalance = open

	if s := record[cpColOverdue]; s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return model.CounterpartyRecord{}, fmt.Errorf("parsing days_overdue %q: %w", s, err)
		}
		c.DaysOverdue = &n
	}
	if s := record[cpColPunctual]; s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.CounterpartyRecord{}, fmt.Errorf("parsing payment_punctuality_pct %q: %w", s, err)
		}
		c.PunctualityPct = &f
	}
	if s := record[cpColVol]; s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.CounterpartyRecord{}, fmt.Errorf("parsing volatility_pct %q: %w", s, err)
		}
		c.VolatilityPct = f
	}
	return c, nil
}

// BudgetRowFailure is a budget.csv row that could not be parsed.
type BudgetRowFailure struct {
	Period  string
	Failure model.ItemFailure
}

// ReadBudget reads budget.csv. Rows that fail to parse are returned as
// failures tagged with their period.
func ReadBudget(r io.Reader) ([]BudgetRow, []BudgetRowFailure, error) {
	rows, err := readRows(r, budgetNumFields, "budget")
	if err != nil {
		return nil, nil, err
	}
	var out []BudgetRow
	var failures []BudgetRowFailure
	for i, rec := range rows {
		b, err := UnmarshalBudgetRow(rec)
		if err != nil {
			failures = append(failures, BudgetRowFailure{
				Period:  rec[budColPeriod],
				Failure: rowFailure(rec[budColCategory], i+2, err),
			})
			continue
		}
		out = append(out, b)
	}
	return out, failures, nil
}

// WriteBudget writes budget.csv.
func WriteBudget(w io.Writer, budget []BudgetRow) error {
	rows := make([][]string, len(budget))
	for i, b := range budget {
		rows[i] = MarshalBudgetRow(b)
	}
	return writeRows(w, budgetHeader, rows)
}

// MarshalBudgetRow converts a BudgetRow to a CSV row.
func MarshalBudgetRow(b BudgetRow) []string {
	row := make([]string, budgetNumFields)
	row[budColPeriod] = b.Period
	row[budColCategory] = b.Plan.Category
	row[budColDirection] = string(b.Plan.Direction)
	row[budColPlanned] = b.Plan.Planned.StringFixed(2)
	row[budColRealized] = b.Plan.Realized.StringFixed(2)
	rates := make([]string, len(b.Plan.GrowthRates))
	for i, g := range b.Plan.GrowthRates {
		rates[i] = g.String()
	}
	row[budColGrowth] = strings.Join(rates, growthRateSep)
	return row
}

// UnmarshalBudgetRow converts a CSV row to a BudgetRow. The direction is
// kept as written; the tracker rejects unknown values per category.
func UnmarshalBudgetRow(record []string) (BudgetRow, error) {
	if len(record) != budgetNumFields {
		return BudgetRow{}, fmt.Errorf("expected %d fields, got %d", budgetNumFields, len(record))
	}
	planned, err := decimal.NewFromString(record[budColPlanned])
	if err != nil {
		return BudgetRow{}, fmt.Errorf("parsing planned_amount %q: %w", record[budColPlanned], err)
	}
	realized, err := decimal.NewFromString(record[budColRealized])
	if err != nil {
		return BudgetRow{}, fmt.Errorf("parsing realized_amount %q: %w", record[budColRealized], err)
	}

	var rates []decimal.Decimal
	if s := strings.TrimSpace(record[budColGrowth]); s != "" {
		for _, part := range strings.Split(s, growthRateSep) {
			g, err := decimal.NewFromString(strings.TrimSpace(part))
			if err != nil {
				return BudgetRow{}, fmt.Errorf("parsing growth rate %q: %w", part, err)
			}
			rates = append(rates, g)
		}
	}

	return BudgetRow{
		Period: record[budColPeriod],
		Plan: model.CategoryPlan{
			Category:    record[budColCategory],
			Direction:   model.FlowDirection(record[budColDirection]),
			Planned:     planned,
			Realized:    realized,
			GrowthRates: rates,
		},
	}, nil
}
