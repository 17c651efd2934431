package importer

import (
	"sort"
	"time"

	"github.com/cleared-dev/forecast/internal/model"
)

// Aggregate buckets transactions by calendar month. Positive amounts add to
// entries, negative amounts add their magnitude to exits. Months between the
// first and last transaction with no activity appear as zero aggregates so
// that periods stay evenly spaced. Output is ordered oldest first.
func Aggregate(txns []model.BankTransaction) []model.PeriodAggregate {
	if len(txns) == 0 {
		return nil
	}

	byMonth := make(map[string]model.PeriodAggregate)
	for _, t := range txns {
		label := t.PeriodLabel()
		agg := byMonth[label]
		agg.Label = label
		switch {
		case t.Amount.IsPositive():
			agg.Entries = agg.Entries.Add(t.Amount)
		case t.Amount.IsNegative():
			agg.Exits = agg.Exits.Add(t.Amount.Neg())
		}
		byMonth[label] = agg
	}
	return FillGaps(sortedByLabel(byMonth))
}

// Merge combines two aggregate series by label, summing overlaps. Monthly
// series come back gap-filled.
func Merge(a, b []model.PeriodAggregate) []model.PeriodAggregate {
	byLabel := make(map[string]model.PeriodAggregate, len(a)+len(b))
	for _, p := range append(append([]model.PeriodAggregate{}, a...), b...) {
		cur := byLabel[p.Label]
		cur.Label = p.Label
		cur.Entries = cur.Entries.Add(p.Entries)
		cur.Exits = cur.Exits.Add(p.Exits)
		byLabel[p.Label] = cur
	}
	return FillGaps(sortedByLabel(byLabel))
}

// FillGaps inserts zero aggregates for months missing between consecutive
// "YYYY-MM" labels of a series ordered oldest first. A series with any other
// label is returned as is.
func FillGaps(series []model.PeriodAggregate) []model.PeriodAggregate {
	if len(series) < 2 {
		return series
	}
	months := make([]time.Time, len(series))
	for i, p := range series {
		m, err := time.Parse(model.PeriodLayout, p.Label)
		if err != nil {
			return series
		}
		months[i] = m
	}

	out := make([]model.PeriodAggregate, 0, len(series))
	for i, p := range series {
		if i > 0 {
			for m := months[i-1].AddDate(0, 1, 0); m.Before(months[i]); m = m.AddDate(0, 1, 0) {
				out = append(out, model.PeriodAggregate{Label: m.Format(model.PeriodLayout)})
			}
		}
		out = append(out, p)
	}
	return out
}

func sortedByLabel(byLabel map[string]model.PeriodAggregate) []model.PeriodAggregate {
	out := make([]model.PeriodAggregate, 0, len(byLabel))
	for _, p := range byLabel {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// Tail returns the last n aggregates, or all of them when n <= 0.
func Tail(series []model.PeriodAggregate, n int) []model.PeriodAggregate {
	if n <= 0 || len(series) <= n {
		return series
	}
	return series[len(series)-n:]
}
