package importer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/forecast/internal/model"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func txn(y, m, d int, amount string) model.BankTransaction {
	return model.BankTransaction{Date: time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC), Amount: dec(amount)}
}

func TestAggregate_ChaseFixture(t *testing.T) {
	files := []FileInfo{{Name: "chase_checking.csv", Path: "testdata/chase_checking.csv"}}
	txns, err := ParseFiles(&ChaseParser{}, files)
	require.NoError(t, err)

	aggs := Aggregate(txns)
	require.Len(t, aggs, 1)
	assert.Equal(t, "2025-01", aggs[0].Label)
	assert.True(t, aggs[0].Entries.Equal(dec("3500")))
	assert.True(t, aggs[0].Exits.Equal(dec("3055.58")), "exits %s", aggs[0].Exits)
}

func TestAggregate_FillsGapsAndOrders(t *testing.T) {
	aggs := Aggregate([]model.BankTransaction{
		txn(2025, 3, 5, "100"),
		txn(2024, 12, 31, "-40"),
		txn(2025, 3, 20, "-25.50"),
		txn(2024, 12, 1, "200"),
		txn(2025, 1, 9, "0"),
	})
	require.Len(t, aggs, 4)
	labels := []string{aggs[0].Label, aggs[1].Label, aggs[2].Label, aggs[3].Label}
	assert.Equal(t, []string{"2024-12", "2025-01", "2025-02", "2025-03"}, labels)

	assert.True(t, aggs[0].Entries.Equal(dec("200")))
	assert.True(t, aggs[0].Exits.Equal(dec("40")))
	assert.True(t, aggs[1].Entries.IsZero())
	assert.True(t, aggs[2].Exits.IsZero())
	assert.True(t, aggs[3].Net().Equal(dec("74.50")))
}

func TestAggregate_Empty(t *testing.T) {
	assert.Nil(t, Aggregate(nil))
}

func TestMerge(t *testing.T) {
	a := []model.PeriodAggregate{
		{Label: "2025-02", Entries: dec("10"), Exits: dec("5")},
		{Label: "2025-01", Entries: dec("1"), Exits: dec("1")},
	}
	b := []model.PeriodAggregate{
		{Label: "2025-02", Entries: dec("3"), Exits: dec("2")},
		{Label: "2025-03", Entries: dec("7"), Exits: dec("0")},
	}
	got := Merge(a, b)
	require.Len(t, got, 3)
	assert.Equal(t, "2025-01", got[0].Label)
	assert.Equal(t, "2025-02", got[1].Label)
	assert.True(t, got[1].Entries.Equal(dec("13")))
	assert.True(t, got[1].Exits.Equal(dec("7")))
	assert.Equal(t, "2025-03", got[2].Label)
	// Inputs untouched.
	assert.True(t, a[0].Entries.Equal(dec("10")))
}

func TestMerge_FillsGapBetweenImports(t *testing.T) {
	got := Merge(
		[]model.PeriodAggregate{{Label: "2025-01", Entries: dec("1000")}},
		[]model.PeriodAggregate{{Label: "2025-04", Entries: dec("4000")}},
	)
	require.Len(t, got, 4)
	assert.Equal(t, "2025-02", got[1].Label)
	assert.Equal(t, "2025-03", got[2].Label)
	assert.True(t, got[2].Entries.IsZero())
}

func TestFillGaps(t *testing.T) {
	got := FillGaps([]model.PeriodAggregate{
		{Label: "2024-11", Entries: dec("1")},
		{Label: "2025-02", Entries: dec("2")},
		{Label: "2025-03", Entries: dec("3")},
	})
	labels := make([]string, len(got))
	for i, a := range got {
		labels[i] = a.Label
	}
	assert.Equal(t, []string{"2024-11", "2024-12", "2025-01", "2025-02", "2025-03"}, labels)
	assert.True(t, got[4].Entries.Equal(dec("3")))

	custom := []model.PeriodAggregate{{Label: "Q1"}, {Label: "Q3"}}
	assert.Equal(t, custom, FillGaps(custom))
	assert.Nil(t, FillGaps(nil))
}

func TestTail(t *testing.T) {
	series := []model.PeriodAggregate{{Label: "a"}, {Label: "b"}, {Label: "c"}}
	assert.Len(t, Tail(series, 0), 3)
	assert.Len(t, Tail(series, 5), 3)
	got := Tail(series, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Label)
}

func TestParseFiles_ReportsFile(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #\nDEBIT,nope,x,-1,ACH_DEBIT,0,\n"), 0o644))

	_, err := ParseFiles(&ChaseParser{}, []FileInfo{{Name: "bad.csv", Path: bad}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing bad.csv")
}
