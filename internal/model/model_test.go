package model

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfidenceScheduleAt(t *testing.T) {
	s := ScenarioConfidence()
	tests := []struct {
		distance int
		want     int
	}{
		{1, 95},
		{2, 95},
		{3, 85},
		{4, 75},
		{5, 65},
		{12, 65},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.At(tt.distance), "At(%d)", tt.distance)
	}
}

func TestDailyConfidenceBreakpoints(t *testing.T) {
	s := DailyConfidence()
	assert.Equal(t, 95, s.At(7))
	assert.Equal(t, 85, s.At(8))
	assert.Equal(t, 85, s.At(15))
	assert.Equal(t, 75, s.At(16))
	assert.Equal(t, 75, s.At(22))
	assert.Equal(t, 65, s.At(23))
}

func TestConfidenceScheduleValidate(t *testing.T) {
	require.NoError(t, ScenarioConfidence().Validate(60, 95))
	require.NoError(t, DailyConfidence().Validate(60, 95))

	rising := ConfidenceSchedule{
		Steps:  []ConfidenceStep{{Through: 2, Pct: 80}, {Through: 4, Pct: 90}},
		Beyond: 65,
	}
	assert.ErrorContains(t, rising.Validate(60, 95), "rises")

	outOfBounds := ConfidenceSchedule{Steps: []ConfidenceStep{{Through: 1, Pct: 99}}, Beyond: 65}
	assert.ErrorContains(t, outOfBounds.Validate(60, 95), "outside")

	unordered := ConfidenceSchedule{
		Steps:  []ConfidenceStep{{Through: 3, Pct: 95}, {Through: 3, Pct: 85}},
		Beyond: 65,
	}
	assert.ErrorContains(t, unordered.Validate(60, 95), "must exceed")

	lowBeyond := ConfidenceSchedule{Beyond: 40}
	assert.Error(t, lowBeyond.Validate(60, 95))
}

func TestSeverityRank(t *testing.T) {
	assert.Greater(t, SeverityCritical.Rank(), SeverityAttention.Rank())
	assert.Greater(t, SeverityAttention.Rank(), SeverityInfo.Rank())
}

func TestTypedErrorsMatchSentinels(t *testing.T) {
	tests := []struct {
		err      error
		sentinel error
	}{
		{&InsufficientDataError{Points: 1, Need: 2}, ErrInsufficientData},
		{&IncompleteProfileError{Name: "Acme", Field: "payment_punctuality_pct", Reason: "missing"}, ErrIncompleteProfile},
		{&DivisionByZeroError{Category: "Rent"}, ErrDivisionByZero},
		{&InvalidHorizonError{Horizon: 0}, ErrInvalidHorizon},
	}
	for _, tt := range tests {
		wrapped := fmt.Errorf("outer: %w", tt.err)
		assert.True(t, errors.Is(wrapped, tt.sentinel), "%v should match %v", tt.err, tt.sentinel)
	}

	var ide *InsufficientDataError
	require.True(t, errors.As(fmt.Errorf("x: %w", &InsufficientDataError{Points: 1, Need: 2}), &ide))
	assert.Equal(t, 1, ide.Points)
}

func TestItemFailureJSON(t *testing.T) {
	f := ItemFailure{Item: "Rent", Err: &DivisionByZeroError{Category: "Rent"}}
	data, err := f.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"item":"Rent","error":"category \"Rent\": planned amount is zero"}`, string(data))
}

func TestBankTransactionPeriodLabel(t *testing.T) {
	txn := BankTransaction{Date: time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, "2025-03", txn.PeriodLabel())
}

func TestScenarioNameValid(t *testing.T) {
	for _, s := range AllScenarios() {
		assert.True(t, s.Valid())
	}
	assert.False(t, ScenarioName("bullish").Valid())
	assert.True(t, FlowInflow.Valid())
	assert.False(t, FlowDirection("sideways").Valid())
}

func TestEnumListsAreFreshCopies(t *testing.T) {
	s := AllScenarios()
	s[0] = "bullish"
	assert.Equal(t, ScenarioBase, AllScenarios()[0])

	d := AllDayCategories()
	d[0] = "holiday"
	assert.Equal(t, DayStartOfMonth, AllDayCategories()[0])
}
