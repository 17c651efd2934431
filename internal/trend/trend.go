// Package trend fits linear trends over periodic cash-flow series.
package trend

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/forecast/internal/model"
)

// MinPoints is the shortest series that can be fitted.
const MinPoints = 2

// Fit computes ordinary least squares over x = 1..n.
func Fit(series []float64) (model.TrendModel, error) {
	n := len(series)
	if n < MinPoints {
		return model.TrendModel{}, &model.InsufficientDataError{Points: n, Need: MinPoints}
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i, y := range series {
		x := float64(i + 1)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}
	fn := float64(n)
	denom := fn*sumX2 - sumX*sumX
	// denom is n²(n²-1)/12, non-zero for n >= 2.
	slope := (fn*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / fn

	return model.TrendModel{Slope: slope, Intercept: intercept, Points: n}, nil
}

// FitEntries fits the entries side of a history.
func FitEntries(history []model.PeriodAggregate) (model.TrendModel, error) {
	return Fit(Series(history, func(p model.PeriodAggregate) decimal.Decimal { return p.Entries }))
}

// FitExits fits the exits side of a history.
func FitExits(history []model.PeriodAggregate) (model.TrendModel, error) {
	return Fit(Series(history, func(p model.PeriodAggregate) decimal.Decimal { return p.Exits }))
}

// Series extracts one numeric column from a history.
func Series(history []model.PeriodAggregate, pick func(model.PeriodAggregate) decimal.Decimal) []float64 {
	out := make([]float64, len(history))
	for i, p := range history {
		out[i] = pick(p).InexactFloat64()
	}
	return out
}

// Value evaluates the fitted line at future offset k (1-based from the end
// of history), floored at zero.
func Value(m model.TrendModel, k int) float64 {
	v := m.Intercept + m.Slope*float64(m.Points+k)
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

// Project returns Value rounded to cents.
func Project(m model.TrendModel, k int) decimal.Decimal {
	return decimal.NewFromFloat(Value(m, k)).Round(2)
}

// RSquared reports how much of the series variance the fit explains.
func RSquared(series []float64, m model.TrendModel) float64 {
	if len(series) == 0 {
		return 0
	}
	var mean float64
	for _, y := range series {
		mean += y
	}
	mean /= float64(len(series))

	var ssRes, ssTot float64
	for i, y := range series {
		predicted := m.Intercept + m.Slope*float64(i+1)
		ssRes += (y - predicted) * (y - predicted)
		ssTot += (y - mean) * (y - mean)
	}
	if ssTot == 0 {
		return 1
	}
	return 1 - ssRes/ssTot
}
