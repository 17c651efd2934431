// Package daily projects a day-by-day rolling balance.
package daily

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/forecast/internal/model"
)

// DefaultHorizon is the number of days projected when unset.
const DefaultHorizon = 30

// Confidence bounds for day schedules.
const (
	MinConfidence = 60
	MaxConfidence = 95
)

// Base is the typical entry/exit magnitude for a day category.
type Base struct {
	Entry decimal.Decimal `yaml:"entry_base"`
	Exit  decimal.Decimal `yaml:"exit_base"`
}

// Projector holds the read-only policy for daily projections.
type Projector struct {
	Bases       map[model.DayCategory]Base
	Seasonality [12]decimal.Decimal // index 0 = January
	TrendFactor decimal.Decimal     // applied to entries only
	Confidence  model.ConfidenceSchedule
}

// DefaultBases returns the standard per-category magnitudes.
func DefaultBases() map[model.DayCategory]Base {
	return map[model.DayCategory]Base{
		model.DayStartOfMonth: {Entry: decimal.NewFromInt(2500), Exit: decimal.NewFromInt(4000)},
		model.DayMidMonth:     {Entry: decimal.NewFromInt(1800), Exit: decimal.NewFromInt(1200)},
		model.DayEndOfMonth:   {Entry: decimal.NewFromInt(3200), Exit: decimal.NewFromInt(2500)},
		model.DayWeekend:      {Entry: decimal.NewFromInt(400), Exit: decimal.NewFromInt(200)},
	}
}

// DefaultSeasonality peaks in December and bottoms out in January.
func DefaultSeasonality() [12]decimal.Decimal {
	factors := [12]string{"0.85", "0.90", "1.00", "1.00", "1.05", "1.00", "0.95", "0.95", "1.00", "1.05", "1.10", "1.20"}
	var out [12]decimal.Decimal
	for i, f := range factors {
		out[i] = decimal.RequireFromString(f)
	}
	return out
}

// DefaultGrowthPct is the observed revenue growth behind the default trend factor.
const DefaultGrowthPct = "8.5"

// TrendFactorFromGrowth converts a growth percentage (8.5 = +8.5%) to a multiplier.
func TrendFactorFromGrowth(pct decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(1).Add(pct.Div(decimal.NewFromInt(100)))
}

// NewDefault returns a Projector with the standard policy.
func NewDefault() *Projector {
	return &Projector{
		Bases:       DefaultBases(),
		Seasonality: DefaultSeasonality(),
		TrendFactor: TrendFactorFromGrowth(decimal.RequireFromString(DefaultGrowthPct)),
		Confidence:  model.DailyConfidence(),
	}
}

// Validate checks that every category has a base and factors are non-negative.
func (p *Projector) Validate() error {
	for _, c := range model.AllDayCategories() {
		b, ok := p.Bases[c]
		if !ok {
			return fmt.Errorf("missing base for day category %s", c)
		}
		if b.Entry.IsNegative() || b.Exit.IsNegative() {
			return fmt.Errorf("day category %s: bases must not be negative", c)
		}
	}
	for i, f := range p.Seasonality {
		if !f.IsPositive() {
			return fmt.Errorf("seasonality for %s must be positive", time.Month(i+1))
		}
	}
	if !p.TrendFactor.IsPositive() {
		return fmt.Errorf("trend factor must be positive")
	}
	if err := p.Confidence.Validate(MinConfidence, MaxConfidence); err != nil {
		return fmt.Errorf("confidence schedule: %w", err)
	}
	return nil
}

// Categorize classifies a date. Weekends win over month position.
func Categorize(d time.Time) model.DayCategory {
	switch {
	case d.Weekday() == time.Saturday || d.Weekday() == time.Sunday:
		return model.DayWeekend
	case d.Day() <= 5:
		return model.DayStartOfMonth
	case d.Day() >= 25:
		return model.DayEndOfMonth
	default:
		return model.DayMidMonth
	}
}

// Project walks horizon days after asOf, accumulating onto start.
func (p *Projector) Project(start decimal.Decimal, asOf time.Time, horizon int) ([]model.DailyProjection, error) {
	if horizon <= 0 {
		return nil, &model.InvalidHorizonError{Horizon: horizon}
	}

	day0 := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, asOf.Location())
	out := make([]model.DailyProjection, horizon)
	running := start
	for i := 1; i <= horizon; i++ {
		d := day0.AddDate(0, 0, i)
		cat := Categorize(d)
		base, ok := p.Bases[cat]
		if !ok {
			return nil, fmt.Errorf("missing base for day category %s", cat)
		}
		season := p.Seasonality[d.Month()-1]

		entries := base.Entry.Mul(season).Mul(p.TrendFactor)
		exits := base.Exit.Mul(season)
		delta := entries.Sub(exits)
		running = running.Add(delta)

		out[i-1] = model.DailyProjection{
			Date:           d,
			Category:       cat,
			Entries:        entries,
			Exits:          exits,
			Delta:          delta,
			RunningBalance: running,
			ConfidencePct:  p.Confidence.At(i),
		}
	}
	return out, nil
}

// LowestPoint returns the day with the smallest running balance.
func LowestPoint(series []model.DailyProjection) (model.DailyProjection, bool) {
	if len(series) == 0 {
		return model.DailyProjection{}, false
	}
	low := series[0]
	for _, d := range series[1:] {
		if d.RunningBalance.LessThan(low.RunningBalance) {
			low = d
		}
	}
	return low, true
}
