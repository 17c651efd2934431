// Package scenario derives named outlooks from a pair of trend fits.
package scenario

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/forecast/internal/model"
	"github.com/cleared-dev/forecast/internal/trend"
)

// DefaultHorizon is the number of future periods projected when unset.
const DefaultHorizon = 6

// Confidence bounds for period schedules.
const (
	MinConfidence = 60
	MaxConfidence = 95
)

// Multiplier scales the base projection for one scenario.
type Multiplier struct {
	Entries decimal.Decimal `yaml:"entries"`
	Exits   decimal.Decimal `yaml:"exits"`
}

// Policy holds the scenario multipliers and the confidence schedule.
type Policy struct {
	Multipliers map[model.ScenarioName]Multiplier
	Confidence  model.ConfidenceSchedule
}

// DefaultPolicy returns the standard multipliers.
func DefaultPolicy() Policy {
	return Policy{
		Multipliers: DefaultMultipliers(),
		Confidence:  model.ScenarioConfidence(),
	}
}

// DefaultMultipliers returns optimistic 1.20/0.90, conservative 0.90/1.10
// and pessimistic 0.80/1.20 with base at 1/1.
func DefaultMultipliers() map[model.ScenarioName]Multiplier {
	return map[model.ScenarioName]Multiplier{
		model.ScenarioBase:         {Entries: decimal.NewFromInt(1), Exits: decimal.NewFromInt(1)},
		model.ScenarioOptimistic:   {Entries: decimal.RequireFromString("1.20"), Exits: decimal.RequireFromString("0.90")},
		model.ScenarioConservative: {Entries: decimal.RequireFromString("0.90"), Exits: decimal.RequireFromString("1.10")},
		model.ScenarioPessimistic:  {Entries: decimal.RequireFromString("0.80"), Exits: decimal.RequireFromString("1.20")},
	}
}

// Validate checks that every scenario has a multiplier, that base is
// neutral, and that balances stay ordered pessimistic <= conservative <=
// base <= optimistic for any non-negative projection.
func (p Policy) Validate() error {
	for _, s := range model.AllScenarios() {
		m, ok := p.Multipliers[s]
		if !ok {
			return fmt.Errorf("missing multiplier for scenario %s", s)
		}
		if m.Entries.IsNegative() || m.Exits.IsNegative() {
			return fmt.Errorf("scenario %s: multipliers must not be negative", s)
		}
	}
	base := p.Multipliers[model.ScenarioBase]
	if !base.Entries.Equal(decimal.NewFromInt(1)) || !base.Exits.Equal(decimal.NewFromInt(1)) {
		return fmt.Errorf("base scenario multipliers must be 1")
	}

	order := []model.ScenarioName{
		model.ScenarioPessimistic,
		model.ScenarioConservative,
		model.ScenarioBase,
		model.ScenarioOptimistic,
	}
	for i := 1; i < len(order); i++ {
		lo, hi := p.Multipliers[order[i-1]], p.Multipliers[order[i]]
		if lo.Entries.GreaterThan(hi.Entries) {
			return fmt.Errorf("entries multiplier of %s exceeds %s", order[i-1], order[i])
		}
		if lo.Exits.LessThan(hi.Exits) {
			return fmt.Errorf("exits multiplier of %s is below %s", order[i-1], order[i])
		}
	}

	if err := p.Confidence.Validate(MinConfidence, MaxConfidence); err != nil {
		return fmt.Errorf("confidence schedule: %w", err)
	}
	return nil
}

// Generate projects every scenario over horizon future periods.
// lastLabel is the label of the final history period; it seeds the labels
// of the projected periods.
func Generate(entries, exits model.TrendModel, horizon int, lastLabel string, p Policy) ([]model.ScenarioSet, error) {
	if horizon <= 0 {
		return nil, &model.InvalidHorizonError{Horizon: horizon}
	}

	baseEntries := make([]decimal.Decimal, horizon)
	baseExits := make([]decimal.Decimal, horizon)
	labels := make([]string, horizon)
	for k := 1; k <= horizon; k++ {
		baseEntries[k-1] = trend.Project(entries, k)
		baseExits[k-1] = trend.Project(exits, k)
		labels[k-1] = NextLabel(lastLabel, k)
	}

	sets := make([]model.ScenarioSet, 0, len(model.AllScenarios()))
	for _, s := range model.AllScenarios() {
		m, ok := p.Multipliers[s]
		if !ok {
			return nil, fmt.Errorf("missing multiplier for scenario %s", s)
		}
		periods := make([]model.ScenarioProjection, horizon)
		for i := range periods {
			e := baseEntries[i].Mul(m.Entries)
			x := baseExits[i].Mul(m.Exits)
			periods[i] = model.ScenarioProjection{
				Scenario:      s,
				Label:         labels[i],
				Entries:       e,
				Exits:         x,
				Balance:       e.Sub(x),
				ConfidencePct: p.Confidence.At(i + 1),
			}
		}
		sets = append(sets, model.ScenarioSet{Scenario: s, Periods: periods})
	}
	return sets, nil
}

// Find returns the set for a scenario.
func Find(sets []model.ScenarioSet, name model.ScenarioName) (model.ScenarioSet, bool) {
	for _, s := range sets {
		if s.Scenario == name {
			return s, true
		}
	}
	return model.ScenarioSet{}, false
}

// NextLabel advances a "YYYY-MM" label by k months. Other labels get a
// "+k" suffix.
func NextLabel(last string, k int) string {
	if t, err := time.Parse(model.PeriodLayout, last); err == nil {
		return t.AddDate(0, k, 0).Format(model.PeriodLayout)
	}
	if last == "" {
		return "+" + strconv.Itoa(k)
	}
	return last + "+" + strconv.Itoa(k)
}
