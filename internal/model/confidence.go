package model

import "fmt"

// ConfidenceStep applies Pct to every distance up to and including Through.
type ConfidenceStep struct {
	Through int `yaml:"through" json:"through"`
	Pct     int `yaml:"pct" json:"pct"`
}

// ConfidenceSchedule maps distance into the future (1-based) to a percentage.
type ConfidenceSchedule struct {
	Steps  []ConfidenceStep `yaml:"steps" json:"steps"`
	Beyond int              `yaml:"beyond" json:"beyond"`
}

// At returns the confidence for a 1-based distance.
func (s ConfidenceSchedule) At(distance int) int {
	for _, st := range s.Steps {
		if distance <= st.Through {
			return st.Pct
		}
	}
	return s.Beyond
}

// Validate checks that steps ascend, confidence never rises, and every
// value is within [lo, hi].
func (s ConfidenceSchedule) Validate(lo, hi int) error {
	prevThrough := 0
	prevPct := hi
	for i, st := range s.Steps {
		if st.Through <= prevThrough {
			return fmt.Errorf("step %d: through %d must exceed %d", i, st.Through, prevThrough)
		}
		if st.Pct < lo || st.Pct > hi {
			return fmt.Errorf("step %d: pct %d outside [%d,%d]", i, st.Pct, lo, hi)
		}
		if st.Pct > prevPct {
			return fmt.Errorf("step %d: pct %d rises above %d", i, st.Pct, prevPct)
		}
		prevThrough = st.Through
		prevPct = st.Pct
	}
	if s.Beyond < lo || s.Beyond > hi {
		return fmt.Errorf("beyond pct %d outside [%d,%d]", s.Beyond, lo, hi)
	}
	if s.Beyond > prevPct {
		return fmt.Errorf("beyond pct %d rises above %d", s.Beyond, prevPct)
	}
	return nil
}

// ScenarioConfidence is the default period schedule: 1-2 95, 3 85, 4 75, 5+ 65.
func ScenarioConfidence() ConfidenceSchedule {
	return ConfidenceSchedule{
		Steps: []ConfidenceStep{
			{Through: 2, Pct: 95},
			{Through: 3, Pct: 85},
			{Through: 4, Pct: 75},
		},
		Beyond: 65,
	}
}

// DailyConfidence is the default day schedule: 1-7 95, 8-15 85, 16-22 75, 23+ 65.
func DailyConfidence() ConfidenceSchedule {
	return ConfidenceSchedule{
		Steps: []ConfidenceStep{
			{Through: 7, Pct: 95},
			{Through: 15, Pct: 85},
			{Through: 22, Pct: 75},
		},
		Beyond: 65,
	}
}
