// Package risk scores counterparties for delinquency likelihood.
//
// The score is a fixed weighted rule over payment punctuality, days overdue
// and open-balance volatility. All arithmetic is decimal so that the same
// inputs always round the same way.
package risk

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/forecast/internal/model"
)

var (
	hundred = decimal.NewFromInt(100)

	weightPunctuality = decimal.RequireFromString("0.5")
	weightOverdue     = decimal.RequireFromString("0.3")
	weightVolatility  = decimal.RequireFromString("0.2")

	// Each overdue day costs this many points of the overdue component.
	overduePenalty = decimal.NewFromInt(4)
)

// Minimum scores for each tier.
const (
	LowRiskMinScore    = 70
	MediumRiskMinScore = 40
)

// DefaultTier applies below the lowest threshold.
const DefaultTier = model.RiskHigh

// tiers maps a minimum score to a tier, walked top-down.
var tiers = [...]struct {
	minScore int
	tier     model.RiskTier
}{
	{LowRiskMinScore, model.RiskLow},
	{MediumRiskMinScore, model.RiskMedium},
}

// TierFor maps a predictive score to a tier.
func TierFor(score int) model.RiskTier {
	for _, t := range tiers {
		if score >= t.minScore {
			return t.tier
		}
	}
	return DefaultTier
}

// Score computes the profile for one counterparty.
func Score(rec model.CounterpartyRecord) (model.CounterpartyRiskProfile, error) {
	if rec.PunctualityPct == nil {
		return model.CounterpartyRiskProfile{}, &model.IncompleteProfileError{
			Name: rec.Name, Field: "payment_punctuality_pct", Reason: "missing",
		}
	}
	if rec.DaysOverdue == nil {
		return model.CounterpartyRiskProfile{}, &model.IncompleteProfileError{
			Name: rec.Name, Field: "days_overdue", Reason: "missing",
		}
	}
	punct := *rec.PunctualityPct
	if math.IsNaN(punct) || punct < 0 || punct > 100 {
		return model.CounterpartyRiskProfile{}, &model.IncompleteProfileError{
			Name: rec.Name, Field: "payment_punctuality_pct", Reason: "outside 0-100",
		}
	}
	overdue := *rec.DaysOverdue
	if overdue < 0 {
		return model.CounterpartyRiskProfile{}, &model.IncompleteProfileError{
			Name: rec.Name, Field: "days_overdue", Reason: "negative",
		}
	}
	vol := clampPct(rec.VolatilityPct)

	punctPart := weightPunctuality.Mul(decimal.NewFromFloat(punct))
	overduePart := weightOverdue.Mul(floorZero(hundred.Sub(overduePenalty.Mul(decimal.NewFromInt(int64(overdue))))))
	volPart := weightVolatility.Mul(floorZero(hundred.Sub(decimal.NewFromFloat(vol))))

	// decimal.Round rounds half away from zero.
	raw := punctPart.Add(overduePart).Add(volPart).Round(0)
	score := int(raw.IntPart())
	score = min(max(score, 0), 100)

	return model.CounterpartyRiskProfile{
		Name:            rec.Name,
		OpenBalance:     rec.OpenBalance,
		DaysOverdue:     overdue,
		PunctualityPct:  punct,
		VolatilityPct:   vol,
		PredictiveScore: score,
		Tier:            TierFor(score),
		DelinquencyPct:  100 - score,
	}, nil
}

// ScoreBatch scores every record independently. Output keeps input order;
// records that cannot be scored are reported in failures and skipped.
func ScoreBatch(recs []model.CounterpartyRecord) ([]model.CounterpartyRiskProfile, []model.ItemFailure) {
	profiles := make([]model.CounterpartyRiskProfile, 0, len(recs))
	var failures []model.ItemFailure
	for _, rec := range recs {
		p, err := Score(rec)
		if err != nil {
			failures = append(failures, model.ItemFailure{Item: rec.Name, Err: err})
			continue
		}
		profiles = append(profiles, p)
	}
	return profiles, failures
}

// VolatilityPct is the coefficient of variation of an open-balance history,
// as a percentage capped at 100. Fewer than two points, or a zero mean,
// yield 0.
func VolatilityPct(balances []decimal.Decimal) float64 {
	if len(balances) < 2 {
		return 0
	}
	var mean float64
	for _, b := range balances {
		mean += b.InexactFloat64()
	}
	mean /= float64(len(balances))
	if mean == 0 {
		return 0
	}

	var ss float64
	for _, b := range balances {
		d := b.InexactFloat64() - mean
		ss += d * d
	}
	std := math.Sqrt(ss / float64(len(balances)))
	return clampPct(std / math.Abs(mean) * 100)
}

func clampPct(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func floorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
