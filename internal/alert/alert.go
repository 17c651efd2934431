// Package alert turns projections, risk profiles and budget variances into
// ranked alerts and recommendations.
package alert

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/forecast/internal/model"
)

// defaultLowBalanceFloor is the running balance below which a day is flagged.
const defaultLowBalanceFloor = 5000

// DefaultLowBalanceFloor returns the standard low-balance floor.
func DefaultLowBalanceFloor() decimal.Decimal {
	return decimal.NewFromInt(defaultLowBalanceFloor)
}

// DefaultLimit caps each alert or recommendation list.
const DefaultLimit = 5

// Suggested actions.
const (
	ActionCoverShortfall  = "arrange financing or defer payments"
	ActionReviewOutflows  = "review upcoming outflows"
	ActionRenegotiate     = "immediate contact / renegotiate"
	ActionReviewCategory  = "review category spend"
	ActionMonitorClosely  = "monitor closely"
	ActionReviewRemaining = "review remaining spend"
	ActionRaiseTarget     = "raise next-period target"
)

const dateLayout = "2006-01-02"

// Generator applies threshold rules. The zero value has no floor and no cap;
// use New for defaults.
type Generator struct {
	LowBalanceFloor decimal.Decimal
	Limit           int
}

// New returns a Generator with the default floor and cap.
func New() *Generator {
	return &Generator{LowBalanceFloor: DefaultLowBalanceFloor(), Limit: DefaultLimit}
}

// Daily evaluates the balance rules over a daily series.
func (g *Generator) Daily(series []model.DailyProjection) []model.Alert {
	var out []model.Alert
	for _, d := range series {
		day := d.Date.Format(dateLayout)
		switch {
		case d.RunningBalance.IsNegative():
			out = append(out, model.Alert{
				Severity:        model.SeverityCritical,
				Subject:         day,
				Message:         "negative balance projected on " + day,
				SuggestedAction: ActionCoverShortfall,
				EstimatedImpact: d.RunningBalance.Abs(),
			})
		case d.RunningBalance.LessThan(g.LowBalanceFloor):
			out = append(out, model.Alert{
				Severity:        model.SeverityAttention,
				Subject:         day,
				Message:         "low balance projected on " + day,
				SuggestedAction: ActionReviewOutflows,
				EstimatedImpact: g.LowBalanceFloor.Sub(d.RunningBalance),
			})
		}
	}
	return Rank(out, g.Limit)
}

// Risk evaluates the tier rule and the top-quartile recommendation.
func (g *Generator) Risk(profiles []model.CounterpartyRiskProfile) ([]model.Alert, []model.Recommendation) {
	var alerts []model.Alert
	for _, p := range profiles {
		if p.Tier != model.RiskHigh {
			continue
		}
		alerts = append(alerts, model.Alert{
			Severity:        model.SeverityCritical,
			Subject:         p.Name,
			Message:         fmt.Sprintf("%s is high risk (score %d, delinquency %d%%)", p.Name, p.PredictiveScore, p.DelinquencyPct),
			SuggestedAction: ActionRenegotiate,
			EstimatedImpact: p.OpenBalance,
		})
	}

	var recs []model.Recommendation
	if threshold, ok := TopQuartileThreshold(profiles); ok {
		for _, p := range profiles {
			if p.Tier == model.RiskLow || p.DelinquencyPct < threshold {
				continue
			}
			recs = append(recs, model.Recommendation{
				Severity:        model.SeverityAttention,
				Subject:         p.Name,
				Message:         fmt.Sprintf("%s is in the top delinquency quartile (%d%%)", p.Name, p.DelinquencyPct),
				SuggestedAction: ActionMonitorClosely,
				EstimatedImpact: p.OpenBalance,
			})
		}
	}
	return Rank(alerts, g.Limit), Rank(recs, g.Limit)
}

// Budget evaluates the budget rules.
func (g *Generator) Budget(categories []model.CategoryBudget) ([]model.Alert, []model.Recommendation) {
	var alerts []model.Alert
	var recs []model.Recommendation
	for _, c := range categories {
		switch c.Status {
		case model.StatusExceeded:
			alerts = append(alerts, model.Alert{
				Severity:        model.SeverityAttention,
				Subject:         c.Category,
				Message:         fmt.Sprintf("%s exceeded plan at %s%%", c.Category, c.VariancePct.StringFixed(2)),
				SuggestedAction: ActionReviewCategory,
				EstimatedImpact: c.Realized.Sub(c.Planned),
			})
		case model.StatusAttention:
			recs = append(recs, model.Recommendation{
				Severity:        model.SeverityAttention,
				Subject:         c.Category,
				Message:         fmt.Sprintf("%s is at %s%% of plan", c.Category, c.VariancePct.StringFixed(2)),
				SuggestedAction: ActionReviewRemaining,
				EstimatedImpact: c.Planned.Sub(c.Realized),
			})
		case model.StatusExceededTarget:
			recs = append(recs, model.Recommendation{
				Severity:        model.SeverityInfo,
				Subject:         c.Category,
				Message:         fmt.Sprintf("%s beat its target at %s%%", c.Category, c.VariancePct.StringFixed(2)),
				SuggestedAction: ActionRaiseTarget,
				EstimatedImpact: c.Realized.Sub(c.Planned),
			})
		}
	}
	return Rank(alerts, g.Limit), Rank(recs, g.Limit)
}

// TopQuartileThreshold returns the smallest delinquency among the ceil(n/4)
// highest values in the batch.
func TopQuartileThreshold(profiles []model.CounterpartyRiskProfile) (int, bool) {
	if len(profiles) == 0 {
		return 0, false
	}
	vals := make([]int, len(profiles))
	for i, p := range profiles {
		vals[i] = p.DelinquencyPct
	}
	sort.Sort(sort.Reverse(sort.IntSlice(vals)))
	k := (len(vals) + 3) / 4
	return vals[k-1], true
}

// Ranked is anything Rank can order.
type Ranked interface {
	model.Alert | model.Recommendation
}

// Rank sorts by severity then estimated impact, both descending, keeping
// input order for ties, and caps the result at limit (limit <= 0 is no cap).
// The input slice is not modified.
func Rank[T Ranked](items []T, limit int) []T {
	out := make([]T, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		si, ii := key(out[i])
		sj, ij := key(out[j])
		if si.Rank() != sj.Rank() {
			return si.Rank() > sj.Rank()
		}
		return ii.GreaterThan(ij)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func key[T Ranked](v T) (model.Severity, decimal.Decimal) {
	switch x := any(v).(type) {
	case model.Alert:
		return x.Severity, x.EstimatedImpact
	case model.Recommendation:
		return x.Severity, x.EstimatedImpact
	}
	return model.SeverityInfo, decimal.Zero
}
