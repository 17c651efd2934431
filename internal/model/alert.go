package model

import "github.com/shopspring/decimal"

// Severity orders alerts and recommendations.
type Severity string

const (
	SeverityInfo      Severity = "info"
	SeverityAttention Severity = "attention"
	SeverityCritical  Severity = "critical"
)

// Rank returns a sortable weight; higher is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityAttention:
		return 1
	default:
		return 0
	}
}

// Alert is a fired threshold rule.
type Alert struct {
	Severity        Severity        `json:"severity"`
	Subject         string          `json:"subject"`
	Message         string          `json:"message"`
	SuggestedAction string          `json:"suggested_action"`
	EstimatedImpact decimal.Decimal `json:"estimated_impact"`
}

// Recommendation is a suggested follow-up that is not itself a breach.
type Recommendation struct {
	Severity        Severity        `json:"severity"`
	Subject         string          `json:"subject"`
	Message         string          `json:"message"`
	SuggestedAction string          `json:"suggested_action"`
	EstimatedImpact decimal.Decimal `json:"estimated_impact"`
}
