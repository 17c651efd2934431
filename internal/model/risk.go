package model

import "github.com/shopspring/decimal"

// RiskTier is a coarse delinquency classification.
type RiskTier string

const (
	RiskLow    RiskTier = "low"
	RiskMedium RiskTier = "medium"
	RiskHigh   RiskTier = "high"
)

// CounterpartyRecord is the payment history supplied for one counterparty.
// A nil PunctualityPct or DaysOverdue means the history is missing.
type CounterpartyRecord struct {
	Name           string
	OpenBalance    decimal.Decimal
	DaysOverdue    *int
	PunctualityPct *float64 // 0-100
	VolatilityPct  float64  // 0-100, open-balance volatility
}

// CounterpartyRiskProfile is the scored output for one counterparty.
type CounterpartyRiskProfile struct {
	Name            string          `json:"name"`
	OpenBalance     decimal.Decimal `json:"open_balance"`
	DaysOverdue     int             `json:"days_overdue"`
	PunctualityPct  float64         `json:"payment_punctuality_pct"`
	VolatilityPct   float64         `json:"volatility_pct"`
	PredictiveScore int             `json:"predictive_score"`
	Tier            RiskTier        `json:"risk_tier"`
	DelinquencyPct  int             `json:"delinquency_probability_pct"`
}
