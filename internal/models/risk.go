package models

// RiskMetric is a single risk measurement with its bucket
type RiskMetric struct {
	Name       string    `json:"name"`
	Value      float64   `json:"value"`
	Level      RiskLevel `json:"level"`
	Confidence float64   `json:"confidence"`
	Estimated  bool      `json:"estimated,omitempty"`
}

// PositionSize is a recommended allocation range in percent of portfolio
type PositionSize struct {
	MinPercent float64 `json:"min_percent"`
	MaxPercent float64 `json:"max_percent"`
}

// RiskProfile aggregates all risk metrics for a snapshot
type RiskProfile struct {
	Volatility      RiskMetric   `json:"volatility"`
	ValueAtRisk     RiskMetric   `json:"value_at_risk"`
	BTCCorrelation  RiskMetric   `json:"btc_correlation"`
	MaxDrawdown     RiskMetric   `json:"max_drawdown"`
	Liquidity       RiskMetric   `json:"liquidity"`
	OverallLevel    RiskLevel    `json:"overall_level"`
	NormalizedScore float64      `json:"normalized_score"`
	PositionSize    PositionSize `json:"position_size"`
}

// Metrics returns the per-metric readings in display order
func (p *RiskProfile) Metrics() []RiskMetric {
	return []RiskMetric{p.Volatility, p.ValueAtRisk, p.BTCCorrelation, p.MaxDrawdown, p.Liquidity}
}
