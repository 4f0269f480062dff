// Package risk derives volatility, value at risk, correlation, drawdown and
// liquidity readings from a 24h market snapshot.
package risk

import (
	"math"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
)

const (
	// z-score of the one-sided 95% quantile
	z95 = 1.645

	defaultCorrelation = 65.0
	minCorrelation     = 30.0
	maxCorrelation     = 95.0
)

// correlated lists assets that historically track bitcoin closely
var correlated = map[string]float64{
	"ethereum":    75,
	"binancecoin": 75,
	"cardano":     75,
	"solana":      75,
}

var levelWeights = map[models.RiskLevel]float64{
	models.RiskLow:    1,
	models.RiskMedium: 2,
	models.RiskHigh:   3,
}

var positionSizes = map[models.RiskLevel]models.PositionSize{
	models.RiskLow:      {MinPercent: 5, MaxPercent: 10},
	models.RiskModerate: {MinPercent: 3, MaxPercent: 5},
	models.RiskHigh:     {MinPercent: 1, MaxPercent: 2},
}

// Assess computes the full risk profile of a snapshot
func Assess(s models.Snapshot) models.RiskProfile {
	s = s.Sanitize()

	vol := Volatility(&s)
	p := models.RiskProfile{
		Volatility:     metric("volatility", vol, 15, 8, 90),
		ValueAtRisk:    metric("value_at_risk_95", ValueAtRisk(vol), 12, 6, 85),
		BTCCorrelation: metric("btc_correlation", BTCCorrelation(s.ID), 80, 60, 75),
		MaxDrawdown:    metric("max_drawdown", MaxDrawdown(&s), 25, 15, 95),
		Liquidity:      liquidity(&s),
	}
	p.BTCCorrelation.Estimated = true

	var weighted, totalConfidence float64
	for _, m := range p.Metrics() {
		weighted += levelWeights[m.Level] * m.Confidence
		totalConfidence += m.Confidence
	}
	avg := weighted / totalConfidence

	switch {
	case avg >= 2.5:
		p.OverallLevel = models.RiskHigh
	case avg >= 1.7:
		p.OverallLevel = models.RiskModerate
	default:
		p.OverallLevel = models.RiskLow
	}
	p.NormalizedScore = models.Clamp((avg-1)*50, 0, 100)
	p.PositionSize = positionSizes[p.OverallLevel]
	return p
}

// Volatility averages the 24h range and the absolute 24h change, both in percent
func Volatility(s *models.Snapshot) float64 {
	return (s.RangePercent() + math.Abs(s.PriceChangePercentage24h)) / 2
}

// ValueAtRisk scales an annualized volatility down to one day at 95% confidence
func ValueAtRisk(volatility float64) float64 {
	return math.Abs(volatility / math.Sqrt(365) * z95)
}

// BTCCorrelation returns a static estimate of how closely a coin tracks bitcoin
func BTCCorrelation(coinID string) float64 {
	if coinID == "bitcoin" {
		return 100
	}
	c, ok := correlated[coinID]
	if !ok {
		c = defaultCorrelation
	}
	return models.Clamp(c, minCorrelation, maxCorrelation)
}

// MaxDrawdown returns the larger of the full 24h range and the fall from the
// 24h high, in percent of the high
func MaxDrawdown(s *models.Snapshot) float64 {
	if s.High24h <= 0 {
		return 0
	}
	rangeDD := math.Max(s.Range(), 0) / s.High24h * 100
	fromHigh := math.Max(s.High24h-s.CurrentPrice, 0) / s.High24h * 100
	return math.Max(rangeDD, fromHigh)
}

func metric(name string, value, high, medium, confidence float64) models.RiskMetric {
	level := models.RiskLow
	switch {
	case value > high:
		level = models.RiskHigh
	case value > medium:
		level = models.RiskMedium
	}
	return models.RiskMetric{Name: name, Value: value, Level: level, Confidence: confidence}
}

func liquidity(s *models.Snapshot) models.RiskMetric {
	m := models.RiskMetric{Name: "liquidity", Level: models.RiskHigh, Confidence: 90}
	ratio, ok := s.VolumeToMarketCap()
	if !ok {
		return m
	}
	m.Value = ratio * 100
	switch {
	case m.Value >= 15:
		m.Level = models.RiskLow
	case m.Value >= 5:
		m.Level = models.RiskMedium
	}
	return m
}
