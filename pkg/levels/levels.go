// Package levels estimates support, resistance and short-term price
// projections from a 24h market snapshot.
package levels

import (
	"math"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
)

// Timeframe is the horizon the projections are issued for
const Timeframe = "7-14 days"

const (
	minConfidence = 50.0
	maxConfidence = 95.0
)

// Estimate computes technical levels for a snapshot.
// Whenever the 24h range is valid, support <= price <= resistance, and
// bearish <= neutral <= bullish always holds.
func Estimate(s models.Snapshot) models.TechnicalLevels {
	s = s.Sanitize()
	price := s.CurrentPrice
	change := s.PriceChangePercentage24h
	ratio, _ := s.VolumeToMarketCap()

	bullish, neutral, bearish := project(price, change)
	lv := models.TechnicalLevels{
		Bullish:    bullish,
		Neutral:    neutral,
		Bearish:    bearish,
		Confidence: confidence(&s, ratio),
		Timeframe:  Timeframe,
	}

	if s.High24h <= s.Low24h || price <= 0 {
		lv.Support = price
		lv.Resistance = price
		return lv
	}

	support := s.Low24h * 0.98
	if change < 0 {
		support = s.Low24h * (1 - math.Abs(change)*0.01)
	}
	support = math.Max(support, s.Low24h*0.92)

	resistanceMult := 1.01
	if ratio > 0.1 {
		resistanceMult = 1.02
	}

	lv.Support = math.Min(support, price)
	lv.Resistance = math.Max(s.High24h*resistanceMult, price)
	return lv
}

func project(price, change float64) (bullish, neutral, bearish float64) {
	switch {
	case change > 5:
		bullish = price * 1.15
	case change > 0:
		bullish = price * 1.08
	default:
		bullish = price * 1.05
	}

	switch {
	case change < -5:
		bearish = price * 0.85
	case change < 0:
		bearish = price * 0.92
	default:
		bearish = price * 0.95
	}

	neutral = models.Clamp(price*(1+change*0.003), bearish, bullish)
	return bullish, neutral, bearish
}

func confidence(s *models.Snapshot, ratio float64) float64 {
	var penalty float64
	switch v := s.RangePercent(); {
	case v > 10:
		penalty = 15
	case v > 5:
		penalty = 8
	}
	return models.Clamp(math.Min(90, ratio*500)-penalty+60, minConfidence, maxConfidence)
}
