package signal

import (
	"fmt"
	"math"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
)

// Analyzer weights. They sum to 1.
const (
	CandlestickWeight       = 0.25
	VolumeWeight            = 0.30
	MomentumWeight          = 0.25
	SupportResistanceWeight = 0.20
)

// Analyzer produces one trading signal from a snapshot
type Analyzer interface {
	Name() string
	Weight() float64
	Analyze(s *models.Snapshot) models.TradingSignal
}

// DefaultAnalyzers returns the four heuristic analyzers in display order
func DefaultAnalyzers() []Analyzer {
	return []Analyzer{
		CandlestickAnalyzer{},
		VolumeAnalyzer{},
		MomentumAnalyzer{},
		SupportResistanceAnalyzer{},
	}
}

func newSignal(a Analyzer, label models.SignalLabel, strength, confidence float64, desc string) models.TradingSignal {
	return models.TradingSignal{
		Analyzer:    a.Name(),
		Signal:      label,
		Strength:    models.Clamp(strength, 1, 10),
		Confidence:  models.Clamp(confidence, 0, 100),
		Weight:      a.Weight(),
		Description: desc,
	}
}

// position defaults to the middle of the range when the range is empty
func position(s *models.Snapshot) float64 {
	if pos, ok := s.RangePosition(); ok {
		return pos
	}
	return 0.5
}

// CandlestickAnalyzer reads the 24h candle shape
type CandlestickAnalyzer struct{}

func (CandlestickAnalyzer) Name() string    { return "candlestick" }
func (CandlestickAnalyzer) Weight() float64 { return CandlestickWeight }

func (a CandlestickAnalyzer) Analyze(s *models.Snapshot) models.TradingSignal {
	change := s.PriceChangePercentage24h
	body := math.Abs(change)
	rng := s.Range()

	switch {
	case body < 1 && rng > s.CurrentPrice*0.02:
		return newSignal(a, models.SignalNeutral, 5, 70, "Doji pattern, market indecision")
	case change > 5 && s.CurrentPrice > s.Low24h+rng*0.7:
		label := models.SignalBuy
		if change > 10 {
			label = models.SignalStrongBuy
		}
		return newSignal(a, label, math.Min(9, 6+body/2), 80,
			fmt.Sprintf("Bullish candle, close in the upper range after %+.1f%%", change))
	case change < -5 && s.CurrentPrice < s.High24h-rng*0.7:
		label := models.SignalSell
		if change < -10 {
			label = models.SignalStrongSell
		}
		return newSignal(a, label, math.Min(9, 6+body/2), 80,
			fmt.Sprintf("Bearish candle, close in the lower range after %+.1f%%", change))
	}
	return newSignal(a, models.SignalNeutral, 5, 60, "No clear candlestick pattern")
}

// VolumeAnalyzer reads volume relative to market cap
type VolumeAnalyzer struct{}

func (VolumeAnalyzer) Name() string    { return "volume_profile" }
func (VolumeAnalyzer) Weight() float64 { return VolumeWeight }

func (a VolumeAnalyzer) Analyze(s *models.Snapshot) models.TradingSignal {
	ratio, ok := s.VolumeToMarketCap()
	if !ok {
		return newSignal(a, models.SignalNeutral, 5, 65, "Insufficient data for volume analysis")
	}
	change := s.PriceChangePercentage24h

	switch {
	case ratio > 0.15 && change > 2:
		label := models.SignalBuy
		if ratio > 0.25 {
			label = models.SignalStrongBuy
		}
		return newSignal(a, label, math.Min(9, 7+ratio*10), 85,
			fmt.Sprintf("High volume (%.1f%% of market cap) supports the advance", ratio*100))
	case ratio > 0.15 && change < -2:
		label := models.SignalSell
		if ratio > 0.25 {
			label = models.SignalStrongSell
		}
		return newSignal(a, label, math.Min(9, 7+ratio*10), 85,
			fmt.Sprintf("High volume (%.1f%% of market cap) confirms distribution", ratio*100))
	case ratio < 0.05:
		return newSignal(a, models.SignalNeutral, 3, 70, "Low volume, weak conviction")
	}
	return newSignal(a, models.SignalNeutral, 5, 65, "Normal volume")
}

// MomentumAnalyzer reads the 24h change together with the range position
type MomentumAnalyzer struct{}

func (MomentumAnalyzer) Name() string    { return "momentum" }
func (MomentumAnalyzer) Weight() float64 { return MomentumWeight }

func (a MomentumAnalyzer) Analyze(s *models.Snapshot) models.TradingSignal {
	change := s.PriceChangePercentage24h
	pos := position(s)

	switch {
	case change > 3 && pos > 0.6:
		label := models.SignalBuy
		if change > 8 {
			label = models.SignalStrongBuy
		}
		return newSignal(a, label, math.Min(9, 6+change/2), 80,
			fmt.Sprintf("Positive momentum of %+.1f%%", change))
	case change < -3 && pos < 0.4:
		label := models.SignalSell
		if change < -8 {
			label = models.SignalStrongSell
		}
		return newSignal(a, label, math.Min(9, 6+math.Abs(change)/2), 80,
			fmt.Sprintf("Negative momentum of %+.1f%%", change))
	}
	return newSignal(a, models.SignalNeutral, 5, 70, "Momentum is flat")
}

// SupportResistanceAnalyzer reads the distance to the 24h extremes
type SupportResistanceAnalyzer struct{}

func (SupportResistanceAnalyzer) Name() string    { return "support_resistance" }
func (SupportResistanceAnalyzer) Weight() float64 { return SupportResistanceWeight }

func (a SupportResistanceAnalyzer) Analyze(s *models.Snapshot) models.TradingSignal {
	pos := position(s)

	switch {
	case pos > 0.8:
		label := models.SignalSell
		if pos > 0.95 {
			label = models.SignalStrongSell
		}
		return newSignal(a, label, math.Min(9, 6+(pos-0.8)*15), 80, "Price is testing resistance")
	case pos < 0.2:
		label := models.SignalBuy
		if pos < 0.05 {
			label = models.SignalStrongBuy
		}
		return newSignal(a, label, math.Min(9, 6+(0.2-pos)*15), 80, "Price is holding near support")
	}
	return newSignal(a, models.SignalNeutral, 6, 75, "Price is mid-range")
}
