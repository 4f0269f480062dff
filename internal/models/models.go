package models

import (
	"math"
	"time"
)

const (
	// MinPriceChange and MaxPriceChange bound the 24h change accepted by the scoring core
	MinPriceChange = -100.0
	MaxPriceChange = 10000.0
)

// Snapshot is one asset's market state at one point in time.
// Field names and JSON tags follow the CoinGecko /coins/markets item.
type Snapshot struct {
	ID                       string    `json:"id"`
	Symbol                   string    `json:"symbol"`
	Name                     string    `json:"name"`
	Image                    string    `json:"image,omitempty"`
	CurrentPrice             float64   `json:"current_price"`
	MarketCap                float64   `json:"market_cap"`
	MarketCapRank            int       `json:"market_cap_rank"`
	TotalVolume              float64   `json:"total_volume"`
	High24h                  float64   `json:"high_24h"`
	Low24h                   float64   `json:"low_24h"`
	PriceChangePercentage24h float64   `json:"price_change_percentage_24h"`
	PriceChangePercentage7d  float64   `json:"price_change_percentage_7d,omitempty"`
	CirculatingSupply        float64   `json:"circulating_supply,omitempty"`
	LastUpdated              time.Time `json:"last_updated,omitempty"`
}

// Validate validates a Snapshot's identity and price
func (s *Snapshot) Validate() error {
	if s.ID == "" {
		return ErrInvalidCoinID
	}
	if s.Symbol == "" {
		return ErrInvalidSymbol
	}
	if math.IsNaN(s.CurrentPrice) || math.IsInf(s.CurrentPrice, 0) || s.CurrentPrice < 0 {
		return ErrInvalidPrice
	}
	return nil
}

// Sanitize returns a copy with non-finite and negative numeric fields zeroed
// and the 24h change clamped to [MinPriceChange, MaxPriceChange]
func (s Snapshot) Sanitize() Snapshot {
	s.CurrentPrice = nonNegative(s.CurrentPrice)
	s.High24h = nonNegative(s.High24h)
	s.Low24h = nonNegative(s.Low24h)
	s.TotalVolume = nonNegative(s.TotalVolume)
	s.MarketCap = nonNegative(s.MarketCap)
	s.CirculatingSupply = nonNegative(s.CirculatingSupply)
	s.PriceChangePercentage24h = Clamp(finite(s.PriceChangePercentage24h), MinPriceChange, MaxPriceChange)
	s.PriceChangePercentage7d = Clamp(finite(s.PriceChangePercentage7d), MinPriceChange, MaxPriceChange)
	if s.MarketCapRank < 0 {
		s.MarketCapRank = 0
	}
	return s
}

// VolumeToMarketCap returns total_volume / market_cap.
// ok is false when market cap is zero or the ratio is not finite.
func (s *Snapshot) VolumeToMarketCap() (float64, bool) {
	if s.MarketCap <= 0 {
		return 0, false
	}
	ratio := s.TotalVolume / s.MarketCap
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) || ratio < 0 {
		return 0, false
	}
	return ratio, true
}

// Range returns high_24h - low_24h
func (s *Snapshot) Range() float64 {
	return s.High24h - s.Low24h
}

// RangePosition returns where the price sits in the 24h range (0 = low, 1 = high).
// ok is false when the range is empty or inverted.
func (s *Snapshot) RangePosition() (float64, bool) {
	r := s.Range()
	if r <= 0 {
		return 0, false
	}
	pos := (s.CurrentPrice - s.Low24h) / r
	if math.IsNaN(pos) || math.IsInf(pos, 0) {
		return 0, false
	}
	return pos, true
}

// RangePercent returns the 24h range as a percentage of the current price
func (s *Snapshot) RangePercent() float64 {
	if s.CurrentPrice <= 0 || s.Range() <= 0 {
		return 0
	}
	return s.Range() / s.CurrentPrice * 100
}

// HasRank reports whether the market cap rank is known
func (s *Snapshot) HasRank() bool {
	return s.MarketCapRank > 0
}

// PricePoint is one sample of a coin's price history
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	MarketCap float64   `json:"market_cap,omitempty"`
	Volume    float64   `json:"volume,omitempty"`
}

// ChartData holds price history for a coin over a timeframe
type ChartData struct {
	CoinID    string       `json:"coin_id"`
	Timeframe string       `json:"timeframe"`
	Points    []PricePoint `json:"points"`

	// Synthetic is true when the points were generated because the upstream failed
	Synthetic bool `json:"synthetic,omitempty"`
}

// Chart timeframes accepted by the market_chart endpoint
var ChartTimeframes = map[string]int{
	"1d":  1,
	"7d":  7,
	"30d": 30,
	"90d": 90,
}

// Clamp bounds v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func nonNegative(v float64) float64 {
	v = finite(v)
	if v < 0 {
		return 0
	}
	return v
}
