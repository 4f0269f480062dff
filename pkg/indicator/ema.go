package indicator

import (
	"fmt"
	"math"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
)

// EMA calculates the Exponential Moving Average
// EMA = (Price - Previous EMA) * Multiplier + Previous EMA
// Multiplier = 2 / (Period + 1)
type EMA struct {
	period     int
	name       string
	multiplier float64
	value      float64
	ready      bool
	processed  int
}

// NewEMA creates a new EMA calculator with the specified period
func NewEMA(period int) (*EMA, error) {
	if period < 1 {
		return nil, fmt.Errorf("EMA period must be at least 1, got %d", period)
	}

	return &EMA{
		period:     period,
		name:       fmt.Sprintf("ema_%d", period),
		multiplier: 2.0 / float64(period+1),
	}, nil
}

// Name returns the indicator name
func (e *EMA) Name() string {
	return e.name
}

// Update processes a new price point and updates the EMA calculation
func (e *EMA) Update(point *models.PricePoint) (float64, error) {
	if point == nil {
		return 0, fmt.Errorf("price point cannot be nil")
	}

	price := point.Price
	e.processed++

	// the first point seeds the average
	if e.processed == 1 {
		e.value = price
		return e.value, nil
	}

	e.value = (price-e.value)*e.multiplier + e.value
	if math.IsNaN(e.value) || math.IsInf(e.value, 0) {
		e.value = price
	}

	// report ready once a full period has been folded in
	if e.processed >= e.period {
		e.ready = true
	}
	return e.value, nil
}

// Value returns the current EMA value
func (e *EMA) Value() (float64, error) {
	if !e.ready {
		return 0, fmt.Errorf("EMA not ready: need at least %d points", e.period)
	}
	return e.value, nil
}

// Reset clears the EMA state
func (e *EMA) Reset() {
	e.value = 0
	e.ready = false
	e.processed = 0
}

// IsReady returns true if the EMA has enough data
func (e *EMA) IsReady() bool {
	return e.ready
}

// WindowSize returns the period
func (e *EMA) WindowSize() int {
	return e.period
}

// PointsProcessed returns the number of points processed
func (e *EMA) PointsProcessed() int {
	return e.processed
}
