package indicator

import (
	"fmt"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
)

// SMA calculates the Simple Moving Average over the last period prices
type SMA struct {
	period    int
	name      string
	prices    []float64 // rolling window
	sum       float64
	ready     bool
	processed int
}

// NewSMA creates a new SMA calculator with the specified period
func NewSMA(period int) (*SMA, error) {
	if period < 1 {
		return nil, fmt.Errorf("SMA period must be at least 1, got %d", period)
	}

	return &SMA{
		period: period,
		name:   fmt.Sprintf("sma_%d", period),
		prices: make([]float64, 0, period+1),
	}, nil
}

// Name returns the indicator name
func (s *SMA) Name() string {
	return s.name
}

// Update processes a new price point and updates the SMA calculation
func (s *SMA) Update(point *models.PricePoint) (float64, error) {
	if point == nil {
		return 0, fmt.Errorf("price point cannot be nil")
	}

	s.prices = append(s.prices, point.Price)
	s.sum += point.Price
	s.processed++

	if len(s.prices) > s.period {
		s.sum -= s.prices[0]
		s.prices = append(s.prices[:0], s.prices[1:]...)
	}

	if len(s.prices) == s.period {
		s.ready = true
		return s.sum / float64(s.period), nil
	}
	return 0, nil
}

// Value returns the current SMA value
func (s *SMA) Value() (float64, error) {
	if !s.ready {
		return 0, fmt.Errorf("SMA not ready: need at least %d points", s.period)
	}
	return s.sum / float64(len(s.prices)), nil
}

// Reset clears the SMA state
func (s *SMA) Reset() {
	s.prices = s.prices[:0]
	s.sum = 0
	s.ready = false
	s.processed = 0
}

// IsReady returns true if the SMA has enough data
func (s *SMA) IsReady() bool {
	return s.ready
}

// WindowSize returns the period (number of points required)
func (s *SMA) WindowSize() int {
	return s.period
}

// PointsProcessed returns the number of points processed
func (s *SMA) PointsProcessed() int {
	return s.processed
}
