package indicator

import (
	"fmt"
	"time"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
)

// VWAP calculates the Volume Weighted Average Price over a time window.
// Chart points carry a single price per sample, so that price stands in
// for the typical price.
type VWAP struct {
	name      string
	window    timeWindow
	ready     bool
	processed int
}

// NewVWAP creates a new VWAP calculator with the specified time window
func NewVWAP(window time.Duration) (*VWAP, error) {
	if window <= 0 {
		return nil, fmt.Errorf("VWAP window must be positive, got %v", window)
	}

	return &VWAP{
		name:   fmt.Sprintf("vwap_%s", formatDuration(window)),
		window: timeWindow{span: window},
	}, nil
}

// Name returns the indicator name
func (v *VWAP) Name() string {
	return v.name
}

// Update processes a new price point and updates the VWAP calculation
func (v *VWAP) Update(point *models.PricePoint) (float64, error) {
	if point == nil {
		return 0, fmt.Errorf("price point cannot be nil")
	}

	v.window.push(*point)
	v.processed++

	value, ok := v.calculate()
	v.ready = ok
	return value, nil
}

// calculate returns false when the window carries no volume
func (v *VWAP) calculate() (float64, bool) {
	var priceVolume, volume float64
	for _, p := range v.window.points {
		if p.Volume <= 0 {
			continue
		}
		priceVolume += p.Price * p.Volume
		volume += p.Volume
	}
	if volume == 0 {
		return 0, false
	}
	return priceVolume / volume, true
}

// Value returns the current VWAP value
func (v *VWAP) Value() (float64, error) {
	value, ok := v.calculate()
	if !ok {
		return 0, fmt.Errorf("VWAP not ready: no volume in window")
	}
	return value, nil
}

// Reset clears the VWAP state
func (v *VWAP) Reset() {
	v.window.reset()
	v.ready = false
	v.processed = 0
}

// IsReady returns true once the window holds traded volume
func (v *VWAP) IsReady() bool {
	return v.ready
}

// WindowSize estimates the window in hourly samples
func (v *VWAP) WindowSize() int {
	return pointsFor(v.window.span, time.Hour, 1)
}

// PointsProcessed returns the number of points processed
func (v *VWAP) PointsProcessed() int {
	return v.processed
}
