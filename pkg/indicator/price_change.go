package indicator

import (
	"fmt"
	"time"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
)

// PriceChange calculates the percentage price change over a time window
type PriceChange struct {
	name      string
	window    timeWindow
	ready     bool
	processed int
}

// NewPriceChange creates a new price change calculator
func NewPriceChange(window time.Duration) (*PriceChange, error) {
	if window <= 0 {
		return nil, fmt.Errorf("price change window must be positive, got %v", window)
	}

	return &PriceChange{
		name:   fmt.Sprintf("price_change_%s_pct", formatDuration(window)),
		window: timeWindow{span: window},
	}, nil
}

// Name returns the indicator name
func (p *PriceChange) Name() string {
	return p.name
}

// Update processes a new price point and updates the change calculation
func (p *PriceChange) Update(point *models.PricePoint) (float64, error) {
	if point == nil {
		return 0, fmt.Errorf("price point cannot be nil")
	}

	p.window.push(*point)
	p.processed++

	// two points in the window are needed for a change
	p.ready = len(p.window.points) >= 2
	if !p.ready {
		return 0, nil
	}
	return p.calculate(), nil
}

func (p *PriceChange) calculate() float64 {
	pts := p.window.points
	if len(pts) < 2 {
		return 0
	}
	oldest, newest := pts[0].Price, pts[len(pts)-1].Price
	if oldest == 0 {
		return 0
	}
	return (newest - oldest) / oldest * 100.0
}

// Value returns the current price change percentage
func (p *PriceChange) Value() (float64, error) {
	if !p.ready {
		return 0, fmt.Errorf("price change not ready: need at least 2 points in window")
	}
	return p.calculate(), nil
}

// Reset clears the price change state
func (p *PriceChange) Reset() {
	p.window.reset()
	p.ready = false
	p.processed = 0
}

// IsReady returns true if the price change can be calculated
func (p *PriceChange) IsReady() bool {
	return p.ready
}

// WindowSize estimates the window in hourly samples
func (p *PriceChange) WindowSize() int {
	return pointsFor(p.window.span, time.Hour, 2)
}

// PointsProcessed returns the number of points processed
func (p *PriceChange) PointsProcessed() int {
	return p.processed
}
