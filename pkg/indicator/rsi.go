package indicator

import (
	"fmt"
	"math"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
)

// RSI calculates the Relative Strength Index with Wilder's smoothing.
// RSI = 100 - (100 / (1 + RS)), RS = average gain / average loss.
type RSI struct {
	period    int
	name      string
	gains     []float64 // seed window of gains
	losses    []float64 // seed window of losses
	prevPrice float64
	started   bool
	ready     bool
	processed int
	avgGain   float64
	avgLoss   float64
}

// NewRSI creates a new RSI calculator with the specified period (typically 14)
func NewRSI(period int) (*RSI, error) {
	if period < 2 {
		return nil, fmt.Errorf("RSI period must be at least 2, got %d", period)
	}

	return &RSI{
		period: period,
		name:   fmt.Sprintf("rsi_%d", period),
		gains:  make([]float64, 0, period),
		losses: make([]float64, 0, period),
	}, nil
}

// Name returns the indicator name
func (r *RSI) Name() string {
	return r.name
}

// Update processes a new price point and updates the RSI calculation
func (r *RSI) Update(point *models.PricePoint) (float64, error) {
	if point == nil {
		return 0, fmt.Errorf("price point cannot be nil")
	}

	r.processed++
	if !r.started {
		r.prevPrice = point.Price
		r.started = true
		return 0, nil
	}

	change := point.Price - r.prevPrice
	r.prevPrice = point.Price
	gain := math.Max(change, 0)
	loss := math.Max(-change, 0)

	if !r.ready {
		r.gains = append(r.gains, gain)
		r.losses = append(r.losses, loss)
		if len(r.gains) < r.period {
			return 0, nil
		}

		var sumGain, sumLoss float64
		for i := range r.gains {
			sumGain += r.gains[i]
			sumLoss += r.losses[i]
		}
		r.avgGain = sumGain / float64(r.period)
		r.avgLoss = sumLoss / float64(r.period)
		r.ready = true
		return r.calculate(), nil
	}

	// Wilder: new avg = (old avg * (period - 1) + value) / period
	r.avgGain = (r.avgGain*float64(r.period-1) + gain) / float64(r.period)
	r.avgLoss = (r.avgLoss*float64(r.period-1) + loss) / float64(r.period)
	return r.calculate(), nil
}

func (r *RSI) calculate() float64 {
	if r.avgLoss == 0 {
		if r.avgGain == 0 {
			return 50.0
		}
		return 100.0
	}

	rsi := 100.0 - (100.0 / (1.0 + r.avgGain/r.avgLoss))
	if math.IsNaN(rsi) || math.IsInf(rsi, 0) {
		return 50.0
	}
	return models.Clamp(rsi, 0, 100)
}

// Value returns the current RSI value
func (r *RSI) Value() (float64, error) {
	if !r.ready {
		return 0, fmt.Errorf("RSI not ready: need at least %d points", r.period+1)
	}
	return r.calculate(), nil
}

// Reset clears the RSI state
func (r *RSI) Reset() {
	r.gains = r.gains[:0]
	r.losses = r.losses[:0]
	r.prevPrice = 0
	r.started = false
	r.ready = false
	r.processed = 0
	r.avgGain = 0
	r.avgLoss = 0
}

// IsReady returns true if the RSI has enough data
func (r *RSI) IsReady() bool {
	return r.ready
}

// WindowSize returns period + 1, the first change needs two points
func (r *RSI) WindowSize() int {
	return r.period + 1
}

// PointsProcessed returns the number of points processed
func (r *RSI) PointsProcessed() int {
	return r.processed
}
