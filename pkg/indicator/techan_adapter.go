package indicator

import (
	"fmt"
	"math"
	"time"

	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
)

// candleSpan is the period given to each synthetic candle. Chart samples
// are at least minutes apart, so a short span keeps consecutive candles
// from overlapping.
const candleSpan = time.Second

// TechanBuilder wires techan indicators onto a series and returns the
// function that reads the indicator at an index.
type TechanBuilder func(series *techan.TimeSeries) func(index int) float64

// TechanCalculator adapts a techan indicator to the Calculator interface.
// Each price point becomes a flat candle (open = high = low = close).
type TechanCalculator struct {
	name      string
	minPoints int
	build     TechanBuilder
	series    *techan.TimeSeries
	compute   func(index int) float64
	processed int
}

// NewTechanCalculator creates a calculator that is ready after minPoints candles
func NewTechanCalculator(name string, minPoints int, build TechanBuilder) (*TechanCalculator, error) {
	if name == "" {
		return nil, fmt.Errorf("techan calculator name cannot be empty")
	}
	if minPoints < 1 {
		return nil, fmt.Errorf("techan calculator %s needs at least 1 point, got %d", name, minPoints)
	}
	if build == nil {
		return nil, fmt.Errorf("techan calculator %s has no builder", name)
	}

	t := &TechanCalculator{
		name:      name,
		minPoints: minPoints,
		build:     build,
	}
	t.Reset()
	return t, nil
}

// Name returns the indicator name
func (t *TechanCalculator) Name() string {
	return t.name
}

// Update appends the point as a candle. Points that do not advance the
// series timeline are skipped.
func (t *TechanCalculator) Update(point *models.PricePoint) (float64, error) {
	if point == nil {
		return 0, fmt.Errorf("price point cannot be nil")
	}

	t.processed++
	price := big.NewDecimal(point.Price)
	candle := techan.NewCandle(techan.NewTimePeriod(point.Timestamp, candleSpan))
	candle.OpenPrice = price
	candle.ClosePrice = price
	candle.MaxPrice = price
	candle.MinPrice = price
	candle.Volume = big.NewDecimal(point.Volume)

	if !t.series.AddCandle(candle) {
		return 0, nil
	}
	if !t.IsReady() {
		return 0, nil
	}
	return t.current(), nil
}

func (t *TechanCalculator) current() float64 {
	v := t.compute(t.series.LastIndex())
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Value returns the indicator at the last candle
func (t *TechanCalculator) Value() (float64, error) {
	if !t.IsReady() {
		return 0, fmt.Errorf("%s not ready: need at least %d points", t.name, t.minPoints)
	}
	return t.current(), nil
}

// Reset starts a fresh series and rebuilds the indicator chain on it.
// techan indicators cache per index, so they cannot be reused.
func (t *TechanCalculator) Reset() {
	t.series = techan.NewTimeSeries()
	t.compute = t.build(t.series)
	t.processed = 0
}

// IsReady returns true once the series holds minPoints candles
func (t *TechanCalculator) IsReady() bool {
	return len(t.series.Candles) >= t.minPoints
}

// WindowSize returns the number of candles required
func (t *TechanCalculator) WindowSize() int {
	return t.minPoints
}

// PointsProcessed returns the number of points processed, including skipped ones
func (t *TechanCalculator) PointsProcessed() int {
	return t.processed
}
