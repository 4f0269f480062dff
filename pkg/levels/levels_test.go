package levels

import (
	"testing"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestEstimate_Example(t *testing.T) {
	lv := Estimate(models.Snapshot{
		CurrentPrice:             100,
		High24h:                  110,
		Low24h:                   90,
		PriceChangePercentage24h: 12,
		TotalVolume:              2_000_000,
		MarketCap:                10_000_000,
	})

	assert.InDelta(t, 88.2, lv.Support, 1e-9)
	assert.InDelta(t, 112.2, lv.Resistance, 1e-9)
	assert.InDelta(t, 115.0, lv.Bullish, 1e-9)
	assert.InDelta(t, 103.6, lv.Neutral, 1e-9)
	assert.InDelta(t, 95.0, lv.Bearish, 1e-9)
	assert.Equal(t, 95.0, lv.Confidence)
	assert.Equal(t, Timeframe, lv.Timeframe)
}

func TestEstimate_SupportFloor(t *testing.T) {
	lv := Estimate(models.Snapshot{
		CurrentPrice:             100,
		High24h:                  130,
		Low24h:                   95,
		PriceChangePercentage24h: -30,
	})

	// 95 * (1 - 0.30) is below the 8% floor
	assert.InDelta(t, 95*0.92, lv.Support, 1e-9)
	assert.InDelta(t, 130*1.01, lv.Resistance, 1e-9)
	assert.Equal(t, minConfidence, lv.Confidence)
}

func TestEstimate_DegenerateRange(t *testing.T) {
	for _, s := range []models.Snapshot{
		{CurrentPrice: 100, High24h: 100, Low24h: 100},
		{CurrentPrice: 100},
		{CurrentPrice: 100, High24h: 90, Low24h: 110},
	} {
		lv := Estimate(s)
		assert.Equal(t, 100.0, lv.Support)
		assert.Equal(t, 100.0, lv.Resistance)
	}
}

func TestEstimate_BandContainment(t *testing.T) {
	prices := []float64{80, 90, 95, 100, 105, 110, 120}
	changes := []float64{-50, -12, -5, -1, 0, 1, 5, 12, 400}
	ratios := []float64{0, 0.01, 0.1, 0.5}

	for _, price := range prices {
		for _, change := range changes {
			for _, ratio := range ratios {
				lv := Estimate(models.Snapshot{
					CurrentPrice:             price,
					High24h:                  110,
					Low24h:                   90,
					PriceChangePercentage24h: change,
					TotalVolume:              ratio * 1_000_000,
					MarketCap:                1_000_000,
				})
				assert.LessOrEqual(t, lv.Support, price)
				assert.GreaterOrEqual(t, lv.Resistance, price)
				assert.GreaterOrEqual(t, lv.Confidence, minConfidence)
				assert.LessOrEqual(t, lv.Confidence, maxConfidence)
			}
		}
	}
}

func TestEstimate_ProjectionOrdering(t *testing.T) {
	for change := -100.0; change <= 1000.0; change += 0.5 {
		lv := Estimate(models.Snapshot{CurrentPrice: 100, High24h: 110, Low24h: 90, PriceChangePercentage24h: change})
		assert.LessOrEqual(t, lv.Bearish, lv.Neutral, "change %v", change)
		assert.LessOrEqual(t, lv.Neutral, lv.Bullish, "change %v", change)
	}
}
