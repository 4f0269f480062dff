package indicator

import (
	"math"
	"testing"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
)

var rally = models.Snapshot{
	ID:                       "example",
	CurrentPrice:             100,
	High24h:                  110,
	Low24h:                   90,
	PriceChangePercentage24h: 12,
	TotalVolume:              2_000_000,
	MarketCap:                10_000_000,
}

func byName(readings []models.IndicatorReading) map[string]models.IndicatorReading {
	out := make(map[string]models.IndicatorReading, len(readings))
	for _, r := range readings {
		out[r.Name] = r
	}
	return out
}

func TestApproximations_Rally(t *testing.T) {
	got := byName(Approximations(rally))
	if len(got) != 10 {
		t.Fatalf("Expected 10 approximations, got %d", len(got))
	}

	tests := []struct {
		name     string
		value    float64
		signal   models.IndicatorSignal
		strength models.IndicatorStrength
	}{
		{NameRSI, 84, models.IndicatorSell, models.StrengthStrong},
		{NameRSIMomentum14, 80, models.IndicatorSell, models.StrengthModerate},
		{NameRSIMomentum50, 71.6, models.IndicatorSell, models.StrengthModerate},
		{NameStochRSI, 90, models.IndicatorSell, models.StrengthStrong},
		{NameMACD, 8, models.IndicatorBuy, models.StrengthModerate},
		{NameBollingerPctB, 50, models.IndicatorNeutral, models.StrengthModerate},
		{NameWilliamsR, -50, models.IndicatorNeutral, models.StrengthModerate},
		{NameVWAP, 102, models.IndicatorSell, models.StrengthModerate},
		{NameATRPercent, 20, models.IndicatorNeutral, models.StrengthModerate},
	}
	for _, tt := range tests {
		r, ok := got[tt.name]
		if !ok {
			t.Errorf("%s missing", tt.name)
			continue
		}
		if math.Abs(r.Value-tt.value) > 1e-9 {
			t.Errorf("%s value = %f, want %f", tt.name, r.Value, tt.value)
		}
		if r.Signal != tt.signal {
			t.Errorf("%s signal = %s, want %s", tt.name, r.Signal, tt.signal)
		}
		if r.Strength != tt.strength {
			t.Errorf("%s strength = %s, want %s", tt.name, r.Strength, tt.strength)
		}
		if !r.Approximate {
			t.Errorf("%s should be flagged approximate", tt.name)
		}
	}
}

func TestApproximations_Degenerate(t *testing.T) {
	got := byName(Approximations(models.Snapshot{CurrentPrice: 10, High24h: 10, Low24h: 10}))

	if got[NameBollingerPctB].Value != 50 {
		t.Errorf("Expected %%B 50 for an empty range, got %f", got[NameBollingerPctB].Value)
	}
	if got[NameWilliamsR].Value != -50 {
		t.Errorf("Expected Williams %%R -50 for an empty range, got %f", got[NameWilliamsR].Value)
	}
	if got[NameATRPercent].Value != 0 {
		t.Errorf("Expected ATR 0, got %f", got[NameATRPercent].Value)
	}
	// unknown turnover counts as thin
	if got[NameRSI].Value != 45 {
		t.Errorf("Expected RSI 45, got %f", got[NameRSI].Value)
	}
	if got[NameMACD].Value != 0 {
		t.Errorf("Expected MACD 0, got %f", got[NameMACD].Value)
	}
}

func TestApproximations_Bounded(t *testing.T) {
	for _, c := range []float64{-1000, -60, 0, 60, 1000} {
		s := rally
		s.PriceChangePercentage24h = c
		for _, r := range Approximations(s) {
			if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
				t.Errorf("change %v: %s is not finite", c, r.Name)
			}
			switch r.Name {
			case NameRSI, NameStochRSI, NameRSIMomentum14, NameRSIMomentum21, NameRSIMomentum50, NameBollingerPctB:
				if r.Value < 0 || r.Value > 100 {
					t.Errorf("change %v: %s = %f out of [0,100]", c, r.Name, r.Value)
				}
			}
		}
	}
}

func TestReadings_NoHistory(t *testing.T) {
	readings := Readings(rally, nil)
	if len(readings) != 10 {
		t.Fatalf("Expected 10 readings, got %d", len(readings))
	}
	if readings[0].Name != NameRSI {
		t.Errorf("Expected RSI first, got %s", readings[0].Name)
	}
	for _, r := range readings {
		if !r.Approximate {
			t.Errorf("%s should be approximate without history", r.Name)
		}
	}
}

func TestReadings_ShortHistory(t *testing.T) {
	got := byName(Readings(rally, hourly(ramp(5, 95, 1)...)))

	if !got[NameRSI].Approximate {
		t.Error("RSI should stay approximate with 5 points")
	}
	if got[NameVWAP].Approximate {
		t.Error("VWAP should come from history")
	}
	if _, ok := got[NameEMA]; ok {
		t.Error("EMA should not be reported before 20 points")
	}
}

func TestReadings_FullHistory(t *testing.T) {
	readings := Readings(rally, hourly(ramp(60, 40, 1)...))
	got := byName(readings)

	if len(readings) != 14 {
		t.Fatalf("Expected 14 readings, got %d", len(readings))
	}
	for _, name := range []string{NameRSI, NameMACD, NameMACDHistogram, NameBollingerPctB, NameEMA, NameSMA, NameVWAP, NamePriceChange} {
		r, ok := got[name]
		if !ok {
			t.Errorf("%s missing", name)
			continue
		}
		if r.Approximate {
			t.Errorf("%s should come from history", name)
		}
	}

	if got[NameRSI].Value != 100 {
		t.Errorf("Expected RSI 100 for a rising series, got %f", got[NameRSI].Value)
	}
	// the sma of the last 20 prices (80..99) is 89.5, below the live price
	if math.Abs(got[NameSMA].Value-89.5) > 1e-9 || got[NameSMA].Signal != models.IndicatorBuy {
		t.Errorf("Unexpected SMA reading %+v", got[NameSMA])
	}
	if got[NameStochRSI].Approximate != true {
		t.Error("StochRSI has no history form")
	}
}

func TestReadings_UnsortedHistory(t *testing.T) {
	points := hourly(ramp(60, 40, 1)...)
	reversed := make([]models.PricePoint, len(points))
	for i := range points {
		reversed[len(points)-1-i] = points[i]
	}

	a := byName(Readings(rally, points))
	b := byName(Readings(rally, reversed))
	if a[NameSMA].Value != b[NameSMA].Value || a[NameMACD].Value != b[NameMACD].Value {
		t.Error("Readings should not depend on input order")
	}
}
