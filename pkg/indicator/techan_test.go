package indicator

import (
	"math"
	"testing"

	"github.com/sdcoffey/techan"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
)

func TestNewTechanCalculator_Validation(t *testing.T) {
	build := func(series *techan.TimeSeries) func(int) float64 {
		return func(int) float64 { return 0 }
	}

	if _, err := NewTechanCalculator("", 1, build); err == nil {
		t.Error("Expected error for empty name")
	}
	if _, err := NewTechanCalculator("x", 0, build); err == nil {
		t.Error("Expected error for zero min points")
	}
	if _, err := NewTechanCalculator("x", 1, nil); err == nil {
		t.Error("Expected error for nil builder")
	}
}

func TestTechanCalculator_ClosePrice(t *testing.T) {
	calc, err := NewTechanCalculator("close", 2, func(series *techan.TimeSeries) func(int) float64 {
		closes := techan.NewClosePriceIndicator(series)
		return func(i int) float64 { return closes.Calculate(i).Float() }
	})
	if err != nil {
		t.Fatalf("Failed to create calculator: %v", err)
	}

	feed(t, calc, hourly(10))
	if calc.IsReady() {
		t.Fatal("Calculator should not be ready after 1 point")
	}

	val := feed(t, calc, hourly(10, 12)[1:])
	if val != 12 {
		t.Errorf("Expected last close 12, got %f", val)
	}

	calc.Reset()
	if calc.IsReady() || calc.PointsProcessed() != 0 {
		t.Error("Calculator should be empty after Reset")
	}
}

func TestTechanCalculator_SkipsStalePoints(t *testing.T) {
	calc, _ := NewBollingerPercentB(2, 2)
	points := hourly(10, 11)
	stale := models.PricePoint{Timestamp: points[0].Timestamp, Price: 99}

	feed(t, calc, points)
	v, err := calc.Update(&stale)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if v != 0 {
		t.Errorf("Expected 0 for a skipped point, got %f", v)
	}
	if calc.PointsProcessed() != 3 {
		t.Errorf("Expected 3 points processed, got %d", calc.PointsProcessed())
	}
}

func TestMACD_RisingSeries(t *testing.T) {
	if _, err := NewMACD(26, 12); err == nil {
		t.Error("Expected error when fast >= slow")
	}

	macd, err := NewMACD(MACDFast, MACDSlow)
	if err != nil {
		t.Fatalf("Failed to create MACD: %v", err)
	}
	if macd.Name() != "macd_12_26" {
		t.Errorf("Unexpected name %s", macd.Name())
	}

	val := feed(t, macd, hourly(ramp(40, 100, 1)...))
	if !macd.IsReady() {
		t.Fatal("MACD should be ready after 40 points")
	}
	if val <= 0 {
		t.Errorf("Expected positive MACD for a rising series, got %f", val)
	}
}

func TestMACDHistogram_Ready(t *testing.T) {
	if _, err := NewMACDHistogram(12, 26, 0); err == nil {
		t.Error("Expected error for zero signal window")
	}

	hist, _ := NewMACDHistogram(MACDFast, MACDSlow, MACDSignal)
	feed(t, hist, hourly(ramp(34, 100, 1)...))
	if hist.IsReady() {
		t.Fatal("Histogram should need slow + signal points")
	}

	val := feed(t, hist, hourly(ramp(35, 100, 1)...)[34:])
	if !hist.IsReady() {
		t.Fatal("Histogram should be ready after 35 points")
	}
	if math.IsNaN(val) || math.IsInf(val, 0) {
		t.Errorf("Expected a finite histogram, got %f", val)
	}
}

func TestBollingerPercentB(t *testing.T) {
	if _, err := NewBollingerPercentB(1, 2); err == nil {
		t.Error("Expected error for window < 2")
	}
	if _, err := NewBollingerPercentB(20, 0); err == nil {
		t.Error("Expected error for non-positive sigma")
	}

	rising, _ := NewBollingerPercentB(BollingerWindow, BollingerSigma)
	val := feed(t, rising, hourly(ramp(30, 100, 1)...))
	if val <= 80 || val >= 100 {
		t.Errorf("Expected %%B near the upper band for a rising series, got %f", val)
	}

	flat, _ := NewBollingerPercentB(BollingerWindow, BollingerSigma)
	val = feed(t, flat, hourly(ramp(25, 50, 0)...))
	if val != 50 {
		t.Errorf("Expected %%B 50 for a collapsed band, got %f", val)
	}
}
