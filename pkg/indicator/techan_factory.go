package indicator

import (
	"fmt"

	"github.com/sdcoffey/techan"
)

const (
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9

	BollingerWindow = 20
	BollingerSigma  = 2.0
)

// NewMACD returns the MACD line (fast EMA - slow EMA) of closing prices
func NewMACD(fast, slow int) (*TechanCalculator, error) {
	if fast < 1 || slow <= fast {
		return nil, fmt.Errorf("MACD windows must satisfy 1 <= fast < slow, got %d/%d", fast, slow)
	}

	build := func(series *techan.TimeSeries) func(int) float64 {
		macd := techan.NewMACDIndicator(techan.NewClosePriceIndicator(series), fast, slow)
		return func(i int) float64 {
			return macd.Calculate(i).Float()
		}
	}
	return NewTechanCalculator(fmt.Sprintf("macd_%d_%d", fast, slow), slow, build)
}

// NewMACDHistogram returns the MACD line minus its signal EMA
func NewMACDHistogram(fast, slow, signal int) (*TechanCalculator, error) {
	if fast < 1 || slow <= fast || signal < 1 {
		return nil, fmt.Errorf("invalid MACD histogram windows %d/%d/%d", fast, slow, signal)
	}

	build := func(series *techan.TimeSeries) func(int) float64 {
		macd := techan.NewMACDIndicator(techan.NewClosePriceIndicator(series), fast, slow)
		hist := techan.NewMACDHistogramIndicator(macd, signal)
		return func(i int) float64 {
			return hist.Calculate(i).Float()
		}
	}
	name := fmt.Sprintf("macd_histogram_%d_%d_%d", fast, slow, signal)
	return NewTechanCalculator(name, slow+signal, build)
}

// NewBollingerPercentB returns where the close sits inside the bands, 0 at
// the lower band and 100 at the upper. A collapsed band reads 50.
func NewBollingerPercentB(window int, sigma float64) (*TechanCalculator, error) {
	if window < 2 {
		return nil, fmt.Errorf("Bollinger window must be at least 2, got %d", window)
	}
	if sigma <= 0 {
		return nil, fmt.Errorf("Bollinger sigma must be positive, got %v", sigma)
	}

	build := func(series *techan.TimeSeries) func(int) float64 {
		closes := techan.NewClosePriceIndicator(series)
		upper := techan.NewBollingerUpperBandIndicator(closes, window, sigma)
		lower := techan.NewBollingerLowerBandIndicator(closes, window, sigma)
		return func(i int) float64 {
			u, l := upper.Calculate(i).Float(), lower.Calculate(i).Float()
			if u-l <= 0 {
				return 50
			}
			return (closes.Calculate(i).Float() - l) / (u - l) * 100
		}
	}
	return NewTechanCalculator(fmt.Sprintf("bollinger_pct_b_%d", window), window, build)
}
