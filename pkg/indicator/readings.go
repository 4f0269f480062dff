// Package indicator computes technical indicator readings for a coin, from
// price history when it is available and from the 24h snapshot otherwise.
package indicator

import (
	"sort"
	"time"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
)

const (
	RSIPeriod   = 14
	TrendPeriod = 20
	VWAPWindow  = 24 * time.Hour
	TrendWindow = 7 * 24 * time.Hour
)

// output order of readings
var readingOrder = []string{
	NameRSI,
	NameRSIMomentum14,
	NameRSIMomentum21,
	NameRSIMomentum50,
	NameStochRSI,
	NameMACD,
	NameMACDHistogram,
	NameBollingerPctB,
	NameWilliamsR,
	NameEMA,
	NameSMA,
	NameVWAP,
	NameATRPercent,
	NamePriceChange,
}

// NewHistoryRegistry registers the calculators evaluated over chart history
func NewHistoryRegistry() (*Registry, error) {
	reg := NewRegistry()

	rsi, err := NewRSI(RSIPeriod)
	if err != nil {
		return nil, err
	}
	ema, err := NewEMA(TrendPeriod)
	if err != nil {
		return nil, err
	}
	sma, err := NewSMA(TrendPeriod)
	if err != nil {
		return nil, err
	}
	macd, err := NewMACD(MACDFast, MACDSlow)
	if err != nil {
		return nil, err
	}
	hist, err := NewMACDHistogram(MACDFast, MACDSlow, MACDSignal)
	if err != nil {
		return nil, err
	}
	pctB, err := NewBollingerPercentB(BollingerWindow, BollingerSigma)
	if err != nil {
		return nil, err
	}
	vwap, err := NewVWAP(VWAPWindow)
	if err != nil {
		return nil, err
	}
	change, err := NewPriceChange(TrendWindow)
	if err != nil {
		return nil, err
	}

	for _, calc := range []Calculator{rsi, ema, sma, macd, hist, pctB, vwap, change} {
		if err := reg.Register(calc); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// FromHistory returns the readings that the history is long enough to
// compute, keyed by reading name. price is the live price the moving
// averages are compared to.
func FromHistory(price float64, history []models.PricePoint) (map[string]models.IndicatorReading, error) {
	out := make(map[string]models.IndicatorReading)
	if len(history) == 0 {
		return out, nil
	}

	reg, err := NewHistoryRegistry()
	if err != nil {
		return nil, err
	}

	points := make([]models.PricePoint, len(history))
	copy(points, history)
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
	for i := range points {
		if err := reg.UpdateAll(&points[i]); err != nil {
			return nil, err
		}
	}

	values := reg.Values()
	if v, ok := values["rsi_14"]; ok {
		out[NameRSI] = oscillator(NameRSI, v, rsiStrength)
	}
	if v, ok := values["macd_12_26"]; ok {
		out[NameMACD] = signed(NameMACD, v)
	}
	if v, ok := values["macd_histogram_12_26_9"]; ok {
		out[NameMACDHistogram] = signed(NameMACDHistogram, v)
	}
	if v, ok := values["bollinger_pct_b_20"]; ok {
		out[NameBollingerPctB] = bollinger(v)
	}
	if v, ok := values["ema_20"]; ok {
		out[NameEMA] = priceVersus(NameEMA, price, v)
	}
	if v, ok := values["sma_20"]; ok {
		out[NameSMA] = priceVersus(NameSMA, price, v)
	}
	if v, ok := values["vwap_1d"]; ok {
		out[NameVWAP] = priceVersus(NameVWAP, price, v)
	}
	if v, ok := values["price_change_7d_pct"]; ok {
		out[NamePriceChange] = signed(NamePriceChange, v)
	}
	return out, nil
}

// Readings merges history-based readings over the snapshot approximations.
// A history that is too short, or fails to evaluate, leaves the
// approximations in place.
func Readings(s models.Snapshot, history []models.PricePoint) []models.IndicatorReading {
	s = s.Sanitize()

	byName := make(map[string]models.IndicatorReading)
	for _, r := range Approximations(s) {
		byName[r.Name] = r
	}
	if measured, err := FromHistory(s.CurrentPrice, history); err == nil {
		for name, r := range measured {
			byName[name] = r
		}
	}

	readings := make([]models.IndicatorReading, 0, len(byName))
	for _, name := range readingOrder {
		if r, ok := byName[name]; ok {
			readings = append(readings, r)
		}
	}
	return readings
}
