package indicator

import (
	"github.com/mohamedkhairy/crypto-signals/internal/models"
)

// Reading names
const (
	NameRSI           = "rsi_14"
	NameStochRSI      = "stoch_rsi"
	NameBollingerPctB = "bollinger_pct_b"
	NameMACD          = "macd"
	NameMACDHistogram = "macd_histogram"
	NameWilliamsR     = "williams_r"
	NameATRPercent    = "atr_pct"
	NameVWAP          = "vwap"
	NameEMA           = "ema_20"
	NameSMA           = "sma_20"
	NameRSIMomentum14 = "rsi_momentum_14"
	NameRSIMomentum21 = "rsi_momentum_21"
	NameRSIMomentum50 = "rsi_momentum_50"
	NamePriceChange   = "price_change_7d_pct"
)

// momentumFactors scales the 24h change into each multi-period RSI estimate
var momentumFactors = []struct {
	name   string
	factor float64
}{
	{NameRSIMomentum14, 2.5},
	{NameRSIMomentum21, 2.2},
	{NameRSIMomentum50, 1.8},
}

// ApproximateRSI estimates an RSI from the 24h change and turnover
func ApproximateRSI(s *models.Snapshot) float64 {
	v := 50 + models.Clamp(s.PriceChangePercentage24h*2, -50, 50)
	if r, ok := s.VolumeToMarketCap(); ok && r > 0.1 {
		v += 10
	} else {
		v -= 5
	}
	return models.Clamp(v, 0, 100)
}

// ApproximateStochRSI rescales an RSI estimate and nudges it by direction
func ApproximateStochRSI(rsi, change float64) float64 {
	momentum := -10.0
	if change > 0 {
		momentum = 10
	}
	return models.Clamp((rsi-20)*1.25+momentum, 0, 100)
}

// ApproximatePercentB uses the 24h range as the band
func ApproximatePercentB(s *models.Snapshot) float64 {
	pos, ok := s.RangePosition()
	if !ok {
		return 50
	}
	return models.Clamp(pos*100, 0, 100)
}

// ApproximateMACD combines half the 24h change with a turnover bias
func ApproximateMACD(s *models.Snapshot) float64 {
	v := s.PriceChangePercentage24h * 0.5
	if r, ok := s.VolumeToMarketCap(); ok {
		switch {
		case r > 0.15:
			v += 2
		case r < 0.05:
			v -= 2
		}
	}
	return v
}

// ApproximateWilliamsR reads the 24h range as the lookback, -100..0
func ApproximateWilliamsR(s *models.Snapshot) float64 {
	r := s.Range()
	if r <= 0 {
		return -50
	}
	return models.Clamp((s.High24h-s.CurrentPrice)/r*-100, -100, 0)
}

// ApproximateVWAP puts the VWAP 2% above the price on heavy turnover and 2% below otherwise
func ApproximateVWAP(s *models.Snapshot) float64 {
	if r, ok := s.VolumeToMarketCap(); ok && r > 0.1 {
		return s.CurrentPrice * 1.02
	}
	return s.CurrentPrice * 0.98
}

// Approximations derives every reading from a single snapshot
func Approximations(s models.Snapshot) []models.IndicatorReading {
	s = s.Sanitize()
	c := s.PriceChangePercentage24h

	rsi := ApproximateRSI(&s)
	readings := []models.IndicatorReading{
		oscillator(NameRSI, rsi, rsiStrength),
	}
	for _, m := range momentumFactors {
		readings = append(readings, oscillator(m.name, models.Clamp(50+c*m.factor, 0, 100), rsiStrength))
	}

	stoch := ApproximateStochRSI(rsi, c)
	readings = append(readings,
		models.IndicatorReading{Name: NameStochRSI, Value: stoch, Signal: bandSignal(stoch, 80, 20), Strength: stochStrength(stoch)},
		signed(NameMACD, ApproximateMACD(&s)),
		bollinger(ApproximatePercentB(&s)),
		williams(ApproximateWilliamsR(&s)),
		priceVersus(NameVWAP, s.CurrentPrice, ApproximateVWAP(&s)),
		models.IndicatorReading{Name: NameATRPercent, Value: s.RangePercent(), Signal: models.IndicatorNeutral, Strength: models.StrengthModerate},
	)

	for i := range readings {
		readings[i].Approximate = true
	}
	return readings
}

func bandSignal(v, upper, lower float64) models.IndicatorSignal {
	switch {
	case v > upper:
		return models.IndicatorSell
	case v < lower:
		return models.IndicatorBuy
	default:
		return models.IndicatorNeutral
	}
}

func rsiStrength(v float64) models.IndicatorStrength {
	switch {
	case v > 80 || v < 20:
		return models.StrengthStrong
	case v > 70 || v < 30:
		return models.StrengthModerate
	default:
		return models.StrengthWeak
	}
}

func stochStrength(v float64) models.IndicatorStrength {
	switch {
	case v > 85 || v < 15:
		return models.StrengthStrong
	case v > 75 || v < 25:
		return models.StrengthModerate
	default:
		return models.StrengthWeak
	}
}

func oscillator(name string, v float64, strength func(float64) models.IndicatorStrength) models.IndicatorReading {
	return models.IndicatorReading{Name: name, Value: v, Signal: bandSignal(v, 70, 30), Strength: strength(v)}
}

func bollinger(pctB float64) models.IndicatorReading {
	return models.IndicatorReading{Name: NameBollingerPctB, Value: pctB, Signal: bandSignal(pctB, 80, 20), Strength: models.StrengthModerate}
}

func williams(v float64) models.IndicatorReading {
	return models.IndicatorReading{Name: NameWilliamsR, Value: v, Signal: bandSignal(v, -20, -80), Strength: models.StrengthModerate}
}

// signed reads positive values as buy and negative as sell
func signed(name string, v float64) models.IndicatorReading {
	sig := models.IndicatorNeutral
	switch {
	case v > 0:
		sig = models.IndicatorBuy
	case v < 0:
		sig = models.IndicatorSell
	}
	return models.IndicatorReading{Name: name, Value: v, Signal: sig, Strength: models.StrengthModerate}
}

// priceVersus compares the price to a reference level such as a moving average
func priceVersus(name string, price, level float64) models.IndicatorReading {
	sig := models.IndicatorNeutral
	switch {
	case price > level:
		sig = models.IndicatorBuy
	case price < level:
		sig = models.IndicatorSell
	}
	return models.IndicatorReading{Name: name, Value: level, Signal: sig, Strength: models.StrengthModerate}
}
