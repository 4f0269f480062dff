package decision

import (
	"fmt"
	"math"
	"time"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
)

// DecisionTimeframe is the holding horizon every decision is issued for
const DecisionTimeframe = "24-72h"

// Band is one score range of the action classifier
type Band struct {
	Action         models.Action
	MinScore       float64
	Confidence     float64
	ExpectedReturn float64
}

// Bands lists the classifier ranges from highest to lowest. The last band
// starts at 0, so together they cover [0,100] without gaps.
var Bands = []Band{
	{Action: models.ActionStrongBuy, MinScore: 85, Confidence: 92, ExpectedReturn: 15},
	{Action: models.ActionBuy, MinScore: 70, Confidence: 78, ExpectedReturn: 8},
	{Action: models.ActionHold, MinScore: 45, Confidence: 65, ExpectedReturn: 3},
	{Action: models.ActionSell, MinScore: 25, Confidence: 76, ExpectedReturn: -5},
	{Action: models.ActionStrongSell, MinScore: 0, Confidence: 88, ExpectedReturn: -12},
}

var stopLossPct = map[models.RiskLevel]float64{
	models.RiskHigh:   0.08,
	models.RiskMedium: 0.06,
	models.RiskLow:    0.04,
}

// Classify maps a score to its band. Non-finite scores classify as NeutralScore.
func Classify(score float64) Band {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		score = NeutralScore
	}
	score = models.Clamp(score, 0, 100)
	for _, b := range Bands {
		if score >= b.MinScore {
			return b
		}
	}
	return Bands[len(Bands)-1]
}

// Decide scores and classifies a snapshot. The result depends only on the
// snapshot and the supplied timestamp.
func Decide(s models.Snapshot, at time.Time) models.Decision {
	s = s.Sanitize()
	score := Score(s)
	band := Classify(score)
	risk := riskFor(band.Action, &s)
	stop, target := exitPrices(band, risk, s.CurrentPrice)

	return models.Decision{
		CoinID:         s.ID,
		Action:         band.Action,
		Score:          score,
		Confidence:     band.Confidence,
		RiskLevel:      risk,
		ExpectedReturn: band.ExpectedReturn,
		StopLoss:       stop,
		TargetPrice:    target,
		Timeframe:      DecisionTimeframe,
		Reasoning:      reasoning(band.Action, &s, score),
		GeneratedAt:    at,
	}
}

// Volatility returns the 24h range in percent of price
func Volatility(s *models.Snapshot) float64 {
	return s.RangePercent()
}

func riskFor(action models.Action, s *models.Snapshot) models.RiskLevel {
	switch action {
	case models.ActionStrongBuy:
		if ratio, ok := s.VolumeToMarketCap(); ok && ratio > 0.15 {
			return models.RiskMedium
		}
		return models.RiskHigh
	case models.ActionHold:
		if Volatility(s) > 10 {
			return models.RiskHigh
		}
		return models.RiskMedium
	case models.ActionStrongSell:
		return models.RiskHigh
	default:
		return models.RiskMedium
	}
}

func exitPrices(band Band, risk models.RiskLevel, price float64) (stop, target float64) {
	switch {
	case band.Action.IsBuy():
		return price * (1 - stopLossPct[risk]), price * (1 + band.ExpectedReturn/100)
	case band.Action == models.ActionHold:
		return price * 0.94, price * 1.03
	default:
		// stop above price invalidates a sell call
		return price * 1.03, price * 0.95
	}
}

func reasoning(action models.Action, s *models.Snapshot, score float64) []string {
	change := s.PriceChangePercentage24h
	ratio, hasRatio := s.VolumeToMarketCap()
	volumeNote := "Volume data unavailable relative to market cap"
	if hasRatio {
		volumeNote = fmt.Sprintf("Volume at %.1f%% of market cap", ratio*100)
	}

	switch action {
	case models.ActionStrongBuy:
		return []string{
			fmt.Sprintf("Strong upward momentum of %+.2f%% in 24h", change),
			volumeNote + " confirms buying interest",
			fmt.Sprintf("Composite score %.1f is in the top band", score),
		}
	case models.ActionBuy:
		return []string{
			fmt.Sprintf("Positive technical picture with %+.2f%% 24h change", change),
			volumeNote,
			fmt.Sprintf("Composite score %.1f favors accumulation", score),
		}
	case models.ActionHold:
		return []string{
			fmt.Sprintf("Mixed signals with %+.2f%% 24h change", change),
			volumeNote,
			fmt.Sprintf("Composite score %.1f suggests waiting for confirmation", score),
		}
	case models.ActionSell:
		return []string{
			fmt.Sprintf("Weakening momentum with %+.2f%% 24h change", change),
			volumeNote,
			fmt.Sprintf("Composite score %.1f favors reducing exposure", score),
		}
	default:
		return []string{
			fmt.Sprintf("Heavy selling pressure at %+.2f%% in 24h", change),
			volumeNote,
			fmt.Sprintf("Composite score %.1f is in the bottom band", score),
		}
	}
}
