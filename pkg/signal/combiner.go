// Package signal implements four heuristic trading signal analyzers and
// the weighted combiner that turns their output into one recommendation.
package signal

import (
	"github.com/mohamedkhairy/crypto-signals/internal/models"
)

// NeutralScore is the combined score reported when there is nothing to combine
const NeutralScore = 5.0

var labelScores = map[models.SignalLabel]float64{
	models.SignalStrongBuy:  10,
	models.SignalBuy:        7,
	models.SignalNeutral:    5,
	models.SignalSell:       3,
	models.SignalStrongSell: 1,
}

// Analyze runs the default analyzers against a snapshot
func Analyze(s models.Snapshot) []models.TradingSignal {
	return AnalyzeWith(s, DefaultAnalyzers())
}

// AnalyzeWith runs the given analyzers against a snapshot
func AnalyzeWith(s models.Snapshot, analyzers []Analyzer) []models.TradingSignal {
	s = s.Sanitize()
	signals := make([]models.TradingSignal, 0, len(analyzers))
	for _, a := range analyzers {
		signals = append(signals, a.Analyze(&s))
	}
	return signals
}

// Combine computes the confidence- and weight-adjusted average of the signals.
// The overall confidence is the weight-averaged signal confidence.
func Combine(signals []models.TradingSignal) models.OverallSignal {
	var weighted, totalWeight, totalConfidence float64
	var counted int
	for _, sig := range signals {
		if sig.Weight <= 0 {
			continue
		}
		score, ok := labelScores[sig.Signal]
		if !ok {
			score = NeutralScore
		}
		weighted += score * sig.Weight * sig.Confidence / 100
		totalWeight += sig.Weight
		totalConfidence += sig.Confidence * sig.Weight
		counted++
	}

	if counted == 0 || totalWeight == 0 {
		return models.OverallSignal{Recommendation: models.SignalNeutral, Score: NeutralScore}
	}

	score := weighted / totalWeight
	return models.OverallSignal{
		Recommendation: Recommend(score),
		Score:          score,
		Confidence:     totalConfidence / totalWeight,
	}
}

// Recommend maps a combined score to a label
func Recommend(score float64) models.SignalLabel {
	switch {
	case score >= 8:
		return models.SignalStrongBuy
	case score >= 6.5:
		return models.SignalBuy
	case score >= 3.5:
		return models.SignalNeutral
	case score >= 2:
		return models.SignalSell
	}
	return models.SignalStrongSell
}
