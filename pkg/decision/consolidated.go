package decision

import (
	"fmt"
	"math"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
)

const (
	technicalWeight = 0.6
	decisionWeight  = 0.4
)

type consolidatedBand struct {
	action     models.Action
	minScore   float64
	confidence float64
}

// combined scores are on the signal scale (0-10)
var consolidatedBands = []consolidatedBand{
	{models.ActionStrongBuy, 8, 90},
	{models.ActionBuy, 6.5, 75},
	{models.ActionHold, 3.5, 60},
	{models.ActionSell, 2, 75},
	{models.ActionStrongSell, math.Inf(-1), 90},
}

// Consolidate blends the overall trading signal (0-10) with the composite
// score (0-100, rescaled to 0-10) into a single recommendation.
func Consolidate(overall models.OverallSignal, score float64, s models.Snapshot) models.ConsolidatedAnalysis {
	s = s.Sanitize()
	tech := models.Clamp(overall.Score, 0, 10)
	if math.IsNaN(score) {
		score = NeutralScore
	}
	score = models.Clamp(score, 0, 100)
	normalized := score / 10

	combined := technicalWeight*tech + decisionWeight*normalized
	band := consolidatedBands[len(consolidatedBands)-1]
	for _, b := range consolidatedBands {
		if combined >= b.minScore {
			band = b
			break
		}
	}

	techBullish, techBearish := tech > 6, tech < 4
	fundBullish, fundBearish := score > 60, score < 40

	consensus := []string{}
	divergence := []string{}

	if techBullish && fundBullish {
		consensus = append(consensus, "Technical and fundamental views agree on a bullish outlook")
	}
	if techBearish && fundBearish {
		consensus = append(consensus, "Technical and fundamental views agree on a bearish outlook")
	}
	// a neutral side does not confirm the other one
	if techBullish && !fundBullish {
		divergence = append(divergence, "Technical signals are bullish while fundamentals are neutral or weak")
	}
	if !techBullish && fundBullish {
		divergence = append(divergence, "Fundamentals are solid while technical signals are weak")
	}

	if s.PriceChangePercentage24h > 0 && s.HasRank() && s.MarketCapRank <= 50 {
		consensus = append(consensus, fmt.Sprintf("Positive momentum in an established asset (rank #%d)", s.MarketCapRank))
	}
	if ratio, ok := s.VolumeToMarketCap(); ok && ratio > 0.1 {
		consensus = append(consensus, fmt.Sprintf("Healthy trading volume at %.1f%% of market cap", ratio*100))
	}
	if gap := math.Abs(tech - normalized); gap > 2 {
		divergence = append(divergence, fmt.Sprintf("Large gap of %.1f points between technical and fundamental scores", gap))
	}

	return models.ConsolidatedAnalysis{
		TechnicalScore:   tech,
		DecisionScore:    score,
		CombinedScore:    combined,
		FinalAction:      band.action,
		Confidence:       band.confidence,
		ConsensusPoints:  consensus,
		DivergencePoints: divergence,
		Explanation:      explain(tech, normalized, len(divergence) > 0),
	}
}

func explain(tech, normalized float64, divergent bool) string {
	if !divergent {
		return "Both analyses agree, which raises confidence in the recommendation."
	}
	if tech > normalized {
		return "The divergence suggests a market in transition. Technical signals point to a short-term opportunity, but weigh the fundamentals for long-term decisions."
	}
	return "The divergence suggests a market in transition. Fundamentals are solid, but the technical timing may not be ideal. Consider waiting for a better entry."
}
