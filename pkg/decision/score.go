package decision

import (
	"math"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
)

// Sub-score midpoints. An asset with no information scores
// 15 + 12.5 + 10 + 12.5 = 50.
const (
	technicalBase   = 15.0
	volumeBase      = 12.5
	fundamentalBase = 10.0
	riskBase        = 12.5

	// NeutralScore is returned when the inputs cannot produce a finite score
	NeutralScore = 50.0
)

// Score computes the composite 0-100 score of a snapshot
func Score(s models.Snapshot) float64 {
	return Breakdown(s).Total
}

// Breakdown computes the composite score along with its four sub-scores
func Breakdown(s models.Snapshot) models.ScoreBreakdown {
	s = s.Sanitize()

	b := models.ScoreBreakdown{
		Technical:   technicalScore(&s),
		Volume:      volumeScore(&s),
		Fundamental: fundamentalScore(&s),
		Risk:        riskScore(&s),
	}

	total := b.Technical + b.Volume + b.Fundamental + b.Risk
	if math.IsNaN(total) || math.IsInf(total, 0) {
		total = NeutralScore
	}
	b.Total = models.Clamp(total, 0, 100)
	return b
}

// technicalScore rewards 24h momentum in either direction
func technicalScore(s *models.Snapshot) float64 {
	c := s.PriceChangePercentage24h
	score := technicalBase

	switch {
	case c > 10:
		score += 15
	case c > 5:
		score += 10
	case c > 2:
		score += 5
	case c < -10:
		score -= 15
	case c < -5:
		score -= 10
	case c < -2:
		score -= 5
	}
	return score
}

// volumeScore rewards activity relative to market cap. Heavy volume on a
// falling asset confirms the selling, so the bonus flips sign.
func volumeScore(s *models.Snapshot) float64 {
	score := volumeBase
	ratio, ok := s.VolumeToMarketCap()
	if !ok {
		return score
	}

	var bonus float64
	switch {
	case ratio >= 0.2:
		bonus = 12.5
	case ratio >= 0.15:
		bonus = 8
	case ratio >= 0.1:
		bonus = 4
	case ratio < 0.03:
		return score - 6
	case ratio < 0.05:
		return score - 3
	}

	if s.PriceChangePercentage24h < -2 {
		return score - bonus
	}
	return score + bonus
}

// fundamentalScore rewards established assets and prices near support
func fundamentalScore(s *models.Snapshot) float64 {
	score := fundamentalBase

	if s.HasRank() {
		switch rank := s.MarketCapRank; {
		case rank <= 10:
			score += 8
		case rank <= 50:
			score += 4
		case rank <= 100:
			score += 2
		case rank > 500:
			score -= 4
		}
	}

	if pos, ok := s.RangePosition(); ok {
		switch {
		case pos < 0.2:
			score += 3
		case pos > 0.8:
			score -= 3
		}
	}
	return score
}

// riskScore rewards calm price action and deep liquidity
func riskScore(s *models.Snapshot) float64 {
	score := riskBase
	move := math.Abs(s.PriceChangePercentage24h)

	switch {
	case move < 2:
		score += 6
	case move < 5:
		score += 3
	case move > 15:
		score -= 6
	case move > 10:
		score -= 3
	}

	if ratio, ok := s.VolumeToMarketCap(); ok {
		switch {
		case ratio >= 0.15:
			score += 2
		case ratio < 0.03:
			score -= 2
		}
	}
	return score
}
