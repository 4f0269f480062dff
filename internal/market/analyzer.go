package market

import (
	"time"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
	"github.com/mohamedkhairy/crypto-signals/pkg/decision"
	"github.com/mohamedkhairy/crypto-signals/pkg/indicator"
	"github.com/mohamedkhairy/crypto-signals/pkg/levels"
	"github.com/mohamedkhairy/crypto-signals/pkg/risk"
	"github.com/mohamedkhairy/crypto-signals/pkg/signal"
)

// Analyze assembles every derived view of one snapshot. history may be nil,
// in which case the indicator readings are snapshot approximations.
func Analyze(s models.Snapshot, history []models.PricePoint, at time.Time) models.Analysis {
	s = s.Sanitize()

	d := decision.Decide(s, at)
	signals := signal.Analyze(s)
	overall := signal.Combine(signals)

	return models.Analysis{
		Snapshot:     s,
		Decision:     d,
		Breakdown:    decision.Breakdown(s),
		Levels:       levels.Estimate(s),
		Signals:      signals,
		Overall:      overall,
		Consolidated: decision.Consolidate(overall, d.Score, s),
		Advisory:     decision.Advise(d, s),
		Risk:         risk.Assess(s),
		Indicators:   indicator.Readings(s, history),
	}
}
