// Package performance records served decisions and scores them against
// later prices.
package performance

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/mohamedkhairy/crypto-signals/internal/models"
	"github.com/mohamedkhairy/crypto-signals/internal/storage"
	"github.com/mohamedkhairy/crypto-signals/pkg/logger"
)

// HoldTolerancePct is the largest move, in percent, that still counts a hold as correct
const HoldTolerancePct = 3.0

// Demo figures reported while nothing has been evaluated
const (
	placeholderTotal     = 156
	placeholderCorrect   = 118
	placeholderAccuracy  = 76.0
	placeholderAvgReturn = 24.7
)

// Tracker logs decisions and computes the accuracy summary
type Tracker struct {
	log     storage.DecisionLog
	horizon time.Duration
	now     func() time.Time
	newID   func() string
}

// NewTracker creates a tracker over log. Decisions are evaluated once they are horizon old.
func NewTracker(log storage.DecisionLog, horizon time.Duration) *Tracker {
	return &Tracker{
		log:     log,
		horizon: horizon,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Record logs a served decision at the price it was made
func (t *Tracker) Record(ctx context.Context, d models.Decision, price float64) (*models.LoggedDecision, error) {
	entry := &models.LoggedDecision{
		ID:          t.newID(),
		CoinID:      d.CoinID,
		Action:      d.Action,
		Score:       d.Score,
		Confidence:  d.Confidence,
		Price:       price,
		StopLoss:    d.StopLoss,
		TargetPrice: d.TargetPrice,
		CreatedAt:   t.now().UTC(),
	}
	if err := t.log.Record(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to log decision for %s: %w", d.CoinID, err)
	}
	return entry, nil
}

// Evaluate scores one decision against the current price. The return is
// signed by the action's direction; holds return 0.
func Evaluate(d *models.LoggedDecision, priceNow float64) (correct bool, returnPct float64) {
	if d.Price <= 0 || priceNow <= 0 {
		return false, 0
	}
	change := (priceNow - d.Price) / d.Price * 100

	switch {
	case d.Action.IsBuy():
		return priceNow > d.Price, change
	case d.Action.IsSell():
		return priceNow < d.Price, -change
	default:
		return math.Abs(change) <= HoldTolerancePct, 0
	}
}

// Summary evaluates every decision older than the horizon whose coin has a
// current price. With nothing evaluated it returns the flagged placeholder.
func (t *Tracker) Summary(ctx context.Context, prices map[string]float64) (models.PerformanceSummary, error) {
	now := t.now().UTC()

	total, err := t.log.Count(ctx)
	if err != nil {
		return models.PerformanceSummary{}, fmt.Errorf("failed to count decisions: %w", err)
	}

	matured, err := t.log.List(ctx, storage.DecisionFilter{CreatedBefore: now.Add(-t.horizon)})
	if err != nil {
		return models.PerformanceSummary{}, fmt.Errorf("failed to list decisions: %w", err)
	}

	summary := models.PerformanceSummary{
		TotalDecisions: total,
		Horizon:        t.horizon.String(),
		ComputedAt:     now,
	}

	var returns float64
	for _, d := range matured {
		price, ok := prices[d.CoinID]
		if !ok || price <= 0 {
			continue
		}
		correct, ret := Evaluate(d, price)
		summary.Evaluated++
		if correct {
			summary.Correct++
		}
		returns += ret
	}

	if summary.Evaluated == 0 {
		logger.Debug("No matured decisions, serving placeholder performance",
			logger.Int("logged", total),
			logger.Duration("horizon", t.horizon),
		)
		return Placeholder(now, t.horizon), nil
	}

	summary.AccuracyPct = round2(float64(summary.Correct) / float64(summary.Evaluated) * 100)
	summary.AvgReturnPct = round2(returns / float64(summary.Evaluated))
	return summary, nil
}

// Placeholder is the demo summary
func Placeholder(now time.Time, horizon time.Duration) models.PerformanceSummary {
	return models.PerformanceSummary{
		TotalDecisions: placeholderTotal,
		Evaluated:      placeholderTotal,
		Correct:        placeholderCorrect,
		AccuracyPct:    placeholderAccuracy,
		AvgReturnPct:   placeholderAvgReturn,
		Placeholder:    true,
		Horizon:        horizon.String(),
		ComputedAt:     now.UTC(),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
