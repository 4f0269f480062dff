package models

import "time"

// LoggedDecision is a decision recorded for later evaluation against realized prices
type LoggedDecision struct {
	ID          string    `json:"id"`
	CoinID      string    `json:"coin_id"`
	Action      Action    `json:"action"`
	Score       float64   `json:"score"`
	Confidence  float64   `json:"confidence"`
	Price       float64   `json:"price"`
	StopLoss    float64   `json:"stop_loss"`
	TargetPrice float64   `json:"target_price"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate validates a LoggedDecision
func (d *LoggedDecision) Validate() error {
	if d.ID == "" {
		return ErrInvalidDecisionID
	}
	if d.CoinID == "" {
		return ErrInvalidCoinID
	}
	if d.Price <= 0 {
		return ErrInvalidPrice
	}
	return nil
}

// PerformanceSummary reports how logged decisions played out.
// Placeholder is true when no decision could be evaluated and the figures are demo values.
type PerformanceSummary struct {
	TotalDecisions int       `json:"total_decisions"`
	Evaluated      int       `json:"evaluated"`
	Correct        int       `json:"correct"`
	AccuracyPct    float64   `json:"accuracy_pct"`
	AvgReturnPct   float64   `json:"avg_return_pct"`
	Placeholder    bool      `json:"placeholder"`
	Horizon        string    `json:"horizon"`
	ComputedAt     time.Time `json:"computed_at"`
}
