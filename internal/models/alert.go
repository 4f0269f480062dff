package models

import "time"

// AlertType identifies the smart alert rule that fired
type AlertType string

const (
	AlertResistanceBreak  AlertType = "resistance_break"
	AlertSupportBreak     AlertType = "support_break"
	AlertVolumeSpike      AlertType = "volume_spike"
	AlertRSIDivergence    AlertType = "rsi_divergence"
	AlertReversalPattern  AlertType = "reversal_pattern"
	AlertFearGreedExtreme AlertType = "fear_greed_extreme"
)

// AlertTypes lists every alert type in evaluation order
var AlertTypes = []AlertType{
	AlertResistanceBreak,
	AlertSupportBreak,
	AlertVolumeSpike,
	AlertRSIDivergence,
	AlertReversalPattern,
	AlertFearGreedExtreme,
}

// AlertPriority grades an alert's urgency
type AlertPriority string

const (
	PriorityHigh   AlertPriority = "high"
	PriorityMedium AlertPriority = "medium"
	PriorityLow    AlertPriority = "low"
)

// Alert is a smart alert raised for one coin
type Alert struct {
	ID        string        `json:"id"`
	CoinID    string        `json:"coin_id"`
	Symbol    string        `json:"symbol"`
	Type      AlertType     `json:"type"`
	Priority  AlertPriority `json:"priority"`
	Message   string        `json:"message"`
	Price     float64       `json:"price"`
	CreatedAt time.Time     `json:"created_at"`
}

// Validate validates an Alert
func (a *Alert) Validate() error {
	if a.ID == "" {
		return ErrInvalidAlertID
	}
	if a.CoinID == "" {
		return ErrInvalidCoinID
	}
	return nil
}
