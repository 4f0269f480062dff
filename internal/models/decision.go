package models

import "time"

// Action is the discrete recommendation produced by the classifier
type Action string

const (
	ActionStrongBuy  Action = "strong_buy"
	ActionBuy        Action = "buy"
	ActionHold       Action = "hold"
	ActionSell       Action = "sell"
	ActionStrongSell Action = "strong_sell"
)

// IsBuy reports whether the action opens a long position
func (a Action) IsBuy() bool {
	return a == ActionStrongBuy || a == ActionBuy
}

// IsSell reports whether the action exits or shorts
func (a Action) IsSell() bool {
	return a == ActionStrongSell || a == ActionSell
}

// RiskLevel is a coarse risk bucket
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

// ScoreBreakdown holds the four sub-scores of the composite score
type ScoreBreakdown struct {
	Technical   float64 `json:"technical"`
	Volume      float64 `json:"volume"`
	Fundamental float64 `json:"fundamental"`
	Risk        float64 `json:"risk"`
	Total       float64 `json:"total"`
}

// Decision is the classifier output for one snapshot
type Decision struct {
	CoinID         string    `json:"coin_id"`
	Action         Action    `json:"action"`
	Score          float64   `json:"score"`
	Confidence     float64   `json:"confidence"`
	RiskLevel      RiskLevel `json:"risk_level"`
	ExpectedReturn float64   `json:"expected_return"`
	StopLoss       float64   `json:"stop_loss"`
	TargetPrice    float64   `json:"target_price"`
	Timeframe      string    `json:"timeframe"`
	Reasoning      []string  `json:"reasoning"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// TechnicalLevels holds support, resistance and projected prices
type TechnicalLevels struct {
	Support    float64 `json:"support"`
	Resistance float64 `json:"resistance"`
	Bullish    float64 `json:"bullish_projection"`
	Neutral    float64 `json:"neutral_projection"`
	Bearish    float64 `json:"bearish_projection"`
	Confidence float64 `json:"confidence"`
	Timeframe  string  `json:"timeframe"`
}

// SignalLabel is the label emitted by a trading signal analyzer
type SignalLabel string

const (
	SignalStrongBuy  SignalLabel = "strong_buy"
	SignalBuy        SignalLabel = "buy"
	SignalNeutral    SignalLabel = "neutral"
	SignalSell       SignalLabel = "sell"
	SignalStrongSell SignalLabel = "strong_sell"
)

// TradingSignal is one analyzer's opinion
type TradingSignal struct {
	Analyzer    string      `json:"analyzer"`
	Signal      SignalLabel `json:"signal"`
	Strength    float64     `json:"strength"`
	Confidence  float64     `json:"confidence"`
	Weight      float64     `json:"weight"`
	Description string      `json:"description"`
}

// OverallSignal is the weighted combination of all analyzer signals
type OverallSignal struct {
	Recommendation SignalLabel `json:"recommendation"`
	Score          float64     `json:"score"`
	Confidence     float64     `json:"confidence"`
}

// ConsolidatedAnalysis blends the technical signal score with the composite score
type ConsolidatedAnalysis struct {
	TechnicalScore   float64  `json:"technical_score"`
	DecisionScore    float64  `json:"decision_score"`
	CombinedScore    float64  `json:"combined_score"`
	FinalAction      Action   `json:"final_action"`
	Confidence       float64  `json:"confidence"`
	ConsensusPoints  []string `json:"consensus_points"`
	DivergencePoints []string `json:"divergence_points"`
	Explanation      string   `json:"explanation"`
}

// Advisory is the human-readable panel rendered from a decision
type Advisory struct {
	Title        string   `json:"title"`
	Summary      string   `json:"summary"`
	ActionPoints []string `json:"action_points"`
	RiskNotes    []string `json:"risk_notes"`
}

// Analysis bundles every derived view of one snapshot
type Analysis struct {
	Snapshot     Snapshot             `json:"snapshot"`
	Decision     Decision             `json:"decision"`
	Breakdown    ScoreBreakdown       `json:"breakdown"`
	Levels       TechnicalLevels      `json:"levels"`
	Signals      []TradingSignal      `json:"signals"`
	Overall      OverallSignal        `json:"overall"`
	Consolidated ConsolidatedAnalysis `json:"consolidated"`
	Advisory     Advisory             `json:"advisory"`
	Risk         RiskProfile          `json:"risk"`
	Indicators   []IndicatorReading   `json:"indicators"`
}
