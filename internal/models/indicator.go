package models

// IndicatorSignal is the direction an indicator reading points to
type IndicatorSignal string

const (
	IndicatorBuy     IndicatorSignal = "buy"
	IndicatorSell    IndicatorSignal = "sell"
	IndicatorNeutral IndicatorSignal = "neutral"
)

// IndicatorStrength grades how far a reading is from neutral
type IndicatorStrength string

const (
	StrengthStrong   IndicatorStrength = "strong"
	StrengthModerate IndicatorStrength = "moderate"
	StrengthWeak     IndicatorStrength = "weak"
)

// IndicatorReading is one indicator value.
// Approximate is true when the value is derived from the 24h snapshot rather than price history.
type IndicatorReading struct {
	Name        string            `json:"name"`
	Value       float64           `json:"value"`
	Signal      IndicatorSignal   `json:"signal"`
	Strength    IndicatorStrength `json:"strength"`
	Approximate bool              `json:"approximate"`
}
