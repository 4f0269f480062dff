package alert

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mohamedkhairy/crypto-signals/internal/models"
	"github.com/mohamedkhairy/crypto-signals/pkg/decision"
)

const (
	// MarketCoinID is the coin id carried by market-wide alerts
	MarketCoinID = "market"

	resistanceProximity = 0.98
	supportProximity    = 1.02
	volumeSpikeRatio    = 0.15
	divergenceChange    = 5.0
	reversalChange      = 7.0
	fearGreedLow        = 20
	fearGreedHigh       = 80
)

// Rule is one snapshot alert condition. Check returns the alert message and
// whether the rule fired.
type Rule struct {
	Type           models.AlertType
	Priority       models.AlertPriority
	DefaultEnabled bool
	Check          func(s *models.Snapshot) (string, bool)
}

// Rules are the snapshot rules in evaluation order
var Rules = []Rule{
	{
		Type:           models.AlertResistanceBreak,
		Priority:       models.PriorityHigh,
		DefaultEnabled: true,
		Check: func(s *models.Snapshot) (string, bool) {
			level := s.High24h * resistanceProximity
			if s.High24h <= 0 || s.CurrentPrice <= level {
				return "", false
			}
			return fmt.Sprintf("%s is pressing its 24h resistance: price %s above %s",
				symbol(s), decision.FormatPrice(s.CurrentPrice), decision.FormatPrice(level)), true
		},
	},
	{
		Type:           models.AlertSupportBreak,
		Priority:       models.PriorityHigh,
		DefaultEnabled: true,
		Check: func(s *models.Snapshot) (string, bool) {
			level := s.Low24h * supportProximity
			if s.Low24h <= 0 || s.CurrentPrice >= level {
				return "", false
			}
			return fmt.Sprintf("%s is testing its 24h support: price %s below %s",
				symbol(s), decision.FormatPrice(s.CurrentPrice), decision.FormatPrice(level)), true
		},
	},
	{
		Type:           models.AlertVolumeSpike,
		Priority:       models.PriorityHigh,
		DefaultEnabled: true,
		Check: func(s *models.Snapshot) (string, bool) {
			ratio, ok := s.VolumeToMarketCap()
			if !ok || ratio <= volumeSpikeRatio {
				return "", false
			}
			return fmt.Sprintf("%s volume is %.1f%% of market cap, unusually high", symbol(s), ratio*100), true
		},
	},
	{
		Type:           models.AlertRSIDivergence,
		Priority:       models.PriorityMedium,
		DefaultEnabled: false,
		Check: func(s *models.Snapshot) (string, bool) {
			if math.Abs(s.PriceChangePercentage24h) <= divergenceChange {
				return "", false
			}
			return fmt.Sprintf("%s moved %+.2f%% in 24h, possible RSI divergence", symbol(s), s.PriceChangePercentage24h), true
		},
	},
	{
		Type:           models.AlertReversalPattern,
		Priority:       models.PriorityHigh,
		DefaultEnabled: true,
		Check: func(s *models.Snapshot) (string, bool) {
			if math.Abs(s.PriceChangePercentage24h) <= reversalChange {
				return "", false
			}
			return fmt.Sprintf("%s moved %+.2f%% in 24h, watch for a reversal", symbol(s), s.PriceChangePercentage24h), true
		},
	},
}

// DefaultEnabled reports whether an alert type is on when no types are configured
func DefaultEnabled(t models.AlertType) bool {
	for _, r := range Rules {
		if r.Type == t {
			return r.DefaultEnabled
		}
	}
	// fear_greed_extreme is off by default
	return false
}

// Generator evaluates the rules against snapshots and sentiment readings
type Generator struct {
	rules []Rule
	now   func() time.Time
	newID func() string
}

// NewGenerator creates a generator over Rules
func NewGenerator() *Generator {
	return &Generator{
		rules: Rules,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Generate returns one alert per rule that fires for the snapshot
func (g *Generator) Generate(s models.Snapshot) []*models.Alert {
	s = s.Sanitize()
	var alerts []*models.Alert
	for _, rule := range g.rules {
		msg, fired := rule.Check(&s)
		if !fired {
			continue
		}
		alerts = append(alerts, g.newAlert(s.ID, s.Symbol, rule.Type, rule.Priority, msg, s.CurrentPrice))
	}
	return alerts
}

// GenerateSentiment returns a market-wide alert when the index is extreme.
// Fallback readings never fire.
func (g *Generator) GenerateSentiment(reading models.FearGreedReading) *models.Alert {
	if reading.Fallback {
		return nil
	}
	var msg string
	switch {
	case reading.Value < fearGreedLow:
		msg = fmt.Sprintf("Fear & Greed index at %d (%s): the market is fearful", reading.Value, reading.Classification)
	case reading.Value > fearGreedHigh:
		msg = fmt.Sprintf("Fear & Greed index at %d (%s): the market is greedy", reading.Value, reading.Classification)
	default:
		return nil
	}
	return g.newAlert(MarketCoinID, "", models.AlertFearGreedExtreme, models.PriorityMedium, msg, 0)
}

func (g *Generator) newAlert(coinID, sym string, t models.AlertType, p models.AlertPriority, msg string, price float64) *models.Alert {
	return &models.Alert{
		ID:        g.newID(),
		CoinID:    coinID,
		Symbol:    sym,
		Type:      t,
		Priority:  p,
		Message:   msg,
		Price:     price,
		CreatedAt: g.now().UTC(),
	}
}

func symbol(s *models.Snapshot) string {
	if s.Symbol == "" {
		return s.ID
	}
	return strings.ToUpper(s.Symbol)
}
