package data

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
	"github.com/mohamedkhairy/crypto-signals/pkg/logger"
)

// ErrInvalidMessage is returned when a payload cannot be parsed
var ErrInvalidMessage = errors.New("invalid message")

// coinGeckoMarket is one /coins/markets item. Numeric fields are nullable upstream.
type coinGeckoMarket struct {
	ID                       string   `json:"id"`
	Symbol                   string   `json:"symbol"`
	Name                     string   `json:"name"`
	Image                    string   `json:"image"`
	CurrentPrice             *float64 `json:"current_price"`
	MarketCap                *float64 `json:"market_cap"`
	MarketCapRank            *int     `json:"market_cap_rank"`
	TotalVolume              *float64 `json:"total_volume"`
	High24h                  *float64 `json:"high_24h"`
	Low24h                   *float64 `json:"low_24h"`
	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h"`
	PriceChangePercentage7d  *float64 `json:"price_change_percentage_7d_in_currency"`
	// Legacy7d is the field name used by older payloads and the fixture set
	Legacy7d          *float64 `json:"price_change_percentage_7d"`
	CirculatingSupply *float64 `json:"circulating_supply"`
	LastUpdated       string   `json:"last_updated"`
}

// coinGeckoChart is the /coins/{id}/market_chart payload
type coinGeckoChart struct {
	Prices       [][]float64 `json:"prices"`
	MarketCaps   [][]float64 `json:"market_caps"`
	TotalVolumes [][]float64 `json:"total_volumes"`
}

// Normalizer converts provider payloads to models
type Normalizer struct {
	providerName string
}

// NewNormalizer creates a new normalizer for the given provider
func NewNormalizer(providerName string) *Normalizer {
	return &Normalizer{providerName: providerName}
}

// GetProviderName returns the provider name
func (n *Normalizer) GetProviderName() string {
	return n.providerName
}

// Markets parses a /coins/markets body. Items without an id, symbol or a
// usable price are dropped with a warning rather than failing the batch.
func (n *Normalizer) Markets(raw []byte) ([]models.Snapshot, error) {
	if len(raw) == 0 {
		return nil, ErrInvalidMessage
	}

	var items []coinGeckoMarket
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	snapshots := make([]models.Snapshot, 0, len(items))
	for i, item := range items {
		s, err := n.market(item)
		if err != nil {
			logger.Warn("Dropping invalid market item",
				logger.String("provider", n.providerName),
				logger.Int("index", i),
				logger.String("coin_id", item.ID),
				logger.ErrorField(err),
			)
			continue
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, nil
}

func (n *Normalizer) market(item coinGeckoMarket) (models.Snapshot, error) {
	if item.CurrentPrice == nil {
		return models.Snapshot{}, models.ErrInvalidPrice
	}

	s := models.Snapshot{
		ID:                       strings.TrimSpace(item.ID),
		Symbol:                   strings.ToLower(strings.TrimSpace(item.Symbol)),
		Name:                     item.Name,
		Image:                    item.Image,
		CurrentPrice:             *item.CurrentPrice,
		MarketCap:                orZero(item.MarketCap),
		TotalVolume:              orZero(item.TotalVolume),
		High24h:                  orZero(item.High24h),
		Low24h:                   orZero(item.Low24h),
		PriceChangePercentage24h: orZero(item.PriceChangePercentage24h),
		CirculatingSupply:        orZero(item.CirculatingSupply),
	}
	if item.MarketCapRank != nil {
		s.MarketCapRank = *item.MarketCapRank
	}
	switch {
	case item.PriceChangePercentage7d != nil:
		s.PriceChangePercentage7d = *item.PriceChangePercentage7d
	case item.Legacy7d != nil:
		s.PriceChangePercentage7d = *item.Legacy7d
	}
	if item.LastUpdated != "" {
		if t, err := time.Parse(time.RFC3339, item.LastUpdated); err == nil {
			s.LastUpdated = t.UTC()
		}
	}

	if err := s.Validate(); err != nil {
		return models.Snapshot{}, err
	}
	return s.Sanitize(), nil
}

// Chart parses a market_chart body into points sorted by time. Market cap
// and volume are joined to prices by timestamp; malformed pairs are skipped.
func (n *Normalizer) Chart(raw []byte) ([]models.PricePoint, error) {
	if len(raw) == 0 {
		return nil, ErrInvalidMessage
	}

	var chart coinGeckoChart
	if err := json.Unmarshal(raw, &chart); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	caps := pairsByTime(chart.MarketCaps)
	volumes := pairsByTime(chart.TotalVolumes)

	points := make([]models.PricePoint, 0, len(chart.Prices))
	skipped := 0
	for _, pair := range chart.Prices {
		ms, price, ok := pairValues(pair)
		if !ok || price <= 0 {
			skipped++
			continue
		}
		points = append(points, models.PricePoint{
			Timestamp: time.UnixMilli(ms).UTC(),
			Price:     price,
			MarketCap: caps[ms],
			Volume:    volumes[ms],
		})
	}
	if skipped > 0 {
		logger.Warn("Skipped malformed chart points",
			logger.String("provider", n.providerName),
			logger.Int("skipped", skipped),
		)
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
	return points, nil
}

func pairsByTime(pairs [][]float64) map[int64]float64 {
	out := make(map[int64]float64, len(pairs))
	for _, pair := range pairs {
		if ms, v, ok := pairValues(pair); ok && v >= 0 {
			out[ms] = v
		}
	}
	return out
}

// pairValues unpacks a [ms, value] pair
func pairValues(pair []float64) (int64, float64, bool) {
	if len(pair) < 2 {
		return 0, 0, false
	}
	for _, v := range pair[:2] {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, false
		}
	}
	if pair[0] <= 0 {
		return 0, 0, false
	}
	return int64(pair[0]), pair[1], true
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
