package data

import (
	_ "embed"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
	"github.com/mohamedkhairy/crypto-signals/pkg/sentiment"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures/markets.yaml
var fixtureYAML []byte

type fixtureCoin struct {
	ID                       string  `yaml:"id"`
	Symbol                   string  `yaml:"symbol"`
	Name                     string  `yaml:"name"`
	Image                    string  `yaml:"image"`
	CurrentPrice             float64 `yaml:"current_price"`
	MarketCap                float64 `yaml:"market_cap"`
	MarketCapRank            int     `yaml:"market_cap_rank"`
	PriceChangePercentage24h float64 `yaml:"price_change_percentage_24h"`
	PriceChangePercentage7d  float64 `yaml:"price_change_percentage_7d"`
	TotalVolume              float64 `yaml:"total_volume"`
	High24h                  float64 `yaml:"high_24h"`
	Low24h                   float64 `yaml:"low_24h"`
	CirculatingSupply        float64 `yaml:"circulating_supply"`
}

type fixtureSet struct {
	AsOf      string        `yaml:"as_of"`
	Coins     []fixtureCoin `yaml:"coins"`
	FearGreed struct {
		Value               int    `yaml:"value"`
		ValueClassification string `yaml:"value_classification"`
		TimeUntilUpdate     string `yaml:"time_until_update"`
	} `yaml:"fear_greed"`
}

var (
	fixturesOnce sync.Once
	fixtures     fixtureSet
	fixtureAsOf  time.Time
	fixturesErr  error
)

func loadFixtures() (fixtureSet, time.Time, error) {
	fixturesOnce.Do(func() {
		if err := yaml.Unmarshal(fixtureYAML, &fixtures); err != nil {
			fixturesErr = fmt.Errorf("failed to parse fixtures: %w", err)
			return
		}
		asOf, err := time.Parse(time.RFC3339, fixtures.AsOf)
		if err != nil {
			fixturesErr = fmt.Errorf("invalid fixture as_of %q: %w", fixtures.AsOf, err)
			return
		}
		fixtureAsOf = asOf.UTC()
	})
	return fixtures, fixtureAsOf, fixturesErr
}

// Fixtures returns the embedded fallback snapshots, ordered by rank
func Fixtures() ([]models.Snapshot, error) {
	set, asOf, err := loadFixtures()
	if err != nil {
		return nil, err
	}

	snapshots := make([]models.Snapshot, 0, len(set.Coins))
	for _, c := range set.Coins {
		snapshots = append(snapshots, models.Snapshot{
			ID:                       c.ID,
			Symbol:                   c.Symbol,
			Name:                     c.Name,
			Image:                    c.Image,
			CurrentPrice:             c.CurrentPrice,
			MarketCap:                c.MarketCap,
			MarketCapRank:            c.MarketCapRank,
			TotalVolume:              c.TotalVolume,
			High24h:                  c.High24h,
			Low24h:                   c.Low24h,
			PriceChangePercentage24h: c.PriceChangePercentage24h,
			PriceChangePercentage7d:  c.PriceChangePercentage7d,
			CirculatingSupply:        c.CirculatingSupply,
			LastUpdated:              asOf,
		})
	}
	return snapshots, nil
}

// FixtureFearGreed returns the embedded Fear & Greed reading stamped at now.
// It falls back to the neutral reading if the fixture set is unreadable.
func FixtureFearGreed(now time.Time) models.FearGreedReading {
	set, _, err := loadFixtures()
	if err != nil {
		return sentiment.Fallback(now)
	}
	until := set.FearGreed.TimeUntilUpdate
	if until == "" {
		until = sentiment.DefaultTimeUntilUpdate
	}
	return models.FearGreedReading{
		Value:           set.FearGreed.Value,
		Classification:  set.FearGreed.ValueClassification,
		Timestamp:       now.UTC(),
		TimeUntilUpdate: until,
	}
}

// SyntheticChart builds hourly history ending at end with the snapshot's
// current price. The curve is a fixed arc with a small ripple, so the same
// inputs always give the same points.
func SyntheticChart(s models.Snapshot, days int, end time.Time) []models.PricePoint {
	if days < 1 || s.CurrentPrice <= 0 {
		return nil
	}

	n := days * 24
	end = end.UTC().Truncate(time.Hour)
	points := make([]models.PricePoint, 0, n+1)
	for i := 0; i <= n; i++ {
		back := float64(n - i)
		factor := 1 + 0.05*math.Sin(math.Pi*back/float64(n)) + 0.01*math.Sin(0.9*back)
		price := s.CurrentPrice * factor
		points = append(points, models.PricePoint{
			Timestamp: end.Add(-time.Duration(n-i) * time.Hour),
			Price:     price,
			MarketCap: price * s.CirculatingSupply,
			Volume:    s.TotalVolume * (1 + 0.2*math.Sin(0.37*back)),
		})
	}
	return points
}
