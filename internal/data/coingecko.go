package data

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
)

const (
	ProviderCoinGecko = "coingecko"

	DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"

	// coinGeckoKeyHeader carries the demo plan API key
	coinGeckoKeyHeader = "x-cg-demo-api-key"
)

// CoinGeckoProvider reads /coins/markets and /coins/{id}/market_chart
type CoinGeckoProvider struct {
	baseURL    string
	apiKey     string
	client     *Client
	normalizer *Normalizer
}

// NewCoinGeckoProvider creates a CoinGecko market provider
func NewCoinGeckoProvider(config ProviderConfig) (MarketProvider, error) {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultCoinGeckoURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid coingecko base URL: %w", err)
	}

	return &CoinGeckoProvider{
		baseURL: baseURL,
		apiKey:  config.APIKey,
		client: NewClient(ClientOptions{
			Provider:          ProviderCoinGecko,
			Timeout:           config.Timeout,
			RequestsPerSecond: config.RequestsPerSecond,
			MaxRetryElapsed:   config.MaxRetryElapsed,
		}),
		normalizer: NewNormalizer(ProviderCoinGecko),
	}, nil
}

// Name returns the provider type
func (p *CoinGeckoProvider) Name() string {
	return ProviderCoinGecko
}

func (p *CoinGeckoProvider) headers() map[string]string {
	if p.apiKey == "" {
		return nil
	}
	return map[string]string{coinGeckoKeyHeader: p.apiKey}
}

// Markets returns the top perPage coins in USD ordered by market cap
func (p *CoinGeckoProvider) Markets(ctx context.Context, perPage int) ([]models.Snapshot, error) {
	if perPage < 1 || perPage > 250 {
		return nil, fmt.Errorf("per_page must be between 1 and 250, got %d", perPage)
	}

	query := url.Values{}
	query.Set("vs_currency", "usd")
	query.Set("order", "market_cap_desc")
	query.Set("per_page", strconv.Itoa(perPage))
	query.Set("page", "1")
	query.Set("sparkline", "false")
	query.Set("price_change_percentage", "24h,7d")

	body, err := p.client.Get(ctx, "markets", p.baseURL+"/coins/markets?"+query.Encode(), p.headers())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	snapshots, err := p.normalizer.Markets(body)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("coingecko markets: %w", ErrEmptyResponse)
	}
	return snapshots, nil
}

// Chart returns the coin's USD price history for 1, 7, 30 or 90 days
func (p *CoinGeckoProvider) Chart(ctx context.Context, coinID string, days int) ([]models.PricePoint, error) {
	if coinID == "" {
		return nil, models.ErrInvalidCoinID
	}
	if !validDays(days) {
		return nil, fmt.Errorf("%w: %d days", models.ErrInvalidTimeframe, days)
	}

	query := url.Values{}
	query.Set("vs_currency", "usd")
	query.Set("days", strconv.Itoa(days))

	endpoint := p.baseURL + "/coins/" + url.PathEscape(coinID) + "/market_chart?" + query.Encode()
	body, err := p.client.Get(ctx, "market_chart", endpoint, p.headers())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	points, err := p.normalizer.Chart(body)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("coingecko chart %s: %w", coinID, ErrEmptyResponse)
	}
	return points, nil
}

func validDays(days int) bool {
	for _, d := range models.ChartTimeframes {
		if d == days {
			return true
		}
	}
	return false
}
