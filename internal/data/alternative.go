package data

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
	"github.com/mohamedkhairy/crypto-signals/pkg/sentiment"
)

const (
	ProviderAlternative = "alternative.me"

	DefaultAlternativeURL = "https://api.alternative.me"
)

// AlternativeProvider reads the Fear & Greed index from alternative.me
type AlternativeProvider struct {
	baseURL string
	client  *Client
	now     func() time.Time
}

// NewAlternativeProvider creates a Fear & Greed provider
func NewAlternativeProvider(baseURL string, opts ClientOptions) *AlternativeProvider {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = DefaultAlternativeURL
	}
	opts.Provider = ProviderAlternative
	return &AlternativeProvider{
		baseURL: baseURL,
		client:  NewClient(opts),
		now:     time.Now,
	}
}

func (p *AlternativeProvider) Name() string {
	return ProviderAlternative
}

// FearGreed fetches and validates the latest reading
func (p *AlternativeProvider) FearGreed(ctx context.Context) (models.FearGreedReading, error) {
	var resp sentiment.APIResponse
	url := p.baseURL + "/fng/?limit=1&format=json&date_format=us"
	if err := p.client.GetJSON(ctx, "fng", url, nil, &resp); err != nil {
		return models.FearGreedReading{}, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	return sentiment.Parse(&resp, p.now())
}
