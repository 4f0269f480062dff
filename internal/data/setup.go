package data

import (
	"fmt"

	"github.com/mohamedkhairy/crypto-signals/internal/config"
	"github.com/mohamedkhairy/crypto-signals/pkg/logger"
)

// NewProviders builds the configured market provider and the sentiment
// provider that goes with it. The mock market provider also serves the
// fixture Fear & Greed reading so offline runs make no network calls.
func NewProviders(factory ProviderFactory, market config.MarketDataConfig, sentimentCfg config.SentimentConfig) (MarketProvider, SentimentProvider, error) {
	provider, err := factory.CreateProvider(market.Provider, ProviderConfig{
		APIKey:            market.APIKey,
		BaseURL:           market.BaseURL,
		Timeout:           market.Timeout,
		RequestsPerSecond: market.RequestsPerSecond,
		MaxRetryElapsed:   market.MaxRetryElapsed,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create market provider: %w", err)
	}

	if sp, ok := provider.(SentimentProvider); ok && market.Provider == ProviderMock {
		logger.Info("Using fixture market data and sentiment", logger.String("provider", provider.Name()))
		return provider, sp, nil
	}

	sentiment := NewAlternativeProvider(sentimentCfg.BaseURL, ClientOptions{
		Provider:        ProviderAlternative,
		Timeout:         market.Timeout,
		MaxRetryElapsed: market.MaxRetryElapsed,
	})
	return provider, sentiment, nil
}
