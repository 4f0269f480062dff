package data

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
)

var (
	// ErrProviderUnavailable is returned when an upstream cannot serve a request
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrEmptyResponse is returned when an upstream answers with no usable data
	ErrEmptyResponse = errors.New("empty response")
	// ErrUnknownProvider is returned by the factory for unregistered provider types
	ErrUnknownProvider = errors.New("unknown provider type")
)

// MarketProvider fetches market snapshots and price history
type MarketProvider interface {
	// Name returns the provider type (e.g., "coingecko", "mock")
	Name() string

	// Markets returns the top perPage coins by market cap
	Markets(ctx context.Context, perPage int) ([]models.Snapshot, error)

	// Chart returns price history for a coin over the last days
	Chart(ctx context.Context, coinID string, days int) ([]models.PricePoint, error)
}

// SentimentProvider fetches the Fear & Greed index
type SentimentProvider interface {
	Name() string
	FearGreed(ctx context.Context) (models.FearGreedReading, error)
}

// ProviderFactory creates provider instances
type ProviderFactory interface {
	// CreateProvider creates a new provider instance based on the provider type
	CreateProvider(providerType string, config ProviderConfig) (MarketProvider, error)

	// RegisterProvider registers a custom provider factory function
	RegisterProvider(providerType string, factoryFunc func(ProviderConfig) (MarketProvider, error)) error

	// ListProviders returns a list of available provider types
	ListProviders() []string
}

// ProviderConfig holds configuration for a provider
type ProviderConfig struct {
	APIKey  string
	BaseURL string

	// HTTP settings
	Timeout           time.Duration
	RequestsPerSecond float64
	MaxRetryElapsed   time.Duration
}

// DefaultProviderFactory is the default implementation of ProviderFactory
type DefaultProviderFactory struct {
	factories map[string]func(ProviderConfig) (MarketProvider, error)
}

// NewProviderFactory creates a factory with the coingecko and mock providers registered
func NewProviderFactory() *DefaultProviderFactory {
	factory := &DefaultProviderFactory{
		factories: make(map[string]func(ProviderConfig) (MarketProvider, error)),
	}

	// Register built-in providers
	factory.RegisterProvider(ProviderCoinGecko, NewCoinGeckoProvider)
	factory.RegisterProvider(ProviderMock, NewMockProvider)

	return factory
}

// CreateProvider creates a new provider instance
func (f *DefaultProviderFactory) CreateProvider(providerType string, config ProviderConfig) (MarketProvider, error) {
	factoryFunc, exists := f.factories[providerType]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, providerType)
	}

	return factoryFunc(config)
}

// RegisterProvider registers a custom provider factory function
func (f *DefaultProviderFactory) RegisterProvider(providerType string, factoryFunc func(ProviderConfig) (MarketProvider, error)) error {
	if _, exists := f.factories[providerType]; exists {
		return errors.New("provider type already registered: " + providerType)
	}
	f.factories[providerType] = factoryFunc
	return nil
}

// ListProviders returns the registered provider types, sorted
func (f *DefaultProviderFactory) ListProviders() []string {
	providers := make([]string, 0, len(f.factories))
	for providerType := range f.factories {
		providers = append(providers, providerType)
	}
	sort.Strings(providers)
	return providers
}
