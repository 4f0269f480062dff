package data

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
)

const ProviderMock = "mock"

// MockProvider serves the embedded fixtures. It implements MarketProvider and
// SentimentProvider and backs tests, demos and MARKET_DATA_PROVIDER=mock.
type MockProvider struct {
	mu        sync.RWMutex
	snapshots []models.Snapshot

	// Now stamps charts and sentiment readings
	Now func() time.Time

	// Injected failures
	MarketsErr   error
	ChartErr     error
	SentimentErr error

	marketCalls int
}

// NewMockProvider creates a new mock provider over the fixture set
func NewMockProvider(config ProviderConfig) (MarketProvider, error) {
	snapshots, err := Fixtures()
	if err != nil {
		return nil, err
	}
	return &MockProvider{
		snapshots: snapshots,
		Now:       time.Now,
	}, nil
}

// NewMockProviderWith creates a mock provider serving the given snapshots
func NewMockProviderWith(snapshots []models.Snapshot) *MockProvider {
	cp := make([]models.Snapshot, len(snapshots))
	copy(cp, snapshots)
	return &MockProvider{snapshots: cp, Now: time.Now}
}

func (m *MockProvider) Name() string {
	return ProviderMock
}

// SetSnapshots replaces the served snapshots
func (m *MockProvider) SetSnapshots(snapshots []models.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = make([]models.Snapshot, len(snapshots))
	copy(m.snapshots, snapshots)
}

// SetMarketsErr makes Markets fail with err until reset with nil
func (m *MockProvider) SetMarketsErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MarketsErr = err
}

// MarketCalls returns how many times Markets was called
func (m *MockProvider) MarketCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.marketCalls
}

func (m *MockProvider) Markets(ctx context.Context, perPage int) ([]models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.marketCalls++
	if m.MarketsErr != nil {
		return nil, m.MarketsErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := len(m.snapshots)
	if perPage > 0 && perPage < n {
		n = perPage
	}
	out := make([]models.Snapshot, n)
	copy(out, m.snapshots[:n])
	return out, nil
}

func (m *MockProvider) Chart(ctx context.Context, coinID string, days int) ([]models.PricePoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ChartErr != nil {
		return nil, m.ChartErr
	}
	if !validDays(days) {
		return nil, fmt.Errorf("%w: %d days", models.ErrInvalidTimeframe, days)
	}
	for _, s := range m.snapshots {
		if s.ID == coinID {
			return SyntheticChart(s, days, m.Now()), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", models.ErrCoinNotFound, coinID)
}

func (m *MockProvider) FearGreed(ctx context.Context) (models.FearGreedReading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.SentimentErr != nil {
		return models.FearGreedReading{}, m.SentimentErr
	}
	return FixtureFearGreed(m.Now()), nil
}
