package storage

import (
	"context"
	"time"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
)

// DecisionLog records served decisions for historical accuracy
type DecisionLog interface {
	// Record stores one decision. Recording an existing ID is a no-op.
	Record(ctx context.Context, decision *models.LoggedDecision) error

	// List returns decisions matching the filter, newest first
	List(ctx context.Context, filter DecisionFilter) ([]*models.LoggedDecision, error)

	// Count returns the number of recorded decisions
	Count(ctx context.Context) (int, error)

	// Close closes the storage connection
	Close() error
}

// DecisionFilter defines filtering options for decision queries
type DecisionFilter struct {
	CoinID        string
	CreatedBefore time.Time
	CreatedAfter  time.Time
	Limit         int
	Offset        int
}

// RedisClient defines the interface for Redis operations
type RedisClient interface {
	// Key-value operations
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	GetJSON(ctx context.Context, key string, dest interface{}) error
	Exists(ctx context.Context, key string) (bool, error)

	// Pub/Sub operations
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channels ...string) (<-chan PubSubMessage, error)

	Ping(ctx context.Context) error

	// Close closes the Redis connection
	Close() error
}

// PubSubMessage represents a message from Redis pub/sub
type PubSubMessage struct {
	Channel string
	Message string
}

// Cache keys and channels
const (
	KeyMarketsLatest   = "markets:latest"
	KeySentimentLatest = "sentiment:latest"

	ChannelMarkets = "signals:markets"
	ChannelAlerts  = "signals:alerts"
)
