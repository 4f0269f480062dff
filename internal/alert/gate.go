package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
	"github.com/mohamedkhairy/crypto-signals/internal/storage"
	"github.com/mohamedkhairy/crypto-signals/pkg/logger"
)

// claim takes key for ttl. It reports false when another alert already holds it.
func claim(ctx context.Context, redis storage.RedisClient, key string, alert *models.Alert, ttl time.Duration) (bool, error) {
	claimed, err := redis.SetNX(ctx, key, alert.ID, ttl)
	if err != nil {
		return false, err
	}
	if !claimed {
		logger.Debug("Alert suppressed",
			logger.String("alert_id", alert.ID),
			logger.String("type", string(alert.Type)),
			logger.String("coin_id", alert.CoinID),
			logger.String("key", key),
		)
	}
	return claimed, nil
}

// CooldownManager suppresses repeats of one alert type for one coin
// until the TTL runs out
type CooldownManager struct {
	redis storage.RedisClient
	ttl   time.Duration
}

// NewCooldownManager creates a cooldown manager
func NewCooldownManager(redis storage.RedisClient, ttl time.Duration) *CooldownManager {
	return &CooldownManager{redis: redis, ttl: ttl}
}

// GenerateCooldownKey returns cooldown:{type}:{coin_id}
func GenerateCooldownKey(alert *models.Alert) string {
	return fmt.Sprintf("cooldown:%s:%s", alert.Type, alert.CoinID)
}

// CheckAndSetCooldown claims the cooldown slot and reports true when the
// alert must be suppressed
func (c *CooldownManager) CheckAndSetCooldown(ctx context.Context, alert *models.Alert) (bool, error) {
	claimed, err := claim(ctx, c.redis, GenerateCooldownKey(alert), alert, c.ttl)
	if err != nil {
		return false, fmt.Errorf("failed to set cooldown: %w", err)
	}
	return !claimed, nil
}

// Deduplicator drops alerts of the same type and coin inside one time bucket.
// The bucket width equals the TTL.
type Deduplicator struct {
	redis storage.RedisClient
	ttl   time.Duration
}

// NewDeduplicator creates a deduplicator, defaulting to hourly buckets
func NewDeduplicator(redis storage.RedisClient, ttl time.Duration) *Deduplicator {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Deduplicator{redis: redis, ttl: ttl}
}

// GenerateIdempotencyKey returns dedupe:{type}:{coin_id}:{bucket_unix}
func (d *Deduplicator) GenerateIdempotencyKey(alert *models.Alert) string {
	bucket := alert.CreatedAt.Truncate(d.ttl).Unix()
	return fmt.Sprintf("dedupe:%s:%s:%d", alert.Type, alert.CoinID, bucket)
}

// IsDuplicate marks the alert's bucket as seen and reports whether it already was
func (d *Deduplicator) IsDuplicate(ctx context.Context, alert *models.Alert) (bool, error) {
	claimed, err := claim(ctx, d.redis, d.GenerateIdempotencyKey(alert), alert, d.ttl)
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate: %w", err)
	}
	return !claimed, nil
}
