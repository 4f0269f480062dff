package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
	"github.com/mohamedkhairy/crypto-signals/internal/storage"
	"github.com/mohamedkhairy/crypto-signals/pkg/logger"
)

// Router publishes alerts to the alerts channel for the WebSocket gateway
type Router struct {
	redis          storage.RedisClient
	channel        string
	publishTimeout time.Duration
}

// NewRouter creates a new alert router
func NewRouter(redis storage.RedisClient, channel string, publishTimeout time.Duration) *Router {
	return &Router{
		redis:          redis,
		channel:        channel,
		publishTimeout: publishTimeout,
	}
}

// RouteAlert publishes one alert
func (r *Router) RouteAlert(ctx context.Context, alert *models.Alert) error {
	routeCtx, cancel := context.WithTimeout(ctx, r.publishTimeout)
	defer cancel()

	if err := r.redis.Publish(routeCtx, r.channel, alert); err != nil {
		return fmt.Errorf("failed to publish alert: %w", err)
	}

	logger.Debug("Routed alert",
		logger.String("alert_id", alert.ID),
		logger.String("type", string(alert.Type)),
		logger.String("coin_id", alert.CoinID),
		logger.String("channel", r.channel),
	)
	return nil
}
