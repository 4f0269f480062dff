package alert

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mohamedkhairy/crypto-signals/internal/config"
	"github.com/mohamedkhairy/crypto-signals/internal/models"
	"github.com/mohamedkhairy/crypto-signals/internal/storage"
	"github.com/mohamedkhairy/crypto-signals/pkg/logger"
)

// Emitter runs generated alerts through the type filter, cooldown and
// dedupe, publishes the survivors and keeps the most recent ones
type Emitter struct {
	generator    *Generator
	filter       *TypeFilter
	cooldown     *CooldownManager
	deduplicator *Deduplicator
	router       *Router

	mu     sync.RWMutex
	recent []*models.Alert
	limit  int
	stats  EmitterStats
}

// EmitterStats holds statistics about the emitter
type EmitterStats struct {
	AlertsGenerated    int64     `json:"generated"`
	AlertsFiltered     int64     `json:"filtered"`
	AlertsCooledDown   int64     `json:"cooled_down"`
	AlertsDeduplicated int64     `json:"deduplicated"`
	AlertsRouted       int64     `json:"routed"`
	AlertsFailed       int64     `json:"failed"`
	LastAlertTime      time.Time `json:"last_alert_time"`
}

// NewEmitter creates an emitter backed by redis
func NewEmitter(cfg config.AlertConfig, redis storage.RedisClient) (*Emitter, error) {
	filter, err := NewTypeFilter(cfg.EnabledTypes)
	if err != nil {
		return nil, err
	}
	if cfg.RecentLimit < 1 {
		return nil, fmt.Errorf("recent limit must be at least 1, got %d", cfg.RecentLimit)
	}

	return &Emitter{
		generator:    NewGenerator(),
		filter:       filter,
		cooldown:     NewCooldownManager(redis, cfg.CooldownTTL),
		deduplicator: NewDeduplicator(redis, cfg.DedupeTTL),
		router:       NewRouter(redis, storage.ChannelAlerts, 5*time.Second),
		limit:        cfg.RecentLimit,
	}, nil
}

// EnabledTypes lists the alert types this emitter lets through
func (e *Emitter) EnabledTypes() []models.AlertType {
	return e.filter.EnabledTypes()
}

// Evaluate generates and emits alerts for every snapshot. It returns the alerts emitted.
func (e *Emitter) Evaluate(ctx context.Context, snapshots []models.Snapshot) []*models.Alert {
	var emitted []*models.Alert
	for _, s := range snapshots {
		for _, alert := range e.generator.Generate(s) {
			if e.process(ctx, alert) {
				emitted = append(emitted, alert)
			}
		}
	}
	return emitted
}

// EvaluateSentiment emits the Fear & Greed extreme alert for a reading, if any
func (e *Emitter) EvaluateSentiment(ctx context.Context, reading models.FearGreedReading) *models.Alert {
	alert := e.generator.GenerateSentiment(reading)
	if alert == nil || !e.process(ctx, alert) {
		return nil
	}
	return alert
}

// process returns true if the alert was emitted
func (e *Emitter) process(ctx context.Context, alert *models.Alert) bool {
	e.increment(func(s *EmitterStats) { s.AlertsGenerated++ })

	// Step 1: Type filtering
	if !e.filter.Enabled(alert.Type) {
		e.suppress(alert, "disabled", func(s *EmitterStats) { s.AlertsFiltered++ })
		return false
	}

	// Step 2: Cooldown
	inCooldown, err := e.cooldown.CheckAndSetCooldown(ctx, alert)
	if err != nil {
		logger.Warn("Cooldown check failed, emitting anyway",
			logger.ErrorField(err),
			logger.String("alert_id", alert.ID),
		)
	}
	if inCooldown {
		e.suppress(alert, "cooldown", func(s *EmitterStats) { s.AlertsCooledDown++ })
		return false
	}

	// Step 3: Deduplication
	isDuplicate, err := e.deduplicator.IsDuplicate(ctx, alert)
	if err != nil {
		logger.Warn("Deduplication failed, emitting anyway",
			logger.ErrorField(err),
			logger.String("alert_id", alert.ID),
		)
	}
	if isDuplicate {
		e.suppress(alert, "dedupe", func(s *EmitterStats) { s.AlertsDeduplicated++ })
		return false
	}

	// Step 4: Route
	if err := e.router.RouteAlert(ctx, alert); err != nil {
		logger.Error("Failed to route alert",
			logger.ErrorField(err),
			logger.String("alert_id", alert.ID),
		)
		logger.ErrorsTotal.WithLabelValues("alert", "route").Inc()
		e.increment(func(s *EmitterStats) { s.AlertsFailed++ })
	} else {
		e.increment(func(s *EmitterStats) { s.AlertsRouted++ })
	}

	e.remember(alert)
	logger.AlertsEmitted.WithLabelValues(string(alert.Type), string(alert.Priority)).Inc()
	logger.Info("Alert emitted",
		logger.String("alert_id", alert.ID),
		logger.String("type", string(alert.Type)),
		logger.String("coin_id", alert.CoinID),
		logger.String("priority", string(alert.Priority)),
	)
	return true
}

func (e *Emitter) suppress(alert *models.Alert, reason string, count func(*EmitterStats)) {
	logger.AlertsSuppressed.WithLabelValues(string(alert.Type), reason).Inc()
	e.increment(count)
}

// remember appends to the bounded recent ring, dropping the oldest
func (e *Emitter) remember(alert *models.Alert) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.recent = append(e.recent, alert)
	if len(e.recent) > e.limit {
		e.recent = e.recent[len(e.recent)-e.limit:]
	}
	e.stats.LastAlertTime = alert.CreatedAt
}

// Recent returns up to limit alerts, newest first. limit <= 0 returns all kept alerts.
func (e *Emitter) Recent(limit int) []models.Alert {
	e.mu.RLock()
	defer e.mu.RUnlock()

	n := len(e.recent)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]models.Alert, 0, n)
	for i := len(e.recent) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, *e.recent[i])
	}
	return out
}

// GetStats returns current emitter statistics
func (e *Emitter) GetStats() EmitterStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stats
}

func (e *Emitter) increment(f func(*EmitterStats)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	f(&e.stats)
}
