// Package market polls market data and sentiment, keeps the last known
// state with fixture fallback, and serves per-coin analyses.
package market

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mohamedkhairy/crypto-signals/internal/alert"
	"github.com/mohamedkhairy/crypto-signals/internal/config"
	"github.com/mohamedkhairy/crypto-signals/internal/data"
	"github.com/mohamedkhairy/crypto-signals/internal/models"
	"github.com/mohamedkhairy/crypto-signals/internal/performance"
	"github.com/mohamedkhairy/crypto-signals/internal/storage"
	"github.com/mohamedkhairy/crypto-signals/pkg/decision"
	"github.com/mohamedkhairy/crypto-signals/pkg/logger"
	"github.com/mohamedkhairy/crypto-signals/pkg/sentiment"
)

// Source says where the served snapshots came from
type Source string

const (
	SourceNone    Source = "none"
	SourceLive    Source = "live"
	SourceCached  Source = "cached"
	SourceFixture Source = "fixture"
)

const (
	// HistoryTimeframe is the chart loaded for history-based indicators
	HistoryTimeframe = "7d"

	cacheTTL       = 24 * time.Hour
	publishTimeout = 5 * time.Second
)

// Dependencies are the collaborators of a Service. Alerts and Tracker are optional.
type Dependencies struct {
	Markets   data.MarketProvider
	Sentiment data.SentimentProvider
	Redis     storage.RedisClient
	Alerts    *alert.Emitter
	Tracker   *performance.Tracker
}

// Status reports the health of the market data feed
type Status struct {
	Provider            string    `json:"provider"`
	SentimentProvider   string    `json:"sentiment_provider"`
	Source              Source    `json:"source"`
	Coins               int       `json:"coins"`
	UpdatedAt           time.Time `json:"updated_at"`
	LastSuccess         time.Time `json:"last_success"`
	LastAttempt         time.Time `json:"last_attempt"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	Warnings            []string  `json:"warnings"`
}

// SentimentView is the current Fear & Greed reading with its band and the
// notices raised against the previous reading
type SentimentView struct {
	Reading models.FearGreedReading  `json:"reading"`
	Band    string                   `json:"band"`
	Notices []models.SentimentNotice `json:"notices"`
}

type chartEntry struct {
	chart   models.ChartData
	fetched time.Time
}

// Service polls the providers and holds the dashboard state
type Service struct {
	cfg               config.MarketDataConfig
	sentimentInterval time.Duration
	deps              Dependencies
	now               func() time.Time

	mu               sync.RWMutex
	snapshots        []models.Snapshot
	source           Source
	updatedAt        time.Time
	lastSuccess      time.Time
	lastAttempt      time.Time
	failures         int
	warnings         []string
	fearGreed        *models.FearGreedReading
	notices          []models.SentimentNotice
	sentimentWarning string

	chartMu sync.Mutex
	charts  map[string]chartEntry

	lifecycleMu sync.Mutex
	running     bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// NewService creates a market service
func NewService(cfg config.MarketDataConfig, sentimentCfg config.SentimentConfig, deps Dependencies) (*Service, error) {
	if deps.Markets == nil {
		return nil, fmt.Errorf("market provider is required")
	}
	if deps.Sentiment == nil {
		return nil, fmt.Errorf("sentiment provider is required")
	}
	if deps.Redis == nil {
		deps.Redis = storage.NewMockRedisClient()
	}
	if cfg.FailureWarnThreshold < 1 {
		cfg.FailureWarnThreshold = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Minute
	}
	if sentimentCfg.PollInterval <= 0 {
		sentimentCfg.PollInterval = 10 * time.Minute
	}

	return &Service{
		cfg:               cfg,
		sentimentInterval: sentimentCfg.PollInterval,
		deps:              deps,
		now:               time.Now,
		source:            SourceNone,
		charts:            make(map[string]chartEntry),
	}, nil
}

// Start runs a first refresh of both feeds and starts the poll loops
func (s *Service) Start(ctx context.Context) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()
	if s.running {
		return fmt.Errorf("market service is already running")
	}

	// A failed first fetch is served from fixtures; it does not stop startup.
	if err := s.Refresh(ctx, false); err != nil {
		logger.Warn("Initial market refresh failed", logger.ErrorField(err))
	}
	if err := s.RefreshSentiment(ctx); err != nil {
		logger.Warn("Initial sentiment refresh failed", logger.ErrorField(err))
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	logger.Info("Starting market service",
		logger.String("provider", s.deps.Markets.Name()),
		logger.Duration("market_interval", s.cfg.PollInterval),
		logger.Duration("sentiment_interval", s.sentimentInterval),
	)

	s.wg.Add(2)
	go s.run(loopCtx, s.cfg.PollInterval, func(ctx context.Context) error { return s.Refresh(ctx, false) })
	go s.run(loopCtx, s.sentimentInterval, s.RefreshSentiment)
	return nil
}

// Stop stops the poll loops and waits for them to exit
func (s *Service) Stop() {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()
	if !s.running {
		return
	}
	s.running = false

	logger.Info("Stopping market service")
	s.cancel()
	s.wg.Wait()
	logger.Info("Market service stopped")
}

func (s *Service) run(ctx context.Context, interval time.Duration, refresh func(context.Context) error) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := refresh(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("Scheduled refresh failed", logger.ErrorField(err))
			}
		}
	}
}

// Refresh fetches the markets. On failure the last known snapshots, the
// Redis cache or the fixtures are served instead and the error is returned.
// manual refreshes surface a warning on the first failure.
func (s *Service) Refresh(ctx context.Context, manual bool) error {
	now := s.now().UTC()

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	snapshots, err := s.deps.Markets.Markets(fetchCtx, s.cfg.PerPage)
	cancel()
	if err != nil {
		s.fallback(ctx, err, manual, now)
		return fmt.Errorf("failed to refresh markets: %w", err)
	}

	s.mu.Lock()
	s.snapshots = snapshots
	s.source = SourceLive
	s.updatedAt = now
	s.lastSuccess = now
	s.lastAttempt = now
	s.failures = 0
	s.warnings = nil
	s.mu.Unlock()

	logger.Info("Markets refreshed",
		logger.String("provider", s.deps.Markets.Name()),
		logger.Int("coins", len(snapshots)),
		logger.Bool("manual", manual),
	)

	update := models.MarketsUpdate{Source: string(SourceLive), Snapshots: snapshots, UpdatedAt: now}
	if err := s.deps.Redis.Set(ctx, storage.KeyMarketsLatest, update, cacheTTL); err != nil {
		logger.Warn("Failed to cache markets", logger.ErrorField(err))
	}
	s.publish(ctx, models.EventMarkets, update)

	if s.deps.Alerts != nil {
		s.deps.Alerts.Evaluate(ctx, snapshots)
	}
	s.logDecisions(ctx, snapshots, now)
	return nil
}

func (s *Service) fallback(ctx context.Context, cause error, manual bool, now time.Time) {
	logger.ErrorsTotal.WithLabelValues("market", "fetch").Inc()

	// Only consult the cache and fixtures when nothing is held in memory
	s.mu.RLock()
	empty := len(s.snapshots) == 0
	s.mu.RUnlock()

	var replacement []models.Snapshot
	var replacementSource Source
	var replacementTime time.Time
	if empty {
		var cached models.MarketsUpdate
		if err := s.deps.Redis.GetJSON(ctx, storage.KeyMarketsLatest, &cached); err != nil {
			logger.Warn("Failed to read cached markets", logger.ErrorField(err))
		}
		if len(cached.Snapshots) > 0 {
			replacement, replacementSource, replacementTime = cached.Snapshots, SourceCached, cached.UpdatedAt
		} else if fixtures, err := data.Fixtures(); err == nil {
			replacement, replacementSource, replacementTime = fixtures, SourceFixture, now
		} else {
			logger.Error("Failed to load fixtures", logger.ErrorField(err))
		}
	}

	s.mu.Lock()
	s.failures++
	s.lastAttempt = now
	replaced := len(s.snapshots) == 0 && len(replacement) > 0
	if replaced {
		s.snapshots = replacement
		s.source = replacementSource
		s.updatedAt = replacementTime
	} else if s.source == SourceLive {
		s.source = SourceCached
	}
	failures := s.failures
	source := s.source
	var warning *models.Warning
	if manual || failures >= s.cfg.FailureWarnThreshold {
		msg := fmt.Sprintf("Market data API unavailable, serving %s data", source)
		s.warnings = []string{msg}
		warning = &models.Warning{Message: msg, ConsecutiveFailures: failures}
	}
	s.mu.Unlock()

	logger.FallbacksTotal.WithLabelValues("markets", string(source)).Inc()
	logger.Warn("Market fetch failed, serving fallback",
		logger.String("provider", s.deps.Markets.Name()),
		logger.String("source", string(source)),
		logger.Int("consecutive_failures", failures),
		logger.Bool("manual", manual),
		logger.ErrorField(cause),
	)

	if replaced {
		s.publish(ctx, models.EventMarkets, models.MarketsUpdate{
			Source:    string(replacementSource),
			Snapshots: replacement,
			UpdatedAt: replacementTime,
		})
	}
	if warning != nil {
		s.publish(ctx, models.EventWarning, warning)
	}
}

// logDecisions records one decision per coin for historical accuracy
func (s *Service) logDecisions(ctx context.Context, snapshots []models.Snapshot, now time.Time) {
	if s.deps.Tracker == nil {
		return
	}
	for _, snap := range snapshots {
		d := decision.Decide(snap, now)
		if _, err := s.deps.Tracker.Record(ctx, d, snap.CurrentPrice); err != nil {
			logger.Warn("Failed to log decision",
				logger.String("coin_id", snap.ID),
				logger.ErrorField(err),
			)
		}
	}
}

// storedSentiment reads the last reading another instance or a previous run
// cached in redis
func (s *Service) storedSentiment(ctx context.Context) *models.FearGreedReading {
	var reading models.FearGreedReading
	if err := s.deps.Redis.GetJSON(ctx, storage.KeySentimentLatest, &reading); err != nil {
		logger.Warn("Failed to read cached sentiment", logger.ErrorField(err))
		return nil
	}
	// a missing key leaves the reading zero
	if reading.Fallback || reading.Value < 0 || reading.Value > 100 || reading.Timestamp.IsZero() {
		return nil
	}
	return &reading
}

// RefreshSentiment fetches the Fear & Greed index. Without any reading yet,
// a failure installs the reading cached in redis, else the neutral fallback.
func (s *Service) RefreshSentiment(ctx context.Context) error {
	now := s.now().UTC()

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	reading, err := s.deps.Sentiment.FearGreed(fetchCtx)
	cancel()
	if err != nil {
		s.mu.RLock()
		have := s.fearGreed != nil
		s.mu.RUnlock()

		var stored *models.FearGreedReading
		if !have {
			stored = s.storedSentiment(ctx)
		}

		s.mu.Lock()
		source := "cached"
		if s.fearGreed == nil {
			if stored != nil {
				s.fearGreed = stored
			} else {
				fb := sentiment.Fallback(now)
				s.fearGreed = &fb
				source = "fallback"
			}
			s.notices = nil
		}
		s.sentimentWarning = "Fear & Greed index unavailable, showing " + source + " reading"
		s.mu.Unlock()

		logger.FallbacksTotal.WithLabelValues("sentiment", source).Inc()
		logger.Warn("Sentiment fetch failed",
			logger.String("provider", s.deps.Sentiment.Name()),
			logger.String("source", source),
			logger.ErrorField(err),
		)
		return fmt.Errorf("failed to refresh sentiment: %w", err)
	}

	s.mu.Lock()
	s.notices = sentiment.Notices(s.fearGreed, reading)
	s.fearGreed = &reading
	s.sentimentWarning = ""
	view := s.sentimentLocked()
	s.mu.Unlock()

	logger.Info("Sentiment refreshed",
		logger.Int("value", reading.Value),
		logger.String("classification", reading.Classification),
		logger.Int("notices", len(view.Notices)),
	)

	if err := s.deps.Redis.Set(ctx, storage.KeySentimentLatest, reading, cacheTTL); err != nil {
		logger.Warn("Failed to cache sentiment", logger.ErrorField(err))
	}
	s.publish(ctx, models.EventSentiment, view)

	if s.deps.Alerts != nil {
		s.deps.Alerts.EvaluateSentiment(ctx, reading)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, t models.EventType, payload interface{}) {
	event, err := models.NewEvent(t, payload)
	if err != nil {
		logger.Error("Failed to build event", logger.ErrorField(err))
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := s.deps.Redis.Publish(pubCtx, storage.ChannelMarkets, event); err != nil {
		logger.Warn("Failed to publish event",
			logger.String("type", string(t)),
			logger.ErrorField(err),
		)
	}
}

// Markets returns a copy of the served snapshots
func (s *Service) Markets() models.MarketsUpdate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshots := make([]models.Snapshot, len(s.snapshots))
	copy(snapshots, s.snapshots)
	return models.MarketsUpdate{Source: string(s.source), Snapshots: snapshots, UpdatedAt: s.updatedAt}
}

// Snapshot returns one coin's snapshot or models.ErrCoinNotFound
func (s *Service) Snapshot(coinID string) (models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, snap := range s.snapshots {
		if snap.ID == coinID {
			return snap, nil
		}
	}
	return models.Snapshot{}, fmt.Errorf("%w: %s", models.ErrCoinNotFound, coinID)
}

// Prices maps coin ids to their current price
func (s *Service) Prices() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prices := make(map[string]float64, len(s.snapshots))
	for _, snap := range s.snapshots {
		prices[snap.ID] = snap.CurrentPrice
	}
	return prices
}

// Chart returns the coin's history for a timeframe (1d, 7d, 30d, 90d).
// Upstream failures are served with a synthetic chart flagged as such.
func (s *Service) Chart(ctx context.Context, coinID, timeframe string) (models.ChartData, error) {
	days, ok := models.ChartTimeframes[timeframe]
	if !ok {
		return models.ChartData{}, fmt.Errorf("%w: %q", models.ErrInvalidTimeframe, timeframe)
	}
	snap, err := s.Snapshot(coinID)
	if err != nil {
		return models.ChartData{}, err
	}

	now := s.now().UTC()
	key := coinID + ":" + timeframe

	s.chartMu.Lock()
	entry, ok := s.charts[key]
	s.chartMu.Unlock()
	if ok && now.Sub(entry.fetched) < s.cfg.ChartCacheTTL {
		return copyChart(entry.chart), nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	points, err := s.deps.Markets.Chart(fetchCtx, coinID, days)
	cancel()

	chart := models.ChartData{CoinID: coinID, Timeframe: timeframe, Points: points}
	if err != nil || len(points) == 0 {
		logger.FallbacksTotal.WithLabelValues("chart", "synthetic").Inc()
		logger.Warn("Chart fetch failed, serving synthetic history",
			logger.String("coin_id", coinID),
			logger.String("timeframe", timeframe),
			logger.ErrorField(err),
		)
		chart.Points = data.SyntheticChart(snap, days, now)
		chart.Synthetic = true
	}

	s.chartMu.Lock()
	s.charts[key] = chartEntry{chart: chart, fetched: now}
	s.chartMu.Unlock()

	return copyChart(chart), nil
}

func copyChart(c models.ChartData) models.ChartData {
	points := make([]models.PricePoint, len(c.Points))
	copy(points, c.Points)
	c.Points = points
	return c
}

// Analysis returns the full analysis of one coin. withHistory loads the 7d
// chart first so indicators come from price history; synthetic history is
// not used for that.
func (s *Service) Analysis(ctx context.Context, coinID string, withHistory bool) (models.Analysis, error) {
	snap, err := s.Snapshot(coinID)
	if err != nil {
		return models.Analysis{}, err
	}

	var history []models.PricePoint
	if withHistory {
		chart, err := s.Chart(ctx, coinID, HistoryTimeframe)
		if err == nil && !chart.Synthetic {
			history = chart.Points
		}
	}
	return Analyze(snap, history, s.now().UTC()), nil
}

// Sentiment returns the current reading, or the neutral fallback before the first fetch
func (s *Service) Sentiment() SentimentView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sentimentLocked()
}

func (s *Service) sentimentLocked() SentimentView {
	reading := sentiment.Fallback(s.now())
	if s.fearGreed != nil {
		reading = *s.fearGreed
	}
	notices := make([]models.SentimentNotice, len(s.notices))
	copy(notices, s.notices)
	return SentimentView{
		Reading: reading,
		Band:    sentiment.Band(reading.Value),
		Notices: notices,
	}
}

// Status reports the feed health
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	warnings := make([]string, 0, len(s.warnings)+1)
	warnings = append(warnings, s.warnings...)
	if s.sentimentWarning != "" {
		warnings = append(warnings, s.sentimentWarning)
	}
	return Status{
		Provider:            s.deps.Markets.Name(),
		SentimentProvider:   s.deps.Sentiment.Name(),
		Source:              s.source,
		Coins:               len(s.snapshots),
		UpdatedAt:           s.updatedAt,
		LastSuccess:         s.lastSuccess,
		LastAttempt:         s.lastAttempt,
		ConsecutiveFailures: s.failures,
		Warnings:            warnings,
	}
}
