package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mohamedkhairy/crypto-signals/internal/alert"
	"github.com/mohamedkhairy/crypto-signals/internal/api"
	"github.com/mohamedkhairy/crypto-signals/internal/auth"
	"github.com/mohamedkhairy/crypto-signals/internal/config"
	"github.com/mohamedkhairy/crypto-signals/internal/data"
	"github.com/mohamedkhairy/crypto-signals/internal/market"
	"github.com/mohamedkhairy/crypto-signals/internal/models"
	"github.com/mohamedkhairy/crypto-signals/internal/performance"
	"github.com/mohamedkhairy/crypto-signals/internal/pubsub"
	"github.com/mohamedkhairy/crypto-signals/internal/storage"
	"github.com/mohamedkhairy/crypto-signals/internal/wsgateway"
	"github.com/mohamedkhairy/crypto-signals/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.LogLevel, cfg.Environment); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting market dashboard",
		logger.Int("port", cfg.API.Port),
		logger.String("provider", cfg.MarketData.Provider),
		logger.String("decision_log", cfg.Database.DecisionLogStore),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis is optional; the in-memory client stands in when it is down
	redisClient, live := pubsub.Connect(cfg.Redis)
	defer redisClient.Close()

	decisionLog, err := openDecisionLog(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize decision log",
			logger.ErrorField(err),
		)
	}
	defer decisionLog.Close()

	marketProvider, sentimentProvider, err := data.NewProviders(data.NewProviderFactory(), cfg.MarketData, cfg.Sentiment)
	if err != nil {
		logger.Fatal("Failed to initialize providers",
			logger.ErrorField(err),
		)
	}

	emitter, err := alert.NewEmitter(cfg.Alert, redisClient)
	if err != nil {
		logger.Fatal("Failed to initialize alert emitter",
			logger.ErrorField(err),
		)
	}

	tracker := performance.NewTracker(decisionLog, cfg.Performance.Horizon)

	service, err := market.NewService(cfg.MarketData, cfg.Sentiment, market.Dependencies{
		Markets:   marketProvider,
		Sentiment: sentimentProvider,
		Redis:     redisClient,
		Alerts:    emitter,
		Tracker:   tracker,
	})
	if err != nil {
		logger.Fatal("Failed to initialize market service",
			logger.ErrorField(err),
		)
	}

	// A failed first fetch is logged by the service and served from fallbacks
	if err := service.Start(ctx); err != nil {
		logger.Fatal("Failed to start market service",
			logger.ErrorField(err),
		)
	}
	defer service.Stop()

	authManager := auth.NewManager(cfg.API.JWTSecret)

	hub := wsgateway.NewHub(cfg.WSGateway, redisClient, authManager, cfg.API.AllowedOrigins)
	hub.SetGreeting(func() []models.Event {
		return greeting(service)
	})
	if err := hub.Start(); err != nil {
		logger.Fatal("Failed to start WebSocket hub",
			logger.ErrorField(err),
		)
	}
	defer hub.Stop()

	router := api.NewRouter(api.Dependencies{
		Markets:     service,
		Alerts:      emitter,
		Performance: tracker,
		Redis:       redisClient,
		WebSocket:   hub,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           api.NewHandler(router, cfg.API, authManager),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server",
			logger.String("addr", server.Addr),
			logger.Bool("redis_live", live),
			logger.Bool("auth_enabled", authManager.Enabled()),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server",
				logger.ErrorField(err),
			)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	logger.Info("Shutting down market dashboard")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down HTTP server",
			logger.ErrorField(err),
		)
	}

	logger.Info("Market dashboard stopped")
}

// openDecisionLog sizes the in-memory log so decisions live past the
// performance horizon
func openDecisionLog(ctx context.Context, cfg *config.Config) (storage.DecisionLog, error) {
	if cfg.Database.DecisionLogStore != config.StorePostgres {
		capacity := storage.DecisionLogCapacity(cfg.MarketData.PerPage, cfg.MarketData.PollInterval, cfg.Performance.Horizon)
		logger.Info("Using in-memory decision log", logger.Int("capacity", capacity))
		return storage.NewMemoryDecisionLog(capacity), nil
	}
	log, err := storage.NewPostgresDecisionLog(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return log, nil
}

// greeting is the state a new WebSocket client receives before live events
func greeting(service *market.Service) []models.Event {
	events := make([]models.Event, 0, 2)
	if markets, err := models.NewEvent(models.EventMarkets, service.Markets()); err == nil {
		events = append(events, markets)
	}
	if sentiment, err := models.NewEvent(models.EventSentiment, service.Sentiment()); err == nil {
		events = append(events, sentiment)
	}
	return events
}
