package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/mohamedkhairy/crypto-signals/internal/auth"
	"github.com/mohamedkhairy/crypto-signals/internal/config"
	"github.com/mohamedkhairy/crypto-signals/internal/storage"
	"github.com/mohamedkhairy/crypto-signals/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the services behind the routes. WebSocket is mounted on
// /ws when set.
type Dependencies struct {
	Markets     MarketService
	Alerts      AlertSource
	Performance PerformanceSource
	Redis       storage.RedisClient
	WebSocket   http.Handler
}

// NewRouter registers the /api/v1 routes plus health and metrics endpoints
func NewRouter(deps Dependencies) *mux.Router {
	marketHandler := NewMarketHandler(deps.Markets, deps.Alerts)
	alertHandler := NewAlertHandler(deps.Alerts)
	performanceHandler := NewPerformanceHandler(deps.Performance, deps.Markets)

	router := mux.NewRouter()
	router.Use(mux.MiddlewareFunc(MetricsMiddleware()))

	v1 := router.PathPrefix("/api/v1").Subrouter()

	// Market endpoints
	v1.HandleFunc("/markets", marketHandler.ListMarkets).Methods("GET")
	v1.HandleFunc("/markets/refresh", marketHandler.RefreshMarkets).Methods("POST")
	v1.HandleFunc("/markets/{id}", marketHandler.GetMarket).Methods("GET")
	v1.HandleFunc("/markets/{id}/analysis", marketHandler.GetAnalysis).Methods("GET")
	v1.HandleFunc("/markets/{id}/decision", marketHandler.GetDecision).Methods("GET")
	v1.HandleFunc("/markets/{id}/levels", marketHandler.GetLevels).Methods("GET")
	v1.HandleFunc("/markets/{id}/signals", marketHandler.GetSignals).Methods("GET")
	v1.HandleFunc("/markets/{id}/risk", marketHandler.GetRisk).Methods("GET")
	v1.HandleFunc("/markets/{id}/indicators", marketHandler.GetIndicators).Methods("GET")
	v1.HandleFunc("/markets/{id}/chart", marketHandler.GetChart).Methods("GET")

	v1.HandleFunc("/sentiment", marketHandler.GetSentiment).Methods("GET")
	v1.HandleFunc("/status", marketHandler.GetStatus).Methods("GET")
	v1.HandleFunc("/alerts", alertHandler.ListAlerts).Methods("GET")
	v1.HandleFunc("/performance", performanceHandler.GetPerformance).Methods("GET")

	if deps.WebSocket != nil {
		router.Handle("/ws", deps.WebSocket)
	}

	// Health check endpoints
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Redis != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Redis.Ping(ctx); err != nil {
				respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "reason": "redis unreachable"})
				return
			}
		}
		if deps.Markets.Status().Coins == 0 {
			respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "reason": "no market data"})
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	router.HandleFunc("/live", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})

	// Metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, "Not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return router
}

// NewHandler wraps the router with the middleware chain
func NewHandler(router http.Handler, cfg config.APIConfig, authManager *auth.Manager) http.Handler {
	proxies, err := cfg.TrustedProxyNets()
	if err != nil {
		// Validate rejects these, so only a hand-built config lands here
		logger.Warn("Ignoring invalid trusted proxies", logger.ErrorField(err))
		proxies = nil
	}
	middlewares := ChainMiddleware(
		CORSMiddleware(cfg.AllowedOrigins),
		RequestIDMiddleware(),
		LoggingMiddleware(proxies),
		ErrorHandlingMiddleware(),
		RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst, proxies),
		AuthMiddleware(authManager),
	)
	return middlewares(router)
}
