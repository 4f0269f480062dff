package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/mohamedkhairy/crypto-signals/internal/alert"
	"github.com/mohamedkhairy/crypto-signals/internal/market"
	"github.com/mohamedkhairy/crypto-signals/internal/models"
	"github.com/mohamedkhairy/crypto-signals/pkg/logger"
)

const (
	defaultAlertLimit = 50
	maxAlertLimit     = 1000
)

// MarketService is the dashboard state the handlers read from
type MarketService interface {
	Markets() models.MarketsUpdate
	Refresh(ctx context.Context, manual bool) error
	Snapshot(coinID string) (models.Snapshot, error)
	Analysis(ctx context.Context, coinID string, withHistory bool) (models.Analysis, error)
	Chart(ctx context.Context, coinID, timeframe string) (models.ChartData, error)
	Sentiment() market.SentimentView
	Status() market.Status
	Prices() map[string]float64
}

// AlertSource serves the recently emitted smart alerts
type AlertSource interface {
	Recent(limit int) []models.Alert
	EnabledTypes() []models.AlertType
	GetStats() alert.EmitterStats
}

// PerformanceSource summarizes logged decisions against current prices
type PerformanceSource interface {
	Summary(ctx context.Context, prices map[string]float64) (models.PerformanceSummary, error)
}

// MarketHandler handles market, sentiment and status endpoints
type MarketHandler struct {
	markets MarketService
	alerts  AlertSource
}

// statusResponse is the feed health plus the alert pipeline counters
type statusResponse struct {
	market.Status
	Alerts *alert.EmitterStats `json:"alerts,omitempty"`
}

// NewMarketHandler creates a new market handler. A nil alerts source leaves
// the alert counters out of /status.
func NewMarketHandler(markets MarketService, alerts AlertSource) *MarketHandler {
	return &MarketHandler{markets: markets, alerts: alerts}
}

// ListMarkets handles GET /api/v1/markets
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	update := h.markets.Markets()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"source":     update.Source,
		"updated_at": update.UpdatedAt,
		"markets":    update.Snapshots,
		"count":      len(update.Snapshots),
	})
}

// RefreshMarkets handles POST /api/v1/markets/refresh. A failed refresh is
// still a 200: the fallback data is being served and the status carries the warning.
func (h *MarketHandler) RefreshMarkets(w http.ResponseWriter, r *http.Request) {
	err := h.markets.Refresh(r.Context(), true)
	response := map[string]interface{}{
		"refreshed": err == nil,
		"status":    h.markets.Status(),
	}
	if err != nil {
		logger.WithContext(r.Context()).Warn("Manual refresh failed", logger.ErrorField(err))
		response["error"] = err.Error()
	}
	respondWithJSON(w, http.StatusOK, response)
}

// GetMarket handles GET /api/v1/markets/{id}
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.markets.Snapshot(mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, snapshot)
}

// GetAnalysis handles GET /api/v1/markets/{id}/analysis
func (h *MarketHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	a, ok := h.analysis(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, a)
}

// GetDecision handles GET /api/v1/markets/{id}/decision
func (h *MarketHandler) GetDecision(w http.ResponseWriter, r *http.Request) {
	a, ok := h.analysis(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"decision":  a.Decision,
		"breakdown": a.Breakdown,
		"advisory":  a.Advisory,
	})
}

// GetLevels handles GET /api/v1/markets/{id}/levels
func (h *MarketHandler) GetLevels(w http.ResponseWriter, r *http.Request) {
	a, ok := h.analysis(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, a.Levels)
}

// GetSignals handles GET /api/v1/markets/{id}/signals
func (h *MarketHandler) GetSignals(w http.ResponseWriter, r *http.Request) {
	a, ok := h.analysis(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"signals":      a.Signals,
		"overall":      a.Overall,
		"consolidated": a.Consolidated,
	})
}

// GetRisk handles GET /api/v1/markets/{id}/risk
func (h *MarketHandler) GetRisk(w http.ResponseWriter, r *http.Request) {
	a, ok := h.analysis(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, a.Risk)
}

// GetIndicators handles GET /api/v1/markets/{id}/indicators
func (h *MarketHandler) GetIndicators(w http.ResponseWriter, r *http.Request) {
	a, ok := h.analysis(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"coin_id":    a.Snapshot.ID,
		"indicators": a.Indicators,
	})
}

// GetChart handles GET /api/v1/markets/{id}/chart?timeframe=7d
func (h *MarketHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	timeframe := r.URL.Query().Get("timeframe")
	if timeframe == "" {
		timeframe = market.HistoryTimeframe
	}

	chart, err := h.markets.Chart(r.Context(), mux.Vars(r)["id"], timeframe)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, chart)
}

// GetSentiment handles GET /api/v1/sentiment
func (h *MarketHandler) GetSentiment(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.markets.Sentiment())
}

// GetStatus handles GET /api/v1/status
func (h *MarketHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	response := statusResponse{Status: h.markets.Status()}
	if h.alerts != nil {
		stats := h.alerts.GetStats()
		response.Alerts = &stats
	}
	respondWithJSON(w, http.StatusOK, response)
}

// analysis loads the coin's analysis; ?history=1 computes indicators from the 7d chart
func (h *MarketHandler) analysis(w http.ResponseWriter, r *http.Request) (models.Analysis, bool) {
	withHistory, _ := strconv.ParseBool(r.URL.Query().Get("history"))

	a, err := h.markets.Analysis(r.Context(), mux.Vars(r)["id"], withHistory)
	if err != nil {
		respondWithServiceError(w, r, err)
		return models.Analysis{}, false
	}
	return a, true
}

// AlertHandler handles smart alert endpoints
type AlertHandler struct {
	alerts AlertSource
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(alerts AlertSource) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

// ListAlerts handles GET /api/v1/alerts?limit=n
func (h *AlertHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	limit := defaultAlertLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > maxAlertLimit {
		limit = maxAlertLimit
	}

	alerts := h.alerts.Recent(limit)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"alerts":        alerts,
		"count":         len(alerts),
		"limit":         limit,
		"enabled_types": h.alerts.EnabledTypes(),
	})
}

// PerformanceHandler handles the historical accuracy endpoint
type PerformanceHandler struct {
	performance PerformanceSource
	markets     MarketService
}

// NewPerformanceHandler creates a new performance handler
func NewPerformanceHandler(performance PerformanceSource, markets MarketService) *PerformanceHandler {
	return &PerformanceHandler{performance: performance, markets: markets}
}

// GetPerformance handles GET /api/v1/performance
func (h *PerformanceHandler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	summary, err := h.performance.Summary(r.Context(), h.markets.Prices())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

// respondWithServiceError maps service errors to status codes
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrCoinNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrInvalidTimeframe):
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		logger.WithContext(r.Context()).Error("Request failed",
			logger.String("path", r.URL.Path),
			logger.ErrorField(err),
		)
		logger.ErrorsTotal.WithLabelValues("api", "internal").Inc()
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
