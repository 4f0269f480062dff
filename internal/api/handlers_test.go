package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mohamedkhairy/crypto-signals/internal/alert"
	"github.com/mohamedkhairy/crypto-signals/internal/config"
	"github.com/mohamedkhairy/crypto-signals/internal/data"
	"github.com/mohamedkhairy/crypto-signals/internal/market"
	"github.com/mohamedkhairy/crypto-signals/internal/models"
	"github.com/mohamedkhairy/crypto-signals/internal/performance"
	"github.com/mohamedkhairy/crypto-signals/internal/storage"
)

type testEnv struct {
	provider *data.MockProvider
	redis    *storage.MockRedisClient
	markets  *market.Service
	alerts   *alert.Emitter
	router   http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	snapshots, err := data.Fixtures()
	if err != nil {
		t.Fatalf("Failed to load fixtures: %v", err)
	}
	provider := data.NewMockProviderWith(snapshots)
	redis := storage.NewMockRedisClient()

	emitter, err := alert.NewEmitter(config.AlertConfig{
		CooldownTTL: time.Minute,
		DedupeTTL:   time.Hour,
		RecentLimit: 20,
	}, redis)
	if err != nil {
		t.Fatalf("Failed to create emitter: %v", err)
	}
	tracker := performance.NewTracker(storage.NewMemoryDecisionLog(100), 24*time.Hour)

	svc, err := market.NewService(config.MarketDataConfig{
		PerPage:              20,
		Timeout:              time.Second,
		FailureWarnThreshold: 3,
		ChartCacheTTL:        time.Minute,
	}, config.SentimentConfig{}, market.Dependencies{
		Markets:   provider,
		Sentiment: provider,
		Redis:     redis,
		Alerts:    emitter,
		Tracker:   tracker,
	})
	if err != nil {
		t.Fatalf("Failed to create market service: %v", err)
	}
	if err := svc.Refresh(context.Background(), false); err != nil {
		t.Fatalf("Failed to refresh: %v", err)
	}

	router := NewRouter(Dependencies{
		Markets:     svc,
		Alerts:      emitter,
		Performance: tracker,
		Redis:       redis,
	})
	return &testEnv{provider: provider, redis: redis, markets: svc, alerts: emitter, router: router}
}

func (e *testEnv) do(t *testing.T, method, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to unmarshal response for %s: %v", path, err)
	}
	return w, body
}

func TestMarketHandler_ListMarkets(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(t, "GET", "/api/v1/markets")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if body["source"] != "live" {
		t.Errorf("Expected live source, got %v", body["source"])
	}
	if body["count"] != float64(5) {
		t.Errorf("Expected 5 markets, got %v", body["count"])
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Expected JSON content type, got %q", w.Header().Get("Content-Type"))
	}
}

func TestMarketHandler_GetMarket(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(t, "GET", "/api/v1/markets/bitcoin")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if body["id"] != "bitcoin" {
		t.Errorf("Expected bitcoin, got %v", body["id"])
	}

	w, body = env.do(t, "GET", "/api/v1/markets/dogecoin")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
	if body["code"] != float64(http.StatusNotFound) {
		t.Errorf("Expected code 404 in body, got %v", body["code"])
	}
	if _, ok := body["error"].(string); !ok {
		t.Error("Expected error message in body")
	}
}

func TestMarketHandler_AnalysisViews(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		path string
		key  string
	}{
		{"/api/v1/markets/ethereum/analysis", "decision"},
		{"/api/v1/markets/ethereum/decision", "breakdown"},
		{"/api/v1/markets/ethereum/levels", "support"},
		{"/api/v1/markets/ethereum/signals", "overall"},
		{"/api/v1/markets/ethereum/risk", "overall_level"},
		{"/api/v1/markets/ethereum/indicators?history=1", "indicators"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w, body := env.do(t, "GET", tt.path)
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
			}
			if _, ok := body[tt.key]; !ok {
				t.Errorf("Expected %q in response, got keys %v", tt.key, keys(body))
			}
		})
	}

	w, _ := env.do(t, "GET", "/api/v1/markets/nope/risk")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestMarketHandler_IndicatorsFromHistory(t *testing.T) {
	env := newTestEnv(t)

	_, body := env.do(t, "GET", "/api/v1/markets/bitcoin/indicators?history=1")
	indicators, ok := body["indicators"].([]interface{})
	if !ok || len(indicators) == 0 {
		t.Fatalf("Expected indicators, got %v", body["indicators"])
	}
	first := indicators[0].(map[string]interface{})
	if first["approximate"] != false {
		t.Errorf("Expected %v to be measured from history", first["name"])
	}
}

func TestMarketHandler_GetChart(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(t, "GET", "/api/v1/markets/bitcoin/chart?timeframe=1d")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	points, _ := body["points"].([]interface{})
	if len(points) != 25 {
		t.Errorf("Expected 25 hourly points, got %d", len(points))
	}

	w, _ = env.do(t, "GET", "/api/v1/markets/bitcoin/chart")
	if w.Code != http.StatusOK {
		t.Errorf("Expected default timeframe to succeed, got %d", w.Code)
	}

	w, _ = env.do(t, "GET", "/api/v1/markets/bitcoin/chart?timeframe=5y")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestMarketHandler_RefreshMarkets(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(t, "POST", "/api/v1/markets/refresh")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if body["refreshed"] != true {
		t.Errorf("Expected refreshed, got %v", body["refreshed"])
	}

	env.provider.SetMarketsErr(errors.New("rate limited"))
	w, body = env.do(t, "POST", "/api/v1/markets/refresh")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d on failed refresh, got %d", http.StatusOK, w.Code)
	}
	if body["refreshed"] != false {
		t.Errorf("Expected refreshed false, got %v", body["refreshed"])
	}
	status := body["status"].(map[string]interface{})
	warnings, _ := status["warnings"].([]interface{})
	if len(warnings) != 1 {
		t.Errorf("Expected a warning after a manual failure, got %v", status["warnings"])
	}
	if status["source"] != "cached" {
		t.Errorf("Expected cached source, got %v", status["source"])
	}
}

func TestMarketHandler_SentimentAndStatus(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(t, "GET", "/api/v1/sentiment")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if body["band"] != "neutral" {
		t.Errorf("Expected the neutral fallback band before the first fetch, got %v", body["band"])
	}

	w, body = env.do(t, "GET", "/api/v1/status")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if body["provider"] != "mock" {
		t.Errorf("Expected mock provider, got %v", body["provider"])
	}
}

func TestMarketHandler_StatusReportsAlertStats(t *testing.T) {
	env := newTestEnv(t)

	rally := models.Snapshot{
		ID: "example", Symbol: "exm", CurrentPrice: 100, High24h: 110, Low24h: 90,
		PriceChangePercentage24h: 12, TotalVolume: 2_000_000, MarketCap: 10_000_000,
	}
	env.alerts.Evaluate(context.Background(), []models.Snapshot{rally})
	want := env.alerts.GetStats()
	if want.AlertsGenerated == 0 {
		t.Fatal("Expected the rally to generate alerts")
	}

	w, body := env.do(t, "GET", "/api/v1/status")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	stats, ok := body["alerts"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected alert stats in status, got %v", body["alerts"])
	}
	if stats["generated"] != float64(want.AlertsGenerated) {
		t.Errorf("Expected %d generated alerts, got %v", want.AlertsGenerated, stats["generated"])
	}
	if stats["routed"] != float64(want.AlertsRouted) {
		t.Errorf("Expected %d routed alerts, got %v", want.AlertsRouted, stats["routed"])
	}
	if body["provider"] != "mock" {
		t.Errorf("Expected the feed status alongside alert stats, got %v", body["provider"])
	}
}

func TestAlertHandler_ListAlerts(t *testing.T) {
	env := newTestEnv(t)

	rally := models.Snapshot{
		ID: "example", Symbol: "exm", CurrentPrice: 100, High24h: 110, Low24h: 90,
		PriceChangePercentage24h: 12, TotalVolume: 2_000_000, MarketCap: 10_000_000,
	}
	env.alerts.Evaluate(context.Background(), []models.Snapshot{rally})

	w, body := env.do(t, "GET", "/api/v1/alerts?limit=1")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if body["count"] != float64(1) {
		t.Errorf("Expected 1 alert, got %v", body["count"])
	}

	w, _ = env.do(t, "GET", "/api/v1/alerts?limit=abc")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestPerformanceHandler_GetPerformance(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(t, "GET", "/api/v1/performance")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	// decisions were just logged, none is past the horizon
	if body["placeholder"] != true {
		t.Errorf("Expected placeholder figures, got %v", body)
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/health", "/ready", "/live"} {
		w, _ := env.do(t, "GET", path)
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected status %d, got %d", path, http.StatusOK, w.Code)
		}
	}

	w, body := env.do(t, "GET", "/api/v1/unknown")
	if w.Code != http.StatusNotFound || body["code"] != float64(http.StatusNotFound) {
		t.Errorf("Expected JSON 404, got %d %v", w.Code, body)
	}
}

func keys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
