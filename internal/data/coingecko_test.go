package data

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mohamedkhairy/crypto-signals/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const marketsBody = `[
  {"id":"bitcoin","symbol":"BTC","name":"Bitcoin","current_price":105784,"market_cap":2102573250571,
   "market_cap_rank":1,"total_volume":15831366701,"high_24h":105891,"low_24h":105112,
   "price_change_percentage_24h":0.19,"price_change_percentage_7d_in_currency":1.37,
   "circulating_supply":19876015,"last_updated":"2025-06-10T12:00:00.000Z"},
  {"id":"broken","symbol":"brk","name":"Broken","current_price":null},
  {"id":"ethereum","symbol":"eth","name":"Ethereum","current_price":2512,"market_cap":null,
   "market_cap_rank":null,"total_volume":9297072081,"high_24h":2540,"low_24h":2496,
   "price_change_percentage_24h":null}
]`

const chartBody = `{
  "prices":[[1749556800000,101.5],[1749553200000,100.0],[1749560400000,-1],[1749564000000]],
  "market_caps":[[1749553200000,1000],[1749556800000,1015]],
  "total_volumes":[[1749553200000,50],[1749556800000,55]]
}`

func newTestCoinGecko(t *testing.T, handler http.HandlerFunc) MarketProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	provider, err := NewCoinGeckoProvider(ProviderConfig{
		BaseURL:           srv.URL + "/",
		APIKey:            "demo-key",
		Timeout:           2 * time.Second,
		RequestsPerSecond: 100,
		MaxRetryElapsed:   100 * time.Millisecond,
	})
	require.NoError(t, err)
	return provider
}

func TestCoinGecko_Markets(t *testing.T) {
	provider := newTestCoinGecko(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/markets", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "usd", q.Get("vs_currency"))
		assert.Equal(t, "market_cap_desc", q.Get("order"))
		assert.Equal(t, "3", q.Get("per_page"))
		assert.Equal(t, "1", q.Get("page"))
		assert.Equal(t, "false", q.Get("sparkline"))
		assert.Equal(t, "24h,7d", q.Get("price_change_percentage"))
		assert.Equal(t, "demo-key", r.Header.Get("x-cg-demo-api-key"))
		w.Write([]byte(marketsBody))
	})

	assert.Equal(t, ProviderCoinGecko, provider.Name())

	snapshots, err := provider.Markets(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, snapshots, 2, "the item without a price is dropped")

	btc := snapshots[0]
	assert.Equal(t, "bitcoin", btc.ID)
	assert.Equal(t, "btc", btc.Symbol)
	assert.Equal(t, 105784.0, btc.CurrentPrice)
	assert.Equal(t, 1, btc.MarketCapRank)
	assert.Equal(t, 1.37, btc.PriceChangePercentage7d)
	assert.True(t, btc.LastUpdated.Equal(time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)))

	eth := snapshots[1]
	assert.Equal(t, 0.0, eth.MarketCap)
	assert.Equal(t, 0, eth.MarketCapRank)
	assert.False(t, eth.HasRank())
}

func TestCoinGecko_MarketsEmpty(t *testing.T) {
	provider := newTestCoinGecko(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, err := provider.Markets(context.Background(), 20)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestCoinGecko_MarketsUnavailable(t *testing.T) {
	provider := newTestCoinGecko(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := provider.Markets(context.Background(), 20)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderUnavailable)

	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
}

func TestCoinGecko_MarketsPerPageBounds(t *testing.T) {
	provider := newTestCoinGecko(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := provider.Markets(context.Background(), 0)
	assert.Error(t, err)
	_, err = provider.Markets(context.Background(), 251)
	assert.Error(t, err)
}

func TestCoinGecko_Chart(t *testing.T) {
	provider := newTestCoinGecko(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/bitcoin/market_chart", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("days"))
		w.Write([]byte(chartBody))
	})

	points, err := provider.Chart(context.Background(), "bitcoin", 7)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, 100.0, points[0].Price)
	assert.Equal(t, 1000.0, points[0].MarketCap)
	assert.Equal(t, 50.0, points[0].Volume)
	assert.Equal(t, 101.5, points[1].Price)
	assert.True(t, points[0].Timestamp.Before(points[1].Timestamp))
}

func TestCoinGecko_ChartValidation(t *testing.T) {
	provider := newTestCoinGecko(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := provider.Chart(context.Background(), "bitcoin", 3)
	assert.ErrorIs(t, err, models.ErrInvalidTimeframe)

	_, err = provider.Chart(context.Background(), "", 7)
	assert.ErrorIs(t, err, models.ErrInvalidCoinID)
}
