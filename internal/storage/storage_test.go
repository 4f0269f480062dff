package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedkhairy/crypto-signals/internal/config"
	"github.com/mohamedkhairy/crypto-signals/internal/models"
)

var base = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func decisionAt(id, coin string, at time.Time) *models.LoggedDecision {
	return &models.LoggedDecision{
		ID:        id,
		CoinID:    coin,
		Action:    models.ActionBuy,
		Price:     100,
		CreatedAt: at,
	}
}

func TestMockRedisClient_TTL(t *testing.T) {
	ctx := context.Background()
	now := base
	m := NewMockRedisClient()
	m.Now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", "v", time.Minute))
	ok, err := m.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(time.Minute)
	ok, _ = m.Exists(ctx, "k")
	assert.False(t, ok)

	var got string
	require.NoError(t, m.GetJSON(ctx, "k", &got))
	assert.Empty(t, got)
}

func TestMockRedisClient_SetNX(t *testing.T) {
	ctx := context.Background()
	now := base
	m := NewMockRedisClient()
	m.Now = func() time.Time { return now }

	first, err := m.SetNX(ctx, "lock", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	second, _ := m.SetNX(ctx, "lock", 1, time.Minute)
	assert.False(t, second)

	now = now.Add(2 * time.Minute)
	third, _ := m.SetNX(ctx, "lock", 1, time.Minute)
	assert.True(t, third)
}

func TestMockRedisClient_GetJSON(t *testing.T) {
	ctx := context.Background()
	m := NewMockRedisClient()

	type payload struct{ Value int }
	require.NoError(t, m.Set(ctx, "p", payload{Value: 7}, 0))

	var got payload
	require.NoError(t, m.GetJSON(ctx, "p", &got))
	assert.Equal(t, 7, got.Value)

	var missing payload
	require.NoError(t, m.GetJSON(ctx, "nope", &missing))
	assert.Zero(t, missing.Value)
}

func TestMockRedisClient_PubSub(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewMockRedisClient()

	ch, err := m.Subscribe(ctx, ChannelAlerts)
	require.NoError(t, err)

	require.NoError(t, m.Publish(ctx, ChannelAlerts, map[string]string{"type": "volume_spike"}))
	require.NoError(t, m.Publish(ctx, ChannelMarkets, "ignored"))

	select {
	case msg := <-ch:
		assert.Equal(t, ChannelAlerts, msg.Channel)
		assert.JSONEq(t, `{"type":"volume_spike"}`, msg.Message)
	case <-time.After(time.Second):
		t.Fatal("expected a message")
	}
	assert.Len(t, m.PublishedTo(ChannelMarkets), 1)

	cancel()
	select {
	case _, open := <-ch:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("expected channel to close")
	}
}

func TestMockRedisClient_InjectedErrors(t *testing.T) {
	ctx := context.Background()
	m := NewMockRedisClient()
	m.SetErr = fmt.Errorf("down")
	m.PublishErr = fmt.Errorf("down")

	assert.Error(t, m.Set(ctx, "k", 1, 0))
	_, err := m.SetNX(ctx, "k", 1, 0)
	assert.Error(t, err)
	assert.Error(t, m.Publish(ctx, "c", 1))
}

func TestMemoryDecisionLog(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryDecisionLog(0)

	require.NoError(t, log.Record(ctx, decisionAt("a", "bitcoin", base)))
	require.NoError(t, log.Record(ctx, decisionAt("b", "ethereum", base.Add(time.Hour))))
	require.NoError(t, log.Record(ctx, decisionAt("c", "bitcoin", base.Add(2*time.Hour))))
	// duplicate ids are ignored
	require.NoError(t, log.Record(ctx, decisionAt("a", "bitcoin", base.Add(5*time.Hour))))

	n, _ := log.Count(ctx)
	assert.Equal(t, 3, n)

	all, err := log.List(ctx, DecisionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)
	assert.Equal(t, "a", all[2].ID)

	btc, _ := log.List(ctx, DecisionFilter{CoinID: "bitcoin"})
	assert.Len(t, btc, 2)

	old, _ := log.List(ctx, DecisionFilter{CreatedBefore: base.Add(90 * time.Minute)})
	require.Len(t, old, 2)
	assert.Equal(t, "b", old[0].ID)

	page, _ := log.List(ctx, DecisionFilter{Limit: 1, Offset: 1})
	require.Len(t, page, 1)
	assert.Equal(t, "b", page[0].ID)

	empty, _ := log.List(ctx, DecisionFilter{Offset: 10})
	assert.Empty(t, empty)

	// returned values are copies
	all[0].Price = 1
	again, _ := log.List(ctx, DecisionFilter{Limit: 1})
	assert.Equal(t, 100.0, again[0].Price)
}

func TestMemoryDecisionLog_Bounded(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryDecisionLog(2)

	require.NoError(t, log.Record(ctx, decisionAt("a", "bitcoin", base)))
	require.NoError(t, log.Record(ctx, decisionAt("b", "bitcoin", base.Add(time.Hour))))
	require.NoError(t, log.Record(ctx, decisionAt("c", "bitcoin", base.Add(2*time.Hour))))

	all, _ := log.List(ctx, DecisionFilter{})
	require.Len(t, all, 2)
	assert.Equal(t, "c", all[0].ID)
	assert.Equal(t, "b", all[1].ID)
}

func TestMemoryDecisionLog_EvictsInRecordingOrder(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryDecisionLog(3)

	for i := 0; i < 10; i++ {
		require.NoError(t, log.Record(ctx, decisionAt(fmt.Sprintf("d-%d", i), "bitcoin", base.Add(time.Duration(i)*time.Minute))))
	}
	// recording a kept ID again is a no-op
	require.NoError(t, log.Record(ctx, decisionAt("d-9", "bitcoin", base)))

	count, _ := log.Count(ctx)
	assert.Equal(t, 3, count)
	all, _ := log.List(ctx, DecisionFilter{})
	require.Len(t, all, 3)
	assert.Equal(t, []string{"d-9", "d-8", "d-7"}, []string{all[0].ID, all[1].ID, all[2].ID})
}

func TestDecisionLogCapacity(t *testing.T) {
	// 289 polls cover 24h at 5m, doubled for manual refreshes
	assert.Equal(t, 2*50*289, DecisionLogCapacity(50, 5*time.Minute, 24*time.Hour))
	assert.Equal(t, 2*10*4, DecisionLogCapacity(10, 10*time.Minute, 25*time.Minute))
	assert.Zero(t, DecisionLogCapacity(0, time.Minute, time.Hour))
	assert.Zero(t, DecisionLogCapacity(10, 0, time.Hour))
}

func TestMemoryDecisionLog_Invalid(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryDecisionLog(0)

	assert.Error(t, log.Record(ctx, nil))
	assert.ErrorIs(t, log.Record(ctx, &models.LoggedDecision{CoinID: "bitcoin", Price: 1}), models.ErrInvalidDecisionID)
	assert.ErrorIs(t, log.Record(ctx, decisionAt("x", "", base)), models.ErrInvalidCoinID)
}

func TestConnectionString(t *testing.T) {
	dsn := ConnectionString(config.DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "u",
		Password: "p",
		Database: "signals",
		SSLMode:  "require",
	})
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=signals sslmode=require", dsn)
}

func TestBuildListQuery(t *testing.T) {
	query, args := buildListQuery(DecisionFilter{})
	assert.Equal(t, "SELECT "+decisionColumns+" FROM decision_log WHERE 1=1 ORDER BY created_at DESC, id", query)
	assert.Empty(t, args)

	before := base.Add(time.Hour)
	query, args = buildListQuery(DecisionFilter{
		CoinID:        "bitcoin",
		CreatedBefore: before,
		Limit:         10,
		Offset:        20,
	})
	assert.Contains(t, query, "coin_id = $1")
	assert.Contains(t, query, "created_at < $2")
	assert.Contains(t, query, "LIMIT $3")
	assert.Contains(t, query, "OFFSET $4")
	assert.NotContains(t, query, "created_at >")
	assert.Equal(t, []interface{}{"bitcoin", before, 10, 20}, args)
}
