package wsgateway

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const sendBuffer = 256

// Connection represents a WebSocket connection with a dashboard client
type Connection struct {
	ID     string
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	mu            sync.RWMutex
	subscriptions map[string]bool // coin_id -> subscribed
	lastPong      time.Time
	createdAt     time.Time

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewConnection creates a new WebSocket connection
func NewConnection(id string, userID string, conn *websocket.Conn) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()
	return &Connection{
		ID:            id,
		UserID:        userID,
		Conn:          conn,
		Send:          make(chan []byte, sendBuffer),
		subscriptions: make(map[string]bool),
		lastPong:      now,
		createdAt:     now,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Subscribe adds coins to the connection's filter
func (c *Connection) Subscribe(coins ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, coin := range coins {
		if coin = normalizeCoin(coin); coin != "" {
			c.subscriptions[coin] = true
		}
	}
}

// Unsubscribe removes coins from the connection's filter
func (c *Connection) Unsubscribe(coins ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, coin := range coins {
		delete(c.subscriptions, normalizeCoin(coin))
	}
}

// IsSubscribed checks if the connection is subscribed to a coin
func (c *Connection) IsSubscribed(coinID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.subscriptions[coinID]
}

// Subscriptions returns the subscribed coin ids; empty means everything
func (c *Connection) Subscriptions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.subscriptions))
	for coin := range c.subscriptions {
		out = append(out, coin)
	}
	return out
}

// Wants reports whether an update about coinID should be delivered.
// With no subscriptions every coin is delivered.
func (c *Connection) Wants(coinID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subscriptions) == 0 || c.subscriptions[normalizeCoin(coinID)]
}

// UpdateLastPong updates the last pong time
func (c *Connection) UpdateLastPong() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastPong = time.Now()
}

// GetLastPong returns the last pong time
func (c *Connection) GetLastPong() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastPong
}

// Enqueue queues a message for the write pump. A full buffer drops the
// message and returns false.
func (c *Connection) Enqueue(data []byte) bool {
	select {
	case <-c.ctx.Done():
		return false
	default:
	}

	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// Done is closed once the connection is closed
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close closes the connection. It is safe to call more than once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		if c.Conn != nil {
			c.Conn.Close()
		}
	})
}

func normalizeCoin(coin string) string {
	return strings.ToLower(strings.TrimSpace(coin))
}
