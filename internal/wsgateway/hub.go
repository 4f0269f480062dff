package wsgateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mohamedkhairy/crypto-signals/internal/alert"
	"github.com/mohamedkhairy/crypto-signals/internal/auth"
	"github.com/mohamedkhairy/crypto-signals/internal/config"
	"github.com/mohamedkhairy/crypto-signals/internal/models"
	"github.com/mohamedkhairy/crypto-signals/internal/storage"
	"github.com/mohamedkhairy/crypto-signals/pkg/logger"
)

const maxClientMessage = 4096

// Hub manages WebSocket connections and fans out the events published on
// the markets and alerts channels
type Hub struct {
	config   config.WSGatewayConfig
	registry *ConnectionRegistry
	redis    storage.RedisClient
	auth     *auth.Manager
	upgrader websocket.Upgrader
	greeting func() []models.Event

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	running bool

	statsMu sync.RWMutex
	stats   HubStats
}

// HubStats holds statistics about the hub
type HubStats struct {
	ConnectionsTotal    int64
	ConnectionsActive   int64
	UsersActive         int64
	ConnectionsRejected int64
	EventsReceived      int64
	EventsBroadcast     int64
	MessagesSent        int64
	MessagesDropped     int64
	LastEventTime       time.Time
}

// NewHub creates a new WebSocket hub. allowedOrigins follows the API CORS
// setting; "*" or an empty list accepts any origin.
func NewHub(cfg config.WSGatewayConfig, redis storage.RedisClient, authManager *auth.Manager, allowedOrigins []string) *Hub {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 60 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.PingInterval <= 0 || cfg.PingInterval >= cfg.ReadTimeout {
		cfg.PingInterval = cfg.ReadTimeout * 9 / 10
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 1000
	}
	if authManager == nil {
		authManager = auth.NewManager("")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		config:   cfg,
		registry: NewConnectionRegistry(),
		redis:    redis,
		auth:     authManager,
		upgrader: websocket.Upgrader{
			CheckOrigin:     checkOrigin(allowedOrigins),
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		ctx:    ctx,
		cancel: cancel,
	}
}

// SetGreeting sets the events sent to every new connection before live
// updates, typically the current markets and sentiment
func (h *Hub) SetGreeting(greeting func() []models.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.greeting = greeting
}

// Start subscribes to the event channels and starts broadcasting
func (h *Hub) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return nil
	}

	messages, err := h.redis.Subscribe(h.ctx, storage.ChannelMarkets, storage.ChannelAlerts)
	if err != nil {
		return fmt.Errorf("failed to subscribe to event channels: %w", err)
	}
	h.running = true

	logger.Info("Starting WebSocket hub",
		logger.Strings("channels", []string{storage.ChannelMarkets, storage.ChannelAlerts}),
		logger.Int("max_connections", h.config.MaxConnections),
	)

	h.wg.Add(2)
	go h.consumeEvents(messages)
	go h.monitorConnections()
	return nil
}

// Stop closes every connection and waits for the pumps to exit
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	logger.Info("Stopping WebSocket hub")
	h.cancel()
	for _, conn := range h.registry.All() {
		h.Unregister(conn)
	}
	h.wg.Wait()
	logger.Info("WebSocket hub stopped")
}

// ServeHTTP authenticates and upgrades a client connection
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if active := h.registry.Count(); active >= h.config.MaxConnections {
		logger.Warn("Max connections reached, rejecting new connection",
			logger.Int("max_connections", h.config.MaxConnections),
			logger.Int("active_connections", active),
		)
		h.updateStats(func(s *HubStats) { s.ConnectionsRejected++ })
		http.Error(w, "Max connections reached", http.StatusServiceUnavailable)
		return
	}

	userID, err := h.auth.Authenticate(r)
	if err != nil {
		logger.Warn("Invalid token, rejecting connection", logger.ErrorField(err))
		h.updateStats(func(s *HubStats) { s.ConnectionsRejected++ })
		http.Error(w, "Invalid authentication token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already replied
		logger.Warn("Failed to upgrade connection", logger.ErrorField(err))
		return
	}

	wsConn := NewConnection(uuid.NewString(), userID, conn)
	h.Register(wsConn)

	logger.Info("WebSocket connection established",
		logger.String("connection_id", wsConn.ID),
		logger.String("user_id", userID),
		logger.String("remote_addr", r.RemoteAddr),
	)
}

// Register registers a new connection and starts its pumps
func (h *Hub) Register(conn *Connection) {
	h.registry.Add(conn)
	h.updateStats(func(s *HubStats) { s.ConnectionsTotal++ })
	logger.WebSocketConnections.Inc()

	h.mu.RLock()
	greeting := h.greeting
	h.mu.RUnlock()
	if greeting != nil {
		for _, event := range greeting() {
			h.deliver(conn, event)
		}
	}

	logger.Debug("Connection registered",
		logger.String("connection_id", conn.ID),
		logger.String("user_id", conn.UserID),
		logger.Int("total_connections", h.registry.Count()),
		logger.Int("users", h.registry.Users()),
	)

	h.wg.Add(2)
	go h.writePump(conn)
	go h.readPump(conn)
}

// Unregister removes and closes a connection. It is safe to call more than once.
func (h *Hub) Unregister(conn *Connection) {
	if h.registry.Remove(conn.ID) {
		logger.WebSocketConnections.Dec()
		logger.Debug("Connection unregistered",
			logger.String("connection_id", conn.ID),
			logger.String("user_id", conn.UserID),
			logger.Int("total_connections", h.registry.Count()),
		)
	}
	conn.Close()
}

// consumeEvents routes pub/sub messages to the connected clients
func (h *Hub) consumeEvents(messages <-chan storage.PubSubMessage) {
	defer h.wg.Done()

	for {
		select {
		case <-h.ctx.Done():
			return

		case msg, ok := <-messages:
			if !ok {
				if h.ctx.Err() == nil {
					logger.Warn("Event subscription closed")
				}
				return
			}
			h.updateStats(func(s *HubStats) {
				s.EventsReceived++
				s.LastEventTime = time.Now()
			})
			if err := h.route(msg); err != nil {
				logger.Warn("Dropped malformed event",
					logger.String("channel", msg.Channel),
					logger.ErrorField(err),
				)
				logger.ErrorsTotal.WithLabelValues("wsgateway", "decode").Inc()
			}
		}
	}
}

func (h *Hub) route(msg storage.PubSubMessage) error {
	switch msg.Channel {
	case storage.ChannelAlerts:
		var a models.Alert
		if err := json.Unmarshal([]byte(msg.Message), &a); err != nil {
			return fmt.Errorf("failed to unmarshal alert: %w", err)
		}
		h.BroadcastAlert(&a)
		return nil

	default:
		var event models.Event
		if err := json.Unmarshal([]byte(msg.Message), &event); err != nil {
			return fmt.Errorf("failed to unmarshal event: %w", err)
		}
		if event.Type == models.EventMarkets {
			return h.BroadcastMarkets(event)
		}
		h.Broadcast(event)
		return nil
	}
}

// Broadcast sends an event to every connection
func (h *Hub) Broadcast(event models.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal event", logger.ErrorField(err))
		return
	}
	h.fanOut(string(event.Type), h.registry.All(), func(*Connection) []byte { return data })
}

// BroadcastAlert sends an alert to the connections subscribed to its coin.
// Market-wide alerts reach everyone.
func (h *Hub) BroadcastAlert(a *models.Alert) {
	event, err := models.NewEvent(models.EventAlert, a)
	if err != nil {
		logger.Error("Failed to build alert event", logger.ErrorField(err))
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal alert event", logger.ErrorField(err))
		return
	}

	recipients := h.registry.Interested(a.CoinID)
	if a.CoinID == alert.MarketCoinID {
		recipients = h.registry.All()
	}
	h.fanOut(string(models.EventAlert), recipients, func(*Connection) []byte { return data })
}

// BroadcastMarkets sends a markets event, narrowed to each connection's
// subscribed coins
func (h *Hub) BroadcastMarkets(event models.Event) error {
	var update models.MarketsUpdate
	if err := json.Unmarshal(event.Data, &update); err != nil {
		return fmt.Errorf("failed to unmarshal markets update: %w", err)
	}
	full, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.fanOut(string(models.EventMarkets), h.registry.All(), func(conn *Connection) []byte {
		subs := conn.Subscriptions()
		if len(subs) == 0 {
			return full
		}
		data, err := marshalFiltered(update, conn)
		if err != nil {
			logger.Error("Failed to marshal filtered markets", logger.ErrorField(err))
			return nil
		}
		return data
	})
	return nil
}

func marshalFiltered(update models.MarketsUpdate, conn *Connection) ([]byte, error) {
	filtered := update
	filtered.Snapshots = make([]models.Snapshot, 0, len(update.Snapshots))
	for _, s := range update.Snapshots {
		if conn.IsSubscribed(s.ID) {
			filtered.Snapshots = append(filtered.Snapshots, s)
		}
	}
	event, err := models.NewEvent(models.EventMarkets, filtered)
	if err != nil {
		return nil, err
	}
	return json.Marshal(event)
}

// fanOut delivers the payload chosen per connection; nil skips the connection
func (h *Hub) fanOut(eventType string, connections []*Connection, payload func(*Connection) []byte) {
	sent, dropped := 0, 0

	for _, conn := range connections {
		data := payload(conn)
		if data == nil {
			continue
		}
		if conn.Enqueue(data) {
			sent++
		} else {
			dropped++
			logger.Debug("Dropped message, send buffer full",
				logger.String("connection_id", conn.ID),
				logger.String("type", eventType),
			)
		}
	}

	h.updateStats(func(s *HubStats) {
		s.EventsBroadcast++
		s.MessagesSent += int64(sent)
		s.MessagesDropped += int64(dropped)
	})

	logger.Debug("Broadcast event",
		logger.String("type", eventType),
		logger.Int("sent", sent),
		logger.Int("dropped", dropped),
		logger.Int("total_connections", len(connections)),
	)
}

func (h *Hub) deliver(conn *Connection, event models.Event) {
	var data []byte
	var err error
	if event.Type == models.EventMarkets && len(conn.Subscriptions()) > 0 {
		var update models.MarketsUpdate
		if err = json.Unmarshal(event.Data, &update); err == nil {
			data, err = marshalFiltered(update, conn)
		}
	} else {
		data, err = json.Marshal(event)
	}
	if err != nil {
		logger.Error("Failed to marshal greeting", logger.ErrorField(err))
		return
	}
	conn.Enqueue(data)
}

// writePump pumps messages from the hub to the WebSocket connection.
// It is the only writer on the socket.
func (h *Hub) writePump(conn *Connection) {
	defer h.wg.Done()
	defer h.Unregister(conn)

	ticker := time.NewTicker(h.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			conn.Conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			conn.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return

		case <-conn.Done():
			return

		case message := <-conn.Send:
			conn.Conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := conn.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			conn.Conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := conn.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump pumps messages from the WebSocket connection to the hub
func (h *Hub) readPump(conn *Connection) {
	defer h.wg.Done()
	defer h.Unregister(conn)

	conn.Conn.SetReadLimit(maxClientMessage)
	conn.Conn.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		conn.UpdateLastPong()
		conn.Conn.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("WebSocket error",
					logger.ErrorField(err),
					logger.String("connection_id", conn.ID),
				)
			}
			return
		}

		var clientMsg ClientMessage
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			conn.SendError("invalid_message", "failed to parse message")
			continue
		}

		if err := conn.HandleClientMessage(&clientMsg); err != nil {
			logger.Debug("Failed to handle client message",
				logger.ErrorField(err),
				logger.String("connection_id", conn.ID),
			)
		}
	}
}

// monitorConnections removes connections that stopped answering pings
func (h *Hub) monitorConnections() {
	defer h.wg.Done()

	interval := 30 * time.Second
	if h.config.ReadTimeout < interval {
		interval = h.config.ReadTimeout
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case <-ticker.C:
			now := time.Now()
			for _, conn := range h.registry.Stale(now.Add(-2 * h.config.ReadTimeout)) {
				logger.Info("Removing stale connection",
					logger.String("connection_id", conn.ID),
					logger.String("user_id", conn.UserID),
					logger.Duration("idle_time", now.Sub(conn.GetLastPong())),
				)
				h.Unregister(conn)
			}
		}
	}
}

// GetStats returns hub statistics
func (h *Hub) GetStats() HubStats {
	h.statsMu.RLock()
	defer h.statsMu.RUnlock()

	stats := h.stats
	stats.ConnectionsActive = int64(h.registry.Count())
	stats.UsersActive = int64(h.registry.Users())
	return stats
}

func (h *Hub) updateStats(f func(*HubStats)) {
	h.statsMu.Lock()
	defer h.statsMu.Unlock()
	f(&h.stats)
}

func checkOrigin(allowedOrigins []string) func(*http.Request) bool {
	allowed := make(map[string]bool, len(allowedOrigins))
	allowAll := len(allowedOrigins) == 0
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[strings.TrimRight(o, "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return allowAll || origin == "" || allowed[origin]
	}
}
