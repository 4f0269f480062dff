package wsgateway

import (
	"sort"
	"sync"
	"time"
)

// ConnectionRegistry tracks the live dashboard connections.
// Listings are ordered by connect time so fan-out is deterministic.
type ConnectionRegistry struct {
	mu          sync.RWMutex
	connections map[string]*Connection // connection_id -> connection
	users       map[string]int         // user_id -> open connections
}

// NewConnectionRegistry creates an empty registry
func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		connections: make(map[string]*Connection),
		users:       make(map[string]int),
	}
}

// Add registers a connection. Re-adding an ID replaces the old entry.
func (r *ConnectionRegistry) Add(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.connections[conn.ID]; ok {
		r.dropUserLocked(old.UserID)
	}
	r.connections[conn.ID] = conn
	r.users[conn.UserID]++
}

// Remove drops a connection and reports whether it was registered
func (r *ConnectionRegistry) Remove(connectionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.connections[connectionID]
	if !ok {
		return false
	}
	delete(r.connections, connectionID)
	r.dropUserLocked(conn.UserID)
	return true
}

func (r *ConnectionRegistry) dropUserLocked(userID string) {
	if r.users[userID] <= 1 {
		delete(r.users, userID)
		return
	}
	r.users[userID]--
}

// Get looks a connection up by ID
func (r *ConnectionRegistry) Get(connectionID string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.connections[connectionID]
	return conn, ok
}

// All returns every connection, oldest first
func (r *ConnectionRegistry) All() []*Connection {
	return r.filter(func(*Connection) bool { return true })
}

// Interested returns the connections that want updates for coinID
func (r *ConnectionRegistry) Interested(coinID string) []*Connection {
	return r.filter(func(c *Connection) bool { return c.Wants(coinID) })
}

// Stale returns the connections whose last pong is older than cutoff
func (r *ConnectionRegistry) Stale(cutoff time.Time) []*Connection {
	return r.filter(func(c *Connection) bool { return c.GetLastPong().Before(cutoff) })
}

func (r *ConnectionRegistry) filter(keep func(*Connection) bool) []*Connection {
	r.mu.RLock()
	out := make([]*Connection, 0, len(r.connections))
	for _, conn := range r.connections {
		if keep(conn) {
			out = append(out, conn)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].createdAt.Equal(out[j].createdAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].createdAt.Before(out[j].createdAt)
	})
	return out
}

// Count returns the number of open connections
func (r *ConnectionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections)
}

// Users returns the number of distinct users connected
func (r *ConnectionRegistry) Users() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
