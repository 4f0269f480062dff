package wsgateway

import (
	"testing"
	"time"
)

func registered(id, user string, at time.Time) *Connection {
	conn := NewConnection(id, user, nil)
	conn.createdAt = at
	conn.lastPong = at
	return conn
}

func ids(conns []*Connection) []string {
	out := make([]string, 0, len(conns))
	for _, c := range conns {
		out = append(out, c.ID)
	}
	return out
}

func TestConnectionRegistry_AddRemove(t *testing.T) {
	registry := NewConnectionRegistry()
	registry.Add(registered("conn-1", "user-1", time.Now()))

	retrieved, exists := registry.Get("conn-1")
	if !exists {
		t.Fatal("Expected connection to exist")
	}
	if retrieved.ID != "conn-1" {
		t.Errorf("Expected connection ID %s, got %s", "conn-1", retrieved.ID)
	}
	if registry.Count() != 1 || registry.Users() != 1 {
		t.Errorf("Expected 1 connection and 1 user, got %d and %d", registry.Count(), registry.Users())
	}

	if !registry.Remove("conn-1") {
		t.Error("Expected first removal to report the connection")
	}
	if registry.Remove("conn-1") {
		t.Error("Expected second removal to be a no-op")
	}
	if _, exists = registry.Get("conn-1"); exists {
		t.Error("Expected connection to be removed")
	}
	if registry.Count() != 0 || registry.Users() != 0 {
		t.Errorf("Expected an empty registry, got %d connections and %d users", registry.Count(), registry.Users())
	}
}

func TestConnectionRegistry_Users(t *testing.T) {
	registry := NewConnectionRegistry()
	now := time.Now()
	registry.Add(registered("conn-1", "user-1", now))
	registry.Add(registered("conn-2", "user-1", now))
	registry.Add(registered("conn-3", "user-2", now))

	if got := registry.Users(); got != 2 {
		t.Errorf("Expected 2 users, got %d", got)
	}

	// replacing an entry keeps the per-user count
	registry.Add(registered("conn-2", "user-1", now))
	registry.Remove("conn-1")
	if got := registry.Users(); got != 2 {
		t.Errorf("Expected user-1 to still be connected, got %d users", got)
	}
	registry.Remove("conn-2")
	if got := registry.Users(); got != 1 {
		t.Errorf("Expected 1 user, got %d", got)
	}
}

func TestConnectionRegistry_Ordering(t *testing.T) {
	registry := NewConnectionRegistry()
	base := time.Now()
	registry.Add(registered("late", "u", base.Add(2*time.Second)))
	registry.Add(registered("b", "u", base))
	registry.Add(registered("a", "u", base))

	got := ids(registry.All())
	want := []string{"a", "b", "late"}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, got)
			break
		}
	}
}

func TestConnectionRegistry_Interested(t *testing.T) {
	registry := NewConnectionRegistry()
	now := time.Now()

	all := registered("all", "u1", now)
	btc := registered("btc", "u2", now.Add(time.Millisecond))
	btc.Subscribe("Bitcoin")
	eth := registered("eth", "u3", now.Add(2*time.Millisecond))
	eth.Subscribe("ethereum")

	registry.Add(all)
	registry.Add(btc)
	registry.Add(eth)

	if got := ids(registry.Interested("bitcoin")); len(got) != 2 || got[0] != "all" || got[1] != "btc" {
		t.Errorf("Expected [all btc], got %v", got)
	}
	if got := ids(registry.Interested("solana")); len(got) != 1 || got[0] != "all" {
		t.Errorf("Expected only the unfiltered connection, got %v", got)
	}
}

func TestConnectionRegistry_Stale(t *testing.T) {
	registry := NewConnectionRegistry()
	now := time.Now()
	registry.Add(registered("old", "u", now.Add(-time.Minute)))
	registry.Add(registered("fresh", "u", now))

	stale := registry.Stale(now.Add(-30 * time.Second))
	if len(stale) != 1 || stale[0].ID != "old" {
		t.Errorf("Expected only the old connection, got %v", ids(stale))
	}
}
