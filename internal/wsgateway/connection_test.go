package wsgateway

import (
	"encoding/json"
	"sort"
	"testing"
	"time"
)

func TestConnection_SubscribeUnsubscribe(t *testing.T) {
	conn := NewConnection("conn-1", "user-1", nil)

	conn.Subscribe("Bitcoin", " ethereum ", "")
	if !conn.IsSubscribed("bitcoin") || !conn.IsSubscribed("ethereum") {
		t.Error("Expected connection to be subscribed to bitcoin and ethereum")
	}

	got := conn.Subscriptions()
	sort.Strings(got)
	if len(got) != 2 || got[0] != "bitcoin" || got[1] != "ethereum" {
		t.Errorf("Unexpected subscriptions %v", got)
	}

	conn.Unsubscribe("BITCOIN")
	if conn.IsSubscribed("bitcoin") {
		t.Error("Expected connection to be unsubscribed from bitcoin")
	}
}

func TestConnection_Wants(t *testing.T) {
	conn := NewConnection("conn-1", "user-1", nil)

	// no subscriptions means everything
	if !conn.Wants("ripple") {
		t.Error("Expected an unfiltered connection to want every coin")
	}

	conn.Subscribe("bitcoin")
	if !conn.Wants("bitcoin") {
		t.Error("Expected connection to want a subscribed coin")
	}
	if conn.Wants("ripple") {
		t.Error("Expected connection not to want an unsubscribed coin")
	}
}

func TestConnection_Enqueue(t *testing.T) {
	conn := NewConnection("conn-1", "user-1", nil)

	for i := 0; i < sendBuffer; i++ {
		if !conn.Enqueue([]byte("x")) {
			t.Fatalf("Expected message %d to be queued", i)
		}
	}
	if conn.Enqueue([]byte("overflow")) {
		t.Error("Expected a full buffer to drop the message")
	}

	conn.Close()
	conn.Close()
	select {
	case <-conn.Done():
	default:
		t.Error("Expected Done to be closed after Close")
	}
	<-conn.Send
	if conn.Enqueue([]byte("late")) {
		t.Error("Expected a closed connection to refuse messages")
	}
}

func TestConnection_UpdateLastPong(t *testing.T) {
	conn := NewConnection("conn-1", "user-1", nil)
	conn.lastPong = time.Now().Add(-time.Hour)

	initialPong := conn.GetLastPong()
	conn.UpdateLastPong()

	if !conn.GetLastPong().After(initialPong) {
		t.Error("Expected last pong time to be updated")
	}
}

func TestConnection_HandleClientMessage(t *testing.T) {
	conn := NewConnection("conn-1", "user-1", nil)

	read := func() ServerMessage {
		t.Helper()
		select {
		case data := <-conn.Send:
			var msg ServerMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Fatalf("Failed to unmarshal reply: %v", err)
			}
			return msg
		default:
			t.Fatal("Expected a reply")
			return ServerMessage{}
		}
	}

	if err := conn.HandleClientMessage(&ClientMessage{Type: "subscribe", Coins: []string{"bitcoin"}}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if msg := read(); msg.Type != "success" {
		t.Errorf("Expected success, got %+v", msg)
	}
	if !conn.IsSubscribed("bitcoin") {
		t.Error("Expected bitcoin subscription")
	}

	conn.HandleClientMessage(&ClientMessage{Type: "subscribe"})
	if msg := read(); msg.Type != "error" || msg.Code != "invalid_request" {
		t.Errorf("Expected invalid_request, got %+v", msg)
	}

	conn.HandleClientMessage(&ClientMessage{Type: "unsubscribe", Coins: []string{"bitcoin"}})
	if msg := read(); msg.Type != "success" {
		t.Errorf("Expected success, got %+v", msg)
	}
	if conn.IsSubscribed("bitcoin") {
		t.Error("Expected bitcoin to be unsubscribed")
	}

	conn.HandleClientMessage(&ClientMessage{Type: "ping"})
	if msg := read(); msg.Type != "pong" {
		t.Errorf("Expected pong, got %+v", msg)
	}

	conn.HandleClientMessage(&ClientMessage{Type: "moon"})
	if msg := read(); msg.Code != "unknown_message_type" {
		t.Errorf("Expected unknown_message_type, got %+v", msg)
	}
}
