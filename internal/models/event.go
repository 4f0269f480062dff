package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType identifies a message pushed to dashboard clients
type EventType string

const (
	EventMarkets   EventType = "markets"
	EventAlert     EventType = "alert"
	EventSentiment EventType = "sentiment"
	EventWarning   EventType = "warning"
)

// Event is the envelope published on the markets channel and sent over the WebSocket
type Event struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// NewEvent marshals data into an event of type t
func NewEvent(t EventType, data interface{}) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s event: %w", t, err)
	}
	return Event{Type: t, Data: raw}, nil
}

// MarketsUpdate is the payload of a markets event
type MarketsUpdate struct {
	Source    string     `json:"source"`
	Snapshots []Snapshot `json:"snapshots"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Warning is the payload of a warning event
type Warning struct {
	Message             string `json:"message"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
}
