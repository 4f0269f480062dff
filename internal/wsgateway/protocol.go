package wsgateway

import (
	"encoding/json"
	"fmt"

	"github.com/mohamedkhairy/crypto-signals/pkg/logger"
)

// MessageType represents the type of a client message
type MessageType string

const (
	MessageTypeSubscribe   MessageType = "subscribe"
	MessageTypeUnsubscribe MessageType = "unsubscribe"
	MessageTypePing        MessageType = "ping"
)

// ClientMessage represents a message from the client
type ClientMessage struct {
	Type  string   `json:"type"`
	Coins []string `json:"coins,omitempty"`
}

// ServerMessage is a control reply to the client. Market data, alerts,
// sentiment and warnings travel as models.Event.
type ServerMessage struct {
	Type    string      `json:"type"`
	Data    interface{} `json:"data,omitempty"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
}

// HandleClientMessage handles a message from the client
func (c *Connection) HandleClientMessage(msg *ClientMessage) error {
	switch MessageType(msg.Type) {
	case MessageTypeSubscribe:
		if len(msg.Coins) == 0 {
			return c.SendError("invalid_request", "coins field required")
		}
		c.Subscribe(msg.Coins...)
		logger.Debug("Client subscribed to coins",
			logger.String("connection_id", c.ID),
			logger.String("user_id", c.UserID),
			logger.Strings("coins", msg.Coins),
		)
		return c.SendSuccess("subscribed", c.Subscriptions())

	case MessageTypeUnsubscribe:
		if len(msg.Coins) == 0 {
			return c.SendError("invalid_request", "coins field required")
		}
		c.Unsubscribe(msg.Coins...)
		logger.Debug("Client unsubscribed from coins",
			logger.String("connection_id", c.ID),
			logger.String("user_id", c.UserID),
			logger.Strings("coins", msg.Coins),
		)
		return c.SendSuccess("unsubscribed", c.Subscriptions())

	case MessageTypePing:
		return c.send(ServerMessage{Type: "pong"})

	default:
		return c.SendError("unknown_message_type", fmt.Sprintf("unknown message type: %s", msg.Type))
	}
}

// SendSuccess acknowledges a subscription change with the resulting coin list
func (c *Connection) SendSuccess(action string, coins []string) error {
	return c.send(ServerMessage{
		Type: "success",
		Data: map[string]interface{}{
			"action": action,
			"coins":  coins,
		},
	})
}

// SendError sends an error message to the connection
func (c *Connection) SendError(code string, message string) error {
	return c.send(ServerMessage{
		Type:    "error",
		Code:    code,
		Message: message,
	})
}

func (c *Connection) send(msg ServerMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if !c.Enqueue(data) {
		return fmt.Errorf("connection %s: send buffer full or closed", c.ID)
	}
	return nil
}
