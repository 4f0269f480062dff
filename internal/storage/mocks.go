package storage

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// publishedHistory bounds the messages kept in Published
const publishedHistory = 1000

// MockRedisClient is an in-memory RedisClient. It backs tests and is the
// fallback when Redis is disabled or unreachable, so it honours TTLs and
// delivers Publish calls to in-process subscribers.
type MockRedisClient struct {
	mu          sync.Mutex
	Data        map[string]string
	expiry      map[string]time.Time
	subscribers map[string][]chan PubSubMessage
	Published   []PubSubMessage

	// Now is the clock used for TTLs
	Now func() time.Time

	PublishErr   error
	GetErr       error
	SetErr       error
	SubscribeErr error
}

func NewMockRedisClient() *MockRedisClient {
	return &MockRedisClient{
		Data:        make(map[string]string),
		expiry:      make(map[string]time.Time),
		subscribers: make(map[string][]chan PubSubMessage),
		Now:         time.Now,
	}
}

// expireLocked drops key if its TTL has passed. Callers hold mu.
func (m *MockRedisClient) expireLocked(key string) {
	if at, ok := m.expiry[key]; ok && !m.Now().Before(at) {
		delete(m.Data, key)
		delete(m.expiry, key)
	}
}

func (m *MockRedisClient) setLocked(key string, value interface{}, ttl time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.Data[key] = string(jsonData)
	if ttl > 0 {
		m.expiry[key] = m.Now().Add(ttl)
	} else {
		delete(m.expiry, key)
	}
	return nil
}

func (m *MockRedisClient) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SetErr != nil {
		return m.SetErr
	}
	return m.setLocked(key, value, ttl)
}

func (m *MockRedisClient) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SetErr != nil {
		return false, m.SetErr
	}
	m.expireLocked(key)
	if _, exists := m.Data[key]; exists {
		return false, nil
	}
	if err := m.setLocked(key, value, ttl); err != nil {
		return false, err
	}
	return true, nil
}

func (m *MockRedisClient) GetJSON(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetErr != nil {
		return m.GetErr
	}
	m.expireLocked(key)
	value, exists := m.Data[key]
	if !exists {
		return nil // missing keys leave dest untouched, like the real client
	}
	return json.Unmarshal([]byte(value), dest)
}

func (m *MockRedisClient) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.expireLocked(key)
	_, exists := m.Data[key]
	return exists, nil
}

// Publish records the message and hands it to current subscribers.
// Subscribers with a full buffer miss the message.
func (m *MockRedisClient) Publish(ctx context.Context, channel string, message interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PublishErr != nil {
		return m.PublishErr
	}
	jsonData, err := json.Marshal(message)
	if err != nil {
		return err
	}

	msg := PubSubMessage{Channel: channel, Message: string(jsonData)}
	m.Published = append(m.Published, msg)
	if len(m.Published) > publishedHistory {
		m.Published = m.Published[len(m.Published)-publishedHistory:]
	}
	for _, ch := range m.subscribers[channel] {
		select {
		case ch <- msg:
		default:
		}
	}
	return nil
}

// Subscribe returns a channel that closes when ctx is done
func (m *MockRedisClient) Subscribe(ctx context.Context, channels ...string) (<-chan PubSubMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SubscribeErr != nil {
		return nil, m.SubscribeErr
	}

	ch := make(chan PubSubMessage, 100)
	for _, channel := range channels {
		m.subscribers[channel] = append(m.subscribers[channel], ch)
	}

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		for _, channel := range channels {
			subs := m.subscribers[channel]
			for i, sub := range subs {
				if sub == ch {
					m.subscribers[channel] = append(subs[:i], subs[i+1:]...)
					break
				}
			}
		}
		close(ch)
	}()

	return ch, nil
}

// PublishedTo returns the messages published to one channel
func (m *MockRedisClient) PublishedTo(channel string) []PubSubMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []PubSubMessage
	for _, msg := range m.Published {
		if msg.Channel == channel {
			out = append(out, msg)
		}
	}
	return out
}

func (m *MockRedisClient) Ping(ctx context.Context) error {
	return nil
}

func (m *MockRedisClient) Close() error {
	return nil
}
