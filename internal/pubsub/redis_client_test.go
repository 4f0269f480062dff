package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mohamedkhairy/crypto-signals/internal/config"
	"github.com/mohamedkhairy/crypto-signals/internal/storage"
)

func TestConnect_Disabled(t *testing.T) {
	client, live := Connect(config.RedisConfig{Enabled: false})
	assert.False(t, live)
	assert.IsType(t, &storage.MockRedisClient{}, client)
}

func TestConnect_Unreachable(t *testing.T) {
	// nothing listens on port 1
	client, live := Connect(config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1})
	assert.False(t, live)
	assert.IsType(t, &storage.MockRedisClient{}, client)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	_, err := NewRedisClient(config.RedisConfig{Host: "127.0.0.1", Port: 1})
	assert.Error(t, err)
}
