package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Provider and store names accepted by the configuration
const (
	ProviderCoinGecko = "coingecko"
	ProviderMock      = "mock"

	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config holds all configuration for the application
type Config struct {
	// Common
	Environment string
	LogLevel    string

	Database    DatabaseConfig
	Redis       RedisConfig
	MarketData  MarketDataConfig
	Sentiment   SentimentConfig
	Alert       AlertConfig
	Performance PerformanceConfig
	API         APIConfig
	WSGateway   WSGatewayConfig
}

// DatabaseConfig holds PostgreSQL configuration for the decision log
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxConnections  int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// DecisionLogStore is "memory" or "postgres"
	DecisionLogStore string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled      bool
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
}

// MarketDataConfig holds market data provider configuration
type MarketDataConfig struct {
	Provider             string // "coingecko" or "mock"
	BaseURL              string
	APIKey               string
	PerPage              int
	PollInterval         time.Duration
	Timeout              time.Duration
	RequestsPerSecond    float64
	MaxRetryElapsed      time.Duration
	FailureWarnThreshold int
	ChartCacheTTL        time.Duration
}

// SentimentConfig holds Fear & Greed index configuration
type SentimentConfig struct {
	BaseURL      string
	PollInterval time.Duration
}

// AlertConfig holds smart alert configuration
type AlertConfig struct {
	CooldownTTL  time.Duration
	DedupeTTL    time.Duration
	EnabledTypes []string // empty means the per-type defaults
	RecentLimit  int
}

// PerformanceConfig holds historical accuracy configuration
type PerformanceConfig struct {
	Horizon time.Duration
}

// APIConfig holds REST API configuration
type APIConfig struct {
	Port           int
	JWTSecret      string
	RateLimitRPS   float64
	RateLimitBurst int
	AllowedOrigins []string
	// TrustedProxies are IPs or CIDRs whose X-Forwarded-For is believed
	TrustedProxies []string
}

// TrustedProxyNets parses TrustedProxies. A bare IP is a single-host network.
func (c APIConfig) TrustedProxyNets() ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(c.TrustedProxies))
	for _, entry := range c.TrustedProxies {
		if strings.Contains(entry, "/") {
			_, n, err := net.ParseCIDR(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
			}
			nets = append(nets, n)
			continue
		}
		ip := net.ParseIP(entry)
		if ip == nil {
			return nil, fmt.Errorf("invalid trusted proxy %q", entry)
		}
		bits := 128
		if v4 := ip.To4(); v4 != nil {
			ip, bits = v4, 32
		}
		nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return nets, nil
}

// WSGatewayConfig holds WebSocket configuration
type WSGatewayConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	MaxConnections int
}

// Load loads configuration from environment variables
// It automatically loads .env file if it exists in the current directory
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			Host:             getEnv("DB_HOST", ""),
			Port:             getEnvAsInt("DB_PORT", 5432),
			User:             getEnv("DB_USER", "postgres"),
			Password:         getEnv("DB_PASSWORD", "postgres"),
			Database:         getEnv("DB_NAME", "crypto_signals"),
			SSLMode:          getEnv("DB_SSL_MODE", "disable"),
			MaxConnections:   getEnvAsInt("DB_MAX_CONNECTIONS", 10),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			DecisionLogStore: strings.ToLower(getEnv("DECISION_LOG_STORE", StoreMemory)),
		},
		Redis: RedisConfig{
			Enabled:      getEnvAsBool("REDIS_ENABLED", true),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvAsInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 2),
		},
		MarketData: MarketDataConfig{
			Provider:             strings.ToLower(getEnv("MARKET_DATA_PROVIDER", ProviderCoinGecko)),
			BaseURL:              getEnv("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
			APIKey:               getEnv("COINGECKO_API_KEY", ""),
			PerPage:              getEnvAsInt("MARKET_DATA_PER_PAGE", 20),
			PollInterval:         getEnvAsDuration("MARKET_DATA_POLL_INTERVAL", 5*time.Minute),
			Timeout:              getEnvAsDuration("MARKET_DATA_TIMEOUT", 10*time.Second),
			RequestsPerSecond:    getEnvAsFloat("MARKET_DATA_RPS", 1),
			MaxRetryElapsed:      getEnvAsDuration("MARKET_DATA_MAX_RETRY_ELAPSED", 30*time.Second),
			FailureWarnThreshold: getEnvAsInt("MARKET_DATA_FAILURE_WARN_THRESHOLD", 3),
			ChartCacheTTL:        getEnvAsDuration("MARKET_DATA_CHART_CACHE_TTL", 10*time.Minute),
		},
		Sentiment: SentimentConfig{
			BaseURL:      getEnv("FEAR_GREED_BASE_URL", "https://api.alternative.me"),
			PollInterval: getEnvAsDuration("FEAR_GREED_POLL_INTERVAL", 10*time.Minute),
		},
		Alert: AlertConfig{
			CooldownTTL:  getEnvAsDuration("ALERT_COOLDOWN_TTL", 15*time.Minute),
			DedupeTTL:    getEnvAsDuration("ALERT_DEDUPE_TTL", time.Hour),
			EnabledTypes: getEnvAsStringSlice("ALERT_ENABLED_TYPES", nil),
			RecentLimit:  getEnvAsInt("ALERT_RECENT_LIMIT", 200),
		},
		Performance: PerformanceConfig{
			Horizon: getEnvAsDuration("PERFORMANCE_HORIZON", 24*time.Hour),
		},
		API: APIConfig{
			Port:           getEnvAsInt("API_PORT", 8090),
			JWTSecret:      getEnv("API_JWT_SECRET", ""),
			RateLimitRPS:   getEnvAsFloat("API_RATE_LIMIT_RPS", 20),
			RateLimitBurst: getEnvAsInt("API_RATE_LIMIT_BURST", 40),
			AllowedOrigins: getEnvAsStringSlice("API_ALLOWED_ORIGINS", []string{"*"}),
			TrustedProxies: getEnvAsStringSlice("API_TRUSTED_PROXIES", nil),
		},
		WSGateway: WSGatewayConfig{
			ReadTimeout:    getEnvAsDuration("WS_READ_TIMEOUT", 60*time.Second),
			WriteTimeout:   getEnvAsDuration("WS_WRITE_TIMEOUT", 10*time.Second),
			PingInterval:   getEnvAsDuration("WS_PING_INTERVAL", 30*time.Second),
			MaxConnections: getEnvAsInt("WS_MAX_CONNECTIONS", 1000),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.MarketData.Provider {
	case ProviderCoinGecko, ProviderMock:
	default:
		return fmt.Errorf("MARKET_DATA_PROVIDER must be %q or %q, got %q", ProviderCoinGecko, ProviderMock, c.MarketData.Provider)
	}
	if c.MarketData.PerPage < 1 || c.MarketData.PerPage > 250 {
		return fmt.Errorf("MARKET_DATA_PER_PAGE must be between 1 and 250, got %d", c.MarketData.PerPage)
	}
	if c.MarketData.PollInterval <= 0 {
		return fmt.Errorf("MARKET_DATA_POLL_INTERVAL must be positive")
	}
	if c.MarketData.Timeout <= 0 {
		return fmt.Errorf("MARKET_DATA_TIMEOUT must be positive")
	}
	if c.MarketData.RequestsPerSecond <= 0 {
		return fmt.Errorf("MARKET_DATA_RPS must be positive")
	}
	if c.Sentiment.PollInterval <= 0 {
		return fmt.Errorf("FEAR_GREED_POLL_INTERVAL must be positive")
	}

	switch c.Database.DecisionLogStore {
	case StoreMemory:
	case StorePostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required when DECISION_LOG_STORE is %q", StorePostgres)
		}
	default:
		return fmt.Errorf("DECISION_LOG_STORE must be %q or %q, got %q", StoreMemory, StorePostgres, c.Database.DecisionLogStore)
	}

	if c.Redis.Enabled && c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required when REDIS_ENABLED is true")
	}
	if c.Alert.RecentLimit < 1 {
		return fmt.Errorf("ALERT_RECENT_LIMIT must be at least 1")
	}
	if c.Performance.Horizon <= 0 {
		return fmt.Errorf("PERFORMANCE_HORIZON must be positive")
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("API_PORT must be a valid port, got %d", c.API.Port)
	}
	if _, err := c.API.TrustedProxyNets(); err != nil {
		return fmt.Errorf("API_TRUSTED_PROXIES: %w", err)
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

// getEnvAsStringSlice splits a comma separated value, dropping empty parts
func getEnvAsStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
