package data

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mohamedkhairy/crypto-signals/pkg/logger"
	"golang.org/x/time/rate"
)

// maxBodyBytes caps upstream response bodies
const maxBodyBytes = 8 << 20

// Client is a wrapper for HTTP client with rate limiting and retries
type Client struct {
	HTTPClient *http.Client
	Limiter    *rate.Limiter

	provider        string
	initialInterval time.Duration
	maxRetryElapsed time.Duration
}

// ClientOptions holds options for creating a new Client
type ClientOptions struct {
	// Provider labels metrics and logs
	Provider          string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	InitialInterval   time.Duration
	MaxRetryElapsed   time.Duration
}

// NewClient creates a new HTTP client with rate limiting
func NewClient(opts ClientOptions) *Client {
	// Set default values if not provided
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 1
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.InitialInterval == 0 {
		opts.InitialInterval = 500 * time.Millisecond
	}
	if opts.MaxRetryElapsed == 0 {
		opts.MaxRetryElapsed = 30 * time.Second
	}

	return &Client{
		HTTPClient: &http.Client{
			Timeout: opts.Timeout,
		},
		Limiter:         rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		provider:        opts.Provider,
		initialInterval: opts.InitialInterval,
		maxRetryElapsed: opts.MaxRetryElapsed,
	}
}

// Get performs a rate limited GET with retries and returns the body.
// Network errors, 429 and 5xx are retried; other statuses fail at once.
// endpoint is a short label for metrics.
func (c *Client) Get(ctx context.Context, endpoint, url string, headers map[string]string) ([]byte, error) {
	var body []byte
	operation := func() error {
		// Wait for rate limiter
		if err := c.Limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
		}
		req.Header.Set("Accept", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		start := time.Now()
		resp, err := c.HTTPClient.Do(req)
		logger.UpstreamDuration.WithLabelValues(c.provider, endpoint).Observe(time.Since(start).Seconds())
		if err != nil {
			logger.UpstreamRequests.WithLabelValues(c.provider, endpoint, "error").Inc()
			return err
		}
		defer resp.Body.Close()

		logger.UpstreamRequests.WithLabelValues(c.provider, endpoint, strconv.Itoa(resp.StatusCode)).Inc()
		if resp.StatusCode != http.StatusOK {
			statusErr := &HTTPStatusError{StatusCode: resp.StatusCode}
			if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
				return backoff.Permanent(statusErr)
			}
			return statusErr
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
		return nil
	}

	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.InitialInterval = c.initialInterval
	backoffStrategy.MaxElapsedTime = c.maxRetryElapsed

	notify := func(err error, next time.Duration) {
		logger.Warn("Upstream request failed, retrying",
			logger.String("provider", c.provider),
			logger.String("endpoint", endpoint),
			logger.Duration("retry_in", next),
			logger.ErrorField(err),
		)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(backoffStrategy, ctx), notify); err != nil {
		return nil, fmt.Errorf("%s %s: %w", c.provider, endpoint, err)
	}
	return body, nil
}

// GetJSON performs Get and decodes the body into dest
func (c *Client) GetJSON(ctx context.Context, endpoint, url string, headers map[string]string, dest interface{}) error {
	body, err := c.Get(ctx, endpoint, url, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", c.provider, endpoint, err)
	}
	return nil
}

// HTTPStatusError represents an error due to a non-200 HTTP status code
type HTTPStatusError struct {
	StatusCode int
}

// Error implements the error interface
func (e *HTTPStatusError) Error() string {
	return "non-200 status code: " + http.StatusText(e.StatusCode)
}

// Temporary reports whether the status is worth retrying
func (e *HTTPStatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}
