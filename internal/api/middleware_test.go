package api

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mohamedkhairy/crypto-signals/internal/auth"
	"github.com/mohamedkhairy/crypto-signals/pkg/logger"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCORSMiddleware(t *testing.T) {
	handler := CORSMiddleware([]string{"*"})(okHandler)

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS header to be set")
	}
}

func TestCORSMiddleware_AllowedOrigins(t *testing.T) {
	handler := CORSMiddleware([]string{"https://dash.example.com"})(okHandler)

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://dash.example.com" {
		t.Errorf("Expected allowed origin to be echoed, got %q", got)
	}

	req = httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Expected no CORS header for unknown origin, got %q", got)
	}
}

func TestCORSMiddleware_OPTIONS(t *testing.T) {
	called := false
	handler := CORSMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest("OPTIONS", "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d for OPTIONS, got %d", http.StatusOK, w.Code)
	}
	if called {
		t.Error("Preflight should not reach the handler")
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if seen != "req-123" || w.Header().Get("X-Request-ID") != "req-123" {
		t.Errorf("Expected propagated request id, got %q", seen)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
	if seen == "" || seen == "req-123" {
		t.Errorf("Expected a generated request id, got %q", seen)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	handler := LoggingMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTeapot {
		t.Errorf("Expected status %d, got %d", http.StatusTeapot, w.Code)
	}
}

func TestErrorHandlingMiddleware(t *testing.T) {
	for _, value := range []interface{}{"test panic", 42} {
		handler := ErrorHandlingMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic(value)
		}))

		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := RateLimitMiddleware(1, 2, nil)(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = "127.0.0.1:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("Expected the burst to pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("Expected status %d after the burst, got %d", http.StatusTooManyRequests, codes[2])
	}

	// another client has its own bucket
	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected a separate bucket per client, got %d", w.Code)
	}
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	handler := RateLimitMiddleware(0, 0, nil)(okHandler)
	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected no limiting, got %d", w.Code)
		}
	}
}

func TestAuthMiddleware(t *testing.T) {
	const secret = "s3cret"
	var user string
	handler := AuthMiddleware(auth.NewManager(secret))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user = auth.UserID(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/markets", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d without a token, got %d", http.StatusUnauthorized, w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected health to skip auth, got %d", w.Code)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "trader-7",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	req := httptest.NewRequest("GET", "/api/v1/markets", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK || user != "trader-7" {
		t.Errorf("Expected trader-7 to pass, got %d %q", w.Code, user)
	}
}

func TestAuthMiddleware_Anonymous(t *testing.T) {
	var user string
	handler := AuthMiddleware(auth.NewManager(""))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user = auth.UserID(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/v1/markets", nil))
	if user != auth.AnonymousUser {
		t.Errorf("Expected %q, got %q", auth.AnonymousUser, user)
	}
}

func TestGetClientIP(t *testing.T) {
	_, lan, _ := net.ParseCIDR("10.0.0.0/8")
	proxies := []*net.IPNet{lan}

	tests := []struct {
		name     string
		remote   string
		xff      string
		realIP   string
		proxies  []*net.IPNet
		expected string
	}{
		{"host only", "192.0.2.1:4000", "", "", nil, "192.0.2.1"},
		{"untrusted peer ignores forwarded for", "192.0.2.1:4000", "203.0.113.5", "", nil, "192.0.2.1"},
		{"untrusted peer ignores real ip", "192.0.2.1:4000", "", "203.0.113.5", proxies, "192.0.2.1"},
		{"trusted proxy", "10.0.0.1:4000", "203.0.113.5", "", proxies, "203.0.113.5"},
		{"spoofed left hop", "10.0.0.1:4000", "198.51.100.9, 203.0.113.5", "", proxies, "203.0.113.5"},
		{"trusted chain", "10.0.0.1:4000", "203.0.113.5, 10.0.0.7", "", proxies, "203.0.113.5"},
		{"all hops trusted", "10.0.0.1:4000", "10.0.0.9, 10.0.0.7", "", proxies, "10.0.0.9"},
		{"trusted real ip", "10.0.0.1:4000", "", "203.0.113.5", proxies, "203.0.113.5"},
		{"trusted without headers", "10.0.0.1:4000", "", "", proxies, "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := getClientIP(req, tt.proxies); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestRateLimitMiddleware_SpoofedForwardedFor(t *testing.T) {
	handler := RateLimitMiddleware(1, 1, nil)(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = "192.0.2.1:4000"
		req.Header.Set("X-Forwarded-For", "203.0.113."+strconv.Itoa(i))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK {
		t.Errorf("Expected the first request to pass, got %d", codes[0])
	}
	if codes[1] != http.StatusTooManyRequests || codes[2] != http.StatusTooManyRequests {
		t.Errorf("Expected rotating X-Forwarded-For to share the peer bucket, got %v", codes)
	}
}

func TestRateLimitMiddleware_TrustedProxy(t *testing.T) {
	_, lan, _ := net.ParseCIDR("10.0.0.0/8")
	handler := RateLimitMiddleware(1, 1, []*net.IPNet{lan})(okHandler)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = "10.0.0.1:4000"
		req.Header.Set("X-Forwarded-For", "203.0.113."+strconv.Itoa(i))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("Expected each forwarded client to get its own bucket, got %d for request %d", w.Code, i)
		}
	}
}
