// Package auth validates the optional HMAC bearer tokens that gate the REST
// API and the WebSocket.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// AnonymousUser is the request user when no JWT secret is configured
const AnonymousUser = "anonymous"

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

type contextKey string

const userIDKey contextKey = "user_id"

// Manager handles JWT authentication
type Manager struct {
	jwtSecret []byte
}

// NewManager creates a new auth manager. An empty secret disables auth.
func NewManager(jwtSecret string) *Manager {
	return &Manager{
		jwtSecret: []byte(jwtSecret),
	}
}

// Enabled reports whether tokens are required
func (m *Manager) Enabled() bool {
	return len(m.jwtSecret) > 0
}

// Authenticate returns the user of a request. The token is read from the
// Authorization header, or from the token query parameter for browsers that
// cannot set headers on a WebSocket handshake.
func (m *Manager) Authenticate(r *http.Request) (string, error) {
	if !m.Enabled() {
		return AnonymousUser, nil
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if token := r.URL.Query().Get("token"); token != "" {
			authHeader = "Bearer " + token
		}
	}

	tokenString, err := ExtractTokenFromHeader(authHeader)
	if err != nil {
		return "", err
	}
	return m.ValidateToken(tokenString)
}

// ValidateToken validates a JWT token and returns the user ID from its
// user_id claim, or sub when user_id is absent
func (m *Manager) ValidateToken(tokenString string) (string, error) {
	if !m.Enabled() {
		return AnonymousUser, nil
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.jwtSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("%w: unexpected claims", ErrInvalidToken)
	}

	if userID, ok := claims["user_id"].(string); ok && userID != "" {
		return userID, nil
	}
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub, nil
	}
	return "", fmt.Errorf("%w: user_id not found in token", ErrInvalidToken)
}

// ExtractTokenFromHeader extracts the token from an Authorization header.
// Both "Bearer <token>" and a bare token are accepted.
func ExtractTokenFromHeader(authHeader string) (string, error) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return "", ErrMissingToken
	}

	parts := strings.Fields(authHeader)
	switch len(parts) {
	case 1:
		return parts[0], nil
	case 2:
		if !strings.EqualFold(parts[0], "bearer") {
			return "", fmt.Errorf("%w: invalid authorization header format", ErrInvalidToken)
		}
		return parts[1], nil
	default:
		return "", fmt.Errorf("%w: invalid authorization header format", ErrInvalidToken)
	}
}

// WithUserID stores the authenticated user in ctx
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the authenticated user from ctx, or AnonymousUser
func UserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok && id != "" {
		return id
	}
	return AnonymousUser
}
