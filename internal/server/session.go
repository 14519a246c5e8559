package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/prune/internal/shared"
	jwt "github.com/golang-jwt/jwt/v5"
)

// SessionCookieName carries the session token for browser clients.
const SessionCookieName = "prune_session"

type contextKey string

var userIDContextKey = contextKey("user_id")

// Sessions issues and verifies HS256 session tokens naming the acting user.
//
// Accounts and login are handled elsewhere; a token only asserts a user id.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessions creates a Sessions signing with secret. Tokens expire after ttl.
func NewSessions(secret string, ttl time.Duration) *Sessions {
	return &Sessions{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue creates a signed session token for userID.
func (s *Sessions) Issue(userID string) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("%w: session secret not configured", shared.ErrInvalidConfig)
	}
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("%w: user id is required", shared.ErrInvalidInput)
	}

	now := s.now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks the token's signature and expiry and returns its user id.
func (s *Sessions) Verify(token string) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("%w: session secret not configured", shared.ErrInvalidConfig)
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%w: token has no subject", shared.ErrNotAuthenticated)
	}
	return sub, nil
}

// Middleware rejects requests without a valid session and stores the user id in the context.
//
// The token is read from the session cookie, then from an "Authorization: Bearer" header.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			writeError(w, r, shared.ErrNotAuthenticated)
			return
		}

		userID, err := s.Verify(token)
		if err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
	})
}

func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

// UserIDFromContext returns the user id placed by [Sessions.Middleware].
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", errors.New("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID returns a context carrying userID.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}
