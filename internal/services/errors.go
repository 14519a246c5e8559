package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/prune/internal/shared"
)

// APIError is a non-2xx response (other than 429) from the Spotify Web API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spotify API error: status %d: %s", e.Status, truncate(e.Body, 200))
}

func (e *APIError) Unwrap() error { return shared.ErrAPIRequest }

// RateLimitError is a 429 response. RetryAfterSeconds is -1 when Spotify did not say how long to wait.
type RateLimitError struct {
	RetryAfterSeconds int
	Message           string
}

func (e *RateLimitError) Error() string { return e.Message }

func (e *RateLimitError) Unwrap() error { return shared.ErrRateLimited }

// AuthExchangeError is a non-2xx response from the token endpoint.
type AuthExchangeError struct {
	Status int
	Body   string
}

func (e *AuthExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed: status %d: %s", e.Status, truncate(e.Body, 200))
}

func (e *AuthExchangeError) Unwrap() error { return shared.ErrAuthFailed }

func newRateLimitError(retryAfter string) *RateLimitError {
	seconds, ok := parseRetryAfter(retryAfter)
	if !ok {
		seconds = -1
	}
	return &RateLimitError{
		RetryAfterSeconds: seconds,
		Message:           "Spotify rate limit reached. Try again in " + FormatRetryAfter(retryAfter) + ".",
	}
}

// FormatRetryAfter renders a Retry-After header value (whole seconds) as "1h 2m 5s", "2m 5s" or "5s".
//
// Missing, negative, or non-numeric values render as "unknown time".
func FormatRetryAfter(header string) string {
	seconds, ok := parseRetryAfter(header)
	if !ok {
		return "unknown time"
	}

	h, m, s := seconds/3600, (seconds%3600)/60, seconds%60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

func parseRetryAfter(header string) (int, bool) {
	seconds, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || seconds < 0 {
		return 0, false
	}
	return seconds, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
