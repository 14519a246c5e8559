package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/desertthunder/prune/internal/services"
	"github.com/desertthunder/prune/internal/shared"
)

// ErrorResponseBody is the JSON shape of every error response.
type ErrorResponseBody struct {
	Error          string `json:"error"`
	Message        string `json:"message"`
	Action         string `json:"action,omitempty"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
	UpstreamBody   string `json:"upstream_body,omitempty"`
}

// errorResponse maps err onto an HTTP status and body. retryAfter is set for rate limits.
func errorResponse(err error) (status int, body ErrorResponseBody, retryAfter string) {
	var (
		rateErr *services.RateLimitError
		apiErr  *services.APIError
	)

	switch {
	case errors.Is(err, shared.ErrNoCredential):
		return http.StatusConflict, ErrorResponseBody{
			Error:   "spotify_not_connected",
			Message: "Connect your Spotify account to continue.",
			Action:  "reconnect",
		}, ""
	case errors.Is(err, shared.ErrAuthFailed), errors.Is(err, shared.ErrMissingRefreshToken):
		return http.StatusUnauthorized, ErrorResponseBody{
			Error:   "spotify_reauthorize",
			Message: "Spotify authorization expired. Please reconnect your account.",
			Action:  "reconnect",
		}, ""
	case errors.As(err, &rateErr):
		if rateErr.RetryAfterSeconds >= 0 {
			retryAfter = strconv.Itoa(rateErr.RetryAfterSeconds)
		}
		return http.StatusTooManyRequests, ErrorResponseBody{
			Error:   "rate_limited",
			Message: rateErr.Message,
			Action:  "retry_later",
		}, retryAfter
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, ErrorResponseBody{
			Error:          "spotify_error",
			Message:        fmt.Sprintf("Spotify returned status %d.", apiErr.Status),
			UpstreamStatus: apiErr.Status,
			UpstreamBody:   apiErr.Body,
		}, ""
	case errors.Is(err, shared.ErrStateMismatch), errors.Is(err, shared.ErrMissingCode):
		return http.StatusBadRequest, ErrorResponseBody{
			Error:   "invalid_callback",
			Message: err.Error(),
			Action:  "reconnect",
		}, ""
	case errors.Is(err, shared.ErrNotAuthenticated):
		return http.StatusUnauthorized, ErrorResponseBody{
			Error:   "unauthenticated",
			Message: "A valid session is required.",
		}, ""
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound, ErrorResponseBody{Error: "not_found", Message: err.Error()}, ""
	case errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest, ErrorResponseBody{Error: "invalid_input", Message: err.Error()}, ""
	default:
		return http.StatusInternalServerError, ErrorResponseBody{
			Error:   "internal_error",
			Message: "An internal error occurred.",
		}, ""
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body, retryAfter := errorResponse(err)
	if status >= http.StatusInternalServerError {
		loggerFrom(r).Error("request failed", "path", r.URL.Path, "error", err)
	}
	if retryAfter != "" {
		w.Header().Set("Retry-After", retryAfter)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", shared.ErrInvalidInput, err)
	}
	return nil
}
