package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed          = fmt.Errorf("authentication failed")
	ErrNotAuthenticated    = fmt.Errorf("not authenticated")
	ErrNoCredential        = fmt.Errorf("no spotify credential for user")
	ErrMissingRefreshToken = fmt.Errorf("no refresh token available")
	ErrStateMismatch       = fmt.Errorf("oauth state mismatch")
	ErrMissingCode         = fmt.Errorf("missing authorization code")

	// API and service errors
	ErrAPIRequest  = fmt.Errorf("API request failed")
	ErrRateLimited = fmt.Errorf("rate limited")
	ErrCursorLoop  = fmt.Errorf("pagination cursor repeated")
	ErrNotFound    = fmt.Errorf("not found")
	ErrTimeout     = fmt.Errorf("operation timed out")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
