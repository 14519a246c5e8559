package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/desertthunder/prune/internal/models"
	"github.com/desertthunder/prune/internal/shared"
)

// Authorizer runs the Spotify authorization code flow, implemented by services.TokenRefresher.
type Authorizer interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, userID, code string) (*models.Credential, error)
}

// AuthHandler serves the connect, callback, and disconnect routes for signed-in users.
type AuthHandler struct {
	auth   Authorizer
	states *StateStore
	creds  models.CredentialStore
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(auth Authorizer, states *StateStore, creds models.CredentialStore) *AuthHandler {
	return &AuthHandler{auth: auth, states: states, creds: creds}
}

// Connect redirects to the Spotify consent screen with a fresh state bound to the session.
// GET /auth/spotify/connect
func (h *AuthHandler) Connect(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	state, err := h.states.Issue(userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	http.Redirect(w, r, h.auth.AuthCodeURL(state), http.StatusFound)
}

// Callback validates state and code, then exchanges the code for a credential.
// GET /auth/spotify/callback
//
// The state is consumed before anything else; a bad state or missing code never reaches the
// token endpoint.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	q := r.URL.Query()

	if err := h.states.Consume(q.Get("state"), userID); err != nil {
		writeError(w, r, err)
		return
	}

	code := q.Get("code")
	if code == "" {
		writeError(w, r, fmt.Errorf("%w: %s", shared.ErrMissingCode, q.Get("error")))
		return
	}

	cred, err := h.auth.Exchange(r.Context(), userID, code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "connected", "scope": cred.Scope})
}

// Disconnect deletes the user's stored credential.
// POST /auth/spotify/disconnect
func (h *AuthHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	if err := h.creds.Delete(r.Context(), userID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}

// OAuthResult contains the result of a one-shot OAuth callback.
type OAuthResult struct {
	Credential *models.Credential
	err        error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler completes a single authorization for a user known in advance, as started from
// the command line. It serves only the first callback.
type OAuthHandler struct {
	auth        Authorizer
	userID      string
	state       string
	resultChan  chan OAuthResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewOAuthHandler creates a handler accepting one callback carrying state for userID.
func NewOAuthHandler(auth Authorizer, userID, state string) *OAuthHandler {
	return &OAuthHandler{
		auth:       auth,
		userID:     userID,
		state:      state,
		resultChan: make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{CallbackPath}
}

// ServeHTTP handles the OAuth callback request.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	q := r.URL.Query()
	if q.Get("state") != h.state {
		h.Send(OAuthResult{err: fmt.Errorf("%w: invalid state parameter", shared.ErrStateMismatch)})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := q.Get("code")
	if code == "" {
		h.Send(OAuthResult{err: fmt.Errorf("%w: %s - %s", shared.ErrMissingCode, q.Get("error"), q.Get("error_description"))})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	cred, err := h.auth.Exchange(r.Context(), h.userID, code)
	if err != nil {
		h.Send(OAuthResult{err: err})
		http.Error(w, "Token exchange failed", http.StatusBadGateway)
		return
	}

	h.Send(OAuthResult{Credential: cred})
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "✓ Spotify connected. You can close this window and return to the terminal.")
}

// Send sends the OAuth result through the channel (only once).
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving OAuth flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}
