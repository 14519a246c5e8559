package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/prune/internal/metrics"
	"github.com/desertthunder/prune/internal/models"
	"github.com/desertthunder/prune/internal/shared"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

// DefaultScopes are requested when the config does not list any.
var DefaultScopes = []string{
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistReadCollaborative,
	spotifyauth.ScopePlaylistModifyPrivate,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopeUserReadEmail,
	spotifyauth.ScopeUserModifyPlaybackState,
}

// NewOAuthConfig builds the [oauth2.Config] for Spotify's authorization code flow.
//
// Client credentials are always sent in the Authorization header so a failed exchange is never
// retried with a different auth style.
func NewOAuthConfig(creds shared.SpotifyConfig, api shared.APIConfig) *oauth2.Config {
	scopes := creds.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	authURL, tokenURL := api.AuthURL, api.TokenURL
	if authURL == "" {
		authURL = spotifyauth.AuthURL
	}
	if tokenURL == "" {
		tokenURL = spotifyauth.TokenURL
	}

	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  creds.RedirectURI,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   authURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

// TokenRefresher exchanges authorization codes and refresh tokens at Spotify's token endpoint
// and persists the resulting credentials.
type TokenRefresher struct {
	config     *oauth2.Config
	store      models.CredentialStore
	httpClient *http.Client
	metrics    metrics.Recorder
	logger     *log.Logger
}

// RefresherOpts contains optional dependencies for a [TokenRefresher].
type RefresherOpts struct {
	HTTPClient *http.Client
	Metrics    metrics.Recorder
	Logger     *log.Logger
}

// NewTokenRefresher creates a TokenRefresher that writes credentials to store.
func NewTokenRefresher(config *oauth2.Config, store models.CredentialStore, opts RefresherOpts) *TokenRefresher {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Noop{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &TokenRefresher{
		config:     config,
		store:      store,
		httpClient: opts.HTTPClient,
		metrics:    opts.Metrics,
		logger:     shared.WithLogger(opts.Logger, "component", "token-refresher"),
	}
}

// AuthCodeURL returns the Spotify consent URL for state. The consent dialog is always shown so
// users can switch accounts.
func (r *TokenRefresher) AuthCodeURL(state string) string {
	return r.config.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "true"))
}

// Refresh trades cred's refresh token for a new access token and persists the result.
//
// The refresh token is kept when the endpoint does not rotate it. A response without a lifetime
// leaves ExpiresAt nil, so the next use refreshes again.
func (r *TokenRefresher) Refresh(ctx context.Context, cred *models.Credential) (*models.Credential, error) {
	if cred.RefreshToken == "" {
		return nil, fmt.Errorf("%w for user %s", shared.ErrMissingRefreshToken, cred.UserID)
	}

	src := r.config.TokenSource(r.withHTTPClient(ctx), &oauth2.Token{RefreshToken: cred.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		r.metrics.RecordRefresh(false)
		r.logger.Warn("token refresh failed", "user", cred.UserID, "error", err)
		return nil, exchangeError(err)
	}

	updated := *cred
	updated.AccessToken = tok.AccessToken
	updated.ExpiresAt = expiry(tok)
	if tok.RefreshToken != "" {
		updated.RefreshToken = tok.RefreshToken
	}
	if scope := scopeOf(tok); scope != "" {
		updated.Scope = scope
	}

	if err := r.store.Save(ctx, &updated); err != nil {
		r.metrics.RecordRefresh(false)
		return nil, fmt.Errorf("failed to persist refreshed credential: %w", err)
	}

	r.metrics.RecordRefresh(true)
	r.logger.Debug("token refreshed", "user", cred.UserID)
	return &updated, nil
}

// Exchange trades an authorization code for tokens and stores them as userID's credential,
// replacing any previous one.
func (r *TokenRefresher) Exchange(ctx context.Context, userID, code string) (*models.Credential, error) {
	if code == "" {
		return nil, shared.ErrMissingCode
	}

	tok, err := r.config.Exchange(r.withHTTPClient(ctx), code)
	if err != nil {
		r.logger.Warn("code exchange failed", "user", userID, "error", err)
		return nil, exchangeError(err)
	}

	cred := &models.Credential{
		UserID:       userID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Scope:        scopeOf(tok),
		ExpiresAt:    expiry(tok),
	}
	if err := r.store.Save(ctx, cred); err != nil {
		return nil, fmt.Errorf("failed to persist credential: %w", err)
	}

	r.logger.Info("spotify connected", "user", userID)
	return cred, nil
}

func (r *TokenRefresher) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
}

func exchangeError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		return &AuthExchangeError{Status: status, Body: string(re.Body)}
	}
	return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
}

func expiry(tok *oauth2.Token) *time.Time {
	if tok.Expiry.IsZero() {
		return nil
	}
	t := tok.Expiry.UTC()
	return &t
}

func scopeOf(tok *oauth2.Token) string {
	scope, _ := tok.Extra("scope").(string)
	return scope
}
