package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/prune/internal/metrics"
	"github.com/desertthunder/prune/internal/models"
	"github.com/desertthunder/prune/internal/shared"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.spotify.com/v1"

// Refresher renews an expired credential.
type Refresher interface {
	Refresh(ctx context.Context, cred *models.Credential) (*models.Credential, error)
}

// Client issues authorized Spotify Web API requests for a local user.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      models.CredentialStore
	refresher  Refresher
	limiter    *rate.Limiter
	now        func() time.Time
	metrics    metrics.Recorder
	logger     *log.Logger
}

// ClientOpts contains optional configuration for a [Client].
type ClientOpts struct {
	BaseURL    string
	HTTPClient *http.Client
	Limiter    *rate.Limiter    // paces outbound calls; unlimited when nil
	Clock      func() time.Time // decides credential expiry; time.Now when nil
	Metrics    metrics.Recorder
	Logger     *log.Logger
}

// NewClient creates a Client that reads credentials from store and renews them with refresher.
func NewClient(store models.CredentialStore, refresher Refresher, opts ClientOpts) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Limiter == nil {
		opts.Limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Noop{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Client{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		store:      store,
		refresher:  refresher,
		limiter:    opts.Limiter,
		now:        opts.Clock,
		metrics:    opts.Metrics,
		logger:     shared.WithLogger(opts.Logger, "component", "spotify-client"),
	}
}

// NewLimiter converts requests-per-second and burst settings into a [rate.Limiter].
// A non-positive rate disables pacing.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// Response is a successful (2xx) API response with its body fully read.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the response body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Do performs one authorized request for userID.
//
// endpoint is either a path relative to the API base URL or an absolute URL such as a paging
// cursor. body, when non-nil, is sent as JSON. The request is attempted exactly once.
func (c *Client) Do(ctx context.Context, userID, method, endpoint string, body any) (*Response, error) {
	cred, err := c.credential(ctx, userID)
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("request pacing: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	c.metrics.RecordRequest(method, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.metrics.RecordRateLimited()
		rl := newRateLimitError(resp.Header.Get("Retry-After"))
		c.logger.Warn("rate limited", "user", userID, "endpoint", req.URL.Path, "retry_after", rl.RetryAfterSeconds)
		return nil, rl
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		c.logger.Debug("api error", "user", userID, "endpoint", req.URL.Path, "status", resp.StatusCode)
		return nil, &APIError{Status: resp.StatusCode, Body: string(data)}
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// GetJSON performs an authorized GET and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, userID, endpoint string, out any) error {
	resp, err := c.Do(ctx, userID, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// credential loads the user's credential, refreshing it first when expired.
func (c *Client) credential(ctx context.Context, userID string) (*models.Credential, error) {
	cred, err := c.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !cred.Expired(c.now()) {
		return cred, nil
	}

	c.logger.Debug("access token expired, refreshing", "user", userID)
	return c.refresher.Refresh(ctx, cred)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(endpoint), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) resolve(endpoint string) string {
	if strings.HasPrefix(endpoint, "https://") || strings.HasPrefix(endpoint, "http://") {
		return endpoint
	}
	return c.baseURL + "/" + strings.TrimPrefix(endpoint, "/")
}
