package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/prune/internal/models"
	"github.com/desertthunder/prune/internal/services"
	"github.com/desertthunder/prune/internal/shared"
	"github.com/desertthunder/prune/internal/tasks"
	tu "github.com/desertthunder/prune/internal/testing"
	"github.com/prometheus/client_golang/prometheus"
)

type fakeEngine struct {
	err        error
	dirtySeen  []string
	recorded   []tasks.DecisionInput
	reconsider []string
	played     []string
	applied    int
	apply      *tasks.ApplyResult
}

func (f *fakeEngine) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Profile{ID: "spotify-" + userID, DisplayName: "Ada"}, nil
}

func (f *fakeEngine) Dashboard(ctx context.Context, userID, dirty string) ([]models.Playlist, error) {
	f.dirtySeen = append(f.dirtySeen, dirty)
	if f.err != nil {
		return nil, f.err
	}
	return []models.Playlist{{ID: "p1", Name: "Road Trip", TrackCount: 3}}, nil
}

func (f *fakeEngine) Playlist(ctx context.Context, userID, playlistID string) (*models.Playlist, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Playlist{ID: playlistID}, nil
}

func (f *fakeEngine) Tracks(ctx context.Context, userID, playlistID string) ([]models.Track, error) {
	return []models.Track{{URI: "spotify:track:1"}}, f.err
}

func (f *fakeEngine) Track(ctx context.Context, userID, trackID string) (*models.Track, error) {
	return &models.Track{ID: trackID}, f.err
}

func (f *fakeEngine) Play(ctx context.Context, userID, uri string) error {
	f.played = append(f.played, uri)
	return f.err
}

func (f *fakeEngine) Review(ctx context.Context, userID, playlistID string) (*tasks.ReviewState, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &tasks.ReviewState{Playlist: models.Playlist{ID: playlistID}, TotalCount: 4, ProcessedCount: 1}, nil
}

func (f *fakeEngine) Record(ctx context.Context, userID string, in tasks.DecisionInput) (*models.Decision, bool, error) {
	if err := in.Validate(); err != nil {
		return nil, false, err
	}
	f.recorded = append(f.recorded, in)
	return &models.Decision{PlaylistID: in.PlaylistID, TrackURI: in.TrackURI, Kept: *in.Kept}, len(f.recorded) == 1, nil
}

func (f *fakeEngine) Reconsider(ctx context.Context, userID, playlistID, trackURI string) error {
	f.reconsider = append(f.reconsider, trackURI)
	return f.err
}

func (f *fakeEngine) Decisions(ctx context.Context, userID, playlistID string) (*tasks.Decisions, error) {
	return &tasks.Decisions{PlaylistID: playlistID}, f.err
}

func (f *fakeEngine) ResetProgress(ctx context.Context, userID, playlistID string) (int64, error) {
	return 2, f.err
}

func (f *fakeEngine) Apply(ctx context.Context, userID, playlistID string, progress chan<- tasks.ProgressUpdate) (*tasks.ApplyResult, error) {
	f.applied++
	if f.err != nil {
		return nil, f.err
	}
	if f.apply != nil {
		return f.apply, nil
	}
	return &tasks.ApplyResult{PlaylistID: playlistID, RemovedCount: 2, Dirty: playlistID, Message: "Successfully removed 2 songs from your Spotify playlist!"}, nil
}

func (f *fakeEngine) Geo(ctx context.Context, userID, playlistID string) (*models.GeoResult, error) {
	return &models.GeoResult{PlaylistID: playlistID}, f.err
}

type fakeCharts struct {
	err       error
	countries []string
}

func (f *fakeCharts) Countries() []string { return f.countries }

func (f *fakeCharts) TopArtists(ctx context.Context, userID, country string) (*models.ChartResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.ChartResult{Country: strings.ToUpper(country), HasChart: true, Artists: []models.ArtistCount{{Name: "SZA", Count: 3}}}, nil
}

type fakeAuthorizer struct {
	exchanges []string
	err       error
}

func (f *fakeAuthorizer) AuthCodeURL(state string) string {
	return "https://accounts.spotify.com/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeAuthorizer) Exchange(ctx context.Context, userID, code string) (*models.Credential, error) {
	f.exchanges = append(f.exchanges, userID+":"+code)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Credential{UserID: userID, AccessToken: "a", Scope: "playlist-read-private"}, nil
}

type testServer struct {
	handler http.Handler
	engine  *fakeEngine
	charts  *fakeCharts
	auth    *fakeAuthorizer
	creds   *tu.CredentialStore
	states  *StateStore
	token   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	sessions := NewSessions("test-secret", time.Hour)
	token, err := sessions.Issue("u1")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	ts := &testServer{
		engine: &fakeEngine{},
		charts: &fakeCharts{countries: []string{"US", "GB", "GLOBAL"}},
		auth:   &fakeAuthorizer{},
		creds:  tu.NewCredentialStore(tu.Credential("u1")),
		states: NewStateStore(time.Minute),
		token:  token,
	}
	ts.handler = NewRouter(Deps{
		Engine:      ts.engine,
		Charts:      ts.charts,
		Authorizer:  ts.auth,
		Credentials: ts.creds,
		Sessions:    sessions,
		States:      ts.states,
		Gatherer:    prometheus.NewRegistry(),
		Logger:      shared.NewLogger(io.Discard),
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Authorization", "Bearer "+ts.token)
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
	return v
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestRouterPublicRoutes(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/healthz", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			rec := httptest.NewRecorder()
			ts.handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("expected 200, got %d", rec.Code)
			}
		})
	}

	t.Run("api requires a session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
		rec := httptest.NewRecorder()
		ts.handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if body := decodeBody[ErrorResponseBody](t, rec); body.Error != "unauthenticated" {
			t.Errorf("unexpected body %+v", body)
		}
	})
}

func TestRouterAPI(t *testing.T) {
	t.Run("read routes", func(t *testing.T) {
		ts := newTestServer(t)
		for _, path := range []string{
			"/api/profile",
			"/api/playlists",
			"/api/playlists/p1",
			"/api/playlists/p1/tracks",
			"/api/playlists/p1/review",
			"/api/playlists/p1/decisions",
			"/api/playlists/p1/geo",
			"/api/tracks/t1",
			"/api/charts/countries",
			"/api/charts?country=us",
		} {
			if rec := ts.do(t, http.MethodGet, path, ""); rec.Code != http.StatusOK {
				t.Errorf("%s: expected 200, got %d: %s", path, rec.Code, rec.Body.String())
			}
		}
	})

	t.Run("chart requires a country", func(t *testing.T) {
		ts := newTestServer(t)
		if rec := ts.do(t, http.MethodGet, "/api/charts", ""); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("chart countries", func(t *testing.T) {
		ts := newTestServer(t)
		body := decodeBody[map[string][]string](t, ts.do(t, http.MethodGet, "/api/charts/countries", ""))
		if len(body["countries"]) != 3 {
			t.Errorf("unexpected countries %v", body)
		}
	})

	t.Run("record decision", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.do(t, http.MethodPost, "/api/decisions", `{"playlist_id":"p1","track_uri":"spotify:track:1","name":"One","artists":["A"],"kept":false}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		body := decodeBody[map[string]any](t, rec)
		if body["status"] != "saved" || body["created"] != true {
			t.Errorf("unexpected body %v", body)
		}
		if len(ts.engine.recorded) != 1 || *ts.engine.recorded[0].Kept {
			t.Errorf("unexpected recorded %+v", ts.engine.recorded)
		}
	})

	t.Run("record decision with missing fields", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.do(t, http.MethodPost, "/api/decisions", `{"playlist_id":"p1"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if body := decodeBody[ErrorResponseBody](t, rec); body.Error != "invalid_input" {
			t.Errorf("unexpected body %+v", body)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		ts := newTestServer(t)
		if rec := ts.do(t, http.MethodPost, "/api/decisions", `{`); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("reconsider", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.do(t, http.MethodPost, "/api/decisions/reconsider", `{"playlist_id":"p1","track_uri":"spotify:track:1"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if len(ts.engine.reconsider) != 1 {
			t.Error("expected reconsider call")
		}
	})

	t.Run("reconsider missing record", func(t *testing.T) {
		ts := newTestServer(t)
		ts.engine.err = fmt.Errorf("%w: decision", shared.ErrNotFound)
		rec := ts.do(t, http.MethodPost, "/api/decisions/reconsider", `{"playlist_id":"p1","track_uri":"x"}`)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("play", func(t *testing.T) {
		ts := newTestServer(t)
		if rec := ts.do(t, http.MethodPost, "/api/player/play", `{"uri":"spotify:track:1"}`); rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if len(ts.engine.played) != 1 || ts.engine.played[0] != "spotify:track:1" {
			t.Errorf("unexpected plays %v", ts.engine.played)
		}
	})

	t.Run("reset", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.do(t, http.MethodPost, "/api/playlists/p1/reset", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if body := decodeBody[map[string]any](t, rec); body["cleared"] != float64(2) {
			t.Errorf("unexpected body %v", body)
		}
	})
}

func TestRouterApplyAndDashboard(t *testing.T) {
	t.Run("apply sets the dirty marker and dashboard consumes it", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(t, http.MethodPost, "/api/playlists/p1/apply", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := decodeBody[map[string]any](t, rec)
		if body["count"] != float64(2) || body["status"] != "success" {
			t.Errorf("unexpected body %v", body)
		}

		dirty := findCookie(rec, DirtyCookieName)
		if dirty == nil || dirty.Value != "p1" || dirty.MaxAge <= 0 {
			t.Fatalf("expected dirty cookie, got %+v", dirty)
		}

		rec = ts.do(t, http.MethodGet, "/api/playlists", "", dirty)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if ts.engine.dirtySeen[0] != "p1" {
			t.Errorf("expected dashboard to see p1, got %v", ts.engine.dirtySeen)
		}
		cleared := findCookie(rec, DirtyCookieName)
		if cleared == nil || cleared.MaxAge >= 0 {
			t.Errorf("expected dirty cookie to be cleared, got %+v", cleared)
		}
	})

	t.Run("apply without removals leaves no marker", func(t *testing.T) {
		ts := newTestServer(t)
		ts.engine.apply = &tasks.ApplyResult{PlaylistID: "p1", Message: "No songs to remove."}

		rec := ts.do(t, http.MethodPost, "/api/playlists/p1/apply", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if findCookie(rec, DirtyCookieName) != nil {
			t.Error("expected no dirty cookie")
		}
	})

	t.Run("dashboard without marker", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.do(t, http.MethodGet, "/api/playlists", "")
		if ts.engine.dirtySeen[0] != "" || findCookie(rec, DirtyCookieName) != nil {
			t.Error("expected no dirty handling")
		}
	})
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		status     int
		code       string
		retryAfter string
	}{
		{"no credential", fmt.Errorf("%w: u1", shared.ErrNoCredential), http.StatusConflict, "spotify_not_connected", ""},
		{"auth exchange", &services.AuthExchangeError{Status: 400, Body: "invalid_grant"}, http.StatusUnauthorized, "spotify_reauthorize", ""},
		{"missing refresh token", shared.ErrMissingRefreshToken, http.StatusUnauthorized, "spotify_reauthorize", ""},
		{"rate limited", &services.RateLimitError{RetryAfterSeconds: 125, Message: "Spotify rate limit reached. Try again in 2m 5s."}, http.StatusTooManyRequests, "rate_limited", "125"},
		{"rate limited unknown wait", &services.RateLimitError{RetryAfterSeconds: -1, Message: "x"}, http.StatusTooManyRequests, "rate_limited", ""},
		{"remote error", &services.APIError{Status: 503, Body: "down"}, http.StatusBadGateway, "spotify_error", ""},
		{"not found", shared.ErrNotFound, http.StatusNotFound, "not_found", ""},
		{"invalid input", shared.ErrInvalidInput, http.StatusBadRequest, "invalid_input", ""},
		{"other", errors.New("boom"), http.StatusInternalServerError, "internal_error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.engine.err = tt.err

			rec := ts.do(t, http.MethodGet, "/api/profile", "")
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			body := decodeBody[ErrorResponseBody](t, rec)
			if body.Error != tt.code {
				t.Errorf("expected code %q, got %q", tt.code, body.Error)
			}
			if got := rec.Header().Get("Retry-After"); got != tt.retryAfter {
				t.Errorf("expected Retry-After %q, got %q", tt.retryAfter, got)
			}
		})
	}

	t.Run("rate limit message is passed through", func(t *testing.T) {
		_, body, _ := errorResponse(&services.RateLimitError{RetryAfterSeconds: 45, Message: "Spotify rate limit reached. Try again in 45s."})
		if body.Message != "Spotify rate limit reached. Try again in 45s." {
			t.Errorf("unexpected message %q", body.Message)
		}
	})

	t.Run("remote error carries upstream details", func(t *testing.T) {
		_, body, _ := errorResponse(&services.APIError{Status: 403, Body: "forbidden"})
		if body.UpstreamStatus != 403 || body.UpstreamBody != "forbidden" {
			t.Errorf("unexpected body %+v", body)
		}
	})
}

func TestAuthRoutes(t *testing.T) {
	connect := func(t *testing.T, ts *testServer) string {
		t.Helper()
		rec := ts.do(t, http.MethodGet, ConnectPath, "")
		if rec.Code != http.StatusFound {
			t.Fatalf("expected 302, got %d", rec.Code)
		}
		loc, err := url.Parse(rec.Header().Get("Location"))
		if err != nil {
			t.Fatalf("bad location: %v", err)
		}
		state := loc.Query().Get("state")
		if state == "" {
			t.Fatal("expected state in redirect")
		}
		return state
	}

	t.Run("connect then callback exchanges the code", func(t *testing.T) {
		ts := newTestServer(t)
		state := connect(t, ts)

		rec := ts.do(t, http.MethodGet, CallbackPath+"?code=abc&state="+url.QueryEscape(state), "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(ts.auth.exchanges) != 1 || ts.auth.exchanges[0] != "u1:abc" {
			t.Errorf("unexpected exchanges %v", ts.auth.exchanges)
		}
	})

	t.Run("rejected callbacks never exchange", func(t *testing.T) {
		ts := newTestServer(t)
		goodState := connect(t, ts)

		for name, query := range map[string]string{
			"mismatched state": "?code=abc&state=forged",
			"missing state":    "?code=abc",
		} {
			t.Run(name, func(t *testing.T) {
				rec := ts.do(t, http.MethodGet, CallbackPath+query, "")
				if rec.Code != http.StatusBadRequest {
					t.Errorf("expected 400, got %d", rec.Code)
				}
			})
		}

		rec := ts.do(t, http.MethodGet, CallbackPath+"?error=access_denied&state="+url.QueryEscape(goodState), "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("missing code: expected 400, got %d", rec.Code)
		}
		if len(ts.auth.exchanges) != 0 {
			t.Errorf("expected no exchanges, got %v", ts.auth.exchanges)
		}
	})

	t.Run("state from another session is rejected", func(t *testing.T) {
		ts := newTestServer(t)
		state, _ := ts.states.Issue("u2")

		rec := ts.do(t, http.MethodGet, CallbackPath+"?code=abc&state="+url.QueryEscape(state), "")
		if rec.Code != http.StatusBadRequest || len(ts.auth.exchanges) != 0 {
			t.Errorf("expected rejection without exchange, got %d and %v", rec.Code, ts.auth.exchanges)
		}
	})

	t.Run("failed exchange", func(t *testing.T) {
		ts := newTestServer(t)
		ts.auth.err = &services.AuthExchangeError{Status: 400, Body: "invalid_grant"}
		state := connect(t, ts)

		rec := ts.do(t, http.MethodGet, CallbackPath+"?code=abc&state="+url.QueryEscape(state), "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("disconnect deletes the credential", func(t *testing.T) {
		ts := newTestServer(t)
		if rec := ts.do(t, http.MethodPost, DisconnectPath, ""); rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if _, err := ts.creds.Get(context.Background(), "u1"); !errors.Is(err, shared.ErrNoCredential) {
			t.Errorf("expected credential to be gone, got %v", err)
		}
	})
}

func TestOAuthHandler(t *testing.T) {
	t.Run("successful callback", func(t *testing.T) {
		auth := &fakeAuthorizer{}
		h := NewOAuthHandler(auth, "u1", "state-123")

		req := httptest.NewRequest(http.MethodGet, CallbackPath+"?code=abc&state=state-123", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := <-h.Result()
		if result.Error() != nil || result.Credential.UserID != "u1" {
			t.Errorf("unexpected result %+v", result)
		}
	})

	t.Run("invalid state", func(t *testing.T) {
		auth := &fakeAuthorizer{}
		h := NewOAuthHandler(auth, "u1", "state-123")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, CallbackPath+"?code=abc&state=nope", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if result := <-h.Result(); !errors.Is(result.Error(), shared.ErrStateMismatch) {
			t.Errorf("expected ErrStateMismatch, got %v", result.Error())
		}
		if len(auth.exchanges) != 0 {
			t.Error("expected no exchange")
		}
	})

	t.Run("missing code", func(t *testing.T) {
		h := NewOAuthHandler(&fakeAuthorizer{}, "u1", "s")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, CallbackPath+"?state=s&error=access_denied", nil))

		if result := <-h.Result(); !errors.Is(result.Error(), shared.ErrMissingCode) {
			t.Errorf("expected ErrMissingCode, got %v", result.Error())
		}
	})

	t.Run("only the first callback is served", func(t *testing.T) {
		h := NewOAuthHandler(&fakeAuthorizer{}, "u1", "s")

		first := httptest.NewRecorder()
		h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, CallbackPath+"?code=a&state=s", nil))
		second := httptest.NewRecorder()
		h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, CallbackPath+"?code=a&state=s", nil))

		if second.Code != http.StatusBadRequest {
			t.Errorf("expected 400 on replay, got %d", second.Code)
		}
	})

	t.Run("routes", func(t *testing.T) {
		routes := NewOAuthHandler(nil, "u1", "s").Routes()
		if len(routes) != 1 || routes[0] != CallbackPath {
			t.Errorf("unexpected routes %v", routes)
		}
	})
}
