package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/prune/internal/models"
	"github.com/desertthunder/prune/internal/shared"
	"github.com/desertthunder/prune/internal/tasks"
	"github.com/go-chi/chi/v5"
)

// DirtyCookieName carries the playlist modified by the last apply to the next dashboard read.
const DirtyCookieName = "prune_dirty"

const dirtyCookieTTL = 5 * time.Minute

// Engine is the playlist workflow, implemented by tasks.PlaylistEngine.
type Engine interface {
	Profile(ctx context.Context, userID string) (*models.Profile, error)
	Dashboard(ctx context.Context, userID, dirty string) ([]models.Playlist, error)
	Playlist(ctx context.Context, userID, playlistID string) (*models.Playlist, error)
	Tracks(ctx context.Context, userID, playlistID string) ([]models.Track, error)
	Track(ctx context.Context, userID, trackID string) (*models.Track, error)
	Play(ctx context.Context, userID, uri string) error
	Review(ctx context.Context, userID, playlistID string) (*tasks.ReviewState, error)
	Record(ctx context.Context, userID string, in tasks.DecisionInput) (*models.Decision, bool, error)
	Reconsider(ctx context.Context, userID, playlistID, trackURI string) error
	Decisions(ctx context.Context, userID, playlistID string) (*tasks.Decisions, error)
	ResetProgress(ctx context.Context, userID, playlistID string) (int64, error)
	Apply(ctx context.Context, userID, playlistID string, progress chan<- tasks.ProgressUpdate) (*tasks.ApplyResult, error)
	Geo(ctx context.Context, userID, playlistID string) (*models.GeoResult, error)
}

// Charts is chart discovery, implemented by charts.Discovery.
type Charts interface {
	Countries() []string
	TopArtists(ctx context.Context, userID, country string) (*models.ChartResult, error)
}

// APIHandler serves the JSON API for a signed-in user.
type APIHandler struct {
	engine       Engine
	charts       Charts
	cookieSecure bool
}

// NewAPIHandler creates an APIHandler.
func NewAPIHandler(engine Engine, charts Charts, cookieSecure bool) *APIHandler {
	return &APIHandler{engine: engine, charts: charts, cookieSecure: cookieSecure}
}

func user(r *http.Request) string {
	userID, _ := UserIDFromContext(r.Context())
	return userID
}

// Profile returns the connected Spotify account.
// GET /api/profile
func (h *APIHandler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.engine.Profile(r.Context(), user(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// Dashboard lists the user's playlists, consuming the dirty marker left by an apply.
// GET /api/playlists
func (h *APIHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dirty := ""
	if c, err := r.Cookie(DirtyCookieName); err == nil {
		dirty = c.Value
	}

	playlists, err := h.engine.Dashboard(r.Context(), user(r), dirty)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if dirty != "" {
		h.setDirty(w, "", -1)
	}
	writeJSON(w, http.StatusOK, map[string]any{"playlists": playlists})
}

// Playlist returns one playlist.
// GET /api/playlists/{id}
func (h *APIHandler) Playlist(w http.ResponseWriter, r *http.Request) {
	playlist, err := h.engine.Playlist(r.Context(), user(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

// Tracks returns every track of a playlist.
// GET /api/playlists/{id}/tracks
func (h *APIHandler) Tracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.engine.Tracks(r.Context(), user(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tracks": tracks})
}

// Review returns the review queue of a playlist.
// GET /api/playlists/{id}/review
func (h *APIHandler) Review(w http.ResponseWriter, r *http.Request) {
	state, err := h.engine.Review(r.Context(), user(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Reset forgets kept verdicts so the tracks are reviewed again.
// POST /api/playlists/{id}/reset
func (h *APIHandler) Reset(w http.ResponseWriter, r *http.Request) {
	n, err := h.engine.ResetProgress(r.Context(), user(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "reset", "cleared": n})
}

// Decisions lists kept and removed records of a playlist.
// GET /api/playlists/{id}/decisions
func (h *APIHandler) Decisions(w http.ResponseWriter, r *http.Request) {
	decisions, err := h.engine.Decisions(r.Context(), user(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, decisions)
}

// Apply pushes the recorded removals to Spotify.
// POST /api/playlists/{id}/apply
func (h *APIHandler) Apply(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.Apply(r.Context(), user(r), chi.URLParam(r, "id"), nil)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if result.Dirty != "" {
		h.setDirty(w, result.Dirty, int(dirtyCookieTTL.Seconds()))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": result.Message,
		"count":   result.RemovedCount,
	})
}

// Geo reports where a playlist's tracks are playable.
// GET /api/playlists/{id}/geo
func (h *APIHandler) Geo(w http.ResponseWriter, r *http.Request) {
	geo, err := h.engine.Geo(r.Context(), user(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, geo)
}

// Track returns one track.
// GET /api/tracks/{id}
func (h *APIHandler) Track(w http.ResponseWriter, r *http.Request) {
	track, err := h.engine.Track(r.Context(), user(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, track)
}

// RecordDecision stores a keep/remove verdict.
// POST /api/decisions
func (h *APIHandler) RecordDecision(w http.ResponseWriter, r *http.Request) {
	var in tasks.DecisionInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	decision, created, err := h.engine.Record(r.Context(), user(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "saved", "created": created, "decision": decision})
}

type reconsiderRequest struct {
	PlaylistID string `json:"playlist_id"`
	TrackURI   string `json:"track_uri"`
}

// Reconsider flips a removal back to kept.
// POST /api/decisions/reconsider
func (h *APIHandler) Reconsider(w http.ResponseWriter, r *http.Request) {
	var req reconsiderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.engine.Reconsider(r.Context(), user(r), req.PlaylistID, req.TrackURI); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "updated", "kept": true})
}

type playRequest struct {
	URI string `json:"uri"`
}

// Play starts playback of a track on the user's active device.
// POST /api/player/play
func (h *APIHandler) Play(w http.ResponseWriter, r *http.Request) {
	var req playRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.engine.Play(r.Context(), user(r), req.URI); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "playing"})
}

// ChartCountries lists countries with a registered chart.
// GET /api/charts/countries
func (h *APIHandler) ChartCountries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"countries": h.charts.Countries()})
}

// Chart returns the top artists of a country's chart.
// GET /api/charts?country=XX
func (h *APIHandler) Chart(w http.ResponseWriter, r *http.Request) {
	country := r.URL.Query().Get("country")
	if country == "" {
		writeError(w, r, fmt.Errorf("%w: country parameter is required", shared.ErrInvalidInput))
		return
	}

	result, err := h.charts.TopArtists(r.Context(), user(r), country)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *APIHandler) setDirty(w http.ResponseWriter, playlistID string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     DirtyCookieName,
		Value:    playlistID,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
