package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/prune/internal/models"
	"github.com/desertthunder/prune/internal/shared"
)

// ReviewState is the review queue of one playlist.
//
// Removed tracks no longer count towards TotalCount. Kept tracks leave the queue but count as
// processed.
type ReviewState struct {
	Playlist       models.Playlist `json:"playlist"`
	Pending        []models.Track  `json:"pending"`
	TotalCount     int             `json:"total_count"`
	ProcessedCount int             `json:"processed_count"`
	KeptCount      int             `json:"kept_count"`
	RemovedCount   int             `json:"removed_count"`
	HasTracks      bool            `json:"has_tracks"`
}

// Done reports whether every track has a decision.
func (s *ReviewState) Done() bool {
	return len(s.Pending) == 0
}

// DecisionInput is a keep/remove verdict as submitted by a client.
type DecisionInput struct {
	PlaylistID  string   `json:"playlist_id"`
	TrackURI    string   `json:"track_uri"`
	Name        string   `json:"name"`
	Artists     []string `json:"artists"`
	ImageURL    string   `json:"image_url"`
	PreviewURL  string   `json:"preview_url"`
	ExternalURL string   `json:"external_url"`
	Kept        *bool    `json:"kept"`
}

// Validate reports missing required fields as [shared.ErrInvalidInput].
func (in DecisionInput) Validate() error {
	var missing []string
	if strings.TrimSpace(in.PlaylistID) == "" {
		missing = append(missing, "playlist_id")
	}
	if strings.TrimSpace(in.TrackURI) == "" {
		missing = append(missing, "track_uri")
	}
	if in.Kept == nil {
		missing = append(missing, "kept")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", shared.ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}

// DecisionInputFromTrack builds the verdict for a track shown in the review queue.
func DecisionInputFromTrack(playlistID string, t models.Track, kept bool) DecisionInput {
	return DecisionInput{
		PlaylistID:  playlistID,
		TrackURI:    t.URI,
		Name:        t.Name,
		Artists:     t.Artists,
		ImageURL:    t.ImageURL,
		PreviewURL:  t.PreviewURL,
		ExternalURL: t.ExternalURL,
		Kept:        &kept,
	}
}

// Decisions are a playlist's recorded verdicts, newest first.
type Decisions struct {
	PlaylistID string             `json:"playlist_id"`
	Kept       []*models.Decision `json:"kept"`
	Removed    []*models.Decision `json:"removed"`
}

// Review builds the review queue for a playlist from its live tracks and the ledger.
func (e *PlaylistEngine) Review(ctx context.Context, userID, playlistID string) (*ReviewState, error) {
	if strings.TrimSpace(playlistID) == "" {
		return nil, fmt.Errorf("%w: playlist id is required", shared.ErrInvalidInput)
	}

	playlist, err := e.spotify.Playlist(ctx, userID, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist: %w", err)
	}

	tracks, err := e.spotify.PlaylistTracks(ctx, userID, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist tracks: %w", err)
	}

	records, err := e.decisions.ListByPlaylist(ctx, userID, playlistID, nil)
	if err != nil {
		return nil, err
	}

	decided := make(map[string]bool, len(records))
	state := &ReviewState{Playlist: *playlist, Pending: []models.Track{}, HasTracks: len(tracks) > 0}
	for _, d := range records {
		decided[d.TrackURI] = true
		if d.Kept {
			state.KeptCount++
		} else {
			state.RemovedCount++
		}
	}

	for _, t := range tracks {
		if !decided[t.URI] {
			state.Pending = append(state.Pending, t)
		}
	}

	state.TotalCount = max(len(tracks)-state.RemovedCount, 0)
	state.ProcessedCount = max(state.TotalCount-len(state.Pending), 0)
	return state, nil
}

// Record stores a keep/remove verdict and reports whether it is the track's first.
//
// Escape sequences in the name and artists are decoded before storage.
func (e *PlaylistEngine) Record(ctx context.Context, userID string, in DecisionInput) (*models.Decision, bool, error) {
	if err := in.Validate(); err != nil {
		return nil, false, err
	}

	d := &models.Decision{
		UserID:      userID,
		PlaylistID:  in.PlaylistID,
		TrackURI:    in.TrackURI,
		Name:        shared.DecodeEscapes(in.Name),
		Artists:     shared.DecodeAllEscapes(in.Artists),
		ImageURL:    in.ImageURL,
		PreviewURL:  in.PreviewURL,
		ExternalURL: in.ExternalURL,
		Kept:        *in.Kept,
	}
	if d.Artists == nil {
		d.Artists = []string{}
	}

	created, err := e.decisions.Upsert(ctx, d)
	if err != nil {
		return nil, false, err
	}

	e.logger.Debug("recorded decision", "user", userID, "playlist", d.PlaylistID, "track", d.TrackURI, "kept", d.Kept, "created", created)
	return d, created, nil
}

// Reconsider flips a recorded removal back to kept. It fails with [shared.ErrNotFound] when
// there is no record.
func (e *PlaylistEngine) Reconsider(ctx context.Context, userID, playlistID, trackURI string) error {
	if strings.TrimSpace(playlistID) == "" || strings.TrimSpace(trackURI) == "" {
		return fmt.Errorf("%w: playlist_id and track_uri are required", shared.ErrInvalidInput)
	}
	return e.decisions.SetKept(ctx, userID, playlistID, trackURI, true)
}

// Decisions lists a playlist's kept and removed records.
func (e *PlaylistEngine) Decisions(ctx context.Context, userID, playlistID string) (*Decisions, error) {
	records, err := e.decisions.ListByPlaylist(ctx, userID, playlistID, nil)
	if err != nil {
		return nil, err
	}

	out := &Decisions{PlaylistID: playlistID, Kept: []*models.Decision{}, Removed: []*models.Decision{}}
	for _, d := range records {
		if d.Kept {
			out.Kept = append(out.Kept, d)
		} else {
			out.Removed = append(out.Removed, d)
		}
	}
	return out, nil
}

// ResetProgress forgets the playlist's kept verdicts so those tracks are reviewed again.
// Removals are untouched.
func (e *PlaylistEngine) ResetProgress(ctx context.Context, userID, playlistID string) (int64, error) {
	if strings.TrimSpace(playlistID) == "" {
		return 0, fmt.Errorf("%w: playlist id is required", shared.ErrInvalidInput)
	}

	n, err := e.decisions.DeleteKept(ctx, userID, playlistID)
	if err != nil {
		return 0, err
	}

	e.logger.Info("reset review progress", "user", userID, "playlist", playlistID, "cleared", n)
	return n, nil
}
