package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/prune/internal/metrics"
	"github.com/desertthunder/prune/internal/models"
	"github.com/desertthunder/prune/internal/shared"
)

// Spotify is the remote side of the playlist engine, implemented by services.SpotifyService.
type Spotify interface {
	Profile(ctx context.Context, userID string) (*models.Profile, error)
	Playlists(ctx context.Context, userID string) ([]models.Playlist, error)
	Playlist(ctx context.Context, userID, playlistID string) (*models.Playlist, error)
	PlaylistTracks(ctx context.Context, userID, playlistID string) ([]models.Track, error)
	Track(ctx context.Context, userID, trackID string) (*models.Track, error)
	RemoveTracks(ctx context.Context, userID, playlistID string, uris []string) error
	PlayTrack(ctx context.Context, userID, uri string) error
}

// PlaylistEngine combines live Spotify playlists with the local decision ledger.
type PlaylistEngine struct {
	spotify   Spotify
	decisions models.DecisionStore
	metrics   metrics.Recorder
	logger    *log.Logger
}

// EngineOpts holds the optional collaborators of a [PlaylistEngine].
type EngineOpts struct {
	Metrics metrics.Recorder
	Logger  *log.Logger
}

// NewPlaylistEngine creates a PlaylistEngine.
func NewPlaylistEngine(spotify Spotify, decisions models.DecisionStore, opts EngineOpts) *PlaylistEngine {
	if opts.Metrics == nil {
		opts.Metrics = metrics.Noop{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &PlaylistEngine{
		spotify:   spotify,
		decisions: decisions,
		metrics:   opts.Metrics,
		logger:    shared.WithLogger(opts.Logger, "component", "engine"),
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Profile returns the connected Spotify account.
func (e *PlaylistEngine) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	return e.spotify.Profile(ctx, userID)
}

// Playlist returns one playlist.
func (e *PlaylistEngine) Playlist(ctx context.Context, userID, playlistID string) (*models.Playlist, error) {
	return e.spotify.Playlist(ctx, userID, playlistID)
}

// Tracks returns every track of a playlist.
func (e *PlaylistEngine) Tracks(ctx context.Context, userID, playlistID string) ([]models.Track, error) {
	return e.spotify.PlaylistTracks(ctx, userID, playlistID)
}

// Track returns one track.
func (e *PlaylistEngine) Track(ctx context.Context, userID, trackID string) (*models.Track, error) {
	return e.spotify.Track(ctx, userID, trackID)
}

// Play starts playback of a track on the user's active device.
func (e *PlaylistEngine) Play(ctx context.Context, userID, uri string) error {
	return e.spotify.PlayTrack(ctx, userID, uri)
}

// Dashboard lists the user's playlists.
//
// dirty names a playlist modified since the listing was last read, or is empty. Spotify's
// listing can lag behind a removal, so that playlist's track count is re-read directly. A failed
// re-read keeps the listed count.
func (e *PlaylistEngine) Dashboard(ctx context.Context, userID, dirty string) ([]models.Playlist, error) {
	playlists, err := e.spotify.Playlists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	if dirty == "" {
		return playlists, nil
	}

	for i := range playlists {
		if playlists[i].ID != dirty {
			continue
		}

		fresh, err := e.spotify.Playlist(ctx, userID, dirty)
		if err != nil {
			e.logger.Warn("failed to refresh playlist count", "user", userID, "playlist", dirty, "error", err)
			break
		}
		playlists[i].TrackCount = fresh.TrackCount
		break
	}
	return playlists, nil
}
