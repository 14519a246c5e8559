// Spotify Web API operations used by prune.
//
// Wire types come from github.com/zmb3/spotify/v2; see https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/prune/internal/models"
	"github.com/desertthunder/prune/internal/shared"
	"github.com/zmb3/spotify/v2"
)

const (
	playlistPageSize = 50
	trackPageSize    = 100
	removeBatchSize  = 100
)

// SpotifyService maps Spotify Web API responses onto the models package.
type SpotifyService struct {
	client *Client
}

// NewSpotifyService creates a SpotifyService issuing requests through client.
func NewSpotifyService(client *Client) *SpotifyService {
	return &SpotifyService{client: client}
}

// Name returns the service name
func (s *SpotifyService) Name() string {
	return "Spotify"
}

// Profile retrieves the connected account.
func (s *SpotifyService) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	var user spotify.PrivateUser
	if err := s.client.GetJSON(ctx, userID, "me", &user); err != nil {
		return nil, err
	}

	return &models.Profile{
		ID:          string(user.ID),
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Country:     user.Country,
		Product:     user.Product,
		ImageURL:    firstImage(user.Images),
	}, nil
}

// Playlists retrieves every playlist the user owns or follows.
func (s *SpotifyService) Playlists(ctx context.Context, userID string) ([]models.Playlist, error) {
	endpoint := fmt.Sprintf("me/playlists?limit=%d", playlistPageSize)

	items, err := FetchAll[*spotify.SimplePlaylist](ctx, s.client, userID, endpoint)
	if err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, 0, len(items))
	for _, p := range items {
		if p == nil || p.ID == "" {
			continue
		}
		playlists = append(playlists, toPlaylist(p))
	}
	return playlists, nil
}

// Playlist retrieves a single playlist with its live track count.
func (s *SpotifyService) Playlist(ctx context.Context, userID, playlistID string) (*models.Playlist, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id is required", shared.ErrInvalidInput)
	}

	var p spotify.SimplePlaylist
	if err := s.client.GetJSON(ctx, userID, "playlists/"+url.PathEscape(playlistID), &p); err != nil {
		return nil, err
	}

	playlist := toPlaylist(&p)
	return &playlist, nil
}

// PlaylistTracks retrieves every track of a playlist across all pages.
//
// Entries whose track is null (removed from the catalogue) or has no URI are skipped.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, userID, playlistID string) ([]models.Track, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id is required", shared.ErrInvalidInput)
	}

	endpoint := fmt.Sprintf("playlists/%s/tracks?limit=%d", url.PathEscape(playlistID), trackPageSize)
	items, err := FetchAll[*spotify.PlaylistTrack](ctx, s.client, userID, endpoint)
	if err != nil {
		return nil, err
	}
	return toTracks(items), nil
}

// PlaylistTracksPage retrieves only the first page of up to limit tracks.
func (s *SpotifyService) PlaylistTracksPage(ctx context.Context, userID, playlistID string, limit int) ([]models.Track, error) {
	endpoint := fmt.Sprintf("playlists/%s/tracks?limit=%d", url.PathEscape(playlistID), limit)

	var page Page[*spotify.PlaylistTrack]
	if err := s.client.GetJSON(ctx, userID, endpoint, &page); err != nil {
		return nil, err
	}
	return toTracks(page.Items), nil
}

// Track retrieves a single track by ID.
func (s *SpotifyService) Track(ctx context.Context, userID, trackID string) (*models.Track, error) {
	if trackID == "" {
		return nil, fmt.Errorf("%w: track id is required", shared.ErrInvalidInput)
	}

	var t spotify.FullTrack
	if err := s.client.GetJSON(ctx, userID, "tracks/"+url.PathEscape(trackID), &t); err != nil {
		return nil, err
	}

	track := toTrack(&t)
	return &track, nil
}

// SearchPlaylists searches the catalogue for playlists matching query.
//
// Spotify returns null for results it cannot show; those are dropped.
func (s *SpotifyService) SearchPlaylists(ctx context.Context, userID, query string, limit int) ([]models.Playlist, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "playlist")
	params.Set("limit", fmt.Sprint(limit))

	var result struct {
		Playlists Page[*spotify.SimplePlaylist] `json:"playlists"`
	}
	if err := s.client.GetJSON(ctx, userID, "search?"+params.Encode(), &result); err != nil {
		return nil, err
	}

	playlists := []models.Playlist{}
	for _, p := range result.Playlists.Items {
		if p == nil || p.ID == "" {
			continue
		}
		playlists = append(playlists, toPlaylist(p))
	}
	return playlists, nil
}

type trackRef struct {
	URI string `json:"uri"`
}

// RemoveTracks removes every occurrence of uris from the playlist.
//
// Spotify accepts at most 100 items per call, so longer lists are sent in consecutive batches.
// A failing batch stops the operation and is returned.
func (s *SpotifyService) RemoveTracks(ctx context.Context, userID, playlistID string, uris []string) error {
	if playlistID == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrInvalidInput)
	}

	endpoint := fmt.Sprintf("playlists/%s/tracks", url.PathEscape(playlistID))
	for start := 0; start < len(uris); start += removeBatchSize {
		end := min(start+removeBatchSize, len(uris))

		refs := make([]trackRef, 0, end-start)
		for _, uri := range uris[start:end] {
			refs = append(refs, trackRef{URI: uri})
		}

		body := map[string][]trackRef{"tracks": refs}
		if _, err := s.client.Do(ctx, userID, http.MethodDelete, endpoint, body); err != nil {
			return err
		}
	}
	return nil
}

// PlayTrack starts playback of uri on the user's active device.
func (s *SpotifyService) PlayTrack(ctx context.Context, userID, uri string) error {
	if uri == "" {
		return fmt.Errorf("%w: track uri is required", shared.ErrInvalidInput)
	}

	body := map[string][]string{"uris": {uri}}
	_, err := s.client.Do(ctx, userID, http.MethodPut, "me/player/play", body)
	return err
}

func toPlaylist(p *spotify.SimplePlaylist) models.Playlist {
	return models.Playlist{
		ID:          string(p.ID),
		Name:        p.Name,
		Description: p.Description,
		Owner:       p.Owner.DisplayName,
		TrackCount:  int(p.Tracks.Total),
		Public:      p.IsPublic,
		ImageURL:    firstImage(p.Images),
	}
}

func toTracks(items []*spotify.PlaylistTrack) []models.Track {
	tracks := make([]models.Track, 0, len(items))
	for _, item := range items {
		if item == nil || item.Track.URI == "" {
			continue
		}
		tracks = append(tracks, toTrack(&item.Track))
	}
	return tracks
}

func toTrack(t *spotify.FullTrack) models.Track {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}

	return models.Track{
		ID:               string(t.ID),
		URI:              string(t.URI),
		Name:             t.Name,
		Artists:          artists,
		Album:            t.Album.Name,
		ImageURL:         firstImage(t.Album.Images),
		PreviewURL:       t.PreviewURL,
		ExternalURL:      t.ExternalURLs["spotify"],
		AvailableMarkets: t.AvailableMarkets,
	}
}

func firstImage(images []spotify.Image) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}
