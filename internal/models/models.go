// package models defines the data model for the playlist review service
package models

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Credential is the Spotify OAuth credential of a local user.
//
// A nil ExpiresAt means the lifetime is unknown and the access token is treated as expired.
type Credential struct {
	UserID       string     `json:"user_id"`
	AccessToken  string     `json:"-"`
	RefreshToken string     `json:"-"`
	Scope        string     `json:"scope"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Expired reports whether the access token must be refreshed before use at now.
func (c *Credential) Expired(now time.Time) bool {
	return c.ExpiresAt == nil || !now.Before(*c.ExpiresAt)
}

// Validate checks the fields required to persist the credential.
func (c *Credential) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return fmt.Errorf("credential user id is required")
	}
	if c.AccessToken == "" {
		return fmt.Errorf("credential access token is required")
	}
	return nil
}

// Decision records whether a user keeps or removes a track in a playlist.
//
// Kept=true means the track stays. Kept=false means it is pending removal from the remote playlist.
type Decision struct {
	ID          string    `json:"id"`
	UserID      string    `json:"-"`
	PlaylistID  string    `json:"playlist_id"`
	TrackURI    string    `json:"track_uri"`
	Name        string    `json:"name"`
	Artists     []string  `json:"artists"`
	ImageURL    string    `json:"image_url,omitempty"`
	PreviewURL  string    `json:"preview_url,omitempty"`
	ExternalURL string    `json:"external_url,omitempty"`
	Kept        bool      `json:"kept"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate checks the natural key of the decision.
func (d *Decision) Validate() error {
	switch {
	case strings.TrimSpace(d.UserID) == "":
		return fmt.Errorf("decision user id is required")
	case strings.TrimSpace(d.PlaylistID) == "":
		return fmt.Errorf("decision playlist id is required")
	case strings.TrimSpace(d.TrackURI) == "":
		return fmt.Errorf("decision track uri is required")
	}
	return nil
}

// Playlist represents a Spotify playlist
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Owner       string `json:"owner,omitempty"`
	TrackCount  int    `json:"track_count"`
	Public      bool   `json:"public"`
	ImageURL    string `json:"image_url,omitempty"`
}

// Track represents a playable track inside a playlist
type Track struct {
	ID               string   `json:"id"`
	URI              string   `json:"uri"`
	Name             string   `json:"name"`
	Artists          []string `json:"artists"`
	Album            string   `json:"album,omitempty"`
	ImageURL         string   `json:"image_url,omitempty"`
	PreviewURL       string   `json:"preview_url,omitempty"`
	ExternalURL      string   `json:"external_url,omitempty"`
	AvailableMarkets []string `json:"available_markets,omitempty"`
}

// ArtistLine joins the track's artist names for display.
func (t Track) ArtistLine() string {
	return strings.Join(t.Artists, ", ")
}

// Profile is the connected Spotify account.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Country     string `json:"country,omitempty"`
	Product     string `json:"product,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// ArtistCount is an artist with the number of chart entries they appear on.
type ArtistCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ChartResult is the outcome of a chart lookup for one country.
//
// HasChart is false when only a fallback (global) chart or nothing could be found.
type ChartResult struct {
	Country  string        `json:"country"`
	HasChart bool          `json:"has_chart"`
	Artists  []ArtistCount `json:"artists"`
	Error    string        `json:"error,omitempty"`
}

// GeoResult summarises where a playlist's tracks can be played.
type GeoResult struct {
	PlaylistID string                   `json:"playlist_id"`
	Presence   []string                 `json:"presence"`
	Absence    []string                 `json:"absence"`
	TopArtists map[string][]ArtistCount `json:"top_artists"`
}

// CredentialStore persists one [Credential] per user.
type CredentialStore interface {
	Get(ctx context.Context, userID string) (*Credential, error) // Get returns shared.ErrNoCredential when absent
	Save(ctx context.Context, cred *Credential) error           // Save inserts or replaces the user's credential atomically
	Delete(ctx context.Context, userID string) error            // Delete removes the credential; absent is not an error
}

// DecisionStore persists keep/remove verdicts keyed by (user, playlist, track uri).
type DecisionStore interface {
	// Upsert inserts or updates the decision and reports whether a new record was created.
	Upsert(ctx context.Context, d *Decision) (bool, error)
	// SetKept flips an existing record; shared.ErrNotFound when there is none.
	SetKept(ctx context.Context, userID, playlistID, trackURI string, kept bool) error
	// ListByPlaylist returns the playlist's records, newest first, optionally filtered by kept.
	ListByPlaylist(ctx context.Context, userID, playlistID string, kept *bool) ([]*Decision, error)
	DeleteRemoved(ctx context.Context, userID, playlistID string) (int64, error)
	DeleteKept(ctx context.Context, userID, playlistID string) (int64, error)
	// DeleteRemovedURIs deletes kept=false records for exactly the given uris.
	DeleteRemovedURIs(ctx context.Context, userID, playlistID string, uris []string) (int64, error)
}

// Bool returns a pointer to b, for optional filters.
func Bool(b bool) *bool { return &b }
