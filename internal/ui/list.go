package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/prune/internal/models"
)

var _ list.Item = playlistItem{}

// playlistItem is one row of the playlist picker.
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string {
	return i.playlist.Name + " " + i.playlist.Owner
}

func (i playlistItem) Title() string { return i.playlist.Name }

// Description shows the track count, visibility, and owner of the playlist.
func (i playlistItem) Description() string {
	parts := make([]string, 0, 3)
	switch n := i.playlist.TrackCount; n {
	case 0:
		parts = append(parts, "empty")
	case 1:
		parts = append(parts, "1 track")
	default:
		parts = append(parts, fmt.Sprintf("%d tracks", n))
	}

	if i.playlist.Public {
		parts = append(parts, "public")
	} else {
		parts = append(parts, "private")
	}
	if i.playlist.Owner != "" {
		parts = append(parts, "by "+i.playlist.Owner)
	}
	return strings.Join(parts, " • ")
}

func playlistItems(playlists []models.Playlist) []list.Item {
	items := make([]list.Item, len(playlists))
	for i, p := range playlists {
		items[i] = playlistItem{playlist: p}
	}
	return items
}
