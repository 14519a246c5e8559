package tasks

import (
	"fmt"

	"github.com/desertthunder/prune/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ReadLedger Phase = iota
	RemoveTracks
	ClearLedger
	ApplyPlaylist
)

func (p Phase) String() string {
	switch p {
	case ReadLedger:
		return "read_ledger"
	case RemoveTracks:
		return "remove_tracks"
	case ClearLedger:
		return "clear_ledger"
	case ApplyPlaylist:
		return "apply_playlist"
	default:
		return ""
	}
}

func readLedgerUpdate(playlistID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReadLedger,
		Step:    1,
		Total:   3,
		Message: fmt.Sprintf("Reading removals for %s...", playlistID),
	}
}

func removeTracksUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RemoveTracks,
		Step:    2,
		Total:   3,
		Message: fmt.Sprintf("Removing %d %s from Spotify...", count, plural(count, "track", "tracks")),
	}
}

func clearLedgerUpdate(result *ApplyResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ClearLedger,
		Step:    3,
		Total:   3,
		Message: result.Message,
		Data:    result,
	}
}

func applyCompletedUpdate(step, total int, p models.Playlist, removed int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ApplyPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d removed)", step, total, p.Name, removed),
	}
}

func applyFailedUpdate(step, total int, p models.Playlist, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ApplyPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, p.Name, err),
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
