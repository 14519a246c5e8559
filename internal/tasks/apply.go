package tasks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/desertthunder/prune/internal/models"
	"github.com/desertthunder/prune/internal/shared"
)

// ApplyResult is the outcome of pushing a playlist's removals to Spotify.
//
// Dirty is the playlist whose listed track count is now stale, or empty when nothing changed.
// Pass it to the next [PlaylistEngine.Dashboard] read.
type ApplyResult struct {
	PlaylistID   string `json:"playlist_id"`
	RemovedCount int    `json:"removed_count"`
	Message      string `json:"message"`
	Dirty        string `json:"-"`
}

// Apply removes the playlist's kept=false tracks from Spotify and then clears those records.
//
// Without pending removals no remote call is made. When the remote call fails the ledger is left
// as it was, so Apply can be retried in full.
func (e *PlaylistEngine) Apply(ctx context.Context, userID, playlistID string, progress chan<- ProgressUpdate) (*ApplyResult, error) {
	if strings.TrimSpace(playlistID) == "" {
		return nil, fmt.Errorf("%w: playlist id is required", shared.ErrInvalidInput)
	}

	logger := e.logger.With("user", userID, "playlist", playlistID)
	e.sendProgress(progress, readLedgerUpdate(playlistID))

	removed, err := e.decisions.ListByPlaylist(ctx, userID, playlistID, models.Bool(false))
	if err != nil {
		return nil, err
	}

	result := &ApplyResult{PlaylistID: playlistID}
	if len(removed) == 0 {
		result.Message = "No songs to remove."
		e.sendProgress(progress, clearLedgerUpdate(result))
		return result, nil
	}

	uris := make([]string, 0, len(removed))
	for _, d := range removed {
		uris = append(uris, d.TrackURI)
	}

	e.sendProgress(progress, removeTracksUpdate(len(uris)))
	if err := e.spotify.RemoveTracks(ctx, userID, playlistID, uris); err != nil {
		logger.Error("failed to remove tracks", "count", len(uris), "error", err)
		return nil, fmt.Errorf("failed to update Spotify playlist: %w", err)
	}

	if _, err := e.decisions.DeleteRemovedURIs(ctx, userID, playlistID, uris); err != nil {
		return nil, fmt.Errorf("tracks removed from Spotify but failed to clear decisions: %w", err)
	}

	result.RemovedCount = len(uris)
	result.Dirty = playlistID
	result.Message = fmt.Sprintf("Successfully removed %d %s from your Spotify playlist!",
		len(uris), plural(len(uris), "song", "songs"))

	e.metrics.RecordReconciled(len(uris))
	e.sendProgress(progress, clearLedgerUpdate(result))
	logger.Info("applied removals", "count", len(uris))
	return result, nil
}

// BulkApplyOpts configures [PlaylistEngine.BulkApply].
type BulkApplyOpts struct {
	NumWorkers int // Concurrent playlists (default: 3, max: 10)
}

// BulkApplyItem is the outcome for one playlist of a bulk apply.
type BulkApplyItem struct {
	Playlist models.Playlist `json:"playlist"`
	Result   *ApplyResult    `json:"result,omitempty"`
	Error    error           `json:"-"`
}

// BulkApplyResult summarises a bulk apply.
type BulkApplyResult struct {
	Items        []BulkApplyItem `json:"items"`
	RemovedCount int             `json:"removed_count"`
	Failed       int             `json:"failed"`
	Dirty        []string        `json:"-"`
}

// BulkApply runs [PlaylistEngine.Apply] for several playlists with a bounded worker pool.
//
// Each playlist succeeds or fails on its own. Items are returned in input order.
func (e *PlaylistEngine) BulkApply(ctx context.Context, userID string, playlists []models.Playlist, opts BulkApplyOpts, progress chan<- ProgressUpdate) *BulkApplyResult {
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}

	items := make([]BulkApplyItem, len(playlists))
	jobs := make(chan int, len(playlists))
	for i := range playlists {
		jobs <- i
	}
	close(jobs)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
	)
	for range min(opts.NumWorkers, len(playlists)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				p := playlists[i]
				item := BulkApplyItem{Playlist: p}
				if err := ctx.Err(); err != nil {
					item.Error = err
				} else {
					item.Result, item.Error = e.Apply(ctx, userID, p.ID, nil)
				}
				items[i] = item

				mu.Lock()
				completed++
				if item.Error != nil {
					e.sendProgress(progress, applyFailedUpdate(completed, len(playlists), p, item.Error))
				} else {
					e.sendProgress(progress, applyCompletedUpdate(completed, len(playlists), p, item.Result.RemovedCount))
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	result := &BulkApplyResult{Items: items, Dirty: []string{}}
	for _, item := range items {
		if item.Error != nil {
			result.Failed++
			continue
		}
		result.RemovedCount += item.Result.RemovedCount
		if item.Result.Dirty != "" {
			result.Dirty = append(result.Dirty, item.Result.Dirty)
		}
	}
	return result
}
