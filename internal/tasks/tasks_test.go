package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"testing"

	"github.com/desertthunder/prune/internal/models"
	"github.com/desertthunder/prune/internal/repositories"
	"github.com/desertthunder/prune/internal/services"
	"github.com/desertthunder/prune/internal/shared"
)

type fakeSpotify struct {
	mu        sync.Mutex
	playlists []models.Playlist
	tracks    map[string][]models.Track
	counts    map[string]int // live counts returned by Playlist, overriding the listing

	removeErr   error
	playlistErr error
	removed     map[string][][]string
	played      []string
	playlistHit []string
}

func newFakeSpotify() *fakeSpotify {
	return &fakeSpotify{tracks: map[string][]models.Track{}, counts: map[string]int{}, removed: map[string][][]string{}}
}

func (f *fakeSpotify) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	return &models.Profile{ID: "spotify-" + userID}, nil
}

func (f *fakeSpotify) Playlists(ctx context.Context, userID string) ([]models.Playlist, error) {
	return slices.Clone(f.playlists), nil
}

func (f *fakeSpotify) Playlist(ctx context.Context, userID, playlistID string) (*models.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playlistHit = append(f.playlistHit, playlistID)
	if f.playlistErr != nil {
		return nil, f.playlistErr
	}
	for _, p := range f.playlists {
		if p.ID == playlistID {
			if n, ok := f.counts[playlistID]; ok {
				p.TrackCount = n
			}
			return &p, nil
		}
	}
	return nil, &services.APIError{Status: 404, Body: "not found"}
}

func (f *fakeSpotify) PlaylistTracks(ctx context.Context, userID, playlistID string) ([]models.Track, error) {
	return f.tracks[playlistID], nil
}

func (f *fakeSpotify) Track(ctx context.Context, userID, trackID string) (*models.Track, error) {
	return &models.Track{ID: trackID}, nil
}

func (f *fakeSpotify) RemoveTracks(ctx context.Context, userID, playlistID string, uris []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed[playlistID] = append(f.removed[playlistID], slices.Clone(uris))
	return nil
}

func (f *fakeSpotify) PlayTrack(ctx context.Context, userID, uri string) error {
	f.played = append(f.played, uri)
	return nil
}

func (f *fakeSpotify) removeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, calls := range f.removed {
		n += len(calls)
	}
	return n
}

func makeTracks(prefix string, n int) []models.Track {
	tracks := make([]models.Track, n)
	for i := range tracks {
		tracks[i] = models.Track{
			ID:      fmt.Sprintf("%s%d", prefix, i),
			URI:     fmt.Sprintf("spotify:track:%s%d", prefix, i),
			Name:    fmt.Sprintf("Song %d", i),
			Artists: []string{fmt.Sprintf("Artist %d", i%3)},
		}
	}
	return tracks
}

func setupEngine(t *testing.T) (*PlaylistEngine, *fakeSpotify, *repositories.DecisionRepository) {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	spotify := newFakeSpotify()
	spotify.playlists = []models.Playlist{
		{ID: "p1", Name: "Road Trip", TrackCount: 5},
		{ID: "p2", Name: "Focus", TrackCount: 3},
	}
	spotify.tracks["p1"] = makeTracks("a", 5)
	spotify.tracks["p2"] = makeTracks("b", 3)

	repo := repositories.NewDecisionRepository(db)
	engine := NewPlaylistEngine(spotify, repo, EngineOpts{Logger: shared.NewLogger(io.Discard)})
	return engine, spotify, repo
}

func record(t *testing.T, e *PlaylistEngine, playlistID string, track models.Track, kept bool) {
	t.Helper()
	if _, _, err := e.Record(context.Background(), "u1", DecisionInputFromTrack(playlistID, track, kept)); err != nil {
		t.Fatalf("failed to record decision: %v", err)
	}
}

func TestPlaylistEngineReview(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh playlist is entirely pending", func(t *testing.T) {
		e, _, _ := setupEngine(t)

		state, err := e.Review(ctx, "u1", "p1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(state.Pending) != 5 || state.TotalCount != 5 || state.ProcessedCount != 0 || !state.HasTracks {
			t.Errorf("unexpected state %+v", state)
		}
		if state.Done() {
			t.Error("expected review not done")
		}
	})

	t.Run("kept tracks leave the queue and removed tracks leave the total", func(t *testing.T) {
		e, spotify, _ := setupEngine(t)
		tracks := spotify.tracks["p1"]

		record(t, e, "p1", tracks[0], true)
		record(t, e, "p1", tracks[1], false)
		record(t, e, "p1", tracks[2], false)

		state, err := e.Review(ctx, "u1", "p1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if state.TotalCount != 3 {
			t.Errorf("expected total 3, got %d", state.TotalCount)
		}
		if len(state.Pending) != 2 || state.Pending[0].URI != tracks[3].URI || state.Pending[1].URI != tracks[4].URI {
			t.Errorf("unexpected pending %+v", state.Pending)
		}
		if state.ProcessedCount != 1 {
			t.Errorf("expected processed 1, got %d", state.ProcessedCount)
		}
		if state.KeptCount != 1 || state.RemovedCount != 2 {
			t.Errorf("unexpected counts kept=%d removed=%d", state.KeptCount, state.RemovedCount)
		}
	})

	t.Run("counts never go negative", func(t *testing.T) {
		e, _, _ := setupEngine(t)
		record(t, e, "p2", models.Track{URI: "spotify:track:gone"}, false)
		record(t, e, "p2", models.Track{URI: "spotify:track:gone2"}, false)
		record(t, e, "p2", models.Track{URI: "spotify:track:gone3"}, false)
		record(t, e, "p2", models.Track{URI: "spotify:track:gone4"}, false)

		state, err := e.Review(ctx, "u1", "p2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if state.TotalCount != 0 || state.ProcessedCount != 0 {
			t.Errorf("unexpected counts total=%d processed=%d", state.TotalCount, state.ProcessedCount)
		}
	})

	t.Run("empty playlist has no tracks", func(t *testing.T) {
		e, spotify, _ := setupEngine(t)
		spotify.playlists = append(spotify.playlists, models.Playlist{ID: "empty"})

		state, err := e.Review(ctx, "u1", "empty")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if state.HasTracks || !state.Done() {
			t.Errorf("unexpected state %+v", state)
		}
	})

	t.Run("decisions are scoped to the user", func(t *testing.T) {
		e, spotify, _ := setupEngine(t)
		in := DecisionInputFromTrack("p1", spotify.tracks["p1"][0], false)
		if _, _, err := e.Record(ctx, "someone-else", in); err != nil {
			t.Fatalf("failed to record: %v", err)
		}

		state, err := e.Review(ctx, "u1", "p1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(state.Pending) != 5 {
			t.Errorf("expected other users' decisions to be ignored, got %d pending", len(state.Pending))
		}
	})

	t.Run("remote failures propagate", func(t *testing.T) {
		e, spotify, _ := setupEngine(t)
		spotify.playlistErr = &services.RateLimitError{RetryAfterSeconds: 5, Message: "wait"}

		if _, err := e.Review(ctx, "u1", "p1"); !errors.Is(err, shared.ErrRateLimited) {
			t.Fatalf("expected rate limit error, got %v", err)
		}
	})

	t.Run("missing playlist id", func(t *testing.T) {
		e, _, _ := setupEngine(t)
		if _, err := e.Review(ctx, "u1", ""); !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestPlaylistEngineRecord(t *testing.T) {
	ctx := context.Background()

	t.Run("second identical record is not created", func(t *testing.T) {
		e, spotify, repo := setupEngine(t)
		in := DecisionInputFromTrack("p1", spotify.tracks["p1"][0], false)

		_, created, err := e.Record(ctx, "u1", in)
		if err != nil || !created {
			t.Fatalf("expected created record, got created=%v err=%v", created, err)
		}
		_, created, err = e.Record(ctx, "u1", in)
		if err != nil || created {
			t.Fatalf("expected update, got created=%v err=%v", created, err)
		}

		all, _ := repo.ListByPlaylist(ctx, "u1", "p1", nil)
		if len(all) != 1 {
			t.Errorf("expected one record, got %d", len(all))
		}
	})

	t.Run("later verdict overwrites", func(t *testing.T) {
		e, spotify, repo := setupEngine(t)
		track := spotify.tracks["p1"][0]
		record(t, e, "p1", track, false)
		record(t, e, "p1", track, true)

		d, err := repo.Get(ctx, "u1", "p1", track.URI)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !d.Kept {
			t.Error("expected kept after overwrite")
		}
	})

	t.Run("escape sequences are decoded", func(t *testing.T) {
		e, _, _ := setupEngine(t)
		kept := true
		in := DecisionInput{
			PlaylistID: "p1",
			TrackURI:   "spotify:track:x",
			Name:       `Caf\u00e9 \u002D Live`,
			Artists:    []string{`Beyonc\u00e9`, `Plain`, `broken \u12`},
			Kept:       &kept,
		}

		d, _, err := e.Record(ctx, "u1", in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.Name != "Café - Live" {
			t.Errorf("expected decoded name, got %q", d.Name)
		}
		want := []string{"Beyoncé", "Plain", `broken \u12`}
		if !slices.Equal(d.Artists, want) {
			t.Errorf("expected %q, got %q", want, d.Artists)
		}
	})

	t.Run("invalid input has no side effect", func(t *testing.T) {
		e, _, repo := setupEngine(t)
		kept := false
		cases := []struct {
			name string
			in   DecisionInput
		}{
			{"missing playlist", DecisionInput{TrackURI: "spotify:track:x", Kept: &kept}},
			{"missing track", DecisionInput{PlaylistID: "p1", Kept: &kept}},
			{"missing kept", DecisionInput{PlaylistID: "p1", TrackURI: "spotify:track:x"}},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				if _, _, err := e.Record(ctx, "u1", tc.in); !errors.Is(err, shared.ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
			})
		}

		all, _ := repo.ListByPlaylist(ctx, "u1", "p1", nil)
		if len(all) != 0 {
			t.Errorf("expected no records, got %d", len(all))
		}
	})
}

func TestPlaylistEngineReconsider(t *testing.T) {
	ctx := context.Background()

	t.Run("flips removed to kept without deleting", func(t *testing.T) {
		e, spotify, repo := setupEngine(t)
		track := spotify.tracks["p1"][1]
		record(t, e, "p1", track, false)

		if err := e.Reconsider(ctx, "u1", "p1", track.URI); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		d, err := repo.Get(ctx, "u1", "p1", track.URI)
		if err != nil {
			t.Fatalf("expected record to remain: %v", err)
		}
		if !d.Kept {
			t.Error("expected kept=true")
		}
	})

	t.Run("unknown record is not found", func(t *testing.T) {
		e, _, _ := setupEngine(t)
		if err := e.Reconsider(ctx, "u1", "p1", "spotify:track:nope"); !errors.Is(err, shared.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		e, _, _ := setupEngine(t)
		if err := e.Reconsider(ctx, "u1", "p1", ""); !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestPlaylistEngineDecisionsAndReset(t *testing.T) {
	ctx := context.Background()
	e, spotify, _ := setupEngine(t)
	tracks := spotify.tracks["p1"]

	record(t, e, "p1", tracks[0], true)
	record(t, e, "p1", tracks[1], true)
	record(t, e, "p1", tracks[2], false)
	record(t, e, "p2", spotify.tracks["p2"][0], true)

	decisions, err := e.Decisions(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decisions.Kept) != 2 || len(decisions.Removed) != 1 {
		t.Fatalf("unexpected decisions kept=%d removed=%d", len(decisions.Kept), len(decisions.Removed))
	}

	n, err := e.ResetProgress(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 cleared, got %d", n)
	}

	decisions, _ = e.Decisions(ctx, "u1", "p1")
	if len(decisions.Kept) != 0 || len(decisions.Removed) != 1 {
		t.Errorf("expected only removals after reset, got kept=%d removed=%d", len(decisions.Kept), len(decisions.Removed))
	}

	other, _ := e.Decisions(ctx, "u1", "p2")
	if len(other.Kept) != 1 {
		t.Error("expected other playlists untouched")
	}

	state, _ := e.Review(ctx, "u1", "p1")
	if len(state.Pending) != 4 {
		t.Errorf("expected reset tracks back in the queue, got %d pending", len(state.Pending))
	}
}

func TestPlaylistEngineApply(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing to remove makes no remote call", func(t *testing.T) {
		e, spotify, _ := setupEngine(t)
		record(t, e, "p1", spotify.tracks["p1"][0], true)

		result, err := e.Apply(ctx, "u1", "p1", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.RemovedCount != 0 || result.Dirty != "" || result.Message != "No songs to remove." {
			t.Errorf("unexpected result %+v", result)
		}
		if spotify.removeCalls() != 0 {
			t.Error("expected no remote call")
		}
	})

	t.Run("removes exactly the reconciled records", func(t *testing.T) {
		e, spotify, repo := setupEngine(t)
		tracks := spotify.tracks["p1"]
		record(t, e, "p1", tracks[0], true)
		record(t, e, "p1", tracks[1], false)
		record(t, e, "p1", tracks[2], false)
		record(t, e, "p2", spotify.tracks["p2"][0], false)

		progress := make(chan ProgressUpdate, 10)
		result, err := e.Apply(ctx, "u1", "p1", progress)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		close(progress)

		if result.RemovedCount != 2 || result.Dirty != "p1" {
			t.Errorf("unexpected result %+v", result)
		}
		if result.Message != "Successfully removed 2 songs from your Spotify playlist!" {
			t.Errorf("unexpected message %q", result.Message)
		}

		calls := spotify.removed["p1"]
		if len(calls) != 1 || len(calls[0]) != 2 || !slices.Contains(calls[0], tracks[1].URI) || !slices.Contains(calls[0], tracks[2].URI) {
			t.Errorf("unexpected remove calls %v", calls)
		}

		left, _ := repo.ListByPlaylist(ctx, "u1", "p1", nil)
		if len(left) != 1 || left[0].TrackURI != tracks[0].URI {
			t.Errorf("expected only the kept record to remain, got %+v", left)
		}
		other, _ := repo.ListByPlaylist(ctx, "u1", "p2", nil)
		if len(other) != 1 {
			t.Error("expected other playlist untouched")
		}

		var phases []Phase
		for u := range progress {
			phases = append(phases, u.Phase)
		}
		if !slices.Equal(phases, []Phase{ReadLedger, RemoveTracks, ClearLedger}) {
			t.Errorf("unexpected phases %v", phases)
		}
	})

	t.Run("singular message", func(t *testing.T) {
		e, spotify, _ := setupEngine(t)
		record(t, e, "p1", spotify.tracks["p1"][0], false)

		result, err := e.Apply(ctx, "u1", "p1", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Message != "Successfully removed 1 song from your Spotify playlist!" {
			t.Errorf("unexpected message %q", result.Message)
		}
	})

	t.Run("remote failure leaves the ledger untouched", func(t *testing.T) {
		e, spotify, repo := setupEngine(t)
		record(t, e, "p1", spotify.tracks["p1"][0], false)
		record(t, e, "p1", spotify.tracks["p1"][1], false)
		spotify.removeErr = &services.APIError{Status: 502, Body: "bad gateway"}

		_, err := e.Apply(ctx, "u1", "p1", nil)
		var apiErr *services.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %v", err)
		}

		left, _ := repo.ListByPlaylist(ctx, "u1", "p1", models.Bool(false))
		if len(left) != 2 {
			t.Errorf("expected 2 records to remain, got %d", len(left))
		}

		spotify.removeErr = nil
		result, err := e.Apply(ctx, "u1", "p1", nil)
		if err != nil || result.RemovedCount != 2 {
			t.Fatalf("expected retry to succeed, got %+v, %v", result, err)
		}
	})

	t.Run("full progress channel does not block", func(t *testing.T) {
		e, spotify, _ := setupEngine(t)
		record(t, e, "p1", spotify.tracks["p1"][0], false)

		progress := make(chan ProgressUpdate)
		if _, err := e.Apply(ctx, "u1", "p1", progress); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestPlaylistEngineBulkApply(t *testing.T) {
	ctx := context.Background()
	e, spotify, _ := setupEngine(t)
	spotify.playlists = append(spotify.playlists, models.Playlist{ID: "p3", Name: "Untouched"})

	record(t, e, "p1", spotify.tracks["p1"][0], false)
	record(t, e, "p1", spotify.tracks["p1"][1], false)
	record(t, e, "p2", spotify.tracks["p2"][2], false)

	progress := make(chan ProgressUpdate, 10)
	result := e.BulkApply(ctx, "u1", spotify.playlists, BulkApplyOpts{NumWorkers: 2}, progress)
	close(progress)

	if result.Failed != 0 || result.RemovedCount != 3 {
		t.Errorf("unexpected result %+v", result)
	}
	if len(result.Items) != 3 || result.Items[0].Playlist.ID != "p1" || result.Items[2].Playlist.ID != "p3" {
		t.Errorf("expected items in input order, got %+v", result.Items)
	}
	if result.Items[2].Result.RemovedCount != 0 {
		t.Error("expected nothing removed from p3")
	}
	slices.Sort(result.Dirty)
	if !slices.Equal(result.Dirty, []string{"p1", "p2"}) {
		t.Errorf("unexpected dirty list %v", result.Dirty)
	}
	if spotify.removeCalls() != 2 {
		t.Errorf("expected 2 remote calls, got %d", spotify.removeCalls())
	}
	if len(progress) != 3 {
		t.Errorf("expected one update per playlist, got %d", len(progress))
	}

	t.Run("failures are per playlist", func(t *testing.T) {
		record(t, e, "p1", spotify.tracks["p1"][3], false)
		spotify.removeErr = errors.New("network down")

		result := e.BulkApply(ctx, "u1", spotify.playlists[:1], BulkApplyOpts{}, nil)
		if result.Failed != 1 || result.Items[0].Error == nil {
			t.Errorf("expected failure, got %+v", result)
		}
	})
}

func TestPlaylistEngineDashboard(t *testing.T) {
	ctx := context.Background()

	t.Run("without a dirty playlist uses the listing", func(t *testing.T) {
		e, spotify, _ := setupEngine(t)
		spotify.counts["p1"] = 2

		playlists, err := e.Dashboard(ctx, "u1", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if playlists[0].TrackCount != 5 || len(spotify.playlistHit) != 0 {
			t.Errorf("expected listed count without refetch, got %d", playlists[0].TrackCount)
		}
	})

	t.Run("dirty playlist count is re-read", func(t *testing.T) {
		e, spotify, _ := setupEngine(t)
		spotify.counts["p1"] = 2

		playlists, err := e.Dashboard(ctx, "u1", "p1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if playlists[0].TrackCount != 2 || playlists[1].TrackCount != 3 {
			t.Errorf("unexpected counts %d, %d", playlists[0].TrackCount, playlists[1].TrackCount)
		}
		if !slices.Equal(spotify.playlistHit, []string{"p1"}) {
			t.Errorf("expected a single refetch, got %v", spotify.playlistHit)
		}
	})

	t.Run("failed re-read keeps the listed count", func(t *testing.T) {
		e, spotify, _ := setupEngine(t)
		spotify.playlistErr = errors.New("boom")

		playlists, err := e.Dashboard(ctx, "u1", "p1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if playlists[0].TrackCount != 5 {
			t.Errorf("expected listed count, got %d", playlists[0].TrackCount)
		}
	})

	t.Run("unknown dirty playlist is ignored", func(t *testing.T) {
		e, spotify, _ := setupEngine(t)
		if _, err := e.Dashboard(ctx, "u1", "gone"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(spotify.playlistHit) != 0 {
			t.Error("expected no refetch")
		}
	})
}

func TestPlaylistGeo(t *testing.T) {
	tracks := []models.Track{
		{URI: "1", Artists: []string{"Robyn"}, AvailableMarkets: []string{"SE", "US"}},
		{URI: "2", Artists: []string{"Robyn", "Kleerup"}, AvailableMarkets: []string{"SE"}},
		{URI: "3", Artists: nil, AvailableMarkets: []string{"JP"}},
		{URI: "4", Artists: []string{"Local"}, AvailableMarkets: []string{"ZZ", ""}},
	}

	geo := PlaylistGeo("p1", tracks)
	if !slices.Equal(geo.Presence, []string{"SE", "US", "ZZ"}) {
		t.Errorf("unexpected presence %v", geo.Presence)
	}
	if slices.Contains(geo.Absence, "SE") || !slices.Contains(geo.Absence, "JP") {
		t.Errorf("unexpected absence %v", geo.Absence)
	}
	if len(geo.Absence) != len(Markets)-2 {
		t.Errorf("expected %d absent markets, got %d", len(Markets)-2, len(geo.Absence))
	}

	se := geo.TopArtists["SE"]
	if len(se) != 2 || se[0] != (models.ArtistCount{Name: "Robyn", Count: 2}) {
		t.Errorf("unexpected SE artists %+v", se)
	}

	t.Run("engine fetches every track", func(t *testing.T) {
		e, spotify, _ := setupEngine(t)
		spotify.tracks["p1"][0].AvailableMarkets = []string{"GB"}

		geo, err := e.Geo(context.Background(), "u1", "p1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(geo.Presence, []string{"GB"}) || geo.PlaylistID != "p1" {
			t.Errorf("unexpected geo %+v", geo)
		}
	})
}

func TestMarketsSorted(t *testing.T) {
	if !slices.IsSorted(Markets) {
		t.Error("expected markets sorted")
	}
}

func TestPhaseString(t *testing.T) {
	cases := map[Phase]string{
		ReadLedger:    "read_ledger",
		RemoveTracks:  "remove_tracks",
		ClearLedger:   "clear_ledger",
		ApplyPlaylist: "apply_playlist",
		Phase(99):     "",
	}
	for phase, want := range cases {
		if got := phase.String(); got != want {
			t.Errorf("phase %d: expected %q, got %q", phase, want, got)
		}
	}
}
