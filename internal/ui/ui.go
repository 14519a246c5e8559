package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/prune/internal/models"
	"github.com/desertthunder/prune/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	ReviewView
	ConfirmView
	ApplyView
	ResultView
)

// Engine is the part of [tasks.PlaylistEngine] the TUI drives.
type Engine interface {
	Dashboard(ctx context.Context, userID, dirty string) ([]models.Playlist, error)
	Review(ctx context.Context, userID, playlistID string) (*tasks.ReviewState, error)
	Record(ctx context.Context, userID string, in tasks.DecisionInput) (*models.Decision, bool, error)
	Apply(ctx context.Context, userID, playlistID string, progress chan<- tasks.ProgressUpdate) (*tasks.ApplyResult, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	engine       Engine
	userID       string
	view         ViewState
	width        int
	height       int
	playlistList list.Model
	review       *tasks.ReviewState
	cursor       int
	saving       bool
	dirty        string
	progressChan chan tasks.ProgressUpdate
	doneChan     chan applyComplete
	progress     tasks.ProgressUpdate
	result       *tasks.ApplyResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model reviewing userID's playlists through engine.
func NewModel(ctx context.Context, engine Engine, userID string) *Model {
	return &Model{
		ctx:          ctx,
		engine:       engine,
		userID:       userID,
		view:         PlaylistListView,
		playlistList: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Init initializes the TUI by fetching the user's playlists.
func (m *Model) Init() tea.Cmd {
	return m.fetchPlaylists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		filtering := m.view == PlaylistListView && m.playlistList.FilterState() == list.Filtering
		if key.Matches(msg, m.keys.quit) && m.view != ApplyView && !filtering {
			return m, tea.Quit
		}

		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case ReviewView:
			return m.handleReviewKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}
		return m, nil

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateList(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPlaylistsFetched:
		data := msg.data.(playlistsFetched)
		m.err = data.err
		if data.err != nil {
			return m, nil
		}
		m.dirty = ""

		m.playlistList.Title = "Spotify Playlists"
		return m, m.playlistList.SetItems(playlistItems(data.playlists))

	case MsgReviewLoaded:
		data := msg.data.(reviewLoaded)
		m.err = data.err
		if data.err != nil {
			m.view = PlaylistListView
			return m, nil
		}
		m.review = data.state
		m.cursor = 0
		m.view = ReviewView
		return m, nil

	case MsgDecisionRecorded:
		data := msg.data.(decisionRecorded)
		m.saving = false
		m.err = data.err
		if data.err != nil {
			return m, nil
		}

		if data.kept {
			m.review.KeptCount++
			m.review.ProcessedCount++
		} else {
			m.review.RemovedCount++
			m.review.TotalCount--
		}
		m.cursor++
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgApplyComplete:
		data := msg.data.(applyComplete)
		m.result = data.result
		m.err = data.err
		if data.result != nil && data.result.Dirty != "" {
			m.dirty = data.result.Dirty
		}
		m.progressChan = nil
		m.doneChan = nil
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case ReviewView:
		return m.renderReview()
	case ConfirmView:
		return m.renderConfirm()
	case ApplyView:
		return m.renderApply()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.enter) && m.playlistList.FilterState() != list.Filtering {
		if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			m.err = nil
			return m, m.loadReview(pl.playlist.ID)
		}
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleReviewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = PlaylistListView
		m.review = nil
		m.err = nil
		return m, nil
	case key.Matches(msg, m.keys.apply):
		m.view = ConfirmView
		return m, nil
	}

	track, ok := m.current()
	if !ok || m.saving {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.keep):
		m.saving = true
		return m, m.record(track, true)
	case key.Matches(msg, m.keys.remove):
		m.saving = true
		return m, m.record(track, false)
	case key.Matches(msg, m.keys.skip):
		m.cursor++
	}
	return m, nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.view = ApplyView
		m.err = nil
		return m, m.startApply()
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		m.view = ReviewView
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.restart) {
		m.view = PlaylistListView
		m.review = nil
		m.result = nil
		m.err = nil
		return m, m.fetchPlaylists()
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.view != PlaylistListView {
		return m, nil
	}
	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

// current returns the track under review.
func (m *Model) current() (models.Track, bool) {
	if m.review == nil || m.cursor >= len(m.review.Pending) {
		return models.Track{}, false
	}
	return m.review.Pending[m.cursor], true
}

func (m *Model) fetchPlaylists() tea.Cmd {
	dirty := m.dirty
	return func() tea.Msg {
		playlists, err := m.engine.Dashboard(m.ctx, m.userID, dirty)
		return playlistsFetchedMsg(playlists, err)
	}
}

func (m *Model) loadReview(playlistID string) tea.Cmd {
	return func() tea.Msg {
		state, err := m.engine.Review(m.ctx, m.userID, playlistID)
		return reviewLoadedMsg(state, err)
	}
}

func (m *Model) record(track models.Track, kept bool) tea.Cmd {
	in := tasks.DecisionInputFromTrack(m.review.Playlist.ID, track, kept)
	return func() tea.Msg {
		_, _, err := m.engine.Record(m.ctx, m.userID, in)
		return decisionRecordedMsg(kept, err)
	}
}

func (m *Model) startApply() tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 10)
	done := make(chan applyComplete, 1)
	m.progressChan = progress
	m.doneChan = done
	m.progress = tasks.ProgressUpdate{}

	playlistID := m.review.Playlist.ID
	go func() {
		result, err := m.engine.Apply(m.ctx, m.userID, playlistID, progress)
		done <- applyComplete{result, err}
		close(progress)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.doneChan
	return func() tea.Msg {
		if progress == nil {
			return applyCompleteMsg(nil, nil)
		}

		update, ok := <-progress
		if !ok {
			outcome := <-done
			return applyCompleteMsg(outcome.result, outcome.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderError() string {
	if m.err == nil {
		return ""
	}
	return "\n" + styles.err.Render(fmt.Sprintf("Error: %v", m.err)) + "\n"
}

func (m *Model) renderPlaylistList() string {
	helpView := m.help.ShortHelpView(m.keys.forView(PlaylistListView, false))
	return fmt.Sprintf("%s%s\n\n%s", m.playlistList.View(), m.renderError(), helpView)
}

func (m *Model) renderReview() string {
	s := m.review
	title := styles.title.Render(s.Playlist.Name)
	progress := styles.tally(s.ProcessedCount, s.TotalCount, s.KeptCount, s.RemovedCount)

	track, ok := m.current()
	if !ok {
		var body string
		switch {
		case !s.HasTracks:
			body = styles.warn.Render("This playlist has no tracks.")
		default:
			body = styles.ok.Render("✓ All caught up!")
		}
		helpView := m.help.ShortHelpView(m.keys.forView(ReviewView, false))
		return fmt.Sprintf("%s\n%s\n\n%s\n%s\n%s", title, progress, body, m.renderError(), helpView)
	}

	var card strings.Builder
	fmt.Fprintf(&card, "%s\n%s", styles.ok.Render(track.Name), track.ArtistLine())
	if track.Album != "" {
		fmt.Fprintf(&card, "\n%s", styles.help.Render(track.Album))
	}
	if track.ExternalURL != "" {
		fmt.Fprintf(&card, "\n\n%s", track.ExternalURL)
	}

	status := fmt.Sprintf("Track %d of %d pending", m.cursor+1, len(s.Pending))
	if m.saving {
		status = "Saving..."
	}

	helpView := m.help.ShortHelpView(m.keys.forView(ReviewView, true))
	return fmt.Sprintf("%s\n%s\n\n%s\n%s\n%s\n%s",
		title, progress, styles.card.Render(card.String()), status, m.renderError(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Apply removals to '%s'?", m.review.Playlist.Name))
	info := fmt.Sprintf("Tracks marked for removal will be deleted from the Spotify playlist.\nMarked this session: %d",
		m.review.RemovedCount)

	helpView := m.help.ShortHelpView(m.keys.forView(ConfirmView, false))
	return fmt.Sprintf("%s\n%s\n\n%s", title, info, helpView)
}

func (m *Model) renderApply() string {
	title := styles.title.Render("Applying removals")

	phase := "Starting..."
	if m.progress.Total > 0 {
		phase = fmt.Sprintf("[%d/%d] %s", m.progress.Step, m.progress.Total, m.progress.Message)
	}
	return fmt.Sprintf("%s\n%s", title, phase)
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView(m.keys.forView(ResultView, false))

	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s",
			styles.err.Render(fmt.Sprintf("Apply failed: %v\nYour decisions are kept; you can try again.", m.err)), helpView)
	}
	if m.result == nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render("No result available"), helpView)
	}
	return fmt.Sprintf("%s\n\n%s", styles.ok.Render("✓ "+m.result.Message), helpView)
}
