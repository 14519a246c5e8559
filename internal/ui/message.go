package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/prune/internal/models"
	"github.com/desertthunder/prune/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPlaylistsFetched MsgKind = iota
	MsgReviewLoaded
	MsgDecisionRecorded
	MsgProgressUpdate
	MsgApplyComplete
)

type playlistsFetched struct {
	playlists []models.Playlist
	err       error
}

type reviewLoaded struct {
	state *tasks.ReviewState
	err   error
}

type decisionRecorded struct {
	kept bool
	err  error
}

type applyComplete struct {
	result *tasks.ApplyResult
	err    error
}

// playlistsFetchedMsg is the constructor for [MsgPlaylistsFetched]
func playlistsFetchedMsg(playlists []models.Playlist, err error) Msg {
	return Msg{kind: MsgPlaylistsFetched, data: playlistsFetched{playlists, err}}
}

// reviewLoadedMsg is the constructor for [MsgReviewLoaded]
func reviewLoadedMsg(state *tasks.ReviewState, err error) Msg {
	return Msg{kind: MsgReviewLoaded, data: reviewLoaded{state, err}}
}

// decisionRecordedMsg is the constructor for [MsgDecisionRecorded]
func decisionRecordedMsg(kept bool, err error) Msg {
	return Msg{kind: MsgDecisionRecorded, data: decisionRecorded{kept, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// applyCompleteMsg is the constructor for [MsgApplyComplete]
func applyCompleteMsg(result *tasks.ApplyResult, err error) Msg {
	return Msg{kind: MsgApplyComplete, data: applyComplete{result, err}}
}
