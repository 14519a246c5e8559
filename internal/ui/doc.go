// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks through reviewing one playlist at a time:
//  1. [PlaylistListView] : Browse the user's Spotify playlists
//  2. [ReviewView] : Keep, remove, or skip the next pending track
//  3. [ConfirmView] : Confirm pushing the removals to Spotify
//  4. [ApplyView] : Show progress while removals are applied
//  5. [ResultView] : Show the outcome
//
// The [Model] drives the same engine as the HTTP API, so decisions made here show up there.
// Messages arrive through the Msg union type; apply progress flows through a channel from the engine.
package ui
