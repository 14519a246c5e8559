package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	enter   key.Binding
	back    key.Binding
	keep    key.Binding
	remove  key.Binding
	skip    key.Binding
	apply   key.Binding
	yes     key.Binding
	no      key.Binding
	restart key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "review")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		keep:    key.NewBinding(key.WithKeys("k", "right"), key.WithHelp("k/→", "keep")),
		remove:  key.NewBinding(key.WithKeys("x", "left"), key.WithHelp("x/←", "remove")),
		skip:    key.NewBinding(key.WithKeys("s", "down"), key.WithHelp("s", "skip")),
		apply:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "apply removals")),
		yes:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "no")),
		restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "playlists")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// forView returns the bindings shown in the help line of v.
//
// The review view without a current track offers only navigation.
func (k keyMap) forView(v ViewState, reviewing bool) []key.Binding {
	switch v {
	case PlaylistListView:
		return []key.Binding{k.enter, k.quit}
	case ReviewView:
		if !reviewing {
			return []key.Binding{k.apply, k.back, k.quit}
		}
		return []key.Binding{k.keep, k.remove, k.skip, k.apply, k.back, k.quit}
	case ConfirmView:
		return []key.Binding{k.yes, k.no}
	case ResultView:
		return []key.Binding{k.restart, k.quit}
	default:
		return nil
	}
}
