package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

const (
	spotifyGreen = lipgloss.Color("#1DB954")
	keepGreen    = lipgloss.Color("#04B575")
	removeRed    = lipgloss.Color("#FF5F5F")
	amber        = lipgloss.Color("#FFA500")
	muted        = lipgloss.Color("#626262")
)

var styles = newTheme()

// theme holds the named styles of every view.
type theme struct {
	title  lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	help   lipgloss.Style
	card   lipgloss.Style
	keep   lipgloss.Style
	remove lipgloss.Style
}

func newTheme() *theme {
	return &theme{
		title: bold(spotifyGreen).MarginBottom(1),
		ok:    bold(keepGreen),
		err:   bold(removeRed),
		warn:  fg(amber),
		help:  fg(muted).Italic(true),
		card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(spotifyGreen).
			Padding(1, 2),
		keep:   fg(keepGreen),
		remove: fg(removeRed),
	}
}

// tally renders the review counters with kept and removing colored by verdict.
func (t *theme) tally(processed, total, kept, removing int) string {
	return fmt.Sprintf("Reviewed %d of %d • %s • %s",
		processed, total,
		t.keep.Render(fmt.Sprintf("kept %d", kept)),
		t.remove.Render(fmt.Sprintf("removing %d", removing)),
	)
}

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

func bold(c lipgloss.Color) lipgloss.Style {
	return fg(c).Bold(true)
}
