// package formatter renders playlists, review queues, decisions, charts, and geo reports as plain text, Markdown, or JSON
package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/desertthunder/prune/internal/models"
	"github.com/desertthunder/prune/internal/shared"
	"github.com/desertthunder/prune/internal/tasks"
)

// Format is an output format accepted by the CLI's --format flag.
type Format string

const (
	Text     Format = "text"
	Markdown Format = "markdown"
	JSON     Format = "json"
)

// Formats lists every supported [Format].
var Formats = []Format{Text, Markdown, JSON}

// ParseFormat validates s. An empty string selects [Text].
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return Text, nil
	case Text, Markdown, JSON:
		return f, nil
	case "md":
		return Markdown, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want text, markdown or json)", shared.ErrInvalidArgument, s)
	}
}

// Write renders v in format f to w.
func Write(w io.Writer, f Format, v any) error {
	data, err := Render(f, v)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// Render converts v to format f.
//
// JSON accepts any value. Text and Markdown accept the types produced by the playlist engine and
// chart discovery; anything else is an error.
func Render(f Format, v any) ([]byte, error) {
	if f == JSON {
		return ToJSON(v)
	}

	md := f == Markdown
	switch v := v.(type) {
	case *models.Profile:
		return profile(v, md), nil
	case []models.Playlist:
		return playlists(v, md), nil
	case *tasks.ReviewState:
		return review(v, md), nil
	case *tasks.Decisions:
		return decisions(v, md), nil
	case *tasks.ApplyResult:
		return applyResult(v, md), nil
	case *tasks.BulkApplyResult:
		return bulkApplyResult(v, md), nil
	case *models.ChartResult:
		return chart(v, md), nil
	case *models.GeoResult:
		return geo(v, md), nil
	case Countries:
		return countries(v, md), nil
	default:
		return nil, fmt.Errorf("%w: cannot render %T as %s", shared.ErrInvalidArgument, v, f)
	}
}

// Countries is the list of chart countries with their display names.
type Countries []Country

// Country is a chart country code and its display name.
type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// ToJSON pretty-prints v followed by a newline.
func ToJSON(v any) ([]byte, error) {
	if b, ok := v.(*tasks.BulkApplyResult); ok {
		v = bulkJSON(b)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

type bulkItemJSON struct {
	Playlist models.Playlist    `json:"playlist"`
	Result   *tasks.ApplyResult `json:"result,omitempty"`
	Error    string             `json:"error,omitempty"`
}

func bulkJSON(r *tasks.BulkApplyResult) any {
	items := make([]bulkItemJSON, 0, len(r.Items))
	for _, item := range r.Items {
		out := bulkItemJSON{Playlist: item.Playlist, Result: item.Result}
		if item.Error != nil {
			out.Error = item.Error.Error()
		}
		items = append(items, out)
	}
	return struct {
		Items        []bulkItemJSON `json:"items"`
		RemovedCount int            `json:"removed_count"`
		Failed       int            `json:"failed"`
	}{items, r.RemovedCount, r.Failed}
}

// heading writes a title as a Markdown heading or an underlined text heading.
func heading(buf *bytes.Buffer, md bool, level int, title string) {
	if md {
		fmt.Fprintf(buf, "%s %s\n\n", strings.Repeat("#", level), title)
		return
	}
	fmt.Fprintf(buf, "%s\n%s\n", title, strings.Repeat("=", len([]rune(title))))
}

// field writes a labelled value.
func field(buf *bytes.Buffer, md bool, label string, value any) {
	if md {
		fmt.Fprintf(buf, "**%s**: %v\n", label, value)
		return
	}
	fmt.Fprintf(buf, "%s: %v\n", label, value)
}

func visibility(public bool) string {
	if public {
		return "Public"
	}
	return "Private"
}

func profile(p *models.Profile, md bool) []byte {
	var buf bytes.Buffer
	heading(&buf, md, 1, p.DisplayName)
	field(&buf, md, "ID", p.ID)
	if p.Email != "" {
		field(&buf, md, "Email", p.Email)
	}
	if p.Country != "" {
		field(&buf, md, "Country", p.Country)
	}
	if p.Product != "" {
		field(&buf, md, "Plan", p.Product)
	}
	return buf.Bytes()
}

func playlists(items []models.Playlist, md bool) []byte {
	var buf bytes.Buffer
	heading(&buf, md, 1, "Playlists")
	fmt.Fprintf(&buf, "\nFound %d playlists\n\n", len(items))

	if md {
		buf.WriteString("| # | Name | Tracks | Visibility | ID |\n")
		buf.WriteString("|---|------|--------|------------|----|\n")
		for i, p := range items {
			fmt.Fprintf(&buf, "| %d | %s | %d | %s | `%s` |\n", i+1, escapeCell(p.Name), p.TrackCount, visibility(p.Public), p.ID)
		}
		return buf.Bytes()
	}

	for i, p := range items {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, p.Name)
		if p.Description != "" {
			fmt.Fprintf(&buf, "   Description: %s\n", p.Description)
		}
		fmt.Fprintf(&buf, "   ID: %s\n", p.ID)
		fmt.Fprintf(&buf, "   Tracks: %d\n", p.TrackCount)
		fmt.Fprintf(&buf, "   Visibility: %s\n\n", visibility(p.Public))
	}
	return buf.Bytes()
}

func review(s *tasks.ReviewState, md bool) []byte {
	var buf bytes.Buffer
	heading(&buf, md, 1, s.Playlist.Name)
	field(&buf, md, "Progress", fmt.Sprintf("%d/%d reviewed", s.ProcessedCount, s.TotalCount))
	field(&buf, md, "Kept", s.KeptCount)
	field(&buf, md, "Marked for removal", s.RemovedCount)
	buf.WriteString("\n")

	switch {
	case !s.HasTracks:
		buf.WriteString("This playlist has no tracks.\n")
		return buf.Bytes()
	case s.Done():
		buf.WriteString("Every track has been reviewed.\n")
		return buf.Bytes()
	}

	heading(&buf, md, 2, fmt.Sprintf("Pending (%d)", len(s.Pending)))
	tracks(&buf, md, s.Pending)
	return buf.Bytes()
}

func tracks(buf *bytes.Buffer, md bool, items []models.Track) {
	for i, t := range items {
		album := ""
		if t.Album != "" {
			album = fmt.Sprintf(" (%s)", t.Album)
		}
		if md {
			fmt.Fprintf(buf, "%d. %s - %s%s `%s`\n", i+1, t.ArtistLine(), t.Name, album, t.URI)
			continue
		}
		fmt.Fprintf(buf, "%d. %s - %s%s\n   %s\n", i+1, t.ArtistLine(), t.Name, album, t.URI)
	}
}

func decisions(d *tasks.Decisions, md bool) []byte {
	var buf bytes.Buffer
	heading(&buf, md, 1, "Decisions for "+d.PlaylistID)

	for _, group := range []struct {
		title string
		items []*models.Decision
	}{
		{"Kept", d.Kept},
		{"Marked for removal", d.Removed},
	} {
		buf.WriteString("\n")
		heading(&buf, md, 2, fmt.Sprintf("%s (%d)", group.title, len(group.items)))
		if len(group.items) == 0 {
			buf.WriteString("None\n")
			continue
		}
		for i, dec := range group.items {
			fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, strings.Join(dec.Artists, ", "), dec.Name)
		}
	}
	return buf.Bytes()
}

func applyResult(r *tasks.ApplyResult, md bool) []byte {
	var buf bytes.Buffer
	if md {
		fmt.Fprintf(&buf, "**%s**\n", r.Message)
	} else {
		fmt.Fprintf(&buf, "✓ %s\n", r.Message)
	}
	return buf.Bytes()
}

func bulkApplyResult(r *tasks.BulkApplyResult, md bool) []byte {
	var buf bytes.Buffer
	heading(&buf, md, 1, "Apply")

	for _, item := range r.Items {
		prefix := "✓"
		if md {
			prefix = "-"
		}

		switch {
		case item.Error != nil:
			if !md {
				prefix = "✗"
			}
			fmt.Fprintf(&buf, "%s %s: failed: %v\n", prefix, item.Playlist.Name, item.Error)
		case item.Result != nil:
			fmt.Fprintf(&buf, "%s %s: %s\n", prefix, item.Playlist.Name, item.Result.Message)
		}
	}

	buf.WriteString("\n")
	field(&buf, md, "Removed", r.RemovedCount)
	field(&buf, md, "Failed", r.Failed)
	return buf.Bytes()
}

func chart(c *models.ChartResult, md bool) []byte {
	var buf bytes.Buffer
	heading(&buf, md, 1, "Top artists in "+c.Country)

	if c.Error != "" {
		fmt.Fprintf(&buf, "%s\n", c.Error)
		return buf.Bytes()
	}
	if !c.HasChart {
		buf.WriteString("No official chart found; showing popular artists instead.\n\n")
	}
	artists(&buf, md, c.Artists)
	return buf.Bytes()
}

func artists(buf *bytes.Buffer, md bool, items []models.ArtistCount) {
	if md {
		buf.WriteString("| # | Artist | Tracks |\n|---|--------|--------|\n")
		for i, a := range items {
			fmt.Fprintf(buf, "| %d | %s | %d |\n", i+1, escapeCell(a.Name), a.Count)
		}
		return
	}
	for i, a := range items {
		fmt.Fprintf(buf, "%2d. %s (%d)\n", i+1, a.Name, a.Count)
	}
}

func geo(g *models.GeoResult, md bool) []byte {
	var buf bytes.Buffer
	heading(&buf, md, 1, "Availability of "+g.PlaylistID)
	field(&buf, md, "Available in", fmt.Sprintf("%d markets", len(g.Presence)))
	field(&buf, md, "Unavailable in", fmt.Sprintf("%d markets", len(g.Absence)))

	if len(g.Absence) > 0 {
		buf.WriteString("\n")
		heading(&buf, md, 2, "Unavailable")
		fmt.Fprintf(&buf, "%s\n", strings.Join(g.Absence, ", "))
	}

	if len(g.Presence) > 0 {
		buf.WriteString("\n")
		heading(&buf, md, 2, "Top artists by market")
		for _, market := range g.Presence {
			names := make([]string, 0, len(g.TopArtists[market]))
			for _, a := range g.TopArtists[market] {
				names = append(names, fmt.Sprintf("%s (%d)", a.Name, a.Count))
			}
			if md {
				fmt.Fprintf(&buf, "- **%s**: %s\n", market, strings.Join(names, ", "))
			} else {
				fmt.Fprintf(&buf, "%s: %s\n", market, strings.Join(names, ", "))
			}
		}
	}
	return buf.Bytes()
}

func countries(items Countries, md bool) []byte {
	var buf bytes.Buffer
	heading(&buf, md, 1, "Chart countries")
	for _, c := range items {
		if md {
			fmt.Fprintf(&buf, "- `%s` %s\n", c.Code, c.Name)
		} else {
			fmt.Fprintf(&buf, "%-7s %s\n", c.Code, c.Name)
		}
	}
	return buf.Bytes()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
