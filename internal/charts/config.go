package charts

import (
	"slices"

	"github.com/desertthunder/prune/internal/shared"
)

// GlobalPlaylistID is Spotify's editorial "Top 50 - Global" playlist.
const GlobalPlaylistID = "37i9dQZEVXbMDoHDwVN2tF"

// Chart is a country with a known editorial Top 50 playlist.
type Chart struct {
	Country    string
	PlaylistID string
}

// Config drives chart discovery. Build one with [DefaultConfig]; the zero value finds nothing.
type Config struct {
	// Charts is ordered; it is also the order [Discovery.Countries] reports.
	Charts []Chart
	// Names maps an upper-case country code to the name used in search queries.
	Names map[string]string

	PrimaryTemplate string // PrimaryTemplate is formatted with the country name, e.g. "Top 50 %s".
	PrimaryLimit    int
	Keywords        []string // Keywords: a primary candidate's lower-cased name must contain one.

	AlternateTemplates []string
	AlternateLimit     int

	MinTracks   int
	TrackLimit  int
	TopN        int
	FallbackIDs []string
}

var defaultCharts = []Chart{
	{"US", "37i9dQZEVXbLRQDuF5jeBp"},
	{"GB", "37i9dQZEVXbLnolsZ8PSNw"},
	{"CA", "37i9dQZEVXbKj23U1GF4IR"},
	{"AU", "37i9dQZEVXbJPcfkRz0wJ0"},
	{"DE", "37i9dQZEVXbJiZcmkrIHGU"},
	{"FR", "37i9dQZEVXbIPWwFssbupI"},
	{"ES", "37i9dQZEVXbNFJfN1Vw8d9"},
	{"IT", "37i9dQZEVXbIQnj7RRhdSX"},
	{"BR", "37i9dQZEVXbMXbN3EUUhlg"},
	{"MX", "37i9dQZEVXbO3qyFxbkOE1"},
	{"JP", "37i9dQZEVXbKXQ4mDTEBXq"},
	{"GLOBAL", GlobalPlaylistID},
}

var defaultNames = map[string]string{
	"US": "USA", "GB": "UK", "CA": "Canada", "AU": "Australia",
	"DE": "Germany", "FR": "France", "ES": "Spain", "IT": "Italy",
	"BR": "Brazil", "MX": "Mexico", "JP": "Japan", "KR": "South Korea",
	"IN": "India", "AR": "Argentina", "NL": "Netherlands", "SE": "Sweden",
	"NO": "Norway", "DK": "Denmark", "FI": "Finland", "PL": "Poland",
	"PT": "Portugal", "IE": "Ireland", "NZ": "New Zealand", "ZA": "South Africa",
	"PH": "Philippines", "ID": "Indonesia", "TH": "Thailand", "TR": "Turkey",
	"UA": "Ukraine", "RO": "Romania", "HU": "Hungary", "CZ": "Czechia",
	"GR": "Greece", "IL": "Israel", "EG": "Egypt", "SA": "Saudi Arabia",
	"AE": "UAE", "CH": "Switzerland", "AT": "Austria", "BE": "Belgium",
	"CL": "Chile", "CO": "Colombia", "PE": "Peru", "VE": "Venezuela",
}

// DefaultConfig returns a fresh copy of the built-in chart tables.
func DefaultConfig() Config {
	names := make(map[string]string, len(defaultNames))
	for k, v := range defaultNames {
		names[k] = v
	}

	return Config{
		Charts:          slices.Clone(defaultCharts),
		Names:           names,
		PrimaryTemplate: "Top 50 %s",
		PrimaryLimit:    10,
		Keywords:        []string{"top", "chart", "hits"},
		AlternateTemplates: []string{
			"%s top hits",
			"%s charts 2024",
			"top songs %s",
		},
		AlternateLimit: 5,
		MinTracks:      20,
		TrackLimit:     50,
		TopN:           10,
		FallbackIDs:    []string{GlobalPlaylistID},
	}
}

// WithOverrides applies the TOML-configurable settings. Unset values keep the defaults.
func (c Config) WithOverrides(o shared.ChartsConfig) Config {
	if len(o.FallbackPlaylistIDs) > 0 {
		c.FallbackIDs = slices.Clone(o.FallbackPlaylistIDs)
	}
	if o.MinTracks > 0 {
		c.MinTracks = o.MinTracks
	}
	if o.TopArtists > 0 {
		c.TopN = o.TopArtists
	}
	return c
}

func (c Config) playlistFor(country string) (string, bool) {
	for _, ch := range c.Charts {
		if ch.Country == country {
			return ch.PlaylistID, ch.PlaylistID != ""
		}
	}
	return "", false
}
