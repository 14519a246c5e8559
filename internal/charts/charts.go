package charts

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/prune/internal/metrics"
	"github.com/desertthunder/prune/internal/models"
	"github.com/desertthunder/prune/internal/services"
	"github.com/desertthunder/prune/internal/shared"
)

// NoChartMessage is reported when every strategy came up empty.
const NoChartMessage = "Could not fetch charts"

// Strategy labels reported to metrics.
const (
	StrategyRegistered = "registered"
	StrategySearch     = "search"
	StrategyAlternate  = "alternate"
	StrategyFallback   = "fallback"
	StrategyNone       = "none"
)

// Source is the slice of the Spotify API chart discovery needs.
type Source interface {
	PlaylistTracksPage(ctx context.Context, userID, playlistID string, limit int) ([]models.Track, error)
	SearchPlaylists(ctx context.Context, userID, query string, limit int) ([]models.Playlist, error)
}

// Discovery finds a country's most charted artists.
type Discovery struct {
	source  Source
	config  Config
	metrics metrics.Recorder
	logger  *log.Logger
}

// DiscoveryOpts holds the optional collaborators of a [Discovery].
type DiscoveryOpts struct {
	Metrics metrics.Recorder
	Logger  *log.Logger
}

// NewDiscovery creates a Discovery over source using config.
func NewDiscovery(source Source, config Config, opts DiscoveryOpts) *Discovery {
	if opts.Metrics == nil {
		opts.Metrics = metrics.Noop{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Discovery{
		source:  source,
		config:  config,
		metrics: opts.Metrics,
		logger:  shared.WithLogger(opts.Logger, "component", "charts"),
	}
}

// Countries lists the country codes with a registered chart playlist, in configuration order.
func (d *Discovery) Countries() []string {
	codes := make([]string, 0, len(d.config.Charts))
	for _, ch := range d.config.Charts {
		codes = append(codes, ch.Country)
	}
	return codes
}

// Name returns the display name of country, or the code itself when none is configured.
func (d *Discovery) Name(country string) string {
	country = strings.ToUpper(country)
	if name, ok := d.config.Names[country]; ok {
		return name
	}
	if country == "GLOBAL" {
		return "Global"
	}
	return country
}

// TopArtists returns the most frequent artists on the best chart found for country.
//
// Strategies run in order and the first non-empty track list wins:
//  1. the registered chart playlist for the country
//  2. a "Top 50 <name>" playlist search filtered by keyword and size
//  3. alternate search queries filtered by size
//  4. the fallback playlists (HasChart is false)
//
// Spotify API errors only end the current strategy. Rate limits, credential and transport
// failures are returned as errors. When nothing is found the result carries [NoChartMessage].
func (d *Discovery) TopArtists(ctx context.Context, userID, country string) (*models.ChartResult, error) {
	country = strings.ToUpper(strings.TrimSpace(country))
	if country == "" {
		return nil, fmt.Errorf("%w: country code is required", shared.ErrInvalidInput)
	}

	logger := d.logger.With("user", userID, "country", country)
	result := &models.ChartResult{Country: country, Artists: []models.ArtistCount{}}

	tracks, strategy, err := d.find(ctx, userID, country)
	if err != nil {
		return nil, err
	}
	d.metrics.RecordChartLookup(strategy)

	switch strategy {
	case StrategyNone:
		logger.Warn("no chart found")
		result.Error = NoChartMessage
	case StrategyFallback:
		result.Artists = CountArtists(tracks, d.config.TopN)
	default:
		result.HasChart = true
		result.Artists = CountArtists(tracks, d.config.TopN)
	}

	logger.Debug("chart lookup", "strategy", strategy, "artists", len(result.Artists))
	return result, nil
}

func (d *Discovery) find(ctx context.Context, userID, country string) ([]models.Track, string, error) {
	if id, ok := d.config.playlistFor(country); ok {
		tracks, err := d.tracks(ctx, userID, id)
		if err != nil || len(tracks) > 0 {
			return tracks, StrategyRegistered, err
		}
	}

	if name, ok := d.config.Names[country]; ok && name != "" {
		tracks, err := d.searchPrimary(ctx, userID, name)
		if err != nil || len(tracks) > 0 {
			return tracks, StrategySearch, err
		}

		tracks, err = d.searchAlternates(ctx, userID, name)
		if err != nil || len(tracks) > 0 {
			return tracks, StrategyAlternate, err
		}
	}

	for _, id := range d.config.FallbackIDs {
		tracks, err := d.tracks(ctx, userID, id)
		if err != nil || len(tracks) > 0 {
			return tracks, StrategyFallback, err
		}
	}
	return nil, StrategyNone, nil
}

func (d *Discovery) searchPrimary(ctx context.Context, userID, name string) ([]models.Track, error) {
	query := fmt.Sprintf(d.config.PrimaryTemplate, name)
	candidates, err := d.search(ctx, userID, query, d.config.PrimaryLimit)
	if err != nil {
		return nil, err
	}

	for _, p := range candidates {
		if p.TrackCount >= d.config.MinTracks && d.hasKeyword(p.Name) {
			return d.tracks(ctx, userID, p.ID)
		}
	}
	return nil, nil
}

func (d *Discovery) searchAlternates(ctx context.Context, userID, name string) ([]models.Track, error) {
	for _, tmpl := range d.config.AlternateTemplates {
		candidates, err := d.search(ctx, userID, fmt.Sprintf(tmpl, name), d.config.AlternateLimit)
		if err != nil {
			return nil, err
		}

		idx := slices.IndexFunc(candidates, func(p models.Playlist) bool {
			return p.TrackCount >= d.config.MinTracks
		})
		if idx < 0 {
			continue
		}

		tracks, err := d.tracks(ctx, userID, candidates[idx].ID)
		if err != nil || len(tracks) > 0 {
			return tracks, err
		}
	}
	return nil, nil
}

func (d *Discovery) hasKeyword(name string) bool {
	name = strings.ToLower(name)
	return slices.ContainsFunc(d.config.Keywords, func(k string) bool {
		return strings.Contains(name, k)
	})
}

func (d *Discovery) tracks(ctx context.Context, userID, playlistID string) ([]models.Track, error) {
	tracks, err := d.source.PlaylistTracksPage(ctx, userID, playlistID, d.config.TrackLimit)
	return tracks, d.soften(err, "playlist", playlistID)
}

func (d *Discovery) search(ctx context.Context, userID, query string, limit int) ([]models.Playlist, error) {
	playlists, err := d.source.SearchPlaylists(ctx, userID, query, limit)
	return playlists, d.soften(err, "query", query)
}

// soften drops Spotify API errors so the caller moves on to its next strategy.
func (d *Discovery) soften(err error, key, value string) error {
	var apiErr *services.APIError
	if errors.As(err, &apiErr) {
		d.logger.Debug("chart strategy failed", key, value, "status", apiErr.Status)
		return nil
	}
	return err
}

// CountArtists tallies artist appearances across tracks, one per credited artist, and returns
// the top n by count. Ties keep first-seen order.
func CountArtists(tracks []models.Track, n int) []models.ArtistCount {
	counts := []models.ArtistCount{}
	index := map[string]int{}

	for _, t := range tracks {
		for _, name := range t.Artists {
			if name == "" {
				continue
			}
			if i, ok := index[name]; ok {
				counts[i].Count++
				continue
			}
			index[name] = len(counts)
			counts = append(counts, models.ArtistCount{Name: name, Count: 1})
		}
	}

	slices.SortStableFunc(counts, func(a, b models.ArtistCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}
