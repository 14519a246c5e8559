package tasks

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/desertthunder/prune/internal/charts"
	"github.com/desertthunder/prune/internal/models"
	"github.com/desertthunder/prune/internal/shared"
)

const geoTopArtists = 5

// Markets are the ISO 3166-1 alpha-2 codes of the countries Spotify operates in, sorted.
var Markets = []string{
	"AD", "AE", "AF", "AG", "AL", "AM", "AO", "AR", "AT", "AU", "AZ",
	"BA", "BB", "BD", "BE", "BF", "BG", "BH", "BI", "BJ", "BN", "BO", "BR", "BS", "BT", "BW", "BY", "BZ",
	"CA", "CD", "CG", "CH", "CI", "CL", "CM", "CO", "CR", "CV", "CW", "CY", "CZ",
	"DE", "DJ", "DK", "DM", "DO", "DZ",
	"EC", "EE", "EG", "ES", "ET",
	"FI", "FJ", "FM", "FR",
	"GA", "GB", "GD", "GE", "GH", "GM", "GN", "GQ", "GR", "GT", "GW", "GY",
	"HK", "HN", "HR", "HT", "HU",
	"ID", "IE", "IL", "IN", "IQ", "IS", "IT",
	"JM", "JO", "JP",
	"KE", "KG", "KH", "KI", "KM", "KN", "KR", "KW", "KZ",
	"LA", "LB", "LC", "LI", "LK", "LR", "LS", "LT", "LU", "LV", "LY",
	"MA", "MC", "MD", "ME", "MG", "MH", "MK", "ML", "MM", "MN", "MO", "MR", "MT", "MU", "MV", "MW", "MX", "MY", "MZ",
	"NA", "NE", "NG", "NI", "NL", "NO", "NP", "NR", "NZ",
	"OM",
	"PA", "PE", "PG", "PH", "PK", "PL", "PS", "PT", "PW", "PY",
	"QA",
	"RO", "RS", "RU", "RW",
	"SA", "SB", "SC", "SE", "SG", "SI", "SK", "SL", "SM", "SN", "SO", "SR", "ST", "SV", "SZ",
	"TD", "TG", "TH", "TJ", "TL", "TN", "TO", "TR", "TT", "TV", "TW", "TZ",
	"UA", "UG", "US", "UY", "UZ",
	"VC", "VE", "VN", "VU",
	"WS",
	"XK",
	"ZA", "ZM", "ZW",
}

// Geo reports where a playlist's tracks are playable and the leading artists in each market.
//
// Tracks without a credited artist are ignored. Absence lists the Spotify markets where no
// track is playable.
func (e *PlaylistEngine) Geo(ctx context.Context, userID, playlistID string) (*models.GeoResult, error) {
	if strings.TrimSpace(playlistID) == "" {
		return nil, fmt.Errorf("%w: playlist id is required", shared.ErrInvalidInput)
	}

	tracks, err := e.spotify.PlaylistTracks(ctx, userID, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist tracks: %w", err)
	}
	return PlaylistGeo(playlistID, tracks), nil
}

// PlaylistGeo computes a [models.GeoResult] from a playlist's tracks.
func PlaylistGeo(playlistID string, tracks []models.Track) *models.GeoResult {
	byMarket := map[string][]models.Track{}
	for _, t := range tracks {
		if !slices.ContainsFunc(t.Artists, func(a string) bool { return a != "" }) {
			continue
		}
		for _, m := range t.AvailableMarkets {
			if m == "" {
				continue
			}
			byMarket[m] = append(byMarket[m], t)
		}
	}

	result := &models.GeoResult{
		PlaylistID: playlistID,
		Presence:   make([]string, 0, len(byMarket)),
		Absence:    []string{},
		TopArtists: make(map[string][]models.ArtistCount, len(byMarket)),
	}
	for m, marketTracks := range byMarket {
		result.Presence = append(result.Presence, m)
		result.TopArtists[m] = charts.CountArtists(marketTracks, geoTopArtists)
	}
	slices.Sort(result.Presence)

	for _, m := range Markets {
		if _, ok := byMarket[m]; !ok {
			result.Absence = append(result.Absence, m)
		}
	}
	return result
}
