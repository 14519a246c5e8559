// Package charts finds the artists dominating a country's Spotify charts.
//
// Editorial Top 50 playlist ids and country names are static tables; see [DefaultConfig].
package charts
