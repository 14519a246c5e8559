// Package models defines domain entities and persistence interfaces for prune.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): lightweight structs mapped from Spotify responses
//   - [Playlist] : playlist metadata with a live track count
//   - [Track] : a playable item inside a playlist
//   - [Profile] : the connected Spotify account
//   - [ChartResult] : top artists for a country chart
//   - [GeoResult] : market availability for a playlist
//
// 2. Persistent Entities: rows owned by the local database
//   - [Credential] : one Spotify OAuth credential per local user
//   - [Decision] : a keep/remove verdict for one track in one playlist
//
// [CredentialStore] and [DecisionStore] describe the persistence operations the service layer relies on;
// sqlite implementations live in internal/repositories.
package models
