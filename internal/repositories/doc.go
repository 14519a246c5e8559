// Package repositories implements SQLite persistence for prune's local state.
//
// Key Implementations:
//   - [CredentialRepository] : one Spotify OAuth credential per user, replaced atomically on every write
//   - [DecisionRepository] : the keep/remove ledger keyed by (user, playlist, track uri)
//
// Writes that could race (credential refresh, repeated decisions on the same track) are single
// INSERT ... ON CONFLICT statements, so concurrent writers never produce duplicate rows.
// Timestamps are stored in UTC.
package repositories
