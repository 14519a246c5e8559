// Package tasks runs the playlist review workflow on top of Spotify and the decision ledger.
//
// # Review
//
// [PlaylistEngine.Review] merges a playlist's live tracks with the recorded verdicts into a
// [ReviewState]: the tracks still pending, plus the total and processed counts shown as progress.
// Verdicts are written with [PlaylistEngine.Record], flipped back with
// [PlaylistEngine.Reconsider], and kept verdicts are forgotten with [PlaylistEngine.ResetProgress].
//
// # Reconciliation
//
// [PlaylistEngine.Apply] removes the recorded removals from the Spotify playlist and only then
// clears them from the ledger. The returned [ApplyResult] names the playlist whose listed count is
// stale; hand it to the next [PlaylistEngine.Dashboard] call. [PlaylistEngine.BulkApply] does the
// same for several playlists with a small worker pool.
//
// # Progress Reporting
//
// Apply and BulkApply accept an optional channel of [ProgressUpdate]. Sends never block: a full
// channel drops the update.
package tasks
