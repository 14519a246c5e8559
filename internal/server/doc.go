// Package server provides the HTTP surface of prune: chi routing, session identity, the Spotify
// OAuth routes, and the JSON API over the playlist engine.
//
// # Identity
//
// Account management lives outside prune. A request names its user with an HS256 session token,
// minted by [Sessions.Issue] (see `prune session`), sent as the prune_session cookie or a Bearer
// header. [Sessions.Middleware] puts the user id in the request context.
//
// # Spotify Authorization
//
// [AuthHandler.Connect] binds a fresh state token to the session user in a [StateStore] and
// redirects to Spotify. [AuthHandler.Callback] consumes the state, requires a code, and only then
// exchanges it for a credential. A state is single use and expires after [DefaultStateTTL].
//
// For the command line, [OAuthHandler] accepts one callback for a user and state known in
// advance and reports the outcome on a channel.
//
// # Errors
//
// Handlers map errors onto statuses in one place: a missing credential is 409, a failed or
// impossible refresh is 401, Spotify rate limits are 429 with Retry-After, other Spotify errors
// are 502, ledger misses are 404, and invalid input is 400. Bodies are JSON with error, message,
// and action fields.
//
// # Recently Modified Playlists
//
// Apply sets a short-lived prune_dirty cookie naming the playlist. The next dashboard read
// re-fetches that playlist's track count and clears the cookie.
package server
