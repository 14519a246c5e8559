// Package services talks to the Spotify Web API on behalf of a local user.
//
// # Credentials
//
// [TokenRefresher] owns the OAuth2 side: building the authorize URL, exchanging an authorization
// code for a [models.Credential], and trading a refresh token for a new access token. Exactly one
// token endpoint call is made per refresh and the result is written back to the credential store.
//
// # Authorized requests
//
// [Client] resolves the caller's credential, refreshes it when expired, and issues a single
// request with a Bearer token. It never retries. Failures surface as:
//   - [shared.ErrNoCredential] : the user has not connected Spotify
//   - [*AuthExchangeError] : the token endpoint rejected a refresh or code exchange
//   - [*RateLimitError] : Spotify answered 429; the message carries the formatted wait
//   - [*APIError] : any other non-2xx answer, with status and body
//
// Outbound calls are paced by a [rate.Limiter] before they are sent. Pacing only delays; a 429 is
// still reported to the caller.
//
// # Pagination
//
// [FetchAll] follows the `next` cursor of Spotify paging objects until it is null and returns the
// concatenated items, or nothing at all if any page fails.
//
// # API Mappings
//
// [SpotifyService] decodes responses into the zmb3/spotify wire types and maps them to
// [models.Playlist], [models.Track] and [models.Profile].
package services
