// Package services wraps the Spotify Web API.
//
// # Token Broker
//
// [TokenBroker] owns the one app-level access token the service uses. It runs the OAuth2
// client-credentials grant (HTTP Basic client authentication, form body) through
// [clientcredentials.Config] and caches the result until its expires_in elapses.
//
// Concurrent callers that find the cache empty or expired share one exchange via [singleflight.Group];
// each waits on its own context. A failed exchange never touches the cached state, so a prior
// token stays usable until its own expiry and the next call retries.
//
// [TokenBroker.RemainingValiditySeconds] never goes below zero and reports [DefaultValiditySeconds]
// until a token has been cached.
//
// # Catalog
//
// [SpotifyCatalog] searches and fetches tracks using the broker's token and reshapes
// [SpotifyTrack] values into flat [models.Song] records.
//
// # Error Handling
//
// Failures use the shared sentinels:
//   - [shared.ErrTokenExchange] : the client-credentials exchange failed
//   - [shared.ErrCatalogRequest] : a search or track request failed or returned a non-2xx status
//   - [shared.ErrNotFound] : the catalog has no such track
//
// Both external sentinels wrap [shared.ErrExternalService]. Nothing here retries.
package services
