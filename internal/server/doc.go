// Package server exposes the playlist REST API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation registers "METHOD /path/{param}" patterns on [http.ServeMux].
// Each [Handler] returns its [Route] list; routes may carry their own middleware, which is how
// [Authenticate] is attached to everything except registration, login, /healthz and /metrics.
//
// # Request Flow
//
// Authentication completes before any playlist lookup. Playlist routes then load the target,
// answer 404 for a malformed or unknown ID, answer 403 when the caller is not the owner,
// and only then mutate.
//
// # Errors
//
// Handlers return errors through writeError, which maps them to status codes:
//   - [auth.ErrUnauthenticated] : 401 with one generic message for every cause
//   - [auth.ErrForbidden] : 403
//   - [auth.ErrNotFound], [shared.ErrNotFound] : 404
//   - [auth.ErrValidation] and invalid input sentinels : 400
//   - [shared.ErrExternalService] : 502
//   - anything else : 500
//
// The internal cause is logged with charmbracelet/log; the response body only carries {"message": ...}.
//
// # Metrics
//
// [Metrics] registers request counters and latency histograms labelled by route pattern,
// plus gauges for the Spotify token broker, on a caller-supplied Prometheus registry served at /metrics.
package server
