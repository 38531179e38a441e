// Package http serves the portier API over HTTP.
//
// The adapter deserializes incoming JSON requests into the types defined in
// pkg/api, dispatches them to the account service, and serializes results
// back to the client. Routing uses net/http with Go 1.22+ ServeMux method
// patterns.
//
// Authentication is not decided here: the authentication gate and the route
// policy enforcement from pkg/auth are installed as middleware around the
// adapter by the caller, so every handler in this package can assume that
// an anonymous request reaching it was allowed to be anonymous.
//
// The Server type wraps http.Server and manages the full lifecycle
// including graceful shutdown on SIGINT/SIGTERM.
package http
