// Package auth provides request authentication for portier.
//
// Authentication is split into two pipeline stages. The Gate middleware
// inspects the Authorization header, validates the bearer token, checks the
// principal against the credential store, and attaches an Identity to the
// request context on success. The Gate never rejects a request: its outcome
// is binary, Authenticated or Anonymous. The Require middleware then applies
// the route policy and rejects anonymous requests to protected routes with a
// bare 401.
//
// The identity travels as an explicit request-scoped context value, never
// through process-wide mutable state, and is discarded at request end.
package auth
