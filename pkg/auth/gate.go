package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/portier-auth/portier/pkg/auth/token"
	"github.com/portier-auth/portier/pkg/debug"
	"github.com/portier-auth/portier/pkg/identity"
	"github.com/portier-auth/portier/pkg/observability"
)

// bearerPrefix is the exact scheme prefix: case-sensitive, one space.
const bearerPrefix = "Bearer "

// TokenValidator validates a presented bearer token and returns its claims.
type TokenValidator interface {
	Validate(token string) (token.Claims, error)
}

// Gate creates the authentication middleware. It runs once per request,
// before the target handler, and always forwards the request: every failure
// path simply leaves the request anonymous. Whether an anonymous request is
// admitted is decided later by Require.
//
// Per-request state machine:
//
//	no header / wrong scheme                -> Anonymous
//	header + valid token + active principal -> Authenticated
//	header + anything else                  -> Anonymous
func Gate(validator TokenValidator, store identity.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Idempotency guard: a second invocation must not re-run
			// validation or replace an attached identity.
			if IdentityFromContext(r.Context()) != nil {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, bearerPrefix) {
				observability.AuthOutcomesTotal.WithLabelValues("anonymous").Inc()
				next.ServeHTTP(w, r)
				return
			}

			raw := strings.TrimPrefix(header, bearerPrefix)

			claims, err := validator.Validate(raw)
			if err != nil {
				// Malformed, forged, and expired tokens are all collapsed
				// into the anonymous outcome; nothing propagates to the
				// handler layer and nothing is distinguished to the caller.
				debug.Log("auth", "bearer token rejected",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"token", debug.Truncate(raw, 12),
					"error", err,
				)
				observability.AuthOutcomesTotal.WithLabelValues("anonymous").Inc()
				next.ServeHTTP(w, r)
				return
			}

			// The token is self-contained, but the principal behind it must
			// still exist and be active. The lookup runs on the request's
			// own context so it shares its timeout and cancellation.
			res := store.Lookup(r.Context(), claims.Subject)
			switch res.Status {
			case identity.StatusFound:
				ctx := SetIdentity(r.Context(), &Identity{Subject: res.Principal.Email})
				debug.Log("auth", "request authenticated",
					"subject", res.Principal.Email,
					"path", r.URL.Path,
				)
				observability.AuthOutcomesTotal.WithLabelValues("authenticated").Inc()
				next.ServeHTTP(w, r.WithContext(ctx))
				return

			case identity.StatusError:
				// A slow or failing credential store fails closed: the
				// request proceeds anonymous rather than surfacing an
				// infrastructure error as a security decision.
				slog.Warn("credential store lookup failed, treating request as anonymous",
					"path", r.URL.Path,
					"error", res.Err,
				)

			default:
				// StatusNotFound, StatusInactive.
				debug.Log("auth", "token subject not authenticatable",
					"path", r.URL.Path,
					"status", res.Status,
				)
			}

			observability.AuthOutcomesTotal.WithLabelValues("anonymous").Inc()
			next.ServeHTTP(w, r)
		})
	}
}
