package auth

import (
	"net/http"
	"strings"

	"github.com/portier-auth/portier/pkg/debug"
	"github.com/portier-auth/portier/pkg/observability"
)

// Requirement says what a route demands of a request.
type Requirement int

const (
	// Authenticated routes reject anonymous requests. This is the default
	// for any path no rule matches.
	Authenticated Requirement = iota

	// Public routes admit anonymous requests.
	Public
)

// Rule pairs a path pattern with a requirement. Patterns ending in "/"
// match the subtree by prefix; all other patterns match the path exactly.
type Rule struct {
	Pattern     string
	Requirement Requirement
}

// Policy is the route policy table. It is immutable after NewPolicy and
// shared read-only across all concurrent requests.
type Policy struct {
	rules []Rule
}

// NewPolicy builds a policy from the given rules. The slice is copied.
func NewPolicy(rules []Rule) *Policy {
	p := &Policy{rules: make([]Rule, len(rules))}
	copy(p.rules, rules)
	return p
}

// PublicRoutes is a convenience constructor: the listed patterns are public
// and everything else requires authentication.
func PublicRoutes(patterns ...string) *Policy {
	rules := make([]Rule, 0, len(patterns))
	for _, pat := range patterns {
		rules = append(rules, Rule{Pattern: pat, Requirement: Public})
	}
	return NewPolicy(rules)
}

// RequirementFor returns the requirement of the most specific (longest)
// matching pattern. Unmatched paths require authentication.
func (p *Policy) RequirementFor(path string) Requirement {
	req := Authenticated
	best := -1
	for _, rule := range p.rules {
		if !patternMatches(rule.Pattern, path) {
			continue
		}
		if len(rule.Pattern) > best {
			best = len(rule.Pattern)
			req = rule.Requirement
		}
	}
	return req
}

func patternMatches(pattern, path string) bool {
	if pattern == "" {
		return false
	}
	if strings.HasSuffix(pattern, "/") {
		return strings.HasPrefix(path, pattern) || path == strings.TrimSuffix(pattern, "/")
	}
	return path == pattern
}

// Require creates the enforcement middleware. An anonymous request to a
// route that requires authentication is rejected before it reaches any
// handler with a bare 401: no body, no hint of whether the route exists or
// why the token was rejected.
func Require(policy *Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if policy.RequirementFor(r.URL.Path) == Authenticated && IdentityFromContext(r.Context()) == nil {
				debug.Log("policy", "anonymous request to protected route",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				observability.PolicyRejectedTotal.Inc()
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
