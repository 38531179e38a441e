package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPolicy_RequirementFor(t *testing.T) {
	policy := NewPolicy([]Rule{
		{Pattern: "/v1/signup", Requirement: Public},
		{Pattern: "/v1/login", Requirement: Public},
		{Pattern: "/healthz", Requirement: Public},
		{Pattern: "/docs/", Requirement: Public},
		{Pattern: "/docs/internal/", Requirement: Authenticated},
	})

	tests := []struct {
		path string
		want Requirement
	}{
		{"/v1/signup", Public},
		{"/v1/login", Public},
		{"/healthz", Public},
		{"/v1/users", Authenticated},          // no rule -> default
		{"/v1/signup/extra", Authenticated},   // exact patterns do not match subpaths
		{"/V1/signup", Authenticated},         // case-sensitive
		{"/docs/guide", Public},               // prefix rule
		{"/docs", Public},                     // subtree root
		{"/docs/internal/ops", Authenticated}, // longest match wins
		{"/", Authenticated},
		{"", Authenticated},
	}
	for _, tt := range tests {
		if got := policy.RequirementFor(tt.path); got != tt.want {
			t.Errorf("RequirementFor(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestPolicy_OrderIndependent(t *testing.T) {
	a := NewPolicy([]Rule{
		{Pattern: "/docs/", Requirement: Public},
		{Pattern: "/docs/internal/", Requirement: Authenticated},
	})
	b := NewPolicy([]Rule{
		{Pattern: "/docs/internal/", Requirement: Authenticated},
		{Pattern: "/docs/", Requirement: Public},
	})

	for _, path := range []string{"/docs/guide", "/docs/internal/ops"} {
		if a.RequirementFor(path) != b.RequirementFor(path) {
			t.Errorf("rule order changed the decision for %q", path)
		}
	}
}

func TestPublicRoutes(t *testing.T) {
	policy := PublicRoutes("/v1/signup", "/v1/login")

	if got := policy.RequirementFor("/v1/signup"); got != Public {
		t.Errorf("signup = %v, want Public", got)
	}
	if got := policy.RequirementFor("/v1/users"); got != Authenticated {
		t.Errorf("users = %v, want Authenticated", got)
	}
}

func TestNewPolicy_CopiesRules(t *testing.T) {
	rules := []Rule{{Pattern: "/v1/login", Requirement: Public}}
	policy := NewPolicy(rules)

	rules[0].Requirement = Authenticated

	if got := policy.RequirementFor("/v1/login"); got != Public {
		t.Error("mutating the input slice changed the policy")
	}
}

func TestRequire(t *testing.T) {
	policy := PublicRoutes("/v1/login")

	var reached bool
	handler := Require(policy)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	tests := []struct {
		name       string
		path       string
		identity   *Identity
		wantStatus int
		wantNext   bool
	}{
		{"anonymous to public", "/v1/login", nil, http.StatusOK, true},
		{"anonymous to protected", "/v1/users", nil, http.StatusUnauthorized, false},
		{"authenticated to protected", "/v1/users", &Identity{Subject: "alice@example.com"}, http.StatusOK, true},
		{"authenticated to public", "/v1/login", &Identity{Subject: "alice@example.com"}, http.StatusOK, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached = false
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.identity != nil {
				req = req.WithContext(SetIdentity(req.Context(), tt.identity))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if reached != tt.wantNext {
				t.Errorf("handler reached = %v, want %v", reached, tt.wantNext)
			}
		})
	}
}

func TestRequire_RejectionHasNoBody(t *testing.T) {
	handler := Require(NewPolicy(nil))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/users", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}
}
