package http

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/portier-auth/portier/pkg/account"
	"github.com/portier-auth/portier/pkg/api"
	"github.com/portier-auth/portier/pkg/auth"
	"github.com/portier-auth/portier/pkg/auth/token"
	"github.com/portier-auth/portier/pkg/identity/memory"
)

// newTestServer assembles the full request pipeline the way cmd/server
// does: gate, then policy enforcement, then the adapter.
func newTestServer(t *testing.T, lifetime time.Duration) (*httptest.Server, *token.Service, *memory.Store) {
	t.Helper()

	store := memory.New()
	tokens, err := token.New(token.Config{
		Secret:   base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x42}, 32)),
		Lifetime: lifetime,
	})
	if err != nil {
		t.Fatalf("token.New: %v", err)
	}

	accounts := account.New(store, tokens)
	adapter := NewAdapter(accounts, store, DefaultConfig())

	policy := auth.PublicRoutes("/v1/signup", "/v1/login", "/healthz")
	handler := auth.Gate(tokens, store)(auth.Require(policy)(adapter.Handler()))

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, tokens, store
}

func doJSON(t *testing.T, method, url, bearer string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}

func signupAndLogin(t *testing.T, srv *httptest.Server, email string) (api.User, string) {
	t.Helper()

	resp := doJSON(t, http.MethodPost, srv.URL+"/v1/signup", "", api.SignupRequest{
		Name:     "Alice Example",
		Email:    email,
		Password: "correct-horse",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status = %d", resp.StatusCode)
	}
	user := decodeBody[api.User](t, resp)

	resp = doJSON(t, http.MethodPost, srv.URL+"/v1/login", "", api.LoginRequest{
		Email:    email,
		Password: "correct-horse",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	login := decodeBody[api.LoginResponse](t, resp)

	return user, login.Token
}

func TestSignupLoginFlow(t *testing.T) {
	srv, _, _ := newTestServer(t, time.Hour)

	user, bearer := signupAndLogin(t, srv, "alice@example.com")

	if user.Email != "alice@example.com" || !user.Active {
		t.Errorf("user = %+v", user)
	}

	// Wire shape: three dot-separated base64url segments.
	if parts := strings.Split(bearer, "."); len(parts) != 3 {
		t.Errorf("token has %d segments, want 3", len(strings.Split(bearer, ".")))
	}

	// The token admits its holder to protected routes.
	resp := doJSON(t, http.MethodGet, srv.URL+"/v1/users/"+user.ID, bearer, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("authenticated get status = %d", resp.StatusCode)
	}
	got := decodeBody[api.User](t, resp)
	if got.ID != user.ID {
		t.Errorf("got.ID = %q, want %q", got.ID, user.ID)
	}
}

func TestSignup_Duplicate(t *testing.T) {
	srv, _, _ := newTestServer(t, time.Hour)

	signupAndLogin(t, srv, "alice@example.com")

	resp := doJSON(t, http.MethodPost, srv.URL+"/v1/signup", "", api.SignupRequest{
		Name:     "Other",
		Email:    "alice@example.com",
		Password: "another-pass",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
	errResp := decodeBody[api.ErrorResponse](t, resp)
	if errResp.Error == nil || errResp.Error.Type != api.ErrorTypeConflict {
		t.Errorf("error = %+v", errResp.Error)
	}
}

func TestSignup_InvalidJSON(t *testing.T) {
	srv, _, _ := newTestServer(t, time.Hour)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/signup", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	srv, _, _ := newTestServer(t, time.Hour)

	signupAndLogin(t, srv, "alice@example.com")

	resp := doJSON(t, http.MethodPost, srv.URL+"/v1/login", "", api.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestProtectedRoutes_RejectAnonymous(t *testing.T) {
	srv, _, _ := newTestServer(t, time.Hour)

	resp := doJSON(t, http.MethodGet, srv.URL+"/v1/users", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}

	// Rejection is a bare status with no body.
	body, _ := io.ReadAll(resp.Body)
	if len(body) != 0 {
		t.Errorf("body = %q, want empty", body)
	}
}

// TestRejectionsAreUniform verifies an expired token, a forged token, and
// no token at all produce the same response on a protected route.
func TestRejectionsAreUniform(t *testing.T) {
	srv, _, _ := newTestServer(t, time.Second)

	_, bearer := signupAndLogin(t, srv, "alice@example.com")
	expired := waitForExpiry(t, srv, bearer)

	// Replace the last signature character with one whose significant
	// base64 bits are guaranteed to differ.
	flip := "A"
	if strings.HasSuffix(bearer, "A") {
		flip = "_"
	}
	forged := bearer[:len(bearer)-1] + flip

	for _, tok := range []string{"", expired, forged, "not-a-token"} {
		resp := doJSON(t, http.MethodGet, srv.URL+"/v1/users", tok, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("token %.12q: status = %d, want 401", tok, resp.StatusCode)
		}
		body, _ := io.ReadAll(resp.Body)
		if len(body) != 0 {
			t.Errorf("token %.12q: body = %q, want empty", tok, body)
		}
	}
}

// waitForExpiry blocks until the token stops working and returns it.
func waitForExpiry(t *testing.T, srv *httptest.Server, bearer string) string {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp := doJSON(t, http.MethodGet, srv.URL+"/v1/users", bearer, nil)
		if resp.StatusCode == http.StatusUnauthorized {
			return bearer
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatal("token never expired")
	return bearer
}

func TestDeactivatedAccount_TokenStopsWorking(t *testing.T) {
	srv, _, _ := newTestServer(t, time.Hour)

	user, bearer := signupAndLogin(t, srv, "alice@example.com")

	// Soft delete while a valid, unexpired token is outstanding.
	resp := doJSON(t, http.MethodDelete, srv.URL+"/v1/users/"+user.ID, bearer, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("deactivate status = %d", resp.StatusCode)
	}

	// The token still verifies cryptographically, but the principal is
	// inactive, so the request is anonymous and gets rejected.
	resp = doJSON(t, http.MethodGet, srv.URL+"/v1/users", bearer, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 after deactivation", resp.StatusCode)
	}
}

func TestUpdateUser(t *testing.T) {
	srv, _, _ := newTestServer(t, time.Hour)

	user, bearer := signupAndLogin(t, srv, "alice@example.com")

	resp := doJSON(t, http.MethodPut, srv.URL+"/v1/users/"+user.ID, bearer, api.UpdateUserRequest{
		Name:  "Alice Renamed",
		Email: "alice@example.com",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d", resp.StatusCode)
	}
	updated := decodeBody[api.User](t, resp)
	if updated.Name != "Alice Renamed" {
		t.Errorf("Name = %q", updated.Name)
	}
}

func TestPurgeUser(t *testing.T) {
	srv, _, _ := newTestServer(t, time.Hour)

	user, bearer := signupAndLogin(t, srv, "alice@example.com")
	_, otherBearer := signupAndLogin(t, srv, "bob@example.com")

	resp := doJSON(t, http.MethodDelete, srv.URL+"/v1/users/"+user.ID+"/purge", otherBearer, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("purge status = %d", resp.StatusCode)
	}

	// The purged account's token no longer authenticates.
	resp = doJSON(t, http.MethodGet, srv.URL+"/v1/users", bearer, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 after purge", resp.StatusCode)
	}

	// And the record is gone.
	resp = doJSON(t, http.MethodGet, srv.URL+"/v1/users/"+user.ID, otherBearer, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get purged status = %d, want 404", resp.StatusCode)
	}
}

func TestMalformedUserID(t *testing.T) {
	srv, _, _ := newTestServer(t, time.Hour)

	_, bearer := signupAndLogin(t, srv, "alice@example.com")

	resp := doJSON(t, http.MethodGet, srv.URL+"/v1/users/not-an-id", bearer, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t, time.Hour)

	resp := doJSON(t, http.MethodGet, srv.URL+"/healthz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	status := decodeBody[map[string]string](t, resp)
	if status["status"] != "ok" {
		t.Errorf("status body = %v", status)
	}
}

func TestRequestID(t *testing.T) {
	srv, _, _ := newTestServer(t, time.Hour)

	resp := doJSON(t, http.MethodGet, srv.URL+"/healthz", "", nil)
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("no X-Request-ID header generated")
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	req.Header.Set("X-Request-ID", "fixed-id-1234")
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	if got := resp2.Header.Get("X-Request-ID"); got != "fixed-id-1234" {
		t.Errorf("X-Request-ID = %q, client value not kept", got)
	}
}

func TestBodyTooLarge(t *testing.T) {
	srv, _, _ := newTestServer(t, time.Hour)

	big := fmt.Sprintf(`{"name":%q,"email":"a@example.com","password":"longenough"}`,
		strings.Repeat("x", int(DefaultConfig().MaxBodySize)+1))

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/signup", strings.NewReader(big))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
