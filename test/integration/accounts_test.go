package integration

import (
	"net/http"
	"testing"

	"github.com/portier-auth/portier/pkg/api"
)

func TestAccountLifecycle(t *testing.T) {
	user, bearer := createAccount(t)

	// Read back.
	resp := doRequest(t, http.MethodGet, "/v1/users/"+user.ID, bearer, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	got := decode[api.User](t, resp)
	if got.ID != user.ID || got.Email != user.Email || !got.Active {
		t.Errorf("got = %+v, want %+v", got, user)
	}

	// Update the name.
	resp = doRequest(t, http.MethodPut, "/v1/users/"+user.ID, bearer, api.UpdateUserRequest{
		Name:  "Renamed",
		Email: user.Email,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d", resp.StatusCode)
	}
	if updated := decode[api.User](t, resp); updated.Name != "Renamed" {
		t.Errorf("Name = %q, want Renamed", updated.Name)
	}

	// Soft delete, then the record still exists but is inactive.
	resp = doRequest(t, http.MethodDelete, "/v1/users/"+user.ID, bearer, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("deactivate status = %d", resp.StatusCode)
	}

	_, otherBearer := createAccount(t)
	resp = doRequest(t, http.MethodGet, "/v1/users/"+user.ID, otherBearer, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get after deactivate status = %d", resp.StatusCode)
	}
	if got := decode[api.User](t, resp); got.Active {
		t.Error("Active = true after soft delete")
	}

	// Hard delete removes the record.
	resp = doRequest(t, http.MethodDelete, "/v1/users/"+user.ID+"/purge", otherBearer, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("purge status = %d", resp.StatusCode)
	}
	resp = doRequest(t, http.MethodGet, "/v1/users/"+user.ID, otherBearer, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after purge status = %d, want 404", resp.StatusCode)
	}
}

func TestTokenOutlivesNothing(t *testing.T) {
	user, bearer := createAccount(t)

	// A valid token authenticates.
	resp := doRequest(t, http.MethodGet, "/v1/users", bearer, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	// Deactivation cuts it off mid-lifetime.
	resp = doRequest(t, http.MethodDelete, "/v1/users/"+user.ID, bearer, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("deactivate status = %d", resp.StatusCode)
	}
	resp = doRequest(t, http.MethodGet, "/v1/users", bearer, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 after deactivation", resp.StatusCode)
	}
}

func TestProtectedRoutesDefaultClosed(t *testing.T) {
	// Routes outside the default public list reject anonymous requests,
	// including ones that do not exist.
	for _, path := range []string{"/v1/users", "/v1/users/usr_000000000000000000000000", "/v1/admin"} {
		resp := doRequest(t, http.MethodGet, path, "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s = %d, want 401", path, resp.StatusCode)
		}
	}
}

func TestSignupValidation(t *testing.T) {
	tests := []struct {
		name string
		req  api.SignupRequest
	}{
		{"missing email", api.SignupRequest{Name: "A", Password: "longenough"}},
		{"bad email", api.SignupRequest{Name: "A", Email: "not-an-email", Password: "longenough"}},
		{"short password", api.SignupRequest{Name: "A", Email: "a@example.com", Password: "short"}},
		{"missing name", api.SignupRequest{Email: "a@example.com", Password: "longenough"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, http.MethodPost, "/v1/signup", "", tt.req)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			errResp := decode[api.ErrorResponse](t, resp)
			if errResp.Error == nil || errResp.Error.Type != api.ErrorTypeInvalidRequest {
				t.Errorf("error = %+v", errResp.Error)
			}
		})
	}
}
