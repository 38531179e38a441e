package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/portier-auth/portier/pkg/account"
	"github.com/portier-auth/portier/pkg/api"
	"github.com/portier-auth/portier/pkg/identity"
)

// Adapter serves the portier account API over HTTP.
// It routes requests to the account service and serializes responses.
type Adapter struct {
	accounts *account.Service
	store    identity.Store
	mux      *http.ServeMux
	config   Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	MaxBodySize int64
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MaxBodySize: 1 << 20, // 1 MB
	}
}

// NewAdapter creates an HTTP adapter over the given account service. The
// identity store is used for the health endpoint only.
func NewAdapter(accounts *account.Service, store identity.Store, cfg Config) *Adapter {
	a := &Adapter{
		accounts: accounts,
		store:    store,
		mux:      http.NewServeMux(),
		config:   cfg,
	}

	a.mux.HandleFunc("POST /v1/signup", a.handleSignup)
	a.mux.HandleFunc("POST /v1/login", a.handleLogin)
	a.mux.HandleFunc("GET /v1/users", a.handleListUsers)
	a.mux.HandleFunc("GET /v1/users/{id}", a.handleGetUser)
	a.mux.HandleFunc("PUT /v1/users/{id}", a.handleUpdateUser)
	a.mux.HandleFunc("DELETE /v1/users/{id}", a.handleDeactivateUser)
	a.mux.HandleFunc("DELETE /v1/users/{id}/purge", a.handlePurgeUser)
	a.mux.HandleFunc("GET /healthz", a.handleHealth)

	return a
}

// Handler returns the http.Handler for this adapter with panic recovery
// and request ID propagation applied. Use this to integrate with an
// http.Server or test with httptest.
func (a *Adapter) Handler() http.Handler {
	return requestIDMiddleware(recoveryMiddleware(a.mux))
}

// decodeJSON decodes the request body into v, enforcing the content type
// and body size limits. The returned error is ready to hand to writeError.
func (a *Adapter) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" {
		return api.NewInvalidRequestError("content_type", "Content-Type must be application/json")
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize))
		}
		return api.NewInvalidRequestError("body", "invalid JSON: "+err.Error())
	}
	return nil
}

// handleSignup handles POST /v1/signup.
func (a *Adapter) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req api.SignupRequest
	if err := a.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := a.accounts.Signup(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// handleLogin handles POST /v1/login.
func (a *Adapter) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := a.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := a.accounts.Login(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleListUsers handles GET /v1/users.
func (a *Adapter) handleListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := a.accounts.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleGetUser handles GET /v1/users/{id}.
func (a *Adapter) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !api.ValidateUserID(id) {
		writeError(w, r, api.NewInvalidRequestError("id", "malformed user ID"))
		return
	}

	user, err := a.accounts.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleUpdateUser handles PUT /v1/users/{id}.
func (a *Adapter) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !api.ValidateUserID(id) {
		writeError(w, r, api.NewInvalidRequestError("id", "malformed user ID"))
		return
	}

	var req api.UpdateUserRequest
	if err := a.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := a.accounts.Update(r.Context(), id, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleDeactivateUser handles DELETE /v1/users/{id}. The account is soft
// deleted: it stops authenticating but its record remains.
func (a *Adapter) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !api.ValidateUserID(id) {
		writeError(w, r, api.NewInvalidRequestError("id", "malformed user ID"))
		return
	}

	if err := a.accounts.Deactivate(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePurgeUser handles DELETE /v1/users/{id}/purge, removing the record.
func (a *Adapter) handlePurgeUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !api.ValidateUserID(id) {
		writeError(w, r, api.NewInvalidRequestError("id", "malformed user ID"))
		return
	}

	if err := a.accounts.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleHealth handles GET /healthz. It reports the credential store
// connection state so a failing store surfaces here rather than as
// silently anonymous requests.
func (a *Adapter) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := a.store.HealthCheck(r.Context()); err != nil {
		slog.Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error as a JSON error response. API errors carry
// their own status code; anything else is an internal error that is logged
// and reported opaquely.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		apiErr = api.NewServerError("internal server error")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.HTTPStatus())
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: apiErr})
}
