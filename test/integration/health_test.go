package integration

import (
	"net/http"
	"testing"
)

func TestHealthEndpoint(t *testing.T) {
	resp := doRequest(t, http.MethodGet, "/healthz", "", nil)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body := decode[map[string]string](t, resp)
	if body["status"] != "ok" {
		t.Errorf("status body = %v, want ok", body)
	}
}

func TestHealthEndpoint_NoAuthRequired(t *testing.T) {
	// Health must stay reachable with a garbage token present.
	resp := doRequest(t, http.MethodGet, "/healthz", "garbage-token", nil)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}
