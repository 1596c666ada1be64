package app

import (
	"errors"
	"net/http"
	"testing"
)

func TestHealthEndpoint(t *testing.T) {
	handler, _, _ := newTestServer(t)

	rr, payload := doJSON(t, handler, http.MethodGet, "/api/health", "", "")
	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	if payload["ok"] != true {
		t.Errorf("expected ok=true, got %v", payload["ok"])
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestReadyEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantStatus int
		wantOK     bool
	}{
		{name: "all backends up", wantStatus: http.StatusOK, wantOK: true},
		{name: "audit database down", pingErr: errors.New("connection refused"), wantStatus: http.StatusServiceUnavailable, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _, audit := newTestServer(t)
			audit.pingErr = tt.pingErr

			rr, payload := doJSON(t, handler, http.MethodGet, "/api/ready", "", "")
			if rr.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d body=%s", tt.wantStatus, rr.Code, rr.Body.String())
			}
			if payload["ok"] != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, payload["ok"])
			}
			checks, _ := payload["checks"].(map[string]any)
			for _, name := range []string{"sessions", "media", "audit"} {
				if _, ok := checks[name]; !ok {
					t.Errorf("missing check %q in %v", name, checks)
				}
			}
		})
	}
}

func TestPreflightAndUnknownRoutes(t *testing.T) {
	handler, _, _ := newTestServer(t)

	rr, _ := doJSON(t, handler, http.MethodOptions, "/api/issues", "", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("preflight: expected 204, got %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("preflight: missing CORS origin header")
	}

	rr, payload := doJSON(t, handler, http.MethodGet, "/api/nowhere", "", "")
	if rr.Code != http.StatusNotFound || payload["code"] != "NOT_FOUND" {
		t.Fatalf("unknown route: got %d %v", rr.Code, payload)
	}
}
