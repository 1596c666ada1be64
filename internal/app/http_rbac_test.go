package app

import (
	"net/http"
	"testing"
)

func TestRouteAuthorization(t *testing.T) {
	handler, _, _ := newTestServer(t)
	citizen := loginToken(t, handler, "sneha", "pass123")
	admin := loginToken(t, handler, "admin", "admin123")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		want   int
	}{
		{name: "issues need a session", method: http.MethodGet, path: "/api/issues", want: http.StatusUnauthorized},
		{name: "citizen lists issues", method: http.MethodGet, path: "/api/issues", token: citizen, want: http.StatusOK},
		{name: "citizen cannot list users", method: http.MethodGet, path: "/api/users", token: citizen, want: http.StatusForbidden},
		{name: "citizen cannot read audit", method: http.MethodGet, path: "/api/audit", token: citizen, want: http.StatusForbidden},
		{name: "citizen may change status", method: http.MethodPut, path: "/api/issues/3/status", token: citizen, body: `{"status":"Resolved"}`, want: http.StatusOK},
		{name: "admin lists users", method: http.MethodGet, path: "/api/users", token: admin, want: http.StatusOK},
		{name: "admin reads audit", method: http.MethodGet, path: "/api/audit", token: admin, want: http.StatusOK},
		{name: "expired or forged token", method: http.MethodGet, path: "/api/analytics", token: "forged.token", want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, _ := doJSON(t, handler, tt.method, tt.path, tt.token, tt.body)
			if rr.Code != tt.want {
				t.Fatalf("%s %s: expected %d, got %d body=%s", tt.method, tt.path, tt.want, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestUserManagement(t *testing.T) {
	handler, _, _ := newTestServer(t)
	admin := loginToken(t, handler, "admin", "admin123")

	rr, payload := doJSON(t, handler, http.MethodGet, "/api/users", admin, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list users: %d", rr.Code)
	}
	users, _ := payload["users"].([]any)
	if len(users) != 6 {
		t.Fatalf("expected 6 seeded users, got %d", len(users))
	}
	for _, raw := range users {
		if _, leaked := raw.(map[string]any)["password"]; leaked {
			t.Fatal("user listing must not expose passwords")
		}
	}

	rr, payload = doJSON(t, handler, http.MethodDelete, "/api/users/Admin", admin, "")
	if rr.Code != http.StatusForbidden || payload["code"] != "CANNOT_DELETE_ADMIN" {
		t.Fatalf("delete admin: got %d %v", rr.Code, payload)
	}

	rr, payload = doJSON(t, handler, http.MethodPost, "/api/users", admin, `{"username":"deepa","password":"deepa123","fullName":"Deepa Iyer"}`)
	if rr.Code != http.StatusCreated || payload["username"] != "deepa" {
		t.Fatalf("create user: got %d %v", rr.Code, payload)
	}
	deepa := loginToken(t, handler, "deepa", "deepa123")

	rr, _ = doJSON(t, handler, http.MethodDelete, "/api/users/deepa", admin, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("delete user: got %d", rr.Code)
	}
	rr, _ = doJSON(t, handler, http.MethodGet, "/api/issues", deepa, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("deleted user's token: expected 401, got %d", rr.Code)
	}
	rr, payload = doJSON(t, handler, http.MethodDelete, "/api/users/deepa", admin, "")
	if rr.Code != http.StatusNotFound || payload["code"] != "USER_NOT_FOUND" {
		t.Fatalf("delete missing user: got %d %v", rr.Code, payload)
	}
}
