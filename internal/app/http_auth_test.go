package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T) (http.Handler, *Service, *fakeAudit) {
	t.Helper()
	svc, audit := newTestService(t)
	return NewHTTPServer(svc, "*").Handler(), svc, audit
}

func doJSON(t *testing.T, handler http.Handler, method, path, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	payload := map[string]any{}
	if rr.Header().Get("Content-Type") == "application/json" && rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
			t.Fatalf("parse response of %s %s: %v body=%s", method, path, err, rr.Body.String())
		}
	}
	return rr, payload
}

func loginToken(t *testing.T, handler http.Handler, username, password string) string {
	t.Helper()
	rr, payload := doJSON(t, handler, http.MethodPost, "/api/auth/login", "", `{"username":"`+username+`","password":"`+password+`"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body=%s", username, rr.Code, rr.Body.String())
	}
	token, _ := payload["token"].(string)
	if token == "" {
		t.Fatalf("login %s: no token", username)
	}
	return token
}

func TestLoginReturnsContract(t *testing.T) {
	handler, _, _ := newTestServer(t)

	rr, payload := doJSON(t, handler, http.MethodPost, "/api/auth/login", "", `{"username":"  PRIYA ","password":"pass123"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if token, _ := payload["token"].(string); token == "" {
		t.Fatalf("expected token")
	}
	if refresh, _ := payload["refreshToken"].(string); refresh == "" {
		t.Fatalf("expected refreshToken")
	}
	user, _ := payload["user"].(map[string]any)
	if user["name"] != "Priya Sharma" || user["id"] != "usr_priya" || user["isAdmin"] != false {
		t.Fatalf("unexpected user %v", user)
	}
	if payload["section"] != "issues" || payload["role"] != "citizen" {
		t.Fatalf("unexpected section/role %v/%v", payload["section"], payload["role"])
	}
}

func TestLoginFailures(t *testing.T) {
	handler, _, _ := newTestServer(t)

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{name: "invalid body", body: `{"username":`, wantCode: http.StatusBadRequest, wantErr: "INVALID_BODY"},
		{name: "wrong password", body: `{"username":"priya","password":"nope123"}`, wantCode: http.StatusUnauthorized, wantErr: "INVALID_CREDENTIALS"},
		{name: "unknown user", body: `{"username":"ghost","password":"pass123"}`, wantCode: http.StatusUnauthorized, wantErr: "INVALID_CREDENTIALS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, payload := doJSON(t, handler, http.MethodPost, "/api/auth/login", "", tt.body)
			if rr.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d body=%s", tt.wantCode, rr.Code, rr.Body.String())
			}
			if payload["code"] != tt.wantErr {
				t.Fatalf("expected code %s, got %v", tt.wantErr, payload["code"])
			}
		})
	}
}

func TestRegister(t *testing.T) {
	handler, _, _ := newTestServer(t)

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{name: "taken before full name", body: `{"username":"admin","password":"123456","fullName":"X"}`, wantCode: http.StatusUnprocessableEntity, wantErr: "USERNAME_TAKEN"},
		{name: "short username", body: `{"username":"ab","password":"123456","fullName":"Abc"}`, wantCode: http.StatusUnprocessableEntity, wantErr: "USERNAME_TOO_SHORT"},
		{name: "short password", body: `{"username":"meera","password":"123","fullName":"Meera"}`, wantCode: http.StatusUnprocessableEntity, wantErr: "PASSWORD_TOO_SHORT"},
		{name: "short full name", body: `{"username":"meera","password":"123456","fullName":"Me"}`, wantCode: http.StatusUnprocessableEntity, wantErr: "FULL_NAME_TOO_SHORT"},
		{name: "ok", body: `{"username":"Meera","password":"123456","fullName":"Meera Nair"}`, wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, payload := doJSON(t, handler, http.MethodPost, "/api/auth/register", "", tt.body)
			if rr.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d body=%s", tt.wantCode, rr.Code, rr.Body.String())
			}
			if tt.wantErr != "" && payload["code"] != tt.wantErr {
				t.Fatalf("expected code %s, got %v", tt.wantErr, payload["code"])
			}
		})
	}

	token := loginToken(t, handler, "meera", "123456")
	rr, payload := doJSON(t, handler, http.MethodGet, "/api/profiles/me", token, "")
	if rr.Code != http.StatusOK || payload["name"] != "Meera Nair" || payload["points"] != float64(0) {
		t.Fatalf("new user profile: status %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestSessionEndpoint(t *testing.T) {
	handler, _, _ := newTestServer(t)

	_, anonymous := doJSON(t, handler, http.MethodGet, "/api/session", "", "")
	if anonymous["authenticated"] != false {
		t.Fatalf("expected anonymous session, got %v", anonymous)
	}
	_, garbage := doJSON(t, handler, http.MethodGet, "/api/session", "not-a-token", "")
	if garbage["authenticated"] != false {
		t.Fatalf("expected invalid token to read as anonymous, got %v", garbage)
	}

	token := loginToken(t, handler, "admin", "admin123")
	_, payload := doJSON(t, handler, http.MethodGet, "/api/session", token, "")
	if payload["authenticated"] != true || payload["role"] != "admin" {
		t.Fatalf("expected admin session, got %v", payload)
	}
	if _, ok := payload["refreshToken"]; ok {
		t.Fatal("session lookup must not echo a refresh token")
	}
}

func TestRefreshAndLogout(t *testing.T) {
	handler, _, _ := newTestServer(t)

	_, login := doJSON(t, handler, http.MethodPost, "/api/auth/login", "", `{"username":"rajesh","password":"pass123"}`)
	refresh, _ := login["refreshToken"].(string)

	rr, rotated := doJSON(t, handler, http.MethodPost, "/api/session/refresh", "", `{"refreshToken":"`+refresh+`"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("refresh: status %d body=%s", rr.Code, rr.Body.String())
	}
	rr, _ = doJSON(t, handler, http.MethodPost, "/api/session/refresh", "", `{"refreshToken":"`+refresh+`"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("reused refresh token: expected 401, got %d", rr.Code)
	}

	token, _ := rotated["token"].(string)
	rr, _ = doJSON(t, handler, http.MethodPut, "/api/session/section", token, `{"section":"leaderboard"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("navigate: status %d body=%s", rr.Code, rr.Body.String())
	}
	rr, _ = doJSON(t, handler, http.MethodPost, "/api/session/logout", token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("logout: status %d body=%s", rr.Code, rr.Body.String())
	}
	rr, _ = doJSON(t, handler, http.MethodGet, "/api/issues", token, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("token after logout: expected 401, got %d", rr.Code)
	}
}

func TestNavigateRejectsAdminSectionForCitizen(t *testing.T) {
	handler, _, _ := newTestServer(t)
	token := loginToken(t, handler, "amit", "pass123")

	rr, payload := doJSON(t, handler, http.MethodPut, "/api/session/section", token, `{"section":"users"}`)
	if rr.Code != http.StatusForbidden || payload["code"] != "ADMIN_SECTION" {
		t.Fatalf("expected 403 ADMIN_SECTION, got %d %v", rr.Code, payload)
	}
	rr, payload = doJSON(t, handler, http.MethodPut, "/api/session/section", token, `{"section":"settings"}`)
	if rr.Code != http.StatusUnprocessableEntity || payload["code"] != "INVALID_SECTION" {
		t.Fatalf("expected 422 INVALID_SECTION, got %d %v", rr.Code, payload)
	}
}
