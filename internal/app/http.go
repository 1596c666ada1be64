package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"civicvoice/api/internal/auth"
	"civicvoice/api/internal/authpw"
	"civicvoice/api/internal/rbac"
	"civicvoice/api/internal/session"
	"civicvoice/api/internal/store"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.withMiddleware)
	r.Use(chimiddleware.Recoverer)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	r.Get("/api/ready", s.handleReady)

	r.Post("/api/auth/login", s.handleLogin)
	r.Post("/api/auth/register", s.handleRegister)
	r.Get("/api/session", s.handleSession)
	r.Post("/api/session/refresh", s.handleRefresh)
	r.Post("/api/session/logout", s.authed(rbac.ActionRead, s.handleLogout))
	r.Put("/api/session/section", s.authed(rbac.ActionRead, s.handleNavigate))

	r.Route("/api/issues", func(r chi.Router) {
		r.Get("/", s.authed(rbac.ActionRead, s.handleListIssues))
		r.Post("/", s.authed(rbac.ActionReport, s.handleSubmitIssue))
		r.Get("/{id}", s.authed(rbac.ActionRead, s.handleGetIssue))
		r.Post("/{id}/vote", s.authed(rbac.ActionVote, s.handleVote))
		r.Put("/{id}/status", s.authed(rbac.ActionModerate, s.handleSetStatus))
		r.Post("/{id}/verify", s.authed(rbac.ActionVerify, s.handleVerify))
		r.Get("/{id}/comments", s.authed(rbac.ActionRead, s.handleListComments))
		r.Post("/{id}/comments", s.authed(rbac.ActionComment, s.handleAddComment))
	})

	r.Get("/api/search", s.authed(rbac.ActionRead, s.handleSearch))
	r.Get("/api/leaderboard", s.authed(rbac.ActionRead, s.handleLeaderboard))
	r.Get("/api/analytics", s.authed(rbac.ActionRead, s.handleAnalytics))
	r.Get("/api/analytics/report", s.authed(rbac.ActionRead, s.handleReport))
	r.Get("/api/map", s.authed(rbac.ActionRead, s.handleMap))
	r.Get("/api/profiles/{userId}", s.authed(rbac.ActionRead, s.handleProfile))
	r.Post("/api/images", s.authed(rbac.ActionReport, s.handleUploadImage))

	r.Get("/api/users", s.authed(rbac.ActionManage, s.handleListUsers))
	r.Post("/api/users", s.authed(rbac.ActionManage, s.handleCreateUser))
	r.Delete("/api/users/{username}", s.authed(rbac.ActionManage, s.handleDeleteUser))
	r.Get("/api/audit", s.authed(rbac.ActionManage, s.handleAudit))

	r.Post("/api/chat", s.authed(rbac.ActionRead, s.handleOpenChat))
	r.Get("/api/chat/{id}/messages", s.authed(rbac.ActionRead, s.handleChatTranscript))
	r.Post("/api/chat/{id}/messages", s.authed(rbac.ActionRead, s.handleSendChat))
	r.Delete("/api/chat/{id}", s.authed(rbac.ActionRead, s.handleCloseChat))
	return r
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess Session)

// authed resolves the caller's session and checks it may perform action.
func (s *HTTPServer) authed(action rbac.Action, next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.requireSession(w, r)
		if !ok {
			return
		}
		if !s.service.Can(sess.Role, action) {
			s.forbid(w, r, sess, action)
			return
		}
		next(w, r, sess)
	}
}

// forbid writes a 403 Forbidden response and logs the denial
func (s *HTTPServer) forbid(w http.ResponseWriter, r *http.Request, sess Session, action rbac.Action) {
	log.Printf("rbac: denied %s to %s (%s) on %s %s", action, sess.UserID, sess.Role, r.Method, r.URL.Path)
	writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
}

func (s *HTTPServer) requireSession(w http.ResponseWriter, r *http.Request) (Session, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return Session{}, false
	}
	sess, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) || errors.Is(err, auth.ErrInvalidToken) || store.KindOf(err) == store.KindAuth {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
			return Session{}, false
		}
		log.Printf("session lookup: %v", err)
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Session lookup failed", nil)
		return Session{}, false
	}
	return sess, true
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	statusCode := http.StatusOK
	checks := map[string]any{}
	for name, err := range s.service.Ping(ctx) {
		if err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks[name] = map[string]any{"status": "error", "error": err.Error()}
			continue
		}
		checks[name] = map[string]any{"status": "ok"}
	}

	writeJSON(w, statusCode, map[string]any{
		"ok":     status == "ready",
		"status": status,
		"checks": checks,
	})
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	sess, err := s.service.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionPayload(sess))
}

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		FullName string `json:"fullName"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	sess, err := s.service.Register(r.Context(), authpw.RegisterRequest{
		Username: body.Username,
		Password: body.Password,
		FullName: body.FullName,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionPayload(sess))
}

func (s *HTTPServer) handleSession(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "user": nil})
		return
	}
	sess, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "user": nil})
		return
	}
	writeJSON(w, http.StatusOK, sessionPayload(sess))
}

func (s *HTTPServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	sess, err := s.service.Refresh(r.Context(), body.RefreshToken)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Refresh token invalid", nil)
		return
	}
	writeJSON(w, http.StatusOK, sessionPayload(sess))
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request, sess Session) {
	if err := s.service.Logout(r.Context(), sess); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleNavigate(w http.ResponseWriter, r *http.Request, sess Session) {
	var body struct {
		Section string `json:"section"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	section, err := s.service.Navigate(r.Context(), sess, body.Section)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"section": section, "sections": session.Sections})
}

// fail writes the response for err, logging anything that maps to a 500.
func (s *HTTPServer) fail(w http.ResponseWriter, err error) {
	status, code, message, details := mapError(err)
	if status >= http.StatusInternalServerError {
		log.Printf("request failed: %v", err)
	}
	writeError(w, status, code, message, details)
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		if r.Method == http.MethodOptions {
			writer.WriteHeader(http.StatusNoContent)
		} else {
			next.ServeHTTP(writer, r)
		}

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func issueIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, store.ErrIssueNotFound
	}
	return id, nil
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		switch storeErr.Kind {
		case store.KindValidation:
			return http.StatusUnprocessableEntity, storeErr.Code, storeErr.Message, nil
		case store.KindNotFound:
			return http.StatusNotFound, storeErr.Code, storeErr.Message, nil
		case store.KindAuth:
			return http.StatusUnauthorized, storeErr.Code, storeErr.Message, nil
		case store.KindPolicy:
			return http.StatusForbidden, storeErr.Code, storeErr.Message, nil
		}
	}
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken) {
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
