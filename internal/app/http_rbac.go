package app

import (
	"net/http"
	"strconv"

	"civicvoice/api/internal/authpw"

	"github.com/go-chi/chi/v5"
)

// User management and audit routes require rbac.ActionManage; chat routes
// are scoped to the caller's own chats.

func (s *HTTPServer) handleListUsers(w http.ResponseWriter, r *http.Request, _ Session) {
	users, err := s.service.ListUsers(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	items := make([]userJSON, 0, len(users))
	for _, user := range users {
		items = append(items, toUserJSON(user))
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": items})
}

func (s *HTTPServer) handleCreateUser(w http.ResponseWriter, r *http.Request, sess Session) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		FullName string `json:"fullName"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	user, err := s.service.CreateUser(r.Context(), sess, authpw.RegisterRequest{
		Username: body.Username,
		Password: body.Password,
		FullName: body.FullName,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserJSON(user))
}

func (s *HTTPServer) handleDeleteUser(w http.ResponseWriter, r *http.Request, sess Session) {
	user, err := s.service.DeleteUser(r.Context(), sess, chi.URLParam(r, "username"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "user": toUserJSON(user)})
}

func (s *HTTPServer) handleAudit(w http.ResponseWriter, r *http.Request, _ Session) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	events, err := s.service.AuditTrail(r.Context(), limit)
	if err != nil {
		s.fail(w, err)
		return
	}
	items := make([]auditEventJSON, 0, len(events))
	for _, event := range events {
		items = append(items, toAuditEventJSON(event))
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": items})
}

func (s *HTTPServer) handleOpenChat(w http.ResponseWriter, r *http.Request, sess Session) {
	id, messages, err := s.service.OpenChat(sess)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "messages": messages})
}

func (s *HTTPServer) handleChatTranscript(w http.ResponseWriter, r *http.Request, sess Session) {
	id := chi.URLParam(r, "id")
	messages, pending, err := s.service.ChatTranscript(sess, id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "messages": messages, "pending": pending})
}

func (s *HTTPServer) handleSendChat(w http.ResponseWriter, r *http.Request, sess Session) {
	var body struct {
		Text string `json:"text"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	message, err := s.service.SendChat(r.Context(), sess, chi.URLParam(r, "id"), body.Text)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"message": message})
}

func (s *HTTPServer) handleCloseChat(w http.ResponseWriter, r *http.Request, sess Session) {
	if err := s.service.CloseChat(sess, chi.URLParam(r, "id")); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
