package app

import (
	"net/http"
	"strconv"
	"strings"

	"civicvoice/api/internal/search"
	"civicvoice/api/internal/views"

	"github.com/go-chi/chi/v5"
)

func (s *HTTPServer) handleListIssues(w http.ResponseWriter, r *http.Request, _ Session) {
	query := r.URL.Query()
	filter, err := views.ParseFilter(query.Get("category"), query.Get("status"), query.Get("sort"))
	if err != nil {
		s.fail(w, err)
		return
	}
	issues, err := s.service.ListIssues(r.Context(), filter)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"issues": toIssueList(issues), "total": len(issues)})
}

func (s *HTTPServer) handleSubmitIssue(w http.ResponseWriter, r *http.Request, sess Session) {
	var body SubmitIssueInput
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	issue, err := s.service.SubmitIssue(r.Context(), sess, body)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toIssueJSON(issue))
}

func (s *HTTPServer) handleGetIssue(w http.ResponseWriter, r *http.Request, sess Session) {
	id, err := issueIDParam(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	detail, err := s.service.IssueDetail(r.Context(), sess, id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"issue":        toIssueJSON(detail.Issue),
		"comments":     toCommentList(detail.Comments),
		"verifiedByMe": detail.VerifiedByMe,
	})
}

func (s *HTTPServer) handleVote(w http.ResponseWriter, r *http.Request, sess Session) {
	id, err := issueIDParam(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	issue, err := s.service.Vote(r.Context(), sess, id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toIssueJSON(issue))
}

func (s *HTTPServer) handleSetStatus(w http.ResponseWriter, r *http.Request, sess Session) {
	id, err := issueIDParam(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	issue, err := s.service.SetStatus(r.Context(), sess, id, body.Status)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toIssueJSON(issue))
}

func (s *HTTPServer) handleVerify(w http.ResponseWriter, r *http.Request, sess Session) {
	id, err := issueIDParam(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	issue, changed, err := s.service.Verify(r.Context(), sess, id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"issue":        toIssueJSON(issue),
		"changed":      changed,
		"verifiedByMe": true,
	})
}

func (s *HTTPServer) handleListComments(w http.ResponseWriter, r *http.Request, _ Session) {
	id, err := issueIDParam(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	comments, err := s.service.Comments(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": toCommentList(comments)})
}

func (s *HTTPServer) handleAddComment(w http.ResponseWriter, r *http.Request, sess Session) {
	id, err := issueIDParam(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	var body struct {
		Text string `json:"text"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	comment, added, err := s.service.AddComment(r.Context(), sess, id, body.Text)
	if err != nil {
		s.fail(w, err)
		return
	}
	if !added {
		writeJSON(w, http.StatusOK, map[string]any{"added": false, "comment": nil})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"added": true, "comment": toCommentJSON(comment)})
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request, _ Session) {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("offset"))
	resp, err := s.service.Search(search.Query{
		Text:     query.Get("q"),
		Category: query.Get("category"),
		Status:   query.Get("status"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleLeaderboard(w http.ResponseWriter, r *http.Request, _ Session) {
	entries, err := s.service.Leaderboard(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": entries})
}

func (s *HTTPServer) handleAnalytics(w http.ResponseWriter, r *http.Request, _ Session) {
	analytics, err := s.service.Analytics(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}

func (s *HTTPServer) handleReport(w http.ResponseWriter, r *http.Request, sess Session) {
	result, err := s.service.ExportReport(r.Context(), sess, r.URL.Query().Get("format"))
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", result.MimeType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

func (s *HTTPServer) handleMap(w http.ResponseWriter, r *http.Request, _ Session) {
	view, err := s.service.MapView(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *HTTPServer) handleProfile(w http.ResponseWriter, r *http.Request, sess Session) {
	userID := strings.TrimSpace(chi.URLParam(r, "userId"))
	if userID == "me" {
		userID = sess.UserID
	}
	profile, err := s.service.Profile(r.Context(), userID)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileJSON(profile))
}

func (s *HTTPServer) handleUploadImage(w http.ResponseWriter, r *http.Request, _ Session) {
	var body struct {
		Image string `json:"image"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	reference, err := s.service.UploadImage(r.Context(), body.Image)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"reference": reference})
}
