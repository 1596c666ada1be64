package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"civicvoice/api/internal/app"
	"civicvoice/api/internal/config"
	"civicvoice/api/internal/export"
	"civicvoice/api/internal/store"
	"golang.org/x/crypto/bcrypt"
)

func newTestAPI(t *testing.T) string {
	t.Helper()
	cfg := config.Config{
		JWTSecret:  "client-test-secret",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
		BcryptCost: bcrypt.MinCost,
		ChatDelay:  time.Hour,
	}
	st := store.New()
	pdf := func(context.Context, string, string) (*export.Result, error) {
		return &export.Result{Data: []byte("%PDF-1.4"), Filename: "civicvoice-analytics-report.pdf", MimeType: "application/pdf"}, nil
	}
	svc := app.New(cfg, app.Options{Store: st, Export: export.NewService(st.Issues, pdf)})
	seed, err := store.LoadSeed("")
	if err != nil {
		t.Fatalf("LoadSeed() error = %v", err)
	}
	if err := svc.Bootstrap(context.Background(), seed); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	server := httptest.NewServer(app.NewHTTPServer(svc, "*").Handler())
	t.Cleanup(func() {
		server.Close()
		svc.Close()
	})
	return server.URL
}

func loggedIn(t *testing.T, baseURL, username, password string) *Client {
	t.Helper()
	c := New(baseURL, Tokens{})
	if _, err := c.Login(context.Background(), username, password); err != nil {
		t.Fatalf("Login(%s) error = %v", username, err)
	}
	return c
}

func TestLoginAndSession(t *testing.T) {
	baseURL := newTestAPI(t)
	ctx := context.Background()

	c := New(baseURL+"/", Tokens{})
	sess, err := c.Login(ctx, "priya", "pass123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if sess.User == nil || sess.User.Name != "Priya Sharma" || sess.Role != "citizen" {
		t.Fatalf("unexpected session %+v", sess)
	}
	if c.Tokens().Access == "" || c.Tokens().Refresh == "" {
		t.Fatalf("expected tokens to be kept, got %+v", c.Tokens())
	}

	current, err := c.Session(ctx)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if !current.Authenticated || current.Token != "" {
		t.Fatalf("unexpected lookup %+v", current)
	}

	_, err = New(baseURL, Tokens{}).Login(ctx, "priya", "wrong-pass")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "INVALID_CREDENTIALS" || !IsUnauthorized(err) {
		t.Fatalf("expected INVALID_CREDENTIALS, got %v", err)
	}
}

func TestRefreshOnUnauthorized(t *testing.T) {
	baseURL := newTestAPI(t)
	ctx := context.Background()
	first := loggedIn(t, baseURL, "rajesh", "pass123")

	var persisted Tokens
	c := New(baseURL, Tokens{Access: "stale.token", Refresh: first.Tokens().Refresh})
	c.OnRefresh = func(tokens Tokens) error {
		persisted = tokens
		return nil
	}

	issues, err := c.Issues(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("Issues() error = %v", err)
	}
	if len(issues) != 6 {
		t.Fatalf("expected 6 seeded issues, got %d", len(issues))
	}
	if persisted.Access == "" || persisted.Refresh == first.Tokens().Refresh {
		t.Fatalf("expected rotated tokens to be persisted, got %+v", persisted)
	}

	stale := New(baseURL, Tokens{Access: "stale.token"})
	if _, err := stale.Issues(ctx, ListFilter{}); !IsUnauthorized(err) {
		t.Fatalf("expected 401 without refresh token, got %v", err)
	}
}

func TestRefreshFailsWhenTokensCannotBeSaved(t *testing.T) {
	baseURL := newTestAPI(t)
	first := loggedIn(t, baseURL, "rajesh", "pass123")

	diskFull := errors.New("disk full")
	c := New(baseURL, Tokens{Access: "stale.token", Refresh: first.Tokens().Refresh})
	c.OnRefresh = func(Tokens) error { return diskFull }

	if _, err := c.Issues(context.Background(), ListFilter{}); !errors.Is(err, diskFull) {
		t.Fatalf("Issues() error = %v, want the save failure", err)
	}
}

func TestIssueWorkflow(t *testing.T) {
	baseURL := newTestAPI(t)
	ctx := context.Background()
	c := loggedIn(t, baseURL, "sneha", "pass123")

	open, err := c.Issues(ctx, ListFilter{Status: "Open", Sort: "votes"})
	if err != nil {
		t.Fatalf("Issues() error = %v", err)
	}
	if len(open) == 0 || open[0].ID != 1 {
		t.Fatalf("expected most-voted open issue first, got %+v", open)
	}

	issue, err := c.SubmitIssue(ctx, NewIssue{
		Title:       "Broken bench in Cubbon Park",
		Category:    "Parks",
		Description: "The bench near the bandstand has a snapped backrest.",
		Location:    "Cubbon Park, Bangalore",
	})
	if err != nil {
		t.Fatalf("SubmitIssue() error = %v", err)
	}
	if issue.Status != "Open" || issue.Votes != 0 || issue.ReporterName != "Sneha Reddy" {
		t.Fatalf("unexpected new issue %+v", issue)
	}

	voted, err := c.Vote(ctx, issue.ID)
	if err != nil || voted.Votes != 1 {
		t.Fatalf("Vote() = %+v, %v", voted, err)
	}
	first, err := c.Verify(ctx, issue.ID)
	if err != nil || !first.Changed || first.Issue.Verifications != 1 {
		t.Fatalf("Verify() = %+v, %v", first, err)
	}
	again, err := c.Verify(ctx, issue.ID)
	if err != nil || again.Changed {
		t.Fatalf("second Verify() = %+v, %v", again, err)
	}
	resolved, err := c.SetStatus(ctx, issue.ID, "Resolved")
	if err != nil || resolved.Status != "Resolved" {
		t.Fatalf("SetStatus() = %+v, %v", resolved, err)
	}

	comment, err := c.AddComment(ctx, issue.ID, "Fixed this morning.")
	if err != nil || comment == nil || comment.Author != "Sneha Reddy" {
		t.Fatalf("AddComment() = %+v, %v", comment, err)
	}
	blank, err := c.AddComment(ctx, issue.ID, "   ")
	if err != nil || blank != nil {
		t.Fatalf("blank AddComment() = %+v, %v", blank, err)
	}
	detail, err := c.Issue(ctx, issue.ID)
	if err != nil || len(detail.Comments) != 1 || !detail.VerifiedByMe {
		t.Fatalf("Issue() = %+v, %v", detail, err)
	}

	_, err = c.Vote(ctx, 9999)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown issue, got %v", err)
	}
}

func TestReadViews(t *testing.T) {
	baseURL := newTestAPI(t)
	ctx := context.Background()
	c := loggedIn(t, baseURL, "amit", "pass123")

	analytics, err := c.Analytics(ctx)
	if err != nil {
		t.Fatalf("Analytics() error = %v", err)
	}
	if analytics.Total != 6 || analytics.ResolvedCount != 1 {
		t.Fatalf("unexpected analytics %+v", analytics)
	}

	board, err := c.Leaderboard(ctx)
	if err != nil {
		t.Fatalf("Leaderboard() error = %v", err)
	}
	if len(board) == 0 || board[0].IssuesReported != 2 {
		t.Fatalf("unexpected leaderboard %+v", board)
	}

	profile, err := c.Profile(ctx, "me")
	if err != nil || profile.UserID != "usr_amit" {
		t.Fatalf("Profile(me) = %+v, %v", profile, err)
	}

	results, err := c.Search(ctx, "pothole", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if results.Query != "pothole" {
		t.Fatalf("unexpected search envelope %+v", results)
	}

	data, filename, err := c.Report(ctx, "")
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if !strings.HasSuffix(filename, ".html") || !strings.Contains(string(data), "<html") {
		t.Fatalf("unexpected report %q (%d bytes)", filename, len(data))
	}
	_, filename, err = c.Report(ctx, "pdf")
	if err != nil || filename != "civicvoice-analytics-report.pdf" {
		t.Fatalf("Report(pdf) = %q, %v", filename, err)
	}
}

func TestAdminAndChat(t *testing.T) {
	baseURL := newTestAPI(t)
	ctx := context.Background()
	admin := loggedIn(t, baseURL, "admin", "admin123")

	created, err := admin.CreateUser(ctx, "kavya", "kavya123", "Kavya Menon")
	if err != nil || created.Username != "kavya" {
		t.Fatalf("CreateUser() = %+v, %v", created, err)
	}
	users, err := admin.Users(ctx)
	if err != nil || len(users) != 7 {
		t.Fatalf("Users() = %d users, %v", len(users), err)
	}
	if err := admin.DeleteUser(ctx, "kavya"); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}

	citizen := loggedIn(t, baseURL, "priya", "pass123")
	if _, err := citizen.Users(ctx); err == nil {
		t.Fatal("expected citizen to be refused the user list")
	}

	chat, err := citizen.OpenChat(ctx)
	if err != nil || chat.ID == "" || len(chat.Messages) != 1 {
		t.Fatalf("OpenChat() = %+v, %v", chat, err)
	}
	msg, err := citizen.SendChat(ctx, chat.ID, "How do I report a pothole?")
	if err != nil || msg.Role != "user" {
		t.Fatalf("SendChat() = %+v, %v", msg, err)
	}
	transcript, err := citizen.ChatTranscript(ctx, chat.ID)
	if err != nil || len(transcript.Messages) != 2 || transcript.Pending != 1 {
		t.Fatalf("ChatTranscript() = %+v, %v", transcript, err)
	}
	if err := citizen.CloseChat(ctx, chat.ID); err != nil {
		t.Fatalf("CloseChat() error = %v", err)
	}

	if err := citizen.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if citizen.Tokens() != (Tokens{}) {
		t.Fatalf("expected tokens cleared after logout")
	}
}
