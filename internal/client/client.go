// Package client is a thin HTTP client for the CivicVoice API used by civicctl.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// APIError is a non-2xx response decoded from the server's {code, error} envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("%s (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// Tokens is the credential pair handed out by login, register and refresh.
type Tokens struct {
	Access  string
	Refresh string
}

// Client talks to one CivicVoice server. It is not safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     Tokens

	// OnRefresh, when set, is called after the client rotates its tokens so
	// the caller can persist the new pair. The server has already retired the
	// old pair, so an error here fails the request.
	OnRefresh func(Tokens) error
}

// New creates a client for baseURL (for example http://localhost:8787).
func New(baseURL string, tokens Tokens) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     tokens,
	}
}

// Tokens returns the current credential pair.
func (c *Client) Tokens() Tokens { return c.tokens }

// Login authenticates and keeps the returned tokens.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	var out Session
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &out, false); err != nil {
		return nil, err
	}
	c.tokens = Tokens{Access: out.Token, Refresh: out.RefreshToken}
	return &out, nil
}

// Register creates a citizen account and keeps the returned tokens.
func (c *Client) Register(ctx context.Context, username, password, fullName string) (*Session, error) {
	var out Session
	body := map[string]string{"username": username, "password": password, "fullName": fullName}
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", body, &out, false); err != nil {
		return nil, err
	}
	c.tokens = Tokens{Access: out.Token, Refresh: out.RefreshToken}
	return &out, nil
}

// Refresh rotates the token pair using the stored refresh token.
func (c *Client) Refresh(ctx context.Context) error {
	if c.tokens.Refresh == "" {
		return &APIError{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: "not logged in"}
	}
	var out Session
	body := map[string]string{"refreshToken": c.tokens.Refresh}
	if err := c.do(ctx, http.MethodPost, "/api/session/refresh", body, &out, false); err != nil {
		return err
	}
	c.tokens = Tokens{Access: out.Token, Refresh: out.RefreshToken}
	if c.OnRefresh != nil {
		if err := c.OnRefresh(c.tokens); err != nil {
			return fmt.Errorf("save refreshed tokens: %w", err)
		}
	}
	return nil
}

// Logout ends the server session and forgets the local tokens.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/session/logout", nil, nil, true)
	c.tokens = Tokens{}
	return err
}

// Session reports who the current token belongs to.
func (c *Client) Session(ctx context.Context) (*Session, error) {
	var out Session
	if err := c.do(ctx, http.MethodGet, "/api/session", nil, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// Navigate records the dashboard section for the current session.
func (c *Client) Navigate(ctx context.Context, section string) (string, error) {
	var out struct {
		Section string `json:"section"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/session/section", map[string]string{"section": section}, &out, true); err != nil {
		return "", err
	}
	return out.Section, nil
}

// Issues lists issues. Empty filter fields mean "All".
func (c *Client) Issues(ctx context.Context, filter ListFilter) ([]Issue, error) {
	query := url.Values{}
	if filter.Category != "" {
		query.Set("category", filter.Category)
	}
	if filter.Status != "" {
		query.Set("status", filter.Status)
	}
	if filter.Sort != "" {
		query.Set("sort", filter.Sort)
	}
	var out struct {
		Issues []Issue `json:"issues"`
	}
	if err := c.do(ctx, http.MethodGet, withQuery("/api/issues", query), nil, &out, true); err != nil {
		return nil, err
	}
	return out.Issues, nil
}

// Issue fetches one issue with its comments.
func (c *Client) Issue(ctx context.Context, id int64) (*IssueDetail, error) {
	var out IssueDetail
	if err := c.do(ctx, http.MethodGet, issuePath(id, ""), nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitIssue files a new issue as the current user.
func (c *Client) SubmitIssue(ctx context.Context, input NewIssue) (*Issue, error) {
	var out Issue
	if err := c.do(ctx, http.MethodPost, "/api/issues", input, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Vote(ctx context.Context, id int64) (*Issue, error) {
	var out Issue
	if err := c.do(ctx, http.MethodPost, issuePath(id, "/vote"), nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SetStatus(ctx context.Context, id int64, status string) (*Issue, error) {
	var out Issue
	if err := c.do(ctx, http.MethodPut, issuePath(id, "/status"), map[string]string{"status": status}, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// Verify confirms an issue. Changed is false when the caller had already verified it.
func (c *Client) Verify(ctx context.Context, id int64) (*VerifyResult, error) {
	var out VerifyResult
	if err := c.do(ctx, http.MethodPost, issuePath(id, "/verify"), nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddComment posts text on an issue. A blank text is accepted and ignored by
// the server, in which case the returned comment is nil.
func (c *Client) AddComment(ctx context.Context, id int64, text string) (*Comment, error) {
	var out struct {
		Added   bool     `json:"added"`
		Comment *Comment `json:"comment"`
	}
	if err := c.do(ctx, http.MethodPost, issuePath(id, "/comments"), map[string]string{"text": text}, &out, true); err != nil {
		return nil, err
	}
	if !out.Added {
		return nil, nil
	}
	return out.Comment, nil
}

func (c *Client) Search(ctx context.Context, text string, limit int) (*SearchResponse, error) {
	query := url.Values{}
	query.Set("q", text)
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var out SearchResponse
	if err := c.do(ctx, http.MethodGet, withQuery("/api/search", query), nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	var out struct {
		Leaderboard []LeaderboardEntry `json:"leaderboard"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/leaderboard", nil, &out, true); err != nil {
		return nil, err
	}
	return out.Leaderboard, nil
}

func (c *Client) Analytics(ctx context.Context) (*Analytics, error) {
	var out Analytics
	if err := c.do(ctx, http.MethodGet, "/api/analytics", nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// Report downloads the analytics report and returns its bytes and the
// filename suggested by the server.
func (c *Client) Report(ctx context.Context, format string) ([]byte, string, error) {
	query := url.Values{}
	if format != "" {
		query.Set("format", format)
	}
	resp, err := c.send(ctx, http.MethodGet, withQuery("/api/analytics/report", query), nil, true)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read report: %w", err)
	}
	filename := "report." + strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		filename = "report.html"
	}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		filename = params["filename"]
	}
	return data, filename, nil
}

// Profile fetches a profile by user id; "me" resolves to the caller.
func (c *Client) Profile(ctx context.Context, userID string) (*Profile, error) {
	var out Profile
	if err := c.do(ctx, http.MethodGet, "/api/profiles/"+url.PathEscape(userID), nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Users(ctx context.Context) ([]User, error) {
	var out struct {
		Users []User `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &out, true); err != nil {
		return nil, err
	}
	return out.Users, nil
}

func (c *Client) CreateUser(ctx context.Context, username, password, fullName string) (*User, error) {
	var out User
	body := map[string]string{"username": username, "password": password, "fullName": fullName}
	if err := c.do(ctx, http.MethodPost, "/api/users", body, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteUser(ctx context.Context, username string) error {
	return c.do(ctx, http.MethodDelete, "/api/users/"+url.PathEscape(username), nil, nil, true)
}

func (c *Client) Audit(ctx context.Context, limit int) ([]AuditEvent, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var out struct {
		Events []AuditEvent `json:"events"`
	}
	if err := c.do(ctx, http.MethodGet, withQuery("/api/audit", query), nil, &out, true); err != nil {
		return nil, err
	}
	return out.Events, nil
}

// OpenChat starts a help-desk chat and returns its id and greeting.
func (c *Client) OpenChat(ctx context.Context) (*Chat, error) {
	var out Chat
	if err := c.do(ctx, http.MethodPost, "/api/chat", nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendChat(ctx context.Context, chatID, text string) (*ChatMessage, error) {
	var out struct {
		Message ChatMessage `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, chatPath(chatID)+"/messages", map[string]string{"text": text}, &out, true); err != nil {
		return nil, err
	}
	return &out.Message, nil
}

func (c *Client) ChatTranscript(ctx context.Context, chatID string) (*Chat, error) {
	var out Chat
	if err := c.do(ctx, http.MethodGet, chatPath(chatID)+"/messages", nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CloseChat(ctx context.Context, chatID string) error {
	return c.do(ctx, http.MethodDelete, chatPath(chatID), nil, nil, true)
}

// do sends a JSON request and decodes a JSON response into out. When retry is
// set and the server answers 401, the token pair is refreshed once and the
// request replayed.
func (c *Client) do(ctx context.Context, method, path string, body, out any, retry bool) error {
	resp, err := c.send(ctx, method, path, body, retry)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body any, retry bool) (*http.Response, error) {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		payload = encoded
	}

	resp, err := c.roundTrip(ctx, method, path, payload, body != nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized && retry && c.tokens.Refresh != "" {
		resp.Body.Close()
		if err := c.Refresh(ctx); err != nil {
			return nil, err
		}
		resp, err = c.roundTrip(ctx, method, path, payload, body != nil)
		if err != nil {
			return nil, err
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, payload []byte, hasBody bool) (*http.Response, error) {
	var reader io.Reader
	if hasBody {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens.Access != "" {
		req.Header.Set("Authorization", "Bearer "+c.tokens.Access)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var envelope struct {
		Code  string `json:"code"`
		Error string `json:"error"`
	}
	apiErr := &APIError{Status: resp.StatusCode}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Code != "" {
		apiErr.Code = envelope.Code
		apiErr.Message = envelope.Error
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(raw))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func issuePath(id int64, suffix string) string {
	return "/api/issues/" + strconv.FormatInt(id, 10) + suffix
}

func chatPath(id string) string {
	return "/api/chat/" + url.PathEscape(id)
}

func withQuery(path string, query url.Values) string {
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}
