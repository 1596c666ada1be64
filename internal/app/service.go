package app

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"civicvoice/api/internal/assistant"
	"civicvoice/api/internal/auth"
	"civicvoice/api/internal/authpw"
	"civicvoice/api/internal/config"
	"civicvoice/api/internal/export"
	"civicvoice/api/internal/media"
	"civicvoice/api/internal/rbac"
	"civicvoice/api/internal/search"
	"civicvoice/api/internal/session"
	"civicvoice/api/internal/store"
	"civicvoice/api/internal/util"
	"civicvoice/api/internal/views"
)

// Session is the authenticated caller of a request.
type Session struct {
	ID           string
	Token        string
	RefreshToken string
	UserID       string
	Username     string
	DisplayName  string
	Role         rbac.Role
	IsAdmin      bool
	Section      session.Section
	ExpiresAt    time.Time
}

func (s Session) Identity() store.Identity {
	return store.Identity{
		UserID:      s.UserID,
		Username:    s.Username,
		DisplayName: s.DisplayName,
		IsAdmin:     s.IsAdmin,
	}
}

// AuditTrail receives a record of every state change. It is implemented by
// *store.AuditLog.
type AuditTrail interface {
	Record(ctx context.Context, event store.AuditEvent) error
	Recent(ctx context.Context, limit int) ([]store.AuditEvent, error)
	Ping(ctx context.Context) error
	Close() error
}

// Notifier tells moderators about new issues and status changes. It is
// implemented by *email.Service.
type Notifier interface {
	IssueReported(issue store.Issue, actor string, at time.Time) error
	StatusChanged(issue store.Issue, actor string, at time.Time) error
}

// Options carries the collaborators of a Service. Only Store is required;
// the rest fall back to in-process implementations.
type Options struct {
	Store     *store.Store
	Passwords *authpw.Service
	Sessions  session.Store
	Search    *search.Service
	Media     *media.Service
	Chats     *assistant.Chats
	Audit     AuditTrail
	Export    *export.Service
	Notifier  Notifier
}

type Service struct {
	cfg       config.Config
	store     *store.Store
	passwords *authpw.Service
	sessions  session.Store
	search    *search.Service
	media     *media.Service
	chats     *assistant.Chats
	audit     AuditTrail
	export    *export.Service
	notifier  Notifier
	now       func() time.Time

	// background tracks audit writes and notifications still in flight.
	background sync.WaitGroup
}

var (
	ErrExportUnavailable = domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "PDF export is not available on this server", nil)
	ErrAuditDisabled     = domainError(http.StatusServiceUnavailable, "AUDIT_DISABLED", "Audit trail is not configured", nil)
	ErrChatUnavailable   = domainError(http.StatusServiceUnavailable, "CHAT_UNAVAILABLE", "Chat is shutting down", nil)
)

func New(cfg config.Config, opts Options) *Service {
	st := opts.Store
	if st == nil {
		st = store.New()
	}
	svc := &Service{
		cfg:       cfg,
		store:     st,
		passwords: opts.Passwords,
		sessions:  opts.Sessions,
		search:    opts.Search,
		media:     opts.Media,
		chats:     opts.Chats,
		audit:     opts.Audit,
		export:    opts.Export,
		notifier:  opts.Notifier,
		now:       time.Now,
	}
	if svc.passwords == nil {
		svc.passwords = authpw.NewService(st, cfg.BcryptCost)
	}
	if svc.sessions == nil {
		svc.sessions = session.NewMemoryStore()
	}
	if svc.search == nil {
		svc.search = search.NewService(nil, search.NewMemory(st.Issues))
	}
	if svc.media == nil {
		svc.media = media.NewService(nil)
	}
	if svc.chats == nil {
		svc.chats = assistant.NewChats(cfg.ChatDelay)
	}
	if svc.export == nil {
		svc.export = export.NewService(st.Issues, nil)
	}
	return svc
}

// Bootstrap loads the seed dataset and pushes it to the search index.
func (s *Service) Bootstrap(ctx context.Context, seed store.Seed) error {
	if err := seed.Apply(ctx, s.store, s.passwords.Hash); err != nil {
		return fmt.Errorf("apply seed: %w", err)
	}
	issues, err := s.store.Issues(ctx)
	if err != nil {
		return err
	}
	records := make([]search.IssueRecord, 0, len(issues))
	for _, issue := range issues {
		records = append(records, search.RecordFromIssue(issue))
	}
	s.search.ReindexAll(records)
	log.Printf("bootstrap: %d users, %d issues", len(seed.Users), len(issues))
	return nil
}

// Close stops chat timers, waits for pending audit writes and releases
// backend connections.
func (s *Service) Close() {
	s.chats.Shutdown()
	s.background.Wait()
	s.search.Close()
	if err := s.sessions.Close(); err != nil {
		log.Printf("session store close: %v", err)
	}
	if s.audit != nil {
		if err := s.audit.Close(); err != nil {
			log.Printf("audit close: %v", err)
		}
	}
}

// Ping reports the health of each backend by name. A nil error means ok.
func (s *Service) Ping(ctx context.Context) map[string]error {
	checks := map[string]error{
		"sessions": s.sessions.Ping(ctx),
		"media":    s.media.Ping(ctx),
	}
	if s.audit != nil {
		checks["audit"] = s.audit.Ping(ctx)
	}
	return checks
}

func (s *Service) Can(role rbac.Role, action rbac.Action) bool {
	return rbac.Can(role, action)
}

// Login checks credentials and opens a session in the default section.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	identity, err := s.passwords.Authenticate(ctx, username, password)
	if err != nil {
		return Session{}, err
	}
	sess, err := s.openSession(ctx, identity)
	if err != nil {
		return Session{}, err
	}
	s.record(store.AuditEvent{Type: store.AuditSessionLoggedIn, ActorID: identity.UserID, ActorName: identity.DisplayName})
	return sess, nil
}

// Register creates a citizen account and signs it in.
func (s *Service) Register(ctx context.Context, req authpw.RegisterRequest) (Session, error) {
	identity, err := s.passwords.Register(ctx, req)
	if err != nil {
		return Session{}, err
	}
	s.record(store.AuditEvent{Type: store.AuditUserRegistered, ActorID: identity.UserID, ActorName: identity.DisplayName})
	return s.openSession(ctx, identity)
}

func (s *Service) openSession(ctx context.Context, identity store.Identity) (Session, error) {
	now := s.now()
	data := session.Data{
		ID:          util.NewID("ses"),
		UserID:      identity.UserID,
		Username:    identity.Username,
		DisplayName: identity.DisplayName,
		IsAdmin:     identity.IsAdmin,
		Section:     session.DefaultSection,
		CreatedAt:   now.UTC(),
		ExpiresAt:   now.Add(s.cfg.RefreshTTL).UTC(),
	}
	return s.issueTokens(ctx, data)
}

// issueTokens rotates the refresh secret of data, saves it and signs a new
// access token.
func (s *Service) issueTokens(ctx context.Context, data session.Data) (Session, error) {
	opaque, err := auth.NewOpaqueToken()
	if err != nil {
		return Session{}, err
	}
	refresh := data.ID + "." + opaque
	data.RefreshHash = auth.HashToken(refresh)
	if err := s.sessions.Save(ctx, data); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}

	role := rbac.ForUser(data.IsAdmin)
	expiresAt := s.now().Add(s.cfg.AccessTTL)
	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:  data.UserID,
		Name: data.DisplayName,
		Role: string(role),
		Sid:  data.ID,
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	sess := sessionFromData(data, role)
	sess.Token = token
	sess.RefreshToken = refresh
	sess.ExpiresAt = expiresAt
	return sess, nil
}

// Refresh exchanges a refresh token for a new token pair. The old refresh
// token stops working.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	sid, _, ok := strings.Cut(strings.TrimSpace(refreshToken), ".")
	if !ok || sid == "" {
		return Session{}, session.ErrNotFound
	}
	data, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return Session{}, err
	}
	if subtle.ConstantTimeCompare([]byte(data.RefreshHash), []byte(auth.HashToken(refreshToken))) != 1 {
		return Session{}, session.ErrNotFound
	}
	if _, err := s.store.UserByID(ctx, data.UserID); err != nil {
		_ = s.sessions.Delete(ctx, sid)
		return Session{}, session.ErrNotFound
	}
	return s.issueTokens(ctx, data)
}

// SessionFromToken resolves an access token to a live session. Tokens of
// logged-out sessions and deleted users are rejected.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseTokenAt([]byte(s.cfg.JWTSecret), token, s.now())
	if err != nil {
		return Session{}, err
	}
	data, err := s.sessions.Get(ctx, claims.Sid)
	if err != nil {
		return Session{}, err
	}
	if data.UserID != claims.Sub {
		return Session{}, auth.ErrInvalidToken
	}
	user, err := s.store.UserByID(ctx, data.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return Session{}, session.ErrNotFound
		}
		return Session{}, err
	}
	data.DisplayName = user.DisplayName
	data.IsAdmin = user.IsAdmin

	sess := sessionFromData(data, rbac.ForUser(user.IsAdmin))
	sess.Token = token
	sess.ExpiresAt = time.Unix(claims.Exp, 0).UTC()
	return sess, nil
}

// Logout ends the session. The next login starts again in the default
// section.
func (s *Service) Logout(ctx context.Context, sess Session) error {
	if sess.ID == "" {
		return nil
	}
	return s.sessions.Delete(ctx, sess.ID)
}

// Navigate records the section the session is viewing. User management is
// only reachable by admins.
func (s *Service) Navigate(ctx context.Context, sess Session, raw string) (session.Section, error) {
	section, err := session.ParseSection(raw)
	if err != nil {
		return "", err
	}
	if section == session.SectionUsers && !s.Can(sess.Role, rbac.ActionManage) {
		return "", session.ErrAdminSection
	}
	data, err := s.sessions.Get(ctx, sess.ID)
	if err != nil {
		return "", err
	}
	data.Section = section
	if err := s.sessions.Save(ctx, data); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return section, nil
}

func sessionFromData(data session.Data, role rbac.Role) Session {
	return Session{
		ID:          data.ID,
		UserID:      data.UserID,
		Username:    data.Username,
		DisplayName: data.DisplayName,
		Role:        role,
		IsAdmin:     data.IsAdmin,
		Section:     data.Section,
		ExpiresAt:   data.ExpiresAt,
	}
}

// record writes an audit event after the mutation it describes. Failures
// are logged and never reach the caller.
func (s *Service) record(event store.AuditEvent) {
	if s.audit == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.audit.Record(ctx, event); err != nil {
			log.Printf("audit: record %s: %v", event.Type, err)
		}
	}()
}

// notify runs send in the background when a notifier is configured.
func (s *Service) notify(kind string, send func(Notifier) error) {
	if s.notifier == nil {
		return
	}
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		if err := send(s.notifier); err != nil {
			log.Printf("notify: %s: %v", kind, err)
		}
	}()
}

// AuditTrail returns the most recent audit events, newest first.
func (s *Service) AuditTrail(ctx context.Context, limit int) ([]store.AuditEvent, error) {
	if s.audit == nil {
		return nil, ErrAuditDisabled
	}
	return s.audit.Recent(ctx, limit)
}

// ExportReport renders the analytics report for the caller.
func (s *Service) ExportReport(ctx context.Context, sess Session, rawFormat string) (*export.Result, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, err
	}
	result, err := s.export.Export(ctx, export.Request{Format: format, RequestedBy: sess.DisplayName})
	if err != nil {
		if errors.Is(err, export.ErrPDFDependencyMissing) {
			return nil, ErrExportUnavailable
		}
		return nil, err
	}
	return result, nil
}

func (s *Service) Leaderboard(ctx context.Context) ([]views.LeaderboardEntry, error) {
	issues, err := s.store.Issues(ctx)
	if err != nil {
		return nil, err
	}
	return views.Leaderboard(issues), nil
}

func (s *Service) Analytics(ctx context.Context) (views.Analytics, error) {
	issues, err := s.store.Issues(ctx)
	if err != nil {
		return views.Analytics{}, err
	}
	return views.ComputeAnalytics(issues), nil
}

func (s *Service) MapView(ctx context.Context) (views.MapView, error) {
	issues, err := s.store.Issues(ctx)
	if err != nil {
		return views.MapView{}, err
	}
	return views.MapMarkers(issues), nil
}

// Search runs a full-text query. Category and status filters are parsed the
// same way as the issue listing, so the backends only see canonical values.
func (s *Service) Search(q search.Query) (search.Response, error) {
	filter, err := views.ParseFilter(q.Category, q.Status, "")
	if err != nil {
		return search.Response{}, err
	}
	q.Category = string(filter.Category)
	q.Status = string(filter.Status)
	return s.search.Search(q), nil
}

func (s *Service) Profile(ctx context.Context, userID string) (store.Profile, error) {
	return s.store.Profile(ctx, userID)
}
