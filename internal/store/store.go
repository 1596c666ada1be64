package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"civicvoice/api/internal/util"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Store owns every piece of mutable civic state: credentials, issues,
// comments, profiles and the verification ledger. Each mutation runs in a
// single critical section and reads hand out copies.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	users     map[string]*User // keyed by folded username
	userOrder []string
	profiles  map[string]*Profile // keyed by user id

	issues      []*Issue // newest first
	issueByID   map[int64]*Issue
	nextIssueID int64

	comments      map[int64][]Comment
	lastCommentID int64

	verifiers map[int64][]string // user ids, insertion order
}

func New() *Store {
	return NewWithClock(time.Now)
}

func NewWithClock(now func() time.Time) *Store {
	return &Store{
		now:         now,
		users:       make(map[string]*User),
		profiles:    make(map[string]*Profile),
		issueByID:   make(map[int64]*Issue),
		nextIssueID: 1,
		comments:    make(map[int64][]Comment),
		verifiers:   make(map[int64][]string),
	}
}

// FoldUsername is the canonical form of a username used as the credential key.
func FoldUsername(username string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(username))
}

// CreateUser inserts a credential record and an empty profile when the user
// has none yet. The username must already be validated.
func (s *Store) CreateUser(ctx context.Context, user User) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	key := FoldUsername(user.Username)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[key]; exists {
		return User{}, fmt.Errorf("%s: %w", key, ErrUsernameTaken)
	}
	if user.ID == "" {
		user.ID = util.NewID("usr")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now().UTC()
	}
	user.Username = key
	stored := user
	s.users[key] = &stored
	s.userOrder = append(s.userOrder, key)
	s.ensureProfileLocked(user.ID, user.DisplayName)
	return stored, nil
}

// UserByUsername returns the full credential record, password hash included.
func (s *Store) UserByUsername(ctx context.Context, username string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[FoldUsername(username)]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return *user, nil
}

func (s *Store) UserByID(ctx context.Context, userID string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, key := range s.userOrder {
		if user := s.users[key]; user.ID == userID {
			return *user, nil
		}
	}
	return User{}, ErrUserNotFound
}

// DeleteUser removes a credential record. Profiles, issues and comments stay
// keyed by the stable user id.
func (s *Store) DeleteUser(ctx context.Context, username string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	key := FoldUsername(username)
	if key == ReservedAdmin {
		return User{}, ErrCannotDeleteAdmin
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[key]
	if !ok {
		return User{}, fmt.Errorf("%s: %w", key, ErrUserNotFound)
	}
	delete(s.users, key)
	for i, existing := range s.userOrder {
		if existing == key {
			s.userOrder = append(s.userOrder[:i], s.userOrder[i+1:]...)
			break
		}
	}
	removed := *user
	removed.PasswordHash = ""
	return removed, nil
}

// Users lists credential records in creation order with password hashes
// stripped.
func (s *Store) Users(ctx context.Context) ([]User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]User, 0, len(s.userOrder))
	for _, key := range s.userOrder {
		user := *s.users[key]
		user.PasswordHash = ""
		items = append(items, user)
	}
	return items, nil
}

// PutProfile replaces the profile for profile.UserID.
func (s *Store) PutProfile(ctx context.Context, profile Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if profile.UserID == "" {
		return fmt.Errorf("put profile: %w", ErrUserNotFound)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneProfile(&profile)
	s.profiles[profile.UserID] = &stored
	return nil
}

func (s *Store) Profile(ctx context.Context, userID string) (Profile, error) {
	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return Profile{}, ErrProfileNotFound
	}
	return cloneProfile(profile), nil
}

// ProfileByName finds the first profile whose display name matches exactly.
// Display names are not unique; prefer Profile with a user id.
func (s *Store) ProfileByName(ctx context.Context, name string) (Profile, error) {
	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var match *Profile
	for _, profile := range s.profiles {
		if profile.DisplayName != name {
			continue
		}
		if match == nil || profile.UserID < match.UserID {
			match = profile
		}
	}
	if match == nil {
		return Profile{}, ErrProfileNotFound
	}
	return cloneProfile(match), nil
}

// ImportIssue appends an issue with its id and counters preserved. It is used
// for seed data; new reports go through Submit.
func (s *Store) ImportIssue(ctx context.Context, issue Issue) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.issueByID[issue.ID]; exists || issue.ID <= 0 {
		return fmt.Errorf("import issue %d: duplicate or invalid id", issue.ID)
	}
	stored := cloneIssue(&issue)
	s.issues = append(s.issues, &stored)
	s.issueByID[stored.ID] = &stored
	if stored.ID >= s.nextIssueID {
		s.nextIssueID = stored.ID + 1
	}
	return nil
}

// ValidateDraft checks the fields Submit requires and returns the draft with
// its title trimmed and category canonical.
func ValidateDraft(draft IssueDraft) (IssueDraft, error) {
	draft.Title = strings.TrimSpace(draft.Title)
	if draft.Title == "" {
		return IssueDraft{}, ErrTitleRequired
	}
	category, err := ParseCategory(string(draft.Category))
	if err != nil {
		return IssueDraft{}, err
	}
	draft.Category = category
	if draft.Coordinates != nil && !draft.Coordinates.Valid() {
		return IssueDraft{}, ErrInvalidCoords
	}
	return draft, nil
}

// Submit records a new report from actor. Status, votes, verifications, date
// and reporter are always set here, never taken from the draft.
func (s *Store) Submit(ctx context.Context, actor Identity, draft IssueDraft) (Issue, error) {
	if err := ctx.Err(); err != nil {
		return Issue{}, err
	}
	draft, err := ValidateDraft(draft)
	if err != nil {
		return Issue{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	issue := &Issue{
		ID:          s.nextIssueID,
		Title:       draft.Title,
		Category:    draft.Category,
		Status:      StatusOpen,
		Description: strings.TrimSpace(draft.Description),
		Location:    strings.TrimSpace(draft.Location),
		ReportedOn:  truncateToDate(s.now()),
		ReporterID:  actor.UserID,
	}
	if len(draft.Images) > 0 {
		issue.Images = append([]string(nil), draft.Images...)
	}
	if draft.Coordinates != nil {
		coords := *draft.Coordinates
		issue.Coordinates = &coords
	}
	s.nextIssueID++

	s.issues = append([]*Issue{issue}, s.issues...)
	s.issueByID[issue.ID] = issue

	profile := s.ensureProfileLocked(actor.UserID, actor.DisplayName)
	profile.IssuesReported++

	return s.snapshotLocked(issue), nil
}

// Vote adds one vote. Votes are not deduplicated per user.
func (s *Store) Vote(ctx context.Context, issueID int64) (Issue, error) {
	if err := ctx.Err(); err != nil {
		return Issue{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	issue, err := s.issueLocked(issueID)
	if err != nil {
		return Issue{}, err
	}
	issue.Votes++
	return s.snapshotLocked(issue), nil
}

// SetStatus overwrites the status; any status is reachable from any other.
func (s *Store) SetStatus(ctx context.Context, issueID int64, status Status) (Issue, error) {
	if err := ctx.Err(); err != nil {
		return Issue{}, err
	}
	status, err := ParseStatus(string(status))
	if err != nil {
		return Issue{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	issue, err := s.issueLocked(issueID)
	if err != nil {
		return Issue{}, err
	}
	issue.Status = status
	return s.snapshotLocked(issue), nil
}

// Verify records actor's confirmation of an issue. A repeat verification by
// the same user is a silent no-op and reports changed=false. Otherwise the
// count, the ledger and the actor's points move together.
func (s *Store) Verify(ctx context.Context, issueID int64, actor Identity) (Issue, bool, error) {
	if err := ctx.Err(); err != nil {
		return Issue{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	issue, err := s.issueLocked(issueID)
	if err != nil {
		return Issue{}, false, err
	}
	for _, userID := range s.verifiers[issueID] {
		if userID == actor.UserID {
			return s.snapshotLocked(issue), false, nil
		}
	}

	s.verifiers[issueID] = append(s.verifiers[issueID], actor.UserID)
	issue.Verifications++
	s.ensureProfileLocked(actor.UserID, actor.DisplayName).Points += PointsPerVerification
	return s.snapshotLocked(issue), true, nil
}

// AddComment appends a comment. Blank text is ignored and reports added=false.
func (s *Store) AddComment(ctx context.Context, issueID int64, actor Identity, text string) (Comment, bool, error) {
	if err := ctx.Err(); err != nil {
		return Comment{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.issueLocked(issueID); err != nil {
		return Comment{}, false, err
	}
	if strings.TrimSpace(text) == "" {
		return Comment{}, false, nil
	}

	now := s.now()
	id := now.UnixMilli()
	if id <= s.lastCommentID {
		id = s.lastCommentID + 1
	}
	s.lastCommentID = id

	comment := Comment{
		ID:         id,
		IssueID:    issueID,
		AuthorID:   actor.UserID,
		AuthorName: actor.DisplayName,
		Text:       text,
		CreatedAt:  now.UTC(),
	}
	s.comments[issueID] = append(s.comments[issueID], comment)
	s.ensureProfileLocked(actor.UserID, actor.DisplayName).Points += PointsPerComment
	return s.commentSnapshotLocked(comment), true, nil
}

func (s *Store) Issue(ctx context.Context, issueID int64) (Issue, error) {
	if err := ctx.Err(); err != nil {
		return Issue{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	issue, err := s.issueLocked(issueID)
	if err != nil {
		return Issue{}, err
	}
	return s.snapshotLocked(issue), nil
}

// Issues returns every issue, newest submission first, with reporter names
// resolved from the profile table.
func (s *Store) Issues(ctx context.Context) ([]Issue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]Issue, 0, len(s.issues))
	for _, issue := range s.issues {
		items = append(items, s.snapshotLocked(issue))
	}
	return items, nil
}

func (s *Store) Comments(ctx context.Context, issueID int64) ([]Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.issueLocked(issueID); err != nil {
		return nil, err
	}
	items := make([]Comment, 0, len(s.comments[issueID]))
	for _, comment := range s.comments[issueID] {
		items = append(items, s.commentSnapshotLocked(comment))
	}
	return items, nil
}

// Verifiers returns the ids of users who verified the issue, in order.
func (s *Store) Verifiers(ctx context.Context, issueID int64) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.issueLocked(issueID); err != nil {
		return nil, err
	}
	return append([]string{}, s.verifiers[issueID]...), nil
}

func (s *Store) HasVerified(ctx context.Context, issueID int64, userID string) (bool, error) {
	verifiers, err := s.Verifiers(ctx, issueID)
	if err != nil {
		return false, err
	}
	for _, id := range verifiers {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

// Ping satisfies readiness checks; the in-memory store is always available.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) issueLocked(issueID int64) (*Issue, error) {
	issue, ok := s.issueByID[issueID]
	if !ok {
		return nil, fmt.Errorf("issue %d: %w", issueID, ErrIssueNotFound)
	}
	return issue, nil
}

func (s *Store) snapshotLocked(issue *Issue) Issue {
	out := cloneIssue(issue)
	out.ReporterName = s.displayNameLocked(issue.ReporterID, issue.ReporterName)
	return out
}

func (s *Store) commentSnapshotLocked(comment Comment) Comment {
	comment.AuthorName = s.displayNameLocked(comment.AuthorID, comment.AuthorName)
	return comment
}

func (s *Store) displayNameLocked(userID, fallback string) string {
	if profile, ok := s.profiles[userID]; ok && profile.DisplayName != "" {
		return profile.DisplayName
	}
	return fallback
}

func (s *Store) ensureProfileLocked(userID, displayName string) *Profile {
	profile, ok := s.profiles[userID]
	if !ok {
		profile = &Profile{UserID: userID, DisplayName: displayName, Badges: []string{}}
		s.profiles[userID] = profile
	}
	return profile
}

func truncateToDate(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

const (
	PointsPerComment      = 5
	PointsPerVerification = 10
)
