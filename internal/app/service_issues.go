package app

import (
	"context"
	"strconv"

	"civicvoice/api/internal/media"
	"civicvoice/api/internal/search"
	"civicvoice/api/internal/store"
	"civicvoice/api/internal/views"
)

type SubmitIssueInput struct {
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Images      []string `json:"images"`
	Coordinates *struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"coordinates"`
}

// IssueDetail is an issue with its discussion, as seen by one viewer.
type IssueDetail struct {
	Issue        store.Issue
	Comments     []store.Comment
	VerifiedByMe bool
}

func (s *Service) ListIssues(ctx context.Context, filter views.Filter) ([]store.Issue, error) {
	issues, err := s.store.Issues(ctx)
	if err != nil {
		return nil, err
	}
	return views.FilterAndSort(issues, filter), nil
}

func (s *Service) IssueDetail(ctx context.Context, viewer Session, issueID int64) (IssueDetail, error) {
	issue, err := s.store.Issue(ctx, issueID)
	if err != nil {
		return IssueDetail{}, err
	}
	comments, err := s.store.Comments(ctx, issueID)
	if err != nil {
		return IssueDetail{}, err
	}
	verified, err := s.store.HasVerified(ctx, issueID, viewer.UserID)
	if err != nil {
		return IssueDetail{}, err
	}
	return IssueDetail{Issue: issue, Comments: comments, VerifiedByMe: verified}, nil
}

// SubmitIssue validates the report and its images, uploads inline images,
// then records it under the caller's identity. Nothing is uploaded for a
// report that fails validation.
func (s *Service) SubmitIssue(ctx context.Context, actor Session, input SubmitIssueInput) (store.Issue, error) {
	draft := store.IssueDraft{
		Title:       input.Title,
		Category:    store.Category(input.Category),
		Description: input.Description,
		Location:    input.Location,
	}
	if input.Coordinates != nil {
		draft.Coordinates = &store.Coordinates{Lat: input.Coordinates.Lat, Lng: input.Coordinates.Lng}
	}
	draft, err := store.ValidateDraft(draft)
	if err != nil {
		return store.Issue{}, err
	}
	pending, err := media.Prepare(input.Images)
	if err != nil {
		return store.Issue{}, err
	}
	batch, err := s.media.Store(ctx, pending)
	if err != nil {
		return store.Issue{}, err
	}
	draft.Images = batch.Refs

	issue, err := s.store.Submit(ctx, actor.Identity(), draft)
	if err != nil {
		s.media.Discard(context.WithoutCancel(ctx), batch)
		return store.Issue{}, err
	}
	s.indexed(issue)
	s.record(store.AuditEvent{
		Type:      store.AuditIssueSubmitted,
		ActorID:   actor.UserID,
		ActorName: actor.DisplayName,
		IssueID:   issue.ID,
		Detail:    map[string]string{"title": issue.Title, "category": string(issue.Category)},
	})
	at := s.now()
	s.notify("issue reported", func(n Notifier) error { return n.IssueReported(issue, actor.DisplayName, at) })
	return issue, nil
}

func (s *Service) Vote(ctx context.Context, actor Session, issueID int64) (store.Issue, error) {
	issue, err := s.store.Vote(ctx, issueID)
	if err != nil {
		return store.Issue{}, err
	}
	s.indexed(issue)
	s.record(store.AuditEvent{
		Type:      store.AuditIssueVoted,
		ActorID:   actor.UserID,
		ActorName: actor.DisplayName,
		IssueID:   issue.ID,
		Detail:    map[string]string{"votes": strconv.Itoa(issue.Votes)},
	})
	return issue, nil
}

func (s *Service) SetStatus(ctx context.Context, actor Session, issueID int64, status string) (store.Issue, error) {
	issue, err := s.store.SetStatus(ctx, issueID, store.Status(status))
	if err != nil {
		return store.Issue{}, err
	}
	s.indexed(issue)
	s.record(store.AuditEvent{
		Type:      store.AuditIssueStatus,
		ActorID:   actor.UserID,
		ActorName: actor.DisplayName,
		IssueID:   issue.ID,
		Detail:    map[string]string{"status": string(issue.Status)},
	})
	at := s.now()
	s.notify("status changed", func(n Notifier) error { return n.StatusChanged(issue, actor.DisplayName, at) })
	return issue, nil
}

// Verify confirms an issue on behalf of the caller. changed is false when
// the caller had already verified it.
func (s *Service) Verify(ctx context.Context, actor Session, issueID int64) (store.Issue, bool, error) {
	issue, changed, err := s.store.Verify(ctx, issueID, actor.Identity())
	if err != nil {
		return store.Issue{}, false, err
	}
	if changed {
		s.record(store.AuditEvent{
			Type:      store.AuditIssueVerified,
			ActorID:   actor.UserID,
			ActorName: actor.DisplayName,
			IssueID:   issue.ID,
			Detail:    map[string]string{"verifications": strconv.Itoa(issue.Verifications)},
		})
	}
	return issue, changed, nil
}

// AddComment posts text on an issue. Blank text is ignored and reported
// with added=false.
func (s *Service) AddComment(ctx context.Context, actor Session, issueID int64, text string) (store.Comment, bool, error) {
	comment, added, err := s.store.AddComment(ctx, issueID, actor.Identity(), text)
	if err != nil || !added {
		return comment, added, err
	}
	s.record(store.AuditEvent{
		Type:      store.AuditCommentAdded,
		ActorID:   actor.UserID,
		ActorName: actor.DisplayName,
		IssueID:   issueID,
		Detail:    map[string]string{"commentId": strconv.FormatInt(comment.ID, 10)},
	})
	return comment, true, nil
}

func (s *Service) Comments(ctx context.Context, issueID int64) ([]store.Comment, error) {
	return s.store.Comments(ctx, issueID)
}

// UploadImage validates a single image and returns the reference to store
// on a report.
func (s *Service) UploadImage(ctx context.Context, ref string) (string, error) {
	return s.media.Accept(ctx, ref)
}

func (s *Service) indexed(issue store.Issue) {
	s.search.IndexIssue(search.RecordFromIssue(issue))
}
