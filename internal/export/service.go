package export

import (
	"context"
	"fmt"
	"time"

	"civicvoice/api/internal/store"
	"civicvoice/api/internal/views"
)

// IssueSource returns the current issue snapshot.
type IssueSource func(ctx context.Context) ([]store.Issue, error)

// PDFRenderer turns rendered HTML into a PDF document.
type PDFRenderer func(ctx context.Context, html, title string) (*Result, error)

// Service provides analytics report export
type Service struct {
	issues IssueSource
	pdf    PDFRenderer
	now    func() time.Time
}

// NewService creates a new export service. A nil renderer uses headless
// Chrome.
func NewService(issues IssueSource, pdf PDFRenderer) *Service {
	if pdf == nil {
		pdf = RenderPDF
	}
	return &Service{issues: issues, pdf: pdf, now: time.Now}
}

// Export renders the analytics report in the requested format
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	issues, err := s.issues(ctx)
	if err != nil {
		return nil, fmt.Errorf("load issues: %w", err)
	}

	title := req.title()
	html, err := RenderReportHTML(TemplateData{
		Title:       title,
		GeneratedAt: stamp(s.now()),
		RequestedBy: req.RequestedBy,
		Analytics:   views.ComputeAnalytics(issues),
		Leaderboard: views.Leaderboard(issues),
	})
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	switch req.Format {
	case "", FormatHTML:
		return &Result{
			Data:     []byte(html),
			Filename: sanitizeFilename(title) + ".html",
			MimeType: "text/html; charset=utf-8",
		}, nil
	case FormatPDF:
		return s.pdf(ctx, html, title)
	default:
		return nil, ErrUnsupportedFormat
	}
}
