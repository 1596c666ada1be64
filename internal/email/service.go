// Package email notifies moderators by SMTP when issues are reported or change status.
package email

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"

	"civicvoice/api/internal/store"
)

var ErrNotConfigured = errors.New("email not configured")

// Config holds SMTP configuration
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
	// To lists the moderator inboxes that receive notifications.
	To []string
}

// sendFunc matches smtp.SendMail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Service sends moderator notifications.
type Service struct {
	config Config
	server string
	auth   smtp.Auth
	send   sendFunc
}

// NewService creates a new email service
func NewService(config Config) *Service {
	var auth smtp.Auth
	if config.Username != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}
	return &Service{
		config: config,
		server: config.Host + ":" + config.Port,
		auth:   auth,
		send:   smtp.SendMail,
	}
}

// IsConfigured returns true if there is a server, a sender and at least one recipient.
func (s *Service) IsConfigured() bool {
	return s.config.Host != "" && s.config.Port != "" && s.config.From != "" && len(s.config.To) > 0
}

// SendHTMLEmail sends an HTML email
func (s *Service) SendHTMLEmail(to []string, subject, htmlBody, textBody string) error {
	if !s.IsConfigured() {
		return ErrNotConfigured
	}

	from := s.config.From
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	}

	boundary := "boundary-civicvoice"

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary)
	fmt.Fprintf(&msg, "\r\n")

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: text/plain; charset=UTF-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "%s\r\n", textBody)
	fmt.Fprintf(&msg, "\r\n")

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: text/html; charset=UTF-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "%s\r\n", htmlBody)
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "--%s--\r\n", boundary)

	return s.send(s.server, s.auth, s.config.From, to, msg.Bytes())
}

// IssueData holds data for the notification templates.
type IssueData struct {
	AppName  string
	ID       int64
	Title    string
	Category string
	Status   string
	Location string
	Actor    string
	When     string
}

func issueData(issue store.Issue, actor string, at time.Time) IssueData {
	return IssueData{
		AppName:  "CivicVoice",
		ID:       issue.ID,
		Title:    issue.Title,
		Category: string(issue.Category),
		Status:   string(issue.Status),
		Location: issue.Location,
		Actor:    actor,
		When:     at.UTC().Format("2006-01-02 15:04 MST"),
	}
}

// IssueReported tells moderators about a newly submitted issue.
func (s *Service) IssueReported(issue store.Issue, actor string, at time.Time) error {
	data := issueData(issue, actor, at)
	html, err := renderTemplate(issueReportedTemplate, data)
	if err != nil {
		return fmt.Errorf("render issue reported template: %w", err)
	}
	subject := fmt.Sprintf("[CivicVoice] New %s issue #%d: %s", data.Category, data.ID, data.Title)
	text := fmt.Sprintf("%s reported %q at %s (%s).", data.Actor, data.Title, data.Location, data.Category)
	return s.SendHTMLEmail(s.config.To, subject, html, text)
}

// StatusChanged tells moderators an issue moved to a new status.
func (s *Service) StatusChanged(issue store.Issue, actor string, at time.Time) error {
	data := issueData(issue, actor, at)
	html, err := renderTemplate(statusChangedTemplate, data)
	if err != nil {
		return fmt.Errorf("render status changed template: %w", err)
	}
	subject := fmt.Sprintf("[CivicVoice] Issue #%d is now %s", data.ID, data.Status)
	text := fmt.Sprintf("%s set %q to %s.", data.Actor, data.Title, data.Status)
	return s.SendHTMLEmail(s.config.To, subject, html, text)
}

func renderTemplate(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const layoutHead = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { border-bottom: 2px solid #2563eb; padding-bottom: 10px; margin-bottom: 20px; }
        .meta { color: #666; font-size: 14px; }
        .footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.AppName}}</h1>
    </div>
`

const layoutFoot = `
    <div class="footer">
        <p>You receive this because your address is on the {{.AppName}} moderator list.</p>
    </div>
</body>
</html>`

var issueReportedTemplate = template.Must(template.New("reported").Parse(layoutHead + `
    <h2>New issue #{{.ID}}: {{.Title}}</h2>
    <p class="meta">{{.Category}} &middot; {{.Location}} &middot; {{.When}}</p>
    <p>Reported by {{.Actor}}.</p>
` + layoutFoot))

var statusChangedTemplate = template.Must(template.New("status").Parse(layoutHead + `
    <h2>Issue #{{.ID}} is now {{.Status}}</h2>
    <p class="meta">{{.Title}} &middot; {{.Location}} &middot; {{.When}}</p>
    <p>Changed by {{.Actor}}.</p>
` + layoutFoot))
