// Package export renders the analytics report as HTML or PDF.
package export

import (
	"errors"
	"strings"
	"time"

	"civicvoice/api/internal/store"
)

// Format represents the export output format
type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts "html" and "pdf" in any case. Empty means HTML.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatHTML:
		return FormatHTML, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// Request contains parameters for an export operation
type Request struct {
	Format      Format
	Title       string
	RequestedBy string
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")

	ErrUnsupportedFormat = &store.Error{Kind: store.KindValidation, Code: "UNSUPPORTED_FORMAT", Message: "format must be html or pdf"}
)

const defaultTitle = "CivicVoice Analytics Report"

func (r Request) title() string {
	if t := strings.TrimSpace(r.Title); t != "" {
		return t
	}
	return defaultTitle
}

func stamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04 MST")
}
