package export

import (
	"context"
	"fmt"
	"html"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// chromeBinaries are tried in order when no explicit path is configured.
var chromeBinaries = []string{"chromium-browser", "chromium", "google-chrome", "google-chrome-stable"}

// PDFOptions tunes the headless Chrome renderer.
type PDFOptions struct {
	// ExecPath is the browser binary. Empty means search chromeBinaries on PATH.
	ExecPath string
	Timeout  time.Duration
}

// RenderPDF converts the report HTML to an A4 PDF with default options. It
// is the default PDFRenderer.
func RenderPDF(ctx context.Context, reportHTML string, title string) (*Result, error) {
	return NewChromeRenderer(PDFOptions{})(ctx, reportHTML, title)
}

// NewChromeRenderer returns a PDFRenderer backed by headless Chrome.
func NewChromeRenderer(opts PDFOptions) PDFRenderer {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return func(ctx context.Context, reportHTML string, title string) (*Result, error) {
		execPath, err := findChrome(opts.ExecPath)
		if err != nil {
			return nil, err
		}

		ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
		defer cancel()

		allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.ExecPath(execPath),
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)
		allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
		defer cancelAlloc()

		taskCtx, cancelTask := chromedp.NewContext(allocCtx)
		defer cancelTask()

		var pdfData []byte
		err = chromedp.Run(taskCtx,
			chromedp.Navigate("data:text/html;charset=utf-8,"+percentEncodeForDataURL(reportHTML)),
			// The summary cards are the last thing the template lays out before the tables.
			chromedp.WaitVisible("#total", chromedp.ByID),
			chromedp.ActionFunc(func(ctx context.Context) error {
				var err error
				pdfData, _, err = page.PrintToPDF().
					WithPrintBackground(true).
					WithPaperWidth(8.27). // A4
					WithPaperHeight(11.69).
					WithMarginTop(0.6).
					WithMarginBottom(0.7).
					WithMarginLeft(0.6).
					WithMarginRight(0.6).
					WithDisplayHeaderFooter(true).
					WithHeaderTemplate("<span></span>").
					WithFooterTemplate(footerTemplate(title)).
					Do(ctx)
				return err
			}),
		)
		if err != nil {
			return nil, fmt.Errorf("chrome pdf generation failed: %w", err)
		}

		return &Result{
			Data:     pdfData,
			Filename: sanitizeFilename(title) + ".pdf",
			MimeType: "application/pdf",
		}, nil
	}
}

func findChrome(configured string) (string, error) {
	candidates := chromeBinaries
	if configured != "" {
		candidates = []string{configured}
	}
	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: none of %s found", ErrPDFDependencyMissing, strings.Join(candidates, ", "))
}

// footerTemplate prints the title and page counter; Chrome fills the
// pageNumber and totalPages spans.
func footerTemplate(title string) string {
	return `<div style="font-size:8px;width:100%;padding:0 0.6in;color:#64748b;display:flex;justify-content:space-between;">` +
		`<span>` + html.EscapeString(title) + `</span>` +
		`<span>Page <span class="pageNumber"></span> of <span class="totalPages"></span></span></div>`
}

// percentEncodeForDataURL encodes s byte-wise for a data URL. Spaces become
// %20, not +.
func percentEncodeForDataURL(s string) string {
	var result strings.Builder
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch {
		case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9',
			b == '-', b == '_', b == '.', b == '~':
			result.WriteByte(b)
		default:
			fmt.Fprintf(&result, "%%%02X", b)
		}
	}
	return result.String()
}

// sanitizeFilename creates a safe filename from a title
func sanitizeFilename(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('-')
		}
	}
	result := b.String()
	if len(result) > 50 {
		result = result[:50]
	}
	if result == "" {
		result = "report"
	}
	return result
}
