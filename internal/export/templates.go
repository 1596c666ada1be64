package export

import (
	"bytes"
	"embed"
	"html/template"

	"civicvoice/api/internal/views"
)

//go:embed templates/*.html
var templateFS embed.FS

var reportTemplate = template.Must(
	template.New("report.html").Funcs(template.FuncMap{
		"barWidth": barWidth,
	}).ParseFS(templateFS, "templates/report.html"),
)

// TemplateData holds data for report template rendering
type TemplateData struct {
	Title       string
	GeneratedAt string
	RequestedBy string
	Analytics   views.Analytics
	Leaderboard []views.LeaderboardEntry
}

// RenderReportHTML renders the report template with provided data
func RenderReportHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// barWidth scales a category count against the largest bar.
func barWidth(count, largest int) int {
	return views.RoundPercent(count, largest)
}
