// Package style provides consistent terminal styling for civicctl using Lipgloss.
package style

import "github.com/charmbracelet/lipgloss"

var (
	// Success style for positive outcomes
	Success = lipgloss.NewStyle().
		Foreground(lipgloss.Color("10")). // Green
		Bold(true)

	// Warning style for cautionary messages
	Warning = lipgloss.NewStyle().
		Foreground(lipgloss.Color("11")). // Yellow
		Bold(true)

	// Error style for failures
	Error = lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")). // Red
		Bold(true)

	Info = lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")) // Blue

	Dim = lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")) // Gray

	Bold = lipgloss.NewStyle().
		Bold(true)

	SuccessPrefix = Success.Render("✓")
	WarningPrefix = Warning.Render("⚠")
	ErrorPrefix   = Error.Render("✗")
	ArrowPrefix   = Info.Render("→")
)

// Status colors an issue status the way the dashboard badges do:
// Open is red, In Progress is yellow, Resolved is green.
func Status(status string) string {
	switch status {
	case "Resolved":
		return Success.Render(status)
	case "In Progress":
		return Warning.Render(status)
	case "Open":
		return Error.Render(status)
	default:
		return Dim.Render(status)
	}
}

// Bar renders a horizontal bar of width cells out of total.
func Bar(width, total int) string {
	if total <= 0 {
		return ""
	}
	if width < 0 {
		width = 0
	}
	if width > total {
		width = total
	}
	filled := make([]rune, 0, total)
	for i := 0; i < total; i++ {
		if i < width {
			filled = append(filled, '█')
		} else {
			filled = append(filled, '░')
		}
	}
	return Info.Render(string(filled))
}
