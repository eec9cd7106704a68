package terminal

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	colorFg        = lipgloss.Color("#EDEDED")
	colorMuted     = lipgloss.Color("#666666")
	colorBorder    = lipgloss.Color("#333333")
	colorHighlight = lipgloss.Color("#0070F3")

	colorSuccess = lipgloss.Color("#50E3C2")
	colorError   = lipgloss.Color("#E00")
	colorRunning = lipgloss.Color("#F5A623")
	colorPending = lipgloss.Color("#666666")
)

var (
	containerStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorFg)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	hintStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)

	selectedItemStyle = lipgloss.NewStyle().
				Foreground(colorHighlight).
				Bold(true)

	normalItemStyle = lipgloss.NewStyle().
			Foreground(colorFg)

	cursorStyle = lipgloss.NewStyle().
			Foreground(colorHighlight).
			Bold(true)
)

// operation status
var (
	pendingStyle = lipgloss.NewStyle().
			Foreground(colorPending)

	runningStyle = lipgloss.NewStyle().
			Foreground(colorRunning).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	logContentStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	logIndent = "   "
)

const (
	iconPending = "○"
	iconRunning = "●"
	iconSuccess = "✓"
	iconFail    = "✕"
)

func renderCursor(active bool) string {
	if active {
		return cursorStyle.Render("▸")
	}
	return " "
}

func renderItem(name string, active bool) string {
	if active {
		return selectedItemStyle.Render(name)
	}
	return normalItemStyle.Render(name)
}

func renderCheckbox(checked bool) string {
	if checked {
		return successStyle.Render("[✓]")
	}
	return mutedStyle.Render("[ ]")
}

func renderStatusIcon(status OperationStatus) string {
	switch status {
	case StatusRunning:
		return runningStyle.Render(iconRunning)
	case StatusPass:
		return successStyle.Render(iconSuccess)
	case StatusFail:
		return errorStyle.Render(iconFail)
	default:
		return pendingStyle.Render(iconPending)
	}
}

func renderOperationName(name string, status OperationStatus) string {
	switch status {
	case StatusPass:
		return successStyle.Render(name)
	case StatusFail:
		return errorStyle.Render(name)
	case StatusRunning:
		return runningStyle.Render(name)
	default:
		return mutedStyle.Render(name)
	}
}

func renderHint(text string) string {
	return hintStyle.Render(text)
}
