package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Manasaramaka/ai-requirement-clarity-auditor/internal/audit"
)

var (
	// Colors
	ColorPrimary   = lipgloss.Color("208") // Orange, the report accent
	ColorSecondary = lipgloss.Color("241") // Gray
	ColorSuccess   = lipgloss.Color("42")  // Green
	ColorError     = lipgloss.Color("160") // Red
	ColorWarning   = lipgloss.Color("214") // Yellow
	ColorText      = lipgloss.Color("252") // White/Gray
	ColorCyan      = lipgloss.Color("87")  // Cyan for questions

	// Base Styles
	StyleTitle   = lipgloss.NewStyle().Foreground(ColorText).Bold(true)
	StyleSubtle  = lipgloss.NewStyle().Foreground(ColorSecondary)
	StylePrimary = lipgloss.NewStyle().Foreground(ColorPrimary)
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning)
	StyleText    = lipgloss.NewStyle().Foreground(ColorText)
	StyleCyan    = lipgloss.NewStyle().Foreground(ColorCyan)

	StyleHeader = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true).
			Padding(0, 1)

	StyleSectionTitle = lipgloss.NewStyle().
				Foreground(ColorPrimary).
				Bold(true).
				Underline(true)

	StyleMetricValue = lipgloss.NewStyle().Foreground(ColorText).Bold(true)
)

// Icon returns a styled icon string
func Icon(icon string, style lipgloss.Style) string {
	return style.Render(icon)
}

// RiskColor picks the color for a risk tier: green Low, yellow Medium, red High.
func RiskColor(level audit.RiskLevel) lipgloss.Color {
	switch level {
	case audit.RiskLow:
		return ColorSuccess
	case audit.RiskMedium:
		return ColorWarning
	default:
		return ColorError
	}
}

// RiskStyle is the foreground style for RiskColor.
func RiskStyle(level audit.RiskLevel) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(RiskColor(level))
}

// StatusIcon maps a checklist status to the icon shown next to the item.
func StatusIcon(status audit.ChecklistStatus) string {
	switch status {
	case audit.StatusYes:
		return "✅"
	case audit.StatusPartial:
		return "⚠️"
	default:
		return "❌"
	}
}

// StatusStyle colors a checklist status.
func StatusStyle(status audit.ChecklistStatus) lipgloss.Style {
	switch status {
	case audit.StatusYes:
		return StyleSuccess
	case audit.StatusPartial:
		return StyleWarning
	default:
		return StyleError
	}
}
