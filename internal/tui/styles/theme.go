package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/portmon/internal/logfmt"
	"github.com/allbin/portmon/internal/tui/colors"
)

var (
	// Header styles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve).
			Background(colors.Surface0).
			Padding(0, 1)

	// Status styles
	StatusConnectedStyle = lipgloss.NewStyle().
				Foreground(colors.Green).
				Bold(true)

	StatusFailedStyle = lipgloss.NewStyle().
				Foreground(colors.Red).
				Bold(true)

	StatusClosedStyle = lipgloss.NewStyle().
				Foreground(colors.Overlay0)

	// Content area styles
	ContentBorderStyle = lipgloss.NewStyle().
				BorderTop(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(colors.Surface1)

	// Log line styles keyed to the classifier's levels
	LogPlainStyle   = lipgloss.NewStyle().Foreground(colors.Text)
	LogInfoStyle    = lipgloss.NewStyle().Foreground(colors.Green)
	LogWarningStyle = lipgloss.NewStyle().Foreground(colors.Yellow)
	LogErrorStyle   = lipgloss.NewStyle().Foreground(colors.Red).Bold(true)
	LogSuccessStyle = lipgloss.NewStyle().Foreground(colors.Teal).Bold(true)

	// System notices injected between serial lines (connect/disconnect)
	NoticeStyle = lipgloss.NewStyle().
			Foreground(colors.Sapphire).
			Italic(true)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Red).
			Align(lipgloss.Center)
)

// LogStyle returns the render style for a classified serial line
func LogStyle(level logfmt.Level) lipgloss.Style {
	switch level {
	case logfmt.LevelInfo:
		return LogInfoStyle
	case logfmt.LevelWarning:
		return LogWarningStyle
	case logfmt.LevelError:
		return LogErrorStyle
	case logfmt.LevelSuccess:
		return LogSuccessStyle
	default:
		return LogPlainStyle
	}
}
