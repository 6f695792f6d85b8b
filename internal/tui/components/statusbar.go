package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/portmon/internal/tui/colors"
)

// StatusBar renders the bottom bar of the monitor: selected port,
// connection indicator, baud rate, port count and the latest notice.
type StatusBar struct {
	width  int
	port   string
	state  string
	baud   int
	count  int
	notice string
}

func NewStatusBar() *StatusBar {
	return &StatusBar{state: "closed"}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func (sb *StatusBar) SetPort(port, state string, baud int) {
	sb.port = port
	sb.state = state
	sb.baud = baud
}

func (sb *StatusBar) SetPortCount(n int) {
	sb.count = n
}

func (sb *StatusBar) SetNotice(notice string) {
	sb.notice = notice
}

func (sb *StatusBar) View() string {
	width := sb.width
	if width <= 0 {
		width = 80
	}

	portStyle := lipgloss.NewStyle().
		Foreground(colors.Mauve).
		Bold(true).
		Padding(0, 1)
	portLabel := sb.port
	if portLabel == "" {
		portLabel = "no port"
	}
	port := portStyle.Render(portLabel)

	var indicator string
	switch sb.state {
	case "open":
		indicator = lipgloss.NewStyle().Foreground(colors.Green).Render("●")
	case "failed":
		indicator = lipgloss.NewStyle().Foreground(colors.Red).Render("✗")
	default:
		indicator = lipgloss.NewStyle().Foreground(colors.Overlay0).Render("○")
	}

	detailStyle := lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Padding(0, 1)
	details := detailStyle.Render(fmt.Sprintf("⚡ %d baud │ %d ports", sb.baud, sb.count))

	noticeStyle := lipgloss.NewStyle().
		Foreground(colors.Subtext1).
		Padding(0, 1)
	notice := noticeStyle.Render(sb.notice)

	left := lipgloss.JoinHorizontal(lipgloss.Left, port, indicator, details)
	spacerWidth := width - lipgloss.Width(left) - lipgloss.Width(notice)
	if spacerWidth < 1 {
		spacerWidth = 1
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	barStyle := lipgloss.NewStyle().
		Foreground(colors.Text).
		Background(colors.Surface0).
		Width(width)

	return barStyle.Render(lipgloss.JoinHorizontal(lipgloss.Left, left, spacer, notice))
}
