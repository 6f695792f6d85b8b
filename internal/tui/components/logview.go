package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/allbin/portmon/internal/logfmt"
	"github.com/allbin/portmon/internal/tui/styles"
)

// LogView renders the classified log lines of one port in a scrollable
// viewport that follows the tail while the user has not scrolled up.
type LogView struct {
	viewport viewport.Model
	lines    []string
	follow   bool
}

func NewLogView(width, height int) *LogView {
	vp := viewport.New(width, height)
	return &LogView{
		viewport: vp,
		follow:   true,
	}
}

func (lv *LogView) SetSize(width, height int) {
	lv.viewport.Width = width
	lv.viewport.Height = height
	lv.refresh()
}

// AddLine appends a line, styled by its classification. Lines with the
// "── " prefix are session notices (connect, disconnect, reboot) and get
// the notice style instead.
func (lv *LogView) AddLine(text string) {
	lv.lines = append(lv.lines, renderLine(text))
	lv.refresh()
}

// SetLines replaces the content wholesale, used when switching ports
func (lv *LogView) SetLines(raw []string) {
	lv.lines = lv.lines[:0]
	for _, text := range raw {
		lv.lines = append(lv.lines, renderLine(text))
	}
	lv.follow = true
	lv.refresh()
}

func renderLine(text string) string {
	if strings.HasPrefix(text, "── ") {
		return styles.NoticeStyle.Render(text)
	}
	level := logfmt.Classify(text)
	return styles.LogStyle(level).Render(logfmt.Clean(text))
}

func (lv *LogView) Clear() {
	lv.lines = nil
	lv.follow = true
	lv.viewport.SetContent("")
}

func (lv *LogView) refresh() {
	lv.viewport.SetContent(strings.Join(lv.lines, "\n"))
	if lv.follow {
		lv.viewport.GotoBottom()
	}
}

func (lv *LogView) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	lv.viewport, cmd = lv.viewport.Update(msg)
	// Resume following once the user scrolls back to the tail.
	lv.follow = lv.viewport.AtBottom()
	return cmd
}

func (lv *LogView) View() string {
	return lv.viewport.View()
}
