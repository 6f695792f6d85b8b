package components

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"

	"github.com/allbin/portmon/internal/tui/colors"
)

const (
	columnKeyPort  = "port"
	columnKeyState = "state"
	columnKeyBaud  = "baud"
	columnKeyLines = "lines"
)

// PortRow is one entry of the port list
type PortRow struct {
	Port      string
	State     string
	BaudRate  int
	LineCount int
}

// PortList is the selectable table of tracked ports on the left side of
// the monitor view.
type PortList struct {
	table table.Model
}

func NewPortList() *PortList {
	columns := []table.Column{
		table.NewColumn(columnKeyPort, "Port", 18),
		table.NewColumn(columnKeyState, "State", 8),
		table.NewColumn(columnKeyBaud, "Baud", 8),
		table.NewColumn(columnKeyLines, "Lines", 7),
	}

	t := table.New(columns).
		Focused(true).
		WithBaseStyle(lipgloss.NewStyle().
			Foreground(colors.Text).
			BorderForeground(colors.Surface1))

	return &PortList{table: t}
}

// SetRows replaces the table contents with a fresh snapshot
func (pl *PortList) SetRows(rows []PortRow) {
	tableRows := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		tableRows = append(tableRows, table.NewRow(table.RowData{
			columnKeyPort:  r.Port,
			columnKeyState: r.State,
			columnKeyBaud:  fmt.Sprintf("%d", r.BaudRate),
			columnKeyLines: fmt.Sprintf("%d", r.LineCount),
		}))
	}
	pl.table = pl.table.WithRows(tableRows)
}

// Selected returns the highlighted port identifier, "" when the list is
// empty
func (pl *PortList) Selected() string {
	row := pl.table.HighlightedRow()
	port, ok := row.Data[columnKeyPort].(string)
	if !ok {
		return ""
	}
	return port
}

func (pl *PortList) SetHeight(h int) {
	pl.table = pl.table.WithPageSize(h)
}

func (pl *PortList) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	pl.table, cmd = pl.table.Update(msg)
	return cmd
}

func (pl *PortList) View() string {
	return pl.table.View()
}
