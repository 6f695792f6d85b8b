/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/allbin/portmon"
	"github.com/allbin/portmon/internal/logger"
	"github.com/allbin/portmon/internal/tui/components"
	"github.com/allbin/portmon/internal/tui/keys"
	"github.com/allbin/portmon/internal/tui/models"
	"github.com/allbin/portmon/internal/tui/styles"
)

// monitorCmd represents the monitor command
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Monitor every attached USB serial device",
	Long: `Monitor all USB serial devices in a terminal interface.

Devices are discovered automatically: plugging one in opens a session,
unplugging it closes the session, without touching the other ports.
Each port keeps its own log buffer with ESP-IDF log highlighting.

Key bindings:
- up/down selects the port whose log is shown
- R reboots the selected device over DTR/RTS
- r reconnects every port
- b cycles the shared baud rate and reconnects
- c clears the selected port's buffer, s saves it to a file

Example usage:
  portmon monitor
  portmon monitor --baud 9600`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runMonitorTUI(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

// monitorModel is the Bubble Tea model for the monitor command
type monitorModel struct {
	*models.MonitorModel
	portList  *components.PortList
	logView   *components.LogView
	statusBar *components.StatusBar
	help      help.Model
	keys      keys.MonitorKeys
	send      func(tea.Msg)
	cancel    context.CancelFunc
	ready     bool
	width     int
	height    int
}

func runMonitorTUI() error {
	cfg, err := portmon.NewConfig(portmon.WithBaudRate(viper.GetInt("baud")))
	if err != nil {
		return err
	}

	// The TUI owns the terminal, so diagnostics go to a file or nowhere.
	logCfg := logger.Config{Dir: viper.GetString("log-dir")}
	if logCfg.Dir == "" {
		logCfg.Path = os.DevNull
	}
	log, logCloser := logger.New("monitor", logCfg)
	defer logCloser.Close()

	manager := portmon.NewManager(cfg, log)

	m := monitorModel{
		MonitorModel: models.NewMonitorModel(manager),
		portList:     components.NewPortList(),
		logView:      components.NewLogView(0, 0),
		statusBar:    components.NewStatusBar(),
		help:         help.New(),
		keys:         keys.NewMonitorKeys(),
	}

	p := tea.NewProgram(&m, tea.WithAltScreen())
	m.send = p.Send

	manager.SetSink(func(l portmon.Line) {
		p.Send(models.LineMsg{Port: l.Port, Text: l.Text})
	})
	manager.SetEventFunc(func(e portmon.Event) {
		p.Send(models.PortEventMsg{Port: e.Port, Type: e.Type, BaudRate: e.BaudRate, Err: e.Err})
	})

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	managerDone := make(chan struct{})
	go func() {
		manager.Run(ctx)
		close(managerDone)
	}()

	_, err = p.Run()

	cancel()
	select {
	case <-managerDone:
	case <-time.After(2 * time.Second):
	}
	return err
}

func (m *monitorModel) Init() tea.Cmd {
	return nil
}

func (m *monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.ready = true

	case models.LineMsg:
		m.AddLine(msg.Port, msg.Text)
		if msg.Port == m.Selected() {
			m.logView.AddLine(msg.Text)
		}
		m.refreshPorts()

	case models.PortEventMsg:
		switch msg.Type {
		case portmon.EventOpened:
			m.statusBar.SetNotice(fmt.Sprintf("%s connected", msg.Port))
		case portmon.EventOpenFailed:
			m.statusBar.SetNotice(fmt.Sprintf("%s open failed: %v", msg.Port, msg.Err))
		case portmon.EventRemoved:
			m.statusBar.SetNotice(fmt.Sprintf("%s disconnected", msg.Port))
		}
		// Status lines live in the port's buffer so they survive
		// switching ports and end up in saved logs.
		m.AddLine(msg.Port, "── "+m.eventText(msg))
		if msg.Port == m.Selected() {
			m.logView.AddLine("── " + m.eventText(msg))
		}
		m.refreshPorts()
		m.ensureSelection()

	case models.ResetDoneMsg:
		if msg.OK {
			m.statusBar.SetNotice(fmt.Sprintf("%s rebooted", msg.Port))
		} else {
			m.statusBar.SetNotice(fmt.Sprintf("%s reboot failed: %s", msg.Port, msg.ErrText))
		}
		text := "── device rebooted"
		if !msg.OK {
			text = "── reboot failed: " + msg.ErrText
		}
		m.AddLine(msg.Port, text)
		if msg.Port == m.Selected() {
			m.logView.AddLine(text)
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.cancel()
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.layout()

		case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
			cmds = append(cmds, m.portList.Update(msg))
			m.syncSelection()

		case key.Matches(msg, m.keys.ClearLogs):
			if port := m.Selected(); port != "" {
				m.ClearLines(port)
				m.logView.Clear()
				m.statusBar.SetNotice(fmt.Sprintf("%s logs cleared", port))
				m.refreshPorts()
			}

		case key.Matches(msg, m.keys.SaveLogs):
			if port := m.Selected(); port != "" {
				path, err := m.SaveLogs(".", port)
				if err != nil {
					m.statusBar.SetNotice(fmt.Sprintf("save failed: %v", err))
				} else {
					m.statusBar.SetNotice("saved " + path)
				}
			}

		case key.Matches(msg, m.keys.ReconnectAll):
			attempted := m.Manager().ReconnectAll()
			m.statusBar.SetNotice(fmt.Sprintf("reconnected %d port(s)", len(attempted)))
			m.refreshPorts()

		case key.Matches(msg, m.keys.Reboot):
			if port := m.Selected(); port != "" {
				m.rebootSelected(port)
			}

		case key.Matches(msg, m.keys.CycleBaud):
			rate := m.CycleBaud()
			m.statusBar.SetNotice(fmt.Sprintf("baud rate now %d", rate))
			m.refreshPorts()
		}
	}

	cmds = append(cmds, m.logView.Update(msg))
	return m, tea.Batch(cmds...)
}

// rebootSelected starts the DTR/RTS sequence against the highlighted
// port; the outcome comes back as a ResetDoneMsg.
func (m *monitorModel) rebootSelected(port string) {
	send := m.send
	err := m.Manager().BeginReset(port, func(ok bool, errText string) {
		send(models.ResetDoneMsg{Port: port, OK: ok, ErrText: errText})
	})
	if err != nil {
		m.statusBar.SetNotice(fmt.Sprintf("%s: reboot unavailable: %v", port, err))
		return
	}
	m.statusBar.SetNotice(fmt.Sprintf("rebooting %s...", port))
}

// refreshPorts rebuilds the port table from the manager's current state
func (m *monitorModel) refreshPorts() {
	ports := m.Manager().ActivePorts()
	rows := make([]components.PortRow, 0, len(ports))
	for _, port := range ports {
		state, _ := m.Manager().Status(port)
		rows = append(rows, components.PortRow{
			Port:      port,
			State:     state.String(),
			BaudRate:  m.Manager().BaudRate(),
			LineCount: m.LineCount(port),
		})
	}
	m.portList.SetRows(rows)
	m.statusBar.SetPortCount(len(ports))
	m.syncStatusBar()
}

// ensureSelection picks the first port when nothing is selected or the
// selected port vanished
func (m *monitorModel) ensureSelection() {
	ports := m.Manager().ActivePorts()
	selected := m.Selected()
	for _, port := range ports {
		if port == selected {
			return
		}
	}
	if len(ports) > 0 {
		if m.Select(ports[0]) {
			m.logView.SetLines(m.Lines(ports[0]))
		}
	} else if m.Select("") {
		m.logView.Clear()
	}
	m.syncStatusBar()
}

// syncSelection follows the table highlight after cursor movement
func (m *monitorModel) syncSelection() {
	port := m.portList.Selected()
	if port != "" && m.Select(port) {
		m.logView.SetLines(m.Lines(port))
		m.syncStatusBar()
	}
}

func (m *monitorModel) syncStatusBar() {
	port := m.Selected()
	state := "closed"
	if s, ok := m.Manager().Status(port); ok {
		state = s.String()
	}
	m.statusBar.SetPort(port, state, m.Manager().BaudRate())
}

func (m *monitorModel) eventText(msg models.PortEventMsg) string {
	switch msg.Type {
	case portmon.EventOpened:
		return fmt.Sprintf("connected at %d baud", msg.BaudRate)
	case portmon.EventOpenFailed:
		return fmt.Sprintf("open failed: %v", msg.Err)
	default:
		return "disconnected"
	}
}

const portListHeight = 6

func (m *monitorModel) layout() {
	helpHeight := 1
	if m.help.ShowAll {
		helpHeight = 2
	}
	statusBarHeight := 1
	// Table renders a header plus borders around its page.
	tableHeight := portListHeight + 4

	logHeight := m.height - tableHeight - statusBarHeight - helpHeight - 1
	if logHeight < 1 {
		logHeight = 1
	}
	m.portList.SetHeight(portListHeight)
	m.logView.SetSize(m.width, logHeight)
	m.statusBar.SetWidth(m.width)
	m.help.Width = m.width
}

func (m *monitorModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	content := styles.ContentBorderStyle.Render(m.logView.View())

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.portList.View(),
		content,
		m.statusBar.View(),
		m.help.View(m.keys),
	)
}
