package keys

import "github.com/charmbracelet/bubbles/key"

// MonitorKeys are the key bindings for the monitor view
type MonitorKeys struct {
	Quit         key.Binding
	Help         key.Binding
	Up           key.Binding
	Down         key.Binding
	ClearLogs    key.Binding
	SaveLogs     key.Binding
	ReconnectAll key.Binding
	Reboot       key.Binding
	CycleBaud    key.Binding
}

func NewMonitorKeys() MonitorKeys {
	return MonitorKeys{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q/ctrl+c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous port"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next port"),
		),
		ClearLogs: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear logs"),
		),
		SaveLogs: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save logs"),
		),
		ReconnectAll: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reconnect all"),
		),
		Reboot: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reboot device"),
		),
		CycleBaud: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "cycle baud rate"),
		),
	}
}

func (k MonitorKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Reboot, k.ClearLogs, k.Quit}
}

func (k MonitorKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Reboot, k.ReconnectAll, k.CycleBaud},
		{k.ClearLogs, k.SaveLogs, k.Help, k.Quit},
	}
}
