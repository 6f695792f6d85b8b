package models

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/allbin/portmon"
)

// LineMsg carries one decoded serial line into the TUI event loop
type LineMsg struct {
	Port string
	Text string
}

// PortEventMsg carries a registry lifecycle event into the TUI event loop
type PortEventMsg struct {
	Port     string
	Type     portmon.EventType
	BaudRate int
	Err      error
}

// ResetDoneMsg reports the outcome of a device reboot
type ResetDoneMsg struct {
	Port    string
	OK      bool
	ErrText string
}

// MonitorModel holds the monitor's session state: the per-port log
// buffers and the current selection. The bubbletea model in cmd wraps it.
type MonitorModel struct {
	mu       sync.RWMutex
	manager  *portmon.Manager
	logs     map[string][]string
	selected string
}

func NewMonitorModel(manager *portmon.Manager) *MonitorModel {
	return &MonitorModel{
		manager: manager,
		logs:    make(map[string][]string),
	}
}

func (m *MonitorModel) Manager() *portmon.Manager {
	return m.manager
}

// AddLine appends a line to a port's buffer
func (m *MonitorModel) AddLine(port, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs[port] = append(m.logs[port], text)
}

// Lines returns a copy of a port's buffered lines
func (m *MonitorModel) Lines(port string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.logs[port]...)
}

// LineCount reports how many lines a port has buffered
func (m *MonitorModel) LineCount(port string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.logs[port])
}

// ClearLines drops the selected port's buffer
func (m *MonitorModel) ClearLines(port string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.logs, port)
}

func (m *MonitorModel) Selected() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selected
}

// Select updates the current selection and reports whether it changed
func (m *MonitorModel) Select(port string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if port == m.selected {
		return false
	}
	m.selected = port
	return true
}

// SaveLogs writes a port's buffered lines to a timestamped file in dir
// and returns the path
func (m *MonitorModel) SaveLogs(dir, port string) (string, error) {
	lines := m.Lines(port)
	if len(lines) == 0 {
		return "", fmt.Errorf("no lines buffered for %s", port)
	}

	name := fmt.Sprintf("serial_log_%s_%s.txt",
		strings.ReplaceAll(strings.TrimPrefix(port, "/dev/"), "/", "_"),
		time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	for _, line := range lines {
		if _, err := fmt.Fprintln(f, line); err != nil {
			return "", err
		}
	}
	return path, nil
}

// CycleBaud switches the manager to the next common baud rate and
// reconnects every port at it. Returns the new rate.
func (m *MonitorModel) CycleBaud() int {
	current := m.manager.BaudRate()
	next := portmon.CommonBaudRates[0]
	for i, rate := range portmon.CommonBaudRates {
		if rate == current {
			next = portmon.CommonBaudRates[(i+1)%len(portmon.CommonBaudRates)]
			break
		}
	}
	m.manager.SetBaudRate(next)
	m.manager.ReconnectAll()
	return next
}
