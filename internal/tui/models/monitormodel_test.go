package models

import (
	"os"
	"strings"
	"testing"
)

func TestAddAndClearLines(t *testing.T) {
	m := NewMonitorModel(nil)

	m.AddLine("/dev/ttyUSB0", "first")
	m.AddLine("/dev/ttyUSB0", "second")
	m.AddLine("/dev/ttyACM0", "other")

	if got := m.LineCount("/dev/ttyUSB0"); got != 2 {
		t.Errorf("LineCount = %d, want 2", got)
	}
	lines := m.Lines("/dev/ttyUSB0")
	if len(lines) != 2 || lines[0] != "first" || lines[1] != "second" {
		t.Errorf("Lines = %v", lines)
	}

	m.ClearLines("/dev/ttyUSB0")
	if got := m.LineCount("/dev/ttyUSB0"); got != 0 {
		t.Errorf("LineCount after clear = %d, want 0", got)
	}
	if got := m.LineCount("/dev/ttyACM0"); got != 1 {
		t.Errorf("Clear touched another port's buffer: %d lines", got)
	}
}

func TestSelect(t *testing.T) {
	m := NewMonitorModel(nil)

	if !m.Select("/dev/ttyUSB0") {
		t.Error("First selection reported unchanged")
	}
	if m.Select("/dev/ttyUSB0") {
		t.Error("Repeated selection reported changed")
	}
	if got := m.Selected(); got != "/dev/ttyUSB0" {
		t.Errorf("Selected = %q", got)
	}
}

func TestSaveLogs(t *testing.T) {
	m := NewMonitorModel(nil)
	m.AddLine("/dev/ttyUSB0", "boot ok")
	m.AddLine("/dev/ttyUSB0", "wifi up")

	dir := t.TempDir()
	path, err := m.SaveLogs(dir, "/dev/ttyUSB0")
	if err != nil {
		t.Fatalf("SaveLogs error: %v", err)
	}

	base := strings.TrimPrefix(path, dir+"/")
	if !strings.HasPrefix(base, "serial_log_ttyUSB0_") || !strings.HasSuffix(base, ".txt") {
		t.Errorf("SaveLogs file name = %q", base)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved log: %v", err)
	}
	if string(data) != "boot ok\nwifi up\n" {
		t.Errorf("Saved content = %q", string(data))
	}
}

func TestSaveLogsEmptyBuffer(t *testing.T) {
	m := NewMonitorModel(nil)
	if _, err := m.SaveLogs(t.TempDir(), "/dev/ttyUSB0"); err == nil {
		t.Error("Expected error saving an empty buffer")
	}
}
