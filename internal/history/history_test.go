package history

import (
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "capture.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAppendAndLines(t *testing.T) {
	s := newTestStore(t)

	lines := []struct{ port, level, text string }{
		{"/dev/ttyUSB0", "info", "I (310) wifi: mode : sta"},
		{"/dev/ttyUSB0", "error", "E (520) spi: dma alloc failed"},
		{"/dev/ttyACM0", "plain", "free heap: 182044"},
	}
	for _, l := range lines {
		if err := s.Append(l.port, l.level, l.text); err != nil {
			t.Fatalf("Append error: %v", err)
		}
	}

	got, err := s.Lines("/dev/ttyUSB0")
	if err != nil {
		t.Fatalf("Lines error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Lines = %d entries, want 2", len(got))
	}
	if got[0].Text != lines[0].text || got[1].Text != lines[1].text {
		t.Errorf("Lines out of arrival order: %q then %q", got[0].Text, got[1].Text)
	}
	if got[1].Level != "error" {
		t.Errorf("Level = %q, want error", got[1].Level)
	}
	if got[0].At == "" {
		t.Error("Timestamp not populated")
	}

	all, err := s.Lines("")
	if err != nil {
		t.Fatalf("Lines(all) error: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Lines(all) = %d entries, want 3", len(all))
	}
}

func TestPorts(t *testing.T) {
	s := newTestStore(t)

	for _, port := range []string{"/dev/ttyUSB1", "/dev/ttyUSB0", "/dev/ttyUSB1"} {
		if err := s.Append(port, "plain", "x"); err != nil {
			t.Fatalf("Append error: %v", err)
		}
	}

	ports, err := s.Ports()
	if err != nil {
		t.Fatalf("Ports error: %v", err)
	}
	want := []string{"/dev/ttyUSB0", "/dev/ttyUSB1"}
	if len(ports) != 2 || ports[0] != want[0] || ports[1] != want[1] {
		t.Errorf("Ports = %v, want %v", ports, want)
	}
}

func TestEmptyStore(t *testing.T) {
	s := newTestStore(t)

	lines, err := s.Lines("")
	if err != nil {
		t.Fatalf("Lines error: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("Lines on empty store = %v", lines)
	}
}
