package portmon

import (
	"reflect"
	"testing"
)

func newTestRegistry(t *testing.T) (*Registry, *mockOpener) {
	t.Helper()
	opener := newMockOpener()
	reg := NewRegistry(DefaultConfig(), opener.open, testLogger())
	return reg, opener
}

func TestReconcileOpensAndCloses(t *testing.T) {
	reg, opener := newTestRegistry(t)

	reg.Reconcile([]string{"/dev/ttyUSB0"})

	state, ok := reg.Status("/dev/ttyUSB0")
	if !ok || state != StateOpen {
		t.Fatalf("Expected /dev/ttyUSB0 open, got state=%v tracked=%v", state, ok)
	}

	dev := opener.last("/dev/ttyUSB0")
	reg.Reconcile(nil)

	if _, ok := reg.Status("/dev/ttyUSB0"); ok {
		t.Error("Expected /dev/ttyUSB0 removed after empty snapshot")
	}
	if len(reg.Ports()) != 0 {
		t.Errorf("Expected zero entries, got %v", reg.Ports())
	}
	if !dev.isClosed() {
		t.Error("Expected device handle released on removal")
	}
}

func TestReconcileCompleteness(t *testing.T) {
	reg, opener := newTestRegistry(t)

	s1 := []string{"/dev/ttyUSB0", "/dev/ttyUSB1", "/dev/ttyACM0"}
	s2 := []string{"/dev/ttyUSB1", "/dev/ttyACM0", "/dev/ttyACM1"}

	reg.Reconcile(s1)
	reg.Reconcile(s2)

	want := []string{"/dev/ttyACM0", "/dev/ttyACM1", "/dev/ttyUSB1"}
	if got := reg.Ports(); !reflect.DeepEqual(got, want) {
		t.Errorf("Tracked ports = %v, want %v", got, want)
	}

	if !opener.last("/dev/ttyUSB0").isClosed() {
		t.Error("Port in S1\\S2 not closed")
	}
	if opener.attempts("/dev/ttyACM1") != 1 {
		t.Errorf("Port in S2\\S1 opened %d times, want 1", opener.attempts("/dev/ttyACM1"))
	}
	// Ports on both sides are untouched.
	if opener.attempts("/dev/ttyUSB1") != 1 {
		t.Errorf("Unaffected port reopened: %d attempts", opener.attempts("/dev/ttyUSB1"))
	}
}

func TestCloseIdempotent(t *testing.T) {
	reg, opener := newTestRegistry(t)

	reg.Open("/dev/ttyUSB0")
	dev := opener.last("/dev/ttyUSB0")

	reg.Close("/dev/ttyUSB0")
	reg.Close("/dev/ttyUSB0")

	if _, ok := reg.Status("/dev/ttyUSB0"); ok {
		t.Error("Expected port untracked after close")
	}
	if dev.closeCount != 1 {
		t.Errorf("Device closed %d times, want 1", dev.closeCount)
	}

	// Closing a never-seen identifier is a no-op.
	reg.Close("/dev/ttyUSB9")
}

func TestOpenReleasesPriorHandle(t *testing.T) {
	reg, opener := newTestRegistry(t)

	reg.Open("/dev/ttyUSB0")
	first := opener.last("/dev/ttyUSB0")

	if !reg.Open("/dev/ttyUSB0") {
		t.Fatal("Reopen failed")
	}
	second := opener.last("/dev/ttyUSB0")

	if !first.isClosed() {
		t.Error("Prior handle not released before reopen")
	}
	if second.isClosed() {
		t.Error("Fresh handle closed")
	}
	if len(reg.Ports()) != 1 {
		t.Errorf("Expected one tracked entry, got %v", reg.Ports())
	}
}

func TestOpenFailureNotRetried(t *testing.T) {
	reg, opener := newTestRegistry(t)
	opener.fail("/dev/ttyUSB0", true)

	reg.Reconcile([]string{"/dev/ttyUSB0"})

	state, ok := reg.Status("/dev/ttyUSB0")
	if !ok || state != StateFailed {
		t.Fatalf("Expected failed entry, got state=%v tracked=%v", state, ok)
	}

	// The entry is still tracked, so a fresh snapshot must not retry it.
	reg.Reconcile([]string{"/dev/ttyUSB0"})
	if opener.attempts("/dev/ttyUSB0") != 1 {
		t.Errorf("Failed entry retried by reconcile: %d attempts", opener.attempts("/dev/ttyUSB0"))
	}

	// An explicit open does retry.
	opener.fail("/dev/ttyUSB0", false)
	if !reg.Open("/dev/ttyUSB0") {
		t.Error("Explicit open after failure did not succeed")
	}
}

func TestSetBaudRateAppliesToFutureOpens(t *testing.T) {
	reg, opener := newTestRegistry(t)

	reg.Open("/dev/ttyUSB0")
	if got := opener.lastBaud("/dev/ttyUSB0"); got != 115200 {
		t.Errorf("Initial open baud = %d, want 115200", got)
	}

	reg.SetBaudRate(9600)

	// Existing connection untouched until reconnect.
	if opener.attempts("/dev/ttyUSB0") != 1 {
		t.Error("SetBaudRate reopened an existing connection")
	}

	reg.Open("/dev/ttyUSB1")
	if got := opener.lastBaud("/dev/ttyUSB1"); got != 9600 {
		t.Errorf("Open after SetBaudRate used %d, want 9600", got)
	}
}

func TestReconnectAll(t *testing.T) {
	reg, opener := newTestRegistry(t)

	reg.Reconcile([]string{"/dev/ttyUSB0", "/dev/ttyUSB1"})
	opener.fail("/dev/ttyUSB1", true)

	attempted := reg.ReconnectAll()

	want := []string{"/dev/ttyUSB0", "/dev/ttyUSB1"}
	if !reflect.DeepEqual(attempted, want) {
		t.Errorf("ReconnectAll = %v, want %v", attempted, want)
	}
	if opener.attempts("/dev/ttyUSB0") != 2 {
		t.Errorf("Expected reopen of /dev/ttyUSB0, got %d attempts", opener.attempts("/dev/ttyUSB0"))
	}
	if state, _ := reg.Status("/dev/ttyUSB1"); state != StateFailed {
		t.Errorf("Failed reconnect state = %v, want failed", state)
	}
}

func TestCloseAll(t *testing.T) {
	reg, opener := newTestRegistry(t)

	reg.Reconcile([]string{"/dev/ttyUSB0", "/dev/ttyUSB1"})
	reg.CloseAll()

	if len(reg.Ports()) != 0 {
		t.Errorf("Expected no tracked ports, got %v", reg.Ports())
	}
	for _, id := range []string{"/dev/ttyUSB0", "/dev/ttyUSB1"} {
		if !opener.last(id).isClosed() {
			t.Errorf("Device %s not closed by CloseAll", id)
		}
	}
}

func TestLifecycleEvents(t *testing.T) {
	opener := newMockOpener()
	opener.fail("/dev/ttyUSB1", true)

	reg := NewRegistry(DefaultConfig(), opener.open, testLogger())
	var events []Event
	reg.SetEventFunc(func(e Event) { events = append(events, e) })

	reg.Reconcile([]string{"/dev/ttyUSB0", "/dev/ttyUSB1"})
	reg.Reconcile(nil)

	counts := make(map[EventType]int)
	for _, e := range events {
		counts[e.Type]++
	}
	if counts[EventOpened] != 1 {
		t.Errorf("EventOpened count = %d, want 1", counts[EventOpened])
	}
	if counts[EventOpenFailed] != 1 {
		t.Errorf("EventOpenFailed count = %d, want 1", counts[EventOpenFailed])
	}
	if counts[EventRemoved] != 2 {
		t.Errorf("EventRemoved count = %d, want 2", counts[EventRemoved])
	}
}
