package portmon

import (
	"testing"
	"time"
)

func newTestPoller(t *testing.T, ports ...string) (*Poller, *Registry, *mockOpener) {
	t.Helper()
	reg, opener := newTestRegistry(t)
	reg.Reconcile(ports)
	return NewPoller(reg), reg, opener
}

func TestPollPartialLine(t *testing.T) {
	p, _, opener := newTestPoller(t, "/dev/ttyUSB0")
	dev := opener.last("/dev/ttyUSB0")

	dev.feed("hello\r\nwor")

	line, ok := p.Poll("/dev/ttyUSB0")
	if !ok || line != "hello" {
		t.Fatalf("First poll = (%q, %v), want (\"hello\", true)", line, ok)
	}

	// The partial tail must wait for its terminator.
	if line, ok := p.Poll("/dev/ttyUSB0"); ok {
		t.Fatalf("Second poll returned %q, want nothing", line)
	}

	dev.feed("ld\n")
	line, ok = p.Poll("/dev/ttyUSB0")
	if !ok || line != "world" {
		t.Errorf("Third poll = (%q, %v), want (\"world\", true)", line, ok)
	}
}

func TestPollNotOpenReturnsNothing(t *testing.T) {
	p, reg, opener := newTestPoller(t)

	if line, ok := p.Poll("/dev/ttyUSB0"); ok {
		t.Errorf("Poll on unknown port returned %q", line)
	}

	// A failed entry is tracked but not open.
	opener.fail("/dev/ttyUSB1", true)
	reg.Reconcile([]string{"/dev/ttyUSB1"})
	if line, ok := p.Poll("/dev/ttyUSB1"); ok {
		t.Errorf("Poll on failed port returned %q", line)
	}
}

func TestPollNoDataIsNonBlocking(t *testing.T) {
	p, _, _ := newTestPoller(t, "/dev/ttyUSB0")

	start := time.Now()
	if line, ok := p.Poll("/dev/ttyUSB0"); ok {
		t.Errorf("Poll with no data returned %q", line)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Poll took %v, expected near-instant return", elapsed)
	}
}

func TestPollReadErrorRemovesConnection(t *testing.T) {
	p, reg, opener := newTestPoller(t, "/dev/ttyUSB0")
	dev := opener.last("/dev/ttyUSB0")

	dev.feed("data\n")
	dev.readErr = ErrReadFailed

	if line, ok := p.Poll("/dev/ttyUSB0"); ok {
		t.Errorf("Poll after read error returned %q", line)
	}
	if _, tracked := reg.Status("/dev/ttyUSB0"); tracked {
		t.Error("Connection still tracked after read error")
	}
	if !dev.isClosed() {
		t.Error("Device not closed after read error")
	}
}

func TestPollInWaitingErrorRemovesConnection(t *testing.T) {
	p, reg, opener := newTestPoller(t, "/dev/ttyUSB0")
	opener.last("/dev/ttyUSB0").inWaitingErr = ErrReadFailed

	if _, ok := p.Poll("/dev/ttyUSB0"); ok {
		t.Error("Poll after queue-depth error returned a line")
	}
	if _, tracked := reg.Status("/dev/ttyUSB0"); tracked {
		t.Error("Connection still tracked after queue-depth error")
	}
}

func TestPollDecoding(t *testing.T) {
	tests := []struct {
		name string
		feed string
		want string
	}{
		{"trailing whitespace trimmed", "data \t\r\n", "data"},
		{"invalid utf8 dropped", "ok\xff\xfeay\n", "okay"},
		{"plain line", "I (123) boot: done\n", "I (123) boot: done"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _, opener := newTestPoller(t, "/dev/ttyUSB0")
			opener.last("/dev/ttyUSB0").feed(tt.feed)

			line, ok := p.Poll("/dev/ttyUSB0")
			if !ok || line != tt.want {
				t.Errorf("Poll = (%q, %v), want (%q, true)", line, ok, tt.want)
			}
		})
	}
}

func TestPollBlankLineSwallowed(t *testing.T) {
	p, _, opener := newTestPoller(t, "/dev/ttyUSB0")
	dev := opener.last("/dev/ttyUSB0")

	dev.feed("\r\n")
	if line, ok := p.Poll("/dev/ttyUSB0"); ok {
		t.Errorf("Blank line reported as %q", line)
	}

	dev.feed("x\n")
	if line, ok := p.Poll("/dev/ttyUSB0"); !ok || line != "x" {
		t.Errorf("Poll after blank = (%q, %v), want (\"x\", true)", line, ok)
	}
}

func TestPollAllPreservesPerPortOrder(t *testing.T) {
	p, _, opener := newTestPoller(t, "/dev/ttyUSB1", "/dev/ttyUSB0")

	opener.last("/dev/ttyUSB0").feed("a1\na2\n")
	opener.last("/dev/ttyUSB1").feed("b1\nb2\n")

	var got []Line
	for i := 0; i < 2; i++ {
		got = append(got, p.PollAll()...)
	}

	perPort := make(map[string][]string)
	for _, l := range got {
		perPort[l.Port] = append(perPort[l.Port], l.Text)
	}

	if len(perPort["/dev/ttyUSB0"]) != 2 || perPort["/dev/ttyUSB0"][0] != "a1" || perPort["/dev/ttyUSB0"][1] != "a2" {
		t.Errorf("ttyUSB0 lines = %v, want [a1 a2]", perPort["/dev/ttyUSB0"])
	}
	if len(perPort["/dev/ttyUSB1"]) != 2 || perPort["/dev/ttyUSB1"][0] != "b1" || perPort["/dev/ttyUSB1"][1] != "b2" {
		t.Errorf("ttyUSB1 lines = %v, want [b1 b2]", perPort["/dev/ttyUSB1"])
	}

	// Each pass visits ports in sorted order.
	if got[0].Port != "/dev/ttyUSB0" || got[1].Port != "/dev/ttyUSB1" {
		t.Errorf("First pass order = [%s %s]", got[0].Port, got[1].Port)
	}
}
