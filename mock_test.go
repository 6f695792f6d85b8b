package portmon

import (
	"io"
	"log/slog"
	"sync"
	"time"
)

// testLogger discards output so tests stay quiet
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type ctrlWrite struct {
	dtr bool
	rts bool
}

// mockDevice is an in-memory Device with scriptable failures
type mockDevice struct {
	mu           sync.Mutex
	pending      []byte
	inWaitingErr error
	readErr      error
	ctrlErr      error
	writes       []ctrlWrite
	closed       bool
	closeCount   int
}

func (d *mockDevice) feed(data string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = append(d.pending, data...)
}

func (d *mockDevice) InWaiting() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inWaitingErr != nil {
		return 0, d.inWaitingErr
	}
	return len(d.pending), nil
}

func (d *mockDevice) Read(buf []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.readErr != nil {
		return 0, d.readErr
	}
	n := copy(buf, d.pending)
	d.pending = d.pending[n:]
	return n, nil
}

func (d *mockDevice) SetControlLines(dtr, rts bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ctrlErr != nil {
		return d.ctrlErr
	}
	if d.closed {
		return ErrPortClosed
	}
	d.writes = append(d.writes, ctrlWrite{dtr: dtr, rts: rts})
	return nil
}

func (d *mockDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.closeCount++
	return nil
}

func (d *mockDevice) controlWrites() []ctrlWrite {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]ctrlWrite, len(d.writes))
	copy(out, d.writes)
	return out
}

func (d *mockDevice) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// mockOpener hands out mockDevices and records every open
type mockOpener struct {
	mu      sync.Mutex
	devices map[string][]*mockDevice
	failing map[string]bool
	bauds   map[string][]int
}

func newMockOpener() *mockOpener {
	return &mockOpener{
		devices: make(map[string][]*mockDevice),
		failing: make(map[string]bool),
		bauds:   make(map[string][]int),
	}
}

func (o *mockOpener) open(path string, cfg Config) (Device, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.bauds[path] = append(o.bauds[path], cfg.BaudRate)
	if o.failing[path] {
		return nil, ErrOpenFailed
	}
	dev := &mockDevice{}
	o.devices[path] = append(o.devices[path], dev)
	return dev, nil
}

func (o *mockOpener) fail(path string, v bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failing[path] = v
}

// last returns the most recently opened device for path
func (o *mockOpener) last(path string) *mockDevice {
	o.mu.Lock()
	defer o.mu.Unlock()
	devs := o.devices[path]
	if len(devs) == 0 {
		return nil
	}
	return devs[len(devs)-1]
}

// attempts counts every open attempt for path, failures included
func (o *mockOpener) attempts(path string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.bauds[path])
}

func (o *mockOpener) lastBaud(path string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	bauds := o.bauds[path]
	if len(bauds) == 0 {
		return 0
	}
	return bauds[len(bauds)-1]
}

// fakeScheduler queues callbacks until the test advances the clock
type fakeScheduler struct {
	mu    sync.Mutex
	queue []func()
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, f)
}

// fire runs and drains every queued callback
func (s *fakeScheduler) fire() {
	s.mu.Lock()
	queued := s.queue
	s.queue = nil
	s.mu.Unlock()
	for _, f := range queued {
		f()
	}
}

func (s *fakeScheduler) pendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}
