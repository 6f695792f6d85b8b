package portmon

import (
	"context"
	"log/slog"
	"time"
)

// LineFunc receives decoded lines from the poll pass
type LineFunc func(Line)

// Manager ties discovery, the registry, the poller and the reset sequencer
// together. Both periodic passes run on the Run goroutine, so a pass always
// finishes before the next tick of its kind starts.
type Manager struct {
	cfg      Config
	log      *slog.Logger
	reg      *Registry
	poller   *Poller
	seq      *ResetSequencer
	discover func() ([]string, error)
	sink     LineFunc
}

// NewManager creates a manager over the real device layer and system
// discovery
func NewManager(cfg Config, logger *slog.Logger) *Manager {
	return newManager(cfg, logger, OpenDevice, ListUSBPorts, NewScheduler())
}

func newManager(cfg Config, logger *slog.Logger, opener DeviceOpener, discover func() ([]string, error), sched Scheduler) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	reg := NewRegistry(cfg, opener, logger)
	return &Manager{
		cfg:      cfg,
		log:      logger,
		reg:      reg,
		poller:   NewPoller(reg),
		seq:      NewResetSequencer(reg, sched, cfg.ResetDelay),
		discover: discover,
	}
}

// SetSink installs the line sink. Must be called before Run.
func (m *Manager) SetSink(f LineFunc) {
	m.sink = f
}

// SetEventFunc installs the lifecycle event callback. Must be called before
// Run.
func (m *Manager) SetEventFunc(f EventFunc) {
	m.reg.SetEventFunc(f)
}

// Run reconciles immediately, then alternates discovery and poll passes
// until ctx is cancelled. All connections are closed on the way out.
func (m *Manager) Run(ctx context.Context) {
	discoverTick := time.NewTicker(m.cfg.DiscoverInterval)
	defer discoverTick.Stop()
	pollTick := time.NewTicker(m.cfg.PollInterval)
	defer pollTick.Stop()

	m.discoverPass()

	for {
		select {
		case <-ctx.Done():
			m.Shutdown()
			return
		case <-discoverTick.C:
			m.discoverPass()
		case <-pollTick.C:
			m.pollPass()
		}
	}
}

// discoverPass reconciles the registry against a fresh port snapshot. An
// enumeration error keeps the previous state rather than closing anything.
func (m *Manager) discoverPass() {
	ports, err := m.discover()
	if err != nil {
		m.log.Warn("port discovery failed", "err", err)
		return
	}
	m.reg.Reconcile(ports)
}

// pollPass drains every open port once and pushes produced lines to the sink
func (m *Manager) pollPass() {
	for _, line := range m.poller.PollAll() {
		if m.sink != nil {
			m.sink(line)
		}
	}
}

// ActivePorts returns the tracked port identifiers in stable order
func (m *Manager) ActivePorts() []string {
	return m.reg.Ports()
}

// Open opens or reopens a port at the current baud rate
func (m *Manager) Open(id string) bool {
	return m.reg.Open(id)
}

// Close closes a port; pending polls and reset completions for it become
// no-ops
func (m *Manager) Close(id string) {
	m.reg.Close(id)
}

// Status reports a tracked port's connection state
func (m *Manager) Status(id string) (State, bool) {
	return m.reg.Status(id)
}

// SetBaudRate changes the rate for future opens. Call ReconnectAll to apply
// it to ports that are already open.
func (m *Manager) SetBaudRate(rate int) {
	m.reg.SetBaudRate(rate)
}

// BaudRate reports the rate future opens will use
func (m *Manager) BaudRate() int {
	return m.reg.BaudRate()
}

// ReconnectAll reopens every tracked port and returns the identifiers
// attempted
func (m *Manager) ReconnectAll() []string {
	return m.reg.ReconnectAll()
}

// BeginReset starts the DTR/RTS reboot sequence against an open port.
// Returns ErrResetPending while a sequence is in flight for id and
// ErrNotOpen when the port has no live handle.
func (m *Manager) BeginReset(id string, done ResetFunc) error {
	return m.seq.BeginReset(id, done)
}

// ResetPending reports whether a reset is in flight for id
func (m *Manager) ResetPending(id string) bool {
	return m.seq.Pending(id)
}

// Shutdown closes every tracked connection
func (m *Manager) Shutdown() {
	m.reg.CloseAll()
}
