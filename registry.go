package portmon

import (
	"log/slog"
	"sort"
	"sync"
)

// State describes a connection's lifecycle position
type State int

const (
	StateClosed State = iota
	StateOpen
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateFailed:
		return "failed"
	default:
		return "closed"
	}
}

// EventType classifies registry lifecycle events
type EventType int

const (
	EventOpened EventType = iota
	EventOpenFailed
	EventRemoved
)

// Event is a lifecycle notification emitted once per add/remove/failure
type Event struct {
	Port     string
	Type     EventType
	BaudRate int
	Err      error
}

// EventFunc receives registry lifecycle events. Called with the registry
// lock held; implementations must not call back into the registry.
type EventFunc func(Event)

// Connection tracks one port's session. The device handle is owned
// exclusively by the registry entry.
type Connection struct {
	ID       string
	BaudRate int
	State    State

	dev Device
	gen uint64 // bumped on every successful open; guards stale completions
	buf []byte // received bytes awaiting a line terminator
}

// Registry owns the mapping from port identifier to connection. It is the
// only component that mutates connections, and every access to the mapping
// goes through one mutex.
type Registry struct {
	mu      sync.Mutex
	cfg     Config
	open    DeviceOpener
	conns   map[string]*Connection
	nextGen uint64
	log     *slog.Logger
	onEvent EventFunc
}

// NewRegistry creates a registry that opens devices through opener at the
// configured baud rate
func NewRegistry(cfg Config, opener DeviceOpener, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		cfg:   cfg,
		open:  opener,
		conns: make(map[string]*Connection),
		log:   logger,
	}
}

// SetEventFunc installs the lifecycle event callback. Must be called before
// the registry is shared.
func (r *Registry) SetEventFunc(f EventFunc) {
	r.onEvent = f
}

// Reconcile diffs a discovery snapshot against the tracked set: ports no
// longer discovered are closed and removed, newly discovered ports are
// opened once. Ports on neither side are left untouched, so a Failed entry
// stays Failed until an explicit Open or a snapshot that re-adds it.
func (r *Registry) Reconcile(discovered []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	present := make(map[string]struct{}, len(discovered))
	for _, id := range discovered {
		present[id] = struct{}{}
	}

	for id := range r.conns {
		if _, ok := present[id]; !ok {
			r.removeLocked(id, nil)
		}
	}

	for _, id := range discovered {
		if _, ok := r.conns[id]; !ok {
			r.openLocked(id)
		}
	}
}

// Open establishes a connection to id, releasing any prior handle first.
// Device errors become a false return plus a Failed entry; they are never
// raised to the caller.
func (r *Registry) Open(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.openLocked(id)
}

func (r *Registry) openLocked(id string) bool {
	// At most one live handle per port: release before reopening.
	if c, ok := r.conns[id]; ok && c.dev != nil {
		c.dev.Close()
		c.dev = nil
		c.State = StateClosed
	}

	dev, err := r.open(id, r.cfg)
	if err != nil {
		r.conns[id] = &Connection{ID: id, BaudRate: r.cfg.BaudRate, State: StateFailed}
		r.log.Warn("port open failed", "port", id, "err", err)
		r.emit(Event{Port: id, Type: EventOpenFailed, BaudRate: r.cfg.BaudRate, Err: err})
		return false
	}

	r.nextGen++
	r.conns[id] = &Connection{
		ID:       id,
		BaudRate: r.cfg.BaudRate,
		State:    StateOpen,
		dev:      dev,
		gen:      r.nextGen,
	}
	r.log.Info("port opened", "port", id, "baud", r.cfg.BaudRate)
	r.emit(Event{Port: id, Type: EventOpened, BaudRate: r.cfg.BaudRate})
	return true
}

// Close releases id's handle and removes the entry. Closing an unknown or
// already-closed port is a no-op.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; ok {
		r.removeLocked(id, nil)
	}
}

// removeLocked closes and deletes the entry, emitting one removal event
func (r *Registry) removeLocked(id string, cause error) {
	c := r.conns[id]
	if c.dev != nil {
		c.dev.Close()
		c.dev = nil
	}
	c.State = StateClosed
	delete(r.conns, id)
	if cause != nil {
		r.log.Warn("port removed after error", "port", id, "err", cause)
	} else {
		r.log.Info("port removed", "port", id)
	}
	r.emit(Event{Port: id, Type: EventRemoved, BaudRate: c.BaudRate, Err: cause})
}

// CloseAll closes every tracked connection; used at shutdown
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.conns {
		r.removeLocked(id, nil)
	}
}

// SetBaudRate updates the rate used by future opens. Already-open
// connections keep their rate until reconnected.
func (r *Registry) SetBaudRate(rate int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg.BaudRate = rate
}

// BaudRate reports the rate future opens will use
func (r *Registry) BaudRate() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg.BaudRate
}

// ReconnectAll reopens every tracked port at the current baud rate and
// returns the identifiers attempted, regardless of individual success.
func (r *Registry) ReconnectAll() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := r.portsLocked()
	for _, id := range ids {
		r.openLocked(id)
	}
	return ids
}

// Ports returns the tracked identifiers in lexicographic order
func (r *Registry) Ports() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.portsLocked()
}

func (r *Registry) portsLocked() []string {
	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Status reports the state of a tracked port
func (r *Registry) Status(id string) (State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if !ok {
		return StateClosed, false
	}
	return c.State, true
}

// deviceAt returns the live handle and its generation for an open port.
// The generation lets delayed completions detect that the handle they
// targeted has been closed or replaced.
func (r *Registry) deviceAt(id string) (Device, uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if !ok || c.State != StateOpen || c.dev == nil {
		return nil, 0, false
	}
	return c.dev, c.gen, true
}

func (r *Registry) emit(e Event) {
	if r.onEvent != nil {
		r.onEvent(e)
	}
}
