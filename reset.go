package portmon

import (
	"sync"
	"time"
)

// Control line patterns for the two reset phases. Dev-boards wire DTR/RTS
// through transistors to EN/IO0, so the exact pattern matters: DTR low plus
// RTS high holds the chip in reset, the inverse lets it run.
const (
	assertDTR   = false
	assertRTS   = true
	deassertDTR = true
	deassertRTS = false
)

// ResetFunc receives the outcome of a reset sequence. ok is false when the
// target port disappeared before the deassert phase or a line write failed;
// errText carries the reason.
type ResetFunc func(ok bool, errText string)

// resetSession identifies one in-flight sequence: the token distinguishes
// sessions on the same port, the generation pins the device handle the
// assert was written to.
type resetSession struct {
	token uint64
	gen   uint64
}

// ResetSequencer drives the two-phase hardware reset: assert the hold
// pattern synchronously, then restore the run pattern after a fixed delay.
// Pending sessions are keyed by port, so resets on different ports never
// overwrite each other.
//
// A second BeginReset on a port whose sequence is still in flight returns
// ErrResetPending. The pending entry is held across the deassert write, so
// a port is accepted for a new sequence only after the previous one has
// fully finished — the hold delay can never be cut short by an overlapping
// request.
type ResetSequencer struct {
	mu        sync.Mutex
	reg       *Registry
	sched     Scheduler
	delay     time.Duration
	nextToken uint64
	pending   map[string]resetSession
}

// NewResetSequencer creates a sequencer over reg firing completions on
// sched after delay
func NewResetSequencer(reg *Registry, sched Scheduler, delay time.Duration) *ResetSequencer {
	return &ResetSequencer{
		reg:     reg,
		sched:   sched,
		delay:   delay,
		pending: make(map[string]resetSession),
	}
}

// Pending reports whether a reset is in flight for id
func (s *ResetSequencer) Pending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[id]
	return ok
}

// BeginReset starts the sequence against an open port. Returns
// ErrResetPending while a sequence is in flight for id, ErrNotOpen when the
// port has no live handle, or the assert write's error; in every failure
// case the device is left untouched by this call. done fires exactly once,
// after the configured delay.
func (s *ResetSequencer) BeginReset(id string, done ResetFunc) error {
	s.mu.Lock()
	if _, inflight := s.pending[id]; inflight {
		s.mu.Unlock()
		return ErrResetPending
	}

	dev, gen, ok := s.reg.deviceAt(id)
	if !ok {
		s.mu.Unlock()
		return ErrNotOpen
	}
	if err := dev.SetControlLines(assertDTR, assertRTS); err != nil {
		s.mu.Unlock()
		return err
	}

	s.nextToken++
	token := s.nextToken
	s.pending[id] = resetSession{token: token, gen: gen}
	s.mu.Unlock()

	s.sched.AfterFunc(s.delay, func() {
		s.complete(id, token, done)
	})
	return nil
}

// complete restores the run pattern, unless the target handle was closed or
// replaced in the meantime, in which case no device write happens. The
// session entry is removed only after the write, under the same lock
// BeginReset takes, so no new sequence can start on the port while the
// deassert is still in flight.
func (s *ResetSequencer) complete(id string, token uint64, done ResetFunc) {
	s.mu.Lock()
	sess, inflight := s.pending[id]
	if !inflight || sess.token != token {
		s.mu.Unlock()
		s.report(done, false, ErrResetTargetUnavailable.Error())
		return
	}

	dev, gen, ok := s.reg.deviceAt(id)
	if !ok || gen != sess.gen {
		delete(s.pending, id)
		s.mu.Unlock()
		s.report(done, false, ErrResetTargetUnavailable.Error())
		return
	}

	err := dev.SetControlLines(deassertDTR, deassertRTS)
	delete(s.pending, id)
	s.mu.Unlock()

	if err != nil {
		s.report(done, false, err.Error())
		return
	}
	s.report(done, true, "")
}

func (s *ResetSequencer) report(done ResetFunc, ok bool, errText string) {
	if done != nil {
		done(ok, errText)
	}
}
