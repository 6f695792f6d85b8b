package portmon

import "time"

// Scheduler runs a unit of work after a delay. It exists so tests can
// substitute a manual clock and advance reset timing deterministically.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

type wallClock struct{}

func (wallClock) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}

// NewScheduler returns the wall-clock scheduler used in production
func NewScheduler() Scheduler {
	return wallClock{}
}
