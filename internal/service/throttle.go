package service

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Throttle runs a function at most once per interval. The first call always runs.
type Throttle struct {
	clock    clockwork.Clock
	interval time.Duration

	mu      sync.Mutex
	lastRun time.Time
	hasRun  bool
}

// NewThrottle creates a throttle with the given minimum interval between runs
func NewThrottle(clock clockwork.Clock, interval time.Duration) *Throttle {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Throttle{clock: clock, interval: interval}
}

// Do calls fn if at least interval has passed since the last run and reports whether it ran.
// fn runs while the throttle is held, so concurrent callers never run it twice.
func (t *Throttle) Do(fn func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	if t.hasRun && now.Sub(t.lastRun) < t.interval {
		return false
	}
	t.lastRun = now
	t.hasRun = true
	fn()
	return true
}
