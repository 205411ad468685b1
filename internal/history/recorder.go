// Package history keeps the timeline of aggregate statuses shown on the host's chart
package history

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/navikt/lecturefeedback/internal/models"
)

const (
	// DefaultMinInterval is the minimum time between two recorded snapshots
	DefaultMinInterval = 5 * time.Second
	// DefaultMaxSnapshots bounds the retained timeline (one hour at the default interval)
	DefaultMaxSnapshots = 720
)

// Recorder is an append-only, throttled and size-bounded sequence of snapshots
type Recorder struct {
	mu           sync.Mutex
	snapshots    []models.StatusSnapshot
	minInterval  time.Duration
	maxSnapshots int
	clock        clockwork.Clock
}

// NewRecorder creates a recorder. Non-positive arguments fall back to the defaults.
func NewRecorder(clock clockwork.Clock, minInterval time.Duration, maxSnapshots int) *Recorder {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	if maxSnapshots <= 0 {
		maxSnapshots = DefaultMaxSnapshots
	}
	return &Recorder{
		minInterval:  minInterval,
		maxSnapshots: maxSnapshots,
		clock:        clock,
	}
}

// Record appends a snapshot of counts taken now, unless the latest snapshot
// is younger than the minimum interval. It reports whether a snapshot was stored.
func (r *Recorder) Record(counts models.StatusCounts) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	if n := len(r.snapshots); n > 0 {
		// A clock stepping backwards also lands here, which keeps timestamps non-decreasing
		if now.Sub(r.snapshots[n-1].Timestamp) < r.minInterval {
			return false
		}
	}

	r.snapshots = append(r.snapshots, models.StatusSnapshot{
		Timestamp:    now,
		StatusCounts: counts,
	})
	r.trim()
	return true
}

// trim drops the oldest snapshots beyond the maximum. Callers hold r.mu.
func (r *Recorder) trim() {
	excess := len(r.snapshots) - r.maxSnapshots
	if excess <= 0 {
		return
	}
	kept := make([]models.StatusSnapshot, r.maxSnapshots)
	copy(kept, r.snapshots[excess:])
	r.snapshots = kept
}

// History returns a copy of the snapshots, oldest first
func (r *Recorder) History() []models.StatusSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.StatusSnapshot, len(r.snapshots))
	copy(out, r.snapshots)
	return out
}

// Len returns the number of retained snapshots
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}
