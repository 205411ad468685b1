// Package presence tracks which participants of a room are still around.
//
// Presence is inferred purely from activity: every status report, heartbeat
// or presence check refreshes a participant's last-seen time, and sessions
// that stay silent for longer than a timeout are evicted by an external sweep.
package presence

import (
	"fmt"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/navikt/lecturefeedback/internal/models"
	"github.com/navikt/lecturefeedback/internal/syncmap"
)

// Registry maps participant IDs to their sessions within one room
type Registry struct {
	sessions *syncmap.Map[string, models.ParticipantSession]
	clock    clockwork.Clock
}

// NewRegistry creates an empty presence registry
func NewRegistry(clock clockwork.Clock) *Registry {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Registry{
		sessions: syncmap.New[string, models.ParticipantSession](),
		clock:    clock,
	}
}

// Join adds the participant with status Unknown, overwriting any existing session
func (r *Registry) Join(participantID string) {
	r.sessions.Set(participantID, models.ParticipantSession{
		Status:   models.StatusUnknown,
		LastSeen: r.clock.Now(),
	})
}

// SetStatus inserts or updates the participant's session and refreshes its
// last-seen time. It returns the previous status and whether a session existed.
func (r *Registry) SetStatus(participantID string, status models.Status) (previous models.Status, existed bool) {
	now := r.clock.Now()
	r.sessions.Update(participantID, func(current models.ParticipantSession, exists bool) (models.ParticipantSession, bool) {
		previous, existed = current.Status, exists
		return models.ParticipantSession{Status: status, LastSeen: now}, true
	})
	return previous, existed
}

// Touch refreshes the participant's last-seen time without changing its status.
// It returns false if the participant has no session.
func (r *Registry) Touch(participantID string) bool {
	now := r.clock.Now()
	touched := false
	r.sessions.Update(participantID, func(current models.ParticipantSession, exists bool) (models.ParticipantSession, bool) {
		if !exists {
			return current, false
		}
		touched = true
		current.LastSeen = now
		return current, true
	})
	return touched
}

// GetStatus returns the participant's current status
func (r *Registry) GetStatus(participantID string) (models.Status, error) {
	session, ok := r.sessions.Get(participantID)
	if !ok {
		return models.StatusUnknown, fmt.Errorf("%w: %s", models.ErrParticipantNotFound, participantID)
	}
	return session.Status, nil
}

// HasSession reports whether the participant has a session. A successful check
// counts as a sign of life and refreshes the last-seen time.
func (r *Registry) HasSession(participantID string) bool {
	return r.Touch(participantID)
}

// Contains reports whether the participant has a session without refreshing it
func (r *Registry) Contains(participantID string) bool {
	return r.sessions.Has(participantID)
}

// Remove deletes the participant's session and reports whether one existed
func (r *Registry) Remove(participantID string) bool {
	return r.sessions.Delete(participantID)
}

// RemoveInactive evicts every session that has not been seen for longer than
// timeout and returns the evicted participant IDs. The current time is captured
// once per sweep and every entry is compared against it under the map lock, so
// a session refreshed before the comparison is never evicted.
func (r *Registry) RemoveInactive(timeout time.Duration) []string {
	now := r.clock.Now()
	evicted := r.sessions.DeleteFunc(func(_ string, session models.ParticipantSession) bool {
		return session.IsInactive(now, timeout)
	})
	if len(evicted) > 0 {
		log.Debug().Str("module", "presence").Int("evicted", len(evicted)).Dur("timeout", timeout).Msg("removed inactive sessions")
	}
	sort.Strings(evicted)
	return evicted
}

// Snapshot returns a point-in-time copy of every participant's status
func (r *Registry) Snapshot() map[string]models.Status {
	sessions := r.sessions.Snapshot()
	out := make(map[string]models.Status, len(sessions))
	for id, session := range sessions {
		out[id] = session.Status
	}
	return out
}

// Sessions returns a point-in-time copy of every session
func (r *Registry) Sessions() map[string]models.ParticipantSession {
	return r.sessions.Snapshot()
}

// Counts aggregates the current statuses
func (r *Registry) Counts() models.StatusCounts {
	var counts models.StatusCounts
	for _, session := range r.sessions.Values() {
		counts.Add(session.Status)
	}
	return counts
}

// Len returns the number of sessions
func (r *Registry) Len() int {
	return r.sessions.Len()
}

// IsEmpty reports whether no sessions remain
func (r *Registry) IsEmpty() bool {
	return r.sessions.Len() == 0
}
