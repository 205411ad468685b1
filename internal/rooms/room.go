// Package rooms holds the process-wide registry of feedback rooms.
//
// A Room combines a presence registry of participant sessions, a question
// board and a status history, plus the identity and liveness of its host.
// The Registry owns every Room and is meant to be constructed once at process
// start and handed to request handlers.
package rooms

import (
	"iter"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/navikt/lecturefeedback/internal/history"
	"github.com/navikt/lecturefeedback/internal/models"
	"github.com/navikt/lecturefeedback/internal/presence"
	"github.com/navikt/lecturefeedback/internal/questions"
)

// Options configures the rooms created by a Registry
type Options struct {
	HistoryMinInterval  time.Duration
	HistoryMaxSnapshots int
}

// Room is one feedback session with a designated host
type Room struct {
	id        string
	hostID    string
	createdAt time.Time
	clock     clockwork.Clock

	mu           sync.RWMutex
	hostLastSeen time.Time

	sessions  *presence.Registry
	questions *questions.Board
	history   *history.Recorder
}

// NewRoom creates a room with hostID as host and as its first session
func NewRoom(id, hostID string, clock clockwork.Clock, opts Options) *Room {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	now := clock.Now()
	r := &Room{
		id:           id,
		hostID:       hostID,
		createdAt:    now,
		clock:        clock,
		hostLastSeen: now,
		sessions:     presence.NewRegistry(clock),
		questions:    questions.NewBoard(clock),
		history:      history.NewRecorder(clock, opts.HistoryMinInterval, opts.HistoryMaxSnapshots),
	}
	r.sessions.Join(hostID)
	return r
}

// ID returns the room ID
func (r *Room) ID() string { return r.id }

// HostID returns the ID of the participant who created the room
func (r *Room) HostID() string { return r.hostID }

// CreatedAt returns when the room was created, used as the start of the history timeline
func (r *Room) CreatedAt() time.Time { return r.createdAt }

// IsHost reports whether the participant is the room's host
func (r *Room) IsHost(participantID string) bool {
	return participantID == r.hostID
}

// TouchHost refreshes the host's liveness timestamp
func (r *Room) TouchHost() {
	now := r.clock.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hostLastSeen = now
}

// HostLastSeen returns when the host was last seen
func (r *Room) HostLastSeen() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hostLastSeen
}

// IsHostInactive reports whether the host has not been seen for longer than timeout
func (r *Room) IsHostInactive(timeout time.Duration) bool {
	return r.clock.Now().Sub(r.HostLastSeen()) > timeout
}

// Join adds or resets the participant's session with status Unknown
func (r *Room) Join(participantID string) {
	r.sessions.Join(participantID)
}

// SetSessionStatus stores the participant's status and, when it changed,
// records a history snapshot.
func (r *Room) SetSessionStatus(participantID string, status models.Status) {
	previous, existed := r.sessions.SetStatus(participantID, status)
	if !existed || previous != status {
		r.history.Record(r.sessions.Counts())
	}
}

// GetSessionStatus returns the participant's status
func (r *Room) GetSessionStatus(participantID string) (models.Status, error) {
	return r.sessions.GetStatus(participantID)
}

// HasSession reports whether the participant has a session and refreshes it if so
func (r *Room) HasSession(participantID string) bool {
	return r.sessions.HasSession(participantID)
}

// ContainsSession reports whether the participant has a session without refreshing it
func (r *Room) ContainsSession(participantID string) bool {
	return r.sessions.Contains(participantID)
}

// TouchSession marks the participant as still present
func (r *Room) TouchSession(participantID string) bool {
	return r.sessions.Touch(participantID)
}

// RemoveSession drops the participant's session
func (r *Room) RemoveSession(participantID string) bool {
	return r.sessions.Remove(participantID)
}

// RemoveInactiveSessions evicts sessions silent for longer than timeout and
// returns the evicted IDs. Evictions change the aggregate, so they are recorded.
func (r *Room) RemoveInactiveSessions(timeout time.Duration) []string {
	evicted := r.sessions.RemoveInactive(timeout)
	if len(evicted) > 0 {
		r.history.Record(r.sessions.Counts())
	}
	return evicted
}

// Participants returns the participants and their statuses ordered by ID.
// Each range over the sequence reads a fresh snapshot.
func (r *Room) Participants() iter.Seq2[string, models.Status] {
	return func(yield func(string, models.Status) bool) {
		for _, p := range r.ParticipantList() {
			if !yield(p.ParticipantID, p.Status) {
				return
			}
		}
	}
}

// ParticipantList returns a snapshot of the participants ordered by ID
func (r *Room) ParticipantList() []models.ParticipantStatus {
	snap := r.sessions.Snapshot()
	out := make([]models.ParticipantStatus, 0, len(snap))
	for id, status := range snap {
		out = append(out, models.ParticipantStatus{ParticipantID: id, Status: status})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ParticipantID < out[j].ParticipantID })
	return out
}

// StatusCounts aggregates the current statuses of all sessions
func (r *Room) StatusCounts() models.StatusCounts {
	return r.sessions.Counts()
}

// SessionCount returns the number of sessions
func (r *Room) SessionCount() int {
	return r.sessions.Len()
}

// IsEmpty reports whether the room has no sessions. The host identity alone
// does not keep a room alive.
func (r *Room) IsEmpty() bool {
	return r.sessions.IsEmpty()
}

// Questions returns the room's question board
func (r *Room) Questions() *questions.Board {
	return r.questions
}

// History returns the recorded status timeline, oldest first
func (r *Room) History() []models.StatusSnapshot {
	return r.history.History()
}

// Summary returns the aggregate view of the room
func (r *Room) Summary() models.RoomSummary {
	counts := r.StatusCounts()
	return models.RoomSummary{
		RoomID:           r.id,
		ParticipantCount: counts.Total(),
		Counts:           counts,
		OpenQuestions:    r.questions.Len(),
		CreatedAt:        r.createdAt,
		UpdatedAt:        r.clock.Now(),
	}
}
