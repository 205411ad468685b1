// Package questions implements the per-room question board with upvotes
package questions

import (
	"sort"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/navikt/lecturefeedback/internal/models"
	"github.com/navikt/lecturefeedback/internal/syncmap"
)

// Board holds the open questions of a room. Questions are stored as values
// and replaced on every upvote, so copies handed out never change underneath
// the caller.
type Board struct {
	questions *syncmap.Map[string, models.Question]
	seq       atomic.Uint64
	clock     clockwork.Clock
}

// NewBoard creates an empty question board
func NewBoard(clock clockwork.Clock) *Board {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Board{
		questions: syncmap.New[string, models.Question](),
		clock:     clock,
	}
}

// Submit adds a question and returns its ID. The creator is counted as the
// first voter. Blank text is ignored and yields an empty ID.
func (b *Board) Submit(creatorID, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	q := models.Question{
		ID:        uuid.NewString(),
		Text:      text,
		CreatorID: creatorID,
		Voters:    map[string]struct{}{creatorID: {}},
		CreatedAt: b.clock.Now(),
		Seq:       b.seq.Add(1),
	}
	b.questions.Set(q.ID, q)
	return q.ID
}

// Upvote records the participant's vote. Unknown questions and repeated votes
// are ignored. It reports whether the vote count changed.
func (b *Board) Upvote(participantID, questionID string) bool {
	changed := false
	b.questions.Update(questionID, func(q models.Question, exists bool) (models.Question, bool) {
		if !exists {
			return q, false
		}
		if q.HasVoted(participantID) {
			return q, true
		}
		changed = true
		return q.WithVoter(participantID), true
	})
	return changed
}

// Close removes the question from the board. Unknown IDs are ignored.
// It reports whether a question was removed.
func (b *Board) Close(questionID string) bool {
	return b.questions.Delete(questionID)
}

// Get returns a copy of a single open question
func (b *Board) Get(questionID string) (models.Question, bool) {
	q, ok := b.questions.Get(questionID)
	if !ok {
		return models.Question{}, false
	}
	return q.Clone(), true
}

// ListOpen returns copies of all open questions ordered by vote count,
// highest first. Ties keep submission order.
func (b *Board) ListOpen() []models.Question {
	values := b.questions.Values()
	sort.Slice(values, func(i, j int) bool {
		vi, vj := values[i].VoteCount(), values[j].VoteCount()
		if vi != vj {
			return vi > vj
		}
		return values[i].Seq < values[j].Seq
	})

	out := make([]models.Question, len(values))
	for i, q := range values {
		out[i] = q.Clone()
	}
	return out
}

// Len returns the number of open questions
func (b *Board) Len() int {
	return b.questions.Len()
}
