package models

import (
	"sort"
	"time"
)

// Question is an audience question submitted to a room
type Question struct {
	ID        string              `json:"id"`
	Text      string              `json:"text"`
	CreatorID string              `json:"creator_id"`
	Voters    map[string]struct{} `json:"-"`
	CreatedAt time.Time           `json:"created_at"`
	// Seq is the submission order within the board, used to break vote ties
	Seq uint64 `json:"-"`
}

// VoteCount returns the number of distinct voters, the creator included
func (q Question) VoteCount() int {
	return len(q.Voters)
}

// HasVoted returns true if the participant is among the voters
func (q Question) HasVoted(participantID string) bool {
	_, ok := q.Voters[participantID]
	return ok
}

// VoterIDs returns the voters as a sorted slice
func (q Question) VoterIDs() []string {
	ids := make([]string, 0, len(q.Voters))
	for id := range q.Voters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// WithVoter returns a copy of the question with participantID added to the voters.
// The receiver's voter set is left untouched.
func (q Question) WithVoter(participantID string) Question {
	voters := make(map[string]struct{}, len(q.Voters)+1)
	for id := range q.Voters {
		voters[id] = struct{}{}
	}
	voters[participantID] = struct{}{}
	q.Voters = voters
	return q
}

// Clone returns a deep copy of the question
func (q Question) Clone() Question {
	voters := make(map[string]struct{}, len(q.Voters))
	for id := range q.Voters {
		voters[id] = struct{}{}
	}
	q.Voters = voters
	return q
}
