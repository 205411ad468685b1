package models

import "time"

// ParticipantSession is the presence record a room keeps for one participant
type ParticipantSession struct {
	Status   Status    `json:"status"`
	LastSeen time.Time `json:"last_seen"`
}

// IsInactive reports whether the session has not been seen for longer than timeout.
// A session seen exactly timeout ago is still alive.
func (s ParticipantSession) IsInactive(now time.Time, timeout time.Duration) bool {
	return now.Sub(s.LastSeen) > timeout
}

// ParticipantStatus pairs a participant ID with its current status
type ParticipantStatus struct {
	ParticipantID string `json:"participant_id"`
	Status        Status `json:"status"`
}
