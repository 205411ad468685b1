package models

import "time"

// RoomSummary is the aggregate view of a room that is mirrored to the repository
type RoomSummary struct {
	RoomID           string       `json:"room_id"`
	ParticipantCount int          `json:"participant_count"`
	Counts           StatusCounts `json:"counts"`
	OpenQuestions    int          `json:"open_questions"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// RoomEvent describes a change to a room that listeners may want to push to clients
type RoomEvent struct {
	RoomID  string `json:"room_id"`
	Removed bool   `json:"removed"`
}
