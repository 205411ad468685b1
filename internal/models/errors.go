package models

import "errors"

var (
	// ErrRoomNotFound is returned when a caller-supplied room ID does not exist
	ErrRoomNotFound = errors.New("room not found")

	// ErrParticipantNotFound is returned when a participant has no session in the room
	ErrParticipantNotFound = errors.New("participant not found")

	// ErrSummaryNotFound is returned by repositories when no summary is stored for a room
	ErrSummaryNotFound = errors.New("room summary not found")
)
