package service

import "errors"

var (
	// ErrNotInRoom is returned when the caller is neither a participant nor the host of any room
	ErrNotInRoom = errors.New("participant is not in a room")

	// ErrNotHost is returned when a host-only operation is attempted by someone else
	ErrNotHost = errors.New("only the host may perform this operation")

	// ErrInvalidStatus is returned when a participant reports a status they may not choose
	ErrInvalidStatus = errors.New("invalid status")
)
