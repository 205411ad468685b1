package models

import "time"

// StatusSnapshot is the aggregate status of a room at one point in time
type StatusSnapshot struct {
	Timestamp time.Time `json:"timestamp"`
	StatusCounts
}
