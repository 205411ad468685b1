package models

import (
	"fmt"
	"strings"
)

// Status represents the feedback a participant reports about the lecture
type Status int

const (
	StatusUnknown Status = iota
	StatusGreen
	StatusYellow
	StatusRed
)

// AllStatuses lists every status in display order (bottom to top of the bar chart)
var AllStatuses = []Status{StatusUnknown, StatusRed, StatusYellow, StatusGreen}

// String returns the string representation of a status
func (s Status) String() string {
	switch s {
	case StatusGreen:
		return "green"
	case StatusYellow:
		return "yellow"
	case StatusRed:
		return "red"
	default:
		return "unknown"
	}
}

// IsReportable reports whether a participant may report this status.
// Unknown is only ever assigned by the system on join.
func (s Status) IsReportable() bool {
	return s == StatusGreen || s == StatusYellow || s == StatusRed
}

// ParseStatus converts a string into a Status
func ParseStatus(value string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "unknown":
		return StatusUnknown, nil
	case "green":
		return StatusGreen, nil
	case "yellow":
		return StatusYellow, nil
	case "red":
		return StatusRed, nil
	}
	return StatusUnknown, fmt.Errorf("invalid status %q", value)
}

// MarshalText implements encoding.TextMarshaler so statuses travel as strings in JSON
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// StatusCounts holds the number of participants per status
type StatusCounts struct {
	Unknown int `json:"unknown"`
	Green   int `json:"green"`
	Yellow  int `json:"yellow"`
	Red     int `json:"red"`
}

// Add increments the counter for the given status
func (c *StatusCounts) Add(s Status) {
	switch s {
	case StatusGreen:
		c.Green++
	case StatusYellow:
		c.Yellow++
	case StatusRed:
		c.Red++
	default:
		c.Unknown++
	}
}

// Get returns the counter for the given status
func (c StatusCounts) Get(s Status) int {
	switch s {
	case StatusGreen:
		return c.Green
	case StatusYellow:
		return c.Yellow
	case StatusRed:
		return c.Red
	default:
		return c.Unknown
	}
}

// Total returns the number of participants counted
func (c StatusCounts) Total() int {
	return c.Unknown + c.Green + c.Yellow + c.Red
}
