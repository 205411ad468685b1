// Package web pushes room updates to browsers over server-sent events
package web

import (
	"encoding/json"
	"net/http"

	"github.com/r3labs/sse/v2"
	"github.com/rs/zerolog/log"

	"github.com/navikt/lecturefeedback/internal/logging"
	"github.com/navikt/lecturefeedback/internal/models"
)

const (
	// EventUpdate tells clients to refresh their view of the room
	EventUpdate = "update"
	// EventRemoved tells clients the room no longer exists
	EventRemoved = "removed"
)

// RoomChecker reports whether a room exists
type RoomChecker interface {
	RoomExists(roomID string) bool
}

// Notifier fans room events out to one SSE stream per room.
// Clients subscribe with GET ...?stream=<roomID>.
type Notifier struct {
	server *sse.Server
	rooms  RoomChecker
}

// NewNotifier creates a notifier. Subscriptions to rooms that rooms does not
// know are rejected; a nil checker accepts every room ID.
func NewNotifier(rooms RoomChecker) *Notifier {
	server := sse.New()
	server.AutoStream = true
	server.AutoReplay = false
	server.Headers = map[string]string{
		"X-Accel-Buffering": "no",
	}
	return &Notifier{server: server, rooms: rooms}
}

// ServeHTTP implements the http.Handler interface for SSE connections
func (n *Notifier) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("stream")
	if roomID == "" {
		http.Error(w, "Please specify a stream", http.StatusBadRequest)
		return
	}
	if n.rooms != nil && !n.rooms.RoomExists(roomID) {
		http.Error(w, "Room not found", http.StatusNotFound)
		return
	}

	log.Debug().Str("module", "web").Str("room", logging.SanitizeString(roomID)).Str("remote", r.RemoteAddr).Msg("SSE client connected")
	n.server.ServeHTTP(w, r)
	log.Debug().Str("module", "web").Str("room", logging.SanitizeString(roomID)).Msg("SSE client disconnected")
}

// NotifyRoomEvent publishes the event to the room's subscribers without blocking.
// Streams of removed rooms go away once their last client disconnects.
func (n *Notifier) NotifyRoomEvent(event models.RoomEvent) {
	if !n.server.StreamExists(event.RoomID) {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("module", "web").Msg("failed to marshal room event")
		return
	}

	name := EventUpdate
	if event.Removed {
		name = EventRemoved
	}
	if !n.server.TryPublish(event.RoomID, &sse.Event{Event: []byte(name), Data: data}) {
		log.Warn().Str("module", "web").Str("room", event.RoomID).Msg("SSE buffer full, dropping event")
	}
}

// Shutdown closes every stream and disconnects all clients
func (n *Notifier) Shutdown() {
	n.server.Close()
}
