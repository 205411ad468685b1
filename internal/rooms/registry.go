package rooms

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/navikt/lecturefeedback/internal/models"
	"github.com/navikt/lecturefeedback/internal/syncmap"
)

// Registry maps room IDs to rooms.
//
// A participant is a member of at most one room: creating or joining a room
// removes the participant's session from every other room. Membership changes
// run inside one scoped acquisition of the room map lock, which is always taken
// before any session lock.
type Registry struct {
	rooms *syncmap.Map[string, *Room]
	clock clockwork.Clock
	opts  Options
}

// NewRegistry creates an empty room registry
func NewRegistry(clock clockwork.Clock, opts Options) *Registry {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Registry{
		rooms: syncmap.New[string, *Room](),
		clock: clock,
		opts:  opts,
	}
}

// CreateRoom creates a room hosted by initiatorID and returns its ID
func (g *Registry) CreateRoom(initiatorID string) string {
	roomID := uuid.NewString()
	room := NewRoom(roomID, initiatorID, g.clock, g.opts)

	g.rooms.Do(func(tx *syncmap.Tx[string, *Room]) {
		leaveOtherRooms(tx, roomID, initiatorID)
		tx.Set(roomID, room)
	})

	log.Info().Str("module", "rooms.registry").Str("room", roomID).Msg("room created")
	return roomID
}

// JoinRoom adds the participant to the room with status Unknown
func (g *Registry) JoinRoom(roomID, participantID string) error {
	var err error
	g.rooms.Do(func(tx *syncmap.Tx[string, *Room]) {
		room, ok := tx.Get(roomID)
		if !ok {
			err = fmt.Errorf("%w: %s", models.ErrRoomNotFound, roomID)
			return
		}
		leaveOtherRooms(tx, roomID, participantID)
		room.Join(participantID)
	})
	if err != nil {
		return err
	}

	log.Debug().Str("module", "rooms.registry").Str("room", roomID).Msg("participant joined")
	return nil
}

// leaveOtherRooms removes the participant's session from every room except keep
func leaveOtherRooms(tx *syncmap.Tx[string, *Room], keep, participantID string) {
	tx.Range(func(id string, room *Room) bool {
		if id != keep && room.RemoveSession(participantID) {
			log.Debug().Str("module", "rooms.registry").Str("room", id).Msg("participant left previous room")
		}
		return true
	})
}

// Room returns the room with the given ID
func (g *Registry) Room(roomID string) (*Room, error) {
	room, ok := g.rooms.Get(roomID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrRoomNotFound, roomID)
	}
	return room, nil
}

// FindRoomOf returns the room the participant belongs to, either as a session
// or as its host. Finding the participant's session refreshes it.
func (g *Registry) FindRoomOf(participantID string) (*Room, bool) {
	room := lookupRoom(g.Rooms(), participantID)
	if room == nil {
		return nil, false
	}
	room.TouchSession(participantID)
	return room, true
}

// SetStatus stores the participant's status in the room they belong to and
// returns that room. Lookup and write happen under the room map lock so a
// concurrent join cannot move the participant in between.
func (g *Registry) SetStatus(participantID string, status models.Status) (*Room, error) {
	var room *Room
	g.rooms.Do(func(tx *syncmap.Tx[string, *Room]) {
		all := make([]*Room, 0, tx.Len())
		tx.Range(func(_ string, r *Room) bool {
			all = append(all, r)
			return true
		})
		sortRooms(all)

		room = lookupRoom(all, participantID)
		if room == nil {
			return
		}
		room.SetSessionStatus(participantID, status)
		if room.IsHost(participantID) {
			room.TouchHost()
		}
	})
	if room == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrParticipantNotFound, participantID)
	}
	return room, nil
}

// lookupRoom returns the room holding the participant's session, or else the
// newest room they host. rooms must be ordered by creation time.
func lookupRoom(rooms []*Room, participantID string) *Room {
	for _, room := range rooms {
		if room.ContainsSession(participantID) {
			return room
		}
	}
	for i := len(rooms) - 1; i >= 0; i-- {
		if rooms[i].IsHost(participantID) {
			return rooms[i]
		}
	}
	return nil
}

// Rooms returns a snapshot of all rooms ordered by creation time
func (g *Registry) Rooms() []*Room {
	all := g.rooms.Values()
	sortRooms(all)
	return all
}

func sortRooms(all []*Room) {
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt().Equal(all[j].CreatedAt()) {
			return all[i].ID() < all[j].ID()
		}
		return all[i].CreatedAt().Before(all[j].CreatedAt())
	})
}

// Len returns the number of rooms
func (g *Registry) Len() int {
	return g.rooms.Len()
}

// RemoveInactiveSessions evicts inactive sessions in every room and returns
// the evicted participant IDs per room
func (g *Registry) RemoveInactiveSessions(timeout time.Duration) map[string][]string {
	evicted := make(map[string][]string)
	for _, room := range g.rooms.Values() {
		if ids := room.RemoveInactiveSessions(timeout); len(ids) > 0 {
			evicted[room.ID()] = ids
		}
	}
	return evicted
}

// RemoveEmptyRooms deletes every room without sessions and returns their IDs.
// The check and the delete happen under the room map lock, so a concurrent
// join can never land in a room that is being removed.
func (g *Registry) RemoveEmptyRooms() []string {
	removed := g.rooms.DeleteFunc(func(_ string, room *Room) bool {
		return room.IsEmpty()
	})
	sort.Strings(removed)
	for _, id := range removed {
		log.Info().Str("module", "rooms.registry").Str("room", id).Msg("empty room removed")
	}
	return removed
}
