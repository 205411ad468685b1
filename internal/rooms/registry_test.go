package rooms_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navikt/lecturefeedback/internal/models"
	"github.com/navikt/lecturefeedback/internal/rooms"
)

func newTestRegistry(clock clockwork.Clock) *rooms.Registry {
	return rooms.NewRegistry(clock, rooms.Options{
		HistoryMinInterval:  time.Second,
		HistoryMaxSnapshots: 100,
	})
}

func TestRegistryCreateAndJoin(t *testing.T) {
	reg := newTestRegistry(clockwork.NewFakeClockAt(epoch))

	roomID := reg.CreateRoom("H")
	require.NotEmpty(t, roomID)
	assert.Equal(t, 1, reg.Len())

	t.Run("ScenarioA", func(t *testing.T) {
		require.NoError(t, reg.JoinRoom(roomID, "P"))

		room, ok := reg.FindRoomOf("P")
		require.True(t, ok)
		room.SetSessionStatus("P", models.StatusGreen)

		assert.ElementsMatch(t, []models.ParticipantStatus{
			{ParticipantID: "H", Status: models.StatusUnknown},
			{ParticipantID: "P", Status: models.StatusGreen},
		}, room.ParticipantList())
	})

	t.Run("JoinOverwritesSession", func(t *testing.T) {
		require.NoError(t, reg.JoinRoom(roomID, "P"))
		room, err := reg.Room(roomID)
		require.NoError(t, err)
		status, err := room.GetSessionStatus("P")
		require.NoError(t, err)
		assert.Equal(t, models.StatusUnknown, status)
	})

	t.Run("ScenarioD", func(t *testing.T) {
		err := reg.JoinRoom("zzz", "P")
		assert.ErrorIs(t, err, models.ErrRoomNotFound)
		assert.Equal(t, 1, reg.Len())

		_, err = reg.Room("zzz")
		assert.ErrorIs(t, err, models.ErrRoomNotFound)
	})

	t.Run("RoomIDsAreUnique", func(t *testing.T) {
		other := reg.CreateRoom("H2")
		assert.NotEqual(t, roomID, other)
	})
}

func TestRegistryFindRoomOf(t *testing.T) {
	reg := newTestRegistry(clockwork.NewFakeClockAt(epoch))

	var roomIDs []string
	for i := 0; i < 5; i++ {
		roomIDs = append(roomIDs, reg.CreateRoom(fmt.Sprintf("host-%d", i)))
	}

	t.Run("EveryJoinedParticipantIsFound", func(t *testing.T) {
		for i, roomID := range roomIDs {
			p := fmt.Sprintf("participant-%d", i)
			require.NoError(t, reg.JoinRoom(roomID, p))

			room, ok := reg.FindRoomOf(p)
			require.True(t, ok)
			assert.Equal(t, roomID, room.ID())
		}
	})

	t.Run("UnknownParticipant", func(t *testing.T) {
		room, ok := reg.FindRoomOf("nobody")
		assert.False(t, ok)
		assert.Nil(t, room)
	})

	t.Run("HostWithoutSessionIsFound", func(t *testing.T) {
		room, err := reg.Room(roomIDs[0])
		require.NoError(t, err)
		room.RemoveSession("host-0")

		found, ok := reg.FindRoomOf("host-0")
		require.True(t, ok)
		assert.Equal(t, roomIDs[0], found.ID())
	})
}

func TestRegistrySingleRoomMembership(t *testing.T) {
	reg := newTestRegistry(clockwork.NewFakeClockAt(epoch))
	first := reg.CreateRoom("H1")
	second := reg.CreateRoom("H2")

	require.NoError(t, reg.JoinRoom(first, "P"))
	require.NoError(t, reg.JoinRoom(second, "P"))

	firstRoom, _ := reg.Room(first)
	secondRoom, _ := reg.Room(second)
	assert.False(t, firstRoom.ContainsSession("P"), "joining another room leaves the previous one")
	assert.True(t, secondRoom.ContainsSession("P"))

	room, ok := reg.FindRoomOf("P")
	require.True(t, ok)
	assert.Equal(t, second, room.ID())

	t.Run("CreatingARoomLeavesThePreviousOne", func(t *testing.T) {
		third := reg.CreateRoom("P")
		assert.False(t, secondRoom.ContainsSession("P"))

		room, ok := reg.FindRoomOf("P")
		require.True(t, ok)
		assert.Equal(t, third, room.ID())
	})
}

func TestRegistryCleanup(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	reg := newTestRegistry(clock)
	timeout := time.Minute

	stale := reg.CreateRoom("stale-host")
	clock.Advance(2 * timeout)
	active := reg.CreateRoom("active-host")

	t.Run("RemoveInactiveSessions", func(t *testing.T) {
		evicted := reg.RemoveInactiveSessions(timeout)
		assert.Equal(t, map[string][]string{stale: {"stale-host"}}, evicted)
	})

	t.Run("RemoveEmptyRooms", func(t *testing.T) {
		removed := reg.RemoveEmptyRooms()
		assert.Equal(t, []string{stale}, removed)
		assert.Equal(t, 1, reg.Len())

		_, err := reg.Room(stale)
		assert.ErrorIs(t, err, models.ErrRoomNotFound)
		_, err = reg.Room(active)
		assert.NoError(t, err)
	})

	t.Run("Idempotent", func(t *testing.T) {
		assert.Empty(t, reg.RemoveEmptyRooms())
		assert.Empty(t, reg.RemoveInactiveSessions(timeout))
	})

	t.Run("JoinAfterRemovalFails", func(t *testing.T) {
		assert.ErrorIs(t, reg.JoinRoom(stale, "late"), models.ErrRoomNotFound)
	})
}

func TestRegistrySetStatus(t *testing.T) {
	reg := newTestRegistry(clockwork.NewFakeClockAt(epoch))
	first := reg.CreateRoom("H1")
	second := reg.CreateRoom("H2")
	firstRoom, _ := reg.Room(first)
	secondRoom, _ := reg.Room(second)

	t.Run("WritesToCurrentRoom", func(t *testing.T) {
		require.NoError(t, reg.JoinRoom(first, "P"))
		require.NoError(t, reg.JoinRoom(second, "P"))

		room, err := reg.SetStatus("P", models.StatusGreen)
		require.NoError(t, err)
		assert.Equal(t, second, room.ID())
		assert.False(t, firstRoom.ContainsSession("P"), "status write must not bring the participant back")

		status, err := secondRoom.GetSessionStatus("P")
		require.NoError(t, err)
		assert.Equal(t, models.StatusGreen, status)
	})

	t.Run("HostWithoutSession", func(t *testing.T) {
		firstRoom.RemoveSession("H1")

		room, err := reg.SetStatus("H1", models.StatusYellow)
		require.NoError(t, err)
		assert.Equal(t, first, room.ID())
		assert.True(t, firstRoom.ContainsSession("H1"))
	})

	t.Run("UnknownParticipant", func(t *testing.T) {
		room, err := reg.SetStatus("nobody", models.StatusGreen)
		assert.ErrorIs(t, err, models.ErrParticipantNotFound)
		assert.Nil(t, room)
		assert.False(t, firstRoom.ContainsSession("nobody"))
		assert.False(t, secondRoom.ContainsSession("nobody"))
	})
}

func TestRegistrySetStatusDuringMoves(t *testing.T) {
	reg := newTestRegistry(clockwork.NewRealClock())
	roomIDs := []string{reg.CreateRoom("H1"), reg.CreateRoom("H2")}
	require.NoError(t, reg.JoinRoom(roomIDs[0], "P"))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			if err := reg.JoinRoom(roomIDs[i%2], "P"); err != nil {
				t.Errorf("join failed: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			if _, err := reg.SetStatus("P", models.StatusGreen); err != nil {
				t.Errorf("set status failed: %v", err)
				return
			}
		}
	}()
	wg.Wait()

	member := 0
	for _, room := range reg.Rooms() {
		if room.ContainsSession("P") {
			member++
		}
	}
	assert.Equal(t, 1, member, "participant must be in exactly one room")
}

func TestRegistryFindRoomOfHostPrefersNewestRoom(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	reg := newTestRegistry(clock)

	older := reg.CreateRoom("H")
	clock.Advance(time.Second)
	newer := reg.CreateRoom("H")

	newerRoom, err := reg.Room(newer)
	require.NoError(t, err)
	require.True(t, newerRoom.RemoveSession("H"))

	for i := 0; i < 20; i++ {
		room, ok := reg.FindRoomOf("H")
		require.True(t, ok)
		require.Equal(t, newer, room.ID(), "host of %s and %s", older, newer)
	}
}

func TestRegistryRooms(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	reg := newTestRegistry(clock)

	a := reg.CreateRoom("a")
	clock.Advance(time.Second)
	b := reg.CreateRoom("b")

	all := reg.Rooms()
	require.Len(t, all, 2)
	assert.Equal(t, a, all[0].ID())
	assert.Equal(t, b, all[1].ID())
}

func TestRegistryConcurrentUse(t *testing.T) {
	reg := newTestRegistry(clockwork.NewRealClock())
	roomID := reg.CreateRoom("host")

	var wg sync.WaitGroup
	for w := 0; w < 20; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			p := fmt.Sprintf("p%d", w)
			for i := 0; i < 50; i++ {
				if err := reg.JoinRoom(roomID, p); err != nil {
					t.Errorf("join failed: %v", err)
					return
				}
				if room, err := reg.SetStatus(p, models.StatusRed); err == nil {
					room.Questions().Submit(p, "question")
					_ = room.ParticipantList()
				}
				reg.RemoveInactiveSessions(time.Hour)
				reg.RemoveEmptyRooms()
			}
		}(w)
	}
	wg.Wait()

	room, err := reg.Room(roomID)
	require.NoError(t, err)
	assert.Equal(t, 21, room.SessionCount())
	assert.Equal(t, 20*50, room.Questions().Len())
}
