package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/navikt/lecturefeedback/internal/logging"
	"github.com/navikt/lecturefeedback/internal/models"
	"github.com/navikt/lecturefeedback/internal/repository"
	"github.com/navikt/lecturefeedback/internal/repository/memory"
	"github.com/navikt/lecturefeedback/internal/rooms"
)

// RoomUpdateCallback is called whenever a room changes or is removed
type RoomUpdateCallback func(models.RoomEvent)

// Options holds the timing parameters of the service
type Options struct {
	PresenceTimeout        time.Duration
	HostTimeout            time.Duration
	MaintenanceInterval    time.Duration
	EmptyRoomSweepInterval time.Duration
}

// Role is the caller's role in the room they belong to
type Role string

const (
	RoleHost        Role = "host"
	RoleParticipant Role = "participant"
)

// QuestionView is a question as seen by one caller
type QuestionView struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Votes     int       `json:"votes"`
	HasVoted  bool      `json:"has_voted"`
	Own       bool      `json:"own"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryView is the status timeline of a room
type HistoryView struct {
	SessionStart time.Time               `json:"session_start"`
	Snapshots    []models.StatusSnapshot `json:"snapshots"`
}

// ParticipantView is everything a caller needs to render their screen.
// Callers outside any room get a lobby view with InRoom false.
type ParticipantView struct {
	InRoom           bool                `json:"in_room"`
	RoomID           string              `json:"room_id,omitempty"`
	Role             Role                `json:"role,omitempty"`
	Status           models.Status       `json:"status"`
	Counts           models.StatusCounts `json:"counts"`
	ParticipantCount int                 `json:"participant_count"`
	Questions        []QuestionView      `json:"questions"`
	HostInactive     bool                `json:"host_inactive"`
	SessionStart     time.Time           `json:"session_start"`
	History          *HistoryView        `json:"history,omitempty"`
}

// FeedbackService is the entry point for everything a participant or host does.
// It resolves the caller's room on every call, mirrors room summaries to the
// repository and tells registered listeners about changes.
type FeedbackService struct {
	registry       *rooms.Registry
	repo           repository.Repository
	clock          clockwork.Clock
	opts           Options
	emptyRoomSweep *Throttle

	callbacksMu     sync.RWMutex
	updateCallbacks []RoomUpdateCallback
}

// NewFeedbackService creates a service on top of the given registry.
// A nil repository keeps summaries in memory.
func NewFeedbackService(registry *rooms.Registry, repo repository.Repository, clock clockwork.Clock, opts Options) *FeedbackService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if repo == nil {
		repo = memory.NewRepository()
	}
	return &FeedbackService{
		registry:       registry,
		repo:           repo,
		clock:          clock,
		opts:           opts,
		emptyRoomSweep: NewThrottle(clock, opts.EmptyRoomSweepInterval),
	}
}

// RegisterUpdateCallback registers a callback function to be called when room data changes
func (s *FeedbackService) RegisterUpdateCallback(callback RoomUpdateCallback) {
	s.callbacksMu.Lock()
	defer s.callbacksMu.Unlock()
	s.updateCallbacks = append(s.updateCallbacks, callback)
}

func (s *FeedbackService) notify(event models.RoomEvent) {
	s.callbacksMu.RLock()
	callbacks := append([]RoomUpdateCallback(nil), s.updateCallbacks...)
	s.callbacksMu.RUnlock()

	for _, callback := range callbacks {
		callback(event)
	}
}

// roomChanged mirrors the room's summary and notifies listeners
func (s *FeedbackService) roomChanged(ctx context.Context, room *rooms.Room) {
	if err := s.repo.SaveRoomSummary(ctx, room.Summary()); err != nil {
		log.Warn().Err(err).Str("module", "service").Str("room", room.ID()).Msg("failed to mirror room summary")
	}
	s.notify(models.RoomEvent{RoomID: room.ID()})
}

// roomRemoved drops the room's mirrored summary and notifies listeners
func (s *FeedbackService) roomRemoved(ctx context.Context, roomID string) {
	if err := s.repo.DeleteRoomSummary(ctx, roomID); err != nil && !errors.Is(err, models.ErrSummaryNotFound) {
		log.Warn().Err(err).Str("module", "service").Str("room", roomID).Msg("failed to delete room summary")
	}
	s.notify(models.RoomEvent{RoomID: roomID, Removed: true})
}

// roomOf returns the caller's room, refreshing their session if they have one
func (s *FeedbackService) roomOf(participantID string) (*rooms.Room, error) {
	room, ok := s.registry.FindRoomOf(participantID)
	if !ok {
		return nil, ErrNotInRoom
	}
	return room, nil
}

// previousRoom returns the room the participant currently has a session in, if any
func (s *FeedbackService) previousRoom(participantID string) *rooms.Room {
	for _, room := range s.registry.Rooms() {
		if room.ContainsSession(participantID) {
			return room
		}
	}
	return nil
}

// CreateRoom creates a room hosted by the caller and returns its ID.
// The caller leaves any room they were in.
func (s *FeedbackService) CreateRoom(ctx context.Context, participantID string) (string, error) {
	if participantID == "" {
		return "", errors.New("participant id is required")
	}

	previous := s.previousRoom(participantID)
	roomID := s.registry.CreateRoom(participantID)

	room, err := s.registry.Room(roomID)
	if err != nil {
		return "", err
	}
	if previous != nil {
		s.roomChanged(ctx, previous)
	}
	s.roomChanged(ctx, room)
	return roomID, nil
}

// JoinRoom adds the caller to the room with status unknown.
// The caller leaves any other room they were in.
func (s *FeedbackService) JoinRoom(ctx context.Context, roomID, participantID string) error {
	if participantID == "" {
		return errors.New("participant id is required")
	}

	previous := s.previousRoom(participantID)
	if err := s.registry.JoinRoom(roomID, participantID); err != nil {
		log.Debug().Err(err).Str("module", "service").Str("room", logging.SanitizeString(roomID)).Msg("join rejected")
		return err
	}

	room, err := s.registry.Room(roomID)
	if err != nil {
		return err
	}
	if previous != nil && previous.ID() != roomID {
		s.roomChanged(ctx, previous)
	}
	s.roomChanged(ctx, room)
	return nil
}

// View returns the caller's current screen. Viewing counts as a sign of life.
func (s *FeedbackService) View(_ context.Context, participantID string) (*ParticipantView, error) {
	room, err := s.roomOf(participantID)
	if errors.Is(err, ErrNotInRoom) {
		return &ParticipantView{Questions: []QuestionView{}}, nil
	}
	if err != nil {
		return nil, err
	}

	view := &ParticipantView{
		InRoom:       true,
		RoomID:       room.ID(),
		Role:         RoleParticipant,
		Counts:       room.StatusCounts(),
		SessionStart: room.CreatedAt(),
		Questions:    questionViews(room, participantID),
	}
	view.ParticipantCount = view.Counts.Total()

	if status, err := room.GetSessionStatus(participantID); err == nil {
		view.Status = status
	}

	if room.IsHost(participantID) {
		room.TouchHost()
		view.Role = RoleHost
		view.History = &HistoryView{SessionStart: room.CreatedAt(), Snapshots: room.History()}
	} else {
		view.HostInactive = room.IsHostInactive(s.opts.HostTimeout)
	}
	return view, nil
}

func questionViews(room *rooms.Room, participantID string) []QuestionView {
	open := room.Questions().ListOpen()
	views := make([]QuestionView, 0, len(open))
	for _, q := range open {
		views = append(views, QuestionView{
			ID:        q.ID,
			Text:      q.Text,
			Votes:     q.VoteCount(),
			HasVoted:  q.HasVoted(participantID),
			Own:       q.CreatorID == participantID,
			CreatedAt: q.CreatedAt,
		})
	}
	return views
}

// SetStatus records the caller's feedback status
func (s *FeedbackService) SetStatus(ctx context.Context, participantID string, status models.Status) error {
	if !status.IsReportable() {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	room, err := s.registry.SetStatus(participantID, status)
	if errors.Is(err, models.ErrParticipantNotFound) {
		return ErrNotInRoom
	}
	if err != nil {
		return err
	}
	s.roomChanged(ctx, room)
	return nil
}

// Heartbeat marks the caller as still present
func (s *FeedbackService) Heartbeat(_ context.Context, participantID string) error {
	room, err := s.roomOf(participantID)
	if err != nil {
		return err
	}
	room.TouchSession(participantID)
	if room.IsHost(participantID) {
		room.TouchHost()
	}
	return nil
}

// SubmitQuestion adds a question to the caller's room and returns its ID.
// Blank text is ignored and yields an empty ID.
func (s *FeedbackService) SubmitQuestion(ctx context.Context, participantID, text string) (string, error) {
	room, err := s.roomOf(participantID)
	if err != nil {
		return "", err
	}

	questionID := room.Questions().Submit(participantID, text)
	if questionID == "" {
		return "", nil
	}
	log.Debug().Str("module", "service").Str("room", room.ID()).Str("question", questionID).Msg("question submitted")
	s.roomChanged(ctx, room)
	return questionID, nil
}

// UpvoteQuestion adds the caller's vote. Voting twice or voting for an
// unknown question is a no-op.
func (s *FeedbackService) UpvoteQuestion(ctx context.Context, participantID, questionID string) error {
	room, err := s.roomOf(participantID)
	if err != nil {
		return err
	}
	if _, ok := room.Questions().Get(questionID); !ok {
		log.Debug().Str("module", "service").Str("room", room.ID()).Str("question", questionID).Msg("upvote for unknown question ignored")
		return nil
	}

	if room.Questions().Upvote(participantID, questionID) {
		s.roomChanged(ctx, room)
	}
	return nil
}

// CloseQuestion removes a question. Only the host may close questions.
// Closing an unknown or already closed question is a no-op.
func (s *FeedbackService) CloseQuestion(ctx context.Context, participantID, questionID string) error {
	room, err := s.roomOf(participantID)
	if err != nil {
		return err
	}
	if !room.IsHost(participantID) {
		return ErrNotHost
	}
	room.TouchHost()

	if !room.Questions().Close(questionID) {
		log.Debug().Str("module", "service").Str("room", room.ID()).Str("question", questionID).Msg("close for unknown question ignored")
		return nil
	}
	log.Debug().Str("module", "service").Str("room", room.ID()).Str("question", questionID).Msg("question closed")
	s.roomChanged(ctx, room)
	return nil
}

// StatusHistory returns the status timeline of the caller's room. Host only.
func (s *FeedbackService) StatusHistory(_ context.Context, participantID string) (*HistoryView, error) {
	room, err := s.roomOf(participantID)
	if err != nil {
		return nil, err
	}
	if !room.IsHost(participantID) {
		return nil, ErrNotHost
	}
	room.TouchHost()
	return &HistoryView{SessionStart: room.CreatedAt(), Snapshots: room.History()}, nil
}

// RoomExists reports whether a room with the given ID exists
func (s *FeedbackService) RoomExists(roomID string) bool {
	_, err := s.registry.Room(roomID)
	return err == nil
}

// ListRoomSummaries returns the mirrored summaries of all rooms
func (s *FeedbackService) ListRoomSummaries(ctx context.Context) ([]models.RoomSummary, error) {
	return s.repo.ListRoomSummaries(ctx)
}

// Cleanup evicts inactive sessions in every room and, at most once per
// empty-room sweep interval, removes rooms left without sessions.
func (s *FeedbackService) Cleanup(ctx context.Context) {
	evicted := s.registry.RemoveInactiveSessions(s.opts.PresenceTimeout)

	var removed []string
	s.emptyRoomSweep.Do(func() {
		removed = s.registry.RemoveEmptyRooms()
	})

	gone := make(map[string]struct{}, len(removed))
	for _, roomID := range removed {
		gone[roomID] = struct{}{}
		s.roomRemoved(ctx, roomID)
	}

	for roomID, ids := range evicted {
		log.Debug().Str("module", "service").Str("room", roomID).Int("evicted", len(ids)).Msg("inactive sessions removed")
		if _, ok := gone[roomID]; ok {
			continue
		}
		room, err := s.registry.Room(roomID)
		if err != nil {
			continue
		}
		s.roomChanged(ctx, room)
	}
}

// Run calls Cleanup every maintenance interval until ctx is cancelled
func (s *FeedbackService) Run(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.opts.MaintenanceInterval)
	defer ticker.Stop()

	log.Info().Str("module", "service").Dur("interval", s.opts.MaintenanceInterval).Msg("Maintenance loop started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "service").Msg("Maintenance loop stopped")
			return nil
		case <-ticker.Chan():
			s.Cleanup(ctx)
		}
	}
}
