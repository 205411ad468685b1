package api

import (
	"context"

	"github.com/navikt/lecturefeedback/internal/models"
	"github.com/navikt/lecturefeedback/internal/service"
)

// FeedbackServicer defines the feedback operations needed by the API handlers
type FeedbackServicer interface {
	CreateRoom(ctx context.Context, participantID string) (string, error)
	JoinRoom(ctx context.Context, roomID, participantID string) error
	View(ctx context.Context, participantID string) (*service.ParticipantView, error)
	SetStatus(ctx context.Context, participantID string, status models.Status) error
	Heartbeat(ctx context.Context, participantID string) error
	SubmitQuestion(ctx context.Context, participantID, text string) (string, error)
	UpvoteQuestion(ctx context.Context, participantID, questionID string) error
	CloseQuestion(ctx context.Context, participantID, questionID string) error
	StatusHistory(ctx context.Context, participantID string) (*service.HistoryView, error)
	ListRoomSummaries(ctx context.Context) ([]models.RoomSummary, error)
}
