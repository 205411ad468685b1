// Package repository defines the storage used to mirror room summaries
package repository

import (
	"context"

	"github.com/navikt/lecturefeedback/internal/models"
)

// Repository stores the aggregate view of each room. Only counts are kept,
// never participant IDs or question text.
type Repository interface {
	SaveRoomSummary(ctx context.Context, summary models.RoomSummary) error
	// GetRoomSummary returns models.ErrSummaryNotFound when nothing is stored for the room
	GetRoomSummary(ctx context.Context, roomID string) (models.RoomSummary, error)
	ListRoomSummaries(ctx context.Context) ([]models.RoomSummary, error)
	DeleteRoomSummary(ctx context.Context, roomID string) error
	Close() error
}
