// Package memory provides an in-memory implementation of the repository interface
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/navikt/lecturefeedback/internal/models"
)

// Repository implements the repository interface with in-memory storage
type Repository struct {
	summaries map[string]models.RoomSummary
	mu        sync.RWMutex
}

// NewRepository creates a new in-memory repository
func NewRepository() *Repository {
	return &Repository{
		summaries: make(map[string]models.RoomSummary),
	}
}

// SaveRoomSummary stores or replaces the summary of a room
func (r *Repository) SaveRoomSummary(_ context.Context, summary models.RoomSummary) error {
	if summary.RoomID == "" {
		return errors.New("room summary without room id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries[summary.RoomID] = summary
	return nil
}

// GetRoomSummary returns the stored summary of a room
func (r *Repository) GetRoomSummary(_ context.Context, roomID string) (models.RoomSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summary, ok := r.summaries[roomID]
	if !ok {
		return models.RoomSummary{}, fmt.Errorf("%w: %s", models.ErrSummaryNotFound, roomID)
	}
	return summary, nil
}

// ListRoomSummaries returns every stored summary ordered by creation time
func (r *Repository) ListRoomSummaries(_ context.Context) ([]models.RoomSummary, error) {
	r.mu.RLock()
	summaries := make([]models.RoomSummary, 0, len(r.summaries))
	for _, s := range r.summaries {
		summaries = append(summaries, s)
	}
	r.mu.RUnlock()

	sortSummaries(summaries)
	return summaries, nil
}

// DeleteRoomSummary removes the summary of a room
func (r *Repository) DeleteRoomSummary(_ context.Context, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.summaries[roomID]; !ok {
		return fmt.Errorf("%w: %s", models.ErrSummaryNotFound, roomID)
	}
	delete(r.summaries, roomID)
	return nil
}

// Close is a no-op for the in-memory repository
func (r *Repository) Close() error {
	return nil
}

func sortSummaries(summaries []models.RoomSummary) {
	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
		}
		return summaries[i].RoomID < summaries[j].RoomID
	})
}
