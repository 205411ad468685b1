// Package redis provides a Redis/Valkey implementation of the repository interface
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/navikt/lecturefeedback/internal/config"
	"github.com/navikt/lecturefeedback/internal/models"
)

// Repository implements the repository interface with Redis storage
type Repository struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRepository creates a new Redis repository and verifies the connection
func NewRepository(cfg config.RedisConfig) (*Repository, error) {
	opt, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Repository{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		ttl:       cfg.SummaryTTL,
	}, nil
}

// clientOptions prefers the URI and fills in DB and password from cfg when the URI leaves them out
func clientOptions(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URI == "" {
		return &redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		}, nil
	}

	opt, err := redis.ParseURL(cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URI: %w", err)
	}
	if opt.DB == 0 {
		opt.DB = cfg.DB
	}
	if opt.Password == "" && cfg.Password != "" {
		opt.Password = cfg.Password
	}
	if opt.Username == "" && cfg.Username != "" {
		opt.Username = cfg.Username
	}
	return opt, nil
}

// Close closes the Redis connection
func (r *Repository) Close() error {
	return r.client.Close()
}

func (r *Repository) roomKey(id string) string {
	return fmt.Sprintf("%srooms:%s", r.keyPrefix, id)
}

// SaveRoomSummary stores the summary of a room with the configured TTL
func (r *Repository) SaveRoomSummary(ctx context.Context, summary models.RoomSummary) error {
	if summary.RoomID == "" {
		return errors.New("room summary without room id")
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal room summary: %w", err)
	}

	if err := r.client.Set(ctx, r.roomKey(summary.RoomID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save room summary: %w", err)
	}
	return nil
}

// GetRoomSummary retrieves the summary of a room
func (r *Repository) GetRoomSummary(ctx context.Context, roomID string) (models.RoomSummary, error) {
	data, err := r.client.Get(ctx, r.roomKey(roomID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.RoomSummary{}, fmt.Errorf("%w: %s", models.ErrSummaryNotFound, roomID)
		}
		return models.RoomSummary{}, fmt.Errorf("failed to get room summary: %w", err)
	}

	var summary models.RoomSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return models.RoomSummary{}, fmt.Errorf("failed to unmarshal room summary: %w", err)
	}
	return summary, nil
}

// ListRoomSummaries returns every stored summary ordered by creation time.
// Entries that cannot be decoded are skipped.
func (r *Repository) ListRoomSummaries(ctx context.Context) ([]models.RoomSummary, error) {
	keys, err := r.client.Keys(ctx, r.roomKey("*")).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list room summaries: %w", err)
	}
	if len(keys) == 0 {
		return []models.RoomSummary{}, nil
	}

	// Single roundtrip for all summaries
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get room summaries: %w", err)
	}

	summaries := make([]models.RoomSummary, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var summary models.RoomSummary
		if err := json.Unmarshal([]byte(str), &summary); err != nil {
			continue
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
		}
		return summaries[i].RoomID < summaries[j].RoomID
	})
	return summaries, nil
}

// DeleteRoomSummary removes the summary of a room
func (r *Repository) DeleteRoomSummary(ctx context.Context, roomID string) error {
	deleted, err := r.client.Del(ctx, r.roomKey(roomID)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete room summary: %w", err)
	}
	if deleted == 0 {
		return fmt.Errorf("%w: %s", models.ErrSummaryNotFound, roomID)
	}
	return nil
}
