package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navikt/lecturefeedback/internal/config"
	"github.com/navikt/lecturefeedback/internal/models"
	"github.com/navikt/lecturefeedback/internal/repository"
	"github.com/navikt/lecturefeedback/internal/repository/memory"
	"github.com/navikt/lecturefeedback/internal/repository/redis"
)

func TestNewRepositoryMemory(t *testing.T) {
	repo, err := repository.NewRepository(config.RedisConfig{Enabled: false})
	require.NoError(t, err)
	assert.IsType(t, &memory.Repository{}, repo)
}

func TestNewRepositoryRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	repo, err := repository.NewRepository(config.RedisConfig{
		Enabled:    true,
		Host:       mr.Host(),
		Port:       mr.Port(),
		KeyPrefix:  "factory:",
		SummaryTTL: time.Minute,
	})
	require.NoError(t, err)
	defer repo.Close()
	assert.IsType(t, &redis.Repository{}, repo)

	require.NoError(t, repo.SaveRoomSummary(context.Background(), models.RoomSummary{RoomID: "r"}))
	assert.True(t, mr.Exists("factory:rooms:r"))
}

func TestNewRepositoryRedisUnavailable(t *testing.T) {
	_, err := repository.NewRepository(config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: "1"})
	assert.Error(t, err)
}
