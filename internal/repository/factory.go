package repository

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/navikt/lecturefeedback/internal/config"
	"github.com/navikt/lecturefeedback/internal/repository/memory"
	"github.com/navikt/lecturefeedback/internal/repository/redis"
)

// NewRepository returns a Redis backed repository when enabled in cfg,
// otherwise an in-memory one
func NewRepository(cfg config.RedisConfig) (Repository, error) {
	if !cfg.Enabled {
		log.Info().Str("module", "repository").Msg("Using in-memory summary repository")
		return memory.NewRepository(), nil
	}

	repo, err := redis.NewRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis repository: %w", err)
	}
	log.Info().Str("module", "repository").Str("prefix", cfg.KeyPrefix).Msg("Using redis summary repository")
	return repo, nil
}
