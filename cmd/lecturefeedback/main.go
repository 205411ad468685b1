package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/navikt/lecturefeedback/internal/api"
	"github.com/navikt/lecturefeedback/internal/config"
	"github.com/navikt/lecturefeedback/internal/logging"
	"github.com/navikt/lecturefeedback/internal/repository"
	"github.com/navikt/lecturefeedback/internal/rooms"
	"github.com/navikt/lecturefeedback/internal/service"
	"github.com/navikt/lecturefeedback/internal/web"
)

func main() {
	if err := run(); err != nil {
		log.Error().Str("module", "main").Err(err).Msg("lecturefeedback exited with error")
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	repo, err := repository.NewRepository(cfg.Redis)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			log.Warn().Str("module", "main").Err(err).Msg("Error closing repository")
		}
	}()

	clock := clockwork.NewRealClock()
	registry := rooms.NewRegistry(clock, rooms.Options{
		HistoryMinInterval:  cfg.HistoryMinInterval,
		HistoryMaxSnapshots: cfg.HistoryMaxSnapshots,
	})
	feedback := service.NewFeedbackService(registry, repo, clock, service.Options{
		PresenceTimeout:        cfg.PresenceTimeout,
		HostTimeout:            cfg.HostTimeout,
		MaintenanceInterval:    cfg.MaintenanceInterval,
		EmptyRoomSweepInterval: cfg.EmptyRoomSweepInterval,
	})

	notifier := web.NewNotifier(feedback)
	feedback.RegisterUpdateCallback(notifier.NotifyRoomEvent)

	ready := func(ctx context.Context) error {
		_, err := repo.ListRoomSummaries(ctx)
		return err
	}
	mux := api.SetupRoutes(feedback, ready, notifier)

	server := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     web.ProtocolMiddleware(mux),
		ReadTimeout: 15 * time.Second,
		// Event streams stay open, so there is no write timeout
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("module", "main").Str("addr", server.Addr).Msg("Starting lecturefeedback server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return feedback.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Str("module", "main").Msg("Shutting down server...")

		// Close event streams first so Shutdown does not wait on them
		notifier.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			_ = server.Close()
			return err
		}
		log.Info().Str("module", "main").Msg("Server gracefully stopped")
		return nil
	})

	return g.Wait()
}
