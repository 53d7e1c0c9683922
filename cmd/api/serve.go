package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/Bryanb141518/api-profecional/internal/cache"
	"github.com/Bryanb141518/api-profecional/internal/database"
	"github.com/Bryanb141518/api-profecional/internal/handlers"
	"github.com/Bryanb141518/api-profecional/internal/jobs"
	"github.com/Bryanb141518/api-profecional/internal/log"
	"github.com/Bryanb141518/api-profecional/internal/queue"
	"github.com/Bryanb141518/api-profecional/internal/server"
)

func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run migrations and start the HTTP server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := log.New(cfg.Environment, "api")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, cfg.Postgres.DSN); err != nil {
		return oops.Code("MIGRATION_FAILED").Wrap(err)
	}

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		return err
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis, "usuarios-api")
	if err != nil {
		dbPool.Close()
		return err
	}

	handlerSet := handlers.NewHandlerSet(logger, dbPool, redisClient, cfg)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(queue.NewPublisher(redisClient, cfg.Events.Stream), cfg.Events.CleanupSchedule, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Start()
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error().Err(err).Msg("http server failed")
		}
		stop()
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	}

	shutdown(logger, httpServer, scheduler, dbPool, redisClient)
	return nil
}

func shutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn().Msg("scheduler jobs still running at shutdown")
	}

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
