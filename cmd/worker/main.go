// Command worker consumes the usuarios event stream.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/Bryanb141518/api-profecional/internal/cache"
	"github.com/Bryanb141518/api-profecional/internal/config"
	"github.com/Bryanb141518/api-profecional/internal/database"
	"github.com/Bryanb141518/api-profecional/internal/log"
	"github.com/Bryanb141518/api-profecional/internal/queue"
	"github.com/Bryanb141518/api-profecional/internal/repository"
	"github.com/Bryanb141518/api-profecional/internal/tasks"
)

func main() {
	cfg, err := config.Load(os.Getenv("USUARIOS_CONFIG"))
	if err != nil {
		panic(err)
	}
	if err := cfg.ValidateWorker(); err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	defer dbPool.Close()

	client, err := cache.NewRedisClient(ctx, cfg.Redis, "usuarios-worker")
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer client.Close()

	processor := tasks.NewProcessor(repository.NewSessionRepository(dbPool), logger)
	consumer := queue.NewConsumer(
		client,
		cfg.Events.Stream,
		cfg.Events.Group,
		cfg.Events.Consumer,
		cfg.Events.ClaimInterval,
		logger,
		processor,
	)

	logger.Info().Str("stream", cfg.Events.Stream).Str("group", cfg.Events.Group).Msg("worker started")

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("consumer stopped unexpectedly")
		stop()
		os.Exit(1)
	}

	logger.Info().Msg("worker exited cleanly")
}
