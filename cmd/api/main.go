package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"platewatch/internal/archive"
	"platewatch/internal/cache"
	"platewatch/internal/config"
	"platewatch/internal/database"
	"platewatch/internal/handlers"
	"platewatch/internal/jobs"
	"platewatch/internal/log"
	"platewatch/internal/repository"
	"platewatch/internal/server"
	"platewatch/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	if cfg.Session.Secret == "" {
		cfg.Session.Secret = randomSecret()
		logger.Warn().Msg("session secret not configured, generated an ephemeral one")
	}

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	if err := database.EnsureSchema(ctx, dbPool); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure schema")
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
	}

	images, err := storage.NewImageStore(cfg.Uploads.Dir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init image store")
	}

	store := repository.NewSightingRepository(dbPool)
	handlerSet := handlers.NewHandlerSet(logger, cfg, store, images, dbPool, redisClient)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	var archiver *archive.Archiver
	if cfg.Archive.Enabled() {
		archiver, err = archive.New(cfg.Archive, store, images, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init archiver")
		}
		if err := archiver.EnsureBucket(ctx); err != nil {
			logger.Warn().Err(err).Msg("ensure archive bucket failed")
		}
	}

	scheduler := jobs.NewScheduler(archiver, cfg.Archive.Schedule, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	scheduler.Stop()

	db.Close()
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		os.Exit(1)
	}
	return hex.EncodeToString(buf)
}
