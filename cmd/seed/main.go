// Command seed loads a seed document (the /export/seed format) into the
// database, optionally clearing existing rows first.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"platewatch/internal/config"
	"platewatch/internal/database"
	"platewatch/internal/export"
	"platewatch/internal/log"
	"platewatch/internal/repository"
)

func main() {
	var (
		seedPath = flag.String("file", "seed_data.json", "path to the seed document")
		reset    = flag.Bool("reset", false, "delete existing sightings before loading")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := log.New(cfg.Environment)

	file, err := os.Open(*seedPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *seedPath).Msg("open seed file")
	}
	defer file.Close()

	sightings, err := export.ParseSeed(file)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse seed file")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure schema")
	}

	store := repository.NewSightingRepository(pool)

	if *reset {
		if err := store.DeleteAll(ctx); err != nil {
			logger.Fatal().Err(err).Msg("clear existing sightings")
		}
		logger.Info().Msg("existing sightings cleared")
	}

	loaded := 0
	for _, s := range sightings {
		if s.SightedAt.IsZero() {
			s.SightedAt = time.Now().UTC()
		}
		if _, err := store.Create(ctx, s); err != nil {
			logger.Fatal().Err(err).Str("plate", s.LicensePlate).Msg("insert sighting")
		}
		loaded++
	}

	logger.Info().Int("count", loaded).Msg("seed data loaded")
}
