package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const createSightings = `
	CREATE TABLE IF NOT EXISTS sightings (
		id             BIGSERIAL PRIMARY KEY,
		state          VARCHAR(2) NOT NULL,
		license_plate  VARCHAR(15) NOT NULL,
		car_make       VARCHAR(50) NOT NULL,
		car_model      VARCHAR(50) NOT NULL,
		color          VARCHAR(30) NOT NULL,
		location       VARCHAR(200) NOT NULL DEFAULT '',
		sighted_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		notes          TEXT NOT NULL DEFAULT '',
		image_filename VARCHAR(255) UNIQUE,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

const createSightingsIndexes = `
	CREATE INDEX IF NOT EXISTS idx_sightings_sighted_at ON sightings (sighted_at DESC);
	CREATE INDEX IF NOT EXISTS idx_sightings_plate ON sightings (state, license_plate)
`

// EnsureSchema bootstraps the sightings table on startup so a fresh database
// needs no separate migration step.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, createSightings); err != nil {
		return fmt.Errorf("create sightings table: %w", err)
	}
	if _, err := pool.Exec(ctx, createSightingsIndexes); err != nil {
		return fmt.Errorf("create sightings indexes: %w", err)
	}
	return nil
}
