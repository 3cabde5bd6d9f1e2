package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"platewatch/internal/models"
)

const sightingColumns = `
	id, state, license_plate, car_make, car_model, color, location,
	sighted_at, notes, image_filename, created_at, updated_at
`

type SightingRepository struct {
	pool *pgxpool.Pool
}

func NewSightingRepository(pool *pgxpool.Pool) *SightingRepository {
	return &SightingRepository{pool: pool}
}

var _ SightingStore = (*SightingRepository)(nil)

func (r *SightingRepository) Create(ctx context.Context, s models.Sighting) (int64, error) {
	const query = `
		INSERT INTO sightings (
			state, license_plate, car_make, car_model, color, location,
			sighted_at, notes, image_filename, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW()
		)
		RETURNING id
	`

	var id int64
	err := r.pool.QueryRow(ctx, query,
		s.State,
		s.LicensePlate,
		s.CarMake,
		s.CarModel,
		s.Color,
		s.Location,
		s.SightedAt,
		s.Notes,
		s.ImageFilename,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert sighting: %w", err)
	}
	return id, nil
}

func (r *SightingRepository) GetByID(ctx context.Context, id int64) (models.Sighting, error) {
	query := `SELECT ` + sightingColumns + ` FROM sightings WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *SightingRepository) Update(ctx context.Context, s models.Sighting) error {
	const query = `
		UPDATE sightings
		SET state = $2,
		    license_plate = $3,
		    car_make = $4,
		    car_model = $5,
		    color = $6,
		    location = $7,
		    sighted_at = $8,
		    notes = $9,
		    image_filename = $10,
		    updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query,
		s.ID,
		s.State,
		s.LicensePlate,
		s.CarMake,
		s.CarModel,
		s.Color,
		s.Location,
		s.SightedAt,
		s.Notes,
		s.ImageFilename,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrSightingNotFound
	}
	return nil
}

func (r *SightingRepository) SetImageFilename(ctx context.Context, id int64, filename *string) error {
	const query = `
		UPDATE sightings SET image_filename = $2, updated_at = NOW() WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, filename)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrSightingNotFound
	}
	return nil
}

func (r *SightingRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM sightings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrSightingNotFound
	}
	return nil
}

func (r *SightingRepository) List(ctx context.Context, filter ListFilter) ([]models.Sighting, error) {
	query := `SELECT ` + sightingColumns + ` FROM sightings`

	var args []any
	clause := " WHERE 1=1"
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		clause += fmt.Sprintf(" AND sighted_at >= $%d", len(args))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		clause += fmt.Sprintf(" AND sighted_at < $%d", len(args))
	}

	query += clause + " ORDER BY " + orderClause(filter.Sort)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *SightingRepository) Search(ctx context.Context, state, plate string) ([]models.Sighting, error) {
	query := `SELECT ` + sightingColumns + ` FROM sightings WHERE 1=1`

	var args []any
	if state != "" {
		args = append(args, state)
		query += fmt.Sprintf(" AND state = $%d", len(args))
	}
	if plate != "" {
		args = append(args, "%"+plate+"%")
		query += fmt.Sprintf(" AND license_plate LIKE $%d", len(args))
	}
	query += " ORDER BY sighted_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *SightingRepository) GetByImageFilename(ctx context.Context, filename string) (models.Sighting, error) {
	query := `SELECT ` + sightingColumns + ` FROM sightings WHERE image_filename = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, filename))
}

func (r *SightingRepository) ListWithImages(ctx context.Context) ([]models.Sighting, error) {
	query := `SELECT ` + sightingColumns + ` FROM sightings WHERE image_filename IS NOT NULL ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *SightingRepository) LatestByPlate(ctx context.Context, plate string) (models.Sighting, error) {
	query := `SELECT ` + sightingColumns + ` FROM sightings
		WHERE license_plate = $1 ORDER BY sighted_at DESC LIMIT 1`
	return r.scanOne(r.pool.QueryRow(ctx, query, plate))
}

func (r *SightingRepository) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sightings`)
	return err
}

func (r *SightingRepository) scanOne(row pgx.Row) (models.Sighting, error) {
	var s models.Sighting
	if err := row.Scan(
		&s.ID,
		&s.State,
		&s.LicensePlate,
		&s.CarMake,
		&s.CarModel,
		&s.Color,
		&s.Location,
		&s.SightedAt,
		&s.Notes,
		&s.ImageFilename,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Sighting{}, ErrSightingNotFound
		}
		return models.Sighting{}, err
	}
	return s, nil
}

func (r *SightingRepository) scanAll(rows pgx.Rows) ([]models.Sighting, error) {
	var sightings []models.Sighting
	for rows.Next() {
		var s models.Sighting
		if err := rows.Scan(
			&s.ID,
			&s.State,
			&s.LicensePlate,
			&s.CarMake,
			&s.CarModel,
			&s.Color,
			&s.Location,
			&s.SightedAt,
			&s.Notes,
			&s.ImageFilename,
			&s.CreatedAt,
			&s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		sightings = append(sightings, s)
	}
	return sightings, rows.Err()
}

func orderClause(sort SortKey) string {
	switch sort {
	case SortDateAsc:
		return "sighted_at ASC"
	case SortPlateAsc:
		return "state ASC, license_plate ASC"
	case SortPlateDesc:
		return "state DESC, license_plate DESC"
	case SortMakeAsc:
		return "car_make ASC, car_model ASC"
	case SortMakeDesc:
		return "car_make DESC, car_model DESC"
	default:
		return "sighted_at DESC"
	}
}
