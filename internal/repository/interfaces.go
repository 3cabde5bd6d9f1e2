package repository

import (
	"context"
	"errors"
	"time"

	"platewatch/internal/models"
)

var ErrSightingNotFound = errors.New("sighting not found")

// SortKey selects the ordering of a sighting listing. Unknown keys fall back
// to SortDateDesc.
type SortKey string

const (
	SortDateDesc  SortKey = "date_desc"
	SortDateAsc   SortKey = "date_asc"
	SortPlateAsc  SortKey = "plate_asc"
	SortPlateDesc SortKey = "plate_desc"
	SortMakeAsc   SortKey = "make_asc"
	SortMakeDesc  SortKey = "make_desc"
)

// ListFilter narrows and orders a listing. StartDate is inclusive, EndDate
// exclusive; both optional.
type ListFilter struct {
	Sort      SortKey
	StartDate *time.Time
	EndDate   *time.Time
}

// SightingStore is the persistence contract for sightings. The pgx-backed
// implementation lives in this package; tests use an in-memory fake.
type SightingStore interface {
	Create(ctx context.Context, s models.Sighting) (int64, error)
	GetByID(ctx context.Context, id int64) (models.Sighting, error)
	Update(ctx context.Context, s models.Sighting) error
	SetImageFilename(ctx context.Context, id int64, filename *string) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ListFilter) ([]models.Sighting, error)
	Search(ctx context.Context, state, plate string) ([]models.Sighting, error)
	GetByImageFilename(ctx context.Context, filename string) (models.Sighting, error)
	ListWithImages(ctx context.Context) ([]models.Sighting, error)
	LatestByPlate(ctx context.Context, plate string) (models.Sighting, error)
	DeleteAll(ctx context.Context) error
}
