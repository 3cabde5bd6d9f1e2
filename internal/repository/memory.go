package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"platewatch/internal/models"
)

// MemorySightingStore is a map-backed SightingStore. It backs the test suite
// and lets the seed loader and handlers run without Postgres.
type MemorySightingStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]models.Sighting
}

func NewMemorySightingStore() *MemorySightingStore {
	return &MemorySightingStore{
		nextID: 1,
		rows:   make(map[int64]models.Sighting),
	}
}

var _ SightingStore = (*MemorySightingStore)(nil)

func (m *MemorySightingStore) Create(_ context.Context, s models.Sighting) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.ID = m.nextID
	m.nextID++
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	m.rows[s.ID] = s
	return s.ID, nil
}

func (m *MemorySightingStore) GetByID(_ context.Context, id int64) (models.Sighting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.rows[id]
	if !ok {
		return models.Sighting{}, ErrSightingNotFound
	}
	return s, nil
}

func (m *MemorySightingStore) Update(_ context.Context, s models.Sighting) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[s.ID]; !ok {
		return ErrSightingNotFound
	}
	s.UpdatedAt = time.Now().UTC()
	m.rows[s.ID] = s
	return nil
}

func (m *MemorySightingStore) SetImageFilename(_ context.Context, id int64, filename *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.rows[id]
	if !ok {
		return ErrSightingNotFound
	}
	s.ImageFilename = filename
	s.UpdatedAt = time.Now().UTC()
	m.rows[id] = s
	return nil
}

func (m *MemorySightingStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[id]; !ok {
		return ErrSightingNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *MemorySightingStore) List(_ context.Context, filter ListFilter) ([]models.Sighting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Sighting
	for _, s := range m.rows {
		if filter.StartDate != nil && s.SightedAt.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && !s.SightedAt.Before(*filter.EndDate) {
			continue
		}
		out = append(out, s)
	}
	sortSightings(out, filter.Sort)
	return out, nil
}

func (m *MemorySightingStore) Search(_ context.Context, state, plate string) ([]models.Sighting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Sighting
	for _, s := range m.rows {
		if state != "" && s.State != state {
			continue
		}
		if plate != "" && !strings.Contains(s.LicensePlate, plate) {
			continue
		}
		out = append(out, s)
	}
	sortSightings(out, SortDateDesc)
	return out, nil
}

func (m *MemorySightingStore) GetByImageFilename(_ context.Context, filename string) (models.Sighting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.rows {
		if s.Image() == filename {
			return s, nil
		}
	}
	return models.Sighting{}, ErrSightingNotFound
}

func (m *MemorySightingStore) ListWithImages(_ context.Context) ([]models.Sighting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Sighting
	for _, s := range m.rows {
		if s.HasImage() {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemorySightingStore) LatestByPlate(_ context.Context, plate string) (models.Sighting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest models.Sighting
	found := false
	for _, s := range m.rows {
		if s.LicensePlate != plate {
			continue
		}
		if !found || s.SightedAt.After(latest.SightedAt) {
			latest = s
			found = true
		}
	}
	if !found {
		return models.Sighting{}, ErrSightingNotFound
	}
	return latest, nil
}

func (m *MemorySightingStore) DeleteAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rows = make(map[int64]models.Sighting)
	return nil
}

func sortSightings(items []models.Sighting, sortKey SortKey) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch sortKey {
		case SortDateAsc:
			return a.SightedAt.Before(b.SightedAt)
		case SortPlateAsc:
			if a.State != b.State {
				return a.State < b.State
			}
			return a.LicensePlate < b.LicensePlate
		case SortPlateDesc:
			if a.State != b.State {
				return a.State > b.State
			}
			return a.LicensePlate > b.LicensePlate
		case SortMakeAsc:
			if a.CarMake != b.CarMake {
				return a.CarMake < b.CarMake
			}
			return a.CarModel < b.CarModel
		case SortMakeDesc:
			if a.CarMake != b.CarMake {
				return a.CarMake > b.CarMake
			}
			return a.CarModel > b.CarModel
		default:
			return a.SightedAt.After(b.SightedAt)
		}
	})
}
