package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"platewatch/internal/models"
)

// SeedRecord is one entry of the seed document. The field names match the
// keys historically used by the seed data set.
type SeedRecord struct {
	State         string `json:"state"`
	Plate         string `json:"plate"`
	Make          string `json:"make"`
	Model         string `json:"model"`
	Color         string `json:"color"`
	Location      string `json:"location"`
	Timestamp     string `json:"timestamp"`
	Notes         string `json:"notes,omitempty"`
	ImageFilename string `json:"image_filename,omitempty"`
}

// SeedDocument is the reloadable export format consumed by cmd/seed.
type SeedDocument struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Sightings   []SeedRecord `json:"sightings"`
}

// WriteSeed serializes the sightings as an indented seed document.
func WriteSeed(w io.Writer, sightings []models.Sighting, includeNotes bool) error {
	doc := SeedDocument{
		GeneratedAt: time.Now().UTC(),
		Sightings:   make([]SeedRecord, 0, len(sightings)),
	}
	for _, s := range sightings {
		record := SeedRecord{
			State:         s.State,
			Plate:         s.LicensePlate,
			Make:          s.CarMake,
			Model:         s.CarModel,
			Color:         s.Color,
			Location:      s.Location,
			Timestamp:     s.SightedAt.Format(TimestampLayout),
			ImageFilename: s.Image(),
		}
		if includeNotes {
			record.Notes = s.Notes
		}
		doc.Sightings = append(doc.Sightings, record)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// ParseSeed reads a seed document back into sightings. Timestamps must use
// TimestampLayout; an empty timestamp becomes the zero time and is replaced
// at insert time.
func ParseSeed(r io.Reader) ([]models.Sighting, error) {
	var doc SeedDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode seed document: %w", err)
	}

	sightings := make([]models.Sighting, 0, len(doc.Sightings))
	for i, record := range doc.Sightings {
		s := models.Sighting{
			State:        record.State,
			LicensePlate: record.Plate,
			CarMake:      record.Make,
			CarModel:     record.Model,
			Color:        record.Color,
			Location:     record.Location,
			Notes:        record.Notes,
		}
		if record.Timestamp != "" {
			ts, err := time.Parse(TimestampLayout, record.Timestamp)
			if err != nil {
				return nil, fmt.Errorf("record %d: parse timestamp %q: %w", i, record.Timestamp, err)
			}
			s.SightedAt = ts
		}
		if record.ImageFilename != "" {
			filename := record.ImageFilename
			s.ImageFilename = &filename
		}
		sightings = append(sightings, s)
	}
	return sightings, nil
}
