// Package export serializes the sighting data set as CSV, a reloadable seed
// document, or a ZIP bundle with photos.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"platewatch/internal/models"
)

// TimestampLayout is the format used for sighted_at in every export.
const TimestampLayout = "2006-01-02 15:04:05"

func csvHeader(includeNotes bool) []string {
	header := []string{"state", "license_plate", "car_make", "car_model", "color", "location", "timestamp"}
	if includeNotes {
		header = append(header, "notes")
	}
	return append(header, "image_filename")
}

func csvRow(s models.Sighting, includeNotes bool) []string {
	row := []string{
		s.State,
		s.LicensePlate,
		s.CarMake,
		s.CarModel,
		s.Color,
		s.Location,
		s.SightedAt.Format(TimestampLayout),
	}
	if includeNotes {
		row = append(row, s.Notes)
	}
	return append(row, s.Image())
}

// WriteCSV writes the sightings as CSV with a header row, in the order given.
func WriteCSV(w io.Writer, sightings []models.Sighting, includeNotes bool) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader(includeNotes)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, s := range sightings {
		if err := writer.Write(csvRow(s, includeNotes)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
