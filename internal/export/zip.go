package export

import (
	"archive/zip"
	"fmt"
	"io"
	"path"

	"platewatch/internal/models"
	"platewatch/internal/storage"
)

const (
	zipCSVName    = "license_plates_export.csv"
	zipImagesPath = "images"
)

// WriteZip bundles the CSV export together with every referenced photo that
// exists in the store. Missing photo files are skipped, not fatal.
func WriteZip(w io.Writer, sightings []models.Sighting, images *storage.ImageStore, includeNotes bool) error {
	archive := zip.NewWriter(w)

	csvEntry, err := archive.Create(zipCSVName)
	if err != nil {
		return fmt.Errorf("create csv entry: %w", err)
	}
	if err := WriteCSV(csvEntry, sightings, includeNotes); err != nil {
		return err
	}

	for _, s := range sightings {
		if !s.HasImage() || !images.Exists(s.Image()) {
			continue
		}
		if err := addImage(archive, images, s.Image()); err != nil {
			return err
		}
	}

	return archive.Close()
}

func addImage(archive *zip.Writer, images *storage.ImageStore, filename string) error {
	file, err := images.Open(filename)
	if err != nil {
		return fmt.Errorf("open image %s: %w", filename, err)
	}
	defer file.Close()

	entry, err := archive.Create(path.Join(zipImagesPath, filename))
	if err != nil {
		return fmt.Errorf("create image entry: %w", err)
	}
	if _, err := io.Copy(entry, file); err != nil {
		return fmt.Errorf("copy image %s: %w", filename, err)
	}
	return nil
}
