package service

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"platewatch/internal/models"
	"platewatch/internal/repository"
	"platewatch/internal/storage"
)

var pngBytes = append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, []byte("fake png payload")...)

func restoreFixture(t *testing.T) (*RestoreService, repository.SightingStore, *storage.ImageStore) {
	t.Helper()

	store := repository.NewMemorySightingStore()
	images, err := storage.NewImageStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewImageStore: %v", err)
	}
	svc := NewRestoreService(store, images, 5<<20, zerolog.Nop())
	return svc, store, images
}

func addSightingWithImage(t *testing.T, store repository.SightingStore, filename string) int64 {
	t.Helper()

	s := models.Sighting{
		State:        "CA",
		LicensePlate: "ABC1234",
		CarMake:      "Honda",
		CarModel:     "Civic",
		Color:        "Blue",
	}
	if filename != "" {
		s.ImageFilename = &filename
	}
	id, err := store.Create(context.Background(), s)
	if err != nil {
		t.Fatalf("create sighting: %v", err)
	}
	return id
}

func restoreFile(name string, content []byte) RestoreFile {
	return RestoreFile{
		Name: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(content)), nil
		},
	}
}

func TestRestoreBindsByOriginalName(t *testing.T) {
	svc, store, images := restoreFixture(t)

	// record IDs 1..7, with record 7 holding the canonical name
	for i := 0; i < 6; i++ {
		addSightingWithImage(t, store, "")
	}
	id := addSightingWithImage(t, store, "sighting_7_IMG_1234.jpg")
	if id != 7 {
		t.Fatalf("fixture sighting got id %d, want 7", id)
	}

	report, err := svc.Restore(context.Background(), []RestoreFile{
		restoreFile("IMG_1234.jpg", pngBytes),
	})
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if len(report.Bound) != 1 || len(report.Unresolved) != 0 {
		t.Fatalf("report = %+v", report)
	}
	if report.Bound[0].SightingID != 7 {
		t.Errorf("bound to sighting %d, want 7", report.Bound[0].SightingID)
	}
	if report.Bound[0].StoredAs != "sighting_7_IMG_1234.jpg" {
		t.Errorf("stored as %q", report.Bound[0].StoredAs)
	}
	if !images.Exists("sighting_7_IMG_1234.jpg") {
		t.Error("image file not written")
	}
	if report.BatchID == "" {
		t.Error("empty batch id")
	}
}

func TestRestoreAmbiguousTouchesNothing(t *testing.T) {
	svc, store, images := restoreFixture(t)

	addSightingWithImage(t, store, "sighting_1_IMG_1234.jpg")
	addSightingWithImage(t, store, "sighting_2_IMG_1234.jpg")

	report, err := svc.Restore(context.Background(), []RestoreFile{
		restoreFile("IMG_1234.jpg", pngBytes),
	})
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if len(report.Bound) != 0 || len(report.Unresolved) != 1 {
		t.Fatalf("report = %+v", report)
	}
	if report.Unresolved[0].Reason != "matches more than one sighting" {
		t.Errorf("reason = %q", report.Unresolved[0].Reason)
	}

	entries, err := os.ReadDir(images.Dir())
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("image dir has %d entries, want 0", len(entries))
	}
}

func TestRestoreNoMatch(t *testing.T) {
	svc, store, _ := restoreFixture(t)
	addSightingWithImage(t, store, "sighting_1_IMG_0001.jpg")

	report, err := svc.Restore(context.Background(), []RestoreFile{
		restoreFile("IMG_9999.jpg", pngBytes),
	})
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if len(report.Unresolved) != 1 || report.Unresolved[0].Reason != "no matching sighting found" {
		t.Fatalf("report = %+v", report)
	}
}

func TestRestoreRejectsInvalidType(t *testing.T) {
	svc, store, _ := restoreFixture(t)
	addSightingWithImage(t, store, "sighting_1_IMG_1234.jpg")

	report, err := svc.Restore(context.Background(), []RestoreFile{
		restoreFile("notes.txt", []byte("text")),
	})
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if len(report.Unresolved) != 1 || report.Unresolved[0].Reason != "invalid file type" {
		t.Fatalf("report = %+v", report)
	}
}

func TestRestoreRejectsNonImageContent(t *testing.T) {
	svc, store, images := restoreFixture(t)
	addSightingWithImage(t, store, "sighting_1_IMG_1234.jpg")

	report, err := svc.Restore(context.Background(), []RestoreFile{
		restoreFile("IMG_1234.jpg", []byte("definitely not an image")),
	})
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if len(report.Unresolved) != 1 {
		t.Fatalf("report = %+v", report)
	}
	if images.Exists("sighting_1_IMG_1234.jpg") {
		t.Error("file written despite failed sniff")
	}
}

func TestRestoreIdempotent(t *testing.T) {
	svc, store, images := restoreFixture(t)
	id := addSightingWithImage(t, store, "sighting_1_IMG_1234.jpg")

	batch := []RestoreFile{restoreFile("IMG_1234.jpg", pngBytes)}
	if _, err := svc.Restore(context.Background(), batch); err != nil {
		t.Fatalf("first Restore: %v", err)
	}
	report, err := svc.Restore(context.Background(), batch)
	if err != nil {
		t.Fatalf("second Restore: %v", err)
	}

	if len(report.Bound) != 1 {
		t.Fatalf("second upload not bound: %+v", report)
	}
	content, err := os.ReadFile(filepath.Join(images.Dir(), "sighting_1_IMG_1234.jpg"))
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if !bytes.Equal(content, pngBytes) {
		t.Error("file content changed")
	}

	sighting, err := store.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if sighting.Image() != "sighting_1_IMG_1234.jpg" {
		t.Errorf("image filename = %q", sighting.Image())
	}
}

func TestRestoreMixedBatch(t *testing.T) {
	svc, store, _ := restoreFixture(t)
	addSightingWithImage(t, store, "sighting_1_IMG_0001.jpg")
	addSightingWithImage(t, store, "sighting_2_IMG_0002.jpg")

	report, err := svc.Restore(context.Background(), []RestoreFile{
		restoreFile("IMG_0001.jpg", pngBytes),
		restoreFile("IMG_0404.jpg", pngBytes),
		restoreFile("sighting_2_IMG_0002.jpg", pngBytes),
	})
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if len(report.Bound) != 2 || len(report.Unresolved) != 1 {
		t.Fatalf("report = %+v", report)
	}
}
