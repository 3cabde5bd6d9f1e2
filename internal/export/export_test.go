package export

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"

	"platewatch/internal/models"
	"platewatch/internal/storage"
)

func sample() []models.Sighting {
	img := "sighting_1_IMG_1234.jpg"
	return []models.Sighting{
		{
			ID:            1,
			State:         "CA",
			LicensePlate:  "ABC1234",
			CarMake:       "Honda",
			CarModel:      "Civic",
			Color:         "Blue",
			Location:      "Downtown LA",
			SightedAt:     time.Date(2025, 10, 10, 9, 15, 0, 0, time.UTC),
			Notes:         "Seen near coffee shop",
			ImageFilename: &img,
		},
		{
			ID:           2,
			State:        "NY",
			LicensePlate: "XYZ9876",
			CarMake:      "Toyota",
			CarModel:     "Camry",
			Color:        "Silver",
			SightedAt:    time.Date(2025, 10, 9, 22, 30, 0, 0, time.UTC),
		},
	}
}

func TestWriteCSVWithNotes(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sample(), true); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d rows, want 3", len(records))
	}

	wantHeader := []string{"state", "license_plate", "car_make", "car_model", "color", "location", "timestamp", "notes", "image_filename"}
	if !reflect.DeepEqual(records[0], wantHeader) {
		t.Errorf("header = %v", records[0])
	}

	wantRow := []string{"CA", "ABC1234", "Honda", "Civic", "Blue", "Downtown LA", "2025-10-10 09:15:00", "Seen near coffee shop", "sighting_1_IMG_1234.jpg"}
	if !reflect.DeepEqual(records[1], wantRow) {
		t.Errorf("row = %v, want %v", records[1], wantRow)
	}
}

func TestWriteCSVWithoutNotes(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sample(), false); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	header, err := csv.NewReader(&buf).Read()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	for _, col := range header {
		if col == "notes" {
			t.Error("notes column present with includeNotes=false")
		}
	}
}

func TestSeedRoundTrip(t *testing.T) {
	original := sample()

	var buf bytes.Buffer
	if err := WriteSeed(&buf, original, true); err != nil {
		t.Fatalf("WriteSeed: %v", err)
	}

	parsed, err := ParseSeed(&buf)
	if err != nil {
		t.Fatalf("ParseSeed: %v", err)
	}
	if len(parsed) != len(original) {
		t.Fatalf("got %d records, want %d", len(parsed), len(original))
	}

	for i, got := range parsed {
		want := original[i]
		if got.State != want.State ||
			got.LicensePlate != want.LicensePlate ||
			got.CarMake != want.CarMake ||
			got.CarModel != want.CarModel ||
			got.Color != want.Color ||
			got.Location != want.Location ||
			got.Notes != want.Notes {
			t.Errorf("record %d fields differ: got %+v", i, got)
		}
		if !got.SightedAt.Equal(want.SightedAt) {
			t.Errorf("record %d timestamp = %v, want %v", i, got.SightedAt, want.SightedAt)
		}
		if got.Image() != want.Image() {
			t.Errorf("record %d image = %q, want %q", i, got.Image(), want.Image())
		}
	}
}

func TestParseSeedBadTimestamp(t *testing.T) {
	doc := `{"sightings":[{"state":"CA","plate":"A","make":"H","model":"C","color":"Blue","timestamp":"not-a-time"}]}`
	if _, err := ParseSeed(strings.NewReader(doc)); err == nil {
		t.Fatal("expected error for bad timestamp")
	}
}

func TestWriteZip(t *testing.T) {
	images, err := storage.NewImageStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewImageStore: %v", err)
	}
	if err := images.SaveAs("sighting_1_IMG_1234.jpg", strings.NewReader("jpeg-bytes")); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteZip(&buf, sample(), images, true); err != nil {
		t.Fatalf("WriteZip: %v", err)
	}

	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}

	names := make(map[string]bool)
	for _, f := range reader.File {
		names[f.Name] = true
	}
	if !names["license_plates_export.csv"] {
		t.Error("zip missing csv entry")
	}
	if !names["images/sighting_1_IMG_1234.jpg"] {
		t.Error("zip missing image entry")
	}

	entry, err := reader.Open("images/sighting_1_IMG_1234.jpg")
	if err != nil {
		t.Fatalf("open image entry: %v", err)
	}
	defer entry.Close()
	data, err := io.ReadAll(entry)
	if err != nil {
		t.Fatalf("read image entry: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Errorf("image content = %q", data)
	}
}
