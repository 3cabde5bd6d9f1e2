package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *ImageStore {
	t.Helper()

	store, err := NewImageStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewImageStore: %v", err)
	}
	return store
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"IMG_1234.jpg", "IMG_1234.jpg"},
		{"my photo.jpg", "my_photo.jpg"},
		{"../../etc/passwd", "passwd"},
		{"..\\..\\evil.png", "evil.png"},
		{"héllo wörld.png", "hllo_wrld.png"},
		{".hidden.jpg", "hidden.jpg"},
	}
	for _, tc := range cases {
		got, err := SanitizeFilename(tc.in)
		if err != nil {
			t.Errorf("SanitizeFilename(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	if _, err := SanitizeFilename("..."); !errors.Is(err, ErrUnsafeFilename) {
		t.Errorf("expected ErrUnsafeFilename for all-dots name, got %v", err)
	}
}

func TestCanonicalName(t *testing.T) {
	got, err := CanonicalName(7, "IMG_1234.jpg")
	if err != nil {
		t.Fatalf("CanonicalName: %v", err)
	}
	if got != "sighting_7_IMG_1234.jpg" {
		t.Errorf("CanonicalName = %q", got)
	}
}

func TestAllowedName(t *testing.T) {
	allowed := []string{"a.png", "b.jpg", "c.JPEG", "d.gif", "e.webp"}
	for _, name := range allowed {
		if !AllowedName(name) {
			t.Errorf("AllowedName(%q) = false, want true", name)
		}
	}
	denied := []string{"a.txt", "b.svg", "c.exe", "noext", "d.jpg.sh"}
	for _, name := range denied {
		if AllowedName(name) {
			t.Errorf("AllowedName(%q) = true, want false", name)
		}
	}
}

func TestSaveAndDelete(t *testing.T) {
	store := newTestStore(t)

	filename, err := store.Save(7, "IMG_1234.jpg", strings.NewReader("image-bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filename != "sighting_7_IMG_1234.jpg" {
		t.Errorf("filename = %q", filename)
	}
	if !store.Exists(filename) {
		t.Fatal("saved file does not exist")
	}

	data, err := os.ReadFile(filepath.Join(store.Dir(), filename))
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(data) != "image-bytes" {
		t.Errorf("content = %q", data)
	}

	if err := store.Delete(filename); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if store.Exists(filename) {
		t.Error("file still present after delete")
	}

	// second delete is a no-op
	if err := store.Delete(filename); err != nil {
		t.Errorf("repeat Delete: %v", err)
	}
}

func TestSaveRejectsDisallowedType(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Save(1, "notes.txt", strings.NewReader("x")); !errors.Is(err, ErrDisallowedType) {
		t.Errorf("err = %v, want ErrDisallowedType", err)
	}
}

func TestSaveAsOverwritesAtomically(t *testing.T) {
	store := newTestStore(t)

	if err := store.SaveAs("sighting_1_a.jpg", bytes.NewReader([]byte("one"))); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	if err := store.SaveAs("sighting_1_a.jpg", bytes.NewReader([]byte("two"))); err != nil {
		t.Fatalf("SaveAs overwrite: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(store.Dir(), "sighting_1_a.jpg"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "two" {
		t.Errorf("content = %q, want %q", data, "two")
	}

	entries, err := os.ReadDir(store.Dir())
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("store dir has %d entries, want 1 (no temp leftovers)", len(entries))
	}
}

func TestPathRejectsEscapes(t *testing.T) {
	store := newTestStore(t)

	bad := []string{"../secret.jpg", "a/b.jpg", "..", ".hidden", ""}
	for _, name := range bad {
		if _, err := store.Path(name); !errors.Is(err, ErrUnsafeFilename) {
			t.Errorf("Path(%q) err = %v, want ErrUnsafeFilename", name, err)
		}
		if store.Exists(name) {
			t.Errorf("Exists(%q) = true, want false", name)
		}
	}
}
