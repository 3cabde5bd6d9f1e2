package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ImageStore keeps sighting photos in a flat directory. Canonical names follow
// the convention sighting_{id}_{sanitizedOriginalName}, which the bulk-restore
// matcher relies on.
type ImageStore struct {
	dir string
}

var allowedExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".webp": {},
}

var (
	ErrDisallowedType  = errors.New("disallowed file type")
	ErrUnsafeFilename  = errors.New("unsafe filename")
	unsafeFilenameChar = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
)

func NewImageStore(dir string) (*ImageStore, error) {
	if dir == "" {
		return nil, errors.New("upload dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &ImageStore{dir: dir}, nil
}

func (s *ImageStore) Dir() string {
	return s.dir
}

// AllowedName reports whether the filename carries an accepted image extension.
func AllowedName(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	_, ok := allowedExtensions[ext]
	return ok
}

// SanitizeFilename reduces an arbitrary client-supplied name to an ASCII-safe
// base name with no path components, in the spirit of werkzeug's
// secure_filename.
func SanitizeFilename(name string) (string, error) {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeFilenameChar.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	if name == "" {
		return "", ErrUnsafeFilename
	}
	return name, nil
}

// CanonicalName builds the stored filename for a sighting's photo.
func CanonicalName(sightingID int64, originalName string) (string, error) {
	clean, err := SanitizeFilename(originalName)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("sighting_%d_%s", sightingID, clean), nil
}

// Save writes a photo under its canonical name and returns that name. The
// original extension must be an accepted image type.
func (s *ImageStore) Save(sightingID int64, originalName string, r io.Reader) (string, error) {
	if !AllowedName(originalName) {
		return "", ErrDisallowedType
	}
	filename, err := CanonicalName(sightingID, originalName)
	if err != nil {
		return "", err
	}
	if err := s.SaveAs(filename, r); err != nil {
		return "", err
	}
	return filename, nil
}

// SaveAs writes the file atomically: content goes to a temp file in the same
// directory, then renames into place. A failed write leaves no partial file.
func (s *ImageStore) SaveAs(filename string, r io.Reader) error {
	if !s.safe(filename) {
		return ErrUnsafeFilename
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(s.dir, filename)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// Delete removes a stored photo. A missing file is not an error.
func (s *ImageStore) Delete(filename string) error {
	if !s.safe(filename) {
		return ErrUnsafeFilename
	}
	if err := os.Remove(filepath.Join(s.dir, filename)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Path resolves a stored filename to its absolute location, rejecting names
// that would escape the store directory.
func (s *ImageStore) Path(filename string) (string, error) {
	if !s.safe(filename) {
		return "", ErrUnsafeFilename
	}
	return filepath.Join(s.dir, filename), nil
}

// Exists reports whether a stored photo is present on disk.
func (s *ImageStore) Exists(filename string) bool {
	if !s.safe(filename) {
		return false
	}
	info, err := os.Stat(filepath.Join(s.dir, filename))
	return err == nil && info.Mode().IsRegular()
}

// Open returns a reader over a stored photo.
func (s *ImageStore) Open(filename string) (*os.File, error) {
	path, err := s.Path(filename)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

func (s *ImageStore) safe(filename string) bool {
	return filename != "" &&
		filename == filepath.Base(filename) &&
		!strings.HasPrefix(filename, ".") &&
		!strings.ContainsAny(filename, "/\\")
}
