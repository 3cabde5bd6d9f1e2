// Package reconcile matches bulk-uploaded photo files back to the sighting
// records they belong to, using the stored filename convention
// sighting_{id}_{originalName}.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"platewatch/internal/models"
	"platewatch/internal/repository"
)

var (
	// ErrNoMatch means no stored filename corresponds to the uploaded name.
	ErrNoMatch = errors.New("no matching sighting")
	// ErrAmbiguous means more than one record claims the uploaded name.
	ErrAmbiguous = errors.New("ambiguous match")
)

var canonicalPrefix = regexp.MustCompile(`^sighting_(\d+)_`)

// StripPrefix removes a sighting_{id}_ prefix from a filename, if present,
// returning the original camera-roll name.
func StripPrefix(filename string) string {
	return canonicalPrefix.ReplaceAllString(filename, "")
}

// Match resolves one uploaded filename to its sighting. The uploaded name may
// be a full stored name (previously exported) or the bare original name.
type Matcher struct {
	store repository.SightingStore
}

func NewMatcher(store repository.SightingStore) *Matcher {
	return &Matcher{store: store}
}

// Match returns the sighting the uploaded filename belongs to together with
// the canonical filename the content must be stored under.
//
// Exact stored-name matches win. Otherwise the name is reduced to its
// original form and compared against the suffix of every stored filename;
// only a unique suffix match binds. Zero matches yield ErrNoMatch, several
// yield ErrAmbiguous.
func (m *Matcher) Match(ctx context.Context, uploadedName string) (models.Sighting, string, error) {
	if uploadedName == "" {
		return models.Sighting{}, "", ErrNoMatch
	}

	sighting, err := m.store.GetByImageFilename(ctx, uploadedName)
	if err == nil {
		return sighting, uploadedName, nil
	}
	if !errors.Is(err, repository.ErrSightingNotFound) {
		return models.Sighting{}, "", fmt.Errorf("lookup stored filename: %w", err)
	}

	candidate := StripPrefix(uploadedName)

	withImages, err := m.store.ListWithImages(ctx)
	if err != nil {
		return models.Sighting{}, "", fmt.Errorf("list stored filenames: %w", err)
	}

	var matches []models.Sighting
	for _, s := range withImages {
		if StripPrefix(s.Image()) == candidate {
			matches = append(matches, s)
		}
	}

	switch len(matches) {
	case 0:
		return models.Sighting{}, "", ErrNoMatch
	case 1:
		return matches[0], matches[0].Image(), nil
	default:
		ids := make([]string, 0, len(matches))
		for _, s := range matches {
			ids = append(ids, fmt.Sprintf("%d", s.ID))
		}
		return models.Sighting{}, "", fmt.Errorf("%w: sightings %s", ErrAmbiguous, strings.Join(ids, ", "))
	}
}
