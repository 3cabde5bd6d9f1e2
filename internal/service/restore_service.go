package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"platewatch/internal/media/sniffer"
	"platewatch/internal/reconcile"
	"platewatch/internal/repository"
	"platewatch/internal/storage"
)

// RestoreFile is one member of a bulk-restore batch.
type RestoreFile struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// BoundFile records a successful reattachment.
type BoundFile struct {
	Filename   string
	SightingID int64
	StoredAs   string
}

// UnresolvedFile records a file that could not be reattached, with the reason
// shown to the user.
type UnresolvedFile struct {
	Filename string
	Reason   string
}

// RestoreReport summarizes one bulk-restore batch.
type RestoreReport struct {
	BatchID    string
	Bound      []BoundFile
	Unresolved []UnresolvedFile
}

// RestoreService reattaches bulk-uploaded photos to existing sightings by
// filename reconciliation. Unresolved files never touch stored state.
type RestoreService struct {
	store    repository.SightingStore
	images   *storage.ImageStore
	matcher  *reconcile.Matcher
	maxBytes int64
	log      zerolog.Logger
}

func NewRestoreService(store repository.SightingStore, images *storage.ImageStore, maxBytes int64, log zerolog.Logger) *RestoreService {
	return &RestoreService{
		store:    store,
		images:   images,
		matcher:  reconcile.NewMatcher(store),
		maxBytes: maxBytes,
		log:      log,
	}
}

func (s *RestoreService) Restore(ctx context.Context, files []RestoreFile) (RestoreReport, error) {
	report := RestoreReport{BatchID: ksuid.New().String()}

	for _, file := range files {
		name := path.Base(strings.ReplaceAll(file.Name, "\\", "/"))
		if name == "" || name == "." {
			continue
		}

		outcome, err := s.restoreOne(ctx, name, file)
		if err != nil {
			report.Unresolved = append(report.Unresolved, UnresolvedFile{Filename: name, Reason: reasonFor(err)})
			s.log.Warn().Err(err).
				Str("batch_id", report.BatchID).
				Str("filename", name).
				Msg("restore file unresolved")
			continue
		}

		report.Bound = append(report.Bound, outcome)
		s.log.Info().
			Str("batch_id", report.BatchID).
			Str("filename", name).
			Int64("sighting_id", outcome.SightingID).
			Str("stored_as", outcome.StoredAs).
			Msg("restore file bound")
	}

	return report, nil
}

func (s *RestoreService) restoreOne(ctx context.Context, name string, file RestoreFile) (BoundFile, error) {
	if !storage.AllowedName(name) {
		return BoundFile{}, storage.ErrDisallowedType
	}

	sighting, target, err := s.matcher.Match(ctx, name)
	if err != nil {
		return BoundFile{}, err
	}

	rc, err := file.Open()
	if err != nil {
		return BoundFile{}, fmt.Errorf("open upload: %w", err)
	}
	defer rc.Close()

	data, err := readLimited(rc, s.maxBytes)
	if err != nil {
		return BoundFile{}, err
	}
	if _, err := sniffer.DetectHead(head(data)); err != nil {
		return BoundFile{}, fmt.Errorf("%w: content does not look like an image", storage.ErrDisallowedType)
	}

	// The record normally already carries the target filename; update it first
	// when it differs so a failed file write leaves the pair consistent.
	if sighting.Image() != target {
		if err := s.store.SetImageFilename(ctx, sighting.ID, &target); err != nil {
			return BoundFile{}, fmt.Errorf("bind filename: %w", err)
		}
	}

	if err := s.images.SaveAs(target, bytes.NewReader(data)); err != nil {
		return BoundFile{}, fmt.Errorf("write image: %w", err)
	}

	return BoundFile{Filename: name, SightingID: sighting.ID, StoredAs: target}, nil
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, storage.ErrDisallowedType):
		return "invalid file type"
	case errors.Is(err, reconcile.ErrNoMatch):
		return "no matching sighting found"
	case errors.Is(err, reconcile.ErrAmbiguous):
		return "matches more than one sighting"
	case errors.Is(err, ErrTooLarge):
		return "file too large"
	default:
		return "could not be saved"
	}
}
