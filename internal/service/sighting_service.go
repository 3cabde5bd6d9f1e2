package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"platewatch/internal/media/sniffer"
	"platewatch/internal/models"
	"platewatch/internal/repository"
	"platewatch/internal/storage"
)

var ErrValidation = errors.New("validation failed")

const carInfoKeyPrefix = "carinfo:"

// SightingInput carries the user-editable fields of a sighting. State and
// plate are uppercased before storage.
type SightingInput struct {
	State        string
	LicensePlate string
	CarMake      string
	CarModel     string
	Color        string
	Location     string
	Notes        string
	SightedAt    *time.Time
}

// ImageUpload is a photo submitted alongside a create or edit.
type ImageUpload struct {
	Name    string
	Content io.Reader
}

type SightingService struct {
	store    repository.SightingStore
	images   *storage.ImageStore
	cache    *redis.Client
	cacheTTL time.Duration
	maxBytes int64
	log      zerolog.Logger
}

func NewSightingService(
	store repository.SightingStore,
	images *storage.ImageStore,
	cache *redis.Client,
	cacheTTL time.Duration,
	maxBytes int64,
	log zerolog.Logger,
) *SightingService {
	return &SightingService{
		store:    store,
		images:   images,
		cache:    cache,
		cacheTTL: cacheTTL,
		maxBytes: maxBytes,
		log:      log,
	}
}

// CreateResult reports the new record plus a non-fatal warning when the
// submitted photo was rejected (the record itself is still saved).
type CreateResult struct {
	ID           int64
	ImageWarning string
}

func (s *SightingService) Create(ctx context.Context, input SightingInput, image *ImageUpload) (CreateResult, error) {
	sighting, err := s.apply(models.Sighting{}, input)
	if err != nil {
		return CreateResult{}, err
	}
	if sighting.SightedAt.IsZero() {
		sighting.SightedAt = time.Now().UTC()
	}

	id, err := s.store.Create(ctx, sighting)
	if err != nil {
		return CreateResult{}, fmt.Errorf("create sighting: %w", err)
	}

	result := CreateResult{ID: id}
	if image != nil && image.Name != "" {
		filename, err := s.attachImage(ctx, id, image)
		if err != nil {
			result.ImageWarning = imageWarning(err)
			s.log.Warn().Err(err).Int64("sighting_id", id).Msg("image rejected on create")
		} else {
			s.log.Debug().Int64("sighting_id", id).Str("filename", filename).Msg("image attached")
		}
	}

	s.invalidateCarInfo(ctx, sighting.LicensePlate)
	return result, nil
}

// UpdateInput bundles everything an edit form can change.
type UpdateInput struct {
	Fields      SightingInput
	RemoveImage bool
	Image       *ImageUpload
}

func (s *SightingService) Update(ctx context.Context, id int64, input UpdateInput) (string, error) {
	sighting, err := s.store.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	updated, err := s.apply(sighting, input.Fields)
	if err != nil {
		return "", err
	}
	if updated.SightedAt.IsZero() {
		updated.SightedAt = sighting.SightedAt
	}

	if input.RemoveImage && updated.HasImage() {
		if err := s.images.Delete(updated.Image()); err != nil {
			s.log.Warn().Err(err).Str("filename", updated.Image()).Msg("delete image file failed")
		}
		updated.ImageFilename = nil
	}

	var warning string
	if input.Image != nil && input.Image.Name != "" {
		if updated.HasImage() {
			if err := s.images.Delete(updated.Image()); err != nil {
				s.log.Warn().Err(err).Str("filename", updated.Image()).Msg("delete old image failed")
			}
			updated.ImageFilename = nil
		}
		filename, err := s.attachImageFile(input.Image, id)
		if err != nil {
			warning = imageWarning(err)
			s.log.Warn().Err(err).Int64("sighting_id", id).Msg("image rejected on edit")
		} else {
			updated.ImageFilename = &filename
		}
	}

	if err := s.store.Update(ctx, updated); err != nil {
		return "", fmt.Errorf("update sighting: %w", err)
	}

	s.invalidateCarInfo(ctx, updated.LicensePlate)
	return warning, nil
}

// Delete removes the record and its photo file.
func (s *SightingService) Delete(ctx context.Context, id int64) error {
	sighting, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if sighting.HasImage() {
		if err := s.images.Delete(sighting.Image()); err != nil {
			s.log.Warn().Err(err).Str("filename", sighting.Image()).Msg("delete image file failed")
		}
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateCarInfo(ctx, sighting.LicensePlate)
	return nil
}

// CarInfo describes the most recent sighting of a plate, for form
// autocompletion.
type CarInfo struct {
	Found    bool   `json:"found"`
	CarMake  string `json:"car_make,omitempty"`
	CarModel string `json:"car_model,omitempty"`
	Color    string `json:"color,omitempty"`
}

func (s *SightingService) CarInfo(ctx context.Context, plate string) (CarInfo, error) {
	plate = strings.ToUpper(strings.TrimSpace(plate))
	if plate == "" {
		return CarInfo{}, nil
	}

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, carInfoKeyPrefix+plate).Bytes(); err == nil {
			var info CarInfo
			if err := json.Unmarshal(raw, &info); err == nil {
				return info, nil
			}
		}
	}

	sighting, err := s.store.LatestByPlate(ctx, plate)
	if err != nil {
		if errors.Is(err, repository.ErrSightingNotFound) {
			return CarInfo{}, nil
		}
		return CarInfo{}, err
	}

	info := CarInfo{
		Found:    true,
		CarMake:  sighting.CarMake,
		CarModel: sighting.CarModel,
		Color:    sighting.Color,
	}

	if s.cache != nil {
		if raw, err := json.Marshal(info); err == nil {
			if err := s.cache.Set(ctx, carInfoKeyPrefix+plate, raw, s.cacheTTL).Err(); err != nil {
				s.log.Debug().Err(err).Str("plate", plate).Msg("car info cache write failed")
			}
		}
	}
	return info, nil
}

func (s *SightingService) invalidateCarInfo(ctx context.Context, plate string) {
	if s.cache == nil || plate == "" {
		return
	}
	if err := s.cache.Del(ctx, carInfoKeyPrefix+plate).Err(); err != nil {
		s.log.Debug().Err(err).Str("plate", plate).Msg("car info cache invalidation failed")
	}
}

func (s *SightingService) apply(base models.Sighting, input SightingInput) (models.Sighting, error) {
	base.State = strings.ToUpper(strings.TrimSpace(input.State))
	base.LicensePlate = strings.ToUpper(strings.TrimSpace(input.LicensePlate))
	base.CarMake = strings.TrimSpace(input.CarMake)
	base.CarModel = strings.TrimSpace(input.CarModel)
	base.Color = strings.TrimSpace(input.Color)
	base.Location = strings.TrimSpace(input.Location)
	base.Notes = strings.TrimSpace(input.Notes)
	if input.SightedAt != nil {
		base.SightedAt = *input.SightedAt
	}

	switch {
	case base.State == "" || len(base.State) > 2:
		return models.Sighting{}, fmt.Errorf("%w: state must be a two-letter code", ErrValidation)
	case base.LicensePlate == "" || len(base.LicensePlate) > 15:
		return models.Sighting{}, fmt.Errorf("%w: license plate is required", ErrValidation)
	case base.CarMake == "":
		return models.Sighting{}, fmt.Errorf("%w: car make is required", ErrValidation)
	case base.CarModel == "":
		return models.Sighting{}, fmt.Errorf("%w: car model is required", ErrValidation)
	case base.Color == "":
		return models.Sighting{}, fmt.Errorf("%w: color is required", ErrValidation)
	}
	return base, nil
}

// attachImage saves the photo and binds it to an already-created record.
func (s *SightingService) attachImage(ctx context.Context, id int64, image *ImageUpload) (string, error) {
	filename, err := s.attachImageFile(image, id)
	if err != nil {
		return "", err
	}
	if err := s.store.SetImageFilename(ctx, id, &filename); err != nil {
		if removeErr := s.images.Delete(filename); removeErr != nil {
			s.log.Warn().Err(removeErr).Str("filename", filename).Msg("orphan cleanup failed")
		}
		return "", fmt.Errorf("bind image: %w", err)
	}
	return filename, nil
}

// attachImageFile validates and writes the photo, returning its stored name.
func (s *SightingService) attachImageFile(image *ImageUpload, id int64) (string, error) {
	if !storage.AllowedName(image.Name) {
		return "", storage.ErrDisallowedType
	}

	data, err := readLimited(image.Content, s.maxBytes)
	if err != nil {
		return "", err
	}
	if _, err := sniffer.DetectHead(head(data)); err != nil {
		return "", fmt.Errorf("%w: content does not look like an image", storage.ErrDisallowedType)
	}

	return s.images.Save(id, image.Name, bytes.NewReader(data))
}

var ErrTooLarge = errors.New("file too large")

func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

func head(data []byte) []byte {
	if len(data) > 512 {
		return data[:512]
	}
	return data
}

func imageWarning(err error) string {
	switch {
	case errors.Is(err, storage.ErrDisallowedType):
		return "Invalid file type. Allowed types: png, jpg, jpeg, gif, webp"
	case errors.Is(err, ErrTooLarge):
		return "Image is too large"
	default:
		return "Image could not be saved"
	}
}
