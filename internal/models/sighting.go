package models

import "time"

// Sighting is one recorded observation of a license plate, with an optional
// photo stored on disk under ImageFilename.
type Sighting struct {
	ID            int64
	State         string
	LicensePlate  string
	CarMake       string
	CarModel      string
	Color         string
	Location      string
	SightedAt     time.Time
	Notes         string
	ImageFilename *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasImage reports whether the sighting currently references a photo.
func (s Sighting) HasImage() bool {
	return s.ImageFilename != nil && *s.ImageFilename != ""
}

// Image returns the referenced filename or "".
func (s Sighting) Image() string {
	if s.ImageFilename == nil {
		return ""
	}
	return *s.ImageFilename
}
