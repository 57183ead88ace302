// Package geocode resolves free-text birth places to coordinates.
package geocode

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means the provider answered but matched nothing.
	ErrNotFound = errors.New("location not found")
	// ErrUnavailable means no provider is configured.
	ErrUnavailable = errors.New("geocoding is not configured")
)

// DefaultTimezone is used when the provider (or the caller) gives none.
const DefaultTimezone = "UTC"

type Location struct {
	Latitude         float64
	Longitude        float64
	FormattedAddress string
	City             string
	Country          string
	Timezone         string
	PlaceID          string
}

type Geocoder interface {
	Geocode(ctx context.Context, text string) (*Location, error)
}
