package testutil

import (
	"context"
	"sync"

	"github.com/AnshRaj112/astravedam-backend/internal/geocode"
)

// Geocoder answers from a fixed table; unknown places are geocode.ErrNotFound.
type Geocoder struct {
	mu      sync.Mutex
	places  map[string]geocode.Location
	Err     error
	Queries []string
}

func NewGeocoder() *Geocoder {
	return &Geocoder{places: map[string]geocode.Location{
		"Delhi": {
			Latitude:         28.6139,
			Longitude:        77.209,
			FormattedAddress: "New Delhi, Delhi, India",
			City:             "New Delhi",
			Country:          "India",
			Timezone:         "Asia/Kolkata",
			PlaceID:          "delhi-1",
		},
	}}
}

func (g *Geocoder) Add(text string, loc geocode.Location) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.places[text] = loc
}

func (g *Geocoder) Geocode(ctx context.Context, text string) (*geocode.Location, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Queries = append(g.Queries, text)
	if g.Err != nil {
		return nil, g.Err
	}
	loc, ok := g.places[text]
	if !ok {
		return nil, geocode.ErrNotFound
	}
	return &loc, nil
}

// Calls returns how many lookups were made.
func (g *Geocoder) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Queries)
}
