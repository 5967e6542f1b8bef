package geocode

import (
	"context"
)

// Place is the display-name enrichment attached to resolved coordinates.
// Either field may be empty when the provider has no data at city zoom.
type Place struct {
	City    string
	Country string
}

// Point is a forward-geocoding result.
type Point struct {
	Latitude    float64
	Longitude   float64
	DisplayName string
}

// Provider converts between coordinates and human-readable place names.
//
// Reverse is best-effort from the caller's perspective: the location resolver
// absorbs any error and carries on without a display name.
type Provider interface {
	Reverse(ctx context.Context, lat, lon float64) (Place, error)
	Forward(ctx context.Context, query string) (Point, error)
}
