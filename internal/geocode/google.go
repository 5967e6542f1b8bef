package geocode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kelvins/geocoder"
)

// GoogleProvider implements Provider on top of the Google Geocoding API via
// the kelvins/geocoder client. Requires an API key.
//
// The underlying client does not accept a context, so cancellation is only
// checked before each call, not while a request is in flight.
type GoogleProvider struct {
	log *slog.Logger
}

var ErrGoogleNoResult = errors.New("google geocoding returned no results")

// NewGoogleProvider creates a Google geocoding provider. The API key is
// package-global in the underlying client.
func NewGoogleProvider(apiKey string, log *slog.Logger) *GoogleProvider {
	geocoder.ApiKey = apiKey
	return &GoogleProvider{log: log}
}

func (gp *GoogleProvider) Reverse(ctx context.Context, lat, lon float64) (Place, error) {
	if err := ctx.Err(); err != nil {
		return Place{}, err
	}

	addresses, err := geocoder.GeocodingReverse(geocoder.Location{Latitude: lat, Longitude: lon})
	if err != nil {
		return Place{}, fmt.Errorf("google reverse geocoding: %w", err)
	}
	if len(addresses) == 0 {
		return Place{}, ErrGoogleNoResult
	}

	// Prefer the first result that carries a city; the top result is the most
	// specific and may only have street-level fields.
	for _, addr := range addresses {
		if addr.City != "" {
			return Place{City: addr.City, Country: addr.Country}, nil
		}
	}

	gp.log.DebugContext(ctx, "Google reverse result has no city", "lat", lat, "lon", lon)
	return Place{Country: addresses[0].Country}, nil
}

func (gp *GoogleProvider) Forward(ctx context.Context, query string) (Point, error) {
	if err := ctx.Err(); err != nil {
		return Point{}, err
	}

	loc, err := geocoder.Geocoding(geocoder.Address{City: query})
	if err != nil {
		return Point{}, fmt.Errorf("google forward geocoding: %w", err)
	}

	return Point{
		Latitude:    loc.Latitude,
		Longitude:   loc.Longitude,
		DisplayName: query,
	}, nil
}
