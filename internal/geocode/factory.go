package geocode

import (
	"errors"
	"fmt"
	"log/slog"
)

// ProviderType represents the type of geocoding provider.
type ProviderType string

const (
	// ProviderTypeNominatim represents OpenStreetMap Nominatim (free, no API key).
	ProviderTypeNominatim ProviderType = "nominatim"
	// ProviderTypeGoogle represents the Google Geocoding API.
	ProviderTypeGoogle ProviderType = "google"
)

// ProviderConfig holds configuration for creating a geocoding provider.
type ProviderConfig struct {
	Type   ProviderType
	APIKey string // required for Google
	Logger *slog.Logger
}

// NewProvider creates a geocoding provider based on the provided configuration.
func NewProvider(config ProviderConfig) (Provider, error) {
	switch config.Type {
	case ProviderTypeNominatim:
		return NewNominatimProvider(config.Logger), nil
	case ProviderTypeGoogle:
		if config.APIKey == "" {
			return nil, errors.New("API key is required for Google provider")
		}
		return NewGoogleProvider(config.APIKey, config.Logger), nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", config.Type)
	}
}
