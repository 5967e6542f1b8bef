package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// AppConfig holds all runtime configuration for the skycast service.
type AppConfig struct {
	// Env selects the logging profile: local, development, production.
	Env string `validate:"oneof=local development production"`

	Port        string
	MetricsPort int `validate:"gt=0,lt=65536"`

	// Default location used when both device and IP detection fail.
	DefaultLatitude  float64 `validate:"gte=-90,lte=90"`
	DefaultLongitude float64 `validate:"gte=-180,lte=180"`
	DefaultCity      string
	DefaultCountry   string

	// Units for temperature in upstream forecast requests.
	Units string `validate:"oneof=celsius fahrenheit"`

	// Geocoding provider selection: nominatim (no key) or google.
	GeocodeProvider string `validate:"oneof=nominatim google"`
	GeocodeAPIKey   string

	// Per-provider network timeouts.
	DeviceTimeout  time.Duration `validate:"gt=0"`
	IPTimeout      time.Duration `validate:"gt=0"`
	WeatherTimeout time.Duration `validate:"gt=0"`

	// Location resolver single-slot cache TTL.
	LocationCacheTTL time.Duration `validate:"gt=0"`

	// Weather cache bounds.
	WeatherCacheTTL     time.Duration `validate:"gt=0"`
	WeatherCacheSize    int           `validate:"gt=0"`
	WeatherCacheEnabled bool

	// RefreshInterval drives the background forecast refresher; 0 disables it.
	RefreshInterval time.Duration
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{
		Env:             getenvDefault("SKYCAST_ENV", "local"),
		Port:            getenvDefault("PORT", "8080"),
		MetricsPort:     getenvInt("METRICS_PORT", 9090),
		DefaultCity:     getenvDefault("DEFAULT_CITY", "Berlin"),
		DefaultCountry:  getenvDefault("DEFAULT_COUNTRY", "Germany"),
		Units:           getenvDefault("WEATHER_UNITS", "celsius"),
		GeocodeProvider: getenvDefault("GEOCODE_PROVIDER", "nominatim"),
		GeocodeAPIKey:   os.Getenv("GEOCODE_API_KEY"),

		WeatherCacheSize:    getenvInt("WEATHER_CACHE_SIZE", 10),
		WeatherCacheEnabled: getenvBool("WEATHER_CACHE_ENABLED", true),
	}

	var err error
	if cfg.DefaultLatitude, err = getenvFloat("DEFAULT_LATITUDE", 52.52); err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_LATITUDE: %w", err)
	}
	if cfg.DefaultLongitude, err = getenvFloat("DEFAULT_LONGITUDE", 13.405); err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_LONGITUDE: %w", err)
	}

	durations := []struct {
		dst *time.Duration
		key string
		def string
	}{
		{&cfg.DeviceTimeout, "DEVICE_TIMEOUT", "5s"},
		{&cfg.IPTimeout, "IP_TIMEOUT", "3s"},
		{&cfg.WeatherTimeout, "WEATHER_TIMEOUT", "10s"},
		{&cfg.LocationCacheTTL, "LOCATION_CACHE_TTL", "5m"},
		{&cfg.WeatherCacheTTL, "WEATHER_CACHE_TTL", "10m"},
		{&cfg.RefreshInterval, "REFRESH_INTERVAL", "0s"},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getenvDefault(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if cfg.GeocodeProvider == "google" && cfg.GeocodeAPIKey == "" {
		return nil, fmt.Errorf("GEOCODE_API_KEY is required when GEOCODE_PROVIDER=google")
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	return strconv.ParseFloat(v, 64)
}
