package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycastapp/skycast/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.InDelta(t, 52.52, cfg.DefaultLatitude, 0.001)
	assert.InDelta(t, 13.405, cfg.DefaultLongitude, 0.001)
	assert.Equal(t, "Berlin", cfg.DefaultCity)
	assert.Equal(t, "celsius", cfg.Units)
	assert.Equal(t, "nominatim", cfg.GeocodeProvider)
	assert.Equal(t, 5*time.Second, cfg.DeviceTimeout)
	assert.Equal(t, 3*time.Second, cfg.IPTimeout)
	assert.Equal(t, 10*time.Second, cfg.WeatherTimeout)
	assert.Equal(t, 5*time.Minute, cfg.LocationCacheTTL)
	assert.Equal(t, 10*time.Minute, cfg.WeatherCacheTTL)
	assert.Equal(t, 10, cfg.WeatherCacheSize)
	assert.True(t, cfg.WeatherCacheEnabled)
	assert.Equal(t, time.Duration(0), cfg.RefreshInterval)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SKYCAST_ENV", "production")
	t.Setenv("DEFAULT_LATITUDE", "35.68")
	t.Setenv("DEFAULT_LONGITUDE", "139.76")
	t.Setenv("DEFAULT_CITY", "Tokyo")
	t.Setenv("WEATHER_UNITS", "fahrenheit")
	t.Setenv("WEATHER_CACHE_SIZE", "25")
	t.Setenv("WEATHER_CACHE_ENABLED", "false")
	t.Setenv("WEATHER_CACHE_TTL", "30m")
	t.Setenv("REFRESH_INTERVAL", "15m")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.InDelta(t, 35.68, cfg.DefaultLatitude, 0.001)
	assert.Equal(t, "Tokyo", cfg.DefaultCity)
	assert.Equal(t, "fahrenheit", cfg.Units)
	assert.Equal(t, 25, cfg.WeatherCacheSize)
	assert.False(t, cfg.WeatherCacheEnabled)
	assert.Equal(t, 30*time.Minute, cfg.WeatherCacheTTL)
	assert.Equal(t, 15*time.Minute, cfg.RefreshInterval)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Run("out-of-range latitude", func(t *testing.T) {
		t.Setenv("DEFAULT_LATITUDE", "123.0")
		_, err := config.Load()
		assert.Error(t, err)
	})

	t.Run("unknown units", func(t *testing.T) {
		t.Setenv("WEATHER_UNITS", "kelvin")
		_, err := config.Load()
		assert.Error(t, err)
	})

	t.Run("malformed duration", func(t *testing.T) {
		t.Setenv("WEATHER_CACHE_TTL", "soon")
		_, err := config.Load()
		assert.Error(t, err)
	})

	t.Run("google provider requires key", func(t *testing.T) {
		t.Setenv("GEOCODE_PROVIDER", "google")
		_, err := config.Load()
		assert.Error(t, err)
	})
}
