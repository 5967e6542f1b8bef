package weather_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycastapp/skycast/internal/metrics"
	"github.com/skycastapp/skycast/internal/weather"
)

type fakeFetcher struct {
	forecast *weather.Forecast
	err      error
	calls    int
}

func (f *fakeFetcher) Fetch(_ context.Context, lat, lon float64, _ string) (*weather.Forecast, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	cp := *f.forecast
	cp.Latitude, cp.Longitude = lat, lon
	return &cp, nil
}

func newTestService(cache *weather.Cache, fetcher weather.Fetcher) *weather.Service {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return weather.NewService(cache, fetcher, m, logger)
}

func TestServiceForecastCachesResult(t *testing.T) {
	fetcher := &fakeFetcher{forecast: &weather.Forecast{
		Current: weather.CurrentWeather{Temperature: 18, Time: "2026-08-30T12:00"},
	}}
	svc := newTestService(weather.NewCache(10, time.Minute, true), fetcher)

	first, err := svc.Forecast(context.Background(), 52.52, 13.405, "celsius")
	require.NoError(t, err)
	assert.Equal(t, weather.SourceAPI, first.Source)
	assert.False(t, first.FetchedAt.IsZero())

	second, err := svc.Forecast(context.Background(), 52.52, 13.405, "celsius")
	require.NoError(t, err)
	assert.Equal(t, weather.SourceCache, second.Source)
	assert.Equal(t, 1, fetcher.calls, "second call must be served from cache")
}

func TestServiceForecastErrorPropagates(t *testing.T) {
	fetcher := &fakeFetcher{err: &weather.Error{Kind: weather.KindTimeout, Message: "upstream timed out"}}
	cache := weather.NewCache(10, time.Minute, true)
	svc := newTestService(cache, fetcher)

	_, err := svc.Forecast(context.Background(), 1, 2, "celsius")

	require.Error(t, err)
	assert.Equal(t, weather.KindTimeout, weather.KindOf(err))
	assert.Equal(t, 0, cache.Stats().Size, "failed fetches must not populate the cache")
}

func TestServiceForecastDisabledCacheAlwaysFetches(t *testing.T) {
	fetcher := &fakeFetcher{forecast: &weather.Forecast{
		Current: weather.CurrentWeather{Temperature: 18, Time: "2026-08-30T12:00"},
	}}
	svc := newTestService(weather.NewCache(10, time.Minute, false), fetcher)

	_, err := svc.Forecast(context.Background(), 1, 2, "celsius")
	require.NoError(t, err)
	_, err = svc.Forecast(context.Background(), 1, 2, "celsius")
	require.NoError(t, err)

	assert.Equal(t, 2, fetcher.calls)
	assert.Equal(t, 0, svc.CacheStats().Size)
}

func TestServiceClearCache(t *testing.T) {
	fetcher := &fakeFetcher{forecast: &weather.Forecast{
		Current: weather.CurrentWeather{Temperature: 18, Time: "2026-08-30T12:00"},
	}}
	svc := newTestService(weather.NewCache(10, time.Minute, true), fetcher)

	_, err := svc.Forecast(context.Background(), 1, 2, "celsius")
	require.NoError(t, err)
	require.Equal(t, 1, svc.CacheStats().Size)

	svc.ClearCache()
	assert.Equal(t, 0, svc.CacheStats().Size)
}
