package scheduler

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/skycastapp/skycast/internal/location"
	"github.com/skycastapp/skycast/internal/weather"
)

type fakeLocationCache struct {
	loc location.Location
	ok  bool
}

func (f *fakeLocationCache) Cached() (location.Location, bool) { return f.loc, f.ok }

type fakeForecasts struct {
	calls   int
	lastLat float64
	lastLon float64
	err     error
}

func (f *fakeForecasts) Forecast(_ context.Context, lat, lon float64, _ string) (*weather.Forecast, error) {
	f.calls++
	f.lastLat, f.lastLon = lat, lon
	if f.err != nil {
		return nil, f.err
	}
	return &weather.Forecast{}, nil
}

func newTestRefresher(locs LocationCache, fc ForecastService) *Refresher {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(locs, fc, "celsius", time.Minute, logger)
}

func TestRefreshOnce(t *testing.T) {
	t.Run("no resolved location is a no-op", func(t *testing.T) {
		forecasts := &fakeForecasts{}
		r := newTestRefresher(&fakeLocationCache{}, forecasts)

		r.refreshOnce(context.Background())

		assert.Equal(t, 0, forecasts.calls)
	})

	t.Run("refreshes the cached location", func(t *testing.T) {
		forecasts := &fakeForecasts{}
		locs := &fakeLocationCache{
			loc: location.Location{Latitude: 50.45, Longitude: 30.52, Source: location.SourceIP},
			ok:  true,
		}
		r := newTestRefresher(locs, forecasts)

		r.refreshOnce(context.Background())

		assert.Equal(t, 1, forecasts.calls)
		assert.InDelta(t, 50.45, forecasts.lastLat, 0.001)
		assert.InDelta(t, 30.52, forecasts.lastLon, 0.001)
	})

	t.Run("forecast failure is absorbed", func(t *testing.T) {
		forecasts := &fakeForecasts{err: &weather.Error{Kind: weather.KindNetworkError, Message: "down"}}
		locs := &fakeLocationCache{loc: location.Location{Latitude: 1, Longitude: 2}, ok: true}
		r := newTestRefresher(locs, forecasts)

		r.refreshOnce(context.Background())

		assert.Equal(t, 1, forecasts.calls)
	})
}

func TestStartDisabledWithoutInterval(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := New(&fakeLocationCache{}, &fakeForecasts{}, "celsius", 0, logger)

	assert.NoError(t, r.Start())
	r.Stop()
}
