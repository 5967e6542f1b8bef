package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/skycastapp/skycast/internal/location"
	"github.com/skycastapp/skycast/internal/weather"
)

// LocationCache is the resolver surface the refresher reads from.
type LocationCache interface {
	Cached() (location.Location, bool)
}

// ForecastService is the weather surface the refresher warms.
type ForecastService interface {
	Forecast(ctx context.Context, lat, lon float64, units string) (*weather.Forecast, error)
}

// Refresher periodically re-fetches the forecast for the most recently
// resolved location so dashboard reads stay cache-warm. It never resolves a
// location itself; with no resolution yet, a tick is a no-op.
type Refresher struct {
	scheduler *gocron.Scheduler
	locations LocationCache
	forecasts ForecastService
	units     string
	interval  time.Duration
	log       *slog.Logger
}

func New(locations LocationCache, forecasts ForecastService, units string, interval time.Duration, log *slog.Logger) *Refresher {
	return &Refresher{
		scheduler: gocron.NewScheduler(time.UTC),
		locations: locations,
		forecasts: forecasts,
		units:     units,
		interval:  interval,
		log:       log,
	}
}

// Start schedules the periodic refresh job. A non-positive interval disables
// the refresher entirely.
func (r *Refresher) Start() error {
	if r.interval <= 0 {
		r.log.Info("refresher disabled; no interval configured")
		return nil
	}

	_, err := r.scheduler.Every(r.interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		r.refreshOnce(ctx)
	})
	if err != nil {
		return err
	}

	r.scheduler.StartAsync()
	return nil
}

func (r *Refresher) refreshOnce(ctx context.Context) {
	loc, ok := r.locations.Cached()
	if !ok {
		r.log.DebugContext(ctx, "refresher: no resolved location yet")
		return
	}

	if _, err := r.forecasts.Forecast(ctx, loc.Latitude, loc.Longitude, r.units); err != nil {
		r.log.WarnContext(ctx, "refresher: forecast refresh failed",
			"lat", loc.Latitude, "lon", loc.Longitude, "error", err)
		return
	}
	r.log.DebugContext(ctx, "refresher: forecast refreshed",
		"lat", loc.Latitude, "lon", loc.Longitude)
}

// Stop stops the scheduler and cancels any future jobs.
func (r *Refresher) Stop() {
	if r.scheduler != nil {
		r.scheduler.Stop()
	}
}
