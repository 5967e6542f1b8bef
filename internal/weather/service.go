package weather

import (
	"context"
	"log/slog"
	"time"

	"github.com/skycastapp/skycast/internal/metrics"
)

// Fetcher is the upstream forecast source behind the cache.
type Fetcher interface {
	Fetch(ctx context.Context, lat, lon float64, units string) (*Forecast, error)
}

// Service shields the upstream weather API behind the LRU+TTL cache. Fetch
// errors propagate to the caller tagged by kind; cache operations never fail.
type Service struct {
	cache   *Cache
	fetcher Fetcher
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewService(cache *Cache, fetcher Fetcher, m *metrics.Metrics, log *slog.Logger) *Service {
	return &Service{
		cache:   cache,
		fetcher: fetcher,
		metrics: m,
		log:     log,
	}
}

// Forecast returns the cached payload for the coordinates or fetches a fresh
// one. The cache is only written after a fully successful fetch, so a
// canceled request never leaves a partial entry behind.
func (s *Service) Forecast(ctx context.Context, lat, lon float64, units string) (*Forecast, error) {
	if f, ok := s.cache.Get(lat, lon); ok {
		s.metrics.CacheOps.WithLabelValues("hit").Inc()
		return f, nil
	}
	if s.cache.Stats().Enabled {
		s.metrics.CacheOps.WithLabelValues("miss").Inc()
	} else {
		s.metrics.CacheOps.WithLabelValues("bypass").Inc()
	}

	start := time.Now()
	f, err := s.fetcher.Fetch(ctx, lat, lon, units)
	s.metrics.ProviderSeconds.WithLabelValues("open-meteo").Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.ProviderErrors.WithLabelValues("open-meteo").Inc()
		s.log.ErrorContext(ctx, "forecast fetch failed", "lat", lat, "lon", lon, "kind", KindOf(err), "error", err)
		return nil, err
	}

	f.Source = SourceAPI
	f.FetchedAt = time.Now().UTC()
	s.cache.Set(lat, lon, *f)

	return f, nil
}

// CacheStats exposes cache introspection to the API layer.
func (s *Service) CacheStats() Stats {
	return s.cache.Stats()
}

// ClearCache drops all cached forecasts.
func (s *Service) ClearCache() {
	s.cache.Clear()
}
