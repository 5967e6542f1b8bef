package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	CacheOps        *prometheus.CounterVec
	Resolutions     *prometheus.CounterVec
	ProviderErrors  *prometheus.CounterVec
	ProviderSeconds *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		CacheOps: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "skycast_weather_cache_operations_total",
			Help: "Weather cache lookups partitioned by result (hit, miss, bypass).",
		}, []string{"result"}),
		Resolutions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "skycast_location_resolutions_total",
			Help: "Completed location resolutions partitioned by source.",
		}, []string{"source"}),
		ProviderErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "skycast_provider_errors_total",
			Help: "Total number of errors received from upstream providers.",
		}, []string{"provider"}),
		ProviderSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "skycast_provider_request_duration_seconds",
			Help:    "Duration of requests to upstream provider APIs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
	}
}
