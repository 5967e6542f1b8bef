package location

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/skycastapp/skycast/internal/geocode"
	"github.com/skycastapp/skycast/internal/metrics"
)

// ResolverConfig wires the resolver's providers and policy. Device may be
// nil; everything else is required.
type ResolverConfig struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	Device   Device
	IP       IPLocator
	Geocoder geocode.Provider

	DefaultLatitude  float64
	DefaultLongitude float64
	DefaultCity      string
	DefaultCountry   string

	CacheTTL      time.Duration // single-slot cache TTL, default 5m
	DeviceTimeout time.Duration // default 5s
	IPTimeout     time.Duration // default 3s
}

// Resolver produces a single authoritative Location per request by trying
// successively less precise providers: device position, IP geolocation, then
// the configured default. Display names are normalized through one reverse
// geocoding path so all provenances report consistent names.
//
// The single-slot cache is mutex-guarded because fiber dispatches handlers
// concurrently.
type Resolver struct {
	log     *slog.Logger
	metrics *metrics.Metrics

	device Device
	ip     IPLocator
	geo    geocode.Provider

	def           Location
	cacheTTL      time.Duration
	deviceTimeout time.Duration
	ipTimeout     time.Duration

	mu   sync.Mutex
	slot *slotEntry

	now func() time.Time
}

// slotEntry is the single-slot location cache record. A slot is valid while
// now - timestamp < ttl; expired slots are cleared lazily on read.
type slotEntry struct {
	location  Location
	timestamp time.Time
	ttl       time.Duration
}

func (s *slotEntry) expired(now time.Time) bool {
	return now.Sub(s.timestamp) >= s.ttl
}

// Options tunes a single Detect call. Zero timeout values fall back to the
// resolver's configured defaults.
type Options struct {
	ForceRefresh  bool
	DeviceTimeout time.Duration
	IPTimeout     time.Duration
}

func NewResolver(cfg ResolverConfig) *Resolver {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.DeviceTimeout <= 0 {
		cfg.DeviceTimeout = 5 * time.Second
	}
	if cfg.IPTimeout <= 0 {
		cfg.IPTimeout = 3 * time.Second
	}

	return &Resolver{
		log:     cfg.Logger,
		metrics: cfg.Metrics,
		device:  cfg.Device,
		ip:      cfg.IP,
		geo:     cfg.Geocoder,
		def: Location{
			Latitude:  cfg.DefaultLatitude,
			Longitude: cfg.DefaultLongitude,
			City:      cfg.DefaultCity,
			Country:   cfg.DefaultCountry,
			Source:    SourceDefault,
		},
		cacheTTL:      cfg.CacheTTL,
		deviceTimeout: cfg.DeviceTimeout,
		ipTimeout:     cfg.IPTimeout,
		now:           time.Now,
	}
}

// Detect resolves the current location. A valid cached entry short-circuits
// the chain unless ForceRefresh is set; otherwise the fallback chain runs in
// strict order and always produces a Location, because the default step
// cannot fail. Provider errors are logged, never returned.
func (r *Resolver) Detect(ctx context.Context, opts Options) Location {
	if !opts.ForceRefresh {
		if loc, ok := r.Cached(); ok {
			return loc
		}
	}

	loc := r.resolve(ctx, opts)

	r.mu.Lock()
	r.slot = &slotEntry{location: loc, timestamp: r.now(), ttl: r.cacheTTL}
	r.mu.Unlock()

	r.metrics.Resolutions.WithLabelValues(string(loc.Source)).Inc()
	return loc
}

func (r *Resolver) resolve(ctx context.Context, opts Options) Location {
	loc, err := r.fromDevice(ctx, opts.DeviceTimeout)
	if err == nil {
		return loc
	}
	r.log.InfoContext(ctx, "device position unavailable, falling back to IP",
		"kind", KindOf(err), "error", err)

	loc, err = r.fromIP(ctx, opts.IPTimeout)
	if err == nil {
		return loc
	}
	r.log.InfoContext(ctx, "IP geolocation unavailable, falling back to default",
		"kind", KindOf(err), "error", err)

	return r.fromDefault(ctx)
}

// fromDevice attempts the device position step. The device is never retried
// within one resolution.
func (r *Resolver) fromDevice(ctx context.Context, timeout time.Duration) (Location, error) {
	if r.device == nil {
		return Location{}, &Error{Kind: KindNotSupported, Message: "no device position source configured"}
	}
	if timeout <= 0 {
		timeout = r.deviceTimeout
	}

	posCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pos, err := r.device.Position(posCtx)
	if err != nil {
		return Location{}, err
	}
	if !inRange(pos.Latitude, pos.Longitude) {
		return Location{}, &Error{Kind: KindPositionUnavailable, Message: "device returned out-of-range coordinates"}
	}

	loc := Location{Latitude: pos.Latitude, Longitude: pos.Longitude, Source: SourceGPS}
	if place, ok := r.reverseName(ctx, pos.Latitude, pos.Longitude); ok {
		loc.City, loc.Country = place.City, place.Country
	}
	// Name resolution failure keeps raw coordinates with no name.
	return loc, nil
}

func (r *Resolver) fromIP(ctx context.Context, timeout time.Duration) (Location, error) {
	if timeout <= 0 {
		timeout = r.ipTimeout
	}

	ipCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := r.ip.Locate(ipCtx)
	if err != nil {
		return Location{}, err
	}

	loc := Location{Latitude: res.Latitude, Longitude: res.Longitude, Source: SourceIP}
	if place, ok := r.reverseName(ctx, res.Latitude, res.Longitude); ok {
		loc.City, loc.Country = place.City, place.Country
	} else {
		// Fall back to whatever names the IP provider itself returned.
		loc.City, loc.Country = res.City, res.Country
	}
	return loc, nil
}

func (r *Resolver) fromDefault(ctx context.Context) Location {
	loc := r.def
	if place, ok := r.reverseName(ctx, loc.Latitude, loc.Longitude); ok {
		loc.City, loc.Country = place.City, place.Country
	}
	// On reverse failure the configured default names stay in place.
	return loc
}

// reverseName is the single best-effort enrichment path. Errors and empty
// results are absorbed; they never interrupt the caller's flow.
func (r *Resolver) reverseName(ctx context.Context, lat, lon float64) (geocode.Place, bool) {
	place, err := r.geo.Reverse(ctx, lat, lon)
	if err != nil {
		r.log.DebugContext(ctx, "reverse geocoding failed", "lat", lat, "lon", lon, "error", err)
		return geocode.Place{}, false
	}
	if place.City == "" && place.Country == "" {
		return geocode.Place{}, false
	}
	return place, true
}

// Cached returns the cached location if the slot is present and unexpired.
// An expired slot is cleared as a side effect.
func (r *Resolver) Cached() (Location, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.slot == nil {
		return Location{}, false
	}
	if r.slot.expired(r.now()) {
		r.slot = nil
		return Location{}, false
	}
	return r.slot.location, true
}

// ClearCache drops the cached location unconditionally.
func (r *Resolver) ClearCache() {
	r.mu.Lock()
	r.slot = nil
	r.mu.Unlock()
}

// Permission reports the device permission state, or unsupported when no
// device source is wired.
func (r *Resolver) Permission(ctx context.Context) PermissionState {
	if r.device == nil {
		return PermissionUnsupported
	}
	return r.device.Permission(ctx)
}

// Search resolves a free-text place query via forward geocoding and replaces
// the cached location on success. The result carries manual provenance.
func (r *Resolver) Search(ctx context.Context, query string) (Location, error) {
	point, err := r.geo.Forward(ctx, query)
	if err != nil {
		return Location{}, classifySearchError(err)
	}

	loc := Location{Latitude: point.Latitude, Longitude: point.Longitude, Source: SourceManual}
	if place, ok := r.reverseName(ctx, point.Latitude, point.Longitude); ok {
		loc.City, loc.Country = place.City, place.Country
	}

	r.mu.Lock()
	r.slot = &slotEntry{location: loc, timestamp: r.now(), ttl: r.cacheTTL}
	r.mu.Unlock()

	r.metrics.Resolutions.WithLabelValues(string(loc.Source)).Inc()
	return loc, nil
}

func classifySearchError(err error) error {
	var le *Error
	if errors.As(err, &le) {
		return le
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: "geocoding search timed out", Cause: err}
	}
	if errors.Is(err, geocode.ErrNoResult) {
		return &Error{Kind: KindPositionUnavailable, Message: "no match for search query", Cause: err}
	}
	return &Error{Kind: KindNetworkError, Message: "geocoding search failed", Cause: err}
}
