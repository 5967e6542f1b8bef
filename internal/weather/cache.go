package weather

import (
	"container/list"
	"fmt"
	"sync"
	"time"
)

// Key builds the cache key by rounding coordinates to 4 decimal places
// (~11 m resolution), so nearby lookups share an entry.
func Key(lat, lon float64) string {
	return fmt.Sprintf("%.4f,%.4f", lat, lon)
}

// Stats is a read-only snapshot of the cache configuration and fill level.
type Stats struct {
	Size       int           `json:"size"`
	MaxEntries int           `json:"max_entries"`
	TTL        time.Duration `json:"ttl"`
	Enabled    bool          `json:"enabled"`
}

// Cache is a bounded LRU+TTL store for forecast payloads, keyed by rounded
// coordinates. Recency is by access: both reads and writes promote an entry.
// Expired entries are logically absent but only physically removed when the
// next Get or Has touches them (lazy expiry, no background sweeper).
//
// The cache is mutex-guarded because fiber serves requests concurrently.
type Cache struct {
	mu         sync.Mutex
	ll         *list.List // front = most recently used
	index      map[string]*list.Element
	maxEntries int
	ttl        time.Duration
	enabled    bool

	now func() time.Time
}

type cacheEntry struct {
	key       string
	forecast  Forecast
	expiresAt time.Time
}

// NewCache creates a cache with the given bounds. Non-positive maxEntries
// defaults to 10 and non-positive ttl to 10 minutes.
func NewCache(maxEntries int, ttl time.Duration, enabled bool) *Cache {
	if maxEntries <= 0 {
		maxEntries = 10
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cache{
		ll:         list.New(),
		index:      make(map[string]*list.Element),
		maxEntries: maxEntries,
		ttl:        ttl,
		enabled:    enabled,
		now:        time.Now,
	}
}

// Get returns a copy of the cached forecast for the rounded coordinates, with
// its provenance overwritten to SourceCache; the stored payload keeps its
// original provenance. A hit promotes the entry to most recently used. When
// the cache is disabled, Get always misses without touching storage.
func (c *Cache) Get(lat, lon float64) (*Forecast, bool) {
	if !c.enabled {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[Key(lat, lon)]
	if !ok {
		return nil, false
	}

	ent := el.Value.(*cacheEntry)
	if !ent.expiresAt.After(c.now()) {
		c.remove(el, ent)
		return nil, false
	}

	c.ll.MoveToFront(el)

	cp := ent.forecast
	cp.Source = SourceCache
	return &cp, true
}

// Set stores a forecast under the rounded coordinate key. Inserting a new key
// at capacity evicts exactly the least-recently-used entry first; overwriting
// an existing key updates the value and promotes it. Disabled caches store
// nothing, so a later enable never sees retroactive entries.
func (c *Cache) Set(lat, lon float64, f Forecast) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := Key(lat, lon)
	if el, ok := c.index[key]; ok {
		ent := el.Value.(*cacheEntry)
		ent.forecast = f
		ent.expiresAt = c.now().Add(c.ttl)
		c.ll.MoveToFront(el)
		return
	}

	if c.ll.Len() >= c.maxEntries {
		if back := c.ll.Back(); back != nil {
			c.remove(back, back.Value.(*cacheEntry))
		}
	}

	el := c.ll.PushFront(&cacheEntry{
		key:       key,
		forecast:  f,
		expiresAt: c.now().Add(c.ttl),
	})
	c.index[key] = el
}

// Has reports whether a live entry exists for the coordinates. Expired
// entries are removed as a side effect, like Get, but a hit does not promote
// the entry.
func (c *Cache) Has(lat, lon float64) bool {
	if !c.enabled {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[Key(lat, lon)]
	if !ok {
		return false
	}

	ent := el.Value.(*cacheEntry)
	if !ent.expiresAt.After(c.now()) {
		c.remove(el, ent)
		return false
	}
	return true
}

// Clear drops all entries unconditionally, regardless of the enabled flag.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ll.Init()
	c.index = make(map[string]*list.Element)
}

// Stats returns a read-only snapshot; it has no side effects on entries.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Size:       c.ll.Len(),
		MaxEntries: c.maxEntries,
		TTL:        c.ttl,
		Enabled:    c.enabled,
	}
}

// remove must be called with the mutex held.
func (c *Cache) remove(el *list.Element, ent *cacheEntry) {
	c.ll.Remove(el)
	delete(c.index, ent.key)
}
