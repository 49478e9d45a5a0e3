// Package cache provides a bounded-TTL in-memory key/value store shared by
// the market and news aggregation services.
package cache

import (
	"fmt"
	"sync"
	"time"
)

// DefaultTTL is the entry lifetime used when Set is called with ttl <= 0.
const DefaultTTL = 5 * time.Minute

// DefaultSweepInterval is how often the background sweep evicts expired
// entries. Lookups also evict lazily; the sweep exists to bound memory for
// keys that are never read again.
const DefaultSweepInterval = time.Minute

type item struct {
	value    any
	expireAt time.Time
}

func (i item) expired(now time.Time) bool {
	return now.After(i.expireAt)
}

// Cache is a TTL key/value store. It is safe for concurrent use; the
// aggregation services share one instance per process.
type Cache struct {
	mu      sync.RWMutex
	items   map[string]item
	ttl     time.Duration
	ticker  *time.Ticker
	done    chan struct{}
	closing sync.Once
}

// Option configures the cache.
type Option func(*options)

type options struct {
	ttl   time.Duration
	sweep time.Duration
}

// WithTTL sets the default entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithSweepInterval sets the expired-entry sweep cadence.
func WithSweepInterval(interval time.Duration) Option {
	return func(o *options) {
		if interval > 0 {
			o.sweep = interval
		}
	}
}

// New creates a cache and starts its sweep goroutine.
func New(opts ...Option) *Cache {
	cfg := &options{
		ttl:   DefaultTTL,
		sweep: DefaultSweepInterval,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	c := &Cache{
		items:  make(map[string]item),
		ttl:    cfg.ttl,
		ticker: time.NewTicker(cfg.sweep),
		done:   make(chan struct{}),
	}

	go c.sweep()
	return c
}

// Get returns the value for key. Expired entries are removed and reported
// as a miss.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if it.expired(time.Now()) {
		c.mu.Lock()
		// Re-check under the write lock; another writer may have replaced it.
		if cur, ok := c.items[key]; ok && cur.expired(time.Now()) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return it.value, true
}

// Set stores value under key for ttl. ttl <= 0 uses the cache default.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	c.mu.Lock()
	c.items[key] = item{value: value, expireAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

// Delete removes keys from the cache.
func (c *Cache) Delete(keys ...string) {
	c.mu.Lock()
	for _, key := range keys {
		delete(c.items, key)
	}
	c.mu.Unlock()
}

// Len returns the number of entries, including not-yet-swept expired ones.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// DefaultTTL returns the configured default entry lifetime.
func (c *Cache) DefaultTTL() time.Duration {
	return c.ttl
}

// sweep periodically removes expired entries.
func (c *Cache) sweep() {
	for {
		select {
		case <-c.done:
			return
		case <-c.ticker.C:
			now := time.Now()
			c.mu.Lock()
			for key, it := range c.items {
				if it.expired(now) {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// Close stops the sweep goroutine.
func (c *Cache) Close() {
	c.closing.Do(func() {
		c.ticker.Stop()
		close(c.done)
	})
}

// QuoteKey builds the cache key for a single quote lookup.
func QuoteKey(name string) string {
	return fmt.Sprintf("price_%s", name)
}

// SeriesKey builds the cache key for a historical series lookup.
func SeriesKey(name, timeframe, chartType string) string {
	return fmt.Sprintf("chart_%s_%s_%s", name, timeframe, chartType)
}

// NewsKey builds the cache key for a news lookup.
func NewsKey(name string) string {
	return fmt.Sprintf("news_%s", name)
}

// BulkKey is the cache key for the all-commodities listing.
const BulkKey = "commodities_all"
