package cache

import "time"

// Option applies a configuration option to the Cache.
type Option func(*Cache)

// WithTTL sets how long a record is kept. Zero or less disables storage.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithMaxEntries bounds the number of stored records. Zero or less means
// unbounded.
func WithMaxEntries(n int) Option {
	return func(c *Cache) {
		c.maxEntries = n
	}
}

// WithCleanupInterval sets how often expired entries are purged.
func WithCleanupInterval(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.cleanupInterval = d
		}
	}
}

// WithClock overrides the time source used for expiration capping.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}
