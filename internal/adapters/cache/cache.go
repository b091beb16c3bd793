// Package cache keeps recent share lookups in memory and collapses
// concurrent lookups of the same id into one remote call.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/okian/dingerzone/internal/domain/share"
	"github.com/okian/dingerzone/pkg/metrics"
)

// Defaults.
const (
	DefaultTTL             = time.Minute
	DefaultMaxEntries      = 1000
	DefaultCleanupInterval = 5 * time.Minute
)

// Fetcher loads a share record from its source of truth.
type Fetcher interface {
	SharedVideoDetails(ctx context.Context, id share.ID) (share.Details, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, id share.ID) (share.Details, error)

// SharedVideoDetails calls f.
func (f FetcherFunc) SharedVideoDetails(ctx context.Context, id share.ID) (share.Details, error) {
	return f(ctx, id)
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Entries   int   `json:"entries"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Coalesced int64 `json:"coalesced"`
	Rejected  int64 `json:"rejected"`
}

// Cache is a read-through cache in front of a Fetcher.
type Cache struct {
	fetcher Fetcher
	items   *gocache.Cache
	group   singleflight.Group

	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration
	now             func() time.Time

	hits      atomic.Int64
	misses    atomic.Int64
	coalesced atomic.Int64
	rejected  atomic.Int64

	done      chan struct{}
	closeOnce sync.Once
}

// New creates a cache in front of f. A TTL of zero or less disables storage
// while still coalescing concurrent lookups. Callers must Close the cache to
// stop its cleanup goroutine.
func New(f Fetcher, opts ...Option) *Cache {
	c := &Cache{
		fetcher:         f,
		ttl:             DefaultTTL,
		maxEntries:      DefaultMaxEntries,
		cleanupInterval: DefaultCleanupInterval,
		now:             time.Now,
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	// go-cache's own janitor can only be stopped by a finalizer, so cleanup
	// runs on a ticker owned by this cache instead.
	items := gocache.New(c.ttl, 0)
	items.OnEvicted(func(string, interface{}) {
		metrics.UpdateCacheSize(items.ItemCount())
	})
	c.items = items

	if c.ttl > 0 {
		go c.janitor()
	}
	return c
}

func (c *Cache) janitor() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.items.DeleteExpired()
		}
	}
}

// Close stops the cleanup goroutine and empties the cache. It is safe to
// call more than once.
func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.Flush()
	})
}

// Get returns the record for id, from memory when fresh.
// The shared fetch is detached from ctx so that one caller giving up does
// not fail the others; ctx still bounds how long this caller waits.
func (c *Cache) Get(ctx context.Context, id share.ID) (share.Details, error) {
	key := id.String()
	if v, ok := c.items.Get(key); ok {
		c.hits.Add(1)
		metrics.RecordCacheHit()
		return v.(share.Details), nil
	}
	c.misses.Add(1)
	metrics.RecordCacheMiss()

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		d, err := c.fetcher.SharedVideoDetails(fetchCtx, id)
		if err != nil {
			return nil, err
		}
		c.store(key, d)
		return d, nil
	})

	select {
	case <-ctx.Done():
		return share.Details{}, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.coalesced.Add(1)
			metrics.RecordCacheCoalesced()
		}
		if res.Err != nil {
			return share.Details{}, res.Err
		}
		return res.Val.(share.Details), nil
	}
}

func (c *Cache) store(key string, d share.Details) {
	if c.ttl <= 0 {
		return
	}
	ttl := c.ttl
	if exp, ok := d.Expires(); ok {
		left := exp.Sub(c.now())
		if left <= 0 {
			return
		}
		if left < ttl {
			ttl = left
		}
	}
	if _, found := c.items.Get(key); !found && c.full() {
		c.rejected.Add(1)
		return
	}
	c.items.Set(key, d, ttl)
	metrics.UpdateCacheSize(c.items.ItemCount())
}

// full reports whether the size cap is reached after dropping expired
// entries that the janitor has not purged yet.
func (c *Cache) full() bool {
	if c.maxEntries <= 0 {
		return false
	}
	if c.items.ItemCount() < c.maxEntries {
		return false
	}
	c.items.DeleteExpired()
	return c.items.ItemCount() >= c.maxEntries
}

// Invalidate drops id from the cache.
func (c *Cache) Invalidate(id share.ID) {
	c.items.Delete(id.String())
}

// Flush empties the cache.
func (c *Cache) Flush() {
	c.items.Flush()
	metrics.UpdateCacheSize(0)
}

// Len returns the number of stored entries, including expired ones not yet
// cleaned up.
func (c *Cache) Len() int { return c.items.ItemCount() }

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Entries:   c.items.ItemCount(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Coalesced: c.coalesced.Load(),
		Rejected:  c.rejected.Load(),
	}
}
