// Package service provides the core business service that implements
// the dependencies required by the HTTP handlers.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/dingerzone/internal/adapters/cache"
	"github.com/okian/dingerzone/internal/adapters/upstream"
	"github.com/okian/dingerzone/internal/domain/share"
	"github.com/okian/dingerzone/pkg/logger"
	"github.com/okian/dingerzone/pkg/metrics"
)

// ErrNotStarted is returned by lookups made before Start.
var ErrNotStarted = errors.New("service not started")

// Service resolves share links for the site and API handlers.
type Service struct {
	mu sync.RWMutex

	// Core components
	fetcher cache.Fetcher
	cache   *cache.Cache

	// Configuration
	cacheTTL     time.Duration
	cacheSize    int
	cacheCleanup time.Duration
	now          func() time.Time

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFetcher sets the source of share records, normally an upstream.Client.
func WithFetcher(f cache.Fetcher) Option {
	return func(s *Service) {
		if f != nil {
			s.fetcher = f
		}
	}
}

// WithCacheTTL sets how long lookups are cached. Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl >= 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithCacheSize bounds the number of cached records.
func WithCacheSize(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.cacheSize = n
		}
	}
}

// WithCacheCleanup sets how often expired cache entries are purged.
func WithCacheCleanup(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.cacheCleanup = d
		}
	}
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		cacheTTL:     cache.DefaultTTL,
		cacheSize:    cache.DefaultMaxEntries,
		cacheCleanup: cache.DefaultCleanupInterval,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting share service...")

	if s.fetcher == nil {
		// Lookups then fail with a configuration error instead of a nil call.
		s.fetcher = upstream.New("")
	}
	if c, ok := s.fetcher.(interface{ Configured() bool }); ok && !c.Configured() {
		s.logger.Warn(ctx, "share API base URL is not set; shared video pages will show a configuration error")
	}

	s.cache = cache.New(s.fetcher,
		cache.WithTTL(s.cacheTTL),
		cache.WithMaxEntries(s.cacheSize),
		cache.WithCleanupInterval(s.cacheCleanup),
		cache.WithClock(s.now),
	)

	s.started = true
	s.logger.Info(ctx, "share service started",
		logger.Int("cacheTTLms", int(s.cacheTTL.Milliseconds())),
		logger.Int("cacheSize", s.cacheSize),
	)

	return nil
}

// Stop releases the cache. It is safe to call more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping share service...")

	if s.cache != nil {
		s.cache.Close()
		s.cache = nil
	}

	s.started = false
	s.logger.Info(context.Background(), "share service stopped")
}

// SharedVideo resolves the raw path segment of a share link.
// Expired links yield share.ErrExpired even when the API still serves them.
func (s *Service) SharedVideo(ctx context.Context, rawID string) (share.Details, error) {
	id, err := share.ParseID(rawID)
	if err != nil {
		s.fail(ctx, rawID, err)
		return share.Details{}, err
	}

	s.mu.RLock()
	c := s.cache
	s.mu.RUnlock()
	if c == nil {
		return share.Details{}, ErrNotStarted
	}

	d, err := c.Get(ctx, id)
	if err != nil {
		s.fail(ctx, rawID, err)
		return share.Details{}, err
	}
	if d.Expired(s.now()) {
		err = fmt.Errorf("share %s: %w", id, share.ErrExpired)
		s.fail(ctx, rawID, err)
		return share.Details{}, err
	}
	return d, nil
}

func (s *Service) fail(ctx context.Context, rawID string, err error) {
	kind := upstream.Classify(err)
	metrics.RecordShareError(string(kind))
	if s.logger == nil {
		return
	}
	fields := []logger.Field{
		logger.String("share_id", rawID),
		logger.String("kind", string(kind)),
		logger.Error(err),
	}
	switch kind {
	case upstream.KindMissingID, upstream.KindInvalidID, upstream.KindExpired, upstream.KindCanceled:
		s.logger.Debug(ctx, "shared video lookup rejected", fields...)
	default:
		s.logger.Warn(ctx, "shared video lookup failed", fields...)
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":    s.started,
		"cacheTTLms": s.cacheTTL.Milliseconds(),
		"cacheSize":  s.cacheSize,
	}
	if c, ok := s.fetcher.(interface{ Configured() bool }); ok {
		stats["upstreamConfigured"] = c.Configured()
	}

	if s.started {
		cs := s.cache.Stats()
		stats["cacheEntries"] = cs.Entries
		stats["cacheHits"] = cs.Hits
		stats["cacheMisses"] = cs.Misses
		stats["cacheCoalesced"] = cs.Coalesced
		stats["cacheRejected"] = cs.Rejected

		metrics.UpdateCacheSize(cs.Entries)
	}

	return stats
}
