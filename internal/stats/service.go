// Package stats holds the endpoint services. Each one checks the cache,
// fetches the upstream page when the entry is missing or expired, extracts
// a record and writes it back before returning it.
package stats

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/briangreenhill/steamstats/cache"
	"github.com/briangreenhill/steamstats/internal/domain"
)

// Cache key prefixes. Clear relies on these.
const (
	ProfilePrefix = "steam_profile_cache"
	YearPrefix    = "yir"
	ResolvePrefix = "resolve"
	DeckKey       = "checkmydeck"
)

// Option configures the ambient dependencies shared by every service.
type Option func(*base)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(b *base) { b.log = l }
}

// WithSingleFlight collapses concurrent live fetches for the same cache key
// into one upstream request.
func WithSingleFlight() Option {
	return func(b *base) { b.group = &singleflight.Group{} }
}

type base struct {
	store cache.Store
	now   func() time.Time
	log   zerolog.Logger
	group *singleflight.Group
}

func newBase(store cache.Store, component string, opts []Option) base {
	b := base{store: store, now: time.Now, log: zerolog.Nop()}
	for _, fn := range opts {
		fn(&b)
	}
	b.log = b.log.With().Str("component", component).Logger()
	return b
}

// cached decodes a fresh entry under key into out. Absent, expired and
// undecodable entries all report false.
func (b *base) cached(key string, ttl time.Duration, out any) bool {
	entry, err := cache.Load(b.store, key, out)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheNotFound) {
			b.log.Warn().Err(err).Str("key", key).Msg("discarding unreadable cache entry")
		}
		return false
	}
	if !cache.IsFresh(entry, ttl, b.now()) {
		return false
	}
	b.log.Debug().Str("key", key).Msg("cache hit")
	return true
}

func (b *base) save(key string, fetchedAt int64, record any) {
	if err := cache.Save(b.store, key, fetchedAt, record); err != nil {
		b.log.Error().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// live runs fn detached from the caller's cancellation so a disconnecting
// client does not abort a fetch whose result will be cached. With single
// flight enabled, concurrent callers for key share one run.
func live[T any](ctx context.Context, b *base, key string, fn func(context.Context) (T, error)) (T, error) {
	ctx = context.WithoutCancel(ctx)
	if b.group == nil {
		return fn(ctx)
	}
	v, err, shared := b.group.Do(key, func() (any, error) {
		return fn(ctx)
	})
	if shared {
		b.log.Debug().Str("key", key).Msg("joined in-flight fetch")
	}
	out, _ := v.(T)
	return out, err
}

// fetchFailure keeps the transport's own message when it has one.
func fetchFailure(err error, fallback string) error {
	var de *domain.Error
	if errors.As(err, &de) && de.Err != nil && de.Err.Error() != "" {
		return domain.NewError(domain.ErrTransport, de.Err.Error(), err)
	}
	return domain.NewError(domain.ErrTransport, fallback, err)
}
