package stats

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/briangreenhill/steamstats/cache"
	"github.com/briangreenhill/steamstats/internal/domain"
	"github.com/briangreenhill/steamstats/internal/extract"
	"github.com/briangreenhill/steamstats/internal/upstream"
)

// ResolveService maps vanity names to steamids.
type ResolveService struct {
	base
	fetch upstream.Fetcher
	ttl   time.Duration
}

func NewResolveService(store cache.Store, fetch upstream.Fetcher, ttl time.Duration, opts ...Option) *ResolveService {
	return &ResolveService{base: newBase(store, "resolve", opts), fetch: fetch, ttl: ttl}
}

// Resolve looks up vanity. Invalid names are rejected before any cache or
// network access.
func (s *ResolveService) Resolve(ctx context.Context, vanity string) (*domain.Identity, error) {
	vanity = strings.TrimSpace(vanity)
	if vanity == "" || !domain.IsVanity(vanity) {
		return nil, domain.NewError(domain.ErrInvalidInput, "Invalid vanity name.", nil)
	}
	key := cache.KeyFor(ResolvePrefix, vanity)

	var hit domain.Identity
	if s.cached(key, s.ttl, &hit) {
		return &hit, nil
	}

	src := communityBase + "/id/" + url.PathEscape(vanity) + "/"
	return live(ctx, &s.base, key, func(ctx context.Context) (*domain.Identity, error) {
		res, err := s.fetch.Fetch(ctx, src, upstream.FetchOptions{})
		if err != nil {
			s.log.Warn().Err(err).Str("source", src).Msg("resolve fetch failed")
			return nil, fetchFailure(err, "Failed to fetch Steam community profile.")
		}

		id, err := extract.Identity(res.Body)
		if err != nil {
			s.log.Info().Str("vanity", vanity).Msg("vanity not found")
			return nil, err
		}
		id.OK = true
		id.FetchedAt = s.now().Unix()
		id.Source = src
		id.Vanity = vanity

		s.save(key, id.FetchedAt, id)
		s.log.Info().Str("vanity", vanity).Str("steamid", id.SteamID).Msg("vanity resolved")
		return id, nil
	})
}
