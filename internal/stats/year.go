package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/briangreenhill/steamstats/cache"
	"github.com/briangreenhill/steamstats/internal/domain"
	"github.com/briangreenhill/steamstats/internal/extract"
	"github.com/briangreenhill/steamstats/internal/upstream"
)

const storeBase = "https://store.steampowered.com"

// ManualSource supplies hand-imported records that take precedence over
// live data.
type ManualSource interface {
	Lookup(year int, steamID string) (*domain.YearInReview, bool)
}

type YearConfig struct {
	Year           int
	TTL            time.Duration
	DefaultSteamID string
	// Cookie is forwarded to the store so private summaries are visible.
	Cookie string
}

// YearService serves one year of Steam Year in Review.
type YearService struct {
	base
	fetch  upstream.Fetcher
	manual ManualSource
	cfg    YearConfig
}

// NewYearService builds the service for cfg.Year. manual may be nil.
func NewYearService(store cache.Store, fetch upstream.Fetcher, manual ManualSource, cfg YearConfig, opts ...Option) *YearService {
	return &YearService{
		base:   newBase(store, fmt.Sprintf("yir_%d", cfg.Year), opts),
		fetch:  fetch,
		manual: manual,
		cfg:    cfg,
	}
}

func (s *YearService) Year() int { return s.cfg.Year }

func (s *YearService) resolveID(steamID string) string {
	if domain.IsSteamID(steamID) {
		return steamID
	}
	return s.cfg.DefaultSteamID
}

// URL is the Year in Review page for steamID.
func (s *YearService) URL(steamID string) string {
	return fmt.Sprintf("%s/yearinreview/%s/%d", storeBase, s.resolveID(steamID), s.cfg.Year)
}

// Key is the cache key for steamID.
func (s *YearService) Key(steamID string) string {
	return cache.KeyFor(fmt.Sprintf("%s_%d", YearPrefix, s.cfg.Year), s.resolveID(steamID))
}

// Get returns the year's summary. A manual override wins over everything.
// When the live fetch or extraction fails, a previously cached record is
// served with Stale set.
func (s *YearService) Get(ctx context.Context, steamID string) (*domain.YearInReview, error) {
	steamID = s.resolveID(steamID)
	url := s.URL(steamID)

	if s.manual != nil {
		if rec, ok := s.manual.Lookup(s.cfg.Year, steamID); ok {
			rec.OK = true
			rec.Manual = true
			if rec.Source == "" {
				rec.Source = url
			}
			s.log.Debug().Str("steamid", steamID).Msg("serving manual override")
			return rec, nil
		}
	}

	key := s.Key(steamID)
	stale, entry := s.staleCopy(key)
	if stale != nil && cache.IsFresh(entry, s.cfg.TTL, s.now()) {
		s.log.Debug().Str("key", key).Msg("cache hit")
		return stale, nil
	}

	rec, err := live(ctx, &s.base, key, func(ctx context.Context) (*domain.YearInReview, error) {
		return s.refresh(ctx, key, url)
	})
	if err == nil {
		return rec, nil
	}
	if stale != nil && domain.IsUpstreamFailure(err) {
		s.log.Warn().Err(err).Str("key", key).Msg("serving stale year in review")
		stale.Stale = true
		return stale, nil
	}
	return nil, err
}

// staleCopy returns the cached record for key when it holds a timeline,
// regardless of age.
func (s *YearService) staleCopy(key string) (*domain.YearInReview, *cache.Entry) {
	var rec domain.YearInReview
	entry, err := cache.Load(s.store, key, &rec)
	if err != nil || rec.Timeline == nil {
		return nil, nil
	}
	return &rec, entry
}

func (s *YearService) refresh(ctx context.Context, key, url string) (*domain.YearInReview, error) {
	res, err := s.fetch.Fetch(ctx, url, upstream.FetchOptions{Cookie: s.cfg.Cookie})
	if err != nil {
		s.log.Warn().Err(err).Str("source", url).Msg("year in review fetch failed")
		return nil, fetchFailure(err, "Failed to fetch Steam Year in Review.")
	}

	rec, err := extract.YearInReview(res.Body, s.cfg.Year)
	if err != nil {
		s.log.Warn().Err(err).Str("source", url).Msg("year in review extraction failed")
		return nil, err
	}
	rec.OK = true
	rec.FetchedAt = s.now().Unix()
	rec.Source = url

	s.save(key, rec.FetchedAt, rec)
	s.log.Info().Str("key", key).Str("source", url).Int("games_played", rec.GamesPlayed).Msg("year in review refreshed")
	return rec, nil
}
