package stats

import (
	"context"
	"time"

	"github.com/briangreenhill/steamstats/cache"
	"github.com/briangreenhill/steamstats/internal/domain"
	"github.com/briangreenhill/steamstats/internal/extract"
	"github.com/briangreenhill/steamstats/internal/upstream"
)

const communityBase = "https://steamcommunity.com"

type ProfileConfig struct {
	TTL           time.Duration
	DefaultVanity string
	AgeSuffix     string
}

// ProfileService serves scraped Steam community profiles.
type ProfileService struct {
	base
	fetch upstream.Fetcher
	cfg   ProfileConfig
}

func NewProfileService(store cache.Store, fetch upstream.Fetcher, cfg ProfileConfig, opts ...Option) *ProfileService {
	return &ProfileService{base: newBase(store, "profile", opts), fetch: fetch, cfg: cfg}
}

// ProfileURL is the page scraped for steamID. Anything but a 17-digit id
// falls back to the default vanity profile.
func (s *ProfileService) ProfileURL(steamID string) string {
	if domain.IsSteamID(steamID) {
		return communityBase + "/profiles/" + steamID + "/"
	}
	return communityBase + "/id/" + s.cfg.DefaultVanity + "/"
}

// Get returns the profile for steamID, from cache when fresh.
func (s *ProfileService) Get(ctx context.Context, steamID string) (*domain.Profile, error) {
	suffix := "vanity"
	if domain.IsSteamID(steamID) {
		suffix = steamID
	} else {
		steamID = ""
	}
	key := cache.KeyFor(ProfilePrefix, suffix)

	var hit domain.Profile
	if s.cached(key, s.cfg.TTL, &hit) {
		return &hit, nil
	}

	url := s.ProfileURL(steamID)
	return live(ctx, &s.base, key, func(ctx context.Context) (*domain.Profile, error) {
		res, err := s.fetch.Fetch(ctx, url, upstream.FetchOptions{})
		if err != nil {
			s.log.Warn().Err(err).Str("source", url).Msg("profile fetch failed")
			return nil, fetchFailure(err, "Failed to fetch Steam community profile.")
		}

		now := s.now()
		p, err := extract.Profile(res.Body, extract.ProfileOptions{
			SteamID:   steamID,
			Now:       now,
			AgeSuffix: s.cfg.AgeSuffix,
		})
		if err != nil {
			return nil, err
		}
		p.OK = true
		p.FetchedAt = now.Unix()
		p.Source = url

		s.save(key, p.FetchedAt, p)
		s.log.Info().Str("key", key).Str("source", url).Str("steamid", p.SteamID).Msg("profile refreshed")
		return p, nil
	})
}
