package stats

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/briangreenhill/steamstats/cache"
	"github.com/briangreenhill/steamstats/internal/domain"
)

// CacheService removes cached profile and Year in Review entries. Resolve
// and deck entries are left alone.
type CacheService struct {
	store cache.Store
	years []int
	log   zerolog.Logger
}

func NewCacheService(store cache.Store, years []int, log zerolog.Logger) *CacheService {
	return &CacheService{store: store, years: years, log: log.With().Str("component", "cache").Logger()}
}

func (s *CacheService) prefixes() []string {
	out := make([]string, 0, len(s.years)+1)
	for _, y := range s.years {
		out = append(out, fmt.Sprintf("%s_%d", YearPrefix, y))
	}
	return append(out, ProfilePrefix)
}

// Clear deletes the entries for steamID, or for every id when steamID is
// empty, and reports how many were removed.
func (s *CacheService) Clear(steamID string) (*domain.ClearResult, error) {
	steamID = strings.TrimSpace(steamID)
	if steamID != "" && !domain.IsSteamID(steamID) {
		return nil, domain.NewError(domain.ErrInvalidInput, "Invalid SteamID.", nil)
	}

	var keys []string
	for _, prefix := range s.prefixes() {
		if steamID != "" {
			keys = append(keys, cache.KeyFor(prefix, steamID))
			continue
		}
		matched, err := s.store.Keys(prefix + "_")
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		keys = append(keys, matched...)
	}

	deleted := 0
	for _, key := range keys {
		ok, err := s.store.Delete(key)
		if err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("cache delete failed")
			continue
		}
		if ok {
			deleted++
		}
	}

	s.log.Info().Str("steamid", steamID).Int("deleted", deleted).Msg("cache cleared")
	return &domain.ClearResult{Envelope: domain.Envelope{OK: true}, Deleted: deleted}, nil
}
