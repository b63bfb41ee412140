package stats

import (
	"context"
	"net/url"
	"time"

	"github.com/briangreenhill/steamstats/cache"
	"github.com/briangreenhill/steamstats/internal/domain"
	"github.com/briangreenhill/steamstats/internal/extract"
	"github.com/briangreenhill/steamstats/internal/upstream"
)

// DefaultCheckMyDeckURL is the deck compatibility list rendered by DeckService.
const DefaultCheckMyDeckURL = "https://checkmydeck.ofdgn.com/users/76561197974617624/lists/185536"

const noDeckData = "No data extracted (likely blocked by Cloudflare)."

type DeckConfig struct {
	URL         string
	TTL         time.Duration
	CFClearance string
}

// DeckService serves the CheckMyDeck compatibility summary. The page sits
// behind an anti-bot challenge, so it is loaded in a headless browser.
type DeckService struct {
	base
	render upstream.Renderer
	cfg    DeckConfig
}

// NewDeckService builds the service. render may be nil when no browser is
// available; Get then reports domain.ErrCapabilityMissing.
func NewDeckService(store cache.Store, render upstream.Renderer, cfg DeckConfig, opts ...Option) *DeckService {
	if cfg.URL == "" {
		cfg.URL = DefaultCheckMyDeckURL
	}
	return &DeckService{base: newBase(store, "checkmydeck", opts), render: render, cfg: cfg}
}

// Get returns the cached summary when fresh, otherwise renders the list.
// A render that yields no recognisable labels is returned with a note and
// left uncached.
func (s *DeckService) Get(ctx context.Context) (*domain.DeckStatus, error) {
	var hit domain.DeckStatus
	if s.cached(DeckKey, s.cfg.TTL, &hit) {
		return &hit, nil
	}
	if s.render == nil {
		return nil, domain.NewError(domain.ErrCapabilityMissing, "CheckMyDeck fetch script is missing.", nil)
	}

	return live(ctx, &s.base, DeckKey, func(ctx context.Context) (*domain.DeckStatus, error) {
		text, err := s.render.Render(ctx, s.cfg.URL, upstream.RenderOptions{
			ClearanceCookie: s.cfg.CFClearance,
			CookieDomain:    cookieDomain(s.cfg.URL),
		})
		if err != nil {
			s.log.Error().Err(err).Str("source", s.cfg.URL).Msg("render failed")
			return nil, domain.NewError(domain.ErrTransport, "Failed to refresh CheckMyDeck data.", err)
		}

		st, matched := extract.DeckStatus(text)
		st.OK = true
		st.FetchedAt = s.now().Unix()
		st.Source = s.cfg.URL
		if matched == 0 {
			s.log.Warn().Str("source", s.cfg.URL).Msg("no deck data extracted")
			st.Note = noDeckData
			return st, nil
		}

		s.save(DeckKey, st.FetchedAt, st)
		s.log.Info().Int("labels", matched).Msg("deck status refreshed")
		return st, nil
	})
}

func cookieDomain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
