package stats

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/briangreenhill/steamstats/internal/domain"
	"github.com/briangreenhill/steamstats/internal/upstream"
)

// DefaultSteamHuntersURL is the tracker page probed by TrackerService.
const DefaultSteamHuntersURL = "https://steamhunters.com/id/pouark/games"

// TrackerService reports whether the SteamHunters page is reachable. It
// does not parse or cache the page.
type TrackerService struct {
	fetch upstream.Fetcher
	url   string
	log   zerolog.Logger
}

func NewTrackerService(fetch upstream.Fetcher, url string, log zerolog.Logger) *TrackerService {
	if url == "" {
		url = DefaultSteamHuntersURL
	}
	return &TrackerService{fetch: fetch, url: url, log: log.With().Str("component", "steamhunters").Logger()}
}

// Status probes the tracker. On failure the returned record is still
// populated with the upstream status and source alongside the error.
func (s *TrackerService) Status(ctx context.Context) (*domain.TrackerStatus, error) {
	rec := &domain.TrackerStatus{Envelope: domain.Envelope{Source: s.url}}

	res, err := s.fetch.Fetch(context.WithoutCancel(ctx), s.url, upstream.FetchOptions{})
	if res != nil {
		rec.Status = res.Status
	}
	if err == nil && res.Status >= http.StatusBadRequest {
		err = domain.NewError(domain.ErrTransport, "upstream status", nil)
	}
	if err != nil {
		err = fetchFailure(err, "Request blocked (likely Cloudflare).")
		rec.Error = domain.Message(err)
		s.log.Warn().Err(err).Int("status", rec.Status).Str("source", s.url).Msg("tracker unreachable")
		return rec, err
	}

	rec.OK = true
	rec.Note = "Fetched successfully (no parsing implemented)."
	return rec, nil
}
