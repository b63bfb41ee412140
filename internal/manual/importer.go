package manual

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/briangreenhill/steamstats/internal/domain"
	"github.com/briangreenhill/steamstats/internal/extract"
)

// Source is recorded on every imported record.
const Source = "manual-import"

// Importer turns a saved Year in Review page into an override record.
type Importer struct {
	store *Store
	now   func() time.Time
	log   zerolog.Logger
}

type ImporterOption func(*Importer)

func WithClock(now func() time.Time) ImporterOption {
	return func(i *Importer) { i.now = now }
}

func WithLogger(l zerolog.Logger) ImporterOption {
	return func(i *Importer) { i.log = l }
}

func NewImporter(store *Store, opts ...ImporterOption) *Importer {
	i := &Importer{store: store, now: time.Now, log: zerolog.Nop()}
	for _, fn := range opts {
		fn(i)
	}
	return i
}

// Import extracts the year's summary from page, which may be a raw HTML
// save or an MHTML capture, and writes it as the override for steamID.
func (i *Importer) Import(page []byte, year int, steamID string) (*domain.YearInReview, string, error) {
	if !domain.IsSteamID(steamID) {
		return nil, "", domain.NewError(domain.ErrInvalidInput, "Invalid SteamID.", nil)
	}
	if year < 2000 || year > 2100 {
		return nil, "", domain.NewError(domain.ErrInvalidInput, "Invalid year.", nil)
	}

	page = extract.CleanCapture(page)
	if extract.IsEmptySummary(page, year) {
		return nil, "", domain.NewError(domain.ErrExtraction, "Invalid Year in Review payload.", nil)
	}
	rec, err := extract.YearInReview(page, year)
	if err != nil {
		return nil, "", err
	}

	rec.OK = true
	rec.FetchedAt = i.now().Unix()
	rec.Source = Source

	path, err := i.store.Write(year, steamID, rec)
	if err != nil {
		return nil, "", err
	}
	i.log.Info().
		Int("year", year).
		Str("steamid", steamID).
		Str("path", path).
		Int("games_played", rec.GamesPlayed).
		Msg("imported year in review")
	return rec, path, nil
}
