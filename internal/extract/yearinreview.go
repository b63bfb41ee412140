// Package extract turns fetched pages into typed records. Each extractor
// owns the patterns for one upstream page; nothing here performs I/O.
package extract

import (
	"bytes"
	"fmt"
	"math"
	"regexp"
	"sort"

	"github.com/tidwall/gjson"
	"golang.org/x/net/html"

	"github.com/briangreenhill/steamstats/internal/domain"
)

var (
	qpSoftBreak = regexp.MustCompile(`=\r?\n`)
	qpEquals    = []byte("=3D")
)

// CleanCapture undoes the quoted-printable artifacts of a page saved as
// MHTML: soft line breaks are joined and "=3D" becomes "=".
func CleanCapture(page []byte) []byte {
	out := qpSoftBreak.ReplaceAll(page, nil)
	return bytes.ReplaceAll(out, qpEquals, []byte("="))
}

func summaryPattern(year int) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`data-yearinreview_\d+_%d="([^"]+)"`, year))
}

func previousSummaryPattern(year int) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`data-yearinreview_%d_previous_year_summary="([^"]+)"`, year))
}

// findAttr returns the entity-decoded value of the first attribute matched by re.
func findAttr(page []byte, re *regexp.Regexp) (string, bool) {
	m := re.FindSubmatch(page)
	if m == nil {
		return "", false
	}
	return html.UnescapeString(string(m[1])), true
}

// YearInReview extracts the summary for year from a Year in Review page.
// A page carrying an empty payload yields a record with zero counts and an
// empty timeline.
func YearInReview(page []byte, year int) (*domain.YearInReview, error) {
	raw, ok := findAttr(page, summaryPattern(year))
	if !ok {
		return nil, domain.NewError(domain.ErrExtraction, "Year in Review data not found.", nil)
	}
	if !gjson.Valid(raw) {
		return nil, domain.NewError(domain.ErrExtraction, "Invalid Year in Review payload.", nil)
	}

	summary := gjson.Parse(raw)
	rec := &domain.YearInReview{Year: year, Timeline: []domain.MonthEntry{}}
	if isEmptyPayload(summary) {
		return rec, nil
	}

	stats := summary.Get("playtime_stats")
	if !summary.IsObject() || !stats.Exists() {
		return nil, domain.NewError(domain.ErrExtraction, "Invalid Year in Review payload.", nil)
	}

	stats.Get("game_summary").ForEach(func(_, game gjson.Result) bool {
		if !game.IsObject() || game.Get("demo").Int() == 1 || game.Get("playtest").Int() == 1 {
			return true
		}
		rec.GamesPlayed++
		if game.Get("new_this_year").Int() == 1 {
			rec.NewGames++
		}
		return true
	})

	if previous := previousGamesPlayed(page, year); previous != 0 {
		rec.GamesDelta = rec.GamesPlayed - previous
	}

	rec.DemosPlayed = int(stats.Get("demos_played").Int())
	rec.Sessions = int(stats.Get("total_stats.total_sessions").Int())
	rec.Achievements = int(stats.Get("summary_stats.total_achievements").Int())
	rec.Timeline = timeline(stats.Get("months"))

	return rec, nil
}

// IsEmptySummary reports whether the page carries the year's summary
// attribute with an empty payload.
func IsEmptySummary(page []byte, year int) bool {
	raw, ok := findAttr(page, summaryPattern(year))
	return ok && gjson.Valid(raw) && isEmptyPayload(gjson.Parse(raw))
}

func isEmptyPayload(r gjson.Result) bool {
	switch {
	case r.IsObject():
		return len(r.Map()) == 0
	case r.IsArray():
		return len(r.Array()) == 0
	}
	return false
}

func previousGamesPlayed(page []byte, year int) int {
	raw, ok := findAttr(page, previousSummaryPattern(year))
	if !ok || !gjson.Valid(raw) {
		return 0
	}
	prev := gjson.Parse(raw)
	if !prev.IsObject() {
		return 0
	}
	return int(prev.Get("games_played").Int())
}

type monthGame struct {
	appID int64
	x100  int64
}

func timeline(months gjson.Result) []domain.MonthEntry {
	out := []domain.MonthEntry{}
	months.ForEach(func(_, month gjson.Result) bool {
		rtime := month.Get("rtime_month")
		if !month.IsObject() || !rtime.Exists() {
			return true
		}

		var games []monthGame
		month.Get("game_summary").ForEach(func(_, g gjson.Result) bool {
			appID := g.Get("appid")
			if !g.IsObject() || !appID.Exists() {
				return true
			}
			games = append(games, monthGame{
				appID: appID.Int(),
				x100:  g.Get("relative_playtime_percentagex100").Int(),
			})
			return true
		})
		sort.SliceStable(games, func(i, j int) bool { return games[i].x100 > games[j].x100 })

		entry := domain.MonthEntry{RTimeMonth: rtime.Int(), Games: make([]domain.GameShare, 0, len(games))}
		for _, g := range games {
			entry.Games = append(entry.Games, domain.GameShare{
				AppID:   g.appID,
				Percent: int(math.Round(float64(g.x100) / 100)),
			})
		}
		out = append(out, entry)
		return true
	})
	return out
}
