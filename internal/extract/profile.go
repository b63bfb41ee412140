package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/briangreenhill/steamstats/internal/domain"
)

const memberSinceLayout = "2 January, 2006"

var (
	steamIDField     = regexp.MustCompile(`"steamid"\s*:\s*"(\d{17})"`)
	personaNameField = regexp.MustCompile(`"personaname"\s*:\s*"([^"]+)"`)
	memberSinceText  = regexp.MustCompile(`(?i)Member since\s+([0-9]{1,2}\s+[A-Za-z]+,\s+[0-9]{4})`)
)

// ProfileOptions carries what the profile extractor cannot read off the page.
type ProfileOptions struct {
	// SteamID is used when the page does not embed one.
	SteamID string
	Now     time.Time
	// AgeSuffix follows the year count in account_age, e.g. "ans".
	AgeSuffix string
}

// Profile reads a Steam community profile page. Fields that cannot be
// located are left empty; the record is returned whenever the page parses.
func Profile(page []byte, opts ProfileOptions) (*domain.Profile, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, domain.NewError(domain.ErrExtraction, "Invalid profile page.", err)
	}

	p := &domain.Profile{
		SteamID:     opts.SteamID,
		Level:       text(doc.Find("div[class*='persona_level'] span[class*='friendPlayerLevelNum']")),
		Badges:      countLink(doc, "Badges"),
		GamesOwned:  countLink(doc, "Games"),
		Status:      text(doc.Find("div[class*='profile_in_game_header']")),
		GamesPlayed: text(doc.Find("div[class*='games_played_ctn'] div[class*='big_stat']")),
		PersonaName: personaFromTitle(text(doc.Find("title"))),
	}

	if m := steamIDField.FindSubmatch(page); m != nil {
		p.SteamID = string(m[1])
	}

	p.MemberSince = memberSince(doc)
	if years, days, ok := accountAge(p.MemberSince, opts.Now); ok {
		p.AccountYears = &years
		p.AccountDays = strconv.Itoa(days)
		p.AccountAge = strings.TrimSpace(fmt.Sprintf("%d %s", years, opts.AgeSuffix))
	}

	return p, nil
}

func text(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.First().Text())
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// countLink returns the total shown next to a labelled profile count link
// such as "Badges" or "Games".
func countLink(doc *goquery.Document, label string) string {
	var total string
	doc.Find("div[class*='profile_count_link'] > a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		matched := false
		a.ChildrenFiltered("span[class*='count_link_label']").Each(func(_ int, s *goquery.Selection) {
			if normalizeSpace(s.Text()) == label {
				matched = true
			}
		})
		if !matched {
			return true
		}
		total = text(a.ChildrenFiltered("span[class*='profile_count_link_total']"))
		return false
	})
	return total
}

func memberSince(doc *goquery.Document) string {
	tooltip, ok := doc.Find("[data-tooltip-html*='Member since']").First().Attr("data-tooltip-html")
	if !ok {
		return ""
	}
	m := memberSinceText.FindStringSubmatch(html.UnescapeString(tooltip))
	if m == nil {
		return ""
	}
	return m[1]
}

// accountAge returns whole calendar years and elapsed days since the
// membership date.
func accountAge(since string, now time.Time) (years, days int, ok bool) {
	if since == "" {
		return 0, 0, false
	}
	joined, err := time.Parse(memberSinceLayout, normalizeSpace(since))
	if err != nil {
		return 0, 0, false
	}
	now = now.UTC()
	if now.Before(joined) {
		return 0, 0, false
	}

	years = now.Year() - joined.Year()
	if now.Month() < joined.Month() || (now.Month() == joined.Month() && now.Day() < joined.Day()) {
		years--
	}
	days = int(now.Sub(joined).Hours() / 24)
	return years, days, true
}

func personaFromTitle(title string) string {
	if !strings.Contains(title, "::") {
		return ""
	}
	parts := strings.Split(title, "::")
	return strings.TrimSpace(parts[len(parts)-1])
}
