// Package domain holds the record shapes served as JSON and the error
// taxonomy shared by fetchers, extractors and endpoint services.
package domain

import "regexp"

// Envelope is embedded in every response record.
type Envelope struct {
	OK        bool   `json:"ok"`
	FetchedAt int64  `json:"fetched_at,omitempty"`
	Source    string `json:"source,omitempty"`
	Error     string `json:"error,omitempty"`
	Stale     bool   `json:"stale,omitempty"`
	Manual    bool   `json:"manual,omitempty"`
}

// Profile is scraped from a Steam community profile page. Fields that could
// not be located are left empty.
type Profile struct {
	Envelope
	SteamID      string `json:"steamid"`
	PersonaName  string `json:"persona_name"`
	Status       string `json:"status"`
	Level        string `json:"level"`
	Badges       string `json:"badges"`
	GamesOwned   string `json:"games_owned"`
	GamesPlayed  string `json:"games_played"`
	MemberSince  string `json:"member_since"`
	AccountAge   string `json:"account_age"`
	AccountYears *int   `json:"account_years,omitempty"`
	AccountDays  string `json:"account_days"`
}

// GameShare is one game's share of a month's playtime.
type GameShare struct {
	AppID   int64 `json:"appid"`
	Percent int   `json:"percent"`
}

// MonthEntry lists the games played in one month, most played first.
type MonthEntry struct {
	RTimeMonth int64       `json:"rtime_month"`
	Games      []GameShare `json:"games"`
}

// YearInReview is derived from the Steam Year in Review payload.
type YearInReview struct {
	Envelope
	Year         int          `json:"year,omitempty"`
	GamesPlayed  int          `json:"games_played"`
	NewGames     int          `json:"new_games"`
	DemosPlayed  int          `json:"demos_played"`
	GamesDelta   int          `json:"games_delta"`
	Sessions     int          `json:"sessions"`
	Achievements int          `json:"achievements"`
	Timeline     []MonthEntry `json:"timeline"`
}

// Identity maps a vanity name to a Steam identifier.
type Identity struct {
	Envelope
	Vanity      string `json:"vanity"`
	SteamID     string `json:"steamid"`
	PersonaName string `json:"persona_name"`
}

// DeckBucket is a game count with its share, both as printed upstream.
type DeckBucket struct {
	Games   string `json:"games"`
	Percent string `json:"percent"`
}

// DeckStatus is the Steam Deck compatibility summary of a CheckMyDeck list.
type DeckStatus struct {
	Envelope
	PlayablePlusPercent string      `json:"playable_plus_percent,omitempty"`
	Verified            *DeckBucket `json:"verified,omitempty"`
	Playable            *DeckBucket `json:"playable,omitempty"`
	Unsupported         *DeckBucket `json:"unsupported,omitempty"`
	Unknown             *DeckBucket `json:"unknown,omitempty"`
	Note                string      `json:"note,omitempty"`
}

// TrackerStatus reports whether the completion tracker could be reached.
type TrackerStatus struct {
	Envelope
	Status int    `json:"status"`
	Note   string `json:"note,omitempty"`
}

// ClearResult reports how many cache entries were removed.
type ClearResult struct {
	Envelope
	Deleted int `json:"deleted"`
}

var (
	steamIDPattern = regexp.MustCompile(`^\d{17}$`)
	vanityPattern  = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// IsSteamID reports whether s is a 17-digit Steam identifier.
func IsSteamID(s string) bool {
	return steamIDPattern.MatchString(s)
}

// IsVanity reports whether s is a usable vanity name.
func IsVanity(s string) bool {
	return vanityPattern.MatchString(s)
}
