package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/briangreenhill/steamstats/internal/domain"
)

var (
	playablePlusAfter  = regexp.MustCompile(`(?i)PLAYABLE\+\s*(\d+)%`)
	playablePlusBefore = regexp.MustCompile(`(?i)(\d+)%\s*PLAYABLE\+`)

	deckLabels = map[string]*regexp.Regexp{}
)

func init() {
	for _, label := range []string{"VERIFIED", "PLAYABLE", "UNSUPPORTED", "UNKNOWN"} {
		deckLabels[label] = regexp.MustCompile(fmt.Sprintf(`(?i)%s\s*:\s*(\d+)\s*games\s*\(([^)]+)\)`, label))
	}
}

// DeckStatus reads the Steam Deck compatibility summary from the visible
// text of a CheckMyDeck list and reports how many labels matched. Zero
// matches is not an error.
func DeckStatus(text string) (*domain.DeckStatus, int) {
	text = strings.ReplaceAll(text, "\u00a0", " ")
	st := &domain.DeckStatus{}
	matched := 0

	if m := playablePlusAfter.FindStringSubmatch(text); m != nil {
		st.PlayablePlusPercent = m[1]
		matched++
	} else if m := playablePlusBefore.FindStringSubmatch(text); m != nil {
		st.PlayablePlusPercent = m[1]
		matched++
	}

	for label, dst := range map[string]**domain.DeckBucket{
		"VERIFIED":    &st.Verified,
		"PLAYABLE":    &st.Playable,
		"UNSUPPORTED": &st.Unsupported,
		"UNKNOWN":     &st.Unknown,
	} {
		if m := deckLabels[label].FindStringSubmatch(text); m != nil {
			*dst = &domain.DeckBucket{Games: m[1], Percent: m[2]}
			matched++
		}
	}

	return st, matched
}
