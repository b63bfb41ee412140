package extract

import (
	"encoding/json"

	"github.com/briangreenhill/steamstats/internal/domain"
)

// Identity reads the steamid and persona name a profile page embeds in its
// inline JSON. A page without a steamid is domain.ErrNotFound.
func Identity(page []byte) (*domain.Identity, error) {
	m := steamIDField.FindSubmatch(page)
	if m == nil {
		return nil, domain.NewError(domain.ErrNotFound, "SteamID not found for this vanity name.", nil)
	}
	id := &domain.Identity{SteamID: string(m[1])}

	if m := personaNameField.FindSubmatch(page); m != nil {
		id.PersonaName = unquoteJSON(string(m[1]))
	}
	return id, nil
}

// unquoteJSON decodes JSON string escapes, falling back to the raw text.
func unquoteJSON(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return s
	}
	return out
}
