package manual

import (
	"encoding/json"
	"errors"
	"html"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briangreenhill/steamstats/internal/domain"
)

const steamID = "76561197974617624"

func capturePage(year, summary string) []byte {
	attr := `data-yearinreview_` + steamID + `_` + year + `="` + html.EscapeString(summary) + `"`
	// MHTML saves escape '=' and wrap long lines.
	attr = strings.ReplaceAll(attr, "=", "=3D")
	return []byte("<html><body><div " + attr[:20] + "=\r\n" + attr[20:] + "></div></body></html>")
}

const summary = `{"playtime_stats":{"demos_played":1,"game_summary":[{"appid":1,"new_this_year":1},{"appid":2}],` +
	`"months":[{"rtime_month":1704067200,"game_summary":[{"appid":1,"relative_playtime_percentagex100":7000}]}]}}`

func newImporter(t *testing.T) (*Importer, *Store) {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "manual"))
	require.NoError(t, err)
	clock := func() time.Time { return time.Unix(1735000000, 0) }
	return NewImporter(store, WithClock(clock)), store
}

func TestImportWritesOverride(t *testing.T) {
	imp, store := newImporter(t)

	rec, path, err := imp.Import(capturePage("2024", summary), 2024, steamID)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.Dir(), "yir_2024_"+steamID+".json"), path)
	assert.True(t, rec.OK)
	assert.Equal(t, Source, rec.Source)
	assert.Equal(t, int64(1735000000), rec.FetchedAt)
	assert.Equal(t, 2, rec.GamesPlayed)
	assert.Equal(t, 1, rec.NewGames)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk map[string]any
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, "manual-import", onDisk["source"])
	assert.Contains(t, onDisk, "timeline")

	got, ok := store.Lookup(2024, steamID)
	require.True(t, ok)
	assert.Equal(t, rec, got)
}

func TestImportRejectsBadInput(t *testing.T) {
	imp, store := newImporter(t)

	tests := []struct {
		name    string
		page    []byte
		year    int
		steamID string
		kind    error
	}{
		{name: "short steamid", page: capturePage("2024", summary), year: 2024, steamID: "1234", kind: domain.ErrInvalidInput},
		{name: "bad year", page: capturePage("2024", summary), year: 24, steamID: steamID, kind: domain.ErrInvalidInput},
		{name: "wrong year in page", page: capturePage("2023", summary), year: 2024, steamID: steamID, kind: domain.ErrExtraction},
		{name: "empty payload", page: capturePage("2024", `{}`), year: 2024, steamID: steamID, kind: domain.ErrExtraction},
		{name: "no playtime stats", page: capturePage("2024", `{"x":1}`), year: 2024, steamID: steamID, kind: domain.ErrExtraction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := imp.Import(tt.page, tt.year, tt.steamID)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), err.Error())
		})
	}

	_, err := os.Stat(store.Dir())
	assert.True(t, os.IsNotExist(err), "nothing written on rejection")
}

func TestLookupMissingOrCorrupt(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, ok := store.Lookup(2024, steamID)
	assert.False(t, ok)

	path := filepath.Join(store.Dir(), Key(2024, steamID)+".json")
	for _, body := range []string{"{not json", "null", "[]", `"text"`, "42"} {
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		_, ok = store.Lookup(2024, steamID)
		assert.False(t, ok, body)
	}
}

func TestLookupEmptyObjectHasTimeline(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), Key(2024, steamID)+".json"), []byte("{}"), 0o644))

	rec, ok := store.Lookup(2024, steamID)
	require.True(t, ok)
	require.NotNil(t, rec.Timeline)
	assert.Empty(t, rec.Timeline)

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"timeline":[]`)
}

func TestNewStoreRequiresDir(t *testing.T) {
	_, err := NewStore("")
	assert.Error(t, err)
}
