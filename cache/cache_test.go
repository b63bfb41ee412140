package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStores(t *testing.T) map[string]Store {
	fc, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)
	return map[string]Store{
		"file":   fc,
		"memory": NewMemoryCache(),
	}
}

func TestStorePutGet(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok := s.Get("yir_2025_76561197974617624")
			assert.False(t, ok)

			require.NoError(t, s.Put("yir_2025_76561197974617624", &Entry{FetchedAt: 100, Body: json.RawMessage(`{"ok":true}`)}))
			e, ok := s.Get("yir_2025_76561197974617624")
			require.True(t, ok)
			assert.Equal(t, int64(100), e.FetchedAt)
			assert.JSONEq(t, `{"ok":true}`, string(e.Body))

			// overwrite, no merge
			require.NoError(t, s.Put("yir_2025_76561197974617624", &Entry{FetchedAt: 200, Body: json.RawMessage(`{"ok":false}`)}))
			e, ok = s.Get("yir_2025_76561197974617624")
			require.True(t, ok)
			assert.Equal(t, int64(200), e.FetchedAt)
			assert.JSONEq(t, `{"ok":false}`, string(e.Body))
		})
	}
}

func TestStoreDeleteAndKeys(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, k := range []string{"yir_2025_1", "yir_2024_1", "steam_profile_cache_1", "resolve_pouark"} {
				require.NoError(t, s.Put(k, &Entry{FetchedAt: 1, Body: json.RawMessage(`{}`)}))
			}

			keys, err := s.Keys("yir_")
			require.NoError(t, err)
			assert.Equal(t, []string{"yir_2024_1", "yir_2025_1"}, keys)

			deleted, err := s.Delete("yir_2025_1")
			require.NoError(t, err)
			assert.True(t, deleted)

			deleted, err = s.Delete("yir_2025_1")
			require.NoError(t, err)
			assert.False(t, deleted)

			keys, err = s.Keys("")
			require.NoError(t, err)
			assert.Len(t, keys, 3)
		})
	}
}

func TestFileCacheMalformedIsAbsent(t *testing.T) {
	dir := t.TempDir()
	fc, err := NewFileCache(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0o600))
	_, ok := fc.Get("broken")
	assert.False(t, ok)
}

func TestFileCacheLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	fc, err := NewFileCache(dir)
	require.NoError(t, err)

	require.NoError(t, fc.Put("checkmydeck", &Entry{Body: json.RawMessage(`{"ok":true}`)}))
	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "checkmydeck.json", files[0].Name())

	e, ok := fc.Get("checkmydeck")
	require.True(t, ok)
	assert.NotZero(t, e.FetchedAt, "missing fetch time is stamped on write")
}

func TestIsFresh(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	ttl := 6 * time.Hour
	ttlSec := int64(ttl / time.Second)

	assert.True(t, IsFresh(&Entry{FetchedAt: now.Unix() - ttlSec + 1}, ttl, now))
	assert.False(t, IsFresh(&Entry{FetchedAt: now.Unix() - ttlSec}, ttl, now))
	assert.False(t, IsFresh(&Entry{FetchedAt: now.Unix() - ttlSec - 1}, ttl, now))
	assert.False(t, IsFresh(&Entry{}, ttl, now), "no fetch time is never fresh")
	assert.False(t, IsFresh(nil, ttl, now))
}

func TestKeyFor(t *testing.T) {
	a := KeyFor("yir_2025", "76561197974617624")
	b := KeyFor("yir_2025", "76561197974617625")
	c := KeyFor("steam_profile_cache", "76561197974617624")

	assert.Equal(t, "yir_2025_76561197974617624", a)
	assert.Equal(t, a, KeyFor("yir_2025", "76561197974617624"))
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, "checkmydeck", KeyFor("checkmydeck", ""))
	assert.Equal(t, "resolve_a_b", KeyFor("resolve", "a/b"))
}

func TestLoadSave(t *testing.T) {
	s := NewMemoryCache()
	type rec struct {
		Name string `json:"name"`
	}

	var out rec
	_, err := Load(s, "missing", &out)
	assert.ErrorIs(t, err, ErrCacheNotFound)

	require.NoError(t, Save(s, "k", 42, rec{Name: "pouark"}))
	e, err := Load(s, "k", &out)
	require.NoError(t, err)
	assert.Equal(t, int64(42), e.FetchedAt)
	assert.Equal(t, "pouark", out.Name)
}
