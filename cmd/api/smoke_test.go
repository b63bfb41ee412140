package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briangreenhill/steamstats/internal/config"
	"github.com/briangreenhill/steamstats/internal/manual"
)

const smokeSteamID = "76561197974617624"

// newSmokeServer starts the fully wired router with a memory cache and no
// browser. Only routes answered without an upstream call are exercised.
func newSmokeServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	manualDir := t.TempDir()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("CACHE_BACKEND", "memory")
	t.Setenv("BROWSER_ENABLED", "false")
	t.Setenv("MANUAL_DIR", manualDir)
	t.Setenv("YIR_YEARS", "2025,2024,2023,2022")

	cfg, err := config.Load()
	require.NoError(t, err)

	s, err := newServer(cfg, zerolog.Nop())
	require.NoError(t, err)

	ts := httptest.NewServer(s.Router)
	t.Cleanup(ts.Close)
	return ts, manualDir
}

func getJSON(t *testing.T, url string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	if resp.Header.Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp.StatusCode, body
}

func TestSmokeRoutes(t *testing.T) {
	ts, _ := newSmokeServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	status, body := getJSON(t, ts.URL+"/api/years")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{2025.0, 2024.0, 2023.0, 2022.0}, body["years"])

	tests := []struct {
		name   string
		path   string
		status int
		msg    string
	}{
		{"deck without browser", "/api/checkmydeck", http.StatusInternalServerError, "CheckMyDeck fetch script is missing."},
		{"legacy deck without browser", "/backend/checkmydeck.php", http.StatusInternalServerError, "CheckMyDeck fetch script is missing."},
		{"bad vanity", "/api/resolve?vanity=a%2Fb", http.StatusBadRequest, "Invalid vanity name."},
		{"bad clear id", "/api/cache/clear?steamid=123", http.StatusBadRequest, "Invalid SteamID."},
		{"unknown year", "/api/yir/1999", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := getJSON(t, ts.URL+tt.path)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, false, body["ok"])
			if tt.msg != "" {
				assert.Equal(t, tt.msg, body["error"])
			}
		})
	}

	status, body = getJSON(t, ts.URL+"/api/cache/clear")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, 0.0, body["deleted"])
}

func TestSmokeManualOverride(t *testing.T) {
	ts, manualDir := newSmokeServer(t)
	path := filepath.Join(manualDir, manual.Key(2024, smokeSteamID)+".json")
	require.NoError(t, os.WriteFile(path, []byte(`{"games_played":7}`), 0o644))

	for _, route := range []string{"/api/yir/2024?steamid=" + smokeSteamID, "/backend/yir_2024.php?steamid=" + smokeSteamID} {
		status, body := getJSON(t, ts.URL+route)
		assert.Equal(t, http.StatusOK, status, route)
		assert.Equal(t, true, body["manual"], route)
		assert.Equal(t, 7.0, body["games_played"], route)
		assert.Equal(t, []any{}, body["timeline"], route)
	}

	resp, err := http.Get(ts.URL + "/api/yir/2024?steamid=" + smokeSteamID)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Contains(t, resp.Header.Get("Cache-Control"), "no-store")
}
