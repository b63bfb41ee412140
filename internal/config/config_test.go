package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected port 8080, got %s", cfg.Port)
	}
	if cfg.Cache.ProfileTTL != 3*time.Hour {
		t.Errorf("Expected profile TTL 3h, got %s", cfg.Cache.ProfileTTL)
	}
	if cfg.Cache.YearTTL != 6*time.Hour {
		t.Errorf("Expected year-in-review TTL 6h, got %s", cfg.Cache.YearTTL)
	}
	if cfg.Cache.ResolveTTL != 24*time.Hour {
		t.Errorf("Expected resolve TTL 24h, got %s", cfg.Cache.ResolveTTL)
	}
	if cfg.Cache.DeckTTL != 6*time.Hour {
		t.Errorf("Expected checkmydeck TTL 6h, got %s", cfg.Cache.DeckTTL)
	}
	if cfg.Upstream.Timeout != 15*time.Second {
		t.Errorf("Expected upstream timeout 15s, got %s", cfg.Upstream.Timeout)
	}
	if len(cfg.Steam.Years) != 4 || cfg.Steam.Years[0] != 2025 || cfg.Steam.Years[3] != 2022 {
		t.Errorf("Unexpected default years: %v", cfg.Steam.Years)
	}
	if cfg.Steam.DefaultSteamID != "76561197974617624" {
		t.Errorf("Unexpected default steamid: %s", cfg.Steam.DefaultSteamID)
	}
	if cfg.Cache.SingleFlight {
		t.Error("Single-flight should be off by default")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "9000")
	t.Setenv("YIR_YEARS", "2024,2023")
	t.Setenv("YIR_TTL", "30m")
	t.Setenv("STEAM_COOKIE", "steamLoginSecure=abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("Expected port 9000, got %s", cfg.Port)
	}
	if len(cfg.Steam.Years) != 2 || cfg.Steam.Years[0] != 2024 {
		t.Errorf("Expected years [2024 2023], got %v", cfg.Steam.Years)
	}
	if cfg.Cache.YearTTL != 30*time.Minute {
		t.Errorf("Expected year TTL 30m, got %s", cfg.Cache.YearTTL)
	}
	if cfg.Steam.Cookie != "steamLoginSecure=abc" {
		t.Errorf("Expected cookie from env, got %q", cfg.Steam.Cookie)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "steam_cookie: steamLoginSecure=fromfile\ncf_clearance: clear-token\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("STEAM_COOKIE", "")
	t.Setenv("CF_CLEARANCE", "from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Steam.Cookie != "steamLoginSecure=fromfile" {
		t.Errorf("Expected cookie from file, got %q", cfg.Steam.Cookie)
	}
	if cfg.Browser.CFClearance != "from-env" {
		t.Errorf("Environment should win over file, got %q", cfg.Browser.CFClearance)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	if _, err := Load(); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	bad := *cfg
	bad.Steam.DefaultSteamID = "1234"
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for short default steamid")
	}

	bad = *cfg
	bad.Steam.Years = nil
	if err := bad.Validate(); err == nil {
		t.Error("Expected error when no years configured")
	}

	bad = *cfg
	bad.Cache.Backend = "redis"
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for unknown cache backend")
	}

	bad = *cfg
	bad.Cache.ProfileTTL = 0
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for zero TTL")
	}
}
