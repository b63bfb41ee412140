// Package config handles application configuration from environment
// variables and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/briangreenhill/steamstats/internal/domain"
)

// Config holds all application configuration
type Config struct {
	Port       string `env:"PORT" envDefault:"8080"`
	ConfigFile string `env:"CONFIG_FILE"`
	StaticDir  string `env:"STATIC_DIR"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY"`

	Cache    CacheConfig
	Steam    SteamConfig
	Browser  BrowserConfig
	Upstream UpstreamConfig
}

// CacheConfig controls where records are kept and for how long.
type CacheConfig struct {
	Backend      string        `env:"CACHE_BACKEND" envDefault:"file"`
	Dir          string        `env:"CACHE_DIR" envDefault:"./cache"`
	ManualDir    string        `env:"MANUAL_DIR" envDefault:"./manual"`
	ProfileTTL   time.Duration `env:"PROFILE_TTL" envDefault:"3h"`
	YearTTL      time.Duration `env:"YIR_TTL" envDefault:"6h"`
	ResolveTTL   time.Duration `env:"RESOLVE_TTL" envDefault:"24h"`
	DeckTTL      time.Duration `env:"CHECKMYDECK_TTL" envDefault:"6h"`
	SingleFlight bool          `env:"SINGLE_FLIGHT"`
}

// SteamConfig holds Steam-specific configuration
type SteamConfig struct {
	DefaultSteamID   string `env:"DEFAULT_STEAMID" envDefault:"76561197974617624"`
	DefaultVanity    string `env:"DEFAULT_VANITY" envDefault:"pouark"`
	Years            []int  `env:"YIR_YEARS" envDefault:"2025,2024,2023,2022"`
	Cookie           string `env:"STEAM_COOKIE"`
	AccountAgeSuffix string `env:"ACCOUNT_AGE_SUFFIX" envDefault:"ans"`
	SteamHuntersURL  string `env:"STEAMHUNTERS_URL" envDefault:"https://steamhunters.com/id/pouark/games"`
	CheckMyDeckURL   string `env:"CHECKMYDECK_URL" envDefault:"https://checkmydeck.ofdgn.com/users/76561197974617624/lists/185536"`
}

// BrowserConfig controls the headless Chrome used for challenge-protected pages.
type BrowserConfig struct {
	Enabled     bool   `env:"BROWSER_ENABLED" envDefault:"true"`
	ChromePath  string `env:"CHROME_PATH"`
	CFClearance string `env:"CF_CLEARANCE"`
}

// UpstreamConfig tunes outbound HTTP.
type UpstreamConfig struct {
	Timeout   time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"15s"`
	RateLimit float64       `env:"UPSTREAM_RPS" envDefault:"2"`
}

// fileConfig is the optional YAML file holding upstream credentials.
type fileConfig struct {
	SteamCookie string `yaml:"steam_cookie"`
	CFClearance string `yaml:"cf_clearance"`
}

// Load reads configuration from environment variables. When CONFIG_FILE
// names a YAML file, its credentials fill in any left unset by the
// environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.ConfigFile != "" {
		fc, err := loadFile(cfg.ConfigFile)
		if err != nil {
			return nil, err
		}
		if cfg.Steam.Cookie == "" {
			cfg.Steam.Cookie = fc.SteamCookie
		}
		if cfg.Browser.CFClearance == "" {
			cfg.Browser.CFClearance = fc.CFClearance
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return &fc, nil
}

// Validate ensures the configuration is usable
func (c *Config) Validate() error {
	var errs []error
	if !domain.IsSteamID(c.Steam.DefaultSteamID) {
		errs = append(errs, fmt.Errorf("DEFAULT_STEAMID must be 17 digits, got %q", c.Steam.DefaultSteamID))
	}
	if !domain.IsVanity(c.Steam.DefaultVanity) {
		errs = append(errs, fmt.Errorf("DEFAULT_VANITY is not a valid vanity name: %q", c.Steam.DefaultVanity))
	}
	if len(c.Steam.Years) == 0 {
		errs = append(errs, errors.New("YIR_YEARS must list at least one year"))
	}
	for _, y := range c.Steam.Years {
		if y < 2000 || y > 2100 {
			errs = append(errs, fmt.Errorf("YIR_YEARS contains an implausible year: %d", y))
		}
	}
	for name, d := range map[string]time.Duration{
		"PROFILE_TTL":      c.Cache.ProfileTTL,
		"YIR_TTL":          c.Cache.YearTTL,
		"RESOLVE_TTL":      c.Cache.ResolveTTL,
		"CHECKMYDECK_TTL":  c.Cache.DeckTTL,
		"UPSTREAM_TIMEOUT": c.Upstream.Timeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	switch c.Cache.Backend {
	case "file":
		if c.Cache.Dir == "" {
			errs = append(errs, errors.New("CACHE_DIR required for the file backend"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("CACHE_BACKEND must be file or memory, got %q", c.Cache.Backend))
	}
	if c.Upstream.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("UPSTREAM_RPS must not be negative, got %v", c.Upstream.RateLimit))
	}
	return errors.Join(errs...)
}

// HasBrowser returns true if headless Chrome may be used
func (c *Config) HasBrowser() bool {
	return c.Browser.Enabled
}
