// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/briangreenhill/steamstats/cache"
	"github.com/briangreenhill/steamstats/internal/config"
	"github.com/briangreenhill/steamstats/internal/http/routes"
	"github.com/briangreenhill/steamstats/internal/manual"
	"github.com/briangreenhill/steamstats/internal/stats"
	"github.com/briangreenhill/steamstats/internal/upstream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr).With().Timestamp().Logger()
		boot.Fatal().Err(err).Msg("invalid configuration")
	}

	// Logger
	logger := newLogger(cfg)
	logger.Info().Str("port", cfg.Port).Ints("years", cfg.Steam.Years).Msg("starting steamstats")

	s, err := newServer(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("server setup failed")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown failed")
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server stopped")
	}
	logger.Info().Msg("server stopped")
}

// newServer wires the cache, upstreams and services behind the router.
func newServer(cfg *config.Config, logger zerolog.Logger) (*routes.Server, error) {
	// Cache
	store, err := newStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("cache setup: %w", err)
	}
	overrides, err := manual.NewStore(cfg.Cache.ManualDir)
	if err != nil {
		return nil, fmt.Errorf("manual store setup: %w", err)
	}

	// Upstreams
	fetcher := upstream.NewHTTPFetcher(
		upstream.WithTimeout(cfg.Upstream.Timeout),
		upstream.WithRateLimit(cfg.Upstream.RateLimit),
		upstream.WithLogger(logger.With().Str("component", "fetcher").Logger()),
	)
	var renderer upstream.Renderer
	if cfg.HasBrowser() {
		chrome, err := upstream.NewChromeRenderer(cfg.Browser.ChromePath, logger.With().Str("component", "chrome").Logger())
		if err != nil {
			logger.Warn().Err(err).Msg("headless browser unavailable, checkmydeck disabled")
		} else {
			renderer = chrome
		}
	}

	opts := []stats.Option{stats.WithLogger(logger)}
	if cfg.Cache.SingleFlight {
		opts = append(opts, stats.WithSingleFlight())
	}

	registry := stats.NewRegistry()
	for _, year := range cfg.Steam.Years {
		registry.Register(stats.NewYearService(store, fetcher, overrides, stats.YearConfig{
			Year:           year,
			TTL:            cfg.Cache.YearTTL,
			DefaultSteamID: cfg.Steam.DefaultSteamID,
			Cookie:         cfg.Steam.Cookie,
		}, opts...))
	}
	years := make(map[int]routes.YearGetter, len(cfg.Steam.Years))
	for _, year := range registry.Years() {
		svc, _ := registry.Get(year)
		years[year] = svc
	}

	// Router
	return routes.New(routes.ServerOptions{
		Profile: stats.NewProfileService(store, fetcher, stats.ProfileConfig{
			TTL:           cfg.Cache.ProfileTTL,
			DefaultVanity: cfg.Steam.DefaultVanity,
			AgeSuffix:     cfg.Steam.AccountAgeSuffix,
		}, opts...),
		Years:   years,
		Resolve: stats.NewResolveService(store, fetcher, cfg.Cache.ResolveTTL, opts...),
		Tracker: stats.NewTrackerService(fetcher, cfg.Steam.SteamHuntersURL, logger),
		Deck: stats.NewDeckService(store, renderer, stats.DeckConfig{
			URL:         cfg.Steam.CheckMyDeckURL,
			TTL:         cfg.Cache.DeckTTL,
			CFClearance: cfg.Browser.CFClearance,
		}, opts...),
		Cache:     stats.NewCacheService(store, registry.Years(), logger),
		Log:       logger,
		StaticDir: cfg.StaticDir,
	}), nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.LogPretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func newStore(cfg *config.Config) (cache.Store, error) {
	if cfg.Cache.Backend == "memory" {
		return cache.NewMemoryCache(), nil
	}
	return cache.NewFileCache(cfg.Cache.Dir)
}
