package routes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/briangreenhill/steamstats/internal/domain"
	appmw "github.com/briangreenhill/steamstats/internal/http/middleware"
)

var errUnknownYear = domain.NewError(domain.ErrNotFound, "Unknown year.", nil)

type ProfileGetter interface {
	Get(ctx context.Context, steamID string) (*domain.Profile, error)
}

type YearGetter interface {
	Get(ctx context.Context, steamID string) (*domain.YearInReview, error)
}

type Resolver interface {
	Resolve(ctx context.Context, vanity string) (*domain.Identity, error)
}

type TrackerProber interface {
	Status(ctx context.Context) (*domain.TrackerStatus, error)
}

type DeckGetter interface {
	Get(ctx context.Context) (*domain.DeckStatus, error)
}

type CacheClearer interface {
	Clear(steamID string) (*domain.ClearResult, error)
}

type Server struct {
	Router  *chi.Mux
	Profile ProfileGetter
	Years   map[int]YearGetter
	Resolve Resolver
	Tracker TrackerProber
	Deck    DeckGetter
	Cache   CacheClearer
	Log     zerolog.Logger
}

type ServerOptions struct {
	Profile   ProfileGetter
	Years     map[int]YearGetter
	Resolve   Resolver
	Tracker   TrackerProber
	Deck      DeckGetter
	Cache     CacheClearer
	Log       zerolog.Logger
	StaticDir string
}

func New(opts ServerOptions) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(hlog.NewHandler(opts.Log))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-ID"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("took", d).
			Msg("request")
	}))
	r.Use(chimw.Recoverer)
	r.Use(appmw.CORS)

	s := &Server{
		Router:  r,
		Profile: opts.Profile,
		Years:   opts.Years,
		Resolve: opts.Resolve,
		Tracker: opts.Tracker,
		Deck:    opts.Deck,
		Cache:   opts.Cache,
		Log:     opts.Log,
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("write health check response")
		}
	})

	r.Route("/api", func(api chi.Router) {
		api.Get("/profile", s.handleProfile)
		api.Get("/steamhunters", s.handleTracker)
		api.Get("/checkmydeck", s.handleDeck)
		api.Get("/years", s.handleYears)
		api.Group(func(nc chi.Router) {
			nc.Use(appmw.NoCache)
			nc.Get("/yir/{year}", s.handleYearParam)
			nc.Get("/resolve", s.handleResolve)
		})
		api.Get("/cache/clear", s.handleClear)
		api.Post("/cache/clear", s.handleClear)
	})

	// Paths the existing frontend already requests.
	r.Route("/backend", func(legacy chi.Router) {
		legacy.Get("/steam_profile.php", s.handleProfile)
		legacy.Get("/steamhunters.php", s.handleTracker)
		legacy.Get("/checkmydeck.php", s.handleDeck)
		legacy.Get("/clear_cache.php", s.handleClear)
		legacy.Group(func(nc chi.Router) {
			nc.Use(appmw.NoCache)
			nc.Get("/resolve_steamid.php", s.handleResolve)
			for year := range s.Years {
				nc.Get(fmt.Sprintf("/yir_%d.php", year), s.handleYear(year))
			}
		})
	})

	if opts.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(opts.StaticDir)))
	}

	return s
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.Profile.Get(r.Context(), r.URL.Query().Get("steamid"))
	respond(w, r, p, err)
}

func (s *Server) handleYearParam(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		respond[domain.Envelope](w, r, nil, errUnknownYear)
		return
	}
	s.handleYear(year)(w, r)
}

func (s *Server) handleYear(year int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc, ok := s.Years[year]
		if !ok {
			respond[domain.Envelope](w, r, nil, errUnknownYear)
			return
		}
		rec, err := svc.Get(r.Context(), r.URL.Query().Get("steamid"))
		respond(w, r, rec, err)
	}
}

func (s *Server) handleYears(w http.ResponseWriter, r *http.Request) {
	years := make([]int, 0, len(s.Years))
	for y := range s.Years {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "years": years})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	id, err := s.Resolve.Resolve(r.Context(), r.URL.Query().Get("vanity"))
	respond(w, r, id, err)
}

func (s *Server) handleTracker(w http.ResponseWriter, r *http.Request) {
	st, err := s.Tracker.Status(r.Context())
	respond(w, r, st, err)
}

func (s *Server) handleDeck(w http.ResponseWriter, r *http.Request) {
	st, err := s.Deck.Get(r.Context())
	respond(w, r, st, err)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	steamID := r.URL.Query().Get("steamid")
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err == nil && r.PostForm.Get("steamid") != "" {
			steamID = r.PostForm.Get("steamid")
		}
	}
	res, err := s.Cache.Clear(steamID)
	respond(w, r, res, err)
}

// respond writes rec, or an error envelope when rec is nil. A record
// returned alongside an error is written with the error's status.
func respond[T any](w http.ResponseWriter, r *http.Request, rec *T, err error) {
	status := domain.StatusCode(err)
	if err != nil && status >= http.StatusInternalServerError {
		hlog.FromRequest(r).Warn().Err(err).Int("status", status).Msg("request failed")
	}
	if err != nil && rec == nil {
		writeJSON(w, status, domain.Envelope{OK: false, Error: clientMessage(err, status)})
		return
	}
	writeJSON(w, status, rec)
}

func clientMessage(err error, status int) string {
	var de *domain.Error
	if !errors.As(err, &de) && status == http.StatusInternalServerError {
		return "Internal server error."
	}
	return domain.Message(err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
