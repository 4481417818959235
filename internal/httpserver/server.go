// internal/httpserver/server.go
//
// HTTP server wiring for the geoguess backend.
// Responsibilities:
//   - Router + middleware (request IDs, real IP, request logging, panic recovery, timeouts, CORS).
//   - Public endpoints: "/", "/health", "/game/suggest", "/openapi.json", "/docs".
//   - Game endpoints: POST /game/new (issues the session token), and the session-bound
//     POST /game/guess, GET /game/state, GET /game/forecast.
//   - Daily endpoints: mounted under /daily.
//   - http.Server lifecycle (Run / Shutdown) for the errgroup in main.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so the session cookie works).
//   - Unknown paths get a JSON 404, or the SPA fallback when SPA_DIR is set.

package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/swaggest/swgui/v5emb"

	"github.com/robalobadob/geoguess/internal/config"
	"github.com/robalobadob/geoguess/internal/game"
	"github.com/robalobadob/geoguess/internal/store"
	"github.com/robalobadob/geoguess/internal/weather"
)

// Forecaster is the weather boundary used by /game/forecast. *weather.Dispatcher implements it.
type Forecaster interface {
	Forecast(ctx context.Context, sid string, round int, lat, lng float64) (*weather.Forecast, error)
	Invalidate(sid string, round int)
}

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Engine  *game.Engine
	Store   store.Store
	Weather Forecaster         // nil disables /game/forecast
	Checks  map[string]Checker // reported by /health
}

// Server bundles router, http.Server, and game dependencies.
type Server struct {
	r      *chi.Mux
	srv    *http.Server
	cfg    *config.Config
	engine *game.Engine
	store  store.Store
	wx     Forecaster
	tokens *tokens
	salt   []byte // daily target salt
	now    func() time.Time
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg *config.Config, d Deps) *Server {
	s := &Server{
		r:      chi.NewRouter(),
		cfg:    cfg,
		engine: d.Engine,
		store:  d.Store,
		wx:     d.Weather,
		tokens: newTokens(cfg.DeriveKey(config.PurposeSessionToken), cfg.SessionTTL, cfg.Production()),
		salt:   cfg.DeriveKey(config.PurposeDailySalt),
		now:    time.Now,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger)                   // one zerolog line per request
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(corsFor(cfg.ClientOrigin))       // credentials-friendly CORS

	// --- API docs ---
	s.r.Get("/openapi.json", handleOpenAPI())
	s.r.Mount("/docs", v5emb.New("geoguess API", "/openapi.json", "/docs"))

	s.r.Group(func(r chi.Router) {
		r.Use(jsonContentType)

		// --- diagnostics ---
		r.Get("/", handleIndex)
		r.Get("/health", handleHealth(d.Checks))
		r.Get("/debug/countries", s.handleDebugCountries)

		// Game endpoints; the token is issued by /game/new.
		r.Post("/game/new", s.handleNewGame)
		r.Get("/game/suggest", s.handleSuggest)
		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Post("/game/guess", s.handleGuess)
			r.Get("/game/state", s.handleState)
			r.Get("/game/forecast", s.handleForecast)
		})

		// Daily challenge
		s.mountDaily(r)
	})

	if cfg.SPADir != "" {
		s.r.NotFound(handleSPA(cfg.SPADir))
	} else {
		s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
		})
	}

	s.srv = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// Run listens on the configured port and serves until Shutdown.
func (s *Server) Run(_ context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}
	log.Info().Str("addr", ln.Addr().String()).Msg("http: listening")

	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests for up to 10s.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on API responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFor enables credentialed CORS for a single origin (CLIENT_ORIGIN).
func corsFor(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger writes one structured line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Int64("duration_ms", time.Since(start).Milliseconds()).
				Str("request_id", chimw.GetReqID(r.Context())).
				Msg("http request")
		}()

		next.ServeHTTP(ww, r)
	})
}

// ----------------------------- diagnostics ---------------------------------

var endpoints = []string{
	"/health",
	"POST /game/new",
	"POST /game/guess",
	"GET /game/state",
	"GET /game/suggest",
	"GET /game/forecast",
	"POST /daily/new",
	"GET /daily/today",
	"/openapi.json",
	"/docs/",
}

func handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"service": "geoguess", "endpoints": endpoints})
}

// handleDebugCountries reports index sizes: unique records and guessable names.
func (s *Server) handleDebugCountries(w http.ResponseWriter, r *http.Request) {
	ix := s.engine.Index()
	writeJSON(w, http.StatusOK, map[string]int{"records": ix.Len(), "names": len(ix.Names())})
}
