// Package api exposes the grid evaluator over HTTP: submit a run, poll its
// status, fetch its leaderboard. Routing and middleware are grounded on the
// teacher's internal/server package (chi.Mux, go-chi/cors, the same
// Recoverer/RequestID/RealIP/Timeout/Compress middleware stack) — scoped
// down to the handful of routes a backtest grid run actually needs.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// Server is the HTTP front end for the grid evaluator's run registry.
type Server struct {
	router  *chi.Mux
	log     zerolog.Logger
	runs    *RunRegistry
	devMode bool
}

// Config configures the server's behavior.
type Config struct {
	Log     zerolog.Logger
	DevMode bool
}

// New builds a Server wired to runs, ready to ListenAndServe.
func New(cfg Config, runs *RunRegistry) *Server {
	s := &Server{router: chi.NewRouter(), log: cfg.Log, runs: runs, devMode: cfg.DevMode}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if !s.devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/version", s.handleVersion)
		r.Route("/runs", func(r chi.Router) {
			r.Post("/", s.handleSubmitRun)
			r.Get("/{runID}", s.handleGetRun)
			r.Get("/{runID}/leaderboard", s.handleGetLeaderboard)
		})
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// Handler returns the server's http.Handler, for use with http.Server or
// httptest.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"service": "chapaty-serve"})
}
