// Package server exposes the optional read-only status/dashboard HTTP
// surface: /healthz for liveness and /status for the same account-value,
// open-position, and recent-activity snapshot the CLI's --status flag
// prints, grounded on the teacher's internal/server.Server (chi router,
// cors middleware, structured request logging).
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// StatusProvider supplies the current account snapshot on demand; cmd/sentinel
// implements it directly over the orchestrator/paper packages so the HTTP
// surface and the --status CLI flag always read the exact same data.
type StatusProvider interface {
	Status(ctx context.Context) (StatusSnapshot, error)
}

// StatusSnapshot is the JSON body served at GET /status.
type StatusSnapshot struct {
	Live              bool      `json:"live"`
	AccountValueCents int64     `json:"account_value_cents"`
	CashCents         int64     `json:"cash_cents"`
	OpenPositions     int       `json:"open_positions"`
	UnrealizedPnLCents int64    `json:"unrealized_pnl_cents"`
	LastCycleAt       time.Time `json:"last_cycle_at"`
	TradesToday       int       `json:"trades_today"`
}

// Server is the chi-routed HTTP surface.
type Server struct {
	router   *chi.Mux
	http     *http.Server
	log      zerolog.Logger
	provider StatusProvider
	started  time.Time
}

// Config configures Server.
type Config struct {
	Port     int
	Provider StatusProvider
	Log      zerolog.Logger
}

// New builds the server and its route table but does not start listening.
func New(cfg Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		log:      cfg.Log.With().Str("component", "server").Logger(),
		provider: cfg.Provider,
		started:  time.Now().UTC(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(30 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/status", s.handleStatus)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

// ListenAndServe blocks until ctx is cancelled, then shuts the server down
// gracefully within 5 seconds.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.http.Addr).Msg("status server listening")
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}
