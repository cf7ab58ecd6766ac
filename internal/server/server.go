// Package server provides the HTTP server and routing for Folio.
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

	"github.com/aristath/folio/internal/config"
	"github.com/aristath/folio/internal/di"
	goalshandlers "github.com/aristath/folio/internal/modules/goals/handlers"
	historyhandlers "github.com/aristath/folio/internal/modules/history/handlers"
	incomehandlers "github.com/aristath/folio/internal/modules/income/handlers"
	ledgerhandlers "github.com/aristath/folio/internal/modules/ledger/handlers"
	markethandlers "github.com/aristath/folio/internal/modules/market/handlers"
	valuationhandlers "github.com/aristath/folio/internal/modules/valuation/handlers"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container
	Jobs      *di.JobInstances
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	container      *di.Container
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		cfg:            cfg.Config,
		container:      cfg.Container,
		systemHandlers: NewSystemHandlers(cfg.Log, cfg.Config.DataDir, cfg.Container, cfg.Jobs),
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	c := s.container
	s.router.Route("/api", func(r chi.Router) {
		r.Route("/system", s.systemHandlers.RegisterRoutes)

		markethandlers.NewHandler(c.MarketDataService, s.log).RegisterRoutes(r)

		// Everything a user owns is scoped by the path
		r.Route("/users/{userID}", func(r chi.Router) {
			ledgerhandlers.NewHandler(c.LedgerService, s.log).RegisterRoutes(r)
			valuationhandlers.NewHandler(c.ValuationService, s.log).RegisterRoutes(r)
			historyhandlers.NewHandler(c.HistoryService, s.log).RegisterRoutes(r)
			goalshandlers.NewHandler(c.GoalsService, s.log).RegisterRoutes(r)
			incomehandlers.NewHandler(c.IncomeService, s.log).RegisterRoutes(r)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		event := s.log.Info()
		if ww.Status() >= http.StatusInternalServerError {
			event = s.log.Error()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
