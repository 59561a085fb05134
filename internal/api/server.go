package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mindlinks/outreach/internal/config"
	"github.com/mindlinks/outreach/internal/store"
)

// Server hosts the response tracking endpoint
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	store      *store.Store
	config     *config.Config
	logger     *slog.Logger
	startTime  time.Time
}

// NewServer creates a new response endpoint server
func NewServer(st *store.Store, cfg *config.Config, logger *slog.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		store:     st,
		config:    cfg,
		logger:    logger,
		startTime: time.Now(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/", s.handleRoot)
	s.router.Get("/health", s.handleHealth)

	// Click-through routes hit from email links
	s.router.Get("/interested/{id}", s.handleInterested)
	s.router.Get("/not-interested/{id}", s.handleNotInterested)

	// Reporting routes
	s.router.Get("/stats", s.handleStats)
	s.router.Get("/contacts", s.handleContacts)
}

// Router returns the configured router, used by tests
func (s *Server) Router() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Addr:         s.config.HTTP.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  s.config.HTTP.ReadTimeout,
		WriteTimeout: s.config.HTTP.WriteTimeout,
		IdleTimeout:  s.config.HTTP.IdleTimeout,
	}

	s.logger.Info("starting response endpoint", "addr", s.config.HTTP.ListenAddr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down response endpoint")
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
