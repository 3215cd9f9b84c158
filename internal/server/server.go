// Package server exposes the read-mostly JSON query surface over trend
// data: realtime/daily snapshots, scored top-N lists, and an admin
// re-ingest trigger.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"gdelttrends/internal/aggregate"
	"gdelttrends/internal/cache"
	"gdelttrends/internal/config"
	"gdelttrends/internal/fetch"
	"gdelttrends/internal/logger"
	"gdelttrends/internal/persistence"
	"gdelttrends/internal/score"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server hosts the trend query HTTP API.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	store      persistence.TrendStore
	cache      cache.Cache
	scorer     *score.Scorer
	fetcher    *fetch.Fetcher
	aggregator *aggregate.Aggregator
	config     config.Server
	log        *slog.Logger
}

// New wires a Server over its dependencies and configures routes.
func New(store persistence.TrendStore, c cache.Cache, scorer *score.Scorer, fetcher *fetch.Fetcher, aggregator *aggregate.Aggregator, cfg config.Server) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		store:      store,
		cache:      c,
		scorer:     scorer,
		fetcher:    fetcher,
		aggregator: aggregator,
		config:     cfg,
		log:        logger.Get(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/trends", func(r chi.Router) {
		r.Get("/realtime", s.handleRealtime)
		r.Get("/daily", s.handleDaily)
		r.Get("/top", s.handleTop)
		r.Get("/documents", s.handleDocuments)
		r.Post("/admin/fetchDaily", s.handleAdminFetchDaily)
	})
}

// Start blocks serving HTTP until the server is shut down.
func (s *Server) Start() error {
	s.log.Info("starting HTTP server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// Router exposes the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
