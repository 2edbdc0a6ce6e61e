package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"blogpipe/internal/config"
	"blogpipe/internal/core"
	"blogpipe/internal/logger"
)

// ArticleSource provides the current intelligence document.
type ArticleSource interface {
	LoadIntelligence() (*core.IntelligenceDocument, error)
}

// Server represents the HTTP server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	source     ArticleSource
	config     config.Server
	siteDir    string
	log        *slog.Logger
}

// New creates a new HTTP server instance. The document is re-read on every
// request, so a pipeline run is visible without a restart. A non-empty
// siteDir is served as static files.
func New(source ArticleSource, cfg config.Server, siteDir string) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		source:  source,
		config:  cfg,
		siteDir: siteDir,
		log:     logger.Get(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))
	s.router.Use(securityHeaders)

	// The related-articles widget is embedded on other origins.
	if len(s.config.AllowedOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.AllowedOrigins,
			AllowedMethods:   []string{"GET", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
}

// setupRoutes configures routes for the server
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(noCache)
		r.Route("/articles", func(r chi.Router) {
			r.Get("/", s.handleListArticles)
			r.Get("/{url}", s.handleGetArticle)
			r.Get("/{url}/related", s.handleRelated)
		})
	})

	if s.siteDir != "" {
		if info, err := os.Stat(s.siteDir); err == nil && info.IsDir() {
			files := http.FileServer(http.Dir(s.siteDir))
			s.router.With(cacheStaticAssets).Handle("/wp-content/*", files)
			s.router.Handle("/*", files)
		} else {
			s.log.Warn("Site directory not found, static files disabled", "dir", s.siteDir)
		}
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info("Starting HTTP server", "addr", s.httpServer.Addr, "site_dir", s.siteDir)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed to start: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server gracefully...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.log.Info("HTTP server stopped")
	return nil
}

// Router returns the chi router instance (useful for testing)
func (s *Server) Router() *chi.Mux {
	return s.router
}
