// Package api exposes the recommendation engine over REST.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ramonehamilton/commander-crafter/internal/api/handlers"
	"github.com/ramonehamilton/commander-crafter/internal/api/response"
	"github.com/ramonehamilton/commander-crafter/internal/engine"
	"github.com/ramonehamilton/commander-crafter/internal/version"
)

// Server represents the REST API server.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	engine     *engine.Engine
	port       int
}

// Config holds configuration for the API server.
type Config struct {
	Port         int
	AllowOrigins []string
}

// DefaultConfig returns the default API server configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:         8080,
		AllowOrigins: []string{"*"},
	}
}

// NewServer creates a new API server over the given engine.
func NewServer(cfg *Config, eng *engine.Engine) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	s := &Server{
		router: chi.NewRouter(),
		engine: eng,
		port:   cfg.Port,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.healthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		recHandler := handlers.NewRecommendationHandler(s.engine)
		r.Get("/commanders", recHandler.GetCommanders)
		r.Get("/commanders/{name}", recHandler.GetCommanderInfo)
		r.Post("/recommendations", recHandler.Recommend)
	})
}

// healthCheck reports server and engine status.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"version":      version.GetVersion(),
		"catalog_size": s.engine.CatalogSize(),
	})
}

// Router exposes the configured router (used by handler tests).
func (s *Server) Router() http.Handler {
	return s.router
}

// Start begins listening for requests. Blocks until the server stops.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("[API] Listening on port %d", s.port)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
