package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/toribox/toriadmin/internal/api/handlers"
	"github.com/toribox/toriadmin/internal/api/middleware"
	"github.com/toribox/toriadmin/internal/config"
	"github.com/toribox/toriadmin/internal/controllers"
	"github.com/toribox/toriadmin/internal/metrics"
	"github.com/toribox/toriadmin/internal/models"
)

// Controllers groups what the HTTP API serves
type Controllers struct {
	Catalog   *controllers.Catalog
	Episodes  *controllers.EpisodeController
	Uploads   *controllers.UploadController
	Dashboard *controllers.DashboardController
}

// Server represents the HTTP server
type Server struct {
	server  *http.Server
	ctrls   Controllers
	db      *models.Database
	metrics *metrics.Metrics
	logger  *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, ctrls Controllers, db *models.Database, m *metrics.Metrics, logger *logrus.Logger) *Server {
	s := &Server{
		ctrls:   ctrls,
		db:      db,
		metrics: m,
		logger:  logger,
	}

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Minute,
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root handler, for tests
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// routes configures all HTTP routes
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Logging(s.logger))
	r.Use(metrics.RequestMiddleware(s.metrics))

	health := handlers.NewHealthHandler(s.logger)
	status := handlers.NewStatusHandler(s.ctrls.Dashboard, s.ctrls.Episodes, s.db, s.logger)
	movies := handlers.NewMoviesHandler(s.ctrls.Catalog, s.ctrls.Episodes, s.ctrls.Uploads, s.logger)
	selection := handlers.NewSelectionHandler(s.ctrls.Episodes, s.logger)
	uploads := handlers.NewUploadsHandler(s.ctrls.Uploads, s.logger)

	r.Get("/health", health.ServeHTTP)
	r.Get("/status", status.ServeHTTP)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/movies", movies.List)
		r.Get("/movies/{movieID}/episodes", movies.Episodes)
		r.Post("/movies/{movieID}/episodes", movies.UploadEpisode)

		r.Get("/selection", selection.Get)
		r.Post("/selection", selection.Select)

		r.Get("/uploads", uploads.ServeHTTP)
	})

	return r
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("port", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
