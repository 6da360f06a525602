// Package server wires the router, middleware, and handlers, and owns the
// HTTP server lifecycle. main.go stays minimal; all dependencies are
// assembled here, in one place.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/sakib/component-vault/internal/handler"
	"github.com/sakib/component-vault/internal/middleware"
	sqliteRepo "github.com/sakib/component-vault/internal/repository/sqlite"
	"github.com/sakib/component-vault/internal/service"
	"github.com/sakib/component-vault/internal/storage"
)

// mediaURL is the public prefix under which uploaded attachments are served.
const mediaURL = "/media"

// Config holds server configuration.
type Config struct {
	Port        int
	TemplateDir string
	DBPath      string
	MediaDir    string
}

// Server holds the router and the resources it owns. The database is closed
// during shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the dependency chain: database and blob store, then the
// service, then the handlers, then the routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware and route handlers.
//
// GET    /                        → landing page (HTML)
// GET    /media/*                 → uploaded attachment files
// GET    /components/             → list components
// POST   /components/             → create component (JSON or multipart)
// GET    /components/{id}/        → component detail incl. files
// PATCH  /components/{id}/        → partial update
// DELETE /components/{id}/        → delete (cascades to files)
// POST   /components/{id}/files/  → upload attachments
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	blobs, err := storage.NewDiskStore(s.config.MediaDir, mediaURL)
	if err != nil {
		return fmt.Errorf("creating blob store: %w", err)
	}

	// Uploaded attachments are served straight from the media directory.
	fileServer := http.FileServer(http.Dir(s.config.MediaDir))
	s.router.Handle(mediaURL+"/*", http.StripPrefix(mediaURL+"/", fileServer))

	homeHandler, err := handler.NewHomeHandler(s.config.TemplateDir, s.logger)
	if err != nil {
		return fmt.Errorf("creating home handler: %w", err)
	}
	s.router.Get("/", homeHandler.HandleHome)

	// s.db implements both repository interfaces.
	componentService := service.NewComponentService(s.db, s.db, blobs, s.logger)
	componentHandler := handler.NewComponentHandler(componentService, s.logger)

	s.router.Route("/components", func(r chi.Router) {
		r.Use(httprate.LimitByIP(100, time.Minute))
		r.Get("/", componentHandler.HandleList)
		r.Post("/", componentHandler.HandleCreate)
		r.Get("/{id}/", componentHandler.HandleGet)
		r.Patch("/{id}/", componentHandler.HandleUpdate)
		r.Delete("/{id}/", componentHandler.HandleDelete)
		r.Post("/{id}/files/", componentHandler.HandleUploadFiles)
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then drains in-flight
// requests and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.String("media", s.config.MediaDir),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
