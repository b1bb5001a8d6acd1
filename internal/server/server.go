// Package server wires the whole application together: storage, backup
// lifecycle, services, handlers and routes. main.go only loads config and
// calls New/Start — everything else is assembled here, in one place.
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

	"github.com/mzevk/estate-api/internal/auth"
	"github.com/mzevk/estate-api/internal/backup"
	"github.com/mzevk/estate-api/internal/config"
	"github.com/mzevk/estate-api/internal/handler"
	"github.com/mzevk/estate-api/internal/middleware"
	"github.com/mzevk/estate-api/internal/model"
	"github.com/mzevk/estate-api/internal/service"
	"github.com/mzevk/estate-api/internal/store"
)

// Server owns the router plus the resources that must be released on
// shutdown: the store connection and the backup manager.
type Server struct {
	router  *chi.Mux
	cfg     config.Config
	logger  *slog.Logger
	store   store.Store
	backups *backup.Manager
}

// New assembles the full dependency chain.
//
// Startup order matters for the file backend: the latest snapshot is
// restored before the store opens, so the store reads the restored files.
// Admin seeding happens last, once the store is live.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	var backups *backup.Manager
	if cfg.Backend == "json" || cfg.Backend == "" {
		var err error
		backups, err = backup.New(backup.Config{
			DataDir:   cfg.DataDir,
			BackupDir: cfg.Backup.Dir,
			Keep:      cfg.Backup.Keep,
			Interval:  cfg.Backup.Interval.Duration,
			OnWrite:   cfg.Backup.OnWrite,
		}, model.Collections, logger)
		if err != nil {
			return nil, fmt.Errorf("setting up backups: %w", err)
		}

		restored, err := backups.RestoreLatest()
		if err != nil {
			return nil, fmt.Errorf("restoring latest snapshot: %w", err)
		}
		if restored {
			logger.Info("restored data from latest snapshot")
		}
	}

	st, err := store.Open(cfg.Backend, cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	s := &Server{
		router:  chi.NewRouter(),
		cfg:     cfg,
		logger:  logger,
		store:   st,
		backups: backups,
	}

	if err := s.setupRoutes(); err != nil {
		st.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware, handlers and the route table.
//
// Route overview:
//
//	GET    /uploads/*                    static uploaded files
//	POST   /api/auth/login               credentials → token
//	POST   /api/testimonials/public      public testimonial form
//	POST   /api/messages/public          public contact form
//	POST   /api/upload                   multipart upload        (bearer)
//	POST   /api/seed/demo                install demo content    (bearer)
//	GET    /api/{collection}             list, newest first
//	POST   /api/{collection}             insert                  (bearer)
//	DELETE /api/{collection}             delete all              (bearer)
//	PUT    /api/{collection}/{id}        partial update          (bearer)
//	DELETE /api/{collection}/{id}        delete one              (bearer)
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// The admin panel and the public site are served from other origins.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	tokens, err := auth.NewTokenService(s.cfg.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	authService := service.NewAuthService(s.store, tokens, passwords, s.logger)
	if err := authService.EnsureAdmin(context.Background(), s.cfg.Admin.Username, s.cfg.Admin.Password); err != nil {
		return fmt.Errorf("seeding admin: %w", err)
	}
	collectionService := service.NewCollectionService(s.store, s.backups, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	collectionHandler := handler.NewCollectionHandler(collectionService, s.logger)
	uploadHandler, err := handler.NewUploadHandler(s.cfg.UploadsDir, s.logger)
	if err != nil {
		return fmt.Errorf("creating upload handler: %w", err)
	}

	fileServer := http.FileServer(http.Dir(s.cfg.UploadsDir))
	s.router.Handle("/uploads/*", http.StripPrefix("/uploads/", fileServer))

	requireAuth := auth.RequireAuth(tokens)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandler.HandleLogin)

		// Public submission endpoints, registered before the generic
		// {collection} routes so chi matches the literal paths first.
		r.Post("/testimonials/public", collectionHandler.HandlePublicTestimonial)
		r.Post("/messages/public", collectionHandler.HandlePublicMessage)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/upload", uploadHandler.HandleUpload)
			r.Post("/seed/demo", collectionHandler.HandleSeedDemo)
		})

		r.Route("/{collection}", func(r chi.Router) {
			r.Use(collectionHandler.RequireKnownCollection)

			r.Get("/", collectionHandler.HandleList)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", collectionHandler.HandleInsert)
				r.Delete("/", collectionHandler.HandleDeleteAll)
				r.Put("/{id}", collectionHandler.HandleUpdate)
				r.Delete("/{id}", collectionHandler.HandleDelete)
			})
		})
	})

	return nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Snapshot takes an immediate backup snapshot. No-op for backends without
// a backup manager.
func (s *Server) Snapshot() error {
	return s.backups.Snapshot()
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully:
// stop accepting connections, drain in-flight requests (30s cap), take a
// final snapshot and close the store.
func (s *Server) Start() error {
	defer s.store.Close()

	// Periodic snapshots run for the lifetime of the server.
	backupCtx, stopBackups := context.WithCancel(context.Background())
	defer stopBackups()
	go s.backups.Run(backupCtx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
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
			slog.Int("port", s.cfg.Port),
			slog.String("backend", s.cfg.Backend),
			slog.String("data_dir", s.cfg.DataDir),
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

		stopBackups()
		if err := s.backups.Snapshot(); err != nil {
			s.logger.Error("final snapshot failed", slog.String("error", err.Error()))
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
