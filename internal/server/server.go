// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the composition root: New opens the database and wires
//
//	sqlstore.DB → services → handlers → chi routes
//
// in one place. Each layer only receives what it needs: services get
// repository interfaces, handlers get services.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/flashgig/internal/auth"
	"github.com/sakif/flashgig/internal/config"
	"github.com/sakif/flashgig/internal/handler"
	"github.com/sakif/flashgig/internal/middleware"
	"github.com/sakif/flashgig/internal/repository/sqlstore"
	"github.com/sakif/flashgig/internal/service"
	"github.com/sakif/flashgig/internal/ws"
)

// Server owns the database connection and the websocket hub; both are
// released when Start returns or Close is called.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqlstore.DB
	hub    *ws.Hub
	tokens *auth.TokenService

	transfer *service.TransferService
}

// New opens the configured database and wires the dependency graph.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqlstore.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Tokens are optional; without a secret every route is anonymous.
	var tokens *auth.TokenService
	if cfg.JWTSecret != "" {
		tokens, err = auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("creating token service: %w", err)
		}
	} else {
		logger.Warn("JWT_SECRET not set, session tokens are disabled")
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		hub:    ws.NewHub(),
		tokens: tokens,
	}
	s.transfer = service.NewTransferService(db, logger)
	s.setupRoutes()

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /health             → liveness
// POST   /register           → create account
// POST   /login              → verify credentials
// GET    /me                 → current user (token required)
// GET    /users/{username}   → public profile
// POST   /requests           → send connection request
// GET    /requests?user=     → requests involving a user
// PATCH  /requests/{id}      → accept / revert a request
// POST   /projects           → start a project on an accepted request
// GET    /projects?user=     → a user's projects
// GET    /projects/{id}      → one project
// PATCH  /projects/{id}      → partial update
// POST   /comments           → add a comment
// GET    /comments?project_id= → a project's comments
// GET    /ws                 → live event stream
// GET    /auth/github/login  → start GitHub sign-in (when configured)
// GET    /auth/github/callback → finish it, answer with user and token
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns unique ID to each request (for tracing)
// 2. RealIP: extracts real client IP from proxy headers
// 3. Logger: logs each request with timing info
// 4. Recoverer: catches panics and returns 500 instead of crashing
// 5. OptionalAuth: attaches the caller's username when a token is sent
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(auth.OptionalAuth(s.tokens))

	authService := service.NewAuthService(s.db, s.tokens, auth.NewPasswordServiceWithCost(s.config.BcryptCost), s.logger)
	connectionService := service.NewConnectionService(s.db, s.db, s.hub, s.logger)
	projectService := service.NewProjectService(s.db, s.db, s.db, s.hub, s.logger)
	commentService := service.NewCommentService(s.db, s.db, s.hub, s.logger)

	healthHandler := handler.NewHealthHandler(s.db, s.logger)
	authHandler := handler.NewAuthHandler(authService, s.logger)
	connectionHandler := handler.NewConnectionHandler(connectionService, s.logger)
	projectHandler := handler.NewProjectHandler(projectService, s.logger)
	commentHandler := handler.NewCommentHandler(commentService, s.logger)
	wsHandler := handler.NewWSHandler(s.hub, s.config.WSInsecureSkipVerify, s.logger)

	s.router.Get("/health", healthHandler.HandleHealth)

	s.router.Post("/register", authHandler.HandleRegister)
	s.router.Post("/login", authHandler.HandleLogin)
	s.router.Get("/users/{username}", authHandler.HandleGetUser)
	s.router.With(auth.RequireAuth(s.tokens)).Get("/me", authHandler.HandleMe)

	s.router.Route("/requests", func(r chi.Router) {
		r.Post("/", connectionHandler.HandleCreate)
		r.Get("/", connectionHandler.HandleList)
		r.Patch("/{id}", connectionHandler.HandleUpdate)
	})

	s.router.Route("/projects", func(r chi.Router) {
		r.Post("/", projectHandler.HandleCreate)
		r.Get("/", projectHandler.HandleList)
		r.Get("/{id}", projectHandler.HandleGet)
		r.Patch("/{id}", projectHandler.HandleUpdate)
	})

	s.router.Route("/comments", func(r chi.Router) {
		r.Post("/", commentHandler.HandleCreate)
		r.Get("/", commentHandler.HandleList)
	})

	s.router.Get("/ws", wsHandler.HandleWS)

	switch {
	case !s.config.GitHubEnabled():
	case s.tokens == nil:
		s.logger.Warn("GitHub sign-in needs JWT_SECRET; GitHub routes not registered")
	default:
		github := auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
		githubHandler := handler.NewGitHubHandler(authService, github, s.logger)
		s.router.Get("/auth/github/login", githubHandler.HandleLogin)
		s.router.Get("/auth/github/callback", githubHandler.HandleCallback)
	}
}

// Handler exposes the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ImportLegacy imports the configured IMPORT_DIR, if any. Existing records
// are skipped, so running it on every start is safe.
func (s *Server) ImportLegacy(ctx context.Context) error {
	if s.config.ImportDir == "" {
		return nil
	}
	counts, err := s.transfer.ImportDir(ctx, s.config.ImportDir)
	if err != nil {
		return fmt.Errorf("importing %s: %w", s.config.ImportDir, err)
	}
	s.logger.Info("legacy data directory processed",
		slog.String("dir", s.config.ImportDir),
		slog.Int("inserted", counts.Total()),
	)
	return nil
}

// Close releases the hub and the database.
func (s *Server) Close() error {
	s.hub.Close()
	return s.db.Close()
}

// Start runs the HTTP server and blocks until SIGINT/SIGTERM, then shuts
// down gracefully:
//  1. Stop accepting new HTTP connections
//  2. Wait for in-flight requests to finish (30s timeout)
//  3. Close websocket subscriptions and the database
func (s *Server) Start() error {
	defer s.Close()

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
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("driver", s.db.Driver()),
			slog.Bool("tokens", s.tokens != nil),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Hijacked websocket connections are not tracked by Shutdown.
		s.hub.Close()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
