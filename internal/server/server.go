// Package server wires the store, services, handlers and routes together
// and runs the HTTP server.
//
// DEPENDENCY FLOW:
//
//	config.Config → store (sqlite or postgres)
//	store → AuthService, MessageService → AuthHandler, MessageHandler → routes
//
// Everything is assembled in New; no other package constructs dependencies.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/anonbox/internal/auth"
	"github.com/sakif/anonbox/internal/config"
	"github.com/sakif/anonbox/internal/handler"
	"github.com/sakif/anonbox/internal/middleware"
	"github.com/sakif/anonbox/internal/repository"
	"github.com/sakif/anonbox/internal/repository/postgres"
	sqliteRepo "github.com/sakif/anonbox/internal/repository/sqlite"
	"github.com/sakif/anonbox/internal/service"
)

// Server owns the router and the store. The store is closed when Start
// returns.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	store  repository.Store
}

// New opens the store selected by cfg and builds the server around it.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s, err := NewWithStore(cfg, store, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	return s, nil
}

// NewWithStore builds the server on an already opened store.
func NewWithStore(cfg *config.Config, store repository.Store, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler returns the root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.Store, error) {
	if cfg.UsesPostgres() {
		logger.Info("using postgres store")
		return postgres.New(ctx, cfg.DatabaseURL)
	}

	if cfg.DBPath != ":memory:" {
		dir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}
	logger.Info("using sqlite store", slog.String("path", cfg.DBPath))
	return sqliteRepo.New(cfg.DBPath)
}

// setupRoutes configures middleware and routes.
//
// ROUTES:
// GET  /                     → liveness
// POST /auth/register        → create account
// POST /auth/login           → issue token
// GET  /user/{slug}/messages → public inbox
// POST /user/{slug}/messages → anonymous post
// GET  /me/messages          → own inbox (Bearer token)
//
// Middleware order: RequestID, RealIP, Logger, Recoverer, CORS. Recoverer
// sits inside Logger so a recovered panic is still logged as a 500.
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return err
	}
	passwords, err := auth.NewPasswordService(s.config.BcryptCost)
	if err != nil {
		return err
	}

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	authService := service.NewAuthService(s.store, tokens, passwords, s.logger)
	messageService := service.NewMessageService(s.store, s.store, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	messageHandler := handler.NewMessageHandler(messageService, s.logger)

	s.router.Get("/", handler.HandleRoot)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
	})

	s.router.Route("/user/{slug}", func(r chi.Router) {
		r.Get("/messages", messageHandler.HandleList)
		r.Post("/messages", messageHandler.HandlePost)
	})

	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens, s.logger))
		r.Get("/me/messages", messageHandler.HandleMine)
	})

	return nil
}

// Start runs the server until SIGINT or SIGTERM, then drains in-flight
// requests for up to 30 seconds and closes the store.
func (s *Server) Start() error {
	defer s.store.Close()

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

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
