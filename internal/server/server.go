// Package server sets up the HTTP server, router, and all route definitions.
//
// It is the composition root of the web binary: New opens the store, parses
// the templates and builds services and handlers; routes maps URL patterns to
// those handlers; Start serves until SIGINT or SIGTERM.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/yatube/internal/auth"
	"github.com/sakif/yatube/internal/config"
	"github.com/sakif/yatube/internal/handler"
	"github.com/sakif/yatube/internal/middleware"
	"github.com/sakif/yatube/internal/service"
	"github.com/sakif/yatube/internal/store"
	"github.com/sakif/yatube/web"
)

const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the store. Start closes it after the HTTP server has
// drained, so pending writes are flushed and the SQLite file lock released.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	store  *store.Store
}

// New opens the configured store and wires every handler.
//
// Templates come from the binary unless cfg.TemplateDir points at a
// directory on disk. Without JWT_SECRET a random secret is generated, which
// signs everyone out on restart.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	st, err := store.Open(context.Background(), store.Config{
		DBPath:      cfg.DBPath,
		DatabaseURL: cfg.DatabaseURL,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	var templates fs.FS = web.Templates()
	if cfg.TemplateDir != "" {
		templates = os.DirFS(cfg.TemplateDir)
	}
	renderer, err := handler.NewTemplateRenderer(templates)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret, err = randomSecret()
		if err != nil {
			st.Close()
			return nil, err
		}
		logger.Warn("JWT_SECRET not set, using a random secret; sessions end on restart")
	}

	s, err := newServer(cfg, logger, st, renderer)
	if err != nil {
		st.Close()
		return nil, err
	}
	return s, nil
}

// newServer wires an already opened store. Tests use it with an in-memory
// SQLite database.
func newServer(cfg config.Config, logger *slog.Logger, st *store.Store, renderer handler.Renderer) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  st,
	}
	s.routes(tokens, renderer)
	return s, nil
}

// Handler returns the router, for tests and for embedding in another server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// routes configures middleware and handlers.
//
//	GET       /                    index
//	GET       /group/{slug}/       group listing
//	GET       /profile/{username}/ profile listing
//	GET       /posts/{id}/         post detail
//	GET, POST /create/             new post (login)
//	GET, POST /posts/{id}/edit/    edit post (login, author only)
//	GET, POST /auth/login/         password login
//	POST      /auth/logout/
//	GET       /auth/github/login, /auth/github/callback
//	GET       /static/*
//
// Middleware runs in the order it is added; OptionalAuth must come before
// any RequireLogin group.
func (s *Server) routes(tokens *auth.TokenService, renderer handler.Renderer) {
	passwords := auth.NewPasswordService()

	userService := service.NewUserService(s.store.Users, passwords, s.logger)
	postService := service.NewPostService(s.store.Posts, s.store.Groups, s.store.Users, s.logger)
	authService := service.NewAuthService(s.store.Users, passwords, tokens, s.logger)

	var github *auth.GitHubProvider
	if s.config.GitHubEnabled() {
		github = auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
	}

	posts := handler.NewPostHandler(postService, userService, renderer, s.logger)
	authHandler := handler.NewAuthHandler(authService, github, userService, renderer, s.config.CookieSecure, s.logger)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(auth.OptionalAuth(tokens))

	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(web.Static()))))

	s.router.Get("/", posts.HandleIndex)
	s.router.Get("/group/{slug}/", posts.HandleGroup)
	s.router.Get("/profile/{username}/", posts.HandleProfile)
	s.router.Get("/posts/{id}/", posts.HandleDetail)

	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireLogin(handler.LoginPath))

		r.Get("/create/", posts.HandleCreateForm)
		r.Post("/create/", posts.HandleCreate)
		r.Get("/posts/{id}/edit/", posts.HandleEditForm)
		r.Post("/posts/{id}/edit/", posts.HandleEdit)
	})

	s.router.Route("/auth", func(r chi.Router) {
		r.Get("/login/", authHandler.HandleLoginForm)
		r.Post("/login/", authHandler.HandleLogin)
		r.Post("/logout/", authHandler.HandleLogout)
		r.Get("/github/login", authHandler.HandleGitHubLogin)
		r.Get("/github/callback", authHandler.HandleGitHubCallback)
	})

	s.router.NotFound(posts.HandleNotFound)
}

// Start serves HTTP until SIGINT or SIGTERM, then drains in-flight requests
// for up to 30 seconds and closes the store.
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
			slog.String("store", s.store.Backend),
			slog.Bool("github_login", s.config.GitHubEnabled()),
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

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating JWT secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
