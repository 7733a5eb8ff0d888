// Package server is the composition root: it opens the database, builds
// the services and handlers, and mounts them on one chi router.
//
// ROUTES:
//
//	GET    /health
//	POST   /api/auth/register | /api/auth/login | /api/auth/logout
//	GET    /api/auth/me                       (bearer token or cookie)
//	*      /api/{journals,categories,habits,todos}[/{id}]
//	POST   /api/upload
//	DELETE /api/delete_file
//	GET    /api/admin/users[/{id}[/{kind}]]   (X-Admin-Token when configured)
//	GET    /uploads/{user_id}/{filename} and /uploads/{filename}
//
// MIDDLEWARE ORDER:
// Middleware runs in the order it is added, outermost first.
//
//  1. RequestID assigns the id the request log line carries.
//  2. TrustedRealIP replaces RemoteAddr with the forwarded client address,
//     but only when the socket peer is a configured trusted proxy. A direct
//     client cannot pick its own address with X-Forwarded-For.
//  3. Logger wraps Recoverer, so a recovered panic is still logged as a 500.
//  4. CORS answers preflight requests before they reach the rate limiter.
//  5. The rate limiter keys on RemoteAddr as left by step 2.
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

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/momentkeep/internal/auth"
	"github.com/sakif/momentkeep/internal/config"
	"github.com/sakif/momentkeep/internal/filestore"
	"github.com/sakif/momentkeep/internal/handler"
	"github.com/sakif/momentkeep/internal/middleware"
	"github.com/sakif/momentkeep/internal/model"
	sqliteRepo "github.com/sakif/momentkeep/internal/repository/sqlite"
	"github.com/sakif/momentkeep/internal/service"
)

// Server owns the database and the background work of the middleware; both
// are released by Close.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	cancel context.CancelFunc
}

// OpenDatabase opens the database at path, creating its directory, and
// brings the schema up to date.
func OpenDatabase(ctx context.Context, path string) (*sqliteRepo.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqliteRepo.New(path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return db, nil
}

// New wires every dependency from cfg. The caller must Close the server
// (Start does so itself).
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	ctx, cancel := context.WithCancel(context.Background())

	db, err := OpenDatabase(ctx, cfg.Database.Path)
	if err != nil {
		cancel()
		return nil, err
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		cancel: cancel,
	}

	if err := s.setupRoutes(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// setupRoutes builds every layer and mounts it.
//
// KEY CONCEPTS:
//
//  1. ONE DEPENDENCY CHAIN PER KIND:
//     s.db.Journals() (a sqlite Table) → JournalService → ResourceHandler.
//     Each layer receives only the layer below it, as an interface, so the
//     handlers never see the database and the services never see HTTP.
//
//  2. GENERIC TYPE ARGUMENTS ARE SPELLED OUT:
//     NewResourceHandler takes an interface, and Go does not infer type
//     parameters through interface satisfaction. The [T, C, P] list names
//     the entity, its create input and its patch.
//
//  3. OPTIONAL FEATURES ARE DECIDED HERE:
//     No JWT secret means no token issuing and no /api/auth/me route; no
//     admin token means open admin routes. Both cases log a warning so the
//     choice is visible at startup.
func (s *Server) setupRoutes(ctx context.Context) error {
	cfg := s.config

	// === SERVICES ===
	secrets, err := auth.NewSecretScheme(cfg.Auth.SecretScheme)
	if err != nil {
		return err
	}
	if secrets.Name() == auth.SchemePlaintext {
		s.logger.Warn("account secrets are stored and compared in plaintext; set auth.secret_scheme=bcrypt for hashed storage")
	}

	var tokens *auth.TokenService
	if cfg.Auth.JWTSecret != "" {
		tokens, err = auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		if err != nil {
			return err
		}
	} else {
		s.logger.Warn("JWT_SECRET not set; login issues no token and /api/auth/me is disabled")
	}

	files, err := filestore.New(filestore.Config{
		Root:          cfg.Uploads.Dir,
		PublicBaseURL: cfg.Server.PublicBaseURL,
		MaxBytes:      cfg.Uploads.MaxBytes,
	}, s.logger.With(slog.String("component", "filestore")))
	if err != nil {
		return err
	}

	accounts := service.NewAccountService(s.db, secrets, tokens, s.logger)
	journals := service.NewJournalService(s.db.Journals(), s.logger)
	categories := service.NewCategoryService(s.db.Categories(), s.logger)
	habits := service.NewHabitService(s.db.Habits(), s.logger)
	todos := service.NewTodoService(s.db.Todos(), s.logger)

	// === HANDLERS ===
	accountHandler := handler.NewAccountHandler(accounts, s.logger)
	fileHandler := handler.NewFileHandler(files, s.logger)
	adminHandler := handler.NewAdminHandler(accounts, map[string]handler.OwnedLister{
		"journals":   handler.ListerFor[model.Journal, model.NewJournal, model.JournalPatch](journals),
		"categories": handler.ListerFor[model.Category, model.NewCategory, model.CategoryPatch](categories),
		"habits":     handler.ListerFor[model.Habit, model.NewHabit, model.HabitPatch](habits),
		"todos":      handler.ListerFor[model.Todo, model.NewTodo, model.TodoPatch](todos),
	}, s.logger)

	trusted, err := cfg.Server.TrustedProxyPrefixes()
	if err != nil {
		return err
	}

	// === GLOBAL MIDDLEWARE ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(middleware.TrustedRealIP(trusted))
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", handler.AdminTokenHeader},
		AllowCredentials: !allowsAnyOrigin(cfg.CORS.AllowedOrigins),
		MaxAge:           300,
	}))
	if cfg.RateLimit.RPS > 0 {
		limiter := middleware.NewRateLimiter(ctx, cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		s.router.Use(limiter.Handler)
	}

	if cfg.Auth.AdminToken == "" {
		s.logger.Warn("admin routes are unauthenticated; set ADMIN_TOKEN to protect /api/admin")
	}

	// === ROUTES ===
	s.router.Get("/health", handler.HealthHandler(s.db, s.logger))

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", accountHandler.HandleRegister)
			r.Post("/login", accountHandler.HandleLogin)
			r.Post("/logout", accountHandler.HandleLogout)
			if accounts.TokensEnabled() {
				r.With(auth.RequireAuth(tokens)).Get("/me", accountHandler.HandleMe)
			}
		})

		r.Mount("/journals", handler.NewResourceHandler[model.Journal, model.NewJournal, model.JournalPatch](journals, s.logger).Routes())
		r.Mount("/categories", handler.NewResourceHandler[model.Category, model.NewCategory, model.CategoryPatch](categories, s.logger).Routes())
		r.Mount("/habits", handler.NewResourceHandler[model.Habit, model.NewHabit, model.HabitPatch](habits, s.logger).Routes())
		r.Mount("/todos", handler.NewResourceHandler[model.Todo, model.NewTodo, model.TodoPatch](todos, s.logger).Routes())

		r.Post("/upload", fileHandler.HandleUpload)
		r.Delete("/delete_file", fileHandler.HandleDelete)

		r.Route("/admin", func(r chi.Router) {
			r.Use(handler.RequireAdminToken(cfg.Auth.AdminToken))
			r.Mount("/", adminHandler.Routes())
		})
	})

	s.router.Get("/uploads/{user_id}/{filename}", fileHandler.HandleServe)
	s.router.Get("/uploads/{filename}", fileHandler.HandleServeLegacy)

	return nil
}

// allowsAnyOrigin reports whether the wildcard origin is configured.
// Browsers refuse credentialed responses for "*", so credentials are only
// allowed for explicit origin lists.
func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close stops background work and closes the database.
func (s *Server) Close() error {
	s.cancel()
	return s.db.Close()
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests for up
// to the configured shutdown timeout and closes the database.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         s.config.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  2 * s.config.Server.WriteTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("addr", s.config.Server.Addr),
			slog.String("url", s.config.Server.PublicBaseURL),
			slog.String("database", s.config.Database.Path),
			slog.String("uploads", s.config.Uploads.Dir),
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

		ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}
