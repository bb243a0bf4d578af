package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	_ "taskxp/docs"
	"taskxp/internal/config"
	"taskxp/internal/handlers"
	"taskxp/internal/middleware"
	"taskxp/internal/pdf"
	"taskxp/internal/repositories"
	"taskxp/internal/routes"
	"taskxp/internal/services"
)

// SetupLogger installs the default slog logger described by cfg.
func SetupLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// App owns the database and the HTTP handler tree.
type App struct {
	cfg    *config.Config
	db     *repositories.DB
	Router *gin.Engine
}

// New opens and migrates the database, then wires services and routes.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	db, err := repositories.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	gin.SetMode(cfg.Server.Mode)
	router := routes.NewEngine()
	wire(router, repositories.NewStore(db), cfg, cfg.TokenTTL(), services.SystemClock)

	return &App{cfg: cfg, db: db, Router: router}, nil
}

func wire(router *gin.Engine, store *repositories.Store, cfg *config.Config, ttl time.Duration, clock services.Clock) {
	// === Services ===
	emailService := services.NewEmailService(cfg.Email)
	authService := services.NewAuthService(store.Users, emailService, cfg.Auth.JWTSecret, ttl, cfg.Auth.BcryptCost, clock)
	userService := services.NewUserService(store.Users, store, clock)
	categoryService := services.NewCategoryService(store.Categories, store, clock)
	taskService := services.NewTaskService(store.Tasks, store, clock)

	// === Handlers ===
	routes.SetupRoutes(
		router,
		middleware.AuthMiddleware(authService),
		handlers.NewAuthHandler(authService, userService),
		handlers.NewUserHandler(userService),
		handlers.NewCategoryHandler(categoryService),
		handlers.NewTaskHandler(taskService, userService, pdf.NewReportGenerator(cfg.Export.FontPath)),
	)
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("[app] server starting", "addr", srv.Addr, "dialect", a.db.Dialect)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("[app] shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("[app] server stopped")
	return nil
}

// Migrate applies pending schema migrations and closes the database.
func Migrate(ctx context.Context, cfg config.DatabaseConfig) error {
	db, err := repositories.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Migrate(ctx)
}

func (a *App) Close() error {
	return a.db.Close()
}
