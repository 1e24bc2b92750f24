// Package app provides the main application struct for centralized dependency management
// and lifecycle control of the stockroom server.
package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"stockroom/config"
	"stockroom/internal/accounts"
	"stockroom/internal/auth"
	"stockroom/internal/cache"
	"stockroom/internal/inventory"
	"stockroom/internal/server"
	"stockroom/internal/storage"
)

// generatedSecretSize is the length of the signing key created when no JWT secret is configured.
const generatedSecretSize = 32

// App represents the main application with all its dependencies.
// It provides centralized lifecycle management for all components.
type App struct {
	config    *config.Config
	storage   storage.Storage
	itemStore inventory.Store
	userStore accounts.Store
	cache     cache.ItemCache
	items     *inventory.Service
	accounts  *accounts.Service
	tokens    *auth.TokenManager
	server    *server.Server

	shutdownMu sync.Mutex
	shutdown   bool
}

// Config holds the configuration options for creating an App.
type Config struct {
	// AppConfig holds the loaded application configuration.
	AppConfig *config.Config

	// Headless skips token and HTTP server setup. Maintenance commands such
	// as seeding only need the services.
	Headless bool
}

// New creates a new App with all dependencies initialized.
// The caller must call Shutdown to release resources.
func New(ctx context.Context, opts Config) (*App, error) {
	if opts.AppConfig == nil {
		return nil, fmt.Errorf("app config is required")
	}
	cfg := opts.AppConfig

	app := &App{config: cfg}

	shared, err := storage.New(ctx, storageConfig(cfg.Storage))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.storage = shared

	fail := func(stage string, err error) (*App, error) {
		if closeErr := app.closeResources(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize %s: %w (also: close error: %v)", stage, err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize %s: %w", stage, err)
	}

	if app.itemStore, err = inventory.NewStore(ctx, shared); err != nil {
		return fail("item store", err)
	}
	if app.userStore, err = accounts.NewStore(ctx, shared); err != nil {
		return fail("user store", err)
	}

	app.cache, err = cache.New(cache.Config{
		Type: cfg.Cache.Type,
		TTL:  cfg.Cache.TTL,
		Redis: cache.RedisConfig{
			URL: cfg.Cache.Redis.URL,
			Key: cfg.Cache.Redis.Key,
		},
	})
	if err != nil {
		return fail("item cache", err)
	}

	app.items = inventory.NewService(app.itemStore, app.cache)
	app.accounts = accounts.NewService(app.userStore, cfg.Auth.BcryptCost)
	if opts.Headless {
		return app, nil
	}

	secret := []byte(cfg.Auth.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, generatedSecretSize)
		if _, err := rand.Read(secret); err != nil {
			return fail("token signing secret", err)
		}
		slog.Warn("SECURITY WARNING: JWT_SECRET not set - using a random signing key",
			"effect", "issued tokens stop working when the process restarts",
			"recommendation", "set JWT_SECRET to a long random value")
	}
	if app.tokens, err = auth.NewTokenManager(secret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL); err != nil {
		return fail("token manager", err)
	}

	app.logStartupInfo()

	app.server = server.New(app.items, app.accounts, app.tokens, &server.Config{
		MetricsEnabled:     cfg.Metrics.Enabled,
		MetricsEndpoint:    cfg.Metrics.Endpoint,
		BodySizeLimit:      cfg.Server.BodySizeLimit,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		SwaggerEnabled:     cfg.Server.SwaggerEnabled,
	})

	return app, nil
}

func storageConfig(cfg config.StorageConfig) storage.Config {
	return storage.Config{
		Type: cfg.Type,
		SQLite: storage.SQLiteConfig{
			Path: cfg.SQLite.Path,
		},
		PostgreSQL: storage.PostgreSQLConfig{
			URL:      cfg.PostgreSQL.URL,
			MaxConns: cfg.PostgreSQL.MaxConns,
		},
		MongoDB: storage.MongoDBConfig{
			URL:      cfg.MongoDB.URL,
			Database: cfg.MongoDB.Database,
		},
	}
}

// Items returns the item service.
func (a *App) Items() *inventory.Service {
	return a.items
}

// Accounts returns the account service.
func (a *App) Accounts() *accounts.Service {
	return a.accounts
}

// Handler returns the HTTP handler serving the API, or nil for a headless App.
func (a *App) Handler() http.Handler {
	if a.server == nil {
		return nil
	}
	return a.server
}

// Start starts the HTTP server on the given address.
// This is a blocking call that returns when the server stops.
func (a *App) Start(addr string) error {
	if a.server == nil {
		return fmt.Errorf("server is not initialized")
	}
	slog.Info("starting server", "address", addr)
	if err := a.server.Start(addr); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			slog.Info("server stopped gracefully")
			return nil
		}
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP server, honoring ctx, and then releases the cache,
// the stores and the shared storage connection.
//
// Shutdown is idempotent; after the first call, subsequent calls are no-ops.
// It attempts every step and returns the joined failures.
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownMu.Lock()
	if a.shutdown {
		a.shutdownMu.Unlock()
		return nil
	}
	a.shutdown = true
	a.shutdownMu.Unlock()

	slog.Info("shutting down application...")

	var errs []error
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", "error", err)
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
	}
	if err := a.closeResources(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	slog.Info("application shutdown complete")
	return nil
}

// closeResources releases everything New may have opened, in reverse order.
func (a *App) closeResources() error {
	var errs []error
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			slog.Error("item cache close error", "error", err)
			errs = append(errs, fmt.Errorf("cache close: %w", err))
		}
	}
	if a.userStore != nil {
		if err := a.userStore.Close(); err != nil {
			errs = append(errs, fmt.Errorf("user store close: %w", err))
		}
	}
	if a.itemStore != nil {
		if err := a.itemStore.Close(); err != nil {
			errs = append(errs, fmt.Errorf("item store close: %w", err))
		}
	}
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			slog.Error("storage close error", "error", err)
			errs = append(errs, fmt.Errorf("storage close: %w", err))
		}
	}
	return errors.Join(errs...)
}

// logStartupInfo logs the application configuration on startup.
func (a *App) logStartupInfo() {
	cfg := a.config

	slog.Info("storage configured", "type", cfg.Storage.Type)

	if cfg.Cache.Type == "" || cfg.Cache.Type == cache.TypeNone {
		slog.Info("item cache disabled")
	} else {
		slog.Info("item cache enabled", "type", cfg.Cache.Type, "ttl", cfg.Cache.TTL)
	}

	if cfg.Metrics.Enabled {
		slog.Info("prometheus metrics enabled", "endpoint", cfg.Metrics.Endpoint)
	} else {
		slog.Info("prometheus metrics disabled")
	}

	if cfg.Server.SwaggerEnabled {
		slog.Info("swagger UI enabled", "path", "/swagger/index.html")
	}

	if len(cfg.Server.CORSAllowedOrigins) > 0 {
		slog.Info("CORS enabled", "origins", cfg.Server.CORSAllowedOrigins)
	}
}
