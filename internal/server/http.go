package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	"stockroom/config"
	"stockroom/internal/core"
	"stockroom/internal/observability"
	"stockroom/internal/validation"
)

// Server wraps the Echo server
type Server struct {
	echo    *echo.Echo
	handler *Handler
}

// Config holds server configuration options
type Config struct {
	MetricsEnabled     bool     // Whether to expose Prometheus metrics endpoint
	MetricsEndpoint    string   // HTTP path for metrics endpoint (default: /metrics)
	BodySizeLimit      string   // Max request body size, e.g. "1M" (default: config.DefaultBodySizeLimit)
	CORSAllowedOrigins []string // Origins allowed to call the API from a browser; empty disables CORS
	SwaggerEnabled     bool     // Whether to serve the Swagger UI under /swagger/
}

// New creates a new HTTP server
func New(items ItemService, accounts AccountService, tokens TokenService, cfg *Config) *Server {
	if cfg == nil {
		cfg = &Config{}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = httpErrorHandler

	handler := NewHandler(items, accounts, tokens)

	// API routes are registered with a trailing slash; requests without one
	// are rewritten rather than redirected.
	e.Pre(middleware.AddTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		Skipper: func(c echo.Context) bool {
			return !strings.HasPrefix(c.Request().URL.Path, "/api/")
		},
	}))

	// Global middleware stack (order matters)
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			c.SetRequest(c.Request().WithContext(core.WithRequestID(c.Request().Context(), id)))
		},
	}))
	e.Use(middleware.RequestLoggerWithConfig(requestLoggerConfig()))
	e.Use(middleware.Recover())
	e.Use(observability.Middleware())

	bodySizeLimit := config.DefaultBodySizeLimit
	if cfg.BodySizeLimit != "" {
		bodySizeLimit = cfg.BodySizeLimit
	}
	e.Use(middleware.BodyLimit(bodySizeLimit))

	if len(cfg.CORSAllowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.CORSAllowedOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, headerIfNoneMatch},
			ExposeHeaders: []string{
				echo.HeaderXRequestID, headerETag,
			},
		}))
	}

	// Public routes
	e.GET("/health", handler.Health)
	if cfg.MetricsEnabled {
		e.GET(metricsPath(cfg.MetricsEndpoint), echo.WrapHandler(promhttp.Handler()))
	}
	if cfg.SwaggerEnabled {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	authn := AuthMiddleware(tokens, accounts)
	adminOnly := RequireAdmin()

	api := e.Group("/api")
	api.POST("/register/", handler.Register)
	api.POST("/token/", handler.ObtainToken)
	api.POST("/token/refresh/", handler.RefreshToken)
	api.GET("/user-role/", handler.UserRole, authn)

	api.GET("/items/", handler.ListItems, authn)
	api.POST("/items/", handler.CreateItem, authn, adminOnly)
	api.GET("/items/low-stock/", handler.LowStockItems, authn)
	api.GET("/items/:id/", handler.GetItem, authn)
	api.PUT("/items/:id/", handler.ReplaceItem, authn, adminOnly)
	api.PATCH("/items/:id/", handler.PatchItem, authn, adminOnly)
	api.DELETE("/items/:id/", handler.DeleteItem, authn, adminOnly)

	return &Server{
		echo:    e,
		handler: handler,
	}
}

// metricsPath normalizes the configured metrics endpoint. Paths under /api
// fall back to /metrics so they cannot shadow API routes.
func metricsPath(endpoint string) string {
	if endpoint == "" {
		return "/metrics"
	}
	p := path.Clean("/" + endpoint)
	if p == "/" || p == "/api" || strings.HasPrefix(p, "/api/") {
		slog.Warn("metrics endpoint collides with API routes, using /metrics", "endpoint", endpoint)
		return "/metrics"
	}
	return p
}

func requestLoggerConfig() middleware.RequestLoggerConfig {
	return middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			switch {
			case v.Status >= http.StatusInternalServerError:
				level = slog.LevelError
			case v.Status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			slog.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	}
}

// httpErrorHandler renders errors that escape handlers (unknown routes,
// oversized bodies, panics) in the API error envelope.
func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if hErr := handleError(c, err); hErr != nil {
		slog.Error("failed to write error response", "error", hErr)
	}
}

// Start starts the HTTP server on the given address
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ServeHTTP implements the http.Handler interface, allowing Server to be used with httptest
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
