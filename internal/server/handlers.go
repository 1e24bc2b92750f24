// Package server provides HTTP handlers and server setup for the inventory API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"stockroom/internal/accounts"
	"stockroom/internal/auth"
	"stockroom/internal/core"
	"stockroom/internal/inventory"
)

// ItemService is the subset of inventory.Service used by the handlers.
type ItemService interface {
	List(ctx context.Context, filter inventory.ListFilter) ([]*core.Item, error)
	Get(ctx context.Context, id int64) (*core.Item, error)
	Create(ctx context.Context, in inventory.ItemInput) (*core.Item, error)
	Replace(ctx context.Context, id int64, in inventory.ItemInput) (*core.Item, error)
	Patch(ctx context.Context, id int64, p inventory.ItemPatch) (*core.Item, error)
	Delete(ctx context.Context, id int64) error
	LowStock(ctx context.Context, threshold int) ([]inventory.LowStockItem, error)
}

// AccountService is the subset of accounts.Service used by the handlers.
type AccountService interface {
	Register(ctx context.Context, in accounts.RegisterInput) (*core.User, error)
	Authenticate(ctx context.Context, username, password string) (*core.User, error)
	Get(ctx context.Context, id int64) (*core.User, error)
}

// TokenService issues and verifies bearer tokens.
type TokenService interface {
	IssuePair(user *core.User) (auth.Pair, error)
	Refresh(refreshToken string) (string, error)
	ParseAccess(accessToken string) (*auth.Claims, error)
}

// Handler holds the HTTP handlers
type Handler struct {
	items    ItemService
	accounts AccountService
	tokens   TokenService
}

// NewHandler creates a new handler with the given services
func NewHandler(items ItemService, accounts AccountService, tokens TokenService) *Handler {
	return &Handler{
		items:    items,
		accounts: accounts,
		tokens:   tokens,
	}
}

// Health handles GET /health
//
// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// bindJSON decodes the request body into dst, reporting malformed bodies as 400.
func bindJSON(c echo.Context, dst interface{}) error {
	err := (&echo.DefaultBinder{}).BindBody(c, dst)
	if err == nil {
		return nil
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code == http.StatusRequestEntityTooLarge || he.Code == http.StatusUnsupportedMediaType {
			return err
		}
		if msg, ok := he.Message.(string); ok && msg != "" {
			return core.NewInvalidRequestError("invalid request body: "+msg, err)
		}
	}
	return core.NewInvalidRequestError("invalid request body", err)
}

// handleError converts API errors to appropriate HTTP responses
func handleError(c echo.Context, err error) error {
	var apiErr *core.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode() >= http.StatusInternalServerError {
			logUnhandled(c, err)
		}
		return c.JSON(apiErr.HTTPStatusCode(), apiErr.ToJSON())
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return c.JSON(httpErr.Code, fromHTTPError(httpErr).ToJSON())
	}

	logUnhandled(c, err)

	// Fallback for unexpected errors
	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"error": map[string]interface{}{
			"type":    core.ErrorTypeInternal,
			"message": "an unexpected error occurred",
		},
	})
}

func logUnhandled(c echo.Context, err error) {
	slog.ErrorContext(c.Request().Context(), "unhandled error",
		"error", err,
		"method", c.Request().Method,
		"path", c.Request().URL.Path,
		"request_id", core.GetRequestID(c.Request().Context()),
	)
}

func fromHTTPError(he *echo.HTTPError) *core.APIError {
	msg := http.StatusText(he.Code)
	if s, ok := he.Message.(string); ok && s != "" {
		msg = s
	}

	var t core.ErrorType
	switch {
	case he.Code == http.StatusNotFound:
		t, msg = core.ErrorTypeNotFound, "Not found."
	case he.Code == http.StatusUnauthorized:
		t = core.ErrorTypeAuthentication
	case he.Code == http.StatusForbidden:
		t = core.ErrorTypePermission
	case he.Code >= http.StatusInternalServerError:
		t, msg = core.ErrorTypeInternal, "an unexpected error occurred"
	default:
		t = core.ErrorTypeInvalidRequest
	}
	return &core.APIError{Type: t, Message: msg, StatusCode: he.Code}
}
