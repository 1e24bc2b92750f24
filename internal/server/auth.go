package server

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"stockroom/internal/accounts"
	"stockroom/internal/core"
)

const (
	msgNoCredentials = "Authentication credentials were not provided."
	msgTokenInvalid  = "Given token not valid for any token type"
	msgUserNotFound  = "User not found"
	msgAdminOnly     = "Only admin users can perform non-read operations."
)

// AuthMiddleware authenticates requests carrying "Authorization: Bearer <access token>".
// The user is reloaded from storage on every request so role changes and
// deletions take effect before the token expires.
func AuthMiddleware(tokens TokenService, users AccountService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			const prefix = "Bearer "
			if authHeader == "" || !strings.HasPrefix(authHeader, prefix) {
				return handleError(c, core.NewAuthenticationError(msgNoCredentials))
			}

			claims, err := tokens.ParseAccess(strings.TrimSpace(strings.TrimPrefix(authHeader, prefix)))
			if err != nil {
				return handleError(c, core.NewAuthenticationError(msgTokenInvalid))
			}
			userID, err := claims.UserID()
			if err != nil {
				return handleError(c, core.NewAuthenticationError(msgTokenInvalid))
			}

			user, err := users.Get(c.Request().Context(), userID)
			if err != nil {
				if errors.Is(err, accounts.ErrNotFound) {
					return handleError(c, core.NewAuthenticationError(msgUserNotFound))
				}
				return handleError(c, err)
			}

			c.SetRequest(c.Request().WithContext(core.WithUser(c.Request().Context(), user)))
			return next(c)
		}
	}
}

// RequireAdmin rejects callers that are not superusers. It must run after AuthMiddleware.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := core.GetUser(c.Request().Context())
			if user == nil {
				return handleError(c, core.NewAuthenticationError(msgNoCredentials))
			}
			if !user.IsAdmin() {
				return handleError(c, core.NewPermissionError(msgAdminOnly))
			}
			return next(c)
		}
	}
}
