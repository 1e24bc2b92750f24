package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"stockroom/internal/accounts"
	"stockroom/internal/auth"
	"stockroom/internal/core"
	"stockroom/internal/validation"
)

// RegisterResponse is returned after a successful registration.
type RegisterResponse struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
}

// UserRoleResponse describes the caller's permissions.
type UserRoleResponse struct {
	IsAdmin bool `json:"is_admin"`
	IsStaff bool `json:"is_staff"`
}

// TokenRequest is the login body.
type TokenRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries the refresh token to exchange.
type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// AccessResponse is returned by the refresh endpoint.
type AccessResponse struct {
	Access string `json:"access"`
}

// Register handles POST /api/register/
//
// @Summary      Register a user
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        user  body      accounts.RegisterInput  true  "Username, password and role (admin or staff)"
// @Success      201   {object}  RegisterResponse
// @Failure      400   {object}  core.APIError
// @Router       /api/register/ [post]
func (h *Handler) Register(c echo.Context) error {
	var in accounts.RegisterInput
	if err := bindJSON(c, &in); err != nil {
		return handleError(c, err)
	}

	user, err := h.accounts.Register(c.Request().Context(), in)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(http.StatusCreated, RegisterResponse{
		ID:          user.ID,
		Username:    user.Username,
		IsStaff:     user.IsStaff,
		IsSuperuser: user.IsSuperuser,
	})
}

// UserRole handles GET /api/user-role/
//
// @Summary      Current user's role
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  UserRoleResponse
// @Failure      401  {object}  core.APIError
// @Router       /api/user-role/ [get]
func (h *Handler) UserRole(c echo.Context) error {
	user := core.GetUser(c.Request().Context())
	if user == nil {
		return handleError(c, core.NewAuthenticationError(msgNoCredentials))
	}
	return c.JSON(http.StatusOK, UserRoleResponse{
		IsAdmin: user.IsSuperuser,
		IsStaff: user.IsStaff,
	})
}

// ObtainToken handles POST /api/token/
//
// @Summary      Obtain an access/refresh token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        credentials  body      TokenRequest  true  "Username and password"
// @Success      200  {object}  auth.Pair
// @Failure      400  {object}  core.APIError
// @Failure      401  {object}  core.APIError
// @Router       /api/token/ [post]
func (h *Handler) ObtainToken(c echo.Context) error {
	var req TokenRequest
	if err := bindJSON(c, &req); err != nil {
		return handleError(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return handleError(c, core.NewValidationError(validation.Fields(err)))
	}

	user, err := h.accounts.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return handleError(c, err)
	}

	pair, err := h.tokens.IssuePair(user)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, pair)
}

// RefreshToken handles POST /api/token/refresh/
//
// @Summary      Exchange a refresh token for a new access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        refresh  body      RefreshRequest  true  "Refresh token"
// @Success      200  {object}  AccessResponse
// @Failure      400  {object}  core.APIError
// @Failure      401  {object}  core.APIError
// @Router       /api/token/refresh/ [post]
func (h *Handler) RefreshToken(c echo.Context) error {
	var req RefreshRequest
	if err := bindJSON(c, &req); err != nil {
		return handleError(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return handleError(c, core.NewValidationError(validation.Fields(err)))
	}

	access, err := h.tokens.Refresh(req.Refresh)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			return handleError(c, core.NewAuthenticationError(msgTokenInvalid))
		}
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, AccessResponse{Access: access})
}
