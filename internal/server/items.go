package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/labstack/echo/v4"

	"stockroom/internal/core"
	"stockroom/internal/inventory"
)

// echo/v4 has no constants for the conditional-request headers.
const (
	headerETag        = "ETag"
	headerIfNoneMatch = "If-None-Match"
)

// ListItems handles GET /api/items/
//
// @Summary      List items
// @Tags         items
// @Produce      json
// @Security     BearerAuth
// @Param        category  query     string  false  "Exact category match"
// @Success      200  {array}   core.Item
// @Success      304  "Not modified (If-None-Match matched)"
// @Failure      401  {object}  core.APIError
// @Router       /api/items/ [get]
func (h *Handler) ListItems(c echo.Context) error {
	filter := inventory.ListFilter{Category: strings.TrimSpace(c.QueryParam("category"))}

	items, err := h.items.List(c.Request().Context(), filter)
	if err != nil {
		return handleError(c, err)
	}

	body, err := json.Marshal(items)
	if err != nil {
		return handleError(c, err)
	}

	etag := fmt.Sprintf(`"%016x"`, xxhash.Sum64(body))
	c.Response().Header().Set(headerETag, etag)
	if etagMatches(c.Request().Header.Get(headerIfNoneMatch), etag) {
		return c.NoContent(http.StatusNotModified)
	}
	return c.JSONBlob(http.StatusOK, body)
}

// etagMatches implements the weak comparison used by If-None-Match.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

// CreateItem handles POST /api/items/
//
// @Summary      Create an item
// @Tags         items
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        item  body      inventory.ItemInput  true  "Item fields"
// @Success      201   {object}  core.Item
// @Failure      400   {object}  core.APIError
// @Failure      401   {object}  core.APIError
// @Failure      403   {object}  core.APIError
// @Router       /api/items/ [post]
func (h *Handler) CreateItem(c echo.Context) error {
	var in inventory.ItemInput
	if err := bindJSON(c, &in); err != nil {
		return handleError(c, err)
	}

	item, err := h.items.Create(c.Request().Context(), in)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusCreated, item)
}

// GetItem handles GET /api/items/:id/
//
// @Summary      Retrieve an item
// @Tags         items
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Item ID"
// @Success      200  {object}  core.Item
// @Failure      401  {object}  core.APIError
// @Failure      404  {object}  core.APIError
// @Router       /api/items/{id}/ [get]
func (h *Handler) GetItem(c echo.Context) error {
	id, err := itemID(c)
	if err != nil {
		return handleError(c, err)
	}

	item, err := h.items.Get(c.Request().Context(), id)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

// ReplaceItem handles PUT /api/items/:id/
//
// @Summary      Replace an item
// @Tags         items
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                  true  "Item ID"
// @Param        item  body      inventory.ItemInput  true  "Item fields"
// @Success      200   {object}  core.Item
// @Failure      400   {object}  core.APIError
// @Failure      403   {object}  core.APIError
// @Failure      404   {object}  core.APIError
// @Router       /api/items/{id}/ [put]
func (h *Handler) ReplaceItem(c echo.Context) error {
	id, err := itemID(c)
	if err != nil {
		return handleError(c, err)
	}

	var in inventory.ItemInput
	if err := bindJSON(c, &in); err != nil {
		return handleError(c, err)
	}

	item, err := h.items.Replace(c.Request().Context(), id, in)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

// PatchItem handles PATCH /api/items/:id/
//
// @Summary      Partially update an item
// @Tags         items
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                  true  "Item ID"
// @Param        item  body      inventory.ItemPatch  true  "Fields to change"
// @Success      200   {object}  core.Item
// @Failure      400   {object}  core.APIError
// @Failure      403   {object}  core.APIError
// @Failure      404   {object}  core.APIError
// @Router       /api/items/{id}/ [patch]
func (h *Handler) PatchItem(c echo.Context) error {
	id, err := itemID(c)
	if err != nil {
		return handleError(c, err)
	}

	var patch inventory.ItemPatch
	if err := bindJSON(c, &patch); err != nil {
		return handleError(c, err)
	}

	item, err := h.items.Patch(c.Request().Context(), id, patch)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

// DeleteItem handles DELETE /api/items/:id/
//
// @Summary      Delete an item
// @Tags         items
// @Security     BearerAuth
// @Param        id   path  int  true  "Item ID"
// @Success      204  "Deleted"
// @Failure      403  {object}  core.APIError
// @Failure      404  {object}  core.APIError
// @Router       /api/items/{id}/ [delete]
func (h *Handler) DeleteItem(c echo.Context) error {
	id, err := itemID(c)
	if err != nil {
		return handleError(c, err)
	}

	if err := h.items.Delete(c.Request().Context(), id); err != nil {
		return handleError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// LowStockItems handles GET /api/items/low-stock/
//
// @Summary      List items running low on stock
// @Tags         items
// @Produce      json
// @Security     BearerAuth
// @Param        threshold  query     int  false  "Quantity below which an item is low (default 10)"
// @Success      200  {array}   inventory.LowStockItem
// @Failure      400  {object}  core.APIError
// @Failure      401  {object}  core.APIError
// @Router       /api/items/low-stock/ [get]
func (h *Handler) LowStockItems(c echo.Context) error {
	threshold := inventory.DefaultLowStockThreshold
	if raw := strings.TrimSpace(c.QueryParam("threshold")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return handleError(c, core.NewValidationError(map[string]string{
				"threshold": "A valid positive integer is required.",
			}))
		}
		threshold = n
	}

	items, err := h.items.LowStock(c.Request().Context(), threshold)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// itemID parses the :id path parameter. Anything that is not a positive
// integer cannot name an item and is reported as not found.
func itemID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.NewNotFoundError("Not found.")
	}
	return id, nil
}
