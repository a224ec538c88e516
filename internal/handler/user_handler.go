package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"bookstack/internal/model"
	"bookstack/internal/service"
)

// UserHandler bundles administrative user endpoints.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// RoleUpdateRequest changes a user's role.
type RoleUpdateRequest struct {
	Role model.Role `json:"role" validate:"required"`
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param skip query int false "Records to skip"
// @Param limit query int false "Page size"
// @Success 200 {object} PaginatedResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	skip, limit := parsePagination(c)
	users, total, err := h.svc.ListUsers(c.Request().Context(), skip, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, paginated(users, total, skip, limit))
}

// UpdateRole godoc
// @Summary Change a user's role
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body RoleUpdateRequest true "New role"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id}/role [put]
func (h *UserHandler) UpdateRole(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req RoleUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.svc.UpdateRole(c.Request().Context(), id, req.Role)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser godoc
// @Summary Delete a user and their reviews
// @Tags users
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.svc.DeleteUser(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
