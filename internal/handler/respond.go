package handler

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"bookstack/internal/auth"
	apperrors "bookstack/internal/errors"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// PaginatedResponse is the envelope for all list endpoints.
type PaginatedResponse struct {
	Items      interface{} `json:"items"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

func paginated(items interface{}, total int64, skip, limit int) PaginatedResponse {
	page, totalPages := 1, 1
	if limit > 0 {
		page = skip/limit + 1
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return PaginatedResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   limit,
		TotalPages: totalPages,
	}
}

// parsePagination reads skip/limit query parameters with bounds applied.
func parsePagination(c echo.Context) (skip, limit int) {
	skip = 0
	limit = defaultPageSize
	if v, err := strconv.Atoi(c.QueryParam("skip")); err == nil && v >= 0 {
		skip = v
	}
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v >= 1 {
		limit = v
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return skip, limit
}

// respondError maps a domain error onto the HTTP taxonomy.
func respondError(c echo.Context, err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	return c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
}

// currentClaims extracts the verified token claims set by the JWT middleware.
func currentClaims(c echo.Context) (*auth.Claims, error) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return nil, apperrors.ErrInvalidToken
	}
	claims, ok := token.Claims.(*auth.Claims)
	if !ok {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}

// currentUserID extracts the caller's user id from the token claims.
func currentUserID(c echo.Context) (uint, error) {
	claims, err := currentClaims(c)
	if err != nil {
		return 0, err
	}
	return claims.UserID()
}

func pathID(c echo.Context, name string) (uint, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id < 1 {
		return 0, false
	}
	return uint(id), true
}
