package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"bookstack/internal/service"
)

// ReviewHandler handles review endpoints.
type ReviewHandler struct {
	reviewService service.ReviewService
}

// NewReviewHandler creates a new review handler.
func NewReviewHandler(reviewService service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// ReviewRequest represents a review creation request.
type ReviewRequest struct {
	ReviewText string  `json:"review_text" validate:"required,max=5000"`
	Rating     float64 `json:"rating" validate:"required,gte=1,lte=5"`
}

// ReviewUpdateRequest represents a partial review update.
type ReviewUpdateRequest struct {
	ReviewText *string  `json:"review_text" validate:"omitempty,max=5000"`
	Rating     *float64 `json:"rating" validate:"omitempty,gte=1,lte=5"`
}

// CreateReview godoc
// @Summary Create a review for a book
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param request body ReviewRequest true "Review payload"
// @Success 201 {object} model.Review
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /books/{id}/reviews [post]
func (h *ReviewHandler) CreateReview(c echo.Context) error {
	bookID, ok := pathID(c, "id")
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, err)
	}

	var req ReviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	review, err := h.reviewService.CreateReview(c.Request().Context(), bookID, userID, req.ReviewText, req.Rating)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, review)
}

// ListReviews godoc
// @Summary List reviews for a book
// @Tags reviews
// @Produce json
// @Param id path int true "Book ID"
// @Param skip query int false "Records to skip"
// @Param limit query int false "Page size"
// @Success 200 {object} PaginatedResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /books/{id}/reviews [get]
func (h *ReviewHandler) ListReviews(c echo.Context) error {
	bookID, ok := pathID(c, "id")
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	skip, limit := parsePagination(c)
	reviews, total, err := h.reviewService.ListByBook(c.Request().Context(), bookID, skip, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, paginated(reviews, total, skip, limit))
}

// UpdateReview godoc
// @Summary Update a review (owner or admin)
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Param request body ReviewUpdateRequest true "Fields to update"
// @Success 200 {object} model.Review
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /books/reviews/{id} [put]
func (h *ReviewHandler) UpdateReview(c echo.Context) error {
	reviewID, ok := pathID(c, "id")
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	claims, err := currentClaims(c)
	if err != nil {
		return respondError(c, err)
	}
	actorID, err := claims.UserID()
	if err != nil {
		return respondError(c, err)
	}

	var req ReviewUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	review, err := h.reviewService.UpdateReview(c.Request().Context(), reviewID, actorID, claims.Role, service.ReviewUpdate{
		ReviewText: req.ReviewText,
		Rating:     req.Rating,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, review)
}

// DeleteReview godoc
// @Summary Delete a review (owner or admin)
// @Tags reviews
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /books/reviews/{id} [delete]
func (h *ReviewHandler) DeleteReview(c echo.Context) error {
	reviewID, ok := pathID(c, "id")
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	claims, err := currentClaims(c)
	if err != nil {
		return respondError(c, err)
	}
	actorID, err := claims.UserID()
	if err != nil {
		return respondError(c, err)
	}

	if err := h.reviewService.DeleteReview(c.Request().Context(), reviewID, actorID, claims.Role); err != nil {
		return respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// BookSummary godoc
// @Summary Aggregated review summary for a book
// @Tags reviews
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} service.ReviewSummary
// @Failure 404 {object} errors.ErrorResponse
// @Router /books/{id}/summary [get]
func (h *ReviewHandler) BookSummary(c echo.Context) error {
	bookID, ok := pathID(c, "id")
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	summary, err := h.reviewService.BookSummary(c.Request().Context(), bookID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, summary)
}
