package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"bookstack/internal/model"
	"bookstack/internal/repository"
	"bookstack/internal/service"
)

// BookHandler handles catalog endpoints.
type BookHandler struct {
	bookService service.BookService
}

// NewBookHandler creates a new book handler.
func NewBookHandler(bookService service.BookService) *BookHandler {
	return &BookHandler{bookService: bookService}
}

// BookRequest represents a book creation request.
type BookRequest struct {
	Title         string `json:"title" validate:"required,max=255"`
	Author        string `json:"author" validate:"required,max=255"`
	Genre         string `json:"genre" validate:"required,max=100"`
	YearPublished *int   `json:"year_published"`
	Summary       string `json:"summary"`
}

// BookUpdateRequest represents a partial book update; absent fields are kept.
type BookUpdateRequest struct {
	Title         *string `json:"title" validate:"omitempty,max=255"`
	Author        *string `json:"author" validate:"omitempty,max=255"`
	Genre         *string `json:"genre" validate:"omitempty,max=100"`
	YearPublished *int    `json:"year_published"`
	Summary       *string `json:"summary"`
}

// CreateBook godoc
// @Summary Create a book
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BookRequest true "Book payload"
// @Success 201 {object} model.Book
// @Failure 400 {object} errors.ErrorResponse
// @Router /books [post]
func (h *BookHandler) CreateBook(c echo.Context) error {
	var req BookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	book, err := h.bookService.CreateBook(c.Request().Context(), &model.Book{
		Title:         req.Title,
		Author:        req.Author,
		Genre:         req.Genre,
		YearPublished: req.YearPublished,
		Summary:       req.Summary,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, book)
}

// ListBooks godoc
// @Summary List books with optional genre/author filters
// @Tags books
// @Produce json
// @Param skip query int false "Records to skip"
// @Param limit query int false "Page size"
// @Param genre query string false "Genre filter"
// @Param author query string false "Author filter"
// @Success 200 {object} PaginatedResponse
// @Router /books [get]
func (h *BookHandler) ListBooks(c echo.Context) error {
	skip, limit := parsePagination(c)
	filter := repository.BookFilter{
		Genre:  c.QueryParam("genre"),
		Author: c.QueryParam("author"),
	}

	books, total, err := h.bookService.ListBooks(c.Request().Context(), filter, skip, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, paginated(books, total, skip, limit))
}

// GetBook godoc
// @Summary Get a book by id with its reviews
// @Tags books
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} model.Book
// @Failure 404 {object} errors.ErrorResponse
// @Router /books/{id} [get]
func (h *BookHandler) GetBook(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	book, err := h.bookService.GetBook(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, book)
}

// UpdateBook godoc
// @Summary Update a book
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param request body BookUpdateRequest true "Fields to update"
// @Success 200 {object} model.Book
// @Failure 404 {object} errors.ErrorResponse
// @Router /books/{id} [put]
func (h *BookHandler) UpdateBook(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req BookUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	book, err := h.bookService.UpdateBook(c.Request().Context(), id, service.BookUpdate{
		Title:         req.Title,
		Author:        req.Author,
		Genre:         req.Genre,
		YearPublished: req.YearPublished,
		Summary:       req.Summary,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, book)
}

// DeleteBook godoc
// @Summary Delete a book and its reviews
// @Tags books
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /books/{id} [delete]
func (h *BookHandler) DeleteBook(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.bookService.DeleteBook(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// SearchBooks godoc
// @Summary Search books by title or author substring
// @Tags books
// @Produce json
// @Param query path string true "Search query"
// @Param skip query int false "Records to skip"
// @Param limit query int false "Page size"
// @Success 200 {object} PaginatedResponse
// @Router /books/search/{query} [get]
func (h *BookHandler) SearchBooks(c echo.Context) error {
	query := c.Param("query")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "empty search query")
	}

	skip, limit := parsePagination(c)
	books, total, err := h.bookService.SearchBooks(c.Request().Context(), query, skip, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, paginated(books, total, skip, limit))
}
