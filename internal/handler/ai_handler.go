package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "bookstack/internal/errors"
	"bookstack/internal/llm"
	"bookstack/internal/model"
	"bookstack/internal/service"
)

const defaultRecommendationLimit = 5

// AIHandler handles LLM-backed endpoints.
type AIHandler struct {
	recService service.RecommendationService
	generator  llm.Generator
}

// NewAIHandler creates a new AI handler.
func NewAIHandler(recService service.RecommendationService, generator llm.Generator) *AIHandler {
	return &AIHandler{recService: recService, generator: generator}
}

// SummaryRequest asks for a summary of raw book content.
type SummaryRequest struct {
	Title   string `json:"title" validate:"required"`
	Author  string `json:"author" validate:"required"`
	Content string `json:"content" validate:"required,min=10"`
}

// SummaryResponse carries generated prose.
type SummaryResponse struct {
	Summary     string    `json:"summary"`
	GeneratedAt time.Time `json:"generated_at"`
}

// RecommendationRequest selects a recommendation strategy.
type RecommendationRequest struct {
	UserID         uint   `json:"user_id"`
	Genre          string `json:"genre"`
	Preferences    string `json:"preferences"`
	Limit          int    `json:"limit" validate:"omitempty,gte=1,lte=20"`
	BasedOnReviews bool   `json:"based_on_reviews"`
}

// RecommendationResponse is the common recommendation envelope.
type RecommendationResponse struct {
	Recommendations []model.Book `json:"recommendations"`
	Criteria        string       `json:"criteria"`
	Genre           string       `json:"genre,omitempty"`
	ReferenceBook   string       `json:"reference_book,omitempty"`
	Reasoning       string       `json:"reasoning,omitempty"`
	GeneratedAt     time.Time    `json:"generated_at"`
}

func limitParam(c echo.Context) int {
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v >= 1 && v <= 20 {
		return v
	}
	return defaultRecommendationLimit
}

// GenerateSummary godoc
// @Summary Generate a summary for book content
// @Tags ai
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SummaryRequest true "Content to summarize"
// @Success 200 {object} SummaryResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /ai/generate-summary [post]
func (h *AIHandler) GenerateSummary(c echo.Context) error {
	var req SummaryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	summary, err := h.generator.GenerateSummary(c.Request().Context(), req.Title, req.Author, req.Content)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, SummaryResponse{
		Summary:     summary,
		GeneratedAt: time.Now().UTC(),
	})
}

// Recommendations godoc
// @Summary Get recommendations by preference, history, or genre
// @Tags ai
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RecommendationRequest true "Recommendation criteria"
// @Success 200 {object} RecommendationResponse
// @Router /ai/recommendations [post]
func (h *AIHandler) Recommendations(c echo.Context) error {
	var req RecommendationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Limit == 0 {
		req.Limit = defaultRecommendationLimit
	}

	ctx := c.Request().Context()
	resp := RecommendationResponse{GeneratedAt: time.Now().UTC()}

	switch {
	case req.BasedOnReviews && req.UserID != 0:
		books, err := h.recService.ForUser(ctx, req.UserID, req.Limit)
		if err != nil {
			return respondError(c, err)
		}
		resp.Recommendations = books
		resp.Criteria = "review history"
	case req.Genre != "":
		books, err := h.recService.ByGenre(ctx, req.Genre, req.Limit)
		if err != nil {
			return respondError(c, err)
		}
		resp.Recommendations = books
		resp.Criteria = "genre: " + req.Genre
	case req.Preferences != "":
		books, reasoning, err := h.recService.WithLLM(ctx, req.Preferences, req.Limit)
		if err != nil {
			if !errors.Is(err, apperrors.ErrLLMUnavailable) {
				return respondError(c, err)
			}
			// degraded response: popularity sort substitutes for the LLM
			resp.Recommendations = books
			resp.Criteria = "popular (llm unavailable)"
			break
		}
		resp.Recommendations = books
		resp.Criteria = "llm preferences"
		resp.Reasoning = reasoning
	default:
		books, err := h.recService.Popular(ctx, req.Limit)
		if err != nil {
			return respondError(c, err)
		}
		resp.Recommendations = books
		resp.Criteria = "popular"
	}

	return c.JSON(http.StatusOK, resp)
}

// RecommendationsByGenre godoc
// @Summary Get recommendations for a genre
// @Tags ai
// @Produce json
// @Security BearerAuth
// @Param genre path string true "Genre"
// @Param limit query int false "Number of recommendations"
// @Success 200 {object} RecommendationResponse
// @Router /ai/recommendations/genre/{genre} [get]
func (h *AIHandler) RecommendationsByGenre(c echo.Context) error {
	genre := c.Param("genre")
	if genre == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "empty genre")
	}

	books, err := h.recService.ByGenre(c.Request().Context(), genre, limitParam(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, RecommendationResponse{
		Recommendations: books,
		Criteria:        "genre: " + genre,
		Genre:           genre,
		GeneratedAt:     time.Now().UTC(),
	})
}

// PopularRecommendations godoc
// @Summary Get popular books by average rating
// @Tags ai
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Number of recommendations"
// @Success 200 {object} RecommendationResponse
// @Router /ai/recommendations/popular [get]
func (h *AIHandler) PopularRecommendations(c echo.Context) error {
	books, err := h.recService.Popular(c.Request().Context(), limitParam(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, RecommendationResponse{
		Recommendations: books,
		Criteria:        "popular by average rating",
		GeneratedAt:     time.Now().UTC(),
	})
}

// SimilarRecommendations godoc
// @Summary Get books similar to a reference book
// @Tags ai
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reference book ID"
// @Param limit query int false "Number of recommendations"
// @Success 200 {object} RecommendationResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /ai/recommendations/similar/{id} [get]
func (h *AIHandler) SimilarRecommendations(c echo.Context) error {
	bookID, ok := pathID(c, "id")
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	reference, books, err := h.recService.Similar(c.Request().Context(), bookID, limitParam(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, RecommendationResponse{
		Recommendations: books,
		Criteria:        "same genre as reference",
		ReferenceBook:   reference.Title,
		GeneratedAt:     time.Now().UTC(),
	})
}
