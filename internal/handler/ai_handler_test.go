package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "bookstack/internal/errors"
	"bookstack/internal/handler"
	"bookstack/internal/model"
)

// seedCatalog creates a small catalog with enough reviews for the
// popularity sort: Dune averages 5.0, Hobbit 3.0, Emma has a single review
// and stays below the popularity threshold.
func seedCatalog(t *testing.T, env *testEnv, reviewer uint) (dune, hobbit, emma *model.Book) {
	t.Helper()
	dune = env.createBook(t, "Dune", "Frank Herbert", "Science Fiction")
	hobbit = env.createBook(t, "The Hobbit", "J.R.R. Tolkien", "Fantasy")
	emma = env.createBook(t, "Emma", "Jane Austen", "Romance")

	env.createReview(t, dune.ID, reviewer, 5)
	env.createReview(t, dune.ID, reviewer, 5)
	env.createReview(t, hobbit.ID, reviewer, 3)
	env.createReview(t, hobbit.ID, reviewer, 3)
	env.createReview(t, emma.ID, reviewer, 5)
	return dune, hobbit, emma
}

func recommendationIDs(resp handler.RecommendationResponse) []uint {
	ids := make([]uint, 0, len(resp.Recommendations))
	for _, b := range resp.Recommendations {
		ids = append(ids, b.ID)
	}
	return ids
}

func TestPopularRecommendations(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.createUser(t, "alice", model.RoleUser)
	dune, hobbit, _ := seedCatalog(t, env, user.ID)

	rec := env.request(t, http.MethodGet, "/ai/recommendations/popular", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp handler.RecommendationResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "popular by average rating", resp.Criteria)
	assert.Equal(t, []uint{dune.ID, hobbit.ID}, recommendationIDs(resp),
		"ordered by mean rating, single-review books excluded")
}

func TestRecommendationsByGenre(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.createUser(t, "alice", model.RoleUser)
	_, hobbit, _ := seedCatalog(t, env, user.ID)

	rec := env.request(t, http.MethodGet, "/ai/recommendations/genre/Fantasy", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handler.RecommendationResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Fantasy", resp.Genre)
	assert.Equal(t, []uint{hobbit.ID}, recommendationIDs(resp))
}

func TestSimilarRecommendations(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.createUser(t, "alice", model.RoleUser)
	dune, _, _ := seedCatalog(t, env, user.ID)
	sequel := env.createBook(t, "Dune Messiah", "Frank Herbert", "Science Fiction")

	rec := env.request(t, http.MethodGet, path("/ai/recommendations/similar/%d", dune.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp handler.RecommendationResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Dune", resp.ReferenceBook)
	assert.Equal(t, []uint{sequel.ID}, recommendationIDs(resp), "the reference book itself is excluded")

	rec = env.request(t, http.MethodGet, "/ai/recommendations/similar/9999", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecommendationStrategies(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.createUser(t, "alice", model.RoleUser)
	dune, hobbit, emma := seedCatalog(t, env, user.ID)

	t.Run("default popular", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/ai/recommendations", token, handler.RecommendationRequest{})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp handler.RecommendationResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, "popular", resp.Criteria)
		assert.Equal(t, []uint{dune.ID, hobbit.ID}, recommendationIDs(resp))
	})

	t.Run("genre", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/ai/recommendations", token, handler.RecommendationRequest{
			Genre: "Romance",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp handler.RecommendationResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, "genre: Romance", resp.Criteria)
		assert.Equal(t, []uint{emma.ID}, recommendationIDs(resp))
	})

	t.Run("review history", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/ai/recommendations", token, handler.RecommendationRequest{
			UserID:         user.ID,
			BasedOnReviews: true,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp handler.RecommendationResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, "review history", resp.Criteria)
		// alice rated Dune and Emma highly, so their genres drive the result
		assert.NotEmpty(t, resp.Recommendations)
		for _, b := range resp.Recommendations {
			assert.Contains(t, []string{"Science Fiction", "Romance"}, b.Genre)
		}
	})

	t.Run("llm preferences", func(t *testing.T) {
		env.gen.recommendations = "Dune suits epic worldbuilding fans."
		env.gen.err = nil

		rec := env.request(t, http.MethodPost, "/ai/recommendations", token, handler.RecommendationRequest{
			Preferences: "epic worldbuilding",
			Limit:       2,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp handler.RecommendationResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, "llm preferences", resp.Criteria)
		assert.Equal(t, "Dune suits epic worldbuilding fans.", resp.Reasoning)
		assert.Len(t, resp.Recommendations, 2)
	})

	t.Run("llm failure degrades to popular", func(t *testing.T) {
		env.gen.err = fmt.Errorf("%w: provider returned status 500", apperrors.ErrLLMUnavailable)
		defer func() { env.gen.err = nil }()

		rec := env.request(t, http.MethodPost, "/ai/recommendations", token, handler.RecommendationRequest{
			Preferences: "epic worldbuilding",
		})
		require.Equal(t, http.StatusOK, rec.Code, "preference recommendations degrade instead of failing")

		var resp handler.RecommendationResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, "popular (llm unavailable)", resp.Criteria)
		assert.Empty(t, resp.Reasoning)
		assert.Equal(t, []uint{dune.ID, hobbit.ID}, recommendationIDs(resp))
	})

	t.Run("limit bounds", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/ai/recommendations", token, handler.RecommendationRequest{
			Limit: 50,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGenerateSummary(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser(t, "alice", model.RoleUser)

	req := handler.SummaryRequest{
		Title:   "Dune",
		Author:  "Frank Herbert",
		Content: "A desert planet, a noble house, and a prophecy.",
	}

	t.Run("success", func(t *testing.T) {
		env.gen.summary = "A saga of politics and prophecy on a desert world."
		env.gen.err = nil

		rec := env.request(t, http.MethodPost, "/ai/generate-summary", token, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp handler.SummaryResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, "A saga of politics and prophecy on a desert world.", resp.Summary)
		assert.False(t, resp.GeneratedAt.IsZero())
	})

	t.Run("provider failure surfaces as 503", func(t *testing.T) {
		env.gen.err = fmt.Errorf("%w: provider returned status 500", apperrors.ErrLLMUnavailable)
		defer func() { env.gen.err = nil }()

		rec := env.request(t, http.MethodPost, "/ai/generate-summary", token, req)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, rec.Body.String())
	})

	t.Run("content too short", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/ai/generate-summary", token, handler.SummaryRequest{
			Title:   "Dune",
			Author:  "Frank Herbert",
			Content: "short",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
