package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"bookstack/internal/cache"
	apperrors "bookstack/internal/errors"
	"bookstack/internal/llm"
	"bookstack/internal/model"
	"bookstack/internal/repository"
)

const (
	popularCacheKey   = "recommendations:popular"
	popularCacheTTL   = 5 * time.Minute
	popularMinReviews = 2
	favoriteMinRating = 4.0
	promptBookLimit   = 100
)

// RecommendationService produces book recommendations, with and without
// the hosted LLM.
type RecommendationService interface {
	ByGenre(ctx context.Context, genre string, limit int) ([]model.Book, error)
	Popular(ctx context.Context, limit int) ([]model.Book, error)
	Similar(ctx context.Context, bookID uint, limit int) (*model.Book, []model.Book, error)
	ForUser(ctx context.Context, userID uint, limit int) ([]model.Book, error)
	WithLLM(ctx context.Context, preferences string, limit int) ([]model.Book, string, error)
}

type recommendationService struct {
	bookRepo  repository.BookRepository
	generator llm.Generator
	cache     *cache.Client
}

// NewRecommendationService builds a RecommendationService.
func NewRecommendationService(bookRepo repository.BookRepository, generator llm.Generator, cache *cache.Client) RecommendationService {
	return &recommendationService{
		bookRepo:  bookRepo,
		generator: generator,
		cache:     cache,
	}
}

func (s *recommendationService) ByGenre(ctx context.Context, genre string, limit int) ([]model.Book, error) {
	return s.bookRepo.ByGenre(ctx, genre, limit, nil)
}

// Popular returns books ordered by mean rating, requiring at least two
// reviews. Results are cached briefly since the ordering changes slowly.
func (s *recommendationService) Popular(ctx context.Context, limit int) ([]model.Book, error) {
	cacheKey := fmt.Sprintf("%s:%d", popularCacheKey, limit)
	if data, _ := s.cache.Get(ctx, cacheKey); data != nil {
		var cached []model.Book
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	books, err := s.bookRepo.Popular(ctx, limit, popularMinReviews)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(books); err == nil {
		_ = s.cache.Set(ctx, cacheKey, payload, popularCacheTTL)
	}
	return books, nil
}

// Similar returns books sharing the reference book's genre.
func (s *recommendationService) Similar(ctx context.Context, bookID uint, limit int) (*model.Book, []model.Book, error) {
	book, err := s.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.ErrBookNotFound
		}
		return nil, nil, err
	}

	books, err := s.bookRepo.ByGenre(ctx, book.Genre, limit, []uint{bookID})
	if err != nil {
		return nil, nil, err
	}
	return book, books, nil
}

// ForUser recommends from the genres the user has rated highly, falling
// back to popular books for users with no positive review history.
func (s *recommendationService) ForUser(ctx context.Context, userID uint, limit int) ([]model.Book, error) {
	genres, err := s.bookRepo.FavoriteGenres(ctx, userID, favoriteMinRating, 3)
	if err != nil {
		return nil, err
	}
	if len(genres) == 0 {
		return s.Popular(ctx, limit)
	}

	perGenre := limit/len(genres) + 1
	seen := make(map[uint]bool)
	var recommendations []model.Book
	for _, genre := range genres {
		books, err := s.bookRepo.ByGenre(ctx, genre, perGenre, nil)
		if err != nil {
			return nil, err
		}
		for _, book := range books {
			if seen[book.ID] {
				continue
			}
			seen[book.ID] = true
			recommendations = append(recommendations, book)
			if len(recommendations) >= limit {
				return recommendations, nil
			}
		}
	}
	return recommendations, nil
}

// WithLLM asks the model to reason over the catalog against the stated
// preferences. On provider failure it degrades to the popularity sort and
// reports the failure alongside the fallback.
func (s *recommendationService) WithLLM(ctx context.Context, preferences string, limit int) ([]model.Book, string, error) {
	available, err := s.bookRepo.ListAll(ctx, promptBookLimit)
	if err != nil {
		return nil, "", err
	}

	infos := make([]llm.BookInfo, 0, len(available))
	for _, book := range available {
		avg, _ := book.AverageRating()
		infos = append(infos, llm.BookInfo{
			ID:            book.ID,
			Title:         book.Title,
			Author:        book.Author,
			Genre:         book.Genre,
			AverageRating: avg,
		})
	}

	reasoning, err := s.generator.GenerateRecommendations(ctx, preferences, infos, limit)
	if err != nil {
		fallback, ferr := s.Popular(ctx, limit)
		if ferr != nil {
			return nil, "", ferr
		}
		return fallback, "", fmt.Errorf("%w: fell back to popularity sort", apperrors.ErrLLMUnavailable)
	}

	if len(available) > limit {
		available = available[:limit]
	}
	return available, reasoning, nil
}
