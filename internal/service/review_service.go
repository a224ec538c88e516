package service

import (
	"context"
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

// ReviewUpdate carries the mutable review fields; nil means "leave unchanged".
type ReviewUpdate struct {
	ReviewText *string
	Rating     *float64
}

// ReviewSummary aggregates a book's reviews with generated prose.
type ReviewSummary struct {
	BookID        uint      `json:"book_id"`
	BookTitle     string    `json:"book_title"`
	TotalReviews  int64     `json:"total_reviews"`
	AverageRating float64   `json:"average_rating"`
	Summary       string    `json:"summary"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// ReviewService exposes review operations including ownership checks.
type ReviewService interface {
	CreateReview(ctx context.Context, bookID, userID uint, text string, rating float64) (*model.Review, error)
	ListByBook(ctx context.Context, bookID uint, offset, limit int) ([]model.Review, int64, error)
	UpdateReview(ctx context.Context, reviewID, actorID uint, actorRole model.Role, update ReviewUpdate) (*model.Review, error)
	DeleteReview(ctx context.Context, reviewID, actorID uint, actorRole model.Role) error
	BookSummary(ctx context.Context, bookID uint) (*ReviewSummary, error)
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	bookRepo   repository.BookRepository
	generator  llm.Generator
	cache      *cache.Client
}

// NewReviewService builds a ReviewService.
func NewReviewService(reviewRepo repository.ReviewRepository, bookRepo repository.BookRepository, generator llm.Generator, cache *cache.Client) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		bookRepo:   bookRepo,
		generator:  generator,
		cache:      cache,
	}
}

func validRating(rating float64) bool {
	return rating >= 1 && rating <= 5
}

// CreateReview adds a review after checking the book exists and the rating
// is in bounds.
func (s *reviewService) CreateReview(ctx context.Context, bookID, userID uint, text string, rating float64) (*model.Review, error) {
	if !validRating(rating) {
		return nil, apperrors.ErrInvalidRating
	}

	if _, err := s.bookRepo.FindByID(ctx, bookID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBookNotFound
		}
		return nil, err
	}

	review := &model.Review{
		BookID:     bookID,
		UserID:     userID,
		ReviewText: text,
		Rating:     rating,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	_ = s.cache.Delete(ctx, bookCacheKey(bookID))

	return review, nil
}

func (s *reviewService) ListByBook(ctx context.Context, bookID uint, offset, limit int) ([]model.Review, int64, error) {
	if _, err := s.bookRepo.FindByID(ctx, bookID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, apperrors.ErrBookNotFound
		}
		return nil, 0, err
	}
	return s.reviewRepo.ListByBook(ctx, bookID, offset, limit)
}

// UpdateReview applies the provided fields after the ownership check.
// Admins may edit any review.
func (s *reviewService) UpdateReview(ctx context.Context, reviewID, actorID uint, actorRole model.Role, update ReviewUpdate) (*model.Review, error) {
	review, err := s.findOwned(ctx, reviewID, actorID, actorRole)
	if err != nil {
		return nil, err
	}

	if update.Rating != nil {
		if !validRating(*update.Rating) {
			return nil, apperrors.ErrInvalidRating
		}
		review.Rating = *update.Rating
	}
	if update.ReviewText != nil {
		review.ReviewText = *update.ReviewText
	}

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	_ = s.cache.Delete(ctx, bookCacheKey(review.BookID))

	return review, nil
}

// DeleteReview removes a review after the ownership check.
func (s *reviewService) DeleteReview(ctx context.Context, reviewID, actorID uint, actorRole model.Role) error {
	review, err := s.findOwned(ctx, reviewID, actorID, actorRole)
	if err != nil {
		return err
	}

	if err := s.reviewRepo.Delete(ctx, reviewID); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	_ = s.cache.Delete(ctx, bookCacheKey(review.BookID))
	return nil
}

func (s *reviewService) findOwned(ctx context.Context, reviewID, actorID uint, actorRole model.Role) (*model.Review, error) {
	review, err := s.reviewRepo.FindByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrReviewNotFound
		}
		return nil, err
	}
	if review.UserID != actorID && actorRole != model.RoleAdmin {
		return nil, apperrors.ErrNotReviewOwner
	}
	return review, nil
}

// BookSummary aggregates the mean rating and asks the LLM for prose. When
// the provider is unreachable a deterministic fallback is substituted, so
// the endpoint never blocks on the LLM.
func (s *reviewService) BookSummary(ctx context.Context, bookID uint) (*ReviewSummary, error) {
	book, err := s.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBookNotFound
		}
		return nil, err
	}

	avgRating, total, err := s.reviewRepo.RatingSummary(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("rating summary: %w", err)
	}

	summary := "No reviews available for this book yet."
	if total > 0 {
		reviews, _, err := s.reviewRepo.ListByBook(ctx, bookID, 0, 5)
		if err != nil {
			return nil, fmt.Errorf("list reviews: %w", err)
		}
		texts := make([]string, 0, len(reviews))
		for _, r := range reviews {
			texts = append(texts, r.ReviewText)
		}

		summary, err = s.generator.GenerateReviewSummary(ctx, book.Title, texts, avgRating)
		if err != nil {
			summary = fmt.Sprintf("Book has %d reviews with an average rating of %.1f/5.", total, avgRating)
		}
	}

	return &ReviewSummary{
		BookID:        bookID,
		BookTitle:     book.Title,
		TotalReviews:  total,
		AverageRating: avgRating,
		Summary:       summary,
		GeneratedAt:   time.Now().UTC(),
	}, nil
}
