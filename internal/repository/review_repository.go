package repository

import (
	"context"

	"gorm.io/gorm"

	"bookstack/internal/model"
)

// ReviewRepository defines review persistence operations.
type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	FindByID(ctx context.Context, id uint) (*model.Review, error)
	ListByBook(ctx context.Context, bookID uint, offset, limit int) ([]model.Review, int64, error)
	ListByUser(ctx context.Context, userID uint, offset, limit int) ([]model.Review, int64, error)
	Update(ctx context.Context, review *model.Review) error
	Delete(ctx context.Context, id uint) error
	RatingSummary(ctx context.Context, bookID uint) (avgRating float64, total int64, err error)
	CountByBook(ctx context.Context, bookID uint) (int64, error)
}

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository builds a GORM-backed repository.
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *reviewRepository) FindByID(ctx context.Context, id uint) (*model.Review, error) {
	var review model.Review
	if err := r.db.WithContext(ctx).First(&review, id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) ListByBook(ctx context.Context, bookID uint, offset, limit int) ([]model.Review, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Review{}).
		Where("book_id = ?", bookID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []model.Review
	if err := r.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Offset(offset).Limit(limit).
		Find(&reviews).Error; err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (r *reviewRepository) ListByUser(ctx context.Context, userID uint, offset, limit int) ([]model.Review, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Review{}).
		Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []model.Review
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Offset(offset).Limit(limit).
		Find(&reviews).Error; err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (r *reviewRepository) Update(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Save(review).Error
}

func (r *reviewRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Review{}, id).Error
}

// RatingSummary returns the mean rating and review count for a book.
func (r *reviewRepository) RatingSummary(ctx context.Context, bookID uint) (float64, int64, error) {
	var result struct {
		AvgRating    *float64
		TotalReviews int64
	}
	err := r.db.WithContext(ctx).Model(&model.Review{}).
		Select("AVG(rating) AS avg_rating, COUNT(id) AS total_reviews").
		Where("book_id = ?", bookID).
		Scan(&result).Error
	if err != nil {
		return 0, 0, err
	}
	if result.AvgRating == nil {
		return 0, result.TotalReviews, nil
	}
	return *result.AvgRating, result.TotalReviews, nil
}

func (r *reviewRepository) CountByBook(ctx context.Context, bookID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Review{}).
		Where("book_id = ?", bookID).Count(&count).Error
	return count, err
}
