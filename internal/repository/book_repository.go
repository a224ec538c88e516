package repository

import (
	"context"

	"gorm.io/gorm"

	"bookstack/internal/model"
)

// BookFilter narrows List results. Empty fields match everything.
type BookFilter struct {
	Genre  string
	Author string
}

// BookRepository defines book persistence operations.
type BookRepository interface {
	Create(ctx context.Context, book *model.Book) error
	FindByID(ctx context.Context, id uint) (*model.Book, error)
	List(ctx context.Context, filter BookFilter, offset, limit int) ([]model.Book, int64, error)
	Search(ctx context.Context, query string, offset, limit int) ([]model.Book, int64, error)
	Update(ctx context.Context, book *model.Book) error
	Delete(ctx context.Context, id uint) error
	ByGenre(ctx context.Context, genre string, limit int, excludeIDs []uint) ([]model.Book, error)
	Popular(ctx context.Context, limit, minReviews int) ([]model.Book, error)
	ListAll(ctx context.Context, limit int) ([]model.Book, error)
	FavoriteGenres(ctx context.Context, userID uint, minRating float64, limit int) ([]string, error)
}

type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository builds a GORM-backed repository.
func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(ctx context.Context, book *model.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

// FindByID loads a book with its reviews.
func (r *bookRepository) FindByID(ctx context.Context, id uint) (*model.Book, error) {
	var book model.Book
	if err := r.db.WithContext(ctx).Preload("Reviews").First(&book, id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepository) List(ctx context.Context, filter BookFilter, offset, limit int) ([]model.Book, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Book{})
	if filter.Genre != "" {
		query = query.Where("genre LIKE ?", "%"+filter.Genre+"%")
	}
	if filter.Author != "" {
		query = query.Where("author LIKE ?", "%"+filter.Author+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var books []model.Book
	if err := query.Offset(offset).Limit(limit).Find(&books).Error; err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// Search matches a substring against title or author.
func (r *bookRepository) Search(ctx context.Context, query string, offset, limit int) ([]model.Book, int64, error) {
	pattern := "%" + query + "%"
	q := r.db.WithContext(ctx).Model(&model.Book{}).
		Where("title LIKE ? OR author LIKE ?", pattern, pattern)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var books []model.Book
	if err := q.Offset(offset).Limit(limit).Find(&books).Error; err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

func (r *bookRepository) Update(ctx context.Context, book *model.Book) error {
	return r.db.WithContext(ctx).Save(book).Error
}

// Delete removes a book and, via the relational cascade, its reviews.
func (r *bookRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Select("Reviews").Delete(&model.Book{ID: id}).Error
}

func (r *bookRepository) ByGenre(ctx context.Context, genre string, limit int, excludeIDs []uint) ([]model.Book, error) {
	query := r.db.WithContext(ctx).Where("genre LIKE ?", "%"+genre+"%")
	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}

	var books []model.Book
	if err := query.Limit(limit).Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

// Popular orders books by mean review rating, requiring a minimum review count.
func (r *bookRepository) Popular(ctx context.Context, limit, minReviews int) ([]model.Book, error) {
	var books []model.Book
	err := r.db.WithContext(ctx).Model(&model.Book{}).
		Joins("JOIN reviews ON reviews.book_id = books.id").
		Group("books.id").
		Having("COUNT(reviews.id) >= ?", minReviews).
		Order("AVG(reviews.rating) DESC").
		Limit(limit).
		Find(&books).Error
	if err != nil {
		return nil, err
	}
	return books, nil
}

// ListAll returns up to limit books, used to build LLM prompts.
func (r *bookRepository) ListAll(ctx context.Context, limit int) ([]model.Book, error) {
	var books []model.Book
	if err := r.db.WithContext(ctx).Limit(limit).Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

// FavoriteGenres returns genres the user has rated at or above minRating.
func (r *bookRepository) FavoriteGenres(ctx context.Context, userID uint, minRating float64, limit int) ([]string, error) {
	var genres []string
	err := r.db.WithContext(ctx).Model(&model.Book{}).
		Joins("JOIN reviews ON reviews.book_id = books.id").
		Where("reviews.user_id = ? AND reviews.rating >= ?", userID, minRating).
		Group("books.genre").
		Limit(limit).
		Pluck("books.genre", &genres).Error
	if err != nil {
		return nil, err
	}
	return genres, nil
}
