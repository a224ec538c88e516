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
	"bookstack/internal/model"
	"bookstack/internal/repository"
)

const bookCacheTTL = 5 * time.Minute

// BookUpdate carries the mutable book fields; nil means "leave unchanged".
type BookUpdate struct {
	Title         *string
	Author        *string
	Genre         *string
	YearPublished *int
	Summary       *string
}

// BookService exposes catalog operations.
type BookService interface {
	CreateBook(ctx context.Context, book *model.Book) (*model.Book, error)
	GetBook(ctx context.Context, id uint) (*model.Book, error)
	ListBooks(ctx context.Context, filter repository.BookFilter, offset, limit int) ([]model.Book, int64, error)
	SearchBooks(ctx context.Context, query string, offset, limit int) ([]model.Book, int64, error)
	UpdateBook(ctx context.Context, id uint, update BookUpdate) (*model.Book, error)
	DeleteBook(ctx context.Context, id uint) error
}

type bookService struct {
	repo  repository.BookRepository
	cache *cache.Client
}

// NewBookService builds a BookService with repository and cache.
func NewBookService(repo repository.BookRepository, cache *cache.Client) BookService {
	return &bookService{repo: repo, cache: cache}
}

func bookCacheKey(id uint) string {
	return fmt.Sprintf("book:%d", id)
}

func (s *bookService) CreateBook(ctx context.Context, book *model.Book) (*model.Book, error) {
	if err := s.repo.Create(ctx, book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}
	return book, nil
}

// GetBook returns a book with its reviews loaded.
func (s *bookService) GetBook(ctx context.Context, id uint) (*model.Book, error) {
	if data, _ := s.cache.Get(ctx, bookCacheKey(id)); data != nil {
		var cached model.Book
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBookNotFound
		}
		return nil, err
	}

	if payload, err := json.Marshal(book); err == nil {
		_ = s.cache.Set(ctx, bookCacheKey(id), payload, bookCacheTTL)
	}
	return book, nil
}

func (s *bookService) ListBooks(ctx context.Context, filter repository.BookFilter, offset, limit int) ([]model.Book, int64, error) {
	return s.repo.List(ctx, filter, offset, limit)
}

func (s *bookService) SearchBooks(ctx context.Context, query string, offset, limit int) ([]model.Book, int64, error) {
	return s.repo.Search(ctx, query, offset, limit)
}

// UpdateBook applies only the provided fields.
func (s *bookService) UpdateBook(ctx context.Context, id uint, update BookUpdate) (*model.Book, error) {
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBookNotFound
		}
		return nil, err
	}

	if update.Title != nil {
		book.Title = *update.Title
	}
	if update.Author != nil {
		book.Author = *update.Author
	}
	if update.Genre != nil {
		book.Genre = *update.Genre
	}
	if update.YearPublished != nil {
		book.YearPublished = update.YearPublished
	}
	if update.Summary != nil {
		book.Summary = *update.Summary
	}

	if err := s.repo.Update(ctx, book); err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}
	_ = s.cache.Delete(ctx, bookCacheKey(id))

	return book, nil
}

// DeleteBook removes a book and cascades to its reviews.
func (s *bookService) DeleteBook(ctx context.Context, id uint) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrBookNotFound
		}
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	_ = s.cache.Delete(ctx, bookCacheKey(id))
	return nil
}
