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

const userCacheTTL = 5 * time.Minute

// UserService exposes administrative user operations.
type UserService interface {
	GetUser(ctx context.Context, id uint) (*model.User, error)
	ListUsers(ctx context.Context, offset, limit int) ([]model.User, int64, error)
	UpdateRole(ctx context.Context, id uint, role model.Role) (*model.User, error)
	DeleteUser(ctx context.Context, id uint) error
}

type userService struct {
	repo  repository.UserRepository
	cache *cache.Client
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, cache *cache.Client) UserService {
	return &userService{repo: repo, cache: cache}
}

func (s *userService) cacheKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

func (s *userService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.User
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}

	if payload, err := json.Marshal(user); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, userCacheTTL)
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, offset, limit int) ([]model.User, int64, error) {
	return s.repo.List(ctx, offset, limit)
}

// UpdateRole changes a user's role; administrative action only, enforced at
// the route layer.
func (s *userService) UpdateRole(ctx context.Context, id uint, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, apperrors.ErrInvalidRole
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}

	if err := s.repo.UpdateRole(ctx, id, role); err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))

	return s.repo.FindByID(ctx, id)
}

// DeleteUser removes a user; their reviews go with them via the cascade.
func (s *userService) DeleteUser(ctx context.Context, id uint) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return nil
}
