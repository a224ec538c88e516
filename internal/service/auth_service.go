package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"bookstack/internal/auth"
	apperrors "bookstack/internal/errors"
	"bookstack/internal/model"
	"bookstack/internal/repository"
)

// AuthService handles registration, login and the token lifecycle.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*model.User, error)
	Login(ctx context.Context, username, password string) (accessToken, refreshToken string, user *model.User, err error)
	Refresh(ctx context.Context, refreshToken string) (accessToken string, err error)
	Logout(ctx context.Context, refreshToken string) error
	CurrentUser(ctx context.Context, userID uint) (*model.User, error)
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		tokenStore: tokenStore,
	}
}

// Register creates a new user with hashed password and the default role.
// The password policy is enforced before any hashing occurs.
func (s *authService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	if err := auth.ValidatePassword(password); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, fmt.Errorf("check user existence: %w", err)
	}
	if exists {
		return nil, apperrors.ErrUserAlreadyExists
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
		Role:         model.RoleUser,
		IsActive:     true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// Login authenticates a user and returns access and refresh tokens.
func (s *authService) Login(ctx context.Context, username, password string) (string, string, *model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil || !user.IsActive {
		return "", "", nil, apperrors.ErrInvalidCredentials
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return "", "", nil, apperrors.ErrInvalidCredentials
	}

	accessToken, refreshToken, err := s.jwtService.IssueTokens(user)
	if err != nil {
		return "", "", nil, fmt.Errorf("issue tokens: %w", err)
	}

	return accessToken, refreshToken, user, nil
}

// Refresh validates a refresh token and returns a new access token.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwtService.VerifyToken(refreshToken)
	if err != nil {
		return "", apperrors.ErrInvalidToken
	}
	if claims.Kind != auth.TokenKindRefresh {
		return "", apperrors.ErrInvalidToken
	}

	if claims.ID != "" {
		denied, _ := s.tokenStore.IsRefreshTokenDenied(ctx, claims.ID)
		if denied {
			return "", apperrors.ErrInvalidToken
		}
	}

	userID, err := claims.UserID()
	if err != nil {
		return "", apperrors.ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil || !user.IsActive {
		return "", apperrors.ErrInvalidToken
	}

	accessToken, err := s.jwtService.IssueAccessToken(user)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}

	return accessToken, nil
}

// Logout denylists the refresh token until its natural expiry. Access tokens
// remain valid until they expire; that is the accepted stateless trade-off.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.jwtService.VerifyToken(refreshToken)
	if err != nil || claims.Kind != auth.TokenKindRefresh || claims.ID == "" {
		return apperrors.ErrInvalidToken
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return s.tokenStore.DenyRefreshToken(ctx, claims.ID, ttl)
}

// CurrentUser loads the profile behind a verified token subject.
func (s *authService) CurrentUser(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
