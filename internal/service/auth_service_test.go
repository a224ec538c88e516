package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"bookstack/internal/auth"
	apperrors "bookstack/internal/errors"
	"bookstack/internal/model"
)

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	args := m.Called(ctx, username, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, offset, limit int) ([]model.User, int64, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) UpdateRole(ctx context.Context, id uint, role model.Role) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockTokenStore is a mock implementation of auth.TokenStoreInterface.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) DenyRefreshToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) IsRefreshTokenDenied(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret", 30*time.Minute, 7*24*time.Hour)
}

func activeUser(t *testing.T) *model.User {
	t.Helper()
	hashed, err := auth.HashPassword("Password1")
	require.NoError(t, err)
	return &model.User{
		ID:           7,
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: hashed,
		Role:         model.RoleUser,
		IsActive:     true,
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := NewAuthService(userRepo, newTestJWTService(), new(MockTokenStore))

		userRepo.On("ExistsByUsernameOrEmail", ctx, "alice", "alice@example.com").Return(false, nil)
		userRepo.On("Create", ctx, mock.MatchedBy(func(u *model.User) bool {
			return u.Username == "alice" &&
				u.Role == model.RoleUser &&
				u.IsActive &&
				u.PasswordHash != "Password1" &&
				u.PasswordHash != ""
		})).Return(nil)

		user, err := svc.Register(ctx, "alice", "alice@example.com", "Password1")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, model.RoleUser, user.Role)
		userRepo.AssertExpectations(t)
	})

	t.Run("weak password rejected before any repository call", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := NewAuthService(userRepo, newTestJWTService(), new(MockTokenStore))

		_, err := svc.Register(ctx, "alice", "alice@example.com", "weak")
		assert.ErrorIs(t, err, apperrors.ErrWeakPassword)
		userRepo.AssertNotCalled(t, "ExistsByUsernameOrEmail")
		userRepo.AssertNotCalled(t, "Create")
	})

	t.Run("duplicate username or email", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := NewAuthService(userRepo, newTestJWTService(), new(MockTokenStore))

		userRepo.On("ExistsByUsernameOrEmail", ctx, "alice", "other@example.com").Return(true, nil)

		_, err := svc.Register(ctx, "alice", "other@example.com", "Password1")
		assert.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
		userRepo.AssertNotCalled(t, "Create")
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		jwtSvc := newTestJWTService()
		svc := NewAuthService(userRepo, jwtSvc, new(MockTokenStore))
		user := activeUser(t)

		userRepo.On("FindByUsername", ctx, "alice").Return(user, nil)

		access, refresh, got, err := svc.Login(ctx, "alice", "Password1")
		require.NoError(t, err)
		assert.NotEmpty(t, access)
		assert.NotEmpty(t, refresh)
		assert.Equal(t, user.ID, got.ID)

		claims, err := jwtSvc.VerifyToken(access)
		require.NoError(t, err)
		assert.Equal(t, auth.TokenKindAccess, claims.Kind)
	})

	t.Run("wrong password", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := NewAuthService(userRepo, newTestJWTService(), new(MockTokenStore))

		userRepo.On("FindByUsername", ctx, "alice").Return(activeUser(t), nil)

		_, _, _, err := svc.Login(ctx, "alice", "WrongPassword1")
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("unknown user maps to the same error as wrong password", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := NewAuthService(userRepo, newTestJWTService(), new(MockTokenStore))

		userRepo.On("FindByUsername", ctx, "nobody").Return(nil, gorm.ErrRecordNotFound)

		_, _, _, err := svc.Login(ctx, "nobody", "Password1")
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("inactive user", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := NewAuthService(userRepo, newTestJWTService(), new(MockTokenStore))
		user := activeUser(t)
		user.IsActive = false

		userRepo.On("FindByUsername", ctx, "alice").Return(user, nil)

		_, _, _, err := svc.Login(ctx, "alice", "Password1")
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	jwtSvc := newTestJWTService()

	t.Run("success", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		tokenStore := new(MockTokenStore)
		svc := NewAuthService(userRepo, jwtSvc, tokenStore)
		user := activeUser(t)

		_, refresh, err := jwtSvc.IssueTokens(user)
		require.NoError(t, err)

		tokenStore.On("IsRefreshTokenDenied", ctx, mock.AnythingOfType("string")).Return(false, nil)
		userRepo.On("FindByID", ctx, user.ID).Return(user, nil)

		access, err := svc.Refresh(ctx, refresh)
		require.NoError(t, err)

		claims, err := jwtSvc.VerifyToken(access)
		require.NoError(t, err)
		assert.Equal(t, auth.TokenKindAccess, claims.Kind)
		assert.Equal(t, "alice", claims.Username)
	})

	t.Run("access token is not accepted as refresh token", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := NewAuthService(userRepo, jwtSvc, new(MockTokenStore))

		access, _, err := jwtSvc.IssueTokens(activeUser(t))
		require.NoError(t, err)

		_, err = svc.Refresh(ctx, access)
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
		userRepo.AssertNotCalled(t, "FindByID")
	})

	t.Run("denylisted token is rejected", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		tokenStore := new(MockTokenStore)
		svc := NewAuthService(userRepo, jwtSvc, tokenStore)

		_, refresh, err := jwtSvc.IssueTokens(activeUser(t))
		require.NoError(t, err)

		tokenStore.On("IsRefreshTokenDenied", ctx, mock.AnythingOfType("string")).Return(true, nil)

		_, err = svc.Refresh(ctx, refresh)
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
		userRepo.AssertNotCalled(t, "FindByID")
	})

	t.Run("deactivated user cannot refresh", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		tokenStore := new(MockTokenStore)
		svc := NewAuthService(userRepo, jwtSvc, tokenStore)
		user := activeUser(t)

		_, refresh, err := jwtSvc.IssueTokens(user)
		require.NoError(t, err)

		user.IsActive = false
		tokenStore.On("IsRefreshTokenDenied", ctx, mock.AnythingOfType("string")).Return(false, nil)
		userRepo.On("FindByID", ctx, user.ID).Return(user, nil)

		_, err = svc.Refresh(ctx, refresh)
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	jwtSvc := newTestJWTService()

	t.Run("denylists the refresh token until expiry", func(t *testing.T) {
		tokenStore := new(MockTokenStore)
		svc := NewAuthService(new(MockUserRepository), jwtSvc, tokenStore)

		_, refresh, err := jwtSvc.IssueTokens(activeUser(t))
		require.NoError(t, err)

		tokenStore.On("DenyRefreshToken", ctx, mock.AnythingOfType("string"), mock.MatchedBy(func(ttl time.Duration) bool {
			return ttl > 0 && ttl <= 7*24*time.Hour
		})).Return(nil)

		require.NoError(t, svc.Logout(ctx, refresh))
		tokenStore.AssertExpectations(t)
	})

	t.Run("access token cannot be logged out", func(t *testing.T) {
		tokenStore := new(MockTokenStore)
		svc := NewAuthService(new(MockUserRepository), jwtSvc, tokenStore)

		access, _, err := jwtSvc.IssueTokens(activeUser(t))
		require.NoError(t, err)

		err = svc.Logout(ctx, access)
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
		tokenStore.AssertNotCalled(t, "DenyRefreshToken")
	})
}

func TestCurrentUser(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := NewAuthService(userRepo, newTestJWTService(), new(MockTokenStore))
		user := activeUser(t)

		userRepo.On("FindByID", ctx, user.ID).Return(user, nil)

		got, err := svc.CurrentUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)
	})

	t.Run("not found", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := NewAuthService(userRepo, newTestJWTService(), new(MockTokenStore))

		userRepo.On("FindByID", ctx, uint(99)).Return(nil, gorm.ErrRecordNotFound)

		_, err := svc.CurrentUser(ctx, 99)
		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})
}
