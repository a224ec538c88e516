package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bookstack/internal/auth"
	"bookstack/internal/cache"
	"bookstack/internal/config"
	"bookstack/internal/handler"
	"bookstack/internal/llm"
	"bookstack/internal/model"
	"bookstack/internal/repository"
	"bookstack/internal/router"
	"bookstack/internal/service"
)

// stubGenerator is a controllable llm.Generator for tests.
type stubGenerator struct {
	summary         string
	reviewSummary   string
	recommendations string
	err             error
}

func (s *stubGenerator) GenerateSummary(ctx context.Context, title, author, content string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.summary, nil
}

func (s *stubGenerator) GenerateReviewSummary(ctx context.Context, bookTitle string, reviews []string, avgRating float64) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.reviewSummary, nil
}

func (s *stubGenerator) GenerateRecommendations(ctx context.Context, preferences string, books []llm.BookInfo, limit int) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.recommendations, nil
}

// testEnv assembles the full HTTP stack over an in-memory sqlite database.
// Redis is absent; the nil cache client degrades to a cache that never hits.
type testEnv struct {
	e   *echo.Echo
	db  *gorm.DB
	jwt *auth.JWTService
	gen *stubGenerator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gormDB.AutoMigrate(&model.User{}, &model.Book{}, &model.Review{}))

	cfg := &config.Config{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  30 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		CORSOrigins:     []string{"*"},
	}

	var cacheClient *cache.Client
	gen := &stubGenerator{}

	userRepo := repository.NewUserRepository(gormDB)
	bookRepo := repository.NewBookRepository(gormDB)
	reviewRepo := repository.NewReviewRepository(gormDB)

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	tokenStore := auth.NewTokenStore(cacheClient)

	authService := service.NewAuthService(userRepo, jwtService, tokenStore)
	userService := service.NewUserService(userRepo, cacheClient)
	bookService := service.NewBookService(bookRepo, cacheClient)
	reviewService := service.NewReviewService(reviewRepo, bookRepo, gen, cacheClient)
	recService := service.NewRecommendationService(bookRepo, gen, cacheClient)

	e := echo.New()
	e.HideBanner = true
	router.Register(
		e,
		cfg,
		handler.NewAuthHandler(authService, cfg.AccessTokenTTL),
		handler.NewBookHandler(bookService),
		handler.NewReviewHandler(reviewService),
		handler.NewAIHandler(recService, gen),
		handler.NewUserHandler(userService),
	)

	return &testEnv{e: e, db: gormDB, jwt: jwtService, gen: gen}
}

// request runs an HTTP request through the full middleware chain.
func (env *testEnv) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

// createUser inserts a user directly and returns it with a valid access token.
func (env *testEnv) createUser(t *testing.T, username string, role model.Role) (*model.User, string) {
	t.Helper()

	hashed, err := auth.HashPassword("Password1")
	require.NoError(t, err)

	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hashed,
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, env.db.Create(user).Error)

	token, err := env.jwt.IssueAccessToken(user)
	require.NoError(t, err)
	return user, token
}

func (env *testEnv) createBook(t *testing.T, title, author, genre string) *model.Book {
	t.Helper()
	book := &model.Book{Title: title, Author: author, Genre: genre}
	require.NoError(t, env.db.Create(book).Error)
	return book
}

func (env *testEnv) createReview(t *testing.T, bookID, userID uint, rating float64) *model.Review {
	t.Helper()
	review := &model.Review{
		BookID:     bookID,
		UserID:     userID,
		ReviewText: fmt.Sprintf("rated %.1f", rating),
		Rating:     rating,
	}
	require.NoError(t, env.db.Create(review).Error)
	return review
}

func (env *testEnv) countReviews(t *testing.T, where string, args ...interface{}) int64 {
	t.Helper()
	var count int64
	require.NoError(t, env.db.Model(&model.Review{}).Where(where, args...).Count(&count).Error)
	return count
}

func path(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}
