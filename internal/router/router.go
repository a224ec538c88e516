package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"bookstack/internal/auth"
	"bookstack/internal/config"
	apperrors "bookstack/internal/errors"
	"bookstack/internal/handler"
	"bookstack/internal/model"
)

const (
	serviceName    = "bookstack"
	serviceVersion = "1.0.0"
)

// Permission names consulted against the role table below.
const (
	PermListUsers   = "users:list"
	PermManageUsers = "users:manage"
)

// rolePolicy is the explicit permission table. ADMIN is allowed everywhere
// and does not need to be listed.
var rolePolicy = map[string][]model.Role{
	PermListUsers:   {model.RoleModerator},
	PermManageUsers: {},
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	bookHandler *handler.BookHandler,
	reviewHandler *handler.ReviewHandler,
	aiHandler *handler.AIHandler,
	userHandler *handler.UserHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
	}))

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": serviceName,
			"version": serviceVersion,
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Public routes
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/refresh", authHandler.Refresh)
	e.POST("/auth/logout", authHandler.Logout)

	// Catalog reads are public
	e.GET("/books", bookHandler.ListBooks)
	e.GET("/books/:id", bookHandler.GetBook)
	e.GET("/books/search/:query", bookHandler.SearchBooks)
	e.GET("/books/:id/reviews", reviewHandler.ListReviews)
	e.GET("/books/:id/summary", reviewHandler.BookSummary)

	// Secured routes (require a valid bearer token)
	secured := e.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(cfg.JWTSecret),
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return &auth.Claims{}
		},
		ErrorHandler: func(c echo.Context, err error) error {
			httpErr := apperrors.MapErrorToHTTP(apperrors.ErrInvalidToken)
			return c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
		},
	}))

	secured.GET("/auth/me", authHandler.Me)

	secured.POST("/books", bookHandler.CreateBook)
	secured.PUT("/books/:id", bookHandler.UpdateBook)
	secured.DELETE("/books/:id", bookHandler.DeleteBook)

	secured.POST("/books/:id/reviews", reviewHandler.CreateReview)
	secured.PUT("/books/reviews/:id", reviewHandler.UpdateReview)
	secured.DELETE("/books/reviews/:id", reviewHandler.DeleteReview)

	secured.POST("/ai/generate-summary", aiHandler.GenerateSummary)
	secured.POST("/ai/recommendations", aiHandler.Recommendations)
	secured.GET("/ai/recommendations/genre/:genre", aiHandler.RecommendationsByGenre)
	secured.GET("/ai/recommendations/popular", aiHandler.PopularRecommendations)
	secured.GET("/ai/recommendations/similar/:id", aiHandler.SimilarRecommendations)

	// Administrative routes
	secured.GET("/users", userHandler.ListUsers, RequirePermission(PermListUsers))
	secured.PUT("/users/:id/role", userHandler.UpdateRole, RequirePermission(PermManageUsers))
	secured.DELETE("/users/:id", userHandler.DeleteUser, RequirePermission(PermManageUsers))
}

// RequirePermission checks the caller's role claim against the permission
// table. ADMIN may perform any action; other roles only what the table
// grants them.
func RequirePermission(permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return forbid(c, apperrors.ErrInvalidToken)
			}
			claims, ok := token.Claims.(*auth.Claims)
			if !ok {
				return forbid(c, apperrors.ErrInvalidToken)
			}

			if claims.Role == model.RoleAdmin {
				return next(c)
			}
			for _, allowed := range rolePolicy[permission] {
				if claims.Role == allowed {
					return next(c)
				}
			}
			return forbid(c, apperrors.ErrForbidden)
		}
	}
}

func forbid(c echo.Context, err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	return c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
