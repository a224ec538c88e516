package main

import (
	"log"
	"net/http"
	"os"

	_ "bookstack/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"bookstack/internal/auth"
	"bookstack/internal/cache"
	"bookstack/internal/config"
	"bookstack/internal/db"
	"bookstack/internal/handler"
	"bookstack/internal/llm"
	"bookstack/internal/model"
	"bookstack/internal/repository"
	"bookstack/internal/router"
	"bookstack/internal/service"
)

// @title Bookstack API
// @version 1.0
// @description Book management API with reviews, JWT authentication, and LLM-generated summaries and recommendations.
// @host localhost:8080
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	// Drop tables if RESET_DB environment variable is set
	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, dropping all tables...")
		tables := []interface{}{
			&model.Review{},
			&model.Book{},
			&model.User{},
		}
		for _, table := range tables {
			if err := gormDB.Migrator().DropTable(table); err != nil {
				log.Printf("Warning: Failed to drop table (may not exist): %v", err)
			}
		}
		log.Println("Tables dropped")
	}

	// Run migrations for all models
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Book{},
		&model.Review{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	bookRepo := repository.NewBookRepository(gormDB)
	reviewRepo := repository.NewReviewRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize LLM client
	llmClient := llm.NewClient(cfg)
	if cfg.GroqAPIKey == "" {
		log.Println("GROQ_API_KEY not set, LLM endpoints will degrade to fallbacks")
	}

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, tokenStore)
	userService := service.NewUserService(userRepo, cacheClient)
	bookService := service.NewBookService(bookRepo, cacheClient)
	reviewService := service.NewReviewService(reviewRepo, bookRepo, llmClient, cacheClient)
	recService := service.NewRecommendationService(bookRepo, llmClient, cacheClient)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, cfg.AccessTokenTTL)
	bookHandler := handler.NewBookHandler(bookService)
	reviewHandler := handler.NewReviewHandler(reviewService)
	aiHandler := handler.NewAIHandler(recService, llmClient)
	userHandler := handler.NewUserHandler(userService)

	// Register routes
	router.Register(
		e,
		cfg,
		authHandler,
		bookHandler,
		reviewHandler,
		aiHandler,
		userHandler,
	)

	if cfg.SwaggerHost != "" {
		log.Printf("Swagger documentation available at: %s/swagger/index.html", cfg.SwaggerHost)
	}

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
