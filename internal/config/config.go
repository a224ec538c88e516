package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
// It is built once at startup and passed by reference; nothing mutates it afterwards.
type Config struct {
	ServerPort string
	MySQLDSN   string

	RedisAddr string
	RedisDB   int
	RedisPass string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	GroqAPIKey   string
	GroqBaseURL  string
	LLMModel     string
	LLMMaxTokens int
	LLMTimeout   time.Duration

	CORSOrigins []string
	SwaggerHost string
}

// Load builds Config from environment with sensible defaults.
// A .env file is honored when present, system environment wins otherwise.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found, using system environment")
	}

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		MySQLDSN:   getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/bookstack?charset=utf8mb4&parseTime=True&loc=Local"),

		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:   getEnvInt("REDIS_DB", 0),
		RedisPass: os.Getenv("REDIS_PASSWORD"),

		JWTSecret:       getEnv("JWT_SECRET", "change-me"),
		AccessTokenTTL:  time.Duration(getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
		RefreshTokenTTL: time.Duration(getEnvInt("REFRESH_TOKEN_EXPIRE_DAYS", 7)) * 24 * time.Hour,

		GroqAPIKey:   os.Getenv("GROQ_API_KEY"),
		GroqBaseURL:  getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		LLMModel:     getEnv("LLM_MODEL", "llama-3.3-70b-versatile"),
		LLMMaxTokens: getEnvInt("LLM_MAX_TOKENS", 1024),
		LLMTimeout:   time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 15)) * time.Second,

		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:8000"}),
		SwaggerHost: os.Getenv("SWAGGER_HOST"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
