package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string

	DatabaseURL string
	RedisURL    string

	JWTSecret string
	JWTTTL    time.Duration

	// Progression
	LevelXPStep     int
	AwardMaxRetries int
	XPCreditURL     string
	XPCreditTimeout time.Duration

	// Activity stream
	FeedSize int

	GeminiAPIKey string
	GeminiModel  string

	MeiliSearchHost string
	MeiliMasterKey  string

	CloudinaryURL          string
	CloudinaryCloudName    string
	CloudinaryUploadFolder string

	// Zero disables the limit.
	RateLimitAward   time.Duration
	RateLimitContent time.Duration

	ReindexCron     string
	CleanupCron     string
	ShutdownTimeout time.Duration
}

// devJWTSecret signs tokens only when APP_ENV=development.
const devJWTSecret = "dev-only-secret"

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		XPCreditURL: os.Getenv("XP_CREDIT_URL"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		MeiliSearchHost: os.Getenv("MEILISEARCH_HOST"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		CloudinaryURL:          os.Getenv("CLOUDINARY_URL"),
		CloudinaryCloudName:    os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryUploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "skillquest"),

		ReindexCron: getEnv("REINDEX_CRON", "0 2 * * *"),
		CleanupCron: getEnv("NOTIFICATION_CLEANUP_CRON", "30 3 * * *"),
	}

	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("JWT_SECRET is required when APP_ENV=%s", cfg.AppEnv)
		}
		cfg.JWTSecret = devJWTSecret
	}

	var err error
	if cfg.JWTTTL, err = parseDuration(getEnv("JWT_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	if cfg.XPCreditTimeout, err = parseDuration(getEnv("XP_CREDIT_TIMEOUT", "5s")); err != nil {
		return nil, fmt.Errorf("invalid XP_CREDIT_TIMEOUT: %w", err)
	}
	if cfg.RateLimitAward, err = parseDuration(getEnv("RATE_LIMIT_AWARD", "0s")); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_AWARD: %w", err)
	}
	if cfg.RateLimitContent, err = parseDuration(getEnv("RATE_LIMIT_CONTENT", "10s")); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_CONTENT: %w", err)
	}

	if cfg.ShutdownTimeout, err = parseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s")); err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	if cfg.LevelXPStep, err = parsePositiveInt("LEVEL_XP_STEP", 500); err != nil {
		return nil, err
	}
	if cfg.AwardMaxRetries, err = parsePositiveInt("AWARD_MAX_RETRIES", 3); err != nil {
		return nil, err
	}
	if cfg.FeedSize, err = parsePositiveInt("FEED_SIZE", 20); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}

func parsePositiveInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer, got %q", key, raw)
	}
	return n, nil
}
