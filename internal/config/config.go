package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	JWTIssuer          string
	JWTAudience        string
	JWTClockSkew       time.Duration
	CORSAllowedOrigins []string

	CatalogCacheTTL       time.Duration
	CatalogHomeCategories []string
	CatalogFeaturedLimit  int
	CartLockTTL           time.Duration
	CartLockRetry         time.Duration
	CartRateLimit         string
	IdempotencyTTL        time.Duration
	ShutdownTimeout       time.Duration
	MigrateOnStart        bool
}

// DefaultHomeCategories are the categories surfaced on the storefront home
// page when CATALOG_HOME_CATEGORIES is unset.
var DefaultHomeCategories = []string{
	"Electronics",
	"Fashion",
	"Beauty & Health",
	"Books",
	"Automotive",
	"Home",
	"Sports",
	"Games",
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		JWTSecret:          k.String("AUTH_JWT_SECRET"),
		JWTIssuer:          strings.TrimSpace(k.String("AUTH_JWT_ISSUER")),
		JWTAudience:        valueOrDefault(strings.TrimSpace(k.String("AUTH_JWT_AUDIENCE")), "authenticated"),
		JWTClockSkew:       parseDuration(k.String("AUTH_JWT_CLOCK_SKEW"), "30s"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		CatalogCacheTTL:       parseDuration(k.String("CATALOG_CACHE_TTL"), "60s"),
		CatalogHomeCategories: splitAndTrim(k.String("CATALOG_HOME_CATEGORIES")),
		CatalogFeaturedLimit:  parseInt(k.String("CATALOG_FEATURED_LIMIT"), 20),
		CartLockTTL:           parseDuration(k.String("CART_LOCK_TTL"), "5s"),
		CartLockRetry:         parseDuration(k.String("CART_LOCK_RETRY"), "25ms"),
		CartRateLimit:         valueOrDefault(strings.TrimSpace(k.String("RATE_LIMIT_CART")), "60-M"),
		IdempotencyTTL:        parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		ShutdownTimeout:       parseDuration(k.String("SHUTDOWN_TIMEOUT"), "15s"),
		MigrateOnStart:        parseBool(k.String("MIGRATE_ON_START")),
	}

	if len(cfg.CatalogHomeCategories) == 0 {
		cfg.CatalogHomeCategories = append([]string(nil), DefaultHomeCategories...)
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("AUTH_JWT_SECRET is required")
	}
	if cfg.CatalogFeaturedLimit < 1 {
		return nil, fmt.Errorf("CATALOG_FEATURED_LIMIT must be positive, got %d", cfg.CatalogFeaturedLimit)
	}

	return cfg, nil
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.AppEnv), "production")
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseInt(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return fallback
	}
	return n
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
