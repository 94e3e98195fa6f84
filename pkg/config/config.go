package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MigrationsPath string

	// Hosted Postgres convenience:
	// - DATABASE_URL: runtime connection (often PgBouncer/pooler)
	// - DIRECT_URL: direct connection for migrations
	DatabaseURL string
	DirectURL   string

	DB DBConfig

	Auth AuthConfig

	Payments PaymentsConfig

	// FrontendAllowedOrigins is a comma-separated allowlist of origins allowed
	// to call the API from the browser. Example:
	//   https://app.yourmarketplace.com,http://localhost:5173
	FrontendAllowedOrigins []string
}

type DBConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

type AuthConfig struct {
	// Secret signs access tokens (HS256).
	Secret string

	// TokenTTLMinutes bounds how long an issued access token stays valid.
	TokenTTLMinutes int
}

type PaymentsConfig struct {
	// Provider is a label recorded on settlement events, e.g. "stripe-sim".
	Provider string

	// WebhookSecret verifies payment-provider callback signatures.
	WebhookSecret string
}

func Load() Config {
	// Convenience for local dev: load variables from .env if present.
	// In production, rely on real environment variables.
	_ = godotenv.Load()

	// Cloud Run sets PORT. Prefer it when HTTP_ADDR isn't explicitly set.
	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			httpAddr = ":" + port
		} else {
			httpAddr = ":8081"
		}
	}

	return Config{
		AppEnv:         env("APP_ENV", "dev"),
		HTTPAddr:       httpAddr,
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DirectURL:      os.Getenv("DIRECT_URL"),
		DB: DBConfig{
			Host:     env("DB_HOST", "localhost"),
			Port:     env("DB_PORT", "5432"),
			Name:     env("DB_NAME", "marketplace"),
			User:     env("DB_USER", "marketplace"),
			Password: env("DB_PASSWORD", "marketplace"),
			SSLMode:  env("DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			Secret:          os.Getenv("AUTH_SECRET"),
			TokenTTLMinutes: envInt("AUTH_TOKEN_TTL_MINUTES", 12*60),
		},
		Payments: PaymentsConfig{
			Provider:      env("PAYMENTS_PROVIDER", "manual"),
			WebhookSecret: os.Getenv("PAYMENTS_WEBHOOK_SECRET"),
		},
		FrontendAllowedOrigins: envList("FRONTEND_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:4173"),
	}
}

func env(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envList(key, fallbackCSV string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallbackCSV
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
