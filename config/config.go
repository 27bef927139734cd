package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Config holds all runtime settings, loaded from the environment.
type Config struct {
	// Server
	Host           string
	Port           string
	AllowedOrigins []string
	RateLimitRPS   float64

	// Database
	DatabaseURL string

	// Scraping
	ScrapeDelayMin time.Duration
	ScrapeDelayMax time.Duration
	RequestTimeout time.Duration

	// Plausible price window, in local currency units. Values outside it
	// are treated as extraction noise (unit prices, mangled numbers).
	PriceMin decimal.Decimal
	PriceMax decimal.Decimal

	// Blocked-response retry policy for batch updates.
	BlockedRetryBackoff time.Duration
	BlockedRetryCount   int

	// Statistics
	StatWindows []int // trailing window lengths in days

	// Scheduling (six-field cron spec, seconds first)
	CheckSchedule string

	// Notifications
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	AlertEmail   string
}

// Load reads configuration from a .env file (when present) and the
// process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, using environment variables")
	}

	return &Config{
		Host:           getEnv("HOST", "0.0.0.0"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),
		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 5),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		ScrapeDelayMin: getEnvDuration("SCRAPE_DELAY_MIN", 2*time.Second),
		ScrapeDelayMax: getEnvDuration("SCRAPE_DELAY_MAX", 5*time.Second),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),

		PriceMin: getEnvDecimal("PRICE_MIN", "0.01"),
		PriceMax: getEnvDecimal("PRICE_MAX", "100000"),

		BlockedRetryBackoff: getEnvDuration("BLOCKED_RETRY_BACKOFF", 60*time.Second),
		BlockedRetryCount:   getEnvInt("BLOCKED_RETRY_COUNT", 1),

		StatWindows: getEnvIntList("STAT_WINDOWS", []int{7, 30}),

		CheckSchedule: getEnv("CHECK_SCHEDULE", "0 0 8 * * *"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnv("SMTP_FROM", os.Getenv("SMTP_USER")),
		AlertEmail:   os.Getenv("ALERT_EMAIL"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		log.Warn().Str("key", key).Str("value", value).Msg("invalid integer in environment, using default")
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
		log.Warn().Str("key", key).Str("value", value).Msg("invalid float in environment, using default")
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("2s", "1m30s") and, for
// compatibility with older deployments, bare integers meaning seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	log.Warn().Str("key", key).Str("value", value).Msg("invalid duration in environment, using default")
	return fallback
}

func getEnvDecimal(key, fallback string) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if parsed, err := decimal.NewFromString(value); err == nil {
			return parsed
		}
		log.Warn().Str("key", key).Str("value", value).Msg("invalid decimal in environment, using default")
	}
	return decimal.RequireFromString(fallback)
}

func getEnvIntList(key string, fallback []int) []int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []int
	for _, part := range strings.Split(value, ",") {
		parsed, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			log.Warn().Str("key", key).Str("value", value).Msg("invalid integer list in environment, using default")
			return fallback
		}
		out = append(out, parsed)
	}
	return out
}
