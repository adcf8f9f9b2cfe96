package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Guessometer/internal/database"
)

// Config holds all application configuration
type Config struct {
	Database database.ConnectionParams

	RedisAddr           string        `env:"REDIS_ADDR"`
	RedisPassword       string        `env:"REDIS_PASSWORD"`
	RedisDB             int           `env:"REDIS_DB" envDefault:"0"`
	LeaderboardCacheTTL time.Duration `env:"LEADERBOARD_CACHE_TTL" envDefault:"30s"`

	AirtableBaseID string `env:"AIRTABLE_BASE_ID"`
	AirtableToken  string `env:"AIRTABLE_TOKEN"`
	AirtableRPS    int    `env:"AIRTABLE_RPS" envDefault:"5"` // Airtable allows 5 req/s per base
	AppEnv         string `env:"APP_ENV" envDefault:"development"`
	SyncWorkers    int    `env:"SYNC_WORKERS" envDefault:"2"`
	SyncQueueSize  int    `env:"SYNC_QUEUE_SIZE" envDefault:"256"`
	StatsWorkers   int    `env:"STATS_WORKERS" envDefault:"4"`

	HTTPAddr     string `env:"HTTP_ADDR" envDefault:":8080"`
	AdminKeyHash string `env:"ADMIN_KEY_HASH"` // bcrypt hash

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `env:"TELEGRAM_CHAT_ID"`

	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty      bool   `env:"LOG_PRETTY"` // console output, defaults on outside production
	RequestTimeout int    `env:"REQUEST_TIMEOUT" envDefault:"30"` // seconds
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.Database = database.ConnectionParams{
		Host:     getEnvWithDefault("DB_HOST", "localhost"),
		Port:     getEnvWithDefault("DB_PORT", "5432"),
		User:     getEnvWithDefault("DB_USER", "postgres"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   getEnvWithDefault("DB_NAME", "guessometer"),
		SSLMode:  getEnvWithDefault("DB_SSLMODE", "disable"),
	}

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = getEnvIntWithDefault("REDIS_DB", 0)
	cfg.LeaderboardCacheTTL = getEnvDurationWithDefault("LEADERBOARD_CACHE_TTL", 30*time.Second)

	cfg.AirtableBaseID = os.Getenv("AIRTABLE_BASE_ID")
	cfg.AirtableToken = os.Getenv("AIRTABLE_TOKEN")
	cfg.AirtableRPS = getEnvIntWithDefault("AIRTABLE_RPS", 5)
	cfg.AppEnv = getEnvWithDefault("APP_ENV", "development")
	cfg.SyncWorkers = getEnvIntWithDefault("SYNC_WORKERS", 2)
	cfg.SyncQueueSize = getEnvIntWithDefault("SYNC_QUEUE_SIZE", 256)
	cfg.StatsWorkers = getEnvIntWithDefault("STATS_WORKERS", 4)

	cfg.HTTPAddr = getEnvWithDefault("HTTP_ADDR", ":8080")
	cfg.AdminKeyHash = os.Getenv("ADMIN_KEY_HASH")

	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChatID = getEnvInt64WithDefault("TELEGRAM_CHAT_ID", 0)

	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.LogPretty = getEnvBoolWithDefault("LOG_PRETTY", !cfg.Production())
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Debug().
		Str("app_env", cfg.AppEnv).
		Str("db_host", cfg.Database.Host).
		Bool("airtable", cfg.AirtableEnabled()).
		Str("airtable_token", MaskSecret(cfg.AirtableToken)).
		Bool("redis", cfg.RedisAddr != "").
		Msg("Configuration loaded")

	return &cfg, nil
}

// Validate checks values that have no sensible fallback
func (c *Config) Validate() error {
	var errs []error
	if c.AirtableBaseID != "" && c.AirtableToken == "" {
		errs = append(errs, errors.New("AIRTABLE_TOKEN is required when AIRTABLE_BASE_ID is set"))
	}
	if c.AirtableRPS <= 0 {
		errs = append(errs, fmt.Errorf("AIRTABLE_RPS must be positive, got %d", c.AirtableRPS))
	}
	if c.SyncWorkers <= 0 {
		errs = append(errs, fmt.Errorf("SYNC_WORKERS must be positive, got %d", c.SyncWorkers))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %d", c.RequestTimeout))
	}
	return errors.Join(errs...)
}

// Production reports whether the production Airtable table is used
func (c *Config) Production() bool {
	return c.AppEnv == "production"
}

// AirtableEnabled reports whether the record service is configured
func (c *Config) AirtableEnabled() bool {
	return c.AirtableBaseID != "" && c.AirtableToken != ""
}

// Timeout returns REQUEST_TIMEOUT as a duration
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// MaskSecret keeps the first and last three characters of a secret for logs
func MaskSecret(secret string) string {
	if len(secret) < 7 {
		return "***"
	}
	return secret[:3] + "..." + secret[len(secret)-3:]
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
