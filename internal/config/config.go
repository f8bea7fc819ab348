// Package config provides application configuration management.
// It loads settings from environment variables (with optional .env file)
// and provides defaults for the server, the portal query engine, the
// storefront, and the product file store.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Telegram Bot Configuration
	TelegramToken string
	AdminChatIDs  []int64 // Chat IDs allowed to use admin commands

	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Observability
	BetterstackToken string // Log shipping token (empty = local logs only)
	SentryToken      string // Better Stack Errors token (empty = disabled)
	SentryHost       string
	Environment      string
	MetricsUsername  string // Username for /metrics Basic Auth
	MetricsPassword  string // Password for /metrics Basic Auth (empty = no auth)

	// Data Configuration
	DataDir string // Directory for the SQLite database

	// Portal Configuration
	PortalTimeout        time.Duration // Per-attempt ceiling, not per-query
	AssignmentStatusURLs []string      // Ordered endpoint candidates
	GradeCardURLs        []string      // Ordered endpoint candidates
	PortalPhrasesFile    string        // Optional JSON override for error-phrase rules

	// Storefront Configuration
	ItemsPerPage    int
	MaxMessageRunes int // Chunk size for outgoing reports
	PaymentUPIID    string

	// Product file store (S3-compatible, e.g. Cloudflare R2)
	S3Endpoint    string
	S3AccessKeyID string
	S3SecretKey   string
	S3Bucket      string

	// Rate Limits (Token Bucket)
	UserRateLimitBurst        float64 // Maximum burst tokens per user
	UserRateLimitRefillPerSec float64 // Tokens refilled per second
}

// Load reads configuration from environment variables.
// It attempts to load a .env file first, then reads from env vars.
func Load() (*Config, error) {
	// Ignore error if the .env file doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		AdminChatIDs:  getInt64SliceEnv("ADMIN_CHAT_IDS"),

		Port:            getEnv("PORT", "10000"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", GracefulShutdown),

		BetterstackToken: getEnv("BETTERSTACK_TOKEN", ""),
		SentryToken:      getEnv("SENTRY_TOKEN", ""),
		SentryHost:       getEnv("SENTRY_HOST", "errors.betterstack.com"),
		Environment:      getEnv("ENVIRONMENT", "production"),
		MetricsUsername:  getEnv("METRICS_USERNAME", "prometheus"),
		MetricsPassword:  getEnv("METRICS_PASSWORD", ""),

		DataDir: getEnv("DATA_DIR", getDefaultDataDir()),

		PortalTimeout: getDurationEnv("PORTAL_TIMEOUT", PortalRequest),
		AssignmentStatusURLs: getSliceEnv("ASSIGNMENT_STATUS_URLS", []string{
			"https://isms.ignou.ac.in/changeadmdata/StatusAssignment.asp",
		}),
		GradeCardURLs: getSliceEnv("GRADE_CARD_URLS", []string{
			"https://gradecard.ignou.ac.in/gradecard/",
			"https://gradecard.ignou.ac.in/gradecardM/",
		}),
		PortalPhrasesFile: getEnv("PORTAL_PHRASES_FILE", ""),

		ItemsPerPage:    getIntEnv("ITEMS_PER_PAGE", 10),
		MaxMessageRunes: getIntEnv("MAX_MESSAGE_RUNES", 4000),
		PaymentUPIID:    getEnv("PAYMENT_UPI_ID", ""),

		S3Endpoint:    getEnv("S3_ENDPOINT", ""),
		S3AccessKeyID: getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretKey:   getEnv("S3_SECRET_KEY", ""),
		S3Bucket:      getEnv("S3_BUCKET", ""),

		UserRateLimitBurst:        getFloatEnv("USER_RATE_LIMIT_BURST", 15.0),
		UserRateLimitRefillPerSec: getFloatEnv("USER_RATE_LIMIT_REFILL_PER_SEC", 0.2), // 1 per 5s
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	var errs []error

	if c.TelegramToken == "" {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN is required"))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("DATA_DIR is required"))
	}
	if c.PortalTimeout <= 0 {
		errs = append(errs, fmt.Errorf("PORTAL_TIMEOUT must be positive, got %v", c.PortalTimeout))
	}
	if len(c.AssignmentStatusURLs) == 0 {
		errs = append(errs, errors.New("ASSIGNMENT_STATUS_URLS must not be empty"))
	}
	if len(c.GradeCardURLs) == 0 {
		errs = append(errs, errors.New("GRADE_CARD_URLS must not be empty"))
	}
	if c.ItemsPerPage <= 0 {
		errs = append(errs, fmt.Errorf("ITEMS_PER_PAGE must be positive, got %d", c.ItemsPerPage))
	}
	if c.MaxMessageRunes < 100 {
		errs = append(errs, fmt.Errorf("MAX_MESSAGE_RUNES too small, got %d", c.MaxMessageRunes))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// HasFileStore returns true if the S3-compatible file store is configured.
func (c *Config) HasFileStore() bool {
	return c.S3Endpoint != "" && c.S3AccessKeyID != "" && c.S3SecretKey != "" && c.S3Bucket != ""
}

// IsAdmin reports whether the chat ID belongs to a configured admin.
func (c *Config) IsAdmin(chatID int64) bool {
	for _, id := range c.AdminChatIDs {
		if id == chatID {
			return true
		}
	}
	return false
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "store.db")
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getSliceEnv retrieves a comma-separated string list with fallback
func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}

// getInt64SliceEnv retrieves a comma-separated int64 list; invalid entries are skipped
func getInt64SliceEnv(key string) []int64 {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var result []int64
	for _, p := range strings.Split(value, ",") {
		if id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64); err == nil {
			result = append(result, id)
		}
	}
	return result
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}
