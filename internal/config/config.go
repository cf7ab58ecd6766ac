// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for all databases (always absolute)
	LogLevel string
	Port     int
	DevMode  bool

	// FallbackUSDTRY is used when no USD/TRY rate can be fetched or found in cache
	FallbackUSDTRY float64

	// LedgerMaxConflictRetries bounds re-runs of an atomic unit after a concurrent write
	LedgerMaxConflictRetries int

	MarketData MarketDataConfig
	Backup     BackupConfig
	Schedules  ScheduleConfig
}

// MarketDataConfig configures the Yahoo Finance client and the quote caches
type MarketDataConfig struct {
	BaseURL       string
	SearchURL     string
	Timeout       time.Duration
	MaxRetries    int
	RatePerSecond float64
	QuoteCacheTTL time.Duration

	// FXFallbackURL is the exchangerate-api.com base URL used when the USD/TRY
	// quote is unavailable. Empty disables the fallback.
	FXFallbackURL string
}

// BackupConfig configures ledger backups to S3-compatible object storage
type BackupConfig struct {
	Enabled         bool
	Bucket          string
	Endpoint        string // Empty for AWS, set for R2/MinIO
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	RetentionDays   int
}

// ScheduleConfig holds cron expressions (with seconds) for background jobs
type ScheduleConfig struct {
	Backup       string
	QuoteWarmup  string
	CacheCleanup string
	Maintenance  string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("FOLIO_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:                  absDataDir,
		Port:                     getEnvAsInt("PORT", 8080),
		DevMode:                  getEnvAsBool("DEV_MODE", false),
		LogLevel:                 getEnv("LOG_LEVEL", "info"),
		FallbackUSDTRY:           getEnvAsFloat("FALLBACK_USD_TRY", 34),
		LedgerMaxConflictRetries: getEnvAsInt("LEDGER_MAX_CONFLICT_RETRIES", 3),
		MarketData: MarketDataConfig{
			BaseURL:       getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			SearchURL:     getEnv("YAHOO_SEARCH_URL", "https://query2.finance.yahoo.com"),
			Timeout:       getEnvAsDuration("YAHOO_TIMEOUT", 30*time.Second),
			MaxRetries:    getEnvAsInt("YAHOO_MAX_RETRIES", 3),
			RatePerSecond: getEnvAsFloat("YAHOO_RATE_PER_SECOND", 5),
			QuoteCacheTTL: getEnvAsDuration("QUOTE_CACHE_TTL", 5*time.Minute),
			FXFallbackURL: getEnv("FX_FALLBACK_URL", "https://api.exchangerate-api.com/v4/latest"),
		},
		Backup: BackupConfig{
			Enabled:         getEnvAsBool("BACKUP_ENABLED", false),
			Bucket:          getEnv("BACKUP_BUCKET", ""),
			Endpoint:        getEnv("BACKUP_ENDPOINT", ""),
			Region:          getEnv("BACKUP_REGION", "auto"),
			AccessKeyID:     getEnv("BACKUP_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("BACKUP_SECRET_ACCESS_KEY", ""),
			RetentionDays:   getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
		},
		Schedules: ScheduleConfig{
			Backup:       getEnv("BACKUP_SCHEDULE", "0 0 3 * * *"),
			QuoteWarmup:  getEnv("QUOTE_WARMUP_SCHEDULE", "0 */5 * * * *"),
			CacheCleanup: getEnv("CACHE_CLEANUP_SCHEDULE", "0 30 4 * * *"),
			Maintenance:  getEnv("MAINTENANCE_SCHEDULE", "0 0 2 * * *"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.LedgerMaxConflictRetries < 0 {
		return fmt.Errorf("LEDGER_MAX_CONFLICT_RETRIES must not be negative")
	}
	if c.MarketData.MaxRetries < 1 {
		return fmt.Errorf("YAHOO_MAX_RETRIES must be at least 1")
	}
	if c.MarketData.RatePerSecond <= 0 {
		return fmt.Errorf("YAHOO_RATE_PER_SECOND must be positive")
	}
	if c.FallbackUSDTRY <= 0 {
		return fmt.Errorf("FALLBACK_USD_TRY must be positive")
	}

	if c.Backup.Enabled {
		if c.Backup.Bucket == "" {
			return fmt.Errorf("BACKUP_BUCKET is required when backups are enabled")
		}
		if c.Backup.AccessKeyID == "" || c.Backup.SecretAccessKey == "" {
			return fmt.Errorf("backup credentials are required when backups are enabled")
		}
	}

	return c.Schedules.validate()
}

var scheduleParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// validate checks every non-empty schedule; an empty schedule disables its job
func (s ScheduleConfig) validate() error {
	for name, expr := range map[string]string{
		"BACKUP_SCHEDULE":        s.Backup,
		"QUOTE_WARMUP_SCHEDULE":  s.QuoteWarmup,
		"CACHE_CLEANUP_SCHEDULE": s.CacheCleanup,
		"MAINTENANCE_SCHEDULE":   s.Maintenance,
	} {
		if expr == "" {
			continue
		}
		if _, err := scheduleParser.Parse(expr); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, expr, err)
		}
	}
	return nil
}

// LedgerPath returns the path of the ledger database
func (c *Config) LedgerPath() string {
	return filepath.Join(c.DataDir, "ledger.db")
}

// ClientDataPath returns the path of the client data cache database
func (c *Config) ClientDataPath() string {
	return filepath.Join(c.DataDir, "client_data.db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
