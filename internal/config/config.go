package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	GoEnv string `env:"GO_ENV" default:"development"`

	// Service Ports
	HTTPPort int `env:"HTTP_PORT" default:"8080"`

	// Database
	DatabaseURL  string `env:"DATABASE_URL"` // full DSN, skips secret lookup when set
	DBHost       string `env:"DB_HOST" default:"localhost"`
	DBPort       int    `env:"DB_PORT" default:"5432"`
	DBName       string `env:"DB_NAME" default:"manga_alert"`
	DBSSLMode    string `env:"DB_SSLMODE" default:"require"`
	DBSecretName string `env:"DB_SECRET_NAME" default:"manga-alert-db"`
	DBUsername   string `env:"DB_USERNAME"`
	DBPassword   string `env:"DB_PASSWORD"`
	DBMaxConns   int    `env:"DB_MAX_CONNS" default:"4"`

	// creates or updates the schema when a binary connects
	DBAutoMigrate bool `env:"DB_AUTO_MIGRATE" default:"true"`

	// Secrets
	SecretsBackend string `env:"SECRETS_BACKEND" default:"env"`
	SecretsDir     string `env:"SECRETS_DIR" default:"/run/secrets"`
	AWSRegion      string `env:"AWS_REGION" default:"eu-west-1"` // Secrets Manager and SES

	// Run lock
	RedisURL       string        `env:"REDIS_URL" default:"redis://localhost:6379"`
	RunLockBackend string        `env:"RUN_LOCK_BACKEND" default:"file"`
	RunLockPath    string        `env:"RUN_LOCK_PATH" default:"/tmp"`
	RunLockTTL     time.Duration `env:"RUN_LOCK_TTL" default:"30m"`

	// Email
	EmailBackend       string `env:"EMAIL_BACKEND" default:"sendgrid"`
	EmailSender        string `env:"EMAIL_SENDER" default:"no-reply@mangaalertitalia.it"`
	SendGridSecretName string `env:"SENDGRID_SECRET_NAME" default:"sendgrid-api-key"`
	SendGridAPIHost    string `env:"SENDGRID_API_HOST" default:"https://api.sendgrid.com"`
	UnsubscribeBaseURL string `env:"UNSUBSCRIBE_BASE_URL" default:"https://mangaalertitalia.it/unsubscribe"`

	// Alerting
	AlertTimezone          string `env:"ALERT_TIMEZONE" default:"Europe/Rome"`
	AlertLedgerErrorPolicy string `env:"ALERT_LEDGER_ERROR_POLICY" default:"assume_sent"`
	AlertIsolateHorizons   bool   `env:"ALERT_ISOLATE_HORIZONS" default:"false"`

	// Scraping
	WatchlistPath       string        `env:"WATCHLIST_PATH" default:"watchlist.toml"`
	ScrapeWorkers       int           `env:"SCRAPE_WORKERS" default:"1"`
	ScrapeTimeout       time.Duration `env:"SCRAPE_TIMEOUT" default:"30s"`
	ScrapeRatePerSecond float64       `env:"SCRAPE_RATE_PER_SECOND" default:"1"`

	// Subscriptions
	MaxSubscribers         int `env:"MAX_SUBSCRIBERS" default:"15"`
	SubscribeRatePerMinute int `env:"SUBSCRIBE_RATE_PER_MINUTE" default:"10"`

	// Admin authentication
	JWTSecret         string        `env:"JWT_SECRET"`
	AccessTokenTTL    time.Duration `env:"ACCESS_TOKEN_TTL" default:"15m"`
	AdminPasswordHash string        `env:"ADMIN_PASSWORD_HASH"`
	CORSOrigins       []string      `env:"CORS_ORIGINS" default:"https://mangaalertitalia.it"`

	// Development
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"json"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// .env is optional, system env vars still apply
	if err := godotenv.Load(".env"); err != nil {
		slog.Debug("dotenv_not_loaded", "error", err)
	}

	config := &Config{}

	loadEnvString(&config.GoEnv, "GO_ENV", "development")
	if err := loadEnvInt(&config.HTTPPort, "HTTP_PORT", 8080); err != nil {
		return nil, err
	}

	// Database
	loadEnvString(&config.DatabaseURL, "DATABASE_URL", "")
	loadEnvString(&config.DBHost, "DB_HOST", "localhost")
	if err := loadEnvInt(&config.DBPort, "DB_PORT", 5432); err != nil {
		return nil, err
	}
	loadEnvString(&config.DBName, "DB_NAME", "manga_alert")
	loadEnvString(&config.DBSSLMode, "DB_SSLMODE", "require")
	loadEnvString(&config.DBSecretName, "DB_SECRET_NAME", "manga-alert-db")
	loadEnvString(&config.DBUsername, "DB_USERNAME", "")
	loadEnvString(&config.DBPassword, "DB_PASSWORD", "")
	if err := loadEnvInt(&config.DBMaxConns, "DB_MAX_CONNS", 4); err != nil {
		return nil, err
	}
	if err := loadEnvBool(&config.DBAutoMigrate, "DB_AUTO_MIGRATE", true); err != nil {
		return nil, err
	}

	// Secrets
	loadEnvString(&config.SecretsBackend, "SECRETS_BACKEND", "env")
	loadEnvString(&config.SecretsDir, "SECRETS_DIR", "/run/secrets")
	loadEnvString(&config.AWSRegion, "AWS_REGION", "eu-west-1")

	// Run lock
	loadEnvString(&config.RedisURL, "REDIS_URL", "redis://localhost:6379")
	loadEnvString(&config.RunLockBackend, "RUN_LOCK_BACKEND", "file")
	loadEnvString(&config.RunLockPath, "RUN_LOCK_PATH", os.TempDir())
	if err := loadEnvDuration(&config.RunLockTTL, "RUN_LOCK_TTL", 30*time.Minute); err != nil {
		return nil, err
	}

	// Email
	loadEnvString(&config.EmailBackend, "EMAIL_BACKEND", "sendgrid")
	loadEnvString(&config.EmailSender, "EMAIL_SENDER", "no-reply@mangaalertitalia.it")
	loadEnvString(&config.SendGridSecretName, "SENDGRID_SECRET_NAME", "sendgrid-api-key")
	loadEnvString(&config.SendGridAPIHost, "SENDGRID_API_HOST", "https://api.sendgrid.com")
	loadEnvString(&config.UnsubscribeBaseURL, "UNSUBSCRIBE_BASE_URL", "https://mangaalertitalia.it/unsubscribe")

	// Alerting
	loadEnvString(&config.AlertTimezone, "ALERT_TIMEZONE", "Europe/Rome")
	loadEnvString(&config.AlertLedgerErrorPolicy, "ALERT_LEDGER_ERROR_POLICY", "assume_sent")
	if err := loadEnvBool(&config.AlertIsolateHorizons, "ALERT_ISOLATE_HORIZONS", false); err != nil {
		return nil, err
	}

	// Scraping
	loadEnvString(&config.WatchlistPath, "WATCHLIST_PATH", "watchlist.toml")
	if err := loadEnvInt(&config.ScrapeWorkers, "SCRAPE_WORKERS", 1); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.ScrapeTimeout, "SCRAPE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if err := loadEnvFloat(&config.ScrapeRatePerSecond, "SCRAPE_RATE_PER_SECOND", 1); err != nil {
		return nil, err
	}

	// Subscriptions
	if err := loadEnvInt(&config.MaxSubscribers, "MAX_SUBSCRIBERS", 15); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.SubscribeRatePerMinute, "SUBSCRIBE_RATE_PER_MINUTE", 10); err != nil {
		return nil, err
	}

	// Admin authentication
	loadEnvString(&config.JWTSecret, "JWT_SECRET", "")
	if err := loadEnvDuration(&config.AccessTokenTTL, "ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	loadEnvString(&config.AdminPasswordHash, "ADMIN_PASSWORD_HASH", "")
	loadEnvStringSlice(&config.CORSOrigins, "CORS_ORIGINS", []string{"https://mangaalertitalia.it"})

	// Development
	loadEnvString(&config.LogLevel, "LOG_LEVEL", "info")
	loadEnvString(&config.LogFormat, "LOG_FORMAT", "json")

	return config, nil
}

// Helper functions for type conversion and validation
func loadEnvString(target *string, key, defaultValue string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	} else {
		*target = defaultValue
	}
}

func loadEnvInt(target *int, key string, defaultValue int) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvFloat(target *float64, key string, defaultValue float64) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvBool(target *bool, key string, defaultValue bool) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvDuration(target *time.Duration, key string, defaultValue time.Duration) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvStringSlice(target *[]string, key string, defaultValue []string) {
	if value := os.Getenv(key); value != "" {
		*target = strings.Split(value, ",")
		for i, v := range *target {
			(*target)[i] = strings.TrimSpace(v)
		}
	} else {
		*target = defaultValue
	}
}

// Validate performs validation on the loaded configuration
func (c *Config) Validate() error {
	var errors []string

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errors = append(errors, "HTTP_PORT must be between 1 and 65535")
	}
	if c.DatabaseURL == "" && c.DBHost == "" {
		errors = append(errors, "either DATABASE_URL or DB_HOST must be set")
	}
	if c.DBMaxConns < 1 {
		errors = append(errors, "DB_MAX_CONNS must be at least 1")
	}

	if !contains([]string{"env", "file", "secretsmanager"}, c.SecretsBackend) {
		errors = append(errors, "SECRETS_BACKEND must be one of: env, file, secretsmanager")
	}
	if !contains([]string{"file", "redis", "none"}, c.RunLockBackend) {
		errors = append(errors, "RUN_LOCK_BACKEND must be one of: file, redis, none")
	}
	if !contains([]string{"sendgrid", "ses", "log"}, c.EmailBackend) {
		errors = append(errors, "EMAIL_BACKEND must be one of: sendgrid, ses, log")
	}
	if (c.SecretsBackend == "secretsmanager" || c.EmailBackend == "ses") && c.AWSRegion == "" {
		errors = append(errors, "AWS_REGION is required for the secretsmanager and ses backends")
	}
	if !contains([]string{"assume_sent", "assume_unsent"}, c.AlertLedgerErrorPolicy) {
		errors = append(errors, "ALERT_LEDGER_ERROR_POLICY must be one of: assume_sent, assume_unsent")
	}
	if _, err := time.LoadLocation(c.AlertTimezone); err != nil {
		errors = append(errors, fmt.Sprintf("ALERT_TIMEZONE is not a valid location: %v", err))
	}

	if c.ScrapeWorkers < 1 {
		errors = append(errors, "SCRAPE_WORKERS must be at least 1")
	}
	if c.ScrapeRatePerSecond <= 0 {
		errors = append(errors, "SCRAPE_RATE_PER_SECOND must be positive")
	}
	if c.MaxSubscribers < 0 {
		errors = append(errors, "MAX_SUBSCRIBERS must not be negative")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: %s", strings.Join(validLogLevels, ", ")))
	}
	validLogFormats := []string{"text", "json"}
	if !contains(validLogFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: %s", strings.Join(validLogFormats, ", ")))
	}

	// admin routes are disabled when no secret is configured
	if c.JWTSecret != "" && len(c.JWTSecret) < 32 {
		errors = append(errors, "JWT_SECRET should be at least 32 characters long")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// AdminEnabled reports whether the admin routes can issue and verify tokens.
func (c *Config) AdminEnabled() bool {
	return c.JWTSecret != "" && c.AdminPasswordHash != ""
}

// Location returns the timezone used to decide what "today" is for alerts.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.AlertTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
