package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	HTTPAddr       string
	Env            string
	AppBaseURL     string
	MigrationsPath string

	JWTSecret       string
	JWTIssuer       string
	SessionTTL      time.Duration
	OrphanGrace     time.Duration
	CleanupInterval time.Duration

	RedisURL    string
	TelegramBot string

	Email    EmailConfig
	Database DatabaseConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

// EmailConfig holds SES settings. Sending is disabled when FromEmail is empty.
type EmailConfig struct {
	FromEmail string
	FromName  string
	Region    string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		Env:             getEnv("APP_ENV", "prod"),
		AppBaseURL:      getEnv("APP_BASE_URL", "http://localhost:8080"),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "file://migrations"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		JWTIssuer:       getEnv("JWT_ISSUER", "norgeskole"),
		SessionTTL:      getEnvDuration("SESSION_TTL", 24*time.Hour),
		OrphanGrace:     getEnvDuration("ORPHAN_GRACE", 24*time.Hour),
		CleanupInterval: getEnvDuration("CLEANUP_INTERVAL", time.Hour),
		RedisURL:        os.Getenv("REDIS_URL"),
		TelegramBot:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		Email: EmailConfig{
			FromEmail: os.Getenv("SES_FROM_EMAIL"),
			FromName:  getEnv("SES_FROM_NAME", "Norgeskole"),
			Region:    getEnv("AWS_REGION", "eu-north-1"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "norgeskole"),
			User:     getEnv("DB_USER", "norgeskole"),
			Password: os.Getenv("DB_PASSWORD"),
		},
	}

	// Validate required fields
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	return cfg, nil
}

// DSN returns PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}

// IsDev reports whether the service runs with development logging.
func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("30m") or, as KEY_SECONDS, a plain number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	if value := os.Getenv(key + "_SECONDS"); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
