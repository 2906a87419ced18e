package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		setEnv       bool
		envValue     string
		expected     string
	}{
		{
			name:         "env variable set",
			key:          "TEST_KEY",
			defaultValue: "default",
			setEnv:       true,
			envValue:     "custom",
			expected:     "custom",
		},
		{
			name:         "env variable not set",
			key:          "TEST_KEY_NOT_SET",
			defaultValue: "default",
			setEnv:       false,
			expected:     "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			result := getEnv(tt.key, tt.defaultValue)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		expected time.Duration
	}{
		{
			name:     "go duration",
			env:      map[string]string{"TEST_TTL": "30m"},
			expected: 30 * time.Minute,
		},
		{
			name:     "seconds fallback",
			env:      map[string]string{"TEST_TTL_SECONDS": "3600"},
			expected: time.Hour,
		},
		{
			name:     "garbage uses default",
			env:      map[string]string{"TEST_TTL": "soon"},
			expected: 5 * time.Second,
		},
		{
			name:     "unset uses default",
			env:      map[string]string{},
			expected: 5 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			assert.Equal(t, tt.expected, getEnvDuration("TEST_TTL", 5*time.Second))
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "testuser",
			Password: "testpass",
			Name:     "testdb",
		},
	}

	dsn := cfg.DSN()
	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable"
	assert.Equal(t, expected, dsn)
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_PASSWORD", "test_db_password")

	cfg, err := Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_MissingDBPassword(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_PASSWORD", "")

	cfg, err := Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "DB_PASSWORD")
}

func TestLoad_WithDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_PASSWORD", "test_db_password")

	// Unset optional fields to test defaults
	for _, key := range []string{"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "HTTP_ADDR", "SESSION_TTL", "SES_FROM_EMAIL", "TELEGRAM_BOT_TOKEN"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	assert.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "norgeskole", cfg.Database.Name)
	assert.Equal(t, "norgeskole", cfg.Database.User)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "norgeskole", cfg.JWTIssuer)
	assert.Empty(t, cfg.Email.FromEmail)
	assert.Empty(t, cfg.TelegramBot)
	assert.False(t, cfg.IsDev())
}
