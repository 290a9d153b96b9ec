package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds all configuration for the application
type Config struct {
	// Server settings
	Port           string   `json:"port"`
	Host           string   `json:"host"`
	AllowedOrigins []string `json:"allowed_origins"`
	APIAuthToken   string   `json:"-"` // Don't expose in JSON

	// Upload settings
	UploadDir           string `json:"upload_dir"`
	MaxUploadMB         int    `json:"max_upload_mb"`
	UploadMaxAgeMinutes int    `json:"upload_max_age_minutes"`
	JanitorSchedule     string `json:"janitor_schedule"`

	// Cloud Storage settings
	GCSBucket          string `json:"gcs_bucket"`
	GCSPrefix          string `json:"gcs_prefix"`
	GCSEndpoint        string `json:"gcs_endpoint,omitempty"`
	GCSCredentialsFile string `json:"-"`
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	config := &Config{
		Port:                getEnvOrDefault("PORT", "8080"),
		Host:                getEnvOrDefault("HOST", "0.0.0.0"),
		AllowedOrigins:      parseStringSlice(getEnvOrDefault("ALLOWED_ORIGINS", "*")),
		APIAuthToken:        getEnvOrDefault("API_AUTH_TOKEN", ""),
		UploadDir:           getEnvOrDefault("UPLOAD_DIR", "uploads"),
		MaxUploadMB:         getEnvOrDefaultInt("MAX_UPLOAD_MB", 16),
		UploadMaxAgeMinutes: getEnvOrDefaultInt("UPLOAD_MAX_AGE_MINUTES", 60),
		JanitorSchedule:     getEnvOrDefault("JANITOR_SCHEDULE", "@every 10m"),
		GCSBucket:           getEnvOrDefault("GCS_BUCKET", ""),
		GCSPrefix:           getEnvOrDefault("GCS_PREFIX", "documents/"),
		GCSEndpoint:         getEnvOrDefault("GCS_ENDPOINT", ""),
		GCSCredentialsFile:  getEnvOrDefault("GCS_CREDENTIALS_FILE", ""),
	}

	return config, config.validate()
}

// MaxUploadBytes returns the upload size limit in bytes
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) * 1024 * 1024
}

// UploadMaxAge returns how long an upload may stay on disk before it is swept
func (c *Config) UploadMaxAge() time.Duration {
	return time.Duration(c.UploadMaxAgeMinutes) * time.Minute
}

// StorageEnabled reports whether a Cloud Storage bucket is configured
func (c *Config) StorageEnabled() bool {
	return c.GCSBucket != ""
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	if c.MaxUploadMB <= 0 {
		return &ConfigError{Field: "MAX_UPLOAD_MB", Message: "must be a positive number"}
	}
	if c.UploadMaxAgeMinutes <= 0 {
		return &ConfigError{Field: "UPLOAD_MAX_AGE_MINUTES", Message: "must be a positive number"}
	}
	if c.UploadDir == "" {
		return &ConfigError{Field: "UPLOAD_DIR", Message: "upload directory is required"}
	}
	if _, err := cron.ParseStandard(c.JanitorSchedule); err != nil {
		return &ConfigError{Field: "JANITOR_SCHEDULE", Message: "invalid cron expression: " + err.Error()}
	}
	return nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default if not set
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// parseStringSlice parses comma-separated string into slice
func parseStringSlice(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
