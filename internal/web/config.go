package web

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/spf13/afero"

	"github.com/klu-lostfound/internal/config"
)

// Config represents the web server configuration
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Auth      AuthConfig      `json:"auth"`
	Uploads   UploadConfig    `json:"uploads"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Features  FeatureConfig   `json:"features"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port           int      `json:"port" validate:"gte=1,lte=65535"`
	Host           string   `json:"host"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	URL            string `json:"url"`
	MaxConnections int    `json:"max_connections" validate:"gte=1"`
}

// AuthConfig contains API key settings; an empty key disables the check
type AuthConfig struct {
	APIKey string `json:"api_key"`
}

// UploadConfig locates uploaded item photos
type UploadConfig struct {
	Dir string `json:"dir" validate:"required"`
}

// RateLimitConfig bounds requests per client IP
type RateLimitConfig struct {
	Enabled           bool `json:"enabled"`
	RequestsPerMinute int  `json:"requests_per_minute" validate:"gte=1"`
	Burst             int  `json:"burst" validate:"gte=1"`
}

// FeatureConfig contains feature toggles
type FeatureConfig struct {
	RecordHistory   bool `json:"record_history"`
	EnhancedEnabled bool `json:"enhanced_enabled"`
}

// LoadConfig loads configuration from a JSON file, starting from the defaults
func LoadConfig(fs afero.Fs, filename string) (*Config, error) {
	data, err := afero.ReadFile(fs, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", filename, err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", filename, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConfigFromEnv returns the defaults overridden by environment variables
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()
	cfg.Server.Port = config.GetEnvInt("PORT", cfg.Server.Port)
	cfg.Server.Host = config.GetEnv("HOST", cfg.Server.Host)
	cfg.Database.URL = config.GetEnv("DATABASE_URL", cfg.Database.URL)
	cfg.Database.MaxConnections = config.GetEnvInt("DATABASE_MAX_CONNECTIONS", cfg.Database.MaxConnections)
	cfg.Auth.APIKey = config.GetEnv("API_KEY", cfg.Auth.APIKey)
	cfg.Uploads.Dir = config.GetEnv("UPLOAD_DIR", cfg.Uploads.Dir)
	cfg.RateLimit.Enabled = config.GetEnvBool("RATE_LIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.RequestsPerMinute = config.GetEnvInt("RATE_LIMIT_RPM", cfg.RateLimit.RequestsPerMinute)
	cfg.RateLimit.Burst = config.GetEnvInt("RATE_LIMIT_BURST", cfg.RateLimit.Burst)
	cfg.Features.RecordHistory = config.GetEnvBool("RECORD_MATCH_HISTORY", cfg.Features.RecordHistory)
	cfg.Features.EnhancedEnabled = config.GetEnvBool("ENHANCED_MATCHING", cfg.Features.EnhancedEnabled)
	return cfg
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid web configuration: %w", err)
	}
	return nil
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			Host:           "0.0.0.0",
			AllowedOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			URL:            "",
			MaxConnections: 25,
		},
		Uploads: UploadConfig{
			Dir: "static/uploads",
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 100,
			Burst:             20,
		},
		Features: FeatureConfig{
			RecordHistory:   true,
			EnhancedEnabled: true,
		},
	}
}
