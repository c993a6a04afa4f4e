package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// ToriBox API
	APIBaseURL         string
	AdminToken         string // Issued to staff; stored on login
	HTTPTimeoutSeconds int    // Per-request timeout for API calls (default: 30)

	// Login
	AdminEmail    string
	AdminPassword string

	// Bunny CDN
	BunnyCDNURL string

	// Catalog
	MovieCacheMinutes int // How long fetched movie lists stay cached (default: 5)

	// Dashboard
	StatsSchedule string // Cron spec for dashboard refresh (default: every 30 minutes)

	// Server
	ServerPort string

	// Paths
	CredentialsFile string // $CONFIG_DIR/credentials.json
	DatabaseFile    string // $CONFIG_DIR/toriadmin.db

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = v.ReadInConfig()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	v.SetDefault("TORIBOX_API_URL", "https://api.tori-box.com")
	v.SetDefault("BUNNY_CDN_URL", "https://vz-980df3f8-a39.b-cdn.net")
	v.SetDefault("HTTP_TIMEOUT_SECONDS", 30)
	v.SetDefault("MOVIE_CACHE_MINUTES", 5)
	v.SetDefault("STATS_SCHEDULE", "*/30 * * * *")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")

	configDir := v.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "toriadmin")
	} else {
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config := &Config{
		APIBaseURL:         v.GetString("TORIBOX_API_URL"),
		AdminToken:         v.GetString("TORIBOX_ADMIN_TOKEN"),
		HTTPTimeoutSeconds: v.GetInt("HTTP_TIMEOUT_SECONDS"),

		AdminEmail:    v.GetString("ADMIN_EMAIL"),
		AdminPassword: v.GetString("ADMIN_PASSWORD"),

		BunnyCDNURL: v.GetString("BUNNY_CDN_URL"),

		MovieCacheMinutes: v.GetInt("MOVIE_CACHE_MINUTES"),

		StatsSchedule: v.GetString("STATS_SCHEDULE"),

		ServerPort: v.GetString("SERVER_PORT"),

		CredentialsFile: filepath.Join(configDir, "credentials.json"),
		DatabaseFile:    filepath.Join(configDir, "toriadmin.db"),

		LogLevel: v.GetString("LOG_LEVEL"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks values that would otherwise fail later at runtime
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("TORIBOX_API_URL is required")
	}
	if c.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS must be positive, got %d", c.HTTPTimeoutSeconds)
	}
	if c.MovieCacheMinutes < 0 {
		return fmt.Errorf("MOVIE_CACHE_MINUTES must not be negative, got %d", c.MovieCacheMinutes)
	}
	if _, err := cron.ParseStandard(c.StatsSchedule); err != nil {
		return fmt.Errorf("invalid STATS_SCHEDULE %q: %w", c.StatsSchedule, err)
	}
	return nil
}
