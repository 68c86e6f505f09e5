package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the decensor tool
type Config struct {
	// Dataset mirror settings
	Mirror MirrorConfig `yaml:"mirror" json:"mirror"`

	// Danbooru URL construction settings
	Danbooru DanbooruConfig `yaml:"danbooru" json:"danbooru"`

	// Rate limiting for remote dataset requests
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry behavior for remote dataset requests
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// MirrorConfig holds local mirror and dataset source configuration
type MirrorConfig struct {
	// DataDir is the directory holding the batch files and sync state.
	// Empty means the per-OS default data directory.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// ListingURL is the dataset publisher's directory-listing endpoint.
	ListingURL string `yaml:"listing_url" json:"listing_url"`

	// APIToken is an optional bearer token for the dataset host,
	// raising its anonymous request limits.
	APIToken string `yaml:"api_token" json:"api_token"`

	// HTTPTimeout bounds every remote request.
	HTTPTimeout time.Duration `yaml:"http_timeout" json:"http_timeout"`
}

// DanbooruConfig holds settings for reconstructing post URLs
type DanbooruConfig struct {
	// SiteBaseURL is the base URL of the current (non-legacy) image server.
	SiteBaseURL string `yaml:"site_base_url" json:"site_base_url"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// RetryConfig holds retry configuration for remote requests
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

const (
	// DefaultListingURL points at the community dataset's batch directory.
	DefaultListingURL = "https://api.github.com/repos/friendlyanon/decensooru/contents/batches"

	// DefaultSiteBaseURL is the production Danbooru base URL.
	DefaultSiteBaseURL = "https://danbooru.donmai.us"
)

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Mirror: MirrorConfig{
			DataDir:     "",
			ListingURL:  DefaultListingURL,
			HTTPTimeout: 30 * time.Second,
		},
		Danbooru: DanbooruConfig{
			SiteBaseURL: DefaultSiteBaseURL,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			BurstSize:         10,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if dataDir := os.Getenv("DECENSOR_DATA_DIR"); dataDir != "" {
		c.Mirror.DataDir = dataDir
	}
	if listingURL := os.Getenv("DECENSOR_LISTING_URL"); listingURL != "" {
		c.Mirror.ListingURL = listingURL
	}
	if token := os.Getenv("DECENSOR_API_TOKEN"); token != "" {
		c.Mirror.APIToken = token
	}
	if timeout := os.Getenv("DECENSOR_HTTP_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			c.Mirror.HTTPTimeout = d
		}
	}
	if siteURL := os.Getenv("DECENSOR_SITE_URL"); siteURL != "" {
		c.Danbooru.SiteBaseURL = siteURL
	}
	if rpm := os.Getenv("DECENSOR_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}
	if logLevel := os.Getenv("DECENSOR_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".decensor.yaml",
		".decensor.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "decensor", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "decensor", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".decensor.yaml"),
		filepath.Join(os.Getenv("HOME"), ".decensor.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Mirror.ListingURL == "" {
		errs = append(errs, errors.New("dataset listing URL is required"))
	}
	if c.Mirror.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("HTTP timeout must be positive"))
	}

	if c.Danbooru.SiteBaseURL == "" {
		errs = append(errs, errors.New("site base URL is required"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}

	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("max retry attempts cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if dataDir, ok := flags["data-dir"].(string); ok && dataDir != "" {
		c.Mirror.DataDir = dataDir
	}
	if listingURL, ok := flags["listing-url"].(string); ok && listingURL != "" {
		c.Mirror.ListingURL = listingURL
	}
	if siteURL, ok := flags["site-url"].(string); ok && siteURL != "" {
		c.Danbooru.SiteBaseURL = siteURL
	}
	if timeout, ok := flags["http-timeout"].(time.Duration); ok && timeout > 0 {
		c.Mirror.HTTPTimeout = timeout
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".decensor.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Resolve the data directory last so overrides win
	if config.Mirror.DataDir == "" {
		dataDir, err := DefaultDataDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve data directory: %w", err)
		}
		config.Mirror.DataDir = dataDir
	}

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
