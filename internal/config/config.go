// Package config manages application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// YouTube Data API settings
	APIKey            string        `json:"api_key"`
	RequestTimeout    time.Duration `json:"request_timeout"`
	RequestsPerSecond float64       `json:"requests_per_second"`

	// Storage settings
	DataDir     string `json:"data_dir"`
	PostgresDSN string `json:"postgres_dsn"`

	// Collection settings
	ChannelListPath    string `json:"channel_list_path"`
	PartitionThreshold int64  `json:"partition_threshold"`
	BatchSize          int    `json:"batch_size"`
	MaxPageSize        int    `json:"max_page_size"`

	// Enrichment settings
	DetectorEndpoint string        `json:"detector_endpoint"`
	DetectTimeout    time.Duration `json:"detect_timeout"`

	// Logging
	LogLevel string `json:"log_level"`
}

// DefaultConfig returns configuration with safe defaults.
func DefaultConfig() *Config {
	return &Config{
		RequestTimeout:     30 * time.Second,
		RequestsPerSecond:  5,
		DataDir:            "data",
		ChannelListPath:    "channels.csv",
		PartitionThreshold: 500,
		BatchSize:          50,
		MaxPageSize:        50,
		DetectTimeout:      60 * time.Second,
		LogLevel:           "info",
	}
}

// Load loads configuration from environment variables, config file, and applies defaults.
// Priority: env vars > config file > defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	// Try to load from config file
	if err := cfg.loadFromFile(); err != nil {
		// Config file is optional
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	// Override with environment variables
	cfg.loadFromEnv()

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile attempts to load config from ytca.json in current directory or home directory.
func (c *Config) loadFromFile() error {
	paths := []string{
		"ytca.json",
		filepath.Join(os.Getenv("HOME"), ".config", "ytca", "ytca.json"),
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}

		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	}

	return os.ErrNotExist
}

// loadFromEnv overrides config with environment variables.
func (c *Config) loadFromEnv() {
	if v := os.Getenv("YTCA_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("YTCA_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.RequestTimeout = d
		}
	}
	if v := os.Getenv("YTCA_REQUESTS_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RequestsPerSecond = f
		}
	}
	if v := os.Getenv("YTCA_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("YTCA_POSTGRES_DSN"); v != "" {
		c.PostgresDSN = v
	}
	if v := os.Getenv("YTCA_CHANNEL_LIST"); v != "" {
		c.ChannelListPath = v
	}
	if v := os.Getenv("YTCA_PARTITION_THRESHOLD"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.PartitionThreshold = n
		}
	}
	if v := os.Getenv("YTCA_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.BatchSize = n
		}
	}
	if v := os.Getenv("YTCA_MAX_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxPageSize = n
		}
	}
	if v := os.Getenv("YTCA_DETECTOR_ENDPOINT"); v != "" {
		c.DetectorEndpoint = v
	}
	if v := os.Getenv("YTCA_DETECT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.DetectTimeout = d
		}
	}
	if v := os.Getenv("YTCA_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests_per_second must be positive")
	}
	if c.PartitionThreshold <= 0 {
		return fmt.Errorf("partition_threshold must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive")
	}
	if c.MaxPageSize <= 0 || c.MaxPageSize > 50 {
		return fmt.Errorf("max_page_size must be in 1..50")
	}
	if c.DetectTimeout <= 0 {
		return fmt.Errorf("detect_timeout must be positive")
	}
	return nil
}
