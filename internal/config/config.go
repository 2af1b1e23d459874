package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Assets   AssetsConfig   `toml:"assets"`
	Playback PlaybackConfig `toml:"playback"`
	Inspect  InspectConfig  `toml:"inspect"`
	Logging  LoggingConfig  `toml:"logging"`
	Ngrok    NgrokConfig    `toml:"ngrok"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port         string `toml:"port"`
	Host         string `toml:"host"`
	StaticDir    string `toml:"static_dir"`
	EnableCORS   bool   `toml:"enable_cors"`
	ReadTimeout  int    `toml:"read_timeout_seconds"`
	WriteTimeout int    `toml:"write_timeout_seconds"`
	IdleTimeout  int    `toml:"idle_timeout_seconds"`
}

// AssetsConfig describes the image set and the statistics document
type AssetsConfig struct {
	ImageDir           string   `toml:"image_dir"`
	URLPrefix          string   `toml:"url_prefix"`
	Decades            []string `toml:"decades"`
	InterpolationSteps int      `toml:"interpolation_steps"`
	StatsSource        string   `toml:"stats_source"`
	WatchForChanges    bool     `toml:"watch_for_changes"`
	ImageCacheMinutes  int      `toml:"image_cache_minutes"`
}

// PlaybackConfig contains animation settings
type PlaybackConfig struct {
	IntervalMillis int `toml:"interval_ms"`
}

// InspectConfig contains click lookup settings
type InspectConfig struct {
	Tolerance int `toml:"tolerance"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level          string `toml:"level"`
	Format         string `toml:"format"`
	File           string `toml:"file"`
	RequestLogging bool   `toml:"request_logging"`
}

// NgrokConfig contains ngrok tunnel configuration
type NgrokConfig struct {
	Enabled      bool   `toml:"enabled"`
	AuthToken    string `toml:"auth_token"`
	Domain       string `toml:"domain"`
	Region       string `toml:"region"`
	EnableAuth   bool   `toml:"enable_auth"`
	AuthProvider string `toml:"auth_provider"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			Host:         "0.0.0.0",
			StaticDir:    "./static",
			EnableCORS:   true,
			ReadTimeout:  30,
			WriteTimeout: 0, // event stream stays open
			IdleTimeout:  120,
		},
		Assets: AssetsConfig{
			ImageDir:           "./img",
			URLPrefix:          "img",
			Decades:            []string{"1980", "1990", "2000", "2010", "2020"},
			InterpolationSteps: 5,
			StatsSource:        "./data/genres_summary.json",
			WatchForChanges:    true,
			ImageCacheMinutes:  15,
		},
		Playback: PlaybackConfig{
			IntervalMillis: 800,
		},
		Inspect: InspectConfig{
			Tolerance: 50,
		},
		Logging: LoggingConfig{
			Level:          "info",
			Format:         "text",
			File:           "",
			RequestLogging: true,
		},
		Ngrok: NgrokConfig{
			Enabled:      false,
			AuthToken:    "",
			Domain:       "",
			Region:       "us",
			EnableAuth:   false,
			AuthProvider: "google",
		},
	}
}

// LoadConfig loads configuration from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Config file doesn't exist, create it with defaults
		if err := cfg.SaveToFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config file: %w", err)
		}
		return cfg, nil
	}

	// Load from file
	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves the configuration to a TOML file
func (c *Config) SaveToFile(configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Create or open file
	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	// Write header comment
	header := `# Genre Map Explorer Configuration
# This file contains all configuration options for the genre map explorer.
# Edit the values below to customize your server settings.

`
	if _, err := file.WriteString(header); err != nil {
		return fmt.Errorf("failed to write config header: %w", err)
	}

	// Encode configuration to TOML
	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config to TOML: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}
	if c.Server.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.IdleTimeout < 0 {
		return fmt.Errorf("server timeouts must not be negative")
	}

	// Validate assets config
	if c.Assets.ImageDir == "" {
		return fmt.Errorf("image directory cannot be empty")
	}
	if len(c.Assets.Decades) == 0 {
		return fmt.Errorf("at least one decade must be specified")
	}
	seen := make(map[string]bool, len(c.Assets.Decades))
	for _, d := range c.Assets.Decades {
		if d == "" {
			return fmt.Errorf("decade labels cannot be empty")
		}
		if seen[d] {
			return fmt.Errorf("duplicate decade: %s", d)
		}
		seen[d] = true
	}
	if c.Assets.InterpolationSteps < 0 {
		return fmt.Errorf("interpolation steps must not be negative")
	}
	if c.Assets.StatsSource == "" {
		return fmt.Errorf("statistics source cannot be empty")
	}
	if c.Assets.ImageCacheMinutes < 1 {
		return fmt.Errorf("image cache duration must be at least 1 minute")
	}

	// Validate playback and inspect config
	if c.Playback.IntervalMillis < 1 {
		return fmt.Errorf("playback interval must be positive")
	}
	if c.Inspect.Tolerance < 0 || c.Inspect.Tolerance > 255 {
		return fmt.Errorf("inspect tolerance must be between 0 and 255")
	}

	// Validate logging config
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Logging.Format)
	}

	return nil
}

// GetAddress returns the full server address
func (c *Config) GetAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}

// PlaybackInterval returns the delay between animation frames
func (c *Config) PlaybackInterval() time.Duration {
	return time.Duration(c.Playback.IntervalMillis) * time.Millisecond
}

// ImageCacheTTL returns how long decoded images stay cached
func (c *Config) ImageCacheTTL() time.Duration {
	return time.Duration(c.Assets.ImageCacheMinutes) * time.Minute
}
