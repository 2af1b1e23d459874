package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.PlaybackInterval() != 800*time.Millisecond {
		t.Errorf("PlaybackInterval() = %v, want 800ms", cfg.PlaybackInterval())
	}
	if cfg.Inspect.Tolerance != 50 {
		t.Errorf("Inspect.Tolerance = %d, want 50", cfg.Inspect.Tolerance)
	}
	if cfg.GetAddress() != "0.0.0.0:8080" {
		t.Errorf("GetAddress() = %s", cfg.GetAddress())
	}
}

func TestLoadConfigCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config file was not written: %v", err)
	}

	// Loading the written file again yields the same values
	again, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() on written file error: %v", err)
	}
	if again.Assets.StatsSource != cfg.Assets.StatsSource || len(again.Assets.Decades) != 5 {
		t.Errorf("reloaded config differs: %+v", again.Assets)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
port = "9090"

[assets]
decades = ["1990", "2000"]
interpolation_steps = 2

[playback]
interval_ms = 250

[logging]
level = "debug"
format = "json"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("unset fields should keep defaults, got host %q", cfg.Server.Host)
	}
	if len(cfg.Assets.Decades) != 2 || cfg.Assets.InterpolationSteps != 2 {
		t.Errorf("assets not decoded: %+v", cfg.Assets)
	}
	if cfg.PlaybackInterval() != 250*time.Millisecond {
		t.Errorf("PlaybackInterval() = %v", cfg.PlaybackInterval())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.Server.Port = "" }},
		{"negative timeout", func(c *Config) { c.Server.ReadTimeout = -1 }},
		{"no decades", func(c *Config) { c.Assets.Decades = nil }},
		{"duplicate decade", func(c *Config) { c.Assets.Decades = []string{"1980", "1980"} }},
		{"empty decade", func(c *Config) { c.Assets.Decades = []string{"1980", ""} }},
		{"negative steps", func(c *Config) { c.Assets.InterpolationSteps = -1 }},
		{"no stats source", func(c *Config) { c.Assets.StatsSource = "" }},
		{"zero interval", func(c *Config) { c.Playback.IntervalMillis = 0 }},
		{"tolerance too large", func(c *Config) { c.Inspect.Tolerance = 256 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Validate() expected error for %s", tt.name)
			}
		})
	}
}

func TestLoadConfigInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server\nport ="), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Errorf("LoadConfig() expected parse error")
	}
}
