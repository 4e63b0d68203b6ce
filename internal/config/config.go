// Package config exposes strongly typed application configuration structs
// loaded from YAML, with environment overrides for deployment settings.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"flowfield-go/internal/backtest"
	"flowfield-go/internal/field"
)

// App captures process-wide runtime settings.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	ListenAddr  string `yaml:"listen_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Feed configures the observation source wired into the server.
type Feed struct {
	Provider       string   `yaml:"provider"`
	Symbols        []string `yaml:"symbols"`
	EmitIntervalMs int      `yaml:"emit_interval_ms"`
	WindowCapacity int      `yaml:"window_capacity"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App             `yaml:"app"`
	Feed     Feed            `yaml:"feed"`
	Field    field.Config    `yaml:"field"`
	Backtest backtest.Config `yaml:"backtest"`
}

// envOverrides lets deployments adjust addresses and logging without editing
// the YAML file.
type envOverrides struct {
	ListenAddr  string `env:"FLOWFIELD_LISTEN_ADDR"`
	MetricsAddr string `env:"FLOWFIELD_METRICS_ADDR"`
	LogLevel    string `env:"FLOWFIELD_LOG_LEVEL"`
}

// Default returns a runnable configuration for local work.
func Default() *Config {
	return &Config{
		App: App{
			Name:        "flowfield",
			Env:         "dev",
			ListenAddr:  ":8080",
			MetricsAddr: ":9090",
			LogLevel:    "info",
		},
		Feed: Feed{
			Provider:       "stub",
			Symbols:        []string{"BTCUSDT"},
			EmitIntervalMs: 500,
			WindowCapacity: 200,
		},
		Field:    field.DefaultConfig(),
		Backtest: backtest.DefaultConfig(),
	}
}

// Load reads a YAML file from disk, hydrates a Config struct on top of the
// defaults, and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	}

	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return nil, fmt.Errorf("parse env overrides: %w", err)
	}
	if overrides.ListenAddr != "" {
		cfg.App.ListenAddr = overrides.ListenAddr
	}
	if overrides.MetricsAddr != "" {
		cfg.App.MetricsAddr = overrides.MetricsAddr
	}
	if overrides.LogLevel != "" {
		cfg.App.LogLevel = overrides.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks every tunable section and rejects out-of-range values.
func (c *Config) Validate() error {
	if err := c.Field.Validate(); err != nil {
		return fmt.Errorf("field config: %w", err)
	}
	if err := c.Backtest.Validate(); err != nil {
		return fmt.Errorf("backtest config: %w", err)
	}
	if c.Feed.WindowCapacity < 2 {
		return fmt.Errorf("feed window capacity must be >= 2, got %d", c.Feed.WindowCapacity)
	}
	return nil
}
