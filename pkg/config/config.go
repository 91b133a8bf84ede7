package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment overrides.
const (
	EnvConfigPath = "DESIGNATE_CONFIG"
	EnvLogLevel   = "DESIGNATE_LOG_LEVEL"
)

// DefaultPath is where the CLI looks for its config file.
const DefaultPath = "configs/designate.yaml"

// Config holds the application configuration.
type Config struct {
	Log      LogConfig       `yaml:"log"`
	DB       DBConfig        `yaml:"db"`
	Server   ServerConfig    `yaml:"server"`
	Ticker   TickerConfig    `yaml:"ticker"`
	Defs     DefsConfig      `yaml:"defs"`
	Hotkeys  HotkeysConfig   `yaml:"hotkeys"`
	Settings map[string]bool `yaml:"settings"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
	Events   LogSettings `yaml:"events"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds HTTP bridge settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// TickerConfig holds update-loop settings.
type TickerConfig struct {
	Frame          Duration `yaml:"frame"`
	StaleMenuCheck Duration `yaml:"stale_menu_check"`
}

// DefsConfig points at the tool definition file.
type DefsConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// HotkeysConfig holds the reserved bindings.
type HotkeysConfig struct {
	ContextAction string `yaml:"context_action"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/designate.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
			Events: LogSettings{
				Path: "./logs/events.log",
			},
		},
		DB: DBConfig{
			Path: "./data/designate.db",
		},
		Server: ServerConfig{
			Address: "localhost:1921",
		},
		Ticker: TickerConfig{
			Frame:          Duration(16 * time.Millisecond),
			StaleMenuCheck: Duration(1 * time.Minute),
		},
		Defs: DefsConfig{
			Path:  "./configs/defs.yaml",
			Watch: true,
		},
		Hotkeys: HotkeysConfig{
			ContextAction: "z",
		},
		Settings: map[string]bool{},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT save back to disk.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		cfg.Log.Server.Level = lvl
	}
	if cfg.Settings == nil {
		cfg.Settings = map[string]bool{}
	}

	return cfg, nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# designate configuration
# ----------------------
# Durations accept ns, us, ms, s, m, h, d (day), w (week).
# Values under "settings" seed the persisted settings store; anything
# changed at runtime is kept in the database and wins over this file.

`)
	data = append(header, data...)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}

// ResolvePath returns the config path from the environment, falling back to
// fallback.
func ResolvePath(fallback string) string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return fallback
}
