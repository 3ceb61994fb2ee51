// Package config handles the XDG configuration directory, file paths and client settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	// AppName is the application directory name.
	AppName = "taskdeck"

	// SettingsFile is the optional settings filename inside the config directory.
	SettingsFile = "config.yaml"

	// TokenFile is the stored session filename.
	TokenFile = "token.json"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// Settings holds values read from config.yaml and the environment.
	Settings Settings
}

// Settings are the tunables of the API client and the dashboard.
// Values come from config.yaml when present, then environment variables win.
type Settings struct {
	BaseURL         string        `yaml:"base_url" env:"TASKDECK_BASE_URL" env-default:"http://127.0.0.1:8000/api"`
	PageSize        int           `yaml:"page_size" env:"TASKDECK_PAGE_SIZE" env-default:"10"`
	Timeout         time.Duration `yaml:"timeout" env:"TASKDECK_TIMEOUT" env-default:"10s"`
	SearchDebounce  time.Duration `yaml:"search_debounce" env:"TASKDECK_SEARCH_DEBOUNCE" env-default:"1s"`
	RateLimit       float64       `yaml:"rate_limit" env:"TASKDECK_RATE_LIMIT" env-default:"20"`
	RateBurst       int           `yaml:"rate_burst" env:"TASKDECK_RATE_BURST" env-default:"10"`
	BreakerFailures uint32        `yaml:"breaker_failures" env:"TASKDECK_BREAKER_FAILURES" env-default:"5"`
	BreakerCooldown time.Duration `yaml:"breaker_cooldown" env:"TASKDECK_BREAKER_COOLDOWN" env-default:"30s"`
}

// New creates a new Config with the default or specified config directory
// and loads its settings.
// If configDir is empty, uses XDG_CONFIG_HOME/taskdeck or $HOME/.config/taskdeck.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{Dir: dir}
	if err := cfg.LoadSettings(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// LoadSettings reads config.yaml from the config directory if it exists and
// overlays environment variables. Missing values take their defaults.
func (c *Config) LoadSettings() error {
	var s Settings

	path := c.SettingsPath()
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &s); err != nil {
			return fmt.Errorf("failed to read %s: %w", SettingsFile, err)
		}
	} else if err := cleanenv.ReadEnv(&s); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	if s.PageSize < 1 {
		return fmt.Errorf("invalid page_size: %d", s.PageSize)
	}
	c.Settings = s
	return nil
}

// SettingsPath returns the path to the optional settings file.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// TokenPath returns the path to the stored session file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}
