package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultBaseURL           = "http://localhost:8000"
	DefaultQueryPath         = "/query/"
	DefaultHealthIntervalSec = 30
	DefaultLogLevel          = "info"
)

// BackendConfig holds settings for the query-processing service.
type BackendConfig struct {
	// BaseURL is the root URL of the backend (scheme and host).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// QueryPath is appended to BaseURL for query submissions.
	// The backend routes "/query/" and "/query" differently, so the
	// trailing slash is kept as configured.
	QueryPath string `mapstructure:"query_path" yaml:"query_path"`

	// TimeoutSec bounds a single query request. Zero means no timeout.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// HealthIntervalSec is how often the health endpoint is probed.
	// Zero disables probing.
	HealthIntervalSec int `mapstructure:"health_interval_sec" yaml:"health_interval_sec"`
}

// Timeout returns the request timeout as a duration.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutSec <= 0 {
		return 0
	}
	return time.Duration(b.TimeoutSec) * time.Second
}

// HealthInterval returns the health probe interval as a duration.
func (b BackendConfig) HealthInterval() time.Duration {
	if b.HealthIntervalSec <= 0 {
		return 0
	}
	return time.Duration(b.HealthIntervalSec) * time.Second
}

// LogConfig holds log output settings.
type LogConfig struct {
	File  string `mapstructure:"file" yaml:"file"`
	Level string `mapstructure:"level" yaml:"level"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Backend BackendConfig `mapstructure:"backend" yaml:"backend"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// ConfigDir returns ~/.config/privypulse, falling back to the working
// directory when the home directory cannot be resolved.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "privypulse")
}

// DefaultConfigPath returns the default path for the configuration file.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultAppConfig returns the configuration used when no file exists.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Backend: BackendConfig{
			BaseURL:           DefaultBaseURL,
			QueryPath:         DefaultQueryPath,
			HealthIntervalSec: DefaultHealthIntervalSec,
		},
		Log: LogConfig{
			File:  filepath.Join(ConfigDir(), "privypulse.log"),
			Level: DefaultLogLevel,
		},
	}
}

// NewViper returns a viper instance with the configuration defaults
// registered, so flag bindings and file values layer on top of them.
func NewViper() *viper.Viper {
	d := DefaultAppConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("backend.base_url", d.Backend.BaseURL)
	v.SetDefault("backend.query_path", d.Backend.QueryPath)
	v.SetDefault("backend.timeout_sec", d.Backend.TimeoutSec)
	v.SetDefault("backend.health_interval_sec", d.Backend.HealthIntervalSec)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.level", d.Log.Level)
	return v
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	return LoadConfigWith(NewViper(), path)
}

// LoadConfigWith reads path into v and unmarshals the merged result.
// v may already carry flag bindings; those take precedence over the file.
func LoadConfigWith(v *viper.Viper, path string) (*AppConfig, error) {
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	// An explicitly empty query path in the file still means the default.
	if cfg.Backend.QueryPath == "" {
		cfg.Backend.QueryPath = DefaultQueryPath
	}
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = DefaultBaseURL
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("backend.base_url", cfg.Backend.BaseURL)
	v.Set("backend.query_path", cfg.Backend.QueryPath)
	v.Set("backend.timeout_sec", cfg.Backend.TimeoutSec)
	v.Set("backend.health_interval_sec", cfg.Backend.HealthIntervalSec)
	v.Set("log.file", cfg.Log.File)
	v.Set("log.level", cfg.Log.Level)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
