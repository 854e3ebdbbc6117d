// Package config loads the optional qrsentry config file and applies defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/qrsentry/qrsentry/internal/validate"
)

// Defaults applied when the config file is absent or partial.
const (
	DefaultBackendURL   = "https://classify.qrsentry.dev"
	DefaultPollInterval = 500 * time.Millisecond
	DefaultOutputPath   = "qr-code.png"
)

// DefaultStoragePath is where scan history and the allowlist live.
const DefaultStoragePath = "~/.local/share/qrsentry/results.json"

// Duration is a wrapper around time.Duration for YAML unmarshaling.
// Accepts either a duration string ("500ms") or an integer nanosecond count.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var v interface{}
	if err := node.Decode(&v); err != nil {
		return err
	}
	switch value := v.(type) {
	case int:
		*d = Duration(time.Duration(value))
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
	default:
		return fmt.Errorf("invalid duration")
	}
	return nil
}

// Config holds the user-tunable settings.
type Config struct {
	// BackendURL is the classification endpoint base URL.
	BackendURL string `yaml:"backend_url" validate:"omitempty,url"`
	// PollInterval is the capture loop cadence.
	PollInterval Duration `yaml:"poll_interval"`
	// WatchDir is the frame spool directory the camera source reads from.
	WatchDir string `yaml:"watch_dir"`
	// OutputPath is where generated QR images are written.
	OutputPath string `yaml:"output_path"`
	// StoragePath overrides the scan history location.
	StoragePath string `yaml:"storage_path"`
}

// Interval returns the configured poll cadence as a time.Duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.PollInterval)
}

// DefaultPath is the well-known config file location.
func DefaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "qrsentry", "config.yaml")
	}
	return ""
}

// Load reads the config file at path, layering it over defaults. A missing
// file is not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := &Config{
		BackendURL:   DefaultBackendURL,
		PollInterval: Duration(DefaultPollInterval),
		OutputPath:   DefaultOutputPath,
		StoragePath:  DefaultStoragePath,
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.BackendURL == "" {
		cfg.BackendURL = DefaultBackendURL
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = Duration(DefaultPollInterval)
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = DefaultOutputPath
	}
	if cfg.StoragePath == "" {
		cfg.StoragePath = DefaultStoragePath
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}
