package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultLoader reads Config from a YAML file. A missing file is not an
// error; it yields the zero Config so every setting falls back to its
// flag or engine default.
type DefaultLoader struct {
	path string
}

// NewDefaultLoader returns a Loader bound to ~/.config/gcpaudit/config.yaml.
func NewDefaultLoader() *DefaultLoader {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &DefaultLoader{path: filepath.Join(home, ".config", "gcpaudit", "config.yaml")}
}

// NewFileLoader returns a Loader bound to an explicit path.
func NewFileLoader(path string) *DefaultLoader {
	return &DefaultLoader{path: path}
}

// ConfigPath implements Loader.
func (l *DefaultLoader) ConfigPath() string { return l.path }

// Load implements Loader.
func (l *DefaultLoader) Load() (*Config, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", l.path, err)
	}

	if cfg.Audit.Concurrency < 0 {
		return nil, fmt.Errorf("audit.concurrency: must not be negative, got %d", cfg.Audit.Concurrency)
	}
	if cfg.Audit.Timeout != "" {
		if _, err := time.ParseDuration(cfg.Audit.Timeout); err != nil {
			return nil, fmt.Errorf("audit.timeout: %w", err)
		}
	}
	return &cfg, nil
}
