// Package config loads callscope settings from a YAML file, with
// environment overrides applied on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "callscope.yaml"

// EnvServer overrides Config.Server.
const EnvServer = "CALLSCOPE_SERVER"

// CacheConfig controls the on-disk compile cache.
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Dir      string `yaml:"dir"`
	MaxBytes int64  `yaml:"max_bytes"`
}

// Config holds every tunable of the CLI and the session layer.
type Config struct {
	Server          string        `yaml:"server"`
	Timeout         time.Duration `yaml:"timeout"`
	CompileDebounce time.Duration `yaml:"compile_debounce"`
	CallDebounce    time.Duration `yaml:"call_debounce"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	Caller          string        `yaml:"caller"`
	Value           string        `yaml:"value"`
	LogLevel        string        `yaml:"log_level"`
	Cache           CacheConfig   `yaml:"cache"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Server:          "http://localhost:8080",
		Timeout:         30 * time.Second,
		CompileDebounce: time.Second,
		CallDebounce:    500 * time.Millisecond,
		PollInterval:    250 * time.Millisecond,
		Caller:          "0x0000000000000000000000000000000000000000",
		Value:           "0",
		LogLevel:        "info",
		Cache:           CacheConfig{Enabled: true},
	}
}

// Load reads path over the defaults. An empty path tries DefaultFile and
// silently keeps the defaults when it does not exist; an explicit path must
// exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	if v := os.Getenv(EnvServer); v != "" {
		cfg.Server = v
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the rest of the program cannot work with.
func (c Config) Validate() error {
	if c.Server == "" {
		return errors.New("server must be set")
	}
	if c.Timeout < 0 || c.CompileDebounce < 0 || c.CallDebounce < 0 {
		return errors.New("durations must not be negative")
	}
	if c.PollInterval <= 0 {
		return errors.New("poll_interval must be positive")
	}
	return nil
}
