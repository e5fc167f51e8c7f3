// Package config loads the formstate CLI configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds the CLI configuration. Every section has working defaults so
// the file is optional.
type Config struct {
	Log        LogConfig        `yaml:"log"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Server     ServerConfig     `yaml:"server"`
	Remote     RemoteConfig     `yaml:"remote"`
	Validation ValidationConfig `yaml:"validation"`
	Edit       EditConfig       `yaml:"edit"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"` // json or console
}

// CatalogConfig selects where form schemas come from.
type CatalogConfig struct {
	// Embedded includes the forms shipped with the binary.
	Embedded bool     `yaml:"embedded"`
	Dirs     []string `yaml:"dirs"`
}

// ServerConfig configures `formstate serve`.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
	// BodyLimit caps request bodies, e.g. "512K" or "2M".
	BodyLimit string `yaml:"body_limit"`
}

// RemoteConfig points edit sessions at a validation endpoint.
type RemoteConfig struct {
	Endpoint string            `yaml:"endpoint"`
	Timeout  string            `yaml:"timeout"`
	Headers  map[string]string `yaml:"headers"`
}

// ValidationConfig tunes rule compilation and dispatch.
type ValidationConfig struct {
	NestedAll   bool `yaml:"nested_all"`
	MaxDispatch int  `yaml:"max_dispatch"`
}

// EditConfig configures `formstate edit`.
type EditConfig struct {
	Output    string `yaml:"output"`
	MaxRounds int    `yaml:"max_rounds"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:    "info",
			Encoding: "json",
		},
		Catalog: CatalogConfig{Embedded: true},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: "10s",
			BodyLimit:       "1M",
		},
		Remote: RemoteConfig{Timeout: "10s"},
		Validation: ValidationConfig{
			MaxDispatch: 256,
		},
		Edit: EditConfig{
			Output:    "json",
			MaxRounds: 3,
		},
	}
}

// Load reads path over the defaults. An empty path or a missing file yields
// the defaults; environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if level := os.Getenv("FORMSTATE_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if addr := os.Getenv("FORMSTATE_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if endpoint := os.Getenv("FORMSTATE_REMOTE_ENDPOINT"); endpoint != "" {
		c.Remote.Endpoint = endpoint
	}
}

// Validate reports settings the CLI cannot run with.
func (c *Config) Validate() error {
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	switch c.Log.Encoding {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.encoding must be json or console, got %q", c.Log.Encoding)
	}
	switch c.Edit.Output {
	case "json", "form", "pretty":
	default:
		return fmt.Errorf("config: edit.output must be json, form or pretty, got %q", c.Edit.Output)
	}
	if c.Validation.MaxDispatch < 0 {
		return fmt.Errorf("config: validation.max_dispatch must not be negative")
	}
	for name, raw := range map[string]string{
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"remote.timeout":          c.Remote.Timeout,
	} {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}
	return nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (zapcore.Level, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("config: log.level: %w", err)
	}
	return level, nil
}

// ShutdownTimeout returns Server.ShutdownTimeout, defaulting to 10s.
func (c *Config) ShutdownTimeout() time.Duration {
	return durationOr(c.Server.ShutdownTimeout, 10*time.Second)
}

// RemoteTimeout returns Remote.Timeout, defaulting to 10s.
func (c *Config) RemoteTimeout() time.Duration {
	return durationOr(c.Remote.Timeout, 10*time.Second)
}

func durationOr(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
