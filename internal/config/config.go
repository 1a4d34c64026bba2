// Package config loads credvault settings from an optional YAML file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Environment variables
const (
	EnvConfig        = "CREDVAULT_CONFIG"
	EnvDatabase      = "CREDVAULT_DB"
	EnvService       = "CREDVAULT_SERVICE"
	EnvLogLevel      = "CREDVAULT_LOG_LEVEL"
	EnvSecureElement = "CREDVAULT_SECURE_ELEMENT"
	EnvPassphrase    = "CREDVAULT_PASSPHRASE"
)

const (
	DefaultDatabase = ".credvault"
	DefaultService  = "credvault"
	DefaultLogLevel = "warn"
)

// Config holds the CLI configuration
type Config struct {
	// Database is the path of the BBolt vault file
	Database string `yaml:"database"`

	// Service is the OS keyring service holding device identity and keys
	Service string `yaml:"service"`

	// LogLevel is a zap level name
	LogLevel string `yaml:"log_level"`

	// SecureElement enables the platform secure element key backend
	SecureElement bool `yaml:"secure_element"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Database:      DefaultDatabase,
		Service:       DefaultService,
		LogLevel:      DefaultLogLevel,
		SecureElement: true,
	}
}

// DefaultPath returns the config file location under the user config
// directory, or "" when there is none.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "credvault", "config.yaml")
}

// Load reads the YAML file at path over the defaults. A missing file is not
// an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// FromEnvironment loads the config file named by CREDVAULT_CONFIG, or the
// default one, then applies environment overrides.
func FromEnvironment() (*Config, error) {
	path := os.Getenv(EnvConfig)
	if path == "" {
		path = DefaultPath()
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables looked up by getenv
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvDatabase); v != "" {
		c.Database = v
	}
	if v := getenv(EnvService); v != "" {
		c.Service = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := getenv(EnvSecureElement); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvSecureElement, err)
		}
		c.SecureElement = enabled
	}
	return nil
}

// Validate checks that every field is usable
func (c *Config) Validate() error {
	if c.Database == "" {
		return errors.New("database path is empty")
	}
	if c.Service == "" {
		return errors.New("keyring service is empty")
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	return nil
}

// Logger builds a console logger at the configured level writing to w
func (c *Config) Logger(w io.Writer) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(w)),
		level,
	)
	return zap.New(core), nil
}
