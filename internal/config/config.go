package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

const configFileName = "config.yaml"

// Config holds the full application configuration. Values are resolved in
// three layers: built-in defaults, then the user configuration file when
// present, then ACTIVITY_* environment variables.
type Config struct {
	// SharePath is the root of the vosslabhpc network share. Written by
	// `report-builder init`, consumed by the interactive session.
	SharePath string `yaml:"share_path" envconfig:"SHARE_PATH"`

	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Database DatabaseConfig `yaml:"database" envconfig:"DATABASE"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`

	// source is the configuration file the values were merged from, empty
	// when no file existed.
	source string
}

// ServerConfig holds HTTP server settings. Timeouts are configured via
// environment only (yaml.v2 has no duration syntax).
type ServerConfig struct {
	Host         string        `yaml:"host" envconfig:"HOST"`
	Port         int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout  time.Duration `yaml:"-" envconfig:"READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"-" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `yaml:"-" envconfig:"IDLE_TIMEOUT"`
}

// DatabaseConfig holds archive database settings
type DatabaseConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT"`
	User            string        `yaml:"user" envconfig:"USER"`
	Password        string        `yaml:"password" envconfig:"PASSWORD"`
	Database        string        `yaml:"database" envconfig:"NAME"`
	SSLMode         string        `yaml:"sslmode" envconfig:"SSLMODE"`
	MaxOpenConns    int           `yaml:"max_open_conns" envconfig:"MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" envconfig:"MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"-" envconfig:"CONN_MAX_LIFETIME"`
	ConnMaxIdleTime time.Duration `yaml:"-" envconfig:"CONN_MAX_IDLE_TIME"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string `yaml:"level" envconfig:"LEVEL"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Password:        "postgres",
			Database:        "activity",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig resolves the configuration: defaults, then the user file,
// then environment overrides.
func LoadConfig() (*Config, error) {
	path, err := File()
	if err != nil {
		// No resolvable config dir (e.g. containers without HOME): run on
		// defaults and environment only.
		path = ""
	}
	return loadConfig(path)
}

func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
			cfg.source = path
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	if err := envconfig.Process("activity", cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for values that cannot work
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.IdleTimeout <= 0 {
		return errors.New("server timeouts must be positive")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("max open connections must be positive, got %d", c.Database.MaxOpenConns)
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("max idle connections cannot be negative, got %d", c.Database.MaxIdleConns)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %q", c.Logging.Level)
	}

	return nil
}

// Source returns the configuration file the values were loaded from, or
// an empty string when no file existed.
func (c *Config) Source() string {
	return c.source
}

// RequireSharePath returns the configured share path, or the fatal
// precondition error directing the operator to `report-builder init`.
func (c *Config) RequireSharePath() (string, error) {
	if strings.TrimSpace(c.SharePath) != "" {
		return c.SharePath, nil
	}
	if c.source == "" {
		return "", errors.New("No configuration found. Please run `report-builder init` first.")
	}
	return "", fmt.Errorf("share_path in %s is empty. Re-run `report-builder init`.", c.source)
}

// Dir returns the report-builder user configuration directory.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("unable to determine the user's configuration directory: %w", err)
	}
	return filepath.Join(base, "report-builder"), nil
}

// File returns the user configuration file location.
func File() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// SaveSharePath writes a fresh configuration file containing the share
// path, creating the configuration directory if needed, and returns the
// file location.
func SaveSharePath(sharePath string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return writeSharePath(dir, sharePath)
}

func writeSharePath(dir, sharePath string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	path := filepath.Join(dir, configFileName)
	payload := struct {
		SharePath string `yaml:"share_path"`
	}{SharePath: sharePath}

	data, err := yaml.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode configuration: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	return path, nil
}
