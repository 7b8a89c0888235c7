// Package config loads the layered service configuration: a base TOML
// file, an optional environment overlay, then environment variable
// overrides, finalized with defaults and validation.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/newslens/reframe/pkg/database"
	"github.com/newslens/reframe/pkg/generation"
	"github.com/newslens/reframe/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvReframeEnv             = "REFRAME_ENV"
	EnvReframeShutdownTimeout = "REFRAME_SHUTDOWN_TIMEOUT"
	EnvReframeVersion         = "REFRAME_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "REFRAME_DB_HOST",
	Port:            "REFRAME_DB_PORT",
	Name:            "REFRAME_DB_NAME",
	User:            "REFRAME_DB_USER",
	Password:        "REFRAME_DB_PASSWORD",
	SSLMode:         "REFRAME_DB_SSL_MODE",
	MaxOpenConns:    "REFRAME_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "REFRAME_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "REFRAME_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "REFRAME_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "REFRAME_STORAGE_CONTAINER_NAME",
	ConnectionString: "REFRAME_STORAGE_CONNECTION_STRING",
}

var generationEnv = &generation.Env{
	BaseURL:     "REFRAME_GENERATION_BASE_URL",
	APIKey:      "REFRAME_GENERATION_API_KEY",
	Model:       "REFRAME_GENERATION_MODEL",
	Temperature: "REFRAME_GENERATION_TEMPERATURE",
	MaxTokens:   "REFRAME_GENERATION_MAX_TOKENS",
	CallTimeout: "REFRAME_GENERATION_CALL_TIMEOUT",
}

// Config is the root configuration for the reframe service.
type Config struct {
	Server          ServerConfig      `toml:"server"`
	Database        database.Config   `toml:"database"`
	Storage         storage.Config    `toml:"storage"`
	Generation      generation.Config `toml:"generation"`
	Pipeline        PipelineConfig    `toml:"pipeline"`
	API             APIConfig         `toml:"api"`
	ShutdownTimeout string            `toml:"shutdown_timeout"`
	Version         string            `toml:"version"`
}

// Env returns the REFRAME_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvReframeEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Generation.Merge(&overlay.Generation)
	c.Pipeline.Merge(&overlay.Pipeline)
	c.API.Merge(&overlay.API)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Generation.Finalize(generationEnv); err != nil {
		return fmt.Errorf("generation: %w", err)
	}
	if err := c.Pipeline.Finalize(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvReframeShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvReframeVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvReframeEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
