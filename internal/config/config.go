package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the openacr-mcp configuration file
const ConfigFileName = ".openacr-mcp.yaml"

// EnvConfigPath overrides the config file location
const EnvConfigPath = "OPENACR_MCP_CONFIG"

// EnvOpenacrDir overrides the OpenACR checkout location
const EnvOpenacrDir = "OPENACR_DIR"

// Config holds all openacr-mcp configuration
type Config struct {
	Acr   AcrConfig   `yaml:"acr"`
	Cache CacheConfig `yaml:"cache"`
	Serve ServeConfig `yaml:"serve"`
}

// AcrConfig holds the OpenACR checkout location and per-command-class
// timeouts in seconds
type AcrConfig struct {
	Dir             string `yaml:"dir"`
	QueryTimeoutSec int    `yaml:"query_timeout_sec"`
	EditTimeoutSec  int    `yaml:"edit_timeout_sec"`
	AmcTimeoutSec   int    `yaml:"amc_timeout_sec"`
	AbtTimeoutSec   int    `yaml:"abt_timeout_sec"`
}

// CacheConfig holds configuration for the parse-result cache
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ServeConfig holds configuration for the stdio server
type ServeConfig struct {
	InactivityTimeoutSec int `yaml:"inactivity_timeout_sec"`
}

// ErrInvalidConfig is returned when config validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

// QueryTimeout returns the acr query deadline as a duration.
func (a AcrConfig) QueryTimeout() time.Duration {
	return time.Duration(a.QueryTimeoutSec) * time.Second
}

// EditTimeout returns the acr_ed deadline as a duration.
func (a AcrConfig) EditTimeout() time.Duration {
	return time.Duration(a.EditTimeoutSec) * time.Second
}

// AmcTimeout returns the amc deadline as a duration.
func (a AcrConfig) AmcTimeout() time.Duration {
	return time.Duration(a.AmcTimeoutSec) * time.Second
}

// AbtTimeout returns the abt deadline as a duration.
func (a AcrConfig) AbtTimeout() time.Duration {
	return time.Duration(a.AbtTimeoutSec) * time.Second
}

// InactivityTimeout returns the serve inactivity deadline as a duration.
func (s ServeConfig) InactivityTimeout() time.Duration {
	return time.Duration(s.InactivityTimeoutSec) * time.Second
}

// Load reads config from $OPENACR_MCP_CONFIG, or ~/.openacr-mcp.yaml if the
// variable is unset. A missing file is not an error; defaults apply.
func Load() (*Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return DefaultConfig(), nil
		}
		path = filepath.Join(home, ConfigFileName)
	}
	return LoadFromPath(path)
}

// LoadFromPath reads config from a specific path.
// Merges loaded config with defaults and validates the result.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	loaded := &Config{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	merged := Merge(loaded, DefaultConfig())

	if err := Validate(merged); err != nil {
		return nil, err
	}

	return merged, nil
}

// Validate checks that the merged configuration is usable.
func Validate(cfg *Config) error {
	if cfg.Acr.Dir == "" {
		return fmt.Errorf("%w: acr.dir must be set (or export %s)",
			ErrInvalidConfig, EnvOpenacrDir)
	}

	for _, tc := range []struct {
		name string
		sec  int
	}{
		{"query_timeout_sec", cfg.Acr.QueryTimeoutSec},
		{"edit_timeout_sec", cfg.Acr.EditTimeoutSec},
		{"amc_timeout_sec", cfg.Acr.AmcTimeoutSec},
		{"abt_timeout_sec", cfg.Acr.AbtTimeoutSec},
	} {
		if tc.sec <= 0 {
			return fmt.Errorf("%w: acr.%s must be positive, got %d",
				ErrInvalidConfig, tc.name, tc.sec)
		}
	}

	if cfg.Serve.InactivityTimeoutSec < 0 {
		return fmt.Errorf("%w: serve.inactivity_timeout_sec must be non-negative, got %d",
			ErrInvalidConfig, cfg.Serve.InactivityTimeoutSec)
	}

	if cfg.Cache.Enabled && cfg.Cache.Path == "" {
		return fmt.Errorf("%w: cache.path must be set when the cache is enabled",
			ErrInvalidConfig)
	}

	return nil
}
