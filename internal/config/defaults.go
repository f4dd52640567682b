package config

import (
	"os"
	"path/filepath"
)

// DefaultConfig returns configuration with sensible defaults.
// These defaults are used when no config file exists or when
// config file is missing specific fields.
func DefaultConfig() *Config {
	return &Config{
		Acr: AcrConfig{
			Dir:             defaultOpenacrDir(),
			QueryTimeoutSec: 30,
			EditTimeoutSec:  60,
			AmcTimeoutSec:   120,
			AbtTimeoutSec:   300,
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    defaultCachePath(),
		},
		Serve: ServeConfig{
			InactivityTimeoutSec: 0, // no inactivity shutdown unless asked for
		},
	}
}

// defaultCachePath puts the parse cache under the user's openacr-mcp state
// directory; a relative fallback keeps it usable when home is unknown.
func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".openacr-mcp", "cache.db")
	}
	return filepath.Join(home, ".openacr-mcp", "cache.db")
}

// defaultOpenacrDir resolves the checkout location from $OPENACR_DIR,
// falling back to ~/openacr.
func defaultOpenacrDir() string {
	if dir := os.Getenv(EnvOpenacrDir); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "openacr")
}

// Merge merges loaded config with defaults.
// Values from loaded config take precedence over defaults.
// Returns a new Config with merged values.
func Merge(loaded, defaults *Config) *Config {
	result := &Config{}

	result.Acr = mergeAcrConfig(loaded.Acr, defaults.Acr)
	result.Cache = mergeCacheConfig(loaded.Cache, defaults.Cache)
	result.Serve = mergeServeConfig(loaded.Serve, defaults.Serve)

	return result
}

func mergeAcrConfig(loaded, defaults AcrConfig) AcrConfig {
	result := AcrConfig{}

	if loaded.Dir != "" {
		result.Dir = loaded.Dir
	} else {
		result.Dir = defaults.Dir
	}

	if loaded.QueryTimeoutSec != 0 {
		result.QueryTimeoutSec = loaded.QueryTimeoutSec
	} else {
		result.QueryTimeoutSec = defaults.QueryTimeoutSec
	}

	if loaded.EditTimeoutSec != 0 {
		result.EditTimeoutSec = loaded.EditTimeoutSec
	} else {
		result.EditTimeoutSec = defaults.EditTimeoutSec
	}

	if loaded.AmcTimeoutSec != 0 {
		result.AmcTimeoutSec = loaded.AmcTimeoutSec
	} else {
		result.AmcTimeoutSec = defaults.AmcTimeoutSec
	}

	if loaded.AbtTimeoutSec != 0 {
		result.AbtTimeoutSec = loaded.AbtTimeoutSec
	} else {
		result.AbtTimeoutSec = defaults.AbtTimeoutSec
	}

	return result
}

func mergeCacheConfig(loaded, defaults CacheConfig) CacheConfig {
	result := CacheConfig{}

	// Enabled: YAML unmarshals missing as false, which is indistinguishable
	// from an explicit false; fall back to the default in that case
	result.Enabled = loaded.Enabled
	if !loaded.Enabled && defaults.Enabled {
		result.Enabled = defaults.Enabled
	}

	if loaded.Path != "" {
		result.Path = loaded.Path
	} else {
		result.Path = defaults.Path
	}

	return result
}

func mergeServeConfig(loaded, defaults ServeConfig) ServeConfig {
	result := ServeConfig{}

	if loaded.InactivityTimeoutSec != 0 {
		result.InactivityTimeoutSec = loaded.InactivityTimeoutSec
	} else {
		result.InactivityTimeoutSec = defaults.InactivityTimeoutSec
	}

	return result
}
