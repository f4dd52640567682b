package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromPath(t *testing.T) {
	t.Run("missing file returns defaults", func(t *testing.T) {
		cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Acr.QueryTimeoutSec != 30 || cfg.Acr.AbtTimeoutSec != 300 {
			t.Errorf("defaults not applied: %+v", cfg.Acr)
		}
		if !cfg.Cache.Enabled {
			t.Error("cache should default to enabled")
		}
	})

	t.Run("partial file merges with defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cfg.yaml")
		data := "acr:\n  dir: /opt/openacr\n  query_timeout_sec: 10\n"
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
		cfg, err := LoadFromPath(path)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Acr.Dir != "/opt/openacr" {
			t.Errorf("dir = %q", cfg.Acr.Dir)
		}
		if cfg.Acr.QueryTimeoutSec != 10 {
			t.Errorf("query timeout = %d", cfg.Acr.QueryTimeoutSec)
		}
		if cfg.Acr.EditTimeoutSec != 60 {
			t.Errorf("edit timeout not defaulted: %d", cfg.Acr.EditTimeoutSec)
		}
	})

	t.Run("invalid yaml is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cfg.yaml")
		if err := os.WriteFile(path, []byte("acr: ["), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadFromPath(path); err == nil {
			t.Error("expected a parse error")
		}
	})

	t.Run("negative timeout fails validation", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cfg.yaml")
		data := "acr:\n  dir: /opt/openacr\n  amc_timeout_sec: -5\n"
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := LoadFromPath(path)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("err = %v", err)
		}
	})
}

func TestValidate(t *testing.T) {
	t.Run("empty acr dir rejected", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Acr.Dir = ""
		if err := Validate(cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("enabled cache needs a path", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Acr.Dir = "/opt/openacr"
		cfg.Cache.Path = ""
		if err := Validate(cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("err = %v", err)
		}
	})
}

func TestTimeoutAccessors(t *testing.T) {
	a := AcrConfig{QueryTimeoutSec: 30, EditTimeoutSec: 60, AmcTimeoutSec: 120, AbtTimeoutSec: 300}
	if a.QueryTimeout() != 30*time.Second || a.AbtTimeout() != 5*time.Minute {
		t.Errorf("durations = %v %v %v %v",
			a.QueryTimeout(), a.EditTimeout(), a.AmcTimeout(), a.AbtTimeout())
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Run("openacr dir from environment", func(t *testing.T) {
		t.Setenv(EnvOpenacrDir, "/srv/acr")
		cfg := DefaultConfig()
		if cfg.Acr.Dir != "/srv/acr" {
			t.Errorf("dir = %q", cfg.Acr.Dir)
		}
	})

	t.Run("config path from environment", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "custom.yaml")
		data := "acr:\n  dir: /custom/openacr\n"
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
		t.Setenv(EnvConfigPath, path)
		cfg, err := Load()
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Acr.Dir != "/custom/openacr" {
			t.Errorf("dir = %q", cfg.Acr.Dir)
		}
	})
}
