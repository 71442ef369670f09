package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"repolens/internal/data/history"
	"repolens/internal/engine/deptree"

	"github.com/BurntSushi/toml"
)

// Load decodes a TOML file, applies defaults and environment overrides, and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}

	return finalize(&cfg)
}

// LoadOrDefault behaves like Load but falls back to defaults when the file
// does not exist. The returned bool reports whether the file was read.
func LoadOrDefault(path string) (*Config, bool, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, true, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, false, err
	}
	cfg, err = finalize(&Config{})
	return cfg, false, err
}

// Default returns a validated configuration with every default applied and
// no environment overrides.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func finalize(cfg *Config) (*Config, error) {
	ApplyEnvOverrides(cfg)
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Paths.StateDir) == "" {
		cfg.Paths.StateDir = "data/state"
	}

	if strings.TrimSpace(cfg.Store.Driver) == "" {
		cfg.Store.Driver = DriverSQLite
	}
	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	if strings.TrimSpace(cfg.Store.Path) == "" {
		cfg.Store.Path = "repolens.db"
	}
	if strings.TrimSpace(cfg.Store.Namespace) == "" {
		cfg.Store.Namespace = "default"
	}
	if cfg.Store.BusyTimeout <= 0 {
		cfg.Store.BusyTimeout = 2 * time.Second
	}
	if cfg.Store.CacheSize == 0 {
		cfg.Store.CacheSize = 64
	}

	if strings.TrimSpace(cfg.History.Key) == "" {
		cfg.History.Key = history.DefaultStoreKey
	}
	if cfg.History.MaxEntries == 0 {
		cfg.History.MaxEntries = history.DefaultMaxEntries
	}

	if cfg.Tree.MaxDepth == 0 {
		cfg.Tree.MaxDepth = deptree.DefaultMaxDepth
	}

	if strings.TrimSpace(cfg.Output.Format) == "" {
		cfg.Output.Format = "text"
	}
	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))

	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = 250 * time.Millisecond
	}
	if cfg.Watch.ReloadsPerSecond == 0 {
		cfg.Watch.ReloadsPerSecond = 2
	}

	if cfg.Observability.Port == 0 {
		cfg.Observability.Port = 9464
	}
}
