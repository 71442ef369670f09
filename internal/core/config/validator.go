package config

import (
	"fmt"
	"strings"
)

// Validate reports the first invalid setting.
func Validate(cfg *Config) error {
	for _, check := range []func(*Config) error{
		validateVersion,
		validateStore,
		validateHistory,
		validateTree,
		validateOutput,
		validateWatch,
		validateObservability,
	} {
		if err := check(cfg); err != nil {
			return err
		}
	}
	return nil
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateStore(cfg *Config) error {
	switch cfg.Store.Driver {
	case DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("store.driver must be one of: sqlite, memory; got %q", cfg.Store.Driver)
	}
	if cfg.Store.Driver == DriverSQLite && strings.TrimSpace(cfg.Store.Path) == "" {
		return fmt.Errorf("store.path must not be empty")
	}
	if cfg.Store.CacheSize < 0 {
		return fmt.Errorf("store.cache_size must be >= 0, got %d", cfg.Store.CacheSize)
	}
	return nil
}

func validateHistory(cfg *Config) error {
	if cfg.History.MaxEntries < 1 {
		return fmt.Errorf("history.max_entries must be >= 1, got %d", cfg.History.MaxEntries)
	}
	return nil
}

func validateTree(cfg *Config) error {
	if cfg.Tree.MaxDepth < 1 {
		return fmt.Errorf("tree.max_depth must be >= 1, got %d", cfg.Tree.MaxDepth)
	}
	for i, pattern := range cfg.Tree.Exclude {
		if strings.TrimSpace(pattern) == "" {
			return fmt.Errorf("tree.exclude[%d] must not be empty", i)
		}
	}
	return nil
}

func validateOutput(cfg *Config) error {
	if !outputFormats[cfg.Output.Format] {
		return fmt.Errorf("output.format must be one of: text, markdown, mermaid, dot, json, plantuml; got %q", cfg.Output.Format)
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.ReloadsPerSecond < 0 {
		return fmt.Errorf("watch.reloads_per_second must be > 0, got %v", cfg.Watch.ReloadsPerSecond)
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if cfg.Observability.Port < 1 || cfg.Observability.Port > 65535 {
		return fmt.Errorf("observability.port must be between 1 and 65535, got %d", cfg.Observability.Port)
	}
	if cfg.Observability.EnableTracing && strings.TrimSpace(cfg.Observability.OTLPEndpoint) == "" {
		return fmt.Errorf("observability.otlp_endpoint is required when enable_tracing is true")
	}
	return nil
}

// ValidFormat reports whether format names a known output renderer.
func ValidFormat(format string) bool {
	return outputFormats[strings.ToLower(strings.TrimSpace(format))]
}
