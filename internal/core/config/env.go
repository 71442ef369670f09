package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: REPOLENS_[SECTION]_[KEY] (e.g., REPOLENS_HISTORY_MAX_ENTRIES).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Paths.ProjectRoot, envPrefix+"PATHS_PROJECT_ROOT")
	setEnvString(&cfg.Paths.StateDir, envPrefix+"PATHS_STATE_DIR")

	setEnvString(&cfg.Store.Driver, envPrefix+"STORE_DRIVER")
	setEnvString(&cfg.Store.Path, envPrefix+"STORE_PATH")
	setEnvString(&cfg.Store.Namespace, envPrefix+"STORE_NAMESPACE")
	setEnvDuration(&cfg.Store.BusyTimeout, envPrefix+"STORE_BUSY_TIMEOUT")
	setEnvInt(&cfg.Store.CacheSize, envPrefix+"STORE_CACHE_SIZE")

	setEnvString(&cfg.History.Key, envPrefix+"HISTORY_KEY")
	setEnvInt(&cfg.History.MaxEntries, envPrefix+"HISTORY_MAX_ENTRIES")

	setEnvInt(&cfg.Tree.MaxDepth, envPrefix+"TREE_MAX_DEPTH")
	setEnvList(&cfg.Tree.Exclude, envPrefix+"TREE_EXCLUDE")

	setEnvString(&cfg.Output.Format, envPrefix+"OUTPUT_FORMAT")

	setEnvDuration(&cfg.Watch.Debounce, envPrefix+"WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.ReloadsPerSecond, envPrefix+"WATCH_RELOADS_PER_SECOND")

	setEnvBool(&cfg.Observability.Enabled, envPrefix+"OBSERVABILITY_ENABLED")
	setEnvInt(&cfg.Observability.Port, envPrefix+"OBSERVABILITY_PORT")
	setEnvString(&cfg.Observability.OTLPEndpoint, envPrefix+"OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.EnableTracing, envPrefix+"OBSERVABILITY_ENABLE_TRACING")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

// setEnvList splits a comma-separated value, dropping blanks.
func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		slog.Debug("applying env override", "key", key, "value", val)
		*target = out
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		} else {
			slog.Warn("ignoring invalid env override", "key", key, "value", val, "error", err)
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		} else {
			slog.Warn("ignoring invalid env override", "key", key, "value", val, "error", err)
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		} else {
			slog.Warn("ignoring invalid env override", "key", key, "value", val, "error", err)
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		} else {
			slog.Warn("ignoring invalid env override", "key", key, "value", val, "error", err)
		}
	}
}
