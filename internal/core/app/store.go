package app

import (
	"fmt"
	"log/slog"

	"repolens/internal/core/config"
	domainerrors "repolens/internal/core/errors"
	"repolens/internal/data/kv"
)

// OpenStore builds the configured key/value backend behind an LRU read cache.
func OpenStore(cfg *config.Config, paths config.ResolvedPaths) (*kv.CachedStore, error) {
	var backend kv.Backend
	switch cfg.Store.Driver {
	case config.DriverMemory:
		backend = kv.NewMemoryStore()
	case config.DriverSQLite, "":
		store, err := kv.OpenSQLite(paths.StorePath, kv.SQLiteOptions{
			Namespace:   cfg.Store.Namespace,
			BusyTimeout: cfg.Store.BusyTimeout,
		})
		if err != nil {
			wrapped := domainerrors.Wrap(err, domainerrors.CodeStorage, "open history store")
			wrapped = domainerrors.AddContext(wrapped, domainerrors.CtxPath, paths.StorePath)
			if kv.IsCorruptError(err) {
				wrapped = domainerrors.AddContext(wrapped, "hint", "the database file is damaged; remove it to start a fresh history")
			}
			return nil, wrapped
		}
		slog.Debug("history store opened", "path", store.Path(), "namespace", store.Namespace())
		backend = store
	default:
		return nil, domainerrors.Newf(domainerrors.CodeValidationError, "unsupported store driver %q", cfg.Store.Driver)
	}

	cached, err := kv.NewCachedStore(backend, cfg.Store.CacheSize)
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("wrap store: %w", err)
	}
	return cached, nil
}
