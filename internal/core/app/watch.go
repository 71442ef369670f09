package app

import (
	"context"
	"log/slog"

	"repolens/internal/core/watcher"
	"repolens/internal/shared/util"
)

// Watch re-ingests files whenever their content changes and reports each
// outcome to the update handler. It blocks until ctx is done.
func (a *App) Watch(ctx context.Context, files []string) error {
	limiter := util.NewLimiter(a.Config.Watch.ReloadsPerSecond, 1)
	w, err := watcher.NewWatcher(a.Config.Watch.Debounce, limiter, func(paths []string) error {
		var firstErr error
		for _, path := range paths {
			result, err := a.IngestFile(ctx, path)
			if err != nil {
				slog.Warn("re-ingest failed", "path", path, "error", err)
				if firstErr == nil {
					firstErr = err
				}
			}
			a.emitUpdate(Update{Source: path, Result: result, Err: err})
		}
		return firstErr
	})
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Watch(files); err != nil {
		return err
	}
	slog.Info("watching analysis files", "files", files)

	<-ctx.Done()
	return nil
}
