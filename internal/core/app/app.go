package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"repolens/internal/core/config"
	"repolens/internal/core/ports"
	"repolens/internal/data/history"
	"repolens/internal/engine/deptree"
)

var (
	_ ports.HistoryCache = (*history.Cache)(nil)
	_ ports.TreeRenderer = (*deptree.Renderer)(nil)
)

// Update is delivered to the update handler after a watched file is re-ingested.
type Update struct {
	Source string
	Result ports.IngestResult
	Err    error
}

// Dependencies lets callers supply the store and clock instead of the ones
// derived from config.
type Dependencies struct {
	Store ports.KeyValueStore
	Clock func() time.Time
}

type App struct {
	Config *config.Config

	store ports.KeyValueStore
	clock func() time.Time

	stateMu  sync.RWMutex
	history  *history.Cache
	renderer *deptree.Renderer

	updateMu sync.RWMutex
	onUpdate func(Update)
}

func New(cfg *config.Config, paths config.ResolvedPaths) (*App, error) {
	store, err := OpenStore(cfg, paths)
	if err != nil {
		return nil, err
	}
	app, err := NewWithDependencies(cfg, Dependencies{Store: store})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return app, nil
}

func NewWithDependencies(cfg *config.Config, deps Dependencies) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("store is required")
	}

	app := &App{Config: cfg, store: deps.Store, clock: deps.Clock}
	if err := app.Reconfigure(cfg); err != nil {
		return nil, err
	}
	return app, nil
}

// Reconfigure rebuilds the tree renderer and history cache from cfg. The
// store is kept, so recorded history survives a config reload.
func (a *App) Reconfigure(cfg *config.Config) error {
	renderer, err := deptree.NewRenderer(
		deptree.WithMaxDepth(cfg.Tree.MaxDepth),
		deptree.WithExclude(cfg.Tree.Exclude...),
	)
	if err != nil {
		return fmt.Errorf("configure tree renderer: %w", err)
	}

	opts := []history.Option{
		history.WithMaxEntries(cfg.History.MaxEntries),
		history.WithStoreKey(cfg.History.Key),
	}
	if a.clock != nil {
		opts = append(opts, history.WithClock(a.clock))
	}

	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	a.Config = cfg
	a.history = history.NewCache(a.store, opts...)
	a.renderer = renderer
	return nil
}

func (a *App) historyCache() *history.Cache {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.history
}

func (a *App) Renderer() *deptree.Renderer {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.renderer
}

func (a *App) SetUpdateHandler(fn func(Update)) {
	a.updateMu.Lock()
	defer a.updateMu.Unlock()
	a.onUpdate = fn
}

func (a *App) emitUpdate(u Update) {
	a.updateMu.RLock()
	fn := a.onUpdate
	a.updateMu.RUnlock()
	if fn != nil {
		fn(u)
	}
}

func (a *App) AnalysisService() ports.AnalysisService {
	return NewAnalysisService(a)
}

// Close releases the store when it owns resources.
func (a *App) Close(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if closer, ok := a.store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
