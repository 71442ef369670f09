package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"repolens/internal/core/analysis"
	coreapp "repolens/internal/core/app"
	"repolens/internal/core/config"
	"repolens/internal/data/history"
	"repolens/internal/engine/deptree"
	"repolens/internal/output"
	"repolens/internal/shared/observability"
	"repolens/internal/shared/util"

	"github.com/google/uuid"
)

func Run(args []string) int {
	opts, err := parseOptions(args)
	if err != nil {
		return 2
	}

	if opts.version {
		fmt.Printf("repolens v%s\n", versionString)
		return 0
	}

	runID := uuid.NewString()
	cleanupLogs := configureLogging("", opts.verbose, runID)
	defer func() { cleanupLogs() }()

	cwd, err := os.Getwd()
	if err != nil {
		slog.Error("failed to detect working directory", "error", err)
		return 1
	}

	cfg, cfgPath, err := loadConfig(opts.configPath, cwd)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	if err := applyModeOptions(&opts, cfg); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 2
	}

	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		slog.Error("failed to resolve runtime paths", "error", err)
		return 1
	}
	if opts.ui {
		// The alt screen owns the terminal; send logs to the state dir.
		cleanupLogs = configureLogging(paths.LogPath, opts.verbose, runID)
	}

	app, err := coreapp.New(cfg, paths)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return 1
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := app.Close(closeCtx); err != nil {
			slog.Warn("failed to close store", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown := startObservability(ctx, cfg, app)
	defer shutdown()

	if opts.watch || opts.ui {
		stopConfigWatch := watchConfig(ctx, cfgPath, app)
		defer stopConfigWatch()
	}

	if opts.ui {
		if err := runUI(ctx, app, opts); err != nil {
			slog.Error("failed to run UI", "error", err)
			return 1
		}
		return 0
	}

	return runCommand(ctx, app, opts, os.Stdout)
}

// runCommand executes one non-interactive command and returns the exit code.
func runCommand(ctx context.Context, app *coreapp.App, opts cliOptions, stdout io.Writer) int {
	svc := app.AnalysisService()
	format := app.Config.Output.Format

	switch opts.command {
	case cmdIngest:
		code := 0
		// With -out every forest goes into one file, written once at the end.
		var combined []*deptree.Node
		rendered := false
		for _, path := range opts.args {
			result, err := app.IngestFile(ctx, path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "ingest %s: %v\n", path, err)
				code = 1
				continue
			}
			if result.Entry.Key != "" {
				fmt.Fprintf(stdout, "Recorded %s %s\n", strings.ToLower(result.Entry.Kind.Label()), result.Entry.Key)
			}
			if result.Entry.Kind == history.KindProfile {
				continue
			}
			if opts.outPath != "" {
				combined = append(combined, result.Forest...)
				rendered = true
				continue
			}
			if err := emit(stdout, "", format, result.Forest); err != nil {
				fmt.Fprintln(os.Stderr, err.Error())
				code = 1
			}
		}
		if rendered {
			if err := emit(stdout, opts.outPath, format, combined); err != nil {
				fmt.Fprintln(os.Stderr, err.Error())
				code = 1
			}
		}
		if code != 0 || !opts.watch {
			return code
		}
		return watchAndPrint(ctx, app, opts, stdout)

	case cmdTree:
		graph, err := loadGraph(opts.args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			return 1
		}
		root := ""
		if len(opts.args) == 2 {
			root = opts.args[1]
		}
		forest, _ := svc.RenderGraph(ctx, graph, root)
		if err := emit(stdout, opts.outPath, format, forest); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			return 1
		}
		return 0

	case cmdCycles:
		graph, err := loadGraph(opts.args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			return 1
		}
		cycles := graph.DetectCycles()
		if len(cycles) == 0 {
			fmt.Fprintln(stdout, "No cycles found")
			return 0
		}
		for _, cycle := range cycles {
			fmt.Fprintln(stdout, strings.Join(append(append([]string{}, cycle...), cycle[0]), " -> "))
		}
		return 0

	case cmdTrace:
		graph, err := loadGraph(opts.args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			return 1
		}
		chain, ok := graph.FindChain(opts.args[1], opts.args[2])
		if !ok {
			fmt.Fprintf(stdout, "No dependency chain from %s to %s\n", opts.args[1], opts.args[2])
			return 1
		}
		fmt.Fprintln(stdout, strings.Join(chain, " -> "))
		return 0

	case cmdHistory:
		if len(opts.args) == 1 && opts.args[0] == "clear" {
			if err := svc.ClearHistory(ctx); err != nil {
				fmt.Fprintln(os.Stderr, err.Error())
				return 1
			}
			fmt.Fprintln(stdout, "History cleared")
			return 0
		}
		entries := svc.History(ctx)
		if len(entries) == 0 {
			fmt.Fprintln(stdout, "No history yet")
			return 0
		}
		table, err := output.NewHistoryTSVGenerator(entries).Generate()
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			return 1
		}
		fmt.Fprint(stdout, table)
		return 0
	}

	fmt.Fprintf(os.Stderr, "unknown command %q\n", opts.command)
	return 2
}

func watchAndPrint(ctx context.Context, app *coreapp.App, opts cliOptions, stdout io.Writer) int {
	app.SetUpdateHandler(func(u coreapp.Update) {
		if u.Err != nil {
			fmt.Fprintf(os.Stderr, "reload %s: %v\n", u.Source, u.Err)
			return
		}
		fmt.Fprintf(stdout, "\n# %s reloaded at %s\n", u.Source, time.Now().Format("15:04:05"))
		if err := emit(stdout, "", app.Config.Output.Format, u.Result.Forest); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
		}
	})
	if err := app.Watch(ctx, opts.args); err != nil {
		slog.Error("watch failed", "error", err)
		return 1
	}
	return 0
}

func loadGraph(path string) (deptree.Graph, error) {
	doc, err := analysis.Load(path)
	if err != nil {
		return nil, err
	}
	if doc.Repo == nil {
		return nil, fmt.Errorf("%s is a profile analysis and has no dependency graph", path)
	}
	return doc.Graph(), nil
}

func emit(stdout io.Writer, outPath, format string, forest []*deptree.Node) error {
	rendered, err := output.Generate(format, forest)
	if err != nil {
		return err
	}
	if outPath == "" {
		_, err = io.WriteString(stdout, rendered)
		return err
	}
	if err := util.WriteFileWithDirs(outPath, []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	slog.Info("output written", "path", outPath, "format", format)
	return nil
}

// loadConfig reads the explicit path, or ./repolens.toml when present, and
// falls back to defaults otherwise. The returned path is empty when no file
// was read.
func loadConfig(path, cwd string) (*config.Config, string, error) {
	if strings.TrimSpace(path) != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}

	candidate := filepath.Join(cwd, config.DefaultConfigFile)
	cfg, found, err := config.LoadOrDefault(candidate)
	if err != nil {
		return nil, "", err
	}
	if !found {
		slog.Debug("no config file found, using defaults", "path", candidate)
		return cfg, "", nil
	}
	return cfg, candidate, nil
}

func watchConfig(ctx context.Context, cfgPath string, app *coreapp.App) func() {
	if cfgPath == "" {
		return func() {}
	}
	w := config.NewWatcher(cfgPath, func(cfg *config.Config) {
		if err := app.Reconfigure(cfg); err != nil {
			slog.Warn("config reload rejected", "error", err)
			return
		}
		slog.Info("config reloaded", "path", cfgPath)
	})
	if err := w.Start(ctx); err != nil {
		slog.Warn("config watcher unavailable", "error", err)
		return func() {}
	}
	return w.Stop
}

func startObservability(ctx context.Context, cfg *config.Config, app *coreapp.App) func() {
	var stops []func()

	if cfg.Observability.EnableTracing {
		shutdownTracing, err := observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint, versionString)
		if err != nil {
			slog.Warn("tracing disabled", "error", err)
		} else {
			stops = append(stops, func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if err := shutdownTracing(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
					slog.Warn("tracing shutdown failed", "error", err)
				}
			})
		}
	}

	if cfg.Observability.Enabled {
		server := NewObservabilityServer(fmt.Sprintf(":%d", cfg.Observability.Port), coreapp.NewHealthService(app))
		if err := server.Start(ctx); err != nil {
			slog.Warn("observability server unavailable", "error", err)
		} else {
			stops = append(stops, func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = server.Stop(shutdownCtx)
			})
		}
	}

	return func() {
		for i := len(stops) - 1; i >= 0; i-- {
			stops[i]()
		}
	}
}

// configureLogging installs the default text logger. An empty logPath logs
// to stderr.
func configureLogging(logPath string, verbose bool, runID string) func() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	logOutput := os.Stderr
	closeFn := func() {}
	if logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
			fmt.Fprintf(os.Stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
		} else {
			f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
			if err == nil {
				logOutput = f
				closeFn = func() { _ = f.Close() }
			} else {
				fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(logOutput, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger.With("run_id", runID))
	return closeFn
}
