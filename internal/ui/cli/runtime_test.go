package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	coreapp "repolens/internal/core/app"
	"repolens/internal/core/config"
)

func TestParseOptions_SplitsCommand(t *testing.T) {
	opts, err := parseOptions([]string{"-format", "mermaid", "Tree", "analysis.json", "a.py"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.format != "mermaid" {
		t.Fatalf("unexpected format %q", opts.format)
	}
	if opts.command != cmdTree {
		t.Fatalf("expected command %q, got %q", cmdTree, opts.command)
	}
	if len(opts.args) != 2 || opts.args[1] != "a.py" {
		t.Fatalf("unexpected args %v", opts.args)
	}
}

func TestApplyModeOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    cliOptions
		wantErr string
	}{
		{name: "missing command", opts: cliOptions{}, wantErr: "a command is required"},
		{name: "ui alone", opts: cliOptions{ui: true}},
		{name: "unknown command", opts: cliOptions{command: "scan"}, wantErr: "unknown command"},
		{name: "ingest without files", opts: cliOptions{command: cmdIngest}, wantErr: "at least one analysis file"},
		{name: "tree too many args", opts: cliOptions{command: cmdTree, args: []string{"a", "b", "c"}}, wantErr: "optional root path"},
		{name: "trace needs three args", opts: cliOptions{command: cmdTrace, args: []string{"a.json", "x"}}, wantErr: "two path arguments"},
		{name: "history bad subcommand", opts: cliOptions{command: cmdHistory, args: []string{"prune"}}, wantErr: "unknown history subcommand"},
		{name: "watch requires ingest", opts: cliOptions{command: cmdTree, watch: true, args: []string{"a.json"}}, wantErr: "--watch is only supported"},
		{name: "ui with history", opts: cliOptions{command: cmdHistory, ui: true}, wantErr: "--ui cannot be combined"},
		{name: "out with watch", opts: cliOptions{command: cmdIngest, watch: true, outPath: "x.md", args: []string{"a.json"}}, wantErr: "--out cannot be combined"},
		{name: "bad format", opts: cliOptions{command: cmdHistory, format: "yaml"}, wantErr: "unsupported --format"},
		{name: "history list", opts: cliOptions{command: cmdHistory, args: []string{"list"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			err := applyModeOptions(&opts, config.Default())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestApplyModeOptions_FormatOverridesConfig(t *testing.T) {
	cfg := config.Default()
	opts := cliOptions{command: cmdHistory, format: "dot"}
	if err := applyModeOptions(&opts, cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Output.Format != "dot" {
		t.Fatalf("expected format override, got %q", cfg.Output.Format)
	}
}

func TestRunCommand_IngestTreeAndHistory(t *testing.T) {
	app := newUITestApp(t)
	ctx := context.Background()
	path := writeAnalysis(t, `{
		"repo_url": "https://github.com/a/b",
		"files": [{"path": "a.py", "language": "Python"}],
		"dependency_graph": {"a.py": ["b.py", "c.py"], "c.py": ["a.py"]},
		"stars": 3
	}`)

	var out bytes.Buffer
	if code := runCommand(ctx, app, cliOptions{command: cmdIngest, args: []string{path}}, &out); code != 0 {
		t.Fatalf("ingest exit code %d", code)
	}
	if !strings.Contains(out.String(), "Recorded repository https://github.com/a/b") {
		t.Fatalf("unexpected ingest output:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "└── a.py [cycle]") {
		t.Fatalf("expected rendered tree in ingest output:\n%s", out.String())
	}

	out.Reset()
	if code := runCommand(ctx, app, cliOptions{command: cmdTree, args: []string{path, "c.py"}}, &out); code != 0 {
		t.Fatalf("tree exit code %d", code)
	}
	if !strings.HasPrefix(out.String(), "c.py (1)\n") {
		t.Fatalf("expected single-root tree, got:\n%s", out.String())
	}

	out.Reset()
	if code := runCommand(ctx, app, cliOptions{command: cmdHistory}, &out); code != 0 {
		t.Fatalf("history exit code %d", code)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "Repository\thttps://github.com/a/b\t") {
		t.Fatalf("unexpected history output:\n%s", out.String())
	}

	out.Reset()
	if code := runCommand(ctx, app, cliOptions{command: cmdHistory, args: []string{"clear"}}, &out); code != 0 {
		t.Fatalf("history clear exit code %d", code)
	}
	out.Reset()
	runCommand(ctx, app, cliOptions{command: cmdHistory, args: []string{"list"}}, &out)
	if strings.TrimSpace(out.String()) != "No history yet" {
		t.Fatalf("expected empty history, got %q", out.String())
	}
}

func TestRunCommand_CyclesAndTrace(t *testing.T) {
	app := newUITestApp(t)
	ctx := context.Background()
	path := writeAnalysis(t, `{"a.py": ["b.py"], "b.py": ["c.py"], "c.py": ["a.py"], "d.py": ["a.py"]}`)

	var out bytes.Buffer
	if code := runCommand(ctx, app, cliOptions{command: cmdCycles, args: []string{path}}, &out); code != 0 {
		t.Fatalf("cycles exit code %d", code)
	}
	if strings.TrimSpace(out.String()) != "a.py -> b.py -> c.py -> a.py" {
		t.Fatalf("unexpected cycles output %q", out.String())
	}

	out.Reset()
	if code := runCommand(ctx, app, cliOptions{command: cmdTrace, args: []string{path, "d.py", "c.py"}}, &out); code != 0 {
		t.Fatalf("trace exit code %d", code)
	}
	if strings.TrimSpace(out.String()) != "d.py -> a.py -> b.py -> c.py" {
		t.Fatalf("unexpected trace output %q", out.String())
	}

	out.Reset()
	if code := runCommand(ctx, app, cliOptions{command: cmdTrace, args: []string{path, "a.py", "d.py"}}, &out); code != 1 {
		t.Fatalf("expected exit code 1 for missing chain, got %d", code)
	}
}

func TestRunCommand_ProfileSkipsTree(t *testing.T) {
	app := newUITestApp(t)
	path := writeAnalysis(t, `{"username": "octocat", "public_repos": 8, "followers": 100, "avatar_url": "https://example.com/a.png"}`)

	var out bytes.Buffer
	if code := runCommand(context.Background(), app, cliOptions{command: cmdIngest, args: []string{path}}, &out); code != 0 {
		t.Fatalf("ingest exit code %d", code)
	}
	if strings.TrimSpace(out.String()) != "Recorded profile octocat" {
		t.Fatalf("unexpected output %q", out.String())
	}

	if code := runCommand(context.Background(), app, cliOptions{command: cmdTree, args: []string{path}}, &out); code != 1 {
		t.Fatalf("expected tree on a profile to fail, got %d", code)
	}
}

func TestRunCommand_WritesOutFile(t *testing.T) {
	app := newUITestApp(t)
	app.Config.Output.Format = "markdown"
	path := writeAnalysis(t, `{"a.py": ["b.py"]}`)
	outPath := filepath.Join(t.TempDir(), "reports", "deps.md")

	var out bytes.Buffer
	if code := runCommand(context.Background(), app, cliOptions{command: cmdTree, args: []string{path}, outPath: outPath}, &out); code != 0 {
		t.Fatalf("tree exit code %d", code)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "## `a.py`") {
		t.Fatalf("unexpected markdown:\n%s", data)
	}
	if out.Len() != 0 {
		t.Fatalf("expected nothing on stdout, got %q", out.String())
	}
}

func TestRunCommand_IngestManyFilesIntoOneOutFile(t *testing.T) {
	app := newUITestApp(t)
	first := writeAnalysis(t, `{"repo_url": "https://github.com/a/alpha", "dependency_graph": {"alpha.py": ["x.py"]}}`)
	second := writeAnalysis(t, `{"repo_url": "https://github.com/a/beta", "dependency_graph": {"beta.py": ["y.py"]}}`)
	outPath := filepath.Join(t.TempDir(), "trees.txt")

	var out bytes.Buffer
	code := runCommand(context.Background(), app, cliOptions{command: cmdIngest, args: []string{first, second}, outPath: outPath}, &out)
	if code != 0 {
		t.Fatalf("ingest exit code %d", code)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"alpha.py (1)", "beta.py (1)"} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("expected %q in out file:\n%s", want, data)
		}
	}
	if !strings.Contains(out.String(), "Recorded repository https://github.com/a/alpha") ||
		!strings.Contains(out.String(), "Recorded repository https://github.com/a/beta") {
		t.Fatalf("unexpected stdout:\n%s", out.String())
	}
}

func TestLoadConfig_FallsBackToDefaults(t *testing.T) {
	cfg, path, err := loadConfig("", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if path != "" {
		t.Fatalf("expected no config path, got %q", path)
	}
	if cfg.History.MaxEntries != 20 {
		t.Fatalf("expected default history bound, got %d", cfg.History.MaxEntries)
	}

	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml"), t.TempDir()); err == nil {
		t.Fatal("expected explicit missing config to fail")
	}
}

func TestLoadConfig_ReadsProjectFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.DefaultConfigFile), []byte("version = 1\n[tree]\nmax_depth = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, path, err := loadConfig("", dir)
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(dir, config.DefaultConfigFile) {
		t.Fatalf("unexpected path %q", path)
	}
	if cfg.Tree.MaxDepth != 3 {
		t.Fatalf("expected max_depth=3, got %d", cfg.Tree.MaxDepth)
	}
}

func TestObservabilityServer_Health(t *testing.T) {
	app := newUITestApp(t)
	server := NewObservabilityServer("127.0.0.1:0", coreapp.NewHealthService(app))
	if err := server.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer server.Stop(context.Background())

	resp, err := http.Get(fmt.Sprintf("http://%s/health", server.Addr()))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var status coreapp.HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.Status != "up" || status.Components["store"] != "ok" {
		t.Fatalf("unexpected health %+v", status)
	}

	metrics, err := http.Get(fmt.Sprintf("http://%s/metrics", server.Addr()))
	if err != nil {
		t.Fatal(err)
	}
	metrics.Body.Close()
	if metrics.StatusCode != http.StatusOK {
		t.Fatalf("expected metrics 200, got %d", metrics.StatusCode)
	}
}

func TestVersionFlag(t *testing.T) {
	if code := Run([]string{"-version"}); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if code := Run([]string{"-no-such-flag"}); code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
}

func TestConfigureLogging_WritesToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "state", "repolens.log")
	cleanup := configureLogging(logPath, true, "run-123")
	slog.Debug("hello from test")
	cleanup()
	configureLogging("", false, "run-123")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "hello from test") || !strings.Contains(string(data), "run_id=run-123") {
		t.Fatalf("unexpected log content:\n%s", data)
	}
}
