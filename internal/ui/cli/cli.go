package cli

import (
	"flag"
	"fmt"
	"strings"

	"repolens/internal/core/config"
)

const versionString = "1.0.0"

const (
	cmdIngest  = "ingest"
	cmdTree    = "tree"
	cmdCycles  = "cycles"
	cmdTrace   = "trace"
	cmdHistory = "history"
)

type cliOptions struct {
	configPath string
	format     string
	outPath    string
	watch      bool
	ui         bool
	verbose    bool
	version    bool

	command string
	args    []string
}

func parseOptions(args []string) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("repolens", flag.ContinueOnError)

	fs.StringVar(&opts.configPath, "config", "", "Path to config file (default ./"+config.DefaultConfigFile+")")
	fs.StringVar(&opts.format, "format", "", "Tree output format: text, markdown, mermaid, dot, json, plantuml")
	fs.StringVar(&opts.outPath, "out", "", "Write rendered output to this file instead of stdout")
	fs.BoolVar(&opts.watch, "watch", false, "Re-ingest analysis files when they change")
	fs.BoolVar(&opts.ui, "ui", false, "Enable terminal UI mode")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	rest := fs.Args()
	if len(rest) > 0 {
		opts.command = strings.ToLower(rest[0])
		opts.args = rest[1:]
	}
	return opts, nil
}

// applyModeOptions checks the command line against itself and folds flag
// overrides into cfg.
func applyModeOptions(opts *cliOptions, cfg *config.Config) error {
	if opts.format != "" {
		if !config.ValidFormat(opts.format) {
			return fmt.Errorf("unsupported --format %q", opts.format)
		}
		cfg.Output.Format = opts.format
	}

	switch opts.command {
	case "":
		if !opts.ui {
			return fmt.Errorf("a command is required: %s, %s, %s, %s or %s", cmdIngest, cmdTree, cmdCycles, cmdTrace, cmdHistory)
		}
	case cmdIngest:
		if len(opts.args) == 0 {
			return fmt.Errorf("%s requires at least one analysis file", cmdIngest)
		}
	case cmdTree:
		if len(opts.args) < 1 || len(opts.args) > 2 {
			return fmt.Errorf("%s requires an analysis file and an optional root path", cmdTree)
		}
	case cmdCycles:
		if len(opts.args) != 1 {
			return fmt.Errorf("%s requires exactly one analysis file", cmdCycles)
		}
	case cmdTrace:
		if len(opts.args) != 3 {
			return fmt.Errorf("%s requires an analysis file and two path arguments", cmdTrace)
		}
	case cmdHistory:
		if len(opts.args) > 1 {
			return fmt.Errorf("%s accepts at most one subcommand", cmdHistory)
		}
		if len(opts.args) == 1 && opts.args[0] != "list" && opts.args[0] != "clear" {
			return fmt.Errorf("unknown %s subcommand %q (use list or clear)", cmdHistory, opts.args[0])
		}
	default:
		return fmt.Errorf("unknown command %q", opts.command)
	}

	if opts.watch && opts.command != cmdIngest {
		return fmt.Errorf("--watch is only supported with %s", cmdIngest)
	}
	if opts.ui && opts.command != "" && opts.command != cmdIngest {
		return fmt.Errorf("--ui cannot be combined with %s", opts.command)
	}
	if opts.outPath != "" && (opts.ui || opts.watch) {
		return fmt.Errorf("--out cannot be combined with --ui or --watch")
	}
	return nil
}
