package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/knp-ci/covgate/internal/config"
	"github.com/knp-ci/covgate/internal/formatter"
	"github.com/knp-ci/covgate/internal/gate"
	"github.com/knp-ci/covgate/internal/gcovr"
	"github.com/knp-ci/covgate/internal/history"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// newRunner builds the coverage tool runner; tests replace it.
var newRunner = func(stderr io.Writer) gcovr.Runner {
	return gcovr.NewExecRunner(stderr)
}

// rootOptions holds flag values and the exit status of one invocation.
type rootOptions struct {
	configPath  string
	output      string
	tool        string
	snapshotDir string
	verbose     bool
	dryRun      bool

	stdout   io.Writer
	stderr   io.Writer
	exitCode int
}

func newRootCmd(stdout, stderr io.Writer) (*cobra.Command, *rootOptions) {
	o := &rootOptions{stdout: stdout, stderr: stderr}

	cmd := &cobra.Command{
		Use:   "covgate [flags] <root directory> <percent> [gcovr args...]",
		Short: "Fail the build when line coverage is below a threshold",
		Long: `covgate runs gcovr over <root directory>, prints a coverage summary and
exits with the shortfall between <percent> and the measured line coverage.

Exit status:
  0          coverage met
  1          usage or runtime error
  N          gcovr itself exited with N
  shortfall  required minus measured percentage points

Flags must come before <root directory>; everything after <percent> is
passed to gcovr unchanged.

Examples:
  covgate build 80
  covgate -o json build 80
  covgate build 80 --gcov-executable "llvm-cov gcov"`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd.Context(), args)
		},
	}

	flags := cmd.Flags()
	flags.SetInterspersed(false)
	flags.StringVar(&o.configPath, "config", "", "Config file (default: ./"+config.ProjectConfigName+")")
	flags.StringVarP(&o.output, "output", "o", "", "Output format (text, table, json, yaml)")
	flags.StringVar(&o.tool, "tool", "", "Coverage tool binary (default: gcovr)")
	flags.StringVar(&o.snapshotDir, "snapshot-dir", "", "Record a snapshot of each run in this directory")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "Enable verbose output on stderr")
	flags.BoolVar(&o.dryRun, "dry-run", false, "Print the gcovr command without running it")

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd, o
}

// execute runs the gate with args and returns the process exit status.
func execute(args []string, stdout, stderr io.Writer) int {
	cmd, o := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		//nolint:errcheck // CLI error output
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return o.exitCode
}

func (o *rootOptions) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		//nolint:errcheck // CLI output
		fmt.Fprintln(o.stdout, gate.Usage(programName()))
		o.exitCode = 1
		return nil
	}

	cfg, err := config.Load(config.LoadOptions{
		Path: o.configPath,
		Flags: &config.Config{
			Output:      o.output,
			Tool:        o.tool,
			SnapshotDir: o.snapshotDir,
			Verbose:     o.verbose,
		},
	})
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	o.verbose = cfg.Verbose
	o.logConfig(cfg)

	parsed, err := gate.ParseArgs(args)
	if err != nil {
		return err
	}

	command := cfg.Command(parsed.Root, parsed.Passthrough)
	if o.dryRun {
		//nolint:errcheck // CLI output
		fmt.Fprintln(o.stdout, command.String())
		return nil
	}
	o.verbosef("Running: %s\n", command)

	renderer, err := formatter.New(cfg.Output)
	if err != nil {
		return err
	}

	opts := gate.Options{
		Command:  command,
		Percent:  parsed.Percent,
		Runner:   newRunner(o.stderr),
		Renderer: renderer,
		Out:      o.stdout,
		TopFiles: cfg.TopFiles,
		Warn:     o.stderr,
	}
	if cfg.SnapshotDir != "" {
		rec := &history.Recorder{Dir: cfg.SnapshotDir}
		if o.verbose {
			rec.Log = o.stderr
		}
		opts.Record = rec.Record
	}

	code, err := gate.Run(ctx, opts)
	if err != nil {
		return err
	}
	o.exitCode = code
	return nil
}

// verbosef writes to stderr only when verbose mode is enabled, keeping
// stdout limited to the report.
func (o *rootOptions) verbosef(format string, args ...interface{}) {
	if o.verbose {
		//nolint:errcheck // diagnostics only
		fmt.Fprintf(o.stderr, format, args...)
	}
}

func (o *rootOptions) logConfig(cfg *config.Loaded) {
	if !o.verbose {
		return
	}
	if cfg.ProjectPath != "" {
		o.verbosef("Config: %s\n", cfg.ProjectPath)
	}
	names := make([]string, 0, len(cfg.Sources))
	for name := range cfg.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if src := cfg.Sources[name]; src != config.SourceDefault {
			o.verbosef("  %s (from %s)\n", name, src)
		}
	}
}

// programName returns the invoked binary's base name for the usage line.
func programName() string {
	if len(os.Args) == 0 {
		return "covgate"
	}
	return filepath.Base(os.Args[0])
}
