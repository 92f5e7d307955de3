// Package config provides configuration management for covgate.
// Configuration is loaded from (highest to lowest priority):
// 1. Command-line flags
// 2. Environment variables (COVGATE_*)
// 3. Project config (--config, $COVGATE_CONFIG, or .covgate.yaml in cwd)
// 4. Home config (~/.covgate/config.yaml)
// 5. Defaults
//
// With no config present the defaults reproduce the gate's fixed gcovr
// invocation exactly.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/knp-ci/covgate/internal/formatter"
	"github.com/knp-ci/covgate/internal/gate"
	"github.com/knp-ci/covgate/internal/gcovr"
)

// ProjectConfigName is the per-project config file looked up in the working directory.
const ProjectConfigName = ".covgate.yaml"

// Config holds all covgate configuration.
type Config struct {
	// Tool is the coverage report generator binary (default: gcovr).
	Tool string `yaml:"tool" json:"tool"`

	// Filter restricts the report to matching source paths (default: knp).
	Filter string `yaml:"filter" json:"filter"`

	// SystemInclude is the exclusion pattern for system headers.
	SystemInclude string `yaml:"system_include" json:"system_include"`

	// Exclude lists root-relative exclusion suffixes. A non-empty list
	// replaces the defaults rather than extending them.
	Exclude []string `yaml:"exclude" json:"exclude"`

	// ExtraArgs are passed to the tool ahead of command-line passthrough args.
	ExtraArgs []string `yaml:"extra_args" json:"extra_args"`

	// Output selects the report format (text, table, json, yaml).
	Output string `yaml:"output" json:"output"`

	// TopFiles bounds the failing-file listing.
	TopFiles int `yaml:"top_files" json:"top_files"`

	// SnapshotDir enables run snapshots when non-empty.
	SnapshotDir string `yaml:"snapshot_dir" json:"snapshot_dir"`

	// Verbose enables diagnostics on stderr.
	Verbose bool `yaml:"verbose" json:"verbose"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Tool:          gcovr.DefaultTool,
		Filter:        gcovr.DefaultFilter,
		SystemInclude: gcovr.DefaultSystemInclude,
		Exclude:       append([]string(nil), gcovr.DefaultExcludes...),
		Output:        formatter.FormatText,
		TopFiles:      gate.DefaultTopFiles,
	}
}

// Source represents where a config value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceHome    Source = "home"
	SourceProject Source = "project"
	SourceEnv     Source = "environment"
	SourceFlag    Source = "flag"
)

// LoadOptions controls Load.
type LoadOptions struct {
	// Path is an explicitly requested config file. It must exist.
	Path string
	// Flags holds command-line values; zero fields are ignored.
	Flags *Config
	// EnvLookup returns environment variable values; defaults to os.Getenv.
	EnvLookup func(string) string
	// HomeDir overrides the home directory lookup; used by tests.
	HomeDir string
	// WorkDir overrides the working directory lookup; used by tests.
	WorkDir string
}

// Loaded is a resolved configuration plus the file it came from and the
// origin of each field.
type Loaded struct {
	*Config
	// ProjectPath is the project config file that was read, if any.
	ProjectPath string
	// Sources maps yaml field names to the layer that last set them.
	Sources map[string]Source
}

// Load resolves configuration with precedence flags > env > project > home > defaults.
func Load(opts LoadOptions) (*Loaded, error) {
	lookup := opts.EnvLookup
	if lookup == nil {
		lookup = os.Getenv
	}

	l := &Loaded{Config: Default(), Sources: make(map[string]Source)}
	for _, f := range fieldNames {
		l.Sources[f] = SourceDefault
	}

	if home := homeConfigPath(opts.HomeDir); home != "" {
		cfg, err := loadFromPath(home)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("home config: %w", err)
		}
		if cfg != nil {
			l.merge(cfg, SourceHome)
		}
	}

	projectPath, required := projectConfigPath(opts.Path, opts.WorkDir, lookup)
	if projectPath != "" {
		cfg, err := loadFromPath(projectPath)
		switch {
		case err == nil:
			l.merge(cfg, SourceProject)
			l.ProjectPath = projectPath
		case errors.Is(err, os.ErrNotExist) && !required:
		default:
			return nil, fmt.Errorf("project config: %w", err)
		}
	}

	env, err := fromEnv(lookup)
	if err != nil {
		return nil, err
	}
	l.merge(env, SourceEnv)

	if opts.Flags != nil {
		l.merge(opts.Flags, SourceFlag)
	}

	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// Validate reports every problem with the resolved configuration at once.
func (c *Config) Validate() error {
	var result *multierror.Error
	if strings.TrimSpace(c.Tool) == "" {
		result = multierror.Append(result, errors.New("tool must not be empty"))
	}
	if strings.TrimSpace(c.Filter) == "" {
		result = multierror.Append(result, errors.New("filter must not be empty"))
	}
	if _, err := formatter.New(c.Output); err != nil {
		result = multierror.Append(result, err)
	}
	if c.TopFiles < 1 {
		result = multierror.Append(result, fmt.Errorf("top_files must be at least 1, got %d", c.TopFiles))
	}
	for i, e := range c.Exclude {
		if strings.TrimSpace(e) == "" {
			result = multierror.Append(result, fmt.Errorf("exclude[%d] is empty", i))
		}
	}
	return result.ErrorOrNil()
}

// Command builds the gcovr invocation for root with passthrough args
// appended after the configured extra args.
func (c *Config) Command(root string, passthrough []string) gcovr.Command {
	cmd := gcovr.NewCommand(root)
	cmd.Tool = c.Tool
	cmd.Filter = c.Filter
	cmd.SystemInclude = c.SystemInclude
	cmd.Excludes = append([]string(nil), c.Exclude...)
	cmd.Extra = append(append([]string(nil), c.ExtraArgs...), passthrough...)
	return cmd
}

// fieldNames lists the yaml names tracked in Loaded.Sources.
var fieldNames = []string{
	"tool", "filter", "system_include", "exclude", "extra_args",
	"output", "top_files", "snapshot_dir", "verbose",
}

// homeConfigPath returns the home config path.
func homeConfigPath(override string) string {
	home := override
	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return ""
		}
	}
	return filepath.Join(home, ".covgate", "config.yaml")
}

// projectConfigPath returns the project config path and whether it was
// named explicitly (and so must exist).
func projectConfigPath(explicit, workDir string, lookup func(string) string) (string, bool) {
	if p := strings.TrimSpace(explicit); p != "" {
		return p, true
	}
	if p := strings.TrimSpace(lookup("COVGATE_CONFIG")); p != "" {
		return p, true
	}
	if workDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", false
		}
		workDir = cwd
	}
	return filepath.Join(workDir, ProjectConfigName), false
}

// loadFromPath loads config from a YAML file. Unknown keys are rejected so
// typos do not silently fall back to defaults.
func loadFromPath(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// fromEnv reads COVGATE_* overrides into a partial Config.
func fromEnv(lookup func(string) string) (*Config, error) {
	cfg := &Config{
		Tool:        strings.TrimSpace(lookup("COVGATE_TOOL")),
		Filter:      strings.TrimSpace(lookup("COVGATE_FILTER")),
		Output:      strings.TrimSpace(lookup("COVGATE_OUTPUT")),
		SnapshotDir: strings.TrimSpace(lookup("COVGATE_SNAPSHOT_DIR")),
	}
	if v := lookup("COVGATE_VERBOSE"); v == "true" || v == "1" {
		cfg.Verbose = true
	}
	if v := strings.TrimSpace(lookup("COVGATE_EXTRA_ARGS")); v != "" {
		args, err := shlex.Split(v)
		if err != nil {
			return nil, fmt.Errorf("COVGATE_EXTRA_ARGS: %w", err)
		}
		cfg.ExtraArgs = args
	}
	return cfg, nil
}

// merge applies every non-zero field of src and records its source.
func (l *Loaded) merge(src *Config, from Source) {
	l.mergeStr("tool", &l.Tool, src.Tool, from)
	l.mergeStr("filter", &l.Filter, src.Filter, from)
	l.mergeStr("system_include", &l.SystemInclude, src.SystemInclude, from)
	l.mergeList("exclude", &l.Exclude, src.Exclude, from)
	l.mergeList("extra_args", &l.ExtraArgs, src.ExtraArgs, from)
	l.mergeStr("output", &l.Output, src.Output, from)
	l.mergeStr("snapshot_dir", &l.SnapshotDir, src.SnapshotDir, from)
	if src.TopFiles != 0 {
		l.TopFiles = src.TopFiles
		l.Sources["top_files"] = from
	}
	if src.Verbose {
		l.Verbose = true
		l.Sources["verbose"] = from
	}
}

// mergeStr overwrites dst with src when src is non-empty.
func (l *Loaded) mergeStr(name string, dst *string, src string, from Source) {
	if src != "" {
		*dst = src
		l.Sources[name] = from
	}
}

// mergeList replaces dst with a copy of src when src is non-empty.
func (l *Loaded) mergeList(name string, dst *[]string, src []string, from Source) {
	if len(src) > 0 {
		*dst = append([]string(nil), src...)
		l.Sources[name] = from
	}
}
