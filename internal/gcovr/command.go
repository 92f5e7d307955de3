// Package gcovr builds and runs the gcovr invocation used by the coverage gate.
package gcovr

import (
	"path/filepath"
	"strings"
)

const (
	// DefaultTool is the coverage report generator binary.
	DefaultTool = "gcovr"
	// DefaultFilter restricts the report to sources under the knp tree.
	DefaultFilter = "knp"
)

// DefaultSystemInclude excludes compiler and system headers.
var DefaultSystemInclude = filepath.Join(".*usr", "include")

// DefaultExcludes are root-relative exclusion suffixes. Each one becomes an
// independent -e flag, so order carries no meaning.
var DefaultExcludes = []string{
	"third-party/.*",
	"lib/third-party/.*",
	"_deps/.*",
	"knp/.*-traits-library",
	"examples",
}

// Command describes a single gcovr invocation.
type Command struct {
	Tool          string
	Root          string
	SystemInclude string
	Excludes      []string
	Filter        string
	// Extra is appended verbatim after the fixed arguments.
	Extra []string
}

// NewCommand returns the default gate command for root.
func NewCommand(root string) Command {
	return Command{
		Tool:          DefaultTool,
		Root:          root,
		SystemInclude: DefaultSystemInclude,
		Excludes:      append([]string(nil), DefaultExcludes...),
		Filter:        DefaultFilter,
	}
}

// RootDir returns the report root with empty and "." segments and trailing
// separators dropped. ".." segments are kept as given. An empty root means ".".
func (c Command) RootDir() string {
	return normalizeRoot(c.Root)
}

// ExcludePatterns returns the system include pattern followed by every
// exclusion suffix joined onto the root.
func (c Command) ExcludePatterns() []string {
	patterns := make([]string, 0, len(c.Excludes)+1)
	if c.SystemInclude != "" {
		patterns = append(patterns, c.SystemInclude)
	}
	for _, suffix := range c.Excludes {
		patterns = append(patterns, joinRoot(c.RootDir(), suffix))
	}
	return patterns
}

// Args returns the argument vector, excluding the tool name.
func (c Command) Args() []string {
	args := []string{"-r", c.RootDir()}
	for _, p := range c.ExcludePatterns() {
		args = append(args, "-e", p)
	}
	args = append(args,
		"--filter", c.Filter,
		"--json-summary",
		"--gcov-ignore-parse-errors",
	)
	return append(args, c.Extra...)
}

// String renders the full command line with POSIX shell quoting.
func (c Command) String() string {
	parts := append([]string{c.Tool}, c.Args()...)
	for i, p := range parts {
		parts[i] = shellQuote(p)
	}
	return strings.Join(parts, " ")
}

// shellQuote single-quotes s when it contains anything outside a safe set.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("-_./=:,+@%", r):
		default:
			safe = false
		}
		if !safe {
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// normalizeRoot tidies a path lexically without resolving "..".
func normalizeRoot(root string) string {
	sep := string(filepath.Separator)
	root = filepath.FromSlash(root)

	var parts []string
	for _, p := range strings.Split(root, sep) {
		if p == "" || p == "." {
			continue
		}
		parts = append(parts, p)
	}
	joined := strings.Join(parts, sep)
	if strings.HasPrefix(root, sep) {
		return sep + joined
	}
	if joined == "" {
		return "."
	}
	return joined
}

// joinRoot appends a slash-separated suffix to a normalized root.
func joinRoot(root, suffix string) string {
	suffix = normalizeRoot(suffix)
	switch {
	case root == ".":
		return suffix
	case strings.HasSuffix(root, string(filepath.Separator)):
		return root + suffix
	default:
		return root + string(filepath.Separator) + suffix
	}
}
