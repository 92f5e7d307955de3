// Package gate runs the coverage tool, evaluates its summary against a
// required line coverage percentage and turns the result into an exit status.
package gate

import (
	"context"
	"fmt"
	"io"

	"github.com/knp-ci/covgate/internal/gcovr"
	"github.com/knp-ci/covgate/internal/report"
)

// DefaultTopFiles is how many files a failing gate lists.
const DefaultTopFiles = 10

// Summary carries the report values the gate prints, as the tool wrote them.
type Summary struct {
	LineTotal       report.Value `json:"line_total" yaml:"line_total"`
	LinePercent     report.Value `json:"line_percent" yaml:"line_percent"`
	FunctionTotal   report.Value `json:"function_total" yaml:"function_total"`
	FunctionCovered report.Value `json:"function_covered" yaml:"function_covered"`
	BranchTotal     report.Value `json:"branch_total" yaml:"branch_total"`
	BranchPercent   report.Value `json:"branch_percent" yaml:"branch_percent"`
}

// Outcome is the evaluated result of one gate run.
type Outcome struct {
	Root            string        `json:"root" yaml:"root"`
	RequiredPercent int           `json:"required_percent" yaml:"required_percent"`
	LinePercent     int           `json:"line_percent" yaml:"line_percent"`
	ExitCode        int           `json:"exit_code" yaml:"exit_code"`
	Passed          bool          `json:"passed" yaml:"passed"`
	Summary         Summary       `json:"summary" yaml:"summary"`
	Files           []report.File `json:"files,omitempty" yaml:"files,omitempty"`
}

// Renderer writes an Outcome to w.
type Renderer interface {
	Render(w io.Writer, o *Outcome) error
}

// Options configures a gate run.
type Options struct {
	Command  gcovr.Command
	Percent  int
	Runner   gcovr.Runner
	Renderer Renderer
	Out      io.Writer
	// TopFiles bounds the failing-file listing; zero means DefaultTopFiles.
	TopFiles int
	// Record, when set, is called with every rendered outcome. Its error
	// never changes the exit status; Run reports it on Warn.
	Record func(*Outcome) error
	Warn   io.Writer
}

// ExitCode returns the shortfall in percentage points, or 0 when actual
// meets required.
func ExitCode(required, actual int) int {
	if actual < required {
		return required - actual
	}
	return 0
}

// Evaluate applies the threshold to a parsed report. On failure the
// smallest topFiles files are attached.
func Evaluate(root string, required int, rep *report.Report, topFiles int) (*Outcome, error) {
	o := &Outcome{
		Root:            root,
		RequiredPercent: required,
		LinePercent:     rep.LinePercentInt,
		ExitCode:        ExitCode(required, rep.LinePercentInt),
		Summary: Summary{
			LineTotal:       rep.LineTotal,
			LinePercent:     rep.LinePercent,
			FunctionTotal:   rep.FunctionTotal,
			FunctionCovered: rep.FunctionCovered,
			BranchTotal:     rep.BranchTotal,
			BranchPercent:   rep.BranchPercent,
		},
	}
	o.Passed = o.ExitCode == 0
	if o.Passed {
		return o, nil
	}

	files, err := rep.SmallestFiles(topFiles)
	if err != nil {
		return nil, err
	}
	o.Files = files
	return o, nil
}

// Run executes the gate and returns the process exit status.
//
// A non-zero tool exit is returned as is, with nothing written to Out.
// Errors (tool could not start, malformed report) come back with status 1
// and nothing rendered. Otherwise the outcome is rendered and its exit code
// returned.
func Run(ctx context.Context, opts Options) (int, error) {
	if opts.Runner == nil {
		return 1, ErrNoRunner
	}
	topFiles := opts.TopFiles
	if topFiles <= 0 {
		topFiles = DefaultTopFiles
	}

	res, err := opts.Runner.Run(ctx, opts.Command.Tool, opts.Command.Args())
	if err != nil {
		return 1, err
	}
	if res.ExitCode != 0 {
		return res.ExitCode, nil
	}

	rep, err := report.Parse(res.Stdout)
	if err != nil {
		return 1, fmt.Errorf("parsing %s output: %w", opts.Command.Tool, err)
	}

	outcome, err := Evaluate(opts.Command.RootDir(), opts.Percent, rep, topFiles)
	if err != nil {
		return 1, fmt.Errorf("parsing %s output: %w", opts.Command.Tool, err)
	}

	if opts.Renderer != nil && opts.Out != nil {
		if err := opts.Renderer.Render(opts.Out, outcome); err != nil {
			return 1, fmt.Errorf("writing report: %w", err)
		}
	}

	if opts.Record != nil {
		if err := opts.Record(outcome); err != nil && opts.Warn != nil {
			//nolint:errcheck // best-effort warning
			fmt.Fprintf(opts.Warn, "warning: could not record snapshot: %v\n", err)
		}
	}

	return outcome.ExitCode, nil
}
