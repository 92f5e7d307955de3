package formatter

import (
	"fmt"
	"io"

	"github.com/knp-ci/covgate/internal/gate"
)

// TextFormatter writes the classic console report.
type TextFormatter struct{}

// Render writes the summary block followed by the pass line, or by the
// warning and the Top-10 listing on failure.
func (tf *TextFormatter) Render(w io.Writer, o *gate.Outcome) error {
	if err := writeSummary(w, o); err != nil {
		return err
	}
	if o.Passed {
		_, err := fmt.Fprintln(w, "Coverage analysis passed.")
		return err
	}

	if err := writeWarning(w, o); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "Top-10 files without coverage:"); err != nil {
		return err
	}
	for _, f := range o.Files {
		if _, err := fmt.Fprintf(w, "  %s (%s%%)\n", f.Filename, f.LinePercent); err != nil {
			return err
		}
	}
	return nil
}

// writeSummary prints the six summary lines. The function line prints
// function_covered under its historical "percentage" label.
func writeSummary(w io.Writer, o *gate.Outcome) error {
	s := o.Summary
	_, err := fmt.Fprintf(w,
		"Total line count = %s\n"+
			"Line coverage percentage = %d\n"+
			"Total function count = %s\n"+
			"Function coverage percentage = %s\n"+
			"Total branch count = %s\n"+
			"Branch coverage percentage = %s\n",
		s.LineTotal, o.LinePercent, s.FunctionTotal, s.FunctionCovered, s.BranchTotal, s.BranchPercent)
	return err
}

func writeWarning(w io.Writer, o *gate.Outcome) error {
	_, err := fmt.Fprintf(w,
		"Warning: coverage analysis was not passed [%d%% coverage is necessary, but only %d%% is covered]!\n",
		o.RequiredPercent, o.LinePercent)
	return err
}
