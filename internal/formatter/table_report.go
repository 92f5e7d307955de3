package formatter

import (
	"fmt"
	"io"
	"strconv"

	"github.com/knp-ci/covgate/internal/gate"
)

// TableFormatter writes the summary lines followed by an aligned file table.
type TableFormatter struct {
	// PathWidth caps the FILE column; 0 means unlimited.
	PathWidth int
}

// Render writes the outcome with the failing files as a table.
func (tf *TableFormatter) Render(w io.Writer, o *gate.Outcome) error {
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
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	tbl := NewTable(w, "FILE", "LINES", "COVERAGE")
	if tf.PathWidth > 0 {
		tbl.SetMaxWidth(0, tf.PathWidth).KeepTail(0)
	}
	for _, f := range o.Files {
		tbl.AddRow(f.Filename, strconv.Itoa(f.LineTotal), f.LinePercent.String()+"%")
	}
	return tbl.Render()
}
