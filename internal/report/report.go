// Package report models the gcovr JSON summary consumed by the coverage gate.
//
// The report is trusted as written: there is no schema validation beyond
// checking that every field the gate reads is present. A missing or
// unusable field is an error, never a silent zero.
package report

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Summary field names as emitted by gcovr --json-summary.
const (
	FieldLineTotal       = "line_total"
	FieldLinePercent     = "line_percent"
	FieldFunctionTotal   = "function_total"
	FieldFunctionCovered = "function_covered"
	FieldBranchTotal     = "branch_total"
	FieldBranchPercent   = "branch_percent"
	FieldFiles           = "files"
	FieldFilename        = "filename"
)

// summaryFields lists the top-level fields every report must carry.
var summaryFields = []string{
	FieldLinePercent,
	FieldLineTotal,
	FieldFunctionTotal,
	FieldFunctionCovered,
	FieldBranchTotal,
	FieldBranchPercent,
}

// Report is a parsed gcovr JSON summary. It is produced once per run and
// never written back.
type Report struct {
	LineTotal       Value
	LinePercent     Value
	FunctionTotal   Value
	FunctionCovered Value
	BranchTotal     Value
	BranchPercent   Value

	// LinePercentInt is LinePercent truncated toward zero.
	LinePercentInt int

	files    json.RawMessage
	hasFiles bool
}

// File is one per-file entry of the summary.
type File struct {
	Filename    string `json:"filename" yaml:"filename"`
	LineTotal   int    `json:"line_total" yaml:"line_total"`
	LinePercent Value  `json:"line_percent" yaml:"line_percent"`
}

// Parse decodes tool output into a Report. It fails on anything that is not
// a JSON object and on any missing summary field. The per-file list is
// decoded lazily by SmallestFiles, since only a failing gate reads it.
func Parse(data []byte) (*Report, error) {
	var fields map[string]Value
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: top-level value is null", ErrMalformed)
	}

	for _, name := range summaryFields {
		if _, ok := fields[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingField, name)
		}
	}

	r := &Report{
		LineTotal:       fields[FieldLineTotal],
		LinePercent:     fields[FieldLinePercent],
		FunctionTotal:   fields[FieldFunctionTotal],
		FunctionCovered: fields[FieldFunctionCovered],
		BranchTotal:     fields[FieldBranchTotal],
		BranchPercent:   fields[FieldBranchPercent],
	}

	pct, err := r.LinePercent.Int()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", FieldLinePercent, err)
	}
	r.LinePercentInt = pct

	if files, ok := fields[FieldFiles]; ok {
		r.files = files.raw
		r.hasFiles = true
	}
	return r, nil
}

// fileEntry is a decoded per-file record plus which optional keys it had.
type fileEntry struct {
	File
	hasName    bool
	hasPercent bool
}

// entries decodes the per-file list. Every entry must carry line_total,
// since all of them take part in the ordering.
func (r *Report) entries() ([]fileEntry, error) {
	if !r.hasFiles {
		return nil, fmt.Errorf("%w: %q", ErrMissingField, FieldFiles)
	}

	var raw []map[string]Value
	if err := json.Unmarshal(r.files, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, FieldFiles, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %s is null", ErrMalformed, FieldFiles)
	}

	out := make([]fileEntry, 0, len(raw))
	for i, e := range raw {
		lt, ok := e[FieldLineTotal]
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d].%s", ErrMissingField, FieldFiles, i, FieldLineTotal)
		}
		n, err := lt.Int()
		if err != nil {
			return nil, fmt.Errorf("%s[%d].%s: %w", FieldFiles, i, FieldLineTotal, err)
		}
		fe := fileEntry{File: File{LineTotal: n}}
		if name, ok := e[FieldFilename]; ok {
			fe.Filename = name.String()
			fe.hasName = true
		}
		if lp, ok := e[FieldLinePercent]; ok {
			fe.LinePercent = lp
			fe.hasPercent = true
		}
		out = append(out, fe)
	}
	return out, nil
}

// SmallestFiles returns at most n files ordered by ascending line_total.
// Ties keep report order. The selection is by size, not by coverage; this
// is the long-standing behavior of the gate's "files without coverage"
// listing and is kept as is.
func (r *Report) SmallestFiles(n int) ([]File, error) {
	entries, err := r.entries()
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].LineTotal < entries[j].LineTotal
	})
	if n >= 0 && len(entries) > n {
		entries = entries[:n]
	}

	files := make([]File, 0, len(entries))
	for i, e := range entries {
		if !e.hasName {
			return nil, fmt.Errorf("%w: %s[%d].%s", ErrMissingField, FieldFiles, i, FieldFilename)
		}
		if !e.hasPercent {
			return nil, fmt.Errorf("%w: %s[%s].%s", ErrMissingField, FieldFiles, e.Filename, FieldLinePercent)
		}
		files = append(files, e.File)
	}
	return files, nil
}
