// Package formatter renders coverage gate outcomes.
//
// The text format reproduces the gate's historical console report line for
// line; CI log scrapers depend on it, so it must not change. The table,
// json and yaml formats are additions for humans and tooling.
package formatter

import (
	"fmt"

	"github.com/knp-ci/covgate/internal/gate"
)

// Supported output formats.
const (
	FormatText  = "text"
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Formats lists every accepted format name.
var Formats = []string{FormatText, FormatTable, FormatJSON, FormatYAML}

// New returns the renderer for format.
func New(format string) (gate.Renderer, error) {
	switch format {
	case FormatText, "":
		return &TextFormatter{}, nil
	case FormatTable:
		return &TableFormatter{PathWidth: 72}, nil
	case FormatJSON:
		return &JSONFormatter{Indent: "  "}, nil
	case FormatYAML:
		return &YAMLFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (valid: text|table|json|yaml)", format)
	}
}
