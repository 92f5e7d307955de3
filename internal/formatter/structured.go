package formatter

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/knp-ci/covgate/internal/gate"
)

// JSONFormatter writes the outcome as one JSON document.
type JSONFormatter struct {
	Indent string
}

// Render encodes o as JSON.
func (jf *JSONFormatter) Render(w io.Writer, o *gate.Outcome) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if jf.Indent != "" {
		enc.SetIndent("", jf.Indent)
	}
	return enc.Encode(o)
}

// YAMLFormatter writes the outcome as one YAML document.
type YAMLFormatter struct{}

// Render encodes o as YAML.
func (yf *YAMLFormatter) Render(w io.Writer, o *gate.Outcome) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(o); err != nil {
		return err
	}
	return enc.Close()
}
