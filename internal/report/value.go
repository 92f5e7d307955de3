package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is a report field kept exactly as the tool wrote it. Summary lines
// print fields as stored, so numbers keep their original spelling
// (85 vs 85.0) and strings print without quotes.
type Value struct {
	raw json.RawMessage
}

// NewValue wraps a JSON literal.
func NewValue(literal string) Value {
	return Value{raw: json.RawMessage(literal)}
}

// UnmarshalJSON stores the literal verbatim.
func (v *Value) UnmarshalJSON(data []byte) error {
	v.raw = append(v.raw[:0], bytes.TrimSpace(data)...)
	return nil
}

// MarshalJSON emits the stored literal, or null when empty.
func (v Value) MarshalJSON() ([]byte, error) {
	if len(v.raw) == 0 {
		return []byte("null"), nil
	}
	return v.raw, nil
}

// MarshalYAML emits the stored literal as a native scalar.
func (v Value) MarshalYAML() (interface{}, error) {
	return v.native(), nil
}

// IsNull reports whether the field was null or never set.
func (v Value) IsNull() bool {
	return len(v.raw) == 0 || string(v.raw) == "null"
}

// String renders the value for human-readable output.
func (v Value) String() string {
	if len(v.raw) == 0 {
		return "null"
	}
	if v.raw[0] == '"' {
		var s string
		if err := json.Unmarshal(v.raw, &s); err == nil {
			return s
		}
	}
	return string(v.raw)
}

// Int converts the value to an integer, truncating toward zero. Numbers and
// strings holding a base-10 integer are accepted.
func (v Value) Int() (int, error) {
	if v.IsNull() {
		return 0, fmt.Errorf("%w: null", ErrNotInteger)
	}
	if v.raw[0] == '"' {
		var s string
		if err := json.Unmarshal(v.raw, &s); err != nil {
			return 0, fmt.Errorf("%w: %s", ErrNotInteger, v.raw)
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNotInteger, s)
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(string(v.raw), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%w: %s", ErrNotInteger, v.raw)
	}
	return int(math.Trunc(f)), nil
}

func (v Value) native() interface{} {
	if v.IsNull() {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(v.raw))
	dec.UseNumber()
	var out interface{}
	if err := dec.Decode(&out); err != nil {
		return string(v.raw)
	}
	if n, ok := out.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
	}
	return out
}
