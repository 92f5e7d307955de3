package report

import "errors"

// Sentinel errors for the report package.
var (
	// ErrMalformed is returned when the tool output is not a JSON object.
	ErrMalformed = errors.New("malformed coverage report")

	// ErrMissingField is returned when a field the gate reads is absent.
	ErrMissingField = errors.New("coverage report is missing a field")

	// ErrNotInteger is returned when a field used as an integer cannot be
	// converted to one.
	ErrNotInteger = errors.New("coverage report field is not an integer")
)
