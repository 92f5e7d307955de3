package gcovr

import "errors"

// Sentinel errors for the gcovr package. Callers match with errors.Is.
var (
	// ErrToolStart is returned when the coverage tool process cannot be started
	// at all (binary missing, not executable, bad working directory).
	ErrToolStart = errors.New("coverage tool could not be started")

	// ErrEmptyTool is returned when a command is built without a tool binary.
	ErrEmptyTool = errors.New("coverage tool name is empty")
)
