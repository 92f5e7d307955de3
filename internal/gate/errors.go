package gate

import "errors"

// Sentinel errors for the gate package.
var (
	// ErrUsage is returned when fewer than two positional arguments are given.
	ErrUsage = errors.New("usage: root directory and percent are required")

	// ErrInvalidPercent is returned when the percent argument is not an integer.
	ErrInvalidPercent = errors.New("percent must be an integer")

	// ErrNoRunner is returned when Run is called without a tool runner.
	ErrNoRunner = errors.New("no coverage tool runner configured")
)
