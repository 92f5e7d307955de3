package gate

import (
	"fmt"
	"strconv"
	"strings"
)

// Args are the positional command-line arguments of the gate.
type Args struct {
	Root string
	// Percent is the required integer line coverage. Its range is not checked.
	Percent int
	// Passthrough is forwarded verbatim to the coverage tool.
	Passthrough []string
}

// ParseArgs splits positional arguments into root, percent and passthrough.
// Fewer than two arguments yields ErrUsage; nothing else is validated beyond
// percent being an integer.
func ParseArgs(args []string) (Args, error) {
	if len(args) < 2 {
		return Args{}, ErrUsage
	}
	pct, err := strconv.Atoi(strings.TrimSpace(args[1]))
	if err != nil {
		return Args{}, fmt.Errorf("%w: %q", ErrInvalidPercent, args[1])
	}
	passthrough := make([]string, len(args)-2)
	copy(passthrough, args[2:])
	return Args{Root: args[0], Percent: pct, Passthrough: passthrough}, nil
}

// Usage returns the one-line usage message for program.
func Usage(program string) string {
	return program + " <root directory> <percent>"
}
