package history

import "errors"

// ErrNoSnapshots is returned by LoadLatest when there is nothing to compare against.
var ErrNoSnapshots = errors.New("no snapshots found")
