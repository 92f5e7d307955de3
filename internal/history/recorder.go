package history

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/knp-ci/covgate/internal/gate"
)

// Recorder saves a snapshot per outcome and logs drift against the previous one.
type Recorder struct {
	Dir string
	// Log receives the drift line and the saved path; nil disables logging.
	Log io.Writer
	// Now defaults to time.Now.
	Now func() time.Time
}

// Record implements gate.Options.Record.
func (r *Recorder) Record(o *gate.Outcome) error {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	t := now()
	current := FromOutcome(o, t)

	prev, err := LoadLatest(r.Dir)
	switch {
	case err == nil:
		r.logf("%s\n", ComputeDrift(prev, current))
	case errors.Is(err, ErrNoSnapshots):
		r.logf("no previous snapshot in %s\n", r.Dir)
	default:
		r.logf("could not read previous snapshot: %v\n", err)
	}

	path, err := Save(current, r.Dir, t)
	if err != nil {
		return err
	}
	r.logf("snapshot saved: %s\n", path)
	return nil
}

func (r *Recorder) logf(format string, args ...interface{}) {
	if r.Log == nil {
		return
	}
	//nolint:errcheck // diagnostics only
	fmt.Fprintf(r.Log, format, args...)
}
