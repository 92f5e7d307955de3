package history

import "fmt"

// Trend labels for Drift.
const (
	TrendImproved  = "improved"
	TrendRegressed = "regressed"
	TrendUnchanged = "unchanged"
)

// Drift describes how line coverage moved between two runs.
type Drift struct {
	Before      int    `json:"before"`
	After       int    `json:"after"`
	Delta       int    `json:"delta"`
	Trend       string `json:"trend"`
	BaselineAt  string `json:"baseline_at"`
	BaselineSHA string `json:"baseline_sha,omitempty"`
}

// ComputeDrift compares current against baseline.
func ComputeDrift(baseline, current *Snapshot) Drift {
	d := Drift{
		Before:      baseline.LinePercent,
		After:       current.LinePercent,
		Delta:       current.LinePercent - baseline.LinePercent,
		BaselineAt:  baseline.Timestamp,
		BaselineSHA: baseline.GitSHA,
	}
	switch {
	case d.Delta > 0:
		d.Trend = TrendImproved
	case d.Delta < 0:
		d.Trend = TrendRegressed
	default:
		d.Trend = TrendUnchanged
	}
	return d
}

// String renders the drift as a one-line log message.
func (d Drift) String() string {
	ref := d.BaselineAt
	if d.BaselineSHA != "" {
		ref += " @ " + d.BaselineSHA
	}
	return fmt.Sprintf("line coverage %s: %d%% -> %d%% (%+d) since %s", d.Trend, d.Before, d.After, d.Delta, ref)
}
