// Package history keeps optional per-run snapshots of gate results so a run
// can be compared with the one before it.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/knp-ci/covgate/internal/gate"
)

// Snapshot captures one gate run.
type Snapshot struct {
	Timestamp       string `json:"timestamp"`
	GitSHA          string `json:"git_sha"`
	Root            string `json:"root"`
	RequiredPercent int    `json:"required_percent"`
	LinePercent     int    `json:"line_percent"`
	ExitCode        int    `json:"exit_code"`
}

// FromOutcome builds a snapshot stamped with now and the current HEAD.
func FromOutcome(o *gate.Outcome, now time.Time) *Snapshot {
	return &Snapshot{
		Timestamp:       now.UTC().Format(time.RFC3339),
		GitSHA:          gitSHA(o.Root),
		Root:            o.Root,
		RequiredPercent: o.RequiredPercent,
		LinePercent:     o.LinePercent,
		ExitCode:        o.ExitCode,
	}
}

// Save writes s into dir as indented JSON named after now. Runs landing in
// the same millisecond get a numeric suffix that still sorts after the
// first file. Returns the path of the written file.
func Save(s *Snapshot, dir string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating snapshot dir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling snapshot: %w", err)
	}

	ts := now.UTC().Format("2006-01-02T15-04-05.000")
	for i := 0; i < 1000; i++ {
		name := ts + ".json"
		if i > 0 {
			name = fmt.Sprintf("%s_%03d.json", ts, i)
		}
		filename := filepath.Join(dir, name)

		f, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("writing snapshot: %w", err)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", fmt.Errorf("writing snapshot: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("writing snapshot: %w", err)
		}
		return filename, nil
	}
	return "", fmt.Errorf("writing snapshot: too many snapshots for %s", ts)
}

// Load reads a snapshot from a JSON file.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}

	return &s, nil
}

// LoadLatest finds the most recent snapshot in dir by filename
// (timestamps sort lexicographically). It returns ErrNoSnapshots when the
// directory is missing or holds none.
func LoadLatest(dir string) (*Snapshot, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, ErrNoSnapshots
	}
	if err != nil {
		return nil, err
	}

	var jsonFiles []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			jsonFiles = append(jsonFiles, e.Name())
		}
	}

	if len(jsonFiles) == 0 {
		return nil, ErrNoSnapshots
	}

	sort.Strings(jsonFiles)
	return Load(filepath.Join(dir, jsonFiles[len(jsonFiles)-1]))
}

// gitSHA returns the short SHA of HEAD for the repository containing dir,
// or "" when it cannot be determined.
func gitSHA(dir string) string {
	cmd := exec.Command("git", "rev-parse", "--short", "HEAD")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
