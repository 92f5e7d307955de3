package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/knp-ci/covgate/internal/gcovr"
)

// scriptedRunner replays one canned gcovr result and records the call.
type scriptedRunner struct {
	stdout   string
	exitCode int

	calls int
	name  string
	args  []string
}

func (s *scriptedRunner) Run(_ context.Context, name string, args []string) (gcovr.Result, error) {
	s.calls++
	s.name = name
	s.args = args
	return gcovr.Result{Stdout: []byte(s.stdout), ExitCode: s.exitCode}, nil
}

// useRunner installs r for the duration of the test and isolates config
// lookup from the developer's environment.
func useRunner(t *testing.T, r *scriptedRunner) {
	t.Helper()
	prev := newRunner
	newRunner = func(io.Writer) gcovr.Runner { return r }
	t.Cleanup(func() { newRunner = prev })

	t.Setenv("HOME", t.TempDir())
	for _, k := range []string{"COVGATE_CONFIG", "COVGATE_TOOL", "COVGATE_FILTER", "COVGATE_OUTPUT",
		"COVGATE_SNAPSHOT_DIR", "COVGATE_VERBOSE", "COVGATE_EXTRA_ARGS"} {
		t.Setenv(k, "")
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func gcovrSummary(linePercent string) string {
	return `{
  "line_total": 5000, "line_covered": 3100, "line_percent": ` + linePercent + `,
  "function_total": 420, "function_covered": 300, "function_percent": 71.4,
  "branch_total": 9000, "branch_covered": 4000, "branch_percent": 44.4,
  "files": [
    {"filename": "knp/core/impl/big.cpp", "line_total": 900, "line_percent": 70.0},
    {"filename": "knp/core/impl/tiny.cpp", "line_total": 4, "line_percent": 0.0},
    {"filename": "knp/framework/mid.cpp", "line_total": 120, "line_percent": 33.3}
  ]
}`
}

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestUsage_TooFewArgs(t *testing.T) {
	for _, args := range [][]string{nil, {"/src"}} {
		r := &scriptedRunner{}
		useRunner(t, r)

		code, stdout, _ := run(t, args...)
		if code != 1 {
			t.Errorf("%v: exit = %d, want 1", args, code)
		}
		want := filepath.Base(os.Args[0]) + " <root directory> <percent>\n"
		if stdout != want {
			t.Errorf("%v: stdout = %q, want %q", args, stdout, want)
		}
		if r.calls != 0 {
			t.Errorf("%v: no subprocess expected, runner called %d times", args, r.calls)
		}
	}
}

func TestGate_Passes(t *testing.T) {
	r := &scriptedRunner{stdout: gcovrSummary("85.2")}
	useRunner(t, r)

	code, stdout, _ := run(t, "/src", "80")
	if code != 0 {
		t.Errorf("exit = %d, want 0", code)
	}
	want := "Total line count = 5000\n" +
		"Line coverage percentage = 85\n" +
		"Total function count = 420\n" +
		"Function coverage percentage = 300\n" +
		"Total branch count = 9000\n" +
		"Branch coverage percentage = 44.4\n" +
		"Coverage analysis passed.\n"
	if diff := cmp.Diff(want, stdout); diff != "" {
		t.Errorf("stdout mismatch (-want +got):\n%s", diff)
	}
	if r.name != "gcovr" {
		t.Errorf("tool = %q, want gcovr", r.name)
	}
	if diff := cmp.Diff(gcovr.NewCommand("/src").Args(), r.args); diff != "" {
		t.Errorf("gcovr args mismatch (-want +got):\n%s", diff)
	}
}

func TestGate_FailsWithShortfall(t *testing.T) {
	useRunner(t, &scriptedRunner{stdout: gcovrSummary("62.9")})

	code, stdout, _ := run(t, "/src", "80")
	if code != 18 {
		t.Errorf("exit = %d, want 18", code)
	}
	wantTail := "Warning: coverage analysis was not passed [80% coverage is necessary, but only 62% is covered]!\n" +
		"Top-10 files without coverage:\n" +
		"  knp/core/impl/tiny.cpp (0.0%)\n" +
		"  knp/framework/mid.cpp (33.3%)\n" +
		"  knp/core/impl/big.cpp (70.0%)\n"
	if !strings.HasSuffix(stdout, wantTail) {
		t.Errorf("stdout tail mismatch:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Line coverage percentage = 62\n") {
		t.Errorf("line percent should be truncated:\n%s", stdout)
	}
}

func TestGate_ToolExitCodePropagates(t *testing.T) {
	useRunner(t, &scriptedRunner{stdout: "partial", exitCode: 4})

	code, stdout, stderr := run(t, "/src", "80")
	if code != 4 {
		t.Errorf("exit = %d, want 4", code)
	}
	if stdout != "" || stderr != "" {
		t.Errorf("nothing should be printed, got stdout=%q stderr=%q", stdout, stderr)
	}
}

func TestGate_MalformedReport(t *testing.T) {
	useRunner(t, &scriptedRunner{stdout: "not json"})

	code, stdout, stderr := run(t, "/src", "80")
	if code != 1 {
		t.Errorf("exit = %d, want 1", code)
	}
	if stdout != "" {
		t.Errorf("no partial report expected, got %q", stdout)
	}
	if !strings.HasPrefix(stderr, "Error: ") || !strings.Contains(stderr, "malformed") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestGate_InvalidPercent(t *testing.T) {
	r := &scriptedRunner{stdout: gcovrSummary("90")}
	useRunner(t, r)

	code, _, stderr := run(t, "/src", "lots")
	if code != 1 || !strings.Contains(stderr, "percent") {
		t.Errorf("exit = %d stderr = %q", code, stderr)
	}
	if r.calls != 0 {
		t.Errorf("gcovr must not run with an invalid percent")
	}
}

func TestGate_PassthroughForwarded(t *testing.T) {
	r := &scriptedRunner{stdout: gcovrSummary("90")}
	useRunner(t, r)

	code, _, _ := run(t, "/src", "80", "--gcov-executable", "llvm-cov gcov", "-v")
	if code != 0 {
		t.Fatalf("exit = %d", code)
	}
	tail := r.args[len(r.args)-3:]
	if diff := cmp.Diff([]string{"--gcov-executable", "llvm-cov gcov", "-v"}, tail); diff != "" {
		t.Errorf("passthrough mismatch (-want +got):\n%s", diff)
	}
}

func TestGate_JSONOutput(t *testing.T) {
	useRunner(t, &scriptedRunner{stdout: gcovrSummary("70")})

	code, stdout, _ := run(t, "-o", "json", "/src", "75")
	if code != 5 {
		t.Errorf("exit = %d, want 5", code)
	}
	var doc struct {
		RequiredPercent int  `json:"required_percent"`
		LinePercent     int  `json:"line_percent"`
		ExitCode        int  `json:"exit_code"`
		Passed          bool `json:"passed"`
		Files           []struct {
			Filename string `json:"filename"`
		} `json:"files"`
	}
	if err := json.Unmarshal([]byte(stdout), &doc); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout)
	}
	if doc.RequiredPercent != 75 || doc.LinePercent != 70 || doc.ExitCode != 5 || doc.Passed {
		t.Errorf("doc = %+v", doc)
	}
	if len(doc.Files) != 3 || doc.Files[0].Filename != "knp/core/impl/tiny.cpp" {
		t.Errorf("files = %+v", doc.Files)
	}
}

func TestGate_DryRun(t *testing.T) {
	r := &scriptedRunner{}
	useRunner(t, r)

	code, stdout, _ := run(t, "--dry-run", "/src", "80")
	if code != 0 {
		t.Errorf("exit = %d, want 0", code)
	}
	if r.calls != 0 {
		t.Error("dry run must not spawn gcovr")
	}
	if !strings.HasPrefix(stdout, "gcovr -r /src -e '.*usr/include'") ||
		!strings.Contains(stdout, "--json-summary --gcov-ignore-parse-errors") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestGate_ConfigFileAndToolFlag(t *testing.T) {
	r := &scriptedRunner{stdout: gcovrSummary("90")}
	useRunner(t, r)

	cfgPath := filepath.Join(t.TempDir(), "covgate.yaml")
	if err := os.WriteFile(cfgPath, []byte("filter: knp/core\ntool: gcovr-from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	code, _, stderr := run(t, "--config", cfgPath, "--tool", "gcovr-from-flag", "/src", "80")
	if code != 0 {
		t.Fatalf("exit = %d stderr = %q", code, stderr)
	}
	if r.name != "gcovr-from-flag" {
		t.Errorf("tool = %q, want flag value", r.name)
	}
	joined := strings.Join(r.args, " ")
	if !strings.Contains(joined, "--filter knp/core") {
		t.Errorf("config filter not applied: %s", joined)
	}
}

func TestGate_BadConfig(t *testing.T) {
	r := &scriptedRunner{}
	useRunner(t, r)

	code, _, stderr := run(t, "--output", "xml", "/src", "80")
	if code != 1 || !strings.Contains(stderr, "xml") {
		t.Errorf("exit = %d stderr = %q", code, stderr)
	}
	if r.calls != 0 {
		t.Error("gcovr must not run with invalid config")
	}
}

func TestGate_SnapshotDir(t *testing.T) {
	useRunner(t, &scriptedRunner{stdout: gcovrSummary("81")})
	dir := filepath.Join(t.TempDir(), "snaps")

	for i := 0; i < 2; i++ {
		code, _, stderr := run(t, "-v", "--snapshot-dir", dir, t.TempDir(), "80")
		if code != 0 {
			t.Fatalf("run %d: exit = %d stderr = %q", i, code, stderr)
		}
		if i == 1 && !strings.Contains(stderr, "line coverage unchanged: 81% -> 81%") {
			t.Errorf("second run should log drift, stderr = %q", stderr)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("snapshot dir: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("snapshots = %d, want 2", len(entries))
	}
}

func TestVersionFlag(t *testing.T) {
	useRunner(t, &scriptedRunner{})

	code, stdout, _ := run(t, "--version")
	if code != 0 || !strings.Contains(stdout, version) {
		t.Errorf("exit = %d stdout = %q", code, stdout)
	}
}
