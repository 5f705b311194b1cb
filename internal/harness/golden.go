package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a result as deterministic text for golden comparison.
//
// The layout is:
//
//	scenario: <name>
//	stats: lines=N header=N dropped=N databases=N tables=N unattributed=N errors=N warnings=N notices=N
//	artifacts:
//	  <kind> <path> lines=N
//	diagnostics:
//	  <severity> <code> line=N: <message>
//	files:
//	=== <path>
//	<content>
//
// Artifacts and diagnostics keep pass order; files are sorted by path. A
// file whose content lacks a final newline gets one in the snapshot.
func Snapshot(name string, r *Result) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "scenario: %s\n", name)
	s := r.Stats
	fmt.Fprintf(&b, "stats: lines=%d header=%d dropped=%d databases=%d tables=%d unattributed=%d errors=%d warnings=%d notices=%d\n",
		s.Lines, s.HeaderLines, s.DroppedLines, s.Databases, s.Tables, s.Unattributed, s.Errors, s.Warnings, s.Notices)

	b.WriteString("artifacts:\n")
	for _, a := range r.Artifacts {
		fmt.Fprintf(&b, "  %s %s lines=%d\n", a.Kind, a.Path, a.Lines)
	}

	b.WriteString("diagnostics:\n")
	for _, d := range r.Diagnostics {
		fmt.Fprintf(&b, "  %s %s line=%d: %s\n", d.SeverityName(), d.Code, d.Line, d.Message)
	}

	b.WriteString("files:\n")
	for _, p := range sortedPaths(r.Files) {
		content := r.Files[p]
		fmt.Fprintf(&b, "=== %s\n", p)
		b.WriteString(content)
		if content != "" && !strings.HasSuffix(content, "\n") {
			b.WriteString("\n")
		}
	}

	return []byte(b.String())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result's snapshot against a golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(name, result))
}
