package harness

import (
	"fmt"
	"sort"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes the written paths to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Paths    []string // Every artifact written, sorted
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nArtifacts written:\n")
	if len(e.Paths) == 0 {
		fmt.Fprintf(&buf, "  (none)\n")
	}
	for _, p := range e.Paths {
		fmt.Fprintf(&buf, "  %s\n", p)
	}

	return buf.String()
}

func newAssertionError(r *Result, typ, expected, actual string) *AssertionError {
	return &AssertionError{
		Type:     typ,
		Expected: expected,
		Actual:   actual,
		Paths:    sortedPaths(r.Files),
	}
}

// assertArtifactEquals checks the exact content of one artifact.
func assertArtifactEquals(r *Result, a Assertion) error {
	got, ok := r.Files[a.Path]
	if !ok {
		return newAssertionError(r, a.Type, fmt.Sprintf("artifact %s", a.Path), "not written")
	}
	if got != a.Content {
		return newAssertionError(r, a.Type,
			fmt.Sprintf("%s = %q", a.Path, a.Content),
			fmt.Sprintf("%s = %q", a.Path, got))
	}
	return nil
}

// assertArtifactExists checks that an artifact was written.
func assertArtifactExists(r *Result, a Assertion) error {
	if _, ok := r.Files[a.Path]; !ok {
		return newAssertionError(r, a.Type, fmt.Sprintf("artifact %s", a.Path), "not written")
	}
	return nil
}

// assertArtifactAbsent checks that an artifact was not written.
func assertArtifactAbsent(r *Result, a Assertion) error {
	if _, ok := r.Files[a.Path]; ok {
		return newAssertionError(r, a.Type, fmt.Sprintf("no artifact %s", a.Path), "written")
	}
	return nil
}

// assertArtifactCount counts written artifacts, optionally of one kind.
//
// Counting uses the artifact list rather than the file map, so a table
// written twice under the same name counts twice.
func assertArtifactCount(r *Result, a Assertion) error {
	n := 0
	for _, art := range r.Artifacts {
		if a.Kind == "" || string(art.Kind) == a.Kind {
			n++
		}
	}
	if n != a.Count {
		what := "artifacts"
		if a.Kind != "" {
			what = a.Kind + " artifacts"
		}
		return newAssertionError(r, a.Type,
			fmt.Sprintf("%d %s", a.Count, what),
			fmt.Sprintf("%d %s", n, what))
	}
	return nil
}

// assertDiagnosticCount counts diagnostics matching code and severity.
func assertDiagnosticCount(r *Result, a Assertion) error {
	n := 0
	for _, d := range r.Diagnostics {
		if a.Code != "" && string(d.Code) != a.Code {
			continue
		}
		if a.Severity != "" && d.SeverityName() != a.Severity {
			continue
		}
		n++
	}
	if n != a.Count {
		return newAssertionError(r, a.Type,
			fmt.Sprintf("%d diagnostics%s", a.Count, describeFilter(a)),
			fmt.Sprintf("%d diagnostics%s", n, describeFilter(a)))
	}
	return nil
}

func describeFilter(a Assertion) string {
	var parts []string
	if a.Code != "" {
		parts = append(parts, "code="+a.Code)
	}
	if a.Severity != "" {
		parts = append(parts, "severity="+a.Severity)
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

func sortedPaths(files map[string]string) []string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
