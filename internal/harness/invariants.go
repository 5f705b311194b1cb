package harness

import (
	"fmt"
	"path"
	"strings"

	"github.com/roach88/dumpsplit/internal/engine"
	"github.com/roach88/dumpsplit/internal/testutil"
)

// checkInvariants returns a message for every property of a pass that does
// not hold, whatever the input.
func checkInvariants(opener *testutil.MemoryOpener, r *Result) []string {
	var violations []string

	if opener.MaxOpenTables > 1 {
		violations = append(violations,
			fmt.Sprintf("invariant: %d table sinks were open at once", opener.MaxOpenTables))
	}
	if n := opener.OpenTables(); n != 0 {
		violations = append(violations,
			fmt.Sprintf("invariant: %d table sinks left open after the pass", n))
	}

	for _, a := range r.Artifacts {
		content, ok := r.Files[a.Path]
		if !ok {
			violations = append(violations,
				fmt.Sprintf("invariant: artifact %s recorded but not written", a.Path))
			continue
		}

		switch a.Kind {
		case engine.ArtifactTable:
			if path.Dir(a.Path) == "." {
				violations = append(violations,
					fmt.Sprintf("invariant: table artifact %s is not inside a database directory", a.Path))
			}
			if a.HeaderLines > len(r.Header) {
				violations = append(violations,
					fmt.Sprintf("invariant: table artifact %s replayed %d header lines, only %d captured", a.Path, a.HeaderLines, len(r.Header)))
				continue
			}
			if !strings.HasPrefix(content, strings.Join(r.Header[:a.HeaderLines], "")) {
				violations = append(violations,
					fmt.Sprintf("invariant: table artifact %s does not start with the header", a.Path))
			}
		case engine.ArtifactDatabase:
			if lines := strings.Count(strings.TrimSuffix(content, "\n"), "\n") + 1; lines != 1 {
				violations = append(violations,
					fmt.Sprintf("invariant: database artifact %s has %d lines, want 1", a.Path, lines))
			}
		}
	}

	return violations
}
