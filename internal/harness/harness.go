package harness

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/dumpsplit/internal/engine"
	"github.com/roach88/dumpsplit/internal/testutil"
)

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory opener. The returned error is
// reserved for failures of the run itself (a sink error); failed assertions
// and violated invariants are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	opener := testutil.NewMemoryOpener()
	collector := &engine.Collector{}

	eng := engine.New(opener, engine.Options{
		DefaultDatabase: scenario.DefaultDatabase,
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		Reporter:        collector,
	})

	res, err := eng.Run(strings.NewReader(scenario.Input))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := NewResult()
	result.Artifacts = append(result.Artifacts, res.Artifacts...)
	result.Diagnostics = append(result.Diagnostics, collector.Diagnostics...)
	result.Files = opener.Files()
	result.Stats = res.Stats
	result.Header = res.Header

	for i, a := range scenario.Assertions {
		if err := evaluate(result, a); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}

	for _, v := range checkInvariants(opener, result) {
		result.AddError(v)
	}

	return result, nil
}

// evaluate dispatches one assertion.
func evaluate(r *Result, a Assertion) error {
	switch a.Type {
	case AssertArtifactEquals:
		return assertArtifactEquals(r, a)
	case AssertArtifactExists:
		return assertArtifactExists(r, a)
	case AssertArtifactAbsent:
		return assertArtifactAbsent(r, a)
	case AssertArtifactCount:
		return assertArtifactCount(r, a)
	case AssertDiagnosticCount:
		return assertDiagnosticCount(r, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}
