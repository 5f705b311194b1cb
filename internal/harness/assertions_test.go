package harness

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dumpsplit/internal/engine"
)

func sampleResult() *Result {
	r := NewResult()
	r.Artifacts = []engine.Artifact{
		{Kind: engine.ArtifactDatabase, Database: "d1", Path: "d1.sql", Lines: 1},
		{Kind: engine.ArtifactTable, Database: "d1", Table: "t1", Path: "d1/t1.sql", Lines: 2},
		{Kind: engine.ArtifactTable, Database: "d1", Table: "t2", Path: "d1/t2.sql", Lines: 2},
	}
	r.Files = map[string]string{
		"d1.sql":    "CREATE DATABASE `d1`;\n",
		"d1/t1.sql": "CREATE TABLE `t1` (\nUNLOCK TABLES;\n",
		"d1/t2.sql": "CREATE TABLE `t2` (\nUNLOCK TABLES;\n",
	}
	r.Diagnostics = []engine.Diagnostic{
		{Severity: slog.LevelWarn, Code: engine.CodeBareSQL, Line: 1},
		{Severity: slog.LevelDebug, Code: engine.CodeBareSQL, Line: 2},
		{Severity: slog.LevelError, Code: engine.CodeNestedTable, Line: 5},
	}
	return r
}

func TestAssertArtifactEquals(t *testing.T) {
	r := sampleResult()

	require.NoError(t, assertArtifactEquals(r, Assertion{
		Type: AssertArtifactEquals, Path: "d1.sql", Content: "CREATE DATABASE `d1`;\n",
	}))

	err := assertArtifactEquals(r, Assertion{Type: AssertArtifactEquals, Path: "d1.sql", Content: "nope"})
	require.Error(t, err)
	var ae *AssertionError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, AssertArtifactEquals, ae.Type)
	assert.Contains(t, ae.Actual, "CREATE DATABASE")

	err = assertArtifactEquals(r, Assertion{Type: AssertArtifactEquals, Path: "d2.sql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not written")
}

func TestAssertArtifactExistsAndAbsent(t *testing.T) {
	r := sampleResult()

	assert.NoError(t, assertArtifactExists(r, Assertion{Type: AssertArtifactExists, Path: "d1/t1.sql"}))
	assert.Error(t, assertArtifactExists(r, Assertion{Type: AssertArtifactExists, Path: "d1/t3.sql"}))

	assert.NoError(t, assertArtifactAbsent(r, Assertion{Type: AssertArtifactAbsent, Path: "d1/t3.sql"}))
	assert.Error(t, assertArtifactAbsent(r, Assertion{Type: AssertArtifactAbsent, Path: "d1/t1.sql"}))
}

func TestAssertArtifactCount(t *testing.T) {
	r := sampleResult()

	assert.NoError(t, assertArtifactCount(r, Assertion{Type: AssertArtifactCount, Count: 3}))
	assert.NoError(t, assertArtifactCount(r, Assertion{Type: AssertArtifactCount, Kind: "table", Count: 2}))
	assert.NoError(t, assertArtifactCount(r, Assertion{Type: AssertArtifactCount, Kind: "database", Count: 1}))

	err := assertArtifactCount(r, Assertion{Type: AssertArtifactCount, Kind: "table", Count: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected: 5 table artifacts")
	assert.Contains(t, err.Error(), "Actual: 2 table artifacts")
}

func TestAssertDiagnosticCount(t *testing.T) {
	r := sampleResult()

	tests := []struct {
		name     string
		code     string
		severity string
		count    int
	}{
		{"all", "", "", 3},
		{"by code", "bare_sql", "", 2},
		{"by severity", "", "error", 1},
		{"by both", "bare_sql", "debug", 1},
		{"none", "unterminated_table", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Assertion{Type: AssertDiagnosticCount, Code: tt.code, Severity: tt.severity, Count: tt.count}
			assert.NoError(t, assertDiagnosticCount(r, a))

			a.Count++
			assert.Error(t, assertDiagnosticCount(r, a))
		})
	}

	err := assertDiagnosticCount(r, Assertion{Type: AssertDiagnosticCount, Code: "bare_sql", Severity: "warn", Count: 7})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "(code=bare_sql, severity=warn)")
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     AssertArtifactExists,
		Expected: "artifact d1/t9.sql",
		Actual:   "not written",
		Paths:    []string{"d1.sql", "d1/t1.sql"},
	}

	assert.Equal(t, "Assertion failed: artifact_exists\n"+
		"  Expected: artifact d1/t9.sql\n"+
		"  Actual: not written\n"+
		"\n"+
		"Artifacts written:\n"+
		"  d1.sql\n"+
		"  d1/t1.sql\n", err.Error())

	empty := &AssertionError{Type: AssertArtifactCount, Expected: "1 artifacts", Actual: "0 artifacts"}
	assert.Contains(t, empty.Error(), "  (none)\n")
}

func TestEvaluate_UnknownType(t *testing.T) {
	err := evaluate(sampleResult(), Assertion{Type: "final_state"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown assertion type")
}
