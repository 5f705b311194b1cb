package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "ok.yaml", `
name: ok
description: "loads"
default_database: legacy
input: |
  USE `+"`d1`"+`;
assertions:
  - type: artifact_count
    count: 0
  - type: diagnostic_count
    code: bare_sql
    severity: warn
    count: 0
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "ok", s.Name)
	assert.Equal(t, "legacy", s.DefaultDatabase)
	assert.Equal(t, "USE `d1`;\n", s.Input)
	require.Len(t, s.Assertions, 2)
	assert.Equal(t, AssertDiagnosticCount, s.Assertions[1].Type)
	assert.Equal(t, "bare_sql", s.Assertions[1].Code)
	assert.Equal(t, "warn", s.Assertions[1].Severity)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "name: x\ndescription: y\nassertion: []\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "missing name",
			yaml:    "description: y\nassertions:\n  - type: artifact_count\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: x\nassertions:\n  - type: artifact_count\n",
			wantErr: "description is required",
		},
		{
			name:    "no assertions",
			yaml:    "name: x\ndescription: y\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "missing type",
			yaml:    "name: x\ndescription: y\nassertions:\n  - path: a.sql\n",
			wantErr: "assertions[0]: type is required",
		},
		{
			name:    "unknown type",
			yaml:    "name: x\ndescription: y\nassertions:\n  - type: trace_contains\n",
			wantErr: `unknown assertion type "trace_contains"`,
		},
		{
			name:    "artifact_equals without path",
			yaml:    "name: x\ndescription: y\nassertions:\n  - type: artifact_equals\n    content: z\n",
			wantErr: "path is required for artifact_equals",
		},
		{
			name:    "artifact_absent without path",
			yaml:    "name: x\ndescription: y\nassertions:\n  - type: artifact_absent\n",
			wantErr: "path is required for artifact_absent",
		},
		{
			name:    "negative count",
			yaml:    "name: x\ndescription: y\nassertions:\n  - type: diagnostic_count\n    count: -1\n",
			wantErr: "count must be non-negative",
		},
		{
			name:    "bad kind",
			yaml:    "name: x\ndescription: y\nassertions:\n  - type: artifact_count\n    kind: view\n",
			wantErr: `unknown artifact kind "view"`,
		},
		{
			name:    "bad severity",
			yaml:    "name: x\ndescription: y\nassertions:\n  - type: diagnostic_count\n    severity: fatal\n",
			wantErr: `unknown severity "fatal"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFindScenarios(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "b_nested.yaml", "")
	writeScenario(t, dir, "a_plain.yml", "")
	writeScenario(t, dir, "notes.txt", "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "golden"), 0o755))

	all, err := FindScenarios(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a_plain.yml"),
		filepath.Join(dir, "b_nested.yaml"),
	}, all)

	filtered, err := FindScenarios(dir, "b_*")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "b_nested.yaml")}, filtered)

	_, err = FindScenarios(dir, "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter")

	_, err = FindScenarios(filepath.Join(dir, "missing"), "")
	require.Error(t, err)
}
