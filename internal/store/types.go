package store

import (
	"time"

	"github.com/roach88/dumpsplit/internal/engine"
)

// Run status values.
const (
	StatusOK     = "ok"     // input fully consumed, every sink closed cleanly
	StatusFailed = "failed" // the pass stopped on a sink or read error
)

// RunRecord is one recorded split run.
type RunRecord struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Input       string    `json:"input"`
	Root        string    `json:"root"`
	Compression string    `json:"compression"`
	Lines       int       `json:"lines"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
}

// ArtifactRecord is one file written by a run.
type ArtifactRecord struct {
	Seq      int64  `json:"seq"`
	Kind     string `json:"kind"`
	Database string `json:"database"`
	Table    string `json:"table,omitempty"`
	Path     string `json:"path"`
	Lines    int    `json:"lines"`
	Bytes    int64  `json:"bytes"`
}

// DiagnosticRecord is one diagnostic reported by a run.
type DiagnosticRecord struct {
	Seq      int64  `json:"seq"`
	Line     int    `json:"line"`
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Text     string `json:"text,omitempty"`
}

// RunSummary is a run with the size of its children, as listed by ListRuns.
type RunSummary struct {
	RunRecord
	Artifacts   int `json:"artifacts"`
	Diagnostics int `json:"diagnostics"`
}

// RunDetail is a run with all of its children, as returned by ReadRun.
type RunDetail struct {
	Run         RunRecord          `json:"run"`
	Artifacts   []ArtifactRecord   `json:"artifacts"`
	Diagnostics []DiagnosticRecord `json:"diagnostics"`
}

// ArtifactRecords converts engine artifacts, numbering them from 1 in the
// order the pass closed them.
func ArtifactRecords(artifacts []engine.Artifact) []ArtifactRecord {
	out := make([]ArtifactRecord, 0, len(artifacts))
	for i, a := range artifacts {
		out = append(out, ArtifactRecord{
			Seq:      int64(i + 1),
			Kind:     string(a.Kind),
			Database: a.Database,
			Table:    a.Table,
			Path:     a.Path,
			Lines:    a.Lines,
			Bytes:    a.Bytes,
		})
	}
	return out
}

// DiagnosticRecords converts collected diagnostics, numbering them from 1 in
// the order they were reported.
func DiagnosticRecords(diags []engine.Diagnostic) []DiagnosticRecord {
	out := make([]DiagnosticRecord, 0, len(diags))
	for i, d := range diags {
		out = append(out, DiagnosticRecord{
			Seq:      int64(i + 1),
			Line:     d.Line,
			Severity: d.SeverityName(),
			Code:     string(d.Code),
			Message:  d.Message,
			Text:     d.Text,
		})
	}
	return out
}
