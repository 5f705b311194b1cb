package store

import (
	"context"
	"fmt"
)

// ListRuns returns every recorded run, oldest first, with artifact and
// diagnostic counts.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.started_at, r.finished_at, r.input, r.root, r.compression,
		       r.lines, r.status, r.error,
		       (SELECT COUNT(*) FROM artifacts a WHERE a.run_id = r.id),
		       (SELECT COUNT(*) FROM diagnostics d WHERE d.run_id = r.id)
		FROM runs r
		ORDER BY r.started_at ASC, r.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var (
			sum               RunSummary
			started, finished string
		)
		if err := rows.Scan(
			&sum.ID, &started, &finished, &sum.Input, &sum.Root, &sum.Compression,
			&sum.Lines, &sum.Status, &sum.Error,
			&sum.Artifacts, &sum.Diagnostics,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if err := sum.setTimes(started, finished); err != nil {
			return nil, err
		}
		runs = append(runs, sum)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun retrieves a run with its artifacts and diagnostics, each ordered
// by seq. Returns an error wrapping sql.ErrNoRows if the run does not exist.
func (s *Store) ReadRun(ctx context.Context, id string) (*RunDetail, error) {
	var (
		run               RunRecord
		started, finished string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, input, root, compression, lines, status, error
		FROM runs
		WHERE id = ?
	`, id).Scan(
		&run.ID, &started, &finished, &run.Input, &run.Root, &run.Compression,
		&run.Lines, &run.Status, &run.Error,
	)
	if err != nil {
		return nil, fmt.Errorf("read run %s: %w", id, err)
	}
	if err := run.setTimes(started, finished); err != nil {
		return nil, err
	}

	artifacts, err := s.readArtifacts(ctx, id)
	if err != nil {
		return nil, err
	}
	diags, err := s.readDiagnostics(ctx, id)
	if err != nil {
		return nil, err
	}

	return &RunDetail{Run: run, Artifacts: artifacts, Diagnostics: diags}, nil
}

// readArtifacts returns a run's artifacts with deterministic ordering.
func (s *Store) readArtifacts(ctx context.Context, runID string) ([]ArtifactRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, kind, database_name, table_name, path, lines, bytes
		FROM artifacts
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}
	defer rows.Close()

	artifacts := []ArtifactRecord{}
	for rows.Next() {
		var a ArtifactRecord
		if err := rows.Scan(&a.Seq, &a.Kind, &a.Database, &a.Table, &a.Path, &a.Lines, &a.Bytes); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		artifacts = append(artifacts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artifacts: %w", err)
	}
	return artifacts, nil
}

// readDiagnostics returns a run's diagnostics with deterministic ordering.
func (s *Store) readDiagnostics(ctx context.Context, runID string) ([]DiagnosticRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, line, severity, code, message, text
		FROM diagnostics
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer rows.Close()

	diags := []DiagnosticRecord{}
	for rows.Next() {
		var d DiagnosticRecord
		if err := rows.Scan(&d.Seq, &d.Line, &d.Severity, &d.Code, &d.Message, &d.Text); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		diags = append(diags, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diagnostics: %w", err)
	}
	return diags, nil
}

func (r *RunRecord) setTimes(started, finished string) error {
	var err error
	if r.StartedAt, err = parseTime(started); err != nil {
		return fmt.Errorf("run %s: parse started_at: %w", r.ID, err)
	}
	if r.FinishedAt, err = parseTime(finished); err != nil {
		return fmt.Errorf("run %s: parse finished_at: %w", r.ID, err)
	}
	return nil
}
