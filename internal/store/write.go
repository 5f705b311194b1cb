package store

import (
	"context"
	"fmt"
	"time"
)

// timeLayout is how timestamps are stored. Fixed width keeps text ordering
// equal to time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// RecordRun inserts a run with its artifacts and diagnostics in one
// transaction.
//
// Recording the same run ID twice is an error; runs are immutable once
// written. Seq values must be unique within the run.
func (s *Store) RecordRun(ctx context.Context, run RunRecord, artifacts []ArtifactRecord, diags []DiagnosticRecord) error {
	if run.ID == "" {
		return fmt.Errorf("record run: empty run id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, started_at, finished_at, input, root, compression, lines, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		run.Input,
		run.Root,
		run.Compression,
		run.Lines,
		run.Status,
		run.Error,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}

	artStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO artifacts
		(run_id, seq, kind, database_name, table_name, path, lines, bytes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("record run %s: prepare artifacts: %w", run.ID, err)
	}
	defer artStmt.Close()

	for _, a := range artifacts {
		if _, err := artStmt.ExecContext(ctx,
			run.ID, a.Seq, a.Kind, a.Database, a.Table, a.Path, a.Lines, a.Bytes,
		); err != nil {
			return fmt.Errorf("record run %s: artifact %d: %w", run.ID, a.Seq, err)
		}
	}

	diagStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO diagnostics
		(run_id, seq, line, severity, code, message, text)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("record run %s: prepare diagnostics: %w", run.ID, err)
	}
	defer diagStmt.Close()

	for _, d := range diags {
		if _, err := diagStmt.ExecContext(ctx,
			run.ID, d.Seq, d.Line, d.Severity, d.Code, d.Message, d.Text,
		); err != nil {
			return fmt.Errorf("record run %s: diagnostic %d: %w", run.ID, d.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record run %s: commit: %w", run.ID, err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
