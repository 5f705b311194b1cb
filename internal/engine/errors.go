package engine

import (
	"errors"
	"fmt"
)

// DiagnosticCode categorizes a condition reported during a pass.
type DiagnosticCode string

const (
	// CodeDatabaseSwitchInTable indicates a USE statement inside a table body.
	CodeDatabaseSwitchInTable DiagnosticCode = "database_switch_in_table"

	// CodeNestedTable indicates a CREATE TABLE while another table is open.
	CodeNestedTable DiagnosticCode = "nested_table"

	// CodeUnlockOutsideTable indicates UNLOCK TABLES with no open table.
	CodeUnlockOutsideTable DiagnosticCode = "unlock_outside_table"

	// CodeUnterminatedTable indicates end of input inside a table body.
	CodeUnterminatedTable DiagnosticCode = "unterminated_table"

	// CodeBareSQL indicates a statement outside any table. It is dropped.
	CodeBareSQL DiagnosticCode = "bare_sql"

	// CodeTableWithoutDatabase indicates a table started before any USE.
	CodeTableWithoutDatabase DiagnosticCode = "table_without_database"
)

// Structural reports whether the code describes broken table nesting.
func (c DiagnosticCode) Structural() bool {
	switch c {
	case CodeDatabaseSwitchInTable, CodeNestedTable, CodeUnlockOutsideTable, CodeUnterminatedTable:
		return true
	}
	return false
}

// SinkError is an I/O failure creating, writing or closing an artifact.
//
// It reflects the environment (permissions, disk space) rather than the
// input, and is the only error that aborts a pass.
type SinkError struct {
	// Op is the failed operation: "mkdir", "open", "write" or "close".
	Op string

	// Path is the artifact path relative to the output root.
	Path string

	// Line is the input line being processed, 0 at end of input.
	Line int

	Err error
}

func (e *SinkError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("sink %s %s (line %d): %v", e.Op, e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("sink %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// ReadError is a failure reading the input stream before end of file.
// The pass still closes any open sink before returning it.
type ReadError struct {
	// Line is the number of lines read successfully.
	Line int

	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read input after line %d: %v", e.Line, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// IsSinkError returns true if err is or wraps a SinkError.
func IsSinkError(err error) bool {
	var se *SinkError
	return errors.As(err, &se)
}

// IsReadError returns true if err is or wraps a ReadError.
func IsReadError(err error) bool {
	var re *ReadError
	return errors.As(err, &re)
}
