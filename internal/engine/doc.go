// Package engine implements the dumpsplit split engine.
//
// The engine reads a mysqldump text stream one line at a time, classifies
// each line (see package classify) and drives a small state machine that
// writes one artifact per database and one per table.
//
// ARCHITECTURE:
//
// Single Pass:
// The engine makes exactly one sequential pass over its input, with no
// look-ahead beyond the current line and no backtracking. Everything happens
// on the calling goroutine.
//
// Owned State:
// The mutable parsing state lives in one struct owned by the running pass:
//   - header: directives captured before any database/table context
//   - database: the name set by the last USE statement, if any
//   - table: the open table sink, if any
//
// The presence of the table field IS the "inside a table" state. At most one
// table sink is open at any time and every sink that is opened is closed on
// every exit path, including error recovery and end of input.
//
// Line Attribution:
// After a line's specific transition runs, the line is attributed to the open
// table sink if there is one. Table-start opens its sink before attribution,
// so the CREATE TABLE line lands in the new artifact. Table-end closes after
// attribution, so UNLOCK TABLES lands in the artifact it terminates.
//
// Recovery:
// Malformed nesting never stops the pass. It is reported as a Diagnostic,
// the open sink is force-closed and processing continues. Only sink I/O
// failures (SinkError) abort a pass.
package engine
