// Package store provides the SQLite-backed run manifest.
//
// Every split run can be recorded with:
//   - Runs: one row per pass (input, output root, codec, status, error)
//   - Artifacts: the files the pass wrote, in the order it closed them
//   - Diagnostics: what the pass reported, in the order it reported it
//
// A run and all of its children are written in a single transaction, so a
// reader never sees a half-recorded run.
//
// # Ordering
//
// Artifacts and diagnostics carry a seq assigned at record time. All reads
// order by seq ASC so listings are identical across invocations. Runs are
// ordered by started_at, then id (UUIDv7, itself time-sortable).
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
