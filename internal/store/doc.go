// Package store provides SQLite-backed storage for the framekb trace log.
//
// The log is append-only and holds two record kinds:
//   - Operations: one row per public FrameBase operation
//   - Firings: one row per demon invocation, including suppressed ones
//
// Rows are content-addressed (see ir.OperationID and ir.FiringID) and
// written with ON CONFLICT(id) DO NOTHING, so recording the same event twice
// is a no-op.
//
// Every read orders by seq ASC, id COLLATE BINARY ASC. seq comes from the
// engine's logical clock, so the order is reproducible.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000ms
//   - one open connection (SQLite has a single writer)
//
// *Store satisfies engine.Recorder.
package store
