// Package manifest provides SQLite-based storage for scan history.
//
// This package implements the Manifest, which stores:
//   - One session row per scan run, with the full report as JSON
//   - One file row per recovered candidate
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
//
// Persisting to the manifest is best-effort from the caller's point of
// view: a failed save never fails the scan that produced the report.
package manifest
