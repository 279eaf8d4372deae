// Package model defines the data structures shared across the carving
// engine: scan statistics, recovered-file records, and the end-of-run
// report consumed by the report writers and the manifest store.
//
// Design decision: counters and report structures live here, apart from
// the scan logic, so that the statistics accumulator can be passed by
// reference into the sweep while the session configuration stays
// immutable. This mirrors the split between configuration, accumulation,
// and logic that the rest of the engine relies on.
package model
