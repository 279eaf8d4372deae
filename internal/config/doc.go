// Package config defines the immutable per-invocation scan session
// configuration, its validation rules, and the optional YAML profile file
// that supplies defaults and per-source overrides.
//
// A Session is created once per scan, validated, and never mutated
// afterward; the mutable counters live in the model package and the
// cooperative cancellation flag lives with the scanner. This split keeps
// configuration, accumulation, and cancellation from being bundled into
// one stateful object.
package config
