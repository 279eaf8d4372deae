// Package log provides structured logging helpers for the carving engine.
//
// Carving works on raw device bytes, and those bytes routinely end up as
// log attributes: matched magic sequences, probe chunks, rejected
// candidate prefixes. Dumping them verbatim would flood the log stream
// with unbounded binary and corrupt terminal output. BinaryHandler wraps
// any slog.Handler and renders byte-slice attributes as bounded hex
// previews, and strips control characters from string attributes.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Call sites can log raw buffers without pre-formatting them
package log
