// Package carve implements the carving engine: the sequential block
// sweep, candidate extraction, content validation, and persistence of
// recovered files.
//
// The engine recovers files from raw byte streams using only content
// patterns. The Scanner reads fixed-size blocks from the source, asks a
// multi-pattern prefilter which magic sequences occur in each block, and
// for every hit delimits the candidate with one of two strategies:
// trailer-bounded extraction (deep scan, formats with a known trailer) or
// heuristic truncation. Candidates passing the cheap content validation
// are written under the output root and folded into the session
// statistics; rejected ones count as false positives.
//
// A Scanner is single-threaded and fully sequential: one cursor, one open
// source handle, blocking reads. The only concurrency-adjacent mechanism
// is the cooperative deadline flag checked at block boundaries. Multiple
// sources are handled by running fully independent sessions, optionally
// in parallel via the batch Runner.
package carve
