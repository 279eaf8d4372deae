// Package signature defines the catalog of recognized file formats and
// their byte-level fingerprints.
//
// Each format is described by a Spec: the magic byte sequences that mark
// the start of a file, an optional trailer sequence that marks its end,
// optional validation substrings used to weed out false positives, and a
// maximum plausible size. The catalog is read-only, process-wide, and
// initialized once at package load.
//
// Design decision: the tables live in Go source rather than an external
// data file because they change rarely, are small, and embedding them
// keeps the binary self-contained. The values mirror the signature set
// used by common carving tools (foremost, scalpel) for the same formats.
package signature
