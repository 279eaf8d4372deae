package config

import "errors"

// Session validation errors.
// These errors are returned by Session.Validate() and identify exactly
// which field is wrong.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoSource is returned when the session names no source path.
	ErrNoSource = errors.New("no source specified: provide a file or block device path")

	// ErrNoOutputDir is returned when the session names no output root.
	ErrNoOutputDir = errors.New("no output directory specified")

	// ErrInvalidBlockSize is returned when the block size is not
	// positive. The sweep advances by exactly one block per iteration,
	// so a non-positive block size would never terminate.
	ErrInvalidBlockSize = errors.New("invalid block size: must be positive")

	// ErrInvalidMaxScanSize is returned when the scan ceiling is
	// negative. Zero means "scan the entire source".
	ErrInvalidMaxScanSize = errors.New("invalid max scan size: must be non-negative")

	// ErrInvalidTimeout is returned when the timeout is negative.
	// Zero means "no deadline".
	ErrInvalidTimeout = errors.New("invalid timeout: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used at a
	// time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
