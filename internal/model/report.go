package model

import "time"

// Outcome is the terminal state of a scan session.
type Outcome string

// Terminal session outcomes. A session always ends in exactly one of
// these; every outcome still emits a summary before control returns.
const (
	// OutcomeCompleted means the cursor reached the scan ceiling or the
	// source yielded no further bytes.
	OutcomeCompleted Outcome = "completed"

	// OutcomeTimedOut means the configured deadline fired and the sweep
	// stopped at the next block boundary. Candidates already written
	// are kept.
	OutcomeTimedOut Outcome = "timed-out"

	// OutcomeInterrupted means an external interrupt cancelled the
	// sweep. Candidates already written are kept; the session is
	// reported as a failure.
	OutcomeInterrupted Outcome = "interrupted"

	// OutcomeFailed means the source could not be opened or a fatal
	// accessor error occurred before scanning.
	OutcomeFailed Outcome = "failed"
)

// RecoveredFile records one accepted candidate. It is constructed at the
// moment a candidate is accepted, written once, and never mutated.
type RecoveredFile struct {
	// Format is the format tag of the matched signature.
	Format string `json:"format"`

	// Offset is the absolute source offset where the signature started.
	Offset int64 `json:"offset"`

	// Length is the candidate's byte length as written.
	Length int64 `json:"length"`

	// Path is the output path the candidate was written to.
	Path string `json:"path"`

	// CreatedAt is the wall-clock time the candidate was accepted.
	CreatedAt time.Time `json:"created_at"`

	// Nonce is the short random disambiguator embedded in the filename.
	Nonce string `json:"nonce"`
}

// ScanReport is the end-of-run result of one session: the statistics
// snapshot plus the recovered-file records and termination outcome. It is
// what the report writers render and the manifest persists.
type ScanReport struct {
	// Source is the scanned file or device path.
	Source string `json:"source"`

	// OutputDir is the output root the recovered tree was written under.
	OutputDir string `json:"output_dir"`

	// Outcome is the session's terminal state.
	Outcome Outcome `json:"outcome"`

	// SourceSize is the addressable size determined for the source.
	SourceSize int64 `json:"source_size"`

	// Stats holds the session counters.
	Stats *Statistics `json:"stats"`

	// Files lists every accepted candidate in recovery order.
	Files []RecoveredFile `json:"files"`

	// Elapsed is the session's total wall time.
	Elapsed time.Duration `json:"elapsed"`
}

// Succeeded reports whether the session should be surfaced to the caller
// as a success. Timeout is a success: the scan stopped where asked and
// kept its candidates. Interruption and fatal errors are failures.
func (r *ScanReport) Succeeded() bool {
	return r.Outcome == OutcomeCompleted || r.Outcome == OutcomeTimedOut
}
