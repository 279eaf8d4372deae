package carve

import (
	"bytes"

	"github.com/bytecarve/bytecarve/internal/signature"
)

// MinCandidateSize is the floor under which a candidate is rejected
// unconditionally. Anything smaller is noise: no recoverable file of the
// cataloged formats is that small.
const MinCandidateSize = 100

// Validate accepts or rejects an extracted candidate.
//
// Candidates under MinCandidateSize bytes are rejected unconditionally.
// If the format defines validation substrings, at least one must occur
// somewhere in the buffer; formats with no validation substrings are
// accepted on size alone.
//
// This is a deliberately cheap whole-buffer substring scan, not a format
// parser. It exists to cut false positives, not to guarantee format
// correctness; replacing it with a structural parse would change the
// engine's false-positive/negative behavior.
func Validate(data []byte, spec signature.Spec) bool {
	if len(data) < MinCandidateSize {
		return false
	}
	if len(spec.Validation) == 0 {
		return true
	}
	for _, pattern := range spec.Validation {
		if bytes.Contains(data, pattern) {
			return true
		}
	}
	return false
}
