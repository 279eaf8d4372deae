package model

import "time"

// Statistics accumulates counters over a single scan session.
// It is mutated only by the scanner and the progress reporter while the
// sweep runs, and snapshotted into a ScanReport when the session ends.
// A Statistics value is owned by exactly one session and must not be
// shared across concurrently running sessions.
type Statistics struct {
	// TotalRecovered is the number of candidates accepted and written.
	TotalRecovered int `json:"total_recovered"`

	// RecoveredByFormat counts accepted candidates per format tag.
	// Every selected format has an entry, including zero counts; report
	// writers filter to nonzero entries.
	RecoveredByFormat map[string]int `json:"recovered_by_format"`

	// BytesScanned is the total number of source bytes read by the
	// block sweep. Extraction reads are not counted.
	BytesScanned int64 `json:"bytes_scanned"`

	// FalsePositives counts signature matches whose candidate was
	// rejected during extraction or validation.
	FalsePositives int `json:"false_positives"`

	// StartTime is when the session began scanning.
	StartTime time.Time `json:"start_time"`

	// TimeoutReached is set when the configured deadline fired and the
	// sweep stopped at a block boundary.
	TimeoutReached bool `json:"timeout_reached"`
}

// NewStatistics returns a Statistics with a zeroed per-format counter for
// each selected tag and the start time set to now.
func NewStatistics(tags []string) *Statistics {
	byFormat := make(map[string]int, len(tags))
	for _, tag := range tags {
		byFormat[tag] = 0
	}
	return &Statistics{
		RecoveredByFormat: byFormat,
		StartTime:         time.Now(),
	}
}

// RecordRecovered folds one accepted candidate into the counters.
func (s *Statistics) RecordRecovered(tag string) {
	s.TotalRecovered++
	s.RecoveredByFormat[tag]++
}

// RecordFalsePositive folds one rejected candidate into the counters.
func (s *Statistics) RecordFalsePositive() {
	s.FalsePositives++
}

// Elapsed returns the wall time since the session started.
func (s *Statistics) Elapsed() time.Duration {
	return time.Since(s.StartTime)
}
