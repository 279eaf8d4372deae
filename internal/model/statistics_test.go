package model

import (
	"testing"
	"time"
)

// TestNewStatistics verifies per-format counters are pre-seeded for every
// selected tag so report writers can rely on map entries existing.
func TestNewStatistics(t *testing.T) {
	t.Parallel()

	stats := NewStatistics([]string{"png", "jpg"})

	if len(stats.RecoveredByFormat) != 2 {
		t.Fatalf("expected 2 per-format entries, got %d", len(stats.RecoveredByFormat))
	}
	for _, tag := range []string{"png", "jpg"} {
		if count, ok := stats.RecoveredByFormat[tag]; !ok || count != 0 {
			t.Errorf("expected zeroed entry for %q, got %d (present=%v)", tag, count, ok)
		}
	}
	if stats.StartTime.IsZero() {
		t.Error("expected StartTime to be set")
	}
}

// TestStatisticsCounters exercises the recording methods.
func TestStatisticsCounters(t *testing.T) {
	t.Parallel()

	stats := NewStatistics([]string{"png"})

	stats.RecordRecovered("png")
	stats.RecordRecovered("png")
	stats.RecordFalsePositive()

	if stats.TotalRecovered != 2 {
		t.Errorf("expected TotalRecovered=2, got %d", stats.TotalRecovered)
	}
	if stats.RecoveredByFormat["png"] != 2 {
		t.Errorf("expected png count 2, got %d", stats.RecoveredByFormat["png"])
	}
	if stats.FalsePositives != 1 {
		t.Errorf("expected FalsePositives=1, got %d", stats.FalsePositives)
	}
}

// TestScanReportSucceeded verifies the success mapping of each outcome.
func TestScanReportSucceeded(t *testing.T) {
	t.Parallel()

	tests := []struct {
		outcome Outcome
		want    bool
	}{
		{OutcomeCompleted, true},
		{OutcomeTimedOut, true},
		{OutcomeInterrupted, false},
		{OutcomeFailed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.outcome), func(t *testing.T) {
			t.Parallel()
			r := &ScanReport{Outcome: tt.outcome}
			if r.Succeeded() != tt.want {
				t.Errorf("Succeeded() for %s = %v, want %v", tt.outcome, r.Succeeded(), tt.want)
			}
		})
	}
}

// TestStatisticsElapsed sanity-checks the elapsed computation.
func TestStatisticsElapsed(t *testing.T) {
	t.Parallel()

	stats := NewStatistics(nil)
	stats.StartTime = time.Now().Add(-2 * time.Second)

	if e := stats.Elapsed(); e < time.Second {
		t.Errorf("expected elapsed >= 1s, got %v", e)
	}
}
