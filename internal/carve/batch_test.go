package carve

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bytecarve/bytecarve/internal/config"
	"github.com/bytecarve/bytecarve/internal/model"
)

func TestRunnerRun(t *testing.T) {
	t.Parallel()

	t.Run("scans every session and delivers each report", func(t *testing.T) {
		t.Parallel()

		png := mustLookup(t, "png")

		// First image carries one carvable PNG, second is empty filler.
		withHit := make([]byte, 8*1024)
		copy(withHit, fill(len(withHit)))
		copy(withHit[512:], png.Magics[0])
		copy(withHit[4096:], png.Trailer)

		first := newTestSession(t, writeImage(t, withHit), "png")
		first.DeepScan = true
		second := newTestSession(t, writeImage(t, fill(8*1024)), "png")

		var mu sync.Mutex
		reports := make(map[int]*model.ScanReport)
		runner := NewRunner(WithRunnerLogger(discardLogger()), WithConcurrency(2))
		err := runner.Run(context.Background(),
			[]*config.Session{first, second},
			func(report *model.ScanReport, index int) {
				mu.Lock()
				defer mu.Unlock()
				reports[index] = report
			})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(reports) != 2 {
			t.Fatalf("expected two reports, got %d", len(reports))
		}
		if reports[0].Stats.TotalRecovered != 1 {
			t.Errorf("expected one recovery in first session, got %d", reports[0].Stats.TotalRecovered)
		}
		if reports[1].Stats.TotalRecovered != 0 {
			t.Errorf("expected no recovery in second session, got %d", reports[1].Stats.TotalRecovered)
		}
	})

	t.Run("a failing session does not stop the batch", func(t *testing.T) {
		t.Parallel()

		missing := newTestSession(t, filepath.Join(t.TempDir(), "gone.dd"), "png")
		healthy := newTestSession(t, writeImage(t, fill(4*1024)), "png")

		var mu sync.Mutex
		outcomes := make(map[int]model.Outcome)
		runner := NewRunner(WithRunnerLogger(discardLogger()))
		err := runner.Run(context.Background(),
			[]*config.Session{missing, healthy},
			func(report *model.ScanReport, index int) {
				mu.Lock()
				defer mu.Unlock()
				outcomes[index] = report.Outcome
			})
		if err != nil {
			t.Fatalf("expected no batch error, got %v", err)
		}

		if outcomes[0] != model.OutcomeFailed {
			t.Errorf("expected failed outcome for missing source, got %s", outcomes[0])
		}
		if outcomes[1] != model.OutcomeCompleted {
			t.Errorf("expected completed outcome for healthy source, got %s", outcomes[1])
		}
	})
}
