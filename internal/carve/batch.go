package carve

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bytecarve/bytecarve/internal/config"
	"github.com/bytecarve/bytecarve/internal/model"
)

// Runner handles concurrent scanning of multiple independent sources.
//
// Each session owns its own Source handle, statistics accumulator, and
// output subtree, so sessions share no mutable state and need no
// cross-session coordination. The Runner only bounds how many run at
// once.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each session gets its own goroutine, but only 'concurrency' goroutines
// run simultaneously.
type Runner struct {
	// concurrency is the maximum number of concurrent sessions.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunnerLogger sets a custom logger for batch runs.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent sessions.
// Default is 2 if not specified: carving is I/O bound and two spindles
// is the common case for a workstation with an image and a device.
func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		concurrency: 2,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run scans every session, at most 'concurrency' at a time, calling the
// callback for each completed session with its report and index in the
// original slice. The callback is invoked from the goroutine that
// finished the session, so it must be safe for concurrent use if it
// touches shared state.
//
// Individual session failures are recorded in their reports and do not
// stop the other sessions. The returned error is non-nil only when the
// batch itself was cancelled.
func (r *Runner) Run(
	ctx context.Context,
	sessions []*config.Session,
	callback func(report *model.ScanReport, index int),
) error {
	r.logger.Info("starting batch run",
		"sessions", len(sessions),
		"concurrency", r.concurrency,
	)

	startTime := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, session := range sessions {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			scanner := NewScanner(session, WithLogger(r.logger))
			report, err := scanner.Scan(gctx)
			if err != nil {
				// The error is already reflected in the report's
				// outcome; other sessions keep running.
				r.logger.Warn("session failed",
					"source", session.Source,
					"error", err,
				)
			}

			callback(report, i)
			return nil
		})
	}

	err := g.Wait()

	r.logger.Info("batch run complete",
		"sessions", len(sessions),
		"elapsed", time.Since(startTime).Round(time.Millisecond),
	)
	return err
}
