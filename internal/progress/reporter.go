package progress

import (
	"log/slog"
	"slices"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/bytecarve/bytecarve/internal/model"
)

// Emission cadence.
const (
	// byteStride is the cursor interval that forces a progress line.
	// Emission fires on exact multiples, matching a sector-aligned
	// sweep where the cursor lands precisely on the boundary.
	byteStride = 5 * 1024 * 1024

	// timeStride is the wall-clock interval that forces a progress
	// line even when the cursor moves slowly (large blocks, slow
	// devices).
	timeStride = 10 * time.Second
)

// Reporter tracks emission cadence and renders progress and summary lines
// for one scan session. It is owned by a single sweep goroutine and is
// not safe for concurrent use.
type Reporter struct {
	logger *slog.Logger
	stats  *model.Statistics
	total  int64

	lastEmit time.Time
	now      func() time.Time
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithClock overrides the time source. Used by tests to drive the
// time-based emission path deterministically.
func WithClock(now func() time.Time) Option {
	return func(r *Reporter) {
		r.now = now
	}
}

// NewReporter creates a Reporter for a sweep over total bytes, folding
// progress into the given statistics accumulator.
func NewReporter(logger *slog.Logger, stats *model.Statistics, total int64, opts ...Option) *Reporter {
	r := &Reporter{
		logger: logger,
		stats:  stats,
		total:  total,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.lastEmit = r.now()
	return r
}

// ShouldEmit reports whether a progress line is due at the given cursor
// position.
func (r *Reporter) ShouldEmit(position int64) bool {
	if position > 0 && position%byteStride == 0 {
		return true
	}
	return r.now().Sub(r.lastEmit) >= timeStride
}

// MaybeEmit emits a progress line if one is due and resets the cadence
// clock when it does.
func (r *Reporter) MaybeEmit(position int64) {
	if !r.ShouldEmit(position) {
		return
	}
	r.Emit(position)
}

// Emit unconditionally emits a progress line for the given position.
func (r *Reporter) Emit(position int64) {
	percent := 0.0
	if r.total > 0 {
		percent = float64(position) / float64(r.total) * 100
	}

	elapsed := r.now().Sub(r.stats.StartTime)

	eta := "unknown"
	if d, ok := r.ETA(position); ok {
		eta = d.Round(time.Second).String()
	}

	r.logger.Info("progress",
		"percent", percent,
		"position", humanize.IBytes(uint64(max(position, 0))),
		"total", humanize.IBytes(uint64(max(r.total, 0))),
		"recovered", r.stats.TotalRecovered,
		"elapsed", elapsed.Round(time.Second).String(),
		"eta", eta,
	)
	r.lastEmit = r.now()
}

// ETA linearly extrapolates the remaining time from the throughput
// achieved so far. The second return value is false when the ETA is
// undeterminable: nothing scanned yet, unknown total, or zero
// throughput.
func (r *Reporter) ETA(position int64) (time.Duration, bool) {
	if position <= 0 || r.total <= 0 {
		return 0, false
	}

	elapsed := r.now().Sub(r.stats.StartTime)
	if elapsed <= 0 {
		return 0, false
	}

	bytesPerSecond := float64(position) / elapsed.Seconds()
	if bytesPerSecond <= 0 {
		return 0, false
	}

	remaining := float64(r.total - position)
	if remaining < 0 {
		remaining = 0
	}
	return time.Duration(remaining / bytesPerSecond * float64(time.Second)), true
}

// Summary emits the end-of-run banner: totals, per-format breakdown
// (nonzero counts only), elapsed time, and the timeout note when the run
// was stopped by its deadline. Every terminal state of the sweep emits
// exactly one summary.
func (r *Reporter) Summary(report *model.ScanReport) {
	stats := report.Stats

	r.logger.Info("recovery summary",
		"source", report.Source,
		"outcome", string(report.Outcome),
		"totalRecovered", stats.TotalRecovered,
		"falsePositives", stats.FalsePositives,
		"bytesScanned", humanize.IBytes(uint64(max(stats.BytesScanned, 0))),
		"elapsed", report.Elapsed.Round(time.Second).String(),
	)

	for _, tag := range sortedNonzeroTags(stats.RecoveredByFormat) {
		r.logger.Info("recovered by format",
			"format", tag,
			"count", stats.RecoveredByFormat[tag],
		)
	}

	if stats.TimeoutReached {
		r.logger.Info("scan was stopped due to timeout")
	}
}

// sortedNonzeroTags returns the tags with nonzero counts in lexical
// order, keeping summary output stable across runs.
func sortedNonzeroTags(byFormat map[string]int) []string {
	tags := make([]string, 0, len(byFormat))
	for tag, count := range byFormat {
		if count > 0 {
			tags = append(tags, tag)
		}
	}
	slices.Sort(tags)
	return tags
}
