package carve

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/bytecarve/bytecarve/internal/config"
	"github.com/bytecarve/bytecarve/internal/model"
	"github.com/bytecarve/bytecarve/internal/progress"
	"github.com/bytecarve/bytecarve/internal/signature"
	"github.com/bytecarve/bytecarve/internal/source"
)

// Scanner drives one scan session: the block-by-block sweep across the
// source, extraction and validation of every signature hit, persistence
// of accepted candidates, and statistics accumulation.
//
// State machine: Idle -> Scanning -> {Completed, TimedOut, Failed}. The
// transition out of Idle happens inside Scan once the source is open and
// the output subdirectories exist; every terminal state emits a summary
// before Scan returns.
type Scanner struct {
	session *config.Session
	logger  *slog.Logger

	// timedOut is the cooperative cancellation flag. A background timer
	// sets it when the configured deadline fires; the sweep observes it
	// once per block iteration, never mid-block, so in-flight extraction
	// of a large candidate is never pre-empted mid-read.
	timedOut atomic.Bool
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets a custom logger for the scanner.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// NewScanner creates a Scanner for the given session. The session is
// treated as immutable; all mutable state lives in the returned Scanner
// and the Statistics it creates per run.
func NewScanner(session *config.Session, opts ...Option) *Scanner {
	s := &Scanner{
		session: session,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan executes the sweep and returns the session report.
//
// The report is non-nil even on failure so the caller always has a
// summary to surface. The error is non-nil when the session must be
// reported as a failure: the source could not be opened, the output tree
// could not be created, or the sweep was interrupted. A timeout is not an
// error: the sweep stopped where asked and kept its candidates.
func (s *Scanner) Scan(ctx context.Context) (*model.ScanReport, error) {
	tags := s.session.SelectedFormats()

	report := &model.ScanReport{
		Source:    s.session.Source,
		OutputDir: s.session.OutputDir,
		Stats:     model.NewStatistics(tags),
	}

	if err := s.session.Validate(); err != nil {
		return s.fail(report, fmt.Errorf("invalid session: %w", err))
	}

	specs := make([]signature.Spec, len(tags))
	for i, tag := range tags {
		spec, err := signature.Lookup(tag)
		if err != nil {
			return s.fail(report, err)
		}
		specs[i] = spec
	}

	s.logger.Info("starting scan",
		"source", s.session.Source,
		"formats", tags,
		"blockSize", s.session.BlockSize,
		"deepScan", s.session.DeepScan,
	)

	src, err := source.Open(s.session.Source, source.WithLogger(s.logger))
	if err != nil {
		return s.fail(report, err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			s.logger.Error("failed to close source", "error", cerr)
		}
	}()

	// Output subdirectories are created lazily and idempotently at
	// session start for every selected format.
	for _, tag := range tags {
		dir := filepath.Join(s.session.OutputDir, tag)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return s.fail(report, fmt.Errorf("failed to create output directory %s: %w", dir, err))
		}
	}

	size := src.Size()
	report.SourceSize = size

	ceiling := size
	if s.session.MaxScanSize > 0 && s.session.MaxScanSize < ceiling {
		s.logger.Info("limiting scan range",
			"maxScanSize", s.session.MaxScanSize,
			"sourceSize", size,
		)
		ceiling = s.session.MaxScanSize
	}

	if s.session.Timeout > 0 {
		timer := time.AfterFunc(s.session.Timeout, func() {
			s.logger.Warn("scan timeout reached", "timeout", s.session.Timeout)
			s.timedOut.Store(true)
		})
		defer timer.Stop()
		s.logger.Info("timeout armed", "timeout", s.session.Timeout)
	}

	// Idle -> Scanning.
	reporter := progress.NewReporter(s.logger, report.Stats, ceiling)
	outcome, sweepErr := s.sweep(ctx, src, specs, ceiling, report, reporter)

	report.Outcome = outcome
	report.Elapsed = report.Stats.Elapsed()
	reporter.Summary(report)
	return report, sweepErr
}

// fail finalizes a report for a session that never reached Scanning.
func (s *Scanner) fail(report *model.ScanReport, err error) (*model.ScanReport, error) {
	report.Outcome = model.OutcomeFailed
	report.Elapsed = report.Stats.Elapsed()
	s.logger.Error("scan failed", "source", report.Source, "error", err)
	return report, err
}

// sweep runs the Scanning state: one block per iteration until a
// terminal condition fires.
func (s *Scanner) sweep(
	ctx context.Context,
	src *source.Source,
	specs []signature.Spec,
	ceiling int64,
	report *model.ScanReport,
	reporter *progress.Reporter,
) (model.Outcome, error) {
	blockSize := int64(s.session.BlockSize)
	extractor := NewExtractor(src, s.session.DeepScan, s.logger)
	pf := newPrefilter(specs)
	block := make([]byte, blockSize)

	var position int64
	for position < ceiling {
		// Cancellation is observed only at block boundaries.
		if err := ctx.Err(); err != nil {
			s.logger.Warn("scan interrupted", "position", position)
			return model.OutcomeInterrupted, fmt.Errorf("scan interrupted: %w", err)
		}
		if s.timedOut.Load() {
			s.logger.Warn("stopping scan due to timeout", "position", position)
			report.Stats.TimeoutReached = true
			return model.OutcomeTimedOut, nil
		}

		// Never inspect a byte at or beyond the ceiling.
		want := blockSize
		if remaining := ceiling - position; remaining < want {
			want = remaining
		}

		n, err := src.ReadAt(block[:want], position)
		if n == 0 {
			if err != nil && !errors.Is(err, io.EOF) {
				// Recoverable per block: log and advance past it.
				s.logger.Error("read error, skipping block",
					"position", position,
					"error", err,
				)
				position += blockSize
				reporter.MaybeEmit(position)
				continue
			}
			break
		}

		data := block[:n]
		report.Stats.BytesScanned += int64(n)

		if bySpec := pf.hits(data); bySpec != nil {
			s.handleBlockHits(extractor, specs, bySpec, data, position, ceiling, report)
		}

		// Resume from the next block boundary after a hit rather than
		// re-probing the rest of the current block; a second distinct
		// signature later in the same block is picked up only when a
		// later block re-exposes it. This matches the established
		// hit-resumption policy of sector sweeps.
		position += blockSize
		reporter.MaybeEmit(position)
	}

	return model.OutcomeCompleted, nil
}

// handleBlockHits processes every confirmed signature in a block, in
// catalog order so recovery order is deterministic.
func (s *Scanner) handleBlockHits(
	extractor *Extractor,
	specs []signature.Spec,
	bySpec map[int]map[int]bool,
	data []byte,
	position int64,
	ceiling int64,
	report *model.ScanReport,
) {
	for si, spec := range specs {
		magicHits := bySpec[si]
		if magicHits == nil {
			continue
		}
		for mi, magic := range spec.Magics {
			if !magicHits[mi] {
				continue
			}
			sigPos := bytes.Index(data, magic)
			if sigPos < 0 {
				continue
			}

			abs := position + int64(sigPos)
			s.logger.Debug("signature hit",
				"format", spec.Tag,
				"offset", abs,
				"magic", magic,
			)

			if rec, ok := s.recover(extractor, spec, abs, ceiling); ok {
				report.Stats.RecordRecovered(spec.Tag)
				report.Files = append(report.Files, rec)
			} else {
				report.Stats.RecordFalsePositive()
			}
		}
	}
}

// recover extracts, validates, and persists one candidate. It returns
// ok=false for every rejection; all extraction and validation failures
// are recoverable per candidate and never abort the sweep.
func (s *Scanner) recover(
	extractor *Extractor,
	spec signature.Spec,
	offset int64,
	ceiling int64,
) (model.RecoveredFile, bool) {
	// The candidate window is capped by the format's maximum size and
	// clipped by the scan ceiling so a bounded scan never reads past
	// its limit even during extraction.
	maxLen := spec.EffectiveMaxSize()
	if s.session.MaxScanSize > 0 && ceiling-offset < maxLen {
		maxLen = ceiling - offset
	}

	data := extractor.Extract(spec, offset, maxLen)
	if len(data) < MinCandidateSize {
		s.logger.Debug("candidate below minimum size",
			"format", spec.Tag,
			"offset", offset,
			"size", len(data),
		)
		return model.RecoveredFile{}, false
	}

	if !Validate(data, spec) {
		s.logger.Debug("candidate failed validation",
			"format", spec.Tag,
			"offset", offset,
			"size", len(data),
		)
		return model.RecoveredFile{}, false
	}

	now := time.Now()
	nonce := randomNonce()
	name := fmt.Sprintf("%s_%d_%d_%s.%s", spec.Tag, offset, now.Unix(), nonce, spec.Extension)
	path := filepath.Join(s.session.OutputDir, spec.Tag, name)

	if s.session.SkipExisting {
		if _, err := os.Stat(path); err == nil {
			s.logger.Debug("skipping existing file", "path", path)
			return model.RecoveredFile{}, false
		}
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		s.logger.Error("failed to write recovered file",
			"path", path,
			"error", err,
		)
		return model.RecoveredFile{}, false
	}

	s.logger.Info("recovered file",
		"format", spec.Tag,
		"offset", offset,
		"size", len(data),
		"path", path,
	)

	return model.RecoveredFile{
		Format:    spec.Tag,
		Offset:    offset,
		Length:    int64(len(data)),
		Path:      path,
		CreatedAt: now,
		Nonce:     nonce,
	}, true
}

// randomNonce returns the short random disambiguator embedded in output
// filenames: 8 hex characters.
func randomNonce() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand never fails on supported platforms; fall back to
		// a time-derived value rather than aborting the recovery.
		return fmt.Sprintf("%08x", time.Now().UnixNano()&0xFFFFFFFF)
	}
	return hex.EncodeToString(b[:])
}
