package source

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// ErrSourceUnavailable is returned by Open when the source path cannot be
// opened for reading. This is the only fatal accessor error: everything
// after a successful open degrades per-block or per-candidate.
var ErrSourceUnavailable = errors.New("source unavailable")

// FallbackSize is the assumed source size when every probing strategy
// fails. Scanning proceeds with a warning rather than aborting.
const FallbackSize int64 = 1024 * 1024 * 1024 // 1 GiB

// Source is an open handle to a file or block device under carving.
// A Source is owned by exactly one scan session and is not safe for
// concurrent use; concurrent sessions each open their own Source.
type Source struct {
	f      *os.File
	path   string
	logger *slog.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithLogger sets the logger used for size-probe diagnostics.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		s.logger = logger
	}
}

// Open opens the source at path for raw read access.
// It returns an error wrapping ErrSourceUnavailable when the path cannot
// be opened; the caller must treat that as fatal for the session.
func Open(path string, opts ...Option) (*Source, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided source path is intentional
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, path, err)
	}

	s := &Source{
		f:      f,
		path:   path,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the path the Source was opened from.
func (s *Source) Path() string {
	return s.path
}

// ReadAt performs a blocking positioned read into p starting at off.
// It may return fewer bytes than requested at end of stream; a short read
// at EOF is reported as (n, nil) so the sweep can fold in the trailing
// partial block. A read that yields no bytes returns (0, io.EOF).
func (s *Source) ReadAt(p []byte, off int64) (int, error) {
	n, err := s.f.ReadAt(p, off)
	if errors.Is(err, io.EOF) && n > 0 {
		return n, nil
	}
	return n, err
}

// Read reads from the current cursor position, advancing it.
// Used by the extraction strategies after seeking to a signature offset.
func (s *Source) Read(p []byte) (int, error) {
	return s.f.Read(p)
}

// Seek repositions the cursor. Extraction callers must restore the
// cursor after any extraction attempt, succeed or fail, so the outer
// sweep's position invariant is never corrupted.
func (s *Source) Seek(offset int64, whence int) (int64, error) {
	return s.f.Seek(offset, whence)
}

// Tell returns the current cursor position.
func (s *Source) Tell() (int64, error) {
	return s.f.Seek(0, io.SeekCurrent)
}

// Close releases the underlying handle. The Source is unusable afterward.
func (s *Source) Close() error {
	return s.f.Close()
}

// sizeStrategy is one entry in the ordered size-probing cascade.
type sizeStrategy struct {
	name  string
	probe func(*Source) (int64, error)
}

// sizeStrategies is the ordered probing cascade. First success wins.
var sizeStrategies = []sizeStrategy{
	{name: "regular-file stat", probe: regularFileSize},
	{name: "block-device ioctl", probe: blockDeviceSize},
	{name: "seek-to-end", probe: seekEndSize},
}

// Size determines the total addressable size of the source.
// Strategies are tried in order; each failure is logged at debug level.
// If every strategy fails, Size returns FallbackSize and logs a warning.
func (s *Source) Size() int64 {
	for _, strat := range sizeStrategies {
		size, err := strat.probe(s)
		if err != nil {
			s.logger.Debug("size strategy failed",
				"strategy", strat.name,
				"source", s.path,
				"error", err,
			)
			continue
		}
		s.logger.Debug("size determined",
			"strategy", strat.name,
			"source", s.path,
			"size", size,
		)
		return size
	}

	s.logger.Warn("could not determine source size, using fallback",
		"source", s.path,
		"fallback", FallbackSize,
	)
	return FallbackSize
}

// regularFileSize answers for plain files via stat.
func regularFileSize(s *Source) (int64, error) {
	fi, err := s.f.Stat()
	if err != nil {
		return 0, err
	}
	if !fi.Mode().IsRegular() {
		return 0, fmt.Errorf("%s is not a regular file", s.path)
	}
	return fi.Size(), nil
}

// seekEndSize answers by seeking to the end and restoring the cursor.
// This is the ioctl-free fallback for devices that support seeking.
func seekEndSize(s *Source) (int64, error) {
	cur, err := s.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	end, err := s.f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := s.f.Seek(cur, io.SeekStart); err != nil {
		return 0, err
	}
	return end, nil
}
