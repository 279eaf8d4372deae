package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/bytecarve/bytecarve/internal/signature"
)

// Default configuration values.
// These mirror long-standing carving tool conventions where applicable.
const (
	// DefaultBlockSize is 512 bytes: the traditional disk sector size.
	// Signatures written by real filesystems start on sector boundaries
	// far more often than not, so a sector-sized sweep window catches
	// them without the cost of byte-granular scanning.
	DefaultBlockSize = 512

	// AppName is the application name used for XDG directory paths.
	AppName = "bytecarve"
)

// Session holds the full configuration of one scan invocation.
// It is immutable after creation; the scanner receives it by value
// semantics and never writes back. Running multiple sessions concurrently
// requires one Session (and one Source, and one Statistics) each.
type Session struct {
	// Source is the path of the file or block device to carve.
	Source string

	// OutputDir is the root under which per-format subdirectories and
	// recovered files are written.
	OutputDir string

	// Formats is the selected subset of catalog tags. Empty means all
	// cataloged formats, in catalog order.
	Formats []string

	// BlockSize is the sweep window in bytes. Must be positive.
	BlockSize int

	// DeepScan enables trailer-bounded extraction for formats that
	// define a trailer. Formats without a trailer always use the
	// heuristic strategy regardless of this flag.
	DeepScan bool

	// SkipExisting skips candidates whose output path already exists.
	// Filenames embed offset, timestamp, and a random nonce, so a
	// collision is only ever a true re-run artifact.
	SkipExisting bool

	// MaxScanSize caps the number of source bytes inspected, measured
	// from offset zero. Zero means scan the entire source. No byte at
	// or beyond this offset is ever read.
	MaxScanSize int64

	// Timeout is the wall-clock deadline for the sweep. Zero means no
	// deadline. When it fires, the sweep stops at the next block
	// boundary and keeps everything written so far.
	Timeout time.Duration

	// LogFile, when set, receives a copy of the diagnostic log stream
	// in addition to stderr.
	LogFile string
}

// NewSession returns a Session for the given source and output root with
// every other field at its default.
func NewSession(src, outputDir string) *Session {
	return &Session{
		Source:       src,
		OutputDir:    outputDir,
		BlockSize:    DefaultBlockSize,
		SkipExisting: true,
	}
}

// SelectedFormats returns the session's format tags, defaulting to the
// full catalog when no explicit subset was chosen.
func (s *Session) SelectedFormats() []string {
	if len(s.Formats) == 0 {
		return signature.DefaultTags()
	}
	return s.Formats
}

// Validate checks the session for configuration errors.
// It returns the first sentinel error encountered, wrapped with the
// offending value where useful.
func (s *Session) Validate() error {
	if s.Source == "" {
		return ErrNoSource
	}
	if s.OutputDir == "" {
		return ErrNoOutputDir
	}
	if s.BlockSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBlockSize, s.BlockSize)
	}
	if s.MaxScanSize < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxScanSize, s.MaxScanSize)
	}
	if s.Timeout < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidTimeout, s.Timeout)
	}
	for _, tag := range s.Formats {
		if _, err := signature.Lookup(tag); err != nil {
			return err
		}
	}
	return nil
}

// XDGDataDir returns the default directory for the manifest database
// (~/.local/share/bytecarve on Linux).
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the default configuration directory
// (~/.config/bytecarve on Linux).
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}
