package config

import (
	"errors"
	"testing"
	"time"

	"github.com/bytecarve/bytecarve/internal/signature"
)

// TestNewSession verifies that NewSession returns a Session with all
// expected default values. This serves as living documentation of the
// defaults; changes to them should be intentional.
func TestNewSession(t *testing.T) {
	t.Parallel()

	s := NewSession("/dev/sdb1", "recovered")

	t.Run("default BlockSize is 512", func(t *testing.T) {
		t.Parallel()
		if s.BlockSize != 512 {
			t.Errorf("expected BlockSize 512, got %d", s.BlockSize)
		}
	})

	t.Run("default SkipExisting is true", func(t *testing.T) {
		t.Parallel()
		if !s.SkipExisting {
			t.Error("expected SkipExisting to be true")
		}
	})

	t.Run("default DeepScan is false", func(t *testing.T) {
		t.Parallel()
		if s.DeepScan {
			t.Error("expected DeepScan to be false")
		}
	})

	t.Run("default MaxScanSize is unset", func(t *testing.T) {
		t.Parallel()
		if s.MaxScanSize != 0 {
			t.Errorf("expected MaxScanSize 0, got %d", s.MaxScanSize)
		}
	})

	t.Run("default Timeout is unset", func(t *testing.T) {
		t.Parallel()
		if s.Timeout != 0 {
			t.Errorf("expected Timeout 0, got %v", s.Timeout)
		}
	})
}

// TestSelectedFormats verifies the all-formats default selection.
func TestSelectedFormats(t *testing.T) {
	t.Parallel()

	t.Run("empty selection means full catalog", func(t *testing.T) {
		t.Parallel()
		s := NewSession("src", "out")
		got := s.SelectedFormats()
		want := signature.DefaultTags()
		if len(got) != len(want) {
			t.Fatalf("expected %d tags, got %d", len(want), len(got))
		}
	})

	t.Run("explicit subset is preserved", func(t *testing.T) {
		t.Parallel()
		s := NewSession("src", "out")
		s.Formats = []string{"png", "pdf"}
		got := s.SelectedFormats()
		if len(got) != 2 || got[0] != "png" || got[1] != "pdf" {
			t.Errorf("expected [png pdf], got %v", got)
		}
	})
}

// TestSessionValidate tests each validation rule in isolation.
func TestSessionValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Session {
		return NewSession("/tmp/image.dd", "recovered")
	}

	t.Run("valid session returns nil", func(t *testing.T) {
		t.Parallel()
		if err := valid().Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("empty source returns ErrNoSource", func(t *testing.T) {
		t.Parallel()
		s := valid()
		s.Source = ""
		if err := s.Validate(); !errors.Is(err, ErrNoSource) {
			t.Errorf("expected ErrNoSource, got %v", err)
		}
	})

	t.Run("empty output dir returns ErrNoOutputDir", func(t *testing.T) {
		t.Parallel()
		s := valid()
		s.OutputDir = ""
		if err := s.Validate(); !errors.Is(err, ErrNoOutputDir) {
			t.Errorf("expected ErrNoOutputDir, got %v", err)
		}
	})

	t.Run("zero block size returns ErrInvalidBlockSize", func(t *testing.T) {
		t.Parallel()
		s := valid()
		s.BlockSize = 0
		if err := s.Validate(); !errors.Is(err, ErrInvalidBlockSize) {
			t.Errorf("expected ErrInvalidBlockSize, got %v", err)
		}
	})

	t.Run("negative block size returns ErrInvalidBlockSize", func(t *testing.T) {
		t.Parallel()
		s := valid()
		s.BlockSize = -512
		if err := s.Validate(); !errors.Is(err, ErrInvalidBlockSize) {
			t.Errorf("expected ErrInvalidBlockSize, got %v", err)
		}
	})

	t.Run("negative max scan size returns ErrInvalidMaxScanSize", func(t *testing.T) {
		t.Parallel()
		s := valid()
		s.MaxScanSize = -1
		if err := s.Validate(); !errors.Is(err, ErrInvalidMaxScanSize) {
			t.Errorf("expected ErrInvalidMaxScanSize, got %v", err)
		}
	})

	t.Run("negative timeout returns ErrInvalidTimeout", func(t *testing.T) {
		t.Parallel()
		s := valid()
		s.Timeout = -time.Minute
		if err := s.Validate(); !errors.Is(err, ErrInvalidTimeout) {
			t.Errorf("expected ErrInvalidTimeout, got %v", err)
		}
	})

	t.Run("unknown format tag returns ErrUnknownFormat", func(t *testing.T) {
		t.Parallel()
		s := valid()
		s.Formats = []string{"png", "exe"}
		if err := s.Validate(); !errors.Is(err, signature.ErrUnknownFormat) {
			t.Errorf("expected signature.ErrUnknownFormat, got %v", err)
		}
	})
}
