package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeProfile writes a profile file fixture and returns its path.
func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultProfileFile)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write profile fixture: %v", err)
	}
	return path
}

// TestLoadProfileFile tests parsing and the not-found error.
func TestLoadProfileFile(t *testing.T) {
	t.Parallel()

	t.Run("valid profile parses", func(t *testing.T) {
		t.Parallel()
		path := writeProfile(t, `
defaults:
  block_size: 4096
  deep_scan: true
  formats: [png, jpg]
sources:
  /dev/sdb1:
    block_size: 512
    max_scan_mib: 100
    timeout_minutes: 30
`)
		f, err := LoadProfileFile(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if f.Defaults.BlockSize != 4096 {
			t.Errorf("expected default block_size 4096, got %d", f.Defaults.BlockSize)
		}
		if !f.Defaults.DeepScan {
			t.Error("expected default deep_scan true")
		}
		if len(f.Defaults.Formats) != 2 {
			t.Errorf("expected 2 default formats, got %v", f.Defaults.Formats)
		}
		if f.Sources["/dev/sdb1"].MaxScanMiB != 100 {
			t.Errorf("expected source max_scan_mib 100, got %d", f.Sources["/dev/sdb1"].MaxScanMiB)
		}
	})

	t.Run("missing file returns ErrProfileNotFound", func(t *testing.T) {
		t.Parallel()
		_, err := LoadProfileFile(filepath.Join(t.TempDir(), "nope"))
		if !errors.Is(err, ErrProfileNotFound) {
			t.Errorf("expected ErrProfileNotFound, got %v", err)
		}
	})

	t.Run("malformed yaml returns an error", func(t *testing.T) {
		t.Parallel()
		path := writeProfile(t, "defaults: [not a map")
		if _, err := LoadProfileFile(path); err == nil {
			t.Error("expected parse error, got nil")
		}
	})

	t.Run("empty file yields usable zero profile", func(t *testing.T) {
		t.Parallel()
		path := writeProfile(t, "")
		f, err := LoadProfileFile(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if f.Sources == nil {
			t.Error("expected Sources map to be initialized")
		}
	})
}

// TestProfileFor verifies per-source override merging.
func TestProfileFor(t *testing.T) {
	t.Parallel()

	f := &File{
		Defaults: Profile{BlockSize: 4096, Formats: []string{"png"}},
		Sources: map[string]Profile{
			"/dev/sdb1": {BlockSize: 512, DeepScan: true},
		},
	}

	t.Run("listed source gets overrides over defaults", func(t *testing.T) {
		t.Parallel()
		p := f.ProfileFor("/dev/sdb1")
		if p.BlockSize != 512 {
			t.Errorf("expected block size 512, got %d", p.BlockSize)
		}
		if !p.DeepScan {
			t.Error("expected deep scan enabled")
		}
		if len(p.Formats) != 1 || p.Formats[0] != "png" {
			t.Errorf("expected inherited formats [png], got %v", p.Formats)
		}
	})

	t.Run("unlisted source gets defaults", func(t *testing.T) {
		t.Parallel()
		p := f.ProfileFor("/dev/sdc")
		if p.BlockSize != 4096 {
			t.Errorf("expected default block size 4096, got %d", p.BlockSize)
		}
		if p.DeepScan {
			t.Error("expected deep scan disabled")
		}
	})
}

// TestProfileApply verifies profile-to-session overlay including unit
// conversions.
func TestProfileApply(t *testing.T) {
	t.Parallel()

	s := NewSession("/dev/sdb1", "out")
	p := Profile{
		Formats:        []string{"pdf"},
		BlockSize:      1024,
		DeepScan:       true,
		MaxScanMiB:     10,
		TimeoutMinutes: 5,
	}

	p.Apply(s)

	if s.BlockSize != 1024 {
		t.Errorf("expected block size 1024, got %d", s.BlockSize)
	}
	if !s.DeepScan {
		t.Error("expected deep scan enabled")
	}
	if s.MaxScanSize != 10*1024*1024 {
		t.Errorf("expected max scan size 10 MiB in bytes, got %d", s.MaxScanSize)
	}
	if s.Timeout != 5*time.Minute {
		t.Errorf("expected timeout 5m, got %v", s.Timeout)
	}
	if len(s.Formats) != 1 || s.Formats[0] != "pdf" {
		t.Errorf("expected formats [pdf], got %v", s.Formats)
	}

	t.Run("zero profile leaves session untouched", func(t *testing.T) {
		t.Parallel()
		fresh := NewSession("src", "out")
		Profile{}.Apply(fresh)
		if fresh.BlockSize != DefaultBlockSize || fresh.DeepScan || fresh.MaxScanSize != 0 {
			t.Errorf("zero profile modified session: %+v", fresh)
		}
	})
}

// TestFindProfileFile verifies explicit-path resolution.
func TestFindProfileFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit existing path is returned", func(t *testing.T) {
		t.Parallel()
		path := writeProfile(t, "defaults: {}")
		if got := FindProfileFile(path); got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("explicit missing path returns empty", func(t *testing.T) {
		t.Parallel()
		if got := FindProfileFile(filepath.Join(t.TempDir(), "missing")); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})
}
