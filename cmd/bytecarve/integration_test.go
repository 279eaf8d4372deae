package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"

	"github.com/bytecarve/bytecarve/internal/config"
	"github.com/bytecarve/bytecarve/internal/signature"
)

// carveImage builds a synthetic disk image carrying one complete PNG and
// returns its path together with the embedded PNG bytes.
func carveImage(t *testing.T) (string, []byte) {
	t.Helper()

	png, err := signature.Lookup("png")
	if err != nil {
		t.Fatalf("failed to look up png spec: %v", err)
	}

	image := make([]byte, 16*1024)
	for i := range image {
		image[i] = byte(i % 251)
	}
	copy(image[1024:], png.Magics[0])
	copy(image[9000:], png.Trailer)
	embedded := append([]byte(nil), image[1024:9000+len(png.Trailer)]...)

	path := filepath.Join(t.TempDir(), "usb.dd")
	if err := os.WriteFile(path, image, 0o600); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
	return path, embedded
}

// TestScanEndToEnd drives the whole pipeline through the CLI: flag
// parsing, profile defaults, scanning, carving, report output, and
// manifest persistence.
// Not parallel: it rewires the XDG data directory.
func TestScanEndToEnd(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	xdg.Reload()
	t.Cleanup(xdg.Reload)

	image, embedded := carveImage(t)
	outDir := filepath.Join(t.TempDir(), "recovered")
	reportFile := filepath.Join(t.TempDir(), "report.json")

	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{
		"scan",
		"--quiet",
		"-o", outDir,
		"--deep",
		"--types", "png",
		"--json",
		"--report-file", reportFile,
		image,
	})

	if err := root.Execute(); err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	// Exactly one PNG, byte-identical to the embedded span.
	entries, err := os.ReadDir(filepath.Join(outDir, "png"))
	if err != nil {
		t.Fatalf("failed to list recovered files: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one recovered png, got %d", len(entries))
	}
	got, err := os.ReadFile(filepath.Join(outDir, "png", entries[0].Name()))
	if err != nil {
		t.Fatalf("failed to read recovered file: %v", err)
	}
	if !bytes.Equal(got, embedded) {
		t.Error("recovered file differs from embedded data")
	}

	// JSON report written to the requested file.
	reportData, err := os.ReadFile(reportFile)
	if err != nil {
		t.Fatalf("failed to read report file: %v", err)
	}
	if !strings.Contains(string(reportData), `"outcome": "completed"`) {
		t.Errorf("expected completed outcome in report, got %s", reportData)
	}

	// Session recorded in the manifest.
	if _, err := os.Stat(filepath.Join(config.XDGDataDir(), "bytecarve.db")); err != nil {
		t.Errorf("expected manifest database: %v", err)
	}
}

// TestScanEndToEndFailure verifies a missing source surfaces as a
// non-nil command error.
func TestScanEndToEndFailure(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	xdg.Reload()
	t.Cleanup(xdg.Reload)

	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{
		"scan",
		"--quiet",
		"-o", filepath.Join(t.TempDir(), "out"),
		filepath.Join(t.TempDir(), "no-such-image.dd"),
	})

	if err := root.Execute(); err == nil {
		t.Fatal("expected error for missing source")
	}
}
