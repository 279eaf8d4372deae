package carve

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/bytecarve/bytecarve/internal/signature"
	"github.com/bytecarve/bytecarve/internal/source"
)

// discardLogger returns a logger that swallows everything.
func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// newTestSource writes content into a temp file and opens it as a Source.
func newTestSource(t *testing.T, content []byte) *source.Source {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.bin")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	src, err := source.Open(path, source.WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("failed to open fixture: %v", err)
	}
	t.Cleanup(func() { _ = src.Close() })
	return src
}

// mustLookup resolves a catalog tag or fails the test.
func mustLookup(t *testing.T, tag string) signature.Spec {
	t.Helper()
	spec, err := signature.Lookup(tag)
	if err != nil {
		t.Fatalf("lookup %s: %v", tag, err)
	}
	return spec
}

// fill returns n deterministic non-repeating bytes that contain none of
// the cataloged magic or trailer sequences (a strictly increasing byte
// ramp cannot contain them).
func fill(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

// TestExtractTrailerBounded covers the deep-scan strategy.
func TestExtractTrailerBounded(t *testing.T) {
	t.Parallel()

	png := mustLookup(t, "png")

	t.Run("candidate truncated immediately after trailer", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		buf.Write(png.Magics[0])
		buf.Write(fill(500))
		buf.Write(png.Trailer)
		buf.Write(fill(300)) // trailing garbage that must not be included
		want := buf.Bytes()[:8+500+len(png.Trailer)]

		src := newTestSource(t, buf.Bytes())
		e := NewExtractor(src, true, discardLogger())

		got := e.Extract(png, 0, png.MaxSize)
		if !bytes.Equal(got, want) {
			t.Errorf("expected %d bytes ending at trailer, got %d", len(want), len(got))
		}
	})

	t.Run("trailer split across chunk seam is found", func(t *testing.T) {
		t.Parallel()

		// Place the trailer so it straddles the 4096-byte chunk
		// boundary: first half in chunk one, second half in chunk two.
		lead := chunkSize - len(png.Trailer)/2
		var buf bytes.Buffer
		buf.Write(fill(lead))
		buf.Write(png.Trailer)
		buf.Write(fill(600))

		src := newTestSource(t, buf.Bytes())
		e := NewExtractor(src, true, discardLogger())

		got := e.Extract(png, 0, png.MaxSize)
		wantLen := lead + len(png.Trailer)
		if len(got) != wantLen {
			t.Errorf("expected %d bytes (trailer across seam), got %d", wantLen, len(got))
		}
	})

	t.Run("no trailer returns partial buffer above the floor", func(t *testing.T) {
		t.Parallel()

		src := newTestSource(t, fill(5000))
		e := NewExtractor(src, true, discardLogger())

		got := e.Extract(png, 0, png.MaxSize)
		if len(got) != 5000 {
			t.Errorf("expected the whole 5000-byte partial buffer, got %d", len(got))
		}
	})

	t.Run("no trailer and under the floor returns no candidate", func(t *testing.T) {
		t.Parallel()

		src := newTestSource(t, fill(80))
		e := NewExtractor(src, true, discardLogger())

		if got := e.Extract(png, 0, png.MaxSize); got != nil {
			t.Errorf("expected no candidate, got %d bytes", len(got))
		}
	})

	t.Run("length never exceeds the maximum", func(t *testing.T) {
		t.Parallel()

		src := newTestSource(t, fill(20000))
		e := NewExtractor(src, true, discardLogger())

		got := e.Extract(png, 0, 10000)
		if int64(len(got)) > 10000 {
			t.Errorf("candidate length %d exceeds maximum 10000", len(got))
		}
	})
}

// TestExtractHeuristic covers the heuristic strategy.
func TestExtractHeuristic(t *testing.T) {
	t.Parallel()

	t.Run("container probe without marker aborts immediately", func(t *testing.T) {
		t.Parallel()

		zip := mustLookup(t, "zip")
		var buf bytes.Buffer
		buf.Write(zip.Magics[0])
		buf.Write(bytes.Repeat([]byte{0xAA}, 32*1024)) // no PK\x01\x02 anywhere

		src := newTestSource(t, buf.Bytes())
		e := NewExtractor(src, false, discardLogger())

		if got := e.Extract(zip, 0, zip.MaxSize); got != nil {
			t.Errorf("expected probe rejection, got %d bytes", len(got))
		}
	})

	t.Run("container probe with marker extracts", func(t *testing.T) {
		t.Parallel()

		zip := mustLookup(t, "zip")
		var buf bytes.Buffer
		buf.Write(zip.Magics[0])
		buf.Write(bytes.Repeat([]byte("PK data "), 512)) // marker-dense body
		buf.Write([]byte{0x50, 0x4B, 0x01, 0x02})

		src := newTestSource(t, buf.Bytes())
		e := NewExtractor(src, false, discardLogger())

		got := e.Extract(zip, 0, zip.MaxSize)
		if len(got) < MinCandidateSize {
			t.Errorf("expected viable candidate, got %d bytes", len(got))
		}
	})

	t.Run("binary format reads to end of source", func(t *testing.T) {
		t.Parallel()

		mp3 := mustLookup(t, "mp3")
		content := append([]byte("ID3"), fill(9000)...)

		src := newTestSource(t, content)
		e := NewExtractor(src, false, discardLogger())

		got := e.Extract(mp3, 0, mp3.MaxSize)
		if len(got) != len(content) {
			t.Errorf("expected %d bytes, got %d", len(content), len(got))
		}
	})

	t.Run("binary format capped at maximum length", func(t *testing.T) {
		t.Parallel()

		mp3 := mustLookup(t, "mp3")
		src := newTestSource(t, fill(50000))
		e := NewExtractor(src, false, discardLogger())

		got := e.Extract(mp3, 0, 8192)
		if int64(len(got)) > 8192 {
			t.Errorf("candidate length %d exceeds maximum 8192", len(got))
		}
	})

	t.Run("text-leaning format trimmed after invalid chunks", func(t *testing.T) {
		t.Parallel()

		// A non-binary spec exercises the printable-ratio path: a
		// printable head followed by enough binary chunks to cross the
		// invalid limit.
		textSpec := signature.Spec{
			Tag:       "txt",
			Extension: "txt",
			Magics:    [][]byte{[]byte("HDR!")},
			MaxSize:   signature.DefaultMaxSize,
		}

		var buf bytes.Buffer
		buf.Write(bytes.Repeat([]byte("printable text content. "), 512)) // ~12 KiB printable
		buf.Write(bytes.Repeat([]byte{0x00, 0xFF, 0x01, 0xFE}, 8*1024))  // 32 KiB binary

		src := newTestSource(t, buf.Bytes())
		e := NewExtractor(src, false, discardLogger())

		got := e.Extract(textSpec, 0, textSpec.MaxSize)
		if len(got) == 0 {
			t.Fatal("expected a trimmed candidate, got none")
		}
		if len(got) >= buf.Len() {
			t.Errorf("expected trailing binary region trimmed, got %d of %d bytes", len(got), buf.Len())
		}
	})

	t.Run("end of source returns no candidate", func(t *testing.T) {
		t.Parallel()

		mp3 := mustLookup(t, "mp3")
		src := newTestSource(t, fill(64))
		e := NewExtractor(src, false, discardLogger())

		if got := e.Extract(mp3, 64, mp3.MaxSize); got != nil {
			t.Errorf("expected no candidate at end of source, got %d bytes", len(got))
		}
	})
}

// TestExtractRestoresCursor verifies the sweep position invariant: the
// cursor is restored after every extraction attempt.
func TestExtractRestoresCursor(t *testing.T) {
	t.Parallel()

	png := mustLookup(t, "png")
	src := newTestSource(t, fill(10000))

	if _, err := src.Seek(512, io.SeekStart); err != nil {
		t.Fatalf("seek failed: %v", err)
	}

	e := NewExtractor(src, true, discardLogger())
	_ = e.Extract(png, 2048, png.MaxSize)

	pos, err := src.Tell()
	if err != nil {
		t.Fatalf("tell failed: %v", err)
	}
	if pos != 512 {
		t.Errorf("expected cursor restored to 512, got %d", pos)
	}
}
