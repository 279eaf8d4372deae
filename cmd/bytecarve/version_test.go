package main

import (
	"bytes"
	"strings"
	"testing"
)

// TestResolveBuildMetadata verifies that every field resolves to a
// non-empty value regardless of how the binary was built.
func TestResolveBuildMetadata(t *testing.T) {
	t.Parallel()

	meta := resolveBuildMetadata()
	if meta.version == "" {
		t.Error("version resolved to an empty string")
	}
	if meta.commit == "" {
		t.Error("commit resolved to an empty string")
	}
	if meta.date == "" {
		t.Error("date resolved to an empty string")
	}
	if got := getVersion(); got != meta.version {
		t.Errorf("getVersion() = %q, want %q", got, meta.version)
	}
}

// TestBuildMetadataWithDefaults verifies blank fields are filled and set
// fields left alone.
func TestBuildMetadataWithDefaults(t *testing.T) {
	t.Parallel()

	t.Run("blank fields get placeholders", func(t *testing.T) {
		t.Parallel()
		meta := buildMetadata{}.withDefaults()
		if meta.version != "(devel)" {
			t.Errorf("version = %q, want %q", meta.version, "(devel)")
		}
		if meta.commit != "unknown" {
			t.Errorf("commit = %q, want %q", meta.commit, "unknown")
		}
		if meta.date != "unknown" {
			t.Errorf("date = %q, want %q", meta.date, "unknown")
		}
	})

	t.Run("stamped fields survive", func(t *testing.T) {
		t.Parallel()
		stamped := buildMetadata{version: "v1.2.3", commit: "abc1234", date: "2026-01-01"}
		if got := stamped.withDefaults(); got != stamped {
			t.Errorf("withDefaults() = %+v, want %+v", got, stamped)
		}
	})
}

func TestNewVersionCmd(t *testing.T) {
	t.Parallel()

	cmd := NewVersionCmd()

	t.Run("command has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "version" {
			t.Errorf("expected Use to be 'version', got %q", cmd.Use)
		}
	})

	t.Run("command has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected Short to be non-empty")
		}
	})

	t.Run("command outputs the build identity", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		cmd := NewVersionCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.HasPrefix(output, "bytecarve ") {
			t.Errorf("expected output to start with the binary name, got %q", output)
		}
		for _, want := range []string{"commit ", "built ", "go1"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got %q", want, output)
			}
		}
	})
}
