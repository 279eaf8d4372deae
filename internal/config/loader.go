package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultProfileFile is the default profile file name.
const DefaultProfileFile = ".bytecarve"

// ErrProfileNotFound is returned when the profile file does not exist.
var ErrProfileNotFound = errors.New("profile file not found")

// Profile holds scan options loadable from the profile file. Zero values
// mean "not set" and are skipped during merging, so a per-source profile
// only overrides what it names.
type Profile struct {
	// Formats selects a subset of catalog tags.
	Formats []string `yaml:"formats"`

	// BlockSize overrides the sweep window in bytes.
	BlockSize int `yaml:"block_size"`

	// DeepScan enables trailer-bounded extraction.
	DeepScan bool `yaml:"deep_scan"`

	// MaxScanMiB caps the scanned range, in MiB.
	MaxScanMiB int64 `yaml:"max_scan_mib"`

	// TimeoutMinutes sets the sweep deadline, in minutes.
	TimeoutMinutes int `yaml:"timeout_minutes"`
}

// File is the parsed profile file: global defaults plus per-source
// overrides keyed by source path.
type File struct {
	// Defaults applies to every source not listed under Sources.
	Defaults Profile `yaml:"defaults"`

	// Sources maps source paths to their override profiles.
	Sources map[string]Profile `yaml:"sources"`
}

// LoadProfileFile loads scan profiles from a YAML file.
// If the file does not exist, it returns ErrProfileNotFound. Callers
// should handle this error based on whether the path was explicitly
// specified by the user.
func LoadProfileFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided profile path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	if f.Sources == nil {
		f.Sources = make(map[string]Profile)
	}
	return &f, nil
}

// FindProfileFile searches for the profile file in the following order:
// 1. If profilePath is specified, use it directly
// 2. Look for .bytecarve in the current directory
// 3. Look for .bytecarve in the user's home directory
//
// Returns the path to the profile file if found, or empty string if not.
func FindProfileFile(profilePath string) string {
	if profilePath != "" {
		if _, err := os.Stat(profilePath); err == nil {
			return profilePath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdProfile := filepath.Join(cwd, DefaultProfileFile)
		if _, err := os.Stat(cwdProfile); err == nil {
			return cwdProfile
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeProfile := filepath.Join(home, DefaultProfileFile)
		if _, err := os.Stat(homeProfile); err == nil {
			return homeProfile
		}
	}

	return ""
}

// ProfileFor returns the effective profile for a source path: the file's
// defaults overlaid with the source-specific profile, field by field.
func (f *File) ProfileFor(src string) Profile {
	result := f.Defaults
	override, ok := f.Sources[src]
	if !ok {
		return result
	}

	if len(override.Formats) > 0 {
		result.Formats = override.Formats
	}
	if override.BlockSize > 0 {
		result.BlockSize = override.BlockSize
	}
	if override.DeepScan {
		result.DeepScan = true
	}
	if override.MaxScanMiB > 0 {
		result.MaxScanMiB = override.MaxScanMiB
	}
	if override.TimeoutMinutes > 0 {
		result.TimeoutMinutes = override.TimeoutMinutes
	}
	return result
}

// Apply overlays the profile onto a session, field by field. Flags set on
// the session by the user keep precedence at the CLI layer; Apply only
// fills fields the profile names.
func (p Profile) Apply(s *Session) {
	if len(p.Formats) > 0 {
		s.Formats = p.Formats
	}
	if p.BlockSize > 0 {
		s.BlockSize = p.BlockSize
	}
	if p.DeepScan {
		s.DeepScan = true
	}
	if p.MaxScanMiB > 0 {
		s.MaxScanSize = p.MaxScanMiB * 1024 * 1024
	}
	if p.TimeoutMinutes > 0 {
		s.Timeout = time.Duration(p.TimeoutMinutes) * time.Minute
	}
}
