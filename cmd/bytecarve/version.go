package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Release metadata stamped by the release pipeline via ldflags. All three
// stay empty for plain `go build`; buildMetadata then falls back to the
// module's embedded build info.
var (
	version = ""
	commit  = ""
	date    = ""
)

// buildMetadata is the resolved identity of this binary.
type buildMetadata struct {
	version string
	commit  string
	date    string
}

// resolveBuildMetadata merges the ldflags values with whatever the Go
// toolchain recorded in the binary. Stamped values always win; the
// recorded VCS revision is shortened to the conventional 7 characters.
func resolveBuildMetadata() buildMetadata {
	meta := buildMetadata{
		version: version,
		commit:  commit,
		date:    date,
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return meta.withDefaults()
	}

	if meta.version == "" {
		meta.version = info.Main.Version
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if meta.commit == "" {
				meta.commit = setting.Value
				if len(meta.commit) > 7 {
					meta.commit = meta.commit[:7]
				}
			}
		case "vcs.time":
			if meta.date == "" {
				meta.date = setting.Value
			}
		}
	}
	return meta.withDefaults()
}

// withDefaults fills any field the build left blank.
func (m buildMetadata) withDefaults() buildMetadata {
	if m.version == "" {
		m.version = "(devel)"
	}
	if m.commit == "" {
		m.commit = "unknown"
	}
	if m.date == "" {
		m.date = "unknown"
	}
	return m
}

// getVersion returns the resolved version string. It is also embedded in
// JSON report envelopes so a report records which binary produced it.
func getVersion() string {
	return resolveBuildMetadata().version
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the bytecarve build identity",
		Long:  `Show the bytecarve version together with the commit, build timestamp, and Go runtime it was built from.`,
		Run: func(cmd *cobra.Command, _ []string) {
			meta := resolveBuildMetadata()
			fmt.Fprintf(cmd.OutOrStdout(), "bytecarve %s (commit %s, built %s, %s)\n",
				meta.version, meta.commit, meta.date, runtime.Version())
		},
	}
}
