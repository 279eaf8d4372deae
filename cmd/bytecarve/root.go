// Package main provides the entry point for the bytecarve CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for bytecarve.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bytecarve",
		Short: "Signature-based file recovery from disk images and block devices",
		Long: `bytecarve recovers deleted files from disk images and block devices.

It sweeps the raw bytes of a source in fixed-size blocks, looking for the
start signatures of known file formats, and carves matching candidates out
to per-format directories. No filesystem metadata is needed: carving works
on corrupted, reformatted, or partially overwritten media.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Log errors only")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewFormatsCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
