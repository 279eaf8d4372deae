package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bytecarve/bytecarve/internal/config"
)

//go:embed templates/bytecarve.yaml
var profileTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new bytecarve profile file",
		Long: `Init creates a new .bytecarve profile file in the current directory.

The generated file includes:
- Default settings for block size and deep scan
- Commented examples for per-source overrides
- Documentation for all available options

Examples:
  # Create .bytecarve in current directory
  bytecarve init

  # Create profile file at a specific path
  bytecarve init -o myprofile.yaml

  # Force overwrite existing file
  bytecarve init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultProfileFile,
		"Output file path for the profile")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing profile file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("profile file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := profileTemplate.ReadFile("templates/bytecarve.yaml")
	if err != nil {
		return fmt.Errorf("failed to read profile template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write profile file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created profile file: %s\n", outputPath)
	fmt.Fprintln(cmd.OutOrStdout(), "\nEdit this file to configure scan settings such as:")
	fmt.Fprintln(cmd.OutOrStdout(), "  - Format selection per source")
	fmt.Fprintln(cmd.OutOrStdout(), "  - Deep scan and block size")
	fmt.Fprintln(cmd.OutOrStdout(), "  - Scan size and time limits")

	return nil
}
