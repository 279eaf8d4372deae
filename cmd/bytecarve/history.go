package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bytecarve/bytecarve/internal/config"
	"github.com/bytecarve/bytecarve/internal/manifest"
)

// NewHistoryCmd creates the history command.
// This command lists past scan sessions stored in the manifest.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [source]",
		Short: "List past scan sessions from the manifest",
		Long: `History lists the scan sessions recorded in the manifest database,
newest first. With a source argument, only that source's sessions are
shown.

Examples:
  # List every recorded session
  bytecarve history

  # List sessions for one source
  bytecarve history /dev/sdb1

  # Show the files one session recovered
  bytecarve history --files 3

  # Output history as JSON
  bytecarve history --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().Int64("files", 0,
		"Show the recovered files of the session with the given ID")
	cmd.Flags().BoolP("json", "j", false,
		"Output history in JSON format")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	db, err := manifest.Open(config.XDGDataDir(), manifest.Options{
		CreateIfNotExists: false,
		EnableWAL:         true,
	})
	if err != nil {
		return fmt.Errorf("no scan history recorded yet: %w", err)
	}
	defer db.Close()

	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	fileSession, err := cmd.Flags().GetInt64("files")
	if err != nil {
		return err
	}
	if fileSession > 0 {
		return showSessionFiles(cmd, db, fileSession, asJSON)
	}

	source := ""
	if len(args) > 0 {
		source = args[0]
	}

	sessions, err := db.History(cmd.Context(), source)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded.")
		return nil
	}

	if asJSON {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(sessions)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSOURCE\tOUTCOME\tRECOVERED\tFALSE+\tSCANNED\tSTARTED\tELAPSED")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
			s.ID,
			s.Source,
			s.Outcome,
			s.TotalRecovered,
			s.FalsePositives,
			humanize.IBytes(uint64(s.BytesScanned)),
			s.StartedAt.Format("2006-01-02 15:04"),
			s.Elapsed.Round(time.Millisecond),
		)
	}
	return tw.Flush()
}

// showSessionFiles prints the recovered files of one stored session.
func showSessionFiles(cmd *cobra.Command, db *manifest.Manifest, sessionID int64, asJSON bool) error {
	files, err := db.SessionFiles(cmd.Context(), sessionID)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No files recorded for session %d.\n", sessionID)
		return nil
	}

	if asJSON {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(files)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FORMAT\tOFFSET\tSIZE\tPATH")
	for _, f := range files {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n",
			f.Format,
			f.Offset,
			humanize.IBytes(uint64(f.Length)),
			f.Path,
		)
	}
	return tw.Flush()
}
