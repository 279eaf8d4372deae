package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bytecarve/bytecarve/internal/carve"
	"github.com/bytecarve/bytecarve/internal/config"
	"github.com/bytecarve/bytecarve/internal/log"
	"github.com/bytecarve/bytecarve/internal/manifest"
	"github.com/bytecarve/bytecarve/internal/model"
	"github.com/bytecarve/bytecarve/internal/report"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [source]...",
		Short: "Carve recoverable files out of a disk image or block device",
		Long: `Scan sweeps a raw source block by block looking for file signatures and
carves matching candidates into per-format directories under the output
root.

Sources are read strictly sequentially and never written. Recovered files
are named <format>_<offset>_<timestamp>_<nonce>.<ext>, so re-running a
scan never clobbers earlier results.

Examples:
  # Recover everything the catalog knows from a disk image
  bytecarve scan -o recovered/ image.dd

  # Restrict to photos, with trailer-bounded (deep) extraction
  bytecarve scan -o recovered/ --deep --types jpg,png,gif image.dd

  # Stop after the first 512 MiB and at most 30 minutes
  bytecarve scan -o recovered/ --max-size 512 --timeout 30 /dev/sdb1

  # Scan several images concurrently
  bytecarve scan -o recovered/ --batch 2 usb1.dd usb2.dd

  # Use a scan profile
  bytecarve scan -o recovered/ -c myprofile.yaml image.dd

Profile file (.bytecarve) example:
  defaults:
    block_size: 512
    deep_scan: true
  sources:
    /dev/sdb1:
      formats: [jpg, png]
      max_scan_mib: 1024`,
		Args: cobra.MinimumNArgs(1),
		RunE: runScanCmd,
	}

	// Scan behavior flags
	cmd.Flags().StringP("output", "o", "",
		"Output directory for recovered files (required)")
	cmd.Flags().StringP("types", "t", "",
		"Comma-separated format tags to recover (default: all formats)")
	cmd.Flags().IntP("block-size", "b", config.DefaultBlockSize,
		"Scan block size in bytes")
	cmd.Flags().BoolP("deep", "d", false,
		"Enable trailer-bounded extraction for formats with a trailer")
	cmd.Flags().Bool("no-skip", false,
		"Overwrite recovered files whose output path already exists")
	cmd.Flags().Int64("max-size", 0,
		"Maximum number of MiB to scan from the start of the source (0 = all)")
	cmd.Flags().IntP("timeout", "T", 0,
		"Scan deadline in minutes (0 = none)")

	// Batch scanning flags
	cmd.Flags().Int("batch", 1,
		"Number of concurrent scans when several sources are given")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Profile file path (default: .bytecarve in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().String("report-file", "",
		"Write the report to the specified file path instead of stdout")

	// Logging flags
	cmd.Flags().String("log-file", "",
		"Append a copy of the diagnostic log to the specified file")

	return cmd
}

// reportOptions holds the output-side settings shared by every session of
// one invocation.
type reportOptions struct {
	json       bool
	markdown   bool
	reportFile string
	batch      int

	// multiSource marks an invocation with more than one source. Report
	// files are then written per source so a later session cannot
	// overwrite an earlier session's report.
	multiSource bool
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	sessions, opts, err := buildSessions(cmd, args)
	if err != nil {
		return err
	}

	if opts.json && opts.markdown {
		return config.ErrConflictingReportFormats
	}

	for _, s := range sessions {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
	}

	logger, closeLog, err := setupLogger(cmd, sessions[0].LogFile)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received interrupt, stopping at the next block boundary...")
		cancel()
	}()

	return runScan(ctx, sessions, opts, logger)
}

// buildSessions creates one Session per source argument from cobra
// command flags and the profile file.
func buildSessions(cmd *cobra.Command, args []string) ([]*config.Session, *reportOptions, error) {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return nil, nil, err
	}
	if output == "" {
		return nil, nil, config.ErrNoOutputDir
	}

	// Load scan profiles from the profile file.
	// If the user explicitly specified a path, error if not found.
	// If no path was specified, silently use an empty profile set.
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, err
	}
	explicitConfigPath := configPath != ""
	profilePath := config.FindProfileFile(configPath)

	var profiles *config.File
	if profilePath != "" {
		profiles, err = config.LoadProfileFile(profilePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load profile file %s: %w", profilePath, err)
		}
	} else if explicitConfigPath {
		return nil, nil, fmt.Errorf("%w: %s", config.ErrProfileNotFound, configPath)
	} else {
		profiles = &config.File{Sources: make(map[string]config.Profile)}
	}

	opts := &reportOptions{}
	if opts.json, err = cmd.Flags().GetBool("json"); err != nil {
		return nil, nil, err
	}
	if opts.markdown, err = cmd.Flags().GetBool("markdown"); err != nil {
		return nil, nil, err
	}
	if opts.reportFile, err = cmd.Flags().GetString("report-file"); err != nil {
		return nil, nil, err
	}
	if opts.batch, err = cmd.Flags().GetInt("batch"); err != nil {
		return nil, nil, err
	}
	opts.multiSource = len(args) > 1

	sessions := make([]*config.Session, 0, len(args))
	for _, src := range args {
		s, err := buildSession(cmd, src, output, len(args) > 1, profiles)
		if err != nil {
			return nil, nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, opts, nil
}

// buildSession creates one Session: profile values first, then explicit
// flags on top.
func buildSession(cmd *cobra.Command, src, output string, multi bool, profiles *config.File) (*config.Session, error) {
	// With several sources, each gets its own subtree so their
	// per-format directories stay apart.
	outputDir := output
	if multi {
		outputDir = filepath.Join(output, filepath.Base(src))
	}

	s := config.NewSession(src, outputDir)
	profiles.ProfileFor(src).Apply(s)

	var err error
	if cmd.Flags().Changed("types") {
		var types string
		if types, err = cmd.Flags().GetString("types"); err != nil {
			return nil, err
		}
		s.Formats = splitTypes(types)
	}
	if cmd.Flags().Changed("block-size") {
		if s.BlockSize, err = cmd.Flags().GetInt("block-size"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("deep") {
		if s.DeepScan, err = cmd.Flags().GetBool("deep"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("max-size") {
		var mib int64
		if mib, err = cmd.Flags().GetInt64("max-size"); err != nil {
			return nil, err
		}
		s.MaxScanSize = mib * 1024 * 1024
	}
	if cmd.Flags().Changed("timeout") {
		var minutes int
		if minutes, err = cmd.Flags().GetInt("timeout"); err != nil {
			return nil, err
		}
		s.Timeout = time.Duration(minutes) * time.Minute
	}

	noSkip, err := cmd.Flags().GetBool("no-skip")
	if err != nil {
		return nil, err
	}
	s.SkipExisting = !noSkip

	if s.LogFile, err = cmd.Flags().GetString("log-file"); err != nil {
		return nil, err
	}

	return s, nil
}

// splitTypes parses the comma-separated --types value into format tags.
func splitTypes(types string) []string {
	var tags []string
	for _, t := range strings.Split(types, ",") {
		t = strings.TrimSpace(strings.ToLower(t))
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// setupLogger creates a structured logger based on verbosity flags and
// the optional log file. The returned closer releases the log file.
func setupLogger(cmd *cobra.Command, logFile string) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if verbose, err := cmd.Flags().GetBool("verbose"); err == nil && verbose {
		level = slog.LevelDebug
	}
	if quiet, err := cmd.Flags().GetBool("quiet"); err == nil && quiet {
		level = slog.LevelError
	}

	var w io.Writer = os.Stderr
	closer := func() {}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) //nolint:gosec // User-provided log path is intentional
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, f)
		closer = func() { _ = f.Close() }
	}

	return log.NewLogger(w, level), closer, nil
}

// runScan executes all sessions and renders their reports.
func runScan(ctx context.Context, sessions []*config.Session, opts *reportOptions, logger *slog.Logger) error {
	logger.Info("starting recovery",
		"sources", len(sessions),
		"batch", opts.batch,
	)

	// The manifest is best-effort: scan results are never lost to a
	// storage problem, they just go unrecorded.
	var db *manifest.Manifest
	db, err := manifest.Open(config.XDGDataDir(), manifest.DefaultOptions())
	if err != nil {
		logger.Warn("manifest unavailable, history will not be recorded", "error", err)
		db = nil
	} else {
		defer db.Close()
		logger.Info("manifest opened", "dir", config.XDGDataDir())
	}

	var failed int
	if len(sessions) > 1 && opts.batch > 1 {
		failed, err = runBatchScan(ctx, sessions, opts, db, logger)
	} else {
		failed, err = runSequentialScan(ctx, sessions, opts, db, logger)
	}
	if err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("recovery incomplete: %d of %d session(s) failed", failed, len(sessions))
	}
	return nil
}

// runSequentialScan scans sources one at a time and returns the number of
// failed sessions.
func runSequentialScan(ctx context.Context, sessions []*config.Session, opts *reportOptions, db *manifest.Manifest, logger *slog.Logger) (int, error) {
	var failed int
	for _, session := range sessions {
		select {
		case <-ctx.Done():
			return failed + 1, ctx.Err()
		default:
		}

		fmt.Printf("Scanning %s...\n", session.Source)

		scanner := carve.NewScanner(session, carve.WithLogger(logger))
		scanReport, err := scanner.Scan(ctx)
		if err != nil {
			logger.Error("scan failed", "source", session.Source, "error", err)
			fmt.Fprintf(os.Stderr, "Scan error for %s: %v\n", session.Source, err)
		}
		if !scanReport.Succeeded() {
			failed++
		}

		if err := outputReport(opts, scanReport); err != nil {
			logger.Error("report failed", "source", session.Source, "error", err)
		}
		if err := saveReport(ctx, db, scanReport, logger); err != nil {
			logger.Error("failed to save scan report", "source", session.Source, "error", err)
		}
	}
	return failed, nil
}

// runBatchScan scans multiple sources concurrently and returns the number
// of failed sessions.
func runBatchScan(ctx context.Context, sessions []*config.Session, opts *reportOptions, db *manifest.Manifest, logger *slog.Logger) (int, error) {
	fmt.Printf("Starting batch recovery of %d sources (concurrency: %d)...\n\n",
		len(sessions), opts.batch)

	startTime := time.Now()

	runner := carve.NewRunner(
		carve.WithConcurrency(opts.batch),
		carve.WithRunnerLogger(logger),
	)

	var mu sync.Mutex
	var failed int
	err := runner.Run(ctx, sessions, func(scanReport *model.ScanReport, index int) {
		mu.Lock()
		defer mu.Unlock()

		fmt.Printf("[%d/%d] Scan finished: %s\n", index+1, len(sessions), scanReport.Source)
		if !scanReport.Succeeded() {
			failed++
		}

		if err := outputReport(opts, scanReport); err != nil {
			logger.Error("report failed", "source", scanReport.Source, "error", err)
		}
		if err := saveReport(ctx, db, scanReport, logger); err != nil {
			logger.Error("failed to save scan report", "source", scanReport.Source, "error", err)
		}
	})

	fmt.Printf("\nBatch recovery completed in %s\n", time.Since(startTime).Round(time.Millisecond))

	return failed, err
}

// reportFilePath resolves the report destination for one session. A
// single-source invocation writes to the path as given; a multi-source
// one inserts the source's base name before the extension so each session
// keeps its own report.
func reportFilePath(opts *reportOptions, src string) string {
	if !opts.multiSource {
		return opts.reportFile
	}
	ext := filepath.Ext(opts.reportFile)
	return strings.TrimSuffix(opts.reportFile, ext) + "_" + filepath.Base(src) + ext
}

// outputReport renders the scan report in the requested format.
func outputReport(opts *reportOptions, scanReport *model.ScanReport) error {
	var output *os.File
	if opts.reportFile != "" {
		path := reportFilePath(opts, scanReport.Source)
		dir := filepath.Dir(path)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Recovered data paths may be sensitive; keep reports owner-only.
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided report path is intentional
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case opts.json:
		writer = report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case opts.markdown:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output)
	}

	_, err := writer.Write(scanReport)
	return err
}

// saveReport persists the report to the manifest if one is open.
// If db is nil, this function is a no-op.
func saveReport(ctx context.Context, db *manifest.Manifest, scanReport *model.ScanReport, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	id, err := db.SaveReport(ctx, scanReport)
	if err != nil {
		return fmt.Errorf("failed to save scan report: %w", err)
	}

	logger.Info("scan report saved to manifest", "source", scanReport.Source, "session", id)
	return nil
}
