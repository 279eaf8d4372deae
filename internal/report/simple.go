package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/bytecarve/bytecarve/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether zero-count formats are listed.
	showEmpty bool

	// verbose enables the per-file listing in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to list formats with zero
// recoveries.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables the recovered-file listing.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.ScanReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeCounters(&sb, report)
	w.writeFormats(&sb, report)
	if w.verbose {
		w.writeFiles(&sb, report)
	}
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with session information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.ScanReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        RECOVERY REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Source:      %s\n", report.Source))
	sb.WriteString(fmt.Sprintf("Output:      %s\n", report.OutputDir))
	if report.SourceSize > 0 {
		sb.WriteString(fmt.Sprintf("Source Size: %s\n", humanize.IBytes(uint64(report.SourceSize))))
	}
	if report.Stats != nil {
		sb.WriteString(fmt.Sprintf("Started:     %s\n", report.Stats.StartTime.Format("2006-01-02 15:04:05 MST")))
	}
	sb.WriteString(fmt.Sprintf("Status:      %s\n", statusText(report)))
	sb.WriteString("\n")
}

// writeCounters writes the session counter section.
func (w *SimpleWriter) writeCounters(sb *strings.Builder, report *model.ScanReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	stats := report.Stats
	if stats == nil {
		sb.WriteString("  No statistics recorded\n\n")
		return
	}

	sb.WriteString(fmt.Sprintf("  Recovered:       %d file(s)\n", stats.TotalRecovered))
	sb.WriteString(fmt.Sprintf("  False positives: %d\n", stats.FalsePositives))
	sb.WriteString(fmt.Sprintf("  Bytes scanned:   %s\n", humanize.IBytes(uint64(stats.BytesScanned))))
	sb.WriteString(fmt.Sprintf("  Elapsed:         %s\n", report.Elapsed.Round(time.Millisecond)))
	sb.WriteString("\n")
}

// writeFormats writes the per-format recovery counts.
func (w *SimpleWriter) writeFormats(sb *strings.Builder, report *model.ScanReport) {
	if report.Stats == nil {
		return
	}

	tags := sortedFormats(report.Stats.RecoveredByFormat, w.showEmpty)
	if len(tags) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("RECOVERED BY FORMAT\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(tags) == 0 {
		sb.WriteString("  Nothing recovered\n")
	}
	for _, tag := range tags {
		sb.WriteString(fmt.Sprintf("  %-6s %d\n", tag+":", report.Stats.RecoveredByFormat[tag]))
	}
	sb.WriteString("\n")
}

// writeFiles writes the per-file listing in recovery order.
func (w *SimpleWriter) writeFiles(sb *strings.Builder, report *model.ScanReport) {
	if len(report.Files) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("RECOVERED FILES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, f := range report.Files {
		sb.WriteString(fmt.Sprintf("  * %s\n", f.Path))
		sb.WriteString(fmt.Sprintf("    Format: %s  Offset: %d  Size: %s\n",
			f.Format, f.Offset, humanize.IBytes(uint64(f.Length))))
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by bytecarve\n")
	sb.WriteString("https://github.com/bytecarve/bytecarve\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
