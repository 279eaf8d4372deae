package report

import (
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/bytecarve/bytecarve/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.ScanReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeFiles(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with session information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.ScanReport) {
	md.H1("Recovery Report")
	md.PlainText("")

	rows := [][]string{
		{"Source", "`" + report.Source + "`"},
		{"Output", "`" + report.OutputDir + "`"},
	}
	if report.SourceSize > 0 {
		rows = append(rows, []string{"Source Size", humanize.IBytes(uint64(report.SourceSize))})
	}
	if report.Stats != nil {
		rows = append(rows, []string{"Scan Date", report.Stats.StartTime.Format("2006-01-02 15:04:05 MST")})
	}
	rows = append(rows, []string{"Status", w.getStatusText(report)})

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.ScanReport) string {
	switch report.Outcome {
	case model.OutcomeTimedOut:
		return "⚠️ Timed Out (partial results kept)"
	case model.OutcomeInterrupted:
		return "⚠️ Interrupted (partial results kept)"
	case model.OutcomeFailed:
		return "❌ Failed"
	default:
		return "✅ Complete"
	}
}

// writeSummary writes the counter section with a per-format breakdown.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.ScanReport) {
	md.H2("Summary")
	md.PlainText("")

	stats := report.Stats
	if stats == nil {
		md.PlainText("No statistics recorded.")
		md.PlainText("")
		return
	}

	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Value"},
		Rows: [][]string{
			{"Recovered files", strconv.Itoa(stats.TotalRecovered)},
			{"False positives", strconv.Itoa(stats.FalsePositives)},
			{"Bytes scanned", humanize.IBytes(uint64(stats.BytesScanned))},
			{"Elapsed", report.Elapsed.String()},
		},
	})
	md.PlainText("")

	w.writeFormatBreakdown(md, stats)
	w.writeAlert(md, report)
}

// writeFormatBreakdown writes the nonzero per-format counts as a table
// and a pie chart.
func (w *MarkdownWriter) writeFormatBreakdown(md *markdown.Markdown, stats *model.Statistics) {
	tags := sortedFormats(stats.RecoveredByFormat, false)
	if len(tags) == 0 {
		return
	}

	rows := make([][]string, 0, len(tags))
	for _, tag := range tags {
		rows = append(rows, []string{tag, strconv.Itoa(stats.RecoveredByFormat[tag])})
	}

	md.H3("Recovered by Format")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Format", "Count"},
		Rows:   rows,
	})

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Recovered Format Distribution"),
		piechart.WithShowData(true),
	)
	for _, tag := range tags {
		chart.LabelAndIntValue(tag, uint64(stats.RecoveredByFormat[tag]))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the session outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.ScanReport) {
	switch {
	case report.Outcome == model.OutcomeFailed:
		md.Caution("The scan failed before completing. Results above may be empty or partial.")
	case report.Outcome == model.OutcomeInterrupted:
		md.Warning("The scan was interrupted. Files recovered before the interrupt are kept.")
	case report.Outcome == model.OutcomeTimedOut:
		md.Warningf(
			"The scan deadline fired before the source was exhausted. %d file(s) recovered from the scanned portion are kept.",
			report.Stats.TotalRecovered,
		)
	case report.Stats != nil && report.Stats.TotalRecovered > 0:
		md.Tipf("Recovered %d file(s) under `%s`.", report.Stats.TotalRecovered, report.OutputDir)
	default:
		md.Note("No recoverable files were found in the scanned range.")
	}
	md.PlainText("")
}

// writeFiles writes the recovered-file table in recovery order.
func (w *MarkdownWriter) writeFiles(md *markdown.Markdown, report *model.ScanReport) {
	md.H2("Recovered Files")
	md.PlainText("")

	if len(report.Files) == 0 {
		md.PlainText("No files recovered.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Files))
	for i, f := range report.Files {
		rows[i] = []string{
			f.Format,
			strconv.FormatInt(f.Offset, 10),
			humanize.IBytes(uint64(f.Length)),
			"`" + truncateString(f.Path, 60) + "`",
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Format", "Offset", "Size", "Path"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [bytecarve](https://github.com/bytecarve/bytecarve)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
