package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/serpscan/internal/model"
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

	// verbose enables the identity listing per query.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with the identities found per query.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run report in human-readable format.
func (w *SimpleWriter) Write(report *model.RunReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeQueries(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         SERPSCAN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Run Started:  %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Run Finished: %s\n", report.FinishedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:     %s\n", report.Duration().Round(time.Millisecond)))
	sb.WriteString(fmt.Sprintf("Queries:      %d\n", len(report.Queries)))

	sb.WriteString("\n")
}

// writeSummary writes the outcome summary section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("OUTCOME SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  EXHAUSTED: %d\n", report.CountByOutcome(model.OutcomeExhausted)))
	sb.WriteString(fmt.Sprintf("  BLOCKED:   %d\n", report.CountByOutcome(model.OutcomeBlocked)))
	sb.WriteString(fmt.Sprintf("  ABORTED:   %d\n", report.CountByOutcome(model.OutcomeAborted)))
	if n := report.CountByOutcome(model.OutcomeUnknown); n > 0 {
		sb.WriteString(fmt.Sprintf("  UNKNOWN:   %d\n", n))
	}
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("  RECORDS:   %d extracted, %d unique identities\n",
		report.TotalRecords(), len(report.UniqueIdentities())))
	sb.WriteString("\n")
}

// writeQueries writes the per-query result section.
func (w *SimpleWriter) writeQueries(sb *strings.Builder, report *model.RunReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("QUERIES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(report.Queries) == 0 {
		sb.WriteString("  No queries executed\n\n")
		return
	}

	for _, q := range report.Queries {
		if q == nil {
			continue
		}

		sb.WriteString(fmt.Sprintf("  [%s] %q\n", q.Outcome.String(), q.Query))
		sb.WriteString(fmt.Sprintf("      pages: %d  records: %d  challenges: %d resolved, %d unresolved\n",
			q.PagesVisited, len(q.Records), q.ChallengesResolved, q.ChallengesUnresolved))
		if q.Error != "" {
			sb.WriteString(fmt.Sprintf("      error: %s\n", q.Error))
		}

		if w.verbose {
			for _, rec := range q.Records {
				sb.WriteString(fmt.Sprintf("        - %s\n", rec.Identity))
			}
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by serpscan\n")
	sb.WriteString("https://github.com/nao1215/serpscan\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
