package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/serpscan/internal/model"
)

// MarkdownWriter outputs run reports in Markdown format.
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

// Write outputs the run report in Markdown format.
func (w *MarkdownWriter) Write(report *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeQueries(md, report)
	w.writeRecords(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.RunReport) {
	md.H1("Serpscan Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Run Finished", report.FinishedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration().Round(time.Millisecond).String()},
			{"Queries", strconv.Itoa(len(report.Queries))},
			{"Records", strconv.Itoa(report.TotalRecords())},
			{"Unique Identities", strconv.Itoa(len(report.UniqueIdentities()))},
		},
	})
	md.PlainText("")
}

// writeSummary writes the outcome summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Outcome Summary")
	md.PlainText("")

	exhausted := report.CountByOutcome(model.OutcomeExhausted)
	blocked := report.CountByOutcome(model.OutcomeBlocked)
	aborted := report.CountByOutcome(model.OutcomeAborted)
	unknown := report.CountByOutcome(model.OutcomeUnknown)

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"✅ Exhausted", strconv.Itoa(exhausted)},
			{"🚫 Blocked", strconv.Itoa(blocked)},
			{"⏹️ Aborted", strconv.Itoa(aborted)},
			{"❓ Unknown", strconv.Itoa(unknown)},
			{"**Total**", "**" + strconv.Itoa(len(report.Queries)) + "**"},
		},
	})
	md.PlainText("")

	if len(report.Queries) > 0 {
		w.writePieChart(md, exhausted, blocked, aborted, unknown)
	}

	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart for the outcome distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, exhausted, blocked, aborted, unknown int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Query Outcome Distribution"),
		piechart.WithShowData(true),
	)

	if exhausted > 0 {
		chart.LabelAndIntValue("Exhausted", uint64(exhausted))
	}
	if blocked > 0 {
		chart.LabelAndIntValue("Blocked", uint64(blocked))
	}
	if aborted > 0 {
		chart.LabelAndIntValue("Aborted", uint64(aborted))
	}
	if unknown > 0 {
		chart.LabelAndIntValue("Unknown", uint64(unknown))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the outcome counts.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.RunReport) {
	blocked := report.CountByOutcome(model.OutcomeBlocked)
	aborted := report.CountByOutcome(model.OutcomeAborted)

	switch {
	case blocked > 0:
		md.Warningf(
			"%d of %d queries were blocked by unresolved challenges. Their results are partial; consider a different solver configuration or slower pacing before retrying.",
			blocked, len(report.Queries),
		)
	case aborted > 0:
		md.Importantf(
			"%d of %d queries did not finish because the run was interrupted. Results for them are partial.",
			aborted, len(report.Queries),
		)
	case report.TotalRecords() == 0:
		md.Note("No records were extracted. The queries may simply have no results with contact data.")
	default:
		md.Tip("All queries ran to exhaustion.")
	}
	md.PlainText("")
}

// writeQueries writes the per-query results table.
func (w *MarkdownWriter) writeQueries(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Queries")
	md.PlainText("")

	if len(report.Queries) == 0 {
		md.PlainText("No queries executed.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(report.Queries))
	for _, q := range report.Queries {
		if q == nil {
			continue
		}
		rows = append(rows, []string{
			truncateString(q.Query, 50),
			q.Outcome.String(),
			strconv.Itoa(q.PagesVisited),
			strconv.Itoa(len(q.Records)),
			strconv.Itoa(q.ChallengesResolved) + " / " + strconv.Itoa(q.ChallengesUnresolved),
			q.Duration().Round(time.Second).String(),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Query", "Outcome", "Pages", "Records", "Challenges (ok/failed)", "Duration"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeRecords writes the identities found under each query.
func (w *MarkdownWriter) writeRecords(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Records")
	md.PlainText("")

	if report.TotalRecords() == 0 {
		md.PlainText("No records extracted.")
		md.PlainText("")
		return
	}

	for _, q := range report.Queries {
		if q == nil || len(q.Records) == 0 {
			continue
		}

		md.PlainText("### " + truncateString(q.Query, 60))
		md.PlainText("")

		identities := make([]string, 0, len(q.Records))
		for _, rec := range q.Records {
			identities = append(identities, "`"+rec.Identity+"`")
		}
		md.BulletList(identities...)
		md.PlainText("")
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [serpscan](https://github.com/nao1215/serpscan)*")
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
