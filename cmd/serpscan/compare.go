package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/serpscan/internal/model"
	"github.com/spf13/cobra"
)

// Constants for coverage direction and summary messages.
const (
	coverageExpanded  = "expanded"
	coverageReduced   = "reduced"
	coverageUnchanged = "unchanged"
	noChangesMessage  = "No identity changes between runs"
)

// NewCompareCmd creates the compare command.
// This command compares two saved run reports and shows how the harvested
// identity set changed between them.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <previous.json> <current.json>",
		Short: "Compare two run reports",
		Long: `Compare displays differences between two saved run reports.

Both arguments are JSON report files written by 'serpscan scan --json -o'.
The comparison shows, per query:
- Identities found in the current run but not the previous one
- Identities from the previous run that the current run no longer found
- Outcome transitions (e.g. a query that was exhausted before but is
  blocked now)

Examples:
  # Save a baseline, then compare a later run against it
  serpscan scan --json -o monday.json --list queries.txt
  serpscan scan --json -o friday.json --list queries.txt
  serpscan compare monday.json friday.json

  # Output comparison result in JSON format
  serpscan compare --json monday.json friday.json

  # Output comparison result in Markdown format
  serpscan compare --markdown monday.json friday.json`,
		Args: cobra.ExactArgs(2),
		RunE: runCompareCmd,
	}

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	previous, err := loadRunReport(args[0])
	if err != nil {
		return err
	}
	current, err := loadRunReport(args[1])
	if err != nil {
		return err
	}

	comparison := compareRuns(previous, current)

	if jsonOutput {
		return outputComparisonJSON(comparison)
	}
	if markdownOutput {
		return outputComparisonMarkdown(comparison)
	}
	return outputComparisonText(comparison)
}

// loadRunReport reads and parses a JSON run report file.
func loadRunReport(path string) (*model.RunReport, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path comes from the CLI user
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}

	var run model.RunReport
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to parse report file %s: %w", path, err)
	}

	return &run, nil
}

// ComparisonResult holds the result of comparing two run reports.
type ComparisonResult struct {
	// PreviousRun contains summary figures about the previous run.
	PreviousRun RunMetadata `json:"previous_run"`

	// CurrentRun contains summary figures about the current run.
	CurrentRun RunMetadata `json:"current_run"`

	// Queries holds the per-query identity diffs, sorted by query string.
	// Queries with no changes are omitted.
	Queries []QueryComparison `json:"queries,omitempty"`

	// UnchangedCount is the number of query/identity pairs present in
	// both runs.
	UnchangedCount int `json:"unchanged_count"`

	// CoverageChange describes the overall change in harvest coverage.
	CoverageChange CoverageChange `json:"coverage_change"`
}

// RunMetadata contains summary figures about one run for comparison display.
type RunMetadata struct {
	// StartedAt is when the run started.
	StartedAt time.Time `json:"started_at"`

	// QueryCount is the number of queries in the run.
	QueryCount int `json:"query_count"`

	// RecordCount is the total number of records across all queries.
	RecordCount int `json:"record_count"`

	// IdentityCount is the number of distinct identities across the run.
	IdentityCount int `json:"identity_count"`

	// ExhaustedCount is the number of queries that ran to exhaustion.
	ExhaustedCount int `json:"exhausted_count"`

	// BlockedCount is the number of queries that ended blocked.
	BlockedCount int `json:"blocked_count"`
}

// QueryComparison is the identity diff for one query.
type QueryComparison struct {
	// Query is the search query both runs executed.
	Query string `json:"query"`

	// NewIdentities were found in the current run but not the previous one.
	NewIdentities []string `json:"new_identities,omitempty"`

	// LostIdentities were found in the previous run but not the current one.
	LostIdentities []string `json:"lost_identities,omitempty"`

	// UnchangedCount is the number of identities present in both runs.
	UnchangedCount int `json:"unchanged_count"`

	// PreviousOutcome and CurrentOutcome record the terminal outcome of
	// the query in each run. Empty when the query is missing from a run.
	PreviousOutcome string `json:"previous_outcome,omitempty"`
	CurrentOutcome  string `json:"current_outcome,omitempty"`
}

// changed reports whether the query's identity set or outcome moved
// between the runs.
func (q QueryComparison) changed() bool {
	return len(q.NewIdentities) > 0 ||
		len(q.LostIdentities) > 0 ||
		q.PreviousOutcome != q.CurrentOutcome
}

// CoverageChange describes the change in harvest coverage between runs.
type CoverageChange struct {
	// Direction is "expanded", "reduced", or "unchanged".
	Direction string `json:"direction"`

	// IdentityDelta is the change in distinct identities across the run.
	IdentityDelta int `json:"identity_delta"`

	// RecordDelta is the change in total record count.
	RecordDelta int `json:"record_delta"`

	// BlockedDelta is the change in blocked query count. A positive value
	// means more queries ended blocked than before.
	BlockedDelta int `json:"blocked_delta"`
}

// compareRuns compares two run reports and generates a comparison result.
func compareRuns(previous, current *model.RunReport) *ComparisonResult {
	result := &ComparisonResult{
		PreviousRun: runMetadata(previous),
		CurrentRun:  runMetadata(current),
	}

	previousQueries := identitiesByQuery(previous)
	currentQueries := identitiesByQuery(current)

	// Diff over the union of query strings so queries added to or removed
	// from the query list still show up.
	for _, query := range unionQueries(previousQueries, currentQueries) {
		qc := QueryComparison{Query: query}

		prev, inPrevious := previousQueries[query]
		curr, inCurrent := currentQueries[query]

		if inPrevious {
			qc.PreviousOutcome = prev.outcome
		}
		if inCurrent {
			qc.CurrentOutcome = curr.outcome
		}

		for identity := range curr.identities {
			if _, exists := prev.identities[identity]; !exists {
				qc.NewIdentities = append(qc.NewIdentities, identity)
			}
		}
		for identity := range prev.identities {
			if _, exists := curr.identities[identity]; exists {
				qc.UnchangedCount++
			} else {
				qc.LostIdentities = append(qc.LostIdentities, identity)
			}
		}

		sort.Strings(qc.NewIdentities)
		sort.Strings(qc.LostIdentities)

		result.UnchangedCount += qc.UnchangedCount
		if qc.changed() {
			result.Queries = append(result.Queries, qc)
		}
	}

	result.CoverageChange = calculateCoverageChange(result.PreviousRun, result.CurrentRun)

	return result
}

// queryIdentities is the identity set and terminal outcome of one query.
type queryIdentities struct {
	identities map[string]struct{}
	outcome    string
}

// runMetadata extracts summary figures from a run report.
func runMetadata(run *model.RunReport) RunMetadata {
	return RunMetadata{
		StartedAt:      run.StartedAt,
		QueryCount:     len(run.Queries),
		RecordCount:    run.TotalRecords(),
		IdentityCount:  len(run.UniqueIdentities()),
		ExhaustedCount: run.CountByOutcome(model.OutcomeExhausted),
		BlockedCount:   run.CountByOutcome(model.OutcomeBlocked),
	}
}

// identitiesByQuery builds an identity-set index keyed by query string.
// A query that appears more than once in a run has its records merged.
func identitiesByQuery(run *model.RunReport) map[string]queryIdentities {
	index := make(map[string]queryIdentities)
	for _, q := range run.Queries {
		if q == nil {
			continue
		}

		entry, ok := index[q.Query]
		if !ok {
			entry = queryIdentities{identities: make(map[string]struct{})}
		}
		for _, rec := range q.Records {
			entry.identities[rec.Identity] = struct{}{}
		}
		entry.outcome = q.Outcome.String()
		index[q.Query] = entry
	}
	return index
}

// unionQueries returns the sorted union of the query strings of both indexes.
func unionQueries(previous, current map[string]queryIdentities) []string {
	seen := make(map[string]struct{}, len(previous)+len(current))
	for query := range previous {
		seen[query] = struct{}{}
	}
	for query := range current {
		seen[query] = struct{}{}
	}

	queries := make([]string, 0, len(seen))
	for query := range seen {
		queries = append(queries, query)
	}
	sort.Strings(queries)
	return queries
}

// calculateCoverageChange calculates the change in coverage between runs.
// Distinct identities are the figure the tool exists to maximize, so the
// direction follows the identity count alone.
func calculateCoverageChange(previous, current RunMetadata) CoverageChange {
	change := CoverageChange{
		IdentityDelta: current.IdentityCount - previous.IdentityCount,
		RecordDelta:   current.RecordCount - previous.RecordCount,
		BlockedDelta:  current.BlockedCount - previous.BlockedCount,
	}

	switch {
	case change.IdentityDelta > 0:
		change.Direction = coverageExpanded
	case change.IdentityDelta < 0:
		change.Direction = coverageReduced
	default:
		change.Direction = coverageUnchanged
	}

	return change
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(result *ComparisonResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(result *ComparisonResult) error {
	fmt.Println("# Run Comparison")

	// Coverage change summary
	fmt.Println("\n## Summary")
	fmt.Printf("\n**Coverage:** %s\n\n", formatCoverageDirection(result.CoverageChange.Direction))

	// Run metadata table
	fmt.Println("| Metric | Previous | Current | Change |")
	fmt.Println("|--------|----------|---------|--------|")
	fmt.Printf("| Date | %s | %s | - |\n",
		result.PreviousRun.StartedAt.Format("2006-01-02 15:04"),
		result.CurrentRun.StartedAt.Format("2006-01-02 15:04"))
	fmt.Printf("| Queries | %d | %d | %s |\n",
		result.PreviousRun.QueryCount,
		result.CurrentRun.QueryCount,
		formatDelta(result.CurrentRun.QueryCount-result.PreviousRun.QueryCount))
	fmt.Printf("| Records | %d | %d | %s |\n",
		result.PreviousRun.RecordCount,
		result.CurrentRun.RecordCount,
		formatDelta(result.CoverageChange.RecordDelta))
	fmt.Printf("| Identities | %d | %d | %s |\n",
		result.PreviousRun.IdentityCount,
		result.CurrentRun.IdentityCount,
		formatDelta(result.CoverageChange.IdentityDelta))
	fmt.Printf("| Exhausted | %d | %d | %s |\n",
		result.PreviousRun.ExhaustedCount,
		result.CurrentRun.ExhaustedCount,
		formatDelta(result.CurrentRun.ExhaustedCount-result.PreviousRun.ExhaustedCount))
	fmt.Printf("| Blocked | %d | %d | %s |\n",
		result.PreviousRun.BlockedCount,
		result.CurrentRun.BlockedCount,
		formatDelta(result.CoverageChange.BlockedDelta))

	// Per-query changes
	if len(result.Queries) > 0 {
		fmt.Printf("\n## Query Changes (%d)\n", len(result.Queries))
		for _, qc := range result.Queries {
			fmt.Printf("\n### %s\n\n", qc.Query)
			if qc.PreviousOutcome != qc.CurrentOutcome {
				fmt.Printf("**Outcome:** %s -> %s\n\n",
					orMissing(qc.PreviousOutcome), orMissing(qc.CurrentOutcome))
			}
			for _, identity := range qc.NewIdentities {
				fmt.Printf("- **[+]** `%s`\n", identity)
			}
			for _, identity := range qc.LostIdentities {
				fmt.Printf("- ~~`%s`~~\n", identity)
			}
			if qc.UnchangedCount > 0 {
				fmt.Printf("- %d unchanged\n", qc.UnchangedCount)
			}
		}
	} else {
		fmt.Printf("\n%s.\n", noChangesMessage)
	}

	// Unchanged count
	if result.UnchangedCount > 0 {
		fmt.Printf("\n---\n\n*%d query/identity pairs unchanged*\n", result.UnchangedCount)
	}

	return nil
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(result *ComparisonResult) error {
	fmt.Println("Run Comparison")
	fmt.Println(strings.Repeat("=", 60))

	// Coverage change summary
	fmt.Printf("\nCoverage: %s\n", formatCoverageDirection(result.CoverageChange.Direction))

	// Run dates
	fmt.Printf("\nPrevious run: %s\n", result.PreviousRun.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Current run:  %s\n", result.CurrentRun.StartedAt.Format("2006-01-02 15:04:05"))

	// Summary table
	fmt.Println("\nRun Summary:")
	fmt.Printf("  %-12s  %-10s  %-10s  %-10s\n", "Metric", "Previous", "Current", "Change")
	fmt.Println("  " + strings.Repeat("-", 47))
	fmt.Printf("  %-12s  %-10d  %-10d  %-10s\n", "Queries",
		result.PreviousRun.QueryCount, result.CurrentRun.QueryCount,
		formatDelta(result.CurrentRun.QueryCount-result.PreviousRun.QueryCount))
	fmt.Printf("  %-12s  %-10d  %-10d  %-10s\n", "Records",
		result.PreviousRun.RecordCount, result.CurrentRun.RecordCount,
		formatDelta(result.CoverageChange.RecordDelta))
	fmt.Printf("  %-12s  %-10d  %-10d  %-10s\n", "Identities",
		result.PreviousRun.IdentityCount, result.CurrentRun.IdentityCount,
		formatDelta(result.CoverageChange.IdentityDelta))
	fmt.Printf("  %-12s  %-10d  %-10d  %-10s\n", "Exhausted",
		result.PreviousRun.ExhaustedCount, result.CurrentRun.ExhaustedCount,
		formatDelta(result.CurrentRun.ExhaustedCount-result.PreviousRun.ExhaustedCount))
	fmt.Printf("  %-12s  %-10d  %-10d  %-10s\n", "Blocked",
		result.PreviousRun.BlockedCount, result.CurrentRun.BlockedCount,
		formatDelta(result.CoverageChange.BlockedDelta))

	// Per-query changes
	if len(result.Queries) > 0 {
		fmt.Printf("\nQuery Changes (%d):\n", len(result.Queries))
		for _, qc := range result.Queries {
			fmt.Printf("\n  %q\n", qc.Query)
			if qc.PreviousOutcome != qc.CurrentOutcome {
				fmt.Printf("      outcome: %s -> %s\n",
					orMissing(qc.PreviousOutcome), orMissing(qc.CurrentOutcome))
			}
			for _, identity := range qc.NewIdentities {
				fmt.Printf("  [+] %s\n", identity)
			}
			for _, identity := range qc.LostIdentities {
				fmt.Printf("  [-] %s\n", identity)
			}
			if qc.UnchangedCount > 0 {
				fmt.Printf("      unchanged: %d\n", qc.UnchangedCount)
			}
		}
	} else {
		fmt.Printf("\n%s.\n", noChangesMessage)
	}

	// Unchanged count
	if result.UnchangedCount > 0 {
		fmt.Printf("\nUnchanged: %d query/identity pairs\n", result.UnchangedCount)
	}

	return nil
}

// formatCoverageDirection formats the coverage change direction for display.
func formatCoverageDirection(direction string) string {
	switch direction {
	case coverageExpanded:
		return "EXPANDED (more identities found)"
	case coverageReduced:
		return "REDUCED (fewer identities found)"
	default:
		return "UNCHANGED"
	}
}

// orMissing substitutes a placeholder for an empty outcome, which means
// the query was absent from that run.
func orMissing(outcome string) string {
	if outcome == "" {
		return "(not run)"
	}
	return outcome
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	} else if delta < 0 {
		return strconv.Itoa(delta)
	}
	return "0"
}
