package model

import (
	"sort"
	"time"
)

// RunReport aggregates the per-query reports of one whole run.
// It is assembled by the scheduler after every batch has joined and is the
// unit the report writers consume.
type RunReport struct {
	// StartedAt and FinishedAt bound the whole run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Queries holds one report per input query, in input order.
	Queries []*QueryReport `json:"queries"`
}

// NewRunReport creates a run report with the start timestamp set.
func NewRunReport() *RunReport {
	return &RunReport{StartedAt: time.Now()}
}

// Finish stamps the run completion time.
func (r *RunReport) Finish() {
	r.FinishedAt = time.Now()
}

// Duration returns the run's wall-clock runtime.
// Returns zero if the run never finished.
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Records returns every record of the run flattened into one slice,
// preserving per-query discovery order.
func (r *RunReport) Records() []Record {
	var all []Record
	for _, q := range r.Queries {
		if q == nil {
			continue
		}
		all = append(all, q.Records...)
	}
	return all
}

// TotalRecords counts all records across all queries. Identities found
// under multiple queries are counted once per query, matching the output
// file contents.
func (r *RunReport) TotalRecords() int {
	total := 0
	for _, q := range r.Queries {
		if q == nil {
			continue
		}
		total += len(q.Records)
	}
	return total
}

// UniqueIdentities returns the sorted set of identities across the whole
// run, collapsing identities found under multiple queries.
func (r *RunReport) UniqueIdentities() []string {
	seen := make(map[string]struct{})
	for _, q := range r.Queries {
		if q == nil {
			continue
		}
		for _, rec := range q.Records {
			seen[rec.Identity] = struct{}{}
		}
	}

	identities := make([]string, 0, len(seen))
	for id := range seen {
		identities = append(identities, id)
	}
	sort.Strings(identities)
	return identities
}

// CountByOutcome returns how many query sessions terminated with the
// given outcome.
func (r *RunReport) CountByOutcome(o Outcome) int {
	count := 0
	for _, q := range r.Queries {
		if q != nil && q.Outcome == o {
			count++
		}
	}
	return count
}
