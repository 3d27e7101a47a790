package model

import "time"

// QueryReport is the result of running one query session to completion.
// It is created when the session starts, mutated only by the controller
// running that session, and read-only afterwards.
type QueryReport struct {
	// Query is the search query this session executed.
	Query string `json:"query"`

	// Outcome classifies how the session terminated.
	Outcome Outcome `json:"outcome"`

	// Records are the identities extracted for this query, in discovery
	// order, already deduplicated against the session's seen-set.
	Records []Record `json:"records"`

	// PagesVisited counts the content-bearing pages the session extracted
	// from. Challenge pages that never cleared are not counted.
	PagesVisited int `json:"pages_visited"`

	// ChallengesResolved counts challenges the resolver cleared.
	ChallengesResolved int `json:"challenges_resolved"`

	// ChallengesUnresolved counts challenge iterations that stayed
	// unresolved, including the ones that led to a blocked outcome.
	ChallengesUnresolved int `json:"challenges_unresolved"`

	// StartedAt and FinishedAt bound the session's wall-clock lifetime.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Error holds the last fatal session error, if any. Iteration-level
	// failures are logged, not recorded here.
	Error string `json:"error,omitempty"`
}

// NewQueryReport creates a report for the given query with the start
// timestamp set.
func NewQueryReport(query string) *QueryReport {
	return &QueryReport{
		Query:     query,
		StartedAt: time.Now(),
	}
}

// AddRecord appends an extracted record to the report.
func (r *QueryReport) AddRecord(rec Record) {
	r.Records = append(r.Records, rec)
}

// Finish stamps the completion time and terminal outcome.
func (r *QueryReport) Finish(outcome Outcome) {
	r.Outcome = outcome
	r.FinishedAt = time.Now()
}

// Duration returns the session's wall-clock runtime.
// Returns zero if the session never finished.
func (r *QueryReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
