package model

import (
	"encoding/json"
	"fmt"
)

// Outcome classifies how a query session reached its terminal state.
// Every session ends with exactly one outcome; there is no partial state.
type Outcome int

const (
	// OutcomeUnknown is the zero value for sessions that never ran.
	// A report with this outcome and a non-empty Error field indicates
	// a session that failed before its first iteration.
	OutcomeUnknown Outcome = iota

	// OutcomeExhausted means the paginator found no further results page.
	// This is the normal completion path for a query.
	OutcomeExhausted

	// OutcomeBlocked means the session hit the configured number of
	// consecutive unresolved challenges and gave up on the query.
	OutcomeBlocked

	// OutcomeAborted means the run context was cancelled (interrupt or
	// shutdown) before the session reached a natural terminal state.
	OutcomeAborted
)

// String returns a human-readable representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeExhausted:
		return "EXHAUSTED"
	case OutcomeBlocked:
		return "BLOCKED"
	case OutcomeAborted:
		return "ABORTED"
	case OutcomeUnknown:
		return "UNKNOWN"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON serializes the outcome as its string form so report files
// remain readable and stable across releases.
func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// UnmarshalJSON parses the string form written by MarshalJSON.
// Unrecognized values decode to OutcomeUnknown rather than failing,
// so newer report files remain loadable by older binaries.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("outcome must be a JSON string: %w", err)
	}

	switch s {
	case "EXHAUSTED":
		*o = OutcomeExhausted
	case "BLOCKED":
		*o = OutcomeBlocked
	case "ABORTED":
		*o = OutcomeAborted
	default:
		*o = OutcomeUnknown
	}
	return nil
}
