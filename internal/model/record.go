package model

import (
	"strings"
	"time"
)

// Record is one extracted email identity together with the query it was
// found under and the capture timestamp. Records are immutable once created;
// sessions hand them to the persistence collaborators and never touch them
// again.
type Record struct {
	// Identity is the canonical (lower-cased) email address.
	// Deduplication within a session compares this field only.
	Identity string `json:"identity"`

	// SourceQuery is the search query the identity was found under.
	SourceQuery string `json:"source_query"`

	// FoundAt is the capture timestamp.
	FoundAt time.Time `json:"found_at"`
}

// NewRecord builds a Record with a canonical identity.
// The identity is lower-cased here so callers cannot accidentally create
// records that compare unequal to their seen-set entries.
func NewRecord(identity, sourceQuery string, foundAt time.Time) Record {
	return Record{
		Identity:    strings.ToLower(strings.TrimSpace(identity)),
		SourceQuery: sourceQuery,
		FoundAt:     foundAt,
	}
}
