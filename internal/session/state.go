package session

// state is one session's private mutable data. It is owned by exactly one
// controller invocation and never shared across goroutines.
type state struct {
	// query is the search input this session executes.
	query string

	// seen holds every identity already emitted for this query. The set
	// only grows within a session's lifetime.
	seen map[string]bool

	// unresolved counts consecutive iterations in which a challenge was
	// present and stayed unresolved. A cleared or resolved challenge
	// resets it to zero.
	unresolved int
}

func newState(query string) *state {
	return &state{
		query: query,
		seen:  make(map[string]bool),
	}
}
