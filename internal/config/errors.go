package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration. Package-level
// sentinel errors let callers use errors.Is() for programmatic handling
// while still providing human-readable messages.
var (
	// ErrNoQueries is returned when no search query is specified.
	// This error occurs when neither arguments, --list, nor the config file
	// provides a query.
	ErrNoQueries = errors.New("no query specified: pass queries as arguments or use --list")

	// ErrInvalidBrowserInstances is returned when the browser instance count
	// is not positive. At least one browser process is required.
	ErrInvalidBrowserInstances = errors.New("invalid browser instances: must be positive")

	// ErrInvalidTabsPerBrowser is returned when the tabs-per-browser count
	// is not positive.
	ErrInvalidTabsPerBrowser = errors.New("invalid tabs per browser: must be positive")

	// ErrInvalidConcurrency is returned when the concurrency ceiling is
	// negative. Zero is valid and derives the ceiling from the pool size.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be non-negative")

	// ErrInvalidResultsPerPage is returned when the per-page result count
	// is not positive.
	ErrInvalidResultsPerPage = errors.New("invalid results per page: must be positive")

	// ErrInvalidLanguage is returned when the interface language is not a
	// well-formed BCP 47 tag.
	ErrInvalidLanguage = errors.New("invalid language: must be a BCP 47 tag such as \"en\"")

	// ErrInvalidChallengeThreshold is returned when the unresolved-challenge
	// threshold is not positive. A session needs at least one chance.
	ErrInvalidChallengeThreshold = errors.New("invalid challenge threshold: must be positive")

	// ErrInvalidPollInterval is returned when the solving-service poll
	// interval is not positive.
	ErrInvalidPollInterval = errors.New("invalid poll interval: must be positive")

	// ErrInvalidPollAttempts is returned when the poll attempt count is not
	// positive.
	ErrInvalidPollAttempts = errors.New("invalid poll attempts: must be positive")

	// ErrInvalidSolveBudget is returned when the resolution wall-clock
	// budget is not positive.
	ErrInvalidSolveBudget = errors.New("invalid solve budget: must be positive")

	// ErrInvalidDelayRange is returned when the pagination pacing bounds are
	// negative or inverted (minimum greater than maximum).
	ErrInvalidDelayRange = errors.New("invalid page delay range: min must be non-negative and not exceed max")

	// ErrInvalidTimeout is returned when a navigation or DOM-wait timeout is
	// not positive. A zero timeout would fail every wait immediately.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidTableName is returned when the database table name does not
	// match SQL-identifier shape. Table names are interpolated into DDL and
	// cannot be bound as parameters.
	ErrInvalidTableName = errors.New("invalid table name: must match [A-Za-z_][A-Za-z0-9_]*")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
