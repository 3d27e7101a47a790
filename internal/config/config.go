package config

import (
	"path/filepath"
	"regexp"
	"time"

	"github.com/adrg/xdg"
	"golang.org/x/text/language"
)

// Default configuration values.
// These values mirror the observed behavior of public search-results pages
// and the solving-service polling cadence; adjust via CLI flags or the
// .serpscan configuration file when a deployment needs different pacing.
const (
	// DefaultSearchEndpoint is the search-results endpoint queries run against.
	// The page structure the detector and paginator expect (consent wall,
	// challenge interstitial, next-page controls) is this endpoint's.
	DefaultSearchEndpoint = "https://www.google.com/search"

	// DefaultResultsPerPage is the number of results requested per page via
	// the num= query parameter. 10 is the endpoint's own default; larger
	// values reduce pagination churn but are also a stronger automation signal.
	DefaultResultsPerPage = 10

	// DefaultLanguage is the interface language requested via the hl= query
	// parameter. The consent and challenge selectors are language-independent,
	// but a stable language keeps extracted page text predictable.
	DefaultLanguage = "en"

	// DefaultBrowserInstances is the number of browser processes to launch.
	// One process is almost always enough: sessions isolate through browsing
	// contexts, not processes.
	DefaultBrowserInstances = 1

	// DefaultTabsPerBrowser is the number of concurrently open tabs each
	// browser process is sized for. The concurrency ceiling defaults to
	// instances x tabs.
	DefaultTabsPerBrowser = 4

	// DefaultChallengeThreshold is the number of consecutive iterations with
	// a present-and-unresolved challenge after which a session gives up and
	// classifies the query as blocked.
	DefaultChallengeThreshold = 3

	// DefaultPollInterval is the delay between polls of the solving service
	// while waiting for a submitted task to produce a token.
	DefaultPollInterval = 1500 * time.Millisecond

	// DefaultPollAttempts is the maximum number of polls for one submitted
	// task. Together with DefaultPollInterval this is roughly a 30 second
	// wait per challenge type.
	DefaultPollAttempts = 20

	// DefaultSolveBudget is the wall-clock budget for one whole resolution
	// attempt across all candidate challenge types.
	DefaultSolveBudget = 45 * time.Second

	// DefaultRecoveryDelay is the pause inserted after a challenge is
	// resolved, before extraction resumes. Immediately hammering the page
	// after a solve tends to re-trigger detection.
	DefaultRecoveryDelay = 2 * time.Second

	// DefaultUnresolvedDelay is the pause between loop iterations while a
	// challenge stays unresolved. Without it the blocked-query counter would
	// burn through its threshold in milliseconds.
	DefaultUnresolvedDelay = 2 * time.Second

	// DefaultMinPageDelay and DefaultMaxPageDelay bound the randomized
	// pause around pagination clicks. Randomized pacing reduces the
	// regularity that automation detectors key on.
	DefaultMinPageDelay = 800 * time.Millisecond
	DefaultMaxPageDelay = 2400 * time.Millisecond

	// DefaultNavigationTimeout bounds a single page navigation.
	DefaultNavigationTimeout = 30 * time.Second

	// DefaultWaitTimeout bounds a single wait for a DOM element, such as the
	// results container reappearing after a pagination click.
	DefaultWaitTimeout = 10 * time.Second

	// DefaultTableName is the table records are inserted into when database
	// persistence is enabled.
	DefaultTableName = "emails"

	// DefaultCSVFile is the flat-file output path for extracted records.
	DefaultCSVFile = "results.csv"

	// DefaultSolverURL is the solving-service endpoint. The default assumes
	// a self-hosted solving bridge on the local machine.
	DefaultSolverURL = "http://127.0.0.1:5000"

	// AppName is the application name used for XDG directory paths.
	AppName = "serpscan"

	// DefaultUserAgent is the User-Agent the browser is launched with.
	// It matches the Chrome build the bundled DevTools protocol definitions
	// were generated against, so the UA and the wire behavior agree.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/100.0.4896.75 Safari/537.36"
)

// tableNamePattern restricts table names to SQL-identifier shape. Table
// names are interpolated into DDL, so anything outside this shape is
// rejected before a statement is ever built.
var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsValidTableName reports whether name is usable as a SQL table identifier.
func IsValidTableName(name string) bool {
	return tableNamePattern.MatchString(name)
}

// Config holds all configuration options for serpscan.
// This struct is populated from CLI flags and the optional .serpscan file
// and passed through the application via dependency injection rather than
// global state. It uses a single flat struct: the option count is
// manageable, and nesting would add complexity without benefit.
type Config struct {
	// Queries is the ordered list of search queries to run.
	// Must contain at least one non-empty query.
	Queries []string

	// SearchEndpoint is the search-results URL queries are issued against.
	SearchEndpoint string

	// ResultsPerPage is the num= query parameter value.
	ResultsPerPage int

	// Language is the hl= query parameter value (BCP 47 tag).
	Language string

	// Headless controls whether the browser runs without a visible window.
	// Disable for debugging selector behavior against the live page.
	Headless bool

	// BrowserInstances is the number of browser processes to launch.
	BrowserInstances int

	// TabsPerBrowser is the tab capacity each browser process is sized for.
	TabsPerBrowser int

	// Concurrency is the ceiling on concurrently running sessions.
	// Zero means derive it as BrowserInstances * TabsPerBrowser.
	// See EffectiveConcurrency.
	Concurrency int

	// SolverURL is the base URL of the external solving service.
	SolverURL string

	// SolverKey is the solving-service credential. When empty, challenges
	// are detected but never resolved; blocked queries terminate via the
	// challenge threshold instead.
	SolverKey string

	// SolverTypes is the challenge-type priority list sent to the solving
	// service. Empty means the resolver's built-in order.
	SolverTypes []string

	// ExtensionPath is a directory containing an unpacked browser extension
	// that solves challenges independently. When set, the extension is
	// loaded into the browser and the resolver falls back to a fixed wait
	// for challenges it cannot submit itself.
	ExtensionPath string

	// ChallengeThreshold is the number of consecutive unresolved-challenge
	// iterations before a session stops with a blocked outcome.
	ChallengeThreshold int

	// PollInterval is the delay between solving-service polls.
	PollInterval time.Duration

	// PollAttempts is the maximum number of polls per submitted task.
	PollAttempts int

	// SolveBudget is the wall-clock budget for one resolution attempt.
	SolveBudget time.Duration

	// RecoveryDelay is the pause after a resolved challenge before
	// extraction resumes.
	RecoveryDelay time.Duration

	// UnresolvedDelay is the pause between iterations while a challenge
	// stays unresolved.
	UnresolvedDelay time.Duration

	// MinPageDelay and MaxPageDelay bound the randomized pacing around
	// pagination. MinPageDelay must not exceed MaxPageDelay.
	MinPageDelay time.Duration
	MaxPageDelay time.Duration

	// NavigationTimeout bounds a single page navigation.
	NavigationTimeout time.Duration

	// WaitTimeout bounds a single DOM-element wait.
	WaitTimeout time.Duration

	// UserAgent is the User-Agent the browser presents.
	UserAgent string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .serpscan in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// CSVFile is the output path for the flat-file record collaborator.
	CSVFile string

	// DBDir is the directory path for storing the SQLite database.
	// When set, extracted records are also inserted into the database.
	// When empty, no database persistence happens.
	// Defaults to the XDG data directory when --db is passed without a value.
	DBDir string

	// SaveToDB indicates whether to insert records into the database.
	// This is automatically set to true when DBDir is configured.
	SaveToDB bool

	// TableName is the database table records are inserted into.
	// Must match SQL-identifier shape; see IsValidTableName.
	TableName string

	// JSONReport enables JSON report output instead of the terminal summary.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of the terminal
	// summary. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the run report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation. A constructor is used
// instead of zero values because most defaults are non-zero, and it serves
// as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		SearchEndpoint:     DefaultSearchEndpoint,
		ResultsPerPage:     DefaultResultsPerPage,
		Language:           DefaultLanguage,
		Headless:           true,
		BrowserInstances:   DefaultBrowserInstances,
		TabsPerBrowser:     DefaultTabsPerBrowser,
		SolverURL:          DefaultSolverURL,
		ChallengeThreshold: DefaultChallengeThreshold,
		PollInterval:       DefaultPollInterval,
		PollAttempts:       DefaultPollAttempts,
		SolveBudget:        DefaultSolveBudget,
		RecoveryDelay:      DefaultRecoveryDelay,
		UnresolvedDelay:    DefaultUnresolvedDelay,
		MinPageDelay:       DefaultMinPageDelay,
		MaxPageDelay:       DefaultMaxPageDelay,
		NavigationTimeout:  DefaultNavigationTimeout,
		WaitTimeout:        DefaultWaitTimeout,
		UserAgent:          DefaultUserAgent,
		TableName:          DefaultTableName,
		CSVFile:            DefaultCSVFile,
	}
}

// EffectiveConcurrency returns the session concurrency ceiling.
// An explicit Concurrency wins; zero derives the ceiling from the browser
// pool size as BrowserInstances * TabsPerBrowser.
func (c *Config) EffectiveConcurrency() int {
	if c.Concurrency > 0 {
		return c.Concurrency
	}
	return c.BrowserInstances * c.TabsPerBrowser
}

// XDGDataDir returns the XDG data directory for serpscan.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/serpscan
// On macOS: ~/Library/Application Support/serpscan
// On Windows: %LOCALAPPDATA%\serpscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for serpscan.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/serpscan
// On macOS: ~/Library/Application Support/serpscan
// On Windows: %APPDATA%\serpscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for serpscan.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.cache/serpscan
// On macOS: ~/Library/Caches/serpscan
// On Windows: %LOCALAPPDATA%\serpscan\cache
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific sentinel error describing what is invalid, checked
// once after CLI parsing and before any browsing begins, so misconfiguration
// fails fast with a clear message. The first error found is returned rather
// than collecting all errors, because fixing one error often makes others
// irrelevant.
func (c *Config) Validate() error {
	// At least one query is required; empty input is a fatal startup condition
	if len(c.Queries) == 0 {
		return ErrNoQueries
	}

	if c.BrowserInstances <= 0 {
		return ErrInvalidBrowserInstances
	}

	if c.TabsPerBrowser <= 0 {
		return ErrInvalidTabsPerBrowser
	}

	// Zero means "derive from the pool size"; only negatives are invalid
	if c.Concurrency < 0 {
		return ErrInvalidConcurrency
	}

	if c.ResultsPerPage <= 0 {
		return ErrInvalidResultsPerPage
	}

	// The hl= parameter must be a well-formed BCP 47 tag
	if _, err := language.Parse(c.Language); err != nil {
		return ErrInvalidLanguage
	}

	if c.ChallengeThreshold <= 0 {
		return ErrInvalidChallengeThreshold
	}

	if c.PollInterval <= 0 {
		return ErrInvalidPollInterval
	}

	if c.PollAttempts <= 0 {
		return ErrInvalidPollAttempts
	}

	if c.SolveBudget <= 0 {
		return ErrInvalidSolveBudget
	}

	if c.MinPageDelay < 0 || c.MaxPageDelay < c.MinPageDelay {
		return ErrInvalidDelayRange
	}

	if c.NavigationTimeout <= 0 || c.WaitTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if !IsValidTableName(c.TableName) {
		return ErrInvalidTableName
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
