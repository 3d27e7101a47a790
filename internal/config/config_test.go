package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
// This test ensures that defaults are documented through tests and that changes
// to defaults are intentional (tests will fail if defaults change unexpectedly).
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	// Verify each default value explicitly
	// This serves as living documentation of the defaults
	t.Run("default SearchEndpoint is the Google results page", func(t *testing.T) {
		t.Parallel()
		if cfg.SearchEndpoint != "https://www.google.com/search" {
			t.Errorf("expected SearchEndpoint to be 'https://www.google.com/search', got '%s'", cfg.SearchEndpoint)
		}
	})

	t.Run("default ResultsPerPage is 10", func(t *testing.T) {
		t.Parallel()
		if cfg.ResultsPerPage != 10 {
			t.Errorf("expected ResultsPerPage to be 10, got %d", cfg.ResultsPerPage)
		}
	})

	t.Run("default Language is en", func(t *testing.T) {
		t.Parallel()
		if cfg.Language != "en" {
			t.Errorf("expected Language to be 'en', got '%s'", cfg.Language)
		}
	})

	t.Run("default Headless is true", func(t *testing.T) {
		t.Parallel()
		if !cfg.Headless {
			t.Error("expected Headless to be true")
		}
	})

	t.Run("default BrowserInstances is 1", func(t *testing.T) {
		t.Parallel()
		if cfg.BrowserInstances != 1 {
			t.Errorf("expected BrowserInstances to be 1, got %d", cfg.BrowserInstances)
		}
	})

	t.Run("default TabsPerBrowser is 4", func(t *testing.T) {
		t.Parallel()
		if cfg.TabsPerBrowser != 4 {
			t.Errorf("expected TabsPerBrowser to be 4, got %d", cfg.TabsPerBrowser)
		}
	})

	t.Run("default Concurrency is derived, not explicit", func(t *testing.T) {
		t.Parallel()
		if cfg.Concurrency != 0 {
			t.Errorf("expected Concurrency to be 0 (derived), got %d", cfg.Concurrency)
		}
	})

	t.Run("default ChallengeThreshold is 3", func(t *testing.T) {
		t.Parallel()
		if cfg.ChallengeThreshold != 3 {
			t.Errorf("expected ChallengeThreshold to be 3, got %d", cfg.ChallengeThreshold)
		}
	})

	t.Run("default PollInterval is 1.5 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.PollInterval != 1500*time.Millisecond {
			t.Errorf("expected PollInterval to be 1.5s, got %v", cfg.PollInterval)
		}
	})

	t.Run("default PollAttempts is 20", func(t *testing.T) {
		t.Parallel()
		if cfg.PollAttempts != 20 {
			t.Errorf("expected PollAttempts to be 20, got %d", cfg.PollAttempts)
		}
	})

	t.Run("default SolveBudget is 45 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.SolveBudget != 45*time.Second {
			t.Errorf("expected SolveBudget to be 45s, got %v", cfg.SolveBudget)
		}
	})

	t.Run("default SolverTypes is empty (resolver order)", func(t *testing.T) {
		t.Parallel()
		if len(cfg.SolverTypes) != 0 {
			t.Errorf("expected SolverTypes to be empty, got %v", cfg.SolverTypes)
		}
	})

	t.Run("default TableName is emails", func(t *testing.T) {
		t.Parallel()
		if cfg.TableName != "emails" {
			t.Errorf("expected TableName to be 'emails', got '%s'", cfg.TableName)
		}
	})

	t.Run("default CSVFile is results.csv", func(t *testing.T) {
		t.Parallel()
		if cfg.CSVFile != "results.csv" {
			t.Errorf("expected CSVFile to be 'results.csv', got '%s'", cfg.CSVFile)
		}
	})
}

// TestEffectiveConcurrency tests the derivation of the session ceiling.
func TestEffectiveConcurrency(t *testing.T) {
	t.Parallel()

	t.Run("defaults derive instances times tabs", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		if got := cfg.EffectiveConcurrency(); got != 4 {
			t.Errorf("expected 4, got %d", got)
		}
	})

	t.Run("derived from custom pool size", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.BrowserInstances = 2
		cfg.TabsPerBrowser = 3
		if got := cfg.EffectiveConcurrency(); got != 6 {
			t.Errorf("expected 6, got %d", got)
		}
	})

	t.Run("explicit ceiling wins over pool size", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.BrowserInstances = 2
		cfg.TabsPerBrowser = 4
		cfg.Concurrency = 3
		if got := cfg.EffectiveConcurrency(); got != 3 {
			t.Errorf("expected 3, got %d", got)
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case is designed to test one specific validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	// validConfig returns a minimal valid configuration.
	// Tests can modify specific fields to test validation rules.
	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Queries = []string{"golang developer contact email"}
		return cfg
	}

	t.Run("valid config returns nil", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("multiple queries is valid", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Queries = []string{"query one", "query two", "query three"}

		if err := cfg.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("empty queries returns ErrNoQueries", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Queries = []string{}

		err := cfg.Validate()
		if !errors.Is(err, ErrNoQueries) {
			t.Errorf("expected ErrNoQueries, got %v", err)
		}
	})

	t.Run("nil queries returns ErrNoQueries", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Queries = nil

		err := cfg.Validate()
		if !errors.Is(err, ErrNoQueries) {
			t.Errorf("expected ErrNoQueries, got %v", err)
		}
	})

	t.Run("zero browser instances returns ErrInvalidBrowserInstances", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.BrowserInstances = 0

		err := cfg.Validate()
		if !errors.Is(err, ErrInvalidBrowserInstances) {
			t.Errorf("expected ErrInvalidBrowserInstances, got %v", err)
		}
	})

	t.Run("zero tabs returns ErrInvalidTabsPerBrowser", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.TabsPerBrowser = 0

		err := cfg.Validate()
		if !errors.Is(err, ErrInvalidTabsPerBrowser) {
			t.Errorf("expected ErrInvalidTabsPerBrowser, got %v", err)
		}
	})

	t.Run("negative concurrency returns ErrInvalidConcurrency", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Concurrency = -1

		err := cfg.Validate()
		if !errors.Is(err, ErrInvalidConcurrency) {
			t.Errorf("expected ErrInvalidConcurrency, got %v", err)
		}
	})

	t.Run("zero concurrency is valid (derived)", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Concurrency = 0

		if err := cfg.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("zero results per page returns ErrInvalidResultsPerPage", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.ResultsPerPage = 0

		err := cfg.Validate()
		if !errors.Is(err, ErrInvalidResultsPerPage) {
			t.Errorf("expected ErrInvalidResultsPerPage, got %v", err)
		}
	})

	t.Run("malformed language returns ErrInvalidLanguage", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Language = "not a language tag!"

		err := cfg.Validate()
		if !errors.Is(err, ErrInvalidLanguage) {
			t.Errorf("expected ErrInvalidLanguage, got %v", err)
		}
	})

	t.Run("region-qualified language is valid", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Language = "pt-BR"

		if err := cfg.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("zero challenge threshold returns ErrInvalidChallengeThreshold", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.ChallengeThreshold = 0

		err := cfg.Validate()
		if !errors.Is(err, ErrInvalidChallengeThreshold) {
			t.Errorf("expected ErrInvalidChallengeThreshold, got %v", err)
		}
	})

	t.Run("zero poll interval returns ErrInvalidPollInterval", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.PollInterval = 0

		err := cfg.Validate()
		if !errors.Is(err, ErrInvalidPollInterval) {
			t.Errorf("expected ErrInvalidPollInterval, got %v", err)
		}
	})

	t.Run("zero poll attempts returns ErrInvalidPollAttempts", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.PollAttempts = 0

		err := cfg.Validate()
		if !errors.Is(err, ErrInvalidPollAttempts) {
			t.Errorf("expected ErrInvalidPollAttempts, got %v", err)
		}
	})

	t.Run("zero solve budget returns ErrInvalidSolveBudget", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.SolveBudget = 0

		err := cfg.Validate()
		if !errors.Is(err, ErrInvalidSolveBudget) {
			t.Errorf("expected ErrInvalidSolveBudget, got %v", err)
		}
	})

	t.Run("inverted delay range returns ErrInvalidDelayRange", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.MinPageDelay = 2 * time.Second
		cfg.MaxPageDelay = 1 * time.Second

		err := cfg.Validate()
		if !errors.Is(err, ErrInvalidDelayRange) {
			t.Errorf("expected ErrInvalidDelayRange, got %v", err)
		}
	})

	t.Run("negative min delay returns ErrInvalidDelayRange", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.MinPageDelay = -1 * time.Second

		err := cfg.Validate()
		if !errors.Is(err, ErrInvalidDelayRange) {
			t.Errorf("expected ErrInvalidDelayRange, got %v", err)
		}
	})

	t.Run("zero page delays are valid", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.MinPageDelay = 0
		cfg.MaxPageDelay = 0

		if err := cfg.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("zero navigation timeout returns ErrInvalidTimeout", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.NavigationTimeout = 0

		err := cfg.Validate()
		if !errors.Is(err, ErrInvalidTimeout) {
			t.Errorf("expected ErrInvalidTimeout, got %v", err)
		}
	})

	t.Run("zero wait timeout returns ErrInvalidTimeout", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.WaitTimeout = 0

		err := cfg.Validate()
		if !errors.Is(err, ErrInvalidTimeout) {
			t.Errorf("expected ErrInvalidTimeout, got %v", err)
		}
	})

	t.Run("malformed table name returns ErrInvalidTableName", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.TableName = "1emails"

		err := cfg.Validate()
		if !errors.Is(err, ErrInvalidTableName) {
			t.Errorf("expected ErrInvalidTableName, got %v", err)
		}
	})

	t.Run("injection-shaped table name returns ErrInvalidTableName", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.TableName = "emails; DROP TABLE emails"

		err := cfg.Validate()
		if !errors.Is(err, ErrInvalidTableName) {
			t.Errorf("expected ErrInvalidTableName, got %v", err)
		}
	})

	t.Run("json and markdown both enabled returns ErrConflictingReportFormats", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.JSONReport = true
		cfg.MarkdownReport = true

		err := cfg.Validate()
		if !errors.Is(err, ErrConflictingReportFormats) {
			t.Errorf("expected ErrConflictingReportFormats, got %v", err)
		}
	})

	t.Run("json only is valid", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.JSONReport = true
		cfg.MarkdownReport = false

		if err := cfg.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("markdown only is valid", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.JSONReport = false
		cfg.MarkdownReport = true

		if err := cfg.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

// TestIsValidTableName tests the SQL-identifier shape check.
func TestIsValidTableName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		expected bool
	}{
		{"emails", true},
		{"Emails2", true},
		{"_private", true},
		{"scan_results", true},
		{"1emails", false},
		{"has-dash", false},
		{"has space", false},
		{"", false},
		{"emails;drop", false},
		{"emails\"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := IsValidTableName(tt.name); got != tt.expected {
				t.Errorf("IsValidTableName(%q) = %v, want %v", tt.name, got, tt.expected)
			}
		})
	}
}

// TestFileApply tests overlaying file values onto a Config.
func TestFileApply(t *testing.T) {
	t.Parallel()

	t.Run("empty file leaves defaults untouched", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		file := &File{}
		file.Apply(cfg)

		if cfg.SearchEndpoint != DefaultSearchEndpoint {
			t.Errorf("expected default endpoint, got %q", cfg.SearchEndpoint)
		}
		if !cfg.Headless {
			t.Error("expected Headless to stay true")
		}
		if cfg.TableName != DefaultTableName {
			t.Errorf("expected default table name, got %q", cfg.TableName)
		}
		if cfg.SaveToDB {
			t.Error("expected SaveToDB to stay false")
		}
	})

	t.Run("file values overlay defaults", func(t *testing.T) {
		t.Parallel()

		headless := false
		file := &File{
			Queries: []string{"site:example.edu contact"},
			Solver: SolverSection{
				URL:   "http://solver.internal:5000",
				Key:   "0123456789abcdef",
				Types: []string{"recaptcha_v3"},
			},
			Browser: BrowserSection{
				Headless:    &headless,
				Instances:   2,
				Tabs:        8,
				Concurrency: 6,
				Extension:   "/opt/solver-ext",
			},
			Output: OutputSection{
				CSV:      "out.csv",
				Table:    "harvested",
				Database: "/var/lib/serpscan",
			},
		}

		cfg := NewConfig()
		file.Apply(cfg)

		if len(cfg.Queries) != 1 || cfg.Queries[0] != "site:example.edu contact" {
			t.Errorf("expected file queries, got %v", cfg.Queries)
		}
		if cfg.SolverURL != "http://solver.internal:5000" {
			t.Errorf("expected file solver URL, got %q", cfg.SolverURL)
		}
		if cfg.SolverKey != "0123456789abcdef" {
			t.Errorf("expected file solver key, got %q", cfg.SolverKey)
		}
		if len(cfg.SolverTypes) != 1 || cfg.SolverTypes[0] != "recaptcha_v3" {
			t.Errorf("expected file solver types, got %v", cfg.SolverTypes)
		}
		if cfg.Headless {
			t.Error("expected Headless false from file")
		}
		if cfg.BrowserInstances != 2 {
			t.Errorf("expected 2 instances, got %d", cfg.BrowserInstances)
		}
		if cfg.TabsPerBrowser != 8 {
			t.Errorf("expected 8 tabs, got %d", cfg.TabsPerBrowser)
		}
		if cfg.Concurrency != 6 {
			t.Errorf("expected concurrency 6, got %d", cfg.Concurrency)
		}
		if cfg.ExtensionPath != "/opt/solver-ext" {
			t.Errorf("expected extension path, got %q", cfg.ExtensionPath)
		}
		if cfg.CSVFile != "out.csv" {
			t.Errorf("expected out.csv, got %q", cfg.CSVFile)
		}
		if cfg.TableName != "harvested" {
			t.Errorf("expected harvested, got %q", cfg.TableName)
		}
		if cfg.DBDir != "/var/lib/serpscan" {
			t.Errorf("expected DB dir, got %q", cfg.DBDir)
		}
		if !cfg.SaveToDB {
			t.Error("expected SaveToDB true when database dir set")
		}
	})

	t.Run("absent headless keeps default true", func(t *testing.T) {
		t.Parallel()

		file := &File{
			Browser: BrowserSection{Instances: 3},
		}

		cfg := NewConfig()
		file.Apply(cfg)

		if !cfg.Headless {
			t.Error("expected Headless to stay true when absent from file")
		}
		if cfg.BrowserInstances != 3 {
			t.Errorf("expected 3 instances, got %d", cfg.BrowserInstances)
		}
	})
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.serpscan")
		if err == nil {
			t.Fatal("expected error for non-existent file")
		}
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, ".serpscan")

		content := `queries:
  - "site:example.edu contact"
  - "golang consultant email"
solver:
  url: "http://127.0.0.1:5000"
  key: "0123456789abcdef"
  types:
    - recaptcha_v2
    - hcaptcha
browser:
  headless: false
  instances: 2
  tabs: 3
output:
  csv: "out.csv"
  table: "harvested"
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(cfg.Queries) != 2 {
			t.Errorf("expected 2 queries, got %d", len(cfg.Queries))
		}
		if cfg.Solver.URL != "http://127.0.0.1:5000" {
			t.Errorf("expected solver URL, got %q", cfg.Solver.URL)
		}
		if cfg.Solver.Key != "0123456789abcdef" {
			t.Errorf("expected solver key, got %q", cfg.Solver.Key)
		}
		if len(cfg.Solver.Types) != 2 || cfg.Solver.Types[0] != "recaptcha_v2" {
			t.Errorf("expected solver types, got %v", cfg.Solver.Types)
		}
		if cfg.Browser.Headless == nil || *cfg.Browser.Headless {
			t.Error("expected headless false")
		}
		if cfg.Browser.Instances != 2 {
			t.Errorf("expected 2 instances, got %d", cfg.Browser.Instances)
		}
		if cfg.Output.Table != "harvested" {
			t.Errorf("expected table harvested, got %q", cfg.Output.Table)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, ".serpscan")

		content := `invalid: yaml: content: [}`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfigFile(configPath)
		if err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("absent headless unmarshals as nil", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, ".serpscan")

		content := `browser:
  instances: 2
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Browser.Headless != nil {
			t.Error("expected nil Headless when absent from file")
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Run("returns explicit path if exists", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "custom.yaml")

		if err := os.WriteFile(configPath, []byte("queries: []"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		result := FindConfigFile(configPath)
		if result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		result := FindConfigFile("/nonexistent/path/config.yaml")
		if result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})

	t.Run("returns empty when no config found", func(_ *testing.T) {
		result := FindConfigFile("")
		// This may or may not find a config depending on the system
		// Just ensure it doesn't panic
		_ = result
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	t.Run("XDGDataDir returns non-empty path", func(t *testing.T) {
		t.Parallel()

		dir := XDGDataDir()
		if dir == "" {
			t.Error("expected non-empty XDG data dir")
		}
	})

	t.Run("XDGConfigDir returns non-empty path", func(t *testing.T) {
		t.Parallel()

		dir := XDGConfigDir()
		if dir == "" {
			t.Error("expected non-empty XDG config dir")
		}
	})

	t.Run("XDGCacheDir returns non-empty path", func(t *testing.T) {
		t.Parallel()

		dir := XDGCacheDir()
		if dir == "" {
			t.Error("expected non-empty XDG cache dir")
		}
	})
}

// TestConfigAllFields tests that all Config fields can be set.
func TestConfigAllFields(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Queries:            []string{"query one", "query two"},
		SearchEndpoint:     "https://search.internal/results",
		ResultsPerPage:     20,
		Language:           "de",
		Headless:           false,
		BrowserInstances:   2,
		TabsPerBrowser:     5,
		Concurrency:        7,
		SolverURL:          "http://solver:5000",
		SolverKey:          "key",
		SolverTypes:        []string{"turnstile"},
		ExtensionPath:      "/opt/ext",
		ChallengeThreshold: 5,
		PollInterval:       2 * time.Second,
		PollAttempts:       10,
		SolveBudget:        time.Minute,
		RecoveryDelay:      3 * time.Second,
		UnresolvedDelay:    time.Second,
		MinPageDelay:       time.Second,
		MaxPageDelay:       2 * time.Second,
		NavigationTimeout:  20 * time.Second,
		WaitTimeout:        5 * time.Second,
		UserAgent:          "custom-agent",
		Verbose:            true,
		ConfigFilePath:     "/path/to/config",
		CSVFile:            "/path/to/out.csv",
		DBDir:              "/path/to/db",
		SaveToDB:           true,
		TableName:          "harvested",
		JSONReport:         true,
		ReportFile:         "/path/to/report.json",
	}

	if len(cfg.Queries) != 2 {
		t.Errorf("unexpected Queries")
	}
	if cfg.SearchEndpoint != "https://search.internal/results" {
		t.Errorf("unexpected SearchEndpoint")
	}
	if cfg.Concurrency != 7 {
		t.Errorf("unexpected Concurrency")
	}
	if cfg.EffectiveConcurrency() != 7 {
		t.Errorf("unexpected EffectiveConcurrency")
	}
	if !cfg.Verbose {
		t.Errorf("expected Verbose true")
	}
	if !cfg.SaveToDB {
		t.Errorf("expected SaveToDB true")
	}
	if !cfg.JSONReport {
		t.Errorf("expected JSONReport true")
	}
}
