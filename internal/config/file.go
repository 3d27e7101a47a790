package config

// SolverSection holds the solving-service options of the configuration file.
type SolverSection struct {
	// URL is the base URL of the external solving service.
	URL string `yaml:"url,omitempty"`

	// Key is the solving-service credential.
	Key string `yaml:"key,omitempty"`

	// Types is the challenge-type priority list. Empty uses the resolver's
	// built-in order.
	Types []string `yaml:"types,omitempty"`
}

// BrowserSection holds the browser options of the configuration file.
type BrowserSection struct {
	// Headless controls whether the browser runs without a visible window.
	// Absent means keep the default (true); a pointer distinguishes an
	// explicit false from an unset value.
	Headless *bool `yaml:"headless,omitempty"`

	// Instances is the number of browser processes to launch.
	Instances int `yaml:"instances,omitempty"`

	// Tabs is the tab capacity of each browser process.
	Tabs int `yaml:"tabs,omitempty"`

	// Concurrency is the session concurrency ceiling. Zero derives it
	// from instances * tabs.
	Concurrency int `yaml:"concurrency,omitempty"`

	// Extension is the path to an unpacked challenge-solving extension.
	Extension string `yaml:"extension,omitempty"`
}

// OutputSection holds the output options of the configuration file.
type OutputSection struct {
	// CSV is the flat-file output path for extracted records.
	CSV string `yaml:"csv,omitempty"`

	// Table is the database table records are inserted into.
	Table string `yaml:"table,omitempty"`

	// Database is the directory the SQLite database lives in. Setting it
	// enables database persistence.
	Database string `yaml:"database,omitempty"`
}

// File represents the structure of the .serpscan configuration file.
//
// Example:
//
//	queries:
//	  - "software engineer portfolio contact"
//	solver:
//	  url: "http://127.0.0.1:5000"
//	  key: "0123456789abcdef"
//	browser:
//	  headless: true
//	  instances: 1
//	  tabs: 4
//	output:
//	  csv: results.csv
//	  table: emails
type File struct {
	// Queries is the search query list. Positional CLI arguments take
	// precedence over this list.
	Queries []string `yaml:"queries,omitempty"`

	// Solver configures the external solving service.
	Solver SolverSection `yaml:"solver,omitempty"`

	// Browser configures the browser pool.
	Browser BrowserSection `yaml:"browser,omitempty"`

	// Output configures the persistence collaborators.
	Output OutputSection `yaml:"output,omitempty"`
}

// Apply overlays the file's values onto cfg.
// Only values present in the file override cfg; absent values leave the
// defaults in place. CLI flags are applied after the file and therefore
// win over both.
func (f *File) Apply(cfg *Config) {
	if len(f.Queries) > 0 {
		cfg.Queries = append([]string(nil), f.Queries...)
	}

	if f.Solver.URL != "" {
		cfg.SolverURL = f.Solver.URL
	}
	if f.Solver.Key != "" {
		cfg.SolverKey = f.Solver.Key
	}
	if len(f.Solver.Types) > 0 {
		cfg.SolverTypes = append([]string(nil), f.Solver.Types...)
	}

	if f.Browser.Headless != nil {
		cfg.Headless = *f.Browser.Headless
	}
	if f.Browser.Instances > 0 {
		cfg.BrowserInstances = f.Browser.Instances
	}
	if f.Browser.Tabs > 0 {
		cfg.TabsPerBrowser = f.Browser.Tabs
	}
	if f.Browser.Concurrency > 0 {
		cfg.Concurrency = f.Browser.Concurrency
	}
	if f.Browser.Extension != "" {
		cfg.ExtensionPath = f.Browser.Extension
	}

	if f.Output.CSV != "" {
		cfg.CSVFile = f.Output.CSV
	}
	if f.Output.Table != "" {
		cfg.TableName = f.Output.Table
	}
	if f.Output.Database != "" {
		cfg.DBDir = f.Output.Database
		cfg.SaveToDB = true
	}
}
