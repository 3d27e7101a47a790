package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/nao1215/serpscan/internal/browser"
	"github.com/nao1215/serpscan/internal/challenge"
	"github.com/nao1215/serpscan/internal/config"
	"github.com/nao1215/serpscan/internal/database"
	"github.com/nao1215/serpscan/internal/extract"
	"github.com/nao1215/serpscan/internal/log"
	"github.com/nao1215/serpscan/internal/model"
	"github.com/nao1215/serpscan/internal/output"
	"github.com/nao1215/serpscan/internal/report"
	"github.com/nao1215/serpscan/internal/scheduler"
	"github.com/nao1215/serpscan/internal/session"
	"github.com/spf13/cobra"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [query...]",
		Short: "Run search queries and extract email addresses from the results",
		Long: `Scan runs each query in its own browser session, walks the result pages,
and extracts email addresses from them.

Every session starts from a fresh browsing context (no shared cookies or
cache), paginates until the results run out, and deduplicates addresses
within the session. Anti-automation challenges are detected on every page
and handed to the external solving service; a session that cannot clear
a challenge gives up after a configurable number of attempts.

Extracted addresses are appended to a CSV file as each batch of sessions
finishes. Pass --db to also store them in a local SQLite database.

Examples:
  # Run a single query
  serpscan scan "software engineer portfolio contact"

  # Run several queries concurrently
  serpscan scan "golang jobs berlin" "rust consulting" "site:github.io contact"

  # Read queries from a file, one per line
  serpscan scan --list queries.txt

  # Store results in the SQLite database as well as the CSV file
  serpscan scan --db "golang jobs berlin"

  # Watch the browser while it works
  serpscan scan --headless=false "golang jobs berlin"

  # Use a custom solving service
  serpscan scan --solver-url http://127.0.0.1:5000 -k 0123456789abcdef "golang jobs"

  # Write a Markdown report to a file
  serpscan scan -m -o report.md "golang jobs berlin"

Configuration file (.serpscan) example:
  queries:
    - "software engineer portfolio contact"
  solver:
    url: "http://127.0.0.1:5000"
    key: "0123456789abcdef"
  browser:
    headless: true
    tabs: 4
  output:
    csv: results.csv`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Query source
	cmd.Flags().StringP("list", "l", "",
		"Read queries from a file, one per line (blank lines and # comments skipped)")

	// Search behavior flags
	cmd.Flags().String("endpoint", config.DefaultSearchEndpoint,
		"Search endpoint URL")
	cmd.Flags().IntP("num", "n", config.DefaultResultsPerPage,
		"Results per page requested from the search endpoint")
	cmd.Flags().String("lang", config.DefaultLanguage,
		"Interface language as a BCP 47 tag (e.g. en, de, ja)")

	// Browser flags
	cmd.Flags().Bool("headless", true,
		"Run the browser headless (use --headless=false to watch sessions)")
	cmd.Flags().Int("instances", config.DefaultBrowserInstances,
		"Number of browser processes")
	cmd.Flags().Int("tabs", config.DefaultTabsPerBrowser,
		"Tab capacity of each browser process")
	cmd.Flags().IntP("concurrency", "b", 0,
		"Concurrent query sessions (0 derives instances x tabs)")
	cmd.Flags().String("extension", "",
		"Path to an unpacked challenge-solving extension to load into the browser")

	// Solving service flags
	cmd.Flags().String("solver-url", config.DefaultSolverURL,
		"Base URL of the external solving service")
	cmd.Flags().StringP("solver-key", "k", "",
		"Solving service API key")
	cmd.Flags().StringSlice("solver-type", nil,
		"Challenge types to try in order (e.g. recaptcha_v2,turnstile)")
	cmd.Flags().Int("threshold", config.DefaultChallengeThreshold,
		"Consecutive unresolved challenges before a session gives up")
	cmd.Flags().Duration("poll-interval", config.DefaultPollInterval,
		"Delay between solving service polls")
	cmd.Flags().Int("poll-attempts", config.DefaultPollAttempts,
		"Maximum solving service polls per challenge")
	cmd.Flags().Duration("solve-budget", config.DefaultSolveBudget,
		"Wall-clock budget for one solve attempt")

	// Persistence flags
	cmd.Flags().String("csv", config.DefaultCSVFile,
		"CSV file extracted addresses are appended to")
	cmd.Flags().String("db", "",
		"Store records in a SQLite database at this directory (bare --db uses the XDG data directory)")
	cmd.Flags().Lookup("db").NoOptDefVal = config.XDGDataDir()
	cmd.Flags().String("table", config.DefaultTableName,
		"Database table name")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .serpscan in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runScan(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from the configuration file and cobra flags.
// The file is applied first; flags changed on the command line win over it.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently keep the defaults when no file exists.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	flags := cmd.Flags()

	cfg.SearchEndpoint, err = flags.GetString("endpoint")
	if err != nil {
		return nil, err
	}

	cfg.ResultsPerPage, err = flags.GetInt("num")
	if err != nil {
		return nil, err
	}

	cfg.Language, err = flags.GetString("lang")
	if err != nil {
		return nil, err
	}

	cfg.ChallengeThreshold, err = flags.GetInt("threshold")
	if err != nil {
		return nil, err
	}

	cfg.PollInterval, err = flags.GetDuration("poll-interval")
	if err != nil {
		return nil, err
	}

	cfg.PollAttempts, err = flags.GetInt("poll-attempts")
	if err != nil {
		return nil, err
	}

	cfg.SolveBudget, err = flags.GetDuration("solve-budget")
	if err != nil {
		return nil, err
	}

	// Flags that overlap the configuration file only override when the
	// user actually set them, otherwise the flag default would stomp a
	// value the file supplied.
	if flags.Changed("headless") {
		cfg.Headless, err = flags.GetBool("headless")
		if err != nil {
			return nil, err
		}
	}
	if flags.Changed("instances") {
		cfg.BrowserInstances, err = flags.GetInt("instances")
		if err != nil {
			return nil, err
		}
	}
	if flags.Changed("tabs") {
		cfg.TabsPerBrowser, err = flags.GetInt("tabs")
		if err != nil {
			return nil, err
		}
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency, err = flags.GetInt("concurrency")
		if err != nil {
			return nil, err
		}
	}
	if flags.Changed("extension") {
		cfg.ExtensionPath, err = flags.GetString("extension")
		if err != nil {
			return nil, err
		}
	}
	if flags.Changed("solver-url") {
		cfg.SolverURL, err = flags.GetString("solver-url")
		if err != nil {
			return nil, err
		}
	}
	if flags.Changed("solver-key") {
		cfg.SolverKey, err = flags.GetString("solver-key")
		if err != nil {
			return nil, err
		}
	}
	if flags.Changed("solver-type") {
		cfg.SolverTypes, err = flags.GetStringSlice("solver-type")
		if err != nil {
			return nil, err
		}
	}
	if flags.Changed("csv") {
		cfg.CSVFile, err = flags.GetString("csv")
		if err != nil {
			return nil, err
		}
	}
	if flags.Changed("table") {
		cfg.TableName, err = flags.GetString("table")
		if err != nil {
			return nil, err
		}
	}
	if flags.Changed("db") {
		cfg.DBDir, err = flags.GetString("db")
		if err != nil {
			return nil, err
		}
		cfg.SaveToDB = true
	}

	cfg.JSONReport, err = flags.GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = flags.GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = flags.GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// Positional arguments win over the query file, which wins over the
	// configuration file.
	queryFile, err := flags.GetString("list")
	if err != nil {
		return nil, err
	}
	switch {
	case len(args) > 0:
		cfg.Queries = args
	case queryFile != "":
		cfg.Queries, err = readQueryFile(queryFile)
		if err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// readQueryFile reads one query per line. Blank lines and lines starting
// with # are skipped.
func readQueryFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open query file: %w", err)
	}
	defer f.Close()

	var queries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read query file: %w", err)
	}

	return queries, nil
}

// setupLogger creates a structured logger based on verbosity setting.
// Attribute values that look like credentials are redacted before output,
// so the solving service key never reaches the log stream.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewSecureLogger(os.Stderr, verbose)
}

// runScan executes the run.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting run",
		"queries", len(cfg.Queries),
		"concurrency", cfg.EffectiveConcurrency(),
		"headless", cfg.Headless,
		"saveToDB", cfg.SaveToDB,
	)

	// Losing the flat file silently would defeat the point of the run, so
	// a CSV sink that cannot open is a startup error.
	csvSink, err := output.NewCSVSink(cfg.CSVFile)
	if err != nil {
		return fmt.Errorf("failed to open CSV output: %w", err)
	}
	defer csvSink.Close()

	sinks := []session.Sink{csvSink}

	if cfg.SaveToDB {
		opts := database.DefaultOptions()
		opts.Table = cfg.TableName
		db, err := database.Open(cfg.DBDir, opts)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
		sinks = append(sinks, db)
	}

	// One Chrome process serves every session. Isolation comes from
	// per-session browsing contexts, not separate processes.
	engineOpts := []browser.EngineOption{
		browser.WithHeadless(cfg.Headless),
		browser.WithUserAgent(cfg.UserAgent),
		browser.WithLanguage(cfg.Language),
		browser.WithNavigationTimeout(cfg.NavigationTimeout),
		browser.WithWaitTimeout(cfg.WaitTimeout),
		browser.WithEngineLogger(logger),
	}
	if cfg.ExtensionPath != "" {
		engineOpts = append(engineOpts, browser.WithExtension(cfg.ExtensionPath))
	}

	engine, err := browser.NewEngine(ctx, engineOpts...)
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Error("failed to close browser", "error", err)
		}
	}()

	detector := challenge.NewDetector(logger)
	client := challenge.NewClient(cfg.SolverURL, cfg.SolverKey,
		challenge.WithClientLogger(logger))

	resolverOpts := []challenge.ResolverOption{
		challenge.WithResolverLogger(logger),
		challenge.WithPollInterval(cfg.PollInterval),
		challenge.WithPollAttempts(cfg.PollAttempts),
		challenge.WithSolveBudget(cfg.SolveBudget),
	}
	if len(cfg.SolverTypes) > 0 {
		resolverOpts = append(resolverOpts, challenge.WithTypes(cfg.SolverTypes))
	}
	if cfg.ExtensionPath != "" {
		// A loaded extension solves in-page; give it the same budget the
		// service-backed path gets before falling through.
		resolverOpts = append(resolverOpts, challenge.WithExtensionSolver(cfg.SolveBudget))
	}
	resolver := challenge.NewResolver(client, resolverOpts...)

	pager := session.NewPaginator(
		session.WithPageDelayRange(cfg.MinPageDelay, cfg.MaxPageDelay),
		session.WithPaginatorLogger(logger),
	)

	controller := session.NewController(detector, resolver, extract.NewExtractor(), pager,
		session.WithSinks(sinks...),
		session.WithControllerLogger(logger),
		session.WithSearchEndpoint(cfg.SearchEndpoint),
		session.WithResultsPerPage(cfg.ResultsPerPage),
		session.WithLanguage(cfg.Language),
		session.WithChallengeThreshold(cfg.ChallengeThreshold),
		session.WithRecoveryDelay(cfg.RecoveryDelay),
		session.WithUnresolvedDelay(cfg.UnresolvedDelay),
	)

	runner := session.NewRunner(engine, controller, logger)

	sched := scheduler.New(runner,
		scheduler.WithConcurrency(cfg.EffectiveConcurrency()),
		scheduler.WithLogger(logger),
	)

	fmt.Printf("Running %d queries (concurrency: %d)...\n\n",
		len(cfg.Queries), cfg.EffectiveConcurrency())

	startTime := time.Now()

	// Stream per-query results as batches complete
	var mu sync.Mutex
	run := sched.RunWithCallback(ctx, cfg.Queries, func(qr *model.QueryReport, index int) {
		mu.Lock()
		defer mu.Unlock()

		fmt.Printf("[%d/%d] %s %q: %d records, %d pages\n",
			index+1, len(cfg.Queries), qr.Outcome, qr.Query,
			len(qr.Records), qr.PagesVisited)
	})

	elapsed := time.Since(startTime)
	fmt.Printf("\nRun completed in %s\n\n", elapsed.Round(time.Millisecond))

	return outputReport(cfg, run)
}

// outputReport outputs the run report in the requested format.
func outputReport(cfg *config.Config, run *model.RunReport) error {
	// Determine output destination
	var out *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports list harvested addresses, so keep them owner-readable only
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	} else {
		out = os.Stdout
	}

	// JSON output (full report with every record)
	if cfg.JSONReport {
		writer := report.NewJSONWriter(out, report.WithPrettyPrint())
		_, err := writer.Write(run)
		return err
	}

	// Markdown output
	if cfg.MarkdownReport {
		writer := report.NewMarkdownWriter(out)
		_, err := writer.Write(run)
		return err
	}

	// Human-readable report (default)
	writer := report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	_, err := writer.Write(run)
	return err
}
