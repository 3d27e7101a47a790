package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/serpscan/internal/model"
	"golang.org/x/sync/errgroup"
)

// Runner executes a single query session to completion.
// Implementations never return an error: every failure mode is folded into
// the report's outcome and Error field, so one bad query can never abort
// the rest of a batch.
type Runner interface {
	// Run drives one query until it reaches a terminal state and reports
	// how it ended.
	Run(ctx context.Context, query string) *model.QueryReport
}

// Scheduler handles concurrent execution of query sessions.
// It uses errgroup to manage goroutines within each batch.
//
// Design decision: We keep the Scheduler separate from the session package
// because:
// 1. It keeps sessions focused on single-query execution
// 2. It allows different scheduling strategies without touching sessions
// 3. It provides cleaner separation of concerns
type Scheduler struct {
	// runner executes one query session. We take an interface rather than
	// a concrete controller so tests can substitute instant runners.
	runner Runner

	// concurrency is the batch size and therefore the maximum number of
	// sessions in flight at any moment.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// reports stores completed query reports in input order.
	// Access is synchronized via mutex.
	reports []*model.QueryReport
	mu      sync.Mutex
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets a custom logger for batch scheduling.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithConcurrency sets the batch size.
// Default is 4 if not specified. Non-positive values are ignored.
func WithConcurrency(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// New creates a Scheduler that executes sessions through the given runner.
func New(runner Runner, opts ...Option) *Scheduler {
	s := &Scheduler{
		runner:      runner,
		concurrency: 4,
		reports:     make([]*model.QueryReport, 0),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Run executes all queries and returns the assembled run report.
// Queries are processed in consecutive batches of the configured size;
// every session in a batch reaches a terminal state before the next batch
// starts. The run report holds exactly one query report per input query,
// in input order.
func (s *Scheduler) Run(ctx context.Context, queries []string) *model.RunReport {
	return s.RunWithCallback(ctx, queries, nil)
}

// RunWithCallback executes all queries and invokes callback as each
// session completes. This is useful for streaming progress to a terminal.
//
// The callback receives the report and the index of the query in the
// original slice. It is called from the goroutine that completed the
// session, so it must be safe for concurrent use if it touches shared
// state. A nil callback is allowed.
func (s *Scheduler) RunWithCallback(
	ctx context.Context,
	queries []string,
	callback func(report *model.QueryReport, index int),
) *model.RunReport {
	s.logger.Info("starting run",
		"total_queries", len(queries),
		"concurrency", s.concurrency,
	)

	startTime := time.Now()
	run := model.NewRunReport()

	// Pre-allocate to maintain input order regardless of completion order.
	s.reports = make([]*model.QueryReport, len(queries))

	for start := 0; start < len(queries); start += s.concurrency {
		end := start + s.concurrency
		if end > len(queries) {
			end = len(queries)
		}

		// Cancellation is observed at batch boundaries. Sessions already
		// in flight honor the context themselves and report aborted.
		if ctx.Err() != nil {
			s.logger.Warn("run cancelled, skipping remaining queries",
				"remaining", len(queries)-start,
			)
			s.abortRemaining(queries, start, callback)
			break
		}

		s.logger.Info("starting batch",
			"from", start+1,
			"to", end,
			"total_queries", len(queries),
		)

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				s.logger.Info("running query session",
					"query", queries[i],
					"index", i+1,
					"total", len(queries),
				)

				report := s.runner.Run(gctx, queries[i])

				s.mu.Lock()
				s.reports[i] = report
				s.mu.Unlock()

				if callback != nil {
					callback(report, i)
				}
				return nil
			})
		}

		// The join barrier: the whole batch terminates before the next
		// batch opens any pages.
		_ = g.Wait() //nolint:errcheck // Session runners never return errors
	}

	run.Queries = s.reports
	run.Finish()

	s.logger.Info("run complete",
		"total_queries", len(queries),
		"records", run.TotalRecords(),
		"elapsed", time.Since(startTime),
	)

	return run
}

// abortRemaining fills report slots for queries whose batch never started.
// This keeps the one-report-per-query shape of the run report even when
// the run is cut short.
func (s *Scheduler) abortRemaining(queries []string, from int, callback func(report *model.QueryReport, index int)) {
	for i := from; i < len(queries); i++ {
		report := model.NewQueryReport(queries[i])
		report.Finish(model.OutcomeAborted)

		s.mu.Lock()
		s.reports[i] = report
		s.mu.Unlock()

		if callback != nil {
			callback(report, i)
		}
	}
}
