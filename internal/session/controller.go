package session

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/nao1215/serpscan/internal/browser"
	"github.com/nao1215/serpscan/internal/challenge"
	"github.com/nao1215/serpscan/internal/model"
)

// Detector classifies the current page. A nil detection means clear.
type Detector interface {
	Detect(ctx context.Context, page browser.Page) (*challenge.Detection, error)
}

// Resolver attempts to clear a detected challenge and reports whether the
// page should be treated as cleared.
type Resolver interface {
	Resolve(ctx context.Context, page browser.Page, det *challenge.Detection) bool
}

// Extractor pulls identities out of a serialized document.
type Extractor interface {
	FromHTML(src string) ([]string, error)
}

// Pager advances to the next results page. Reports false only when no
// next-page affordance exists.
type Pager interface {
	Advance(ctx context.Context, page browser.Page) bool
}

// Sink receives freshly extracted records. Implementations must tolerate
// concurrent calls from multiple sessions; failures are logged by the
// caller and never stop a session.
type Sink interface {
	Append(ctx context.Context, records []model.Record) error
}

// Controller drives one query session through its state machine.
// A single Controller is safe to share across sessions: all mutable state
// lives in the per-run session state.
type Controller struct {
	detector  Detector
	resolver  Resolver
	extractor Extractor
	pager     Pager
	sinks     []Sink
	logger    *slog.Logger

	// searchEndpoint, resultsPerPage, and language form the results URL.
	searchEndpoint string
	resultsPerPage int
	language       string

	// challengeThreshold is how many consecutive unresolved challenge
	// iterations a session tolerates before it is blocked.
	challengeThreshold int

	// recoveryDelay runs after a resolved challenge, before extraction.
	recoveryDelay time.Duration

	// unresolvedDelay paces iterations that leave a challenge standing.
	unresolvedDelay time.Duration
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithSinks sets the persistence collaborators records are handed to.
func WithSinks(sinks ...Sink) ControllerOption {
	return func(c *Controller) {
		c.sinks = sinks
	}
}

// WithControllerLogger sets the logger for session events.
func WithControllerLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithSearchEndpoint sets the results page endpoint.
func WithSearchEndpoint(endpoint string) ControllerOption {
	return func(c *Controller) {
		c.searchEndpoint = endpoint
	}
}

// WithResultsPerPage sets the num parameter of the results URL.
func WithResultsPerPage(n int) ControllerOption {
	return func(c *Controller) {
		c.resultsPerPage = n
	}
}

// WithLanguage sets the hl parameter of the results URL.
func WithLanguage(lang string) ControllerOption {
	return func(c *Controller) {
		c.language = lang
	}
}

// WithChallengeThreshold sets how many consecutive unresolved challenge
// iterations block a query.
func WithChallengeThreshold(n int) ControllerOption {
	return func(c *Controller) {
		c.challengeThreshold = n
	}
}

// WithRecoveryDelay sets the pause between a resolved challenge and the
// next extraction.
func WithRecoveryDelay(d time.Duration) ControllerOption {
	return func(c *Controller) {
		c.recoveryDelay = d
	}
}

// WithUnresolvedDelay sets the pause before re-detecting a challenge that
// stayed unresolved.
func WithUnresolvedDelay(d time.Duration) ControllerOption {
	return func(c *Controller) {
		c.unresolvedDelay = d
	}
}

// NewController creates a Controller over the given collaborators.
func NewController(detector Detector, resolver Resolver, extractor Extractor, pager Pager, opts ...ControllerOption) *Controller {
	c := &Controller{
		detector:           detector,
		resolver:           resolver,
		extractor:          extractor,
		pager:              pager,
		logger:             slog.Default(),
		searchEndpoint:     "https://www.google.com/search",
		resultsPerPage:     10,
		language:           "en",
		challengeThreshold: 3,
		recoveryDelay:      2 * time.Second,
		unresolvedDelay:    2 * time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Run executes the session loop for one query on the given page and
// returns the query's report. The page is always closed before Run
// returns, on every exit path.
func (c *Controller) Run(ctx context.Context, query string, page browser.Page) *model.QueryReport {
	report := model.NewQueryReport(query)
	st := newState(query)

	defer func() {
		if err := page.Close(); err != nil {
			c.logger.Warn("page close failed", "query", query, "error", err)
		}
	}()

	c.logger.Info("session started", "query", query)

	if err := page.Navigate(ctx, c.searchURL(query)); err != nil {
		// The loop re-detects against whatever state the page is in.
		c.logger.Warn("initial navigation failed", "query", query, "error", err)
	}

	for {
		if ctx.Err() != nil {
			report.Finish(model.OutcomeAborted)
			c.logger.Warn("session aborted", "query", query, "pages", report.PagesVisited)
			return report
		}

		det, err := c.detector.Detect(ctx, page)
		if err != nil {
			c.logger.Warn("detection failed", "query", query, "error", err)
			_ = sleepCtx(ctx, c.unresolvedDelay)
			continue
		}

		resolved := false
		if det != nil {
			c.logger.Info("challenge on page", "query", query, "kind", det.Kind.String())
			resolved = c.resolver.Resolve(ctx, page, det)
			if resolved {
				report.ChallengesResolved++
				st.unresolved = 0
				if err := sleepCtx(ctx, c.recoveryDelay); err != nil {
					continue
				}
			} else {
				report.ChallengesUnresolved++
				st.unresolved++
			}
		} else {
			st.unresolved = 0
		}

		// Extraction runs on every pass. Even an unresolved challenge page
		// may carry partial content.
		c.extract(ctx, page, st, report)
		if det == nil || resolved {
			report.PagesVisited++
		}

		if st.unresolved >= c.challengeThreshold {
			c.logger.Warn("query blocked by repeated challenges",
				"query", query, "consecutive_unresolved", st.unresolved)
			report.Finish(model.OutcomeBlocked)
			return report
		}
		if det != nil && !resolved {
			// The challenge still stands; back off and re-detect instead
			// of paginating past it.
			_ = sleepCtx(ctx, c.unresolvedDelay)
			continue
		}

		if !c.pager.Advance(ctx, page) {
			c.logger.Info("results exhausted",
				"query", query, "pages", report.PagesVisited, "records", len(report.Records))
			report.Finish(model.OutcomeExhausted)
			return report
		}
	}
}

// extract reads the page, filters identities through the seen-set, and
// hands fresh records to every sink. The seen-set is updated before the
// handoff, so a sink failure can never cause a duplicate emission.
func (c *Controller) extract(ctx context.Context, page browser.Page, st *state, report *model.QueryReport) {
	src, err := page.HTML(ctx)
	if err != nil {
		c.logger.Warn("page read failed", "query", st.query, "error", err)
		return
	}

	identities, err := c.extractor.FromHTML(src)
	if err != nil {
		c.logger.Warn("extraction failed", "query", st.query, "error", err)
		return
	}

	now := time.Now()
	fresh := make([]model.Record, 0, len(identities))
	for _, identity := range identities {
		if st.seen[identity] {
			continue
		}
		st.seen[identity] = true

		rec := model.NewRecord(identity, st.query, now)
		report.AddRecord(rec)
		fresh = append(fresh, rec)
	}
	if len(fresh) == 0 {
		return
	}

	c.logger.Info("records extracted",
		"query", st.query, "new", len(fresh), "total", len(st.seen))
	for _, sink := range c.sinks {
		if err := sink.Append(ctx, fresh); err != nil {
			c.logger.Warn("persistence write failed", "query", st.query, "error", err)
		}
	}
}

// searchURL builds the results URL for a query.
func (c *Controller) searchURL(query string) string {
	q := url.Values{}
	q.Set("q", query)
	q.Set("num", strconv.Itoa(c.resultsPerPage))
	q.Set("hl", c.language)
	return c.searchEndpoint + "?" + q.Encode()
}

// sleepCtx waits for d unless ctx ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
