package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"time"

	"github.com/nao1215/serpscan/internal/browser"
)

// nextSelectors are the known next-page affordances, most common first.
// The result page has shipped several shapes of pagination over time and
// A/B tests between them.
var nextSelectors = []string{
	`#pnnext`,
	`a[aria-label="Next page"]`,
	`a[id^="pnnext"]`,
	`table#nav td:last-child a`,
}

// resultsSelector is the container that reappears once a results page has
// rendered.
const resultsSelector = `#search, #rso, #main`

// Paginator locates and activates the next-page affordance. It satisfies
// Pager.
type Paginator struct {
	logger *slog.Logger

	// minDelay and maxDelay bound the randomized pauses around a click.
	// Regular robotic timing is itself a detection signal.
	minDelay time.Duration
	maxDelay time.Duration
}

// PaginatorOption configures a Paginator.
type PaginatorOption func(*Paginator)

// WithPageDelayRange bounds the randomized pauses around pagination.
func WithPageDelayRange(min, max time.Duration) PaginatorOption {
	return func(p *Paginator) {
		p.minDelay = min
		p.maxDelay = max
	}
}

// WithPaginatorLogger sets the logger for pagination events.
func WithPaginatorLogger(logger *slog.Logger) PaginatorOption {
	return func(p *Paginator) {
		p.logger = logger
	}
}

// NewPaginator creates a Paginator.
func NewPaginator(opts ...PaginatorOption) *Paginator {
	p := &Paginator{
		logger:   slog.Default(),
		minDelay: 800 * time.Millisecond,
		maxDelay: 2400 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Advance finds the first present next-page affordance and activates it.
// Once a selector has matched, Advance reports true no matter how the
// click or the wait for the next page goes; the session's detection pass
// sorts out the page that actually loaded. Reports false only when no
// selector matched anything.
func (p *Paginator) Advance(ctx context.Context, page browser.Page) bool {
	for _, sel := range nextSelectors {
		ok, err := page.Exists(ctx, sel)
		if err != nil {
			p.logger.Debug("next-page probe failed", "selector", sel, "error", err)
			continue
		}
		if !ok {
			continue
		}

		if err := page.ScrollIntoView(ctx, sel); err != nil {
			p.logger.Debug("scroll to next-page control failed", "selector", sel, "error", err)
		}
		p.pause(ctx)

		if err := page.Click(ctx, sel); err != nil {
			p.logger.Debug("engine click failed, using script click", "selector", sel, "error", err)
			var clicked bool
			if err := page.Evaluate(ctx, clickScript(sel), &clicked); err != nil || !clicked {
				p.logger.Debug("script click failed", "selector", sel, "error", err)
			}
		}

		if err := page.WaitReady(ctx, resultsSelector); err != nil {
			p.logger.Debug("results container did not reappear", "error", err)
		}
		p.pause(ctx)
		return true
	}
	return false
}

// pause sleeps a randomized delay within the configured bounds.
func (p *Paginator) pause(ctx context.Context) {
	_ = sleepCtx(ctx, randomDelay(p.minDelay, p.maxDelay))
}

// randomDelay picks a duration in [min, max]. A degenerate range collapses
// to min.
func randomDelay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)+1))
}

// clickScript clicks the first match without waiting for visibility.
func clickScript(selector string) string {
	lit, err := json.Marshal(selector)
	if err != nil {
		lit = []byte(`""`)
	}
	return `(() => {
	const el = document.querySelector(` + string(lit) + `);
	if (!el) { return false; }
	el.click();
	return true;
})()`
}
