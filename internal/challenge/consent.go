package challenge

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/serpscan/internal/browser"
)

// defaultConsentSelectors are known agree/accept controls on consent
// interstitials, most specific first.
var defaultConsentSelectors = []string{
	`#L2AGLb`,
	`#introAgreeButton`,
	`button[aria-label="Accept all"]`,
	`button[aria-label="Agree"]`,
	`form[action*="consent"] button`,
}

// directClickScript clicks the first match without waiting for visibility.
// Returns false when the selector matches nothing.
func directClickScript(selector string) string {
	return `(() => {
	const el = document.querySelector(` + jsString(selector) + `);
	if (!el) { return false; }
	el.click();
	return true;
})()`
}

// ConsentAcceptor clicks through consent interstitials. It never errors
// outward; every per-selector failure is swallowed and the next candidate
// tried.
type ConsentAcceptor struct {
	logger    *slog.Logger
	selectors []string

	// settle is how long a click gets to move the page before the URL is
	// re-checked.
	settle time.Duration
}

// NewConsentAcceptor creates a ConsentAcceptor with the default selector
// list. A nil logger falls back to the default.
func NewConsentAcceptor(logger *slog.Logger) *ConsentAcceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsentAcceptor{
		logger:    logger,
		selectors: defaultConsentSelectors,
		settle:    1500 * time.Millisecond,
	}
}

// Accept tries each selector until one moves the page off the consent
// location. Reports whether the page cleared.
func (a *ConsentAcceptor) Accept(ctx context.Context, page browser.Page) bool {
	for _, sel := range a.selectors {
		var clicked bool
		if err := page.Evaluate(ctx, directClickScript(sel), &clicked); err != nil || !clicked {
			// Direct click failed or found nothing; try the engine's own
			// click, which waits for the element to be visible.
			if err := page.Click(ctx, sel); err != nil {
				continue
			}
		}

		if err := sleepCtx(ctx, a.settle); err != nil {
			return false
		}

		after, err := page.URL(ctx)
		if err != nil {
			continue
		}
		if !isConsentURL(after) {
			a.logger.Info("consent accepted", "selector", sel)
			return true
		}
	}

	after, err := page.URL(ctx)
	if err != nil {
		return false
	}
	return !isConsentURL(after)
}
