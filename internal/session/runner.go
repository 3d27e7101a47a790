package session

import (
	"context"
	"log/slog"

	"github.com/nao1215/serpscan/internal/browser"
	"github.com/nao1215/serpscan/internal/model"
)

// PageOpener creates an isolated page for one session.
// The browser Engine satisfies it; tests substitute stub openers.
type PageOpener interface {
	NewPage(ctx context.Context) (browser.Page, error)
}

// Runner binds a controller to a page source so the scheduler can execute
// sessions without knowing about browser wiring. Each Run opens a fresh
// isolated page, hands it to the controller, and the controller closes it.
type Runner struct {
	opener     PageOpener
	controller *Controller
	logger     *slog.Logger
}

// NewRunner creates a Runner that opens pages from the given opener and
// drives them with the given controller.
func NewRunner(opener PageOpener, controller *Controller, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		opener:     opener,
		controller: controller,
		logger:     logger,
	}
}

// Run opens a page and executes one query session on it.
// A page that cannot be opened fails only this query: the report carries
// the error and the unknown outcome, and the other sessions of the batch
// are untouched.
func (r *Runner) Run(ctx context.Context, query string) *model.QueryReport {
	page, err := r.opener.NewPage(ctx)
	if err != nil {
		r.logger.Error("cannot open page for session",
			"query", query,
			"error", err,
		)
		report := model.NewQueryReport(query)
		report.Error = err.Error()
		report.Finish(model.OutcomeUnknown)
		return report
	}

	return r.controller.Run(ctx, query, page)
}
