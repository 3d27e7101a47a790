package challenge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/nao1215/serpscan/internal/browser"
)

// Solver wire types. These are the values the solving service accepts in
// the type field; detection hints and configuration both use them.
const (
	TypeRecaptchaV2 = "recaptcha_v2"
	TypeRecaptchaV3 = "recaptcha_v3"
	TypeHCaptcha    = "hcaptcha"
	TypeTurnstile   = "turnstile"
)

// v3Action is the action parameter sent with v3-style solve requests.
const v3Action = "verify"

// defaultTypeOrder is tried when detection produced no hint. The
// interactive v2 variant is by far the most common on result pages, so it
// goes first.
var defaultTypeOrder = []string{TypeRecaptchaV2, TypeRecaptchaV3, TypeHCaptcha, TypeTurnstile}

// Resolver clears detected challenges through the external solving
// service. A Resolver never fails a session: every outcome collapses to a
// solved/unsolved bool and the session's own rules decide what that means.
type Resolver struct {
	// client is nil when no solving credential is configured; all
	// challenges then resolve to unsolved.
	client *Client

	logger *slog.Logger

	// types is the candidate order tried when detection gave no hint.
	types []string

	// pollInterval and pollAttempts bound the ticket polling loop.
	pollInterval time.Duration
	pollAttempts int

	// solveBudget is the wall-clock ceiling across all type attempts.
	solveBudget time.Duration

	// rateLimitDelay is the backoff after a 429 from the service.
	rateLimitDelay time.Duration

	// extension marks that a browser-extension solver is configured.
	// Its work cannot be observed, so the resolver only waits for it.
	extension     bool
	extensionWait time.Duration
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverLogger sets the logger for resolution events.
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithTypes sets the candidate challenge types tried when detection gave
// no hint. An empty list keeps the built-in order.
func WithTypes(types []string) ResolverOption {
	return func(r *Resolver) {
		if len(types) > 0 {
			r.types = types
		}
	}
}

// WithPollInterval sets the delay between ticket polls.
func WithPollInterval(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.pollInterval = d
	}
}

// WithPollAttempts sets how many times a ticket is polled before giving up.
func WithPollAttempts(n int) ResolverOption {
	return func(r *Resolver) {
		r.pollAttempts = n
	}
}

// WithSolveBudget sets the wall-clock ceiling for one resolution attempt
// across all candidate types.
func WithSolveBudget(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.solveBudget = d
	}
}

// WithRateLimitDelay sets the backoff after the service returns 429.
func WithRateLimitDelay(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.rateLimitDelay = d
	}
}

// WithExtensionSolver marks that an extension-based solver is loaded in
// the browser and sets how long to wait for it when no sitekey could be
// recovered.
func WithExtensionSolver(wait time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.extension = true
		if wait > 0 {
			r.extensionWait = wait
		}
	}
}

// NewResolver creates a Resolver. A nil client means no solving credential
// is configured.
func NewResolver(client *Client, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		client:         client,
		logger:         slog.Default(),
		types:          defaultTypeOrder,
		pollInterval:   1500 * time.Millisecond,
		pollAttempts:   20,
		solveBudget:    45 * time.Second,
		rateLimitDelay: time.Second,
		extensionWait:  5 * time.Second,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve attempts to clear a detected challenge. Reports whether the page
// should be treated as cleared; the session re-detects on its next pass
// either way.
func (r *Resolver) Resolve(ctx context.Context, page browser.Page, det *Detection) bool {
	if det == nil {
		return true
	}
	if det.Kind == KindConsent {
		// Consent walls are cleared inside detection; one that survived
		// acceptance has nothing a token can fix.
		return false
	}

	if det.Sitekey == "" && r.extension {
		// The extension acts on its own and its success cannot be
		// observed. Give it time, then report unsolved so the next
		// detection pass settles the question.
		r.logger.Info("no sitekey recovered, waiting on extension solver", "url", det.PageURL)
		if err := sleepCtx(ctx, r.extensionWait); err != nil {
			return false
		}
		return false
	}
	if r.client == nil {
		r.logger.Warn("challenge present but no solver credential configured", "url", det.PageURL)
		return false
	}
	if det.Sitekey == "" {
		r.logger.Warn("challenge sitekey not recoverable, cannot request solve", "url", det.PageURL)
		return false
	}

	token, typ := r.obtainToken(ctx, det)
	if token == "" {
		return false
	}

	if err := r.inject(ctx, page, det, typ, token); err != nil {
		// A token was obtained; if resubmission silently failed the next
		// detection pass will find the challenge again.
		r.logger.Warn("token injection failed", "url", det.PageURL, "error", err)
	}
	return true
}

// obtainToken walks the candidate types until one yields a token.
func (r *Resolver) obtainToken(ctx context.Context, det *Detection) (token, typ string) {
	deadline := time.Now().Add(r.solveBudget)

	for _, candidate := range r.candidateTypes(det.TypeHint) {
		if time.Now().After(deadline) {
			r.logger.Warn("solve budget exhausted", "url", det.PageURL)
			return "", ""
		}

		token, err := r.solveType(ctx, det, candidate)
		switch {
		case errors.Is(err, ErrUnsupportedType):
			r.logger.Debug("challenge type rejected by solver", "type", candidate)
			continue
		case err != nil:
			r.logger.Warn("solve attempt failed", "type", candidate, "error", err)
			continue
		}

		r.logger.Info("challenge token obtained", "type", candidate)
		return token, candidate
	}
	return "", ""
}

// candidateTypes orders the attempts: the detection hint first when
// present, then the configured fallback sequence minus the hint.
func (r *Resolver) candidateTypes(hint string) []string {
	if hint == "" {
		return r.types
	}
	out := make([]string, 0, len(r.types)+1)
	out = append(out, hint)
	for _, t := range r.types {
		if t != hint {
			out = append(out, t)
		}
	}
	return out
}

// solveType runs one submit, backing off once on rate limiting, and polls
// when the service answered with a ticket instead of a token.
func (r *Resolver) solveType(ctx context.Context, det *Detection, typ string) (string, error) {
	data := ""
	if typ == TypeRecaptchaV3 {
		data = v3Action
	}

	resp, err := r.client.Submit(ctx, typ, det.Sitekey, det.PageURL, data)
	if errors.Is(err, ErrRateLimited) {
		if err := sleepCtx(ctx, r.rateLimitDelay); err != nil {
			return "", err
		}
		resp, err = r.client.Submit(ctx, typ, det.Sitekey, det.PageURL, data)
	}
	if err != nil {
		return "", err
	}

	if resp.Token != "" {
		return resp.Token, nil
	}
	ticket := resp.Ticket()
	if ticket == "" {
		return "", fmt.Errorf("challenge: solver returned neither token nor ticket")
	}
	return r.poll(ctx, ticket)
}

// poll waits for the ticket's answer at a fixed interval.
func (r *Resolver) poll(ctx context.Context, ticket string) (string, error) {
	for attempt := 0; attempt < r.pollAttempts; attempt++ {
		if err := sleepCtx(ctx, r.pollInterval); err != nil {
			return "", err
		}

		token, err := r.client.Poll(ctx, ticket)
		switch {
		case errors.Is(err, ErrNotReady):
			continue
		case errors.Is(err, ErrRateLimited):
			if err := sleepCtx(ctx, r.rateLimitDelay); err != nil {
				return "", err
			}
			continue
		case err != nil:
			return "", err
		}
		return token, nil
	}
	return "", fmt.Errorf("challenge: no solve result after %d polls", r.pollAttempts)
}

// inject plants the token in the page's response-carrier field and
// triggers re-validation.
func (r *Resolver) inject(ctx context.Context, page browser.Page, det *Detection, typ, token string) error {
	var planted bool
	if err := page.Evaluate(ctx, injectTokenScript(typ, token), &planted); err != nil {
		return fmt.Errorf("inject token: %w", err)
	}

	if err := r.revalidate(ctx, page, det); err != nil {
		return fmt.Errorf("revalidate: %w", err)
	}
	return nil
}

// revalidate makes the page re-check the planted token: submit an existing
// form when there is one, otherwise navigate back to the original
// destination embedded in the interstitial URL, otherwise reload.
func (r *Resolver) revalidate(ctx context.Context, page browser.Page, det *Detection) error {
	var submitted bool
	if err := page.Evaluate(ctx, submitFormScript, &submitted); err == nil && submitted {
		return page.WaitReady(ctx, "body")
	}

	if target := continueURL(det.PageURL); target != "" {
		return page.Navigate(ctx, target)
	}
	return page.Reload(ctx)
}

// submitFormScript submits the challenge form when one exists.
const submitFormScript = `(() => {
	const form = document.querySelector('form#captcha-form, form[action*="sorry"], form');
	if (!form) { return false; }
	form.submit();
	return true;
})()`

// responseFieldFor maps a solver type to the hidden field page scripts
// read the proof from.
func responseFieldFor(typ string) string {
	switch typ {
	case TypeHCaptcha:
		return "h-captcha-response"
	case TypeTurnstile:
		return "cf-turnstile-response"
	default:
		return "g-recaptcha-response"
	}
}

// injectTokenScript writes the token into the response-carrier field,
// creating it inside the challenge form when missing, and dispatches a
// change event so page scripts observe the value.
func injectTokenScript(typ, token string) string {
	field := responseFieldFor(typ)
	return `(() => {
	const name = ` + jsString(field) + `;
	let el = document.querySelector('textarea[name="' + name + '"], input[name="' + name + '"], #' + name);
	if (!el) {
		el = document.createElement('textarea');
		el.name = name;
		el.id = name;
		el.style.display = 'none';
		const form = document.querySelector('form');
		(form || document.body).appendChild(el);
	}
	el.value = ` + jsString(token) + `;
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
})()`
}

// continueURL pulls the original destination out of an interstitial URL,
// where it travels as the continue query parameter.
func continueURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("continue")
}

// jsString encodes s as a JavaScript string literal. JSON encoding is
// valid JavaScript and escapes quotes and backslashes.
func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
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
