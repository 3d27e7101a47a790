package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
)

// Engine owns one Chrome process and hands out isolated browsing contexts.
// All sessions share the process; isolation happens at the browsing-context
// level, never by launching one process per query.
type Engine struct {
	// headless controls whether Chrome runs without a visible window.
	headless bool

	// userAgent is the User-Agent Chrome presents.
	userAgent string

	// extensionPath is a directory with an unpacked extension to load.
	// Chrome ignores --load-extension in headless mode; run windowed
	// when an extension is configured.
	extensionPath string

	// execPath overrides the Chrome binary location.
	execPath string

	// language is the Accept-Language base tag pages request content in.
	language string

	// navTimeout bounds one navigation including document readiness.
	navTimeout time.Duration

	// waitTimeout bounds one DOM wait, click, or probe.
	waitTimeout time.Duration

	// logger receives engine lifecycle events.
	logger *slog.Logger

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithHeadless controls whether Chrome runs headless. Default true.
func WithHeadless(headless bool) EngineOption {
	return func(e *Engine) {
		e.headless = headless
	}
}

// WithUserAgent sets the User-Agent Chrome presents.
func WithUserAgent(ua string) EngineOption {
	return func(e *Engine) {
		e.userAgent = ua
	}
}

// WithExtension loads an unpacked extension from the given directory.
// Chrome does not load extensions in headless mode.
func WithExtension(path string) EngineOption {
	return func(e *Engine) {
		e.extensionPath = path
	}
}

// WithExecPath overrides the Chrome binary location.
func WithExecPath(path string) EngineOption {
	return func(e *Engine) {
		e.execPath = path
	}
}

// WithLanguage sets the Accept-Language base tag for all pages.
func WithLanguage(lang string) EngineOption {
	return func(e *Engine) {
		e.language = lang
	}
}

// WithNavigationTimeout bounds a single navigation.
func WithNavigationTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.navTimeout = d
	}
}

// WithWaitTimeout bounds a single DOM wait or click.
func WithWaitTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.waitTimeout = d
	}
}

// WithEngineLogger sets the logger for engine lifecycle events.
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// newEngine builds an Engine with defaults applied but no process started.
// Split from NewEngine so option handling is testable without Chrome.
func newEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		headless:    true,
		userAgent:   "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/100.0.4896.75 Safari/537.36",
		language:    "en",
		navTimeout:  30 * time.Second,
		waitTimeout: 10 * time.Second,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// NewEngine launches the shared Chrome process and returns an Engine.
// The caller must Close the engine after every page has been closed.
func NewEngine(ctx context.Context, opts ...EngineOption) (*Engine, error) {
	e := newEngine(opts...)

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", e.headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(e.userAgent),
	)
	if e.extensionPath != "" {
		allocOpts = append(allocOpts,
			chromedp.Flag("disable-extensions", false),
			chromedp.Flag("load-extension", e.extensionPath),
		)
	}
	if e.execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(e.execPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Run with no actions to start the process now, so a broken Chrome
	// install fails here instead of inside the first session.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	e.allocCancel = allocCancel
	e.browserCtx = browserCtx
	e.browserCancel = browserCancel

	e.logger.Debug("browser started", "headless", e.headless, "extension", e.extensionPath)
	return e, nil
}

// NewPage creates an isolated browsing context in the shared process and
// returns a Page bound to a fresh tab inside it. The page starts on
// about:blank with device metrics and Accept-Language applied.
func (e *Engine) NewPage(ctx context.Context) (Page, error) {
	c := chromedp.FromContext(e.browserCtx)
	if c == nil || c.Browser == nil {
		return nil, fmt.Errorf("browser not started")
	}
	executor := cdp.WithExecutor(ctx, c.Browser)

	bctxID, err := target.CreateBrowserContext().Do(executor)
	if err != nil {
		return nil, fmt.Errorf("create browsing context: %w", err)
	}

	tid, err := target.CreateTarget("about:blank").WithBrowserContextID(bctxID).Do(executor)
	if err != nil {
		_ = target.DisposeBrowserContext(bctxID).Do(executor)
		return nil, fmt.Errorf("create target: %w", err)
	}

	tabCtx, tabCancel := chromedp.NewContext(e.browserCtx, chromedp.WithTargetID(tid))

	if err := chromedp.Run(tabCtx,
		emulation.SetDeviceMetricsOverride(1920, 1080, 1.0, false),
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers(map[string]interface{}{
			"Accept-Language": acceptLanguage(e.language),
		})),
	); err != nil {
		tabCancel()
		_ = target.DisposeBrowserContext(bctxID).Do(executor)
		return nil, fmt.Errorf("prepare page: %w", err)
	}

	e.logger.Debug("page created", "target", string(tid))

	return &chromePage{
		engine:    e,
		tabCtx:    tabCtx,
		tabCancel: tabCancel,
		bctxID:    bctxID,
	}, nil
}

// Close shuts the shared browser process down. Pages must be closed first.
func (e *Engine) Close() error {
	err := chromedp.Cancel(e.browserCtx)
	e.browserCancel()
	e.allocCancel()
	return err
}

// acceptLanguage builds the Accept-Language header for a base tag.
// English is padded with the common en-US primary; other tags keep
// English as a weighted fallback so consent pages still render.
func acceptLanguage(lang string) string {
	if lang == "" || lang == "en" {
		return "en-US,en;q=0.9"
	}
	return fmt.Sprintf("%s,en;q=0.8", lang)
}

// selectorLiteral embeds a CSS selector into JavaScript source as a string
// literal. JSON string encoding is valid JavaScript and escapes quotes and
// backslashes, so selectors cannot break out of the script.
func selectorLiteral(selector string) string {
	b, err := json.Marshal(selector)
	if err != nil {
		// Marshal of a string cannot fail; keep a safe fallback anyway.
		return `""`
	}
	return string(b)
}

// existsScript returns an expression answering whether selector matches.
func existsScript(selector string) string {
	return fmt.Sprintf(`document.querySelector(%s) !== null`, selectorLiteral(selector))
}

// visibleScript returns an expression answering whether the first match is
// visibly rendered.
func visibleScript(selector string) string {
	return fmt.Sprintf(`(() => {
	const el = document.querySelector(%s);
	if (!el) { return false; }
	const rect = el.getBoundingClientRect();
	const style = window.getComputedStyle(el);
	return rect.width > 0 && rect.height > 0 && style.display !== 'none' && style.visibility !== 'hidden';
})()`, selectorLiteral(selector))
}

// attributeScript returns an expression yielding the attribute value of the
// first match, or null when the element or attribute is absent.
func attributeScript(selector, attr string) string {
	return fmt.Sprintf(`(() => {
	const el = document.querySelector(%s);
	if (!el) { return null; }
	return el.getAttribute(%s);
})()`, selectorLiteral(selector), selectorLiteral(attr))
}

// chromePage is the chromedp-backed Page. One value owns one tab inside one
// dedicated browsing context.
type chromePage struct {
	engine    *Engine
	tabCtx    context.Context
	tabCancel context.CancelFunc
	bctxID    cdp.BrowserContextID

	closeOnce sync.Once
	closeErr  error
}

// Compile-time interface check.
var _ Page = (*chromePage)(nil)

// run executes chromedp actions against the tab, bounded by timeout and by
// cancellation of the caller's context.
func (p *chromePage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(p.tabCtx, timeout)
	defer cancel()

	// Propagate caller cancellation into the chromedp context.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

// Navigate loads the URL and waits for the document body to become ready.
func (p *chromePage) Navigate(ctx context.Context, url string) error {
	return p.run(ctx, p.engine.navTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

// Reload reloads the current document and waits for readiness.
func (p *chromePage) Reload(ctx context.Context) error {
	return p.run(ctx, p.engine.navTimeout,
		chromedp.Reload(),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

// URL returns the page's current location.
func (p *chromePage) URL(ctx context.Context) (string, error) {
	var loc string
	if err := p.run(ctx, p.engine.waitTimeout, chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}

// Evaluate runs a JavaScript expression; a nil out discards the result.
func (p *chromePage) Evaluate(ctx context.Context, expr string, out any) error {
	return p.run(ctx, p.engine.waitTimeout, chromedp.Evaluate(expr, out))
}

// Exists reports whether at least one element matches the selector.
// Answered by script so an absent element returns false immediately
// instead of waiting for it to appear.
func (p *chromePage) Exists(ctx context.Context, selector string) (bool, error) {
	var ok bool
	if err := p.Evaluate(ctx, existsScript(selector), &ok); err != nil {
		return false, err
	}
	return ok, nil
}

// Visible reports whether the first matching element is visibly rendered.
func (p *chromePage) Visible(ctx context.Context, selector string) (bool, error) {
	var ok bool
	if err := p.Evaluate(ctx, visibleScript(selector), &ok); err != nil {
		return false, err
	}
	return ok, nil
}

// Attribute returns the attribute value of the first matching element.
func (p *chromePage) Attribute(ctx context.Context, selector, attr string) (string, bool, error) {
	var val *string
	if err := p.Evaluate(ctx, attributeScript(selector, attr), &val); err != nil {
		return "", false, err
	}
	if val == nil {
		return "", false, nil
	}
	return *val, true, nil
}

// Click waits for the first matching element to be visible and clicks it.
func (p *chromePage) Click(ctx context.Context, selector string) error {
	return p.run(ctx, p.engine.waitTimeout,
		chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible),
	)
}

// ScrollIntoView scrolls the first matching element into the viewport.
func (p *chromePage) ScrollIntoView(ctx context.Context, selector string) error {
	return p.run(ctx, p.engine.waitTimeout,
		chromedp.ScrollIntoView(selector, chromedp.ByQuery),
	)
}

// WaitReady blocks until the selector matches a ready element or the wait
// timeout elapses.
func (p *chromePage) WaitReady(ctx context.Context, selector string) error {
	return p.run(ctx, p.engine.waitTimeout,
		chromedp.WaitReady(selector, chromedp.ByQuery),
	)
}

// HTML returns the full serialized document.
func (p *chromePage) HTML(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, p.engine.waitTimeout,
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return "", err
	}
	return html, nil
}

// Close detaches the tab and disposes its browsing context, dropping the
// session's cookies and storage. Only the first call has effect.
func (p *chromePage) Close() error {
	p.closeOnce.Do(func() {
		p.tabCancel()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		c := chromedp.FromContext(p.engine.browserCtx)
		if c == nil || c.Browser == nil {
			return
		}
		executor := cdp.WithExecutor(ctx, c.Browser)
		if err := target.DisposeBrowserContext(p.bctxID).Do(executor); err != nil {
			p.closeErr = fmt.Errorf("dispose browsing context: %w", err)
		}
	})
	return p.closeErr
}
