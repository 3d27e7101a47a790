package browser

import "context"

// Page is the browsing capability surface the detector, resolver, paginator,
// and session controller depend on. Implementations wrap one exclusively
// owned browsing context; methods are not safe for concurrent use.
//
// Probe methods (Exists, Visible, Attribute) answer immediately from the
// current DOM and never wait for an element to appear. Waiting is explicit
// via WaitReady, bounded by the engine's wait timeout.
type Page interface {
	// Navigate loads the URL and waits for the document to become ready.
	Navigate(ctx context.Context, url string) error

	// Reload reloads the current document and waits for readiness.
	Reload(ctx context.Context) error

	// URL returns the page's current location.
	URL(ctx context.Context) (string, error)

	// Evaluate runs a JavaScript expression in the page and unmarshals its
	// result into out. A nil out discards the result.
	Evaluate(ctx context.Context, expr string, out any) error

	// Exists reports whether at least one element matches the selector.
	Exists(ctx context.Context, selector string) (bool, error)

	// Visible reports whether the first element matching the selector is
	// visibly rendered (non-zero box, not display:none or visibility:hidden).
	Visible(ctx context.Context, selector string) (bool, error)

	// Attribute returns the value of attr on the first matching element.
	// The second result is false when the element or attribute is absent.
	Attribute(ctx context.Context, selector, attr string) (string, bool, error)

	// Click waits for the first matching element to be visible and clicks it.
	Click(ctx context.Context, selector string) error

	// ScrollIntoView scrolls the first matching element into the viewport.
	ScrollIntoView(ctx context.Context, selector string) error

	// WaitReady blocks until the selector matches a ready element or the
	// wait timeout elapses.
	WaitReady(ctx context.Context, selector string) error

	// HTML returns the full serialized document.
	HTML(ctx context.Context) (string, error)

	// Close releases the browsing context. It is safe to call more than
	// once; only the first call has effect.
	Close() error
}
