// Package browser provides browsing capability for serpscan.
// It defines the narrow Page interface the session components depend on
// (navigate, evaluate, probe, click, wait) and a chromedp-backed Engine
// that implements it against a real Chrome process.
//
// One Engine owns one browser process. Each call to NewPage creates an
// isolated browsing context (own cookies and storage, like an incognito
// window) inside that shared process, so concurrent sessions cannot leak
// state into each other.
//
// Components that consume Page never import chromedp; they can be tested
// with hand-written stubs and no browser.
package browser
