// Package session runs one query's end-to-end browsing lifecycle.
//
// The Controller owns the state machine at the center of the program: for
// a single query it loops {detect challenge, resolve or back off, extract,
// advance page} until the query is exhausted, blocked, or aborted. Its
// collaborators are narrow interfaces, so the whole loop is exercised in
// tests with hand-written stubs and no browser.
//
// The Paginator is the one browser-coupled piece here: it locates the
// next-page affordance among known UI variants and activates it with
// randomized pacing.
package session
