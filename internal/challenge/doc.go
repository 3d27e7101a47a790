// Package challenge detects and clears anti-automation challenges on
// search-result pages.
//
// The Detector classifies a page as clear, consent-walled, or
// challenge-bearing and recovers the solving parameters (sitekey, type
// hint) when it can. The Resolver drives the external solving service's
// submit/poll protocol, injects the returned proof into the page, and
// triggers re-validation. Neither ever fails a session: every outcome is
// reported as a classification, and unresolvable challenges are left for
// the session's own termination rules.
package challenge
