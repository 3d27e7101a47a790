package extract

import (
	"regexp"
	"strings"
)

// Extractor detects email addresses in page text.
type Extractor struct {
	// pattern matches email addresses in text.
	pattern *regexp.Regexp

	// denyDomains are placeholder domains that never identify anyone.
	// Subdomains of a denied domain are denied too.
	denyDomains []string

	// denyPrefixes are local-part prefixes of unattended mailboxes.
	denyPrefixes []string

	// denySuffixes drop asset names like logo@2x.png that the pattern
	// also matches.
	denySuffixes []string
}

// NewExtractor creates an Extractor with the default filters.
func NewExtractor() *Extractor {
	return &Extractor{
		pattern: regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
		denyDomains: []string{
			"example.com", "example.org", "example.net",
		},
		denyPrefixes: []string{
			"noreply", "no-reply", "donotreply", "do-not-reply",
		},
		denySuffixes: []string{
			".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg",
		},
	}
}

// Extract returns the distinct addresses found in text, lowercased, in
// first-seen order. Placeholder and unattended addresses are dropped.
func (e *Extractor) Extract(text string) []string {
	matches := e.pattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		email := strings.ToLower(strings.TrimSpace(m))
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}

		if e.denied(email) {
			continue
		}
		out = append(out, email)
	}
	return out
}

// denied reports whether a lowercased address fails the filters.
func (e *Extractor) denied(email string) bool {
	for _, s := range e.denySuffixes {
		if strings.HasSuffix(email, s) {
			return true
		}
	}

	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return true
	}

	for _, p := range e.denyPrefixes {
		if strings.HasPrefix(local, p) {
			return true
		}
	}
	for _, d := range e.denyDomains {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}
