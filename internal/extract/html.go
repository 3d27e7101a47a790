package extract

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// FromHTML parses a serialized document and extracts addresses from its
// visible text and mailto links. Script, style, and template content is
// skipped so addresses baked into page code do not count as findings.
func (e *Extractor) FromHTML(src string) ([]string, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	var b strings.Builder
	collectText(doc, &b)
	return e.Extract(b.String()), nil
}

// collectText appends visible text and mailto link targets to b.
func collectText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "template":
			return
		case "a":
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				if addr, ok := mailtoAddress(attr.Val); ok {
					b.WriteString(" ")
					b.WriteString(addr)
					b.WriteString(" ")
				}
			}
		}
	case html.TextNode:
		b.WriteString(n.Data)
		b.WriteString(" ")
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

// mailtoAddress returns the recipient part of a mailto href. Header
// parameters after "?" are dropped and percent-encoding is undone.
func mailtoAddress(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if len(href) < len("mailto:") || !strings.EqualFold(href[:len("mailto:")], "mailto:") {
		return "", false
	}

	addr := href[len("mailto:"):]
	if i := strings.IndexByte(addr, '?'); i >= 0 {
		addr = addr[:i]
	}
	if unescaped, err := url.QueryUnescape(addr); err == nil {
		addr = unescaped
	}
	return addr, addr != ""
}
