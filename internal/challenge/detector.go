package challenge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nao1215/serpscan/internal/browser"
)

// consentURLMarkers identify the consent interstitial by location.
var consentURLMarkers = []string{"consent.google.", "/consent?"}

// challengeURLMarkers identify the challenge interstitial by location.
var challengeURLMarkers = []string{"/sorry/", "/sorry?", "ipv4.google.com/sorry", "ipv6.google.com/sorry"}

// isConsentURL reports whether the location is a consent interstitial.
func isConsentURL(pageURL string) bool {
	return containsAny(pageURL, consentURLMarkers)
}

// isChallengeURL reports whether the location is a challenge interstitial.
func isChallengeURL(pageURL string) bool {
	return containsAny(pageURL, challengeURLMarkers)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// Selector groups for page classification. Probes answer on current DOM
// state without waiting, so a clear page costs a handful of script
// evaluations.
const (
	// widgetSelector matches known challenge widget containers.
	widgetSelector = `#captcha-form, #recaptcha, .g-recaptcha, .h-captcha, .cf-turnstile`

	// frameSelector matches frames served from challenge providers.
	frameSelector = `iframe[src*="google.com/recaptcha"], iframe[src*="recaptcha.net"], iframe[src*="hcaptcha.com"], iframe[src*="challenges.cloudflare.com"]`

	// hcaptchaFrameSelector and turnstileFrameSelector identify the
	// provider when its frame is already on the page.
	hcaptchaFrameSelector  = `iframe[src*="hcaptcha.com"]`
	turnstileFrameSelector = `iframe[src*="challenges.cloudflare.com"]`

	// visibleWidgetSelector is what a user would see for a v2-style
	// interactive widget.
	visibleWidgetSelector = `.g-recaptcha, iframe[src*="recaptcha"]`
)

// recaptchaAPIScript reports whether the client-side solving API object is
// loaded. Its presence without a visible widget suggests an invisible
// v3-style challenge.
const recaptchaAPIScript = `typeof window.grecaptcha !== 'undefined' && typeof window.grecaptcha.execute === 'function'`

// frameSitekeyScript recovers the sitekey from a provider frame URL, where
// it travels as the k or sitekey query parameter.
const frameSitekeyScript = `(() => {
	const frames = document.querySelectorAll('iframe[src]');
	for (const f of frames) {
		try {
			const u = new URL(f.src, location.href);
			const k = u.searchParams.get('k') || u.searchParams.get('sitekey');
			if (k) { return k; }
		} catch (e) {}
	}
	return null;
})()`

// scriptSitekeyScript recovers the sitekey from an api.js-style script URL
// render parameter. The explicit and onload render modes are not keys.
const scriptSitekeyScript = `(() => {
	const scripts = document.querySelectorAll('script[src]');
	for (const s of scripts) {
		try {
			const u = new URL(s.src, location.href);
			const r = u.searchParams.get('render');
			if (r && r !== 'explicit' && r !== 'onload') { return r; }
		} catch (e) {}
	}
	return null;
})()`

// Detector classifies the current page and recovers challenge solving
// parameters.
type Detector struct {
	logger   *slog.Logger
	acceptor *ConsentAcceptor
}

// NewDetector creates a Detector. A nil logger falls back to the default.
func NewDetector(logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		logger:   logger,
		acceptor: NewConsentAcceptor(logger),
	}
}

// Detect classifies the page. A nil Detection means the page is clear.
// Consent walls are auto-accepted here; only walls that survive acceptance
// are reported. Probe failures are tolerated and weaken detection rather
// than failing it.
func (d *Detector) Detect(ctx context.Context, page browser.Page) (*Detection, error) {
	pageURL, err := page.URL(ctx)
	if err != nil {
		return nil, fmt.Errorf("read page location: %w", err)
	}

	if isConsentURL(pageURL) {
		d.logger.Info("consent wall detected", "url", pageURL)
		if d.acceptor.Accept(ctx, page) {
			return nil, nil
		}
		return &Detection{PageURL: pageURL, Kind: KindConsent}, nil
	}

	if !d.challengePresent(ctx, page, pageURL) {
		return nil, nil
	}

	det := &Detection{
		PageURL: pageURL,
		Kind:    KindChallenge,
		Sitekey: d.recoverSitekey(ctx, page),
	}
	det.TypeHint = d.typeHint(ctx, page)

	d.logger.Info("challenge detected",
		"url", pageURL,
		"sitekey_found", det.Sitekey != "",
		"hint", det.TypeHint)
	return det, nil
}

// challengePresent reports whether any challenge evidence exists: a
// challenge interstitial URL, a widget marker in the DOM, or a provider
// frame.
func (d *Detector) challengePresent(ctx context.Context, page browser.Page, pageURL string) bool {
	if isChallengeURL(pageURL) {
		return true
	}

	if ok, err := page.Exists(ctx, widgetSelector); err == nil && ok {
		return true
	} else if err != nil {
		d.logger.Debug("widget probe failed", "error", err)
	}

	if ok, err := page.Exists(ctx, frameSelector); err == nil && ok {
		return true
	} else if err != nil {
		d.logger.Debug("frame probe failed", "error", err)
	}
	return false
}

// recoverSitekey tries the key sources in order: a data attribute on a
// widget element, a provider frame URL parameter, a script URL render
// parameter. First non-empty wins; absence is valid.
func (d *Detector) recoverSitekey(ctx context.Context, page browser.Page) string {
	if v, ok, err := page.Attribute(ctx, "[data-sitekey]", "data-sitekey"); err == nil && ok && v != "" {
		return v
	}

	var key *string
	if err := page.Evaluate(ctx, frameSitekeyScript, &key); err == nil && key != nil && *key != "" {
		return *key
	}

	key = nil
	if err := page.Evaluate(ctx, scriptSitekeyScript, &key); err == nil && key != nil && *key != "" {
		return *key
	}
	return ""
}

// typeHint derives a solver type from page evidence. Provider frames are
// conclusive; otherwise a loaded solving API with no visible widget
// suggests an invisible v3-style challenge. An empty hint is valid and
// leaves type selection to the resolver's fallback order.
func (d *Detector) typeHint(ctx context.Context, page browser.Page) string {
	if ok, err := page.Exists(ctx, hcaptchaFrameSelector); err == nil && ok {
		return TypeHCaptcha
	}
	if ok, err := page.Exists(ctx, turnstileFrameSelector); err == nil && ok {
		return TypeTurnstile
	}

	var hasAPI bool
	if err := page.Evaluate(ctx, recaptchaAPIScript, &hasAPI); err != nil || !hasAPI {
		return ""
	}
	visible, err := page.Visible(ctx, visibleWidgetSelector)
	if err == nil && !visible {
		return TypeRecaptchaV3
	}
	return ""
}
