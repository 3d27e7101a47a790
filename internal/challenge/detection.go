package challenge

// Kind classifies an obstruction the detector found on a page.
type Kind int

const (
	// KindUnknown is the zero value and is never produced by detection.
	KindUnknown Kind = iota

	// KindConsent marks a consent interstitial that automatic acceptance
	// could not clear.
	KindConsent

	// KindChallenge marks an interactive anti-automation challenge.
	KindChallenge
)

// String returns the lowercase name of the kind for logging.
func (k Kind) String() string {
	switch k {
	case KindConsent:
		return "consent"
	case KindChallenge:
		return "challenge"
	default:
		return "unknown"
	}
}

// Detection describes one obstruction found on a page. Values are built
// fresh on every detection pass and discarded once the resolver has
// consumed them.
type Detection struct {
	// PageURL is the page location at detection time.
	PageURL string

	// Kind classifies the obstruction.
	Kind Kind

	// Sitekey is the site-specific solving key, empty when none could be
	// recovered from the page.
	Sitekey string

	// TypeHint is the solver wire type page heuristics suggest, empty
	// when the heuristics are inconclusive.
	TypeHint string
}
