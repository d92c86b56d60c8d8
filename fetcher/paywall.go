package fetcher

import "strings"

// paywallMarkers are class and id fragments used by common paywall
// vendors.
var paywallMarkers = []string{
	"paywall",
	"subscription-required",
	"subscribe-to-read",
	"premium-content",
	"meter-count",
	"pw-content",
	"subscriber-only",
	"regwall",
	"registration-wall",
}

var subscribePhrases = []string{
	"to continue reading",
	"to read the full",
	"for full access",
}

// minimalContentBytes is the page size under which a subscribe prompt is
// taken as a truncated article.
const minimalContentBytes = 5000

// LooksPaywalled inspects an HTML body for paywall signals. Any marker
// fragment is enough on its own; a subscribe prompt only counts on a page
// too small to hold a full article.
func LooksPaywalled(html string) bool {
	lower := strings.ToLower(html)

	for _, marker := range paywallMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	if len(html) >= minimalContentBytes || !strings.Contains(lower, "subscribe") {
		return false
	}
	for _, phrase := range subscribePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
