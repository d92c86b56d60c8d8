package urlcheck

import (
	"errors"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Validation errors. Messages are shown to the editor as-is.
var (
	ErrInvalidFormat     = errors.New("Invalid URL format")
	ErrUnsupportedScheme = errors.New("Only HTTP/HTTPS URLs are allowed")
	ErrInternalHost      = errors.New("Internal URLs are not allowed")
)

// Validate checks that raw is an absolute http(s) URL that does not point at
// an obviously internal host.
func Validate(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" {
		return ErrInvalidFormat
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return ErrUnsupportedScheme
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return ErrInvalidFormat
	}

	if host == "localhost" ||
		strings.HasPrefix(host, "127.") ||
		strings.HasPrefix(host, "192.168.") ||
		strings.HasPrefix(host, "10.") ||
		strings.HasSuffix(host, ".local") {
		return ErrInternalHost
	}

	return nil
}

// paywalledDomains are news sites known to gate articles behind a
// subscription.
var paywalledDomains = []string{
	"detroitnews.com",
	"freep.com",
	"crainsdetroit.com",
	"mlive.com",
	"nytimes.com",
	"wsj.com",
	"washingtonpost.com",
	"bloomberg.com",
	"ft.com",
	"economist.com",
	"theathletic.com",
}

// IsPaywalledSource reports whether the URL's host is, or is a subdomain
// of, a known paywalled site. Unparseable URLs are not paywalled.
func IsPaywalledSource(raw string) bool {
	host, ok := Hostname(raw)
	if !ok {
		return false
	}
	for _, domain := range paywalledDomains {
		if MatchesDomain(host, domain) {
			return true
		}
	}
	return false
}

// Hostname returns the lower-cased host of raw with a leading "www."
// removed.
func Hostname(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Hostname() == "" {
		return "", false
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www."), true
}

// MatchesDomain reports whether host equals domain or is one of its
// subdomains.
func MatchesDomain(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// ParseURLList returns the http(s) URLs in input, one per line. Blank lines
// and anything else are skipped.
func ParseURLList(input string) []string {
	urls := []string{}
	for line := range strings.SplitSeq(input, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			urls = append(urls, line)
		}
	}
	return urls
}

// GenerateID returns a new article identifier.
func GenerateID() string {
	return "article-" + uuid.NewString()
}
