package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/pevans/briefsmith/article"
)

const (
	// DefaultTimeout bounds the whole request, body included.
	DefaultTimeout = 10 * time.Second

	// DefaultUserAgent is a desktop Chrome string; several news sites
	// refuse unknown clients.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	maxResponseBytes = 10 << 20
)

// Result is a fetched page. FinalURL is the location after redirects.
type Result struct {
	HTML     string
	FinalURL string
}

// Fetcher downloads article pages and classifies failures.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// New creates a fetcher that refuses private network addresses.
func New() *Fetcher {
	return NewWithClient(SafeClient(DefaultTimeout))
}

// NewWithClient creates a fetcher around an existing client.
func NewWithClient(client *http.Client) *Fetcher {
	return &Fetcher{
		client:    client,
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
	}
}

// Fetch downloads rawURL. Any failure is returned as a *article.FetchError.
// When a paywall is detected the page is still returned alongside the
// error so the caller may try extraction anyway.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, article.NewFetchError(article.ErrInvalidURL, "Invalid URL format")
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, f.classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode)
	}

	body, err := readLimited(resp.Body, maxResponseBytes)
	if err != nil {
		return nil, f.classify(err)
	}

	result := &Result{
		HTML:     string(body),
		FinalURL: resp.Request.URL.String(),
	}

	if LooksPaywalled(result.HTML) {
		return result, article.NewFetchError(article.ErrPaywallDetected,
			"This article appears to be behind a paywall. Please paste the article text manually.")
	}

	return result, nil
}

func statusError(code int) *article.FetchError {
	switch code {
	case http.StatusNotFound:
		return article.NewFetchError(article.ErrNotFound, "Article not found (404)")
	case http.StatusForbidden:
		return article.NewFetchError(article.ErrBlocked, "Access blocked by the website")
	default:
		return article.NewFetchError(article.ErrNetwork, fmt.Sprintf("HTTP error %d", code))
	}
}

func (f *Fetcher) classify(err error) *article.FetchError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return article.NewFetchError(article.ErrTimeout,
			fmt.Sprintf("Request timed out after %d seconds", int(f.timeout.Seconds())))
	}
	return article.NewFetchError(article.ErrNetwork, "Failed to fetch article")
}

// readLimited reads at most limit bytes from r and fails if there is more.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("response body exceeds %d bytes", limit)
	}
	return data, nil
}
