package stock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
)

// AllowedHosts are the only hosts the image proxy will fetch from.
var AllowedHosts = []string{
	"media.gettyimages.com",
	"media.istockphoto.com",
	"www.gettyimages.com",
	"www.istockphoto.com",
	"cdn.gettyimages.com",
}

// CacheControl is sent with every proxied image.
const CacheControl = "public, max-age=3600"

const (
	proxyUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	// MaxImageBytes caps a proxied or uploaded image.
	MaxImageBytes = 20 << 20
)

var (
	ErrMissingURL      = errors.New("Missing URL parameter")
	ErrInvalidURL      = errors.New("Invalid URL")
	ErrInvalidProtocol = errors.New("Invalid protocol")
	ErrHostNotAllowed  = errors.New("Domain not allowed")
	ErrNotImage        = errors.New("Response is not an image")
)

// UpstreamError is a non-2xx response from the image host.
type UpstreamError struct {
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("Failed: %d", e.StatusCode)
}

// Download is an open image response. The caller must close Body.
type Download struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// Proxy fetches images from the allow-listed stock hosts.
type Proxy struct {
	http *http.Client
}

// maxRedirects matches the net/http default.
const maxRedirects = 10

// NewProxy creates a proxy. A nil client uses a client with the default
// timeout. Redirects are only followed to allow-listed hosts.
func NewProxy(client *http.Client) *Proxy {
	var c http.Client
	if client != nil {
		c = *client
	} else {
		c.Timeout = defaultTimeout
	}
	c.CheckRedirect = checkRedirect
	return &Proxy{http: &c}
}

// rejected reports whether err is a CheckURL refusal.
func rejected(err error) bool {
	return errors.Is(err, ErrHostNotAllowed) || errors.Is(err, ErrInvalidProtocol) ||
		errors.Is(err, ErrInvalidURL)
}

func checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	_, err := CheckURL(req.URL.String())
	return err
}

// CheckURL reports whether rawURL may be proxied.
func CheckURL(rawURL string) (*url.URL, error) {
	if rawURL == "" {
		return nil, ErrMissingURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, ErrInvalidProtocol
	}
	if !slices.Contains(AllowedHosts, strings.ToLower(u.Hostname())) {
		return nil, ErrHostNotAllowed
	}
	return u, nil
}

// Open starts downloading an allow-listed image. Responses that are not
// images are refused; a missing content type is taken as JPEG.
func (p *Proxy) Open(ctx context.Context, rawURL string) (*Download, error) {
	u, err := CheckURL(rawURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, ErrInvalidURL
	}
	req.Header.Set("User-Agent", proxyUserAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := p.http.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) && rejected(uerr.Err) {
			return nil, uerr.Err
		}
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &UpstreamError{StatusCode: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	if !strings.HasPrefix(contentType, "image/") {
		resp.Body.Close()
		return nil, ErrNotImage
	}

	return &Download{
		Body:          resp.Body,
		ContentType:   contentType,
		ContentLength: resp.ContentLength,
	}, nil
}

// Get downloads a whole image into memory.
func (p *Proxy) Get(ctx context.Context, rawURL string) ([]byte, string, error) {
	d, err := p.Open(ctx, rawURL)
	if err != nil {
		return nil, "", err
	}
	defer d.Body.Close()

	data, err := io.ReadAll(io.LimitReader(d.Body, MaxImageBytes+1))
	if err != nil {
		return nil, "", err
	}
	if len(data) > MaxImageBytes {
		return nil, "", fmt.Errorf("image exceeds %d bytes", MaxImageBytes)
	}
	return data, d.ContentType, nil
}
