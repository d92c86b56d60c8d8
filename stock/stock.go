package stock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	// TokenURL is the Getty client-credentials endpoint.
	TokenURL = "https://authentication.gettyimages.com/oauth2/token"

	// DefaultAPIBase is the Getty REST API root.
	DefaultAPIBase = "https://api.gettyimages.com"

	// PageSize is the number of images per search page.
	PageSize = 20

	// TokenRefreshMargin is how long before expiry a cached token is
	// replaced.
	TokenRefreshMargin = 60 * time.Second

	defaultTimeout = 15 * time.Second
	searchFields   = "id,title,thumb,preview,display_sizes,artist"
)

var (
	// ErrNotConfigured is returned when the API key or secret is missing.
	ErrNotConfigured = errors.New("Getty API credentials not configured")

	// ErrQueryRequired is returned for an empty search phrase.
	ErrQueryRequired = errors.New("Search query is required")
)

// StatusError is a non-2xx response from the Getty search API.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Getty API error: %d", e.StatusCode)
}

// Image is one search hit.
type Image struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	ThumbURL   string `json:"thumbUrl"`
	PreviewURL string `json:"previewUrl"`
	Artist     string `json:"artist"`
}

// SearchResult is one page of search hits.
type SearchResult struct {
	Images     []Image `json:"images"`
	TotalCount int     `json:"totalCount"`
}

// Config holds the Getty credentials and endpoints. Empty endpoints use
// the production defaults.
type Config struct {
	APIKey     string
	APISecret  string
	TokenURL   string
	APIBase    string
	HTTPClient *http.Client
}

// Client searches Getty Images and iStock creative images. It owns one
// cached OAuth token for its lifetime.
type Client struct {
	apiKey  string
	apiBase string
	http    *http.Client
}

// New creates a client. The bearer token is fetched on first use and
// replaced TokenRefreshMargin before it expires.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, ErrNotConfigured
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = TokenURL
	}
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}
	base := cfg.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: defaultTimeout}
	}

	creds := &clientcredentials.Config{
		ClientID:     cfg.APIKey,
		ClientSecret: cfg.APISecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	src := oauth2.ReuseTokenSourceWithExpiry(nil, freshToken{ctx: ctx, creds: creds}, TokenRefreshMargin)

	return NewWithTokenSource(cfg.APIKey, cfg.APIBase, src, base), nil
}

// NewWithTokenSource creates a client around an existing token source.
func NewWithTokenSource(apiKey, apiBase string, src oauth2.TokenSource, base *http.Client) *Client {
	if base == nil {
		base = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		apiKey:  apiKey,
		apiBase: strings.TrimRight(apiBase, "/"),
		http: &http.Client{
			Timeout:   base.Timeout,
			Transport: &oauth2.Transport{Source: src, Base: base.Transport},
		},
	}
}

// freshToken requests a new token on every call; caching is left to the
// reuse source wrapped around it.
type freshToken struct {
	ctx   context.Context
	creds *clientcredentials.Config
}

func (f freshToken) Token() (*oauth2.Token, error) {
	tok, err := f.creds.Token(f.ctx)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			return nil, fmt.Errorf("OAuth failed: %d", re.Response.StatusCode)
		}
		return nil, fmt.Errorf("OAuth failed: %w", err)
	}
	return tok, nil
}

type displaySize struct {
	Name string `json:"name"`
	URI  string `json:"uri"`
}

type apiImage struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Artist       string        `json:"artist"`
	Thumb        string        `json:"thumb"`
	Preview      string        `json:"preview"`
	DisplaySizes []displaySize `json:"display_sizes"`
}

type searchResponse struct {
	ResultCount int        `json:"result_count"`
	Images      []apiImage `json:"images"`
}

// Search runs a creative image search. page starts at 1.
func (c *Client) Search(ctx context.Context, query string, page int) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrQueryRequired
	}
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Set("phrase", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(PageSize))
	params.Set("fields", searchFields)
	params.Set("sort_order", "best_match")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.apiBase+"/v3/search/images/creative?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var data searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	images := make([]Image, 0, len(data.Images))
	for _, img := range data.Images {
		images = append(images, toImage(img))
	}

	return &SearchResult{Images: images, TotalCount: data.ResultCount}, nil
}

// toImage picks thumbnail and preview URLs from the display sizes, then
// the direct fields, then the public CDN.
func toImage(img apiImage) Image {
	var thumb, preview string

	if len(img.DisplaySizes) > 0 {
		t := findSize(img.DisplaySizes, "thumb")
		if t == nil {
			t = &img.DisplaySizes[0]
		}
		p := findSize(img.DisplaySizes, "comp")
		if p == nil {
			p = findSize(img.DisplaySizes, "preview")
		}
		if p == nil {
			p = t
		}
		thumb, preview = t.URI, p.URI
	}

	if thumb == "" {
		thumb = img.Thumb
	}
	if preview == "" {
		preview = img.Preview
	}

	if thumb == "" && img.ID != "" {
		thumb = CDNURL(img.ID, "612x612")
		preview = CDNURL(img.ID, "1024x1024")
	}
	if preview == "" {
		preview = thumb
	}

	return Image{
		ID:         img.ID,
		Title:      img.Title,
		ThumbURL:   thumb,
		PreviewURL: preview,
		Artist:     img.Artist,
	}
}

func findSize(sizes []displaySize, name string) *displaySize {
	for i := range sizes {
		if sizes[i].Name == name {
			return &sizes[i]
		}
	}
	return nil
}

// CDNURL is the public media URL for an image id at the given size.
func CDNURL(id, size string) string {
	return "https://media.gettyimages.com/id/" + url.PathEscape(id) + "/photo.jpg?s=" + size
}
