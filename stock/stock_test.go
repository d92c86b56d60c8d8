package stock

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pevans/briefsmith/wordpress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const searchReply = `{
	"result_count": 311,
	"images": [
		{"id": "101", "title": "Lake at dawn", "artist": "A. Photographer",
		 "display_sizes": [{"name": "comp", "uri": "https://media.gettyimages.com/comp/101"},
		                   {"name": "thumb", "uri": "https://media.gettyimages.com/thumb/101"}]},
		{"id": "102", "title": "Downtown", "display_sizes": [{"name": "preview", "uri": "https://media.gettyimages.com/preview/102"}]},
		{"id": "103", "title": "Snow", "thumb": "https://media.gettyimages.com/t/103"},
		{"id": "104", "title": "Bridge"}
	]
}`

// gettyFixture serves both the token and the search endpoints.
type gettyFixture struct {
	tokens    atomic.Int32
	expiresIn int
	lastQuery url.Values
	lastAuth  string
	lastKey   string
	status    int
}

func (f *gettyFixture) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth2/token":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
			assert.Equal(t, "key", r.PostForm.Get("client_id"))
			assert.Equal(t, "secret", r.PostForm.Get("client_secret"))

			n := f.tokens.Add(1)
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"access_token": "tok-%d", "token_type": "Bearer", "expires_in": %d}`, n, f.expiresIn)

		case "/v3/search/images/creative":
			f.lastQuery = r.URL.Query()
			f.lastAuth = r.Header.Get("Authorization")
			f.lastKey = r.Header.Get("Api-Key")
			if f.status != 0 {
				w.WriteHeader(f.status)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, searchReply)

		default:
			http.NotFound(w, r)
		}
	}
}

func newGetty(t *testing.T, expiresIn int) (*gettyFixture, *Client) {
	t.Helper()
	f := &gettyFixture{expiresIn: expiresIn}
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	client, err := New(Config{
		APIKey:     "key",
		APISecret:  "secret",
		TokenURL:   srv.URL + "/oauth2/token",
		APIBase:    srv.URL,
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)
	return f, client
}

// TestNew_RequiresCredentials verifies a client needs both key and secret
func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(Config{APIKey: "key"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

// TestSearch verifies the query, headers and URL selection per image
func TestSearch(t *testing.T) {
	f, client := newGetty(t, 3600)

	result, err := client.Search(context.Background(), "  lake michigan ", 2)
	require.NoError(t, err)

	assert.Equal(t, "lake michigan", f.lastQuery.Get("phrase"))
	assert.Equal(t, "2", f.lastQuery.Get("page"))
	assert.Equal(t, "20", f.lastQuery.Get("page_size"))
	assert.Equal(t, "best_match", f.lastQuery.Get("sort_order"))
	assert.Equal(t, "Bearer tok-1", f.lastAuth)
	assert.Equal(t, "key", f.lastKey)

	assert.Equal(t, 311, result.TotalCount)
	require.Len(t, result.Images, 4)

	assert.Equal(t, Image{
		ID:         "101",
		Title:      "Lake at dawn",
		ThumbURL:   "https://media.gettyimages.com/thumb/101",
		PreviewURL: "https://media.gettyimages.com/comp/101",
		Artist:     "A. Photographer",
	}, result.Images[0])

	// no thumb size: first display size is the thumbnail, preview beats it
	assert.Equal(t, "https://media.gettyimages.com/preview/102", result.Images[1].ThumbURL)
	assert.Equal(t, "https://media.gettyimages.com/preview/102", result.Images[1].PreviewURL)

	assert.Equal(t, "https://media.gettyimages.com/t/103", result.Images[2].ThumbURL)
	assert.Equal(t, "https://media.gettyimages.com/t/103", result.Images[2].PreviewURL)

	assert.Equal(t, "https://media.gettyimages.com/id/104/photo.jpg?s=612x612", result.Images[3].ThumbURL)
	assert.Equal(t, "https://media.gettyimages.com/id/104/photo.jpg?s=1024x1024", result.Images[3].PreviewURL)
}

// TestSearch_TokenCached verifies one token serves many searches
func TestSearch_TokenCached(t *testing.T) {
	f, client := newGetty(t, 3600)

	for i := 0; i < 3; i++ {
		_, err := client.Search(context.Background(), "lake", 1)
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, f.tokens.Load())
}

// TestSearch_TokenRefreshMargin verifies tokens within a minute of expiry
// are replaced
func TestSearch_TokenRefreshMargin(t *testing.T) {
	f, client := newGetty(t, 30)

	for i := 0; i < 2; i++ {
		_, err := client.Search(context.Background(), "lake", 1)
		require.NoError(t, err)
	}
	assert.EqualValues(t, 2, f.tokens.Load())
	assert.Equal(t, "Bearer tok-2", f.lastAuth)
}

// TestSearch_Errors verifies empty queries and upstream failures
func TestSearch_Errors(t *testing.T) {
	f, client := newGetty(t, 3600)

	_, err := client.Search(context.Background(), "   ", 1)
	assert.ErrorIs(t, err, ErrQueryRequired)

	f.status = http.StatusTooManyRequests
	_, err = client.Search(context.Background(), "lake", 1)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.EqualError(t, err, "Getty API error: 429")
}

// rewriteTransport sends every request to target regardless of host, so
// allow-listed URLs can be served by a test server.
type rewriteTransport struct {
	target *url.URL
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = rt.target.Scheme
	req.URL.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func newImageHost(t *testing.T) *Proxy {
	proxy, _ := newRedirectingImageHost(t)
	return proxy
}

// newRedirectingImageHost also serves redirects and counts requests that
// reached /outside.jpg.
func newRedirectingImageHost(t *testing.T) (*Proxy, *atomic.Int32) {
	t.Helper()
	var outside atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/to-outside.jpg":
			http.Redirect(w, r, "https://evil.example.com/outside.jpg", http.StatusFound)
		case "/to-ftp.jpg":
			http.Redirect(w, r, "ftp://media.gettyimages.com/photo.jpg", http.StatusFound)
		case "/to-allowed.jpg":
			http.Redirect(w, r, "https://media.istockphoto.com/photo.jpg", http.StatusFound)
		case "/loop.jpg":
			http.Redirect(w, r, "https://media.gettyimages.com/loop.jpg", http.StatusFound)
		case "/outside.jpg":
			outside.Add(1)
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = io.WriteString(w, "OUTSIDE")
		case "/photo.jpg":
			assert.Equal(t, "image/*", r.Header.Get("Accept"))
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = io.WriteString(w, "JPEGDATA")
		case "/page.html":
			w.Header().Set("Content-Type", "text/html")
			_, _ = io.WriteString(w, "<html></html>")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return NewProxy(&http.Client{Transport: rewriteTransport{target: target}}), &outside
}

// TestCheckURL verifies the allow-list and URL validation
func TestCheckURL(t *testing.T) {
	tests := []struct {
		url  string
		want error
	}{
		{"", ErrMissingURL},
		{"::not a url", ErrInvalidURL},
		{"ftp://media.gettyimages.com/x.jpg", ErrInvalidProtocol},
		{"https://evil.example.com/x.jpg", ErrHostNotAllowed},
		{"https://media.gettyimages.com.evil.com/x.jpg", ErrHostNotAllowed},
		{"https://media.istockphoto.com/x.jpg", nil},
		{"https://MEDIA.GETTYIMAGES.COM/x.jpg", nil},
	}

	for _, tt := range tests {
		_, err := CheckURL(tt.url)
		if tt.want == nil {
			assert.NoError(t, err, tt.url)
		} else {
			assert.ErrorIs(t, err, tt.want, tt.url)
		}
	}
}

// TestProxy_Get verifies images are fetched and non-images refused
func TestProxy_Get(t *testing.T) {
	proxy := newImageHost(t)

	data, contentType, err := proxy.Get(context.Background(), "https://media.gettyimages.com/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, "JPEGDATA", string(data))
	assert.Equal(t, "image/jpeg", contentType)

	_, _, err = proxy.Get(context.Background(), "https://media.gettyimages.com/page.html")
	assert.ErrorIs(t, err, ErrNotImage)

	_, _, err = proxy.Get(context.Background(), "https://media.gettyimages.com/missing.jpg")
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusNotFound, ue.StatusCode)
}

// TestProxy_Redirects verifies every redirect hop is checked against the
// allow-list
func TestProxy_Redirects(t *testing.T) {
	proxy, outside := newRedirectingImageHost(t)

	data, _, err := proxy.Get(context.Background(), "https://media.gettyimages.com/to-allowed.jpg")
	require.NoError(t, err)
	assert.Equal(t, "JPEGDATA", string(data))

	_, _, err = proxy.Get(context.Background(), "https://media.gettyimages.com/to-outside.jpg")
	assert.Equal(t, ErrHostNotAllowed, err)
	assert.Zero(t, outside.Load())

	_, _, err = proxy.Get(context.Background(), "https://media.gettyimages.com/to-ftp.jpg")
	assert.Equal(t, ErrInvalidProtocol, err)

	_, _, err = proxy.Get(context.Background(), "https://media.gettyimages.com/loop.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stopped after 10 redirects")
}

// TestNewProxy_CopiesClient verifies the caller's client is left untouched
func TestNewProxy_CopiesClient(t *testing.T) {
	client := &http.Client{Timeout: time.Second}

	proxy := NewProxy(client)

	assert.Nil(t, client.CheckRedirect)
	assert.NotSame(t, client, proxy.http)
	assert.Equal(t, time.Second, proxy.http.Timeout)
	assert.NotNil(t, proxy.http.CheckRedirect)
}

// TestAPI_ProxyImage verifies headers and plain-text errors of the proxy
// route
func TestAPI_ProxyImage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewStockAPIServer(nil, newImageHost(t), nil, nil).SetupRouter()

	get := func(raw string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
			"/api/v1/istock/proxy-image?url="+url.QueryEscape(raw), nil))
		return w
	}

	w := get("https://media.gettyimages.com/photo.jpg")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "JPEGDATA", w.Body.String())
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=3600", w.Header().Get("Cache-Control"))

	w = get("https://example.com/photo.jpg")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Domain not allowed", w.Body.String())

	w = get("https://media.gettyimages.com/page.html")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Response is not an image", w.Body.String())

	w = get("")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing URL parameter", w.Body.String())

	w = get("https://media.gettyimages.com/missing.jpg")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = get("https://media.gettyimages.com/to-outside.jpg")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Domain not allowed", w.Body.String())
}

// TestAPI_Search verifies the search route response and missing
// credentials
func TestAPI_Search(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, client := newGetty(t, 3600)
	router := NewStockAPIServer(client, nil, nil, nil).SetupRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/istock/search",
		strings.NewReader(`{"query": "lake"}`)))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success    bool    `json:"success"`
		Images     []Image `json:"images"`
		TotalCount int     `json:"totalCount"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Len(t, resp.Images, 4)
	assert.Equal(t, 311, resp.TotalCount)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/istock/search",
		strings.NewReader(`{"query": ""}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	unconfigured := NewStockAPIServer(nil, nil, nil, nil).SetupRouter()
	w = httptest.NewRecorder()
	unconfigured.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/istock/search",
		strings.NewReader(`{"query": "lake"}`)))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// fakeLibrary records media library calls.
type fakeLibrary struct {
	upload      wordpress.MediaUpload
	details     wordpress.MediaDetails
	featuredFor int
	size        string
	describeErr error
}

func (f *fakeLibrary) UploadMedia(_ context.Context, file wordpress.MediaUpload) (*wordpress.Media, error) {
	f.upload = file
	return &wordpress.Media{ID: 77, URL: "https://news.example.com/getty.jpg"}, nil
}

func (f *fakeLibrary) UpdateMedia(_ context.Context, _ int, details wordpress.MediaDetails) error {
	f.details = details
	return f.describeErr
}

func (f *fakeLibrary) SetFeaturedImage(_ context.Context, postID, _ int, size string) error {
	f.featuredFor = postID
	f.size = size
	return nil
}

// TestAPI_Upload verifies download, upload, default media fields and the
// featured image
func TestAPI_Upload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	lib := &fakeLibrary{}
	server := NewStockAPIServer(nil, newImageHost(t), lib, nil)
	server.now = func() time.Time { return time.UnixMilli(1700000000000) }
	router := server.SetupRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/istock/upload-to-wordpress",
		strings.NewReader(`{"imageUrl": "https://media.gettyimages.com/photo.jpg", "imageId": "104", "postId": 12}`)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success": true, "mediaId": 77, "mediaUrl": "https://news.example.com/getty.jpg"}`, w.Body.String())

	assert.Equal(t, "getty-104-1700000000000.jpg", lib.upload.Filename)
	assert.Equal(t, "JPEGDATA", string(lib.upload.Data))
	assert.Equal(t, wordpress.MediaDetails{
		Title:   "Getty Image 104",
		AltText: "Getty Image 104",
		Caption: "Image via Getty Images",
	}, lib.details)
	assert.Equal(t, 12, lib.featuredFor)
	assert.Equal(t, "large", lib.size)
}

// TestAPI_UploadDescribeFailureLogged verifies metadata failures do not
// fail an upload
func TestAPI_UploadDescribeFailureLogged(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.WarnLevel)
	lib := &fakeLibrary{describeErr: fmt.Errorf("boom")}
	router := NewStockAPIServer(nil, newImageHost(t), lib, zap.New(core)).SetupRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/istock/upload-to-wordpress",
		strings.NewReader(`{"imageUrl": "https://media.gettyimages.com/photo.jpg", "imageId": "1", "title": "Lake"}`)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, logs.FilterMessage("failed to describe uploaded media").Len())
	assert.Equal(t, "Lake", lib.details.AltText)
	assert.Zero(t, lib.featuredFor)
}

// TestAPI_UploadValidation verifies rejected upload requests
func TestAPI_UploadValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewStockAPIServer(nil, newImageHost(t), &fakeLibrary{}, nil).SetupRouter()

	tests := []struct {
		body string
		code int
	}{
		{`{}`, http.StatusBadRequest},
		{`{"imageUrl": "https://media.gettyimages.com/photo.jpg", "imageSize": "huge"}`, http.StatusBadRequest},
		{`{"imageUrl": "https://example.com/photo.jpg"}`, http.StatusForbidden},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/istock/upload-to-wordpress",
			strings.NewReader(tt.body)))
		assert.Equal(t, tt.code, w.Code, tt.body)
	}

	unconfigured := NewStockAPIServer(nil, nil, nil, nil).SetupRouter()
	w := httptest.NewRecorder()
	unconfigured.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/istock/upload-to-wordpress",
		strings.NewReader(`{"imageUrl": "https://media.gettyimages.com/photo.jpg"}`)))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
