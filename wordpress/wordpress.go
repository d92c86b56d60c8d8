package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds every request to the WordPress REST API.
const DefaultTimeout = 30 * time.Second

var (
	// ErrNotConfigured is returned when the site URL or credentials are
	// missing.
	ErrNotConfigured = errors.New("WordPress credentials not configured")

	// ErrTitleRequired is returned by Publish when the post has no title
	// or no content.
	ErrTitleRequired = errors.New("Title and content are required")

	// ErrPostIDRequired is returned when an update names no post.
	ErrPostIDRequired = errors.New("Post ID is required")

	// ErrAuthFailed maps a 401 from WordPress.
	ErrAuthFailed = errors.New("WordPress authentication failed. Check your username and application password.")

	// ErrPermissionDenied maps a 403 from WordPress.
	ErrPermissionDenied = errors.New("Permission denied. Make sure your WordPress user has permission to create posts.")
)

// StatusError is a non-2xx response from WordPress.
type StatusError struct {
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("WordPress %s: %d", e.Op, e.StatusCode)
}

// Post statuses accepted by Publish.
const (
	StatusDraft   = "draft"
	StatusPublish = "publish"
)

// PostInput describes a new post.
type PostInput struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Excerpt    string `json:"excerpt,omitempty"`
	Status     string `json:"status"`
	Categories []int  `json:"categories,omitempty"`
	Tags       []int  `json:"tags,omitempty"`
}

// Post is a created post.
type Post struct {
	ID      int    `json:"postId"`
	URL     string `json:"postUrl"`
	EditURL string `json:"editUrl"`
}

// SEOUpdate changes the title, excerpt and SEO meta of an existing post.
// Empty fields are left alone.
type SEOUpdate struct {
	PostID          int    `json:"postId"`
	Title           string `json:"title,omitempty"`
	SEOTitle        string `json:"seoTitle,omitempty"`
	MetaDescription string `json:"metaDescription,omitempty"`
	Excerpt         string `json:"excerpt,omitempty"`
}

// User is a WordPress author.
type User struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// MediaUpload is a file for the media library.
type MediaUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// MediaDetails are the descriptive fields of a media item.
type MediaDetails struct {
	Title       string `json:"title"`
	AltText     string `json:"alt_text"`
	Caption     string `json:"caption"`
	Description string `json:"description"`
}

// Media is an uploaded media item.
type Media struct {
	ID  int    `json:"id"`
	URL string `json:"source_url"`
}

// Client talks to one WordPress site with an application password.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
}

// New creates a client for the site at baseURL.
func New(baseURL, username, appPassword string) (*Client, error) {
	return NewWithClient(baseURL, username, appPassword, &http.Client{Timeout: DefaultTimeout})
}

// NewWithClient is New with a caller-supplied HTTP client.
func NewWithClient(baseURL, username, appPassword string, httpClient *http.Client) (*Client, error) {
	if baseURL == "" || username == "" || appPassword == "" {
		return nil, ErrNotConfigured
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: appPassword,
		http:     httpClient,
	}, nil
}

// Publish creates a post. An excerpt is also written to the subtitle meta
// keys used by common themes and plugins.
func (c *Client) Publish(ctx context.Context, in PostInput) (*Post, error) {
	if in.Title == "" || in.Content == "" {
		return nil, ErrTitleRequired
	}
	if in.Status == "" {
		in.Status = StatusDraft
	}

	body := map[string]any{
		"title":   in.Title,
		"content": in.Content,
		"status":  in.Status,
	}
	if in.Excerpt != "" {
		body["excerpt"] = in.Excerpt
		body["meta"] = map[string]string{
			"newspack_post_subtitle": in.Excerpt,
			"_subtitle":              in.Excerpt,
			"wps_subtitle":           in.Excerpt,
			"subtitle":               in.Excerpt,
		}
	}
	if len(in.Categories) > 0 {
		body["categories"] = in.Categories
	}
	if len(in.Tags) > 0 {
		body["tags"] = in.Tags
	}

	var created struct {
		ID   int    `json:"id"`
		Link string `json:"link"`
	}
	if err := c.do(ctx, http.MethodPost, "/wp-json/wp/v2/posts", "API error", body, &created); err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			switch se.StatusCode {
			case http.StatusUnauthorized:
				return nil, ErrAuthFailed
			case http.StatusForbidden:
				return nil, ErrPermissionDenied
			}
		}
		return nil, err
	}

	return &Post{
		ID:      created.ID,
		URL:     created.Link,
		EditURL: c.EditURL(created.ID),
	}, nil
}

// EditURL is the admin editor link for a post.
func (c *Client) EditURL(postID int) string {
	return fmt.Sprintf("%s/wp-admin/post.php?post=%d&action=edit", c.baseURL, postID)
}

// UpdateSEO writes the title, excerpt and SEO meta of a post. SEO title
// and description are fanned out to the Yoast, All in One SEO and Rank
// Math keys plus a generic one.
func (c *Client) UpdateSEO(ctx context.Context, in SEOUpdate) error {
	if in.PostID == 0 {
		return ErrPostIDRequired
	}

	body := map[string]any{}
	if in.Title != "" {
		body["title"] = in.Title
	}
	if in.Excerpt != "" {
		body["excerpt"] = in.Excerpt
	}

	meta := map[string]string{}
	if in.SEOTitle != "" {
		meta["_yoast_wpseo_title"] = in.SEOTitle
		meta["_aioseo_title"] = in.SEOTitle
		meta["rank_math_title"] = in.SEOTitle
		meta["_seo_title"] = in.SEOTitle
	}
	if in.MetaDescription != "" {
		meta["_yoast_wpseo_metadesc"] = in.MetaDescription
		meta["_aioseo_description"] = in.MetaDescription
		meta["rank_math_description"] = in.MetaDescription
		meta["_meta_description"] = in.MetaDescription
	}
	if len(meta) > 0 {
		body["meta"] = meta
	}

	return c.do(ctx, http.MethodPost, "/wp-json/wp/v2/posts/"+strconv.Itoa(in.PostID), "update failed", body, nil)
}

// Users lists up to 20 users of the site.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.do(ctx, http.MethodGet, "/wp-json/wp/v2/users?per_page=20&context=edit", "API error", nil, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []User{}
	}
	return users, nil
}

// UploadMedia adds a file to the media library.
func (c *Client) UploadMedia(ctx context.Context, file MediaUpload) (*Media, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Filename))
	contentType := file.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	header.Set("Content-Type", contentType)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/wp-json/wp/v2/media", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, file.Filename))

	var media Media
	if err := c.send(req, "upload failed", &media); err != nil {
		return nil, err
	}
	return &media, nil
}

// UpdateMedia sets the descriptive fields of a media item.
func (c *Client) UpdateMedia(ctx context.Context, mediaID int, details MediaDetails) error {
	return c.do(ctx, http.MethodPost, "/wp-json/wp/v2/media/"+strconv.Itoa(mediaID), "update failed", details, nil)
}

// SetFeaturedImage makes mediaID the featured image of postID. size is
// written to the meta keys themes read the featured image size from.
func (c *Client) SetFeaturedImage(ctx context.Context, postID, mediaID int, size string) error {
	if postID == 0 {
		return ErrPostIDRequired
	}
	body := map[string]any{
		"featured_media": mediaID,
		"meta": map[string]any{
			"_thumbnail_id":                    mediaID,
			"_featured_image_size":             size,
			"featured_image_size":              size,
			"newspack_featured_image_position": size,
		},
	}
	return c.do(ctx, http.MethodPost, "/wp-json/wp/v2/posts/"+strconv.Itoa(postID), "update failed", body, nil)
}

func (c *Client) do(ctx context.Context, method, path, op string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, op, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) send(req *http.Request, op string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach WordPress: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Op: op, StatusCode: resp.StatusCode}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode WordPress response: %w", err)
	}
	return nil
}
