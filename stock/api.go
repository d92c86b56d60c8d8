package stock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pevans/briefsmith/apiutil"
	"github.com/pevans/briefsmith/wordpress"
	"go.uber.org/zap"
)

// Featured image sizes accepted by the upload route.
var imageSizes = []string{"thumbnail", "medium", "large", "full"}

const defaultImageSize = "large"

// MediaLibrary is the part of the WordPress client used for uploads.
type MediaLibrary interface {
	UploadMedia(ctx context.Context, file wordpress.MediaUpload) (*wordpress.Media, error)
	UpdateMedia(ctx context.Context, mediaID int, details wordpress.MediaDetails) error
	SetFeaturedImage(ctx context.Context, postID, mediaID int, size string) error
}

// StockAPIServer exposes stock photo search, the image proxy and uploads
// to WordPress.
type StockAPIServer struct {
	client  *Client
	proxy   *Proxy
	library MediaLibrary
	logger  *zap.Logger
	now     func() time.Time
}

// NewStockAPIServer creates a new stock API server. client and library may
// be nil when Getty or WordPress are not configured.
func NewStockAPIServer(client *Client, proxy *Proxy, library MediaLibrary, logger *zap.Logger) *StockAPIServer {
	if proxy == nil {
		proxy = NewProxy(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockAPIServer{
		client:  client,
		proxy:   proxy,
		library: library,
		logger:  logger,
		now:     time.Now,
	}
}

// SetupRouter configures a standalone router with the stock routes.
func (s *StockAPIServer) SetupRouter() *gin.Engine {
	return apiutil.NewRouter(s.logger, s)
}

// Register mounts the stock routes on api.
func (s *StockAPIServer) Register(api *gin.RouterGroup) {
	api.POST("/istock/search", s.HandleSearch)
	api.GET("/istock/proxy-image", s.HandleProxyImage)
	api.POST("/istock/upload-to-wordpress", s.HandleUpload)
}

// handleError maps search and upload errors to HTTP responses.
func (s *StockAPIServer) handleError(c *gin.Context, err error) {
	var se *StatusError
	var we *wordpress.StatusError
	var ue *UpstreamError
	switch {
	case errors.Is(err, ErrNotConfigured), errors.Is(err, wordpress.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, apiutil.ErrorResponse(apiutil.CodeNotConfigured, err.Error()))
	case errors.Is(err, ErrQueryRequired), errors.Is(err, ErrMissingURL),
		errors.Is(err, ErrInvalidURL), errors.Is(err, ErrInvalidProtocol), errors.Is(err, ErrNotImage):
		c.JSON(http.StatusBadRequest, apiutil.ErrorResponse(apiutil.CodeValidation, err.Error()))
	case errors.Is(err, ErrHostNotAllowed):
		c.JSON(http.StatusForbidden, apiutil.ErrorResponse(apiutil.CodeForbidden, err.Error()))
	case errors.As(err, &se):
		c.JSON(se.StatusCode, apiutil.ErrorResponse(apiutil.CodeUpstream, err.Error()))
	case errors.As(err, &we):
		c.JSON(we.StatusCode, apiutil.ErrorResponse(apiutil.CodeUpstream, err.Error()))
	case errors.As(err, &ue):
		c.JSON(http.StatusBadGateway, apiutil.ErrorResponse(apiutil.CodeUpstream, "Failed to download image from Getty"))
	default:
		s.logger.Error("stock request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, apiutil.ErrorResponse(apiutil.CodeInternal, err.Error()))
	}
}

// SearchRequest is the request for POST /api/v1/istock/search.
type SearchRequest struct {
	Query string `json:"query"`
	Page  int    `json:"page"`
}

// HandleSearch handles POST /api/v1/istock/search.
func (s *StockAPIServer) HandleSearch(c *gin.Context) {
	if s.client == nil {
		s.handleError(c, ErrNotConfigured)
		return
	}

	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiutil.ErrorResponse(apiutil.CodeBadRequest, err.Error()))
		return
	}

	result, err := s.client.Search(c.Request.Context(), req.Query, req.Page)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"images":     result.Images,
		"totalCount": result.TotalCount,
	})
}

// HandleProxyImage handles GET /api/v1/istock/proxy-image?url=. Errors are
// plain text so the route can sit behind an <img> tag.
func (s *StockAPIServer) HandleProxyImage(c *gin.Context) {
	d, err := s.proxy.Open(c.Request.Context(), c.Query("url"))
	if err != nil {
		var ue *UpstreamError
		switch {
		case errors.Is(err, ErrHostNotAllowed):
			c.String(http.StatusForbidden, err.Error())
		case errors.As(err, &ue):
			c.String(ue.StatusCode, err.Error())
		case errors.Is(err, ErrMissingURL), errors.Is(err, ErrInvalidURL),
			errors.Is(err, ErrInvalidProtocol), errors.Is(err, ErrNotImage):
			c.String(http.StatusBadRequest, err.Error())
		default:
			s.logger.Warn("image proxy failed", zap.String("url", c.Query("url")), zap.Error(err))
			c.String(http.StatusInternalServerError, "Failed to proxy image")
		}
		return
	}
	defer d.Body.Close()

	c.DataFromReader(http.StatusOK, d.ContentLength, d.ContentType,
		io.LimitReader(d.Body, MaxImageBytes),
		map[string]string{"Cache-Control": CacheControl})
}

// UploadRequest is the request for POST /api/v1/istock/upload-to-wordpress.
type UploadRequest struct {
	ImageURL    string `json:"imageUrl"`
	ImageID     string `json:"imageId"`
	Title       string `json:"title"`
	PostID      int    `json:"postId,omitempty"`
	AltText     string `json:"altText,omitempty"`
	Caption     string `json:"caption,omitempty"`
	Description string `json:"description,omitempty"`
	ImageSize   string `json:"imageSize,omitempty"`
}

// HandleUpload handles POST /api/v1/istock/upload-to-wordpress. The image
// is downloaded through the proxy allow-list, added to the media library,
// described, and optionally set as a post's featured image.
func (s *StockAPIServer) HandleUpload(c *gin.Context) {
	if s.library == nil {
		s.handleError(c, wordpress.ErrNotConfigured)
		return
	}

	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiutil.ErrorResponse(apiutil.CodeBadRequest, err.Error()))
		return
	}
	if req.ImageURL == "" {
		c.JSON(http.StatusBadRequest, apiutil.ErrorResponse(apiutil.CodeValidation, "Image URL is required"))
		return
	}
	if req.ImageSize == "" {
		req.ImageSize = defaultImageSize
	}
	if !slices.Contains(imageSizes, req.ImageSize) {
		c.JSON(http.StatusBadRequest, apiutil.ErrorResponse(apiutil.CodeValidation, "imageSize must be thumbnail, medium, large or full"))
		return
	}

	ctx := c.Request.Context()

	data, contentType, err := s.proxy.Get(ctx, req.ImageURL)
	if err != nil {
		s.handleError(c, err)
		return
	}

	media, err := s.library.UploadMedia(ctx, wordpress.MediaUpload{
		Filename:    uploadFilename(req.ImageID, s.now()),
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		s.handleError(c, err)
		return
	}

	// The upload already succeeded; failures past this point are logged
	// and the media item is still returned.
	if err := s.library.UpdateMedia(ctx, media.ID, mediaDetails(req)); err != nil {
		s.logger.Warn("failed to describe uploaded media", zap.Int("media_id", media.ID), zap.Error(err))
	}
	if req.PostID != 0 {
		if err := s.library.SetFeaturedImage(ctx, req.PostID, media.ID, req.ImageSize); err != nil {
			s.logger.Warn("failed to set featured image",
				zap.Int("media_id", media.ID), zap.Int("post_id", req.PostID), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"mediaId":  media.ID,
		"mediaUrl": media.URL,
	})
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func uploadFilename(imageID string, now time.Time) string {
	id := unsafeFilename.ReplaceAllString(imageID, "")
	if id == "" {
		id = "image"
	}
	return fmt.Sprintf("getty-%s-%d.jpg", id, now.UnixMilli())
}

func mediaDetails(req UploadRequest) wordpress.MediaDetails {
	fallback := "Getty Image " + req.ImageID

	d := wordpress.MediaDetails{
		Title:       req.Title,
		AltText:     req.AltText,
		Caption:     req.Caption,
		Description: req.Description,
	}
	if d.Title == "" {
		d.Title = fallback
	}
	if d.AltText == "" {
		d.AltText = d.Title
	}
	if d.Caption == "" {
		d.Caption = "Image via Getty Images"
	}
	return d
}

