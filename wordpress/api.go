package wordpress

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pevans/briefsmith/apiutil"
	"go.uber.org/zap"
)

// WordPressAPIServer exposes publishing to the configured WordPress site.
type WordPressAPIServer struct {
	client *Client
	logger *zap.Logger
}

// NewWordPressAPIServer creates a new WordPress API server. client may be
// nil when WordPress is not configured; every route then reports
// ErrNotConfigured.
func NewWordPressAPIServer(client *Client, logger *zap.Logger) *WordPressAPIServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WordPressAPIServer{
		client: client,
		logger: logger,
	}
}

// SetupRouter configures a standalone router with the WordPress routes.
func (s *WordPressAPIServer) SetupRouter() *gin.Engine {
	return apiutil.NewRouter(s.logger, s)
}

// Register mounts the WordPress routes on api.
func (s *WordPressAPIServer) Register(api *gin.RouterGroup) {
	api.POST("/wordpress/publish", s.HandlePublish)
	api.POST("/wordpress/update-seo", s.HandleUpdateSEO)
	api.GET("/wordpress/users", s.HandleListUsers)
}

// handleError maps client errors to HTTP responses.
func (s *WordPressAPIServer) handleError(c *gin.Context, err error) {
	var se *StatusError
	switch {
	case errors.Is(err, ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, apiutil.ErrorResponse(apiutil.CodeNotConfigured, err.Error()))
	case errors.Is(err, ErrTitleRequired), errors.Is(err, ErrPostIDRequired):
		c.JSON(http.StatusBadRequest, apiutil.ErrorResponse(apiutil.CodeValidation, err.Error()))
	case errors.Is(err, ErrAuthFailed), errors.Is(err, ErrPermissionDenied):
		c.JSON(http.StatusBadGateway, apiutil.ErrorResponse(apiutil.CodeUpstream, err.Error()))
	case errors.As(err, &se):
		c.JSON(se.StatusCode, apiutil.ErrorResponse(apiutil.CodeUpstream, err.Error()))
	default:
		s.logger.Error("wordpress request failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, apiutil.ErrorResponse(apiutil.CodeUpstream, err.Error()))
	}
}

// PublishResponse is the response for POST /api/v1/wordpress/publish.
type PublishResponse struct {
	Success bool `json:"success"`
	Post
}

// HandlePublish handles POST /api/v1/wordpress/publish.
func (s *WordPressAPIServer) HandlePublish(c *gin.Context) {
	if s.client == nil {
		s.handleError(c, ErrNotConfigured)
		return
	}

	var req PostInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiutil.ErrorResponse(apiutil.CodeBadRequest, err.Error()))
		return
	}
	if req.Status != "" && req.Status != StatusDraft && req.Status != StatusPublish {
		c.JSON(http.StatusBadRequest, apiutil.ErrorResponse(apiutil.CodeValidation, "status must be draft or publish"))
		return
	}

	post, err := s.client.Publish(c.Request.Context(), req)
	if err != nil {
		s.handleError(c, err)
		return
	}

	s.logger.Info("published post", zap.Int("post_id", post.ID), zap.String("status", req.Status))
	c.JSON(http.StatusOK, PublishResponse{Success: true, Post: *post})
}

// HandleUpdateSEO handles POST /api/v1/wordpress/update-seo.
func (s *WordPressAPIServer) HandleUpdateSEO(c *gin.Context) {
	if s.client == nil {
		s.handleError(c, ErrNotConfigured)
		return
	}

	var req SEOUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiutil.ErrorResponse(apiutil.CodeBadRequest, err.Error()))
		return
	}

	if err := s.client.UpdateSEO(c.Request.Context(), req); err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// HandleListUsers handles GET /api/v1/wordpress/users.
func (s *WordPressAPIServer) HandleListUsers(c *gin.Context) {
	if s.client == nil {
		s.handleError(c, ErrNotConfigured)
		return
	}

	users, err := s.client.Users(c.Request.Context())
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "users": users})
}
