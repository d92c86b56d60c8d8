package curation

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pevans/briefsmith/apiutil"
	"github.com/pevans/briefsmith/llm"
	"github.com/pevans/briefsmith/urlcheck"
	"go.uber.org/zap"
)

var errNotConfigured = errors.New("ANTHROPIC_API_KEY is not configured")

// FeedReader loads curation candidates from a feed URL.
type FeedReader func(ctx context.Context, url string) ([]Candidate, error)

// CurationAPIServer exposes weekly curation, digest parsing and feed
// import.
type CurationAPIServer struct {
	curator *Curator
	feeds   FeedReader
	logger  *zap.Logger
}

// NewCurationAPIServer creates a new curation API server. model may be nil
// when no Anthropic key is configured; parsing and feed import still work.
func NewCurationAPIServer(model llm.Completer, logger *zap.Logger) *CurationAPIServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &CurationAPIServer{
		feeds:  FetchFeed,
		logger: logger,
	}
	if model != nil {
		s.curator = NewCurator(model)
	}
	return s
}

// SetupRouter configures a standalone router with the curation routes.
func (s *CurationAPIServer) SetupRouter() *gin.Engine {
	return apiutil.NewRouter(s.logger, s)
}

// Register mounts the curation routes on api.
func (s *CurationAPIServer) Register(api *gin.RouterGroup) {
	api.POST("/curate", s.HandleCurate)
	api.POST("/curate/parse", s.HandleParse)
	api.POST("/curate/feed", s.HandleFeed)
}

// handleError maps curation errors to HTTP responses.
func (s *CurationAPIServer) handleError(c *gin.Context, err error) {
	var le *llm.Error
	switch {
	case errors.Is(err, errNotConfigured):
		c.JSON(http.StatusServiceUnavailable, apiutil.ErrorResponse(apiutil.CodeNotConfigured, err.Error()))
	case errors.Is(err, ErrInvalidMode), errors.Is(err, ErrNoCandidates):
		c.JSON(http.StatusBadRequest, apiutil.ErrorResponse(apiutil.CodeValidation, err.Error()))
	case errors.Is(err, ErrNoArticles):
		c.JSON(http.StatusUnprocessableEntity, apiutil.ErrorResponse(apiutil.CodeUnprocessable, err.Error()))
	case errors.As(err, &le):
		if le.Retryable {
			c.JSON(http.StatusServiceUnavailable, apiutil.ErrorResponse(apiutil.CodeUnavailable, le.Message))
			return
		}
		c.JSON(http.StatusBadRequest, apiutil.ErrorResponse(apiutil.CodeBadRequest, le.Message))
	default:
		s.logger.Error("curation request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, apiutil.ErrorResponse(apiutil.CodeInternal, "Failed to process request"))
	}
}

// CurateRequest is the request for POST /api/v1/curate.
type CurateRequest struct {
	Mode     Mode        `json:"mode"`
	Articles []Candidate `json:"articles,omitempty"`
}

// HandleCurate handles POST /api/v1/curate. The raw digest is returned for
// review before it is parsed.
func (s *CurationAPIServer) HandleCurate(c *gin.Context) {
	if s.curator == nil {
		s.handleError(c, errNotConfigured)
		return
	}

	var req CurateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiutil.ErrorResponse(apiutil.CodeBadRequest, err.Error()))
		return
	}

	content, err := s.curator.Curate(c.Request.Context(), req.Mode, req.Articles)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "content": content})
}

// ParseRequest is the request for POST /api/v1/curate/parse.
type ParseRequest struct {
	Text string `json:"text"`
}

// HandleParse handles POST /api/v1/curate/parse.
func (s *CurationAPIServer) HandleParse(c *gin.Context) {
	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiutil.ErrorResponse(apiutil.CodeBadRequest, err.Error()))
		return
	}

	items := Parse(req.Text)
	if len(items) == 0 {
		s.handleError(c, ErrNoArticles)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "articles": items})
}

// FeedRequest is the request for POST /api/v1/curate/feed.
type FeedRequest struct {
	URL string `json:"url" binding:"required"`
}

// HandleFeed handles POST /api/v1/curate/feed.
func (s *CurationAPIServer) HandleFeed(c *gin.Context) {
	var req FeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiutil.ErrorResponse(apiutil.CodeValidation, err.Error()))
		return
	}
	if err := urlcheck.Validate(req.URL); err != nil {
		c.JSON(http.StatusBadRequest, apiutil.ErrorResponse(apiutil.CodeInvalidURL, err.Error()))
		return
	}

	candidates, err := s.feeds(c.Request.Context(), req.URL)
	if err != nil {
		s.logger.Warn("feed import failed", zap.String("url", req.URL), zap.Error(err))
		c.JSON(http.StatusBadGateway, apiutil.ErrorResponse(apiutil.CodeUpstream, err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "articles": candidates})
}
