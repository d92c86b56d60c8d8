package pipeline

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pevans/briefsmith/apiutil"
	"github.com/pevans/briefsmith/article"
	"go.uber.org/zap"
)

// PipelineAPIServer exposes single-article fetch and brief generation.
type PipelineAPIServer struct {
	generator *Generator
	logger    *zap.Logger
}

// NewPipelineAPIServer creates a new pipeline API server.
func NewPipelineAPIServer(generator *Generator, logger *zap.Logger) *PipelineAPIServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PipelineAPIServer{
		generator: generator,
		logger:    logger,
	}
}

// SetupRouter configures a standalone router with the pipeline routes.
func (s *PipelineAPIServer) SetupRouter() *gin.Engine {
	return apiutil.NewRouter(s.logger, s)
}

// Register mounts the pipeline routes on api.
func (s *PipelineAPIServer) Register(api *gin.RouterGroup) {
	api.POST("/fetch-article", s.HandleFetchArticle)
	api.POST("/generate-brief", s.HandleGenerateBrief)
}

// FetchArticleRequest is the request for POST /api/v1/fetch-article.
type FetchArticleRequest struct {
	URL string `json:"url"`
}

// FetchArticleResponse mirrors the fetch outcome: Data on success, Error
// otherwise.
type FetchArticleResponse struct {
	Success bool                      `json:"success"`
	Data    *article.ExtractedContent `json:"data,omitempty"`
	Error   *article.FetchError       `json:"error,omitempty"`
}

// HandleFetchArticle handles POST /api/v1/fetch-article. Invalid URLs are
// rejected with 400; fetch and extraction failures are reported with 200
// so the client can fall back to manual input.
func (s *PipelineAPIServer) HandleFetchArticle(c *gin.Context) {
	var req FetchArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, FetchArticleResponse{
			Error: article.NewFetchError(article.ErrInvalidURL, "URL is required"),
		})
		return
	}

	content, err := s.generator.FetchArticle(c.Request.Context(), req.URL)
	if err != nil {
		var fetchErr *article.FetchError
		if !errors.As(err, &fetchErr) {
			s.logger.Error("fetch article failed", zap.String("url", req.URL), zap.Error(err))
			c.JSON(http.StatusInternalServerError, FetchArticleResponse{
				Error: article.NewFetchError(article.ErrNetwork, "An unexpected error occurred"),
			})
			return
		}

		status := http.StatusOK
		if fetchErr.Type == article.ErrInvalidURL {
			status = http.StatusBadRequest
		}
		c.JSON(status, FetchArticleResponse{Error: fetchErr})
		return
	}

	c.JSON(http.StatusOK, FetchArticleResponse{Success: true, Data: content})
}

// GenerateBriefRequest is the request for POST /api/v1/generate-brief.
type GenerateBriefRequest struct {
	Articles []article.Input `json:"articles"`
	APIKey   string          `json:"apiKey,omitempty"`
}

// HandleGenerateBrief handles POST /api/v1/generate-brief. Partial failures
// are reported in the errors list alongside the brief.
func (s *PipelineAPIServer) HandleGenerateBrief(c *gin.Context) {
	var req GenerateBriefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiutil.ErrorResponse(apiutil.CodeBadRequest, err.Error()))
		return
	}

	outcome, err := s.generator.Generate(c.Request.Context(), req.Articles, req.APIKey)
	if err != nil {
		var inputErr *InputError
		if errors.As(err, &inputErr) {
			c.JSON(http.StatusBadRequest, Outcome{
				Errors: []article.ProcessingError{{ID: inputErr.ID, Error: inputErr.Message}},
			})
			return
		}

		s.logger.Error("generate brief failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Outcome{
			Errors: []article.ProcessingError{{ID: "system", Error: "An unexpected error occurred"}},
		})
		return
	}

	c.JSON(http.StatusOK, outcome)
}
