package summarize

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pevans/briefsmith/apiutil"
	"github.com/pevans/briefsmith/llm"
	"go.uber.org/zap"
)

// ModelFactory builds a completer for an API key.
type ModelFactory func(apiKey string) llm.Completer

var (
	errKeyRequired  = errors.New("API key is required. Please provide an API key or set ANTHROPIC_API_KEY environment variable.")
	errNoValid      = errors.New("No valid articles to summarize. Each article needs an id, headline, content, and sourceName.")
	errNoGemini     = errors.New("GEMINI_API_KEY is not configured")
	errNoAnthropic  = errors.New("ANTHROPIC_API_KEY is not configured")
	errNeedArticles = errors.New("At least one article is required")
)

// SummarizeAPIServer exposes the model-backed writing helpers.
type SummarizeAPIServer struct {
	claude     ModelFactory
	defaultKey string
	gemini     llm.Completer
	logger     *zap.Logger
}

// NewSummarizeAPIServer creates a new summarize API server. claude builds
// the batch summarizer and title model per API key; defaultKey is used
// when a request carries none. gemini may be nil when no Gemini key is
// configured.
func NewSummarizeAPIServer(claude ModelFactory, defaultKey string, gemini llm.Completer, logger *zap.Logger) *SummarizeAPIServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummarizeAPIServer{
		claude:     claude,
		defaultKey: defaultKey,
		gemini:     gemini,
		logger:     logger,
	}
}

// SetupRouter configures a standalone router with the summarize routes.
func (s *SummarizeAPIServer) SetupRouter() *gin.Engine {
	return apiutil.NewRouter(s.logger, s)
}

// Register mounts the summarize routes on api.
func (s *SummarizeAPIServer) Register(api *gin.RouterGroup) {
	api.POST("/summarize", s.HandleSummarize)
	api.POST("/suggest-title", s.HandleSuggestTitle)
	api.POST("/summarize-gemini", s.HandleSummarizeGemini)
	api.POST("/seo-suggestions", s.HandleSEOSuggestions)
	api.POST("/image-seo", s.HandleImageSEO)
}

// handleError maps validation and model errors to HTTP responses.
// Retryable model failures are 503 so clients know to try again.
func (s *SummarizeAPIServer) handleError(c *gin.Context, err error) {
	var le *llm.Error
	switch {
	case errors.Is(err, errNoGemini), errors.Is(err, errNoAnthropic):
		c.JSON(http.StatusServiceUnavailable, apiutil.ErrorResponse(apiutil.CodeNotConfigured, err.Error()))
	case errors.Is(err, ErrContentRequired), errors.Is(err, ErrArticlesRequired),
		errors.Is(err, ErrNoArticles), errors.Is(err, errKeyRequired),
		errors.Is(err, errNoValid), errors.Is(err, errNeedArticles):
		c.JSON(http.StatusBadRequest, apiutil.ErrorResponse(apiutil.CodeValidation, err.Error()))
	case errors.As(err, &le):
		if le.Retryable {
			s.logger.Warn("model request failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, apiutil.ErrorResponse(apiutil.CodeUnavailable, le.Message))
			return
		}
		c.JSON(http.StatusBadRequest, apiutil.ErrorResponse(apiutil.CodeBadRequest, le.Message))
	default:
		s.logger.Error("summarize request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, apiutil.ErrorResponse(apiutil.CodeInternal, "An unexpected error occurred during summarization"))
	}
}

// SummarizeRequest is the request for POST /api/v1/summarize.
type SummarizeRequest struct {
	Articles []Input `json:"articles"`
	APIKey   string  `json:"apiKey,omitempty"`
}

// HandleSummarize handles POST /api/v1/summarize.
func (s *SummarizeAPIServer) HandleSummarize(c *gin.Context) {
	var req SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiutil.ErrorResponse(apiutil.CodeBadRequest, err.Error()))
		return
	}

	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = s.defaultKey
	}
	if apiKey == "" {
		s.handleError(c, errKeyRequired)
		return
	}
	if len(req.Articles) == 0 {
		s.handleError(c, errNeedArticles)
		return
	}

	var valid []Input
	for _, a := range req.Articles {
		if a.Valid() {
			valid = append(valid, a)
		}
	}
	if len(valid) == 0 {
		s.handleError(c, errNoValid)
		return
	}

	summaries, err := NewSummarizer(s.claude(apiKey)).Summarize(c.Request.Context(), valid)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "summaries": summaries})
}

// SuggestTitleRequest is the request for POST /api/v1/suggest-title.
type SuggestTitleRequest struct {
	Articles []TitleArticle `json:"articles"`
}

// HandleSuggestTitle handles POST /api/v1/suggest-title.
func (s *SummarizeAPIServer) HandleSuggestTitle(c *gin.Context) {
	if s.defaultKey == "" {
		s.handleError(c, errNoAnthropic)
		return
	}

	var req SuggestTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiutil.ErrorResponse(apiutil.CodeBadRequest, err.Error()))
		return
	}

	title, err := NewSummarizer(s.claude(s.defaultKey)).SuggestTitle(c.Request.Context(), req.Articles)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "title": title})
}

// HandleSummarizeGemini handles POST /api/v1/summarize-gemini.
func (s *SummarizeAPIServer) HandleSummarizeGemini(c *gin.Context) {
	if s.gemini == nil {
		s.handleError(c, errNoGemini)
		return
	}

	var req SingleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiutil.ErrorResponse(apiutil.CodeBadRequest, err.Error()))
		return
	}

	single, err := NewAssistant(s.gemini).SummarizeOne(c.Request.Context(), req)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"emoji":      single.Emoji,
		"caption":    single.Caption,
		"summary":    single.Summary,
		"sourceName": single.SourceName,
	})
}

// SEORequest is the request for POST /api/v1/seo-suggestions.
type SEORequest struct {
	Articles     []SEOArticle `json:"articles"`
	CurrentTitle string       `json:"currentTitle"`
}

// HandleSEOSuggestions handles POST /api/v1/seo-suggestions.
func (s *SummarizeAPIServer) HandleSEOSuggestions(c *gin.Context) {
	if s.gemini == nil {
		s.handleError(c, errNoGemini)
		return
	}

	var req SEORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiutil.ErrorResponse(apiutil.CodeBadRequest, err.Error()))
		return
	}

	result, err := NewAssistant(s.gemini).SuggestSEO(c.Request.Context(), req.CurrentTitle, req.Articles)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"suggestions":      result.Suggestions,
		"imageSearchTerms": result.ImageSearchTerms,
	})
}

// HandleImageSEO handles POST /api/v1/image-seo.
func (s *SummarizeAPIServer) HandleImageSEO(c *gin.Context) {
	if s.gemini == nil {
		s.handleError(c, errNoGemini)
		return
	}

	var req ImageSEOInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiutil.ErrorResponse(apiutil.CodeBadRequest, err.Error()))
		return
	}

	meta, err := NewAssistant(s.gemini).DescribeImage(c.Request.Context(), req)
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"altText":     meta.AltText,
		"caption":     meta.Caption,
		"description": meta.Description,
	})
}
