package brief

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pevans/briefsmith/apiutil"
	"github.com/pevans/briefsmith/article"
	"go.uber.org/zap"
)

// BriefAPIServer saves and lists finished briefs and renders article lists
// on demand.
type BriefAPIServer struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewBriefAPIServer creates a new brief API server.
func NewBriefAPIServer(store Store, logger *zap.Logger) *BriefAPIServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BriefAPIServer{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// SetupRouter configures a standalone router with the brief routes.
func (s *BriefAPIServer) SetupRouter() *gin.Engine {
	return apiutil.NewRouter(s.logger, s)
}

// Register mounts the brief routes on api.
func (s *BriefAPIServer) Register(api *gin.RouterGroup) {
	api.GET("/briefs", s.HandleListBriefs)
	api.POST("/briefs", s.HandleSaveBrief)
	api.POST("/briefs/format", s.HandleFormat)
}

// SaveBriefRequest is the request for POST /api/v1/briefs.
type SaveBriefRequest struct {
	Title    string          `json:"title"`
	PostURL  string          `json:"postUrl"`
	Articles []PacketArticle `json:"articles"`
}

// HandleSaveBrief handles POST /api/v1/briefs.
func (s *BriefAPIServer) HandleSaveBrief(c *gin.Context) {
	var req SaveBriefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiutil.ErrorResponse(apiutil.CodeBadRequest, err.Error()))
		return
	}

	packet, err := NewPacket(req.Title, req.PostURL, req.Articles, s.now())
	if err != nil {
		if errors.Is(err, ErrNoArticles) {
			c.JSON(http.StatusBadRequest, apiutil.ErrorResponse(apiutil.CodeValidation, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, apiutil.ErrorResponse(apiutil.CodeInternal, err.Error()))
		return
	}

	if err := s.store.Save(c.Request.Context(), packet); err != nil {
		s.logger.Error("failed to save brief", zap.String("id", packet.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, apiutil.ErrorResponse(apiutil.CodeInternal, "Failed to save brief"))
		return
	}

	s.logger.Info("brief saved", zap.String("id", packet.ID), zap.Int("articles", len(packet.Articles)))
	c.JSON(http.StatusOK, gin.H{"success": true, "id": packet.ID, "brief": packet})
}

// HandleListBriefs handles GET /api/v1/briefs.
func (s *BriefAPIServer) HandleListBriefs(c *gin.Context) {
	packets, err := s.store.List(c.Request.Context())
	if err != nil {
		s.logger.Error("failed to list briefs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, apiutil.ErrorResponse(apiutil.CodeInternal, "Failed to list briefs"))
		return
	}
	if packets == nil {
		packets = []Packet{}
	}

	c.JSON(http.StatusOK, gin.H{"briefs": packets})
}

// FormatRequest is the request for POST /api/v1/briefs/format.
type FormatRequest struct {
	Articles  []article.Summarized `json:"articles"`
	PostURL   string               `json:"postUrl,omitempty"`
	WordPress WordPressOptions     `json:"wordpress"`
}

// FormatResponse carries every rendering of the requested articles.
type FormatResponse struct {
	Success bool `json:"success"`
	Generated
	WordPress string `json:"wordpress"`
}

// HandleFormat handles POST /api/v1/briefs/format. Editors call it after
// reordering or editing articles; the newsletter variants link to postUrl
// when one is given.
func (s *BriefAPIServer) HandleFormat(c *gin.Context) {
	var req FormatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiutil.ErrorResponse(apiutil.CodeBadRequest, err.Error()))
		return
	}

	generated := Generate(req.Articles)
	generated.NewsletterHTML = NewsletterHTML(generated.Articles, req.PostURL)
	generated.NewsletterPlaintext = NewsletterPlaintext(generated.Articles, req.PostURL)

	c.JSON(http.StatusOK, FormatResponse{
		Success:   true,
		Generated: generated,
		WordPress: WordPress(generated.Articles, req.WordPress),
	})
}
