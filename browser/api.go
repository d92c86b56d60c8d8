package browser

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pevans/briefsmith/apiutil"
	"github.com/pevans/briefsmith/sites"
	"go.uber.org/zap"
)

// CustomSites is the editable part of the site registry.
type CustomSites interface {
	Add(name, domain, loginURL string) (string, error)
	Remove(key string) error
	Custom() ([]sites.Site, error)
}

// SessionAPIServer exposes saved sessions, the login window and the custom
// site registry.
type SessionAPIServer struct {
	manager  *Manager
	registry CustomSites
	logger   *zap.Logger
}

// NewSessionAPIServer creates a new session API server.
func NewSessionAPIServer(manager *Manager, registry CustomSites, logger *zap.Logger) *SessionAPIServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionAPIServer{
		manager:  manager,
		registry: registry,
		logger:   logger,
	}
}

// SetupRouter configures a standalone router with the session routes.
func (s *SessionAPIServer) SetupRouter() *gin.Engine {
	return apiutil.NewRouter(s.logger, s)
}

// Register mounts the session routes on api.
func (s *SessionAPIServer) Register(api *gin.RouterGroup) {
	api.GET("/sessions", s.HandleListSessions)
	api.POST("/sessions/login", s.HandleLogin)
	api.POST("/sessions/logout", s.HandleLogout)
	api.GET("/sessions/custom", s.HandleListCustom)
	api.POST("/sessions/custom", s.HandleAddCustom)
	api.DELETE("/sessions/custom", s.HandleRemoveCustom)
}

var errSiteKeyRequired = errors.New("Site key is required")

func (s *SessionAPIServer) handleError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, errSiteKeyRequired), errors.Is(err, sites.ErrMissingFields),
		errors.Is(err, sites.ErrInvalidLoginURL), errors.Is(err, sites.ErrBuiltinSite):
		c.JSON(http.StatusBadRequest, apiutil.ErrorResponse(apiutil.CodeValidation, err.Error()))
	case errors.Is(err, sites.ErrDuplicateDomain):
		c.JSON(http.StatusConflict, apiutil.ErrorResponse(apiutil.CodeConflict, err.Error()))
	case errors.Is(err, ErrUnknownSite), errors.Is(err, sites.ErrSiteNotFound):
		c.JSON(http.StatusNotFound, apiutil.ErrorResponse(apiutil.CodeNotFound, err.Error()))
	default:
		s.logger.Error(fallback, zap.Error(err))
		c.JSON(http.StatusInternalServerError, apiutil.ErrorResponse(apiutil.CodeInternal, fallback))
	}
}

// HandleListSessions handles GET /api/v1/sessions.
func (s *SessionAPIServer) HandleListSessions(c *gin.Context) {
	statuses, err := s.manager.Sites()
	if err != nil {
		s.handleError(c, err, "Failed to get sessions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sites": statuses})
}

// SiteKeyRequest names a site for login and logout.
type SiteKeyRequest struct {
	SiteKey string `json:"siteKey"`
}

// HandleLogin handles POST /api/v1/sessions/login. The request blocks
// until the editor signs in or the login window times out.
func (s *SessionAPIServer) HandleLogin(c *gin.Context) {
	var req SiteKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SiteKey == "" {
		s.handleError(c, errSiteKeyRequired, "")
		return
	}

	result, err := s.manager.Login(c.Request.Context(), req.SiteKey)
	if err != nil {
		s.handleError(c, err, "Failed to open login window")
		return
	}

	s.logger.Info("login finished", zap.String("site", req.SiteKey), zap.Bool("success", result.Success))
	c.JSON(http.StatusOK, result)
}

// HandleLogout handles POST /api/v1/sessions/logout.
func (s *SessionAPIServer) HandleLogout(c *gin.Context) {
	var req SiteKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SiteKey == "" {
		s.handleError(c, errSiteKeyRequired, "")
		return
	}

	cleared, err := s.manager.Logout(req.SiteKey)
	if err != nil {
		s.handleError(c, err, "Failed to clear session")
		return
	}

	message := "No session found to clear"
	if cleared {
		message = "Session cleared"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

// HandleListCustom handles GET /api/v1/sessions/custom.
func (s *SessionAPIServer) HandleListCustom(c *gin.Context) {
	custom, err := s.registry.Custom()
	if err != nil {
		s.handleError(c, err, "Failed to get custom sites")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sites": custom})
}

// AddCustomRequest is the request for POST /api/v1/sessions/custom.
type AddCustomRequest struct {
	Name     string `json:"name"`
	Domain   string `json:"domain"`
	LoginURL string `json:"loginUrl"`
}

// HandleAddCustom handles POST /api/v1/sessions/custom.
func (s *SessionAPIServer) HandleAddCustom(c *gin.Context) {
	var req AddCustomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiutil.ErrorResponse(apiutil.CodeBadRequest, err.Error()))
		return
	}

	key, err := s.registry.Add(req.Name, req.Domain, req.LoginURL)
	if err != nil {
		s.handleError(c, err, "Failed to add custom site")
		return
	}

	s.logger.Info("custom site added", zap.String("key", key), zap.String("domain", req.Domain))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"key":     key,
		"message": fmt.Sprintf("Added %s successfully", req.Name),
	})
}

// RemoveCustomRequest is the request for DELETE /api/v1/sessions/custom.
type RemoveCustomRequest struct {
	Key string `json:"key"`
}

// HandleRemoveCustom handles DELETE /api/v1/sessions/custom.
func (s *SessionAPIServer) HandleRemoveCustom(c *gin.Context) {
	var req RemoveCustomRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Key == "" {
		s.handleError(c, errSiteKeyRequired, "")
		return
	}

	if err := s.registry.Remove(req.Key); err != nil {
		s.handleError(c, err, "Failed to remove custom site")
		return
	}

	s.logger.Info("custom site removed", zap.String("key", req.Key))
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Site removed successfully"})
}
