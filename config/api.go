package config

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pevans/briefsmith/apiutil"
	"go.uber.org/zap"
)

// ConfigAPIServer reports which integrations are configured. Credentials
// themselves are never returned.
type ConfigAPIServer struct {
	config *Config
	logger *zap.Logger
}

// NewConfigAPIServer creates a new config API server.
func NewConfigAPIServer(config *Config, logger *zap.Logger) *ConfigAPIServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfigAPIServer{
		config: config,
		logger: logger,
	}
}

// SetupRouter configures a standalone router with the config routes.
func (c *ConfigAPIServer) SetupRouter() *gin.Engine {
	return apiutil.NewRouter(c.logger, c)
}

// Register mounts the config routes on api.
func (c *ConfigAPIServer) Register(api *gin.RouterGroup) {
	api.GET("/config/status", c.HandleGetStatus)
}

// HandleGetStatus handles GET /api/v1/config/status.
func (c *ConfigAPIServer) HandleGetStatus(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.config.Status())
}
