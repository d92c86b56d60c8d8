package apiutil

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BasePath is the prefix every API route is mounted under.
const BasePath = "/api/v1"

// Registrar is implemented by every API server so one router can carry
// all of them.
type Registrar interface {
	Register(api *gin.RouterGroup)
}

// NewRouter creates an engine with recovery, request logging and CORS, and
// mounts each server under BasePath.
func NewRouter(logger *zap.Logger, servers ...Registrar) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery(), Logger(logger), CORS())

	api := router.Group(BasePath)
	for _, s := range servers {
		s.Register(api)
	}

	return router
}

// CORS allows any origin and answers preflight requests directly.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}

// Logger logs each request using zap.
func Logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}

// ErrorResponse creates a standardized error response.
func ErrorResponse(code, message string) gin.H {
	return gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// Error codes shared by the API servers.
const (
	CodeBadRequest    = "bad_request"
	CodeValidation    = "validation_error"
	CodeNotFound      = "not_found"
	CodeConflict      = "conflict"
	CodeNotConfigured = "not_configured"
	CodeUpstream      = "upstream_error"
	CodeUnavailable   = "service_unavailable"
	CodeUnprocessable = "unprocessable"
	CodeInternal      = "internal_error"
	CodeForbidden     = "forbidden"
	CodeNeedsLogin    = "needs_login"
	CodeInvalidURL    = "INVALID_URL"
)
