package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/authflow/service"
)

// AuthMiddleware creates middleware that validates access tokens
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Abort()
			c.String(http.StatusUnauthorized, "Invalid authorization header")
			return
		}

		grant, err := authService.ValidateAccessToken(c.Request.Context(), token)
		if err != nil {
			status, msg := tokenErrorResponse(err, "Access token")
			c.Abort()
			c.String(status, msg)
			return
		}

		c.Set(subjectKey, grant.Subject)
		c.Next()
	}
}

// bearerToken extracts a non-empty token from "Authorization: Bearer <token>"
func bearerToken(c *gin.Context) (string, bool) {
	auth := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found || strings.TrimSpace(token) == "" {
		return "", false
	}
	return token, true
}

// RequestLogger logs one line per request through slog
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	logger = logger.With("component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"http_method", c.Request.Method,
			"http_path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	}
}
