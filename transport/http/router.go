package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/authflow/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter sets up the Gin router
func SetupRouter(authService *service.AuthService, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))

	handlers := NewAuthHandlers(authService)

	router.POST("/register", handlers.Register)
	router.POST("/login", handlers.Login)
	router.POST("/refresh", handlers.Refresh)
	router.POST("/logout", handlers.Logout)

	// Protected routes
	secure := router.Group("/secure")
	secure.Use(AuthMiddleware(authService))
	{
		secure.GET("/data", handlers.SecureData)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
