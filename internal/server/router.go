package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterConfig carries the wired handlers into NewRouter.
type RouterConfig struct {
	AllowedOrigins []string
	CaseHandler    *CaseHandler
	AuthHandler    *AuthHandler
	AuthMiddleware *AuthMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", HealthCheck)

	// Protected
	api := router.Group("/api/v1")
	api.Use(cfg.AuthMiddleware.RequireAuth())

	api.GET("/auth/me", cfg.AuthHandler.Me)

	api.POST("/cases/upload", cfg.CaseHandler.Upload)
	api.GET("/cases", cfg.CaseHandler.List)
	api.GET("/cases/export", cfg.CaseHandler.Export)
	api.GET("/cases/:id", cfg.CaseHandler.Get)
	api.POST("/cases/:id/analyze", cfg.CaseHandler.Analyze)

	return router
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
