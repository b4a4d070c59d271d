package http

import (
	"github.com/gin-gonic/gin"

	"github.com/grocerylens/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP, cfg.RateLimit.Burst))
	{
		products := v1.Group("/products")
		{
			products.POST("/search", handler.SearchProducts)
			products.POST("/sort", handler.SortProducts)
			products.GET("/suggest", handler.SuggestProducts)
			products.GET("/tracked", handler.TrackedProducts)
			products.GET("/:id/history", handler.PriceHistory)
			products.GET("/:id/comparison", handler.PriceComparison)
		}

		v1.GET("/stats", handler.Stats)
	}

	return router
}
