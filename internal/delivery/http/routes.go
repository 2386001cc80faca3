package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/pzmarket/quote-backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, gatherer prometheus.Gatherer) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		v1.GET("/catalog", handler.ListCatalog)
		v1.GET("/catalog/:id", handler.GetProduct)
		v1.GET("/segments", handler.ListSegments)
		v1.POST("/estimate", handler.EstimateSavings)
		v1.POST("/quotes", handler.CreateQuote)

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", handler.CreateSession)
			sessions.GET("/:id", handler.GetSession)
			sessions.POST("/:id/lead", handler.SubmitLead)
			sessions.POST("/:id/analyze", handler.AnalyzeSession)
			sessions.POST("/:id/onboarding", handler.BeginOnboarding)
			sessions.POST("/:id/complete", handler.CompleteSession)
			sessions.POST("/:id/reset", handler.ResetSession)
		}

		staff := v1.Group("/staff")
		staff.Use(StaffKeyMiddleware(cfg.Server.StaffKey))
		{
			staff.GET("/segments", handler.StaffListSegments)
			staff.PUT("/segments/:category", handler.StaffUpdateSegment)
			staff.POST("/quotes", handler.StaffCreateQuote)
		}
	}

	return router
}
