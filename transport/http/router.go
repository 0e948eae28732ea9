package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/layer-3/mintpass/service"
)

// SetupRouter sets up the Gin router
func SetupRouter(challengeService *service.ChallengeService, gatherer prometheus.Gatherer, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), Logger(logger))

	handlers := NewChallengeHandlers(challengeService, logger)

	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	challenge := router.Group("/challenge")
	{
		challenge.GET("", handlers.Descriptor)
		challenge.POST("/verify", handlers.Verify)
	}

	router.POST("/receipts/verify", handlers.VerifyReceipt)

	return router
}
