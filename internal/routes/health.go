package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conversly/lightning-whatsapp/internal/config"
	"github.com/Conversly/lightning-whatsapp/internal/controllers"
)

// SetupHealthRoutes configures health and status endpoints
func SetupHealthRoutes(router *gin.Engine, db controllers.Pinger, cfg *config.Config) {
	health := controllers.NewHealthController(db)
	system := controllers.NewSystemController(cfg)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/health", health.HealthCheck)
	router.GET("/health/live", health.Liveness)
	router.GET("/health/ready", health.Readiness)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/status", system.Status)
		v1.GET("/info", system.Info)
	}
}
