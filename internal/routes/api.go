package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Setup404Handler configures the 404 handler
func Setup404Handler(router *gin.Engine) {
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "not_found",
			"path":      c.Request.URL.Path,
			"timestamp": time.Now().UTC(),
		})
	})
}
