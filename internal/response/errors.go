package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Error writes the JSON error body shared by every endpoint. Only a stable
// code is exposed; details belong in the logs.
func Error(c *gin.Context, status int, code string) {
	c.JSON(status, gin.H{
		"error":     code,
		"timestamp": time.Now().UTC(),
	})
}

// AbortWithError is Error for middleware.
func AbortWithError(c *gin.Context, status int, code string) {
	Error(c, status, code)
	c.Abort()
}

// BadRequest is Error with the validation message, which is safe to show.
func BadRequest(c *gin.Context, code string, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":     code,
		"message":   err.Error(),
		"timestamp": time.Now().UTC(),
	})
}
